package exchange

import (
	"context"
	"sync"
)

// MockClient is an in-memory Client used by tests across the module (rate
// populate, roundtrip enumerator, driver wiring) that need a deterministic
// exchange without touching the network.
type MockClient struct {
	mu sync.Mutex

	name         string
	symbols      []string
	caps         Capabilities
	books        map[string]OrderBook
	tickers      map[string]Ticker
	loadErr      error
	bookErr      map[string]error
	tickersErr   error
	loadCalls    int
	bookCalls    map[string]int
	tickersCalls int
}

// NewMockClient creates a mock with the given venue name and symbol list.
func NewMockClient(name string, symbols []string, caps Capabilities) *MockClient {
	return &MockClient{
		name:      name,
		symbols:   symbols,
		caps:      caps,
		books:     make(map[string]OrderBook),
		tickers:   make(map[string]Ticker),
		bookErr:   make(map[string]error),
		bookCalls: make(map[string]int),
	}
}

func (m *MockClient) Name() string { return m.name }

func (m *MockClient) Symbols() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.symbols))
	copy(out, m.symbols)
	return out
}

func (m *MockClient) Has() Capabilities { return m.caps }

// SetBook registers the order book to return for a symbol.
func (m *MockClient) SetBook(symbol string, book OrderBook) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.books[symbol] = book
}

// SetBookError makes the next FetchL2OrderBook call for symbol fail with err;
// the error is cleared after that one call.
func (m *MockClient) SetBookError(symbol string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bookErr[symbol] = err
}

// SetTicker registers the ticker to return for a symbol.
func (m *MockClient) SetTicker(symbol string, t Ticker) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tickers[symbol] = t
}

// SetLoadMarketsError forces LoadMarkets to fail once per call.
func (m *MockClient) SetLoadMarketsError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loadErr = err
}

// SetTickersError forces FetchTickers to fail.
func (m *MockClient) SetTickersError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tickersErr = err
}

func (m *MockClient) LoadMarketsCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loadCalls
}

func (m *MockClient) OrderBookCalls(symbol string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.bookCalls[symbol]
}

func (m *MockClient) LoadMarkets(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loadCalls++
	if m.loadErr != nil {
		err := m.loadErr
		m.loadErr = nil
		return err
	}
	return nil
}

func (m *MockClient) FetchL2OrderBook(ctx context.Context, symbol string) (OrderBook, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bookCalls[symbol]++
	if err, ok := m.bookErr[symbol]; ok && err != nil {
		delete(m.bookErr, symbol)
		return OrderBook{}, err
	}
	book, ok := m.books[symbol]
	if !ok {
		return OrderBook{Symbol: symbol}, nil
	}
	return book, nil
}

func (m *MockClient) FetchTickers(ctx context.Context) (map[string]Ticker, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tickersCalls++
	if m.tickersErr != nil {
		return nil, m.tickersErr
	}
	out := make(map[string]Ticker, len(m.tickers))
	for k, v := range m.tickers {
		out[k] = v
	}
	return out, nil
}
