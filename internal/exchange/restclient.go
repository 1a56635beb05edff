package exchange

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"

	jsoniter "github.com/json-iterator/go"

	"arbitrage/pkg/ratelimit"
)

// defaultVenueRate/defaultVenueBurst bound how many REST calls per second
// one RESTClient issues against its venue, independent of how many symbols
// populate fans fetchBooks out to concurrently.
const (
	defaultVenueRate  = 10.0
	defaultVenueBurst = 20.0
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// marketsResponse is the unified shape expected from VenueConfig.MarketsPath.
type marketsResponse struct {
	Symbols []string `json:"symbols"`
}

// tickerResponse mirrors one entry of VenueConfig.TickersPath's response.
type tickerResponse struct {
	Bid         float64 `json:"bid"`
	Ask         float64 `json:"ask"`
	QuoteVolume float64 `json:"quoteVolume"`
}

// orderBookResponse mirrors the unified L2 book shape returned by
// VenueConfig.OrderBookPath(symbol).
type orderBookResponse struct {
	Bids [][2]float64 `json:"bids"`
	Asks [][2]float64 `json:"asks"`
}

// RESTClient is a generic Client backed by a unified JSON REST API,
// configured per venue through VenueConfig rather than one Go type per
// exchange. It decodes responses with jsoniter, which is measurably faster
// than encoding/json on the hot order-book path without changing semantics.
type RESTClient struct {
	cfg     VenueConfig
	http    *HTTPClient
	limiter *ratelimit.RateLimiter

	mu      sync.RWMutex
	symbols []string
}

// NewRESTClient wires a VenueConfig to an HTTPClient, throttled to
// defaultVenueRate requests/sec per venue so a venue with many symbols
// doesn't trip its own rate limit during fetchBooks' concurrent fan-out.
func NewRESTClient(cfg VenueConfig, http *HTTPClient) *RESTClient {
	return &RESTClient{cfg: cfg, http: http, limiter: ratelimit.NewRateLimiter(defaultVenueRate, defaultVenueBurst)}
}

func (c *RESTClient) Name() string { return c.cfg.Name }

func (c *RESTClient) Symbols() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]string, len(c.symbols))
	copy(out, c.symbols)
	return out
}

func (c *RESTClient) Has() Capabilities {
	return Capabilities{FetchTickers: c.cfg.HasTickers, FetchOrderBooks: c.cfg.HasOrderBooks}
}

func (c *RESTClient) LoadMarkets(ctx context.Context) error {
	var resp marketsResponse
	if err := c.getJSON(ctx, "load_markets", c.cfg.BaseURL+c.cfg.MarketsPath, &resp); err != nil {
		return err
	}
	c.mu.Lock()
	c.symbols = resp.Symbols
	c.mu.Unlock()
	return nil
}

func (c *RESTClient) FetchL2OrderBook(ctx context.Context, symbol string) (OrderBook, error) {
	if c.cfg.OrderBookPath == nil {
		return OrderBook{}, &ExchangeSideError{Exchange: c.cfg.Name, Op: "fetch_l2_order_book", Code: "unsupported", Err: errors.New("venue has no order book endpoint configured")}
	}
	path := c.cfg.OrderBookPath(symbol)
	var resp orderBookResponse
	if err := c.getJSON(ctx, "fetch_l2_order_book", c.cfg.BaseURL+path, &resp); err != nil {
		return OrderBook{}, err
	}
	book := OrderBook{
		Symbol: symbol,
		Bids:   make([]PriceLevel, 0, len(resp.Bids)),
		Asks:   make([]PriceLevel, 0, len(resp.Asks)),
	}
	for _, lvl := range resp.Bids {
		book.Bids = append(book.Bids, PriceLevel{Price: lvl[0], Volume: lvl[1]})
	}
	for _, lvl := range resp.Asks {
		book.Asks = append(book.Asks, PriceLevel{Price: lvl[0], Volume: lvl[1]})
	}
	return book, nil
}

func (c *RESTClient) FetchTickers(ctx context.Context) (map[string]Ticker, error) {
	if !c.cfg.HasTickers || c.cfg.TickersPath == "" {
		return nil, &ExchangeSideError{Exchange: c.cfg.Name, Op: "fetch_tickers", Code: "unsupported", Err: errors.New("venue has no batched tickers endpoint configured")}
	}
	var raw map[string]tickerResponse
	if err := c.getJSON(ctx, "fetch_tickers", c.cfg.BaseURL+c.cfg.TickersPath, &raw); err != nil {
		return nil, err
	}
	out := make(map[string]Ticker, len(raw))
	for symbol, t := range raw {
		out[symbol] = Ticker{Symbol: symbol, Bid: t.Bid, Ask: t.Ask, QuoteVolume: t.QuoteVolume}
	}
	return out, nil
}

// getJSON performs a GET request and decodes the JSON body into dst,
// classifying failures per the Timeout / exchange-side / other taxonomy the
// populate algorithm depends on.
func (c *RESTClient) getJSON(ctx context.Context, op, rawURL string, dst interface{}) error {
	if _, err := url.Parse(rawURL); err != nil {
		return fmt.Errorf("%s: invalid URL %q: %w", c.cfg.Name, rawURL, err)
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("%s: %s rate limit wait: %w", c.cfg.Name, op, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("%s: building request: %w", c.cfg.Name, err)
	}
	if c.cfg.APIKey != "" {
		req.Header.Set("X-API-KEY", c.cfg.APIKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return &TimeoutError{Exchange: c.cfg.Name, Op: op, Err: err}
		}
		return fmt.Errorf("%s: %s request failed: %w", c.cfg.Name, op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return &ExchangeSideError{Exchange: c.cfg.Name, Op: op, Code: fmt.Sprintf("http_%d", resp.StatusCode), Err: fmt.Errorf("server error")}
	}
	if resp.StatusCode >= 400 {
		return &ExchangeSideError{Exchange: c.cfg.Name, Op: op, Code: fmt.Sprintf("http_%d", resp.StatusCode), Err: fmt.Errorf("client error")}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%s: reading %s response: %w", c.cfg.Name, op, err)
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return &ExchangeSideError{Exchange: c.cfg.Name, Op: op, Code: "bad_payload", Err: err}
	}
	return nil
}
