package exchange

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func testVenue(srv *httptest.Server) VenueConfig {
	return VenueConfig{
		Name:          "mockventest",
		BaseURL:       srv.URL,
		MarketsPath:   "/markets",
		TickersPath:   "/tickers",
		OrderBookPath: func(symbol string) string { return "/book?symbol=" + symbol },
		HasTickers:    true,
		HasOrderBooks: true,
	}
}

func TestRESTClient_LoadMarkets(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"symbols":["BTC/USD","ETH/USD"]}`))
	}))
	defer srv.Close()

	client := NewRESTClient(testVenue(srv), NewHTTPClient(DefaultHTTPClientConfig()))
	if err := client.LoadMarkets(context.Background()); err != nil {
		t.Fatalf("LoadMarkets failed: %v", err)
	}
	symbols := client.Symbols()
	if len(symbols) != 2 || symbols[0] != "BTC/USD" {
		t.Errorf("unexpected symbols: %v", symbols)
	}
}

func TestRESTClient_FetchL2OrderBook(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"bids":[[100,1],[99,2]],"asks":[[101,1],[102,2]]}`))
	}))
	defer srv.Close()

	client := NewRESTClient(testVenue(srv), NewHTTPClient(DefaultHTTPClientConfig()))
	book, err := client.FetchL2OrderBook(context.Background(), "BTC/USD")
	if err != nil {
		t.Fatalf("FetchL2OrderBook failed: %v", err)
	}
	if len(book.Bids) != 2 || book.Bids[0].Price != 100 {
		t.Errorf("unexpected bids: %+v", book.Bids)
	}
	if len(book.Asks) != 2 || book.Asks[1].Volume != 2 {
		t.Errorf("unexpected asks: %+v", book.Asks)
	}
}

func TestRESTClient_FetchTickers(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"BTC/USD":{"bid":100,"ask":101,"quoteVolume":5000}}`))
	}))
	defer srv.Close()

	client := NewRESTClient(testVenue(srv), NewHTTPClient(DefaultHTTPClientConfig()))
	tickers, err := client.FetchTickers(context.Background())
	if err != nil {
		t.Fatalf("FetchTickers failed: %v", err)
	}
	tk, ok := tickers["BTC/USD"]
	if !ok || tk.Bid != 100 || tk.Ask != 101 {
		t.Errorf("unexpected ticker: %+v", tk)
	}
}

func TestRESTClient_ExchangeSideError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	client := NewRESTClient(testVenue(srv), NewHTTPClient(DefaultHTTPClientConfig()))
	_, err := client.FetchL2OrderBook(context.Background(), "BTC/USD")
	if err == nil {
		t.Fatal("expected error")
	}
	var exchErr *ExchangeSideError
	if !asExchangeSideError(err, &exchErr) {
		t.Errorf("expected ExchangeSideError, got %T: %v", err, err)
	}
}

func asExchangeSideError(err error, target **ExchangeSideError) bool {
	if e, ok := err.(*ExchangeSideError); ok {
		*target = e
		return true
	}
	return false
}

func TestRESTClient_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(50 * time.Millisecond)
		w.Write([]byte(`{"symbols":[]}`))
	}))
	defer srv.Close()

	client := NewRESTClient(testVenue(srv), NewHTTPClient(DefaultHTTPClientConfig()))
	ctx, cancel := context.WithTimeout(context.Background(), 1*time.Millisecond)
	defer cancel()

	err := client.LoadMarkets(ctx)
	if err == nil {
		t.Fatal("expected timeout error")
	}
	if _, ok := err.(*TimeoutError); !ok {
		t.Errorf("expected *TimeoutError, got %T: %v", err, err)
	}
}
