package rate

import (
	"context"
	"math"
	"testing"

	"arbitrage/internal/exchange"
)

func TestPopulateBookMode(t *testing.T) {
	client := exchange.NewMockClient("m", []string{"BTC/USD", "ETH/BTC"}, exchange.Capabilities{})
	client.SetBook("BTC/USD", exchange.OrderBook{
		Symbol: "BTC/USD",
		Bids:   []exchange.PriceLevel{{Price: 10000, Volume: 20000}},
		Asks:   []exchange.PriceLevel{{Price: 10001, Volume: 20000}},
	})
	client.SetBook("ETH/BTC", exchange.OrderBook{
		Symbol: "ETH/BTC",
		Bids:   []exchange.PriceLevel{{Price: 0.05, Volume: 1000}},
		Asks:   []exchange.PriceLevel{{Price: 0.0501, Volume: 1000}},
	})

	table := NewTable(NewSynonymSet(DefaultSynonymPairs...))
	if err := table.Populate(context.Background(), client, nil, nil); err != nil {
		t.Fatalf("Populate: %v", err)
	}

	snap := table.Snapshot()
	book, ok := Get(snap, "m", "BTC", "USD")
	if !ok || len(book) == 0 {
		t.Fatalf("expected BTC->USD book, got %v ok=%v", book, ok)
	}
	if book[0].Price != 10000 {
		t.Errorf("BTC->USD top = %v, want 10000", book[0].Price)
	}

	book, ok = Get(snap, "m", "USD", "BTC")
	if !ok || len(book) == 0 {
		t.Fatalf("expected USD->BTC book")
	}
	wantPrice := 1 / 10001.0
	if math.Abs(book[0].Price-wantPrice) > 1e-12 {
		t.Errorf("USD->BTC top = %v, want %v", book[0].Price, wantPrice)
	}
}

func TestPopulateBlacklistFiltersSymbol(t *testing.T) {
	client := exchange.NewMockClient("m", []string{"BTC/USD", "XYZ/USD"}, exchange.Capabilities{})
	client.SetBook("BTC/USD", exchange.OrderBook{
		Bids: []exchange.PriceLevel{{Price: 100, Volume: 1}},
		Asks: []exchange.PriceLevel{{Price: 101, Volume: 1}},
	})
	client.SetBook("XYZ/USD", exchange.OrderBook{
		Bids: []exchange.PriceLevel{{Price: 1, Volume: 1}},
		Asks: []exchange.PriceLevel{{Price: 2, Volume: 1}},
	})

	table := NewTable(nil)
	err := table.Populate(context.Background(), client, map[string]bool{"XYZ": true}, nil)
	if err != nil {
		t.Fatalf("Populate: %v", err)
	}

	snap := table.Snapshot()
	if _, ok := Get(snap, "m", "BTC", "USD"); !ok {
		t.Error("expected BTC/USD to survive blacklist filter")
	}
	if _, ok := Get(snap, "m", "XYZ", "USD"); ok {
		t.Error("expected XYZ/USD to be dropped by blacklist")
	}
}

func TestPopulateTickerMode(t *testing.T) {
	// Ticker mode is only preferred over book mode when the client has
	// fetchTickers, more than bookModeMaxSymbols pairs, and no advertised
	// bulk order-book capability (spec.md §4.3 step 3).
	symbols := make([]string, 0, bookModeMaxSymbols+1)
	for i := 0; i <= bookModeMaxSymbols; i++ {
		symbols = append(symbols, currencyForIndex(i)+"/USD")
	}
	client := exchange.NewMockClient("m", symbols, exchange.Capabilities{FetchTickers: true})
	for _, s := range symbols {
		client.SetTicker(s, exchange.Ticker{Symbol: s, Bid: 100, Ask: 101})
	}

	table := NewTable(nil)
	if err := table.Populate(context.Background(), client, nil, nil); err != nil {
		t.Fatalf("Populate: %v", err)
	}
	snap := table.Snapshot()
	book, ok := Get(snap, "m", currencyForIndex(0), "USD")
	if !ok || len(book) != 1 || book[0].Price != 100 {
		t.Fatalf("expected single-entry book at bid price, got %v ok=%v", book, ok)
	}
	if client.OrderBookCalls(symbols[0]) != 0 {
		t.Error("expected book mode not to be used")
	}
}

func currencyForIndex(i int) string {
	return string(rune('A'+i)) + string(rune('A'+i)) + string(rune('A'+i))
}

func TestPopulateTickerModeInfiniteVolumeFallback(t *testing.T) {
	// Pad past bookModeMaxSymbols so ticker mode, not book mode, is used.
	symbols := []string{"BTC/USD"}
	for i := 0; i < bookModeMaxSymbols; i++ {
		symbols = append(symbols, currencyForIndex(i)+"/USD")
	}
	client := exchange.NewMockClient("m", symbols, exchange.Capabilities{FetchTickers: true})
	client.SetTicker("BTC/USD", exchange.Ticker{Symbol: "BTC/USD", Bid: 100, Ask: 101, QuoteVolume: 0})

	table := NewTable(nil)
	if err := table.Populate(context.Background(), client, nil, nil); err != nil {
		t.Fatalf("Populate: %v", err)
	}
	book, _ := Get(table.Snapshot(), "m", "BTC", "USD")
	if len(book) != 1 || !math.IsInf(book[0].Volume, 1) {
		t.Fatalf("expected +Inf volume fallback, got %v", book)
	}
}

func TestPopulateDropsPartialTicker(t *testing.T) {
	// Pad past bookModeMaxSymbols so ticker mode, not book mode, is used.
	symbols := []string{"BTC/USD"}
	for i := 0; i < bookModeMaxSymbols; i++ {
		symbols = append(symbols, currencyForIndex(i)+"/USD")
	}
	client := exchange.NewMockClient("m", symbols, exchange.Capabilities{FetchTickers: true})
	client.SetTicker("BTC/USD", exchange.Ticker{Symbol: "BTC/USD", Bid: 100, Ask: 0})

	table := NewTable(nil)
	if err := table.Populate(context.Background(), client, nil, nil); err != nil {
		t.Fatalf("Populate: %v", err)
	}
	if _, ok := Get(table.Snapshot(), "m", "BTC", "USD"); ok {
		t.Error("expected partial ticker (missing ask) to be dropped")
	}
}

func TestPopulateSkipsPerSymbolFailure(t *testing.T) {
	client := exchange.NewMockClient("m", []string{"BTC/USD", "ETH/USD"}, exchange.Capabilities{})
	client.SetBook("BTC/USD", exchange.OrderBook{
		Bids: []exchange.PriceLevel{{Price: 100, Volume: 1}},
		Asks: []exchange.PriceLevel{{Price: 101, Volume: 1}},
	})
	client.SetBookError("ETH/USD", &exchange.ExchangeSideError{Exchange: "m", Op: "fetch_l2_order_book", Code: "bad_symbol"})

	table := NewTable(nil)
	if err := table.Populate(context.Background(), client, nil, nil); err != nil {
		t.Fatalf("Populate: %v", err)
	}
	snap := table.Snapshot()
	if _, ok := Get(snap, "m", "BTC", "USD"); !ok {
		t.Error("expected BTC/USD to populate despite ETH/USD failure")
	}
	if _, ok := Get(snap, "m", "ETH", "USD"); ok {
		t.Error("expected ETH/USD to be absent after fetch failure")
	}
}

func TestPopulateReplacesAtomically(t *testing.T) {
	client := exchange.NewMockClient("m", []string{"BTC/USD"}, exchange.Capabilities{})
	client.SetBook("BTC/USD", exchange.OrderBook{
		Bids: []exchange.PriceLevel{{Price: 100, Volume: 1}},
		Asks: []exchange.PriceLevel{{Price: 101, Volume: 1}},
	})

	table := NewTable(nil)
	if err := table.Populate(context.Background(), client, nil, nil); err != nil {
		t.Fatalf("first populate: %v", err)
	}
	first := table.Snapshot()

	client.SetBook("BTC/USD", exchange.OrderBook{
		Bids: []exchange.PriceLevel{{Price: 200, Volume: 1}},
		Asks: []exchange.PriceLevel{{Price: 201, Volume: 1}},
	})
	if err := table.Populate(context.Background(), client, nil, nil); err != nil {
		t.Fatalf("second populate: %v", err)
	}
	second := table.Snapshot()

	book1, _ := Get(first, "m", "BTC", "USD")
	book2, _ := Get(second, "m", "BTC", "USD")
	if book1[0].Price != 100 {
		t.Errorf("first snapshot mutated: %v", book1)
	}
	if book2[0].Price != 200 {
		t.Errorf("second snapshot missing update: %v", book2)
	}
}
