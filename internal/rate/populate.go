package rate

import (
	"context"
	"errors"
	"math"
	"sync"
	"time"

	"arbitrage/internal/exchange"
	"arbitrage/pkg/retry"
	"arbitrage/pkg/utils"
)

// bookModeMaxSymbols is the pair-count ceiling under which book mode is
// preferred over ticker mode even when the client has no bulk capability.
const bookModeMaxSymbols = 10

// Populate refreshes one venue's inner map in place of t. It loads the
// venue's market list (retrying timeouts), filters blacklisted currencies,
// ingests either per-symbol L2 books or a single ticker snapshot depending
// on the client's advertised capabilities and symbol count, and swaps the
// freshly built inner map into the table atomically. Exhausted timeouts leave
// the venue's previous data untouched and return the error; a per-symbol
// fetch failure drops only that symbol from the freshly built map. Both are
// reported through logFn and do not abort other venues' refreshes.
func (t *Table) Populate(ctx context.Context, client exchange.Client, blacklist map[string]bool, logFn func(string, ...interface{})) error {
	if logFn == nil {
		logFn = func(string, ...interface{}) {}
	}
	venue := client.Name()
	maxRetries, retryDelay := t.retryPolicy()

	if err := retryTimeout(ctx, maxRetries, retryDelay, func() error {
		return client.LoadMarkets(ctx)
	}); err != nil {
		logFn("populate: load_markets failed for %s: %v", venue, err)
		return err
	}

	symbols := filterSymbols(client.Symbols(), blacklist)
	if len(symbols) == 0 {
		t.ReplaceVenue(venue, make(innerMap))
		return nil
	}

	var (
		data map[string]rawSides
		err  error
	)
	if useBookMode(client, len(symbols)) {
		err = retryTimeout(ctx, maxRetries, retryDelay, func() error {
			var ingestErr error
			data, ingestErr = fetchBooks(ctx, client, symbols, logFn)
			return ingestErr
		})
	} else {
		err = retryTimeout(ctx, maxRetries, retryDelay, func() error {
			var ingestErr error
			data, ingestErr = fetchTickers(ctx, client, symbols, logFn)
			return ingestErr
		})
	}
	if err != nil {
		logFn("populate: ingestion failed for %s: %v", venue, err)
		return err
	}

	inner := make(innerMap)
	for symbol, sides := range data {
		if len(sides.bids) == 0 || len(sides.asks) == 0 {
			continue
		}
		coin1, coin2, ok := utils.SplitSymbol(symbol)
		if !ok {
			continue
		}
		aToB, bToA := DeriveBooks(sides.bids, sides.asks)
		insertDirected(inner, coin1, coin2, aToB)
		insertDirected(inner, coin2, coin1, bToA)
	}

	t.ReplaceVenue(venue, inner)
	return nil
}

// rawSides is the raw (price, volume) pairs for one symbol before
// DeriveBooks filters and inverts them.
type rawSides struct {
	bids []Entry
	asks []Entry
}

// useBookMode decides the ingestion mode per spec.md §4.3 step 3: book mode
// is preferred when the client lacks ticker batching, the pair count is
// small, or the client advertises bulk order-book capability.
func useBookMode(client exchange.Client, symbolCount int) bool {
	caps := client.Has()
	if !caps.FetchTickers {
		return true
	}
	if symbolCount <= bookModeMaxSymbols {
		return true
	}
	return caps.FetchOrderBooks
}

// fetchBooks fans out one FetchL2OrderBook call per symbol concurrently and
// gathers the results, capturing per-symbol failures without aborting the
// others (spec.md §4.3 step 3, "Book mode").
func fetchBooks(ctx context.Context, client exchange.Client, symbols []string, logFn func(string, ...interface{})) (map[string]rawSides, error) {
	out := make(map[string]rawSides, len(symbols))
	var mu sync.Mutex
	var wg sync.WaitGroup

	for _, symbol := range symbols {
		symbol := symbol
		wg.Add(1)
		go func() {
			defer wg.Done()
			book, err := client.FetchL2OrderBook(ctx, symbol)
			if err != nil {
				logFn("populate: fetch_l2_order_book(%s) failed: %v", symbol, err)
				return
			}
			sides := rawSides{
				bids: toEntries(book.Bids),
				asks: toEntries(book.Asks),
			}
			if len(sides.bids) == 0 || len(sides.asks) == 0 {
				return
			}
			mu.Lock()
			out[symbol] = sides
			mu.Unlock()
		}()
	}
	wg.Wait()
	return out, nil
}

// fetchTickers calls FetchTickers once and synthesizes a one-entry book per
// side from each ticker's best bid/ask (spec.md §4.3 step 3, "Ticker mode").
// Volume defaults to +Inf when QuoteVolume is absent or zero - this
// intentionally disables slippage modeling for ticker-sourced books
// (spec.md §9). A ticker missing bid or ask entirely is dropped.
func fetchTickers(ctx context.Context, client exchange.Client, symbols []string, logFn func(string, ...interface{})) (map[string]rawSides, error) {
	tickers, err := client.FetchTickers(ctx)
	if err != nil {
		return nil, err
	}
	wanted := make(map[string]bool, len(symbols))
	for _, s := range symbols {
		wanted[s] = true
	}

	out := make(map[string]rawSides, len(tickers))
	for symbol, tk := range tickers {
		if !wanted[symbol] {
			continue
		}
		if tk.Bid <= 0 || tk.Ask <= 0 {
			logFn("populate: dropping %s, incomplete ticker", symbol)
			continue
		}
		volume := tk.QuoteVolume
		if volume <= 0 {
			volume = math.Inf(1)
		}
		out[symbol] = rawSides{
			bids: []Entry{{Price: tk.Bid, Volume: volume}},
			asks: []Entry{{Price: tk.Ask, Volume: volume}},
		}
	}
	return out, nil
}

func toEntries(levels []exchange.PriceLevel) []Entry {
	out := make([]Entry, len(levels))
	for i, lvl := range levels {
		out[i] = Entry{Price: lvl.Price, Volume: lvl.Volume}
	}
	return out
}

// filterSymbols keeps only well-formed symbols where neither currency is
// blacklisted (spec.md §4.3 step 2).
func filterSymbols(symbols []string, blacklist map[string]bool) []string {
	out := make([]string, 0, len(symbols))
	for _, s := range symbols {
		if utils.ValidateSymbol(s) != nil {
			continue
		}
		coin1, coin2, ok := utils.SplitSymbol(s)
		if !ok {
			continue
		}
		if blacklist[coin1] || blacklist[coin2] {
			continue
		}
		out = append(out, s)
	}
	return out
}

// insertDirected adds a directed book from -> to into inner, skipping empty
// books and self-loops (spec.md §3 invariant: from == to never appears).
func insertDirected(inner innerMap, from, to string, book Book) {
	if from == to || len(book) == 0 {
		return
	}
	tos, ok := inner[from]
	if !ok {
		tos = make(map[string]Book)
		inner[from] = tos
	}
	tos[to] = book
}

// retryTimeout runs op up to n times, retrying only on exchange.TimeoutError;
// any other error is surfaced on the first attempt. initialDelay comes from
// the table's retry policy (Table.SetRetryPolicy, spec.md §4.3); backoff is
// still capped at 2s, matching the teacher's conservative retry posture for
// read-only API calls.
func retryTimeout(ctx context.Context, n int, initialDelay time.Duration, op func() error) error {
	cfg := retry.Config{
		MaxRetries:   n,
		InitialDelay: initialDelay,
		MaxDelay:     2 * time.Second,
		Multiplier:   2.0,
		JitterFactor: 0,
		RetryIf: func(err error) bool {
			var timeoutErr *exchange.TimeoutError
			return errors.As(err, &timeoutErr)
		},
	}
	return retry.Do(ctx, op, cfg)
}
