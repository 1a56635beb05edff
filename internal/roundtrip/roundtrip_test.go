package roundtrip

import (
	"context"
	"math"
	"testing"

	"arbitrage/internal/exchange"
	"arbitrage/internal/rate"
	"arbitrage/internal/trade"
)

// buildTable populates a single venue "m" with the three symbols used by
// spec.md's seed scenarios: BTC/USD, ETH/BTC, ETH/USD, with identical bid
// and ask price on each pair (so the round trip has no embedded spread).
func buildTable(t *testing.T, ethBTCVolume float64) *rate.Table {
	t.Helper()
	client := exchange.NewMockClient("m", []string{"BTC/USD", "ETH/BTC", "ETH/USD"}, exchange.Capabilities{})
	client.SetBook("BTC/USD", exchange.OrderBook{
		Bids: []exchange.PriceLevel{{Price: 10000, Volume: 20000}},
		Asks: []exchange.PriceLevel{{Price: 10000, Volume: 20000}},
	})
	client.SetBook("ETH/BTC", exchange.OrderBook{
		Bids: []exchange.PriceLevel{{Price: 0.05, Volume: ethBTCVolume}},
		Asks: []exchange.PriceLevel{{Price: 0.05, Volume: ethBTCVolume}},
	})
	client.SetBook("ETH/USD", exchange.OrderBook{
		Bids: []exchange.PriceLevel{{Price: 750, Volume: 40}},
		Asks: []exchange.PriceLevel{{Price: 750, Volume: 40}},
	})

	table := rate.NewTable(rate.NewSynonymSet(rate.DefaultSynonymPairs...))
	if err := table.Populate(context.Background(), client, nil, nil); err != nil {
		t.Fatalf("Populate: %v", err)
	}
	return table
}

// TestBestRoundtripsThreeStageProfit reproduces spec.md's S1: starting from
// 10000 USD with max_steps >= 3 and threshold 0.05, the only round trip at or
// above the threshold is USD -> BTC -> ETH -> USD with profit 0.5 (the
// reverse direction is also enumerated, at a loss).
func TestBestRoundtripsThreeStageProfit(t *testing.T) {
	table := buildTable(t, 1000)
	e := New(table, rate.NewSynonymSet(rate.DefaultSynonymPairs...))

	chains := e.BestRoundtrips("USD", 10000, Options{MaxSteps: 3})
	var profitable []trade.Chain
	for _, c := range chains {
		if trade.Profitability(c) >= 0.05 {
			profitable = append(profitable, c)
		}
	}
	if len(profitable) != 1 {
		t.Fatalf("expected exactly one chain at or above 0.05, got %d: %+v", len(profitable), chains)
	}
	chain := profitable[0]
	if len(chain) != 3 {
		t.Fatalf("expected a 3-step chain, got %d steps: %s", len(chain), chain.String())
	}
	wantCurs := []string{"USD", "BTC", "ETH", "USD"}
	for i, step := range chain {
		if step.FromCur != wantCurs[i] || step.NextCur != wantCurs[i+1] {
			t.Errorf("step %d = %s->%s, want %s->%s", i, step.FromCur, step.NextCur, wantCurs[i], wantCurs[i+1])
		}
	}
	profit := trade.Profitability(chain)
	if math.Abs(profit-0.5) > 1e-9 {
		t.Errorf("profit = %v, want 0.5", profit)
	}
}

// TestBestRoundtripsInsufficientLiquidity reproduces spec.md's S2: the same
// graph but with ETH/BTC volume cut to 0.01 so the second leg cannot fill
// the amount carried over from the first leg. No chain survives.
func TestBestRoundtripsInsufficientLiquidity(t *testing.T) {
	table := buildTable(t, 0.01)
	e := New(table, rate.NewSynonymSet(rate.DefaultSynonymPairs...))

	chains := e.BestRoundtrips("USD", 10000, Options{MaxSteps: 3})
	if len(chains) != 0 {
		t.Fatalf("expected no chains, got %d: %+v", len(chains), chains)
	}
}

// TestEdgesFromKeepsDirectAndSynonymEdgesSeparate covers spec.md §4.5 step 3:
// when both the direct currency and a synonym have their own book to the
// same destination, edgesFrom must return both, not collapse them into one.
// The single venue "m" quotes XBT/USD and BTC/USD at different prices, so a naive
// dedup by destination currency would silently drop the worse-ordered one.
func TestEdgesFromKeepsDirectAndSynonymEdgesSeparate(t *testing.T) {
	client := exchange.NewMockClient("m", []string{"XBT/USD", "BTC/USD"}, exchange.Capabilities{})
	client.SetBook("XBT/USD", exchange.OrderBook{
		Bids: []exchange.PriceLevel{{Price: 9000, Volume: 10}},
		Asks: []exchange.PriceLevel{{Price: 9000, Volume: 10}},
	})
	client.SetBook("BTC/USD", exchange.OrderBook{
		Bids: []exchange.PriceLevel{{Price: 9500, Volume: 10}},
		Asks: []exchange.PriceLevel{{Price: 9500, Volume: 10}},
	})

	table := rate.NewTable(rate.NewSynonymSet(rate.DefaultSynonymPairs...))
	if err := table.Populate(context.Background(), client, nil, nil); err != nil {
		t.Fatalf("Populate: %v", err)
	}

	s := &search{
		snap: table.Snapshot(),
		syn:  rate.NewSynonymSet(rate.DefaultSynonymPairs...),
	}

	edges := s.edgesFrom("m", "XBT")
	var toUSD int
	prices := make(map[float64]bool)
	for _, e := range edges {
		if e.nextCur != "USD" {
			continue
		}
		toUSD++
		if len(e.book) > 0 {
			prices[e.book[0].Price] = true
		}
	}
	if toUSD != 2 {
		t.Fatalf("expected 2 independent XBT->USD edges (direct + BTC synonym), got %d: %+v", toUSD, edges)
	}
	if len(prices) != 2 {
		t.Errorf("expected 2 distinct book prices across the two edges, got %v", prices)
	}
}

// TestBestRoundtripsCycleSuppression reproduces spec.md's S4: with a deeper
// search budget the enumerator must never return a chain that revisits the
// same (venue, from, to) triple, nor its reverse, twice.
func TestBestRoundtripsCycleSuppression(t *testing.T) {
	table := buildTable(t, 1000)
	e := New(table, rate.NewSynonymSet(rate.DefaultSynonymPairs...))

	chains := e.BestRoundtrips("USD", 10000, Options{MaxSteps: 6})
	if len(chains) == 0 {
		t.Fatal("expected at least one chain")
	}
	for _, chain := range chains {
		seen := make(map[trade.Key]bool)
		for _, step := range chain {
			key := step.UniqueKey()
			inv := step.UniqueKeyInv()
			if seen[key] || seen[inv] {
				t.Fatalf("chain revisits edge %v: %s", key, chain.String())
			}
			seen[key] = true
		}
	}
}
