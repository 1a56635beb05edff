package driver

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"arbitrage/internal/exchange"
	"arbitrage/internal/rate"
	"arbitrage/internal/roundtrip"
)

func buildClient(t *testing.T) *exchange.MockClient {
	t.Helper()
	client := exchange.NewMockClient("m", []string{"BTC/USD", "ETH/BTC", "ETH/USD"}, exchange.Capabilities{})
	client.SetBook("BTC/USD", exchange.OrderBook{
		Bids: []exchange.PriceLevel{{Price: 10000, Volume: 20000}},
		Asks: []exchange.PriceLevel{{Price: 10000, Volume: 20000}},
	})
	client.SetBook("ETH/BTC", exchange.OrderBook{
		Bids: []exchange.PriceLevel{{Price: 0.05, Volume: 1000}},
		Asks: []exchange.PriceLevel{{Price: 0.05, Volume: 1000}},
	})
	client.SetBook("ETH/USD", exchange.OrderBook{
		Bids: []exchange.PriceLevel{{Price: 750, Volume: 40}},
		Asks: []exchange.PriceLevel{{Price: 750, Volume: 40}},
	})
	return client
}

func TestOnceReturnsChainsAboveThreshold(t *testing.T) {
	client := buildClient(t)
	table := rate.NewTable(rate.NewSynonymSet(rate.DefaultSynonymPairs...))
	enumerator := roundtrip.New(table, rate.NewSynonymSet(rate.DefaultSynonymPairs...))

	var out bytes.Buffer
	d := New(table, enumerator, []exchange.Client{client}, nil, Options{
		StartCurrency:  "USD",
		StartAmount:    10000,
		ThresholdPcent: 0.05,
		MaxSteps:       3,
		Out:            &out,
	})

	chains := d.Once(context.Background())
	if len(chains) != 1 {
		t.Fatalf("expected one chain above threshold, got %d", len(chains))
	}
}

func TestOnceDropsChainsBelowThreshold(t *testing.T) {
	client := buildClient(t)
	table := rate.NewTable(rate.NewSynonymSet(rate.DefaultSynonymPairs...))
	enumerator := roundtrip.New(table, rate.NewSynonymSet(rate.DefaultSynonymPairs...))

	d := New(table, enumerator, []exchange.Client{client}, nil, Options{
		StartCurrency:  "USD",
		StartAmount:    10000,
		ThresholdPcent: 0.9, // the S1 graph's 0.5 profit chain must not pass 0.9
		MaxSteps:       3,
	})

	chains := d.Once(context.Background())
	if len(chains) != 0 {
		t.Fatalf("expected no chains above a 90%% threshold, got %d", len(chains))
	}
}

func TestForeverEmitsUntilCancelled(t *testing.T) {
	client := buildClient(t)
	table := rate.NewTable(rate.NewSynonymSet(rate.DefaultSynonymPairs...))
	enumerator := roundtrip.New(table, rate.NewSynonymSet(rate.DefaultSynonymPairs...))

	var out bytes.Buffer
	d := New(table, enumerator, []exchange.Client{client}, nil, Options{
		StartCurrency:    "USD",
		StartAmount:      10000,
		ThresholdPcent:   0.05,
		MaxSteps:         3,
		PopulateInterval: 5 * time.Millisecond,
		StatsUpdateFreq:  5 * time.Millisecond,
		Out:              &out,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	d.Forever(ctx)

	if !strings.Contains(out.String(), "for ") {
		t.Errorf("expected at least one emitted line, got %q", out.String())
	}
}
