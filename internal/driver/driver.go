// Package driver wires venue populators to a rate.Table and a
// roundtrip.Enumerator, filters enumerated chains by a configured
// profitability threshold, and publishes the survivors (spec.md §4.6).
package driver

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"sync"
	"time"

	"arbitrage/internal/exchange"
	"arbitrage/internal/metrics"
	"arbitrage/internal/rate"
	"arbitrage/internal/roundtrip"
	"arbitrage/internal/trade"
)

// Publisher receives each ranked, threshold-filtered batch of candidates a
// driver run produces. Implementations (e.g. a WebSocket hub) must not
// block the driver's printer loop.
type Publisher interface {
	Publish(chains []trade.Chain)
}

// Options configures one Driver run.
type Options struct {
	StartCurrency  string
	StartAmount    float64
	ThresholdPcent float64
	MaxSteps       int

	// PopulateInterval is the pause between successive populate calls for
	// one venue in Forever mode (spec.md §4.4: "sleep 5 seconds").
	PopulateInterval time.Duration
	// StatsUpdateFreq is how often the Forever printer re-runs the
	// enumerator and emits results.
	StatsUpdateFreq time.Duration

	Blacklist map[string]bool

	// RetryCount/RetryBackoff override the rate.Table's default retry policy
	// for per-venue timeouts (spec.md §4.3); zero leaves the table's default
	// in place. Sourced from config.BotConfig's RETRY_COUNT/RETRY_BACKOFF.
	RetryCount   int
	RetryBackoff time.Duration

	// DiffsFrom/DiffsTo, if both set, make the Forever printer also log a
	// PairwiseDiffs summary once per tick (sharpshooter.py's simple_arbs,
	// restored as a secondary output).
	DiffsFrom, DiffsTo string

	Out   io.Writer
	LogFn func(string, ...interface{})
}

func (o *Options) setDefaults() {
	if o.Out == nil {
		o.Out = os.Stdout
	}
	if o.MaxSteps <= 0 {
		o.MaxSteps = 3
	}
	if o.PopulateInterval <= 0 {
		o.PopulateInterval = 5 * time.Second
	}
	if o.StatsUpdateFreq <= 0 {
		o.StatsUpdateFreq = time.Second
	}
	if o.LogFn == nil {
		o.LogFn = func(string, ...interface{}) {}
	}
}

// Driver ties together a RateTable, the clients that populate it, and the
// enumerator that searches it.
type Driver struct {
	table      *rate.Table
	enumerator *roundtrip.Enumerator
	clients    []exchange.Client
	publisher  Publisher
	opts       Options
}

// New builds a Driver. publisher may be nil - Forever then only writes to
// opts.Out.
func New(table *rate.Table, enumerator *roundtrip.Enumerator, clients []exchange.Client, publisher Publisher, opts Options) *Driver {
	opts.setDefaults()
	table.SetRetryPolicy(opts.RetryCount, opts.RetryBackoff)
	return &Driver{table: table, enumerator: enumerator, clients: clients, publisher: publisher, opts: opts}
}

// Once populates every venue concurrently, runs the enumerator once, and
// returns the chains whose profitability clears ThresholdPcent.
func (d *Driver) Once(ctx context.Context) []trade.Chain {
	d.populateAll(ctx)
	return d.runOnce()
}

// Forever launches one populator goroutine per venue plus a periodic
// printer, and blocks until ctx is cancelled.
func (d *Driver) Forever(ctx context.Context) {
	var wg sync.WaitGroup
	for _, c := range d.clients {
		c := c
		wg.Add(1)
		go func() {
			defer wg.Done()
			d.populatorLoop(ctx, c)
		}()
	}
	d.printerLoop(ctx)
	wg.Wait()
}

func (d *Driver) populateAll(ctx context.Context) {
	var wg sync.WaitGroup
	for _, c := range d.clients {
		c := c
		wg.Add(1)
		go func() {
			defer wg.Done()
			d.populateOnce(ctx, c)
		}()
	}
	wg.Wait()
}

// populatorLoop is the per-venue coroutine from spec.md §4.4: try, log on
// failure, sleep, repeat. There is no cross-venue coordination.
func (d *Driver) populatorLoop(ctx context.Context, client exchange.Client) {
	for {
		if ctx.Err() != nil {
			return
		}
		d.populateOnce(ctx, client)
		select {
		case <-time.After(d.opts.PopulateInterval):
		case <-ctx.Done():
			return
		}
	}
}

func (d *Driver) populateOnce(ctx context.Context, client exchange.Client) {
	venue := client.Name()
	start := time.Now()
	err := d.table.Populate(ctx, client, d.opts.Blacklist, d.opts.LogFn)
	metrics.PopulateDuration.WithLabelValues(venue).Observe(time.Since(start).Seconds())

	outcome := "ok"
	if err != nil {
		outcome = classifyOutcome(err)
		d.opts.LogFn("driver: populate(%s) failed: %v", venue, err)
	}
	metrics.PopulateOutcomes.WithLabelValues(venue, outcome).Inc()
}

func classifyOutcome(err error) string {
	var timeoutErr *exchange.TimeoutError
	if errors.As(err, &timeoutErr) {
		return "timeout"
	}
	var sideErr *exchange.ExchangeSideError
	if errors.As(err, &sideErr) {
		return "exchange_error"
	}
	return "other"
}

// runOnce runs the enumerator and applies the threshold filter and
// tie-break ordering (profitability descending, num_exchanges ascending).
func (d *Driver) runOnce() []trade.Chain {
	start := time.Now()
	chains := d.enumerator.BestRoundtrips(d.opts.StartCurrency, d.opts.StartAmount, roundtrip.Options{MaxSteps: d.opts.MaxSteps})
	metrics.EnumeratorDuration.Observe(time.Since(start).Seconds())
	metrics.CandidatesFound.Add(float64(len(chains)))

	filtered := make([]trade.Chain, 0, len(chains))
	for _, c := range chains {
		if trade.Profitability(c) >= d.opts.ThresholdPcent {
			filtered = append(filtered, c)
		}
	}
	sort.SliceStable(filtered, func(i, j int) bool {
		pi, pj := trade.Profitability(filtered[i]), trade.Profitability(filtered[j])
		if pi != pj {
			return pi > pj
		}
		return trade.NumExchanges(filtered[i]) < trade.NumExchanges(filtered[j])
	})
	metrics.CandidatesAboveThreshold.Add(float64(len(filtered)))
	return filtered
}

func (d *Driver) printerLoop(ctx context.Context) {
	ticker := time.NewTicker(d.opts.StatsUpdateFreq)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			chains := d.runOnce()
			d.emit(chains)
			if d.publisher != nil {
				d.publisher.Publish(chains)
			}
			d.logDiffs()
		}
	}
}

func (d *Driver) emit(chains []trade.Chain) {
	for _, c := range chains {
		fmt.Fprintf(d.opts.Out, "%s for %.4f%% profit\n", c.String(), trade.Profitability(c)*100)
	}
}

// logDiffs restores sharpshooter.py's simple_arbs as a secondary, lower-
// frequency output: the best pairwise-diff row for a configured pair.
func (d *Driver) logDiffs() {
	if d.opts.DiffsFrom == "" || d.opts.DiffsTo == "" {
		return
	}
	rows := d.table.PairwiseDiffs(d.opts.DiffsFrom, d.opts.DiffsTo)
	if len(rows) == 0 {
		return
	}
	top := rows[0]
	d.opts.LogFn("driver: pairwise diff %s/%s best venue %s (%d comparisons)", d.opts.DiffsFrom, d.opts.DiffsTo, top.Venue1, len(top.Entries))
}
