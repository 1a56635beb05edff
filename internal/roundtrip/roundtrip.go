// Package roundtrip implements the bounded depth-first search over a
// rate.Table snapshot that enumerates conversion chains, including round
// trips that start and end in the same currency, ranked by profitability
// (spec.md §4.5). Chains are not filtered by profit here; losing chains are
// returned too.
package roundtrip

import (
	"sort"

	"arbitrage/internal/rate"
	"arbitrage/internal/trade"
)

// defaultMaxSteps mirrors spec.md's best_roundtrips default.
const defaultMaxSteps = 4

// Options configures one enumerator run.
type Options struct {
	// Venues restricts the search to this set; nil/empty means all venues
	// in the snapshot are eligible.
	Venues map[string]bool
	// Coins restricts which currencies an edge may land on; nil/empty
	// means any destination currency is allowed.
	Coins map[string]bool
	// MaxSteps bounds recursion depth. Zero or negative falls back to
	// defaultMaxSteps.
	MaxSteps int
}

// Enumerator runs best_roundtrips over a live rate.Table.
type Enumerator struct {
	rt  *rate.Table
	syn *rate.SynonymSet
}

// New builds an Enumerator bound to a RateTable and the synonym set used to
// decide terminal-currency equivalence.
func New(rt *rate.Table, syn *rate.SynonymSet) *Enumerator {
	return &Enumerator{rt: rt, syn: syn}
}

// BestRoundtrips performs the bounded DFS described in spec.md §4.5,
// returning chains sorted by profitability descending. The search runs
// against a snapshot taken at entry so concurrent repopulation cannot alter
// results mid-search.
func (e *Enumerator) BestRoundtrips(cur string, amount float64, opts Options) []trade.Chain {
	maxSteps := opts.MaxSteps
	if maxSteps <= 0 {
		maxSteps = defaultMaxSteps
	}
	snap := e.rt.Snapshot()

	venues := make([]string, 0, len(snap))
	for v := range snap {
		if len(opts.Venues) > 0 && !opts.Venues[v] {
			continue
		}
		venues = append(venues, v)
	}
	sort.Strings(venues)

	var results []trade.Chain
	s := &search{
		snap:     snap,
		venues:   venues,
		syn:      e.syn,
		target:   cur,
		coins:    opts.Coins,
		maxSteps: maxSteps,
	}
	s.walk(cur, maxSteps, amount, nil, &results)

	sort.SliceStable(results, func(i, j int) bool {
		return trade.Profitability(results[i]) > trade.Profitability(results[j])
	})
	return results
}

type search struct {
	snap     rate.Snap
	venues   []string
	syn      *rate.SynonymSet
	target   string
	coins    map[string]bool
	maxSteps int
}

// walk performs one recursive frame of the DFS: terminal check, depth
// cutoff, then expansion over every venue's outgoing edges from current
// and its synonym.
func (s *search) walk(current string, remaining int, amount float64, chain trade.Chain, out *[]trade.Chain) {
	if len(chain) > 0 && s.isTarget(current) {
		*out = append(*out, chain)
	}
	if remaining == 0 {
		return
	}

	for _, venue := range s.venues {
		for _, edge := range s.edgesFrom(venue, current) {
			avgPrice, limit, nextAmount, ok := rate.Fill(edge.book, amount)
			if !ok {
				continue
			}
			_ = avgPrice
			if len(s.coins) > 0 && !s.coins[edge.nextCur] {
				continue
			}
			next := trade.New(venue, current, edge.nextCur, nextAmount, limit, nextAmount/amount)
			if chain.ContainsKey(next) {
				continue
			}
			s.walk(edge.nextCur, remaining-1, nextAmount, chain.Append(next), out)
		}
	}
}

type edge struct {
	nextCur string
	book    rate.Book
}

// edgesFrom collects outgoing edges from `current` and, separately, from
// every synonym of `current` that also has outgoing edges on this venue
// (spec.md §4.5 step 3: the union of the direct currency's pairs and its
// synonym's pairs). A synonym book to the same destination is kept as its
// own edge rather than folded into the direct one - the two may quote
// different prices (e.g. XBT/USD vs BTC/USD on the same venue), and walk
// tries both so the better one can be chosen.
func (s *search) edgesFrom(venue, current string) []edge {
	inner, ok := s.snap[venue]
	if !ok {
		return nil
	}
	var out []edge

	add := func(from string) {
		tos, ok := inner[from]
		if !ok {
			return
		}
		for to, book := range tos {
			out = append(out, edge{nextCur: to, book: book})
		}
	}

	add(current)
	for from := range inner {
		if from != current && s.areSynonyms(from, current) {
			add(from)
		}
	}
	return out
}

func (s *search) areSynonyms(a, b string) bool {
	if s.syn == nil {
		return false
	}
	return s.syn.AreSynonyms(a, b)
}

// isTarget reports whether cur equals the target currency or any of its
// synonyms, considering both directions of the synonym relation.
func (s *search) isTarget(cur string) bool {
	if cur == s.target {
		return true
	}
	if s.syn == nil {
		return false
	}
	return s.syn.AreSynonyms(cur, s.target)
}
