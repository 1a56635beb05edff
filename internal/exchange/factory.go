package exchange

import "fmt"

// VenueConfig describes how to reach one exchange's REST API generically
// enough that a single RESTClient implementation can serve any of them -
// no per-exchange Go type is required.
type VenueConfig struct {
	Name          string
	BaseURL       string
	MarketsPath   string // returns the tradable symbol list
	TickersPath   string // batched ticker snapshot, empty if unsupported
	OrderBookPath func(symbol string) string
	HasTickers    bool
	HasOrderBooks bool

	// APIKey, when non-empty, is sent as an X-API-KEY header on every
	// request. Public market-data endpoints don't require it, but several
	// venues grant a higher rate limit to authenticated callers; see
	// repository.VenueCredentialRepository for where it's decrypted from.
	APIKey string
}

// NewClient builds a Client for the given venue configuration, wiring it to
// an HTTP client whose connection pool is sized for that venue's ingestion
// mode (HTTPClientConfigForVenue) rather than one pool shared by every
// venue regardless of how hard Populate drives it.
func NewClient(cfg VenueConfig) (Client, error) {
	if cfg.Name == "" {
		return nil, fmt.Errorf("exchange: venue config missing name")
	}
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("exchange: venue config %q missing base URL", cfg.Name)
	}
	http := NewHTTPClient(HTTPClientConfigForVenue(cfg))
	return NewRESTClient(cfg, http), nil
}
