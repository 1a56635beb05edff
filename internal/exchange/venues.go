package exchange

import "fmt"

// venueRegistry maps a venue name (as used by config.BotConfig.Venues) to
// the REST endpoints NewClient needs. Paths are generic placeholders for
// each venue's actual market/ticker/order-book routes - a production build
// would source these from each exchange's API docs, but the shape (markets
// list + tickers + per-symbol book) is the same for every RESTClient.
var venueRegistry = map[string]VenueConfig{
	"kraken": {
		Name:          "kraken",
		BaseURL:       "https://api.kraken.com",
		MarketsPath:   "/0/public/AssetPairs",
		TickersPath:   "/0/public/Ticker",
		OrderBookPath: func(symbol string) string { return "/0/public/Depth?pair=" + symbol },
		HasTickers:    true,
		HasOrderBooks: true,
	},
	"binance": {
		Name:          "binance",
		BaseURL:       "https://api.binance.com",
		MarketsPath:   "/api/v3/exchangeInfo",
		TickersPath:   "/api/v3/ticker/bookTicker",
		OrderBookPath: func(symbol string) string { return "/api/v3/depth?symbol=" + symbol },
		HasTickers:    true,
		HasOrderBooks: true,
	},
	"bitmex": {
		Name:          "bitmex",
		BaseURL:       "https://www.bitmex.com",
		MarketsPath:   "/api/v1/instrument/active",
		OrderBookPath: func(symbol string) string { return "/api/v1/orderBook/L2?symbol=" + symbol },
		HasTickers:    false,
		HasOrderBooks: true,
	},
	"gemini": {
		Name:          "gemini",
		BaseURL:       "https://api.gemini.com",
		MarketsPath:   "/v1/symbols",
		OrderBookPath: func(symbol string) string { return "/v1/book/" + symbol },
		HasTickers:    false,
		HasOrderBooks: true,
	},
	"poloniex": {
		Name:          "poloniex",
		BaseURL:       "https://poloniex.com",
		MarketsPath:   "/public?command=returnTicker",
		TickersPath:   "/public?command=returnTicker",
		OrderBookPath: func(symbol string) string { return "/public?command=returnOrderBook&currencyPair=" + symbol },
		HasTickers:    true,
		HasOrderBooks: true,
	},
	"bittrex": {
		Name:          "bittrex",
		BaseURL:       "https://api.bittrex.com",
		MarketsPath:   "/v3/markets",
		TickersPath:   "/v3/markets/tickers",
		OrderBookPath: func(symbol string) string { return "/v3/markets/" + symbol + "/orderbook" },
		HasTickers:    true,
		HasOrderBooks: true,
	},
	"gdax": {
		Name:          "gdax",
		BaseURL:       "https://api.exchange.coinbase.com",
		MarketsPath:   "/products",
		OrderBookPath: func(symbol string) string { return "/products/" + symbol + "/book?level=2" },
		HasTickers:    false,
		HasOrderBooks: true,
	},
	"cryptopia": {
		Name:          "cryptopia",
		BaseURL:       "https://api.cryptopia.co.nz",
		MarketsPath:   "/api/GetTradePairs",
		TickersPath:   "/api/GetMarkets",
		HasTickers:    true,
		HasOrderBooks: false,
	},
}

// NewRegisteredClient builds a Client for a venue name known to
// venueRegistry. Used by cmd/detector to turn config.BotConfig.Venues into
// exchange.Client instances without each caller hand-writing VenueConfig.
func NewRegisteredClient(name string) (Client, error) {
	return NewRegisteredClientWithKey(name, "")
}

// NewRegisteredClientWithKey is NewRegisteredClient plus an API key to send
// on every request (see VenueConfig.APIKey), for venues whose secret was
// loaded from repository.VenueCredentialRepository.
func NewRegisteredClientWithKey(name, apiKey string) (Client, error) {
	cfg, ok := venueRegistry[name]
	if !ok {
		return nil, fmt.Errorf("exchange: no registered venue config for %q", name)
	}
	cfg.APIKey = apiKey
	return NewClient(cfg)
}
