// Package exchange предоставляет унифицированный интерфейс для работы с биржами.
package exchange

import (
	"context"
	"crypto/tls"
	"net"
	"net/http"
	"time"
)

// HTTPClientConfig содержит настройки HTTP клиента для одной площадки.
type HTTPClientConfig struct {
	// Таймауты соединения
	ConnectTimeout time.Duration // таймаут установки TCP соединения (default: 5s)
	ReadTimeout    time.Duration // таймаут чтения ответа (default: 10s)
	WriteTimeout   time.Duration // таймаут отправки запроса (default: 10s)
	TotalTimeout   time.Duration // общий таймаут операции (default: 30s)

	// Connection pooling
	MaxIdleConns        int           // максимум idle соединений (default: 100)
	MaxIdleConnsPerHost int           // максимум idle соединений на хост
	MaxConnsPerHost     int           // максимум соединений на хост
	IdleConnTimeout     time.Duration // таймаут простоя соединения (default: 90s)

	// TLS
	TLSHandshakeTimeout time.Duration // таймаут TLS handshake (default: 5s)

	// Keep-Alive
	DisableKeepAlives bool          // отключить Keep-Alive (default: false)
	KeepAliveInterval time.Duration // интервал Keep-Alive (default: 30s)
}

// bookVenueConnsPerHost/tickerVenueConnsPerHost size a venue's connection
// pool to how Populate actually drives it (internal/rate/populate.go):
// book-mode venues fan fetchBooks out one request per symbol concurrently,
// while ticker-only venues make a single batched call per cycle.
const (
	bookVenueConnsPerHost   = 32
	tickerVenueConnsPerHost = 4
)

// DefaultHTTPClientConfig returns the baseline timeouts shared by every
// venue; connection-pool sizing is filled in per venue by
// HTTPClientConfigForVenue.
func DefaultHTTPClientConfig() HTTPClientConfig {
	return HTTPClientConfig{
		ConnectTimeout: 5 * time.Second,
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   10 * time.Second,
		TotalTimeout:   30 * time.Second,

		MaxIdleConns:        100,
		MaxIdleConnsPerHost: tickerVenueConnsPerHost,
		MaxConnsPerHost:     tickerVenueConnsPerHost,
		IdleConnTimeout:     90 * time.Second,

		TLSHandshakeTimeout: 5 * time.Second,

		DisableKeepAlives: false,
		KeepAliveInterval: 30 * time.Second,
	}
}

// HTTPClientConfigForVenue sizes the connection pool to the venue's
// ingestion mode. Book-capable venues get a much wider pool than
// ticker-only ones, since fetchBooks opens one connection per symbol in
// flight while fetchTickers makes a single call per cycle (spec.md §4.3
// step 3).
func HTTPClientConfigForVenue(cfg VenueConfig) HTTPClientConfig {
	c := DefaultHTTPClientConfig()
	if cfg.HasOrderBooks {
		c.MaxIdleConnsPerHost = bookVenueConnsPerHost
		c.MaxConnsPerHost = bookVenueConnsPerHost
	}
	return c
}

// HTTPClient представляет оптимизированный HTTP клиент для работы с биржевыми API
// Поддерживает connection pooling и детальные таймауты
type HTTPClient struct {
	client *http.Client
	config HTTPClientConfig
}

// NewHTTPClient создаёт новый HTTP клиент с заданной конфигурацией
func NewHTTPClient(config HTTPClientConfig) *HTTPClient {
	dialer := &net.Dialer{
		Timeout:   config.ConnectTimeout,
		KeepAlive: config.KeepAliveInterval,
	}

	transport := &http.Transport{
		DialContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
			if deadline, ok := ctx.Deadline(); ok {
				timeout := time.Until(deadline)
				if timeout < config.ConnectTimeout {
					dialerWithTimeout := &net.Dialer{
						Timeout:   timeout,
						KeepAlive: config.KeepAliveInterval,
					}
					return dialerWithTimeout.DialContext(ctx, network, addr)
				}
			}
			return dialer.DialContext(ctx, network, addr)
		},

		MaxIdleConns:        config.MaxIdleConns,
		MaxIdleConnsPerHost: config.MaxIdleConnsPerHost,
		MaxConnsPerHost:     config.MaxConnsPerHost,
		IdleConnTimeout:     config.IdleConnTimeout,

		TLSHandshakeTimeout: config.TLSHandshakeTimeout,
		TLSClientConfig: &tls.Config{
			MinVersion: tls.VersionTLS12,
		},

		DisableKeepAlives: config.DisableKeepAlives,

		DisableCompression:    true, // отключаем сжатие для минимизации latency
		ForceAttemptHTTP2:     true, // используем HTTP/2 где возможно
		ExpectContinueTimeout: 1 * time.Second,
		ResponseHeaderTimeout: config.ReadTimeout,
	}

	client := &http.Client{
		Transport: transport,
		Timeout:   config.TotalTimeout, // общий таймаут как fallback
	}

	return &HTTPClient{
		client: client,
		config: config,
	}
}

// Do выполняет HTTP запрос с учётом всех таймаутов
func (hc *HTTPClient) Do(req *http.Request) (*http.Response, error) {
	return hc.client.Do(req)
}

// Close закрывает все idle соединения. Предназначен для graceful shutdown
// одного венюшного клиента.
func (hc *HTTPClient) Close() {
	if transport, ok := hc.client.Transport.(*http.Transport); ok {
		transport.CloseIdleConnections()
	}
}
