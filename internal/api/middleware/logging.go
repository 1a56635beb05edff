package middleware

import (
	"net/http"
	"time"

	"arbitrage/internal/metrics"
	"arbitrage/pkg/utils"

	"github.com/gorilla/mux"
)

// responseWriter захватывает status code и размер ответа, чтобы Logging
// мог сообщить их уже после того, как handler отправил ответ.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
	written    int64
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	n, err := rw.ResponseWriter.Write(b)
	rw.written += int64(n)
	return n, err
}

// Logging логирует каждый HTTP запрос через общий zap-логгер процесса
// (pkg/utils.L) и публикует его длительность в metrics.HTTPRequestDuration,
// рядом с populate/enumerator метриками на /metrics.
func Logging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(wrapped, r)

		duration := time.Since(start)
		route := routeTemplate(r)

		utils.L().Info("http request",
			utils.String("method", r.Method),
			utils.String("route", route),
			utils.Int("status", wrapped.statusCode),
			utils.Latency(float64(duration.Milliseconds())),
			utils.Int64("response_bytes", wrapped.written),
			utils.String("remote_addr", r.RemoteAddr),
		)

		metrics.HTTPRequestDuration.WithLabelValues(r.Method, route, statusBucket(wrapped.statusCode)).Observe(duration.Seconds())
	})
}

// routeTemplate reports the matched mux route template (e.g.
// "/api/v1/blacklist/{symbol}") rather than the literal path, so the metric
// doesn't spray one series per distinct symbol/venue in the URL.
func routeTemplate(r *http.Request) string {
	if route := mux.CurrentRoute(r); route != nil {
		if tpl, err := route.GetPathTemplate(); err == nil && tpl != "" {
			return tpl
		}
	}
	return r.URL.Path
}

func statusBucket(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}
