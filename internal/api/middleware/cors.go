package middleware

import (
	"net/http"

	"arbitrage/internal/streamhub"
)

// CORS настраивает Cross-Origin Resource Sharing для /api/v1/*.
//
// Origin policy не дублируется здесь: streamhub.CheckOrigin реализует то же
// ALLOWED_ORIGINS-решение, которым WebSocket upgrade в internal/streamhub уже
// проверяет /ws/stream, так что UI, читающий и /api/v1, и /ws/stream с
// одного origin, настраивается одной переменной окружения вместо двух
// списков, которые легко рассинхронизировать.
func CORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")

		if origin == "" {
			// Не-браузерные клиенты (curl, API tools)
			w.Header().Set("Access-Control-Allow-Origin", "*")
		} else if streamhub.CheckOrigin(origin) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
		}
		// Origin отклонён streamhub.CheckOrigin: заголовки не ставятся,
		// браузер заблокирует ответ сам.

		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		w.Header().Set("Access-Control-Max-Age", "86400")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
