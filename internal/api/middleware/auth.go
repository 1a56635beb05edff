package middleware

import (
	"crypto/subtle"
	"net/http"
	"os"

	"arbitrage/pkg/crypto"
	"arbitrage/pkg/utils"
)

// apiUsername защищает routes, которые меняют состояние детектора (черный
// список, настройки драйвера) и debug/pprof endpoints. apiPassword и
// apiPasswordHash load из переменных окружения API_USERNAME, API_PASSWORD и
// API_PASSWORD_HASH - если задан хеш, он побеждает сравнение открытого
// пароля (crypto.CheckPasswordMatch, bcrypt).
var (
	apiUsername     = os.Getenv("API_USERNAME")
	apiPassword     = os.Getenv("API_PASSWORD")
	apiPasswordHash = os.Getenv("API_PASSWORD_HASH")
)

// RequireBasicAuth - middleware для защиты мутирующих API endpoints и
// debug/pprof маршрутов.
//
// Используется и на debug-подроутере (internal/api/routes.go), и на POST
// /api/v1/blacklist, DELETE /api/v1/blacklist/{symbol}, PATCH
// /api/v1/settings - эти запросы меняют то, что драйвер делает на следующем
// цикле (блокирует валюту, двигает порог прибыльности), так что их имеет
// смысл защищать тем же механизмом, что и pprof.
//
// Если API_USERNAME/API_PASSWORD не заданы, запросы пропускаются в
// ENV=development (или когда ENV не задан) и отклоняются с 403 иначе -
// без дефолтного пароля, который кто-то забудет сменить.
func RequireBasicAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if apiUsername == "" || (apiPassword == "" && apiPasswordHash == "") {
			if os.Getenv("ENV") == "development" || os.Getenv("ENV") == "" {
				next.ServeHTTP(w, r)
				return
			}
			http.Error(w, "Endpoint disabled. Set API_USERNAME and API_PASSWORD or API_PASSWORD_HASH.", http.StatusForbidden)
			return
		}

		user, pass, ok := r.BasicAuth()
		if !ok {
			w.Header().Set("WWW-Authenticate", `Basic realm="arbitrage"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		userMatch := subtle.ConstantTimeCompare([]byte(user), []byte(apiUsername)) == 1

		var passMatch bool
		if apiPasswordHash != "" {
			// bcrypt has its own constant-time comparison internally.
			passMatch = crypto.CheckPasswordMatch(pass, apiPasswordHash)
		} else {
			passMatch = subtle.ConstantTimeCompare([]byte(pass), []byte(apiPassword)) == 1
		}

		if !userMatch || !passMatch {
			utils.L().WithComponent("auth").Warn("basic auth rejected",
				utils.String("user", user),
				utils.String("remote_addr", r.RemoteAddr),
				utils.Bool("password_hash_configured", apiPasswordHash != ""),
			)
			w.Header().Set("WWW-Authenticate", `Basic realm="arbitrage"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		next.ServeHTTP(w, r)
	})
}
