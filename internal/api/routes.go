package api

import (
	"net/http"
	"net/http/pprof"
	"runtime"

	"arbitrage/internal/api/handlers"
	"arbitrage/internal/api/middleware"
	"arbitrage/internal/rate"
	"arbitrage/internal/repository"
	"arbitrage/internal/streamhub"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Dependencies содержит все зависимости для API handlers.
type Dependencies struct {
	BlacklistRepo *repository.BlacklistRepository
	SettingsRepo  *repository.SettingsRepository
	Table         *rate.Table
	Hub           *streamhub.Hub
}

// SetupRoutes настраивает все HTTP маршруты приложения.
//
// Структура маршрутов:
//
// /api/v1/
//
//	├── /blacklist/
//	│   ├── GET / - получить черный список валют
//	│   ├── POST / - добавить валюту в черный список (требует basic auth)
//	│   └── DELETE /{symbol} - убрать валюту из черного списка (требует basic auth)
//	├── /settings/
//	│   ├── GET / - получить настройки драйвера
//	│   └── PATCH / - обновить настройки драйвера (требует basic auth)
//	└── /pairs/
//	    ├── GET / - валюты, достижимые за один шаг
//	    └── GET /diffs - расхождение лучших цен между площадками
//
// /ws/stream - WebSocket-поток ранжированных кандидатов
//
// /debug/pprof/* и /debug/runtime тоже требуют basic auth (middleware.RequireBasicAuth).
//
// Middleware применяется в следующем порядке:
// 1. Recovery (для всех маршрутов)
// 2. Logging (для всех маршрутов)
// 3. CORS (для всех маршрутов)
// 4. RequireBasicAuth (точечно, на мутирующих и debug маршрутах)
func SetupRoutes(deps *Dependencies) *mux.Router {
	router := mux.NewRouter()

	router.Use(middleware.Recovery)
	router.Use(middleware.Logging)
	router.Use(middleware.CORS)

	var blacklistHandler *handlers.BlacklistHandler
	if deps != nil && deps.BlacklistRepo != nil {
		blacklistHandler = handlers.NewBlacklistHandler(deps.BlacklistRepo)
	}

	var settingsHandler *handlers.SettingsHandler
	if deps != nil && deps.SettingsRepo != nil {
		settingsHandler = handlers.NewSettingsHandler(deps.SettingsRepo)
	}

	var pairsHandler *handlers.PairsHandler
	if deps != nil && deps.Table != nil {
		pairsHandler = handlers.NewPairsHandler(deps.Table)
	}

	api := router.PathPrefix("/api/v1").Subrouter()

	if blacklistHandler != nil {
		api.HandleFunc("/blacklist", blacklistHandler.GetBlacklist).Methods("GET")
		api.Handle("/blacklist", middleware.RequireBasicAuth(http.HandlerFunc(blacklistHandler.AddToBlacklist))).Methods("POST")
		api.Handle("/blacklist/{symbol}", middleware.RequireBasicAuth(http.HandlerFunc(blacklistHandler.RemoveFromBlacklist))).Methods("DELETE")
	}

	if settingsHandler != nil {
		api.HandleFunc("/settings", settingsHandler.GetSettings).Methods("GET")
		api.Handle("/settings", middleware.RequireBasicAuth(http.HandlerFunc(settingsHandler.UpdateSettings))).Methods("PATCH")
	}

	if pairsHandler != nil {
		api.HandleFunc("/pairs", pairsHandler.GetPairs).Methods("GET")
		api.HandleFunc("/pairs/diffs", pairsHandler.GetPairwiseDiffs).Methods("GET")
	}

	// WebSocket route для потока ранжированных кандидатов
	if deps != nil && deps.Hub != nil {
		router.HandleFunc("/ws/stream", func(w http.ResponseWriter, r *http.Request) {
			streamhub.ServeWS(deps.Hub, w, r)
		}).Methods("GET")
	}

	// Health check endpoint
	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	}).Methods("GET")

	// ============================================================
	// Prometheus metrics endpoint
	// ============================================================
	router.Handle("/metrics", promhttp.Handler()).Methods("GET")

	// ============================================================
	// pprof endpoints для профилирования
	// ============================================================
	debug := router.PathPrefix("/debug/pprof").Subrouter()
	debug.Use(middleware.RequireBasicAuth)

	debug.HandleFunc("/", pprof.Index)
	debug.HandleFunc("/cmdline", pprof.Cmdline)
	debug.HandleFunc("/profile", pprof.Profile)
	debug.HandleFunc("/symbol", pprof.Symbol)
	debug.HandleFunc("/trace", pprof.Trace)

	debug.HandleFunc("/heap", func(w http.ResponseWriter, r *http.Request) {
		pprof.Handler("heap").ServeHTTP(w, r)
	})
	debug.HandleFunc("/goroutine", func(w http.ResponseWriter, r *http.Request) {
		pprof.Handler("goroutine").ServeHTTP(w, r)
	})
	debug.HandleFunc("/block", func(w http.ResponseWriter, r *http.Request) {
		pprof.Handler("block").ServeHTTP(w, r)
	})
	debug.HandleFunc("/threadcreate", func(w http.ResponseWriter, r *http.Request) {
		pprof.Handler("threadcreate").ServeHTTP(w, r)
	})
	debug.HandleFunc("/mutex", func(w http.ResponseWriter, r *http.Request) {
		pprof.Handler("mutex").ServeHTTP(w, r)
	})
	debug.HandleFunc("/allocs", func(w http.ResponseWriter, r *http.Request) {
		pprof.Handler("allocs").ServeHTTP(w, r)
	})

	// Runtime stats endpoint (дополнительно)
	router.Handle("/debug/runtime", middleware.RequireBasicAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var m runtime.MemStats
		runtime.ReadMemStats(&m)

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{`))
		w.Write([]byte(`"goroutines":` + itoa(runtime.NumGoroutine()) + `,`))
		w.Write([]byte(`"heap_alloc_mb":` + ftoa(float64(m.HeapAlloc)/1024/1024) + `,`))
		w.Write([]byte(`"heap_sys_mb":` + ftoa(float64(m.HeapSys)/1024/1024) + `,`))
		w.Write([]byte(`"num_gc":` + itoa(int(m.NumGC)) + `,`))
		w.Write([]byte(`"gc_pause_total_ms":` + ftoa(float64(m.PauseTotalNs)/1e6)))
		w.Write([]byte(`}`))
	}))).Methods("GET")

	return router
}

// Вспомогательные функции для JSON без fmt
func itoa(i int) string {
	if i == 0 {
		return "0"
	}
	var b [20]byte
	pos := len(b)
	neg := i < 0
	if neg {
		i = -i
	}
	for i > 0 {
		pos--
		b[pos] = byte('0' + i%10)
		i /= 10
	}
	if neg {
		pos--
		b[pos] = '-'
	}
	return string(b[pos:])
}

func ftoa(f float64) string {
	// Простое форматирование с 2 знаками после запятой
	i := int(f * 100)
	whole := i / 100
	frac := i % 100
	if frac < 0 {
		frac = -frac
	}
	fracStr := itoa(frac)
	if len(fracStr) == 1 {
		fracStr = "0" + fracStr
	}
	return itoa(whole) + "." + fracStr
}
