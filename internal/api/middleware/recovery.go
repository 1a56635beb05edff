package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"arbitrage/internal/metrics"
	"arbitrage/pkg/utils"

	"github.com/gorilla/mux"
)

// Recovery перехватывает panic в HTTP handlers, логирует её через общий
// zap-логгер процесса вместе со стеком вызовов, увеличивает
// metrics.HTTPPanicsRecovered для соответствующего route и отвечает клиенту
// 500 вместо падения сервера.
func Recovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				route := r.URL.Path
				if rt := mux.CurrentRoute(r); rt != nil {
					if tpl, tplErr := rt.GetPathTemplate(); tplErr == nil && tpl != "" {
						route = tpl
					}
				}

				utils.L().Error("panic recovered",
					utils.String("route", route),
					utils.String("method", r.Method),
					utils.Any("panic", err),
					utils.String("stack", string(debug.Stack())),
				)
				metrics.HTTPPanicsRecovered.WithLabelValues(route).Inc()

				http.Error(w, fmt.Sprintf("Internal Server Error: %v", err), http.StatusInternalServerError)
			}
		}()

		next.ServeHTTP(w, r)
	})
}
