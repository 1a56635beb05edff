package handlers

import (
	"net/http"

	"arbitrage/internal/rate"
)

// PairsHandler экспонирует текущее состояние таблицы курсов: какие пары
// валют достижимы, и как расходятся лучшие цены между площадками.
//
// Endpoints:
// - GET /api/v1/pairs - валюты, достижимые за один шаг
// - GET /api/v1/pairs/diffs?from=USD&to=BTC - разница лучших цен между площадками
type PairsHandler struct {
	table *rate.Table
}

// NewPairsHandler создает новый PairsHandler с внедрением зависимостей.
func NewPairsHandler(table *rate.Table) *PairsHandler {
	return &PairsHandler{table: table}
}

// GetPairs возвращает, для каждой исходной валюты, множество валют,
// достижимых за один шаг на любой площадке.
//
// GET /api/v1/pairs
func (h *PairsHandler) GetPairs(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.table.GetPairs())
}

// GetPairwiseDiffs возвращает, для каждой площадки venue1, расхождение её
// лучшей цены пары (from, to) против всех остальных площадок.
//
// GET /api/v1/pairs/diffs?from=USD&to=BTC
func (h *PairsHandler) GetPairwiseDiffs(w http.ResponseWriter, r *http.Request) {
	from := r.URL.Query().Get("from")
	to := r.URL.Query().Get("to")
	if from == "" || to == "" {
		respondError(w, http.StatusBadRequest, "from and to query params are required")
		return
	}
	respondJSON(w, http.StatusOK, h.table.PairwiseDiffs(from, to))
}
