package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"arbitrage/internal/repository"
)

// SettingsHandler отвечает за управление переопределяемыми параметрами
// драйвера: порог прибыльности, глубина перебора, набор синонимов валют.
//
// Endpoints:
// - GET /api/v1/settings - получение текущих настроек
// - PATCH /api/v1/settings - обновление настроек
type SettingsHandler struct {
	repo *repository.SettingsRepository
}

// NewSettingsHandler создает новый SettingsHandler с внедрением зависимостей.
func NewSettingsHandler(repo *repository.SettingsRepository) *SettingsHandler {
	return &SettingsHandler{repo: repo}
}

// settingsResponse - JSON-представление настроек драйвера.
type settingsResponse struct {
	ID                 int      `json:"id"`
	ArbitrageThreshold float64  `json:"arbitrage_threshold"`
	MaxSearchSteps     int      `json:"max_search_steps"`
	PollIntervalSecs   int      `json:"poll_interval_secs"`
	SynonymPairs       []string `json:"synonym_pairs"`
	UpdatedAt          string   `json:"updated_at"`
}

func toSettingsResponse(s *repository.Settings) settingsResponse {
	return settingsResponse{
		ID:                 s.ID,
		ArbitrageThreshold: s.ArbitrageThreshold,
		MaxSearchSteps:     s.MaxSearchSteps,
		PollIntervalSecs:   s.PollIntervalSecs,
		SynonymPairs:       s.SynonymPairs,
		UpdatedAt:          s.UpdatedAt.Format("2006-01-02T15:04:05Z"),
	}
}

// GetSettings возвращает текущие настройки драйвера.
//
// GET /api/v1/settings
func (h *SettingsHandler) GetSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := h.repo.Get()
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to get settings")
		return
	}
	respondJSON(w, http.StatusOK, toSettingsResponse(settings))
}

// updateSettingsRequest представляет тело запроса на обновление настроек.
// Все поля опциональны - обновляются только переданные.
type updateSettingsRequest struct {
	ArbitrageThreshold *float64 `json:"arbitrage_threshold,omitempty"`
	MaxSearchSteps     *int     `json:"max_search_steps,omitempty"`
	SynonymPairs       []string `json:"synonym_pairs,omitempty"`
}

// UpdateSettings обновляет настройки драйвера.
//
// PATCH /api/v1/settings
//
// Request Body (все поля опциональны):
//
//	{"arbitrage_threshold": 0.02, "max_search_steps": 4}
func (h *SettingsHandler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var req updateSettingsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.ArbitrageThreshold == nil && req.MaxSearchSteps == nil && req.SynonymPairs == nil {
		respondError(w, http.StatusBadRequest, "at least one field must be provided")
		return
	}

	current, err := h.repo.Get()
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to get current settings")
		return
	}

	if req.ArbitrageThreshold != nil {
		if *req.ArbitrageThreshold <= 0 {
			respondError(w, http.StatusBadRequest, "arbitrage_threshold must be > 0")
			return
		}
		current.ArbitrageThreshold = *req.ArbitrageThreshold
	}
	if req.MaxSearchSteps != nil {
		if *req.MaxSearchSteps < 2 {
			respondError(w, http.StatusBadRequest, "max_search_steps must be >= 2")
			return
		}
		current.MaxSearchSteps = *req.MaxSearchSteps
	}
	if req.SynonymPairs != nil {
		current.SynonymPairs = req.SynonymPairs
	}

	if err := h.repo.Update(current); err != nil {
		if errors.Is(err, repository.ErrSettingsNotFound) {
			respondError(w, http.StatusNotFound, "settings not found")
			return
		}
		respondError(w, http.StatusInternalServerError, "failed to update settings")
		return
	}

	respondJSON(w, http.StatusOK, toSettingsResponse(current))
}
