package repository

import (
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"time"
)

// ErrSettingsNotFound - запись настроек не найдена (при обновлении: строка с
// id=1 отсутствует вместо ожидаемого единственного ряда).
var ErrSettingsNotFound = errors.New("settings not found")

// Settings - переопределяемые оператором параметры драйвера: порог
// прибыльности, глубина перебора, интервал опроса площадок и набор
// синонимов валют. Всегда одна строка (id=1).
type Settings struct {
	ID                 int
	ArbitrageThreshold float64
	MaxSearchSteps     int
	PollIntervalSecs   int
	SynonymPairs       []string // "XBT:BTC" и т.п., см. rate.NewSynonymSet
	UpdatedAt          time.Time
}

// SettingsRepository - работа с единственной строкой настроек драйвера.
type SettingsRepository struct {
	db *sql.DB
}

// NewSettingsRepository создает новый экземпляр репозитория.
func NewSettingsRepository(db *sql.DB) *SettingsRepository {
	return &SettingsRepository{db: db}
}

func defaultSettings() *Settings {
	return &Settings{
		ID:                 1,
		ArbitrageThreshold: 0.01,
		MaxSearchSteps:     3,
		PollIntervalSecs:   5,
		SynonymPairs:       nil,
	}
}

// Get возвращает текущие настройки, создавая строку по умолчанию, если она
// ещё не существует.
func (r *SettingsRepository) Get() (*Settings, error) {
	query := `
		SELECT id, arbitrage_threshold, max_search_steps, poll_interval_secs, synonym_pairs, updated_at
		FROM settings WHERE id = 1`

	var synonymsJSON []byte
	s := &Settings{}
	err := r.db.QueryRow(query).Scan(
		&s.ID,
		&s.ArbitrageThreshold,
		&s.MaxSearchSteps,
		&s.PollIntervalSecs,
		&synonymsJSON,
		&s.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return r.createDefault()
		}
		return nil, err
	}

	if len(synonymsJSON) > 0 {
		if err := json.Unmarshal(synonymsJSON, &s.SynonymPairs); err != nil {
			return nil, err
		}
	}

	return s, nil
}

func (r *SettingsRepository) createDefault() (*Settings, error) {
	s := defaultSettings()
	synonymsJSON, err := json.Marshal(s.SynonymPairs)
	if err != nil {
		return nil, err
	}
	s.UpdatedAt = time.Now()

	_, err = r.db.Exec(
		`INSERT INTO settings (arbitrage_threshold, max_search_steps, poll_interval_secs, synonym_pairs, updated_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		s.ArbitrageThreshold, s.MaxSearchSteps, s.PollIntervalSecs, synonymsJSON, s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	return s, nil
}

// Update перезаписывает все настраиваемые поля.
func (r *SettingsRepository) Update(s *Settings) error {
	synonymsJSON, err := json.Marshal(s.SynonymPairs)
	if err != nil {
		return err
	}
	s.UpdatedAt = time.Now()

	result, err := r.db.Exec(
		`UPDATE settings SET arbitrage_threshold = $1, max_search_steps = $2,
		 poll_interval_secs = $3, synonym_pairs = $4, updated_at = $5 WHERE id = 1`,
		s.ArbitrageThreshold, s.MaxSearchSteps, s.PollIntervalSecs, synonymsJSON, s.UpdatedAt,
	)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrSettingsNotFound
	}

	return nil
}

// UpdateThreshold обновляет только порог прибыльности.
func (r *SettingsRepository) UpdateThreshold(threshold float64) error {
	result, err := r.db.Exec(
		`UPDATE settings SET arbitrage_threshold = $1, updated_at = $2 WHERE id = 1`,
		threshold, time.Now(),
	)
	if err != nil {
		return err
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrSettingsNotFound
	}
	return nil
}

// UpdateMaxSearchSteps обновляет только глубину перебора.
func (r *SettingsRepository) UpdateMaxSearchSteps(steps int) error {
	result, err := r.db.Exec(
		`UPDATE settings SET max_search_steps = $1, updated_at = $2 WHERE id = 1`,
		steps, time.Now(),
	)
	if err != nil {
		return err
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrSettingsNotFound
	}
	return nil
}

// UpdateSynonymPairs заменяет набор синонимов валют целиком.
func (r *SettingsRepository) UpdateSynonymPairs(pairs []string) error {
	synonymsJSON, err := json.Marshal(pairs)
	if err != nil {
		return err
	}
	result, err := r.db.Exec(
		`UPDATE settings SET synonym_pairs = $1, updated_at = $2 WHERE id = 1`,
		synonymsJSON, time.Now(),
	)
	if err != nil {
		return err
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrSettingsNotFound
	}
	return nil
}

// ResetToDefaults возвращает настройки к значениям по умолчанию.
func (r *SettingsRepository) ResetToDefaults() error {
	return r.Update(defaultSettings())
}

// ParseSynonymPair разбивает строку вида "XBT:BTC" на пару кодов валют.
// Возвращает ok=false для некорректного формата - вызывающий обязан
// пропустить такую запись, а не падать на старте.
func ParseSynonymPair(raw string) (a, b string, ok bool) {
	parts := strings.SplitN(raw, ":", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", false
	}
	return parts[0], parts[1], true
}
