package repository

import (
	"database/sql"
	"errors"
	"strings"
	"time"

	"arbitrage/pkg/crypto"
	"arbitrage/pkg/utils"
)

// ErrVenueCredentialNotFound - для площадки не сохранён секретный ключ.
var ErrVenueCredentialNotFound = errors.New("venue credential not found")

// VenueCredential - зашифрованный секретный ключ одной площадки. Секрет
// никогда не покидает репозиторий в открытом виде: Get расшифровывает его
// на лету, Set шифрует перед записью.
type VenueCredential struct {
	Venue     string
	APIKey    string
	UpdatedAt time.Time
}

// VenueCredentialRepository хранит API-секреты площадок в зашифрованном виде
// (AES-256-GCM), используя один ключ процесса (config.SecurityConfig.EncryptionKey).
//
// Нужен потому, что NewRegisteredClient (internal/exchange/venues.go) строит
// клиентов без аутентификации - fetch_l2_order_book/fetch_tickers/load_markets
// у большинства площадок публичны, но некоторые (см. REDESIGN FLAGS) требуют
// ключ даже для публичных эндпоинтов с более высоким рейт-лимитом; этот
// репозиторий - то место, где такой ключ хранится, если оператор его задаст.
type VenueCredentialRepository struct {
	db            *sql.DB
	encryptionKey []byte
}

// NewVenueCredentialRepository создаёт репозиторий. encryptionKey должен
// быть ровно 32 байта (AES-256); вызывающий (cmd/detector) обязан
// провалидировать SecurityConfig.EncryptionKey перед вызовом.
func NewVenueCredentialRepository(db *sql.DB, encryptionKey []byte) *VenueCredentialRepository {
	return &VenueCredentialRepository{db: db, encryptionKey: encryptionKey}
}

// Set шифрует apiSecret и сохраняет его для площадки, заменяя предыдущее
// значение (upsert по имени площадки).
func (r *VenueCredentialRepository) Set(venue, apiSecret string) error {
	if err := utils.ValidateAPIKey(apiSecret); err != nil {
		return err
	}

	ciphertext, err := crypto.Encrypt(apiSecret, r.encryptionKey)
	if err != nil {
		return err
	}

	_, err = r.db.Exec(`
		INSERT INTO venue_credentials (venue, encrypted_secret, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (venue) DO UPDATE SET encrypted_secret = $2, updated_at = $3`,
		strings.ToLower(venue), ciphertext, time.Now(),
	)
	return err
}

// Get расшифровывает и возвращает the секретный ключ площадки.
func (r *VenueCredentialRepository) Get(venue string) (*VenueCredential, error) {
	var ciphertext string
	cred := &VenueCredential{Venue: strings.ToLower(venue)}

	err := r.db.QueryRow(
		`SELECT encrypted_secret, updated_at FROM venue_credentials WHERE venue = $1`,
		cred.Venue,
	).Scan(&ciphertext, &cred.UpdatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrVenueCredentialNotFound
		}
		return nil, err
	}

	plaintext, err := crypto.Decrypt(ciphertext, r.encryptionKey)
	if err != nil {
		return nil, err
	}
	cred.APIKey = plaintext

	return cred, nil
}

// Delete удаляет сохранённый секрет площадки.
func (r *VenueCredentialRepository) Delete(venue string) error {
	result, err := r.db.Exec(`DELETE FROM venue_credentials WHERE venue = $1`, strings.ToLower(venue))
	if err != nil {
		return err
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrVenueCredentialNotFound
	}
	return nil
}

// ListVenues возвращает имена площадок, для которых сохранён секрет,
// без расшифровки значений.
func (r *VenueCredentialRepository) ListVenues() ([]string, error) {
	rows, err := r.db.Query(`SELECT venue FROM venue_credentials ORDER BY venue`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var venues []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		venues = append(venues, v)
	}
	return venues, rows.Err()
}
