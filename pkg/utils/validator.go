package utils

// validator.go - валидация данных
//
// Назначение:
// Проверка корректности входных данных, поступающих от клиентов бирж и
// через административное API.
//
// Функции:
// - ValidateSymbol / SplitSymbol: формат символа (BASE/QUOTE) и его разбор,
//   используются rate.Populate при фильтрации и разборе списка рынков
// - ValidatePositive: проверка цены/объёма (> 0), используется
//   rate.DeriveBooks при построении стаканов
// - ValidateAPIKey: базовая проверка ключа площадки перед шифрованием
//   в VenueCredentialRepository.Set
//
// Возвращает error с описанием проблемы или nil

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

var (
	// ErrInvalidSymbol - символ не прошёл проверку формата.
	ErrInvalidSymbol = errors.New("invalid symbol format")
	// ErrNonPositiveValue - значение, которое обязано быть строго больше нуля, таковым не является.
	ErrNonPositiveValue = errors.New("value must be greater than zero")
	// ErrInvalidAPIKey - ключ не прошёл базовую проверку длины/алфавита.
	ErrInvalidAPIKey = errors.New("invalid API key format")
)

var symbolPattern = regexp.MustCompile(`^[A-Za-z0-9]{1,16}[/_-]?[A-Za-z0-9]{1,16}$`)

// ValidateSymbol проверяет, что строка похожа на торговый символ
// (BASE/QUOTE, BASE-QUOTE, BASE_QUOTE или слитную форму вроде BTCUSDT).
func ValidateSymbol(symbol string) error {
	if len(symbol) < 2 || len(symbol) > 24 {
		return fmt.Errorf("%w: %q", ErrInvalidSymbol, symbol)
	}
	if !symbolPattern.MatchString(symbol) {
		return fmt.Errorf("%w: %q", ErrInvalidSymbol, symbol)
	}
	return nil
}

// SplitSymbol разбивает символ вида "A/B" на пару валют. Поддерживает
// разделители /, -, _. Возвращает ok=false, если разделителя нет.
func SplitSymbol(symbol string) (base, quote string, ok bool) {
	for _, sep := range []string{"/", "-", "_"} {
		if idx := strings.Index(symbol, sep); idx > 0 && idx < len(symbol)-1 {
			return strings.ToUpper(symbol[:idx]), strings.ToUpper(symbol[idx+len(sep):]), true
		}
	}
	return "", "", false
}

// ValidatePositive проверяет, что значение строго положительно - инвариант,
// которому обязана удовлетворять каждая запись стакана (цена и объём).
func ValidatePositive(value float64) error {
	if value <= 0 {
		return ErrNonPositiveValue
	}
	return nil
}

var apiKeyPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{16,128}$`)

// ValidateAPIKey - базовая проверка алфавита и длины ключа, сохраняемого при
// настройке учётных данных площадки.
func ValidateAPIKey(apiKey string) error {
	if !apiKeyPattern.MatchString(apiKey) {
		return fmt.Errorf("%w: length %d", ErrInvalidAPIKey, len(apiKey))
	}
	return nil
}

