// Package exchange предоставляет унифицированный интерфейс для работы с биржами.
package exchange

import (
	"context"
	"fmt"
)

// PriceLevel - одна запись стакана или синтезированный уровень тикера:
// (цена, объём).
type PriceLevel struct {
	Price  float64
	Volume float64
}

// OrderBook - срез L2 стакана по одному символу на момент запроса.
type OrderBook struct {
	Symbol string
	Bids   []PriceLevel // по убыванию цены
	Asks   []PriceLevel // по возрастанию цены
}

// Ticker - лучшая котировка по символу, используемая в тикерном режиме
// заполнения, когда площадка не отдаёт пакетный L2 стакан по каждому
// символу.
type Ticker struct {
	Symbol      string
	Bid         float64
	Ask         float64
	QuoteVolume float64 // 0 означает "не сообщается"; вызывающий код подставляет +Inf
}

// Capabilities сообщает, какие способы получения данных площадка
// поддерживает пакетно.
type Capabilities struct {
	FetchTickers     bool // площадка умеет отдавать все тикеры одним вызовом
	FetchOrderBooks  bool // площадка рекламирует массовую выдачу L2 стаканов
}

// Client - минимальная граница, от которой зависит детектор арбитража:
// список торгуемых символов и два способа получить свежие котировки по
// ним. Конкретные реализации (HTTP-клиент биржи, мок для тестов) живут вне
// этого пакета или в его поддиректориях.
type Client interface {
	// Name - имя площадки, используемое как ключ RateTable.
	Name() string

	// Symbols возвращает список торговых пар вида "BASE/QUOTE", известных
	// клиенту после LoadMarkets.
	Symbols() []string

	// Has сообщает набор пакетных возможностей клиента.
	Has() Capabilities

	// LoadMarkets (идемпотентно) подгружает список символов площадки.
	// При таймауте должна быть возможность повторного вызова.
	LoadMarkets(ctx context.Context) error

	// FetchL2OrderBook возвращает L2 стакан по одному символу.
	FetchL2OrderBook(ctx context.Context, symbol string) (OrderBook, error)

	// FetchTickers возвращает снимок лучших котировок по всем известным
	// символам одним вызовом.
	FetchTickers(ctx context.Context) (map[string]Ticker, error)
}

// TimeoutError - ошибка, классифицированная как повторяемая по таймауту.
// Populate обязан повторить вызов (до настроенного числа раз), а не
// пропускать обновление площадки.
type TimeoutError struct {
	Exchange string
	Op       string
	Err      error
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%s: %s timed out: %v", e.Exchange, e.Op, e.Err)
}

func (e *TimeoutError) Unwrap() error { return e.Err }

// ExchangeSideError - ошибка, сообщённая самой площадкой (неверный символ,
// rate limit, maintenance). Обновление для этой площадки пропускается и
// ошибка логируется, но populate других площадок не прерывается.
type ExchangeSideError struct {
	Exchange string
	Op       string
	Code     string
	Err      error
}

func (e *ExchangeSideError) Error() string {
	return fmt.Sprintf("%s: %s failed (%s): %v", e.Exchange, e.Op, e.Code, e.Err)
}

func (e *ExchangeSideError) Unwrap() error { return e.Err }
