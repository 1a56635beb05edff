// Package trade содержит неизменяемую запись одного шага конвертации валюты
// на одной площадке и операции над цепочками таких шагов.
package trade

import "fmt"

// Trade - один шаг конвертации: столько-то `FromCur` превращено в `Amount`
// единиц `NextCur` на бирже `Exchange`, с ценой `Limit` (худшая цена, которой
// коснулось исполнение) и эффективным курсом `Value` (output/input).
//
// Значение неизменяемо после конструирования - все поля читаются напрямую.
type Trade struct {
	Exchange string
	FromCur  string
	NextCur  string
	Amount   float64
	Limit    float64
	Value    float64
}

// New строит Trade, заполняя все шесть полей.
func New(exchange, fromCur, nextCur string, amount, limit, value float64) Trade {
	return Trade{
		Exchange: exchange,
		FromCur:  fromCur,
		NextCur:  nextCur,
		Amount:   amount,
		Limit:    limit,
		Value:    value,
	}
}

// Key - тройка (exchange, from, to), используемая для обнаружения повторного
// прохождения одного и того же направленного ребра в цепочке.
type Key struct {
	Exchange string
	From     string
	To       string
}

// UniqueKey возвращает (exchange, from_cur, next_cur).
func (t Trade) UniqueKey() Key {
	return Key{Exchange: t.Exchange, From: t.FromCur, To: t.NextCur}
}

// UniqueKeyInv возвращает (exchange, next_cur, from_cur) - ключ обратного
// ребра. Две сделки с равными UniqueKey и UniqueKeyInv описывают один и тот
// же неориентированный переход между валютами на одной бирже.
func (t Trade) UniqueKeyInv() Key {
	return Key{Exchange: t.Exchange, From: t.NextCur, To: t.FromCur}
}

// String форматирует сделку с плавающими полями в 8 знаков после запятой,
// как того требует текстовое представление цепочки.
func (t Trade) String() string {
	return fmt.Sprintf(
		"{exchange: %s, from_cur: %s, next_cur: %s, amount: %.8f, limit: %.8f, value: %.8f}",
		t.Exchange, t.FromCur, t.NextCur, t.Amount, t.Limit, t.Value,
	)
}

// Chain - упорядоченная последовательность сделок.
type Chain []Trade

// String конкатенирует строковые представления сделок в порядке цепочки.
func (c Chain) String() string {
	out := ""
	for _, t := range c {
		out += t.String()
	}
	return out
}

// Profitability - произведение Value по цепочке минус единица. Пустая
// цепочка даёт 0.
func Profitability(chain Chain) float64 {
	if len(chain) == 0 {
		return 0
	}
	product := 1.0
	for _, t := range chain {
		product *= t.Value
	}
	return product - 1
}

// NumExchanges - число различных значений Exchange в цепочке.
func NumExchanges(chain Chain) int {
	seen := make(map[string]struct{}, len(chain))
	for _, t := range chain {
		seen[t.Exchange] = struct{}{}
	}
	return len(seen)
}

// ContainsKey сообщает, содержит ли цепочка сделку, чей UniqueKey или
// UniqueKeyInv совпадает с UniqueKey переданной сделки - то есть то же самое
// направленное или развёрнутое ребро на той же бирже.
func (c Chain) ContainsKey(next Trade) bool {
	nk := next.UniqueKey()
	for _, t := range c {
		if t.UniqueKey() == nk || t.UniqueKeyInv() == nk {
			return true
		}
	}
	return false
}

// Append возвращает новую цепочку с добавленной сделкой, не изменяя
// исходный срез (нужно для параллельного исследования веток поиска).
func (c Chain) Append(t Trade) Chain {
	next := make(Chain, len(c), len(c)+1)
	copy(next, c)
	return append(next, t)
}
