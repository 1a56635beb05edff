package rate

import (
	"math"
	"sort"
	"sync"
	"time"
)

// innerMap - from_cur -> to_cur -> Book для одной площадки.
type innerMap map[string]map[string]Book

// Snap - неглубокий снимок venue -> innerMap, возвращаемый Table.Snapshot.
// Именованный экспортируемый тип нужен, чтобы пакеты вроде roundtrip могли
// держать снимок в своих структурах, не копируя внутренние карты площадок.
type Snap map[string]innerMap

// defaultRetryMaxAttempts/defaultRetryInitialDelay - retry-политика
// Populate, пока вызывающий код не задаст свою через SetRetryPolicy
// (spec.md §4.3).
const (
	defaultRetryMaxAttempts  = 5
	defaultRetryInitialDelay = 100 * time.Millisecond
)

// Table - venue -> from_cur -> to_cur -> Book. Создаётся пустой; внутренняя
// карта каждой площадки создаётся при первой успешной загрузке и заменяется
// целиком (не модифицируется на месте) при каждом обновлении, так что
// читатели видят либо старую, либо новую карту, но никогда частично
// перестроенную.
type Table struct {
	mu     sync.RWMutex
	venues map[string]innerMap
	syn    *SynonymSet

	retryMaxAttempts  int
	retryInitialDelay time.Duration
}

// NewTable создаёт пустую таблицу курсов с заданным набором синонимов.
// nil syn означает "без синонимов" - Canonical(x) == x для любого x.
// Retry-политика Populate начинается со значений по умолчанию; вызывающий
// код волен переопределить её через SetRetryPolicy.
func NewTable(syn *SynonymSet) *Table {
	return &Table{
		venues:            make(map[string]innerMap),
		syn:               syn,
		retryMaxAttempts:  defaultRetryMaxAttempts,
		retryInitialDelay: defaultRetryInitialDelay,
	}
}

// SetRetryPolicy переопределяет число попыток и начальную задержку,
// которые Populate использует при таймауте площадки (spec.md §4.3). Нулевое
// или отрицательное значение аргумента оставляет соответствующее поле
// нетронутым, так что вызывающий может задать только одно из двух.
func (t *Table) SetRetryPolicy(maxAttempts int, initialDelay time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if maxAttempts > 0 {
		t.retryMaxAttempts = maxAttempts
	}
	if initialDelay > 0 {
		t.retryInitialDelay = initialDelay
	}
}

func (t *Table) retryPolicy() (int, time.Duration) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.retryMaxAttempts, t.retryInitialDelay
}

// ReplaceVenue атомарно с точки зрения читателей подменяет внутреннюю карту
// площадки. Используется в конце populate: новая карта строится в локальной
// переменной и публикуется одной записью под блокировкой.
func (t *Table) ReplaceVenue(venue string, inner innerMap) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.venues[venue] = inner
}

// Snapshot возвращает неглубокую копию отображения venue -> innerMap:
// сами innerMap не копируются (они неизменяемы после публикации), копируется
// только внешний слой, так что конкурентное populate не меняет состав
// площадок, видимый читателю.
func (t *Table) Snapshot() Snap {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make(Snap, len(t.venues))
	for venue, inner := range t.venues {
		out[venue] = inner
	}
	return out
}

// Get возвращает книгу по прямому коду валюты без учёта синонимов.
func Get(snapshot Snap, venue, from, to string) (Book, bool) {
	inner, ok := snapshot[venue]
	if !ok {
		return nil, false
	}
	tos, ok := inner[from]
	if !ok {
		return nil, false
	}
	book, ok := tos[to]
	return book, ok
}

// SynGet - синонимо-осведомлённый поиск книги: from и to сначала
// нормализуются к каноническому представителю класса синонимов, затем ищутся
// среди ключей внутренней карты площадки также через каноническую форму,
// так что "XBT/USD" находит ту же книгу, что и "BTC/USD".
func (t *Table) SynGet(snapshot Snap, venue, from, to string) (Book, bool) {
	inner, ok := snapshot[venue]
	if !ok {
		return nil, false
	}
	canonFrom := t.canonical(from)
	canonTo := t.canonical(to)
	for fromKey, tos := range inner {
		if t.canonical(fromKey) != canonFrom {
			continue
		}
		for toKey, book := range tos {
			if t.canonical(toKey) == canonTo {
				return book, true
			}
		}
	}
	return nil, false
}

func (t *Table) canonical(code string) string {
	if t == nil || t.syn == nil {
		return code
	}
	return t.syn.Canonical(code)
}

// GetPairs возвращает, для каждой исходной валюты, множество валют,
// достижимых за один шаг на любой площадке.
func (t *Table) GetPairs() map[string][]string {
	snap := t.Snapshot()
	reach := make(map[string]map[string]struct{})
	for _, inner := range snap {
		for from, tos := range inner {
			set, ok := reach[from]
			if !ok {
				set = make(map[string]struct{})
				reach[from] = set
			}
			for to := range tos {
				set[to] = struct{}{}
			}
		}
	}
	out := make(map[string][]string, len(reach))
	for from, set := range reach {
		list := make([]string, 0, len(set))
		for to := range set {
			list = append(list, to)
		}
		sort.Strings(list)
		out[from] = list
	}
	return out
}

// DiffEntry - одна строка результата PairwiseDiffs: разница между venue2 и
// venue1 в абсолютном и процентном выражении.
type DiffEntry struct {
	Venue1, Venue2 string
	Absolute       float64
	Percentage     float64
}

// DiffRow - строка результата PairwiseDiffs: все сравнения venue1 против
// остальных площадок, отсортированные по убыванию процентного расхождения.
type DiffRow struct {
	Venue1  string
	Entries []DiffEntry
}

// PairwiseDiffs сравнивает лучшую цену пары (from, to) между всеми упоря-
// доченными парами площадок (включая самопары venue1 == venue2, дающие
// нулевую разницу). Процент считается от цены первой площадки в паре
// (venue1), а не от цены второй и не от объёма книги.
//
// Внутри строки записи сортируются по убыванию процента (площадки без
// котировки пары опускаются - "nulls last" реализуется их отсутствием).
// Сами строки затем сортируются по убыванию "второго значения" - процента
// второй по величине записи в строке, что выносит в начало площадки с
// наиболее расходящимся рынком, а не просто с одной крупной аномалией.
func (t *Table) PairwiseDiffs(from, to string) []DiffRow {
	snap := t.Snapshot()
	venues := make([]string, 0, len(snap))
	for v := range snap {
		venues = append(venues, v)
	}
	sort.Strings(venues)

	rows := make([]DiffRow, 0, len(venues))
	for _, v1 := range venues {
		book1, ok1 := t.SynGet(snap, v1, from, to)
		if !ok1 || len(book1) == 0 {
			continue
		}
		best1 := book1[0].Price
		if best1 == 0 {
			continue
		}

		row := DiffRow{Venue1: v1}
		for _, v2 := range venues {
			if v2 == v1 {
				row.Entries = append(row.Entries, DiffEntry{Venue1: v1, Venue2: v2, Absolute: 0, Percentage: 0})
				continue
			}
			book2, ok2 := t.SynGet(snap, v2, from, to)
			if !ok2 || len(book2) == 0 {
				continue
			}
			best2 := book2[0].Price
			abs := best2 - best1
			row.Entries = append(row.Entries, DiffEntry{
				Venue1:     v1,
				Venue2:     v2,
				Absolute:   abs,
				Percentage: abs / best1,
			})
		}
		if len(row.Entries) == 0 {
			continue
		}
		sort.SliceStable(row.Entries, func(i, j int) bool {
			return row.Entries[i].Percentage > row.Entries[j].Percentage
		})
		rows = append(rows, row)
	}

	sort.SliceStable(rows, func(i, j int) bool {
		return secondValue(rows[i]) > secondValue(rows[j])
	})
	return rows
}

// secondValue возвращает процент второй по величине записи в строке, или
// -Inf, если строка слишком коротка ("nulls last" при сортировке строк).
func secondValue(row DiffRow) float64 {
	if len(row.Entries) < 2 {
		return math.Inf(-1)
	}
	return row.Entries[1].Percentage
}
