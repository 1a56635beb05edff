package rate

import "strings"

// SynonymSet - отношение эквивалентности над кодами валют с каноническим
// представителем на класс. Конструируется из пар синонимов, переданных
// конфигурацией, а не зашитых в код - значение `Canonical` нормализует любой
// код класса к одному и тому же представителю до использования в качестве
// ключа карты.
type SynonymSet struct {
	canonical map[string]string
}

// DefaultSynonymPairs - пары синонимов, наблюдавшиеся в исходной реализации
// (XBT/BTC как два тикера одного актива на биржах, BCC/BCH как старое и
// новое обозначение Bitcoin Cash). Используется как отправная точка; вызывающий
// код волен передать собственный набор через NewSynonymSet.
var DefaultSynonymPairs = [][2]string{
	{"XBT", "BTC"},
	{"BCC", "BCH"},
}

// NewSynonymSet строит набор синонимов из пар (X, Y). Для каждой новой пары
// канонической формой становится меньший по алфавиту из двух кодов. Если код
// уже относится к классу, а новая пара связывает его с представителем
// другого класса, оба класса сливаются в один под меньшим по алфавиту
// представителем, чтобы результат не зависел от порядка передачи пар.
func NewSynonymSet(pairs ...[2]string) *SynonymSet {
	s := &SynonymSet{canonical: make(map[string]string)}
	for _, p := range pairs {
		s.union(strings.ToUpper(p[0]), strings.ToUpper(p[1]))
	}
	return s
}

func (s *SynonymSet) union(a, b string) {
	ra, oka := s.canonical[a]
	rb, okb := s.canonical[b]
	switch {
	case !oka && !okb:
		rep := a
		if b < rep {
			rep = b
		}
		s.canonical[a] = rep
		s.canonical[b] = rep
	case oka && !okb:
		s.canonical[b] = ra
	case !oka && okb:
		s.canonical[a] = rb
	default:
		if ra == rb {
			return
		}
		// Сливаем два существующих класса под меньшим представителем.
		keep, drop := ra, rb
		if drop < keep {
			keep, drop = drop, keep
		}
		for k, v := range s.canonical {
			if v == drop {
				s.canonical[k] = keep
			}
		}
	}
}

// Canonical возвращает каноническую форму кода валюты: сам код, если он не
// состоит ни в одном классе синонимов, иначе - представителя его класса.
func (s *SynonymSet) Canonical(code string) string {
	code = strings.ToUpper(code)
	if s == nil {
		return code
	}
	if rep, ok := s.canonical[code]; ok {
		return rep
	}
	return code
}

// AreSynonyms сообщает, обозначают ли два кода один и тот же актив (включая
// тривиальный случай равных кодов).
func (s *SynonymSet) AreSynonyms(a, b string) bool {
	return s.Canonical(a) == s.Canonical(b)
}
