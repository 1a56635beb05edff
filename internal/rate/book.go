package rate

import (
	"math"

	"arbitrage/pkg/utils"
)

// Entry - одна запись стакана: цена и доступный на ней объём. Обе величины
// обязаны быть строго положительны (см. DeriveBooks).
type Entry struct {
	Price  float64
	Volume float64
}

// Book - упорядоченная последовательность записей стакана, представляющая
// доступную ликвидность в одном направлении на одной площадке для одной
// упорядоченной пары валют. Порядок задаётся поставщиком данных (bids -
// по убыванию цены, asks - по возрастанию) и не проверяется здесь - Fill
// идёт по книге в том порядке, в котором она передана.
type Book []Entry

// DeriveBooks строит из одного символа A/B (bids и asks) два направленных
// стакана: A->B (продажа A по цене bid) и B->A (покупка A за B по цене ask,
// инвертированная). Записи с неположительной ценой или объёмом отбрасываются.
func DeriveBooks(bids, asks []Entry) (aToB, bToA Book) {
	for _, e := range bids {
		if utils.ValidatePositive(e.Price) != nil || utils.ValidatePositive(e.Volume) != nil {
			continue
		}
		aToB = append(aToB, Entry{Price: e.Price, Volume: e.Volume})
	}
	for _, e := range asks {
		if utils.ValidatePositive(e.Price) != nil || utils.ValidatePositive(e.Volume) != nil {
			continue
		}
		bToA = append(bToA, Entry{Price: 1 / e.Price, Volume: e.Price * e.Volume})
	}
	return aToB, bToA
}

// Fill проходит по книге в заданном порядке, заполняя запрошенный объём
// volume и возвращая среднюю цену исполнения, худшую задетую цену (limit) и
// итоговую сумму на выходе. Если книги не хватает на весь объём, возвращает
// ok=false (недостаточная ликвидность) - вызывающий обязан пропустить такую
// сделку, а не обрезать её по частично заполненному объёму.
func Fill(book Book, volume float64) (avgPrice, limitPrice, outputAmount float64, ok bool) {
	if volume <= 0 || len(book) == 0 {
		return 0, 0, 0, false
	}

	remaining := volume
	var limit float64
	var prices, weights []float64

	for _, entry := range book {
		if remaining <= 0 {
			break
		}
		take := math.Min(remaining, entry.Volume)
		prices = append(prices, entry.Price)
		weights = append(weights, take)
		remaining -= take
		limit = entry.Price
	}

	if remaining > 0 {
		return 0, 0, 0, false
	}

	avgPrice = utils.CalculateWeightedAverage(prices, weights)
	outputAmount = volume * avgPrice
	return avgPrice, limit, outputAmount, true
}
