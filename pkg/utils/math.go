package utils

// math.go - математические утилиты
//
// Назначение:
// Вспомогательные математические функции для обхода стакана ордеров.
//
// Функции:
// - CalculateWeightedAverage: средневзвешенная цена
//   * Используется rate.Fill для расчета цены исполнения по стакану

// CalculateWeightedAverage считает средневзвешенное значений `values` с
// весами `weights`. Отрицательные веса игнорируются. Возвращает 0, если
// длины не совпадают, один из срезов пуст, либо сумма учтённых весов равна
// нулю.
func CalculateWeightedAverage(values, weights []float64) float64 {
	if len(values) == 0 || len(weights) == 0 || len(values) != len(weights) {
		return 0
	}

	var weightedSum, totalWeight float64
	for i, v := range values {
		w := weights[i]
		if w < 0 {
			continue
		}
		weightedSum += v * w
		totalWeight += w
	}

	if totalWeight == 0 {
		return 0
	}
	return weightedSum / totalWeight
}
