package ratelimit

import (
	"context"
	"sync"
	"time"
)

// RateLimiter - Token Bucket limiter used to bound how many REST calls per
// second one venue's RESTClient issues.
//
// Алгоритм Token Bucket:
// - Ведро наполняется токенами с постоянной скоростью (rate токенов/сек)
// - Максимальная ёмкость ведра = burst (позволяет короткие всплески)
// - Каждый запрос потребляет 1 токен
// - Если токенов нет, запрос ждёт
//
// Populate's fetchBooks fans out one FetchL2OrderBook call per symbol
// concurrently (internal/rate/populate.go); without a per-venue limiter that
// fan-out could burst well past what a single venue's own API allows.
//
// Использование:
//
//	limiter := NewRateLimiter(10, 20) // 10 req/sec, burst 20
//	err := limiter.Wait(ctx)          // блокирующее ожидание свободного токена
type RateLimiter struct {
	rate       float64 // токенов в секунду
	burst      float64 // максимальная ёмкость (burst capacity)
	tokens     float64 // текущее количество токенов
	lastRefill time.Time
	mu         sync.Mutex
}

// NewRateLimiter создаёт новый rate limiter для одной площадки.
//
// Параметры:
//   - rate: запросов в секунду
//   - burst: максимальный всплеск (обычно 1.5-2x от rate)
func NewRateLimiter(rate, burst float64) *RateLimiter {
	if rate <= 0 {
		rate = 10
	}
	if burst <= 0 {
		burst = rate * 2
	}
	if burst < rate {
		burst = rate
	}

	return &RateLimiter{
		rate:       rate,
		burst:      burst,
		tokens:     burst, // начинаем с полным ведром
		lastRefill: time.Now(),
	}
}

// refill пополняет токены на основе прошедшего времени.
// ВАЖНО: вызывается под lock'ом.
func (rl *RateLimiter) refill() {
	now := time.Now()
	elapsed := now.Sub(rl.lastRefill).Seconds()

	rl.tokens += elapsed * rl.rate
	if rl.tokens > rl.burst {
		rl.tokens = rl.burst
	}
	rl.lastRefill = now
}

// Wait блокирует до получения токена или отмены контекста. getJSON
// (internal/exchange/restclient.go) вызывает его перед каждым GET-запросом
// к площадке.
func (rl *RateLimiter) Wait(ctx context.Context) error {
	for {
		rl.mu.Lock()
		rl.refill()

		if rl.tokens >= 1 {
			rl.tokens--
			rl.mu.Unlock()
			return nil
		}

		waitTime := time.Duration((1 - rl.tokens) / rl.rate * float64(time.Second))
		rl.mu.Unlock()

		select {
		case <-time.After(waitTime):
			continue
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Tokens возвращает текущее количество доступных токенов. Полезно для
// мониторинга и отладки.
func (rl *RateLimiter) Tokens() float64 {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	rl.refill()
	return rl.tokens
}
