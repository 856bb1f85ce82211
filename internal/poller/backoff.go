package poller

import "time"

// Backoff — экспоненциальная задержка base·2^attempt с потолком Cap.
// Общая для обоих транспортов: повторные подключения и рост интервала опроса
// подчиняются одной политике.
type Backoff struct {
	Base time.Duration
	Cap  time.Duration

	attempt int
}

// Next возвращает задержку текущей попытки и увеличивает счётчик.
func (b *Backoff) Next() time.Duration {
	d := b.Base << b.attempt
	if d > b.Cap || d <= 0 {
		d = b.Cap
	}
	b.attempt++
	return d
}

// Reset сбрасывает счётчик попыток после успеха.
func (b *Backoff) Reset() {
	b.attempt = 0
}

// Attempt возвращает номер следующей попытки (с нуля).
func (b *Backoff) Attempt() int {
	return b.attempt
}
