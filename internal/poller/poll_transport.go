package poller

import (
	"context"
	"time"

	"news_surge/internal/logger"
	"news_surge/internal/models"
)

// Fetcher загружает полный снапшот ленты. Реализуется feed.Client.
type Fetcher interface {
	Load(ctx context.Context) ([]models.Article, error)
}

// PollTransport периодически перечитывает ленту. Первоначальное подключение
// повторяется с экспоненциальной задержкой ограниченное число раз; в
// устоявшемся режиме интервал опроса удваивается после каждой неудачи до
// потолка и сбрасывается к базовому после успеха.
type PollTransport struct {
	// Client обязателен.
	Client Fetcher
	// Interval — базовый интервал опроса (по умолчанию 5 минут).
	Interval time.Duration
	// IntervalCap — потолок интервала (по умолчанию 30 минут).
	IntervalCap time.Duration
	// RetryDelay — базовая задержка повторов подключения (по умолчанию 2 с).
	RetryDelay time.Duration
	// MaxRetries — число попыток подключения (по умолчанию 5).
	MaxRetries int

	log *logger.Entry
}

func (t *PollTransport) defaults() {
	if t.Interval <= 0 {
		t.Interval = 5 * time.Minute
	}
	if t.IntervalCap <= 0 {
		t.IntervalCap = 30 * time.Minute
	}
	if t.RetryDelay <= 0 {
		t.RetryDelay = 2 * time.Second
	}
	if t.MaxRetries <= 0 {
		t.MaxRetries = 5
	}
	t.log = logger.WithComponent("poll_transport")
}

// Run реализует Transport.
func (t *PollTransport) Run(ctx context.Context, h TransportHandler) {
	t.defaults()

	articles, ok := t.connect(ctx, h)
	if !ok {
		return
	}
	h.HandleState(StateConnected, nil)
	h.HandleBatch(articles, true)

	t.poll(ctx, h)
}

// connect выполняет первоначальную загрузку с ограниченными повторами.
// false означает терминальный отказ либо отмену контекста.
func (t *PollTransport) connect(ctx context.Context, h TransportHandler) ([]models.Article, bool) {
	h.HandleState(StateConnecting, nil)

	backoff := Backoff{Base: t.RetryDelay, Cap: t.IntervalCap}
	var lastErr error
	for attempt := 0; attempt < t.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, false
			case <-time.After(backoff.Next()):
			}
		}

		articles, err := t.Client.Load(ctx)
		if err == nil {
			return articles, true
		}
		lastErr = err
		t.log.WithField("attempt", attempt+1).Warnf("Initial fetch failed: %v", err)
	}

	h.HandleState(StateError, &ConnectionError{Attempts: t.MaxRetries, Err: lastErr})
	return nil, false
}

// poll — устоявшийся цикл: один запрос в тике, перекрывающихся запросов нет.
func (t *PollTransport) poll(ctx context.Context, h TransportHandler) {
	interval := t.Interval
	timer := time.NewTimer(interval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}

		articles, err := t.Client.Load(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			interval = t.NextInterval(interval)
			h.HandleState(StateError, err)
			t.log.WithField("next_interval", interval.String()).Warnf("Poll failed: %v", err)
		} else {
			interval = t.Interval
			h.HandleState(StateConnected, nil)
			h.HandleBatch(articles, true)
		}
		timer.Reset(interval)
	}
}

// NextInterval возвращает интервал после неудачного опроса: удвоение до
// потолка.
func (t *PollTransport) NextInterval(current time.Duration) time.Duration {
	next := current * 2
	if t.IntervalCap > 0 && next > t.IntervalCap {
		next = t.IntervalCap
	}
	return next
}
