package poller

import (
	"context"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"news_surge/internal/logger"
	"news_surge/internal/models"
)

// Message — кадр протокола /news-updates. Та же форма используется сервером
// при рассылке.
type Message struct {
	Type     string           `json:"type"`
	Articles []models.Article `json:"articles"`
}

// Типы кадров протокола.
const (
	MessageInitial  = "initial"
	MessageUpdate   = "update"
	MessageBreaking = "breaking"
)

// WSTransport подписывается на обновления по WebSocket. Поверхность событий
// та же, что у PollTransport; переподключение — с той же экспоненциальной
// политикой, но без ограничения числа попыток (ограничен только потолок
// задержки).
type WSTransport struct {
	// URL обязателен; предпочтения клиента передаются query-параметрами
	// (categories, breaking, minScore, frequency).
	URL string
	// RetryDelay — базовая задержка переподключения (по умолчанию 2 с).
	RetryDelay time.Duration
	// DelayCap — потолок задержки (по умолчанию 1 минута).
	DelayCap time.Duration

	log *logger.Entry
}

func (t *WSTransport) defaults() {
	if t.RetryDelay <= 0 {
		t.RetryDelay = 2 * time.Second
	}
	if t.DelayCap <= 0 {
		t.DelayCap = time.Minute
	}
	t.log = logger.WithComponent("ws_transport")
}

// Run реализует Transport.
func (t *WSTransport) Run(ctx context.Context, h TransportHandler) {
	t.defaults()

	backoff := Backoff{Base: t.RetryDelay, Cap: t.DelayCap}
	for {
		h.HandleState(StateConnecting, nil)

		conn, _, err := websocket.Dial(ctx, t.URL, nil)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			h.HandleState(StateError, err)
			t.log.Warnf("Dial failed: %v", err)
			if !sleep(ctx, backoff.Next()) {
				return
			}
			continue
		}

		backoff.Reset()
		h.HandleState(StateConnected, nil)
		t.readLoop(ctx, conn, h)
		if ctx.Err() != nil {
			return
		}
		if !sleep(ctx, backoff.Next()) {
			return
		}
	}
}

// readLoop читает кадры до ошибки сокета или отмены контекста.
func (t *WSTransport) readLoop(ctx context.Context, conn *websocket.Conn, h TransportHandler) {
	defer conn.CloseNow()

	for {
		var msg Message
		if err := wsjson.Read(ctx, conn, &msg); err != nil {
			if ctx.Err() == nil {
				h.HandleState(StateError, err)
				t.log.Warnf("Read failed: %v", err)
			}
			return
		}

		for i := range msg.Articles {
			msg.Articles[i].Normalize()
		}
		// Только initial несёт полный снапшот, остальные кадры дополняют
		// известное множество.
		h.HandleBatch(msg.Articles, msg.Type == MessageInitial)
	}
}

func sleep(ctx context.Context, d time.Duration) bool {
	select {
	case <-ctx.Done():
		return false
	case <-time.After(d):
		return true
	}
}
