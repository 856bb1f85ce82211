package server

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/google/uuid"

	"news_surge/internal/logger"
	"news_surge/internal/metrics"
	"news_surge/internal/models"
	"news_surge/internal/poller"
)

const writeTimeout = 10 * time.Second

// Окна рассылки регулярных обновлений по предпочтению frequency.
var frequencyWindows = map[string]time.Duration{
	"realtime": 0,
	"standard": 5 * time.Minute,
	"digest":   time.Hour,
}

// ClientPrefs — предпочтения подписчика, переданные query-параметрами
// при подключении к /news-updates.
type ClientPrefs struct {
	Categories []string
	Breaking   bool
	MinScore   float64
	Frequency  string
}

// ParseClientPrefs читает categories, breaking, minScore и frequency из
// запроса; отсутствующие параметры получают значения по умолчанию.
func ParseClientPrefs(r *http.Request) ClientPrefs {
	q := r.URL.Query()

	p := ClientPrefs{
		Categories: []string{"all"},
		Breaking:   true,
		Frequency:  "standard",
	}
	if raw := q.Get("categories"); raw != "" {
		p.Categories = strings.Split(strings.ToLower(raw), ",")
	}
	if raw := q.Get("breaking"); raw != "" {
		p.Breaking = strings.EqualFold(raw, "true")
	}
	if raw := q.Get("minScore"); raw != "" {
		if v, err := strconv.ParseFloat(raw, 64); err == nil {
			p.MinScore = v
		}
	}
	if raw := q.Get("frequency"); raw != "" {
		p.Frequency = raw
	}
	return p
}

// wantsCategory: "all" в списке снимает фильтр.
func (p ClientPrefs) wantsCategory(category string) bool {
	for _, c := range p.Categories {
		if c == "all" || strings.EqualFold(c, category) {
			return true
		}
	}
	return false
}

type wsClient struct {
	id    string
	conn  *websocket.Conn
	ctx   context.Context
	prefs ClientPrefs

	// lastUpdate защищён мьютексом hub-а: Broadcast может выполняться
	// конкурентно.
	lastUpdate time.Time
}

// Hub держит подключённых WebSocket-подписчиков и рассылает им новые статьи
// согласно их предпочтениям: breaking — сразу, регулярные обновления — не
// чаще выбранной частоты.
type Hub struct {
	store snapshotStore
	log   *logger.Entry

	mu      sync.Mutex
	clients map[string]*wsClient
}

// snapshotStore сужает зависимость hub-а до снапшота для initial-кадра.
type snapshotStore interface {
	All() []models.Article
}

func NewHub(st snapshotStore) *Hub {
	return &Hub{
		store:   st,
		log:     logger.WithComponent("hub"),
		clients: make(map[string]*wsClient),
	}
}

// HandleWS принимает подключение, отправляет initial-кадр с текущим
// снапшотом и держит соединение до разрыва.
func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		h.log.Warnf("Accept failed: %v", err)
		return
	}

	client := &wsClient{
		id:         uuid.NewString(),
		conn:       conn,
		ctx:        r.Context(),
		prefs:      ParseClientPrefs(r),
		lastUpdate: time.Now(),
	}

	h.mu.Lock()
	h.clients[client.id] = client
	total := len(h.clients)
	h.mu.Unlock()
	metrics.WSClients.Set(float64(total))
	h.log.WithFields(logger.Fields{
		"client":     client.id,
		"categories": client.prefs.Categories,
		"frequency":  client.prefs.Frequency,
	}).Info("Client connected")

	defer func() {
		h.mu.Lock()
		delete(h.clients, client.id)
		remaining := len(h.clients)
		h.mu.Unlock()
		metrics.WSClients.Set(float64(remaining))
		conn.CloseNow()
		h.log.WithField("remaining", remaining).Info("Client disconnected")
	}()

	if err := h.send(client, poller.MessageInitial, h.store.All()); err != nil {
		return
	}

	// Входящие кадры не несут смысла — читаем до разрыва, чтобы вовремя
	// заметить закрытие соединения.
	for {
		if _, _, err := conn.Read(client.ctx); err != nil {
			return
		}
	}
}

// Broadcast рассылает новые статьи всем подписчикам с учётом их
// предпочтений. Мёртвые соединения удаляются.
func (h *Hub) Broadcast(articles []models.Article) {
	if len(articles) == 0 {
		return
	}

	h.mu.Lock()
	clients := make([]*wsClient, 0, len(h.clients))
	for _, c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.Unlock()

	now := time.Now()
	for _, client := range clients {
		matched := filterForClient(articles, client.prefs)
		if len(matched) == 0 {
			continue
		}

		var breaking, regular []models.Article
		for _, a := range matched {
			if a.IsBreaking {
				breaking = append(breaking, a)
			} else {
				regular = append(regular, a)
			}
		}

		if len(breaking) > 0 && client.prefs.Breaking {
			if err := h.send(client, poller.MessageBreaking, breaking); err != nil {
				continue
			}
		}
		if len(regular) > 0 && h.claimUpdate(client, now) {
			if err := h.send(client, poller.MessageUpdate, regular); err != nil {
				continue
			}
		}
	}
}

// claimUpdate атомарно проверяет окно частоты и занимает его. Два
// конкурентных Broadcast не отправят клиенту дублирующие регулярные кадры.
func (h *Hub) claimUpdate(client *wsClient, now time.Time) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !updateDue(client.lastUpdate, client.prefs.Frequency, now) {
		return false
	}
	client.lastUpdate = now
	return true
}

func (h *Hub) send(client *wsClient, msgType string, articles []models.Article) error {
	ctx, cancel := context.WithTimeout(client.ctx, writeTimeout)
	defer cancel()

	err := wsjson.Write(ctx, client.conn, poller.Message{Type: msgType, Articles: articles})
	if err != nil {
		h.log.WithField("client", client.id).Warnf("Send failed: %v", err)
		client.conn.CloseNow()
		return err
	}
	metrics.WSMessages.WithLabelValues(msgType).Inc()
	return nil
}

// filterForClient оставляет статьи, подходящие под категории и минимальную
// оценку важности подписчика.
func filterForClient(articles []models.Article, prefs ClientPrefs) []models.Article {
	var out []models.Article
	for _, a := range articles {
		if !prefs.wantsCategory(a.Category) {
			continue
		}
		if a.RelevanceScore < prefs.MinScore {
			continue
		}
		out = append(out, a)
	}
	return out
}

// updateDue: окно частоты истекло, пора отправлять регулярное обновление.
func updateDue(lastUpdate time.Time, frequency string, now time.Time) bool {
	window, ok := frequencyWindows[frequency]
	if !ok || window == 0 {
		return true
	}
	return now.Sub(lastUpdate) >= window
}
