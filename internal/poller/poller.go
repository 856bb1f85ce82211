package poller

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"news_surge/internal/logger"
	"news_surge/internal/models"
)

// State — состояние подключения апдейтера.
type State string

const (
	StateDisconnected State = "disconnected"
	StateConnecting   State = "connecting"
	StateConnected    State = "connected"
	StateError        State = "error"
)

// ErrorKind различает терминальный отказ подключения и временную ошибку
// получения данных.
type ErrorKind string

const (
	ErrConnection ErrorKind = "connection"
	ErrFetch      ErrorKind = "fetch"
)

// ConnectionError — исчерпаны попытки первоначального подключения.
type ConnectionError struct {
	Attempts int
	Err      error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("connection failed after %d attempts: %v", e.Attempts, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// Callbacks — поверхность событий апдейтера. Незаполненные поля игнорируются.
type Callbacks struct {
	OnInitial          func(articles []models.Article)
	OnUpdate           func(articles []models.Article)
	OnBreaking         func(articles []models.Article)
	OnError            func(kind ErrorKind, err error)
	OnConnectionChange func(state State)
}

// TransportHandler принимает события транспорта. Реализуется Updater-ом.
type TransportHandler interface {
	// HandleBatch получает пачку статей. snapshot=true означает полный
	// снапшот ленты (заменяет известное множество), false — инкремент
	// (дополняет его).
	HandleBatch(articles []models.Article, snapshot bool)
	// HandleState сообщает смену состояния; err заполняется для StateError.
	HandleState(state State, err error)
}

// Transport — стратегия доставки снапшотов: периодический опрос ленты или
// WebSocket-подписка. Run блокируется до отмены контекста либо терминальной
// ошибки подключения.
type Transport interface {
	Run(ctx context.Context, h TransportHandler)
}

// Updater объединяет транспорт, diff по URL и поверхность событий.
// Два транспорта взаимозаменяемы: логика diff и событий общая.
type Updater struct {
	transport Transport
	log       *logger.Entry

	mu          sync.Mutex
	cb          Callbacks
	state       State
	known       map[string]struct{}
	initialized bool
	closed      bool

	cancel context.CancelFunc
	done   chan struct{}
}

// New создаёт апдейтер в состоянии disconnected. События начинают приходить
// после Start.
func New(t Transport, cb Callbacks) *Updater {
	return &Updater{
		transport: t,
		log:       logger.WithComponent("poller"),
		cb:        cb,
		state:     StateDisconnected,
		known:     make(map[string]struct{}),
		done:      make(chan struct{}),
	}
}

// Start запускает транспорт в фоне.
func (u *Updater) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	u.mu.Lock()
	u.cancel = cancel
	u.mu.Unlock()

	go func() {
		defer close(u.done)
		u.transport.Run(ctx, u)
	}()
}

// State возвращает текущее состояние подключения.
func (u *Updater) State() State {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.state
}

// Close останавливает транспорт и снимает все обработчики. После возврата
// события больше не доставляются.
func (u *Updater) Close() {
	u.mu.Lock()
	if u.closed {
		u.mu.Unlock()
		return
	}
	u.closed = true
	u.cb = Callbacks{}
	cancel := u.cancel
	u.mu.Unlock()

	if cancel != nil {
		cancel()
		<-u.done
	}

	u.mu.Lock()
	u.state = StateDisconnected
	u.mu.Unlock()
}

// HandleBatch реализует TransportHandler: первый батч становится событием
// initial, дальнейшие проходят diff по URL. Две статьи с одинаковым URL
// считаются одной независимо от остальных полей.
func (u *Updater) HandleBatch(articles []models.Article, snapshot bool) {
	u.mu.Lock()
	if u.closed {
		u.mu.Unlock()
		return
	}

	if !u.initialized {
		u.initialized = true
		u.known = urlSet(articles)
		fn := u.cb.OnInitial
		u.mu.Unlock()
		u.log.WithField("articles", len(articles)).Info("Initial feed snapshot")
		if fn != nil {
			fn(articles)
		}
		return
	}

	var fresh []models.Article
	seen := make(map[string]struct{})
	for _, a := range articles {
		if _, ok := u.known[a.URL]; ok {
			continue
		}
		if _, ok := seen[a.URL]; ok {
			continue
		}
		seen[a.URL] = struct{}{}
		fresh = append(fresh, a)
	}

	if snapshot {
		u.known = urlSet(articles)
	} else {
		for _, a := range articles {
			u.known[a.URL] = struct{}{}
		}
	}

	if len(fresh) == 0 {
		u.mu.Unlock()
		return
	}

	var breaking []models.Article
	for _, a := range fresh {
		if isBreaking(&a) {
			breaking = append(breaking, a)
		}
	}

	onUpdate, onBreaking := u.cb.OnUpdate, u.cb.OnBreaking
	u.mu.Unlock()

	if len(breaking) > 0 {
		u.log.WithField("articles", len(breaking)).Info("Breaking news detected")
		if onBreaking != nil {
			onBreaking(breaking)
		}
		return
	}
	u.log.WithField("articles", len(fresh)).Info("New articles")
	if onUpdate != nil {
		onUpdate(fresh)
	}
}

// HandleState реализует TransportHandler.
func (u *Updater) HandleState(state State, err error) {
	u.mu.Lock()
	if u.closed {
		u.mu.Unlock()
		return
	}
	changed := u.state != state
	u.state = state
	onChange, onError := u.cb.OnConnectionChange, u.cb.OnError
	u.mu.Unlock()

	if changed && onChange != nil {
		onChange(state)
	}

	if err == nil {
		return
	}
	kind := ErrFetch
	var connErr *ConnectionError
	if errors.As(err, &connErr) {
		kind = ErrConnection
	}
	u.log.WithField("kind", string(kind)).Errorf("Updater error: %v", err)
	if onError != nil {
		onError(kind, err)
	}
}

func urlSet(articles []models.Article) map[string]struct{} {
	set := make(map[string]struct{}, len(articles))
	for _, a := range articles {
		set[a.URL] = struct{}{}
	}
	return set
}

// isBreaking: явный флаг либо маркер срочности в заголовке.
func isBreaking(a *models.Article) bool {
	if a.IsBreaking {
		return true
	}
	title := strings.ToLower(a.Title)
	return strings.Contains(title, "breaking") || strings.Contains(title, "urgent")
}
