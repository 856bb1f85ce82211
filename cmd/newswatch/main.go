package main

import (
	"net/url"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"news_surge/internal/config"
	"news_surge/internal/feed"
	"news_surge/internal/logger"
	"news_surge/internal/models"
	"news_surge/internal/pagination"
	"news_surge/internal/poller"
	"news_surge/internal/prefs"
	"news_surge/internal/render"
	"news_surge/internal/store"
)

const pageSize = 12

func main() {
	godotenv.Load()
	logger.Init()
	defer logger.Log.Info("News watch stopped")

	cfgPath := os.Getenv("CONFIG")
	if cfgPath == "" {
		cfgPath = "config.json"
	}
	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		logger.Log.Fatalf("Config load error: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		logger.Log.Fatalf("Config invalid: %v", err)
	}

	// Пользовательские настройки: тема и предпочтения уведомлений
	prefsPath := cfg.PrefsPath
	if prefsPath == "" {
		prefsPath = "prefs.json"
	}
	userPrefs, err := prefs.Open(prefsPath)
	if err != nil {
		logger.Log.Fatalf("Prefs load error: %v", err)
	}
	notifications := userPrefs.Notifications()

	outputDir := cfg.OutputDir
	if outputDir == "" {
		outputDir = "site"
	}

	w := &watcher{
		store:    store.New(),
		renderer: render.New(),
		theme:    userPrefs.Theme(),
		breaking: notifications.Breaking,
		output:   outputDir,
		log:      logger.WithComponent("newswatch"),
	}

	updater := poller.New(buildTransport(cfg, notifications), poller.Callbacks{
		OnInitial:          w.handleInitial,
		OnUpdate:           w.handleUpdate,
		OnBreaking:         w.handleBreaking,
		OnError:            w.handleError,
		OnConnectionChange: w.handleConnectionChange,
	})
	updater.Start()
	defer updater.Close()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
}

// buildTransport выбирает стратегию доставки: WebSocket при настроенном
// websocket_url, иначе периодический опрос ленты.
func buildTransport(cfg *config.Config, n prefs.Notifications) poller.Transport {
	if cfg.WebSocketURL != "" {
		return &poller.WSTransport{URL: subscribeURL(cfg.WebSocketURL, n)}
	}
	return &poller.PollTransport{
		Client:      feed.NewClient(cfg.FeedURL),
		Interval:    time.Duration(cfg.PollInterval) * time.Minute,
		IntervalCap: time.Duration(cfg.PollIntervalCap) * time.Minute,
		MaxRetries:  cfg.MaxRetries,
	}
}

// subscribeURL передаёт предпочтения подписчика query-параметрами.
func subscribeURL(base string, n prefs.Notifications) string {
	u, err := url.Parse(base)
	if err != nil {
		return base
	}
	q := u.Query()
	q.Set("categories", strings.Join(n.Categories, ","))
	q.Set("breaking", strconv.FormatBool(n.Breaking))
	q.Set("minScore", strconv.FormatFloat(n.MinScore, 'f', -1, 64))
	q.Set("frequency", n.Frequency)
	u.RawQuery = q.Encode()
	return u.String()
}

// watcher держит локальный снапшот и перерисовывает статику при каждом
// событии апдейтера.
type watcher struct {
	store    *store.Store
	renderer *render.Renderer
	theme    string
	breaking bool
	output   string
	log      *logger.Entry
}

func (w *watcher) handleInitial(articles []models.Article) {
	w.store.Replace(articles)
	w.renderSite()
}

func (w *watcher) handleUpdate(articles []models.Article) {
	w.log.WithField("articles", len(articles)).Info("Feed updated")
	w.mergeAndRender(articles)
}

func (w *watcher) handleBreaking(articles []models.Article) {
	if w.breaking {
		for _, a := range articles {
			w.log.WithField("url", a.URL).Warnf("BREAKING: %s", a.Title)
		}
	}
	w.mergeAndRender(articles)
}

func (w *watcher) handleError(kind poller.ErrorKind, err error) {
	if kind == poller.ErrConnection {
		w.log.Errorf("Feed unreachable, giving up: %v", err)
		return
	}
	w.log.Warnf("Feed fetch failed, will retry: %v", err)
}

func (w *watcher) handleConnectionChange(state poller.State) {
	w.log.WithField("state", string(state)).Info("Connection state changed")
}

func (w *watcher) mergeAndRender(fresh []models.Article) {
	merged := append(fresh, w.store.All()...)
	seen := make(map[string]struct{}, len(merged))
	deduped := merged[:0:0]
	for _, a := range merged {
		if _, ok := seen[a.URL]; ok {
			continue
		}
		seen[a.URL] = struct{}{}
		deduped = append(deduped, a)
	}
	models.SortByDate(deduped)
	w.store.Replace(deduped)
	w.renderSite()
}

// renderSite пишет index.html из текущего снапшота: hero + сетка первой
// страницы.
func (w *watcher) renderSite() {
	articles := w.store.All()
	if len(articles) == 0 {
		return
	}

	var sb strings.Builder
	hero, err := w.renderer.Hero(&articles[0])
	if err != nil {
		w.log.Errorf("Render error: %v", err)
		return
	}
	sb.WriteString(hero)

	grid, err := w.renderer.Grid(pagination.Page(articles[1:], 1, pageSize))
	if err != nil {
		w.log.Errorf("Render error: %v", err)
		return
	}
	sb.WriteString(grid)

	page, err := w.renderer.Page("News", w.theme, sb.String())
	if err != nil {
		w.log.Errorf("Render error: %v", err)
		return
	}

	if err := os.MkdirAll(w.output, 0o755); err != nil {
		w.log.Errorf("Output dir error: %v", err)
		return
	}
	path := filepath.Join(w.output, "index.html")
	if err := os.WriteFile(path, []byte(page), 0o644); err != nil {
		w.log.Errorf("Write error: %v", err)
		return
	}
	w.log.WithField("articles", len(articles)).Debug("Site rendered")
}
