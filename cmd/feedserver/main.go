package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"

	"news_surge/internal/archive"
	"news_surge/internal/config"
	"news_surge/internal/logger"
	"news_surge/internal/metrics"
	"news_surge/internal/middleware"
	"news_surge/internal/models"
	"news_surge/internal/publisher"
	"news_surge/internal/render"
	"news_surge/internal/server"
	"news_surge/internal/sources"
	"news_surge/internal/store"
)

func main() {
	godotenv.Load()
	logger.Init()
	defer logger.Log.Info("Feed server stopped")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Загрузка конфигурации
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

	st := store.New()
	renderer := render.New()
	srv := server.NewServer(st, renderer, nil)

	// Опциональный архив в PostgreSQL
	var arch *archive.Archive
	if cfg.ArchiveDSN != "" {
		arch, err = archive.New(ctx, cfg.ArchiveDSN)
		if err != nil {
			logger.Log.Fatalf("Archive connection error: %v", err)
		}
		defer arch.Close()
	}

	// Опциональная публикация снапшота на диск
	var pub *publisher.Publisher
	if cfg.SnapshotPath != "" {
		pub = publisher.New(cfg.SnapshotPath)
		// Тёплый старт с последнего опубликованного снапшота
		if articles, err := pub.Load(); err != nil {
			logger.Log.Warnf("Snapshot load error: %v", err)
		} else if len(articles) > 0 {
			models.SortByDate(articles)
			st.Replace(articles)
			metrics.SnapshotArticles.Set(float64(len(articles)))
		}
	}

	aggregator := sources.NewAggregator(buildSources(cfg))

	// Циклы сбора не перекрываются: затянувшийся цикл пропускает следующий
	// тик, а не запускается параллельно с ним.
	var collectMu sync.Mutex
	collect := func() {
		if !collectMu.TryLock() {
			logger.Log.Warn("Collect cycle still running, skipping")
			return
		}
		defer collectMu.Unlock()
		collectOnce(ctx, aggregator, st, pub, arch, srv.Hub())
	}

	// Первый цикл сразу, дальше по расписанию
	go collect()
	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	if _, err := c.AddFunc(cfg.PublishSpec, collect); err != nil {
		logger.Log.Fatalf("Cron spec error: %v", err)
	}
	c.Start()
	defer c.Stop()

	// HTTP сервер
	mux := http.NewServeMux()
	srv.RegisterRoutes(mux)

	handler := middleware.RequestIDMiddleware(mux)
	handler = middleware.LoggingMiddleware(handler)

	httpServer := &http.Server{Addr: cfg.Addr, Handler: handler}
	go func() {
		logger.Log.Infof("Starting HTTP server on %s", cfg.Addr)
		if err := httpServer.ListenAndServe(); err != http.ErrServerClosed {
			logger.Log.Fatalf("Server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Log.Info("Shutting down...")
	ctxShutdown, cancelShutdown := context.WithTimeout(ctx, 5*time.Second)
	defer cancelShutdown()

	if err := httpServer.Shutdown(ctxShutdown); err != nil {
		logger.Log.Fatalf("Forced shutdown: %v", err)
	}
}

// buildSources собирает источники из конфигурации; без явного списка
// используется единственная JSON-лента feed_url.
func buildSources(cfg *config.Config) []sources.Source {
	var srcs []sources.Source
	for _, sc := range cfg.Sources {
		switch sc.Type {
		case "rss":
			srcs = append(srcs, sources.NewRSSSource(sc.Name, sc.URL))
		case "json":
			srcs = append(srcs, sources.NewJSONSource(sc.Name, sc.URL))
		}
	}
	if len(srcs) == 0 && cfg.FeedURL != "" {
		srcs = append(srcs, sources.NewJSONSource("upstream", cfg.FeedURL))
	}
	if len(srcs) == 0 {
		logger.Log.Fatal("No sources configured")
	}
	return srcs
}

// collectOnce выполняет один цикл сбора и раздаёт результат всем
// потребителям: снапшот в память и на диск, архив, рассылка подписчикам.
func collectOnce(ctx context.Context, agg *sources.Aggregator, st *store.Store,
	pub *publisher.Publisher, arch *archive.Archive, hub *server.Hub) {

	collected := agg.Collect(ctx)
	metrics.CollectCycles.Inc()
	if len(collected) == 0 {
		return
	}

	// Новые статьи относительно текущего снапшота — для рассылки
	var fresh []models.Article
	for _, a := range collected {
		if _, ok := st.ByURL(a.URL); !ok {
			fresh = append(fresh, a)
		}
	}
	for _, a := range fresh {
		if a.IsBreaking {
			metrics.BreakingDetected.Inc()
		}
	}

	st.Replace(collected)
	metrics.SnapshotArticles.Set(float64(len(collected)))

	if pub != nil {
		if err := pub.Publish(collected); err != nil {
			logger.Log.Errorf("Snapshot publish error: %v", err)
		}
	}
	if arch != nil {
		if err := arch.SaveArticles(ctx, collected); err != nil {
			logger.Log.Errorf("Archive save error: %v", err)
		}
	}

	hub.Broadcast(fresh)
}
