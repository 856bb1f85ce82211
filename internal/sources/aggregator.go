package sources

import (
	"context"
	"sync"
	"time"

	"news_surge/internal/classify"
	"news_surge/internal/logger"
	"news_surge/internal/metrics"
	"news_surge/internal/models"
)

// Aggregator опрашивает все источники параллельно и сводит результат в один
// список: дубликаты по URL отбрасываются, статьи обогащаются категорией и
// оценкой важности, итог сортируется по дате.
type Aggregator struct {
	sources []Source
	log     *logger.Entry
	now     func() time.Time
}

func NewAggregator(srcs []Source) *Aggregator {
	return &Aggregator{
		sources: srcs,
		log:     logger.WithComponent("aggregator"),
		now:     time.Now,
	}
}

// Collect выполняет один цикл сбора. Отказ отдельного источника логируется и
// не прерывает цикл: возвращается всё, что удалось получить.
func (g *Aggregator) Collect(ctx context.Context) []models.Article {
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		merged  []models.Article
		started = g.now()
	)

	for _, src := range g.sources {
		src := src
		wg.Add(1)
		go func() {
			defer wg.Done()
			articles, err := src.Fetch(ctx)
			if err != nil {
				metrics.FetchErrors.WithLabelValues(src.Name()).Inc()
				g.log.WithField("source", src.Name()).Errorf("Fetch failed: %v", err)
				return
			}
			g.log.WithField("source", src.Name()).Debugf("Fetched %d articles", len(articles))
			mu.Lock()
			merged = append(merged, articles...)
			mu.Unlock()
		}()
	}
	wg.Wait()

	out := g.merge(merged)
	g.log.WithFields(logger.Fields{
		"sources":  len(g.sources),
		"articles": len(out),
		"elapsed":  g.now().Sub(started).String(),
	}).Info("Collect cycle done")
	return out
}

func (g *Aggregator) merge(articles []models.Article) []models.Article {
	now := g.now()
	seen := make(map[string]struct{}, len(articles))
	out := make([]models.Article, 0, len(articles))
	for i := range articles {
		a := articles[i]
		if a.URL == "" {
			continue
		}
		if _, ok := seen[a.URL]; ok {
			continue
		}
		seen[a.URL] = struct{}{}
		a.Normalize()
		classify.Enrich(&a, now)
		out = append(out, a)
	}
	models.SortByDate(out)
	return out
}
