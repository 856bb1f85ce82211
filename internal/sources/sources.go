package sources

import (
	"context"
	"time"

	"github.com/mmcdole/gofeed"

	"news_surge/internal/feed"
	"news_surge/internal/models"
)

// Source — один источник статей для агрегатора.
type Source interface {
	Name() string
	Fetch(ctx context.Context) ([]models.Article, error)
}

// JSONSource читает готовый снапшот news.json стороннего сервиса.
type JSONSource struct {
	name   string
	client *feed.Client
}

func NewJSONSource(name, url string) *JSONSource {
	return &JSONSource{name: name, client: feed.NewClient(url)}
}

func (s *JSONSource) Name() string { return s.name }

func (s *JSONSource) Fetch(ctx context.Context) ([]models.Article, error) {
	return s.client.Load(ctx)
}

// RSSSource конвертирует RSS/Atom-ленту в статьи нашей модели.
type RSSSource struct {
	name   string
	url    string
	parser *gofeed.Parser
}

func NewRSSSource(name, url string) *RSSSource {
	return &RSSSource{name: name, url: url, parser: gofeed.NewParser()}
}

func (s *RSSSource) Name() string { return s.name }

func (s *RSSSource) Fetch(ctx context.Context) ([]models.Article, error) {
	parsed, err := s.parser.ParseURLWithContext(s.url, ctx)
	if err != nil {
		return nil, err
	}

	articles := make([]models.Article, 0, len(parsed.Items))
	for _, item := range parsed.Items {
		if item.Link == "" {
			continue
		}
		a := models.Article{
			URL:         item.Link,
			Title:       item.Title,
			Description: item.Description,
			Content:     item.Content,
			Source:      models.Source(s.sourceName(parsed)),
			FetchedAt:   time.Now().UTC().Format(time.RFC3339),
		}
		if item.PublishedParsed != nil {
			a.PublishedAt = item.PublishedParsed.UTC().Format(time.RFC3339)
		}
		if item.Image != nil {
			a.URLToImage = item.Image.URL
		}
		if len(item.Categories) > 0 {
			a.Category = item.Categories[0]
		}
		a.Normalize()
		articles = append(articles, a)
	}
	return articles, nil
}

func (s *RSSSource) sourceName(parsed *gofeed.Feed) string {
	if s.name != "" {
		return s.name
	}
	return parsed.Title
}
