package publisher

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"news_surge/internal/logger"
	"news_surge/internal/models"
)

// MaxArticles — потолок размера снапшота: храним только самые свежие статьи.
const MaxArticles = 50

// Publisher атомарно пишет снапшот ленты в news.json: сначала во временный
// файл, затем rename, чтобы читатели никогда не видели частичной записи.
type Publisher struct {
	path string
	log  *logger.Entry
}

func New(path string) *Publisher {
	return &Publisher{path: path, log: logger.WithComponent("publisher")}
}

// Validate проверяет обязательные поля статьи перед публикацией.
func Validate(a *models.Article) error {
	if a.URL == "" {
		return fmt.Errorf("article without url")
	}
	if a.Title == "" {
		return fmt.Errorf("article %s: empty title", a.URL)
	}
	if _, ok := a.PublishedTime(); !ok {
		return fmt.Errorf("article %s: bad publishedAt %q", a.URL, a.PublishedAt)
	}
	return nil
}

// Publish отбрасывает невалидные статьи, сортирует по дате, ограничивает
// снапшот MaxArticles свежайшими и атомарно записывает файл.
func (p *Publisher) Publish(articles []models.Article) error {
	valid := make([]models.Article, 0, len(articles))
	for i := range articles {
		if err := Validate(&articles[i]); err != nil {
			p.log.Warnf("Dropping article: %v", err)
			continue
		}
		valid = append(valid, articles[i])
	}

	models.SortByDate(valid)
	if len(valid) > MaxArticles {
		valid = valid[:MaxArticles]
	}

	data, err := json.MarshalIndent(valid, "", "  ")
	if err != nil {
		return err
	}

	if dir := filepath.Dir(p.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}

	tmp := p.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	if err := os.Rename(tmp, p.path); err != nil {
		os.Remove(tmp)
		return err
	}

	p.log.WithField("articles", len(valid)).Info("Snapshot published")
	return nil
}

// Load читает ранее опубликованный снапшот; отсутствие файла — пустая лента.
func (p *Publisher) Load() ([]models.Article, error) {
	data, err := os.ReadFile(p.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var articles []models.Article
	if err := json.Unmarshal(data, &articles); err != nil {
		return nil, err
	}
	for i := range articles {
		articles[i].Normalize()
	}
	return articles, nil
}
