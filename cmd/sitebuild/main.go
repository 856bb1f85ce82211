package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"news_surge/internal/config"
	"news_surge/internal/feed"
	"news_surge/internal/logger"
	"news_surge/internal/models"
	"news_surge/internal/pagination"
	"news_surge/internal/render"
	"news_surge/internal/search"
)

const pageSize = 12

// Одноразовый сборщик статики: загружает ленту и раскладывает готовые
// HTML-страницы (главная, категории, детальные) в каталог вывода.
func main() {
	godotenv.Load()
	logger.Init()

	cfgPath := os.Getenv("CONFIG")
	if cfgPath == "" {
		cfgPath = "config.json"
	}
	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		logger.Log.Fatalf("Config load error: %v", err)
	}
	if cfg.FeedURL == "" {
		logger.Log.Fatal("feed_url is required for sitebuild")
	}

	outputDir := cfg.OutputDir
	if outputDir == "" {
		outputDir = "site"
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	articles, err := feed.NewClient(cfg.FeedURL).Load(ctx)
	if err != nil {
		logger.Log.Fatalf("Feed load error: %v", err)
	}
	if len(articles) == 0 {
		logger.Log.Fatal("Feed is empty, nothing to build")
	}

	b := &builder{renderer: render.New(), output: outputDir}
	if err := b.build(articles); err != nil {
		logger.Log.Fatalf("Build error: %v", err)
	}
	logger.Log.WithField("articles", len(articles)).Info("Site built")
}

type builder struct {
	renderer *render.Renderer
	output   string
}

func (b *builder) build(articles []models.Article) error {
	if err := b.buildIndex(articles); err != nil {
		return err
	}
	for _, category := range categories(articles) {
		if err := b.buildCategory(articles, category); err != nil {
			return err
		}
	}
	return b.buildDetails(articles)
}

// buildIndex пишет главную и её дополнительные страницы index-N.html.
func (b *builder) buildIndex(articles []models.Article) error {
	hero, err := b.renderer.Hero(&articles[0])
	if err != nil {
		return err
	}

	rest := articles[1:]
	total := pagination.TotalPages(len(rest), pageSize)
	if total == 0 {
		total = 1
	}
	for page := 1; page <= total; page++ {
		var sb strings.Builder
		if page == 1 {
			sb.WriteString(hero)
		}
		grid, err := b.renderer.Grid(pagination.Page(rest, page, pageSize))
		if err != nil {
			return err
		}
		sb.WriteString(grid)
		sb.WriteString(b.renderer.PageNav(pagination.Buttons(page, total), "/index-"))

		name := "index.html"
		if page > 1 {
			name = fmt.Sprintf("index-%d.html", page)
		}
		if err := b.writePage(name, "News", sb.String()); err != nil {
			return err
		}
	}
	return nil
}

func (b *builder) buildCategory(articles []models.Article, category string) error {
	filtered := search.Filter(articles, search.Options{Category: category})
	if len(filtered) == 0 {
		return nil
	}
	grid, err := b.renderer.Grid(filtered)
	if err != nil {
		return err
	}
	name := filepath.Join("category", category+".html")
	return b.writePage(name, category+" — News", grid)
}

func (b *builder) buildDetails(articles []models.Article) error {
	for i := range articles {
		detail, err := b.renderer.Detail(&articles[i])
		if err != nil {
			return err
		}
		name := filepath.Join("articles", slug(articles[i].URL)+".html")
		if err := b.writePage(name, articles[i].Title, detail); err != nil {
			return err
		}
	}
	return nil
}

func (b *builder) writePage(name, title, body string) error {
	page, err := b.renderer.Page(title, "", body)
	if err != nil {
		return err
	}
	path := filepath.Join(b.output, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(page), 0o644)
}

func categories(articles []models.Article) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, a := range articles {
		if _, ok := seen[a.Category]; ok {
			continue
		}
		seen[a.Category] = struct{}{}
		out = append(out, a.Category)
	}
	return out
}

// slug строит имя файла из URL статьи.
func slug(url string) string {
	replacer := strings.NewReplacer("https://", "", "http://", "", "/", "-", "?", "-", "&", "-", "=", "-", "#", "-", ":", "-")
	s := strings.Trim(replacer.Replace(url), "-")
	if len(s) > 120 {
		s = s[:120]
	}
	return s
}
