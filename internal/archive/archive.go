package archive

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"news_surge/internal/models"
)

// Archive инкапсулирует пул соединений к PostgreSQL с историей статей.
// Хранилище опционально: без настроенного DSN сервис работает целиком
// в памяти.
type Archive struct {
	Pool *pgxpool.Pool
}

// New создаёт новый пул соединений по connString и возвращает Archive.
func New(ctx context.Context, connString string) (*Archive, error) {
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, fmt.Errorf("unable to create connection pool: %v", err)
	}
	return &Archive{Pool: pool}, nil
}

// Close закрывает пул соединений.
func (a *Archive) Close() {
	a.Pool.Close()
}

// SaveArticles сохраняет пачку статей. Уникальность — по url; уже известные
// статьи игнорируются, запись не мутирует существующие строки.
func (a *Archive) SaveArticles(ctx context.Context, articles []models.Article) error {
	for i := range articles {
		art := &articles[i]
		published, _ := art.PublishedTime()
		_, err := a.Pool.Exec(ctx, `
        INSERT INTO articles (url, title, description, content, category, source, published_at, is_breaking, relevance_score)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
        ON CONFLICT (url) DO NOTHING
    `, art.URL, art.Title, art.Description, art.Content, art.Category,
			art.SourceName(), published, art.IsBreaking, art.RelevanceScore)
		if err != nil {
			return err
		}
	}
	return nil
}

// ListRecent возвращает limit последних статей, сортированных по дате.
func (a *Archive) ListRecent(ctx context.Context, limit int) ([]models.Article, error) {
	if limit < 1 {
		limit = 10
	}
	if limit > 100 {
		limit = 100
	}

	rows, err := a.Pool.Query(ctx, `
        SELECT url, title, description, content, category, source, published_at, is_breaking, relevance_score
        FROM articles
        ORDER BY published_at DESC
        LIMIT $1
    `, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var articles []models.Article
	for rows.Next() {
		var (
			art       models.Article
			source    string
			published time.Time
		)
		if err := rows.Scan(&art.URL, &art.Title, &art.Description, &art.Content,
			&art.Category, &source, &published, &art.IsBreaking, &art.RelevanceScore); err != nil {
			return nil, err
		}
		art.Source = models.Source(source)
		art.PublishedAt = published.Format(time.RFC3339)
		articles = append(articles, art)
	}
	return articles, rows.Err()
}

// CountSince возвращает количество статей, опубликованных после since.
func (a *Archive) CountSince(ctx context.Context, since time.Time) (int, error) {
	var count int
	err := a.Pool.QueryRow(ctx, `
        SELECT COUNT(*)
        FROM articles
        WHERE published_at > $1
    `, since).Scan(&count)
	return count, err
}
