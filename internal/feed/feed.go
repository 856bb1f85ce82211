package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"news_surge/internal/models"
)

const fetchTimeout = 10 * time.Second

// FetchError — сетевая или HTTP-ошибка при загрузке ленты.
type FetchError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: unexpected status %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// ParseError — некорректный JSON в теле ленты.
type ParseError struct {
	URL string
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s: %v", e.URL, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Client загружает снапшот ленты news.json по настроенному URL.
type Client struct {
	url        string
	httpClient *http.Client
}

// NewClient создаёт клиент ленты с ограниченным временем ожидания запроса.
func NewClient(url string) *Client {
	return &Client{
		url:        url,
		httpClient: &http.Client{Timeout: fetchTimeout},
	}
}

// URL возвращает адрес ленты, с которым создан клиент.
func (c *Client) URL() string { return c.url }

// Load выполняет один запрос к ленте и возвращает нормализованный,
// отсортированный по дате список статей. Сетевые ошибки и не-200 статусы
// возвращаются как *FetchError, битый JSON — как *ParseError.
func (c *Client) Load(ctx context.Context) ([]models.Article, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, &FetchError{URL: c.url, Err: err}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &FetchError{URL: c.url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &FetchError{URL: c.url, StatusCode: resp.StatusCode}
	}

	var articles []models.Article
	if err := json.NewDecoder(resp.Body).Decode(&articles); err != nil {
		return nil, &ParseError{URL: c.url, Err: err}
	}

	for i := range articles {
		articles[i].Normalize()
	}
	models.SortByDate(articles)
	return articles, nil
}
