package server_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"news_surge/internal/models"
	"news_surge/internal/poller"
	"news_surge/internal/render"
	"news_surge/internal/server"
	"news_surge/internal/store"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/stretchr/testify/require"
)

func fixedNow() time.Time {
	return time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
}

func seedArticles(n int) []models.Article {
	out := make([]models.Article, n)
	base := time.Date(2026, 8, 28, 0, 0, 0, 0, time.UTC)
	for i := range out {
		out[i] = models.Article{
			URL:         "https://example.com/" + string(rune('a'+i)),
			Title:       "Story " + string(rune('A'+i)),
			Category:    "technology",
			Source:      "TechWire",
			PublishedAt: base.Add(time.Duration(n-i) * time.Minute).Format(time.RFC3339),
		}
	}
	return out
}

func newTestServer(t *testing.T, articles []models.Article) (*server.Server, *httptest.Server) {
	t.Helper()
	st := store.New()
	if articles != nil {
		st.Replace(articles)
	}
	srv := server.NewServer(st, render.NewAt(fixedNow), nil)

	mux := http.NewServeMux()
	srv.RegisterRoutes(mux)
	ts := httptest.NewServer(mux)
	t.Cleanup(ts.Close)
	return srv, ts
}

func getJSON(t *testing.T, url string, v any) *http.Response {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	if v != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
	}
	return resp
}

func TestHandleNewsListEnvelope(t *testing.T) {
	_, ts := newTestServer(t, seedArticles(20))

	var got models.NewsResponse
	resp := getJSON(t, ts.URL+"/api/news?page=2&page_size=15", &got)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	require.Len(t, got.Items, 5)
	require.Equal(t, 20, got.Pagination.TotalItems)
	require.Equal(t, 2, got.Pagination.TotalPages)
	require.Equal(t, 2, got.Pagination.CurrentPage)
	require.Equal(t, 15, got.Pagination.ItemsPerPage)
}

func TestHandleNewsListDefaults(t *testing.T) {
	_, ts := newTestServer(t, seedArticles(20))

	var got models.NewsResponse
	getJSON(t, ts.URL+"/api/news?page=bogus&page_size=100000", &got)
	require.Equal(t, 1, got.Pagination.CurrentPage)
	require.Equal(t, 15, got.Pagination.ItemsPerPage)
}

func TestHandleNewsListCategoryAndSearch(t *testing.T) {
	articles := seedArticles(3)
	articles[0].Category = "science"
	articles[0].Title = "Quantum breakthrough"
	_, ts := newTestServer(t, articles)

	var got models.NewsResponse
	getJSON(t, ts.URL+"/api/news?category=science", &got)
	require.Equal(t, 1, got.Pagination.TotalItems)

	getJSON(t, ts.URL+"/api/news?s=quantum", &got)
	require.Equal(t, 1, got.Pagination.TotalItems)
	require.Equal(t, "Quantum breakthrough", got.Items[0].Title)

	getJSON(t, ts.URL+"/api/news?s=nothing-matches", &got)
	require.Equal(t, 0, got.Pagination.TotalItems)
	require.NotNil(t, got.Items)
	require.Empty(t, got.Items)
}

func TestHandleArticle(t *testing.T) {
	articles := seedArticles(2)
	_, ts := newTestServer(t, articles)

	var got models.Article
	resp := getJSON(t, ts.URL+"/api/article?url="+articles[0].URL, &got)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, articles[0].Title, got.Title)

	resp, err := http.Get(ts.URL + "/api/article?url=https://example.com/missing")
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, err = http.Get(ts.URL + "/api/article")
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestHandleSnapshot(t *testing.T) {
	_, ts := newTestServer(t, seedArticles(3))

	var got []models.Article
	getJSON(t, ts.URL+"/data/news.json", &got)
	require.Len(t, got, 3)

	_, empty := newTestServer(t, nil)
	getJSON(t, empty.URL+"/data/news.json", &got)
	require.NotNil(t, got)
	require.Empty(t, got)
}

func TestHandleHealth(t *testing.T) {
	_, ts := newTestServer(t, seedArticles(2))

	var got map[string]any
	resp := getJSON(t, ts.URL+"/health", &got)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "ok", got["status"])
	require.Equal(t, float64(2), got["articles"])
}

func readBody(t *testing.T, url string) (int, string) {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	var sb strings.Builder
	_, err = io.Copy(&sb, resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, sb.String()
}

func TestHandleIndexPage(t *testing.T) {
	_, ts := newTestServer(t, seedArticles(20))

	status, body := readBody(t, ts.URL+"/")
	require.Equal(t, http.StatusOK, status)
	require.Contains(t, body, `class="hero`)
	require.Contains(t, body, "trending-list")
	require.Contains(t, body, "news-grid")
	require.Contains(t, body, `class="pagination"`)
}

func TestHandleIndexPageEmpty(t *testing.T) {
	_, ts := newTestServer(t, nil)

	status, body := readBody(t, ts.URL+"/")
	require.Equal(t, http.StatusOK, status)
	require.Contains(t, body, "No news yet")
}

func TestHandleCategoryPage(t *testing.T) {
	_, ts := newTestServer(t, seedArticles(3))

	status, body := readBody(t, ts.URL+"/category/technology")
	require.Equal(t, http.StatusOK, status)
	require.Contains(t, body, "Technology")
	require.Contains(t, body, "news-grid")
}

func TestHandleSearchPage(t *testing.T) {
	articles := seedArticles(3)
	articles[1].Title = "Quantum breakthrough"
	_, ts := newTestServer(t, articles)

	status, body := readBody(t, ts.URL+"/search?q=quantum")
	require.Equal(t, http.StatusOK, status)
	require.Contains(t, body, "1 results")
	require.Contains(t, body, "Quantum breakthrough")
}

func TestHandleArticlePage(t *testing.T) {
	articles := seedArticles(2)
	_, ts := newTestServer(t, articles)

	status, body := readBody(t, ts.URL+"/article?url="+articles[0].URL)
	require.Equal(t, http.StatusOK, status)
	require.Contains(t, body, "news-detail")
	require.Contains(t, body, articles[0].Title)

	status, _ = readBody(t, ts.URL+"/article?url=https://example.com/missing")
	require.Equal(t, http.StatusNotFound, status)
}

func TestWebSocketInitialAndBroadcast(t *testing.T) {
	articles := seedArticles(2)
	srv, ts := newTestServer(t, articles)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/news-updates?frequency=realtime"
	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	require.NoError(t, err)
	defer conn.CloseNow()

	var initial poller.Message
	require.NoError(t, wsjson.Read(ctx, conn, &initial))
	require.Equal(t, poller.MessageInitial, initial.Type)
	require.Len(t, initial.Articles, 2)

	fresh := models.Article{
		URL:         "https://example.com/fresh",
		Title:       "Fresh story",
		Category:    "technology",
		PublishedAt: "2026-08-28T11:00:00Z",
	}
	srv.Hub().Broadcast([]models.Article{fresh})

	var update poller.Message
	require.NoError(t, wsjson.Read(ctx, conn, &update))
	require.Equal(t, poller.MessageUpdate, update.Type)
	require.Len(t, update.Articles, 1)
	require.Equal(t, "Fresh story", update.Articles[0].Title)
}

func TestWebSocketBreakingBypassesFrequency(t *testing.T) {
	srv, ts := newTestServer(t, seedArticles(1))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// digest: регулярные обновления отложены, breaking проходит сразу
	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/news-updates?frequency=digest"
	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	require.NoError(t, err)
	defer conn.CloseNow()

	var initial poller.Message
	require.NoError(t, wsjson.Read(ctx, conn, &initial))

	srv.Hub().Broadcast([]models.Article{{
		URL:         "https://example.com/breaking",
		Title:       "Breaking: major event",
		Category:    "technology",
		IsBreaking:  true,
		PublishedAt: "2026-08-28T11:30:00Z",
	}})

	var msg poller.Message
	require.NoError(t, wsjson.Read(ctx, conn, &msg))
	require.Equal(t, poller.MessageBreaking, msg.Type)
}

func TestWebSocketConcurrentBroadcasts(t *testing.T) {
	srv, ts := newTestServer(t, seedArticles(1))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/news-updates?frequency=realtime"
	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	require.NoError(t, err)
	defer conn.CloseNow()

	var initial poller.Message
	require.NoError(t, wsjson.Read(ctx, conn, &initial))

	// Рассылки из нескольких горутин одновременно
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			srv.Hub().Broadcast([]models.Article{{
				URL:         "https://example.com/concurrent-" + string(rune('a'+i)),
				Title:       "Concurrent story",
				Category:    "technology",
				PublishedAt: "2026-08-28T11:00:00Z",
			}})
		}(i)
	}
	wg.Wait()

	for i := 0; i < 4; i++ {
		var msg poller.Message
		require.NoError(t, wsjson.Read(ctx, conn, &msg))
		require.Equal(t, poller.MessageUpdate, msg.Type)
		require.Len(t, msg.Articles, 1)
	}
}

func TestWebSocketCategoryFilter(t *testing.T) {
	srv, ts := newTestServer(t, seedArticles(1))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/news-updates?frequency=realtime&categories=science"
	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	require.NoError(t, err)
	defer conn.CloseNow()

	var initial poller.Message
	require.NoError(t, wsjson.Read(ctx, conn, &initial))

	// Не подходит под подписку: кадра не будет
	srv.Hub().Broadcast([]models.Article{{
		URL: "https://example.com/tech", Title: "Tech story", Category: "technology",
		PublishedAt: "2026-08-28T11:00:00Z",
	}})
	// Подходит: придёт ровно этот кадр
	srv.Hub().Broadcast([]models.Article{{
		URL: "https://example.com/sci", Title: "Science story", Category: "science",
		PublishedAt: "2026-08-28T11:05:00Z",
	}})

	var msg poller.Message
	require.NoError(t, wsjson.Read(ctx, conn, &msg))
	require.Equal(t, poller.MessageUpdate, msg.Type)
	require.Len(t, msg.Articles, 1)
	require.Equal(t, "Science story", msg.Articles[0].Title)
}
