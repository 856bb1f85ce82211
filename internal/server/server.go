package server

import (
	"encoding/json"
	"fmt"
	"html/template"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"news_surge/internal/logger"
	"news_surge/internal/models"
	"news_surge/internal/pagination"
	"news_surge/internal/render"
	"news_surge/internal/search"
	"news_surge/internal/store"
)

const (
	defaultPageSize = 15
	maxPageSize     = 100
	gridPageSize    = 12
	trendingItems   = 5
)

// ValidationError — некорректный пользовательский ввод в параметрах запроса.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// Server хранит зависимости HTTP-обработчиков: снапшот ленты, рендерер и
// hub рассылки обновлений.
type Server struct {
	store    *store.Store
	renderer *render.Renderer
	hub      *Hub
	theme    func() string
	log      *logger.Entry
}

// NewServer создаёт Server поверх хранилища снапшота. themeFn может быть nil.
func NewServer(st *store.Store, renderer *render.Renderer, themeFn func() string) *Server {
	s := &Server{
		store:    st,
		renderer: renderer,
		theme:    themeFn,
		log:      logger.WithComponent("server"),
	}
	s.hub = NewHub(st)
	return s
}

// Hub возвращает hub рассылки для подключения к пайплайну обновлений.
func (s *Server) Hub() *Hub { return s.hub }

// RegisterRoutes вешает все маршруты сервиса на mux.
func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/news", s.HandleNewsList)
	mux.HandleFunc("GET /api/article", s.HandleArticle)
	mux.HandleFunc("GET /data/news.json", s.HandleSnapshot)
	mux.HandleFunc("GET /health", s.HandleHealth)
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /news-updates", s.hub.HandleWS)

	mux.HandleFunc("GET /{$}", s.HandleIndexPage)
	mux.HandleFunc("GET /category/{name}", s.HandleCategoryPage)
	mux.HandleFunc("GET /search", s.HandleSearchPage)
	mux.HandleFunc("GET /article", s.HandleArticlePage)
}

// HandleHealth отвечает 200 OK и временем последнего обновления снапшота.
func (s *Server) HandleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]any{
		"status":     "ok",
		"articles":   s.store.Len(),
		"lastUpdate": s.store.UpdatedAt().Format(time.RFC3339),
	})
}

// HandleSnapshot отдаёт полный текущий снапшот ленты как JSON-массив.
func (s *Server) HandleSnapshot(w http.ResponseWriter, r *http.Request) {
	articles := s.store.All()
	if articles == nil {
		articles = []models.Article{}
	}
	writeJSON(w, articles)
}

// HandleNewsList возвращает страницу ленты с пагинацией в конверте
// {items, pagination}; поддерживает category, s (поиск) и time_range.
func (s *Server) HandleNewsList(w http.ResponseWriter, r *http.Request) {
	params := s.listParams(r)

	filtered := search.Filter(s.store.All(), search.Options{
		Category:  params.Category,
		Query:     params.Search,
		Submitted: true,
		TimeRange: search.TimeRange(r.URL.Query().Get("time_range")),
		SortBy:    search.SortBy(r.URL.Query().Get("sort")),
	})

	items := pagination.Page(filtered, params.Page, params.PageSize)
	if items == nil {
		items = []models.Article{}
	}

	writeJSON(w, models.NewsResponse{
		Items: items,
		Pagination: models.PaginationResponse{
			TotalItems:   len(filtered),
			TotalPages:   pagination.TotalPages(len(filtered), params.PageSize),
			CurrentPage:  params.Page,
			ItemsPerPage: params.PageSize,
		},
	})
}

// HandleArticle возвращает одну статью по её url — ключу уникальности ленты.
func (s *Server) HandleArticle(w http.ResponseWriter, r *http.Request) {
	url := r.URL.Query().Get("url")
	if url == "" {
		verr := &ValidationError{Field: "url", Reason: "required"}
		http.Error(w, verr.Error(), http.StatusBadRequest)
		return
	}
	article, ok := s.store.ByURL(url)
	if !ok {
		http.Error(w, "article not found", http.StatusNotFound)
		return
	}
	writeJSON(w, article)
}

// HandleIndexPage рендерит главную: hero, «в тренде», сетка первой страницы.
func (s *Server) HandleIndexPage(w http.ResponseWriter, r *http.Request) {
	articles := s.store.All()
	if len(articles) == 0 {
		s.renderPage(w, "News", `<p class="feed-empty">No news yet. <a href="/">Retry</a></p>`)
		return
	}

	var sb strings.Builder

	hero, err := s.renderer.Hero(&articles[0])
	if err != nil {
		s.renderError(w, err)
		return
	}
	sb.WriteString(hero)

	trending, err := s.renderer.Trending(topByScore(articles, trendingItems))
	if err != nil {
		s.renderError(w, err)
		return
	}
	sb.WriteString(trending)

	page := pageParam(r)
	rest := articles[1:]
	grid, err := s.renderer.Grid(pagination.Page(rest, page, gridPageSize))
	if err != nil {
		s.renderError(w, err)
		return
	}
	sb.WriteString(grid)
	sb.WriteString(s.renderer.PageNav(
		pagination.Buttons(page, pagination.TotalPages(len(rest), gridPageSize)), "/?page="))

	s.renderPage(w, "News", sb.String())
}

// HandleCategoryPage рендерит сетку одной категории с номерной пагинацией.
func (s *Server) HandleCategoryPage(w http.ResponseWriter, r *http.Request) {
	category := r.PathValue("name")
	filtered := search.Filter(s.store.All(), search.Options{Category: category})

	page := pageParam(r)
	grid, err := s.renderer.Grid(pagination.Page(filtered, page, gridPageSize))
	if err != nil {
		s.renderError(w, err)
		return
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, `<h1 class="category-title">%s</h1>`, template.HTMLEscapeString(titleCase(category)))
	sb.WriteString(grid)
	sb.WriteString(s.renderer.PageNav(
		pagination.Buttons(page, pagination.TotalPages(len(filtered), gridPageSize)),
		"/category/"+category+"?page="))

	s.renderPage(w, titleCase(category)+" — News", sb.String())
}

// HandleSearchPage рендерит результаты поиска; q обязателен.
func (s *Server) HandleSearchPage(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	filtered := search.Filter(s.store.All(), search.Options{
		Query:     query,
		Submitted: true,
		SortBy:    search.SortByRelevance,
	})

	var sb strings.Builder
	fmt.Fprintf(&sb, `<h1 class="search-title">%d results</h1>`, len(filtered))

	page := pageParam(r)
	grid, err := s.renderer.Grid(pagination.Page(filtered, page, gridPageSize))
	if err != nil {
		s.renderError(w, err)
		return
	}
	sb.WriteString(grid)

	s.renderPage(w, "Search — News", sb.String())
}

// HandleArticlePage рендерит детальное представление статьи.
func (s *Server) HandleArticlePage(w http.ResponseWriter, r *http.Request) {
	url := r.URL.Query().Get("url")
	article, ok := s.store.ByURL(url)
	if !ok {
		http.NotFound(w, r)
		return
	}
	detail, err := s.renderer.Detail(&article)
	if err != nil {
		s.renderError(w, err)
		return
	}
	s.renderPage(w, article.Title+" — News", detail)
}

func (s *Server) listParams(r *http.Request) models.PaginationParams {
	q := r.URL.Query()

	page, err := strconv.Atoi(q.Get("page"))
	if err != nil || page < 1 {
		page = 1
	}
	pageSize, err := strconv.Atoi(q.Get("page_size"))
	if err != nil || pageSize < 1 || pageSize > maxPageSize {
		pageSize = defaultPageSize
	}

	return models.PaginationParams{
		Page:     page,
		PageSize: pageSize,
		Category: q.Get("category"),
		Search:   q.Get("s"),
	}
}

func (s *Server) renderPage(w http.ResponseWriter, title, body string) {
	theme := ""
	if s.theme != nil {
		theme = s.theme()
	}
	page, err := s.renderer.Page(title, theme, body)
	if err != nil {
		s.renderError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write([]byte(page))
}

func (s *Server) renderError(w http.ResponseWriter, err error) {
	s.log.Errorf("Render failed: %v", err)
	http.Error(w, "internal server error", http.StatusInternalServerError)
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func pageParam(r *http.Request) int {
	page, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil || page < 1 {
		return 1
	}
	return page
}

// topByScore выбирает статьи с наибольшим relevanceScore для блока трендов.
func topByScore(articles []models.Article, n int) []models.Article {
	sorted := search.Filter(articles, search.Options{SortBy: search.SortByRelevance})
	if len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}
