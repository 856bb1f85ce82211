package search

import (
	"sort"
	"strings"
	"time"

	"news_surge/internal/models"
)

// Минимальная длина запроса для «живого» поиска по мере ввода. Явная отправка
// формы (Submitted) выполняет поиск независимо от длины.
const minLiveQueryLen = 3

// TimeRange ограничивает выборку по давности публикации.
type TimeRange string

const (
	RangeAll   TimeRange = "all"
	RangeToday TimeRange = "today"
	RangeWeek  TimeRange = "week"
	RangeMonth TimeRange = "month"
)

// SortBy задаёт порядок результата.
type SortBy string

const (
	SortByDate      SortBy = "date"
	SortByRelevance SortBy = "relevance"
)

// Options — параметры фильтрации. Нулевое значение означает «без фильтра».
type Options struct {
	Category  string
	Query     string
	Submitted bool
	TimeRange TimeRange
	SortBy    SortBy

	// Now подменяется в тестах; по умолчанию time.Now.
	Now func() time.Time
}

// Filter строит новый срез по заданным критериям, не модифицируя исходный.
func Filter(articles []models.Article, opts Options) []models.Article {
	now := time.Now
	if opts.Now != nil {
		now = opts.Now
	}

	query := strings.ToLower(strings.TrimSpace(opts.Query))
	if !opts.Submitted && len(query) < minLiveQueryLen {
		query = ""
	}

	category := strings.ToLower(strings.TrimSpace(opts.Category))
	var cutoff time.Time
	if days := rangeDays(opts.TimeRange); days > 0 {
		cutoff = now().AddDate(0, 0, -days)
	}

	out := make([]models.Article, 0, len(articles))
	for _, a := range articles {
		if category != "" && category != "all" && strings.ToLower(a.Category) != category {
			continue
		}
		if !cutoff.IsZero() {
			t, ok := a.PublishedTime()
			if !ok || t.Before(cutoff) {
				continue
			}
		}
		if query != "" && !matches(&a, query) {
			continue
		}
		out = append(out, a)
	}

	switch opts.SortBy {
	case SortByRelevance:
		sortByRelevance(out, query)
	default:
		models.SortByDate(out)
	}
	return out
}

func rangeDays(r TimeRange) int {
	switch r {
	case RangeToday:
		return 1
	case RangeWeek:
		return 7
	case RangeMonth:
		return 30
	default:
		return 0
	}
}

// matches проверяет вхождение запроса без учёта регистра по объединению
// текстовых полей статьи.
func matches(a *models.Article, query string) bool {
	haystack := strings.ToLower(strings.Join([]string{
		a.Title, a.Description, a.Content, a.Category, string(a.Source),
	}, " "))
	return strings.Contains(haystack, query)
}

// sortByRelevance: совпадение в заголовке выше совпадений только в тексте,
// затем relevanceScore, затем дата по убыванию. Сортировка стабильная.
func sortByRelevance(articles []models.Article, query string) {
	sort.SliceStable(articles, func(i, j int) bool {
		ti, tj := titleTier(&articles[i], query), titleTier(&articles[j], query)
		if ti != tj {
			return ti > tj
		}
		if articles[i].RelevanceScore != articles[j].RelevanceScore {
			return articles[i].RelevanceScore > articles[j].RelevanceScore
		}
		pi, _ := articles[i].PublishedTime()
		pj, _ := articles[j].PublishedTime()
		return pi.After(pj)
	})
}

func titleTier(a *models.Article, query string) int {
	if query == "" {
		return 0
	}
	if strings.Contains(strings.ToLower(a.Title), query) {
		return 1
	}
	return 0
}
