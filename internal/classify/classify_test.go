package classify_test

import (
	"testing"
	"time"

	"news_surge/internal/classify"
	"news_surge/internal/models"

	"github.com/stretchr/testify/require"
)

func fixedNow() time.Time {
	return time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
}

func TestCategoryFromProvider(t *testing.T) {
	testCases := []struct {
		name     string
		category string
		expected string
	}{
		{"exact", "technology", "technology"},
		{"mixed_case", "Sports", "sports"},
		{"alias_tech", "tech", "technology"},
		{"alias_finance", "finance", "markets"},
		{"alias_sci", "sci-news", "science"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			a := models.Article{Title: "Plain headline", Category: tc.category}
			require.Equal(t, tc.expected, classify.Category(&a))
		})
	}
}

func TestCategoryDetectedFromText(t *testing.T) {
	a := models.Article{
		Title:       "New software platform for developers",
		Description: "The startup ships cloud tooling",
	}
	require.Equal(t, "technology", classify.Category(&a))
}

func TestCategorySingleMatchNotEnough(t *testing.T) {
	// Одно совпадение ниже порога: остаёмся в general
	a := models.Article{Title: "A quiet day for software"}
	require.Equal(t, models.DefaultCategory, classify.Category(&a))
}

func TestCategoryFallbackGeneral(t *testing.T) {
	a := models.Article{Title: "Nothing notable happened"}
	require.Equal(t, models.DefaultCategory, classify.Category(&a))
}

func TestIsBreaking(t *testing.T) {
	testCases := []struct {
		name     string
		article  models.Article
		expected bool
	}{
		{"title_breaking", models.Article{Title: "BREAKING: markets halted"}, true},
		{"title_urgent", models.Article{Title: "Urgent recall issued"}, true},
		{"description_just_in", models.Article{Title: "Recall", Description: "Just in: details emerging"}, true},
		{"plain", models.Article{Title: "Quarterly results published"}, false},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.expected, classify.IsBreaking(&tc.article))
		})
	}
}

func TestScore(t *testing.T) {
	now := fixedNow()

	fresh := models.Article{Title: "Plain", PublishedAt: "2026-08-28T10:00:00Z"}
	// Свежесть: (24-2)*2 = 44
	require.InDelta(t, 44, classify.Score(&fresh, now), 0.01)

	breaking := fresh
	breaking.IsBreaking = true
	require.InDelta(t, 144, classify.Score(&breaking, now), 0.01)

	keywords := fresh
	keywords.Title = "Official update confirmed"
	require.InDelta(t, 44+15, classify.Score(&keywords, now), 0.01)

	stale := models.Article{Title: "Plain", PublishedAt: "2026-08-01T10:00:00Z"}
	require.InDelta(t, 0, classify.Score(&stale, now), 0.01)
}

func TestEnrich(t *testing.T) {
	a := models.Article{
		Title:       "Breaking: cyber attack hits software vendors",
		Description: "Developers respond",
		Category:    "",
		PublishedAt: "2026-08-28T11:00:00Z",
	}
	classify.Enrich(&a, fixedNow())

	require.Equal(t, "technology", a.Category)
	require.True(t, a.IsBreaking)
	require.Greater(t, a.RelevanceScore, 100.0)
	// Округление до двух знаков
	require.Equal(t, a.RelevanceScore, float64(int(a.RelevanceScore*100))/100)
}

func TestEnrichKeepsExplicitBreaking(t *testing.T) {
	a := models.Article{Title: "Calm headline", IsBreaking: true, PublishedAt: "2026-08-28T11:00:00Z"}
	classify.Enrich(&a, fixedNow())
	require.True(t, a.IsBreaking)
}
