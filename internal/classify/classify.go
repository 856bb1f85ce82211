package classify

import (
	"strings"
	"time"

	"news_surge/internal/models"
)

// categoryAliases приводит названия категорий разных провайдеров к нашим.
var categoryAliases = map[string]string{
	"tech":      "technology",
	"sci":       "science",
	"sport":     "sports",
	"finance":   "markets",
	"financial": "markets",
	"market":    "markets",
	"stock":     "markets",
}

// categoryKeywords — словари для определения категории по тексту статьи.
var categoryKeywords = map[string][]string{
	"technology": {
		"tech", "software", "cyber", "digital", "blockchain", "crypto",
		"programming", "computer", "gadget", "startup", "robot", "automation",
		"machine learning", "artificial intelligence", "cloud", "developer",
	},
	"science": {
		"science", "research", "study", "experiment", "discovery", "physics",
		"chemistry", "biology", "astronomy", "space", "scientist", "quantum",
		"nasa", "breakthrough",
	},
	"health": {
		"health", "medical", "medicine", "doctor", "patient", "disease",
		"treatment", "therapy", "vaccine", "hospital", "clinical", "surgery",
		"pharmaceutical", "virus",
	},
	"sports": {
		"sport", "match", "tournament", "championship", "athlete", "coach",
		"football", "soccer", "basketball", "tennis", "baseball", "cricket",
		"racing", "olympics", "league",
	},
	"business": {
		"business", "company", "economy", "corporate", "industry", "enterprise",
		"retail", "profit", "revenue", "merger", "acquisition", "entrepreneur",
		"commerce", "employment",
	},
	"markets": {
		"stock", "market", "trading", "nasdaq", "nyse", "dow jones", "shares",
		"equity", "bond", "commodity", "forex", "currency", "ipo", "dividend",
		"wall street", "earnings", "investment", "hedge",
	},
	"politics": {
		"politic", "government", "election", "president", "congress", "senate",
		"policy", "democracy", "vote", "campaign", "minister", "parliament",
		"legislation", "senator",
	},
	"entertainment": {
		"entertainment", "movie", "film", "music", "celebrity", "actor",
		"actress", "concert", "television", "series", "netflix", "streaming",
		"hollywood", "award",
	},
	"world": {
		"world", "global", "international", "foreign", "nation", "diplomatic",
		"treaty", "summit", "war", "peace", "crisis", "conflict", "refugee",
		"embassy",
	},
}

// Порог: минимум два совпадения, иначе определение считаем ненадёжным.
const detectThreshold = 2

var breakingKeywords = []string{"breaking", "urgent", "just in", "breaking news", "emergency"}

var importanceKeywords = []string{
	"exclusive", "official", "confirmed", "update", "live",
	"developing", "announcement", "major", "critical",
}

// Category определяет категорию статьи: категория из API (нормализованная),
// иначе определение по тексту, иначе "general".
func Category(a *models.Article) string {
	if a.Category != "" && a.Category != models.DefaultCategory {
		if norm := normalizeCategory(a.Category); norm != "" {
			return norm
		}
	}
	if detected := detectCategory(a); detected != "" {
		return detected
	}
	return models.DefaultCategory
}

func normalizeCategory(category string) string {
	category = strings.ToLower(strings.TrimSpace(category))
	if _, ok := categoryKeywords[category]; ok {
		return category
	}
	for alias, standard := range categoryAliases {
		if strings.Contains(category, alias) {
			return standard
		}
	}
	return ""
}

func detectCategory(a *models.Article) string {
	text := articleText(a)

	best, bestScore := "", 0
	for category, keywords := range categoryKeywords {
		score := 0
		for _, kw := range keywords {
			score += strings.Count(text, kw)
		}
		if score > bestScore || (score == bestScore && category < best) {
			best, bestScore = category, score
		}
	}
	if bestScore >= detectThreshold {
		return best
	}
	return ""
}

func articleText(a *models.Article) string {
	return strings.ToLower(strings.Join([]string{a.Title, a.Description, a.Content}, " "))
}

// IsBreaking проверяет маркеры срочных новостей в заголовке и описании.
func IsBreaking(a *models.Article) bool {
	text := strings.ToLower(a.Title + " " + a.Description)
	for _, kw := range breakingKeywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}

// Score считает важность статьи: срочность +100, бонус за свежесть
// max(0, 24−часов)·2, по +5 за каждое ключевое слово важности.
func Score(a *models.Article, now time.Time) float64 {
	score := 0.0
	if a.IsBreaking {
		score += 100
	}

	if t, ok := a.PublishedTime(); ok {
		hoursOld := now.Sub(t).Hours()
		if bonus := (24 - hoursOld) * 2; bonus > 0 {
			score += bonus
		}
	}

	text := strings.ToLower(a.Title + " " + a.Description)
	for _, kw := range importanceKeywords {
		if strings.Contains(text, kw) {
			score += 5
		}
	}
	return score
}

// Enrich дополняет статью при сборе: категория, флаг срочности,
// relevanceScore. Вызывается агрегатором до публикации снапшота.
func Enrich(a *models.Article, now time.Time) {
	a.Category = Category(a)
	if !a.IsBreaking {
		a.IsBreaking = IsBreaking(a)
	}
	a.RelevanceScore = float64(int(Score(a, now)*100)) / 100
}
