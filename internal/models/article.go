package models

import (
	"bytes"
	"encoding/json"
	"sort"
	"strings"
	"time"
)

// DefaultCategory is assigned to articles that arrive without one.
const DefaultCategory = "general"

// Source is the article source name. Feeds disagree on the shape: some emit a
// plain string, others a {"name": "..."} object, so both are accepted on decode
// and normalized to the bare name.
type Source string

// UnmarshalJSON decodes either a JSON string or an object with a "name" field.
func (s *Source) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*s = ""
		return nil
	}

	if data[0] == '{' {
		var obj struct {
			Name string `json:"name"`
		}
		if err := json.Unmarshal(data, &obj); err != nil {
			return err
		}
		*s = Source(obj.Name)
		return nil
	}

	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	*s = Source(name)
	return nil
}

// MarshalJSON always emits the normalized string form.
func (s Source) MarshalJSON() ([]byte, error) {
	return json.Marshal(string(s))
}

// Article represents one news item from the feed. Articles are immutable once
// loaded; a refresh replaces the whole set rather than mutating entries.
type Article struct {
	URL            string  `json:"url"`
	Title          string  `json:"title"`
	Description    string  `json:"description,omitempty"`
	Content        string  `json:"content,omitempty"`
	Category       string  `json:"category,omitempty"`
	Source         Source  `json:"source"`
	PublishedAt    string  `json:"publishedAt,omitempty"`
	FetchedAt      string  `json:"fetchedAt,omitempty"`
	URLToImage     string  `json:"urlToImage,omitempty"`
	ImageURL       string  `json:"imageUrl,omitempty"`
	IsBreaking     bool    `json:"isBreaking,omitempty"`
	RelevanceScore float64 `json:"relevanceScore,omitempty"`
}

// PublishedTime parses the publishedAt timestamp. The second return value is
// false when the field is missing or unparseable; such articles sort as
// epoch-0, i.e. oldest.
func (a *Article) PublishedTime() (time.Time, bool) {
	if a.PublishedAt == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339, a.PublishedAt)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// SourceName returns the source for display, falling back to "Unknown".
func (a *Article) SourceName() string {
	if a.Source == "" {
		return "Unknown"
	}
	return string(a.Source)
}

// Normalize applies the ingestion defaults in place: trimmed title, lowercase
// category defaulting to "general". It is the only mutation an article ever
// sees after decoding.
func (a *Article) Normalize() {
	a.Title = strings.TrimSpace(a.Title)
	a.Category = strings.ToLower(strings.TrimSpace(a.Category))
	if a.Category == "" {
		a.Category = DefaultCategory
	}
}

// SortByDate orders articles newest-first in place. The sort is stable, and
// articles with unparseable dates end up last.
func SortByDate(articles []Article) {
	sort.SliceStable(articles, func(i, j int) bool {
		ti, _ := articles[i].PublishedTime()
		tj, _ := articles[j].PublishedTime()
		return ti.After(tj)
	})
}
