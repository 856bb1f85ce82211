package store

import (
	"sync"
	"time"

	"news_surge/internal/models"
)

// Store хранит текущий снапшот ленты в памяти. Обновление заменяет срез
// целиком, поэтому читатели всегда видят либо старый, либо новый полный
// снапшот, никогда частичный.
type Store struct {
	mu        sync.RWMutex
	articles  []models.Article
	byURL     map[string]int
	updatedAt time.Time
}

func New() *Store {
	return &Store{byURL: make(map[string]int)}
}

// Replace заменяет снапшот целиком. Ожидается уже нормализованный и
// отсортированный по дате список.
func (s *Store) Replace(articles []models.Article) {
	byURL := make(map[string]int, len(articles))
	for i, a := range articles {
		if _, ok := byURL[a.URL]; !ok {
			byURL[a.URL] = i
		}
	}

	s.mu.Lock()
	s.articles = articles
	s.byURL = byURL
	s.updatedAt = time.Now()
	s.mu.Unlock()
}

// All возвращает текущий снапшот. Срез принадлежит хранилищу и не должен
// модифицироваться вызывающим; фильтры всегда строят новый срез.
func (s *Store) All() []models.Article {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.articles
}

// Len возвращает размер текущего снапшота.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.articles)
}

// ByURL ищет статью по её URL — ключу уникальности в ленте.
func (s *Store) ByURL(url string) (models.Article, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.byURL[url]
	if !ok {
		return models.Article{}, false
	}
	return s.articles[i], true
}

// UpdatedAt возвращает время последней замены снапшота.
func (s *Store) UpdatedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.updatedAt
}
