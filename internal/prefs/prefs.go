package prefs

import (
	"encoding/json"
	"os"
	"sync"
)

// Фиксированные ключи пользовательских настроек.
const (
	KeyTheme         = "news_surge.theme"
	KeyNotifications = "news_surge.notifications"
)

// Значения по умолчанию; применяются при отсутствии файла или ключа.
const (
	ThemeLight = "light"
	ThemeDark  = "dark"
)

// Notifications — настройки уведомлений об обновлениях ленты.
type Notifications struct {
	Breaking   bool     `json:"breaking"`
	Categories []string `json:"categories"`
	MinScore   float64  `json:"minScore"`
	Frequency  string   `json:"frequency"`
}

func defaultNotifications() Notifications {
	return Notifications{
		Breaking:   true,
		Categories: []string{"all"},
		Frequency:  "standard",
	}
}

// Store хранит настройки в JSON-файле по фиксированным ключам; читается на
// старте, пишется при каждом изменении.
type Store struct {
	path string

	mu     sync.Mutex
	values map[string]json.RawMessage
}

// Open читает файл настроек; отсутствие файла означает значения по умолчанию.
func Open(path string) (*Store, error) {
	s := &Store{path: path, values: make(map[string]json.RawMessage)}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, err
	}
	if err := json.Unmarshal(data, &s.values); err != nil {
		return nil, err
	}
	return s, nil
}

// Theme возвращает сохранённую тему оформления либо светлую по умолчанию.
func (s *Store) Theme() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	raw, ok := s.values[KeyTheme]
	if !ok {
		return ThemeLight
	}
	var theme string
	if err := json.Unmarshal(raw, &theme); err != nil || theme == "" {
		return ThemeLight
	}
	return theme
}

// SetTheme сохраняет тему и сразу пишет файл.
func (s *Store) SetTheme(theme string) error {
	return s.set(KeyTheme, theme)
}

// Notifications возвращает настройки уведомлений либо значения по умолчанию.
func (s *Store) Notifications() Notifications {
	s.mu.Lock()
	defer s.mu.Unlock()
	raw, ok := s.values[KeyNotifications]
	if !ok {
		return defaultNotifications()
	}
	var n Notifications
	if err := json.Unmarshal(raw, &n); err != nil {
		return defaultNotifications()
	}
	if n.Frequency == "" {
		n.Frequency = "standard"
	}
	if len(n.Categories) == 0 {
		n.Categories = []string{"all"}
	}
	return n
}

// SetNotifications сохраняет настройки уведомлений и сразу пишет файл.
func (s *Store) SetNotifications(n Notifications) error {
	return s.set(KeyNotifications, n)
}

func (s *Store) set(key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = raw

	data, err := json.MarshalIndent(s.values, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.path, data, 0o644)
}
