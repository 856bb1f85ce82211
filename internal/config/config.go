package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
)

// SourceConfig описывает один источник новостей для агрегатора.
// Type: "json" (снапшот news.json) или "rss".
type SourceConfig struct {
	Name string `json:"name"`
	Type string `json:"type"`
	URL  string `json:"url"`
}

// Config хранит настройку ленты, источников и интервалов опроса.
type Config struct {
	FeedURL      string         `json:"feed_url"`
	WebSocketURL string         `json:"websocket_url,omitempty"`
	Sources      []SourceConfig `json:"sources,omitempty"`

	// PollInterval — базовый интервал опроса в минутах.
	PollInterval int `json:"poll_interval"`
	// PollIntervalCap — потолок интервала (минуты) при geometric backoff.
	PollIntervalCap int `json:"poll_interval_cap"`
	// MaxRetries — число попыток первоначального подключения.
	MaxRetries int `json:"max_retries"`

	Addr         string `json:"addr,omitempty"`
	SnapshotPath string `json:"snapshot_path,omitempty"`
	PublishSpec  string `json:"publish_spec,omitempty"`
	ArchiveDSN   string `json:"archive_dsn,omitempty"`
	PrefsPath    string `json:"prefs_path,omitempty"`
	OutputDir    string `json:"output_dir,omitempty"`
}

// Defaults, применяемые для нулевых полей при загрузке.
const (
	DefaultPollInterval    = 5
	DefaultPollIntervalCap = 30
	DefaultMaxRetries      = 5
	DefaultPublishSpec     = "*/5 * * * *"
)

// Validate проверяет, что интервалы согласованы и все URL валидны.
func (cfg *Config) Validate() error {
	if cfg.PollInterval < 1 {
		return errors.New("poll interval must be at least 1 minute")
	}
	if cfg.PollIntervalCap < cfg.PollInterval {
		return errors.New("poll interval cap must not be below poll interval")
	}
	if cfg.MaxRetries < 1 {
		return errors.New("max retries must be at least 1")
	}
	if cfg.FeedURL != "" {
		if err := checkURL(cfg.FeedURL); err != nil {
			return err
		}
	}
	for _, src := range cfg.Sources {
		if src.Type != "json" && src.Type != "rss" {
			return fmt.Errorf("unknown source type: %s", src.Type)
		}
		if err := checkURL(src.URL); err != nil {
			return err
		}
	}
	return nil
}

func checkURL(u string) error {
	if _, err := url.ParseRequestURI(u); err != nil {
		return fmt.Errorf("invalid URL: %s", u)
	}
	return nil
}

// LoadConfig читает JSON-файл по пути path, декодирует его в Config
// и подставляет значения по умолчанию для незаполненных полей.
func LoadConfig(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var cfg Config
	if err := json.NewDecoder(file).Decode(&cfg); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return &cfg, nil
}

func (cfg *Config) applyDefaults() {
	if cfg.PollInterval == 0 {
		cfg.PollInterval = DefaultPollInterval
	}
	if cfg.PollIntervalCap == 0 {
		cfg.PollIntervalCap = DefaultPollIntervalCap
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = DefaultMaxRetries
	}
	if cfg.PublishSpec == "" {
		cfg.PublishSpec = DefaultPublishSpec
	}
	if cfg.Addr == "" {
		cfg.Addr = ":8080"
	}
}
