package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type AppConfig struct {
	APIBaseURL string `yaml:"api-url" env:"OTHELLO_API_URL" env-default:"http://localhost:8080/api/othello"`
	PlayerName string `yaml:"player-name" env:"PLAYER_NAME"`
	SessionID  string `yaml:"session-id" env:"SESSION_ID"`

	HTTPTimeout time.Duration `yaml:"http-timeout" env:"HTTP_TIMEOUT" env-default:"10s"`
	HTTPRetry   int           `yaml:"http-retry" env:"HTTP_RETRY" env-default:"3"`

	AIDelay           time.Duration `yaml:"ai-delay" env:"AI_DELAY" env-default:"700ms"`
	HighlightDuration time.Duration `yaml:"highlight-duration" env:"HIGHLIGHT_DURATION" env-default:"600ms"`

	RedisURL    string        `yaml:"redis-url" env:"REDIS_URL"`
	TurnLockTTL time.Duration `yaml:"turn-lock-ttl" env:"TURN_LOCK_TTL" env-default:"30s"`

	BoardPNGPath string `yaml:"board-png-path" env:"BOARD_PNG_PATH"`
	ViewWSAddr   string `yaml:"view-ws-addr" env:"VIEW_WS_ADDR"`
	MessagesDir  string `yaml:"messages-dir" env:"MESSAGES_DIR"`

	// ViewWSOrigins restricts browser origins on the view feed; empty allows any.
	ViewWSOrigins []string `yaml:"view-ws-origins" env:"VIEW_WS_ORIGINS" env-separator:","`
}

// Load reads the YAML file at path (environment overrides it) or, with an
// empty path, the environment alone.
func Load(path string) (*AppConfig, error) {
	cfg := &AppConfig{}
	var err error
	if strings.TrimSpace(path) != "" {
		err = cleanenv.ReadConfig(path, cfg)
	} else {
		err = cleanenv.ReadEnv(cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	cfg.APIBaseURL = strings.TrimRight(strings.TrimSpace(cfg.APIBaseURL), "/")
	cfg.PlayerName = strings.TrimSpace(cfg.PlayerName)
	cfg.SessionID = strings.TrimSpace(cfg.SessionID)
	cfg.RedisURL = strings.TrimSpace(cfg.RedisURL)
	cfg.ViewWSOrigins = trimOrigins(cfg.ViewWSOrigins)

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *AppConfig) validate() error {
	if c.APIBaseURL == "" {
		return errors.New("OTHELLO_API_URL is required")
	}
	u, err := url.Parse(c.APIBaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("OTHELLO_API_URL is not an absolute URL: %q", c.APIBaseURL)
	}
	if c.HTTPTimeout <= 0 {
		return errors.New("HTTP_TIMEOUT must be positive")
	}
	if c.HTTPRetry < 1 {
		c.HTTPRetry = 1
	}
	if c.AIDelay < 0 {
		return errors.New("AI_DELAY must not be negative")
	}
	if c.HighlightDuration < 0 {
		return errors.New("HIGHLIGHT_DURATION must not be negative")
	}
	if c.RedisURL != "" && c.TurnLockTTL <= 0 {
		return errors.New("TURN_LOCK_TTL must be positive when REDIS_URL is set")
	}
	return nil
}

func trimOrigins(in []string) []string {
	var out []string
	for _, o := range in {
		if o = strings.TrimRight(strings.TrimSpace(o), "/"); o != "" {
			out = append(out, o)
		}
	}
	return out
}
