// /internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

func init() {
	err := godotenv.Load()
	if err != nil {
		log.Println("No .env file found, falling back to system environment variables")
	}
}

// Config is the full environment surface of the agent.
type Config struct {
	Identity          string `env:"TWITTER_EMAIL"`
	SecondaryIdentity string `env:"TWITTER_USERNAME"`
	Secret            string `env:"TWITTER_PASSWORD"`

	OllamaURL string `env:"OLLAMA_URL" envDefault:"http://localhost:11434"`
	Model     string `env:"OLLAMA_MODEL" envDefault:"tinyllama"`

	PostInterval  time.Duration `env:"POST_INTERVAL" envDefault:"3m"`
	PostVariance  time.Duration `env:"POST_VARIANCE" envDefault:"1m"`
	CheckInterval time.Duration `env:"CHECK_INTERVAL" envDefault:"1m"`
	CheckVariance time.Duration `env:"CHECK_VARIANCE" envDefault:"30s"`
	StaleAfter    time.Duration `env:"STALE_AFTER" envDefault:"6h"`

	StateFile    string `env:"STATE_FILE" envDefault:"state.json"`
	StateBackups int    `env:"STATE_BACKUPS" envDefault:"3"`

	Env      string `env:"APP_ENV" envDefault:"development"`
	LogDir   string `env:"LOG_DIR" envDefault:"logs"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	LoginURL    string `env:"LOGIN_URL" envDefault:"https://twitter.com/i/flow/login"`
	Headless    bool   `env:"HEADLESS" envDefault:"true"`
	BrowserBin  string `env:"BROWSER_BIN"`
	UserAgent   string `env:"USER_AGENT" envDefault:"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"`
	PromptMood  bool   `env:"PROMPT_MOOD" envDefault:"true"`
	Decorate    bool   `env:"DECORATE_POSTS" envDefault:"false"`
	PersonaFile string `env:"PERSONA_FILE"`

	DiscordToken     string `env:"DISCORD_TOKEN"`
	DiscordChannelID string `env:"DISCORD_CHANNEL_ID"`
}

// Credentials are the login values handed to the session manager.
type Credentials struct {
	Identity          string
	SecondaryIdentity string
	Secret            string
}

// New parses the environment into a Config.
func New() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if cfg.PostVariance > cfg.PostInterval {
		return nil, fmt.Errorf("POST_VARIANCE (%s) must not exceed POST_INTERVAL (%s)", cfg.PostVariance, cfg.PostInterval)
	}
	return &cfg, nil
}

// Credentials returns the login values.
func (c *Config) Credentials() Credentials {
	return Credentials{
		Identity:          c.Identity,
		SecondaryIdentity: c.SecondaryIdentity,
		Secret:            c.Secret,
	}
}

// RequireCredentials fails when a value needed to log in is missing. TWITTER_USERNAME is
// optional; without it the verification prompt is not answered.
func (c *Config) RequireCredentials() error {
	var errs []error
	if c.Identity == "" {
		errs = append(errs, errors.New("TWITTER_EMAIL is not set"))
	}
	if c.Secret == "" {
		errs = append(errs, errors.New("TWITTER_PASSWORD is not set"))
	}
	return errors.Join(errs...)
}

// Production reports whether console output should be suppressed.
func (c *Config) Production() bool {
	return c.Env == "production"
}

// MirrorEnabled reports whether published posts are copied to Discord.
func (c *Config) MirrorEnabled() bool {
	return c.DiscordToken != "" && c.DiscordChannelID != ""
}
