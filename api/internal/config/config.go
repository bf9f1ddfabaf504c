package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	Env         string `yaml:"env" env:"APP_ENV" env-default:"prod"`
	Host        string `yaml:"host" env:"HOST" env-default:"0.0.0.0"`
	Port        string `yaml:"port" env:"PORT" env-default:"8000"`
	MaxConns    int    `yaml:"max_conns" env:"MAX_CONNS" env-default:"64"`
	MaxUploadMB int64  `yaml:"max_upload_mb" env:"MAX_UPLOAD_MB" env-default:"50"`

	// Recognition
	TempDir string        `yaml:"tmp_dir" env:"OCR_TMP_DIR"`
	Engine  string        `yaml:"engine" env:"OCR_ENGINE" env-default:"paddle"`
	Workers int           `yaml:"workers" env:"OCR_WORKERS" env-default:"2"`
	Timeout time.Duration `yaml:"timeout" env:"OCR_TIMEOUT" env-default:"120s"`
	Lang    string        `yaml:"lang" env:"OCR_LANG" env-default:"ch"`

	PaddleCommand string `yaml:"paddle_command" env:"PADDLE_COMMAND" env-default:"python3 scripts/paddle_runner.py --lang {{lang}} {{file}}"`
	PaddleWorkdir string `yaml:"paddle_workdir" env:"PADDLE_WORKDIR"`

	RemoteURL    string `yaml:"remote_url" env:"OCR_REMOTE_URL"`
	RemoteAPIKey string `yaml:"remote_api_key" env:"OCR_REMOTE_API_KEY"`

	TesseractLang string `yaml:"tesseract_lang" env:"TESSERACT_LANG" env-default:"eng"`

	GeminiAPIKey string `yaml:"gemini_api_key" env:"GEMINI_API_KEY"`
	GeminiModel  string `yaml:"gemini_model" env:"GEMINI_MODEL" env-default:"gemini-2.5-flash"`

	OpenAIAPIKey  string `yaml:"openai_api_key" env:"OPENAI_API_KEY"`
	OpenAIModel   string `yaml:"openai_model" env:"OPENAI_MODEL" env-default:"gpt-4o-mini"`
	OpenAIBaseURL string `yaml:"openai_base_url" env:"OPENAI_BASE_URL"`

	YandexAPIKey     string `yaml:"yandex_api_key" env:"YANDEX_API_KEY"`
	YandexOAuthToken string `yaml:"yandex_oauth_token" env:"YANDEX_OAUTH_TOKEN"`
	YandexFolderID   string `yaml:"yandex_folder_id" env:"YANDEX_FOLDER_ID"`
	YandexModel      string `yaml:"yandex_model" env:"YANDEX_OCR_MODEL" env-default:"page"`
	YandexLangs      string `yaml:"yandex_langs" env:"YANDEX_LANGS" env-default:"*"`
	YandexURL        string `yaml:"yandex_url" env:"YANDEX_OCR_URL"`

	// Journal (Postgres)
	JournalEnabled   bool          `yaml:"journal_enabled" env:"JOURNAL_ENABLED" env-default:"false"`
	JournalRetention time.Duration `yaml:"journal_retention" env:"JOURNAL_RETENTION" env-default:"720h"`
	DatabaseURL      string        `yaml:"database_url" env:"DATABASE_URL"`
	PGUser           string        `yaml:"pg_user" env:"POSTGRES_USER" env-default:"ocr"`
	PGPassword       string        `yaml:"pg_password" env:"POSTGRES_PASSWORD"`
	PGHost           string        `yaml:"pg_host" env:"PGHOST"`
	PGPort           string        `yaml:"pg_port" env:"PGPORT" env-default:"5432"`
	PGDatabase       string        `yaml:"pg_database" env:"POSTGRES_DB" env-default:"ocr"`

	// Telegram front end
	TelegramBotToken string `yaml:"telegram_bot_token" env:"TELEGRAM_BOT_TOKEN"`
	WebhookURL       string `yaml:"webhook_url" env:"WEBHOOK_URL"`
}

// Load reads the YAML file at path (when set) and then the environment,
// which takes precedence.
func Load(path string) (*Config, error) {
	var cfg Config
	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("config file: %w", err)
		}
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	} else if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("read env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Port) == "" {
		errs = append(errs, errors.New("PORT is empty"))
	}
	if c.Workers < 1 {
		errs = append(errs, fmt.Errorf("OCR_WORKERS must be >= 1, got %d", c.Workers))
	}
	if c.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("OCR_TIMEOUT must be > 0, got %s", c.Timeout))
	}
	if c.MaxUploadMB <= 0 {
		errs = append(errs, errors.New("MAX_UPLOAD_MB must be > 0"))
	}
	switch strings.ToLower(strings.TrimSpace(c.Engine)) {
	case "remote", "http":
		if strings.TrimSpace(c.RemoteURL) == "" {
			errs = append(errs, errors.New("OCR_REMOTE_URL is required for the remote engine"))
		}
	case "gemini":
		if strings.TrimSpace(c.GeminiAPIKey) == "" {
			errs = append(errs, errors.New("GEMINI_API_KEY is required for the gemini engine"))
		}
	case "openai", "gpt":
		if strings.TrimSpace(c.OpenAIAPIKey) == "" {
			errs = append(errs, errors.New("OPENAI_API_KEY is required for the openai engine"))
		}
	case "yandex":
		if strings.TrimSpace(c.YandexAPIKey) == "" && strings.TrimSpace(c.YandexOAuthToken) == "" {
			errs = append(errs, errors.New("YANDEX_API_KEY or YANDEX_OAUTH_TOKEN is required for the yandex engine"))
		}
	case "paddle", "paddleocr":
		if strings.TrimSpace(c.PaddleCommand) == "" {
			errs = append(errs, errors.New("PADDLE_COMMAND is empty"))
		}
	}
	if c.JournalEnabled && c.DSN() == "" {
		errs = append(errs, errors.New("journal enabled but no database: set DATABASE_URL or PGHOST"))
	}
	return errors.Join(errs...)
}

func (c *Config) Addr() string { return net.JoinHostPort(c.Host, c.Port) }

func (c *Config) MaxUploadBytes() int64 { return c.MaxUploadMB << 20 }

// DSN prefers DATABASE_URL and otherwise builds one from the POSTGRES_*/PG*
// settings. Empty when no database host is configured.
func (c *Config) DSN() string {
	if v := strings.TrimSpace(c.DatabaseURL); v != "" {
		return v
	}
	if strings.TrimSpace(c.PGHost) == "" {
		return ""
	}
	u := &url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.PGUser, c.PGPassword),
		Host:     net.JoinHostPort(c.PGHost, c.PGPort),
		Path:     "/" + c.PGDatabase,
		RawQuery: "sslmode=disable",
	}
	return u.String()
}
