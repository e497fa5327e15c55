package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const defaultConfigPath = "config/config.yaml"

type FilesConfig struct {
	RootDir  string `yaml:"root_dir"`
	FontPath string `yaml:"font_path"`
}

type MobizonConfig struct {
	APIKey   string `yaml:"api_key"`
	SenderID string `yaml:"sender_id"`
	DryRun   bool   `yaml:"dry_run"`
}

type TelegramConfig struct {
	BotToken    string `yaml:"bot_token"`
	AdminChatID int64  `yaml:"admin_chat_id"`
}

type VerificationConfig struct {
	CodeTTL       time.Duration `yaml:"code_ttl"`
	MaxAttempts   int           `yaml:"max_attempts"`
	CodeHashCost  int           `yaml:"code_hash_cost"`
	ResendMax     int           `yaml:"resend_max"`    // 0: без троттлинга
	ResendWindow  time.Duration `yaml:"resend_window"` // окно для resend_max
	TokenTTL      time.Duration `yaml:"token_ttl"`
	CleanupPeriod time.Duration `yaml:"cleanup_period"` // 0: фоновая чистка выключена
	CleanupAfter  time.Duration `yaml:"cleanup_after"`
}

// ProviderConfig: один экземпляр платёжного провайдера. Kind выбирает реализацию,
// Name: сегмент пути, на который провайдер шлёт уведомления.
type ProviderConfig struct {
	Name   string `yaml:"name"`
	Kind   string `yaml:"kind"`
	Secret string `yaml:"secret"`
}

type Config struct {
	Server struct {
		Port int `yaml:"port"`
	} `yaml:"server"`
	Database struct {
		DSN string `yaml:"url"` // пусто: in-memory хранилище
	} `yaml:"database"`
	Auth struct {
		JWTSecret string `yaml:"jwt_secret"`
	} `yaml:"auth"`
	Email struct {
		SMTPHost     string `yaml:"smtp_host"`
		SMTPPort     int    `yaml:"smtp_port"`
		SMTPUser     string `yaml:"smtp_user"`
		SMTPPassword string `yaml:"smtp_password"`
		FromEmail    string `yaml:"from_email"`
	} `yaml:"email"`
	Files        FilesConfig        `yaml:"files"`
	Mobizon      MobizonConfig      `yaml:"mobizon"`
	Telegram     TelegramConfig     `yaml:"telegram"`
	Verification VerificationConfig `yaml:"verification"`
	Payments     []ProviderConfig   `yaml:"payments"`
}

// LoadConfig читает .env (если есть), затем YAML из HASYX_CONFIG или
// config/config.yaml. Ссылки ${VAR} подставляются из окружения.
func LoadConfig() (*Config, error) {
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(); err != nil {
			return nil, fmt.Errorf("load .env: %w", err)
		}
	}
	path := os.Getenv("HASYX_CONFIG")
	if path == "" {
		path = defaultConfigPath
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return Parse(raw)
}

func Parse(raw []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(raw))), &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Files.RootDir == "" {
		c.Files.RootDir = "./files"
	}
	if c.Files.FontPath == "" {
		c.Files.FontPath = "assets/fonts/DejaVuSans.ttf"
	}
	v := &c.Verification
	if v.CodeTTL <= 0 {
		v.CodeTTL = 5 * time.Minute
	}
	if v.MaxAttempts <= 0 {
		v.MaxAttempts = 5
	}
	if v.ResendWindow <= 0 {
		v.ResendWindow = 10 * time.Minute
	}
	if v.TokenTTL <= 0 {
		v.TokenTTL = 15 * time.Minute
	}
	if v.CleanupAfter <= 0 {
		v.CleanupAfter = 24 * time.Hour
	}
	for i := range c.Payments {
		if c.Payments[i].Name == "" {
			c.Payments[i].Name = c.Payments[i].Kind
		}
	}
}
