package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"

	DefaultPath = "config/config.yaml"
)

type EmailConfig struct {
	SMTPHost     string `yaml:"smtp_host"`
	SMTPPort     int    `yaml:"smtp_port"`
	SMTPUser     string `yaml:"smtp_user"`
	SMTPPassword string `yaml:"smtp_password"`
	FromEmail    string `yaml:"from_email"`
}

// Enabled reports whether welcome mails should be sent at all.
func (e EmailConfig) Enabled() bool {
	return strings.TrimSpace(e.SMTPHost) != ""
}

type TelegramConfig struct {
	BotToken string `yaml:"bot_token"`
	// registrant -> chat id that receives self-destruct alerts
	Chats map[string]int64 `yaml:"chats"`
}

func (t TelegramConfig) Enabled() bool {
	return strings.TrimSpace(t.BotToken) != ""
}

type Config struct {
	Server struct {
		Port int `yaml:"port"`
	} `yaml:"server"`
	Database struct {
		Driver string `yaml:"driver"`
		DSN    string `yaml:"url"`
	} `yaml:"database"`
	// registrant identifier -> shared token used for basic auth
	Registrants map[string]string `yaml:"registrants"`
	Security    struct {
		BcryptCost int `yaml:"bcrypt_cost"`
	} `yaml:"security"`
	Email    EmailConfig    `yaml:"email"`
	Telegram TelegramConfig `yaml:"telegram"`
	Reports  struct {
		FontPath string `yaml:"font_path"`
	} `yaml:"reports"`
	Log struct {
		Level string `yaml:"level"`
	} `yaml:"log"`
}

// LoadConfig reads the YAML file at path, fills defaults and validates the result.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		path = DefaultPath
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	var cfg Config
	if err := yaml.NewDecoder(f).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 9006
	}
	if c.Database.Driver == "" {
		c.Database.Driver = DriverSQLite
	}
	if c.Database.DSN == "" && c.Database.Driver == DriverSQLite {
		c.Database.DSN = "users.db"
	}
	if c.Email.SMTPPort == 0 {
		c.Email.SMTPPort = 587
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
}

func (c *Config) Validate() error {
	switch c.Database.Driver {
	case DriverSQLite, DriverPostgres:
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}
	if c.Database.DSN == "" {
		return errors.New("database url is required")
	}
	if len(c.Registrants) == 0 {
		return errors.New("at least one registrant must be configured")
	}
	for id, token := range c.Registrants {
		if strings.TrimSpace(id) == "" {
			return errors.New("registrant identifier must not be empty")
		}
		if token == "" {
			return fmt.Errorf("registrant %q has an empty token", id)
		}
	}
	return nil
}
