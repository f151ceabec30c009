package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
)

type Config struct {
	DBHost     string `yaml:"db_host"`
	DBPort     int    `yaml:"db_port"`
	DBUser     string `yaml:"db_user"`
	DBPassword string `yaml:"db_password"`
	DBName     string `yaml:"db_name"`
	DBSSLMode  string `yaml:"db_sslmode"`

	HTTPAddr    string   `yaml:"http_addr"`
	JWTSecret   string   `yaml:"jwt_secret"`
	CORSOrigins []string `yaml:"cors_origins"`
	LogLevel    string   `yaml:"log_level"`

	AIProvider string `yaml:"ai_provider"`
	AIKey      string `yaml:"ai_api_key"`
	AIModel    string `yaml:"ai_model"`
	AIJSONMode bool   `yaml:"ai_json_mode"`

	OpenAIKey   string `yaml:"openai_api_key"`
	OpenAIModel string `yaml:"openai_model"`

	// OracleTimeout bounds one oracle call; zero means no limit.
	OracleTimeout time.Duration `yaml:"oracle_timeout"`
}

func Default() *Config {
	return &Config{
		DBPort:      5432,
		DBSSLMode:   "disable",
		HTTPAddr:    ":8080",
		CORSOrigins: []string{"*"},
		LogLevel:    "info",
		AIProvider:  ProviderGemini,
		OpenAIModel: "gpt-4o-mini",
	}
}

// Load builds the config from defaults, then the YAML file named by
// HABIT_CONFIG (if any), then the environment.
func Load() (*Config, error) {
	cfg := Default()

	if path := os.Getenv("HABIT_CONFIG"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := cfg.applyEnvOverrides(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnvOverrides() error {
	setString(&c.DBHost, "DB_HOST")
	setString(&c.DBUser, "DB_USER")
	setString(&c.DBPassword, "DB_PASSWORD")
	setString(&c.DBName, "DB_NAME")
	setString(&c.DBSSLMode, "DB_SSLMODE")
	setString(&c.HTTPAddr, "HTTP_ADDR")
	setString(&c.JWTSecret, "JWT_SECRET")
	setString(&c.LogLevel, "LOG_LEVEL")
	setString(&c.AIProvider, "AI_PROVIDER")
	setString(&c.AIKey, "GEMINI_API_KEY")
	setString(&c.AIKey, "AI_SERVER_API_KEY")
	setString(&c.AIModel, "AI_MODEL_NAME")
	setString(&c.OpenAIKey, "OPENAI_API_KEY")
	setString(&c.OpenAIModel, "OPENAI_MODEL")

	if v := os.Getenv("DB_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("DB_PORT: %w", err)
		}
		c.DBPort = port
	}
	if v := os.Getenv("AI_JSON_MODE"); v != "" {
		on, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("AI_JSON_MODE: %w", err)
		}
		c.AIJSONMode = on
	}
	if v := os.Getenv("ORACLE_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("ORACLE_TIMEOUT: %w", err)
		}
		c.OracleTimeout = d
	}
	if v := os.Getenv("CORS_ORIGINS"); v != "" {
		var origins []string
		for _, o := range strings.Split(v, ",") {
			if o = strings.TrimSpace(o); o != "" {
				origins = append(origins, o)
			}
		}
		c.CORSOrigins = origins
	}
	return nil
}

func setString(dst *string, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		*dst = v
	}
}

// Validate checks what the server cannot start without: the oracle
// credentials for the selected provider and the JWT secret.
func (c *Config) Validate() error {
	switch strings.ToLower(c.AIProvider) {
	case ProviderGemini:
		if c.AIKey == "" {
			return fmt.Errorf("AI_SERVER_API_KEY is not set")
		}
		if c.AIModel == "" {
			return fmt.Errorf("AI_MODEL_NAME is not set")
		}
	case ProviderOpenAI:
		if c.OpenAIKey == "" {
			return fmt.Errorf("OPENAI_API_KEY is not set")
		}
		if c.OpenAIModel == "" {
			return fmt.Errorf("OPENAI_MODEL is not set")
		}
	default:
		return fmt.Errorf("unknown AI_PROVIDER %q", c.AIProvider)
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is not set")
	}
	if c.OracleTimeout < 0 {
		return fmt.Errorf("ORACLE_TIMEOUT must not be negative")
	}
	return nil
}

func (c *Config) ConnString() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName, c.DBSSLMode,
	)
}
