package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"HABIT_CONFIG", "DB_HOST", "DB_PORT", "DB_USER", "DB_PASSWORD", "DB_NAME", "DB_SSLMODE",
		"HTTP_ADDR", "JWT_SECRET", "LOG_LEVEL", "CORS_ORIGINS",
		"AI_PROVIDER", "AI_SERVER_API_KEY", "GEMINI_API_KEY", "AI_MODEL_NAME", "AI_JSON_MODE",
		"OPENAI_API_KEY", "OPENAI_MODEL", "ORACLE_TIMEOUT",
	} {
		t.Setenv(k, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 5432, cfg.DBPort)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, ProviderGemini, cfg.AIProvider)
	assert.Equal(t, time.Duration(0), cfg.OracleTimeout)
	assert.Equal(t, "host= port=5432 user= password= dbname= sslmode=disable", cfg.ConnString())
}

func TestLoad_Env(t *testing.T) {
	clearEnv(t)
	t.Setenv("DB_HOST", "db")
	t.Setenv("DB_PORT", "6543")
	t.Setenv("DB_SSLMODE", "require")
	t.Setenv("GEMINI_API_KEY", "legacy-key")
	t.Setenv("AI_SERVER_API_KEY", "server-key")
	t.Setenv("AI_MODEL_NAME", "gemini-2.0-flash")
	t.Setenv("AI_JSON_MODE", "true")
	t.Setenv("ORACLE_TIMEOUT", "45s")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "db", cfg.DBHost)
	assert.Equal(t, 6543, cfg.DBPort)
	assert.Contains(t, cfg.ConnString(), "sslmode=require")
	assert.Equal(t, "server-key", cfg.AIKey, "AI_SERVER_API_KEY wins over GEMINI_API_KEY")
	assert.True(t, cfg.AIJSONMode)
	assert.Equal(t, 45*time.Second, cfg.OracleTimeout)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOrigins)
}

func TestLoad_BadEnv(t *testing.T) {
	for key, value := range map[string]string{
		"DB_PORT":        "five",
		"AI_JSON_MODE":   "maybe",
		"ORACLE_TIMEOUT": "soon",
	} {
		t.Run(key, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(key, value)
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestLoad_YAMLThenEnv(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "habit.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
db_host: yaml-host
http_addr: ":9090"
ai_provider: openai
openai_api_key: sk-yaml
oracle_timeout: 20s
`), 0o600))
	t.Setenv("HABIT_CONFIG", path)
	t.Setenv("HTTP_ADDR", ":7070")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "yaml-host", cfg.DBHost)
	assert.Equal(t, ":7070", cfg.HTTPAddr)
	assert.Equal(t, ProviderOpenAI, cfg.AIProvider)
	assert.Equal(t, "sk-yaml", cfg.OpenAIKey)
	assert.Equal(t, "gpt-4o-mini", cfg.OpenAIModel)
	assert.Equal(t, 20*time.Second, cfg.OracleTimeout)
}

func TestLoad_MissingFile(t *testing.T) {
	clearEnv(t)
	t.Setenv("HABIT_CONFIG", filepath.Join(t.TempDir(), "nope.yaml"))
	_, err := Load()
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	ok := Default()
	ok.AIKey, ok.AIModel, ok.JWTSecret = "k", "m", "s"
	require.NoError(t, ok.Validate())

	tests := map[string]func(c *Config){
		"no key":           func(c *Config) { c.AIKey = "" },
		"no model":         func(c *Config) { c.AIModel = "" },
		"no secret":        func(c *Config) { c.JWTSecret = "" },
		"unknown provider": func(c *Config) { c.AIProvider = "llama" },
		"openai no key":    func(c *Config) { c.AIProvider = ProviderOpenAI },
		"negative timeout": func(c *Config) { c.OracleTimeout = -time.Second },
	}
	for name, mutate := range tests {
		t.Run(name, func(t *testing.T) {
			c := *ok
			mutate(&c)
			assert.Error(t, c.Validate())
		})
	}
}
