package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config is the full process configuration, loaded from environment
// variables. Required endpoints (OpenRouter key, MCP URL) abort startup when
// missing; everything else has a usable default.
type Config struct {
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	OpenRouter OpenRouterConfig
	Anthropic  AnthropicConfig
	MCP        MCPConfig
	Telegram   TelegramConfig
	Web        WebConfig
	Agent      AgentConfig
}

// OpenRouterConfig configures the primary completion provider. OpenRouter is
// OpenAI-compatible; SiteURL/SiteName become the attribution headers the API
// asks integrators to send.
type OpenRouterConfig struct {
	APIKey   string `env:"OPENROUTER_API_KEY"`
	BaseURL  string `env:"OPENROUTER_BASE_URL" envDefault:"https://openrouter.ai/api/v1"`
	Model    string `env:"OPENROUTER_MODEL" envDefault:"deepseek/deepseek-chat-v3.1:free"`
	SiteURL  string `env:"YOUR_SITE_URL"`
	SiteName string `env:"YOUR_SITE_NAME"`
}

// AnthropicConfig configures the optional Claude fallback provider.
type AnthropicConfig struct {
	APIKey string `env:"ANTHROPIC_API_KEY"`
	Model  string `env:"ANTHROPIC_MODEL" envDefault:"claude-sonnet-4-5-20250929"`
}

// MCPConfig points at the remote tool gateway (streamable HTTP).
type MCPConfig struct {
	ServerURL   string        `env:"MCP_SERVER_URL"`
	CallTimeout time.Duration `env:"MCP_CALL_TIMEOUT" envDefault:"60s"`
}

type TelegramConfig struct {
	Token   string `env:"TELEGRAM_BOT_TOKEN"`
	Enabled bool   `env:"TELEGRAM_ENABLED" envDefault:"true"`
}

// WebConfig configures the WebSocket transport. AllowedOrigins is a
// comma-separated list checked during the upgrade handshake.
type WebConfig struct {
	Addr           string        `env:"WEB_ADDR" envDefault:":5055"`
	AllowedOrigins []string      `env:"WEB_ALLOWED_ORIGINS" envSeparator:","`
	Enabled        bool          `env:"WEB_ENABLED" envDefault:"true"`
	PingInterval   time.Duration `env:"WEB_PING_INTERVAL" envDefault:"25s"`
	WriteTimeout   time.Duration `env:"WEB_WRITE_TIMEOUT" envDefault:"10s"`
	ReadTimeout    time.Duration `env:"WEB_READ_TIMEOUT" envDefault:"60s"`
}

type AgentConfig struct {
	MaxToolRounds     int           `env:"AGENT_MAX_TOOL_ROUNDS" envDefault:"8"`
	MaxTokens         int           `env:"AGENT_MAX_TOKENS" envDefault:"4096"`
	Temperature       float64       `env:"AGENT_TEMPERATURE" envDefault:"0.7"`
	CompletionTimeout time.Duration `env:"AGENT_COMPLETION_TIMEOUT" envDefault:"120s"`
}

// Load parses the environment into a Config and validates required fields.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration invariants that cannot be defaulted.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.OpenRouter.APIKey) == "" {
		return fmt.Errorf("OPENROUTER_API_KEY is required")
	}
	for _, ch := range c.OpenRouter.APIKey {
		if ch > 127 {
			return fmt.Errorf("OPENROUTER_API_KEY contains non-ASCII characters")
		}
	}
	if strings.TrimSpace(c.MCP.ServerURL) == "" {
		return fmt.Errorf("MCP_SERVER_URL is required")
	}
	if c.Telegram.Enabled && strings.TrimSpace(c.Telegram.Token) == "" {
		return fmt.Errorf("TELEGRAM_BOT_TOKEN is required when the Telegram channel is enabled")
	}
	if c.Web.Enabled && len(c.Web.AllowedOrigins) == 0 {
		return fmt.Errorf("WEB_ALLOWED_ORIGINS is empty; set it to your frontend origin (e.g. http://localhost:3000)")
	}
	if c.Agent.MaxToolRounds <= 0 {
		c.Agent.MaxToolRounds = 8
	}
	return nil
}
