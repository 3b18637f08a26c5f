// In file: internal/config/config.go

// Package config loads the settings shared by the binaries from a .env file,
// the environment and config.yaml.
package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/dileep-u-k/waterdata-mcp/internal/agent"
	"github.com/dileep-u-k/waterdata-mcp/internal/llm"
	"github.com/dileep-u-k/waterdata-mcp/internal/nwis"
	"github.com/dileep-u-k/waterdata-mcp/internal/session"
	"github.com/dileep-u-k/waterdata-mcp/internal/tools"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	DefaultConfigFile = "config.yaml"
	DefaultPort       = "8080"
)

// AppConfig holds all configuration, loaded from the environment and config files.
type AppConfig struct {
	Agent   agent.Config           `yaml:"agent"`
	Tools   tools.DispatcherConfig `yaml:"tools"`
	NWIS    nwis.Config            `yaml:"nwis"`
	Session session.Config         `yaml:"session"`

	APIKeys   llm.APIKeys `yaml:"-"`
	RedisAddr string      `yaml:"-"`
	Port      string      `yaml:"-"`
	GinMode   string      `yaml:"-"`
}

// Load reads .env (outside release mode), then the YAML file named by
// CONFIG_FILE, then applies environment overrides. A missing YAML file is not
// an error; the defaults apply.
func Load() (*AppConfig, error) {
	// In Docker (GIN_MODE=release) the environment is provided directly.
	if os.Getenv("GIN_MODE") != "release" {
		if err := godotenv.Load(); err != nil {
			log.Println("WARNING: No .env file found for local development.")
		}
	}

	path := os.Getenv("CONFIG_FILE")
	if path == "" {
		path = DefaultConfigFile
	}
	cfg, err := LoadFile(path)
	if err != nil {
		return nil, err
	}
	cfg.applyEnv()
	return cfg, nil
}

// LoadFile parses a YAML config file without consulting the environment.
func LoadFile(path string) (*AppConfig, error) {
	cfg := &AppConfig{}
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		log.Printf("WARNING: %s not found, using defaults.", path)
	case err != nil:
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	}
	if cfg.Agent.Model == "" {
		cfg.Agent.Model = llm.DefaultAnthropicModel
	}
	if cfg.Port == "" {
		cfg.Port = DefaultPort
	}
	cfg.boundToolPayload()
	return cfg, nil
}

// boundToolPayload keeps one tool result within half of the agent's context
// budget, counted at four characters per token.
func (c *AppConfig) boundToolPayload() {
	budget := c.Agent.ContextBudgetTokens
	if budget <= 0 {
		budget = agent.DefaultContextBudgetTokens
	}
	limit := budget * 4 / 2
	chars := c.Tools.MaxPayloadChars
	if chars <= 0 {
		chars = tools.DefaultMaxPayloadChars
	}
	if chars > limit {
		log.Printf("WARNING: tools.max_payload_chars %d exceeds half the context budget; using %d.", chars, limit)
		c.Tools.MaxPayloadChars = limit
	}
}

func (c *AppConfig) applyEnv() {
	c.APIKeys = llm.APIKeys{
		Anthropic: os.Getenv("ANTHROPIC_API_KEY"),
		OpenAI:    os.Getenv("OPENAI_API_KEY"),
		Gemini:    os.Getenv("GEMINI_API_KEY"),
		Mistral:   os.Getenv("MISTRAL_API_KEY"),
	}
	if model := strings.TrimSpace(os.Getenv("AGENT_MODEL")); model != "" {
		c.Agent.Model = model
	}
	c.RedisAddr = os.Getenv("REDIS_ADDR")
	if port := os.Getenv("PORT"); port != "" {
		c.Port = port
	}
	c.GinMode = os.Getenv("GIN_MODE")
}
