package config

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/cloudwego/eino-ext/components/model/ark"
	"github.com/cloudwego/eino/components/model"
)

// Config aggregates every setting the server reads at startup.
type Config struct {
	Server    ServerConfig
	Messenger MessengerConfig
	NLU       NLUConfig
	Catalog   CatalogConfig
}

// Load parses the environment. Every missing required credential is an
// error; the caller treats Load failure as fatal.
func Load() (*Config, error) {
	server, err := loadServerConfig()
	if err != nil {
		return nil, err
	}

	msgr, err := loadMessengerConfig()
	if err != nil {
		return nil, err
	}

	nlu, err := loadNLUConfig()
	if err != nil {
		return nil, err
	}

	return &Config{
		Server:    server,
		Messenger: msgr,
		NLU:       nlu,
		Catalog:   loadCatalogConfig(),
	}, nil
}

// ServerConfig describes the HTTP listener.
type ServerConfig struct {
	Addr          string
	AllowedOrigin string
}

func loadServerConfig() (ServerConfig, error) {
	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = "8080"
	}

	addr := port
	if !strings.Contains(port, ":") {
		if strings.Contains(port, " ") {
			return ServerConfig{}, fmt.Errorf("invalid PORT value: %q", port)
		}
		addr = ":" + port
	}

	return ServerConfig{
		Addr:          addr,
		AllowedOrigin: getEnvOrDefault("ALLOWED_ORIGIN", "*"),
	}, nil
}

// MessengerConfig carries the platform credentials. All three are required.
type MessengerConfig struct {
	PageAccessToken string
	VerifyToken     string
	AppSecret       string
}

func loadMessengerConfig() (MessengerConfig, error) {
	cfg := MessengerConfig{
		PageAccessToken: strings.TrimSpace(os.Getenv("PAGE_ACCESS_TOKEN")),
		VerifyToken:     strings.TrimSpace(os.Getenv("VERIFY_TOKEN")),
		AppSecret:       strings.TrimSpace(os.Getenv("APP_SECRET")),
	}

	var missing []string
	if cfg.PageAccessToken == "" {
		missing = append(missing, "PAGE_ACCESS_TOKEN")
	}
	if cfg.VerifyToken == "" {
		missing = append(missing, "VERIFY_TOKEN")
	}
	if cfg.AppSecret == "" {
		missing = append(missing, "APP_SECRET")
	}
	if len(missing) > 0 {
		return MessengerConfig{}, fmt.Errorf("missing required messenger credentials: %s", strings.Join(missing, ", "))
	}

	return cfg, nil
}

// NLUConfig describes the intent engine's chat model.
type NLUConfig struct {
	APIKey      string
	Model       string
	BaseURL     string
	Region      string
	Temperature *float64
	MaxTokens   *int
}

func loadNLUConfig() (NLUConfig, error) {
	temperature, err := parseOptionalFloatEnv("NLU_TEMPERATURE")
	if err != nil {
		return NLUConfig{}, err
	}

	maxTokens, err := parseOptionalIntEnv("NLU_MAX_TOKENS")
	if err != nil {
		return NLUConfig{}, err
	}

	cfg := NLUConfig{
		APIKey:      strings.TrimSpace(os.Getenv("ARK_API_KEY")),
		Model:       strings.TrimSpace(os.Getenv("ARK_MODEL")),
		BaseURL:     getEnvOrDefault("ARK_BASE_URL", "https://ark.cn-beijing.volces.com/api/v3"),
		Region:      getEnvOrDefault("ARK_REGION", "cn-beijing"),
		Temperature: temperature,
		MaxTokens:   maxTokens,
	}

	var missing []string
	if cfg.APIKey == "" {
		missing = append(missing, "ARK_API_KEY")
	}
	if cfg.Model == "" {
		missing = append(missing, "ARK_MODEL")
	}
	if len(missing) > 0 {
		return NLUConfig{}, fmt.Errorf("missing required NLU credentials: %s", strings.Join(missing, ", "))
	}

	return cfg, nil
}

// NewChatModel builds the chat model instance backing the NLU engine.
func (c NLUConfig) NewChatModel(ctx context.Context) (model.ChatModel, error) {
	var temperature *float32
	if c.Temperature != nil {
		val := float32(*c.Temperature)
		temperature = &val
	}

	return ark.NewChatModel(ctx, &ark.ChatModelConfig{
		BaseURL:     c.BaseURL,
		Region:      c.Region,
		APIKey:      c.APIKey,
		Model:       c.Model,
		MaxTokens:   c.MaxTokens,
		Temperature: temperature,
	})
}

// CatalogConfig points at the static reply table.
type CatalogConfig struct {
	Path string
}

func loadCatalogConfig() CatalogConfig {
	return CatalogConfig{Path: getEnvOrDefault("CATALOG_PATH", "data/catalog.yaml")}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func parseOptionalFloatEnv(key string) (*float64, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}

func parseOptionalIntEnv(key string) (*int, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.Atoi(value)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}
