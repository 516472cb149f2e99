package provider

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/cloudwego/eino/components/model"
)

// Default model names per backend and role.
const (
	defaultOpenAIChatModel   = "gpt-4o"
	defaultOpenAIRouterModel = "gpt-4o-mini"
	defaultOpenAIVisionModel = "gpt-4o"
	defaultOllamaModel       = "llama3.1"
	defaultGeminiModel       = "gemini-1.5-pro"
)

// Option adjusts how a single chat model is constructed.
type Option func(*buildOptions)

type buildOptions struct {
	jsonOutput bool
}

// WithJSONOutput asks the backend to constrain output to a JSON object when
// it supports doing so natively. Backends without a JSON mode ignore it.
func WithJSONOutput() Option {
	return func(o *buildOptions) { o.jsonOutput = true }
}

// ConfigFromEnv reads provider configuration from environment variables.
// MODEL_PROVIDER selects the backend; each provider uses its own native
// credential env vars.
//
// Environment variables:
//
//	MODEL_PROVIDER = openai | azure | ollama | gemini | ark (default: openai)
//
//	OpenAI:  OPENAI_API_KEY, OPENAI_MODEL (default: gpt-4o), OPENAI_BASE_URL
//	Azure:   AZURE_OPENAI_API_KEY, AZURE_OPENAI_ENDPOINT, AZURE_OPENAI_DEPLOYMENT,
//	         AZURE_OPENAI_API_VERSION (default: 2024-06-01)
//	Ollama:  OLLAMA_HOST (default: http://localhost:11434), OLLAMA_MODEL (default: llama3.1)
//	Gemini:  GOOGLE_API_KEY, GEMINI_MODEL (default: gemini-1.5-pro)
//	Ark:     ARK_API_KEY, ARK_MODEL
//
//	Roles:   ROUTER_MODEL, VISION_MODEL (default: the chat model; on openai
//	         gpt-4o-mini and gpt-4o)
//	Shared:  MODEL_MAX_TOKENS (default: 1024), MODEL_TEMPERATURE (optional)
func ConfigFromEnv() *Config {
	openaiChat := getEnvOrDefault("OPENAI_MODEL", defaultOpenAIChatModel)
	azureChat := os.Getenv("AZURE_OPENAI_DEPLOYMENT")
	ollamaChat := getEnvOrDefault("OLLAMA_MODEL", defaultOllamaModel)
	geminiChat := getEnvOrDefault("GEMINI_MODEL", defaultGeminiModel)
	arkChat := os.Getenv("ARK_MODEL")

	return &Config{
		Backend: Backend(getEnvOrDefault("MODEL_PROVIDER", string(BackendOpenAI))),
		OpenAI: ProviderOpenAI{
			APIKey:  os.Getenv("OPENAI_API_KEY"),
			BaseURL: os.Getenv("OPENAI_BASE_URL"),
			Models: roleModels(openaiChat,
				getEnvOrDefault("ROUTER_MODEL", defaultOpenAIRouterModel),
				getEnvOrDefault("VISION_MODEL", defaultOpenAIVisionModel)),
		},
		AzureOpenAI: ProviderAzureOpenAI{
			APIKey:      os.Getenv("AZURE_OPENAI_API_KEY"),
			Endpoint:    os.Getenv("AZURE_OPENAI_ENDPOINT"),
			APIVersion:  getEnvOrDefault("AZURE_OPENAI_API_VERSION", "2024-06-01"),
			Deployments: inheritRoles(azureChat),
		},
		Ollama: ProviderOllama{
			Host:   getEnvOrDefault("OLLAMA_HOST", "http://localhost:11434"),
			Models: inheritRoles(ollamaChat),
		},
		Gemini: ProviderGemini{
			APIKey: os.Getenv("GOOGLE_API_KEY"),
			Models: inheritRoles(geminiChat),
		},
		Ark: ProviderArk{
			APIKey: os.Getenv("ARK_API_KEY"),
			Models: inheritRoles(arkChat),
		},
		Tuning: SharedTuning{
			MaxTokens:   getEnvInt("MODEL_MAX_TOKENS", 1024),
			Temperature: getEnvFloat32Ptr("MODEL_TEMPERATURE"),
		},
	}
}

// NewFromEnv constructs the chat model for role from environment variables.
func NewFromEnv(ctx context.Context, role Role, opts ...Option) (model.BaseChatModel, error) {
	return New(ctx, ConfigFromEnv(), role, opts...)
}

// New constructs a chat model for role from an explicit Config, delegating to
// the appropriate backend factory function. It validates the config first so
// callers get a clear error at startup rather than on the first request.
func New(ctx context.Context, cfg *Config, role Role, opts ...Option) (model.BaseChatModel, error) {
	if err := cfg.Validate(role); err != nil {
		return nil, err
	}
	var bo buildOptions
	for _, o := range opts {
		o(&bo)
	}
	name := cfg.ModelName(role)

	switch cfg.Backend {
	case BackendOpenAI:
		return newOpenAI(ctx, cfg, name, bo)
	case BackendAzure:
		return newAzure(ctx, cfg, name, bo)
	case BackendOllama:
		return newOllama(ctx, cfg, name)
	case BackendGemini:
		return newGemini(ctx, cfg, name)
	case BackendArk:
		return newArk(ctx, cfg, name)
	default:
		return nil, fmt.Errorf("provider: unknown backend %q", cfg.Backend)
	}
}

// roleModels builds the role map from explicit names.
func roleModels(chat, router, vision string) map[Role]string {
	return map[Role]string{RoleChat: chat, RoleRouter: router, RoleVision: vision}
}

// inheritRoles uses chat for every role unless ROUTER_MODEL or VISION_MODEL
// name a different model on the same backend.
func inheritRoles(chat string) map[Role]string {
	return roleModels(chat, getEnvOrDefault("ROUTER_MODEL", chat), getEnvOrDefault("VISION_MODEL", chat))
}

// getEnvOrDefault returns the value of the named environment variable, or
// fallback if the variable is unset or empty.
func getEnvOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// getEnvInt returns the integer value of the named environment variable, or
// fallback if the variable is unset, empty, or not parseable.
func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

// getEnvFloat32Ptr returns the parsed value of the named environment
// variable, or nil if it is unset or not parseable.
func getEnvFloat32Ptr(key string) *float32 {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	f, err := strconv.ParseFloat(v, 32)
	if err != nil {
		return nil
	}
	f32 := float32(f)
	return &f32
}
