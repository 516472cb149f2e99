// Package provider selects and constructs eino chat models at runtime.
// Three model roles are built from one backend configuration: the grounded
// answer model, the intent router model and the vision model.
// Supported backends: OpenAI, Azure OpenAI, Ollama, Google Gemini, Volcengine Ark.
package provider

// Backend enumerates the supported LLM inference providers.
type Backend string

const (
	// BackendOpenAI selects the OpenAI API.
	BackendOpenAI Backend = "openai"
	// BackendAzure selects Azure OpenAI Service.
	BackendAzure Backend = "azure"
	// BackendOllama selects a locally running Ollama instance.
	BackendOllama Backend = "ollama"
	// BackendGemini selects Google Gemini via AI Studio.
	BackendGemini Backend = "gemini"
	// BackendArk selects Volcengine Ark.
	BackendArk Backend = "ark"
)

// Role names the job a chat model is built for. Each role may resolve to a
// different model name on the same backend.
type Role string

const (
	// RoleChat answers grounded questions and must return JSON.
	RoleChat Role = "chat"
	// RoleRouter classifies a question into an intent label.
	RoleRouter Role = "router"
	// RoleVision describes screenshots.
	RoleVision Role = "vision"
)

// ProviderOpenAI holds OpenAI settings.
type ProviderOpenAI struct {
	APIKey  string
	BaseURL string
	// Models maps each role to a model name.
	Models map[Role]string
}

// ProviderAzureOpenAI holds Azure OpenAI settings. Deployments are keyed by role.
type ProviderAzureOpenAI struct {
	APIKey      string
	Endpoint    string
	APIVersion  string
	Deployments map[Role]string
}

// ProviderOllama holds Ollama settings.
type ProviderOllama struct {
	Host   string
	Models map[Role]string
}

// ProviderGemini holds Google Gemini settings.
type ProviderGemini struct {
	APIKey string
	Models map[Role]string
}

// ProviderArk holds Volcengine Ark settings. Models are Ark endpoint IDs.
type ProviderArk struct {
	APIKey string
	Models map[Role]string
}

// SharedTuning holds generation settings applied to every backend.
type SharedTuning struct {
	// MaxTokens caps the number of tokens generated per response.
	MaxTokens int
	// Temperature is the default temperature. Nil leaves the provider default
	// in place; callers may still override per request.
	Temperature *float32
}

// Config holds all provider-level configuration resolved from environment
// variables or explicit caller-supplied values.
type Config struct {
	Backend     Backend
	OpenAI      ProviderOpenAI
	AzureOpenAI ProviderAzureOpenAI
	Ollama      ProviderOllama
	Gemini      ProviderGemini
	Ark         ProviderArk
	Tuning      SharedTuning
}
