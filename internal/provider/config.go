package provider

import "fmt"

// Validate checks that every field the selected backend needs for role is set.
func (c *Config) Validate(role Role) error {
	switch c.Backend {
	case BackendOpenAI:
		if c.OpenAI.APIKey == "" {
			return fmt.Errorf("provider: OPENAI_API_KEY is required for openai backend")
		}
		if c.OpenAI.Models[role] == "" {
			return fmt.Errorf("provider: %s is required for openai backend", modelEnvKey(BackendOpenAI, role))
		}
	case BackendAzure:
		if c.AzureOpenAI.APIKey == "" {
			return fmt.Errorf("provider: AZURE_OPENAI_API_KEY is required for azure backend")
		}
		if c.AzureOpenAI.Endpoint == "" {
			return fmt.Errorf("provider: AZURE_OPENAI_ENDPOINT is required for azure backend")
		}
		if c.AzureOpenAI.Deployments[role] == "" {
			return fmt.Errorf("provider: %s is required for azure backend", modelEnvKey(BackendAzure, role))
		}
	case BackendOllama:
		if c.Ollama.Models[role] == "" {
			return fmt.Errorf("provider: %s is required for ollama backend", modelEnvKey(BackendOllama, role))
		}
	case BackendGemini:
		if c.Gemini.APIKey == "" {
			return fmt.Errorf("provider: GOOGLE_API_KEY is required for gemini backend")
		}
		if c.Gemini.Models[role] == "" {
			return fmt.Errorf("provider: %s is required for gemini backend", modelEnvKey(BackendGemini, role))
		}
	case BackendArk:
		if c.Ark.APIKey == "" {
			return fmt.Errorf("provider: ARK_API_KEY is required for ark backend")
		}
		if c.Ark.Models[role] == "" {
			return fmt.Errorf("provider: %s is required for ark backend", modelEnvKey(BackendArk, role))
		}
	default:
		return fmt.Errorf("provider: unknown backend %q, valid values: openai, azure, ollama, gemini, ark", c.Backend)
	}
	return nil
}

// ModelName returns the model (or deployment) configured for role.
func (c *Config) ModelName(role Role) string {
	switch c.Backend {
	case BackendOpenAI:
		return c.OpenAI.Models[role]
	case BackendAzure:
		return c.AzureOpenAI.Deployments[role]
	case BackendOllama:
		return c.Ollama.Models[role]
	case BackendGemini:
		return c.Gemini.Models[role]
	case BackendArk:
		return c.Ark.Models[role]
	}
	return ""
}

// modelEnvKey names the env var that sets the model for role on backend.
func modelEnvKey(b Backend, role Role) string {
	switch role {
	case RoleRouter:
		return "ROUTER_MODEL"
	case RoleVision:
		return "VISION_MODEL"
	}
	switch b {
	case BackendAzure:
		return "AZURE_OPENAI_DEPLOYMENT"
	case BackendOllama:
		return "OLLAMA_MODEL"
	case BackendGemini:
		return "GEMINI_MODEL"
	case BackendArk:
		return "ARK_MODEL"
	default:
		return "OPENAI_MODEL"
	}
}
