package analyze

import (
	"fmt"

	"github.com/phuslu/log"
)

// BackendConfig selects and parameterizes the inference backend.
type BackendConfig struct {
	Kind            string // claude, local, or none
	Model           string
	AnthropicAPIKey string
	OllamaURL       string
	Class           string // gpu or cpu, local backend only
}

func NewBackend(cfg BackendConfig, logger log.Logger) (InferenceBackend, error) {
	switch cfg.Kind {
	case "", "none":
		return NopBackend{}, nil
	case "claude":
		return NewClaudeBackend(cfg.AnthropicAPIKey, cfg.Model, logger)
	case "local":
		return NewLocalBackend(cfg.OllamaURL, cfg.Model, Class(cfg.Class), logger), nil
	default:
		return nil, fmt.Errorf("unknown analysis backend %q (want claude, local, or none)", cfg.Kind)
	}
}
