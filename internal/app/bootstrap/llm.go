package bootstrap

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"

	appconfig "github.com/voyago/travel-concierge/internal/config"
	"github.com/voyago/travel-concierge/internal/llm"
	"github.com/voyago/travel-concierge/pkg/logging"
)

// BuildLLMClient wires the configured model provider and returns the client
// together with the model identifier to pass on each request.
func BuildLLMClient(ctx context.Context, cfg *appconfig.Config, awsCfg aws.Config, logger *logging.Logger) (llm.Client, string, error) {
	if cfg == nil {
		return nil, "", fmt.Errorf("bootstrap: config is required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	if ctx == nil {
		ctx = context.Background()
	}

	switch cfg.LLMProvider {
	case "bedrock":
		model := strings.TrimSpace(cfg.BedrockModelID)
		if model == "" {
			return nil, "", fmt.Errorf("bootstrap: bedrock provider selected but BEDROCK_MODEL_ID is empty")
		}
		client := llm.NewBedrockClient(bedrockruntime.NewFromConfig(awsCfg))
		logger.Info("llm provider ready", "provider", "bedrock", "model", model)
		return client, model, nil
	case "gemini":
		model := strings.TrimSpace(cfg.GeminiModelID)
		if model == "" {
			return nil, "", fmt.Errorf("bootstrap: gemini provider selected but GEMINI_MODEL_ID is empty")
		}
		client, err := llm.NewGeminiClient(ctx, cfg.GeminiAPIKey, model)
		if err != nil {
			return nil, "", fmt.Errorf("bootstrap: gemini client: %w", err)
		}
		logger.Info("llm provider ready", "provider", "gemini", "model", model)
		return client, model, nil
	default:
		return nil, "", fmt.Errorf("bootstrap: unknown llm provider %q", cfg.LLMProvider)
	}
}
