package gemini

import (
	"context"
	"os"
	"strings"

	"github.com/Nephrolytics-ai/audio2art/pkg/model"
	"github.com/Nephrolytics-ai/audio2art/pkg/utils"
	"google.golang.org/genai"
)

const (
	providerName                   = "gemini"
	defaultTranscriptionModelName  = "gemini-2.5-flash"
	defaultImageModelName          = "imagen-3.0-generate-002"
	envGeminiKey                   = "GEMINI_KEY"
	transcriptionInstructionPrefix = "Transcribe this audio accurately. Return only the transcript text."
)

func newAPIClient(ctx context.Context, cfg model.GeneratorConfig) (*genai.Client, error) {
	clientCfg := &genai.ClientConfig{
		Backend: genai.BackendGeminiAPI,
	}

	token := strings.TrimSpace(cfg.AuthToken)
	if token == "" {
		token = strings.TrimSpace(os.Getenv(envGeminiKey))
	}
	if token != "" {
		clientCfg.APIKey = token
	}

	baseURL := strings.TrimSpace(cfg.URL)
	if baseURL != "" {
		clientCfg.HTTPOptions = genai.HTTPOptions{
			BaseURL: baseURL,
		}
	}

	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		return nil, utils.WrapIfNotNil(err)
	}
	return client, nil
}
