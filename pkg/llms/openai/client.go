package openai

import (
	"github.com/Nephrolytics-ai/audio2art/pkg/model"
	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

const providerName = "openai"

type client struct {
	apiClient openai.Client
}

func newClient(cfg model.GeneratorConfig) (*client, error) {
	requestOpts := make([]option.RequestOption, 0, 3)
	if cfg.URL != "" {
		requestOpts = append(requestOpts, option.WithBaseURL(cfg.URL))
	}
	if cfg.AuthToken != "" {
		requestOpts = append(requestOpts, option.WithAPIKey(cfg.AuthToken))
	}
	// The SDK retries twice by default; every call here is a single attempt.
	requestOpts = append(requestOpts, option.WithMaxRetries(0))

	apiClient := openai.NewClient(requestOpts...)
	return &client{apiClient: apiClient}, nil
}
