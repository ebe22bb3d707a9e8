package huggingface

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/Nephrolytics-ai/audio2art/pkg/model"
	"github.com/Nephrolytics-ai/audio2art/pkg/utils"
)

const (
	providerName        = "huggingface"
	defaultASRModelName = "openai/whisper-small"
	defaultBaseURL      = "https://router.huggingface.co"
	defaultHTTPTimeout  = 120 * time.Second
	envHFToken          = "HF_TOKEN"
	envHFBaseURL        = "HF_BASE_URL"
	envHFASRModel       = "HF_ASR_MODEL"
)

type apiClient struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

type speechRecognitionResponse struct {
	Text   string                   `json:"text"`
	Chunks []speechRecognitionChunk `json:"chunks,omitempty"`
}

type speechRecognitionChunk struct {
	Text      string    `json:"text"`
	Timestamp []float64 `json:"timestamp"`
}

// The inference API reports errors either as {"error":"..."} or
// {"error":{"message":"..."}} depending on the backend.
type inferenceErrorResponse struct {
	Error json.RawMessage `json:"error"`
}

func newAPIClient(cfg model.GeneratorConfig) (*apiClient, error) {
	apiKey := strings.TrimSpace(cfg.AuthToken)
	if apiKey == "" {
		apiKey = strings.TrimSpace(os.Getenv(envHFToken))
	}
	if apiKey == "" {
		return nil, utils.WrapIfNotNil(errors.New("auth token is required (set AuthToken or HF_TOKEN)"))
	}

	baseURL := strings.TrimSpace(cfg.URL)
	if baseURL == "" {
		baseURL = strings.TrimSpace(os.Getenv(envHFBaseURL))
	}
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	baseURL = strings.TrimSuffix(baseURL, "/")

	return &apiClient{
		httpClient: &http.Client{Timeout: defaultHTTPTimeout},
		baseURL:    baseURL,
		apiKey:     apiKey,
	}, nil
}

func (c *apiClient) recognizeSpeech(
	ctx context.Context,
	modelName string,
	mimeType string,
	audio []byte,
) (*speechRecognitionResponse, error) {
	httpRequest, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		c.baseURL+"/hf-inference/models/"+modelName,
		bytes.NewReader(audio),
	)
	if err != nil {
		return nil, utils.WrapIfNotNil(err)
	}

	httpRequest.Header.Set("Content-Type", mimeType)
	httpRequest.Header.Set("Accept", "application/json")
	httpRequest.Header.Set("Authorization", "Bearer "+c.apiKey)

	httpResponse, err := c.httpClient.Do(httpRequest)
	if err != nil {
		return nil, utils.WrapIfNotNil(err)
	}
	defer httpResponse.Body.Close()

	responseBits, err := io.ReadAll(httpResponse.Body)
	if err != nil {
		return nil, utils.WrapIfNotNil(err)
	}

	if httpResponse.StatusCode < 200 || httpResponse.StatusCode >= 300 {
		return nil, utils.WrapIfNotNil(fmt.Errorf(
			"huggingface API error (%d): %s",
			httpResponse.StatusCode,
			inferenceErrorMessage(responseBits),
		))
	}

	response := speechRecognitionResponse{}
	err = json.Unmarshal(responseBits, &response)
	if err != nil {
		return nil, utils.WrapIfNotNil(err)
	}
	return &response, nil
}

func inferenceErrorMessage(body []byte) string {
	message := strings.TrimSpace(string(body))

	apiErr := inferenceErrorResponse{}
	if err := json.Unmarshal(body, &apiErr); err == nil && len(apiErr.Error) > 0 {
		var plain string
		if json.Unmarshal(apiErr.Error, &plain) == nil && strings.TrimSpace(plain) != "" {
			return strings.TrimSpace(plain)
		}
		var nested struct {
			Message string `json:"message"`
		}
		if json.Unmarshal(apiErr.Error, &nested) == nil && strings.TrimSpace(nested.Message) != "" {
			return strings.TrimSpace(nested.Message)
		}
	}

	if message == "" {
		message = "unknown huggingface error"
	}
	return message
}

func resolveASRModelName(cfg model.GeneratorConfig) string {
	if name := cfg.ResolveModelName(""); name != "" {
		return name
	}

	fromEnv := strings.TrimSpace(os.Getenv(envHFASRModel))
	if fromEnv != "" {
		return fromEnv
	}
	return defaultASRModelName
}
