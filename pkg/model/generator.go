package model

import (
	"strconv"
	"strings"
	"time"
)

// GenerationMetadata carries provider bookkeeping for a single call.
type GenerationMetadata map[string]string

const (
	MetadataKeyProvider       = "provider"
	MetadataKeyModel          = "model"
	MetadataKeyLatencyMs      = "latency_ms"
	MetadataKeyInputTokens    = "input_tokens"
	MetadataKeyOutputTokens   = "output_tokens"
	MetadataKeyTotalTokens    = "total_tokens"
	MetadataKeyResponseID     = "response_id"
	MetadataKeyResponseStatus = "response_status"
	MetadataKeyImageCount     = "image_count"
	MetadataKeyImageSize      = "image_size"
	MetadataKeyFailureReason  = "failure_reason"
	MetadataKeyAudioBytes     = "audio_bytes"
	MetadataKeyAudioMIMEType  = "audio_mime_type"
)

// GeneratorConfig is the provider-neutral connection config each provider
// client is built from.
type GeneratorConfig struct {
	URL       string
	AuthToken string
	Model     *string
}

// ResolveModelName returns the configured model or fallback when unset.
func (c GeneratorConfig) ResolveModelName(fallback string) string {
	if c.Model != nil {
		name := strings.TrimSpace(*c.Model)
		if name != "" {
			return name
		}
	}
	return fallback
}

// Merge returns a copy of the metadata with other's keys applied on top.
func (m GenerationMetadata) Merge(other GenerationMetadata) GenerationMetadata {
	out := make(GenerationMetadata, len(m)+len(other))
	for k, v := range m {
		out[k] = v
	}
	for k, v := range other {
		out[k] = v
	}
	return out
}

// NewGenerationMetadata seeds the keys every provider call records.
func NewGenerationMetadata(provider string, modelName string) GenerationMetadata {
	if strings.TrimSpace(modelName) == "" {
		modelName = "unknown"
	}

	return GenerationMetadata{
		MetadataKeyProvider: provider,
		MetadataKeyModel:    modelName,
	}
}

// SetLatency records the time elapsed since start. Providers defer it right
// after creating the metadata.
func (m GenerationMetadata) SetLatency(start time.Time) {
	if m == nil {
		return
	}
	m[MetadataKeyLatencyMs] = strconv.FormatInt(time.Since(start).Milliseconds(), 10)
}
