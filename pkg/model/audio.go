package model

import (
	"context"
	"strings"
)

// TranscriptionFallbackMessage is returned in place of a transcript whenever
// the speech model produced nothing usable.
const TranscriptionFallbackMessage = "⚠️ Could not transcribe the audio."

type AudioTranscriptionGenerator interface {
	Generate(ctx context.Context) (string, GenerationMetadata, error)
}

// NewAudioTranscriptionGeneratorFunc builds a generator bound to one audio file.
type NewAudioTranscriptionGeneratorFunc func(filePath string, opts AudioOptions) (AudioTranscriptionGenerator, error)

type AudioOptions struct {
	URL       string
	AuthToken string
	Model     string
	// Language is an ISO-639-1 hint. Empty lets the model detect it.
	Language string
	// Prompt optionally biases the recognizer (vocabulary, spelling).
	Prompt string
	// MIMEType of the audio file, when the caller already knows it.
	MIMEType string
}

func (o AudioOptions) GeneratorConfig() GeneratorConfig {
	cfg := GeneratorConfig{
		URL:       o.URL,
		AuthToken: o.AuthToken,
	}
	if name := strings.TrimSpace(o.Model); name != "" {
		cfg.Model = &name
	}
	return cfg
}

type TranscriptionResult struct {
	Text     string
	Metadata GenerationMetadata
}

// Usable reports whether the transcript can be used as an image prompt.
func (r TranscriptionResult) Usable() bool {
	return strings.TrimSpace(r.Text) != "" && r.Text != TranscriptionFallbackMessage
}

func FallbackTranscription(meta GenerationMetadata) TranscriptionResult {
	return TranscriptionResult{Text: TranscriptionFallbackMessage, Metadata: meta}
}
