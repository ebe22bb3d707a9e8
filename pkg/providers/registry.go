package providers

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/Nephrolytics-ai/audio2art/pkg/llms/bedrock"
	"github.com/Nephrolytics-ai/audio2art/pkg/llms/gemini"
	"github.com/Nephrolytics-ai/audio2art/pkg/llms/huggingface"
	"github.com/Nephrolytics-ai/audio2art/pkg/llms/openai"
	"github.com/Nephrolytics-ai/audio2art/pkg/model"
)

const (
	OpenAI      = "openai"
	HuggingFace = "huggingface"
	Gemini      = "gemini"
	Bedrock     = "bedrock"
)

var ErrUnknownProvider = errors.New("unknown provider")

// Registry maps provider names to generator constructors. It is built once
// at startup and read-only afterwards.
type Registry struct {
	transcribers map[string]model.NewAudioTranscriptionGeneratorFunc
	images       map[string]model.NewImageGeneratorFunc
}

func NewRegistry() *Registry {
	return &Registry{
		transcribers: map[string]model.NewAudioTranscriptionGeneratorFunc{},
		images:       map[string]model.NewImageGeneratorFunc{},
	}
}

// Default registers every provider compiled into the binary.
func Default() *Registry {
	r := NewRegistry()
	r.RegisterTranscriber(OpenAI, openai.NewAudioTranscriptionGenerator)
	r.RegisterTranscriber(HuggingFace, huggingface.NewAudioTranscriptionGenerator)
	r.RegisterTranscriber(Gemini, gemini.NewAudioTranscriptionGenerator)

	r.RegisterImageGenerator(OpenAI, openai.NewImageGenerator)
	r.RegisterImageGenerator(Gemini, gemini.NewImageGenerator)
	r.RegisterImageGenerator(Bedrock, bedrock.NewImageGenerator)
	return r
}

func (r *Registry) RegisterTranscriber(name string, fn model.NewAudioTranscriptionGeneratorFunc) {
	r.transcribers[normalize(name)] = fn
}

func (r *Registry) RegisterImageGenerator(name string, fn model.NewImageGeneratorFunc) {
	r.images[normalize(name)] = fn
}

func (r *Registry) Transcriber(name string) (model.NewAudioTranscriptionGeneratorFunc, error) {
	fn, ok := r.transcribers[normalize(name)]
	if !ok {
		return nil, fmt.Errorf("%w: transcription provider %q (available: %s)",
			ErrUnknownProvider, name, strings.Join(r.TranscriberNames(), ", "))
	}
	return fn, nil
}

func (r *Registry) ImageGenerator(name string) (model.NewImageGeneratorFunc, error) {
	fn, ok := r.images[normalize(name)]
	if !ok {
		return nil, fmt.Errorf("%w: image provider %q (available: %s)",
			ErrUnknownProvider, name, strings.Join(r.ImageGeneratorNames(), ", "))
	}
	return fn, nil
}

func (r *Registry) TranscriberNames() []string {
	return sortedKeys(r.transcribers)
}

func (r *Registry) ImageGeneratorNames() []string {
	return sortedKeys(r.images)
}

func normalize(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

func sortedKeys[T any](m map[string]T) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
