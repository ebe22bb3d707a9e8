package providers

import (
	"context"
	"errors"
	"testing"

	"github.com/Nephrolytics-ai/audio2art/pkg/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultRegistersAllProviders(t *testing.T) {
	r := Default()

	assert.Equal(t, []string{Gemini, HuggingFace, OpenAI}, r.TranscriberNames())
	assert.Equal(t, []string{Bedrock, Gemini, OpenAI}, r.ImageGeneratorNames())
}

func TestLookupIsCaseInsensitive(t *testing.T) {
	r := Default()

	fn, err := r.Transcriber(" OpenAI ")
	require.NoError(t, err)
	assert.NotNil(t, fn)

	fn2, err := r.ImageGenerator("BEDROCK")
	require.NoError(t, err)
	assert.NotNil(t, fn2)
}

func TestUnknownProvider(t *testing.T) {
	r := Default()

	_, err := r.Transcriber("bedrock")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknownProvider))
	assert.Contains(t, err.Error(), "available: gemini, huggingface, openai")

	_, err = r.ImageGenerator("huggingface")
	assert.True(t, errors.Is(err, ErrUnknownProvider))
}

type stubImageGenerator struct{}

func (stubImageGenerator) Generate(ctx context.Context) (model.GeneratedImage, model.GenerationMetadata, error) {
	return model.GeneratedImage{URL: "https://example.com/a.png"}, nil, nil
}

func TestRegisterOverridesExisting(t *testing.T) {
	r := Default()
	r.RegisterImageGenerator(OpenAI, func(prompt string, opts model.ImageOptions) (model.ImageGenerator, error) {
		return stubImageGenerator{}, nil
	})

	fn, err := r.ImageGenerator(OpenAI)
	require.NoError(t, err)
	generator, err := fn("x", model.ImageOptions{})
	require.NoError(t, err)
	image, _, err := generator.Generate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/a.png", image.URL)
}
