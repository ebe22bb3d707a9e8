package openai

import (
	"context"
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/Nephrolytics-ai/audio2art/pkg/logging"
	"github.com/Nephrolytics-ai/audio2art/pkg/model"
	"github.com/Nephrolytics-ai/audio2art/pkg/utils"
	openai "github.com/openai/openai-go/v3"
)

const defaultAudioTranscriptionModelName = "whisper-1"

type audioTranscriptionGenerator struct {
	client   *client
	filePath string
	opts     model.AudioOptions
}

// NewAudioTranscriptionGenerator transcribes one audio file through the
// audio/transcriptions endpoint. Pointing opts.URL at a self-hosted
// OpenAI-compatible Whisper server keeps the model local.
func NewAudioTranscriptionGenerator(
	filePath string,
	opts model.AudioOptions,
) (model.AudioTranscriptionGenerator, error) {
	if strings.TrimSpace(filePath) == "" {
		return nil, utils.WrapIfNotNil(errors.New("file path is required"))
	}

	c, err := newClient(opts.GeneratorConfig())
	if err != nil {
		return nil, utils.WrapIfNotNil(err)
	}

	return &audioTranscriptionGenerator{
		client:   c,
		filePath: filePath,
		opts:     opts,
	}, nil
}

func (g *audioTranscriptionGenerator) Generate(ctx context.Context) (string, model.GenerationMetadata, error) {
	start := time.Now()
	modelName := resolveAudioTranscriptionModelName(g.opts)
	meta := model.NewGenerationMetadata(providerName, modelName)
	defer meta.SetLatency(start)

	logging.NewLogger(ctx).Infof(
		"audio_transcription_request provider=%s model=%q",
		providerName,
		modelName,
	)

	transcript, response, err := g.client.runAudioTranscription(ctx, g.filePath, g.opts)
	if err != nil {
		logging.NewLogger(ctx).Errorf("error: %v", err)
		return "", meta, utils.WrapIfNotNil(err)
	}

	applyOpenAIAudioTranscriptionMetadata(meta, response)
	return transcript, meta, nil
}

func (c *client) runAudioTranscription(
	ctx context.Context,
	filePath string,
	opts model.AudioOptions,
) (string, *openai.AudioTranscriptionNewResponseUnion, error) {
	if strings.TrimSpace(filePath) == "" {
		return "", nil, utils.WrapIfNotNil(errors.New("file path is required"))
	}

	file, err := os.Open(filePath)
	if err != nil {
		return "", nil, utils.WrapIfNotNil(err)
	}
	defer func() {
		_ = file.Close()
	}()

	params := openai.AudioTranscriptionNewParams{
		File:           file,
		Model:          openai.AudioModel(resolveAudioTranscriptionModelName(opts)),
		ResponseFormat: openai.AudioResponseFormatJSON,
	}
	if language := strings.TrimSpace(opts.Language); language != "" {
		params.Language = openai.String(language)
	}
	if prompt := strings.TrimSpace(opts.Prompt); prompt != "" {
		params.Prompt = openai.String(prompt)
	}

	response, err := c.apiClient.Audio.Transcriptions.New(ctx, params)
	if err != nil {
		return "", nil, utils.WrapIfNotNil(err)
	}
	if response == nil {
		return "", nil, utils.WrapIfNotNil(errors.New("audio transcriptions API returned nil response"))
	}

	// The text goes on to become the image prompt, so it is returned untouched.
	if strings.TrimSpace(response.Text) == "" {
		return "", response, utils.WrapIfNotNil(errors.New("transcription response is empty"))
	}

	return response.Text, response, nil
}

func resolveAudioTranscriptionModelName(opts model.AudioOptions) string {
	return opts.GeneratorConfig().ResolveModelName(defaultAudioTranscriptionModelName)
}

func applyOpenAIAudioTranscriptionMetadata(
	meta model.GenerationMetadata,
	response *openai.AudioTranscriptionNewResponseUnion,
) {
	if meta == nil || response == nil {
		return
	}
	if response.Usage.TotalTokens == 0 {
		return
	}

	meta[model.MetadataKeyInputTokens] = strconv.FormatInt(response.Usage.InputTokens, 10)
	meta[model.MetadataKeyOutputTokens] = strconv.FormatInt(response.Usage.OutputTokens, 10)
	meta[model.MetadataKeyTotalTokens] = strconv.FormatInt(response.Usage.TotalTokens, 10)
}
