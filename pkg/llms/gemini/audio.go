package gemini

import (
	"context"
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/Nephrolytics-ai/audio2art/pkg/ingest"
	"github.com/Nephrolytics-ai/audio2art/pkg/logging"
	"github.com/Nephrolytics-ai/audio2art/pkg/model"
	"github.com/Nephrolytics-ai/audio2art/pkg/utils"
	"google.golang.org/genai"
)

type audioTranscriptionGenerator struct {
	filePath string
	opts     model.AudioOptions
	cfg      model.GeneratorConfig
}

func NewAudioTranscriptionGenerator(
	filePath string,
	opts model.AudioOptions,
) (model.AudioTranscriptionGenerator, error) {
	if strings.TrimSpace(filePath) == "" {
		return nil, utils.WrapIfNotNil(errors.New("file path is required"))
	}

	return &audioTranscriptionGenerator{
		filePath: filePath,
		opts:     opts,
		cfg:      opts.GeneratorConfig(),
	}, nil
}

func (g *audioTranscriptionGenerator) Generate(ctx context.Context) (string, model.GenerationMetadata, error) {
	start := time.Now()
	modelName := g.cfg.ResolveModelName(defaultTranscriptionModelName)
	meta := model.NewGenerationMetadata(providerName, modelName)
	defer meta.SetLatency(start)

	log := logging.NewLogger(ctx)
	audioBytes, err := os.ReadFile(g.filePath)
	if err != nil {
		log.Errorf("error: %v", err)
		return "", meta, utils.WrapIfNotNil(err)
	}

	mimeType := strings.TrimSpace(g.opts.MIMEType)
	if mimeType == "" {
		mimeType, err = ingest.MIMETypeForPath(g.filePath)
		if err != nil {
			log.Errorf("error: %v", err)
			return "", meta, utils.WrapIfNotNil(err)
		}
	}

	client, err := newAPIClient(ctx, g.cfg)
	if err != nil {
		log.Errorf("error: %v", err)
		return "", meta, utils.WrapIfNotNil(err)
	}

	log.Infof("audio_transcription_request provider=%s model=%q bytes=%d", providerName, modelName, len(audioBytes))
	contents := []*genai.Content{
		genai.NewContentFromParts(
			[]*genai.Part{
				genai.NewPartFromText(buildAudioTranscriptionPrompt(g.opts)),
				genai.NewPartFromBytes(audioBytes, mimeType),
			},
			genai.RoleUser,
		),
	}

	response, err := client.Models.GenerateContent(ctx, modelName, contents, &genai.GenerateContentConfig{})
	if err != nil {
		log.Errorf("error: %v", err)
		return "", meta, utils.WrapIfNotNil(err)
	}

	transcript := response.Text()
	if strings.TrimSpace(transcript) == "" {
		err = errors.New("transcription response is empty")
		log.Errorf("error: %v", err)
		return "", meta, utils.WrapIfNotNil(err)
	}

	applyAudioTranscriptionMetadata(meta, response)
	return transcript, meta, nil
}

func buildAudioTranscriptionPrompt(opts model.AudioOptions) string {
	prompt := transcriptionInstructionPrefix
	if language := strings.TrimSpace(opts.Language); language != "" {
		prompt += " The speaker uses language code " + language + "."
	}
	if hint := strings.TrimSpace(opts.Prompt); hint != "" {
		prompt += " Context: " + hint
	}
	return prompt
}

func applyAudioTranscriptionMetadata(meta model.GenerationMetadata, response *genai.GenerateContentResponse) {
	if meta == nil || response == nil || response.UsageMetadata == nil {
		return
	}

	meta[model.MetadataKeyInputTokens] = strconv.Itoa(int(response.UsageMetadata.PromptTokenCount))
	meta[model.MetadataKeyOutputTokens] = strconv.Itoa(int(response.UsageMetadata.CandidatesTokenCount))
	meta[model.MetadataKeyTotalTokens] = strconv.Itoa(int(response.UsageMetadata.TotalTokenCount))
	if strings.TrimSpace(response.ResponseID) != "" {
		meta[model.MetadataKeyResponseID] = response.ResponseID
	}
	if len(response.Candidates) > 0 && response.Candidates[0] != nil {
		meta[model.MetadataKeyResponseStatus] = string(response.Candidates[0].FinishReason)
	}
}
