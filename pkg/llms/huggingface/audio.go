package huggingface

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
)

type audioTranscriptionGenerator struct {
	filePath string
	opts     model.AudioOptions
	cfg      model.GeneratorConfig
}

// NewAudioTranscriptionGenerator runs an automatic-speech-recognition model
// (openai/whisper-small unless configured otherwise) on the inference API.
func NewAudioTranscriptionGenerator(filePath string, opts model.AudioOptions) (model.AudioTranscriptionGenerator, error) {
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
	modelName := resolveASRModelName(g.cfg)
	meta := model.NewGenerationMetadata(providerName, modelName)
	defer meta.SetLatency(start)

	log := logging.NewLogger(ctx)
	audio, err := os.ReadFile(g.filePath)
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
	meta[model.MetadataKeyAudioBytes] = strconv.Itoa(len(audio))
	meta[model.MetadataKeyAudioMIMEType] = mimeType

	client, err := newAPIClient(g.cfg)
	if err != nil {
		log.Errorf("error: %v", err)
		return "", meta, utils.WrapIfNotNil(err)
	}

	log.Infof("audio_transcription_request provider=%s model=%q bytes=%d", providerName, modelName, len(audio))
	response, err := client.recognizeSpeech(ctx, modelName, mimeType, audio)
	if err != nil {
		log.Errorf("error: %v", err)
		return "", meta, utils.WrapIfNotNil(err)
	}

	if strings.TrimSpace(response.Text) == "" {
		err = errors.New("transcription response is empty")
		log.Errorf("error: %v", err)
		return "", meta, utils.WrapIfNotNil(err)
	}

	return response.Text, meta, nil
}
