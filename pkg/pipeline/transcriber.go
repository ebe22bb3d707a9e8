package pipeline

import (
	"context"
	"strings"

	"github.com/Nephrolytics-ai/audio2art/pkg/ingest"
	"github.com/Nephrolytics-ai/audio2art/pkg/logging"
	"github.com/Nephrolytics-ai/audio2art/pkg/model"
)

// Transcriber turns an upload into text. It never returns an error: any
// failure becomes the fallback transcription and is only logged.
type Transcriber struct {
	newGenerator model.NewAudioTranscriptionGeneratorFunc
	opts         model.AudioOptions
	tempDir      string
}

func NewTranscriber(newGenerator model.NewAudioTranscriptionGeneratorFunc, opts model.AudioOptions, tempDir string) *Transcriber {
	return &Transcriber{
		newGenerator: newGenerator,
		opts:         opts,
		tempDir:      tempDir,
	}
}

func (t *Transcriber) Transcribe(ctx context.Context, upload *ingest.AudioUpload) model.TranscriptionResult {
	log := logging.NewLogger(ctx)
	if upload.Empty() {
		log.Warn("transcription skipped: upload has no audio data")
		return model.FallbackTranscription(nil)
	}

	path, err := upload.TempFile(t.tempDir)
	if err != nil {
		log.Errorf("transcription failed writing temp file: %v", err)
		return model.FallbackTranscription(nil)
	}

	opts := t.opts
	if opts.MIMEType == "" {
		opts.MIMEType = upload.MIMEType
	}

	generator, err := t.newGenerator(path, opts)
	if err != nil {
		log.Errorf("transcription failed creating generator: %v", err)
		return model.FallbackTranscription(nil)
	}

	text, meta, err := generator.Generate(ctx)
	if err != nil {
		log.Errorf("transcription failed: %v", err)
		return model.FallbackTranscription(meta)
	}
	if strings.TrimSpace(text) == "" {
		log.Warn("transcription returned no text")
		return model.FallbackTranscription(meta)
	}

	log.Infof("transcription_complete chars=%d provider=%s latency_ms=%s",
		len(text), meta[model.MetadataKeyProvider], meta[model.MetadataKeyLatencyMs])
	return model.TranscriptionResult{Text: text, Metadata: meta}
}
