package pipeline

import (
	"context"
	"errors"

	"github.com/Nephrolytics-ai/audio2art/pkg/ingest"
	"github.com/Nephrolytics-ai/audio2art/pkg/logging"
	"github.com/Nephrolytics-ai/audio2art/pkg/model"
)

var (
	ErrTranscriptionFailed   = errors.New("transcription failed")
	ErrImageGenerationFailed = errors.New("image generation failed")
)

// ImageGenerationErrorMessage is shown in place of an image when generation fails.
const ImageGenerationErrorMessage = "⚠️ Error generating image."

type Stage string

const (
	StageTranscription   Stage = "transcription"
	StageImageGeneration Stage = "image_generation"
	StageComplete        Stage = "complete"
)

// Result is the outcome of one run. Image is nil unless Stage is
// StageComplete; Message holds the user-facing text when the run halted.
type Result struct {
	Transcript string
	Image      *model.GeneratedImage
	Stage      Stage
	Message    string
	Metadata   model.GenerationMetadata
}

// Runner executes ingest, transcription, prompt and image generation in
// order for a single upload. It keeps no state between runs.
type Runner struct {
	transcriber *Transcriber
	images      *ImageStage
}

func NewRunner(transcriber *Transcriber, images *ImageStage) *Runner {
	return &Runner{
		transcriber: transcriber,
		images:      images,
	}
}

// Run always closes upload. The transcript is used as the image prompt
// exactly as returned by the speech model.
func (r *Runner) Run(ctx context.Context, upload *ingest.AudioUpload) (Result, error) {
	defer upload.CloseWithLog(ctx)

	transcription := r.transcriber.Transcribe(ctx, upload)
	if !transcription.Usable() {
		return Result{
			Transcript: transcription.Text,
			Stage:      StageTranscription,
			Message:    model.TranscriptionFallbackMessage,
			Metadata:   transcription.Metadata,
		}, ErrTranscriptionFailed
	}

	prompt := transcription.Text
	image, meta, err := r.images.Generate(ctx, prompt)
	if err != nil {
		return Result{
			Transcript: transcription.Text,
			Stage:      StageImageGeneration,
			Message:    ImageGenerationErrorMessage,
			Metadata:   transcription.Metadata.Merge(prefixed("image_", meta)),
		}, err
	}

	logging.NewLogger(ctx).Infof("pipeline_complete transcript_chars=%d", len(transcription.Text))
	return Result{
		Transcript: transcription.Text,
		Image:      &image,
		Stage:      StageComplete,
		Metadata:   transcription.Metadata.Merge(prefixed("image_", meta)),
	}, nil
}

// GenerateImage runs only the image stage, for callers that already have text.
func (r *Runner) GenerateImage(ctx context.Context, prompt string) (model.GeneratedImage, model.GenerationMetadata, error) {
	return r.images.Generate(ctx, prompt)
}

func prefixed(prefix string, meta model.GenerationMetadata) model.GenerationMetadata {
	out := make(model.GenerationMetadata, len(meta))
	for k, v := range meta {
		out[prefix+k] = v
	}
	return out
}
