package pipeline

import (
	"context"
	"fmt"
	"strings"

	"github.com/Nephrolytics-ai/audio2art/pkg/logging"
	"github.com/Nephrolytics-ai/audio2art/pkg/model"
	"github.com/Nephrolytics-ai/audio2art/pkg/utils"
)

// Failure reasons recorded under model.MetadataKeyFailureReason.
const (
	FailureContentPolicy = "content_policy"
	FailureProvider      = "provider_error"
)

// Fragments providers use when they refuse a prompt rather than fail.
var contentPolicyMarkers = []string{
	"content_policy_violation",
	"safety system",
	"moderation_blocked",
	"ValidationException: This request has been blocked",
	"SAFETY",
	"blocked by our content filters",
}

// ImageStage requests exactly one image per call.
type ImageStage struct {
	newGenerator model.NewImageGeneratorFunc
	opts         model.ImageOptions
}

func NewImageStage(newGenerator model.NewImageGeneratorFunc, opts model.ImageOptions) *ImageStage {
	return &ImageStage{
		newGenerator: newGenerator,
		opts:         opts,
	}
}

// Generate returns an error wrapping ErrImageGenerationFailed on any failure,
// including a response without a usable URL.
func (s *ImageStage) Generate(ctx context.Context, prompt string) (model.GeneratedImage, model.GenerationMetadata, error) {
	log := logging.NewLogger(ctx)

	generator, err := s.newGenerator(prompt, s.opts)
	if err != nil {
		log.Errorf("image generation failed creating generator: %v", err)
		return model.GeneratedImage{}, nil, fmt.Errorf("%w: %w", ErrImageGenerationFailed, err)
	}

	image, meta, err := generator.Generate(ctx)
	if err != nil {
		reason := imageFailureReason(err)
		if meta == nil {
			meta = model.GenerationMetadata{}
		}
		meta[model.MetadataKeyFailureReason] = reason
		log.Errorf("image generation failed reason=%s: %v", reason, err)
		return model.GeneratedImage{}, meta, fmt.Errorf("%w: %w", ErrImageGenerationFailed, err)
	}
	if strings.TrimSpace(image.URL) == "" {
		log.Error("image generation returned no URL")
		return model.GeneratedImage{}, meta, fmt.Errorf("%w: %w", ErrImageGenerationFailed, model.ErrMissingImageData)
	}
	if image.Caption == "" {
		image.Caption = model.GeneratedImageCaption
	}

	log.Infof("image_generation_complete provider=%s latency_ms=%s",
		meta[model.MetadataKeyProvider], meta[model.MetadataKeyLatencyMs])
	return image, meta, nil
}

// imageFailureReason tells a refused prompt apart from a transport or
// provider outage.
func imageFailureReason(err error) string {
	for _, marker := range contentPolicyMarkers {
		if utils.ContainsErrorSubstring(err, marker) {
			return FailureContentPolicy
		}
	}
	return FailureProvider
}
