package gemini

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/Nephrolytics-ai/audio2art/pkg/logging"
	"github.com/Nephrolytics-ai/audio2art/pkg/model"
	"github.com/Nephrolytics-ai/audio2art/pkg/utils"
	"google.golang.org/genai"
)

type imageGenerator struct {
	prompt string
	cfg    model.GeneratorConfig
}

// NewImageGenerator renders one square image with Imagen. The bytes come
// back inline, so the result URL is a data: URL.
func NewImageGenerator(prompt string, opts model.ImageOptions) (model.ImageGenerator, error) {
	if strings.TrimSpace(prompt) == "" {
		return nil, utils.WrapIfNotNil(errors.New("prompt is required"))
	}
	return &imageGenerator{prompt: prompt, cfg: opts.GeneratorConfig()}, nil
}

func (g *imageGenerator) Generate(ctx context.Context) (model.GeneratedImage, model.GenerationMetadata, error) {
	start := time.Now()
	modelName := g.cfg.ResolveModelName(defaultImageModelName)
	meta := model.NewGenerationMetadata(providerName, modelName)
	meta[model.MetadataKeyImageSize] = model.ImageSize()
	defer meta.SetLatency(start)

	log := logging.NewLogger(ctx)
	client, err := newAPIClient(ctx, g.cfg)
	if err != nil {
		log.Errorf("error: %v", err)
		return model.GeneratedImage{}, meta, utils.WrapIfNotNil(err)
	}

	log.Infof("image_generation_request provider=%s model=%q prompt_chars=%d", providerName, modelName, len(g.prompt))
	response, err := client.Models.GenerateImages(ctx, modelName, g.prompt, imageConfig())
	if err != nil {
		log.Errorf("error: %v", err)
		return model.GeneratedImage{}, meta, utils.WrapIfNotNil(err)
	}

	image, err := firstGeneratedImage(response)
	if err != nil {
		log.Errorf("error: %v", err)
		return model.GeneratedImage{}, meta, utils.WrapIfNotNil(err)
	}

	meta[model.MetadataKeyImageCount] = strconv.Itoa(len(response.GeneratedImages))
	return image, meta, nil
}

func imageConfig() *genai.GenerateImagesConfig {
	return &genai.GenerateImagesConfig{
		NumberOfImages: model.ImageCount,
		AspectRatio:    "1:1",
		OutputMIMEType: "image/png",
	}
}

func firstGeneratedImage(response *genai.GenerateImagesResponse) (model.GeneratedImage, error) {
	if response == nil || len(response.GeneratedImages) == 0 || response.GeneratedImages[0] == nil {
		return model.GeneratedImage{}, model.ErrMissingImageData
	}

	first := response.GeneratedImages[0]
	if first.Image == nil || len(first.Image.ImageBytes) == 0 {
		if reason := strings.TrimSpace(first.RAIFilteredReason); reason != "" {
			return model.GeneratedImage{}, errors.Join(model.ErrMissingImageData, errors.New(reason))
		}
		return model.GeneratedImage{}, model.ErrMissingImageData
	}

	return model.GeneratedImage{
		URL:           model.DataURL(first.Image.MIMEType, first.Image.ImageBytes),
		Caption:       model.GeneratedImageCaption,
		RevisedPrompt: first.EnhancedPrompt,
	}, nil
}
