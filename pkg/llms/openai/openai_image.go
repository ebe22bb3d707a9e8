package openai

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/Nephrolytics-ai/audio2art/pkg/logging"
	"github.com/Nephrolytics-ai/audio2art/pkg/model"
	"github.com/Nephrolytics-ai/audio2art/pkg/utils"
	openai "github.com/openai/openai-go/v3"
)

const defaultImageModelName = "dall-e-2"

type imageGenerator struct {
	client *client
	prompt string
	opts   model.ImageOptions
}

// NewImageGenerator requests exactly one 1024x1024 image for prompt.
func NewImageGenerator(prompt string, opts model.ImageOptions) (model.ImageGenerator, error) {
	if strings.TrimSpace(prompt) == "" {
		return nil, utils.WrapIfNotNil(errors.New("prompt is required"))
	}

	c, err := newClient(opts.GeneratorConfig())
	if err != nil {
		return nil, utils.WrapIfNotNil(err)
	}
	return &imageGenerator{client: c, prompt: prompt, opts: opts}, nil
}

func (g *imageGenerator) Generate(ctx context.Context) (model.GeneratedImage, model.GenerationMetadata, error) {
	start := time.Now()
	modelName := resolveImageModelName(g.opts)
	meta := model.NewGenerationMetadata(providerName, modelName)
	meta[model.MetadataKeyImageSize] = model.ImageSize()
	defer meta.SetLatency(start)

	log := logging.NewLogger(ctx)
	log.Infof("image_generation_request provider=%s model=%q prompt_chars=%d", providerName, modelName, len(g.prompt))

	response, err := g.client.apiClient.Images.Generate(ctx, buildImageParams(g.prompt, modelName))
	if err != nil {
		log.Errorf("error: %v", err)
		return model.GeneratedImage{}, meta, utils.WrapIfNotNil(err)
	}

	image, err := firstImage(response)
	if err != nil {
		log.Errorf("error: %v", err)
		return model.GeneratedImage{}, meta, utils.WrapIfNotNil(err)
	}

	meta[model.MetadataKeyImageCount] = strconv.Itoa(len(response.Data))
	return image, meta, nil
}

func buildImageParams(prompt string, modelName string) openai.ImageGenerateParams {
	params := openai.ImageGenerateParams{
		Prompt: prompt,
		Model:  openai.ImageModel(modelName),
		N:      openai.Int(model.ImageCount),
		Size:   openai.ImageGenerateParamsSize1024x1024,
	}
	// gpt-image models reject response_format and always answer with b64_json.
	if strings.HasPrefix(modelName, "dall-e") {
		params.ResponseFormat = openai.ImageGenerateParamsResponseFormatURL
	}
	return params
}

func firstImage(response *openai.ImagesResponse) (model.GeneratedImage, error) {
	if response == nil || len(response.Data) == 0 {
		return model.GeneratedImage{}, model.ErrMissingImageData
	}

	first := response.Data[0]
	url := strings.TrimSpace(first.URL)
	if url == "" && first.B64JSON != "" {
		url = "data:image/png;base64," + first.B64JSON
	}
	if url == "" {
		return model.GeneratedImage{}, model.ErrMissingImageData
	}

	return model.GeneratedImage{
		URL:           url,
		Caption:       model.GeneratedImageCaption,
		RevisedPrompt: first.RevisedPrompt,
	}, nil
}

func resolveImageModelName(opts model.ImageOptions) string {
	return opts.GeneratorConfig().ResolveModelName(defaultImageModelName)
}
