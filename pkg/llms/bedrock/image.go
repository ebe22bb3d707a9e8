package bedrock

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/Nephrolytics-ai/audio2art/pkg/logging"
	"github.com/Nephrolytics-ai/audio2art/pkg/model"
	"github.com/Nephrolytics-ai/audio2art/pkg/utils"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
)

const titanCFGScale = 8.0

type titanImageRequest struct {
	TaskType              string                `json:"taskType"`
	TextToImageParams     titanTextToImage      `json:"textToImageParams"`
	ImageGenerationConfig titanGenerationConfig `json:"imageGenerationConfig"`
}

type titanTextToImage struct {
	Text string `json:"text"`
}

type titanGenerationConfig struct {
	NumberOfImages int     `json:"numberOfImages"`
	Height         int     `json:"height"`
	Width          int     `json:"width"`
	CFGScale       float64 `json:"cfgScale"`
}

type titanImageResponse struct {
	Images []string `json:"images"`
	Error  *string  `json:"error"`
}

type imageGenerator struct {
	prompt     string
	cfg        model.GeneratorConfig
	region     string
	newInvoker func(ctx context.Context) (modelInvoker, error)
}

// NewImageGenerator renders one 1024x1024 image with Amazon Titan on Bedrock.
func NewImageGenerator(prompt string, opts model.ImageOptions) (model.ImageGenerator, error) {
	if strings.TrimSpace(prompt) == "" {
		return nil, utils.WrapIfNotNil(errors.New("prompt is required"))
	}

	g := &imageGenerator{
		prompt: prompt,
		cfg:    opts.GeneratorConfig(),
		region: opts.Region,
	}
	g.newInvoker = func(ctx context.Context) (modelInvoker, error) {
		return newClient(ctx, g.cfg, g.region)
	}
	return g, nil
}

func (g *imageGenerator) Generate(ctx context.Context) (model.GeneratedImage, model.GenerationMetadata, error) {
	start := time.Now()
	modelName := g.cfg.ResolveModelName(defaultImageModelName)
	meta := model.NewGenerationMetadata(providerName, modelName)
	meta[model.MetadataKeyImageSize] = model.ImageSize()
	defer meta.SetLatency(start)

	log := logging.NewLogger(ctx)
	body, err := json.Marshal(buildTitanRequest(g.prompt))
	if err != nil {
		log.Errorf("error: %v", err)
		return model.GeneratedImage{}, meta, utils.WrapIfNotNil(err)
	}

	invoker, err := g.newInvoker(ctx)
	if err != nil {
		log.Errorf("error: %v", err)
		return model.GeneratedImage{}, meta, utils.WrapIfNotNil(err)
	}

	log.Infof("image_generation_request provider=%s model=%q prompt_chars=%d", providerName, modelName, len(g.prompt))
	output, err := invoker.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
		ModelId:     aws.String(modelName),
		ContentType: aws.String("application/json"),
		Accept:      aws.String("application/json"),
		Body:        body,
	})
	if err != nil {
		log.Errorf("error: %v", err)
		return model.GeneratedImage{}, meta, utils.WrapIfNotNil(err)
	}
	if output == nil {
		return model.GeneratedImage{}, meta, utils.WrapIfNotNil(model.ErrMissingImageData)
	}

	image, count, err := parseTitanResponse(output.Body)
	if err != nil {
		log.Errorf("error: %v", err)
		return model.GeneratedImage{}, meta, utils.WrapIfNotNil(err)
	}

	meta[model.MetadataKeyImageCount] = strconv.Itoa(count)
	return image, meta, nil
}

func buildTitanRequest(prompt string) titanImageRequest {
	return titanImageRequest{
		TaskType:          "TEXT_IMAGE",
		TextToImageParams: titanTextToImage{Text: prompt},
		ImageGenerationConfig: titanGenerationConfig{
			NumberOfImages: model.ImageCount,
			Height:         model.ImageHeight,
			Width:          model.ImageWidth,
			CFGScale:       titanCFGScale,
		},
	}
}

func parseTitanResponse(body []byte) (model.GeneratedImage, int, error) {
	response := titanImageResponse{}
	if err := json.Unmarshal(body, &response); err != nil {
		return model.GeneratedImage{}, 0, utils.WrapIfNotNil(err)
	}
	if response.Error != nil && strings.TrimSpace(*response.Error) != "" {
		return model.GeneratedImage{}, 0, utils.WrapIfNotNil(errors.New(*response.Error))
	}
	if len(response.Images) == 0 || strings.TrimSpace(response.Images[0]) == "" {
		return model.GeneratedImage{}, 0, model.ErrMissingImageData
	}

	return model.GeneratedImage{
		URL:     "data:image/png;base64," + response.Images[0],
		Caption: model.GeneratedImageCaption,
	}, len(response.Images), nil
}
