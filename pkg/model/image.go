package model

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
)

const (
	ImageWidth            = 1024
	ImageHeight           = 1024
	ImageCount            = 1
	GeneratedImageCaption = "🎨 Generated Image"
)

// ErrMissingImageData is returned when an image API answers without the
// expected list of images.
var ErrMissingImageData = errors.New("image response did not include any image data")

type ImageGenerator interface {
	Generate(ctx context.Context) (GeneratedImage, GenerationMetadata, error)
}

// NewImageGeneratorFunc builds a generator bound to one prompt.
type NewImageGeneratorFunc func(prompt string, opts ImageOptions) (ImageGenerator, error)

type ImageOptions struct {
	URL       string
	AuthToken string
	Model     string
	Region    string
}

func (o ImageOptions) GeneratorConfig() GeneratorConfig {
	cfg := GeneratorConfig{
		URL:       o.URL,
		AuthToken: o.AuthToken,
	}
	if name := strings.TrimSpace(o.Model); name != "" {
		cfg.Model = &name
	}
	return cfg
}

// GeneratedImage points at a rendered image. The image itself is never
// downloaded; URL is either the provider's hosted URL or a data: URL.
type GeneratedImage struct {
	URL           string
	Caption       string
	RevisedPrompt string
}

// ImageSize is the fixed size string requested from every provider.
func ImageSize() string {
	return fmt.Sprintf("%dx%d", ImageWidth, ImageHeight)
}

// DataURL encodes raw image bytes so the page can render them inline.
func DataURL(mimeType string, data []byte) string {
	if strings.TrimSpace(mimeType) == "" {
		mimeType = "image/png"
	}
	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data)
}
