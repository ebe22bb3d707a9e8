package mcp

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"strings"

	"github.com/Nephrolytics-ai/audio2art/pkg/ingest"
	"github.com/Nephrolytics-ai/audio2art/pkg/logging"
	"github.com/Nephrolytics-ai/audio2art/pkg/model"
	"github.com/Nephrolytics-ai/audio2art/pkg/pipeline"
	"github.com/Nephrolytics-ai/audio2art/pkg/utils"
	"github.com/invopop/jsonschema"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

const (
	ToolGenerateImage = "generate_image_from_text"
	ToolAudioToArt    = "audio_to_art"
)

type GenerateImageArgs struct {
	Prompt string `json:"prompt" jsonschema:"description=Text to render as one 1024x1024 image. Used verbatim."`
}

type AudioToArtArgs struct {
	Filename    string `json:"filename" jsonschema:"description=Original file name. The extension selects the container (wav or mp3 or ogg)."`
	AudioBase64 string `json:"audio_base64" jsonschema:"description=Base64 encoded audio file contents."`
}

// artResult is the text payload returned by both tools.
type artResult struct {
	Transcript string `json:"transcript,omitempty"`
	ImageURL   string `json:"image_url"`
	Caption    string `json:"caption"`
}

type toolBinding struct {
	tool    mcp.Tool
	handler server.ToolHandlerFunc
}

func (s *Server) tools() ([]toolBinding, error) {
	imageSchema, err := generateJSONSchema[GenerateImageArgs]()
	if err != nil {
		return nil, utils.WrapIfNotNil(err)
	}
	audioSchema, err := generateJSONSchema[AudioToArtArgs]()
	if err != nil {
		return nil, utils.WrapIfNotNil(err)
	}

	return []toolBinding{
		{
			tool: mcp.NewToolWithRawSchema(
				ToolGenerateImage,
				"Generate one 1024x1024 image from a text prompt and return its URL.",
				imageSchema,
			),
			handler: s.handleGenerateImage,
		},
		{
			tool: mcp.NewToolWithRawSchema(
				ToolAudioToArt,
				"Transcribe a WAV, MP3 or OGG recording and turn the words into an image.",
				audioSchema,
			),
			handler: s.handleAudioToArt,
		},
	}, nil
}

func (s *Server) handleGenerateImage(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args GenerateImageArgs
	if err := request.BindArguments(&args); err != nil {
		return mcp.NewToolResultError("invalid arguments: " + err.Error()), nil
	}
	if strings.TrimSpace(args.Prompt) == "" {
		return mcp.NewToolResultError("prompt is required"), nil
	}

	image, _, err := s.pipeline.GenerateImage(ctx, args.Prompt)
	if err != nil {
		logging.NewLogger(ctx).Errorf("mcp %s failed: %v", ToolGenerateImage, err)
		return mcp.NewToolResultError(pipeline.ImageGenerationErrorMessage), nil
	}
	return artToolResult(artResult{ImageURL: image.URL, Caption: image.Caption})
}

func (s *Server) handleAudioToArt(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args AudioToArtArgs
	if err := request.BindArguments(&args); err != nil {
		return mcp.NewToolResultError("invalid arguments: " + err.Error()), nil
	}

	data, err := base64.StdEncoding.DecodeString(strings.TrimSpace(args.AudioBase64))
	if err != nil {
		return mcp.NewToolResultError("audio_base64 is not valid base64"), nil
	}

	upload, err := ingest.NewAudioUpload(args.Filename, bytes.NewReader(data), s.maxUploadBytes)
	if err != nil {
		switch {
		case errors.Is(err, ingest.ErrUnsupportedAudioType):
			return mcp.NewToolResultError("unsupported audio type: upload a wav, mp3 or ogg file"), nil
		case errors.Is(err, ingest.ErrAudioTooLarge):
			return mcp.NewToolResultError("audio file is too large"), nil
		default:
			return mcp.NewToolResultError(err.Error()), nil
		}
	}

	result, err := s.pipeline.Run(ctx, upload)
	if err != nil {
		logging.NewLogger(ctx).Warnf("mcp %s halted at %s: %v", ToolAudioToArt, result.Stage, err)
		if errors.Is(err, pipeline.ErrTranscriptionFailed) {
			return mcp.NewToolResultError(result.Message), nil
		}
		return mcp.NewToolResultError(result.Message + " Transcript: " + result.Transcript), nil
	}
	if result.Image == nil {
		return mcp.NewToolResultError(pipeline.ImageGenerationErrorMessage), nil
	}

	return artToolResult(artResult{
		Transcript: result.Transcript,
		ImageURL:   result.Image.URL,
		Caption:    result.Image.Caption,
	})
}

func artToolResult(result artResult) (*mcp.CallToolResult, error) {
	if result.Caption == "" {
		result.Caption = model.GeneratedImageCaption
	}
	payload, err := json.Marshal(result)
	if err != nil {
		return nil, utils.WrapIfNotNil(err)
	}
	return mcp.NewToolResultText(string(payload)), nil
}

func generateJSONSchema[T any]() (json.RawMessage, error) {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}

	var value T
	schema := reflector.Reflect(value)

	schemaJSON, err := json.Marshal(schema)
	if err != nil {
		return nil, utils.WrapIfNotNil(err)
	}
	return schemaJSON, nil
}
