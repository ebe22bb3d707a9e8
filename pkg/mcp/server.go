package mcp

import (
	"context"
	"net/http"

	"github.com/Nephrolytics-ai/audio2art/pkg/ingest"
	"github.com/Nephrolytics-ai/audio2art/pkg/model"
	"github.com/Nephrolytics-ai/audio2art/pkg/pipeline"
	"github.com/Nephrolytics-ai/audio2art/pkg/utils"
	"github.com/mark3labs/mcp-go/server"
)

const serverName = "audio2art"

type Pipeline interface {
	Run(ctx context.Context, upload *ingest.AudioUpload) (pipeline.Result, error)
	GenerateImage(ctx context.Context, prompt string) (model.GeneratedImage, model.GenerationMetadata, error)
}

// Server exposes the pipeline as MCP tools over streamable HTTP.
type Server struct {
	pipeline       Pipeline
	maxUploadBytes int64
	mcpServer      *server.MCPServer
}

func NewServer(p Pipeline, maxUploadBytes int64, version string) (*Server, error) {
	if maxUploadBytes <= 0 {
		maxUploadBytes = ingest.DefaultMaxUploadBytes
	}

	s := &Server{
		pipeline:       p,
		maxUploadBytes: maxUploadBytes,
		mcpServer: server.NewMCPServer(
			serverName,
			version,
			server.WithToolCapabilities(false),
			server.WithRecovery(),
		),
	}

	tools, err := s.tools()
	if err != nil {
		return nil, utils.WrapIfNotNil(err)
	}
	for _, t := range tools {
		s.mcpServer.AddTool(t.tool, t.handler)
	}
	return s, nil
}

// Handler serves MCP requests. Sessions are not tracked; each call is
// independent like every other pipeline run.
func (s *Server) Handler() http.Handler {
	return server.NewStreamableHTTPServer(s.mcpServer, server.WithStateLess(true))
}
