package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/Nephrolytics-ai/audio2art/pkg/config"
	"github.com/Nephrolytics-ai/audio2art/pkg/ingest"
	"github.com/Nephrolytics-ai/audio2art/pkg/logging"
	"github.com/Nephrolytics-ai/audio2art/pkg/mcp"
	"github.com/Nephrolytics-ai/audio2art/pkg/pipeline"
	"github.com/Nephrolytics-ai/audio2art/pkg/providers"
	"github.com/Nephrolytics-ai/audio2art/pkg/utils"
	"github.com/Nephrolytics-ai/audio2art/pkg/web"
	"github.com/gin-gonic/gin"
)

var version = "dev"

const shutdownTimeout = 10 * time.Second

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		logging.NewLogger(ctx).Errorf("audio2art: %v", err)
		cancel()
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout io.Writer) error {
	flags := flag.NewFlagSet("audio2art", flag.ContinueOnError)
	configPath := flags.String("config", os.Getenv("AUDIO2ART_CONFIG"), "path to YAML config file (optional)")
	audioFile := flags.String("file", "", "transcribe and render a local audio file once, then exit")
	addr := flags.String("addr", "", "listen address, overrides the config")
	if err := flags.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return utils.WrapIfNotNil(err)
	}
	if *addr != "" {
		cfg.Server.Addr = *addr
	}
	logging.Configure(cfg.Log.Level, cfg.Log.Format)

	// Nothing is called until both providers have credentials.
	if err := cfg.Validate(); err != nil {
		return err
	}

	runner, err := buildRunner(cfg, providers.Default())
	if err != nil {
		return err
	}

	if strings.TrimSpace(*audioFile) != "" {
		return runOnce(ctx, runner, *audioFile, cfg.Upload.MaxBytes, stdout)
	}
	return serve(ctx, cfg, runner)
}

// buildRunner resolves the configured providers once for the process lifetime.
func buildRunner(cfg *config.Config, registry *providers.Registry) (*pipeline.Runner, error) {
	newTranscription, err := registry.Transcriber(cfg.Transcription.Provider)
	if err != nil {
		return nil, utils.WrapIfNotNil(err)
	}
	newImage, err := registry.ImageGenerator(cfg.Image.Provider)
	if err != nil {
		return nil, utils.WrapIfNotNil(err)
	}

	return pipeline.NewRunner(
		pipeline.NewTranscriber(newTranscription, cfg.AudioOptions(), cfg.Upload.TempDir),
		pipeline.NewImageStage(newImage, cfg.ImageOptions()),
	), nil
}

func runOnce(ctx context.Context, runner *pipeline.Runner, path string, maxBytes int64, stdout io.Writer) error {
	upload, err := ingest.FromPath(path, maxBytes)
	if err != nil {
		return utils.WrapIfNotNil(err)
	}

	result, err := runner.Run(ctx, upload)
	if err != nil {
		if errors.Is(err, pipeline.ErrImageGenerationFailed) {
			fmt.Fprintf(stdout, "📝 You said: %s\n", result.Transcript)
		}
		fmt.Fprintln(stdout, result.Message)
		return err
	}

	fmt.Fprintf(stdout, "📝 You said: %s\n", result.Transcript)
	fmt.Fprintf(stdout, "%s: %s\n", result.Image.Caption, result.Image.URL)
	return nil
}

func serve(ctx context.Context, cfg *config.Config, runner *pipeline.Runner) error {
	log := logging.NewLogger(ctx)

	timeout, err := cfg.RequestTimeout()
	if err != nil {
		return err
	}

	opts := []web.Option{
		web.WithMaxUploadBytes(cfg.Upload.MaxBytes),
		web.WithRequestTimeout(timeout),
	}
	if !cfg.Server.DisableMCP {
		mcpServer, err := mcp.NewServer(runner, cfg.Upload.MaxBytes, version)
		if err != nil {
			return utils.WrapIfNotNil(err)
		}
		opts = append(opts, web.WithMCPHandler(mcpServer.Handler()))
	}

	if strings.ToLower(cfg.Log.Level) != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := web.NewRouter(web.NewHandler(runner, opts...))

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Infof("starting audio2art version=%s addr=%s transcription=%s image=%s mcp=%t",
			version, cfg.Server.Addr, cfg.Transcription.Provider, cfg.Image.Provider, !cfg.Server.DisableMCP)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return utils.WrapIfNotNil(err)
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return utils.WrapIfNotNil(srv.Shutdown(shutdownCtx))
}
