package web

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/Nephrolytics-ai/audio2art/pkg/ingest"
	"github.com/Nephrolytics-ai/audio2art/pkg/logging"
	"github.com/Nephrolytics-ai/audio2art/pkg/pipeline"
	"github.com/Nephrolytics-ai/audio2art/pkg/utils"
	"github.com/gin-gonic/gin"
)

const uploadField = "audio"

// multipartOverheadBytes is the slack allowed on top of the audio limit for
// boundaries and part headers.
const multipartOverheadBytes = 1 << 20

type Pipeline interface {
	Run(ctx context.Context, upload *ingest.AudioUpload) (pipeline.Result, error)
}

// Handler serves the upload page, the JSON API and, when set, the MCP endpoint.
type Handler struct {
	pipeline       Pipeline
	maxUploadBytes int64
	requestTimeout time.Duration
	mcp            http.Handler
}

type Option func(*Handler)

func WithMaxUploadBytes(n int64) Option {
	return func(h *Handler) {
		h.maxUploadBytes = n
	}
}

func WithRequestTimeout(d time.Duration) Option {
	return func(h *Handler) {
		h.requestTimeout = d
	}
}

// WithMCPHandler mounts an MCP streamable HTTP handler at /mcp.
func WithMCPHandler(mcp http.Handler) Option {
	return func(h *Handler) {
		h.mcp = mcp
	}
}

func NewHandler(p Pipeline, opts ...Option) *Handler {
	h := &Handler{
		pipeline:       p,
		maxUploadBytes: ingest.DefaultMaxUploadBytes,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// NewRouter builds a gin engine with the handler's routes and middleware.
func NewRouter(h *Handler) *gin.Engine {
	router := gin.New()
	h.RegisterRoutes(router)
	return router
}

// RegisterRoutes attaches all HTTP routes to the router.
func (h *Handler) RegisterRoutes(router *gin.Engine) {
	router.Use(requestContext(), recovery())
	router.SetHTMLTemplate(parsePageTemplate())

	router.GET("/", h.showPage)
	router.POST("/", h.submitPage)
	router.GET("/healthz", h.health)

	api := router.Group("/api")
	api.POST("/generate", h.generate)

	if h.mcp != nil {
		router.Any("/mcp", gin.WrapH(h.mcp))
	}
}

func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *Handler) showPage(c *gin.Context) {
	c.HTML(http.StatusOK, pageTemplateName, placeholderPageView())
}

func (h *Handler) submitPage(c *gin.Context) {
	view := newPageView()

	upload, status, message := h.readUpload(c)
	if upload == nil {
		view.add(messageWarning, message)
		c.HTML(status, pageTemplateName, view)
		return
	}

	view.AudioURL = trustedURL(upload.DataURL())
	view.add(messageSuccess, uploadedMessage)

	ctx, cancel := h.runContext(c)
	defer cancel()

	result, err := h.pipeline.Run(ctx, upload)
	switch {
	case errors.Is(err, pipeline.ErrTranscriptionFailed):
		view.add(messageWarning, result.Message)
	case err != nil:
		view.add(messageSuccess, youSaidPrefix+result.Transcript)
		view.add(messageError, pipeline.ImageGenerationErrorMessage)
	default:
		view.add(messageSuccess, youSaidPrefix+result.Transcript)
		if result.Image != nil {
			view.ImageURL = trustedURL(result.Image.URL)
			view.ImageCaption = result.Image.Caption
		}
	}
	c.HTML(http.StatusOK, pageTemplateName, view)
}

func (h *Handler) generate(c *gin.Context) {
	upload, status, message := h.readUpload(c)
	if upload == nil {
		apiError(c, status, gin.H{"error": message})
		return
	}

	ctx, cancel := h.runContext(c)
	defer cancel()

	result, err := h.pipeline.Run(ctx, upload)
	switch {
	case errors.Is(err, pipeline.ErrTranscriptionFailed):
		apiError(c, http.StatusUnprocessableEntity, gin.H{
			"error": result.Message,
			"stage": string(pipeline.StageTranscription),
		})
	case err != nil || result.Image == nil:
		apiError(c, http.StatusBadGateway, gin.H{
			"error":      pipeline.ImageGenerationErrorMessage,
			"stage":      string(pipeline.StageImageGeneration),
			"transcript": result.Transcript,
		})
	default:
		c.JSON(http.StatusOK, gin.H{
			"transcript": result.Transcript,
			"image_url":  result.Image.URL,
			"caption":    result.Image.Caption,
		})
	}
}

// readUpload returns a nil upload with an HTTP status and user-facing
// message when the request carries no acceptable audio file.
func (h *Handler) readUpload(c *gin.Context) (*ingest.AudioUpload, int, string) {
	log := logging.NewLogger(c.Request.Context())

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes+multipartOverheadBytes)
	header, err := c.FormFile(uploadField)
	if err != nil {
		log.Warnf("upload rejected: %v", err)
		if isBodyTooLarge(err) {
			return nil, http.StatusRequestEntityTooLarge, tooLargeMessage
		}
		return nil, http.StatusBadRequest, noFileMessage
	}

	upload, err := ingest.FromFileHeader(header, h.maxUploadBytes)
	switch {
	case err == nil:
		return upload, http.StatusOK, ""
	case errors.Is(err, ingest.ErrUnsupportedAudioType):
		log.Warnf("upload rejected: %v", err)
		return nil, http.StatusBadRequest, badTypeMessage
	case errors.Is(err, ingest.ErrAudioTooLarge):
		log.Warnf("upload rejected: %v", err)
		return nil, http.StatusRequestEntityTooLarge, tooLargeMessage
	default:
		log.Errorf("reading upload: %v", err)
		return nil, http.StatusBadRequest, readErrorMessage
	}
}

func isBodyTooLarge(err error) bool {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return true
	}
	// Some multipart paths flatten the error to its text.
	return utils.ContainsErrorSubstring(err, "request body too large")
}

// apiError writes a JSON error carrying the request ID so callers can quote
// it when reporting a failure.
func apiError(c *gin.Context, status int, body gin.H) {
	body["request_id"] = logging.RequestIDFromContext(c.Request.Context())
	c.JSON(status, body)
}

func (h *Handler) runContext(c *gin.Context) (context.Context, context.CancelFunc) {
	if h.requestTimeout <= 0 {
		return context.WithCancel(c.Request.Context())
	}
	return context.WithTimeout(c.Request.Context(), h.requestTimeout)
}
