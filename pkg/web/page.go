package web

import (
	"embed"
	"html/template"
	"strings"

	"github.com/Nephrolytics-ai/audio2art/pkg/ingest"
)

const (
	PlaceholderImageURL     = "https://picsum.photos/1024/1024"
	PlaceholderImageCaption = "🎭 AI Creativity"

	uploadedMessage  = "✅ Audio uploaded! Transcribing..."
	youSaidPrefix    = "📝 You said: "
	noFileMessage    = "🎙️ Please choose an audio file to upload."
	badTypeMessage   = "⚠️ Unsupported file type. Please upload a WAV, MP3 or OGG file."
	tooLargeMessage  = "⚠️ Audio file is too large."
	readErrorMessage = "⚠️ Could not read the uploaded file."
	pendingMessage   = "🎨 Generating AI Art... Please wait."
)

//go:embed templates/index.html
var templateFS embed.FS

const pageTemplateName = "index.html"

func parsePageTemplate() *template.Template {
	return template.Must(template.New(pageTemplateName).ParseFS(templateFS, "templates/"+pageTemplateName))
}

type messageKind string

const (
	messageSuccess messageKind = "success"
	messageInfo    messageKind = "info"
	messageWarning messageKind = "warning"
	messageError   messageKind = "error"
)

type pageMessage struct {
	Kind messageKind
	Text string
}

type pageView struct {
	Accept       string
	Pending      string
	AudioURL     template.URL
	Messages     []pageMessage
	ImageURL     template.URL
	ImageCaption string
}

func newPageView() *pageView {
	return &pageView{Accept: ingest.AcceptAttribute(), Pending: pendingMessage}
}

// placeholderPageView is what the page shows before any audio was processed.
func placeholderPageView() *pageView {
	v := newPageView()
	v.ImageURL = template.URL(PlaceholderImageURL)
	v.ImageCaption = PlaceholderImageCaption
	return v
}

func (v *pageView) add(kind messageKind, text string) {
	v.Messages = append(v.Messages, pageMessage{Kind: kind, Text: text})
}

// trustedURL lets provider image URLs and inline media through html/template.
// Anything other than http(s) or an inline image/audio payload is dropped.
func trustedURL(raw string) template.URL {
	u := strings.TrimSpace(raw)
	lower := strings.ToLower(u)
	switch {
	case strings.HasPrefix(lower, "https://"), strings.HasPrefix(lower, "http://"):
		return template.URL(u)
	case strings.HasPrefix(lower, "data:image/"), strings.HasPrefix(lower, "data:audio/"):
		return template.URL(u)
	default:
		return ""
	}
}
