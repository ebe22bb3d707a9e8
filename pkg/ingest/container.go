package ingest

import (
	"errors"
	"mime"
	"path/filepath"
	"strings"

	"github.com/Nephrolytics-ai/audio2art/pkg/utils"
	"github.com/gabriel-vasile/mimetype"
)

// Container is an accepted audio file format.
type Container string

const (
	ContainerWAV Container = "wav"
	ContainerMP3 Container = "mp3"
	ContainerOGG Container = "ogg"
)

var ErrUnsupportedAudioType = errors.New("unsupported audio type")

var containerMIMETypes = map[Container]string{
	ContainerWAV: "audio/wav",
	ContainerMP3: "audio/mpeg",
	ContainerOGG: "audio/ogg",
}

// SupportedContainers lists the upload types the page accepts, in display order.
func SupportedContainers() []Container {
	return []Container{ContainerWAV, ContainerMP3, ContainerOGG}
}

func (c Container) Extension() string {
	return "." + string(c)
}

func (c Container) MIMEType() string {
	return containerMIMETypes[c]
}

// AcceptAttribute renders the containers for an <input accept="..."> attribute.
func AcceptAttribute() string {
	parts := make([]string, 0, len(containerMIMETypes))
	for _, c := range SupportedContainers() {
		parts = append(parts, c.Extension())
	}
	return strings.Join(parts, ",")
}

// ContainerFromFilename filters uploads by extension, like a file picker's
// type list. Content is not inspected here.
func ContainerFromFilename(filename string) (Container, error) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(strings.TrimSpace(filename)), "."))
	for _, c := range SupportedContainers() {
		if string(c) == ext {
			return c, nil
		}
	}
	if ext == "" {
		return "", utils.WrapIfNotNil(ErrUnsupportedAudioType, "file has no extension")
	}
	return "", utils.WrapIfNotNil(ErrUnsupportedAudioType, "."+ext)
}

// DetectMIMEType sniffs the audio bytes and falls back to the container's
// default when the content is empty or not recognisably audio.
func DetectMIMEType(data []byte, c Container) string {
	fallback := c.MIMEType()
	if len(data) == 0 {
		return fallback
	}

	for detected := mimetype.Detect(data); detected != nil; detected = detected.Parent() {
		if strings.HasPrefix(detected.String(), "audio/") {
			return detected.String()
		}
	}
	return fallback
}

// MIMETypeForPath maps an audio file extension to its MIME type.
func MIMETypeForPath(filePath string) (string, error) {
	ext := strings.ToLower(filepath.Ext(strings.TrimSpace(filePath)))
	if ext == "" {
		return "", utils.WrapIfNotNil(errors.New("audio file extension is required to determine mime type"))
	}

	switch ext {
	case ".wav":
		return "audio/wav", nil
	case ".mp3":
		return "audio/mpeg", nil
	case ".ogg", ".oga":
		return "audio/ogg", nil
	case ".m4a", ".mp4":
		return "audio/mp4", nil
	case ".webm":
		return "audio/webm", nil
	case ".flac":
		return "audio/flac", nil
	}

	mimeType := mime.TypeByExtension(ext)
	if mimeType == "" {
		return "", utils.WrapIfNotNil(ErrUnsupportedAudioType, ext)
	}

	// Strip parameters such as "; charset=utf-8".
	mimeType = strings.TrimSpace(strings.Split(mimeType, ";")[0])
	if !strings.HasPrefix(mimeType, "audio/") {
		return "", utils.WrapIfNotNil(ErrUnsupportedAudioType, mimeType)
	}
	return mimeType, nil
}
