package ingest

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"sync"

	"github.com/Nephrolytics-ai/audio2art/pkg/logging"
	"github.com/Nephrolytics-ai/audio2art/pkg/utils"
)

const DefaultMaxUploadBytes int64 = 25 << 20

var (
	ErrNoAudio       = errors.New("no audio file was uploaded")
	ErrAudioTooLarge = errors.New("audio file is too large")
)

// AudioUpload holds one uploaded file for the duration of a single run.
// Close removes the temporary file, if one was written.
type AudioUpload struct {
	Filename  string
	Data      []byte
	Container Container
	MIMEType  string

	mu       sync.Mutex
	tempPath string
}

// NewAudioUpload reads at most maxBytes from r. A zero or negative maxBytes
// uses DefaultMaxUploadBytes.
func NewAudioUpload(filename string, r io.Reader, maxBytes int64) (*AudioUpload, error) {
	if r == nil {
		return nil, ErrNoAudio
	}
	container, err := ContainerFromFilename(filename)
	if err != nil {
		return nil, err
	}
	if maxBytes <= 0 {
		maxBytes = DefaultMaxUploadBytes
	}

	data, err := io.ReadAll(io.LimitReader(r, maxBytes+1))
	if err != nil {
		return nil, utils.WrapIfNotNil(err)
	}
	if int64(len(data)) > maxBytes {
		return nil, utils.WrapIfNotNil(ErrAudioTooLarge, fmt.Sprintf("limit %d bytes", maxBytes))
	}

	return &AudioUpload{
		Filename:  filepath.Base(filename),
		Data:      data,
		Container: container,
		MIMEType:  DetectMIMEType(data, container),
	}, nil
}

// FromFileHeader opens a multipart upload and reads it into memory.
func FromFileHeader(header *multipart.FileHeader, maxBytes int64) (*AudioUpload, error) {
	if header == nil {
		return nil, ErrNoAudio
	}
	if _, err := ContainerFromFilename(header.Filename); err != nil {
		return nil, err
	}

	file, err := header.Open()
	if err != nil {
		return nil, utils.WrapIfNotNil(err)
	}
	defer func() {
		_ = file.Close()
	}()

	return NewAudioUpload(header.Filename, file, maxBytes)
}

// FromPath loads a local audio file, used by the one-shot CLI mode.
func FromPath(path string, maxBytes int64) (*AudioUpload, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, utils.WrapIfNotNil(err)
	}
	defer func() {
		_ = file.Close()
	}()

	return NewAudioUpload(path, file, maxBytes)
}

func (u *AudioUpload) Empty() bool {
	return u == nil || len(u.Data) == 0
}

// TempFile writes the audio to a temporary file with the container's
// extension and returns its path. Repeated calls return the same path.
func (u *AudioUpload) TempFile(dir string) (string, error) {
	u.mu.Lock()
	defer u.mu.Unlock()

	if u.tempPath != "" {
		return u.tempPath, nil
	}

	file, err := os.CreateTemp(dir, "audio2art-*"+u.Container.Extension())
	if err != nil {
		return "", utils.WrapIfNotNil(err)
	}

	_, writeErr := file.Write(u.Data)
	closeErr := file.Close()
	if err := errors.Join(writeErr, closeErr); err != nil {
		_ = os.Remove(file.Name())
		return "", utils.WrapIfNotNil(err)
	}

	u.tempPath = file.Name()
	return u.tempPath, nil
}

// Close removes the temporary file. It is safe to call more than once.
func (u *AudioUpload) Close() error {
	if u == nil {
		return nil
	}
	u.mu.Lock()
	defer u.mu.Unlock()

	if u.tempPath == "" {
		return nil
	}
	path := u.tempPath
	u.tempPath = ""
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return utils.WrapIfNotNil(err)
	}
	return nil
}

// CloseWithLog is Close for defer statements.
func (u *AudioUpload) CloseWithLog(ctx context.Context) {
	if err := u.Close(); err != nil {
		logging.NewLogger(ctx).Warnf("removing temporary audio file: %v", err)
	}
}

// DataURL embeds the audio for inline playback on the result page.
func (u *AudioUpload) DataURL() string {
	if u.Empty() {
		return ""
	}
	return "data:" + u.MIMEType + ";base64," + base64.StdEncoding.EncodeToString(u.Data)
}
