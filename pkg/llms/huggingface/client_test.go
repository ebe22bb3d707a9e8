package huggingface

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/Nephrolytics-ai/audio2art/pkg/model"
	"github.com/stretchr/testify/suite"
)

type ClientSuite struct {
	suite.Suite
}

func TestClientSuite(t *testing.T) {
	suite.Run(t, new(ClientSuite))
}

func (s *ClientSuite) SetupTest() {
	s.T().Setenv(envHFToken, "")
	s.T().Setenv(envHFBaseURL, "")
	s.T().Setenv(envHFASRModel, "")
}

func (s *ClientSuite) TestResolveASRModelNameFromConfig() {
	name := "openai/whisper-large-v3"
	s.Equal("openai/whisper-large-v3", resolveASRModelName(model.GeneratorConfig{Model: &name}))
}

func (s *ClientSuite) TestResolveASRModelNameFromEnv() {
	s.T().Setenv(envHFASRModel, "distil-whisper/distil-small.en")
	s.Equal("distil-whisper/distil-small.en", resolveASRModelName(model.GeneratorConfig{}))
}

func (s *ClientSuite) TestResolveASRModelNameDefault() {
	s.Equal(defaultASRModelName, resolveASRModelName(model.GeneratorConfig{}))
}

func (s *ClientSuite) TestNewAPIClientRequiresAuthToken() {
	client, err := newAPIClient(model.GeneratorConfig{})
	s.Nil(client)
	s.Error(err)
	s.Contains(err.Error(), "auth token is required")
}

func (s *ClientSuite) TestNewAPIClientSuccess() {
	client, err := newAPIClient(model.GeneratorConfig{AuthToken: "hf_test_token"})
	s.NoError(err)
	s.Equal("hf_test_token", client.apiKey)
	s.Equal(defaultBaseURL, client.baseURL)
}

func (s *ClientSuite) TestNewAPIClientCustomBaseURL() {
	client, err := newAPIClient(model.GeneratorConfig{
		AuthToken: "hf_test_token",
		URL:       "https://custom-hf.example.com/",
	})
	s.NoError(err)
	s.Equal("https://custom-hf.example.com", client.baseURL)
}

func (s *ClientSuite) TestInferenceErrorMessageFormats() {
	s.Equal("Model is loading", inferenceErrorMessage([]byte(`{"error":"Model is loading"}`)))
	s.Equal("bad token", inferenceErrorMessage([]byte(`{"error":{"message":"bad token"}}`)))
	s.Equal("plain failure", inferenceErrorMessage([]byte("plain failure")))
	s.Equal("unknown huggingface error", inferenceErrorMessage(nil))
}

func (s *ClientSuite) writeAudio(name string) string {
	path := filepath.Join(s.T().TempDir(), name)
	s.Require().NoError(os.WriteFile(path, []byte("ID3fake-mp3"), 0o600))
	return path
}

func (s *ClientSuite) TestGenerateSendsRawAudio() {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.Equal("/hf-inference/models/openai/whisper-small", r.URL.Path)
		s.Equal("audio/mpeg", r.Header.Get("Content-Type"))
		s.Equal("Bearer hf_test_token", r.Header.Get("Authorization"))
		body, err := io.ReadAll(r.Body)
		s.NoError(err)
		s.Equal("ID3fake-mp3", string(body))
		_, _ = w.Write([]byte(`{"text":" Paint me a storm."}`))
	}))
	defer server.Close()

	generator, err := NewAudioTranscriptionGenerator(s.writeAudio("clip.mp3"), model.AudioOptions{
		URL:       server.URL,
		AuthToken: "hf_test_token",
	})
	s.Require().NoError(err)

	text, meta, err := generator.Generate(context.Background())
	s.Require().NoError(err)
	s.Equal(" Paint me a storm.", text)
	s.Equal(providerName, meta[model.MetadataKeyProvider])
	s.Equal("11", meta[model.MetadataKeyAudioBytes])
}

func (s *ClientSuite) TestGenerateSurfacesAPIError() {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"error":"Model openai/whisper-small is currently loading"}`))
	}))
	defer server.Close()

	generator, err := NewAudioTranscriptionGenerator(s.writeAudio("clip.mp3"), model.AudioOptions{
		URL:       server.URL,
		AuthToken: "hf_test_token",
		MIMEType:  "audio/mpeg",
	})
	s.Require().NoError(err)

	_, _, err = generator.Generate(context.Background())
	s.Require().Error(err)
	s.Contains(err.Error(), "(503)")
	s.Contains(err.Error(), "currently loading")
}

func (s *ClientSuite) TestGenerateEmptyTextIsError() {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"text":""}`))
	}))
	defer server.Close()

	generator, err := NewAudioTranscriptionGenerator(s.writeAudio("clip.wav"), model.AudioOptions{
		URL:       server.URL,
		AuthToken: "hf_test_token",
	})
	s.Require().NoError(err)

	_, _, err = generator.Generate(context.Background())
	s.Require().Error(err)
	s.Contains(err.Error(), "transcription response is empty")
}
