package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/Nephrolytics-ai/audio2art/pkg/config"
	"github.com/Nephrolytics-ai/audio2art/pkg/ingest"
	"github.com/Nephrolytics-ai/audio2art/pkg/providers"
	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

// ExternalDependenciesSuite loads provider credentials from SETTINGS_FILE,
// or $HOME/.env when it exists.
type ExternalDependenciesSuite struct {
	suite.Suite
	settingsFile string
}

func (s *ExternalDependenciesSuite) SetupSuite() {
	settingsFromEnv := strings.TrimSpace(os.Getenv("SETTINGS_FILE"))
	settingsFile := settingsFromEnv
	if settingsFile == "" {
		homeDir, err := os.UserHomeDir()
		require.NoError(s.T(), err)
		settingsFile = filepath.Join(homeDir, ".env")
	}

	s.settingsFile = settingsFile

	_, err := os.Stat(settingsFile)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && settingsFromEnv == "" {
			return
		}
		require.NoError(s.T(), err)
		return
	}

	err = godotenv.Overload(settingsFile)
	require.NoError(s.T(), err)
}

type PipelineIntegrationSuite struct {
	ExternalDependenciesSuite
	cfg         *config.Config
	fixturePath string
}

func (s *PipelineIntegrationSuite) SetupSuite() {
	s.ExternalDependenciesSuite.SetupSuite()

	run, err := strconv.ParseBool(strings.TrimSpace(os.Getenv("RUN_INTEGRATION_TESTS")))
	if err != nil || !run {
		s.T().Skip("RUN_INTEGRATION_TESTS is not true; skipping pipeline integration tests")
	}

	s.fixturePath = strings.TrimSpace(os.Getenv("AUDIO2ART_FIXTURE"))
	if s.fixturePath == "" {
		s.T().Skip("AUDIO2ART_FIXTURE is not set; skipping pipeline integration tests")
	}
	if _, err := os.Stat(s.fixturePath); err != nil {
		s.T().Skipf("%s is not accessible (%v); skipping pipeline integration tests", s.fixturePath, err)
	}

	s.cfg, err = config.Load(strings.TrimSpace(os.Getenv("AUDIO2ART_CONFIG")))
	require.NoError(s.T(), err)
	if err := s.cfg.Validate(); err != nil {
		s.T().Skipf("configuration incomplete (%v); skipping pipeline integration tests", err)
	}
}

func (s *PipelineIntegrationSuite) TestRunAgainstConfiguredProviders() {
	ctx, cancel := context.WithTimeout(context.Background(), 180*time.Second)
	defer cancel()

	registry := providers.Default()
	newTranscription, err := registry.Transcriber(s.cfg.Transcription.Provider)
	require.NoError(s.T(), err)
	newImage, err := registry.ImageGenerator(s.cfg.Image.Provider)
	require.NoError(s.T(), err)

	runner := NewRunner(
		NewTranscriber(newTranscription, s.cfg.AudioOptions(), s.cfg.Upload.TempDir),
		NewImageStage(newImage, s.cfg.ImageOptions()),
	)

	upload, err := ingest.FromPath(s.fixturePath, s.cfg.Upload.MaxBytes)
	require.NoError(s.T(), err)

	result, err := runner.Run(ctx, upload)
	require.NoError(s.T(), err)
	assert.NotEmpty(s.T(), strings.TrimSpace(result.Transcript))
	require.NotNil(s.T(), result.Image)
	assert.NotEmpty(s.T(), result.Image.URL)
}

func TestPipelineIntegrationSuite(t *testing.T) {
	suite.Run(t, new(PipelineIntegrationSuite))
}
