package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Nephrolytics-ai/audio2art/pkg/ingest"
	"github.com/Nephrolytics-ai/audio2art/pkg/providers"
	"github.com/stretchr/testify/suite"
)

var managedEnv = []string{
	"AUDIO2ART_ENV_FILE",
	"AUDIO2ART_ADDR",
	"AUDIO2ART_REQUEST_TIMEOUT",
	"AUDIO2ART_DISABLE_MCP",
	"AUDIO2ART_TRANSCRIPTION_PROVIDER",
	"AUDIO2ART_TRANSCRIPTION_MODEL",
	"AUDIO2ART_TRANSCRIPTION_URL",
	"AUDIO2ART_TRANSCRIPTION_LANGUAGE",
	"AUDIO2ART_TRANSCRIPTION_API_KEY_FILE",
	"AUDIO2ART_IMAGE_PROVIDER",
	"AUDIO2ART_IMAGE_MODEL",
	"AUDIO2ART_IMAGE_URL",
	"AUDIO2ART_IMAGE_REGION",
	"AUDIO2ART_IMAGE_API_KEY_FILE",
	"AUDIO2ART_TEMP_DIR",
	"AUDIO2ART_MAX_UPLOAD_BYTES",
	"AUDIO2ART_LOG_LEVEL",
	"AUDIO2ART_LOG_FORMAT",
	"OPENAI_API_KEY",
	"OPENAI_API_KEY_FILE",
	"OPENAI_BASE_URL",
	"HF_TOKEN",
	"HF_TOKEN_FILE",
	"GEMINI_KEY",
	"GEMINI_KEY_FILE",
	"AWS_PROFILE",
	"AWS_ACCESS_KEY_ID",
	"AWS_SECRET_ACCESS_KEY",
}

type ConfigSuite struct {
	suite.Suite
	dir string
}

func TestConfigSuite(t *testing.T) {
	suite.Run(t, new(ConfigSuite))
}

func (s *ConfigSuite) SetupTest() {
	for _, name := range managedEnv {
		s.T().Setenv(name, "")
	}
	s.dir = s.T().TempDir()
}

func (s *ConfigSuite) writeFile(name string, content string) string {
	path := filepath.Join(s.dir, name)
	s.Require().NoError(os.WriteFile(path, []byte(content), 0o600))
	return path
}

func (s *ConfigSuite) TestDefaults() {
	cfg, err := Load("")
	s.Require().NoError(err)

	s.Equal(":8080", cfg.Server.Addr)
	s.Equal(providers.OpenAI, cfg.Transcription.Provider)
	s.Equal(providers.OpenAI, cfg.Image.Provider)
	s.Equal(ingest.DefaultMaxUploadBytes, cfg.Upload.MaxBytes)
	s.Equal("info", cfg.Log.Level)
	s.Equal("text", cfg.Log.Format)
	s.False(cfg.Server.DisableMCP)

	timeout, err := cfg.RequestTimeout()
	s.Require().NoError(err)
	s.Equal(2*time.Minute, timeout)
}

func (s *ConfigSuite) TestYAMLWithExpansion() {
	s.T().Setenv("OPENAI_API_KEY", "sk-env")
	path := s.writeFile("audio2art.yaml", `
server:
  addr: ":9090"
  request_timeout: 45s
transcription:
  provider: HuggingFace
  api_key: hf-from-file
  language: en
image:
  provider: openai
  api_key: ${OPENAI_API_KEY}
  model: dall-e-3
log:
  level: debug
  format: json
`)

	cfg, err := Load(path)
	s.Require().NoError(err)

	s.Equal(":9090", cfg.Server.Addr)
	s.Equal(providers.HuggingFace, cfg.Transcription.Provider)
	s.Equal("hf-from-file", cfg.Transcription.APIKey)
	s.Equal("en", cfg.Transcription.Language)
	s.Equal("sk-env", cfg.Image.APIKey)
	s.Equal("dall-e-3", cfg.ImageOptions().Model)
	s.Equal("json", cfg.Log.Format)
	s.NoError(cfg.Validate())
}

func (s *ConfigSuite) TestEnvironmentOverridesFile() {
	path := s.writeFile("audio2art.yaml", "server:\n  addr: \":9090\"\n")
	s.T().Setenv("AUDIO2ART_ADDR", ":7070")
	s.T().Setenv("AUDIO2ART_MAX_UPLOAD_BYTES", "1024")
	s.T().Setenv("AUDIO2ART_DISABLE_MCP", "true")

	cfg, err := Load(path)
	s.Require().NoError(err)

	s.Equal(":7070", cfg.Server.Addr)
	s.Equal(int64(1024), cfg.Upload.MaxBytes)
	s.True(cfg.Server.DisableMCP)
}

func (s *ConfigSuite) TestProviderKeysFromEnvironment() {
	s.T().Setenv("OPENAI_API_KEY", "sk-test")
	s.T().Setenv("OPENAI_BASE_URL", "http://localhost:9000/v1")

	cfg, err := Load("")
	s.Require().NoError(err)

	s.Equal("sk-test", cfg.AudioOptions().AuthToken)
	s.Equal("sk-test", cfg.ImageOptions().AuthToken)
	s.Equal("http://localhost:9000/v1", cfg.AudioOptions().URL)
	s.NoError(cfg.Validate())
}

func (s *ConfigSuite) TestKeyFileFromSecretMount() {
	keyPath := s.writeFile("openai_api_key", "sk-mounted\n")
	s.T().Setenv("OPENAI_API_KEY_FILE", keyPath)

	cfg, err := Load("")
	s.Require().NoError(err)

	s.Equal("sk-mounted", cfg.Transcription.APIKey)
	s.Equal("sk-mounted", cfg.Image.APIKey)
}

func (s *ConfigSuite) TestMissingKeyFileFailsLoad() {
	s.T().Setenv("OPENAI_API_KEY_FILE", filepath.Join(s.dir, "absent"))

	_, err := Load("")
	s.Error(err)
}

func (s *ConfigSuite) TestValidateMissingKey() {
	cfg, err := Load("")
	s.Require().NoError(err)

	err = cfg.Validate()
	s.Require().Error(err)
	s.True(errors.Is(err, ErrMissingAPIKey))
	s.Contains(err.Error(), "OPENAI_API_KEY")
}

func (s *ConfigSuite) TestValidateWhitespaceKeyIsMissing() {
	s.T().Setenv("GEMINI_KEY", "   ")
	s.T().Setenv("AUDIO2ART_TRANSCRIPTION_PROVIDER", "gemini")
	s.T().Setenv("AUDIO2ART_IMAGE_PROVIDER", "gemini")

	cfg, err := Load("")
	s.Require().NoError(err)
	s.True(errors.Is(cfg.Validate(), ErrMissingAPIKey))
}

func (s *ConfigSuite) TestValidateBedrockNeedsAWSCredentials() {
	s.T().Setenv("OPENAI_API_KEY", "sk-test")
	s.T().Setenv("AUDIO2ART_IMAGE_PROVIDER", "bedrock")

	cfg, err := Load("")
	s.Require().NoError(err)
	s.True(errors.Is(cfg.Validate(), ErrMissingAPIKey))

	s.T().Setenv("AWS_PROFILE", "default")
	s.NoError(cfg.Validate())
}

func (s *ConfigSuite) TestValidateRejectsUnsupportedProvider() {
	s.T().Setenv("OPENAI_API_KEY", "sk-test")
	s.T().Setenv("AUDIO2ART_TRANSCRIPTION_PROVIDER", "bedrock")

	cfg, err := Load("")
	s.Require().NoError(err)
	s.True(errors.Is(cfg.Validate(), ErrInvalidProvider))
}

func (s *ConfigSuite) TestValidateRejectsBadTimeout() {
	s.T().Setenv("OPENAI_API_KEY", "sk-test")
	s.T().Setenv("AUDIO2ART_REQUEST_TIMEOUT", "soon")

	cfg, err := Load("")
	s.Require().NoError(err)
	s.Error(cfg.Validate())
}

func (s *ConfigSuite) TestDotEnvFile() {
	const name = "AUDIO2ART_DOTENV_MARKER"
	s.T().Cleanup(func() {
		_ = os.Unsetenv(name)
	})
	envPath := s.writeFile(".env", name+"=loaded\n")
	s.T().Setenv("AUDIO2ART_ENV_FILE", envPath)

	_, err := Load("")
	s.Require().NoError(err)
	s.Equal("loaded", os.Getenv(name))
}

func (s *ConfigSuite) TestExplicitDotEnvMustExist() {
	s.T().Setenv("AUDIO2ART_ENV_FILE", filepath.Join(s.dir, "missing.env"))

	_, err := Load("")
	s.Error(err)
}

func (s *ConfigSuite) TestValidateAcceptsEveryRegisteredProvider() {
	registry := providers.Default()
	s.T().Setenv("OPENAI_API_KEY", "sk-openai")
	s.T().Setenv("HF_TOKEN", "hf-token")
	s.T().Setenv("GEMINI_KEY", "gm-key")
	s.T().Setenv("AWS_ACCESS_KEY_ID", "AKIAEXAMPLE")
	s.T().Setenv("AWS_SECRET_ACCESS_KEY", "secret")

	for _, name := range registry.TranscriberNames() {
		s.T().Setenv("AUDIO2ART_TRANSCRIPTION_PROVIDER", name)
		cfg, err := Load("")
		s.Require().NoError(err, name)
		s.NoError(cfg.Validate(), name)
	}
	s.T().Setenv("AUDIO2ART_TRANSCRIPTION_PROVIDER", providers.OpenAI)
	for _, name := range registry.ImageGeneratorNames() {
		s.T().Setenv("AUDIO2ART_IMAGE_PROVIDER", name)
		cfg, err := Load("")
		s.Require().NoError(err, name)
		s.NoError(cfg.Validate(), name)
	}

	s.ElementsMatch(registry.TranscriberNames(), transcriptionProviders)
	s.ElementsMatch(registry.ImageGeneratorNames(), imageProviders)
}
