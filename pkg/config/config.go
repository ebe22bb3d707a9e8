package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/Nephrolytics-ai/audio2art/pkg/ingest"
	"github.com/Nephrolytics-ai/audio2art/pkg/model"
	"github.com/Nephrolytics-ai/audio2art/pkg/providers"
	"github.com/Nephrolytics-ai/audio2art/pkg/utils"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

var (
	ErrMissingAPIKey   = errors.New("missing API key")
	ErrInvalidProvider = errors.New("invalid provider")
)

// Accepted provider names come from the registry the binary is built with.
var (
	transcriptionProviders = providers.Default().TranscriberNames()
	imageProviders         = providers.Default().ImageGeneratorNames()
)

type Config struct {
	Server        ServerConfig        `yaml:"server"`
	Transcription TranscriptionConfig `yaml:"transcription"`
	Image         ImageConfig         `yaml:"image"`
	Upload        UploadConfig        `yaml:"upload"`
	Log           LogConfig           `yaml:"log"`
}

type ServerConfig struct {
	Addr           string `yaml:"addr"`
	RequestTimeout string `yaml:"request_timeout"`
	DisableMCP     bool   `yaml:"disable_mcp"`
}

type TranscriptionConfig struct {
	Provider   string `yaml:"provider"`
	Model      string `yaml:"model"`
	URL        string `yaml:"url"`
	APIKey     string `yaml:"api_key"`
	APIKeyFile string `yaml:"api_key_file"`
	Language   string `yaml:"language"`
	Prompt     string `yaml:"prompt"`
}

type ImageConfig struct {
	Provider   string `yaml:"provider"`
	Model      string `yaml:"model"`
	URL        string `yaml:"url"`
	APIKey     string `yaml:"api_key"`
	APIKeyFile string `yaml:"api_key_file"`
	Region     string `yaml:"region"`
}

type UploadConfig struct {
	MaxBytes int64  `yaml:"max_bytes"`
	TempDir  string `yaml:"temp_dir"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load builds the configuration from, in increasing precedence: defaults,
// the YAML file at path (optional, ${VAR} references expanded), and the
// process environment. A .env file in the working directory, or the one
// named by AUDIO2ART_ENV_FILE, is loaded first without overriding variables
// that are already set.
func Load(path string) (*Config, error) {
	if err := loadDotEnv(); err != nil {
		return nil, err
	}

	cfg := &Config{}
	if strings.TrimSpace(path) != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}

		expanded := os.ExpandEnv(string(data))
		if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
			return nil, fmt.Errorf("parsing config: %w", err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.setDefaults()

	if err := cfg.resolveKeyFiles(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadDotEnv() error {
	envFile := strings.TrimSpace(os.Getenv("AUDIO2ART_ENV_FILE"))
	explicit := envFile != ""
	if !explicit {
		envFile = ".env"
	}

	if _, err := os.Stat(envFile); err != nil {
		if errors.Is(err, os.ErrNotExist) && !explicit {
			return nil
		}
		return utils.WrapIfNotNil(err)
	}
	return utils.WrapIfNotNil(godotenv.Load(envFile))
}

func (c *Config) applyEnv() error {
	setString(&c.Server.Addr, "AUDIO2ART_ADDR")
	setString(&c.Server.RequestTimeout, "AUDIO2ART_REQUEST_TIMEOUT")
	if err := setBool(&c.Server.DisableMCP, "AUDIO2ART_DISABLE_MCP"); err != nil {
		return err
	}

	setString(&c.Transcription.Provider, "AUDIO2ART_TRANSCRIPTION_PROVIDER")
	setString(&c.Transcription.Model, "AUDIO2ART_TRANSCRIPTION_MODEL")
	setString(&c.Transcription.URL, "AUDIO2ART_TRANSCRIPTION_URL")
	setString(&c.Transcription.Language, "AUDIO2ART_TRANSCRIPTION_LANGUAGE")
	setString(&c.Transcription.APIKeyFile, "AUDIO2ART_TRANSCRIPTION_API_KEY_FILE")

	setString(&c.Image.Provider, "AUDIO2ART_IMAGE_PROVIDER")
	setString(&c.Image.Model, "AUDIO2ART_IMAGE_MODEL")
	setString(&c.Image.URL, "AUDIO2ART_IMAGE_URL")
	setString(&c.Image.Region, "AUDIO2ART_IMAGE_REGION")
	setString(&c.Image.APIKeyFile, "AUDIO2ART_IMAGE_API_KEY_FILE")

	setString(&c.Upload.TempDir, "AUDIO2ART_TEMP_DIR")
	if raw := strings.TrimSpace(os.Getenv("AUDIO2ART_MAX_UPLOAD_BYTES")); raw != "" {
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return fmt.Errorf("parsing AUDIO2ART_MAX_UPLOAD_BYTES: %w", err)
		}
		c.Upload.MaxBytes = n
	}

	setString(&c.Log.Level, "AUDIO2ART_LOG_LEVEL")
	setString(&c.Log.Format, "AUDIO2ART_LOG_FORMAT")
	return nil
}

func (c *Config) setDefaults() {
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Server.RequestTimeout == "" {
		c.Server.RequestTimeout = "2m"
	}
	if c.Transcription.Provider == "" {
		c.Transcription.Provider = providers.OpenAI
	}
	if c.Image.Provider == "" {
		c.Image.Provider = providers.OpenAI
	}
	if c.Upload.MaxBytes <= 0 {
		c.Upload.MaxBytes = ingest.DefaultMaxUploadBytes
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}

	c.Transcription.Provider = strings.ToLower(strings.TrimSpace(c.Transcription.Provider))
	c.Image.Provider = strings.ToLower(strings.TrimSpace(c.Image.Provider))

	// Provider-native variables fill keys the file and AUDIO2ART_* left empty.
	if c.Transcription.APIKey == "" {
		c.Transcription.APIKey = providerKeyFromEnv(c.Transcription.Provider)
	}
	if c.Image.APIKey == "" {
		c.Image.APIKey = providerKeyFromEnv(c.Image.Provider)
	}
	if c.Transcription.APIKeyFile == "" && c.Transcription.APIKey == "" {
		c.Transcription.APIKeyFile = providerKeyFileFromEnv(c.Transcription.Provider)
	}
	if c.Image.APIKeyFile == "" && c.Image.APIKey == "" {
		c.Image.APIKeyFile = providerKeyFileFromEnv(c.Image.Provider)
	}
	if c.Transcription.Provider == providers.OpenAI && c.Transcription.URL == "" {
		c.Transcription.URL = strings.TrimSpace(os.Getenv("OPENAI_BASE_URL"))
	}
	if c.Image.Provider == providers.OpenAI && c.Image.URL == "" {
		c.Image.URL = strings.TrimSpace(os.Getenv("OPENAI_BASE_URL"))
	}
}

// resolveKeyFiles reads keys mounted by a secret store. A key set directly
// always wins over a file.
func (c *Config) resolveKeyFiles() error {
	var err error
	if c.Transcription.APIKey == "" && c.Transcription.APIKeyFile != "" {
		c.Transcription.APIKey, err = readKeyFile(c.Transcription.APIKeyFile)
		if err != nil {
			return err
		}
	}
	if c.Image.APIKey == "" && c.Image.APIKeyFile != "" {
		c.Image.APIKey, err = readKeyFile(c.Image.APIKeyFile)
		if err != nil {
			return err
		}
	}
	return nil
}

// Validate fails fast before any provider is called. A missing key for either
// selected provider is reported as ErrMissingAPIKey.
func (c *Config) Validate() error {
	if !contains(transcriptionProviders, c.Transcription.Provider) {
		return fmt.Errorf("%w: transcription provider %q (supported: %s)",
			ErrInvalidProvider, c.Transcription.Provider, strings.Join(transcriptionProviders, ", "))
	}
	if !contains(imageProviders, c.Image.Provider) {
		return fmt.Errorf("%w: image provider %q (supported: %s)",
			ErrInvalidProvider, c.Image.Provider, strings.Join(imageProviders, ", "))
	}

	if strings.TrimSpace(c.Transcription.APIKey) == "" {
		return fmt.Errorf("%w for transcription provider %q: set %s",
			ErrMissingAPIKey, c.Transcription.Provider, providerKeyEnv(c.Transcription.Provider))
	}

	if c.Image.Provider == providers.Bedrock {
		if !awsCredentialsConfigured() {
			return fmt.Errorf("%w for image provider %q: set AWS_ACCESS_KEY_ID and AWS_SECRET_ACCESS_KEY, or AWS_PROFILE",
				ErrMissingAPIKey, c.Image.Provider)
		}
	} else if strings.TrimSpace(c.Image.APIKey) == "" {
		return fmt.Errorf("%w for image provider %q: set %s",
			ErrMissingAPIKey, c.Image.Provider, providerKeyEnv(c.Image.Provider))
	}

	if _, err := c.RequestTimeout(); err != nil {
		return err
	}
	return nil
}

func (c *Config) RequestTimeout() (time.Duration, error) {
	d, err := time.ParseDuration(c.Server.RequestTimeout)
	if err != nil {
		return 0, fmt.Errorf("parsing request_timeout: %w", err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("request_timeout must be positive, got %s", d)
	}
	return d, nil
}

func (c *Config) AudioOptions() model.AudioOptions {
	return model.AudioOptions{
		URL:       c.Transcription.URL,
		AuthToken: c.Transcription.APIKey,
		Model:     c.Transcription.Model,
		Language:  c.Transcription.Language,
		Prompt:    c.Transcription.Prompt,
	}
}

func (c *Config) ImageOptions() model.ImageOptions {
	return model.ImageOptions{
		URL:       c.Image.URL,
		AuthToken: c.Image.APIKey,
		Model:     c.Image.Model,
		Region:    c.Image.Region,
	}
}

func providerKeyEnv(provider string) string {
	switch provider {
	case providers.OpenAI:
		return "OPENAI_API_KEY"
	case providers.HuggingFace:
		return "HF_TOKEN"
	case providers.Gemini:
		return "GEMINI_KEY"
	default:
		return ""
	}
}

func providerKeyFromEnv(provider string) string {
	name := providerKeyEnv(provider)
	if name == "" {
		return ""
	}
	return strings.TrimSpace(os.Getenv(name))
}

// providerKeyFileFromEnv follows the <NAME>_FILE convention used for
// container secret mounts.
func providerKeyFileFromEnv(provider string) string {
	name := providerKeyEnv(provider)
	if name == "" {
		return ""
	}
	return strings.TrimSpace(os.Getenv(name + "_FILE"))
}

func awsCredentialsConfigured() bool {
	if strings.TrimSpace(os.Getenv("AWS_PROFILE")) != "" {
		return true
	}
	return strings.TrimSpace(os.Getenv("AWS_ACCESS_KEY_ID")) != "" &&
		strings.TrimSpace(os.Getenv("AWS_SECRET_ACCESS_KEY")) != ""
}

func readKeyFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading api key file: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

func setString(target *string, name string) {
	if v := strings.TrimSpace(os.Getenv(name)); v != "" {
		*target = v
	}
}

func setBool(target *bool, name string) error {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return fmt.Errorf("parsing %s: %w", name, err)
	}
	*target = v
	return nil
}

func contains(values []string, v string) bool {
	for _, candidate := range values {
		if candidate == v {
			return true
		}
	}
	return false
}
