package config

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server      ServerConfig    `yaml:"server"`
	Assistant   AssistantConfig `yaml:"assistant"`
	Advice      AdviceConfig    `yaml:"advice"`
	Transcriber ProviderConfig  `yaml:"transcriber"`
	Translator  ProviderConfig  `yaml:"translator"`
	Synthesizer ProviderConfig  `yaml:"synthesizer"`
	Storage     StorageConfig   `yaml:"storage"`
	OpenAI      OpenAIConfig    `yaml:"openai"`
	Anthropic   AnthropicConfig `yaml:"anthropic"`
	Gemini      GeminiConfig    `yaml:"gemini"`
	Google      GoogleConfig    `yaml:"google"`
	Azure       AzureConfig     `yaml:"azure"`
	Whisper     WhisperConfig   `yaml:"whisper"`
	Breaker     BreakerConfig   `yaml:"breaker"`
	Network     NetworkConfig   `yaml:"network"`
	Pushover    PushoverConfig  `yaml:"pushover"`
	Log         LogConfig       `yaml:"log"`
	Audio       AudioConfig     `yaml:"audio"`
}

type ServerConfig struct {
	Addr         string        `yaml:"addr"`
	MaxBodyBytes int64         `yaml:"max_body_bytes"`
	RateLimit    int           `yaml:"rate_limit"`
	RateWindow   time.Duration `yaml:"rate_window"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

type AssistantConfig struct {
	SourceLanguage          string         `yaml:"source_language"`
	PivotLanguage           string         `yaml:"pivot_language"`
	TempDir                 string         `yaml:"temp_dir"`
	BlobPrefix              string         `yaml:"blob_prefix"`
	FallbackTranscript      string         `yaml:"fallback_transcript"`
	FallbackTranscriptPivot string         `yaml:"fallback_transcript_pivot"`
	Apology                 string         `yaml:"apology"`
	ApologyPivot            string         `yaml:"apology_pivot"`
	Inbound                 *RulesConfig   `yaml:"inbound"`
	Outbound                *RulesConfig   `yaml:"outbound"`
	Timeouts                TimeoutsConfig `yaml:"timeouts"`
}

// RulesConfig overrides the canned substitutes used when a translation
// fails. A nil section keeps the built-in rules.
type RulesConfig struct {
	Rules   []MarkerRule `yaml:"rules"`
	Default string       `yaml:"default"`
}

type MarkerRule struct {
	Marker string `yaml:"marker"`
	Text   string `yaml:"text"`
}

type TimeoutsConfig struct {
	Transcribe time.Duration `yaml:"transcribe"`
	Translate  time.Duration `yaml:"translate"`
	Synthesize time.Duration `yaml:"synthesize"`
	Store      time.Duration `yaml:"store"`
}

type AdviceConfig struct {
	// KnowledgeBase is a YAML file replacing the built-in entries.
	KnowledgeBase string `yaml:"knowledge_base"`
	Strategy      string `yaml:"strategy"`
	WordBoundary  bool   `yaml:"word_boundary"`
}

type ProviderConfig struct {
	Provider string `yaml:"provider"`
	// StubText is the transcript returned by the stub transcriber.
	StubText string `yaml:"stub_text"`
}

type StorageConfig struct {
	Provider string `yaml:"provider"`
	// PublicBaseURL prefixes URLs of blobs served by this service.
	PublicBaseURL string      `yaml:"public_base_url"`
	LocalDir      string      `yaml:"local_dir"`
	Redis         RedisConfig `yaml:"redis"`
	GCS           GCSConfig   `yaml:"gcs"`
}

type RedisConfig struct {
	URL  string        `yaml:"url"`
	Addr string        `yaml:"addr"`
	TTL  time.Duration `yaml:"ttl"`
}

type GCSConfig struct {
	Bucket          string `yaml:"bucket"`
	CredentialsFile string `yaml:"credentials_file"`
	BaseURL         string `yaml:"base_url"`
	PublicRead      bool   `yaml:"public_read"`
}

type OpenAIConfig struct {
	APIKey             string `yaml:"api_key"`
	BaseURL            string `yaml:"base_url"`
	Model              string `yaml:"model"`
	TranscriptionModel string `yaml:"transcription_model"`
}

type AnthropicConfig struct {
	APIKey string `yaml:"api_key"`
	Model  string `yaml:"model"`
}

type GeminiConfig struct {
	APIKey string `yaml:"api_key"`
	Model  string `yaml:"model"`
}

type GoogleConfig struct {
	CredentialsFile   string `yaml:"credentials_file"`
	TranslateAPIKey   string `yaml:"translate_api_key"`
	TranslateEndpoint string `yaml:"translate_endpoint"`
}

type AzureConfig struct {
	Key          string `yaml:"key"`
	Region       string `yaml:"region"`
	Voice        string `yaml:"voice"`
	OutputFormat string `yaml:"output_format"`
}

type WhisperConfig struct {
	ExecPath  string `yaml:"exec_path"`
	ModelPath string `yaml:"model_path"`
	Threads   int    `yaml:"threads"`
}

type BreakerConfig struct {
	Enabled      bool          `yaml:"enabled"`
	MaxRequests  uint32        `yaml:"max_requests"`
	Interval     time.Duration `yaml:"interval"`
	Timeout      time.Duration `yaml:"timeout"`
	MinRequests  uint32        `yaml:"min_requests"`
	FailureRatio float64       `yaml:"failure_ratio"`
}

type NetworkConfig struct {
	SocksProxy string        `yaml:"socks_proxy"`
	Timeout    time.Duration `yaml:"timeout"`
}

type PushoverConfig struct {
	Token   string `yaml:"token"`
	UserKey string `yaml:"user_key"`
	Title   string `yaml:"title"`
	Enabled bool   `yaml:"enabled"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// AudioConfig is used by the command-line runner.
type AudioConfig struct {
	WatchDir   string `yaml:"watch_dir"`
	SampleRate int    `yaml:"sample_rate"`
}

var (
	TranscriberProviders = []string{"openai", "google", "whisper_cli", "whisper_cpp", "stub", "none"}
	TranslatorProviders  = []string{"google", "openai", "anthropic", "gemini", "stub", "none"}
	SynthesizerProviders = []string{"azure", "stub", "none"}
	StorageProviders     = []string{"local", "redis", "gcs", "none"}
	AdviceStrategies     = []string{"first_match", "longest_match"}
)

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	expanded := os.ExpandEnv(string(data))

	var cfg Config
	cfg.Breaker.Enabled = true
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	cfg.setDefaults()

	return &cfg, nil
}

// Default returns the configuration used when no file is given: stub
// capabilities, local storage and credentials picked up from the
// environment.
func Default() *Config {
	cfg := Config{
		Breaker: BreakerConfig{Enabled: true},
		OpenAI:  OpenAIConfig{APIKey: os.Getenv("OPENAI_API_KEY")},
		Azure: AzureConfig{
			Key:    os.Getenv("AZURE_SPEECH_KEY"),
			Region: os.Getenv("AZURE_SPEECH_REGION"),
		},
		Google: GoogleConfig{TranslateAPIKey: os.Getenv("GOOGLE_TRANSLATE_API_KEY")},
	}
	cfg.setDefaults()
	return &cfg
}

func (c *Config) setDefaults() {
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
		if port := os.Getenv("PORT"); port != "" {
			c.Server.Addr = ":" + port
		}
	}
	if c.Server.MaxBodyBytes == 0 {
		c.Server.MaxBodyBytes = 25 << 20
	}
	if c.Server.RateLimit == 0 {
		c.Server.RateLimit = 30
	}
	if c.Server.RateWindow == 0 {
		c.Server.RateWindow = time.Minute
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = 30 * time.Second
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = 3 * time.Minute
	}

	if c.Assistant.SourceLanguage == "" {
		c.Assistant.SourceLanguage = "zu"
	}
	if c.Assistant.PivotLanguage == "" {
		c.Assistant.PivotLanguage = "en"
	}
	if c.Assistant.BlobPrefix == "" {
		c.Assistant.BlobPrefix = "audio/"
	}
	if c.Assistant.Timeouts.Transcribe == 0 {
		c.Assistant.Timeouts.Transcribe = 60 * time.Second
	}
	if c.Assistant.Timeouts.Translate == 0 {
		c.Assistant.Timeouts.Translate = 15 * time.Second
	}
	if c.Assistant.Timeouts.Synthesize == 0 {
		c.Assistant.Timeouts.Synthesize = 30 * time.Second
	}
	if c.Assistant.Timeouts.Store == 0 {
		c.Assistant.Timeouts.Store = 30 * time.Second
	}

	if c.Advice.Strategy == "" {
		c.Advice.Strategy = "first_match"
	}

	if c.Transcriber.Provider == "" {
		c.Transcriber.Provider = "stub"
	}
	if c.Translator.Provider == "" {
		c.Translator.Provider = "stub"
	}
	if c.Synthesizer.Provider == "" {
		c.Synthesizer.Provider = "stub"
	}
	if c.Storage.Provider == "" {
		c.Storage.Provider = "local"
	}
	if c.Storage.PublicBaseURL == "" {
		c.Storage.PublicBaseURL = "http://localhost" + c.Server.Addr
		if !strings.HasPrefix(c.Server.Addr, ":") {
			c.Storage.PublicBaseURL = "http://" + c.Server.Addr
		}
	}
	if c.Storage.LocalDir == "" {
		c.Storage.LocalDir = "./data/audio_responses"
	}
	if c.Storage.Redis.TTL == 0 {
		c.Storage.Redis.TTL = 24 * time.Hour
	}

	if c.Anthropic.Model == "" {
		c.Anthropic.Model = "claude-sonnet-4-20250514"
	}
	if c.Gemini.Model == "" {
		c.Gemini.Model = "gemini-2.0-flash"
	}
	if c.Azure.Voice == "" {
		c.Azure.Voice = "zu-ZA-ThandoNeural"
	}
	if c.Whisper.ExecPath == "" {
		c.Whisper.ExecPath = "whisper-cli"
	}

	if c.Breaker.MaxRequests == 0 {
		c.Breaker.MaxRequests = 1
	}
	if c.Breaker.Interval == 0 {
		c.Breaker.Interval = time.Minute
	}
	if c.Breaker.Timeout == 0 {
		c.Breaker.Timeout = 30 * time.Second
	}
	if c.Breaker.MinRequests == 0 {
		c.Breaker.MinRequests = 3
	}
	if c.Breaker.FailureRatio == 0 {
		c.Breaker.FailureRatio = 0.6
	}

	if c.Network.Timeout == 0 {
		c.Network.Timeout = 120 * time.Second
	}

	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}

	if c.Audio.WatchDir == "" {
		c.Audio.WatchDir = "./data/audio_recordings"
	}
	if c.Audio.SampleRate == 0 {
		c.Audio.SampleRate = 16000
	}
}

// Validate reports every provider choice that cannot work with the given
// settings.
func (c *Config) Validate() error {
	var errs []error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = append(errs, fmt.Errorf(format, args...))
		}
	}
	oneOf := func(field, value string, allowed []string) bool {
		ok := slices.Contains(allowed, value)
		check(ok, "%s: unknown value %q (want one of %s)", field, value, strings.Join(allowed, ", "))
		return ok
	}

	if oneOf("transcriber.provider", c.Transcriber.Provider, TranscriberProviders) {
		switch c.Transcriber.Provider {
		case "openai":
			check(c.OpenAI.APIKey != "", "transcriber openai: openai.api_key is required")
		case "whisper_cli", "whisper_cpp":
			check(c.Whisper.ModelPath != "", "transcriber %s: whisper.model_path is required", c.Transcriber.Provider)
		}
	}

	if oneOf("translator.provider", c.Translator.Provider, TranslatorProviders) {
		switch c.Translator.Provider {
		case "google":
			check(c.Google.TranslateAPIKey != "", "translator google: google.translate_api_key is required")
		case "openai":
			check(c.OpenAI.APIKey != "", "translator openai: openai.api_key is required")
		case "anthropic":
			check(c.Anthropic.APIKey != "", "translator anthropic: anthropic.api_key is required")
		case "gemini":
			check(c.Gemini.APIKey != "", "translator gemini: gemini.api_key is required")
		}
	}

	if oneOf("synthesizer.provider", c.Synthesizer.Provider, SynthesizerProviders) && c.Synthesizer.Provider == "azure" {
		check(c.Azure.Key != "" && c.Azure.Region != "", "synthesizer azure: azure.key and azure.region are required")
	}

	if oneOf("storage.provider", c.Storage.Provider, StorageProviders) {
		switch c.Storage.Provider {
		case "redis":
			check(c.Storage.Redis.URL != "" || c.Storage.Redis.Addr != "", "storage redis: storage.redis.url or storage.redis.addr is required")
		case "gcs":
			check(c.Storage.GCS.Bucket != "", "storage gcs: storage.gcs.bucket is required")
		}
	}

	oneOf("advice.strategy", c.Advice.Strategy, AdviceStrategies)

	check(c.Assistant.SourceLanguage != "" && c.Assistant.PivotLanguage != "", "assistant: languages must be set")
	check(strings.Trim(c.Assistant.BlobPrefix, "/") != "", "assistant.blob_prefix must not be empty")
	t := c.Assistant.Timeouts
	check(t.Transcribe >= 0 && t.Translate >= 0 && t.Synthesize >= 0 && t.Store >= 0, "assistant.timeouts must not be negative")
	check(c.Breaker.FailureRatio > 0 && c.Breaker.FailureRatio <= 1, "breaker.failure_ratio must be in (0, 1]")
	check(c.Server.WriteTimeout <= 0 || c.Server.WriteTimeout > t.Transcribe+2*t.Translate+t.Synthesize+t.Store,
		"server.write_timeout must exceed the sum of the stage timeouts")

	if c.Pushover.Enabled {
		check(c.Pushover.Token != "" && c.Pushover.UserKey != "", "pushover: token and user_key are required when enabled")
	}

	return errors.Join(errs...)
}
