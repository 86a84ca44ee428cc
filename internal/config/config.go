// Package config resolves service settings from an optional YAML file,
// a .env file and the process environment, in increasing precedence.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const mb = 1024 * 1024

type Config struct {
	Groq       GroqConfig       `yaml:"groq"`
	AssemblyAI AssemblyAIConfig `yaml:"assemblyai"`
	LLM        LLMConfig        `yaml:"llm"`
	Pipeline   PipelineConfig   `yaml:"pipeline"`
	Server     ServerConfig     `yaml:"server"`
	Mock       MockConfig       `yaml:"mock"`
}

type GroqConfig struct {
	APIKey       string `yaml:"api_key"`
	BaseURL      string `yaml:"base_url" validate:"omitempty,url"`
	WhisperModel string `yaml:"whisper_model"`
	MaxMB        int64  `yaml:"max_mb" validate:"min=1"`
}

type AssemblyAIConfig struct {
	APIKey  string `yaml:"api_key"`
	BaseURL string `yaml:"base_url" validate:"omitempty,url"`
	MaxMB   int64  `yaml:"max_mb" validate:"min=1"`
}

type LLMConfig struct {
	Provider string `yaml:"provider" validate:"oneof=groq openai gemini mock"`
	Model    string `yaml:"model"`
	APIKey   string `yaml:"api_key"`
	BaseURL  string `yaml:"base_url" validate:"omitempty,url"`
}

type PipelineConfig struct {
	MaxWordsPerChunk    int  `yaml:"max_words_per_chunk" validate:"min=1"`
	SummaryMaxWords     int  `yaml:"summary_max_words" validate:"min=1"`
	MaxConcurrentChunks int  `yaml:"max_concurrent_chunks" validate:"min=1,max=64"`
	TranscribeTimeout   int  `yaml:"transcribe_timeout_sec" validate:"min=1"`
	ExtractTimeout      int  `yaml:"extract_timeout_sec" validate:"min=1"`
	FallbackOnFailure   bool `yaml:"fallback_on_failure"`
}

type ServerConfig struct {
	Port        string `yaml:"port" validate:"required,numeric"`
	UploadMaxMB int64  `yaml:"upload_max_mb" validate:"min=1"`
}

type MockConfig struct {
	Transcribe bool `yaml:"transcribe"`
	LLM        bool `yaml:"llm"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Groq: GroqConfig{
			BaseURL:      "https://api.groq.com/openai/v1",
			WhisperModel: "whisper-large-v3-turbo",
			MaxMB:        25,
		},
		AssemblyAI: AssemblyAIConfig{
			BaseURL: "https://api.assemblyai.com/v2",
			MaxMB:   5 * 1024,
		},
		LLM: LLMConfig{
			Provider: "groq",
			Model:    "llama-3.3-70b-versatile",
		},
		Pipeline: PipelineConfig{
			MaxWordsPerChunk:    5000,
			SummaryMaxWords:     3000,
			MaxConcurrentChunks: 4,
			TranscribeTimeout:   300,
			ExtractTimeout:      60,
			FallbackOnFailure:   true,
		},
		Server: ServerConfig{
			Port:        "8080",
			UploadMaxMB: 5 * 1024,
		},
	}
}

// Load reads .env (if present), then CONFIG_FILE (if set), then applies
// environment overrides and validates the result.
func Load() (Config, error) {
	_ = godotenv.Load() // loads .env

	cfg := Default()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := loadFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}
	applyEnv(&cfg)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}

func applyEnv(cfg *Config) {
	cfg.Groq.APIKey = envOr("GROQ_API_KEY", cfg.Groq.APIKey)
	cfg.Groq.BaseURL = envOr("GROQ_BASE_URL", cfg.Groq.BaseURL)
	cfg.Groq.WhisperModel = envOr("GROQ_WHISPER_MODEL", cfg.Groq.WhisperModel)
	cfg.Groq.MaxMB = envInt64("GROQ_MAX_MB", cfg.Groq.MaxMB)

	cfg.AssemblyAI.APIKey = envOr("ASSEMBLYAI_API_KEY", cfg.AssemblyAI.APIKey)
	cfg.AssemblyAI.BaseURL = envOr("ASSEMBLYAI_BASE_URL", cfg.AssemblyAI.BaseURL)
	cfg.AssemblyAI.MaxMB = envInt64("ASSEMBLYAI_MAX_MB", cfg.AssemblyAI.MaxMB)

	cfg.LLM.Provider = strings.ToLower(envOr("LLM_PROVIDER", cfg.LLM.Provider))
	cfg.LLM.Model = envOr("LLM_MODEL", cfg.LLM.Model)
	cfg.LLM.BaseURL = envOr("LLM_BASE_URL", cfg.LLM.BaseURL)
	cfg.LLM.APIKey = envOr("LLM_API_KEY", cfg.LLM.APIKey)
	if cfg.LLM.Provider == "gemini" {
		cfg.LLM.APIKey = envOr("GEMINI_API_KEY", cfg.LLM.APIKey)
	}
	if cfg.LLM.APIKey == "" && cfg.LLM.Provider == "groq" {
		cfg.LLM.APIKey = cfg.Groq.APIKey
	}

	cfg.Pipeline.MaxWordsPerChunk = envInt("MAX_WORDS_PER_CHUNK", cfg.Pipeline.MaxWordsPerChunk)
	cfg.Pipeline.SummaryMaxWords = envInt("SUMMARY_MAX_WORDS", cfg.Pipeline.SummaryMaxWords)
	cfg.Pipeline.MaxConcurrentChunks = envInt("MAX_CONCURRENT_CHUNKS", cfg.Pipeline.MaxConcurrentChunks)
	cfg.Pipeline.TranscribeTimeout = envInt("TRANSCRIBE_TIMEOUT_SEC", cfg.Pipeline.TranscribeTimeout)
	cfg.Pipeline.ExtractTimeout = envInt("EXTRACT_TIMEOUT_SEC", cfg.Pipeline.ExtractTimeout)
	cfg.Pipeline.FallbackOnFailure = envBool("FALLBACK_ON_FAILURE", cfg.Pipeline.FallbackOnFailure)

	cfg.Server.Port = envOr("PORT", cfg.Server.Port)
	cfg.Server.UploadMaxMB = envInt64("UPLOAD_MAX_MB", cfg.Server.UploadMaxMB)

	cfg.Mock.Transcribe = envBool("USE_MOCK_TRANSCRIBE", cfg.Mock.Transcribe)
	cfg.Mock.LLM = envBool("USE_MOCK_LLM", cfg.Mock.LLM)
	if cfg.Mock.LLM {
		cfg.LLM.Provider = "mock"
	}
}

func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

func (c PipelineConfig) TranscribeTimeoutDuration() time.Duration {
	return time.Duration(c.TranscribeTimeout) * time.Second
}

func (c PipelineConfig) ExtractTimeoutDuration() time.Duration {
	return time.Duration(c.ExtractTimeout) * time.Second
}

func (c GroqConfig) MaxBytes() int64       { return c.MaxMB * mb }
func (c AssemblyAIConfig) MaxBytes() int64 { return c.MaxMB * mb }
func (c ServerConfig) UploadMaxBytes() int64 {
	return c.UploadMaxMB * mb
}

func envOr(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func envInt(k string, def int) int {
	if v, err := strconv.Atoi(os.Getenv(k)); err == nil {
		return v
	}
	return def
}

func envInt64(k string, def int64) int64 {
	if v, err := strconv.ParseInt(os.Getenv(k), 10, 64); err == nil {
		return v
	}
	return def
}

func envBool(k string, def bool) bool {
	if v, err := strconv.ParseBool(os.Getenv(k)); err == nil {
		return v
	}
	return def
}
