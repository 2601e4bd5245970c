package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"reflect"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"

	"docqa/internal/apperrors"
)

// Config holds all configuration for the application. The env tag names the
// variable each field is read from and is used in validation errors.
type Config struct {
	LLMProvider    string  `env:"LLM_PROVIDER" validate:"oneof=gemini openai llamacpp"`
	LLMAPIKey      string  `env:"LLM_API_KEY" validate:"required_unless=LLMProvider llamacpp"`
	LLMBaseURL     string  `env:"LLM_BASE_URL" validate:"required,url"`
	LLMModelName   string  `env:"LLM_MODEL" validate:"required"`
	LLMTemperature float32 `env:"LLM_TEMPERATURE" validate:"gte=0,lte=2"`
	LLMRPM         int     `env:"LLM_RPM" validate:"gte=0"`

	EmbeddingBaseURL   string `env:"EMBEDDING_BASE_URL" validate:"required,url"`
	EmbeddingModelName string `env:"EMBEDDING_MODEL" validate:"required"`
	EmbeddingDimension int    `env:"EMBEDDING_DIMENSION" validate:"gte=0"`
	EmbeddingRPM       int    `env:"EMBEDDING_RPM" validate:"gte=0"`

	ChunkSize    int `env:"CHUNK_SIZE" validate:"gt=0"`
	ChunkOverlap int `env:"CHUNK_OVERLAP" validate:"gte=0,ltfield=ChunkSize"`
	RetrievalK   int `env:"RETRIEVAL_K" validate:"gt=0"`

	IndexBackend  string `env:"INDEX_BACKEND" validate:"oneof=file qdrant pgvector"`
	IndexLocation string `env:"INDEX_LOCATION" validate:"required"`
	QdrantURL     string `env:"QDRANT_URL" validate:"required_if=IndexBackend qdrant"`
	PostgresURL   string `env:"POSTGRES_URL" validate:"required_if=IndexBackend pgvector"`

	// TokenEncoding is a tiktoken encoding name; empty estimates tokens from runes.
	TokenEncoding string `env:"TOKEN_ENCODING"`

	DocsPath    string `env:"DOCS_PATH" validate:"omitempty,dir"`
	MaxUploadMB int    `env:"MAX_UPLOAD_MB" validate:"gt=0"`
	APIPort     string `env:"API_PORT" validate:"required,number"`

	LogLevel  slog.Level `env:"LOG_LEVEL"`
	LogFormat string     `env:"LOG_FORMAT" validate:"oneof=text json"`
}

// Load reads configuration from environment variables and returns a Config struct.
// It applies defaults for optional fields and validates the result.
// If a .env file exists in the current directory or a parent directory, it will be loaded automatically.
// Environment variables already set take precedence over .env file values.
func Load() (*Config, error) {
	// Try to load .env file (ignore error if it doesn't exist)
	_ = godotenv.Load()

	wd, err := os.Getwd()
	if err == nil {
		dir := wd
		for range 5 { // Limit search depth
			envPath := filepath.Join(dir, ".env")
			if _, err := os.Stat(envPath); err == nil {
				_ = godotenv.Load(envPath)
				break
			}
			parent := filepath.Dir(dir)
			if parent == dir {
				break // Reached filesystem root
			}
			dir = parent
		}
	}

	cfg := &Config{
		LLMProvider:        getEnv("LLM_PROVIDER", "gemini"),
		LLMAPIKey:          getEnv("LLM_API_KEY", os.Getenv("GOOGLE_API_KEY")),
		LLMBaseURL:         getEnv("LLM_BASE_URL", "http://localhost:8080"),
		LLMModelName:       getEnv("LLM_MODEL", "gemini-pro"),
		EmbeddingBaseURL:   getEnv("EMBEDDING_BASE_URL", "http://localhost:8081"),
		EmbeddingModelName: getEnv("EMBEDDING_MODEL", "models/embedding-001"),
		IndexBackend:       getEnv("INDEX_BACKEND", "file"),
		IndexLocation:      getEnv("INDEX_LOCATION", "./data/faiss_index"),
		QdrantURL:          getEnv("QDRANT_URL", "http://localhost:6333"),
		PostgresURL:        getEnv("POSTGRES_URL", ""),
		TokenEncoding:      getEnv("TOKEN_ENCODING", "cl100k_base"),
		DocsPath:           getEnv("DOCS_PATH", ""),
		APIPort:            getEnv("API_PORT", "9000"),
		LogFormat:          getEnv("LOG_FORMAT", "text"),
	}

	// TOKEN_ENCODING may be set to empty on purpose.
	if value, ok := os.LookupEnv("TOKEN_ENCODING"); ok && value == "" {
		cfg.TokenEncoding = ""
	}

	var errs []error
	intVar := func(dst *int, key string, defaultValue int) {
		v, err := getEnvInt(key, defaultValue)
		if err != nil {
			errs = append(errs, err)
			return
		}
		*dst = v
	}
	intVar(&cfg.LLMRPM, "LLM_RPM", 0)
	intVar(&cfg.EmbeddingDimension, "EMBEDDING_DIMENSION", 0)
	intVar(&cfg.EmbeddingRPM, "EMBEDDING_RPM", 0)
	intVar(&cfg.ChunkSize, "CHUNK_SIZE", 1000)
	intVar(&cfg.ChunkOverlap, "CHUNK_OVERLAP", 200)
	intVar(&cfg.RetrievalK, "RETRIEVAL_K", 4)
	intVar(&cfg.MaxUploadMB, "MAX_UPLOAD_MB", 32)

	temperature, err := strconv.ParseFloat(getEnv("LLM_TEMPERATURE", "0.3"), 32)
	if err != nil {
		errs = append(errs, &apperrors.ValidationError{Field: "LLM_TEMPERATURE", Message: "must be a number"})
	}
	cfg.LLMTemperature = float32(temperature)

	if err := cfg.LogLevel.UnmarshalText([]byte(getEnv("LOG_LEVEL", "info"))); err != nil {
		errs = append(errs, &apperrors.ValidationError{Field: "LOG_LEVEL", Message: "must be one of debug info warn error"})
	}

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		if name := fld.Tag.Get("env"); name != "" {
			return name
		}
		return fld.Name
	})
	return v
}

// Validate checks every field against its constraints. Each failure is a
// *apperrors.ValidationError naming the environment variable.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("failed to validate config: %w", err)
	}

	errs := make([]error, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		errs = append(errs, &apperrors.ValidationError{Field: fe.Field(), Message: describe(fe)})
	}
	return errors.Join(errs...)
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "required_if", "required_unless":
		return "is required"
	case "oneof":
		return "must be one of " + fe.Param()
	case "gt":
		return "must be greater than " + fe.Param()
	case "gte":
		return "must be at least " + fe.Param()
	case "lte":
		return "must be at most " + fe.Param()
	case "ltfield":
		return "must be smaller than CHUNK_SIZE"
	case "url":
		return "must be a URL"
	case "number":
		return "must be a number"
	case "dir":
		return "must be an existing directory"
	default:
		return "failed " + fe.Tag() + " check"
	}
}

// MaxUploadBytes returns the upload limit in bytes.
func (c *Config) MaxUploadBytes() int64 {
	return int64(c.MaxUploadMB) << 20
}

// getEnv gets an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt parses an integer environment variable or returns a default value.
func getEnvInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, &apperrors.ValidationError{Field: key, Message: "must be a valid integer"}
	}
	return n, nil
}
