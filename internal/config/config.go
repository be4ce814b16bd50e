// Package config loads and validates the environment configuration shared by
// the server and the ingestion CLI.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
)

var (
	// ErrMissingAPIKey indicates OPENAI_API_KEY is not set. The process must
	// not serve traffic without it.
	ErrMissingAPIKey = errors.New("OPENAI_API_KEY environment variable not set")

	// ErrInvalidValue indicates a present but unusable setting.
	ErrInvalidValue = errors.New("invalid configuration value")
)

// Config holds all runtime settings. Values not present in the environment
// fall back to the documented defaults.
type Config struct {
	OpenAIKey string

	QdrantHost string
	QdrantPort int

	IndexName string
	Dimension int

	ChunkSize    int
	ChunkOverlap int
	TopK         int

	DataDir    string
	LedgerPath string

	// Optional GitHub document source. When RepoOwner and RepoName are set,
	// ingestion reads documents from the repository instead of DataDir.
	RepoOwner string
	RepoName  string
	RepoPath  string

	Port           string
	AllowedOrigins []string

	RequestTimeoutSeconds int
}

// Load reads configuration from the environment. Missing required settings
// and malformed values are returned as errors; callers treat them as fatal.
func Load() (*Config, error) {
	cfg := &Config{
		OpenAIKey:  os.Getenv("OPENAI_API_KEY"),
		QdrantHost: getEnv("QDRANT_HOST", "localhost"),
		IndexName:  getEnv("INDEX_NAME", "raza"),
		DataDir:    getEnv("DATA_DIR", "data"),
		LedgerPath: getEnv("LEDGER_PATH", "uploaded_files.json"),
		RepoOwner:  os.Getenv("DOCS_REPO_OWNER"),
		RepoName:   os.Getenv("DOCS_REPO_NAME"),
		RepoPath:   os.Getenv("DOCS_REPO_PATH"),
		Port:       getEnv("PORT", "8080"),
	}

	if cfg.OpenAIKey == "" {
		return nil, ErrMissingAPIKey
	}

	var err error
	if cfg.QdrantPort, err = getEnvInt("QDRANT_PORT", 6334); err != nil {
		return nil, err
	}
	if cfg.Dimension, err = getEnvInt("EMBEDDING_DIMENSION", 3072); err != nil {
		return nil, err
	}
	if cfg.ChunkSize, err = getEnvInt("CHUNK_SIZE", 500); err != nil {
		return nil, err
	}
	if cfg.ChunkOverlap, err = getEnvInt("CHUNK_OVERLAP", 50); err != nil {
		return nil, err
	}
	if cfg.TopK, err = getEnvInt("TOP_K", 3); err != nil {
		return nil, err
	}
	if cfg.RequestTimeoutSeconds, err = getEnvInt("REQUEST_TIMEOUT_SECONDS", 30); err != nil {
		return nil, err
	}

	if cfg.Dimension < 1 {
		return nil, fmt.Errorf("%w: EMBEDDING_DIMENSION must be positive, got %d", ErrInvalidValue, cfg.Dimension)
	}
	if cfg.ChunkSize < 1 {
		return nil, fmt.Errorf("%w: CHUNK_SIZE must be positive, got %d", ErrInvalidValue, cfg.ChunkSize)
	}
	if cfg.ChunkOverlap < 0 || cfg.ChunkOverlap >= cfg.ChunkSize {
		return nil, fmt.Errorf("%w: CHUNK_OVERLAP must be in [0, CHUNK_SIZE), got %d", ErrInvalidValue, cfg.ChunkOverlap)
	}
	if cfg.TopK < 1 {
		return nil, fmt.Errorf("%w: TOP_K must be at least 1, got %d", ErrInvalidValue, cfg.TopK)
	}
	if cfg.RequestTimeoutSeconds < 1 {
		return nil, fmt.Errorf("%w: REQUEST_TIMEOUT_SECONDS must be positive, got %d", ErrInvalidValue, cfg.RequestTimeoutSeconds)
	}

	if origins := os.Getenv("ALLOWED_ORIGINS"); origins != "" {
		for _, o := range strings.Split(origins, ",") {
			if o = strings.TrimSpace(o); o != "" {
				cfg.AllowedOrigins = append(cfg.AllowedOrigins, o)
			}
		}
	}

	return cfg, nil
}

// UseRepoSource reports whether ingestion should read from GitHub.
func (c *Config) UseRepoSource() bool {
	return c.RepoOwner != "" && c.RepoName != ""
}

func getEnv(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue, nil
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be an integer, got %q", ErrInvalidValue, key, v)
	}
	return i, nil
}
