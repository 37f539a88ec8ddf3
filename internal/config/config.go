package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"litmap/internal/location"
)

type Config struct {
	Port string

	// Auth
	APIKey string

	// Gemini extraction
	GeminiAPIKey        string
	GeminiModel         string
	GeminiFallbackModel string

	// Geocoding
	GoogleMapsAPIKey string
	GeocodeCachePath string

	// Worker pool
	WorkerCount          int
	MaxQueueSize         int
	MaxConcurrentExtract int
	MaxConcurrentGeocode int

	// Upload limits
	MaxUploadBytes int64

	// Segmentation defaults
	DefaultChunkSize int
	DefaultOverlap   int

	// Job state
	JobTTL time.Duration

	// PDF
	PDFFallbackPdftotext bool

	// File-based settings (LITMAP_CONFIG_FILE); lists and multiline values
	// that don't fit env vars.
	AnchorPatterns []string
	AllowedScales  []location.Scale
	PromptTemplate string
}

// fileConfig is the optional YAML overlay.
type fileConfig struct {
	AnchorPatterns []string `yaml:"anchor_patterns"`
	AllowedScales  []string `yaml:"allowed_scales"`
	PromptTemplate string   `yaml:"prompt_template"`
}

func Load() (Config, error) {
	cfg := Config{
		Port: envOr("PORT", "8090"),

		APIKey: os.Getenv("LITMAP_API_KEY"),

		GeminiAPIKey:        os.Getenv("GEMINI_API_KEY"),
		GeminiModel:         envOr("GEMINI_MODEL", "gemini-2.5-flash"),
		GeminiFallbackModel: envOr("GEMINI_FALLBACK_MODEL", "gemini-2.0-flash"),

		GoogleMapsAPIKey: os.Getenv("GOOGLE_MAPS_API_KEY"),
		GeocodeCachePath: envOr("GEOCODE_CACHE_PATH", "data/geocode.db"),

		WorkerCount:          envInt("WORKER_COUNT", 4),
		MaxQueueSize:         envInt("MAX_QUEUE_SIZE", 100),
		MaxConcurrentExtract: envInt("MAX_CONCURRENT_EXTRACT", 5),
		MaxConcurrentGeocode: envInt("MAX_CONCURRENT_GEOCODE", 10),

		MaxUploadBytes: envInt64("MAX_UPLOAD_BYTES", 52428800), // 50MB

		DefaultChunkSize: envInt("DEFAULT_CHUNK_SIZE", 1500),
		DefaultOverlap:   envInt("DEFAULT_OVERLAP", 300),

		JobTTL: envDuration("JOB_TTL", 1*time.Hour),

		PDFFallbackPdftotext: envBool("PDF_FALLBACK_PDFTOTEXT", true),
	}

	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = 4
	}
	if cfg.MaxQueueSize <= 0 {
		cfg.MaxQueueSize = 100
	}
	if cfg.MaxConcurrentExtract <= 0 {
		cfg.MaxConcurrentExtract = 5
	}
	if cfg.MaxConcurrentGeocode <= 0 {
		cfg.MaxConcurrentGeocode = 10
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 52428800
	}
	if cfg.DefaultChunkSize <= 0 {
		cfg.DefaultChunkSize = 1500
	}
	if cfg.DefaultOverlap < 0 || cfg.DefaultOverlap >= cfg.DefaultChunkSize {
		cfg.DefaultOverlap = 300
	}
	if cfg.JobTTL <= 0 {
		cfg.JobTTL = 1 * time.Hour
	}

	if path := os.Getenv("LITMAP_CONFIG_FILE"); path != "" {
		if err := cfg.applyFile(path); err != nil {
			return cfg, err
		}
	}

	return cfg, nil
}

func (c *Config) applyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	if len(fc.AnchorPatterns) > 0 {
		c.AnchorPatterns = fc.AnchorPatterns
	}
	for _, s := range fc.AllowedScales {
		scale := location.Scale(s)
		if !location.ValidScale(scale) {
			return fmt.Errorf("config file: unknown scale %q", s)
		}
		c.AllowedScales = append(c.AllowedScales, scale)
	}
	if fc.PromptTemplate != "" {
		c.PromptTemplate = fc.PromptTemplate
	}
	return nil
}

func (c Config) Validate() error {
	if c.APIKey == "" {
		return fmt.Errorf("LITMAP_API_KEY is required")
	}
	if c.GeminiAPIKey == "" {
		return fmt.Errorf("GEMINI_API_KEY is required")
	}
	if c.GoogleMapsAPIKey == "" {
		return fmt.Errorf("GOOGLE_MAPS_API_KEY is required")
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
