package config

import (
	_ "embed"
	"os"
	"strconv"
)

//go:embed defaults.yaml
var defaultsYAML []byte

type Config struct {
	Engine     EngineConfig
	Analyzer   AnalyzerConfig
	Database   DatabaseConfig
	PhotoIndex PhotoIndexConfig
}

// EngineConfig tunes the cleanup session engine.
type EngineConfig struct {
	BatchImageCap     int `yaml:"batch_image_cap"`
	PrefetchThreshold int `yaml:"prefetch_threshold"`
}

// AnalyzerConfig tunes the similarity analyzers.
type AnalyzerConfig struct {
	EmbeddingThreshold float64 `yaml:"embedding_threshold"`
	HammingThreshold   int     `yaml:"hamming_threshold"`
	NeighborLimit      int     `yaml:"neighbor_limit"`
}

type DatabaseConfig struct {
	URL          string // PostgreSQL connection URL
	MaxOpenConns int    // Maximum open connections (default 25)
	MaxIdleConns int    // Maximum idle connections (default 5)
}

// PhotoIndexConfig points at the photo library the engine reads collections from.
type PhotoIndexConfig struct {
	MariaDBDSN   string // PhotoPrism MariaDB DSN for direct database access
	OriginalsDir string // PhotoPrism originals tree, for reading image files
	Dir          string // local directory root for file-based collections
}

// envInt reads an environment variable and parses it as a positive integer.
// Returns the default value if the env var is unset, empty, or invalid.
func envInt(key string, defaultVal int) int {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if n, err := strconv.Atoi(s); err == nil && n > 0 {
		return n
	}
	return defaultVal
}

// envFloat reads an environment variable and parses it as a positive float.
// Returns the default value if the env var is unset, empty, or invalid.
func envFloat(key string, defaultVal float64) float64 {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && f > 0 {
		return f
	}
	return defaultVal
}

func Load() *Config {
	defaults := loadDefaults()

	return &Config{
		Engine: EngineConfig{
			BatchImageCap:     envInt("CLEANUP_BATCH_IMAGE_CAP", defaults.Engine.BatchImageCap),
			PrefetchThreshold: envInt("CLEANUP_PREFETCH_THRESHOLD", defaults.Engine.PrefetchThreshold),
		},
		Analyzer: AnalyzerConfig{
			EmbeddingThreshold: envFloat("ANALYZER_EMBEDDING_THRESHOLD", defaults.Analyzer.EmbeddingThreshold),
			HammingThreshold:   envInt("ANALYZER_HAMMING_THRESHOLD", defaults.Analyzer.HammingThreshold),
			NeighborLimit:      envInt("ANALYZER_NEIGHBOR_LIMIT", defaults.Analyzer.NeighborLimit),
		},
		Database: DatabaseConfig{
			URL:          os.Getenv("DATABASE_URL"),
			MaxOpenConns: envInt("DATABASE_MAX_OPEN_CONNS", 25),
			MaxIdleConns: envInt("DATABASE_MAX_IDLE_CONNS", 5),
		},
		PhotoIndex: PhotoIndexConfig{
			MariaDBDSN:   os.Getenv("PHOTOPRISM_DATABASE_URL"),
			OriginalsDir: os.Getenv("PHOTOPRISM_ORIGINALS"),
			Dir:          os.Getenv("PHOTO_DIR"),
		},
	}
}
