package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

const (
	DefaultThumbnailsSubDir = "thumbnails"
	DefaultExportsSubDir    = "exports"
)

const (
	defaultListenAddr       = ":8080"
	defaultThumbnailMaxSize = 300
	defaultMergeTolerance   = 0.5
)

type Config struct {
	// HTTP listen address
	ListenAddr string

	// allowed CORS origin for the UI frontend
	FrontendOrigin string

	// data storage configuration
	DataStoragePath string // primary root for generated assets (thumbs, exported scenes)
	ThumbnailsPath  string // full-calculated path for thumbnails
	ExportsPath     string // full-calculated path for exported scenes

	// thumbnail generation settings
	ThumbnailMaxSize int

	// external solver invocation
	SolverPath string
	SolverArgs []string

	// merge tolerance in pixels: marks on a shared image closer than this
	// count as the same click when merging tracks
	MergeTolerancePx float64
}

func getEnvOrDefault(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvIntOrDefault(envVar string, defaultVal int) int {
	valStr := os.Getenv(envVar)
	if valStr == "" {
		return defaultVal
	}
	val, err := strconv.Atoi(valStr)
	if err != nil || val <= 0 {
		log.Printf("Warning: Invalid %s '%s'. Using default %d. Error: %v", envVar, valStr, defaultVal, err)
		return defaultVal
	}
	return val
}

func getEnvFloatOrDefault(envVar string, defaultVal float64) float64 {
	valStr := os.Getenv(envVar)
	if valStr == "" {
		return defaultVal
	}
	val, err := strconv.ParseFloat(valStr, 64)
	if err != nil || val < 0 {
		log.Printf("Warning: Invalid %s '%s'. Using default %g. Error: %v", envVar, valStr, defaultVal, err)
		return defaultVal
	}
	return val
}

func LoadConfig() (Config, error) {
	storage := getEnvOrDefault("DATA_STORAGE_PATH", filepath.Join(".", "pointgram_data"))
	absStorage, err := filepath.Abs(storage)
	if err != nil {
		return Config{}, fmt.Errorf("failed to get absolute path for data storage '%s': %w", storage, err)
	}

	thumbSubDir := getEnvOrDefault("THUMBNAILS_SUBDIR", DefaultThumbnailsSubDir)
	exportSubDir := getEnvOrDefault("EXPORTS_SUBDIR", DefaultExportsSubDir)

	var solverArgs []string
	if raw := os.Getenv("SOLVER_ARGS"); raw != "" {
		solverArgs = strings.Fields(raw)
	}

	cfg := Config{
		ListenAddr:       getEnvOrDefault("LISTEN_ADDR", defaultListenAddr),
		FrontendOrigin:   getEnvOrDefault("FRONTEND_ORIGIN", "http://localhost:5173"),
		DataStoragePath:  absStorage,
		ThumbnailsPath:   filepath.Join(absStorage, thumbSubDir),
		ExportsPath:      filepath.Join(absStorage, exportSubDir),
		ThumbnailMaxSize: getEnvIntOrDefault("THUMBNAIL_MAX_SIZE", defaultThumbnailMaxSize),
		SolverPath:       getEnvOrDefault("SOLVER_PATH", "pointgram-solver"),
		SolverArgs:       solverArgs,
		MergeTolerancePx: getEnvFloatOrDefault("MERGE_TOLERANCE_PX", defaultMergeTolerance),
	}

	return cfg, nil
}
