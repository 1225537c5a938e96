// Package config reads the service settings from the environment.
package config

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/Brownie44l1/digit-api/internal/canvas"
)

// ModelCandidates are tried in order when MODEL_PATH is not set.
var ModelCandidates = []string{
	filepath.Join("models", "digit_model.onnx"),
	filepath.Join("resources", "models", "improved_digit_recognition_model.onnx"),
	"improved_digit_recognition_model.onnx",
}

type Config struct {
	Port         string
	ModelPath    string
	MetadataPath string
	ORTLibrary   string
	CanvasSize   int
	BrushSize    float64
	WatchModel   bool
}

// Load reads ./.env (without overriding variables already set) and then the
// environment.
func Load() (*Config, error) {
	if err := LoadDotEnv(".env"); err != nil {
		return nil, err
	}

	cfg := &Config{
		Port:         getenv("PORT", "8080"),
		ModelPath:    os.Getenv("MODEL_PATH"),
		MetadataPath: getenv("METADATA_PATH", filepath.Join("models", "model_metadata.json")),
		ORTLibrary:   os.Getenv("ONNXRUNTIME_LIB"),
	}

	var err error
	if cfg.CanvasSize, err = intEnv("CANVAS_SIZE", 280); err != nil {
		return nil, err
	}
	if cfg.BrushSize, err = floatEnv("BRUSH_SIZE", 12); err != nil {
		return nil, err
	}
	if cfg.WatchModel, err = boolEnv("WATCH_MODEL", false); err != nil {
		return nil, err
	}

	if cfg.CanvasSize <= 0 || cfg.CanvasSize > canvas.MaxSize {
		return nil, fmt.Errorf("CANVAS_SIZE must be between 1 and %d, got %d", canvas.MaxSize, cfg.CanvasSize)
	}
	if cfg.BrushSize <= 0 {
		return nil, fmt.Errorf("BRUSH_SIZE must be positive, got %v", cfg.BrushSize)
	}
	return cfg, nil
}

// ModelCandidates returns the paths to search for the model file.
func (c *Config) ModelCandidates() []string {
	if c.ModelPath != "" {
		return []string{c.ModelPath}
	}
	return ModelCandidates
}

// LoadDotEnv loads key=value pairs from path into the environment without
// overwriting variables that are already set. A missing file is not an
// error; lines starting with # are ignored.
func LoadDotEnv(path string) error {
	f, err := os.Open(filepath.Clean(path))
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		eq := strings.IndexByte(line, '=')
		if eq <= 0 {
			continue
		}
		key := strings.TrimSpace(line[:eq])
		val := strings.Trim(strings.TrimSpace(line[eq+1:]), `"'`)
		if _, exists := os.LookupEnv(key); !exists {
			if err := os.Setenv(key, val); err != nil {
				return fmt.Errorf("failed to set %s: %w", key, err)
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	return nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func intEnv(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	return n, nil
}

func floatEnv(key string, fallback float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	return f, nil
}

func boolEnv(key string, fallback bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	return b, nil
}
