package config

import (
	"os"
	"path/filepath"
	"testing"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"PORT", "MODEL_PATH", "METADATA_PATH", "ONNXRUNTIME_LIB", "CANVAS_SIZE", "BRUSH_SIZE", "WATCH_MODEL"} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
	t.Chdir(t.TempDir())
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Port != "8080" {
		t.Errorf("Port = %q, want 8080", cfg.Port)
	}
	if cfg.CanvasSize != 280 || cfg.BrushSize != 12 {
		t.Errorf("canvas = %d/%v, want 280/12", cfg.CanvasSize, cfg.BrushSize)
	}
	if cfg.WatchModel {
		t.Error("WatchModel = true, want false")
	}
	if got := cfg.ModelCandidates(); len(got) != len(ModelCandidates) {
		t.Errorf("ModelCandidates() = %v, want the default search list", got)
	}
}

func TestLoadOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "9000")
	t.Setenv("MODEL_PATH", "/srv/digits.onnx")
	t.Setenv("CANVAS_SIZE", "560")
	t.Setenv("BRUSH_SIZE", "18.5")
	t.Setenv("WATCH_MODEL", "true")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Port != "9000" || cfg.CanvasSize != 560 || cfg.BrushSize != 18.5 || !cfg.WatchModel {
		t.Errorf("Load() = %+v", cfg)
	}
	if got := cfg.ModelCandidates(); len(got) != 1 || got[0] != "/srv/digits.onnx" {
		t.Errorf("ModelCandidates() = %v", got)
	}
}

func TestLoadInvalid(t *testing.T) {
	tests := []struct {
		key, value string
	}{
		{"CANVAS_SIZE", "big"},
		{"CANVAS_SIZE", "0"},
		{"CANVAS_SIZE", "4097"},
		{"BRUSH_SIZE", "-1"},
		{"WATCH_MODEL", "sometimes"},
	}

	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.key, tt.value)
			if _, err := Load(); err == nil {
				t.Errorf("Load() expected error for %s=%q", tt.key, tt.value)
			}
		})
	}
}

func TestLoadDotEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "7000")

	data := "# local settings\nPORT=1234\nBRUSH_SIZE=\"9\"\n\nnot a pair\n"
	if err := os.WriteFile(filepath.Join(".", ".env"), []byte(data), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Port != "7000" {
		t.Errorf("Port = %q, want the environment to win over .env", cfg.Port)
	}
	if cfg.BrushSize != 9 {
		t.Errorf("BrushSize = %v, want 9 from .env", cfg.BrushSize)
	}
}
