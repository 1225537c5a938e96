package model

import (
	"os"
	"path/filepath"
	"slices"
	"testing"
)

func TestLoadMetadataDefaults(t *testing.T) {
	for _, path := range []string{"", filepath.Join(t.TempDir(), "missing.json")} {
		got, err := loadMetadata(path)
		if err != nil {
			t.Fatalf("loadMetadata(%q) error = %v", path, err)
		}
		if !slices.Equal(got.InputShape, []int64{1, 28, 28, 1}) {
			t.Errorf("InputShape = %v", got.InputShape)
		}
		if len(got.Classes) != 10 || got.Classes[9] != "9" {
			t.Errorf("Classes = %v", got.Classes)
		}
	}
}

func TestLoadMetadataFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "meta.json")
	data := `{"input_shape":[1,1,28,28],"classes":["zero","one"],"input_name":"x"}`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := loadMetadata(path)
	if err != nil {
		t.Fatalf("loadMetadata() error = %v", err)
	}
	if !slices.Equal(got.InputShape, []int64{1, 1, 28, 28}) {
		t.Errorf("InputShape = %v", got.InputShape)
	}
	if !slices.Equal(got.OutputShape, []int64{1, 10}) {
		t.Errorf("OutputShape = %v, want default", got.OutputShape)
	}
	if !slices.Equal(got.Classes, []string{"zero", "one"}) {
		t.Errorf("Classes = %v", got.Classes)
	}
	if got.InputName != "x" || got.OutputName != "" {
		t.Errorf("names = %q/%q", got.InputName, got.OutputName)
	}
	if got.ImageSize != 28 {
		t.Errorf("ImageSize = %d, want 28", got.ImageSize)
	}
}

func TestLoadMetadataInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "meta.json")
	if err := os.WriteFile(path, []byte("{"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := loadMetadata(path); err == nil {
		t.Error("loadMetadata() expected error for invalid JSON")
	}
}

func TestInputSize(t *testing.T) {
	s := &Server{Metadata: DefaultMetadata()}
	if got := s.InputSize(); got != 784 {
		t.Errorf("InputSize() = %d, want 784", got)
	}
}

func TestPredictRejectsWrongLength(t *testing.T) {
	s := &Server{Metadata: DefaultMetadata()}
	if _, err := s.Predict(make([]float32, 10)); err == nil {
		t.Error("Predict() expected error for wrong input length")
	}
	if _, err := s.Predict(make([]float32, 784)); err == nil {
		t.Error("Predict() expected error without a session")
	}
}

func TestFindModel(t *testing.T) {
	dir := t.TempDir()
	model := filepath.Join(dir, "digits.onnx")
	if err := os.WriteFile(model, []byte("onnx"), 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := FindModel("", filepath.Join(dir, "missing.onnx"), dir, model)
	if err != nil {
		t.Fatalf("FindModel() error = %v", err)
	}
	if got != model {
		t.Errorf("FindModel() = %q, want %q", got, model)
	}

	if _, err := FindModel(filepath.Join(dir, "missing.onnx")); err == nil {
		t.Error("FindModel() expected error when nothing exists")
	}
}

func TestLoadMetadataRejectsOtherImageSize(t *testing.T) {
	path := filepath.Join(t.TempDir(), "meta.json")
	if err := os.WriteFile(path, []byte(`{"image_size":32}`), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := loadMetadata(path); err == nil {
		t.Error("loadMetadata() expected error for a 32x32 model")
	}
}

func TestModelPath(t *testing.T) {
	s := &Server{Metadata: DefaultMetadata(), modelPath: "models/digit_model.onnx"}
	if got := s.ModelPath(); got != "models/digit_model.onnx" {
		t.Errorf("ModelPath() = %q", got)
	}
}
