package preprocess

import (
	"image"
	"math"
	"testing"
)

func TestTensorStats(t *testing.T) {
	tensor := &Tensor{Data: make([]float32, Size*Size)}
	for i := 0; i < len(tensor.Data)/2; i++ {
		tensor.Data[i] = 1
	}

	s := tensor.Stats()
	if s.Min != 0 || s.Max != 1 {
		t.Errorf("Stats() min/max = %v/%v, want 0/1", s.Min, s.Max)
	}
	if math.Abs(s.Mean-0.5) > 1e-9 {
		t.Errorf("Stats().Mean = %v, want 0.5", s.Mean)
	}
	if math.Abs(s.Std-0.5) > 1e-9 {
		t.Errorf("Stats().Std = %v, want 0.5", s.Std)
	}

	if got := (&Tensor{}).Stats(); got != (Stats{}) {
		t.Errorf("Stats() of empty tensor = %+v, want zero", got)
	}
}

func TestTensorGray(t *testing.T) {
	tensor := &Tensor{Data: make([]float32, Size*Size)}
	tensor.Data[0] = 1
	tensor.Data[1] = 0.5
	tensor.Data[Size+2] = 1.5

	img := tensor.Gray()
	if img.Bounds() != image.Rect(0, 0, Size, Size) {
		t.Fatalf("Gray() bounds = %v", img.Bounds())
	}

	tests := []struct {
		x, y int
		want uint8
	}{
		{0, 0, 255},
		{1, 0, 127},
		{2, 1, 255},
		{5, 5, 0},
	}
	for _, tt := range tests {
		if got := img.GrayAt(tt.x, tt.y).Y; got != tt.want {
			t.Errorf("Gray() at (%d,%d) = %d, want %d", tt.x, tt.y, got, tt.want)
		}
	}
}

func TestTensorPreview(t *testing.T) {
	tensor := &Tensor{Data: make([]float32, Size*Size)}
	for i := range tensor.Data {
		tensor.Data[i] = 1
	}

	img := tensor.Preview(280)
	if img.Bounds() != image.Rect(0, 0, 280, 280) {
		t.Fatalf("Preview() bounds = %v", img.Bounds())
	}
	if v := img.GrayAt(140, 140).Y; v < 250 {
		t.Errorf("Preview() center = %d, want full ink", v)
	}
}

func TestTensorCentroid(t *testing.T) {
	tensor := &Tensor{Data: make([]float32, Size*Size)}
	if _, _, ok := tensor.Centroid(); ok {
		t.Fatal("Centroid() ok = true for an empty tensor")
	}

	tensor.Data[10*Size+4] = 1
	tensor.Data[10*Size+8] = 1
	cx, cy, ok := tensor.Centroid()
	if !ok || cx != 6 || cy != 10 {
		t.Errorf("Centroid() = (%v, %v, %v), want (6, 10, true)", cx, cy, ok)
	}
	if dx, dy := tensor.BestShift(); dx != 8 || dy != 4 {
		t.Errorf("BestShift() = (%d, %d), want (8, 4)", dx, dy)
	}
}
