package model

import "testing"

// quadrantScorer votes for class 0 with the ink in the top-left 14x14
// quadrant and gives class 1 a constant score.
type quadrantScorer struct {
	calls int
}

func (q *quadrantScorer) Predict(inputData []float32) (*PredictionResponse, error) {
	q.calls++
	var s0 float32
	for y := 0; y < 14; y++ {
		for x := 0; x < 14; x++ {
			s0 += inputData[y*28+x]
		}
	}
	return NewPrediction([]string{"0", "1"}, []float32{s0, 1})
}

func TestOcclusion(t *testing.T) {
	input := make([]float32, 784)
	for y := 4; y < 8; y++ {
		for x := 4; x < 8; x++ {
			input[y*28+x] = 1
		}
	}
	for y := 20; y < 24; y++ {
		for x := 20; x < 24; x++ {
			input[y*28+x] = 1
		}
	}

	q := &quadrantScorer{}
	base, heat, err := Occlusion(q, input, 28, 28, OcclusionPatch)
	if err != nil {
		t.Fatalf("Occlusion() error = %v", err)
	}
	if base.Class != "0" {
		t.Errorf("Class = %q, want 0", base.Class)
	}
	if len(heat) != 784 {
		t.Fatalf("len(heat) = %d, want 784", len(heat))
	}
	if q.calls != 3 {
		t.Errorf("Predict called %d times, want base plus one per inked patch", q.calls)
	}

	if v := heat[5*28+5]; v != 1 {
		t.Errorf("heat in the deciding patch = %v, want 1", v)
	}
	if v := heat[21*28+21]; v != 0 {
		t.Errorf("heat in the ignored patch = %v, want 0", v)
	}
	if v := heat[0]; v != 0 {
		t.Errorf("heat on background = %v, want 0", v)
	}
}

func TestOcclusionBlankInput(t *testing.T) {
	q := &quadrantScorer{}
	_, heat, err := Occlusion(q, make([]float32, 784), 28, 28, OcclusionPatch)
	if err != nil {
		t.Fatalf("Occlusion() error = %v", err)
	}
	for i, v := range heat {
		if v != 0 {
			t.Fatalf("heat[%d] = %v, want 0", i, v)
		}
	}
	if q.calls != 1 {
		t.Errorf("Predict called %d times, want 1", q.calls)
	}
}

func TestOcclusionRejectsBadArguments(t *testing.T) {
	if _, _, err := Occlusion(&quadrantScorer{}, make([]float32, 10), 28, 28, 4); err == nil {
		t.Error("Occlusion() expected error for a short input")
	}
	if _, _, err := Occlusion(&quadrantScorer{}, make([]float32, 784), 28, 28, 0); err == nil {
		t.Error("Occlusion() expected error for a zero patch")
	}
}
