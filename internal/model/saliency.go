package model

import (
	"errors"
	"fmt"
)

// OcclusionPatch is the side of each square Occlusion blanks.
const OcclusionPatch = 4

// Predictor classifies one flat input vector. Server implements it.
type Predictor interface {
	Predict(inputData []float32) (*PredictionResponse, error)
}

// Occlusion maps how much each region of a rows x cols input supports the
// predicted class. Every patch x patch square is blanked in turn and the drop
// in the class probability is written to the pixels it covers. The map is
// scaled so its largest value is 1 and is all zero when no patch matters.
func Occlusion(p Predictor, input []float32, rows, cols, patch int) (*PredictionResponse, []float32, error) {
	if rows*cols != len(input) {
		return nil, nil, fmt.Errorf("expected %dx%d input values, got %d", rows, cols, len(input))
	}
	if patch <= 0 {
		return nil, nil, errors.New("occlusion patch must be positive")
	}

	base, err := p.Predict(input)
	if err != nil {
		return nil, nil, err
	}
	k := argmax(base.Probabilities)

	heat := make([]float32, len(input))
	occluded := make([]float32, len(input))
	var peak float32

	for y0 := 0; y0 < rows; y0 += patch {
		for x0 := 0; x0 < cols; x0 += patch {
			y1, x1 := min(y0+patch, rows), min(x0+patch, cols)

			copy(occluded, input)
			ink := false
			for y := y0; y < y1; y++ {
				for x := x0; x < x1; x++ {
					ink = ink || occluded[y*cols+x] != 0
					occluded[y*cols+x] = 0
				}
			}
			// blanking background leaves the input unchanged
			if !ink {
				continue
			}

			res, err := p.Predict(occluded)
			if err != nil {
				return nil, nil, err
			}
			drop := base.Probabilities[k] - res.Probabilities[k]
			if drop <= 0 {
				continue
			}
			peak = max(peak, drop)
			for y := y0; y < y1; y++ {
				for x := x0; x < x1; x++ {
					heat[y*cols+x] = drop
				}
			}
		}
	}

	if peak > 0 {
		for i := range heat {
			heat[i] /= peak
		}
	}
	return base, heat, nil
}

func argmax(values []float32) int {
	best := 0
	for i, v := range values {
		if v > values[best] {
			best = i
		}
	}
	return best
}
