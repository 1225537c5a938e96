package model

import (
	"errors"
	"fmt"
	"sort"
)

const (
	maxAlternatives = 2
	minAlternative  = 0.005
)

// NewPrediction turns raw classifier scores into a response. Scores are
// divided by their sum when it is positive, so engines emitting
// unnormalized outputs are handled the same as softmax ones.
func NewPrediction(classes []string, scores []float32) (*PredictionResponse, error) {
	if len(classes) == 0 {
		return nil, errors.New("no classes configured")
	}
	if len(scores) < len(classes) {
		return nil, fmt.Errorf("expected %d scores, got %d", len(classes), len(scores))
	}

	probs := make([]float32, len(classes))
	copy(probs, scores)

	var sum float32
	for _, p := range probs {
		sum += p
	}
	if sum > 0 {
		for i := range probs {
			probs[i] /= sum
		}
	}

	maxIdx := 0
	predictions := make(map[string]float32, len(classes))
	for i, p := range probs {
		predictions[classes[i]] = p
		if p > probs[maxIdx] {
			maxIdx = i
		}
	}

	order := make([]int, len(probs))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return probs[order[a]] > probs[order[b]] })

	var alternatives []Alternative
	for _, i := range order[:min(len(order), maxAlternatives+1)] {
		if i == maxIdx || probs[i] <= minAlternative {
			continue
		}
		alternatives = append(alternatives, Alternative{Class: classes[i], Probability: probs[i]})
	}

	return &PredictionResponse{
		Class:         classes[maxIdx],
		Confidence:    probs[maxIdx],
		Predictions:   predictions,
		Probabilities: probs,
		Alternatives:  alternatives,
	}, nil
}
