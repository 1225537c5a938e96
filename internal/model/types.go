package model

import "strconv"

type Metadata struct {
	InputShape  []int64  `json:"input_shape"`
	OutputShape []int64  `json:"output_shape"`
	Classes     []string `json:"classes"`
	ImageSize   int      `json:"image_size"`
	InputName   string   `json:"input_name,omitempty"`
	OutputName  string   `json:"output_name,omitempty"`
}

// DefaultMetadata describes the MNIST digit classifier: one 28x28x1 image
// in, ten scores out.
func DefaultMetadata() Metadata {
	classes := make([]string, 10)
	for i := range classes {
		classes[i] = strconv.Itoa(i)
	}
	return Metadata{
		InputShape:  []int64{1, 28, 28, 1},
		OutputShape: []int64{1, 10},
		Classes:     classes,
		ImageSize:   28,
	}
}

type PredictionRequest struct {
	Image []float32 `json:"image"`
}

type Alternative struct {
	Class       string  `json:"class"`
	Probability float32 `json:"probability"`
}

type PredictionResponse struct {
	Class         string             `json:"class"`
	Confidence    float32            `json:"confidence"`
	Predictions   map[string]float32 `json:"predictions"`
	Probabilities []float32          `json:"probabilities"`
	Alternatives  []Alternative      `json:"alternatives,omitempty"`
}
