// Command evaluate measures the digit classifier's accuracy on the MNIST
// test set, optionally routing every digit through the drawing
// preprocessor first.
package main

import (
	"flag"
	"fmt"
	"image"
	"log"
	"os"

	"github.com/neurlang/classifier/datasets/mnist"
	"golang.org/x/image/draw"

	"github.com/Brownie44l1/digit-api/internal/config"
	"github.com/Brownie44l1/digit-api/internal/model"
	"github.com/Brownie44l1/digit-api/internal/preprocess"
)

type classifier interface {
	Predict(inputData []float32) (*model.PredictionResponse, error)
}

func main() {
	modelPath := flag.String("model", "", "path to the ONNX model (default: search like the server)")
	metadataPath := flag.String("metadata", "models/model_metadata.json", "path to the model metadata")
	usePreprocess := flag.Bool("preprocess", false, "feed digits through the drawing preprocessor")
	canvasSize := flag.Int("canvas", 280, "canvas size digits are upscaled to with -preprocess")
	limit := flag.Int("limit", 0, "evaluate only the first N test images")
	flag.Parse()

	if err := mnist.Error(); err != nil {
		log.Fatalf("Failed to load MNIST: %v", err)
	}

	candidates := config.ModelCandidates
	if *modelPath != "" {
		candidates = []string{*modelPath}
	}
	path, err := model.FindModel(candidates...)
	if err != nil {
		log.Fatalf("Failed to locate model: %v", err)
	}

	model.UseLibrary(os.Getenv("ONNXRUNTIME_LIB"))
	server, err := model.NewServer(path, *metadataPath)
	if err != nil {
		log.Fatalf("Failed to initialize model server: %v", err)
	}
	defer server.Close()

	n := len(mnist.InferSet)
	if *limit > 0 && *limit < n {
		n = *limit
	}

	size := 0
	if *usePreprocess {
		size = *canvasSize
	}

	log.Printf("Evaluating %s on %d MNIST test images (preprocess=%v)", path, n, *usePreprocess)

	correct, err := evaluate(server, mnist.InferSet[:n], mnist.InferLabels[:n], size)
	if err != nil {
		log.Fatalf("Evaluation failed: %v", err)
	}

	fmt.Printf("Accuracy: %.2f%% (%d/%d)\n", 100*float64(correct)/float64(n), correct, n)
}

// evaluate returns how many digits are classified correctly. A positive
// canvasSize turns each digit into a drawing of that size and preprocesses it.
func evaluate(c classifier, digits [][mnist.ImgSize * mnist.ImgSize]byte, labels []byte, canvasSize int) (int, error) {
	correct := 0
	for i := range digits {
		input, err := inputFor(&digits[i], canvasSize)
		if err != nil {
			return correct, fmt.Errorf("image %d: %w", i, err)
		}

		result, err := c.Predict(input)
		if err != nil {
			return correct, fmt.Errorf("image %d: %w", i, err)
		}
		if result.Class == fmt.Sprint(labels[i]) {
			correct++
		}

		if (i+1)%1000 == 0 {
			log.Printf("%d images, accuracy so far %.2f%%", i+1, 100*float64(correct)/float64(i+1))
		}
	}
	return correct, nil
}

func inputFor(digit *[mnist.ImgSize * mnist.ImgSize]byte, canvasSize int) ([]float32, error) {
	if canvasSize <= 0 {
		input := make([]float32, len(digit))
		for i, v := range digit {
			input[i] = float32(v) / 255.0
		}
		return input, nil
	}

	tensor, err := preprocess.Preprocess(asDrawing(digit, canvasSize))
	if err != nil {
		return nil, err
	}
	return tensor.Data, nil
}

// asDrawing renders an MNIST digit (white ink on black) the way the canvas
// produces drawings: dark ink on white, size x size.
func asDrawing(digit *[mnist.ImgSize * mnist.ImgSize]byte, size int) *image.Gray {
	src := image.NewGray(image.Rect(0, 0, mnist.ImgSize, mnist.ImgSize))
	for i, v := range digit {
		src.Pix[i] = 255 - v
	}

	dst := image.NewGray(image.Rect(0, 0, size, size))
	draw.BiLinear.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)
	return dst
}
