package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sync"

	ort "github.com/yalue/onnxruntime_go"

	"github.com/Brownie44l1/digit-api/internal/preprocess"
)

type Server struct {
	Metadata  Metadata
	modelPath string

	mu   sync.Mutex
	sess *session
}

type session struct {
	session      *ort.AdvancedSession
	inputTensor  *ort.Tensor[float32]
	outputTensor *ort.Tensor[float32]
}

// UseLibrary points onnxruntime at a specific shared library. It must be
// called before NewServer.
func UseLibrary(path string) {
	if path != "" {
		ort.SetSharedLibraryPath(path)
	}
}

func NewServer(modelPath, metadataPath string) (*Server, error) {
	if err := ort.InitializeEnvironment(); err != nil {
		return nil, fmt.Errorf("failed to initialize ONNX environment: %w", err)
	}

	metadata, err := loadMetadata(metadataPath)
	if err != nil {
		ort.DestroyEnvironment()
		return nil, err
	}

	if err := resolveNames(modelPath, &metadata); err != nil {
		ort.DestroyEnvironment()
		return nil, err
	}

	sess, err := openSession(modelPath, metadata)
	if err != nil {
		ort.DestroyEnvironment()
		return nil, err
	}

	return &Server{
		Metadata:  metadata,
		modelPath: modelPath,
		sess:      sess,
	}, nil
}

// loadMetadata reads the metadata file. A missing file yields the digit
// classifier defaults; absent fields are filled from them.
func loadMetadata(path string) (Metadata, error) {
	defaults := DefaultMetadata()
	if path == "" {
		return defaults, nil
	}

	metaFile, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return defaults, nil
	}
	if err != nil {
		return Metadata{}, fmt.Errorf("failed to read metadata: %w", err)
	}

	var metadata Metadata
	if err := json.Unmarshal(metaFile, &metadata); err != nil {
		return Metadata{}, fmt.Errorf("failed to parse metadata: %w", err)
	}

	if len(metadata.InputShape) == 0 {
		metadata.InputShape = defaults.InputShape
	}
	if len(metadata.OutputShape) == 0 {
		metadata.OutputShape = defaults.OutputShape
	}
	if len(metadata.Classes) == 0 {
		metadata.Classes = defaults.Classes
	}
	if metadata.ImageSize == 0 {
		metadata.ImageSize = defaults.ImageSize
	}
	if metadata.ImageSize != preprocess.Size {
		return Metadata{}, fmt.Errorf("model expects %dx%d images, preprocessing produces %dx%d",
			metadata.ImageSize, metadata.ImageSize, preprocess.Size, preprocess.Size)
	}
	return metadata, nil
}

// resolveNames fills in missing tensor names with the model's first input
// and first output.
func resolveNames(modelPath string, metadata *Metadata) error {
	if metadata.InputName != "" && metadata.OutputName != "" {
		return nil
	}

	inputs, outputs, err := ort.GetInputOutputInfo(modelPath)
	if err != nil {
		return fmt.Errorf("failed to inspect model: %w", err)
	}
	if len(inputs) == 0 || len(outputs) == 0 {
		return fmt.Errorf("model %s has no inputs or outputs", modelPath)
	}

	if metadata.InputName == "" {
		metadata.InputName = inputs[0].Name
	}
	if metadata.OutputName == "" {
		metadata.OutputName = outputs[0].Name
	}
	return nil
}

func openSession(modelPath string, metadata Metadata) (*session, error) {
	inputShape := ort.NewShape(metadata.InputShape...)
	outputShape := ort.NewShape(metadata.OutputShape...)

	inputTensor, err := ort.NewEmptyTensor[float32](inputShape)
	if err != nil {
		return nil, fmt.Errorf("failed to create input tensor: %w", err)
	}

	outputTensor, err := ort.NewEmptyTensor[float32](outputShape)
	if err != nil {
		inputTensor.Destroy()
		return nil, fmt.Errorf("failed to create output tensor: %w", err)
	}

	s, err := ort.NewAdvancedSession(modelPath,
		[]string{metadata.InputName}, []string{metadata.OutputName},
		[]ort.ArbitraryTensor{inputTensor}, []ort.ArbitraryTensor{outputTensor},
		nil)
	if err != nil {
		inputTensor.Destroy()
		outputTensor.Destroy()
		return nil, fmt.Errorf("failed to create ONNX session: %w", err)
	}

	return &session{
		session:      s,
		inputTensor:  inputTensor,
		outputTensor: outputTensor,
	}, nil
}

func (s *session) destroy() {
	if s.inputTensor != nil {
		s.inputTensor.Destroy()
	}
	if s.outputTensor != nil {
		s.outputTensor.Destroy()
	}
	if s.session != nil {
		s.session.Destroy()
	}
}

// InputSize is the number of float32 values Predict expects.
func (s *Server) InputSize() int {
	size := 1
	for _, dim := range s.Metadata.InputShape {
		size *= int(dim)
	}
	return size
}

// Predict runs the classifier. Calls are serialized because the session's
// input and output tensors are shared.
func (s *Server) Predict(inputData []float32) (*PredictionResponse, error) {
	if want := s.InputSize(); len(inputData) != want {
		return nil, fmt.Errorf("expected %d input values, got %d", want, len(inputData))
	}

	s.mu.Lock()
	if s.sess == nil {
		s.mu.Unlock()
		return nil, errors.New("model server is closed")
	}
	copy(s.sess.inputTensor.GetData(), inputData)
	if err := s.sess.session.Run(); err != nil {
		s.mu.Unlock()
		return nil, fmt.Errorf("inference failed: %w", err)
	}
	scores := append([]float32(nil), s.sess.outputTensor.GetData()...)
	s.mu.Unlock()

	return NewPrediction(s.Metadata.Classes, scores)
}

// Reload opens the model file again and swaps the new session in. The old
// session keeps serving if loading fails.
func (s *Server) Reload() error {
	sess, err := openSession(s.modelPath, s.Metadata)
	if err != nil {
		return err
	}

	s.mu.Lock()
	old := s.sess
	s.sess = sess
	s.mu.Unlock()

	if old != nil {
		old.destroy()
	}
	return nil
}

// ModelPath is the file the session was loaded from and Reload reads.
func (s *Server) ModelPath() string {
	return s.modelPath
}

func (s *Server) Close() {
	s.mu.Lock()
	if s.sess != nil {
		s.sess.destroy()
		s.sess = nil
	}
	s.mu.Unlock()
	ort.DestroyEnvironment()
}
