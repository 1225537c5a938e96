package handlers

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	"image/png"
	"io"
	"log"
	"mime"
	"net/http"
	"strconv"

	"github.com/Brownie44l1/digit-api/internal/canvas"
	"github.com/Brownie44l1/digit-api/internal/model"
	"github.com/Brownie44l1/digit-api/internal/preprocess"
)

const maxUploadSize = 10 << 20

// Classifier is the inference engine behind the handlers.
type Classifier interface {
	Predict(inputData []float32) (*model.PredictionResponse, error)
	InputSize() int
}

type Handler struct {
	classifier Classifier
	canvasSize int
	brushSize  float64
}

func NewHandler(classifier Classifier, canvasSize int, brushSize float64) *Handler {
	if canvasSize <= 0 {
		canvasSize = canvas.DefaultSize
	}
	if brushSize <= 0 {
		brushSize = canvas.DefaultBrush
	}
	return &Handler{
		classifier: classifier,
		canvasSize: canvasSize,
		brushSize:  brushSize,
	}
}

// StrokesRequest is a drawing sent as pen strokes instead of an image.
type StrokesRequest struct {
	Size    int             `json:"size"`
	Brush   float64         `json:"brush"`
	Strokes []canvas.Stroke `json:"strokes"`
}

type PreviewResponse struct {
	Stats    preprocess.Stats `json:"stats"`
	Centroid []float64        `json:"centroid,omitempty"`
	Image    string           `json:"image"`

	// Set when the request asks for ?saliency=true.
	Class    string    `json:"class,omitempty"`
	Saliency []float32 `json:"saliency,omitempty"`
}

type httpError struct {
	status int
	msg    string
}

func (e *httpError) Error() string { return e.msg }

func badRequest(format string, args ...any) error {
	return &httpError{status: http.StatusBadRequest, msg: fmt.Sprintf(format, args...)}
}

func writeError(w http.ResponseWriter, err error) {
	var he *httpError
	if errors.As(err, &he) {
		http.Error(w, he.msg, he.status)
		return
	}
	log.Printf("Request error: %v", err)
	http.Error(w, "Internal server error", http.StatusInternalServerError)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Failed to write response: %v", err)
	}
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]string{"status": "healthy"})
}

func (h *Handler) Predict(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxUploadSize))
	if err != nil {
		http.Error(w, "Failed to read request body", http.StatusBadRequest)
		return
	}

	var req model.PredictionRequest
	if err := json.Unmarshal(body, &req); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	expectedSize := h.classifier.InputSize()
	if len(req.Image) != expectedSize {
		http.Error(w, fmt.Sprintf("Expected %d values, got %d", expectedSize, len(req.Image)),
			http.StatusBadRequest)
		return
	}

	h.predict(w, req.Image)
}

func (h *Handler) PredictFromImage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	img, err := h.imageFromForm(w, r)
	if err != nil {
		writeError(w, err)
		return
	}
	h.classify(w, img)
}

func (h *Handler) PredictFromStrokes(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	img, err := h.imageFromStrokes(w, r)
	if err != nil {
		writeError(w, err)
		return
	}
	h.classify(w, img)
}

// Preview returns what the classifier would see for an uploaded image or a
// set of strokes, upscaled to the canvas size. With ?saliency=true it also
// returns the predicted class and a 28x28 occlusion map of the pixels that
// support it.
func (h *Handler) Preview(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	withSaliency := false
	if v := r.URL.Query().Get("saliency"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			http.Error(w, "Invalid saliency parameter", http.StatusBadRequest)
			return
		}
		withSaliency = b
	}

	var img image.Image
	var err error
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "multipart/form-data" {
		img, err = h.imageFromForm(w, r)
	} else {
		img, err = h.imageFromStrokes(w, r)
	}
	if err != nil {
		writeError(w, err)
		return
	}

	tensor, err := tensorFor(img)
	if err != nil {
		writeError(w, err)
		return
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, tensor.Preview(h.canvasSize)); err != nil {
		writeError(w, fmt.Errorf("failed to encode preview: %w", err))
		return
	}

	resp := PreviewResponse{
		Stats: tensor.Stats(),
		Image: base64.StdEncoding.EncodeToString(buf.Bytes()),
	}
	if cx, cy, ok := tensor.Centroid(); ok {
		resp.Centroid = []float64{cx, cy}
	}

	if withSaliency {
		result, heat, err := model.Occlusion(h.classifier, tensor.Data,
			preprocess.Size, preprocess.Size, model.OcclusionPatch)
		if err != nil {
			log.Printf("Saliency error: %v", err)
			http.Error(w, "Prediction failed", http.StatusInternalServerError)
			return
		}
		resp.Class = result.Class
		resp.Saliency = heat
	}
	writeJSON(w, resp)
}

func (h *Handler) imageFromForm(w http.ResponseWriter, r *http.Request) (image.Image, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		return nil, badRequest("Failed to parse form")
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		return nil, badRequest("No image file provided. Use 'image' as the form field name")
	}
	defer file.Close()

	log.Printf("Received file: %s, size: %d bytes", header.Filename, header.Size)

	cfg, _, err := image.DecodeConfig(file)
	if err != nil {
		return nil, badRequest("Invalid image format. Supported: JPEG, PNG")
	}
	if cfg.Width > canvas.MaxSize || cfg.Height > canvas.MaxSize {
		return nil, badRequest("Image too large: %dx%d, at most %dx%d is accepted",
			cfg.Width, cfg.Height, canvas.MaxSize, canvas.MaxSize)
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("failed to rewind upload: %w", err)
	}

	img, format, err := image.Decode(file)
	if err != nil {
		return nil, badRequest("Invalid image format. Supported: JPEG, PNG")
	}

	log.Printf("Image format: %s, dimensions: %dx%d", format, img.Bounds().Dx(), img.Bounds().Dy())
	return img, nil
}

func (h *Handler) imageFromStrokes(w http.ResponseWriter, r *http.Request) (image.Image, error) {
	var req StrokesRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxUploadSize)).Decode(&req); err != nil {
		return nil, badRequest("Invalid JSON")
	}

	size := req.Size
	if size == 0 {
		size = h.canvasSize
	}
	if size < 0 || size > canvas.MaxSize {
		return nil, badRequest("Canvas size must be between 1 and %d", canvas.MaxSize)
	}

	c := canvas.New(size, h.brushSize)
	if req.Brush > 0 {
		c.SetBrush(req.Brush)
	}
	for _, s := range req.Strokes {
		c.Add(s)
	}

	log.Printf("Received %d strokes on a %dx%d canvas", c.Len(), size, size)

	img, err := c.Raster()
	if err != nil {
		return nil, fmt.Errorf("failed to render strokes: %w", err)
	}
	return img, nil
}

func tensorFor(img image.Image) (*preprocess.Tensor, error) {
	tensor, err := preprocess.Preprocess(img)
	if err != nil {
		log.Printf("Preprocessing error: %v", err)
		return nil, badRequest("Failed to preprocess image: %v", err)
	}
	return tensor, nil
}

func (h *Handler) classify(w http.ResponseWriter, img image.Image) {
	tensor, err := tensorFor(img)
	if err != nil {
		writeError(w, err)
		return
	}
	h.predict(w, tensor.Data)
}

func (h *Handler) predict(w http.ResponseWriter, inputData []float32) {
	result, err := h.classifier.Predict(inputData)
	if err != nil {
		log.Printf("Prediction error: %v", err)
		http.Error(w, "Prediction failed", http.StatusInternalServerError)
		return
	}
	writeJSON(w, result)
}
