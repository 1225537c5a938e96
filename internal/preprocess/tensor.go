package preprocess

import (
	"image"
	"math"

	"golang.org/x/image/draw"
)

// Tensor is a preprocessed drawing: Size*Size float32 values in [0,1],
// row-major, 0 for background and 1 for full ink.
type Tensor struct {
	Data []float32
}

// Stats summarizes the values of a tensor.
type Stats struct {
	Min  float64 `json:"min"`
	Max  float64 `json:"max"`
	Mean float64 `json:"mean"`
	Std  float64 `json:"std"`
}

// Shape is the NHWC layout the classifier consumes.
func (t *Tensor) Shape() []int64 {
	return []int64{1, Size, Size, 1}
}

func (t *Tensor) At(row, col int) float32 {
	return t.Data[row*Size+col]
}

// Centroid returns the intensity-weighted center in pixel coordinates.
func (t *Tensor) Centroid() (cx, cy float64, ok bool) {
	return centroid(t.Data, Size, Size)
}

// BestShift reports the translation that would center the tensor's mass.
// It is (0, 0) for the output of Preprocess.
func (t *Tensor) BestShift() (dx, dy int) {
	return bestShift(t.Data, Size, Size)
}

func (t *Tensor) Stats() Stats {
	if len(t.Data) == 0 {
		return Stats{}
	}

	s := Stats{Min: math.Inf(1), Max: math.Inf(-1)}
	var sum float64
	for _, v := range t.Data {
		f := float64(v)
		s.Min = math.Min(s.Min, f)
		s.Max = math.Max(s.Max, f)
		sum += f
	}
	s.Mean = sum / float64(len(t.Data))

	var sq float64
	for _, v := range t.Data {
		d := float64(v) - s.Mean
		sq += d * d
	}
	s.Std = math.Sqrt(sq / float64(len(t.Data)))
	return s
}

// Gray renders the tensor as an 8-bit image, ink white on black.
func (t *Tensor) Gray() *image.Gray {
	img := image.NewGray(image.Rect(0, 0, Size, Size))
	for i, v := range t.Data {
		switch {
		case v <= 0:
			img.Pix[i] = 0
		case v >= 1:
			img.Pix[i] = 255
		default:
			img.Pix[i] = uint8(v * 255)
		}
	}
	return img
}

// Preview is Gray smoothly upscaled to size x size for display.
func (t *Tensor) Preview(size int) *image.Gray {
	src := t.Gray()
	dst := image.NewGray(image.Rect(0, 0, size, size))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)
	return dst
}
