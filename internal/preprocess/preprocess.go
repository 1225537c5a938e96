// Package preprocess converts a freehand drawing into the tensor layout the
// digit classifier was trained on.
package preprocess

import (
	"fmt"
	"image"

	"github.com/disintegration/imaging"
	"github.com/nfnt/resize"
	"golang.org/x/image/draw"
)

// Size is the side of the classifier input grid.
const Size = 28

// Preprocess turns a square drawing (dark ink on a light background) into a
// 1x28x28x1 tensor with ink scaled to 1 and its mass centered on the grid.
//
// Every caller must go through this function; the pipeline is not
// reimplemented anywhere else.
func Preprocess(raw image.Image) (*Tensor, error) {
	gray, err := toGray(raw)
	if err != nil {
		return nil, fmt.Errorf("preprocess: %w", err)
	}

	small := resize.Resize(Size, Size, gray, resize.Lanczos3)
	ink := grayscale(imaging.Invert(small))

	if box, ok := inkBounds(ink); ok {
		ink = letterbox(imaging.Crop(ink, box), Size)
	}

	grid := toUnit(ink)
	dx, dy := bestShift(grid, Size, Size)
	return &Tensor{Data: translate(grid, Size, Size, dx, dy)}, nil
}

// toGray validates the raster and flattens it onto a white background.
func toGray(img image.Image) (*image.Gray, error) {
	if img == nil {
		return nil, ErrEmptyRaster
	}
	b := img.Bounds()
	if b.Empty() {
		return nil, ErrEmptyRaster
	}
	if b.Dx() != b.Dy() {
		return nil, fmt.Errorf("%w: %dx%d", ErrNotSquare, b.Dx(), b.Dy())
	}

	dst := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), image.White, image.Point{}, draw.Src)
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Over)
	return dst, nil
}

func grayscale(img image.Image) *image.Gray {
	b := img.Bounds()
	dst := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
	return dst
}

func toUnit(g *image.Gray) []float32 {
	b := g.Bounds()
	out := make([]float32, 0, b.Dx()*b.Dy())
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			out = append(out, float32(g.GrayAt(x, y).Y)/255.0)
		}
	}
	return out
}
