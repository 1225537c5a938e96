package preprocess

import (
	"image"
	"image/color"
	"math"

	"github.com/disintegration/imaging"
)

// inkBounds returns the tight bounding box of the non-zero pixels.
func inkBounds(g *image.Gray) (image.Rectangle, bool) {
	b := g.Bounds()
	minX, minY := b.Max.X, b.Max.Y
	maxX, maxY := b.Min.X-1, b.Min.Y-1

	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if g.GrayAt(x, y).Y == 0 {
				continue
			}
			minX = min(minX, x)
			minY = min(minY, y)
			maxX = max(maxX, x)
			maxY = max(maxY, y)
		}
	}

	if maxX < minX {
		return image.Rectangle{}, false
	}
	return image.Rect(minX, minY, maxX+1, maxY+1), true
}

// letterbox fits img into a size x size black frame, keeping its aspect
// ratio and centering it along the short axis.
func letterbox(img image.Image, size int) *image.Gray {
	w, h := img.Bounds().Dx(), img.Bounds().Dy()
	if w == h {
		return grayscale(imaging.Resize(img, size, size, imaging.CatmullRom))
	}

	var fitted *image.NRGBA
	var at image.Point
	if w > h {
		nh := max(1, int(math.RoundToEven(float64(h)/float64(w)*float64(size))))
		fitted = imaging.Resize(img, size, nh, imaging.CatmullRom)
		at = image.Pt(0, int(math.RoundToEven(float64(size-nh)/2)))
	} else {
		nw := max(1, int(math.RoundToEven(float64(w)/float64(h)*float64(size))))
		fitted = imaging.Resize(img, nw, size, imaging.CatmullRom)
		at = image.Pt(int(math.RoundToEven(float64(size-nw)/2)), 0)
	}

	frame := imaging.New(size, size, color.Black)
	return grayscale(imaging.Paste(frame, fitted, at))
}

// centroid is the intensity-weighted mean position of a row-major grid.
// ok is false when the grid carries no mass.
func centroid(data []float32, rows, cols int) (cx, cy float64, ok bool) {
	var mass, sx, sy float64
	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			v := float64(data[y*cols+x])
			mass += v
			sx += v * float64(x)
			sy += v * float64(y)
		}
	}
	if mass == 0 {
		return 0, 0, false
	}
	return sx / mass, sy / mass, true
}

// bestShift is the whole-pixel translation moving the centroid onto the
// grid center (cols/2, rows/2). An empty grid is left where it is.
func bestShift(data []float32, rows, cols int) (dx, dy int) {
	cx, cy, ok := centroid(data, rows, cols)
	if !ok {
		return 0, 0
	}
	dx = int(math.RoundToEven(float64(cols)/2 - cx))
	dy = int(math.RoundToEven(float64(rows)/2 - cy))
	return dx, dy
}

// translate moves the grid by (dx, dy); pixels entering from outside are 0.
func translate(data []float32, rows, cols, dx, dy int) []float32 {
	out := make([]float32, len(data))
	for y := 0; y < rows; y++ {
		sy := y - dy
		if sy < 0 || sy >= rows {
			continue
		}
		for x := 0; x < cols; x++ {
			sx := x - dx
			if sx < 0 || sx >= cols {
				continue
			}
			out[y*cols+x] = data[sy*cols+sx]
		}
	}
	return out
}
