// Package canvas is the drawing surface: it replays pen strokes onto a
// white square raster that the preprocessor consumes.
package canvas

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/gogpu/gg"
	"golang.org/x/image/draw"
)

const (
	DefaultSize  = 280
	DefaultBrush = 12

	// MaxSize bounds the side of any raster the service accepts.
	MaxSize = 4096
)

// Point is a pen position in canvas pixels.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Stroke is one pen-down..pen-up polyline.
type Stroke []Point

type Canvas struct {
	size    int
	brush   float64
	strokes []Stroke
}

// New returns an empty canvas. Non-positive arguments select the defaults.
func New(size int, brush float64) *Canvas {
	if size <= 0 {
		size = DefaultSize
	}
	if brush <= 0 {
		brush = DefaultBrush
	}
	c := &Canvas{size: size}
	c.SetBrush(brush)
	return c
}

func (c *Canvas) Size() int { return c.size }

func (c *Canvas) Brush() float64 { return c.brush }

// SetBrush sets the pen diameter, never below one pixel.
func (c *Canvas) SetBrush(size float64) {
	c.brush = math.Max(1, size)
}

func (c *Canvas) Add(s Stroke) {
	if len(s) == 0 {
		return
	}
	c.strokes = append(c.strokes, append(Stroke(nil), s...))
}

func (c *Canvas) Clear() {
	c.strokes = nil
}

func (c *Canvas) Len() int { return len(c.strokes) }

// Raster renders a snapshot of the canvas: black round-capped strokes on
// white, one byte per pixel.
func (c *Canvas) Raster() (*image.Gray, error) {
	dc := gg.NewContext(c.size, c.size)
	defer dc.Close()

	dc.ClearWithColor(gg.White)
	dc.SetColor(color.Black)
	dc.SetLineWidth(c.brush)
	dc.SetLineCap(gg.LineCapRound)
	dc.SetLineJoin(gg.LineJoinRound)

	for i, s := range c.strokes {
		// Pen-down always leaves a dot, so a tap reported as several
		// points at one position still inks the canvas.
		dc.DrawCircle(s[0].X, s[0].Y, c.brush/2)
		if err := dc.Fill(); err != nil {
			return nil, fmt.Errorf("failed to draw dot %d: %w", i, err)
		}
		if len(s) == 1 {
			continue
		}

		dc.MoveTo(s[0].X, s[0].Y)
		for _, p := range s[1:] {
			dc.LineTo(p.X, p.Y)
		}
		if err := dc.Stroke(); err != nil {
			return nil, fmt.Errorf("failed to draw stroke %d: %w", i, err)
		}
	}

	if err := dc.FlushGPU(); err != nil {
		return nil, fmt.Errorf("failed to flush canvas: %w", err)
	}

	src := dc.Image()
	out := image.NewGray(image.Rect(0, 0, c.size, c.size))
	draw.Draw(out, out.Bounds(), src, src.Bounds().Min, draw.Src)
	return out, nil
}
