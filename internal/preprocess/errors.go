package preprocess

import "errors"

// ErrEmptyRaster is returned for a nil or zero-sized drawing.
var ErrEmptyRaster = errors.New("empty raster")

// ErrNotSquare is returned when the drawing is not square.
var ErrNotSquare = errors.New("raster is not square")
