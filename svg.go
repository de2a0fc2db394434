package main

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"

	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"
)

// loadSVG rasterizes an SVG document at one pixel per view box unit onto a
// white background.
func loadSVG(data []byte) (image.Image, error) {
	icon, err := oksvg.ReadIconStream(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	vb := icon.ViewBox
	width, height, err := rasterSize(vb.W, vb.H)
	if err != nil {
		return nil, err
	}

	canvas := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(canvas, canvas.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)

	icon.SetTarget(0, 0, vb.W, vb.H)
	scanner := rasterx.NewScannerGV(width, height, canvas, canvas.Bounds())
	icon.Draw(rasterx.NewDasher(width, height, scanner), 1)
	return canvas, nil
}

// rasterSize rounds a view box up to whole pixels. The pixel count is
// checked while still in floating point so absurd view boxes cannot
// overflow the conversion.
func rasterSize(w, h float64) (int, int, error) {
	w, h = math.Ceil(w), math.Ceil(h)
	if !(w > 0 && h > 0) {
		return 0, 0, errors.New("svg has an empty view box")
	}
	if w*h > maxPixels {
		return 0, 0, fmt.Errorf("%w: svg view box %.0fx%.0f", ErrAllocationFailed, w, h)
	}
	return int(w), int(h), nil
}
