package main

import (
	"log/slog"
)

// Result is what a conversion hands back to its caller: the dithered image
// for display and the finished G-code.
type Result struct {
	Image *Image
	GCode []byte
	Stats Stats
}

// Convert resizes and dithers img in place and returns the G-code for it.
func Convert(img *Image, cfg Config) (Result, error) {
	if err := cfg.Validate(); err != nil {
		return Result{}, err
	}
	r := cfg.Resize
	srcW, srcH := img.Width(), img.Height()
	if err := img.Resize(r.MaxWidth, r.MaxHeight, r.Gain, r.PadThreshold); err != nil {
		return Result{}, err
	}
	slog.Debug("resized image",
		"from", [2]int{srcW, srcH},
		"to", [2]int{img.Width(), img.Height()},
		"padded", [2]int{img.PaddedWidth(), img.PaddedHeight()})

	e := NewEmitter(cfg.Tool)
	defer e.Destroy()
	if err := e.ToggleMode(); err != nil {
		return Result{}, err
	}
	st, err := Dither(img, e, cfg)
	if err != nil {
		return Result{}, err
	}
	for s := Level0; s < NumStreams; s++ {
		slog.Debug("stream", "stream", s, "pixels", st.Marked[s], "bytes", e.Stream(s).Len())
	}
	gcode, err := e.Finalize()
	if err != nil {
		return Result{}, err
	}
	return Result{Image: img, GCode: gcode, Stats: st}, nil
}

// Run loads the image at path and converts it.
func Run(path string, cfg Config) (Result, error) {
	img, err := Load(path)
	if err != nil {
		return Result{}, err
	}
	slog.Debug("loaded image", "path", path, "width", img.Width(), "height", img.Height())
	return Convert(img, cfg)
}
