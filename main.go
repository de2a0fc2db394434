package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
)

func main() {
	inputFile := flag.String("input", "", "Path to the input image (png, jpeg, gif, bmp, tiff, webp or svg)")
	outputFile := flag.String("output", "output.gcode", "Path to the output G-code file; a .zst suffix compresses it")
	configFile := flag.String("config", "", "Optional TOML file overriding the default tunables")
	previewFile := flag.String("preview", "", "Optional path to write the dithered image as PNG")
	maxWidth := flag.Int("max-width", 0, "Maximum width in pixels after resizing (overrides config)")
	maxHeight := flag.Int("max-height", 0, "Maximum height in pixels after resizing (overrides config)")
	pitch := flag.Float64("pitch", 0, "Distance between pixels in mm (overrides config)")
	offset := flag.Float64("offset", 0, "Offset (mm) to apply to both X and Y (overrides config)")
	verbose := flag.Bool("v", false, "Log debug output")
	quiet := flag.Bool("q", false, "Only log errors")
	flag.Parse()

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: levelFromFlags(*verbose, *quiet),
	})))

	if *inputFile == "" {
		flag.Usage()
		os.Exit(1)
	}

	cfg := DefaultConfig()
	if *configFile != "" {
		var err error
		if cfg, err = LoadConfig(*configFile); err != nil {
			fatalf("failed to load config: %v", err)
		}
	}
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "max-width":
			cfg.Resize.MaxWidth = *maxWidth
		case "max-height":
			cfg.Resize.MaxHeight = *maxHeight
		case "pitch":
			cfg.Tool.Pitch = *pitch
		case "offset":
			cfg.Tool.Offset = *offset
		}
	})

	res, err := Run(*inputFile, cfg)
	if err != nil {
		fatalf("failed to convert image to G-code: %v", err)
	}

	if *previewFile != "" {
		if err := writePreview(res.Image, *previewFile); err != nil {
			fatalf("failed to write preview: %v", err)
		}
	}

	if err := Persist(res.GCode, *outputFile); err != nil {
		fatalf("failed to write output file: %v", err)
	}

	slog.Info("G-code written",
		"path", *outputFile,
		"bytes", len(res.GCode),
		"level0", res.Stats.Marked[Level0],
		"level1", res.Stats.Marked[Level1],
		"level2", res.Stats.Marked[Level2],
		"unmarked", res.Stats.Unmarked)
}

// levelFromFlags picks the log level for the -v and -q flags. Verbose wins
// over quiet.
func levelFromFlags(verbose, quiet bool) slog.Level {
	switch {
	case verbose:
		return slog.LevelDebug
	case quiet:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func writePreview(img *Image, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := img.EncodePNG(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func fatalf(format string, args ...any) {
	slog.Error(fmt.Sprintf(format, args...))
	os.Exit(1)
}
