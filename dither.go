package main

import "fmt"

// Stats summarizes a Dither run. ErrorTotal always equals Applied plus
// Dropped; Dropped covers error lost off the grid, to saturation and to
// integer truncation.
type Stats struct {
	Marked     [NumStreams]int
	Unmarked   int
	ErrorTotal int
	Applied    int
	Dropped    int
}

// Quantize maps v to the lower edge of its bucket.
func Quantize(v, bucketWidth int) int {
	return v / bucketWidth * bucketWidth
}

// levelTarget maps a bucket index to its output stream and burn intensity.
// Darker buckets burn longer.
func levelTarget(index int) (Stream, Intensity, bool) {
	switch index {
	case 0:
		return Level0, IntensityHigh, true
	case 1:
		return Level1, IntensityMedium, true
	case 2:
		return Level2, IntensityLow, true
	}
	return 0, 0, false
}

// Grayscale replaces every pixel with the truncated mean of its channels.
func Grayscale(img *Image) {
	for row := 0; row < img.height; row++ {
		for col := 0; col < img.width; col++ {
			sum := int(img.Channel(row, col, 0)) + int(img.Channel(row, col, 1)) + int(img.Channel(row, col, 2))
			img.setGray(row, col, byte(sum/3))
		}
	}
}

// Dither converts img to gray, quantizes it with error diffusion and emits
// a burn for every marked pixel. The scan is row-major and in place: each
// pixel is quantized only after the pixels above and to its left have
// diffused into it.
func Dither(img *Image, e *Emitter, cfg Config) (Stats, error) {
	var st Stats
	d := cfg.Dither
	tool := cfg.Tool

	Grayscale(img)

	neighbours := [4]struct{ drow, dcol int }{
		{0, 1},  // right
		{1, -1}, // below-left
		{1, 0},  // below
		{1, 1},  // below-right
	}
	for row := 0; row < img.height; row++ {
		for col := 0; col < img.width; col++ {
			v := int(img.Channel(row, col, 0))
			level := Quantize(v, d.BucketWidth)
			residual := v - level
			st.ErrorTotal += residual

			if s, intensity, ok := levelTarget(level / d.BucketWidth); ok {
				to := Point{
					X: tool.Offset + float64(col)*tool.Pitch,
					Y: tool.Offset + float64(row)*tool.Pitch,
					Z: tool.Depth,
				}
				if err := e.Burn(to, intensity, s); err != nil {
					return st, fmt.Errorf("pixel (%d, %d): %w", row, col, err)
				}
				st.Marked[s]++
			} else {
				st.Unmarked++
			}

			img.setGray(row, col, byte(level))

			for i, n := range neighbours {
				st.Applied += diffuse(img, row+n.drow, col+n.dcol, residual*d.Weights[i]/d.Divisor)
			}
		}
	}
	st.Dropped = st.ErrorTotal - st.Applied
	return st, nil
}

// diffuse adds amount to the pixel at (row, col), saturating at 255, and
// returns how much was actually added. Positions outside the image absorb
// nothing.
func diffuse(img *Image, row, col, amount int) int {
	if !img.inBounds(row, col, 0) || amount <= 0 {
		return 0
	}
	old := int(img.Channel(row, col, 0))
	v := min(old+amount, 255)
	img.setGray(row, col, byte(v))
	return v - old
}
