package main

import (
	"bytes"
	"encoding/binary"
	"hash/crc32"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/bmp"
)

func TestChannelBounds(t *testing.T) {
	img, err := NewImage(3, 2)
	require.NoError(t, err)
	img.SetChannel(1, 2, 1, 77)
	assert.Equal(t, byte(77), img.Channel(1, 2, 1))

	for _, p := range [][3]int{{-1, 0, 0}, {0, -1, 0}, {2, 0, 0}, {0, 3, 0}, {0, 0, 3}, {0, 0, -1}} {
		img.SetChannel(p[0], p[1], p[2], 99)
		assert.Equal(t, byte(0), img.Channel(p[0], p[1], p[2]), "%v", p)
	}
	for _, v := range img.pix {
		assert.NotEqual(t, byte(99), v)
	}
}

func TestChannelBoundsIgnorePadding(t *testing.T) {
	img, err := NewImage(3, 3)
	require.NoError(t, err)
	require.NoError(t, img.Resize(3, 3, 1, 1024))
	assert.Equal(t, 3, img.Width())
	assert.Equal(t, 4, img.PaddedWidth())
	assert.Equal(t, 4, img.PaddedHeight())

	// Column 3 exists in the buffer but not in the image.
	img.SetChannel(0, 3, 0, 99)
	assert.Equal(t, byte(0), img.Channel(0, 3, 0))
	assert.NotContains(t, img.pix, byte(99))
}

func TestFitSize(t *testing.T) {
	tests := []struct {
		w, h, maxW, maxH int
		wantW, wantH     int
	}{
		{4000, 2000, 1024, 1024, 1024, 512},
		{2000, 4000, 1024, 1024, 512, 1024},
		{300, 300, 1024, 1024, 1024, 1024},
		{3, 2, 1024, 1024, 1024, 683},
		{640, 480, 80, 80, 80, 60},
		{30, 20, 100, 100, 100, 67},
	}
	for _, tt := range tests {
		w, h := fitSize(tt.w, tt.h, tt.maxW, tt.maxH)
		assert.Equal(t, [2]int{tt.wantW, tt.wantH}, [2]int{w, h}, "%dx%d in %dx%d", tt.w, tt.h, tt.maxW, tt.maxH)
	}
}

func TestResizeDimensions(t *testing.T) {
	cfg := DefaultConfig().Resize

	img, err := NewImage(4000, 2000)
	require.NoError(t, err)
	require.NoError(t, img.Resize(cfg.MaxWidth, cfg.MaxHeight, cfg.Gain, cfg.PadThreshold))
	assert.Equal(t, [4]int{1024, 512, 1024, 512},
		[4]int{img.Width(), img.Height(), img.PaddedWidth(), img.PaddedHeight()})
	assert.Len(t, img.pix, 1024*512*3)

	img, err = NewImage(300, 300)
	require.NoError(t, err)
	require.NoError(t, img.Resize(cfg.MaxWidth, cfg.MaxHeight, cfg.Gain, cfg.PadThreshold))
	assert.Equal(t, [4]int{1024, 1024, 1024, 1024},
		[4]int{img.Width(), img.Height(), img.PaddedWidth(), img.PaddedHeight()})

	img, err = NewImage(30, 20)
	require.NoError(t, err)
	require.NoError(t, img.Resize(100, 100, cfg.Gain, cfg.PadThreshold))
	assert.Equal(t, [4]int{100, 67, 128, 128},
		[4]int{img.Width(), img.Height(), img.PaddedWidth(), img.PaddedHeight()})
	assert.Len(t, img.pix, 128*128*3)
}

func TestResizeGain(t *testing.T) {
	img, err := NewImage(2, 1)
	require.NoError(t, err)
	img.setGray(0, 0, 100)
	img.setGray(0, 1, 200)
	require.NoError(t, img.Resize(2, 1, 1.65, 0))
	assert.Equal(t, byte(165), img.Channel(0, 0, 0))
	assert.Equal(t, byte(255), img.Channel(0, 1, 2))
}

func TestResizeNearestNeighbor(t *testing.T) {
	img, err := NewImage(2, 1)
	require.NoError(t, err)
	img.setGray(0, 0, 10)
	img.setGray(0, 1, 20)
	require.NoError(t, img.Resize(4, 4, 1, 0))
	require.Equal(t, 4, img.Width())
	require.Equal(t, 2, img.Height())
	assert.Equal(t, [][]byte{{10, 20, 20, 20}, {10, 20, 20, 20}}, grayValues(img))
}

func TestRGBA(t *testing.T) {
	img, err := NewImage(3, 3)
	require.NoError(t, err)
	require.NoError(t, img.Resize(3, 3, 1, 1024))
	img.SetChannel(2, 1, 0, 200)
	rgba := img.RGBA()
	assert.Equal(t, image.Rect(0, 0, 3, 3), rgba.Bounds())
	assert.Equal(t, color.RGBA{200, 0, 0, 255}, rgba.RGBAAt(1, 2))

	var buf bytes.Buffer
	require.NoError(t, img.EncodePNG(&buf))
	decoded, err := png.Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, rgba.Bounds(), decoded.Bounds())
}

func TestLoadPNG(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 2, 1))
	src.SetNRGBA(0, 0, color.NRGBA{10, 20, 30, 255})
	src.SetNRGBA(1, 0, color.NRGBA{0, 0, 0, 0})
	path := filepath.Join(t.TempDir(), "in.png")
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, src))
	require.NoError(t, f.Close())

	img, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 2, img.Width())
	assert.Equal(t, 1, img.Height())
	assert.Equal(t, []byte{10, 20, 30}, []byte{img.Channel(0, 0, 0), img.Channel(0, 0, 1), img.Channel(0, 0, 2)})
	// Transparent pixels read as white.
	assert.Equal(t, byte(255), img.Channel(0, 1, 0))
}

func TestLoadBMP(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 3, 2))
	draw.Draw(src, src.Bounds(), &image.Uniform{color.White}, image.Point{}, draw.Src)
	src.SetRGBA(2, 1, color.RGBA{1, 2, 3, 255})
	var buf bytes.Buffer
	require.NoError(t, bmp.Encode(&buf, src))
	path := filepath.Join(t.TempDir(), "in.bmp")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))

	img, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 3, img.Width())
	assert.Equal(t, 2, img.Height())
	assert.Equal(t, byte(3), img.Channel(1, 2, 2))
}

func TestLoadSVG(t *testing.T) {
	const doc = `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 10 10" width="10" height="10">
<rect x="0" y="0" width="5" height="10" fill="#000000"/>
</svg>`
	path := filepath.Join(t.TempDir(), "in.svg")
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	img, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 10, img.Width())
	assert.Equal(t, 10, img.Height())
	assert.Equal(t, byte(0), img.Channel(5, 2, 0))
	assert.Equal(t, byte(255), img.Channel(5, 7, 0))
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := Load(filepath.Join(dir, "missing.png"))
	assert.ErrorIs(t, err, ErrDecodeFailed)

	text := filepath.Join(dir, "notes.png")
	require.NoError(t, os.WriteFile(text, []byte("not an image at all"), 0o644))
	_, err = Load(text)
	assert.ErrorIs(t, err, ErrDecodeFailed)

	truncated := filepath.Join(dir, "truncated.png")
	require.NoError(t, os.WriteFile(truncated, []byte("\x89PNG\r\n\x1a\n\x00\x00"), 0o644))
	_, err = Load(truncated)
	assert.ErrorIs(t, err, ErrDecodeFailed)

	svg := filepath.Join(dir, "broken.svg")
	require.NoError(t, os.WriteFile(svg, []byte("<svg"), 0o644))
	_, err = Load(svg)
	assert.ErrorIs(t, err, ErrDecodeFailed)
}

func TestLoadByContent(t *testing.T) {
	dir := t.TempDir()

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewGray(image.Rect(0, 0, 3, 2))))
	misnamed := filepath.Join(dir, "actually-png.svg")
	require.NoError(t, os.WriteFile(misnamed, buf.Bytes(), 0o644))
	img, err := Load(misnamed)
	require.NoError(t, err)
	assert.Equal(t, [2]int{3, 2}, [2]int{img.Width(), img.Height()})

	const doc = `<?xml version="1.0"?>
<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 4 6"></svg>`
	xml := filepath.Join(dir, "drawing.xml")
	require.NoError(t, os.WriteFile(xml, []byte(doc), 0o644))
	img, err = Load(xml)
	require.NoError(t, err)
	assert.Equal(t, [2]int{4, 6}, [2]int{img.Width(), img.Height()})
}

func TestLoadOversizedSVG(t *testing.T) {
	const doc = `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 1000000 1000000"></svg>`
	path := filepath.Join(t.TempDir(), "huge.svg")
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	_, err := Load(path)
	assert.ErrorIs(t, err, ErrAllocationFailed)
}

// pngHeader returns a PNG signature and IHDR chunk declaring a w×h RGB
// image with no pixel data behind it.
func pngHeader(w, h uint32) []byte {
	ihdr := make([]byte, 17)
	copy(ihdr, "IHDR")
	binary.BigEndian.PutUint32(ihdr[4:], w)
	binary.BigEndian.PutUint32(ihdr[8:], h)
	ihdr[12] = 8 // bit depth
	ihdr[13] = 2 // truecolor

	var out bytes.Buffer
	out.WriteString("\x89PNG\r\n\x1a\n")
	_ = binary.Write(&out, binary.BigEndian, uint32(13))
	out.Write(ihdr)
	_ = binary.Write(&out, binary.BigEndian, crc32.ChecksumIEEE(ihdr))
	return out.Bytes()
}

func TestLoadOversizedRaster(t *testing.T) {
	path := filepath.Join(t.TempDir(), "huge.png")
	require.NoError(t, os.WriteFile(path, pngHeader(100000, 100000), 0o644))

	_, err := Load(path)
	assert.ErrorIs(t, err, ErrAllocationFailed)
}

func TestNewImageTooLarge(t *testing.T) {
	_, err := NewImage(1<<20, 1<<20)
	assert.ErrorIs(t, err, ErrAllocationFailed)
	_, err = NewImage(-1, 4)
	assert.ErrorIs(t, err, ErrAllocationFailed)
}
