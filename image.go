package main

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/h2non/filetype"
	// imaging registers png, jpeg, gif, bmp and tiff.
	_ "golang.org/x/image/webp"
)

const channels = 3

// maxPixels bounds the size of a pixel buffer.
const maxPixels = 1 << 28

var ErrDecodeFailed = errors.New("decode failed")

// Image is a mutable RGB pixel buffer. The buffer may be larger than the
// logical image (see Resize); every accessor is bounded by the logical
// width and height.
type Image struct {
	width, height             int
	paddedWidth, paddedHeight int
	pix                       []byte
}

// NewImage returns a black image of the given size.
func NewImage(width, height int) (*Image, error) {
	pix, err := allocPixels(width, height)
	if err != nil {
		return nil, err
	}
	return &Image{
		width:        width,
		height:       height,
		paddedWidth:  width,
		paddedHeight: height,
		pix:          pix,
	}, nil
}

// checkSize reports ErrAllocationFailed for sizes no pixel buffer may have.
func checkSize(width, height int) error {
	if width < 0 || height < 0 {
		return fmt.Errorf("%w: negative size %dx%d", ErrAllocationFailed, width, height)
	}
	if height > 0 && width > maxPixels/height {
		return fmt.Errorf("%w: %dx%d pixels", ErrAllocationFailed, width, height)
	}
	return nil
}

func allocPixels(width, height int) ([]byte, error) {
	if err := checkSize(width, height); err != nil {
		return nil, err
	}
	return make([]byte, width*height*channels), nil
}

// FromImage copies src into a new Image. Transparent areas are composited
// over white.
func FromImage(src image.Image) (*Image, error) {
	b := src.Bounds()
	img, err := NewImage(b.Dx(), b.Dy())
	if err != nil {
		return nil, err
	}
	for y := 0; y < img.height; y++ {
		for x := 0; x < img.width; x++ {
			c := color.NRGBAModel.Convert(src.At(b.Min.X+x, b.Min.Y+y)).(color.NRGBA)
			img.SetChannel(y, x, 0, overWhite(c.R, c.A))
			img.SetChannel(y, x, 1, overWhite(c.G, c.A))
			img.SetChannel(y, x, 2, overWhite(c.B, c.A))
		}
	}
	return img, nil
}

func overWhite(v, a uint8) uint8 {
	return uint8((uint32(v)*uint32(a) + 255*(255-uint32(a)) + 127) / 255)
}

// Load decodes the image file at path. Content recognized as a raster
// image goes through the registered decoders whatever the file is called;
// otherwise SVG documents are rasterized.
func Load(path string) (*Image, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrDecodeFailed, path, err)
	}
	var src image.Image
	switch {
	case filetype.IsImage(data):
		src, err = decodeRaster(data)
	case isSVG(path, data):
		src, err = loadSVG(data)
	default:
		err = unsupportedContent(data)
	}
	if errors.Is(err, ErrAllocationFailed) {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrDecodeFailed, path, err)
	}
	return FromImage(src)
}

func isSVG(path string, data []byte) bool {
	if strings.ToLower(filepath.Ext(path)) == ".svg" {
		return true
	}
	return bytes.Contains(data[:min(len(data), 1024)], []byte("<svg"))
}

func unsupportedContent(data []byte) error {
	kind, _ := filetype.Match(data)
	if kind == filetype.Unknown {
		return errors.New("unrecognized image content")
	}
	return fmt.Errorf("unsupported content type %s", kind.MIME.Value)
}

// decodeRaster checks the size in the image header before decoding so an
// oversized image fails without allocating it.
func decodeRaster(data []byte) (image.Image, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	if err := checkSize(cfg.Width, cfg.Height); err != nil {
		return nil, err
	}
	return imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
}

func (img *Image) Width() int        { return img.width }
func (img *Image) Height() int       { return img.height }
func (img *Image) PaddedWidth() int  { return img.paddedWidth }
func (img *Image) PaddedHeight() int { return img.paddedHeight }

func (img *Image) inBounds(row, col, ch int) bool {
	return row >= 0 && row < img.height && col >= 0 && col < img.width && ch >= 0 && ch < channels
}

func (img *Image) offset(row, col, ch int) int {
	return (row*img.paddedWidth+col)*channels + ch
}

// Channel returns one channel of the pixel at (row, col), or 0 if the
// position lies outside the logical image.
func (img *Image) Channel(row, col, ch int) byte {
	if !img.inBounds(row, col, ch) {
		return 0
	}
	return img.pix[img.offset(row, col, ch)]
}

// SetChannel sets one channel of the pixel at (row, col). Positions outside
// the logical image are ignored.
func (img *Image) SetChannel(row, col, ch int, v byte) {
	if !img.inBounds(row, col, ch) {
		return
	}
	img.pix[img.offset(row, col, ch)] = v
}

// setGray writes v to every channel of (row, col).
func (img *Image) setGray(row, col int, v byte) {
	for ch := 0; ch < channels; ch++ {
		img.SetChannel(row, col, ch, v)
	}
}

// fitSize returns the largest size with the aspect ratio of w×h that fits
// in maxW×maxH. The limiting side is set to its bound and the other is
// rounded up.
func fitSize(w, h, maxW, maxH int) (int, int) {
	if w <= 0 || h <= 0 {
		return 0, 0
	}
	// Compare maxW/w with maxH/h without rounding.
	if maxW*h <= maxH*w {
		return maxW, ceilDiv(h*maxW, w)
	}
	return ceilDiv(w*maxH, h), maxH
}

func ceilDiv(a, b int) int {
	return (a + b - 1) / b
}

func nextPowerOfTwo(n int) int {
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}

// Resize resamples the image to fit within maxW×maxH, preserving the aspect
// ratio, and brightens every channel by gain. When either new side is below
// padThreshold the buffer is padded to power-of-two sides; the logical size
// is unaffected.
func (img *Image) Resize(maxW, maxH int, gain float64, padThreshold int) error {
	w, h := fitSize(img.width, img.height, maxW, maxH)
	pw, ph := w, h
	if w < padThreshold || h < padThreshold {
		pw, ph = nextPowerOfTwo(w), nextPowerOfTwo(h)
	}
	pix, err := allocPixels(pw, ph)
	if err != nil {
		return err
	}
	dst := &Image{width: w, height: h, paddedWidth: pw, paddedHeight: ph, pix: pix}
	for row := 0; row < h; row++ {
		srow := sampleIndex(row, img.height, h)
		for col := 0; col < w; col++ {
			scol := sampleIndex(col, img.width, w)
			for ch := 0; ch < channels; ch++ {
				v := math.Round(float64(img.Channel(srow, scol, ch)) * gain)
				dst.SetChannel(row, col, ch, byte(min(v, 255)))
			}
		}
	}
	*img = *dst
	return nil
}

// sampleIndex maps a destination index to its nearest source index.
func sampleIndex(dst, srcDim, dstDim int) int {
	i := int(math.Round(float64(dst) * float64(srcDim) / float64(dstDim)))
	return min(i, srcDim-1)
}

// RGBA returns a copy of the logical image for display.
func (img *Image) RGBA() *image.RGBA {
	out := image.NewRGBA(image.Rect(0, 0, img.width, img.height))
	for y := 0; y < img.height; y++ {
		for x := 0; x < img.width; x++ {
			out.SetRGBA(x, y, color.RGBA{
				R: img.Channel(y, x, 0),
				G: img.Channel(y, x, 1),
				B: img.Channel(y, x, 2),
				A: 255,
			})
		}
	}
	return out
}

// EncodePNG writes the logical image as PNG.
func (img *Image) EncodePNG(w io.Writer) error {
	return png.Encode(w, img.RGBA())
}
