package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/zstd"
)

var ErrIO = errors.New("i/o failure")

// Persist writes data to path in a single write, replacing any existing
// file. Paths ending in ".zst" are written zstd-compressed.
func Persist(data []byte, path string) (err error) {
	if strings.HasSuffix(path, ".zst") {
		data, err = compress(data)
		if err != nil {
			return fmt.Errorf("%w: %s: %w", ErrIO, path, err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrIO, err)
	}
	n, werr := f.Write(data)
	if werr == nil && n < len(data) {
		werr = io.ErrShortWrite
	}
	if err := errors.Join(werr, f.Close()); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrIO, path, err)
	}
	return nil
}

func compress(data []byte) ([]byte, error) {
	enc, err := zstd.NewWriter(nil,
		zstd.WithEncoderConcurrency(1),
		zstd.WithEncoderLevel(zstd.SpeedBetterCompression),
	)
	if err != nil {
		return nil, err
	}
	defer enc.Close()
	return enc.EncodeAll(data, make([]byte, 0, len(data)/4)), nil
}
