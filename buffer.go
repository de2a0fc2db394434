package main

import "errors"

const initialBufferSize = 16

// maxBufferSize bounds buffer growth. Appends that would need more report
// ErrAllocationFailed instead of panicking inside the runtime.
const maxBufferSize = 1 << 40

var (
	ErrAllocationFailed = errors.New("allocation failed")
	errBufferDestroyed  = errors.New("buffer used after destroy")
)

// Buffer is an append-only byte accumulator whose content is always
// followed by a zero byte. Capacity grows by doubling.
type Buffer struct {
	data   []byte
	length int
}

func NewBuffer() *Buffer {
	return &Buffer{data: make([]byte, initialBufferSize)}
}

func (b *Buffer) Len() int {
	return b.length
}

func (b *Buffer) capacity() int {
	return len(b.data)
}

func (b *Buffer) grow(need int) error {
	size := b.capacity()
	if need <= size {
		return nil
	}
	for size < need {
		size <<= 1
		if size > maxBufferSize {
			return ErrAllocationFailed
		}
	}
	data := make([]byte, size)
	copy(data, b.data[:b.length])
	b.data = data
	return nil
}

func (b *Buffer) Append(p []byte) error {
	if b.data == nil {
		return errBufferDestroyed
	}
	if len(p) > maxBufferSize-b.length {
		return ErrAllocationFailed
	}
	if err := b.grow(b.length + len(p) + 1); err != nil {
		return err
	}
	copy(b.data[b.length:], p)
	b.length += len(p)
	b.data[b.length] = 0
	return nil
}

func (b *Buffer) AppendString(s string) error {
	if b.data == nil {
		return errBufferDestroyed
	}
	if len(s) > maxBufferSize-b.length {
		return ErrAllocationFailed
	}
	if err := b.grow(b.length + len(s) + 1); err != nil {
		return err
	}
	copy(b.data[b.length:], s)
	b.length += len(s)
	b.data[b.length] = 0
	return nil
}

// AppendBuffer appends the full content of other. Appending a buffer to
// itself is allowed.
func (b *Buffer) AppendBuffer(other *Buffer) error {
	if other.data == nil {
		return errBufferDestroyed
	}
	return b.Append(other.data[:other.length])
}

// Borrow returns the content without copying. The slice aliases the
// buffer's storage and is only valid until the next append or Destroy.
// Its capacity is clipped so appending to it never touches the buffer.
func (b *Buffer) Borrow() []byte {
	if b.data == nil {
		return nil
	}
	return b.data[:b.length:b.length]
}

// Bytes returns a copy of the content that stays valid after Destroy.
func (b *Buffer) Bytes() []byte {
	out := make([]byte, b.length)
	copy(out, b.data[:b.length])
	return out
}

func (b *Buffer) String() string {
	return string(b.data[:b.length])
}

// Destroy releases the storage. Any slice obtained from Borrow must not be
// used afterwards.
func (b *Buffer) Destroy() {
	b.data = nil
	b.length = 0
}
