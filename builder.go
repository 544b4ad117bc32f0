package fcdict

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math/bits"
)

// Builder accumulates sorted unique keys and assembles them into a
// Dict. Keys must be added in strictly increasing lexicographic order.
type Builder struct {
	bucketSize int
	shift      uint
	mask       int

	ptrs []uint64 // bucket start offsets
	data []byte   // front-coded stream
	last []byte   // most recently added key
	n    int

	tmp []byte // varint scratch buffer
}

// NewBuilder inits a builder with the given bucket size, which must be
// a power of two.
func NewBuilder(bucketSize int) (*Builder, error) {
	if bucketSize < 1 || bucketSize&(bucketSize-1) != 0 {
		return nil, ErrInvalidBucketSize
	}
	return &Builder{
		bucketSize: bucketSize,
		shift:      uint(bits.TrailingZeros(uint(bucketSize))),
		mask:       bucketSize - 1,
		tmp:        make([]byte, binary.MaxVarintLen64),
	}, nil
}

// Add appends a key to the dictionary. The key must not be empty, must
// not contain a NUL byte and must be greater than the previously added
// key.
func (b *Builder) Add(key []byte) error {
	if b.tmp == nil {
		return errClosed
	}
	if len(key) == 0 {
		return ErrEmptyKey
	}
	if bytes.IndexByte(key, endMarker) >= 0 {
		return fmt.Errorf("%w: %q", ErrNulByte, key)
	}
	if b.n != 0 && bytes.Compare(b.last, key) >= 0 {
		return fmt.Errorf("%w, %q must be > %q", ErrOutOfOrder, key, b.last)
	}

	if b.n&b.mask == 0 { // new bucket?
		b.ptrs = append(b.ptrs, uint64(len(b.data)))
		b.data = append(b.data, key...)
	} else {
		lcp := lcpLen(b.last, key)
		n := binary.PutUvarint(b.tmp, uint64(lcp))
		b.data = append(b.data, b.tmp[:n]...)
		b.data = append(b.data, key[lcp:]...)
	}
	b.data = append(b.data, endMarker)

	b.last = append(b.last[:0], key...)
	b.n++

	return nil
}

// Finish seals the builder and returns the dictionary. The builder
// must not be used after this method is called.
func (b *Builder) Finish() (*Dict, error) {
	if b.tmp == nil {
		return nil, errClosed
	}

	b.ptrs = append(b.ptrs, uint64(len(b.data))) // sentinel

	width := pointerWidth(uint64(len(b.data)))
	ptrs := make([]byte, 0, len(b.ptrs)*width)
	for _, v := range b.ptrs {
		binary.LittleEndian.PutUint64(b.tmp[:8], v)
		ptrs = append(ptrs, b.tmp[:width]...)
	}

	d := &Dict{
		data:       b.data,
		ptrs:       ptrs,
		width:      width,
		n:          b.n,
		bucketSize: b.bucketSize,
		shift:      b.shift,
		mask:       b.mask,
	}
	b.tmp = nil
	return d, nil
}

// New builds a dictionary from sorted unique keys using
// DefaultBucketSize.
func New(keys [][]byte) (*Dict, error) {
	return NewWithBucketSize(keys, DefaultBucketSize)
}

// NewWithBucketSize builds a dictionary from sorted unique keys with a
// custom bucket size, which must be a power of two.
func NewWithBucketSize(keys [][]byte, bucketSize int) (*Dict, error) {
	b, err := NewBuilder(bucketSize)
	if err != nil {
		return nil, err
	}
	for _, key := range keys {
		if err := b.Add(key); err != nil {
			return nil, err
		}
	}
	return b.Finish()
}
