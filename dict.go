package fcdict

import (
	"bytes"
	"encoding/binary"
	"sort"
)

// Dict is an immutable front-coded string dictionary. It is safe for
// concurrent use by multiple goroutines; the query handles created
// from it (Locator, Decoder, Iterator, PrefixIterator) are not and
// must not be shared without synchronization.
type Dict struct {
	data []byte // front-coded stream
	ptrs []byte // packed bucket start offsets

	width      int // bytes per pointer table entry
	n          int // number of stored keys
	bucketSize int
	shift      uint
	mask       int
}

// Len returns the number of stored keys.
func (d *Dict) Len() int { return d.n }

// BucketSize returns the number of keys per bucket.
func (d *Dict) BucketSize() int { return d.bucketSize }

// NumBuckets returns the number of buckets.
func (d *Dict) NumBuckets() int { return len(d.ptrs)/d.width - 1 }

// ptr returns the i-th pointer table entry.
func (d *Dict) ptr(i int) int {
	var v uint64
	off := i * d.width
	for j := d.width - 1; j >= 0; j-- {
		v = v<<8 | uint64(d.ptrs[off+j])
	}
	return int(v)
}

// header returns the header key of bucket b as a slice into the stream.
func (d *Dict) header(b int) []byte {
	off := d.ptr(b)
	end := off + bytes.IndexByte(d.data[off:], endMarker)
	return d.data[off:end]
}

// decodeRaw copies the verbatim key at pos into buf and returns the
// position after its terminator.
func (d *Dict) decodeRaw(pos int, buf []byte) ([]byte, int) {
	end := pos + bytes.IndexByte(d.data[pos:], endMarker)
	return append(buf[:0], d.data[pos:end]...), end + 1
}

// decodeNext parses the tail record at pos. buf must hold the
// preceding key; it is truncated to the shared prefix and the suffix
// is appended. Returns the new key and the position after the record.
func (d *Dict) decodeNext(pos int, buf []byte) ([]byte, int) {
	lcp, n := binary.Uvarint(d.data[pos:])
	pos += n
	end := pos + bytes.IndexByte(d.data[pos:], endMarker)
	buf = append(buf[:lcp], d.data[pos:end]...)
	return buf, end + 1
}

// searchBucket returns the greatest bucket whose header is <= key, or
// -1 if the key sorts before the first header. The second return
// reports an exact header match.
func (d *Dict) searchBucket(key []byte) (int, bool) {
	b := sort.Search(d.NumBuckets(), func(i int) bool {
		return bytes.Compare(d.header(i), key) > 0
	}) - 1
	if b < 0 {
		return -1, false
	}
	return b, bytes.Equal(d.header(b), key)
}

// --------------------------------------------------------------------

// Locator maps keys to their indices. It holds a scratch buffer which
// is reused across calls.
type Locator struct {
	d   *Dict
	buf []byte
}

// Locator creates a locator handle.
func (d *Dict) Locator() *Locator { return &Locator{d: d} }

// Locate returns the index of the given key.
// It may return an ErrNotFound error.
func (l *Locator) Locate(key []byte) (int, error) {
	d := l.d
	if len(key) == 0 || d.n == 0 {
		return 0, ErrNotFound
	}

	b, exact := d.searchBucket(key)
	if b < 0 {
		return 0, ErrNotFound
	}
	if exact {
		return b << d.shift, nil
	}

	buf, pos := d.decodeRaw(d.ptr(b), l.buf)
	end := d.ptr(b + 1)
	for j := 1; j < d.bucketSize && pos < end; j++ {
		buf, pos = d.decodeNext(pos, buf)
		if c := bytes.Compare(buf, key); c == 0 {
			l.buf = buf
			return b<<d.shift + j, nil
		} else if c > 0 {
			break
		}
	}
	l.buf = buf
	return 0, ErrNotFound
}

// --------------------------------------------------------------------

// Decoder maps indices back to their keys. It holds a scratch buffer
// which is reused across calls.
type Decoder struct {
	d   *Dict
	buf []byte
}

// Decoder creates a decoder handle.
func (d *Dict) Decoder() *Decoder { return &Decoder{d: d} }

// Append decodes the key at the given index and appends it to dst
// instead of allocating a new byte slice.
// It may return an ErrNotFound error.
func (dec *Decoder) Append(dst []byte, index int) ([]byte, error) {
	d := dec.d
	if index < 0 || index >= d.n {
		return dst, ErrNotFound
	}

	b, j := index>>d.shift, index&d.mask
	buf, pos := d.decodeRaw(d.ptr(b), dec.buf)
	for ; j > 0; j-- {
		buf, pos = d.decodeNext(pos, buf)
	}
	dec.buf = buf
	return append(dst, buf...), nil
}

// Get is a shortcut for Append(nil, index).
// It may return an ErrNotFound error.
func (dec *Decoder) Get(index int) ([]byte, error) {
	return dec.Append(nil, index)
}
