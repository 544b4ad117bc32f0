package fcdict

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math/bits"

	"github.com/golang/snappy"
)

// SizeInBytes returns the exact number of bytes WriteTo produces.
func (d *Dict) SizeInBytes() int {
	return len(magic) + 8 + 8 + 8 + len(d.data) + 8 + 1 + len(d.ptrs)
}

// WriteTo serializes the dictionary into w. It implements
// io.WriterTo. Two dictionaries built from the same keys and bucket
// size produce byte-identical output.
func (d *Dict) WriteTo(w io.Writer) (int64, error) {
	var written int64
	tmp := make([]byte, 8)

	writeRaw := func(p []byte) error {
		n, err := w.Write(p)
		written += int64(n)
		return err
	}
	writeUint64 := func(v uint64) error {
		binary.LittleEndian.PutUint64(tmp, v)
		return writeRaw(tmp)
	}

	if err := writeRaw(magic); err != nil {
		return written, err
	}
	if err := writeUint64(uint64(d.n)); err != nil {
		return written, err
	}
	if err := writeUint64(uint64(d.bucketSize)); err != nil {
		return written, err
	}
	if err := writeUint64(uint64(len(d.data))); err != nil {
		return written, err
	}
	if err := writeRaw(d.data); err != nil {
		return written, err
	}
	if err := writeUint64(uint64(len(d.ptrs) / d.width)); err != nil {
		return written, err
	}
	tmp[0] = byte(d.width)
	if err := writeRaw(tmp[:1]); err != nil {
		return written, err
	}
	if err := writeRaw(d.ptrs); err != nil {
		return written, err
	}
	return written, nil
}

// ReadDict deserializes a dictionary from r, validating the store
// layout. It may return an ErrCorrupted error.
func ReadDict(r io.Reader) (*Dict, error) {
	var head [32]byte
	if _, err := io.ReadFull(r, head[:]); err != nil {
		return nil, err
	}
	if !bytes.Equal(head[:8], magic) {
		return nil, fmt.Errorf("%w: bad magic byte sequence", ErrCorrupted)
	}

	n := binary.LittleEndian.Uint64(head[8:16])
	bucketSize := binary.LittleEndian.Uint64(head[16:24])
	dataLen := binary.LittleEndian.Uint64(head[24:32])
	if bucketSize == 0 || bucketSize&(bucketSize-1) != 0 {
		return nil, fmt.Errorf("%w: bucket size %d is not a power of two", ErrCorrupted, bucketSize)
	}
	if n > 1<<56 || dataLen > 1<<56 {
		return nil, fmt.Errorf("%w: implausible field sizes", ErrCorrupted)
	}

	data := make([]byte, dataLen)
	if _, err := io.ReadFull(r, data); err != nil {
		return nil, err
	}

	var tail [9]byte
	if _, err := io.ReadFull(r, tail[:]); err != nil {
		return nil, err
	}
	numPtrs := binary.LittleEndian.Uint64(tail[:8])
	width := int(tail[8])
	if width < 1 || width > 8 {
		return nil, fmt.Errorf("%w: pointer width %d out of range", ErrCorrupted, width)
	}
	if expected := (n+bucketSize-1)/bucketSize + 1; numPtrs != expected {
		return nil, fmt.Errorf("%w: expected %d pointers, got %d", ErrCorrupted, expected, numPtrs)
	}

	ptrs := make([]byte, numPtrs*uint64(width))
	if _, err := io.ReadFull(r, ptrs); err != nil {
		return nil, err
	}

	d := &Dict{
		data:       data,
		ptrs:       ptrs,
		width:      width,
		n:          int(n),
		bucketSize: int(bucketSize),
		shift:      uint(bits.TrailingZeros64(bucketSize)),
		mask:       int(bucketSize) - 1,
	}
	if err := d.validate(); err != nil {
		return nil, err
	}
	return d, nil
}

// validate checks the pointer table and stream invariants of a
// freshly deserialized dictionary.
func (d *Dict) validate() error {
	numPtrs := len(d.ptrs) / d.width
	if d.ptr(0) != 0 {
		return fmt.Errorf("%w: first pointer must be zero", ErrCorrupted)
	}
	if d.ptr(numPtrs-1) != len(d.data) {
		return fmt.Errorf("%w: pointer sentinel does not match stream length", ErrCorrupted)
	}
	for i := 1; i < numPtrs; i++ {
		if d.ptr(i-1) >= d.ptr(i) {
			return fmt.Errorf("%w: pointer table is not increasing", ErrCorrupted)
		}
	}
	if len(d.data) != 0 && d.data[len(d.data)-1] != endMarker {
		return fmt.Errorf("%w: stream is not terminated", ErrCorrupted)
	}
	// Walk the records: a zero lcp is itself a 0x00 byte, so terminators
	// cannot simply be counted.
	got := 0
	for pos := 0; pos < len(d.data); got++ {
		if got&d.mask != 0 { // skip the lcp of a tail record
			_, n := binary.Uvarint(d.data[pos:])
			if pos += n; n <= 0 || pos >= len(d.data) {
				return fmt.Errorf("%w: truncated tail record", ErrCorrupted)
			}
		}
		pos += bytes.IndexByte(d.data[pos:], endMarker) + 1
	}
	if got != d.n {
		return fmt.Errorf("%w: expected %d keys in stream, got %d", ErrCorrupted, d.n, got)
	}
	return nil
}

// --------------------------------------------------------------------

// WriteCompressedTo serializes the dictionary into w wrapped in a
// compressed container. The container holds the exact WriteTo payload,
// stored via the given codec; an incompressible payload is stored raw.
func (d *Dict) WriteCompressedTo(w io.Writer, c Compression) (int64, error) {
	if !c.isValid() {
		return 0, errBadCompression
	}

	plain := bytes.NewBuffer(make([]byte, 0, d.SizeInBytes()))
	if _, err := d.WriteTo(plain); err != nil {
		return 0, err
	}

	codec, payload := byte(payloadRaw), plain.Bytes()
	if c == SnappyCompression {
		if enc := snappy.Encode(nil, payload); len(enc) < len(payload)-len(payload)/4 {
			codec, payload = payloadSnappy, enc
		}
	}

	var written int64
	head := make([]byte, 0, len(magicCompressed)+9)
	head = append(head, magicCompressed...)
	head = append(head, codec)
	var tmp [8]byte
	binary.LittleEndian.PutUint64(tmp[:], uint64(len(payload)))
	head = append(head, tmp[:]...)

	n, err := w.Write(head)
	written += int64(n)
	if err != nil {
		return written, err
	}
	n, err = w.Write(payload)
	written += int64(n)
	return written, err
}

// ReadCompressed deserializes a dictionary from a compressed container
// previously written by WriteCompressedTo.
func ReadCompressed(r io.Reader) (*Dict, error) {
	var head [17]byte
	if _, err := io.ReadFull(r, head[:]); err != nil {
		return nil, err
	}
	if !bytes.Equal(head[:8], magicCompressed) {
		return nil, fmt.Errorf("%w: bad magic byte sequence", ErrCorrupted)
	}

	payload := make([]byte, binary.LittleEndian.Uint64(head[9:17]))
	if _, err := io.ReadFull(r, payload); err != nil {
		return nil, err
	}

	switch head[8] {
	case payloadRaw:
		return ReadDict(bytes.NewReader(payload))
	case payloadSnappy:
		plain, err := snappy.Decode(nil, payload)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCorrupted, err)
		}
		return ReadDict(bytes.NewReader(plain))
	default:
		return nil, errBadCompression
	}
}
