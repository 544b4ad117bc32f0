package fcdict

import "bytes"

// Iterator enumerates all stored keys in index order. Use Iter to
// create one; a finished iterator cannot be restarted.
type Iterator struct {
	d   *Dict
	buf []byte
	pos int
	id  int
}

// Iter creates an iterator over all keys.
func (d *Dict) Iter() *Iterator { return &Iterator{d: d} }

// Next advances the cursor to the next key and returns true if
// successful.
func (it *Iterator) Next() bool {
	d := it.d
	if it.id >= d.n {
		return false
	}
	if it.id&d.mask == 0 { // bucket header
		it.buf, it.pos = d.decodeRaw(it.pos, it.buf)
	} else {
		it.buf, it.pos = d.decodeNext(it.pos, it.buf)
	}
	it.id++
	return true
}

// Index returns the index of the current key.
func (it *Iterator) Index() int { return it.id - 1 }

// Key returns the current key. Please note that keys are temporary
// buffers and must be copied if used beyond the next cursor move.
func (it *Iterator) Key() []byte { return it.buf }

// --------------------------------------------------------------------

// PrefixIterator enumerates the stored keys beginning with a given
// prefix, in index order. An empty prefix enumerates all keys.
type PrefixIterator struct {
	d      *Dict
	prefix []byte
	buf    []byte
	pos    int
	id     int

	started bool
	done    bool
}

// PrefixIter creates an iterator over the keys beginning with prefix.
func (d *Dict) PrefixIter(prefix []byte) *PrefixIterator {
	it := &PrefixIterator{d: d}
	it.prefix = append(it.prefix, prefix...)
	return it
}

// Reset re-inits the iterator with a new prefix, reusing its buffers.
func (it *PrefixIterator) Reset(prefix []byte) {
	it.prefix = append(it.prefix[:0], prefix...)
	it.buf = it.buf[:0]
	it.pos = 0
	it.id = 0
	it.started = false
	it.done = false
}

// Next advances the cursor to the next matching key and returns true
// if successful.
func (it *PrefixIterator) Next() bool {
	if it.done {
		return false
	}

	d := it.d
	if !it.started {
		it.started = true
		if !it.seekFirst() {
			it.done = true
			return false
		}
	} else {
		it.id++
		if it.id >= d.n {
			it.done = true
			return false
		}
		if it.id&d.mask == 0 {
			it.buf, it.pos = d.decodeRaw(it.pos, it.buf)
		} else {
			it.buf, it.pos = d.decodeNext(it.pos, it.buf)
		}
	}

	if bytes.HasPrefix(it.buf, it.prefix) {
		return true
	}
	it.done = true
	return false
}

// Index returns the index of the current key.
func (it *PrefixIterator) Index() int { return it.id }

// Key returns the current key. Please note that keys are temporary
// buffers and must be copied if used beyond the next cursor move.
func (it *PrefixIterator) Key() []byte { return it.buf }

// seekFirst positions the cursor on the first key that may carry the
// prefix. The caller still needs to verify the match.
func (it *PrefixIterator) seekFirst() bool {
	d := it.d
	if d.n == 0 {
		return false
	}
	if len(it.prefix) == 0 { // degenerates to a full scan
		it.buf, it.pos = d.decodeRaw(0, it.buf)
		it.id = 0
		return true
	}

	b, _ := d.searchBucket(it.prefix)
	if b < 0 {
		b = 0
	}
	it.buf, it.pos = d.decodeRaw(d.ptr(b), it.buf)
	it.id = b << d.shift
	if bytes.HasPrefix(it.buf, it.prefix) {
		return true
	}

	// Scan the bucket until a key carries the prefix or passes it.
	end := d.ptr(b + 1)
	for j := 1; j < d.bucketSize && it.pos < end; j++ {
		it.buf, it.pos = d.decodeNext(it.pos, it.buf)
		it.id++
		if bytes.HasPrefix(it.buf, it.prefix) {
			return true
		}
		if bytes.Compare(it.buf, it.prefix) > 0 {
			break
		}
	}

	// The run may still start at the next bucket's header.
	if next := b + 1; next < d.NumBuckets() {
		it.buf, it.pos = d.decodeRaw(d.ptr(next), it.buf)
		it.id = next << d.shift
		return true
	}
	return false
}
