// reader.go -- lookup and iteration over a committed cdb file
//
// (c) 2024 go-cdb authors
//
// This software does not come with any express or implied
// warranty; it is provided "as is". No claim  is made to its
// suitability for any purpose.

package cdb

import (
	"bytes"
	"os"
	"sync"

	lru "github.com/opencoff/golang-lru"
)

// MmapPolicy selects which source backend a Reader uses.
type MmapPolicy int

const (
	// MmapAuto maps the file if it is non-empty and mmap succeeds,
	// falling back to positional reads otherwise.
	MmapAuto MmapPolicy = iota

	// MmapAlways requires a successful mmap; Open fails if it can't.
	MmapAlways

	// MmapNever always uses positional reads.
	MmapNever
)

// OpenOptions configures Open. The zero value is MmapAuto with no cache.
type OpenOptions struct {
	Mmap MmapPolicy

	// CacheSize, if > 0, turns on a read-through ARC cache of decoded
	// values keyed by the looked-up key. 0 disables caching.
	CacheSize int
}

// Reader is a read-only handle on a committed cdb file. Lookups and
// iteration may be called from multiple goroutines at once. Close is not
// synchronized with calls already in progress: it releases the mapping
// they may still be reading from.
type Reader struct {
	fd     *os.File
	src    source
	header [numBuckets]bucketHeader
	size   uint32

	mu     sync.Mutex
	cache  *lru.ARCCache
	closed bool
}

// Open opens a committed cdb file already positioned at fd. The caller
// retains ownership of fd; Close releases the mapping (if any) but does
// not close fd itself, mirroring the core's fd-based scope (path/rename
// policy lives one layer up, in cdbfile).
func Open(fd *os.File, opts OpenOptions) (*Reader, error) {
	fi, err := fd.Stat()
	if err != nil {
		return nil, ioErrorf(err, "stat failed")
	}
	size := fi.Size()
	if size < 0 || uint64(size) > uint64(maxUint32) {
		return nil, overflowErrorf("file size %d out of range", size)
	}
	return newReader(fd, uint32(size), opts)
}

func newReader(fd *os.File, size uint32, opts OpenOptions) (*Reader, error) {
	if size < headerSize {
		return nil, formatErrorf("file too small to hold a header: %d bytes", size)
	}

	hdrBuf := make([]byte, headerSize)
	if _, err := fd.ReadAt(hdrBuf, 0); err != nil {
		return nil, ioErrorf(err, "reading header")
	}
	header, err := parseHeader(hdrBuf)
	if err != nil {
		return nil, err
	}

	want := expectedFileSize(header)
	if want != size {
		return nil, formatErrorf("header implies a file of %d bytes, but file is %d bytes", want, size)
	}

	var src source
	switch opts.Mmap {
	case MmapNever:
		src = newPositionalSource(fd, size)
	case MmapAlways:
		m, err := mmapFile(fd, size)
		if err != nil {
			return nil, err
		}
		src = m
	default: // MmapAuto
		if size == 0 {
			src = newPositionalSource(fd, size)
		} else if m, err := mmapFile(fd, size); err == nil {
			src = m
		} else {
			src = newPositionalSource(fd, size)
		}
	}

	r := &Reader{
		fd:     fd,
		src:    src,
		header: header,
		size:   size,
	}

	if opts.CacheSize > 0 {
		c, err := lru.NewARC(opts.CacheSize)
		if err != nil {
			src.close()
			return nil, formatErrorf("invalid cache size %d: %v", opts.CacheSize, err)
		}
		r.cache = c
	}

	return r, nil
}

// Fileno returns the underlying file descriptor number.
func (r *Reader) Fileno() int {
	return int(r.fd.Fd())
}

// Close releases the reader's mapping or positional handle. It does not
// close the underlying *os.File passed to Open.
func (r *Reader) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil
	}
	r.closed = true
	return r.src.close()
}

func (r *Reader) checkOpen() error {
	r.mu.Lock()
	closed := r.closed
	r.mu.Unlock()
	if closed {
		return closedError("reader is closed")
	}
	return nil
}

// probe walks the probe sequence for key's hash, invoking visit for each
// occupied slot whose stored hash equals key's hash (in probe order) until
// visit returns false, the bucket's empty-slot sentinel is reached (end of
// chain), or every slot of the bucket has been probed.
func (r *Reader) probe(key []byte, visit func(recordOffset uint32) (keepGoing bool, err error)) error {
	h := hash(key)
	b := bucketIndex(h)
	bh := r.header[b]
	if bh.length == 0 {
		return nil
	}

	slot := startSlot(h, bh.length)
	for i := uint32(0); i < bh.length; i++ {
		entryOff := bh.offset + slot*slotSize
		buf, err := r.src.readAt(entryOff, slotSize)
		if err != nil {
			return err
		}
		entryHash := unpackU32(buf[0:4])
		recOff := unpackU32(buf[4:8])

		if recOff == 0 {
			// Empty slot: end of this hash's probe chain.
			return nil
		}

		if entryHash == h {
			keepGoing, err := visit(recOff)
			if err != nil {
				return err
			}
			if !keepGoing {
				return nil
			}
		}

		slot = (slot + 1) % bh.length
	}
	return nil
}

// readRecordIfMatches decodes the (klen, vlen, key, value) record at off
// and reports whether its key matches want. The returned value is a slice
// borrowed from the underlying source (valid only until the next mutation
// of that source, and never valid past Close under the mmap backend); copy
// it with copyValue before handing it to a caller that outlives the probe.
// Contains needs no copy, since it never returns value.
func (r *Reader) readRecordIfMatches(off uint32, want []byte) (value []byte, matched bool, err error) {
	prefix, err := r.src.readAt(off, recordPrefixSize)
	if err != nil {
		return nil, false, err
	}
	klen := unpackU32(prefix[0:4])
	vlen := unpackU32(prefix[4:8])

	keyBuf, err := r.src.readAt(off+recordPrefixSize, klen)
	if err != nil {
		return nil, false, err
	}
	if !bytes.Equal(keyBuf, want) {
		return nil, false, nil
	}

	valBuf, err := r.src.readAt(off+recordPrefixSize+klen, vlen)
	if err != nil {
		return nil, false, err
	}
	return valBuf, true, nil
}

// copyValue returns a freshly allocated copy of a value borrowed from the
// source, for callers that must own what they return.
func copyValue(v []byte) []byte {
	return append([]byte(nil), v...)
}

// Contains reports whether key has at least one record, without
// decoding its value.
func (r *Reader) Contains(key []byte) (bool, error) {
	if err := r.checkOpen(); err != nil {
		return false, err
	}
	found := false
	err := r.probe(key, func(off uint32) (bool, error) {
		_, matched, err := r.readRecordIfMatches(off, key)
		if err != nil {
			return false, err
		}
		if matched {
			found = true
			return false, nil
		}
		return true, nil
	})
	return found, err
}

// GetFirst returns the value of the first record matching key, in
// insertion order. It returns ErrNoKey if key has no record.
func (r *Reader) GetFirst(key []byte) ([]byte, error) {
	if err := r.checkOpen(); err != nil {
		return nil, err
	}

	if r.cache != nil {
		if v, ok := r.cache.Get(string(key)); ok {
			return copyValue(v.([]byte)), nil
		}
	}

	var result []byte
	found := false
	err := r.probe(key, func(off uint32) (bool, error) {
		v, matched, err := r.readRecordIfMatches(off, key)
		if err != nil {
			return false, err
		}
		if matched {
			result = copyValue(v)
			found = true
			return false, nil
		}
		return true, nil
	})
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrNoKey
	}

	if r.cache != nil {
		r.cache.Add(string(key), copyValue(result))
	}
	return result, nil
}

// GetAll returns the values of every record matching key, in insertion
// order. It returns an empty, non-nil slice (and no error) if key has no
// record — absence of a key is not a failure when enumerating matches.
func (r *Reader) GetAll(key []byte) ([][]byte, error) {
	if err := r.checkOpen(); err != nil {
		return nil, err
	}

	var out [][]byte
	err := r.probe(key, func(off uint32) (bool, error) {
		v, matched, err := r.readRecordIfMatches(off, key)
		if err != nil {
			return false, err
		}
		if matched {
			out = append(out, copyValue(v))
		}
		return true, nil
	})
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = [][]byte{}
	}
	return out, nil
}
