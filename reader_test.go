package cdb

import (
	"testing"
)

func TestGetFirstNoKeyReturnsSentinel(t *testing.T) {
	assert := newAsserter(t)

	r := buildDB(t, [][2]string{{"present", "1"}})
	defer r.Close()

	_, err := r.GetFirst([]byte("absent"))
	assert(err == ErrNoKey, "exp ErrNoKey, saw %v", err)
}

func TestGetAllNoKeyReturnsEmptySlice(t *testing.T) {
	assert := newAsserter(t)

	r := buildDB(t, [][2]string{{"present", "1"}})
	defer r.Close()

	all, err := r.GetAll([]byte("absent"))
	assert(err == nil, "get_all: %s", err)
	assert(all != nil, "exp non-nil empty slice")
	assert(len(all) == 0, "exp 0 matches, saw %d", len(all))
}

func TestClosedReaderRejectsOps(t *testing.T) {
	assert := newAsserter(t)

	r := buildDB(t, [][2]string{{"k", "v"}})
	assert(r.Close() == nil, "close: unexpected error")

	_, err := r.GetFirst([]byte("k"))
	assert(err != nil, "exp error on closed reader")

	_, ok := err.(*Error)
	assert(ok, "exp *Error, saw %T", err)
}

func TestOpenRejectsTruncatedFile(t *testing.T) {
	assert := newAsserter(t)

	r := buildDB(t, [][2]string{{"k1", "v1"}, {"k2", "v2"}})
	fd := r.fd
	size := r.size
	assert(r.Close() == nil, "close: unexpected error")

	assert(fd.Truncate(int64(size)-1) == nil, "truncate: unexpected error")

	_, err := Open(fd, OpenOptions{Mmap: MmapNever})
	assert(err != nil, "exp format error opening a truncated file")
}

func TestMmapAndPositionalAgree(t *testing.T) {
	assert := newAsserter(t)

	pairs := [][2]string{{"alpha", "1"}, {"beta", "2"}, {"gamma", "3"}}
	r := buildDB(t, pairs)
	fd := r.fd
	size := r.size
	assert(r.Close() == nil, "close: unexpected error")

	mm, err := Open(fd, OpenOptions{Mmap: MmapAlways})
	assert(err == nil, "mmap open: %s", err)
	defer mm.Close()

	pos, err := Open(fd, OpenOptions{Mmap: MmapNever})
	assert(err == nil, "positional open: %s", err)
	defer pos.Close()

	assert(mm.size == size, "mmap size mismatch")
	assert(pos.size == size, "positional size mismatch")

	for _, kv := range pairs {
		mv, err := mm.GetFirst([]byte(kv[0]))
		assert(err == nil, "mmap get_first(%q): %s", kv[0], err)
		pv, err := pos.GetFirst([]byte(kv[0]))
		assert(err == nil, "positional get_first(%q): %s", kv[0], err)
		assert(string(mv) == string(pv), "backend mismatch for %q: %q vs %q", kv[0], mv, pv)
		assert(string(mv) == kv[1], "exp %q, saw %q", kv[1], mv)
	}
}

func TestReadThroughCache(t *testing.T) {
	assert := newAsserter(t)

	r := buildDB(t, [][2]string{{"k", "v"}})
	fd := r.fd
	size := r.size
	assert(r.Close() == nil, "close: unexpected error")

	cached, err := Open(fd, OpenOptions{CacheSize: 16})
	assert(err == nil, "open with cache: %s", err)
	defer cached.Close()
	_ = size

	v1, err := cached.GetFirst([]byte("k"))
	assert(err == nil, "get_first: %s", err)
	assert(string(v1) == "v", "exp v, saw %q", v1)

	v2, err := cached.GetFirst([]byte("k"))
	assert(err == nil, "get_first (cached): %s", err)
	assert(string(v2) == "v", "exp v, saw %q", v2)
}
