package cdb

import (
	"fmt"
	"runtime"
	"testing"
)

func newAsserter(t *testing.T) func(cond bool, msg string, args ...interface{}) {
	return func(cond bool, msg string, args ...interface{}) {
		if cond {
			return
		}

		_, file, line, ok := runtime.Caller(1)
		if !ok {
			file = "???"
			line = 0
		}

		s := fmt.Sprintf(msg, args...)
		t.Fatalf("%s: %d: Assertion failed: %s\n", file, line, s)
	}
}

func TestHashKnownVectors(t *testing.T) {
	assert := newAsserter(t)

	// h0 = 5381, with zero key bytes folded in, hash must stay h0.
	assert(hash(nil) == hashSeed, "empty key hash mismatch; saw %d", hash(nil))

	// 5381*33 = 177573; 177573 ^ 'a' (97) = 177604.
	h := hash([]byte("a"))
	want := uint32(177604)
	assert(h == want, "single-byte hash mismatch; exp %d, saw %d", want, h)

	// 177604*33 = 5860932; 5860932 ^ 'b' (98) = 5860902.
	h2 := hash([]byte("ab"))
	want2 := uint32(5860902)
	assert(h2 == want2, "two-byte hash mismatch; exp %d, saw %d", want2, h2)
}

func TestHashIncrementalMatchesBulk(t *testing.T) {
	assert := newAsserter(t)

	key := []byte("the quick brown fox jumps over the lazy dog")
	bulk := hash(key)

	acc := hashSeed
	for _, b := range key {
		acc = hashUpdate(acc, b)
	}
	assert(acc == bulk, "incremental hash diverged from bulk hash; exp %d, saw %d", bulk, acc)
}

func TestBucketAndStartSlot(t *testing.T) {
	assert := newAsserter(t)

	h := uint32(0x1234ABCD)
	assert(bucketIndex(h) == h&0xFF, "bucket index mismatch")
	assert(startSlot(h, 10) == (h>>8)%10, "start slot mismatch")
}

func TestPackUnpackU32RoundTrip(t *testing.T) {
	assert := newAsserter(t)

	vals := []uint32{0, 1, 255, 256, 0xFFFFFFFF, 0x01020304}
	for _, v := range vals {
		buf := packU32(nil, v)
		assert(len(buf) == 4, "packed length mismatch for %d", v)
		got := unpackU32(buf)
		assert(got == v, "round trip mismatch; exp %d, saw %d", v, got)

		buf2 := make([]byte, 4)
		putU32(buf2, v)
		assert(unpackU32(buf2) == v, "putU32 round trip mismatch for %d", v)
	}
}

func TestPackU32IsLittleEndian(t *testing.T) {
	assert := newAsserter(t)

	buf := packU32(nil, 0x01020304)
	assert(buf[0] == 0x04, "byte 0 mismatch")
	assert(buf[1] == 0x03, "byte 1 mismatch")
	assert(buf[2] == 0x02, "byte 2 mismatch")
	assert(buf[3] == 0x01, "byte 3 mismatch")
}
