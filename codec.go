// codec.go -- wire encoding for the constant database format
//
// (c) 2024 go-cdb authors
//
// This software does not come with any express or implied
// warranty; it is provided "as is". No claim is made to its
// suitability for any purpose.

package cdb

// All multi-byte integers on disk are unsigned 32-bit, little-endian. The
// hash function is the classic djb2-XOR variant: seed 5381, then for every
// key byte b: h = ((h + (h<<5)) ^ b) mod 2^32. Both the packing and the
// hash rely on Go's unsigned wraparound semantics, which match the C
// original bit-for-bit.

const (
	// hashSeed is the initial hash accumulator, h0.
	hashSeed uint32 = 5381

	// headerSize is the fixed size, in bytes, of the header table at the
	// start of every cdb file: 256 entries of (offset, length) uint32 pairs.
	headerSize = 2048

	// numBuckets is the number of fixed hash-table partitions.
	numBuckets = 256

	// slotSize is the on-disk size of one (hash, record_offset) slot.
	slotSize = 8

	// recordPrefixSize is the on-disk size of the (klen, vlen) prefix.
	recordPrefixSize = 8

	// maxUint32 bounds key/value lengths and running offsets.
	maxUint32 = uint32(0xFFFFFFFF)
)

// hash computes the classic djb2-XOR hash of key, as used by D.J.
// Bernstein's original cdb format.
func hash(key []byte) uint32 {
	h := hashSeed
	for _, b := range key {
		h = ((h + (h << 5)) ^ uint32(b))
	}
	return h
}

// hashUpdate folds one more byte into a running hash; used by the builder
// so it can hash a key while streaming it to the write buffer, without a
// second pass over the bytes.
func hashUpdate(h uint32, b byte) uint32 {
	return (h + (h << 5)) ^ uint32(b)
}

// bucketIndex returns which of the 256 header entries owns hash h.
func bucketIndex(h uint32) uint32 {
	return h & 0xFF
}

// startSlot returns the initial probe position for hash h in a bucket of
// length l (l is always even; 0 is handled by the caller).
func startSlot(h uint32, l uint32) uint32 {
	return (h >> 8) % l
}

// packU32 appends the little-endian encoding of v to buf and returns it.
func packU32(buf []byte, v uint32) []byte {
	return append(buf,
		byte(v),
		byte(v>>8),
		byte(v>>16),
		byte(v>>24),
	)
}

// putU32 writes the little-endian encoding of v into buf[0:4].
func putU32(buf []byte, v uint32) {
	buf[0] = byte(v)
	buf[1] = byte(v >> 8)
	buf[2] = byte(v >> 16)
	buf[3] = byte(v >> 24)
}

// unpackU32 decodes a little-endian uint32 from the first 4 bytes of buf.
func unpackU32(buf []byte) uint32 {
	_ = buf[3]
	return uint32(buf[0]) | uint32(buf[1])<<8 | uint32(buf[2])<<16 | uint32(buf[3])<<24
}
