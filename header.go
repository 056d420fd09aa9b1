// header.go -- the 256-entry fixed header table
//
// (c) 2024 go-cdb authors
//
// This software does not come with any express or implied
// warranty; it is provided "as is". No claim  is made to its
// suitability for any purpose.

package cdb

// bucketHeader is one of the 256 fixed-position pointers at the start of
// a cdb file: where bucket i's hash table lives, and how many slots it
// has. length == 0 means the bucket is empty and offset is meaningless.
type bucketHeader struct {
	offset uint32
	length uint32
}

// parseHeader decodes the 2048-byte header table.
func parseHeader(buf []byte) (tbl [numBuckets]bucketHeader, err error) {
	if len(buf) != headerSize {
		return tbl, formatErrorf("header table must be %d bytes, got %d", headerSize, len(buf))
	}
	for i := 0; i < numBuckets; i++ {
		off := i * 8
		tbl[i] = bucketHeader{
			offset: unpackU32(buf[off : off+4]),
			length: unpackU32(buf[off+4 : off+8]),
		}
	}
	return tbl, nil
}

// encodeHeader packs the header table into its fixed 2048-byte form.
func encodeHeader(tbl [numBuckets]bucketHeader) []byte {
	buf := make([]byte, headerSize)
	for i, h := range tbl {
		off := i * 8
		putU32(buf[off:off+4], h.offset)
		putU32(buf[off+4:off+8], h.length)
	}
	return buf
}

// expectedFileSize computes the file size implied by the header table:
// the furthest (offset + length*slotSize) reach across all buckets. An
// all-empty header implies a bare 2048-byte file.
func expectedFileSize(tbl [numBuckets]bucketHeader) uint32 {
	size := uint32(headerSize)
	for _, h := range tbl {
		if h.length == 0 {
			continue
		}
		end := h.offset + h.length*slotSize
		if end > size {
			size = end
		}
	}
	return size
}

// sentinelOffset returns the offset of the first hash table, i.e. the end
// of the record region. It is the smallest offset among buckets with a
// nonzero length; if every bucket is empty, it is fileSize (for a valid
// empty database, headerSize itself).
func sentinelOffset(tbl [numBuckets]bucketHeader, fileSize uint32) uint32 {
	best := uint32(0)
	for _, h := range tbl {
		if h.length == 0 {
			continue
		}
		if best == 0 || h.offset < best {
			best = h.offset
		}
	}
	if best == 0 {
		return fileSize
	}
	return best
}
