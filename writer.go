// writer.go -- the builder: stage records, then commit the hash tables
//
// (c) 2024 go-cdb authors
//
// This software does not come with any express or implied
// warranty; it is provided "as is". No claim  is made to its
// suitability for any purpose.

package cdb

import (
	"os"
)

// Builder stages key/value pairs for a new cdb file and, on Commit,
// writes the per-bucket hash tables and the fixed header, producing a
// Reader over the freshly committed file. A Builder is not safe for
// concurrent use.
type Builder struct {
	fd  *os.File
	bw  *bufWriter
	pos uint32

	journal *slotJournal

	poison  error
	closed  bool
	done    bool // true once Commit has succeeded
}

// OpenBuilder truncates fd to zero, reserves the 2048-byte header region,
// and returns a Builder ready to accept records.
func OpenBuilder(fd *os.File) (*Builder, error) {
	if err := fd.Truncate(0); err != nil {
		return nil, ioErrorf(err, "truncate failed")
	}
	if _, err := fd.Seek(headerSize, 0); err != nil {
		return nil, ioErrorf(err, "seek past header failed")
	}

	return &Builder{
		fd:      fd,
		bw:      newBufWriter(fd),
		pos:     headerSize,
		journal: newSlotJournal(),
	}, nil
}

// Fileno returns the underlying file descriptor number.
func (b *Builder) Fileno() int {
	return int(b.fd.Fd())
}

func (b *Builder) fail(err error) error {
	if b.poison == nil {
		b.poison = err
	}
	return err
}

// Add appends one record: (len(key), len(value), key, value). Duplicate
// keys are permitted and retained; later calls with the same key do not
// overwrite earlier ones.
func (b *Builder) Add(key, value []byte) error {
	if b.closed {
		return closedError("builder is closed")
	}
	if b.poison != nil {
		return poisonedError()
	}
	if b.done {
		return closedError("builder already committed")
	}

	klen := uint64(len(key))
	vlen := uint64(len(value))
	if klen > uint64(maxUint32) || vlen > uint64(maxUint32) {
		return b.fail(overflowErrorf("key or value exceeds 2^32-1 bytes"))
	}
	recOff := b.pos
	total := uint64(recordPrefixSize) + klen + vlen
	// Reserve the two slots (2*slotSize = 16 bytes) that this record and
	// every earlier one add to their buckets' doubled hash tables, so
	// Commit's later offset/length accumulation over the hash-table region
	// can't silently wrap past 2^32 for an input that just barely fits the
	// record region alone.
	slotBytes := uint64(b.journal.len()+1) * 2 * slotSize
	if uint64(recOff)+total+slotBytes > uint64(maxUint32) {
		return b.fail(overflowErrorf("record at offset %d would overflow a 32-bit file size", recOff))
	}

	prefix := make([]byte, 0, recordPrefixSize)
	prefix = packU32(prefix, uint32(klen))
	prefix = packU32(prefix, uint32(vlen))
	if err := b.bw.write(prefix); err != nil {
		return b.fail(err)
	}

	h := hashSeed
	for _, c := range key {
		h = hashUpdate(h, c)
	}
	if err := b.bw.write(key); err != nil {
		return b.fail(err)
	}
	if err := b.bw.write(value); err != nil {
		return b.fail(err)
	}

	b.journal.append(h, recOff)
	b.pos = recOff + uint32(total)
	return nil
}

// slotEntry is one placed (hash, record_offset) pair in a bucket's final
// on-disk slot array.
type slotEntry struct {
	hash   uint32
	offset uint32
}

// Commit writes every bucket's hash table, then the header, fsyncing in
// between so the header never points at a table that didn't make it to
// disk. It returns a Reader opened on the freshly committed file.
func (b *Builder) Commit() (*Reader, error) {
	if b.closed {
		return nil, closedError("builder is closed")
	}
	if b.poison != nil {
		return nil, poisonedError()
	}
	if b.done {
		return nil, closedError("builder already committed")
	}

	if err := b.bw.flush(); err != nil {
		return nil, b.fail(err)
	}

	n := b.journal.len()

	// Pass A: stable counting-sort the journal into per-bucket groups,
	// preserving each bucket's original insertion order. Walking the
	// journal newest-to-oldest while decrementing a prefix-sum boundary
	// array is what makes a single forward pass produce that order.
	var starts [numBuckets + 1]uint32
	for i := 0; i < numBuckets; i++ {
		starts[i+1] = starts[i] + b.journal.bucketCount(uint32(i))
	}
	sorted := make([]journalEntry, n)
	cursor := starts
	for i := n - 1; i >= 0; i-- {
		e := b.journal.at(i)
		cursor[e.bucket+1]--
		sorted[cursor[e.bucket+1]] = e
	}

	// Pass B: for each bucket, open-address its counts[i] entries (in
	// the insertion order pass A recovered) into a scratch table of
	// twice that length, then write the table and record its header
	// entry.
	var header [numBuckets]bucketHeader
	for i := 0; i < numBuckets; i++ {
		lo, hi := starts[i], starts[i+1]
		count := hi - lo
		if count == 0 {
			// An empty bucket's entry stays all zeros, so an empty
			// database is a 2048-byte file of zeros.
			continue
		}
		header[i].offset = b.pos

		l := count * 2
		scratch := make([]slotEntry, l)
		for j := lo; j < hi; j++ {
			e := sorted[j]
			slot := startSlot(e.hash, l)
			for scratch[slot].offset != 0 {
				slot = (slot + 1) % l
			}
			scratch[slot] = slotEntry{hash: e.hash, offset: e.offset}
		}

		buf := make([]byte, 0, int(l)*slotSize)
		for _, s := range scratch {
			buf = packU32(buf, s.hash)
			buf = packU32(buf, s.offset)
		}
		if err := b.bw.write(buf); err != nil {
			return nil, b.fail(err)
		}

		header[i].length = l
		b.pos += l * slotSize
	}

	if err := b.bw.flush(); err != nil {
		return nil, b.fail(err)
	}
	if err := b.fd.Sync(); err != nil {
		return nil, b.fail(ioErrorf(err, "fsync before header write failed"))
	}

	hdrBuf := encodeHeader(header)
	hn, err := b.fd.WriteAt(hdrBuf, 0)
	if err != nil {
		return nil, b.fail(ioErrorf(err, "header write failed"))
	}
	if hn != len(hdrBuf) {
		return nil, b.fail(errShortWrite(len(hdrBuf), hn))
	}
	if err := b.fd.Sync(); err != nil {
		return nil, b.fail(ioErrorf(err, "fsync after header write failed"))
	}

	b.done = true
	return newReader(b.fd, b.pos, OpenOptions{})
}

// Close destroys the builder without committing. If no record has been
// added and no commit has happened, this is a cheap no-op on the caller's
// fd; the core builder never unlinks anything, since it never owns a
// path -- that responsibility (and its "delete the abandoned temp file")
// belongs to the path-based convenience layer in cdbfile.
func (b *Builder) Close() error {
	if b.closed {
		return nil
	}
	b.closed = true
	return nil
}
