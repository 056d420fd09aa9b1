// journal.go -- insertion-ordered (hash, offset) journal for the builder
//
// (c) 2024 go-cdb authors
//
// This software does not come with any express or implied
// warranty; it is provided "as is". No claim  is made to its
// suitability for any purpose.

package cdb

// journalChunkSize bounds each chunk of the slot journal to a fixed
// number of entries, so Add never grows one giant backing array; the
// journal as a whole is a slice of chunk pointers, appended to as
// needed and walked back-to-front by Commit.
const journalChunkSize = 1024

type journalEntry struct {
	hash   uint32
	offset uint32
	bucket uint32
}

// slotJournal records every (hash, record offset) pair in insertion
// order, plus a running per-bucket count, so Commit can size each
// bucket's hash table and then replay the journal newest-to-oldest to
// reproduce the reader's linear-probe order for duplicate keys.
type slotJournal struct {
	chunks  [][]journalEntry
	n       int
	counts  [numBuckets]uint32
}

func newSlotJournal() *slotJournal {
	return &slotJournal{}
}

func (j *slotJournal) len() int { return j.n }

func (j *slotJournal) bucketCount(b uint32) uint32 { return j.counts[b] }

// append records one entry and bumps its bucket's count.
func (j *slotJournal) append(h, off uint32) {
	b := bucketIndex(h)
	idx := j.n % journalChunkSize
	if idx == 0 {
		j.chunks = append(j.chunks, make([]journalEntry, 0, journalChunkSize))
	}
	ci := len(j.chunks) - 1
	j.chunks[ci] = append(j.chunks[ci], journalEntry{hash: h, offset: off, bucket: b})
	j.n++
	j.counts[b]++
}

// at returns the i'th entry in insertion order, 0 <= i < len().
func (j *slotJournal) at(i int) journalEntry {
	return j.chunks[i/journalChunkSize][i%journalChunkSize]
}
