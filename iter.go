// iter.go -- whole-file and per-key iteration
//
// (c) 2024 go-cdb authors
//
// This software does not come with any express or implied
// warranty; it is provided "as is". No claim  is made to its
// suitability for any purpose.

package cdb

// Item is one record yielded by a RecordIter: its key and value (always
// freshly allocated, never borrowed from internal state), and whether
// this is the first-inserted occurrence of its key.
type Item struct {
	Key   []byte
	Value []byte
	First bool
}

// RecordIter walks every record in a committed file in insertion order,
// from the start of the record region to the sentinel offset where the
// first hash table begins.
type RecordIter struct {
	r   *Reader
	cur uint32
	end uint32
	err error
}

// records returns an iterator over every record in insertion order.
func (r *Reader) records() (*RecordIter, error) {
	if err := r.checkOpen(); err != nil {
		return nil, err
	}
	end := sentinelOffset(r.header, r.size)
	return &RecordIter{r: r, cur: headerSize, end: end}, nil
}

// Next advances to the next record. It returns ok=false (with a nil
// error) once the record region is exhausted.
func (it *RecordIter) Next() (item Item, ok bool, err error) {
	if it.err != nil {
		return Item{}, false, it.err
	}
	if it.cur >= it.end {
		return Item{}, false, nil
	}

	off := it.cur
	prefix, err := it.r.src.readAt(off, recordPrefixSize)
	if err != nil {
		it.err = err
		return Item{}, false, err
	}
	klen := unpackU32(prefix[0:4])
	vlen := unpackU32(prefix[4:8])

	recEnd := uint64(off) + uint64(recordPrefixSize) + uint64(klen) + uint64(vlen)
	if recEnd > uint64(it.end) {
		err := formatErrorf("record at offset %d runs past the record region boundary", off)
		it.err = err
		return Item{}, false, err
	}

	keySrc, err := it.r.src.readAt(off+recordPrefixSize, klen)
	if err != nil {
		it.err = err
		return Item{}, false, err
	}
	key := append([]byte(nil), keySrc...)

	valSrc, err := it.r.src.readAt(off+recordPrefixSize+klen, vlen)
	if err != nil {
		it.err = err
		return Item{}, false, err
	}
	value := append([]byte(nil), valSrc...)

	first, err := it.r.isFirstOccurrence(key, off)
	if err != nil {
		it.err = err
		return Item{}, false, err
	}

	it.cur = uint32(recEnd)
	return Item{Key: key, Value: value, First: first}, true, nil
}

// isFirstOccurrence reports whether off is the offset of the first
// (canonically probed) record matching key -- i.e. the one GetFirst
// would return.
func (r *Reader) isFirstOccurrence(key []byte, off uint32) (bool, error) {
	isFirst := false
	done := false
	err := r.probe(key, func(recOff uint32) (bool, error) {
		if done {
			return false, nil
		}
		_, matched, err := r.readRecordIfMatches(recOff, key)
		if err != nil {
			return false, err
		}
		if matched {
			isFirst = recOff == off
			done = true
			return false, nil
		}
		return true, nil
	})
	return isFirst, err
}

// KeyIter yields keys in insertion order, optionally restricted to the
// first occurrence of each distinct key.
type KeyIter struct {
	inner *RecordIter
	all   bool
}

// IterKeys returns an iterator over keys. With all=false it yields each
// distinct key exactly once, in the order of its first insertion; with
// all=true it yields every record's key, including duplicates.
func (r *Reader) IterKeys(all bool) (*KeyIter, error) {
	inner, err := r.records()
	if err != nil {
		return nil, err
	}
	return &KeyIter{inner: inner, all: all}, nil
}

func (it *KeyIter) Next() ([]byte, bool, error) {
	for {
		item, ok, err := it.inner.Next()
		if err != nil || !ok {
			return nil, ok, err
		}
		if it.all || item.First {
			return item.Key, true, nil
		}
	}
}

// ItemIter yields (key, value) pairs in insertion order, optionally
// restricted to the first occurrence of each distinct key.
type ItemIter struct {
	inner *RecordIter
	all   bool
}

// IterItems returns an iterator over (key, value) pairs. With all=true
// every record is yielded, including duplicate keys, in insertion order;
// with all=false only the first-inserted record of each distinct key is
// yielded.
func (r *Reader) IterItems(all bool) (*ItemIter, error) {
	inner, err := r.records()
	if err != nil {
		return nil, err
	}
	return &ItemIter{inner: inner, all: all}, nil
}

func (it *ItemIter) Next() (key, value []byte, ok bool, err error) {
	for {
		item, ok, err := it.inner.Next()
		if err != nil || !ok {
			return nil, nil, ok, err
		}
		if it.all || item.First {
			return item.Key, item.Value, true, nil
		}
	}
}

// Len reports the number of distinct keys in the database.
func (r *Reader) Len() (int, error) {
	it, err := r.IterKeys(false)
	if err != nil {
		return 0, err
	}
	n := 0
	for {
		_, ok, err := it.Next()
		if err != nil {
			return 0, err
		}
		if !ok {
			return n, nil
		}
		n++
	}
}
