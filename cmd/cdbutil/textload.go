// textload.go -- read delimited key/value text into a builder
//
// (c) 2024 go-cdb authors
//
// This software does not come with any express or implied
// warranty; it is provided "as is". No claim  is made to its
// suitability for any purpose.

package main

import (
	"bufio"
	"io"
	"os"
	"strings"

	"github.com/opencoff/go-cdb/cdbfile"
)

type record struct {
	key []byte
	val []byte
}

// addTextFile adds contents from text file fn where key and value are
// separated by one of the characters in delim. Empty lines and comment
// lines ('#') are skipped.
func addTextFile(b *cdbfile.Builder, fn string, delim string) (uint64, error) {
	fd, err := os.Open(fn)
	if err != nil {
		return 0, err
	}
	defer fd.Close()

	return addTextStream(b, fd, delim)
}

// addTextStream adds contents from fd where key and value are separated
// by one of the characters in delim. stop lets the consumer abandon the
// scan early (on an Add error) without leaving the scanning goroutine
// blocked forever on a full channel.
func addTextStream(b *cdbfile.Builder, fd io.Reader, delim string) (uint64, error) {
	sc := bufio.NewScanner(fd)
	ch := make(chan *record, 16)
	stop := make(chan struct{})

	go func() {
		defer close(ch)
		for sc.Scan() {
			s := strings.TrimSpace(sc.Text())
			if len(s) == 0 || s[0] == '#' {
				continue
			}

			var k, v string
			if i := strings.IndexAny(s, delim); i > 0 {
				k = s[:i]
				v = strings.TrimLeft(s[i:], delim)
			} else {
				k = s
			}

			select {
			case ch <- &record{key: []byte(k), val: []byte(v)}:
			case <-stop:
				return
			}
		}
	}()

	var n uint64
	for r := range ch {
		if err := b.Add(r.key, r.val); err != nil {
			close(stop)
			return n, err
		}
		n++
	}
	if err := sc.Err(); err != nil {
		return n, err
	}
	return n, nil
}
