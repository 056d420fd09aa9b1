// cdbfile.go -- path-based convenience layer over cdb.Builder/cdb.Reader
//
// (c) 2024 go-cdb authors
//
// This software does not come with any express or implied
// warranty; it is provided "as is". No claim  is made to its
// suitability for any purpose.

// Package cdbfile adds path and atomic-commit handling on top of the
// fd-based core in package cdb. The core never touches a path or renames
// a file; this package is where that policy lives, grounded in the
// teacher engine's own temp-file-then-rename build pattern but using a
// real atomic-publish dependency instead of a hand-rolled os.Rename.
package cdbfile

import (
	"crypto/rand"
	"encoding/hex"
	"os"
	"path/filepath"

	"github.com/natefinch/atomic"
	"github.com/opencoff/go-cdb"
)

// Builder builds a committed cdb file at a path, via a private temp file
// that is published atomically on Commit.
type Builder struct {
	*cdb.Builder

	tmpPath  string
	finalPath string
	fd       *os.File
	done     bool
}

// tmpSuffix returns a random hex suffix for a private temp file name.
func tmpSuffix() (string, error) {
	var b [12]byte
	if _, err := rand.Read(b[:]); err != nil {
		return "", err
	}
	return hex.EncodeToString(b[:]), nil
}

// CreatePath creates a new cdb file destined for path. The file is
// staged under <dir>/.<base>.tmp-<random> so a crash or an abandoned
// builder never leaves a half-written file at path itself.
func CreatePath(path string) (*Builder, error) {
	dir := filepath.Dir(path)
	base := filepath.Base(path)

	suffix, err := tmpSuffix()
	if err != nil {
		return nil, err
	}
	tmpPath := filepath.Join(dir, "."+base+".tmp-"+suffix)

	fd, err := os.OpenFile(tmpPath, os.O_RDWR|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return nil, err
	}

	b, err := cdb.OpenBuilder(fd)
	if err != nil {
		fd.Close()
		os.Remove(tmpPath)
		return nil, err
	}

	return &Builder{
		Builder:   b,
		tmpPath:   tmpPath,
		finalPath: path,
		fd:        fd,
	}, nil
}

// Commit finishes the core commit, then publishes the staged file to its
// final path via natefinch/atomic's write-temp-fsync-rename sequence
// (reading our own already-committed temp file as the source), and
// reopens the result read-only as a *Reader.
func (b *Builder) Commit() (*Reader, error) {
	if _, err := b.Builder.Commit(); err != nil {
		return nil, err
	}

	if _, err := b.fd.Seek(0, 0); err != nil {
		b.fd.Close()
		os.Remove(b.tmpPath)
		return nil, err
	}
	writeErr := atomic.WriteFile(b.finalPath, b.fd)
	closeErr := b.fd.Close()
	os.Remove(b.tmpPath)
	if writeErr != nil {
		return nil, writeErr
	}
	if closeErr != nil {
		return nil, closeErr
	}
	b.done = true

	return OpenPath(b.finalPath, cdb.OpenOptions{})
}

// Close destroys the builder without publishing it. Since this package
// owns the temp file (unlike the fd-based core, which never owns a
// path), an abandoned Builder removes it.
func (b *Builder) Close() error {
	err := b.Builder.Close()
	if !b.done {
		b.fd.Close()
		os.Remove(b.tmpPath)
	}
	return err
}

// Reader is a path-opened *cdb.Reader that also owns the underlying file
// descriptor; Close releases both. (The core Reader never closes the fd
// it was given, since the core doesn't assume it owns a path.)
type Reader struct {
	*cdb.Reader
	fd *os.File
}

func (r *Reader) Close() error {
	err := r.Reader.Close()
	if cerr := r.fd.Close(); err == nil {
		err = cerr
	}
	return err
}

// OpenPath opens a committed cdb file at path read-only.
func OpenPath(path string, opts cdb.OpenOptions) (*Reader, error) {
	fd, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	r, err := cdb.Open(fd, opts)
	if err != nil {
		fd.Close()
		return nil, err
	}
	return &Reader{Reader: r, fd: fd}, nil
}
