// digest.go -- optional sidecar whole-file integrity digest
//
// (c) 2024 go-cdb authors
//
// This software does not come with any express or implied
// warranty; it is provided "as is". No claim  is made to its
// suitability for any purpose.

package cdbfile

import (
	"bytes"
	"crypto/sha512"
	"crypto/subtle"
	"io"
	"os"

	"github.com/natefinch/atomic"
)

// digestSuffix names the sidecar file: path + digestSuffix.
const digestSuffix = ".sha512-256"

// WriteDigest computes the SHA512-256 digest of the committed file at
// path and writes it, raw (32 bytes, no hex), to path+".sha512-256".
// This never touches the cdb file itself -- it is an opt-in, out-of-band
// companion.
func WriteDigest(path string) ([]byte, error) {
	fd, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer fd.Close()

	h := sha512.New512_256()
	if _, err := io.Copy(h, fd); err != nil {
		return nil, err
	}
	sum := h.Sum(nil)

	if err := atomic.WriteFile(path+digestSuffix, bytes.NewReader(sum)); err != nil {
		return nil, err
	}
	return sum, nil
}

// VerifyDigest recomputes path's digest and compares it, in constant
// time, against the sidecar written by WriteDigest. A missing sidecar is
// reported as a plain error, not a security failure: digests are opt-in,
// and their absence doesn't make an otherwise well-formed cdb file
// unreadable.
func VerifyDigest(path string) (bool, error) {
	want, err := os.ReadFile(path + digestSuffix)
	if err != nil {
		return false, err
	}

	fd, err := os.Open(path)
	if err != nil {
		return false, err
	}
	defer fd.Close()

	h := sha512.New512_256()
	if _, err := io.Copy(h, fd); err != nil {
		return false, err
	}
	got := h.Sum(nil)

	return subtle.ConstantTimeCompare(want, got) == 1, nil
}
