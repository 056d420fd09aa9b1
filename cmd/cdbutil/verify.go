// verify.go -- the "cdbutil verify" and "cdbutil digest" subcommands
//
// (c) 2024 go-cdb authors
//
// This software does not come with any express or implied
// warranty; it is provided "as is". No claim  is made to its
// suitability for any purpose.

package main

import (
	"fmt"

	"github.com/opencoff/go-cdb"
	"github.com/opencoff/go-cdb/cdbfile"
)

func cmdVerify(args []string) {
	fs := newFlagSet("verify")
	fs.Parse(args)

	rest := fs.Args()
	if len(rest) != 1 {
		die("usage: cdbutil verify DB\n")
	}
	path := rest[0]

	r, err := cdbfile.OpenPath(path, cdb.OpenOptions{})
	if err != nil {
		die("%s: %s", path, err)
	}
	defer r.Close()

	it, err := r.IterItems(true)
	if err != nil {
		die("%s: %s", path, err)
	}

	var n uint64
	for {
		k, _, ok, err := it.Next()
		if err != nil {
			die("%s: corrupt at record %d: %s", path, n, err)
		}
		if !ok {
			break
		}
		if ok, err := r.Contains(k); err != nil || !ok {
			die("%s: record %d is unreachable by lookup (format error)", path, n)
		}
		n++
	}

	fmt.Printf("%s: OK, %d records\n", path, n)
}

func cmdDigest(args []string) {
	fs := newFlagSet("digest")
	verify := fs.BoolP("verify", "V", false, "verify against the existing sidecar instead of writing one")
	fs.Parse(args)

	rest := fs.Args()
	if len(rest) != 1 {
		die("usage: cdbutil digest [-V] DB\n")
	}
	path := rest[0]

	if *verify {
		ok, err := cdbfile.VerifyDigest(path)
		if err != nil {
			die("%s: %s", path, err)
		}
		if !ok {
			die("%s: digest MISMATCH", path)
		}
		fmt.Printf("%s: digest OK\n", path)
		return
	}

	sum, err := cdbfile.WriteDigest(path)
	if err != nil {
		die("%s: %s", path, err)
	}
	fmt.Printf("%s.sha512-256: %x\n", path, sum)
}
