// make.go -- the "cdbutil make" subcommand
//
// (c) 2024 go-cdb authors
//
// This software does not come with any express or implied
// warranty; it is provided "as is". No claim  is made to its
// suitability for any purpose.

package main

import (
	"fmt"
	"os"

	"github.com/opencoff/go-cdb/cdbfile"
)

func cmdMake(args []string) {
	fs := newFlagSet("make")
	delim := fs.StringP("delim", "d", " \t", "use `D` as the key/value delimiter characters")
	digest := fs.Bool("digest", false, "also write a .sha512-256 sidecar digest")
	fs.Parse(args)

	rest := fs.Args()
	if len(rest) < 1 {
		die("no output file name!\n")
	}
	out := rest[0]
	inputs := rest[1:]

	b, err := cdbfile.CreatePath(out)
	if err != nil {
		die("can't create %s: %s", out, err)
	}

	var total uint64
	if len(inputs) > 0 {
		for _, f := range inputs {
			n, err := addTextFile(b, f, *delim)
			if err != nil {
				warn("can't add %s: %s", f, err)
				continue
			}
			total += n
			fmt.Printf("+ %s: %d records\n", f, n)
		}
	} else {
		n, err := addTextStream(b, os.Stdin, *delim)
		if err != nil {
			b.Close()
			die("can't add STDIN: %s", err)
		}
		total += n
		fmt.Printf("+ <STDIN>: %d records\n", n)
	}

	r, err := b.Commit()
	if err != nil {
		b.Close()
		die("can't commit %s: %s", out, err)
	}
	defer r.Close()

	fmt.Printf("%s: %d records committed\n", out, total)

	if *digest {
		sum, err := cdbfile.WriteDigest(out)
		if err != nil {
			die("can't write digest for %s: %s", out, err)
		}
		fmt.Printf("%s.sha512-256: %x\n", out, sum)
	}
}
