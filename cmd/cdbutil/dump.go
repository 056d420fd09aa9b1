// dump.go -- the "cdbutil dump" subcommand
//
// (c) 2024 go-cdb authors
//
// This software does not come with any express or implied
// warranty; it is provided "as is". No claim  is made to its
// suitability for any purpose.

package main

import (
	"bufio"
	"fmt"
	"os"

	"github.com/opencoff/go-cdb"
	"github.com/opencoff/go-cdb/cdbfile"
)

func cmdDump(args []string) {
	fs := newFlagSet("dump")
	delim := fs.StringP("delim", "d", " ", "use `D` as the key/value separator on output")
	all := fs.BoolP("all", "a", true, "include duplicate keys, not just first occurrences")
	fs.Parse(args)

	rest := fs.Args()
	if len(rest) != 1 {
		die("usage: cdbutil dump [options] DB\n")
	}

	r, err := cdbfile.OpenPath(rest[0], cdb.OpenOptions{})
	if err != nil {
		die("can't open %s: %s", rest[0], err)
	}
	defer r.Close()

	it, err := r.IterItems(*all)
	if err != nil {
		die("can't iterate %s: %s", rest[0], err)
	}

	w := bufio.NewWriter(os.Stdout)
	defer w.Flush()

	for {
		k, v, ok, err := it.Next()
		if err != nil {
			die("read error: %s", err)
		}
		if !ok {
			break
		}
		fmt.Fprintf(w, "%s%s%s\n", k, *delim, v)
	}
}
