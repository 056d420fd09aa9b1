// cdbutil -- build, dump, verify and digest constant databases
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

	flag "github.com/opencoff/pflag"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	cmd := os.Args[1]
	args := os.Args[2:]

	switch cmd {
	case "make":
		cmdMake(args)
	case "dump":
		cmdDump(args)
	case "verify":
		cmdVerify(args)
	case "digest":
		cmdDigest(args)
	case "-h", "--help", "help":
		usage()
	default:
		die("unknown subcommand %q\n", cmd)
	}
}

func usage() {
	fmt.Printf(`cdbutil - build, inspect and verify constant databases

Usage:
  cdbutil make [-d delim] [--digest] OUTPUT [INPUT...]
  cdbutil dump [-d delim] DB
  cdbutil verify DB
  cdbutil digest DB
`)
}

func newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: cdbutil %s [options] ARGS\n", name)
		fs.PrintDefaults()
	}
	return fs
}

// die with error
func die(f string, v ...interface{}) {
	warn(f, v...)
	os.Exit(1)
}

func warn(f string, v ...interface{}) {
	z := fmt.Sprintf("cdbutil: %s", f)
	s := fmt.Sprintf(z, v...)
	if n := len(s); n == 0 || s[n-1] != '\n' {
		s += "\n"
	}
	os.Stderr.WriteString(s)
	os.Stderr.Sync()
}
