// stocksync mirrors a snapshot export directory into a destination
// directory: new files are copied, renamed files are moved, stale files are
// removed.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/stockyard/stockd/internal/filesync"
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: %s <source> <destination>\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() != 2 {
		flag.Usage()
		os.Exit(2)
	}

	src := flag.Arg(0)
	dst := flag.Arg(1)

	if err := filesync.Sync(src, dst); err != nil {
		fmt.Fprintf(os.Stderr, "sync failed: %v\n", err)
		os.Exit(1)
	}
}
