package main

// Attaches to a live shared-memory segment and prints what's in its headers.
// Note that attaching counts: the reported refcount includes this process.

import (
	"fmt"
	"os"

	"ismbuf/pkg/shmbuf"
)

func main() {
	if len(os.Args) != 2 {
		fmt.Fprintf(os.Stderr, "usage: %s <segment-name>\n", os.Args[0])
		os.Exit(1)
	}

	buf, err := shmbuf.Open(os.Args[1])
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to attach: %v\n", err)
		os.Exit(1)
	}
	defer buf.Close()

	rc, err := buf.SharedRefcount()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to read refcount: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("name: %s\n", buf.Name())
	fmt.Printf("data bytes: %d\n", len(buf.Bytes()))
	fmt.Printf("descr: %q\n", buf.Descr())
	fmt.Printf("shared refcount: %d\n", rc)
}
