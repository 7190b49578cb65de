// Inspect a B+-tree index's on-disk page structure.
// Usage: go run ./cmd/pageinspect <db-file> <index-name> <key-width>
// Example: go run ./cmd/pageinspect students.db students_primary 8
package main

import (
	"fmt"
	"os"
	"strconv"

	"coredb/buffer"
	"coredb/diag"
	"coredb/disk"
	"coredb/index/bplustree"
)

func main() {
	if len(os.Args) < 4 {
		fmt.Fprintf(os.Stderr, "Usage: %s <db-file> <index-name> <key-width>\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Example: %s students.db students_primary 8\n", os.Args[0])
		os.Exit(1)
	}
	path, name := os.Args[1], os.Args[2]
	keyWidth, err := strconv.Atoi(os.Args[3])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: bad key width %q: %v\n", os.Args[3], err)
		os.Exit(1)
	}

	d, err := disk.NewFileManager(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer d.Close()

	pool := buffer.New(16, 2, d)
	header := bplustree.NewHeaderDirectory(pool)
	root, ok := header.GetRootPageId(name)
	if !ok {
		fmt.Fprintf(os.Stderr, "Error: no index named %q in %s\n", name, path)
		os.Exit(1)
	}

	ins, err := diag.New(d, keyWidth)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer ins.Close()

	if err := ins.DumpTo(os.Stdout, name, root); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
