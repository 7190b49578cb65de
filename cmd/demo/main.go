// Demo program: builds a small B+-tree index over a disk-backed buffer
// pool, inserts enough keys to force a page eviction and a leaf split,
// flushes, and walks the tree with an iterator.
// Run: go run ./cmd/demo
package main

import (
	"fmt"
	"log"
	"os"

	"coredb/buffer"
	"coredb/common"
	"coredb/disk"
	"coredb/index"
	"coredb/index/bplustree"
)

const dbPath = "demo.db"

func main() {
	os.Remove(dbPath)
	d, err := disk.NewFileManager(dbPath)
	if err != nil {
		log.Fatalf("open disk manager: %v", err)
	}
	defer d.Close()

	// Pool size 3 so a handful of pages forces an eviction.
	pool := buffer.New(3, 2, d)
	mgr := index.New(pool)

	tree, err := mgr.OpenOrCreate("students_by_id", 8, bplustree.ByteComparator, 3, 3)
	if err != nil {
		log.Fatalf("open index: %v", err)
	}

	fmt.Println("Inserting students 1..10...")
	for i := int64(1); i <= 10; i++ {
		ok, err := tree.Insert(bplustree.IntKey(i, 8), common.RID{PageID: common.PageID(i), Slot: uint32(i)})
		if err != nil {
			log.Fatalf("insert %d: %v", i, err)
		}
		if !ok {
			log.Fatalf("insert %d: unexpected duplicate", i)
		}
	}

	fmt.Println("Removing students 7..10 (forces a coalesce cascade)...")
	for i := int64(10); i >= 7; i-- {
		ok, err := tree.Remove(bplustree.IntKey(i, 8))
		if err != nil {
			log.Fatalf("remove %d: %v", i, err)
		}
		if !ok {
			log.Fatalf("remove %d: expected to find key", i)
		}
	}

	if err := pool.FlushAllPages(); err != nil {
		log.Fatalf("flush: %v", err)
	}

	fmt.Println("Remaining students, in order:")
	it := tree.Begin()
	defer it.Close()
	for !it.IsEnd() {
		fmt.Printf("  key=%x -> %s\n", it.Key().Bytes(), it.Value())
		if !it.Next() {
			break
		}
	}
}
