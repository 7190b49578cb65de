// Package index is the runtime registry of named B+-tree indexes sharing
// one buffer.Pool and one HeaderDirectory. A table's indexes are just
// names handed to this package; everything about page layout and tree
// shape lives in package bplustree.
package index

import (
	"fmt"
	"sync"

	"github.com/puzpuzpuz/xsync/v3"

	"coredb/buffer"
	"coredb/index/bplustree"
)

// Manager holds every B+-tree opened against one buffer pool, keyed by
// name. Lookups, and opens of a name that is already open, never take mu;
// every open that has to construct a Tree is serialized by mu, so of
// several concurrent opens of the *same* name only one constructs it.
//
// Grounded on the shape of a catalog-driven "name -> live index object"
// registry, generalized to a concurrent map since, unlike that reference,
// indexes here can be opened or created at any point in the program's
// life, not only preloaded once at startup from a static catalog.
type Manager struct {
	mu sync.Mutex

	pool    *buffer.Pool
	header  *bplustree.HeaderDirectory
	indexes *xsync.MapOf[string, *bplustree.Tree]
}

// New returns a Manager whose indexes share pool and its header page.
func New(pool *buffer.Pool) *Manager {
	return &Manager{
		pool:    pool,
		header:  bplustree.NewHeaderDirectory(pool),
		indexes: xsync.NewMapOf[string, *bplustree.Tree](),
	}
}

// OpenOrCreate returns the named index, constructing it (and resuming its
// root from the header page, if one was persisted by an earlier run) on
// first reference. leafMax and internalMax of 0 take the page-capacity
// default for keyWidth; see bplustree.New.
func (m *Manager) OpenOrCreate(name string, keyWidth int, cmp bplustree.Comparator, leafMax, internalMax int) (*bplustree.Tree, error) {
	if t, ok := m.indexes.Load(name); ok {
		return t, nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if t, ok := m.indexes.Load(name); ok {
		return t, nil
	}

	t, err := bplustree.New(name, keyWidth, cmp, m.pool, m.header, leafMax, internalMax)
	if err != nil {
		return nil, fmt.Errorf("index: open %q: %w", name, err)
	}
	m.indexes.Store(name, t)
	return t, nil
}

// Get returns the named index if it has already been opened this session.
func (m *Manager) Get(name string) (*bplustree.Tree, bool) {
	return m.indexes.Load(name)
}

// Drop removes name from the registry. It does not delete the tree's pages
// on disk; real space reclamation is the disk manager's concern.
func (m *Manager) Drop(name string) {
	m.indexes.Delete(name)
}

// Names returns every currently open index name, in no particular order.
func (m *Manager) Names() []string {
	names := make([]string, 0, m.indexes.Size())
	m.indexes.Range(func(name string, _ *bplustree.Tree) bool {
		names = append(names, name)
		return true
	})
	return names
}
