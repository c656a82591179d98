package inmemdb

import (
	"context"
	"sync"

	"github.com/trezcool/kitabu/storage/docstore"
)

// Backend keeps documents in memory. Used by tests and by the "memory" engine.
type Backend struct {
	mutex sync.RWMutex
	table map[string][]byte
}

var _ docstore.Backend = (*Backend)(nil)

func NewBackend() *Backend {
	return &Backend{table: make(map[string][]byte)}
}

// Open returns a docstore.Store backed by memory.
func Open() *docstore.Store {
	return docstore.New(NewBackend())
}

func (b *Backend) Read(_ context.Context, doc string) ([]byte, error) {
	b.mutex.RLock()
	defer b.mutex.RUnlock()

	raw, ok := b.table[doc]
	if !ok {
		return nil, docstore.ErrNotExist
	}
	return append([]byte(nil), raw...), nil
}

func (b *Backend) Commit(_ context.Context, batch map[string][]byte) error {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	for doc, raw := range batch {
		b.table[doc] = append([]byte(nil), raw...)
	}
	return nil
}

// Set overwrites a raw document, bypassing the store; tests use it to plant corrupt content.
func (b *Backend) Set(doc string, raw []byte) {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	b.table[doc] = append([]byte(nil), raw...)
}

func (b *Backend) Close() error { return nil }
