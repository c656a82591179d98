// Package docstore keeps the application's JSON documents behind one lock per document.
// Persistence is delegated to a Backend: files, bbolt, a SQL table or memory.
package docstore

import (
	"bytes"
	"context"
	"encoding/json"
	"sort"
	"sync"

	"github.com/pkg/errors"

	"github.com/trezcool/kitabu/core"
)

// ErrNotExist is returned by Backend.Read for a document that was never written.
var ErrNotExist = errors.New("document does not exist")

// Backend persists raw documents.
type Backend interface {
	// Read returns the raw content of doc, or ErrNotExist.
	Read(ctx context.Context, doc string) ([]byte, error)
	// Commit writes every document of batch, all or nothing.
	Commit(ctx context.Context, batch map[string][]byte) error
	Close() error
}

type Store struct {
	backend Backend
	docs    []string // sorted
	locks   map[string]*sync.RWMutex
}

var _ core.DB = (*Store)(nil)

// New returns a Store serving docs (core.AllDocs when empty) from backend.
func New(backend Backend, docs ...string) *Store {
	if len(docs) == 0 {
		docs = core.AllDocs
	}
	docs = sortedUnique(docs)
	locks := make(map[string]*sync.RWMutex, len(docs))
	for _, doc := range docs {
		locks[doc] = new(sync.RWMutex)
	}
	return &Store{backend: backend, docs: docs, locks: locks}
}

func (s *Store) View(ctx context.Context, docs []string, fn func(tx core.DocTx) error) error {
	docs, err := s.checkDocs(docs)
	if err != nil {
		return err
	}
	if err = ctx.Err(); err != nil {
		return err
	}
	for _, doc := range docs {
		s.locks[doc].RLock()
	}
	defer func() {
		for _, doc := range docs {
			s.locks[doc].RUnlock()
		}
	}()

	return fn(newTx(ctx, s.backend, docs, true /* readOnly */))
}

func (s *Store) Update(ctx context.Context, docs []string, fn func(tx core.DocTx) error) error {
	docs, err := s.checkDocs(docs)
	if err != nil {
		return err
	}
	if err = ctx.Err(); err != nil {
		return err
	}
	for _, doc := range docs {
		s.locks[doc].Lock()
	}
	defer func() {
		for _, doc := range docs {
			s.locks[doc].Unlock()
		}
	}()

	t := newTx(ctx, s.backend, docs, false /* readOnly */)
	if err = fn(t); err != nil {
		return err
	}
	if len(t.staged) == 0 {
		return nil
	}
	if err = ctx.Err(); err != nil {
		return err
	}
	return errors.Wrap(s.backend.Commit(ctx, t.staged), "committing documents")
}

func (s *Store) Snapshot(ctx context.Context) (map[string][]byte, error) {
	snap := make(map[string][]byte, len(s.docs))
	err := s.View(ctx, s.docs, func(_ core.DocTx) error {
		for _, doc := range s.docs {
			raw, err := s.backend.Read(ctx, doc)
			if err == ErrNotExist {
				continue
			}
			if err != nil {
				return errors.Wrapf(err, "reading %s", doc)
			}
			snap[doc] = raw
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return snap, nil
}

func (s *Store) Close() error {
	return s.backend.Close()
}

func (s *Store) checkDocs(docs []string) ([]string, error) {
	docs = sortedUnique(docs)
	if len(docs) == 0 {
		return nil, errors.New("docstore: no documents requested")
	}
	for _, doc := range docs {
		if _, ok := s.locks[doc]; !ok {
			return nil, errors.Errorf("docstore: unknown document %q", doc)
		}
	}
	return docs, nil
}

type tx struct {
	ctx      context.Context
	backend  Backend
	allowed  map[string]bool
	readOnly bool
	staged   map[string][]byte
}

func newTx(ctx context.Context, backend Backend, docs []string, readOnly bool) *tx {
	allowed := make(map[string]bool, len(docs))
	for _, doc := range docs {
		allowed[doc] = true
	}
	return &tx{ctx: ctx, backend: backend, allowed: allowed, readOnly: readOnly}
}

func (t *tx) Get(doc string, v interface{}) error {
	if !t.allowed[doc] {
		return errors.Errorf("docstore: document %q is not locked by this transaction", doc)
	}

	raw, ok := t.staged[doc]
	if !ok {
		var err error
		raw, err = t.backend.Read(t.ctx, doc)
		if err == ErrNotExist {
			return nil
		}
		if err != nil {
			return errors.Wrapf(err, "reading %s", doc)
		}
	}
	if raw = bytes.TrimSpace(raw); len(raw) == 0 || bytes.Equal(raw, []byte("null")) { // created but never written
		return nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return &core.CorruptStoreError{Doc: doc, Err: err}
	}
	return nil
}

func (t *tx) Put(doc string, v interface{}) error {
	if !t.allowed[doc] {
		return errors.Errorf("docstore: document %q is not locked by this transaction", doc)
	}
	if t.readOnly {
		return errors.Errorf("docstore: cannot write %q in a read-only transaction", doc)
	}

	raw, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return errors.Wrapf(err, "encoding %s", doc)
	}
	if t.staged == nil {
		t.staged = make(map[string][]byte)
	}
	t.staged[doc] = raw
	return nil
}

func sortedUnique(docs []string) []string {
	out := make([]string, 0, len(docs))
	seen := make(map[string]bool, len(docs))
	for _, doc := range docs {
		if !seen[doc] {
			seen[doc] = true
			out = append(out, doc)
		}
	}
	sort.Strings(out)
	return out
}
