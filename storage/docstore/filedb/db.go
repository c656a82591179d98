// Package filedb stores every document as <dir>/<doc>.json.
//
// A commit touching a single document is a temp-file write followed by a rename.
// A commit touching several documents first writes them all to a journal file;
// the journal is replayed at Open, so an interrupted commit is either absent or completed.
// A commit that fails after its journal was written is replayed before the next read or commit;
// while the replay keeps failing the backend only returns shutdown errors.
package filedb

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/pkg/errors"

	"github.com/trezcool/kitabu/core"
	"github.com/trezcool/kitabu/storage/docstore"
)

const (
	docExt      = ".json"
	journalName = ".journal.json"
	dirPerm     = 0o755
	filePerm    = 0o644
)

type Backend struct {
	dir    string
	logger core.Logger

	mu      sync.Mutex // serializes journal use
	pending bool       // a journal is on disk but not applied
}

var _ docstore.Backend = (*Backend)(nil)

// NewBackend prepares dir and replays any pending journal.
func NewBackend(dir string, logger core.Logger) (*Backend, error) {
	if err := os.MkdirAll(dir, dirPerm); err != nil {
		return nil, errors.Wrap(err, "creating data directory")
	}
	b := &Backend{dir: dir, logger: logger}
	if err := b.recover(); err != nil {
		return nil, errors.Wrap(err, "replaying journal")
	}
	return b, nil
}

// Open returns a docstore.Store backed by files under dir.
func Open(dir string, logger core.Logger) (*docstore.Store, error) {
	b, err := NewBackend(dir, logger)
	if err != nil {
		return nil, err
	}
	return docstore.New(b), nil
}

func (b *Backend) path(doc string) string {
	return filepath.Join(b.dir, doc+docExt)
}

func (b *Backend) journalPath() string {
	return filepath.Join(b.dir, journalName)
}

func (b *Backend) Read(_ context.Context, doc string) ([]byte, error) {
	if err := b.settle(); err != nil {
		return nil, err
	}
	raw, err := os.ReadFile(b.path(doc))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, docstore.ErrNotExist
		}
		return nil, err
	}
	return raw, nil
}

func (b *Backend) Commit(_ context.Context, batch map[string][]byte) error {
	if err := b.settle(); err != nil {
		return err
	}
	if len(batch) == 1 {
		for doc, raw := range batch {
			return writeFileAtomic(b.path(doc), raw)
		}
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	// stage every document in the journal: once it is on disk the commit is durable
	journal, err := json.Marshal(toJournal(batch))
	if err != nil {
		return errors.Wrap(err, "encoding journal")
	}
	if err = writeFileAtomic(b.journalPath(), journal); err != nil {
		return errors.Wrap(err, "writing journal")
	}
	if err = b.apply(batch); err != nil {
		if b.logger != nil {
			b.logger.Warn("applying journal failed, replaying", err)
		}
		if err = b.recover(); err != nil {
			b.pending = true
			return b.unavailable(err)
		}
		return nil
	}
	return errors.Wrap(os.Remove(b.journalPath()), "removing journal")
}

// settle replays a journal left by a failed commit.
func (b *Backend) settle() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.pending {
		return nil
	}
	if err := b.recover(); err != nil {
		return b.unavailable(err)
	}
	b.pending = false
	return nil
}

func (b *Backend) unavailable(err error) error {
	if b.logger != nil {
		b.logger.Error("file store has an incomplete commit", err, map[string]interface{}{"dir": b.dir})
	}
	return core.NewShutdownError("filedb: incomplete commit: " + err.Error())
}

func (b *Backend) Close() error { return nil }

// recover completes a commit interrupted after its journal was written.
func (b *Backend) recover() error {
	raw, err := os.ReadFile(b.journalPath())
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	var entries map[string]json.RawMessage
	if err = json.Unmarshal(raw, &entries); err != nil {
		// the journal is written atomically; an unreadable one never reached its commit point
		if b.logger != nil {
			b.logger.Warn("discarding unreadable journal", err)
		}
		return os.Remove(b.journalPath())
	}

	batch := make(map[string][]byte, len(entries))
	for doc, body := range entries {
		batch[doc] = body
	}
	if err = b.apply(batch); err != nil {
		return err
	}
	if b.logger != nil {
		b.logger.Info("journal replayed", map[string]interface{}{"documents": sortedKeys(batch)})
	}
	return os.Remove(b.journalPath())
}

func (b *Backend) apply(batch map[string][]byte) error {
	for _, doc := range sortedKeys(batch) {
		if err := writeFileAtomic(b.path(doc), batch[doc]); err != nil {
			return errors.Wrapf(err, "writing %s", doc)
		}
	}
	return nil
}

func toJournal(batch map[string][]byte) map[string]json.RawMessage {
	entries := make(map[string]json.RawMessage, len(batch))
	for doc, raw := range batch {
		entries[doc] = raw
	}
	return entries
}

func sortedKeys(batch map[string][]byte) []string {
	keys := make([]string, 0, len(batch))
	for k := range batch {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// writeFileAtomic writes data next to path, syncs it and renames it over path.
func writeFileAtomic(path string, data []byte) error {
	f, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	tmp := f.Name()
	defer func() { _ = os.Remove(tmp) }() // no-op after a successful rename

	if _, err = f.Write(data); err != nil {
		_ = f.Close()
		return err
	}
	if err = f.Sync(); err != nil {
		_ = f.Close()
		return err
	}
	if err = f.Close(); err != nil {
		return err
	}
	if err = os.Chmod(tmp, filePerm); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
