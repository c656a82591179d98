package boltdb

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	bolt "go.etcd.io/bbolt"

	"github.com/trezcool/kitabu/storage/docstore"
)

const bucketDocuments = "documents"

// Backend keeps documents as values of a single bbolt bucket; a commit is one bbolt transaction.
type Backend struct {
	db *bolt.DB
}

var _ docstore.Backend = (*Backend)(nil)

func NewBackend(path string) (*Backend, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, errors.Wrap(err, "creating database directory")
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, errors.Wrap(err, "opening bolt database")
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucketDocuments))
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, errors.Wrapf(err, "creating bucket %s", bucketDocuments)
	}
	return &Backend{db: db}, nil
}

// Open returns a docstore.Store backed by the bolt file at path.
func Open(path string) (*docstore.Store, error) {
	b, err := NewBackend(path)
	if err != nil {
		return nil, err
	}
	return docstore.New(b), nil
}

func (b *Backend) Read(_ context.Context, doc string) ([]byte, error) {
	var raw []byte
	err := b.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket([]byte(bucketDocuments)).Get([]byte(doc))
		if v == nil {
			return docstore.ErrNotExist
		}
		// v is only valid during the transaction
		raw = append([]byte(nil), v...)
		return nil
	})
	return raw, err
}

func (b *Backend) Commit(_ context.Context, batch map[string][]byte) error {
	return b.db.Update(func(tx *bolt.Tx) error {
		bkt := tx.Bucket([]byte(bucketDocuments))
		for doc, raw := range batch {
			if err := bkt.Put([]byte(doc), raw); err != nil {
				return errors.Wrapf(err, "putting %s", doc)
			}
		}
		return nil
	})
}

func (b *Backend) Close() error {
	return b.db.Close()
}
