// Package backup archives the documents into fixed-capacity retention buckets.
package backup

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/klauspost/compress/zip"
	"github.com/pkg/errors"

	"github.com/trezcool/kitabu/core"
)

type Bucket string

// Retention buckets
const (
	Daily   Bucket = "daily"
	Weekly  Bucket = "weekly"
	Monthly Bucket = "monthly"
)

var Buckets = []Bucket{Daily, Weekly, Monthly}

const (
	archiveExt     = ".zip"
	stampLayout    = "20060102-150405.000000"
	dirPerm        = 0o755
	archivePerm    = 0o644
	docEntrySuffix = ".json"
)

func ParseBucket(s string) (Bucket, error) {
	b := Bucket(core.CleanString(s, true /* lower */))
	for _, known := range Buckets {
		if b == known {
			return b, nil
		}
	}
	return "", core.NewValidationError(nil, core.FieldError{Field: "bucket", Error: "must be one of: daily, weekly, monthly"})
}

// Archive describes a backup file.
type Archive struct {
	Name    string
	Path    string
	Size    int64
	ModTime time.Time
}

// Rotator writes snapshot archives and keeps at most capacity archives per bucket.
type Rotator struct {
	db       core.DB
	dir      string
	capacity int
	logger   core.Logger

	nowFunc func() time.Time // mockable
	mu      sync.Mutex       // one rotation at a time
}

func NewRotator(db core.DB, dir string, capacity int, logger core.Logger) *Rotator {
	if capacity < 1 {
		capacity = 1
	}
	return &Rotator{db: db, dir: dir, capacity: capacity, logger: logger, nowFunc: time.Now}
}

func (r *Rotator) bucketDir(b Bucket) string {
	return filepath.Join(r.dir, string(b))
}

// Run archives a snapshot of every document into bucket and returns the archive path.
// The oldest archives are evicted first, while the bucket holds capacity archives or more.
func (r *Rotator) Run(ctx context.Context, b Bucket) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	snap, err := r.db.Snapshot(ctx)
	if err != nil {
		return "", errors.Wrap(err, "taking snapshot")
	}

	dir := r.bucketDir(b)
	if err = os.MkdirAll(dir, dirPerm); err != nil {
		return "", errors.Wrap(err, "creating bucket directory")
	}

	archives, err := r.List(b)
	if err != nil {
		return "", err
	}
	for len(archives) >= r.capacity {
		if err = os.Remove(archives[0].Path); err != nil && !os.IsNotExist(err) {
			return "", errors.Wrapf(err, "evicting %s", archives[0].Name)
		}
		r.logger.Info("backup evicted", map[string]interface{}{"bucket": b, "archive": archives[0].Name})
		archives = archives[1:]
	}

	now := r.nowFunc().UTC()
	path := filepath.Join(dir, string(b)+"-"+now.Format(stampLayout)+archiveExt)
	if err = writeArchive(path, snap, now); err != nil {
		return "", errors.Wrap(err, "writing archive")
	}
	r.logger.Info("backup written", map[string]interface{}{"bucket": b, "archive": filepath.Base(path)})
	return path, nil
}

// List returns the archives of bucket, oldest first.
func (r *Rotator) List(b Bucket) ([]Archive, error) {
	entries, err := os.ReadDir(r.bucketDir(b))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "listing bucket")
	}

	prefix := string(b) + "-"
	archives := make([]Archive, 0, len(entries))
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, prefix) || !strings.HasSuffix(name, archiveExt) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue // removed meanwhile
		}
		archives = append(archives, Archive{
			Name:    name,
			Path:    filepath.Join(r.bucketDir(b), name),
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
	}
	// timestamps are fixed width: name order is age order
	sort.Slice(archives, func(i, j int) bool { return archives[i].Name < archives[j].Name })
	return archives, nil
}

// writeArchive zips every document of snap as <doc>.json, through a temp file renamed over path.
func writeArchive(path string, snap map[string][]byte, modified time.Time) (err error) {
	f, err := os.CreateTemp(filepath.Dir(path), ".tmp-*"+archiveExt)
	if err != nil {
		return err
	}
	tmp := f.Name()
	defer func() {
		if err != nil {
			_ = f.Close()
			_ = os.Remove(tmp)
		}
	}()

	docs := make([]string, 0, len(snap))
	for doc := range snap {
		docs = append(docs, doc)
	}
	sort.Strings(docs)

	zw := zip.NewWriter(f)
	for _, doc := range docs {
		w, err := zw.CreateHeader(&zip.FileHeader{
			Name:     doc + docEntrySuffix,
			Method:   zip.Deflate,
			Modified: modified,
		})
		if err != nil {
			return err
		}
		if _, err = w.Write(snap[doc]); err != nil {
			return err
		}
	}
	if err = zw.Close(); err != nil {
		return err
	}
	if err = f.Sync(); err != nil {
		return err
	}
	if err = f.Close(); err != nil {
		return err
	}
	if err = os.Chmod(tmp, archivePerm); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
