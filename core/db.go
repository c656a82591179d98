package core

import "context"

// Logical documents. Each one is stored and rewritten as a whole.
const (
	DocMembers    = "members"
	DocAttendance = "attendance"
	DocDonations  = "donations"
	DocExpenses   = "expenses"
	DocCounters   = "additional"
)

// AllDocs lists every logical document, sorted.
var AllDocs = []string{DocCounters, DocAttendance, DocDonations, DocExpenses, DocMembers}

type (
	// DocTx gives access to the documents a View or Update call was opened on.
	DocTx interface {
		// Get decodes the named document into v.
		// A document that was never written leaves v untouched and returns nil.
		// A document that cannot be decoded returns a *CorruptStoreError.
		Get(doc string, v interface{}) error

		// Put stages v as the new content of the named document.
		// Staged documents are committed together once the Update callback returns nil.
		Put(doc string, v interface{}) error
	}

	// DB is a set of JSON documents with per-document locking.
	DB interface {
		// View runs fn with read locks held on docs.
		View(ctx context.Context, docs []string, fn func(tx DocTx) error) error

		// Update runs fn with write locks held on docs and commits every Put atomically.
		Update(ctx context.Context, docs []string, fn func(tx DocTx) error) error

		// Snapshot returns the raw content of every existing document, read under a single set of read locks.
		Snapshot(ctx context.Context) (map[string][]byte, error)

		Close() error
	}
)
