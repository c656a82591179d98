package testutil

import (
	"context"
	"testing"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/kitabu/core"
	"github.com/trezcool/kitabu/storage/docstore"
	"github.com/trezcool/kitabu/storage/docstore/inmemdb"
)

// NewDB returns an empty in-memory document store, closed at the end of the test.
func NewDB(t *testing.T) *docstore.Store {
	t.Helper()
	db := inmemdb.Open()
	t.Cleanup(func() { _ = db.Close() })
	return db
}

// NewRawDB is NewDB also returning the backend, for tests planting raw documents.
func NewRawDB(t *testing.T) (*docstore.Store, *inmemdb.Backend) {
	t.Helper()
	backend := inmemdb.NewBackend()
	db := docstore.New(backend)
	t.Cleanup(func() { _ = db.Close() })
	return db, backend
}

// NewValidator returns a validator with the global validators and the given package validators registered.
func NewValidator(inits ...func(*validator.Validate, ut.Translator)) (*validator.Validate, ut.Translator) {
	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	for _, fn := range inits {
		fn(validate, translator)
	}
	return validate, translator
}

// PutDoc writes v as the content of doc.
func PutDoc(t *testing.T, db core.DB, doc string, v interface{}) {
	t.Helper()
	err := db.Update(context.Background(), []string{doc}, func(tx core.DocTx) error {
		return tx.Put(doc, v)
	})
	if err != nil {
		t.Fatalf("PutDoc(%s) failed: %v", doc, err)
	}
}

// GetDoc decodes the content of doc into v.
func GetDoc(t *testing.T, db core.DB, doc string, v interface{}) {
	t.Helper()
	err := db.View(context.Background(), []string{doc}, func(tx core.DocTx) error {
		return tx.Get(doc, v)
	})
	if err != nil {
		t.Fatalf("GetDoc(%s) failed: %v", doc, err)
	}
}
