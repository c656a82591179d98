package database

import (
	"context"

	"github.com/pkg/errors"

	"github.com/trezcool/kitabu/core"
	"github.com/trezcool/kitabu/storage/docstore"
	"github.com/trezcool/kitabu/storage/docstore/boltdb"
	"github.com/trezcool/kitabu/storage/docstore/filedb"
	"github.com/trezcool/kitabu/storage/docstore/inmemdb"
	"github.com/trezcool/kitabu/storage/docstore/sqldb"
)

// Open opens the document database selected by conf.Database.Engine.
func Open(ctx context.Context, conf *core.Config, logger core.Logger) (core.DB, error) {
	var (
		db  *docstore.Store
		err error
	)
	switch conf.Database.Engine {
	case core.EngineFile:
		db, err = filedb.Open(conf.Database.Dir, logger)
	case core.EngineBolt:
		db, err = boltdb.Open(conf.Database.Path)
	case core.EngineSQL:
		db, err = sqldb.Open(ctx, conf.Database.Driver, conf.Database.DSN)
	case core.EngineMemory:
		logger.Warn("using the in-memory database: nothing will be persisted")
		db = inmemdb.Open()
	default:
		return nil, errors.Errorf("unsupported database engine %q", conf.Database.Engine)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "opening %s database", conf.Database.Engine)
	}
	return db, nil
}
