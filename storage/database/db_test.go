package database

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/kitabu/core"
	logsvc "github.com/trezcool/kitabu/services/logger"
)

func TestOpen(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name    string
		conf    core.DatabaseConfig
		wantErr bool
	}{
		{name: "memory", conf: core.DatabaseConfig{Engine: core.EngineMemory}},
		{name: "file", conf: core.DatabaseConfig{Engine: core.EngineFile, Dir: filepath.Join(dir, "docs")}},
		{name: "bolt", conf: core.DatabaseConfig{Engine: core.EngineBolt, Path: filepath.Join(dir, "kitabu.db")}},
		{name: "sqlite", conf: core.DatabaseConfig{Engine: core.EngineSQL, Driver: "sqlite", DSN: filepath.Join(dir, "kitabu.sqlite")}},
		{name: "unknown", conf: core.DatabaseConfig{Engine: "mongo"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, err := Open(context.Background(), &core.Config{Database: tt.conf}, logsvc.NewNopLogger())
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			defer db.Close()

			ctx := context.Background()
			err = db.Update(ctx, []string{core.DocCounters}, func(tx core.DocTx) error {
				return tx.Put(core.DocCounters, map[string]float64{"donatedRemoved": 1})
			})
			require.NoError(t, err)
			snap, err := db.Snapshot(ctx)
			require.NoError(t, err)
			assert.JSONEq(t, `{"donatedRemoved": 1}`, string(snap[core.DocCounters]))
		})
	}
}
