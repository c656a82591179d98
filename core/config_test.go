package core

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	wd := t.TempDir()
	chdir(t, wd)
	t.Setenv("ENV", "")

	conf, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "DEV", conf.Env)
	assert.Equal(t, "Kitabu", conf.AppName)
	assert.True(t, conf.Debug)
	assert.False(t, conf.TestMode)
	assert.Equal(t, ":8000", conf.Server.Host)
	assert.Equal(t, 5*time.Second, conf.Server.ShutdownTimeout)
	assert.Equal(t, EngineFile, conf.Database.Engine)
	assert.Equal(t, filepath.Join(wd, "data"), conf.Database.Dir)
	assert.Equal(t, filepath.Join(wd, "uploads"), conf.Uploads.Dir)
	assert.Equal(t, 5, conf.Backup.Capacity)
	assert.Equal(t, "0 0 * * *", conf.Backup.Daily)
}

func TestLoadConfig_Overrides(t *testing.T) {
	wd := t.TempDir()
	chdir(t, wd)
	t.Setenv("ENV", "test")
	t.Setenv("TEST_SERVER_HOST", ":9000")
	t.Setenv("TEST_BACKUP_CAPACITY", "2")
	t.Cleanup(func() { _ = os.Unsetenv("TEST_BUILD") })

	require.NoError(t, os.MkdirAll(filepath.Join(wd, "config"), 0o755))
	yaml := "server:\n  host: ':7000'\n  bodyLimit: 2M\ndatabase:\n  engine: SQL\n  driver: sqlite\n  dsn: db/kitabu.sqlite\n"
	require.NoError(t, os.WriteFile(filepath.Join(wd, "config", "config.yaml"), []byte(yaml), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(wd, "config", ".env.test"), []byte("TEST_BUILD=abc123\n"), 0o644))

	conf, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "TEST", conf.Env)
	assert.True(t, conf.TestMode)
	assert.Equal(t, "abc123", conf.Build)
	assert.Equal(t, ":9000", conf.Server.Host) // env beats file
	assert.Equal(t, "2M", conf.Server.BodyLimit)
	assert.Equal(t, EngineSQL, conf.Database.Engine)
	assert.Equal(t, filepath.Join(wd, "db", "kitabu.sqlite"), conf.Database.DSN)
	assert.Equal(t, 2, conf.Backup.Capacity)
}

func TestConfig_Validate(t *testing.T) {
	valid := func() Config {
		return Config{
			Database: DatabaseConfig{Engine: EngineMemory},
			Uploads:  UploadsConfig{Dir: "uploads"},
			Backup:   BackupConfig{Capacity: 1, Timezone: "UTC"},
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "unknown engine", mutate: func(c *Config) { c.Database.Engine = "mongo" }, wantErr: `config: unsupported database.engine "mongo"`},
		{name: "file without dir", mutate: func(c *Config) { c.Database.Engine = EngineFile }, wantErr: "config: database.dir is required for the file engine"},
		{name: "bolt without path", mutate: func(c *Config) { c.Database.Engine = EngineBolt }, wantErr: "config: database.path is required for the bolt engine"},
		{
			name:    "unknown driver",
			mutate:  func(c *Config) { c.Database = DatabaseConfig{Engine: EngineSQL, Driver: "mysql", DSN: "x"} },
			wantErr: `config: unsupported database.driver "mysql"`,
		},
		{
			name:    "sql without dsn",
			mutate:  func(c *Config) { c.Database = DatabaseConfig{Engine: EngineSQL, Driver: "postgres"} },
			wantErr: "config: database.dsn is required for the sql engine",
		},
		{name: "no capacity", mutate: func(c *Config) { c.Backup.Capacity = 0 }, wantErr: "config: backup.capacity must be at least 1"},
		{name: "no uploads dir", mutate: func(c *Config) { c.Uploads.Dir = "" }, wantErr: "config: uploads.dir is required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(&c)
			err := c.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.EqualError(t, err, tt.wantErr)
		})
	}
}

// chdir changes the working directory for the duration of the test
// (equivalent of testing.T.Chdir, which needs Go 1.24).
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(prev) })
}
