package core

import (
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

// Storage engines.
const (
	EngineFile   = "file"
	EngineBolt   = "bolt"
	EngineSQL    = "sql"
	EngineMemory = "memory"
)

type (
	ServerConfig struct {
		Host            string
		DebugHost       string
		ShutdownTimeout time.Duration
		AllowOrigins    []string
		BodyLimit       string
		DisableReqLogs  bool
	}

	DatabaseConfig struct {
		Engine string // file | bolt | sql | memory
		Dir    string // file engine
		Path   string // bolt engine
		Driver string // sql engine: postgres | sqlite
		DSN    string // sql engine
	}

	UploadsConfig struct {
		Dir       string
		URLPrefix string
		MaxWidth  int
		MaxHeight int
	}

	BackupConfig struct {
		Dir      string
		Capacity int
		Daily    string // cron specs
		Weekly   string
		Monthly  string
		Timezone string
		Disabled bool
	}

	Config struct {
		AppName      string
		Env          string
		Build        string
		Debug        bool
		TestMode     bool
		WorkDir      string
		RollbarToken string

		Server   ServerConfig
		Database DatabaseConfig
		Uploads  UploadsConfig
		Backup   BackupConfig
	}
)

// NewConfig loads the configuration and dies on failure.
func NewConfig() *Config {
	conf, err := LoadConfig()
	if err != nil {
		log.Fatalf("config.LoadConfig(): %v", err)
	}
	return conf
}

// LoadConfig reads defaults, config/config.yaml, config/.env.<env> and the environment, in increasing priority.
// Environment variables are prefixed by the env name, e.g. DEV_SERVER_HOST.
func LoadConfig() (*Config, error) {
	v := viper.New()
	v.SetTypeByDefaultValue(true)

	wd, err := os.Getwd()
	if err != nil {
		return nil, errors.Wrap(err, "getting working directory")
	}

	// defaults
	v.SetDefault("appName", "Kitabu")
	v.SetDefault("debug", true)
	v.SetDefault("testMode", false)
	v.SetDefault("build", "develop")
	v.SetDefault("workDir", wd)
	v.SetDefault("rollbarToken", "")

	v.SetDefault("server.host", ":8000")
	v.SetDefault("server.debugHost", ":4000")
	v.SetDefault("server.shutdownTimeout", 5*time.Second)
	v.SetDefault("server.allowOrigins", []string{"http://localhost:3000"})
	v.SetDefault("server.bodyLimit", "10M")
	v.SetDefault("server.disableReqLogs", false)

	v.SetDefault("database.engine", EngineFile)
	v.SetDefault("database.dir", "data")
	v.SetDefault("database.path", "data/kitabu.db")
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", "data/kitabu.sqlite")

	v.SetDefault("uploads.dir", "uploads")
	v.SetDefault("uploads.urlPrefix", "/uploads")
	v.SetDefault("uploads.maxWidth", 800)
	v.SetDefault("uploads.maxHeight", 800)

	v.SetDefault("backup.dir", "backups")
	v.SetDefault("backup.capacity", 5)
	v.SetDefault("backup.daily", "0 0 * * *")
	v.SetDefault("backup.weekly", "0 0 * * 0")
	v.SetDefault("backup.monthly", "0 0 1 * *")
	v.SetDefault("backup.timezone", "UTC")
	v.SetDefault("backup.disabled", false)

	env := strings.ToUpper(os.Getenv("ENV")) // DEV (local; default), TEST, QA, PROD
	switch env {
	case "":
		env = "DEV"
	case "TEST":
		v.SetDefault("testMode", true)
	}
	v.SetEnvPrefix(env)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join(wd, "config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			return nil, errors.Wrapf(err, "loading %s", dotEnvPath)
		}
	} else if !os.IsNotExist(err) {
		return nil, errors.Wrapf(err, "checking %s", dotEnvPath)
	}

	// optional config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(filepath.Join(wd, "config"))
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, errors.Wrap(err, "reading config file")
		}
	}
	v.AutomaticEnv()

	conf := &Config{
		AppName:      v.GetString("appName"),
		Env:          env,
		Build:        v.GetString("build"),
		Debug:        v.GetBool("debug"),
		TestMode:     v.GetBool("testMode"),
		WorkDir:      v.GetString("workDir"),
		RollbarToken: v.GetString("rollbarToken"),
		Server: ServerConfig{
			Host:            v.GetString("server.host"),
			DebugHost:       v.GetString("server.debugHost"),
			ShutdownTimeout: v.GetDuration("server.shutdownTimeout"),
			AllowOrigins:    v.GetStringSlice("server.allowOrigins"),
			BodyLimit:       v.GetString("server.bodyLimit"),
			DisableReqLogs:  v.GetBool("server.disableReqLogs"),
		},
		Database: DatabaseConfig{
			Engine: strings.ToLower(v.GetString("database.engine")),
			Dir:    v.GetString("database.dir"),
			Path:   v.GetString("database.path"),
			Driver: strings.ToLower(v.GetString("database.driver")),
			DSN:    v.GetString("database.dsn"),
		},
		Uploads: UploadsConfig{
			Dir:       v.GetString("uploads.dir"),
			URLPrefix: v.GetString("uploads.urlPrefix"),
			MaxWidth:  v.GetInt("uploads.maxWidth"),
			MaxHeight: v.GetInt("uploads.maxHeight"),
		},
		Backup: BackupConfig{
			Dir:      v.GetString("backup.dir"),
			Capacity: v.GetInt("backup.capacity"),
			Daily:    v.GetString("backup.daily"),
			Weekly:   v.GetString("backup.weekly"),
			Monthly:  v.GetString("backup.monthly"),
			Timezone: v.GetString("backup.timezone"),
			Disabled: v.GetBool("backup.disabled"),
		},
	}
	conf.resolvePaths()

	if err := conf.Validate(); err != nil {
		return nil, err
	}
	return conf, nil
}

// resolvePaths makes relative paths relative to WorkDir.
func (c *Config) resolvePaths() {
	abs := func(p string) string {
		if p == "" || filepath.IsAbs(p) {
			return p
		}
		return filepath.Join(c.WorkDir, p)
	}
	c.Database.Dir = abs(c.Database.Dir)
	c.Database.Path = abs(c.Database.Path)
	if c.Database.Driver == "sqlite" {
		c.Database.DSN = abs(c.Database.DSN)
	}
	c.Uploads.Dir = abs(c.Uploads.Dir)
	c.Backup.Dir = abs(c.Backup.Dir)
}

func (c *Config) Validate() error {
	switch c.Database.Engine {
	case EngineFile:
		if c.Database.Dir == "" {
			return errors.New("config: database.dir is required for the file engine")
		}
	case EngineBolt:
		if c.Database.Path == "" {
			return errors.New("config: database.path is required for the bolt engine")
		}
	case EngineSQL:
		if c.Database.Driver != "postgres" && c.Database.Driver != "sqlite" {
			return errors.Errorf("config: unsupported database.driver %q", c.Database.Driver)
		}
		if c.Database.DSN == "" {
			return errors.New("config: database.dsn is required for the sql engine")
		}
	case EngineMemory:
	default:
		return errors.Errorf("config: unsupported database.engine %q", c.Database.Engine)
	}

	if c.Backup.Capacity < 1 {
		return errors.New("config: backup.capacity must be at least 1")
	}
	if _, err := time.LoadLocation(c.Backup.Timezone); err != nil {
		return errors.Wrap(err, "config: backup.timezone")
	}
	if c.Uploads.Dir == "" {
		return errors.New("config: uploads.dir is required")
	}
	return nil
}
