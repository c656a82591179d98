package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/kitabu/core"
	"github.com/trezcool/kitabu/core/backup"
	"github.com/trezcool/kitabu/core/finance"
	logsvc "github.com/trezcool/kitabu/services/logger"
	"github.com/trezcool/kitabu/storage/database"
)

func main() {
	os.Exit(start())
}

func start() int {
	conf := core.NewConfig()

	logger, err := logsvc.NewRollbarLogger(conf)
	if err != nil {
		log.Fatalf("setting up logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	// set up DB
	db, err := database.Open(context.Background(), conf, logger)
	if err != nil {
		logger.Error("setting up database", err)
		return 1
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Error("closing database", err)
		}
	}()

	validate := validator.New()
	core.InitValidators(validate, core.NewTranslator())

	// start CLI
	cli := commandLine{
		rotator:    backup.NewRotator(db, conf.Backup.Dir, conf.Backup.Capacity, logger),
		financeSvc: finance.NewService(db),
		validate:   validate,
		out:        os.Stdout,
	}
	if err := cli.run(os.Args); err != nil {
		if err != errHelp {
			_, _ = fmt.Fprintf(os.Stderr, "\nerror: %s\n", err)
		}
		return 1
	}
	return 0
}
