package main

import (
	"context"
	"expvar"
	"log"
	"net/http"
	_ "net/http/pprof"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	echoapi "github.com/trezcool/kitabu/apps/api/echo"
	"github.com/trezcool/kitabu/core"
	"github.com/trezcool/kitabu/core/attendance"
	"github.com/trezcool/kitabu/core/backup"
	"github.com/trezcool/kitabu/core/donation"
	"github.com/trezcool/kitabu/core/expense"
	"github.com/trezcool/kitabu/core/finance"
	"github.com/trezcool/kitabu/core/member"
	imagesvc "github.com/trezcool/kitabu/services/images"
	logsvc "github.com/trezcool/kitabu/services/logger"
	"github.com/trezcool/kitabu/storage/database"
)

func main() {
	conf := core.NewConfig()

	logger, err := logsvc.NewRollbarLogger(conf)
	if err != nil {
		log.Fatalf("setting up logger: %v", err)
	}
	logger.Enable(!(conf.Debug || conf.TestMode) && conf.RollbarToken != "")
	defer func() { _ = logger.Sync() }()

	if err = run(conf, logger); err != nil {
		logger.Fatal("application failed", err)
	}
}

func run(conf *core.Config, logger core.Logger) error {
	// =========================================================================
	// Set up Dependencies

	db, err := database.Open(context.Background(), conf, logger)
	if err != nil {
		return errors.Wrap(err, "setting up database")
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Error("closing database", err)
		}
	}()

	images, err := imagesvc.NewService(conf.Uploads)
	if err != nil {
		return errors.Wrap(err, "setting up image storage")
	}

	memberSvc := member.NewService(db, images, logger)
	attendanceSvc := attendance.NewService(db)
	donationSvc := donation.NewService(db)
	expenseSvc := expense.NewService(db)
	financeSvc := finance.NewService(db)

	// =========================================================================
	// Initialize App

	logger.Info("application initializing", map[string]interface{}{"build": conf.Build, "engine": conf.Database.Engine})
	defer logger.Info("application stopped")

	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	donation.InitValidators(validate, translator)

	// =========================================================================
	// Start Debug Service
	//
	// /debug/pprof - Added to the default mux by importing the net/http/pprof package.
	// /debug/vars - Added to the default mux by importing the expvar package.

	expvar.NewString("build").Set(conf.Build)
	expvar.NewString("env").Set(conf.Env)
	expvar.NewString("engine").Set(conf.Database.Engine)

	debugSrv := &http.Server{Addr: conf.Server.DebugHost, Handler: http.DefaultServeMux}

	// =========================================================================
	// Start Backup Scheduler

	var scheduler *backup.Scheduler
	if !conf.Backup.Disabled {
		rotator := backup.NewRotator(db, conf.Backup.Dir, conf.Backup.Capacity, logger)
		if scheduler, err = backup.NewSchedulerFromConfig(rotator, conf.Backup, logger); err != nil {
			return errors.Wrap(err, "setting up backup scheduler")
		}
		scheduler.Start()
	}

	// =========================================================================
	// Start API Service

	server := echoapi.NewServer(
		echoapi.ServerDeps{
			Conf:          conf,
			Logger:        logger,
			Validate:      validate,
			Translator:    translator,
			MemberSvc:     memberSvc,
			AttendanceSvc: attendanceSvc,
			DonationSvc:   donationSvc,
			ExpenseSvc:    expenseSvc,
			FinanceSvc:    financeSvc,
			Images:        images,
		},
	)

	var g errgroup.Group
	g.Go(func() error {
		if err := debugSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("debug server closed", err)
		}
		return nil
	})
	g.Go(func() error {
		server.Start()
		return nil
	})

	// =========================================================================
	// Shutdown

	g.Go(func() error {
		var srvErr error
		select {
		case srvErr = <-server.Errors():
			logger.Error("server error", srvErr)
		case sig := <-server.ShutdownSignal():
			logger.Info("start shutdown", map[string]interface{}{"signal": sig.String()})
		}

		// give outstanding requests a deadline for completion
		ctx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
		defer cancel()

		// asking listener to shutdown and shed load
		if err := server.Shutdown(ctx); err != nil {
			logger.Error("could not stop server gracefully", err)
			if err = server.Close(); err != nil {
				logger.Error("could not force stop server", err)
			}
		}
		if err := debugSrv.Shutdown(ctx); err != nil {
			logger.Error("could not stop debug server", err)
		}
		if scheduler != nil {
			if err := scheduler.Stop(ctx); err != nil {
				logger.Error("could not stop backup scheduler", err)
			}
		}
		return errors.Wrap(srvErr, "serving API")
	})

	return g.Wait()
}
