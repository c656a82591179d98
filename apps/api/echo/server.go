package echoapi

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	"github.com/trezcool/kitabu/core"
	"github.com/trezcool/kitabu/core/attendance"
	"github.com/trezcool/kitabu/core/donation"
	"github.com/trezcool/kitabu/core/expense"
	"github.com/trezcool/kitabu/core/finance"
	"github.com/trezcool/kitabu/core/member"
)

type (
	// ServerDeps holds everything the API needs.
	ServerDeps struct {
		Conf       *core.Config
		Logger     core.Logger
		Validate   *validator.Validate
		Translator ut.Translator

		MemberSvc     *member.Service
		AttendanceSvc *attendance.Service
		DonationSvc   *donation.Service
		ExpenseSvc    *expense.Service
		FinanceSvc    *finance.Service
		Images        ImageStore // optional: photo uploads are rejected when nil
	}

	Server struct {
		conf     *core.Config
		logger   core.Logger
		app      *echo.Echo
		shutdown chan os.Signal
		errors   chan error
	}
)

func NewServer(deps ServerDeps) *Server {
	s := &Server{
		conf:     deps.Conf,
		logger:   deps.Logger,
		app:      echo.New(),
		shutdown: make(chan os.Signal, 1),
		errors:   make(chan error, 1),
	}
	s.setup(deps)
	return s
}

func (s *Server) setup(deps ServerDeps) {
	conf := s.conf

	s.app.HideBanner = true
	s.app.HidePort = true
	s.app.Debug = conf.Debug
	s.app.Logger.SetLevel(log.OFF)
	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.logger, deps.Translator, s.signalShutdown)

	s.app.Pre(middleware.RemoveTrailingSlash())
	if !conf.Server.DisableReqLogs {
		s.app.Use(requestLogger(s.logger))
	}
	// do not recover in DEV|TEST mode
	if !(conf.Debug || conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}
	s.app.Use(middleware.CORSWithConfig(middleware.CORSConfig{AllowOrigins: conf.Server.AllowOrigins}))
	if conf.Server.BodyLimit != "" {
		s.app.Use(middleware.BodyLimit(conf.Server.BodyLimit))
	}

	if deps.Images != nil {
		s.app.Static(deps.Images.URLPrefix(), deps.Images.Dir())
	}
	s.app.GET("/", s.home)
	s.app.GET("/health", s.health)

	v1 := s.app.Group("/v1")
	registerMemberAPI(v1, deps.MemberSvc, deps.Images, deps.Validate)
	registerAttendanceAPI(v1, deps.AttendanceSvc, deps.Validate)
	registerDonationAPI(v1, deps.DonationSvc, deps.Validate)
	registerExpenseAPI(v1, deps.ExpenseSvc, deps.Validate)
	registerSummaryAPI(v1, deps.FinanceSvc, deps.Validate)
}

// Start listens on the configured host until Shutdown or Close.
// Listener errors are reported on Errors, interrupts on ShutdownSignal.
func (s *Server) Start() {
	signal.Notify(s.shutdown, os.Interrupt, syscall.SIGTERM)

	s.logger.Info("API listening", map[string]interface{}{"host": s.conf.Server.Host})
	if err := s.app.Start(s.conf.Server.Host); err != nil && err != http.ErrServerClosed {
		s.errors <- err
	}
}

func (s *Server) Errors() <-chan error {
	return s.errors
}

func (s *Server) ShutdownSignal() <-chan os.Signal {
	return s.shutdown
}

func (s *Server) signalShutdown() {
	select {
	case s.shutdown <- syscall.SIGTERM:
	default: // already signaled
	}
}

func (s *Server) Shutdown(ctx context.Context) error {
	signal.Stop(s.shutdown)
	return s.app.Shutdown(ctx)
}

func (s *Server) Close() error {
	return s.app.Close()
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func (s *Server) home(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Welcome to "+s.conf.AppName+" API!")
}

func (s *Server) health(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, echo.Map{"status": "ok", "build": s.conf.Build})
}
