package logsvc

import (
	"github.com/rollbar/rollbar-go"
	"github.com/rollbar/rollbar-go/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/trezcool/kitabu/core"
)

// RollbarLogger writes structured logs with zap and reports warnings and errors to Rollbar.
type RollbarLogger struct {
	zl      *zap.Logger
	rollbar bool
}

var _ core.Logger = (*RollbarLogger)(nil)

// NewRollbarLogger builds the zap logger from conf (console output in debug mode, JSON otherwise)
// and configures the Rollbar client. Rollbar reporting stays off until Enable(true).
func NewRollbarLogger(conf *core.Config) (*RollbarLogger, error) {
	zconf := zap.NewProductionConfig()
	if conf.Debug {
		zconf = zap.NewDevelopmentConfig()
		zconf.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	zl, err := zconf.Build(zap.AddCallerSkip(1), zap.Fields(zap.String("app", conf.AppName), zap.String("env", conf.Env)))
	if err != nil {
		return nil, err
	}
	return NewLogger(zl, conf), nil
}

// NewLogger wraps an existing zap logger.
func NewLogger(zl *zap.Logger, conf *core.Config) *RollbarLogger {
	rollbar.SetToken(conf.RollbarToken)
	rollbar.SetEnvironment(conf.Env)
	rollbar.SetServerHost(conf.Server.Host)
	rollbar.SetCodeVersion(conf.Build)
	rollbar.SetStackTracer(errors.StackTracer)
	rollbar.SetEnabled(false)
	return &RollbarLogger{zl: zl}
}

// NewNopLogger returns a logger that discards everything.
func NewNopLogger() *RollbarLogger {
	return &RollbarLogger{zl: zap.NewNop()}
}

func (l *RollbarLogger) Enable(enabled bool) {
	rollbar.SetEnabled(enabled)
	l.rollbar = enabled
}

// Sync flushes buffered logs and waits for pending Rollbar items.
func (l *RollbarLogger) Sync() error {
	if l.rollbar {
		rollbar.Wait()
	}
	return l.zl.Sync()
}

// expected args: error, map[string]interface{}, zap.Field, anything else is logged as is
func (l *RollbarLogger) prepare(msg string, args []interface{}) ([]zap.Field, []interface{}) {
	fields := make([]zap.Field, 0, len(args))
	items := make([]interface{}, 0, len(args)+1)
	items = append(items, msg)
	for _, arg := range args {
		switch a := arg.(type) {
		case nil:
		case zap.Field:
			fields = append(fields, a)
		case error:
			fields = append(fields, zap.Error(a))
			items = append(items, a)
		case map[string]interface{}:
			for k, v := range a {
				fields = append(fields, zap.Any(k, v))
			}
			items = append(items, a)
		default:
			fields = append(fields, zap.Any("arg", a))
		}
	}
	return fields, items
}

func (l *RollbarLogger) Debug(msg string, args ...interface{}) {
	fields, _ := l.prepare(msg, args)
	l.zl.Debug(msg, fields...)
}

func (l *RollbarLogger) Info(msg string, args ...interface{}) {
	fields, _ := l.prepare(msg, args)
	l.zl.Info(msg, fields...)
}

func (l *RollbarLogger) Warn(msg string, args ...interface{}) {
	fields, items := l.prepare(msg, args)
	if l.rollbar {
		rollbar.Warning(items...)
	}
	l.zl.Warn(msg, fields...)
}

func (l *RollbarLogger) Error(msg string, args ...interface{}) {
	fields, items := l.prepare(msg, args)
	if l.rollbar {
		rollbar.Error(items...)
	}
	l.zl.Error(msg, fields...)
}

func (l *RollbarLogger) Fatal(msg string, args ...interface{}) {
	fields, items := l.prepare(msg, args)
	if l.rollbar {
		rollbar.Critical(items...)
		rollbar.Wait()
	}
	l.zl.Fatal(msg, fields...)
}
