package logsvc

import (
	"fmt"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/trezcool/suara/core"
	"github.com/trezcool/suara/core/learner"
)

// ZapLogger is a core.Logger over a zap.SugaredLogger.
type ZapLogger struct {
	sugar *zap.SugaredLogger
}

var _ core.Logger = (*ZapLogger)(nil)

// NewSugaredLogger returns a development logger when verbose, a production one otherwise.
func NewSugaredLogger(verbose bool) (*zap.SugaredLogger, error) {
	if verbose {
		l, err := zap.NewDevelopment()
		if err != nil {
			return nil, errors.Wrap(err, "failed to create development logger")
		}
		return l.Sugar(), nil
	}

	l, err := zap.NewProduction()
	if err != nil {
		return nil, errors.Wrap(err, "failed to create production logger")
	}
	return l.Sugar(), nil
}

func NewZapLogger(sugar *zap.SugaredLogger) *ZapLogger {
	return &ZapLogger{sugar: sugar}
}

func (l *ZapLogger) Sync() error {
	return l.sugar.Sync()
}

// keysAndValues turns loosely typed args into structured fields:
// errors under "error", a learner under "learner", anything else under "argN".
func (l *ZapLogger) keysAndValues(args []interface{}) []interface{} {
	kv := make([]interface{}, 0, 2*len(args))
	for i, arg := range args {
		switch a := arg.(type) {
		case error:
			kv = append(kv, zap.Error(a))
		case learner.Learner:
			kv = append(kv, "learner", map[string]string{"id": a.ID, "email": a.Email, "region": a.Region})
		default:
			kv = append(kv, fmt.Sprintf("arg%d", i), a)
		}
	}
	return kv
}

func (l *ZapLogger) Debug(msg string, args ...interface{}) {
	l.sugar.Debugw(msg, l.keysAndValues(args)...)
}

func (l *ZapLogger) Info(msg string, args ...interface{}) {
	l.sugar.Infow(msg, l.keysAndValues(args)...)
}

func (l *ZapLogger) Warn(msg string, args ...interface{}) {
	l.sugar.Warnw(msg, l.keysAndValues(args)...)
}

func (l *ZapLogger) Error(msg string, args ...interface{}) {
	l.sugar.Errorw(msg, l.keysAndValues(args)...)
}

func (l *ZapLogger) Fatal(msg string, args ...interface{}) {
	l.sugar.Fatalw(msg, l.keysAndValues(args)...)
}
