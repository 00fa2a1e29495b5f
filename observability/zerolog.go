package observability

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// ZerologConfig configures the zerolog-backed Logger.
type ZerologConfig struct {
	Level   string
	Format  string // json or console
	Output  io.Writer
	Service string
}

type zerologLogger struct {
	zl zerolog.Logger
}

// NewZerolog builds a Logger writing through zerolog. Unknown levels fall back to info.
func NewZerolog(cfg ZerologConfig) Logger {
	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}
	if strings.EqualFold(cfg.Format, "console") {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil || cfg.Level == "" {
		level = zerolog.InfoLevel
	}
	ctx := zerolog.New(out).Level(level).With().Timestamp()
	if cfg.Service != "" {
		ctx = ctx.Str("service", cfg.Service)
	}
	return zerologLogger{zl: ctx.Logger()}
}

// FromZerolog wraps an existing zerolog logger.
func FromZerolog(zl zerolog.Logger) Logger { return zerologLogger{zl: zl} }

func (l zerologLogger) Debug(msg string, fields ...Field) { emit(l.zl.Debug(), msg, fields) }
func (l zerologLogger) Info(msg string, fields ...Field)  { emit(l.zl.Info(), msg, fields) }
func (l zerologLogger) Warn(msg string, fields ...Field)  { emit(l.zl.Warn(), msg, fields) }
func (l zerologLogger) Error(msg string, fields ...Field) { emit(l.zl.Error(), msg, fields) }

func (l zerologLogger) With(fields ...Field) Logger {
	ctx := l.zl.With()
	for _, f := range fields {
		switch v := f.Value().(type) {
		case string:
			ctx = ctx.Str(f.Key(), v)
		case int:
			ctx = ctx.Int(f.Key(), v)
		case int64:
			ctx = ctx.Int64(f.Key(), v)
		case bool:
			ctx = ctx.Bool(f.Key(), v)
		case time.Duration:
			ctx = ctx.Dur(f.Key(), v)
		case error:
			ctx = ctx.AnErr(f.Key(), v)
		default:
			ctx = ctx.Interface(f.Key(), v)
		}
	}
	return zerologLogger{zl: ctx.Logger()}
}

// emit tolerates a nil event, which zerolog returns for disabled levels.
func emit(evt *zerolog.Event, msg string, fields []Field) {
	if evt == nil {
		return
	}
	for _, f := range fields {
		switch v := f.Value().(type) {
		case string:
			evt = evt.Str(f.Key(), v)
		case int:
			evt = evt.Int(f.Key(), v)
		case int64:
			evt = evt.Int64(f.Key(), v)
		case bool:
			evt = evt.Bool(f.Key(), v)
		case time.Duration:
			evt = evt.Dur(f.Key(), v)
		case error:
			evt = evt.AnErr(f.Key(), v)
		default:
			evt = evt.Interface(f.Key(), v)
		}
	}
	evt.Msg(msg)
}
