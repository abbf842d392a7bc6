package mp3

import (
	"io"

	charmlog "github.com/charmbracelet/log"
)

// logger wraps charmbracelet/log so the encoder can log structured
// granule/frame diagnostics without forcing a logger on every caller.
// logDebug/logWarn skip a nil *logger; newLogger returns a usable,
// silenced instance for DefaultConfig.
type logger struct {
	*charmlog.Logger
}

// newLogger builds a logger that writes to io.Discard, so its output is
// dropped at any level (spec.md 10's "default to a disabled logger");
// NewLoggerTo builds one that writes somewhere.
func newLogger() *logger {
	l := charmlog.NewWithOptions(io.Discard, charmlog.Options{
		Prefix: "lamego",
	})
	l.SetLevel(charmlog.FatalLevel)
	return &logger{l}
}

// NewLoggerTo builds a logger writing to w at the given level -- the shape
// a caller like the CLI uses to wire stdout/stderr through a --debug flag
// into WithLogger (spec.md 10).
func NewLoggerTo(w io.Writer, level charmlog.Level) *logger {
	l := charmlog.NewWithOptions(w, charmlog.Options{
		Prefix: "lamego",
	})
	l.SetLevel(level)
	return &logger{l}
}

func (enc *Encoder) logDebug(msg string, kv ...interface{}) {
	if enc.Config.Logger == nil {
		return
	}
	enc.Config.Logger.Debug(msg, kv...)
}

func (enc *Encoder) logWarn(msg string, kv ...interface{}) {
	if enc.Config.Logger == nil {
		return
	}
	enc.Config.Logger.Warn(msg, kv...)
}
