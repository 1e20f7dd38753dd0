package tiercache

// Logger is a write-only observer: the core never reads a logger back,
// it only emits to one. A concrete sink
// (structured, sampling, buffered) is a construction-time plug-in; see the
// logging/zap subpackage for a go.uber.org/zap-backed implementation.
type Logger interface {
	Debugf(format string, args ...interface{})
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
}

// NopLogger discards everything. It is the manager's default when no
// LoggerFactory is configured.
type NopLogger struct{}

func (NopLogger) Debugf(string, ...interface{}) {}
func (NopLogger) Infof(string, ...interface{})  {}
func (NopLogger) Warnf(string, ...interface{})  {}
func (NopLogger) Errorf(string, ...interface{}) {}

// LoggerFactory builds a Logger for a named component (a handle name, the
// backplane, or "manager"), so a concrete factory can namespace output,
// e.g. by attaching a "component" field.
type LoggerFactory func(component string) Logger
