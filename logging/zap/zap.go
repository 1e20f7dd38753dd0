// Package zap adapts go.uber.org/zap's SugaredLogger to the tiercache.Logger
// contract.
package zap

import (
	"go.uber.org/zap"

	"github.com/tiercache/tiercache"
)

// Logger wraps a zap.SugaredLogger.
type Logger struct {
	s *zap.SugaredLogger
}

// New wraps an existing *zap.Logger, naming the component for every log
// line it produces.
func New(base *zap.Logger, component string) *Logger {
	return &Logger{s: base.Sugar().Named(component)}
}

// Factory returns a tiercache.LoggerFactory backed by base, one named
// SugaredLogger per component.
func Factory(base *zap.Logger) tiercache.LoggerFactory {
	return func(component string) tiercache.Logger {
		return New(base, component)
	}
}

func (l *Logger) Debugf(format string, args ...interface{}) { l.s.Debugf(format, args...) }
func (l *Logger) Infof(format string, args ...interface{})  { l.s.Infof(format, args...) }
func (l *Logger) Warnf(format string, args ...interface{})  { l.s.Warnf(format, args...) }
func (l *Logger) Errorf(format string, args ...interface{}) { l.s.Errorf(format, args...) }
