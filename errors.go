package tiercache

import (
	"errors"

	pkgerrors "github.com/pkg/errors"
)

// Sentinel errors. Not-found style outcomes (a missing key, an absent
// region) are communicated through return values, not errors; these
// sentinels cover configuration errors, argument errors, and
// disposal-after-dispose.
var (
	// ErrNoHandles is a configuration error: a manager needs at least one handle.
	ErrNoHandles = errors.New("tiercache: manager configuration must declare at least one handle")
	// ErrBackplaneNeedsSource is a configuration error: a backplane requires
	// at least one handle marked as the backplane source.
	ErrBackplaneNeedsSource = errors.New("tiercache: a backplane requires at least one handle with isBackplaneSource=true")
	// ErrDuplicateHandleName is a configuration error.
	ErrDuplicateHandleName = errors.New("tiercache: handle names must be unique within a manager")
	// ErrExpirationTimeoutRequired is a configuration error: Absolute/Sliding
	// modes require a positive timeout.
	ErrExpirationTimeoutRequired = errors.New("tiercache: expiration timeout must be > 0 for Absolute or Sliding mode")
	// ErrEmptyKey is an argument error.
	ErrEmptyKey = errors.New("tiercache: key must not be empty")
	// ErrNilUpdateFunc is an argument error.
	ErrNilUpdateFunc = errors.New("tiercache: update function must not be nil")
	// ErrManagerDisposed is returned by every operation once Dispose has run.
	ErrManagerDisposed = errors.New("tiercache: manager has been disposed")
	// ErrHandleDisposed is returned by a Handle once its Dispose has run.
	ErrHandleDisposed = errors.New("tiercache: handle has been disposed")
)

// configError wraps a construction-time failure with a stack trace via
// pkg/errors — these are raised at construction and are not recoverable,
// so callers get a trace pointing at the offending configuration rather
// than just a flat string.
func configError(cause error, context string) error {
	return pkgerrors.Wrap(cause, context)
}

// ConfigurationError reports the offending component type and the
// dependency the factory could not satisfy for it.
type ConfigurationError struct {
	Component string
	Missing   string
	Cause     error
}

func (e *ConfigurationError) Error() string {
	msg := "tiercache: cannot construct " + e.Component
	if e.Missing != "" {
		msg += ": missing dependency " + e.Missing
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *ConfigurationError) Unwrap() error { return e.Cause }

// NewConfigurationError builds a ConfigurationError and attaches a stack
// trace via pkg/errors so factory failures are diagnosable in logs.
func NewConfigurationError(component, missing string, cause error) error {
	return pkgerrors.WithStack(&ConfigurationError{Component: component, Missing: missing, Cause: cause})
}
