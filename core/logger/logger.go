// Package logger defines the logging contract used by the dispatch machine,
// the service and the adapters. infra/logger provides the zerolog backend.
package logger

// Logger is what the state machine and the service log through. Debugw
// carries the fields of a stage transition or a timer callback.
type Logger interface {
	Debugf(format string, args ...any)
	// Debugw logs a message with structured fields.
	Debugw(msg string, fields map[string]any)
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
}

// NopLogger discards everything. A Machine logs to it unless WithLogger is given.
type NopLogger struct{}

func (NopLogger) Debugf(string, ...any)         {}
func (NopLogger) Debugw(string, map[string]any) {}
func (NopLogger) Infof(string, ...any)          {}
func (NopLogger) Warnf(string, ...any)          {}
func (NopLogger) Errorf(string, ...any)         {}
