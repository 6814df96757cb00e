// Package internal contains internal implementation details shared by
// netsim's tests and command-line tools.
package internal

// NullLogger is a logger that does not emit logs. It satisfies
// netsim.Logger structurally; it deliberately does not import netsim to
// assert that, since netsim's own in-package tests depend on this
// package.
type NullLogger struct{}

// Debug implements netsim.Logger
func (nl *NullLogger) Debug(message string) {
	// nothing
}

// Debugf implements netsim.Logger
func (nl *NullLogger) Debugf(format string, v ...any) {
	// nothing
}

// Info implements netsim.Logger
func (nl *NullLogger) Info(message string) {
	// nothing
}

// Infof implements netsim.Logger
func (nl *NullLogger) Infof(format string, v ...any) {
	// nothing
}

// Warn implements netsim.Logger
func (nl *NullLogger) Warn(message string) {
	// nothing
}

// Warnf implements netsim.Logger
func (nl *NullLogger) Warnf(format string, v ...any) {
	// nothing
}
