// Package log provides the logging abstraction used by xferbench components.
//
// It defines a small Logger interface with typed field constructors. A
// zerolog-backed adapter is the default for the CLI; the no-op logger is
// the default for library use and tests.
package log
