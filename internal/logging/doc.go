// Package logging builds the structured slog loggers used by audiopack.
//
// A logger is always constructed explicitly by the CLI and handed down to the
// build engine; nothing in the module reaches for a global. Console output is
// human oriented (optionally colored when attached to a terminal), while the
// optional log file receives JSON records through a size-rotated sink.
//
// The package also carries the standardized field names, component loggers,
// a no-op logger for tests, and the phase Timer used to report how long
// discovery, encoding and persistence took.
package logging
