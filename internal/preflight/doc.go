// Package preflight provides readiness checks for the binaries and
// filesystem paths audiopack depends on.
//
// The doctor command renders every result; the build command runs the same
// directory checks before taking the cache lock so permission problems
// surface before any discovery work.
package preflight
