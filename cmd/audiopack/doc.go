// Package main hosts the audiopack CLI entrypoint and command graph.
//
// The Cobra command tree resolves configuration once (config file, .env,
// then explicitly set flags), builds the structured logger, and hands off to
// the internal packages: build for discovery, remediation and encoding,
// cache and journal for inspection, publish and watch for the long running
// and outward facing modes. Add behaviour to the internal packages first and
// surface it here through a command or flag.
package main
