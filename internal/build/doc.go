// Package build runs one complete audiopack build: discovery with cache
// reuse, the confirm-and-remediate loop for repairable sources, parallel
// encoding of whatever is missing, and the final cache and atlas writes.
//
// Orchestrator.Run is the only entry point that mutates anything on disk.
// Orchestrator.Plan performs the same discovery read-only.
package build
