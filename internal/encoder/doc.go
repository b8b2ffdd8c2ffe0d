// Package encoder drives ffmpeg to turn discovered items into compressed
// artifacts and to repair sources that cannot be encoded as they are.
//
// Encoder builds one ffmpeg invocation per enabled output format. Executor
// fans encodes out over a bounded worker pool, runs each distinct output path
// once, and reports progress through a mutex guarded Progress. All
// subprocesses go through the Runner interface so tests can substitute a fake.
package encoder
