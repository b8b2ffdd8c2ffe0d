// Package config loads, normalizes, and validates audiopack configuration.
//
// Configuration is read from a TOML file or a JSON document that may carry
// comments and trailing commas. Values are decoded on top of Default(), paths
// are expanded (including tilde shortcuts), language codes are canonicalized,
// and environment fallbacks such as AUDIOPACK_FFMPEG fill in anything the
// file leaves empty. Validate reports the first unusable setting with its
// dotted key so the operator can find it in the file.
//
// The package also owns per-sound target resolution: the bitrate precedence
// (source entry, then package and its extends chain, then the global value)
// and the channel override used by discovery.
package config
