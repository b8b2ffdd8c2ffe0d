// Package cache persists discovered items between runs so unchanged sources
// are never re-read.
//
// # Storage
//
// The cache lives in the configured cache directory (default .cache):
//
//	info.bin        magic "APC1" followed by a zstd frame holding a
//	                MessagePack map of source path to item
//	info.json       pretty printed copy of the same map, written only when
//	                debug logging is enabled
//	audiopack.lock  advisory lock held for the duration of a build
//
// Entries never expire. A build rewrites the whole map from its final item
// set, and "audiopack cache clear" removes it.
package cache
