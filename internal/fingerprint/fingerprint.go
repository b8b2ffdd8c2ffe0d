// Package fingerprint derives content addressed artifact names from source bytes.
package fingerprint

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// Ext is the extension of the primary container every output name carries.
const Ext = ".webm"

// Sum returns the 64-bit xxHash of b.
func Sum(b []byte) uint64 {
	return xxhash.Sum64(b)
}

// File streams the file at path through the hasher.
func File(path string) (uint64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()
	h := xxhash.New()
	if _, err := io.Copy(h, f); err != nil {
		return 0, fmt.Errorf("hash %s: %w", path, err)
	}
	return h.Sum64(), nil
}

// Hex renders h as 16 lowercase hex digits.
func Hex(h uint64) string {
	return fmt.Sprintf("%016x", h)
}

// OutputName returns "{bitrate}kb.{channels}ch.{hash}.webm".
func OutputName(bitrate uint32, channels uint16, h uint64) string {
	return strconv.FormatUint(uint64(bitrate), 10) + "kb." +
		strconv.FormatUint(uint64(channels), 10) + "ch." +
		Hex(h) + Ext
}

// ParseOutputName is the inverse of OutputName.
func ParseOutputName(name string) (bitrate uint32, channels uint16, h uint64, err error) {
	parts := strings.Split(strings.TrimSuffix(name, Ext), ".")
	if len(parts) != 3 || !strings.HasSuffix(parts[0], "kb") || !strings.HasSuffix(parts[1], "ch") || len(parts[2]) != 16 {
		return 0, 0, 0, fmt.Errorf("not an output name: %q", name)
	}
	b, err := strconv.ParseUint(strings.TrimSuffix(parts[0], "kb"), 10, 32)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("bitrate in %q: %w", name, err)
	}
	c, err := strconv.ParseUint(strings.TrimSuffix(parts[1], "ch"), 10, 16)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("channels in %q: %w", name, err)
	}
	h, err = strconv.ParseUint(parts[2], 16, 64)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("hash in %q: %w", name, err)
	}
	return uint32(b), uint16(c), h, nil
}
