package cache

import (
	"bytes"
	"fmt"

	"github.com/klauspost/compress/zstd"
	"github.com/tinylib/msgp/msgp"

	"audiopack/internal/item"
)

// Magic prefixes every binary cache file.
const Magic = "APC1"

// Encode renders m as Magic followed by a zstd compressed MessagePack map.
// Keys are written in sorted order so equal maps encode identically.
func Encode(m Map) ([]byte, error) {
	size := msgp.MapHeaderSize
	for path, it := range m {
		size += msgp.StringPrefixSize + len(path) + it.Msgsize()
	}
	raw := msgp.Require(nil, size)
	raw = msgp.AppendMapHeader(raw, uint32(len(m)))
	var err error
	for _, path := range m.Paths() {
		it := m[path]
		raw = msgp.AppendString(raw, path)
		if raw, err = it.MarshalMsg(raw); err != nil {
			return nil, fmt.Errorf("encode %s: %w", path, err)
		}
	}

	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("zstd writer: %w", err)
	}
	defer enc.Close()
	return enc.EncodeAll(raw, []byte(Magic)), nil
}

// Decode parses the output of Encode.
func Decode(data []byte) (Map, error) {
	if !bytes.HasPrefix(data, []byte(Magic)) {
		return nil, fmt.Errorf("%w: bad magic", ErrCorrupt)
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("zstd reader: %w", err)
	}
	defer dec.Close()
	raw, err := dec.DecodeAll(data[len(Magic):], nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}

	n, raw, err := msgp.ReadMapHeaderBytes(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	m := make(Map, n)
	for ; n > 0; n-- {
		var path string
		path, raw, err = msgp.ReadStringBytes(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
		}
		var it item.Item
		if raw, err = it.UnmarshalMsg(raw); err != nil {
			return nil, fmt.Errorf("%w: entry %s: %v", ErrCorrupt, path, err)
		}
		m[path] = it
	}
	return m, nil
}
