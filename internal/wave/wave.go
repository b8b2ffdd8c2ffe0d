// Package wave reads the format and data chunk layout of RIFF/WAVE buffers.
//
// Probe is a pure function over the bytes of a file. It does not decode
// samples; it only walks the chunk list far enough to learn the PCM layout
// and the number of sample frames, and classifies broken input.
package wave

import (
	"encoding/binary"
	"errors"
	"fmt"
	"time"
)

// FormatPCM is the WAVE format code for linear PCM.
const FormatPCM = 1

const (
	riffHeaderSize = 12
	minBufferSize  = 36
	fmtBodySize    = 16
)

var (
	// ErrMalformed marks structurally invalid input.
	ErrMalformed = errors.New("malformed wave input")
	// ErrNotPCM marks a well-formed file whose samples are not linear PCM.
	ErrNotPCM = errors.New("wave format is not pcm")
)

// ProbeError reports why a buffer could not be probed.
type ProbeError struct {
	// Kind is ErrMalformed or ErrNotPCM.
	Kind   error
	Reason string
}

func (e *ProbeError) Error() string {
	return fmt.Sprintf("%v: %s", e.Kind, e.Reason)
}

func (e *ProbeError) Unwrap() error { return e.Kind }

func malformed(format string, args ...any) error {
	return &ProbeError{Kind: ErrMalformed, Reason: fmt.Sprintf(format, args...)}
}

// Info is the probed layout of a PCM wave buffer.
type Info struct {
	AudioFormat   uint16
	Channels      uint16
	SampleRate    uint32
	ByteRate      uint32
	BlockAlign    uint16
	BitsPerSample uint16
	DataSize      uint32
	NumSamples    uint64
	Duration      time.Duration
}

// Probe walks the chunks of buf and returns the format of its data chunk.
func Probe(buf []byte) (Info, error) {
	if len(buf) < minBufferSize {
		return Info{}, malformed("buffer is %d bytes, need at least %d", len(buf), minBufferSize)
	}

	var (
		info      Info
		haveFmt   bool
		haveData  bool
		cursor    = riffHeaderSize
		chunkHead = 8
	)
	for cursor < len(buf)-chunkHead {
		id := string(buf[cursor : cursor+4])
		size := binary.LittleEndian.Uint32(buf[cursor+4 : cursor+8])
		cursor += chunkHead

		if id == "data" {
			if !haveFmt {
				return Info{}, malformed("data chunk precedes fmt chunk")
			}
			info.DataSize = size
			haveData = true
			break
		}
		if id == "fmt " {
			if cursor+fmtBodySize > len(buf) || size < fmtBodySize {
				return Info{}, malformed("fmt chunk is truncated")
			}
			body := buf[cursor : cursor+fmtBodySize]
			info.AudioFormat = binary.LittleEndian.Uint16(body[0:2])
			info.Channels = binary.LittleEndian.Uint16(body[2:4])
			info.SampleRate = binary.LittleEndian.Uint32(body[4:8])
			info.ByteRate = binary.LittleEndian.Uint32(body[8:12])
			info.BlockAlign = binary.LittleEndian.Uint16(body[12:14])
			info.BitsPerSample = binary.LittleEndian.Uint16(body[14:16])
			if info.AudioFormat != FormatPCM {
				return Info{}, &ProbeError{Kind: ErrNotPCM, Reason: fmt.Sprintf("audio format %d is not pcm", info.AudioFormat)}
			}
			haveFmt = true
		}
		next := cursor + int(size) + int(size&1)
		if next < cursor {
			return Info{}, malformed("chunk %q size overflows", id)
		}
		cursor = next
	}

	if !haveData {
		if !haveFmt {
			return Info{}, malformed("fmt chunk not found")
		}
		return Info{}, malformed("data chunk not found")
	}
	if info.BlockAlign == 0 {
		return Info{}, malformed("block align is zero")
	}
	info.NumSamples = uint64(info.DataSize) / uint64(info.BlockAlign)
	if info.NumSamples == 0 {
		return Info{}, malformed("number of samples is zero")
	}
	if info.NumSamples*uint64(info.BlockAlign) != uint64(info.DataSize) {
		return Info{}, malformed("data chunk size %d is not a multiple of block align %d", info.DataSize, info.BlockAlign)
	}
	if info.ByteRate > 0 {
		info.Duration = time.Duration(float64(info.DataSize) / float64(info.ByteRate) * float64(time.Second))
	}
	return info, nil
}

// IsFixable reports whether err is a probe failure that a re-encode to PCM can repair.
func IsFixable(err error) bool {
	return errors.Is(err, ErrNotPCM)
}
