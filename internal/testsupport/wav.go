package testsupport

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"
)

// WAV describes a synthetic wave file. Zero values default to mono 48 kHz
// 16-bit PCM with ten frames.
type WAV struct {
	Format     uint16
	Channels   uint16
	SampleRate uint32
	Bits       uint16
	Frames     int
	// Seed varies the sample bytes so distinct fixtures hash differently.
	Seed byte
	// DataSize overrides the declared data chunk size when non-zero.
	DataSize uint32
	// Leading chunks are written between the RIFF header and fmt.
	Leading []Chunk
	// OmitData drops the data chunk entirely.
	OmitData bool
}

// Chunk is an arbitrary RIFF chunk.
type Chunk struct {
	ID   string
	Body []byte
}

func (w WAV) withDefaults() WAV {
	if w.Format == 0 {
		w.Format = 1
	}
	if w.Channels == 0 {
		w.Channels = 1
	}
	if w.SampleRate == 0 {
		w.SampleRate = 48000
	}
	if w.Bits == 0 {
		w.Bits = 16
	}
	if w.Frames == 0 {
		w.Frames = 10
	}
	return w
}

// Bytes renders the wave file.
func (w WAV) Bytes() []byte {
	w = w.withDefaults()
	blockAlign := w.Channels * (w.Bits / 8)
	samples := make([]byte, w.Frames*int(blockAlign))
	for i := range samples {
		samples[i] = byte(i) + w.Seed
	}
	dataSize := uint32(len(samples))
	if w.DataSize != 0 {
		dataSize = w.DataSize
	}

	out := make([]byte, 12, 44+len(samples))
	copy(out[0:4], "RIFF")
	copy(out[8:12], "WAVE")
	for _, c := range w.Leading {
		out = appendChunk(out, c.ID, c.Body)
	}

	fmtBody := make([]byte, 16)
	binary.LittleEndian.PutUint16(fmtBody[0:2], w.Format)
	binary.LittleEndian.PutUint16(fmtBody[2:4], w.Channels)
	binary.LittleEndian.PutUint32(fmtBody[4:8], w.SampleRate)
	binary.LittleEndian.PutUint32(fmtBody[8:12], w.SampleRate*uint32(blockAlign))
	binary.LittleEndian.PutUint16(fmtBody[12:14], blockAlign)
	binary.LittleEndian.PutUint16(fmtBody[14:16], w.Bits)
	out = appendChunk(out, "fmt ", fmtBody)

	if w.OmitData {
		out = appendChunk(out, "LIST", samples)
	} else {
		var head [8]byte
		copy(head[0:4], "data")
		binary.LittleEndian.PutUint32(head[4:8], dataSize)
		out = append(out, head[:]...)
		out = append(out, samples...)
	}
	binary.LittleEndian.PutUint32(out[4:8], uint32(len(out)-8))
	return out
}

func appendChunk(out []byte, id string, body []byte) []byte {
	var head [8]byte
	copy(head[0:4], id)
	binary.LittleEndian.PutUint32(head[4:8], uint32(len(body)))
	out = append(out, head[:]...)
	out = append(out, body...)
	if len(body)%2 == 1 {
		out = append(out, 0)
	}
	return out
}

// WriteWAV writes the fixture to path, creating parent directories.
func WriteWAV(t testing.TB, path string, w WAV) []byte {
	t.Helper()
	data := w.Bytes()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return data
}
