package wave_test

import (
	"encoding/binary"
	"errors"
	"testing"
	"time"

	"audiopack/internal/testsupport"
	"audiopack/internal/wave"
)

func TestProbeMonoPCM(t *testing.T) {
	info, err := wave.Probe(testsupport.WAV{Frames: 100}.Bytes())
	if err != nil {
		t.Fatalf("Probe returned error: %v", err)
	}
	if info.NumSamples != 100 {
		t.Fatalf("NumSamples = %d, want 100", info.NumSamples)
	}
	if info.Channels != 1 || info.SampleRate != 48000 || info.BlockAlign != 2 || info.BitsPerSample != 16 {
		t.Fatalf("unexpected format: %+v", info)
	}
	if info.DataSize != 200 || info.ByteRate != 96000 {
		t.Fatalf("DataSize/ByteRate = %d/%d, want 200/96000", info.DataSize, info.ByteRate)
	}
	dataSize, byteRate := float64(info.DataSize), float64(info.ByteRate)
	want := time.Duration(dataSize / byteRate * float64(time.Second))
	if info.Duration != want {
		t.Fatalf("Duration = %v, want %v", info.Duration, want)
	}
}

func TestProbeSkipsUnknownChunks(t *testing.T) {
	buf := testsupport.WAV{
		Channels: 2,
		Frames:   7,
		Leading:  []testsupport.Chunk{{ID: "JUNK", Body: []byte{1, 2, 3}}, {ID: "bext", Body: make([]byte, 40)}},
	}.Bytes()
	info, err := wave.Probe(buf)
	if err != nil {
		t.Fatalf("Probe returned error: %v", err)
	}
	if info.Channels != 2 || info.NumSamples != 7 {
		t.Fatalf("unexpected info: %+v", info)
	}
}

func TestProbeClassifiesFailures(t *testing.T) {
	dataFirst := make([]byte, 12, 64)
	copy(dataFirst, "RIFFxxxxWAVE")
	dataFirst = append(dataFirst, 'd', 'a', 't', 'a', 4, 0, 0, 0)
	dataFirst = append(dataFirst, make([]byte, 40)...)

	zeroFrames := testsupport.WAV{Frames: 20}.Bytes()
	binary.LittleEndian.PutUint32(zeroFrames[40:44], 1)

	cases := []struct {
		name string
		buf  []byte
		kind error
	}{
		{"short buffer", make([]byte, 35), wave.ErrMalformed},
		{"not pcm", testsupport.WAV{Format: 3, Bits: 32}.Bytes(), wave.ErrNotPCM},
		{"missing data", testsupport.WAV{OmitData: true}.Bytes(), wave.ErrMalformed},
		{"misaligned data", testsupport.WAV{DataSize: 21}.Bytes(), wave.ErrMalformed},
		{"data before fmt", dataFirst, wave.ErrMalformed},
		{"zero samples", zeroFrames, wave.ErrMalformed},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := wave.Probe(tc.buf)
			if !errors.Is(err, tc.kind) {
				t.Fatalf("Probe error = %v, want %v", err, tc.kind)
			}
			var perr *wave.ProbeError
			if !errors.As(err, &perr) {
				t.Fatalf("expected *ProbeError, got %T", err)
			}
			if wave.IsFixable(err) != (tc.kind == wave.ErrNotPCM) {
				t.Fatalf("IsFixable mismatch for %v", err)
			}
		})
	}
}

func TestProbeClickFixture(t *testing.T) {
	info, err := wave.Probe(testsupport.WAV{Frames: 5}.Bytes())
	if err != nil {
		t.Fatalf("Probe returned error: %v", err)
	}
	if info.DataSize != 10 || info.NumSamples != 5 {
		t.Fatalf("got data=%d samples=%d, want 10 and 5", info.DataSize, info.NumSamples)
	}
}
