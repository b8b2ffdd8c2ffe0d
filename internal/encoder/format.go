package encoder

import (
	"strconv"

	"audiopack/internal/config"
	"audiopack/internal/item"
)

// Format is one output container and codec pairing.
type Format struct {
	Name string
	Ext  string
	// codec returns the codec and container flags for it, excluding the
	// output path.
	codec func(it item.Item) []string
}

func bitrateArg(it item.Item) string {
	return strconv.FormatUint(uint64(it.TotalBitrate()), 10) + "k"
}

var (
	WebM = Format{Name: "webm", Ext: ".webm", codec: func(it item.Item) []string {
		return []string{"-c:a", "libopus", "-b:a", bitrateArg(it), "-f", "webm"}
	}}
	Ogg = Format{Name: "ogg", Ext: ".ogg", codec: func(it item.Item) []string {
		return []string{"-c:a", "libopus", "-b:a", bitrateArg(it), "-f", "ogg"}
	}}
	MP4 = Format{Name: "mp4", Ext: ".mp4", codec: func(it item.Item) []string {
		return []string{"-c:a", "aac", "-b:a", bitrateArg(it), "-movflags", "+faststart", "-f", "mp4"}
	}}
	// FLAC is lossless; the bitrate is ignored.
	FLAC = Format{Name: "flac", Ext: ".flac", codec: func(item.Item) []string {
		return []string{"-c:a", "flac", "-f", "flac"}
	}}
)

// Enabled returns the formats switched on in f, primary container first.
func Enabled(f config.Formats) []Format {
	var out []Format
	if f.WebM {
		out = append(out, WebM)
	}
	if f.Ogg {
		out = append(out, Ogg)
	}
	if f.MP4 {
		out = append(out, MP4)
	}
	if f.FLAC {
		out = append(out, FLAC)
	}
	return out
}

// Extensions lists the artifact extensions of formats.
func Extensions(formats []Format) []string {
	exts := make([]string, len(formats))
	for i, f := range formats {
		exts[i] = f.Ext
	}
	return exts
}
