// Package item models one source wave file mapped to one encoding target and
// discovers those items across the configured packages.
package item

import (
	"strings"

	"audiopack/internal/fingerprint"
)

// NoLanguage is the lang value of sounds in packages without language directories.
const NoLanguage = "_"

// StandardSampleRate is the only sample rate accepted for encoding.
const StandardSampleRate = 48000

// Item is one source wave file and its resolved encoding target.
type Item struct {
	Path             string `json:"path" msg:"path"`
	Name             string `json:"name" msg:"name"`
	Outfile          string `json:"outfile" msg:"outfile"`
	Package          string `json:"package" msg:"package"`
	Lang             string `json:"lang" msg:"lang"`
	OutputPath       string `json:"output_path" msg:"output_path"`
	Bitrate          uint32 `json:"bitrate" msg:"bitrate"`
	NumSamples       uint64 `json:"num_samples" msg:"num_samples"`
	InputChannels    uint16 `json:"input_channels" msg:"input_channels"`
	TargetChannels   uint16 `json:"target_channels" msg:"target_channels"`
	SampleRate       uint32 `json:"sample_rate" msg:"sample_rate"`
	ModificationDate string `json:"modification_date" msg:"modification_date"`
}

// OutfileStem is the output file name without the primary container extension.
func (it Item) OutfileStem() string {
	return strings.TrimSuffix(it.Outfile, fingerprint.Ext)
}

// ArtifactPath returns the output path with the primary extension replaced by ext.
func (it Item) ArtifactPath(ext string) string {
	return strings.TrimSuffix(it.OutputPath, fingerprint.Ext) + ext
}

// Downmix reports whether the encode folds stereo input to mono.
func (it Item) Downmix() bool {
	return it.InputChannels == 2 && it.TargetChannels == 1
}

// TotalBitrate is the stream bitrate handed to the encoder: the per-channel
// figure scaled by the target channel count.
func (it Item) TotalBitrate() uint32 {
	channels := uint32(it.TargetChannels)
	if channels == 0 {
		channels = 1
	}
	return it.Bitrate * channels
}
