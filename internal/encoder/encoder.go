package encoder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"audiopack/internal/fileutil"
	"audiopack/internal/item"
	"audiopack/internal/logging"
)

// DownmixFilter folds a stereo pair into one channel at equal power.
const DownmixFilter = "pan=mono|c0=0.7071*c0+0.7071*c1"

// ErrUnavailable reports that the encoder binary cannot be executed.
var ErrUnavailable = errors.New("encoder unavailable")

// Encoder invokes ffmpeg for a single item or source repair.
type Encoder struct {
	binary string
	runner Runner
	logger *slog.Logger
}

// New constructs an Encoder. A nil runner uses ExecRunner.
func New(binary string, runner Runner, logger *slog.Logger) *Encoder {
	if runner == nil {
		runner = ExecRunner{}
	}
	return &Encoder{
		binary: binary,
		runner: runner,
		logger: logging.NewComponentLogger(logger, "encoder"),
	}
}

// CheckAvailable runs "<ffmpeg> -version".
func (e *Encoder) CheckAvailable(ctx context.Context) error {
	if err := e.runner.Run(ctx, e.binary, "-hide_banner", "-version"); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrUnavailable, e.binary, err)
	}
	return nil
}

func commonArgs(src string) []string {
	return []string{"-hide_banner", "-loglevel", "error", "-nostdin", "-y", "-i", src}
}

// Args returns the ffmpeg arguments that produce format f of it from src.
func Args(it item.Item, src string, f Format) []string {
	args := commonArgs(src)
	if it.Downmix() {
		args = append(args, "-af", DownmixFilter)
	}
	args = append(args,
		"-ar", strconv.Itoa(item.StandardSampleRate),
		"-ac", strconv.FormatUint(uint64(it.TargetChannels), 10),
		"-map_metadata", "-1",
	)
	args = append(args, f.codec(it)...)
	return append(args, it.ArtifactPath(f.Ext))
}

// Encode produces every format in formats for it. All formats are attempted
// even after a failure; failures come back as one *EncodeError.
func (e *Encoder) Encode(ctx context.Context, it item.Item, formats []Format) error {
	src, err := filepath.Abs(it.Path)
	if err != nil {
		return fmt.Errorf("resolve source %s: %w", it.Path, err)
	}
	if resolved, err := filepath.EvalSymlinks(src); err == nil {
		src = resolved
	}
	if err := os.MkdirAll(filepath.Dir(it.OutputPath), 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	var failures []FormatFailure
	for _, f := range formats {
		out := it.ArtifactPath(f.Ext)
		if err := e.runner.Run(ctx, e.binary, Args(it, src, f)...); err != nil {
			_ = os.Remove(out)
			failures = append(failures, FormatFailure{Format: f.Name, Output: out, Err: err})
			continue
		}
		e.logger.Debug("encoded artifact",
			logging.String(logging.FieldPath, it.Path),
			logging.String(logging.FieldOutput, out),
			logging.String("format", f.Name),
		)
	}
	if len(failures) > 0 {
		return &EncodeError{Source: it.Path, First: failures[0], Others: failures[1:]}
	}
	return nil
}

// RemediateArgs returns the ffmpeg arguments that rewrite src as 48 kHz
// 16-bit PCM at dst.
func RemediateArgs(src, dst string) []string {
	return append(commonArgs(src),
		"-ar", strconv.Itoa(item.StandardSampleRate),
		"-c:a", "pcm_s16le",
		dst,
	)
}

// Remediate transcodes src into dst as 48 kHz PCM.
func (e *Encoder) Remediate(ctx context.Context, src, dst string) error {
	if err := e.runner.Run(ctx, e.binary, RemediateArgs(src, dst)...); err != nil {
		return fmt.Errorf("remediate %s: %w", src, err)
	}
	return nil
}

// Missing returns the formats whose artifact for it does not exist yet.
func Missing(it item.Item, formats []Format) []Format {
	var out []Format
	for _, f := range formats {
		if !fileutil.Exists(it.ArtifactPath(f.Ext)) {
			out = append(out, f)
		}
	}
	return out
}
