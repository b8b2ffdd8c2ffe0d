package item

import (
	"errors"
	"fmt"

	"audiopack/internal/wave"
)

// Kind classifies a per-file discovery failure.
type Kind int

const (
	KindIO Kind = iota
	KindMalformed
	KindNotPCM
	KindSampleRate
)

func (k Kind) String() string {
	switch k {
	case KindMalformed:
		return "malformed"
	case KindNotPCM:
		return "not_pcm"
	case KindSampleRate:
		return "sample_rate"
	default:
		return "io"
	}
}

// FileError is a discovery failure for one source file.
type FileError struct {
	Path    string
	Package string
	Kind    Kind
	Err     error
}

func (e *FileError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Path, e.Kind, e.Err)
}

func (e *FileError) Unwrap() error { return e.Err }

// Fixable reports whether re-encoding the source to 48 kHz PCM repairs it.
func (e *FileError) Fixable() bool {
	return e.Kind == KindNotPCM || e.Kind == KindSampleRate
}

// ErrSampleRate marks sources whose sample rate is not StandardSampleRate.
var ErrSampleRate = errors.New("unsupported sample rate")

func classifyProbe(path, pkg string, err error) *FileError {
	kind := KindMalformed
	if wave.IsFixable(err) {
		kind = KindNotPCM
	}
	return &FileError{Path: path, Package: pkg, Kind: kind, Err: err}
}

// PackageError is a configuration problem that makes a package unusable.
type PackageError struct {
	Package string
	Path    string
	Reason  string
	Err     error
}

func (e *PackageError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("package %s: %s %s: %v", e.Package, e.Reason, e.Path, e.Err)
	}
	return fmt.Sprintf("package %s: %s %s", e.Package, e.Reason, e.Path)
}

func (e *PackageError) Unwrap() error { return e.Err }
