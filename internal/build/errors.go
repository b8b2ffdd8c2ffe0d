package build

import (
	"errors"

	"audiopack/internal/cache"
)

var (
	// ErrInputDirMissing means the configured input directory does not exist.
	ErrInputDirMissing = errors.New("input directory missing")
	// ErrMisconfigured wraps every package error found during discovery.
	ErrMisconfigured = errors.New("package misconfiguration")
	// ErrUnfixable wraps source files remediation cannot repair.
	ErrUnfixable = errors.New("unfixable source files")
	// ErrUserCancelled means remediation was declined.
	ErrUserCancelled = errors.New("remediation declined")
	// ErrRemediationFailed wraps every failed source repair.
	ErrRemediationFailed = errors.New("remediation failed")
	// ErrRemediationExhausted means sources still needed repair after the last allowed pass.
	ErrRemediationExhausted = errors.New("remediation passes exhausted")
	// ErrEncoderUnavailable means the encoder binary could not be run.
	ErrEncoderUnavailable = errors.New("encoder unavailable")
	// ErrEncodeFailed wraps every per-item encode failure.
	ErrEncodeFailed = errors.New("encoding failed")
	// ErrLocked means another run holds the cache lock.
	ErrLocked = cache.ErrLocked
)

// ItemFailure is an item whose artifacts could not be produced.
type ItemFailure struct {
	Path   string
	Output string
	Err    error
}

func (f ItemFailure) Error() string {
	return f.Path + " -> " + f.Output + ": " + f.Err.Error()
}

func (f ItemFailure) Unwrap() error { return f.Err }
