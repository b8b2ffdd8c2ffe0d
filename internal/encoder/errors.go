package encoder

import (
	"fmt"
	"strings"
)

// FormatFailure is one format that could not be produced.
type FormatFailure struct {
	Format string
	Output string
	Err    error
}

// EncodeError reports every format that failed for one source.
type EncodeError struct {
	Source string
	First  FormatFailure
	Others []FormatFailure
}

func (e *EncodeError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "encode %s -> %s (%s): %v", e.Source, e.First.Output, e.First.Format, e.First.Err)
	for _, f := range e.Others {
		fmt.Fprintf(&b, "; %s -> %s (%s): %v", e.Source, f.Output, f.Format, f.Err)
	}
	return b.String()
}

// Unwrap exposes every underlying failure to errors.Is and errors.As.
func (e *EncodeError) Unwrap() []error {
	errs := make([]error, 0, 1+len(e.Others))
	errs = append(errs, e.First.Err)
	for _, f := range e.Others {
		errs = append(errs, f.Err)
	}
	return errs
}

// Failures returns all format failures, first one included.
func (e *EncodeError) Failures() []FormatFailure {
	return append([]FormatFailure{e.First}, e.Others...)
}
