package build

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"golang.org/x/sync/errgroup"

	"audiopack/internal/encoder"
	"audiopack/internal/fileutil"
	"audiopack/internal/item"
	"audiopack/internal/logging"
)

// discover runs discovery until it comes back clean, repairing fixable
// sources between passes. It gives up after Config.MaxRemediationPasses
// passes.
func (o *Orchestrator) discover(ctx context.Context, snapshot item.Snapshot, enc *encoder.Encoder, report *Report) ([]item.Item, error) {
	logger := logging.NewComponentLogger(o.Logger, "build")
	maxPasses := o.Config.MaxRemediationPasses
	if maxPasses <= 0 {
		maxPasses = 1
	}
	d := o.discoverer()

	for pass := 1; pass <= maxPasses; pass++ {
		report.Passes = pass
		res := d.Discover(ctx, snapshot)
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		if len(res.PackageErrors) > 0 {
			errs := []error{ErrMisconfigured}
			for _, pe := range res.PackageErrors {
				logging.ErrorWithContext(logger, "package misconfigured", "package_misconfigured",
					logging.String(logging.FieldPackage, pe.Package),
					logging.String(logging.FieldPath, pe.Path),
					logging.String("reason", pe.Reason),
					logging.String(logging.FieldErrorHint, "check the package entry in the config file"),
				)
				errs = append(errs, pe)
			}
			return nil, errors.Join(errs...)
		}

		if fixable := res.Fixable(); len(fixable) > 0 {
			paths := make([]string, len(fixable))
			for i, fe := range fixable {
				paths[i] = fe.Path
				logging.WarnWithContext(logger, "source needs conversion", "source_fixable",
					logging.String(logging.FieldPath, fe.Path),
					logging.String("kind", fe.Kind.String()),
					logging.Error(fe.Err),
					logging.String(logging.FieldImpact, "file will be rewritten as 48 kHz PCM if confirmed"),
				)
			}
			if pass == maxPasses {
				return nil, fmt.Errorf("%w after %d passes: %s", ErrRemediationExhausted, pass, strings.Join(paths, ", "))
			}
			ok, err := o.confirmer().Confirm(ctx, "Convert these source files to 48 kHz PCM in place?", paths)
			if err != nil {
				return nil, err
			}
			if !ok {
				return nil, ErrUserCancelled
			}
			if err := remediate(ctx, enc, fixable, o.Config.Workers); err != nil {
				return nil, err
			}
			report.Remediated += len(fixable)
			logger.Info("sources converted, restarting discovery",
				logging.Int("converted", len(fixable)),
				logging.Int("pass", pass),
			)
			continue
		}

		if unfixable := res.Unfixable(); len(unfixable) > 0 {
			errs := []error{ErrUnfixable}
			for _, fe := range unfixable {
				logging.ErrorWithContext(logger, "source cannot be fixed", "source_unfixable",
					logging.String(logging.FieldPath, fe.Path),
					logging.String("kind", fe.Kind.String()),
					logging.Error(fe.Err),
					logging.String(logging.FieldErrorHint, "replace or re-export the file"),
				)
				errs = append(errs, fe)
			}
			return nil, errors.Join(errs...)
		}

		report.Reused = res.Reused
		return res.Items, nil
	}
	return nil, ErrRemediationExhausted
}

// remediate rewrites every fixable source through a hidden sibling that is
// renamed over the original. All files are attempted; any failure fails the
// whole step.
func remediate(ctx context.Context, enc *encoder.Encoder, files []*item.FileError, workers int) error {
	failures := make([]error, len(files))
	var g errgroup.Group
	if workers > 0 {
		g.SetLimit(workers)
	}
	for i, fe := range files {
		g.Go(func() error {
			tmp := fileutil.HiddenSibling(fe.Path, "remedy")
			if err := enc.Remediate(ctx, fe.Path, tmp); err != nil {
				_ = os.Remove(tmp)
				failures[i] = err
				return nil
			}
			if err := os.Rename(tmp, fe.Path); err != nil {
				_ = os.Remove(tmp)
				failures[i] = fmt.Errorf("replace %s: %w", fe.Path, err)
			}
			return nil
		})
	}
	_ = g.Wait()

	errs := []error{ErrRemediationFailed}
	for _, err := range failures {
		if err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 1 {
		return errors.Join(errs...)
	}
	return nil
}
