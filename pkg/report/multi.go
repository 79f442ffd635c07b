package report

import (
	"context"
	"errors"

	"github.com/matzehuels/bayesaudit/pkg/audit"
)

type multi []audit.Recorder

// Multi returns a recorder that forwards to every non-nil recorder in recs,
// continuing past failures. It returns nil if there are none.
func Multi(recs ...audit.Recorder) audit.Recorder {
	var m multi
	for _, r := range recs {
		if r != nil {
			m = append(m, r)
		}
	}
	switch len(m) {
	case 0:
		return nil
	case 1:
		return m[0]
	}
	return m
}

func (m multi) RecordStage(ctx context.Context, rep audit.StageReport) error {
	var errs []error
	for _, r := range m {
		errs = append(errs, r.RecordStage(ctx, rep))
	}
	return errors.Join(errs...)
}

func (m multi) RecordResult(ctx context.Context, res *audit.Result) error {
	var errs []error
	for _, r := range m {
		errs = append(errs, r.RecordResult(ctx, res))
	}
	return errors.Join(errs...)
}
