package detect

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/smaliscan/smaliscan/store"
)

// DetectorFailure records that one detector did not complete cleanly.
// The scan as a whole still succeeds: a single detector's bug should
// never suppress findings from every other detector.
type DetectorFailure struct {
	Option string
	Err    error
}

// RunAll runs every detector in detectors concurrently against st,
// isolating panics and errors per detector. It returns the failures (if
// any) alongside a nil error; RunAll itself only returns an error for a
// setup problem that prevented any detector from running at all.
func RunAll(ctx context.Context, st *store.Store, ac Context, detectors []Detector, logger *zap.Logger) ([]DetectorFailure, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	var failures []DetectorFailure
	failCh := make(chan DetectorFailure, len(detectors))

	g, gctx := errgroup.WithContext(ctx)
	_ = gctx // each detector gets the original ctx; errgroup's cancel-on-first-error is deliberately not propagated, see below
	for _, d := range detectors {
		d := d
		g.Go(func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					failCh <- DetectorFailure{Option: d.Option(), Err: fmt.Errorf("panic: %v", r)}
				}
			}()
			sink := NewSink(st, d.Option())
			if runErr := d.Detect(ac, sink); runErr != nil {
				logger.Warn("detector failed", zap.String("detector", d.Option()), zap.Error(runErr))
				failCh <- DetectorFailure{Option: d.Option(), Err: runErr}
			}
			// errgroup.Wait fails fast on the first non-nil return; since
			// we never want one detector's failure to cancel its
			// siblings, Detect's own error is reported via failCh above
			// and this goroutine always returns nil to errgroup.
			return nil
		})
	}
	_ = g.Wait()
	close(failCh)
	for f := range failCh {
		failures = append(failures, f)
	}
	return failures, nil
}
