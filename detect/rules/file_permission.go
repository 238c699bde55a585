// Package rules holds the concrete security detectors: each checks one
// narrow pattern against an indexed store and raises issues through the
// detector framework's Sink.
package rules

import (
	"strconv"

	"github.com/smaliscan/smaliscan/dataflow"
	"github.com/smaliscan/smaliscan/detect"
	"github.com/smaliscan/smaliscan/store"
)

// SecurityFilePermissionDetector flags Context.openFileOutput calls whose mode
// argument sets MODE_WORLD_READABLE (1) or MODE_WORLD_WRITEABLE (2).
type SecurityFilePermissionDetector struct{}

func (SecurityFilePermissionDetector) Option() string { return "security-file-permission" }
func (SecurityFilePermissionDetector) Description() string {
	return "Detects insecure file creation"
}

func (SecurityFilePermissionDetector) Detect(ctx detect.Context, sink *detect.Sink) error {
	const cvss = "CVSS:3.0/AV:L/AC:L/PR:N/UI:N/S:C/C:L/I:L/A:L/"
	const summary = "insecure file permission"

	q := ctx.Store().Query()
	pattern := store.NewPattern("invoke-virtual", `Landroid/content/Context;->openFileOutput\(Ljava/lang/String;I\)`)
	for cl := range q.Invocations(pattern) {
		qn := q.QualnameOf(cl)
		if ctx.IsQualnameExcluded(qn) {
			continue
		}
		raw, err := dataflow.SolvedConstantDataInInvocation(ctx.Store(), cl, 1)
		if err != nil {
			continue
		}
		targetVal, err := strconv.ParseInt(raw, 0, 64)
		if err != nil || targetVal&3 == 0 {
			continue
		}
		info1 := "MODE_WORLD_READABLE"
		if targetVal == 2 {
			info1 = "MODE_WORLD_WRITEABLE"
		}
		if err := sink.Raise(store.Issue{
			Confidence: store.Certain,
			CVSS:       cvss,
			Summary:    summary,
			Info1:      info1,
			Source:     qn,
		}); err != nil {
			return err
		}
	}
	return nil
}
