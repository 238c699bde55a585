package rules

import (
	"github.com/smaliscan/smaliscan/dataflow"
	"github.com/smaliscan/smaliscan/detect"
	"github.com/smaliscan/smaliscan/store"
)

// ADBProbeDetector flags code that reads the "adb_enabled" system
// setting, a common app-side probe for whether the device has USB
// debugging turned on.
type ADBProbeDetector struct{}

func (ADBProbeDetector) Option() string { return "security-adb-probe" }
func (ADBProbeDetector) Description() string {
	return "Detects a runtime ADB-enabled probe"
}

func (ADBProbeDetector) Detect(ctx detect.Context, sink *detect.Sink) error {
	const cvss = "CVSS:3.0/AV:L/AC:H/PR:N/UI:N/S:U/C:N/I:N/A:N/"
	const summary = "ADB probe"

	st := ctx.Store()
	q := st.Query()
	pattern := store.NewPattern("invoke-static", `Landroid/provider/Settings\$(Global|Secure);->getInt\(`)
	for op := range q.Invocations(pattern) {
		qn := q.QualnameOf(op)
		if ctx.IsQualnameExcluded(qn) {
			continue
		}
		values := dataflow.SolvedPossibleConstantDataInInvocation(st, op, 1)
		if _, ok := values["adb_enabled"]; !ok {
			continue
		}
		if err := sink.Raise(store.Issue{
			Confidence: store.Firm,
			CVSS:       cvss,
			Summary:    summary,
			Source:     qn,
		}); err != nil {
			return err
		}
	}
	return nil
}
