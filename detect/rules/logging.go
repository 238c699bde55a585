package rules

import (
	"github.com/smaliscan/smaliscan/dataflow"
	"github.com/smaliscan/smaliscan/detect"
	"github.com/smaliscan/smaliscan/smali"
	"github.com/smaliscan/smaliscan/store"
)

// logAPIPattern matches the handful of APIs that write free-form text
// to logcat or stdout: android.util.Log's leveled methods, PrintStream's
// print family (System.out/System.err), and Throwable.printStackTrace.
var logAPIPattern = store.NewPattern("invoke-", `Landroid/util/Log;->(d|w|i|e|wtf)\(|Ljava/io/PrintStream;->print|Ljava/lang/Throwable;->printStackTrace`)

// LogDetector flags call sites that may leak sensitive data into
// device logs, resolving whichever argument carries the literal message
// or tag when a unique constant reaches it.
type LogDetector struct{}

func (LogDetector) Option() string { return "security-logging" }
func (LogDetector) Description() string {
	return "Detects sensitive data logged to logcat"
}

func (LogDetector) Detect(ctx detect.Context, sink *detect.Sink) error {
	const cvss = "CVSS:3.0/AV:P/AC:H/PR:N/UI:N/S:U/C:L/I:N/A:N/"
	const summary = "insecure logging"

	st := ctx.Store()
	q := st.Query()
	for op := range q.Invocations(logAPIPattern) {
		qn := q.QualnameOf(op)
		if ctx.IsQualnameExcluded(qn) {
			continue
		}
		value, ok := resolveLoggedValue(st, op)
		if !ok {
			continue
		}
		if err := sink.Raise(store.Issue{
			Confidence: store.Tentative,
			CVSS:       cvss,
			Summary:    summary,
			Info1:      value,
			Source:     qn,
		}); err != nil {
			return err
		}
	}
	return nil
}

// resolveLoggedValue tries the message argument (position 1, as in
// Log.d(tag, msg)) before falling back to position 0 (as in
// System.out.println(msg)); printStackTrace carries neither and is
// reported with a placeholder rather than skipped.
func resolveLoggedValue(st *store.Store, op *smali.Op) (string, bool) {
	if v, err := dataflow.SolvedConstantDataInInvocation(st, op, 1); err == nil {
		return v, true
	}
	if v, err := dataflow.SolvedConstantDataInInvocation(st, op, 0); err == nil {
		return v, true
	}
	return "(unknown name)", true
}
