package rules

import (
	"github.com/smaliscan/smaliscan/dataflow"
	"github.com/smaliscan/smaliscan/detect"
	"github.com/smaliscan/smaliscan/store"
)

// sharedPrefsOps maps the SharedPreferences/Editor method-name fragment
// to the operation kind reported alongside the resolved key.
var sharedPrefsOps = []struct {
	pattern store.InvocationPattern
	kind    string
}{
	{store.NewPattern("invoke-interface", `Landroid/content/SharedPreferences;->get(String|Int|Boolean|Float|Long|StringSet)\(`), "get"},
	{store.NewPattern("invoke-interface", `Landroid/content/SharedPreferences;->contains\(`), "get"},
	{store.NewPattern("invoke-interface", `Landroid/content/SharedPreferences\$Editor;->put(String|Int|Boolean|Float|Long|StringSet)\(`), "put"},
	{store.NewPattern("invoke-interface", `Landroid/content/SharedPreferences\$Editor;->remove\(`), "remove"},
}

// SecuritySharedPreferencesDetector raises an informational finding for every
// SharedPreferences read, write, or removal, carrying the resolved key
// name: these are not weaknesses on their own, but the key inventory is
// useful triage context for reviewers looking for sensitive data stored
// in plaintext app preferences.
type SecuritySharedPreferencesDetector struct{}

func (SecuritySharedPreferencesDetector) Option() string { return "security-shared-preferences" }
func (SecuritySharedPreferencesDetector) Description() string {
	return "Inventories SharedPreferences key access"
}

func (SecuritySharedPreferencesDetector) Detect(ctx detect.Context, sink *detect.Sink) error {
	const cvss = "CVSS:3.0/AV:L/AC:L/PR:N/UI:N/S:U/C:N/I:N/A:N/"
	const summary = "SharedPreferences access"

	st := ctx.Store()
	q := st.Query()
	for _, entry := range sharedPrefsOps {
		for op := range q.Invocations(entry.pattern) {
			qn := q.QualnameOf(op)
			if ctx.IsQualnameExcluded(qn) {
				continue
			}
			key, err := dataflow.SolvedConstantDataInInvocation(st, op, 0)
			if err != nil {
				key = "(unknown name)"
			}
			if err := sink.Raise(store.Issue{
				Confidence: store.Certain,
				CVSS:       cvss,
				Summary:    summary,
				Info1:      key,
				Info2:      entry.kind,
				Source:     qn,
			}); err != nil {
				return err
			}
		}
	}
	return nil
}
