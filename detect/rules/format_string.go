package rules

import (
	"strings"

	"github.com/smaliscan/smaliscan/detect"
	"github.com/smaliscan/smaliscan/store"
)

// formatStringMarkers are substrings that turn a "%s"-bearing string
// literal from an ordinary log format into a likely URL, markup, or
// query-string template an attacker-controlled value could be spliced
// into.
var formatStringMarkers = []string{"://", "<", ">", "/", "&", "?"}

// FormatStringDetector flags const-string literals and string
// resources that look like a format template for a URL, markup
// fragment, or query string: they contain "%s" and at least one of a
// small set of structural markers.
type FormatStringDetector struct{}

func (FormatStringDetector) Option() string { return "security-format-string" }
func (FormatStringDetector) Description() string {
	return "Detects suspicious format strings"
}

func (FormatStringDetector) Detect(ctx detect.Context, sink *detect.Sink) error {
	const cvss = "CVSS:3.0/AV:N/AC:L/PR:N/UI:N/S:U/C:L/I:L/A:N/"
	const summary = "insecure format string"

	q := ctx.Store().Query()
	pattern := store.NewPattern("const-string", `%s`)
	for op := range q.Consts(pattern) {
		if len(op.P) == 0 {
			continue
		}
		value := op.P[len(op.P)-1].Value
		if !suspiciousTemplate(value) {
			continue
		}
		qn := q.QualnameOf(op)
		if ctx.IsQualnameExcluded(qn) {
			continue
		}
		if err := sink.Raise(store.Issue{
			Confidence: store.Firm,
			CVSS:       cvss,
			Summary:    summary,
			Info1:      value,
			Source:     qn,
		}); err != nil {
			return err
		}
	}
	for name, value := range ctx.StringResources() {
		if !suspiciousTemplate(value) {
			continue
		}
		if err := sink.Raise(store.Issue{
			Confidence: store.Firm,
			CVSS:       cvss,
			Summary:    summary,
			Info1:      value,
			Source:     "R.string." + name,
		}); err != nil {
			return err
		}
	}
	return nil
}

func suspiciousTemplate(value string) bool {
	return strings.Contains(value, "%s") && containsAny(value, formatStringMarkers)
}

func containsAny(s string, markers []string) bool {
	for _, m := range markers {
		if strings.Contains(s, m) {
			return true
		}
	}
	return false
}
