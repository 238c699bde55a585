// Package console renders issues in the one-line console format
// external tooling (and humans piping through grep) can parse:
// "source:row:col:severity{confidence}:description [-W detector_id]".
package console

import (
	"fmt"
	"strings"

	"github.com/smaliscan/smaliscan/store"
)

// FormatIssue renders a single issue as one console line. A missing
// source becomes "(global)"; missing row/col become "0". Severity is
// printed verbatim from issue.Severity, or as "unscored" when that is
// empty; CVSS-vector-to-severity
// scoring belongs to the external report tooling, not here.
func FormatIssue(issue store.Issue) string {
	source := issue.Source
	if source == "" {
		source = "(global)"
	}
	severity := issue.Severity
	if severity == "" {
		severity = "unscored"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s:%d:%d:%s{%s}:%s [-W %s]", source, issue.Row, issue.Col, severity, issue.Confidence, issue.Summary, issue.DetectorID)
	return b.String()
}

// FormatAll renders every issue in list, one line each, in the order
// given.
func FormatAll(list []store.Issue) []string {
	out := make([]string, 0, len(list))
	for _, issue := range list {
		out = append(out, FormatIssue(issue))
	}
	return out
}
