package rules

import (
	"regexp"

	"github.com/smaliscan/smaliscan/dataflow"
	"github.com/smaliscan/smaliscan/detect"
	"github.com/smaliscan/smaliscan/store"
)

// fileWriteSinkPattern matches openFileOutput and the three common
// java.io constructors that open a file for writing by a literal path.
var fileWriteSinkPattern = store.NewPattern("invoke-", `Landroid/content/Context;->openFileOutput\(|Ljava/io/File;-><init>\(Ljava/lang/String;\)|Ljava/io/FileWriter;-><init>\(Ljava/lang/String;\)|Ljava/io/FileOutputStream;-><init>\(Ljava/lang/String;\)`)

// suspiciousPathRe flags paths that look like they hold diagnostic or
// otherwise sensitive data left behind for later retrieval.
var suspiciousPathRe = regexp.MustCompile(`(?i)debug|log|info|report|screen|err|tomb|drop`)

// SecurityFileWriteDetector flags file-write sinks whose target path suggests
// diagnostic data (crash reports, screenshots, debug logs) being
// persisted to app-private storage.
type SecurityFileWriteDetector struct{}

func (SecurityFileWriteDetector) Option() string { return "security-file-write" }
func (SecurityFileWriteDetector) Description() string {
	return "Detects writes of diagnostic data to file storage"
}

func (SecurityFileWriteDetector) Detect(ctx detect.Context, sink *detect.Sink) error {
	const cvss = "CVSS:3.0/AV:P/AC:H/PR:N/UI:N/S:U/C:L/I:N/A:N/"
	const summary = "diagnostic data written to file storage"

	st := ctx.Store()
	q := st.Query()
	for op := range q.Invocations(fileWriteSinkPattern) {
		qn := q.QualnameOf(op)
		if ctx.IsQualnameExcluded(qn) {
			continue
		}
		path, err := dataflow.SolvedConstantDataInInvocation(st, op, 0)
		if err != nil || !suspiciousPathRe.MatchString(path) {
			continue
		}
		if err := sink.Raise(store.Issue{
			Confidence: store.Tentative,
			CVSS:       cvss,
			Summary:    summary,
			Info1:      path,
			Source:     qn,
		}); err != nil {
			return err
		}
	}
	return nil
}
