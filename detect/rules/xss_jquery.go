package rules

import (
	"bufio"
	"bytes"
	"context"
	"regexp"

	"github.com/smaliscan/smaliscan/detect"
	"github.com/smaliscan/smaliscan/store"
)

var jqueryHTMLCallRe = regexp.MustCompile(`\.html\s*\(`)

// ClientXSSJQDetector flags jQuery's .html() sink in bundled JavaScript
// assets: unless the argument is a literal, it is a classic DOM-based
// XSS pattern when fed attacker-influenced data.
type ClientXSSJQDetector struct{}

func (ClientXSSJQDetector) Option() string { return "security-client-xss-jq" }
func (ClientXSSJQDetector) Description() string {
	return "Detects jQuery .html() DOM XSS sinks in bundled assets"
}

func (ClientXSSJQDetector) Detect(ctx detect.Context, sink *detect.Sink) error {
	const cvss = "CVSS:3.0/AV:N/AC:L/PR:N/UI:R/S:C/C:L/I:L/A:N/"
	const summary = "possible client-side XSS (jQuery .html())"

	q := ctx.Store().Query()
	for f := range q.FileEnum(context.Background(), "root/assets/%.js") {
		lineNo := 0
		scanner := bufio.NewScanner(bytes.NewReader(f.Blob))
		for scanner.Scan() {
			lineNo++
			line := scanner.Text()
			if !jqueryHTMLCallRe.MatchString(line) {
				continue
			}
			if err := sink.Raise(store.Issue{
				Confidence: store.Firm,
				CVSS:       cvss,
				Summary:    summary,
				Info1:      line,
				Source:     ctx.SourceNameOfDisassembledResource(f.Path),
				Row:        lineNo,
			}); err != nil {
				return err
			}
		}
	}
	return nil
}
