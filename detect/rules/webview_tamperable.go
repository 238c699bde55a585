package rules

import (
	"context"
	"fmt"
	"strings"

	"github.com/smaliscan/smaliscan/dataflow"
	"github.com/smaliscan/smaliscan/detect"
	"github.com/smaliscan/smaliscan/manifest"
	"github.com/smaliscan/smaliscan/store"
)

// SecurityTamperableWebViewDetector flags WebView (and WebView-derived) layout
// elements large enough to be a meaningful attack surface, and
// loadUrl() calls reaching a plaintext http:// URL.
type SecurityTamperableWebViewDetector struct{}

func (SecurityTamperableWebViewDetector) Option() string { return "security-tamperable-webview" }
func (SecurityTamperableWebViewDetector) Description() string {
	return "Detects tamperable WebView"
}

func (SecurityTamperableWebViewDetector) Detect(ctx detect.Context, sink *detect.Sink) error {
	const summary1 = "tamperable webview"
	const summary2 = "tamperable webview with URL"
	const cvss1 = "CVSS:3.0/AV:N/AC:H/PR:N/UI:R/S:U/C:N/I:L/A:L/"
	const cvss2 = "CVSS:3.0/AV:N/AC:L/PR:N/UI:R/S:U/C:N/I:L/A:L/"

	st := ctx.Store()
	q := st.Query()
	targets := webviewRelatedClassNames(q)

	for f := range q.FileEnum(context.Background(), "%/res/%layout%.xml") {
		doc, err := manifest.Parse(f.Blob)
		if err != nil {
			continue
		}
		for _, className := range targets {
			tag := strings.ReplaceAll(ctx.ClassNameOfDalvikClassType(className), "$", "_")
			for _, el := range doc.XPath("//" + tag) {
				size := guessedSize(el, f.Path)
				if size <= 0.5 {
					continue
				}
				id := el.SelectAttr("android:id")
				if id == "" {
					id = "(unknown name)"
				}
				if err := sink.Raise(store.Issue{
					Confidence: store.Tentative,
					CVSS:       cvss1,
					Summary:    summary1,
					Info1:      fmt.Sprintf("%s (score: %.02f)", id, size),
					Source:     ctx.SourceNameOfDisassembledResource(f.Path),
				}); err != nil {
					return err
				}
			}
		}
	}

	loadURL := store.NewPattern("invoke-", `;->loadUrl`)
	for op := range q.Invocations(loadURL) {
		qn := q.QualnameOf(op)
		if ctx.IsQualnameExcluded(qn) {
			continue
		}
		v, err := dataflow.SolvedConstantDataInInvocation(st, op, 0)
		if err != nil || !strings.HasPrefix(v, "http://") {
			continue
		}
		if err := sink.Raise(store.Issue{
			Confidence: store.Firm,
			CVSS:       cvss2,
			Summary:    summary2,
			Info1:      v,
			Source:     qn,
		}); err != nil {
			return err
		}
	}
	return nil
}

// webviewRelatedClassNames computes the fixed point of classes whose
// superclass or interfaces trace back to WebView, XWalkView, or
// GeckoView.
func webviewRelatedClassNames(q *store.Query) []string {
	targets := map[string]struct{}{"WebView": {}, "XWalkView": {}, "GeckoView": {}}
	for {
		more := false
		union := unionPattern(targets)
		for cl := range q.RelatedClasses(store.NewPattern("", union)) {
			name := q.ClassNameOf(cl)
			if name == "" {
				continue
			}
			if _, ok := targets[name]; !ok {
				targets[name] = struct{}{}
				more = true
			}
		}
		if !more {
			break
		}
	}
	out := make([]string, 0, len(targets))
	for name := range targets {
		out = append(out, name)
	}
	return out
}

func unionPattern(names map[string]struct{}) string {
	var parts []string
	for n := range names {
		parts = append(parts, n)
	}
	out := ""
	for i, p := range parts {
		if i > 0 {
			out += "|"
		}
		out += p
	}
	return out
}
