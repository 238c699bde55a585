package rules

import (
	"context"
	"strconv"
	"strings"

	"github.com/smaliscan/smaliscan/dataflow"
	"github.com/smaliscan/smaliscan/detect"
	"github.com/smaliscan/smaliscan/manifest"
	"github.com/smaliscan/smaliscan/store"
)

// SecurityInsecureWebViewDetector reports three related WebView
// configuration weaknesses under one rule: a JavaScript
// bridge exposed on a platform vulnerable to the addJavascriptInterface
// RCE, a mixed-content mode that lets active content load over plain
// HTTP, and a permissive (or missing) Content-Security-Policy on HTML
// loaded from the app's own asset bundle.
type SecurityInsecureWebViewDetector struct{}

func (SecurityInsecureWebViewDetector) Option() string { return "security-insecure-webview" }
func (SecurityInsecureWebViewDetector) Description() string {
	return "Detects insecure WebView configuration"
}

func (d SecurityInsecureWebViewDetector) Detect(ctx detect.Context, sink *detect.Sink) error {
	if err := d.detectJSInterface(ctx, sink); err != nil {
		return err
	}
	if err := d.detectMixedContentMode(ctx, sink); err != nil {
		return err
	}
	return d.detectWeakCSP(ctx, sink)
}

// detectJSInterface raises when min-SDK is 16 or below (the last
// platform where any object exposed via addJavascriptInterface is
// reachable through reflection from page script) and the same class
// proves setJavaScriptEnabled(true).
func (SecurityInsecureWebViewDetector) detectJSInterface(ctx detect.Context, sink *detect.Sink) error {
	const cvss = "CVSS:3.0/AV:N/AC:L/PR:N/UI:R/S:C/C:H/I:H/A:H/"
	const summary = "JavaScript-to-Java bridge exposed below API 17"

	if ctx.MinSDKVersion() > 16 {
		return nil
	}
	st := ctx.Store()
	q := st.Query()

	enabledPattern := store.NewPattern("invoke-virtual", `Landroid/webkit/WebSettings;->setJavaScriptEnabled\(Z\)`)
	jsEnabledClasses := map[string]struct{}{}
	for op := range q.Invocations(enabledPattern) {
		v, err := dataflow.SolvedConstantDataInInvocation(st, op, 0)
		if err != nil || !isTruthy(v) {
			continue
		}
		if classOp := q.ClassOfMethod(op); classOp != nil {
			jsEnabledClasses[q.ClassNameOf(classOp)] = struct{}{}
		}
	}
	if len(jsEnabledClasses) == 0 {
		return nil
	}

	addJSPattern := store.NewPattern("invoke-virtual", `;->addJavascriptInterface\(`)
	for op := range q.Invocations(addJSPattern) {
		qn := q.QualnameOf(op)
		if ctx.IsQualnameExcluded(qn) {
			continue
		}
		classOp := q.ClassOfMethod(op)
		if classOp == nil {
			continue
		}
		if _, ok := jsEnabledClasses[q.ClassNameOf(classOp)]; !ok {
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

// detectMixedContentMode inspects WebSettings.setMixedContentMode on
// API 21+, and falls back to flagging any loadUrl on a WebView-target
// class below API 21, where the setting does not exist and mixed
// content is always permitted.
func (d SecurityInsecureWebViewDetector) detectMixedContentMode(ctx detect.Context, sink *detect.Sink) error {
	st := ctx.Store()
	q := st.Query()

	if ctx.MinSDKVersion() >= 21 {
		const summary = "permissive mixed-content mode"
		pattern := store.NewPattern("invoke-virtual", `Landroid/webkit/WebSettings;->setMixedContentMode\(I\)`)
		for op := range q.Invocations(pattern) {
			qn := q.QualnameOf(op)
			if ctx.IsQualnameExcluded(qn) {
				continue
			}
			raw, err := dataflow.SolvedConstantDataInInvocation(st, op, 0)
			if err != nil {
				continue
			}
			mode, err := parseIntLiteral(raw)
			if err != nil {
				continue
			}
			switch mode {
			case 0:
				if err := sink.Raise(store.Issue{
					Confidence: store.Certain,
					CVSS:       "CVSS:3.0/AV:N/AC:L/PR:N/UI:R/S:U/C:H/I:H/A:N/",
					Summary:    summary,
					Info1:      "MIXED_CONTENT_ALWAYS_ALLOW",
					Source:     qn,
				}); err != nil {
					return err
				}
			case 2:
				if err := sink.Raise(store.Issue{
					Confidence: store.Firm,
					CVSS:       "CVSS:3.0/AV:N/AC:H/PR:N/UI:R/S:U/C:L/I:L/A:N/",
					Summary:    summary,
					Info1:      "MIXED_CONTENT_COMPATIBILITY_MODE",
					Source:     qn,
				}); err != nil {
					return err
				}
			}
		}
		return nil
	}

	targets := map[string]struct{}{}
	for _, name := range webviewRelatedClassNames(q) {
		targets[name] = struct{}{}
	}
	loadURL := store.NewPattern("invoke-", `;->loadUrl`)
	for op := range q.Invocations(loadURL) {
		qn := q.QualnameOf(op)
		if ctx.IsQualnameExcluded(qn) {
			continue
		}
		classOp := q.ClassOfMethod(op)
		if classOp == nil {
			continue
		}
		if _, ok := targets[q.ClassNameOf(classOp)]; !ok {
			continue
		}
		if err := sink.Raise(store.Issue{
			Confidence: store.Tentative,
			CVSS:       "CVSS:3.0/AV:N/AC:H/PR:N/UI:R/S:U/C:L/I:L/A:N/",
			Summary:    "mixed content always allowed below API 21",
			Source:     qn,
		}); err != nil {
			return err
		}
	}
	return nil
}

// detectWeakCSP follows loadUrl sites that resolve to a
// file:///android_asset/ URL, fetches the referenced asset, and checks
// its <meta http-equiv="Content-Security-Policy"> for absence or a
// permissive directive.
func (SecurityInsecureWebViewDetector) detectWeakCSP(ctx detect.Context, sink *detect.Sink) error {
	const assetPrefix = "file:///android_asset/"
	st := ctx.Store()
	q := st.Query()

	loadURL := store.NewPattern("invoke-", `;->loadUrl`)
	for op := range q.Invocations(loadURL) {
		qn := q.QualnameOf(op)
		if ctx.IsQualnameExcluded(qn) {
			continue
		}
		v, err := dataflow.SolvedConstantDataInInvocation(st, op, 0)
		if err != nil || !strings.HasPrefix(v, assetPrefix) {
			continue
		}
		assetPath := "root/assets/" + strings.TrimPrefix(v, assetPrefix)
		blob, ok := q.FileGet(context.Background(), assetPath)
		if !ok {
			continue
		}
		doc, err := manifest.Parse(blob)
		if err != nil {
			continue
		}
		csp := cspDirective(doc)
		if csp == "" || strings.Contains(strings.ToLower(csp), "unsafe") || strings.Contains(strings.ToLower(csp), "http:") {
			if err := sink.Raise(store.Issue{
				Confidence: store.Firm,
				CVSS:       "CVSS:3.0/AV:N/AC:L/PR:N/UI:R/S:U/C:L/I:L/A:N/",
				Summary:    "missing or permissive Content-Security-Policy",
				Info1:      csp,
				Source:     qn,
			}); err != nil {
				return err
			}
			continue
		}
		if err := sink.Raise(store.Issue{
			Confidence: store.Tentative,
			CVSS:       "CVSS:3.0/AV:N/AC:H/PR:N/UI:R/S:U/C:N/I:N/A:N/",
			Summary:    "Content-Security-Policy present",
			Info1:      csp,
			Source:     qn,
		}); err != nil {
			return err
		}
	}
	return nil
}

func cspDirective(doc *manifest.Document) string {
	for _, meta := range doc.XPath(`//meta[translate(@http-equiv,"ABCDEFGHIJKLMNOPQRSTUVWXYZ","abcdefghijklmnopqrstuvwxyz")="content-security-policy"]`) {
		if content := meta.SelectAttr("content"); content != "" {
			return content
		}
	}
	return ""
}

func isTruthy(v string) bool {
	n, err := parseIntLiteral(v)
	return err == nil && n != 0
}

func parseIntLiteral(v string) (int64, error) {
	v = strings.TrimSpace(v)
	base := 10
	if strings.HasPrefix(v, "0x") || strings.HasPrefix(v, "0X") {
		v = v[2:]
		base = 16
	}
	return strconv.ParseInt(v, base, 64)
}
