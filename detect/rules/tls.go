package rules

import (
	"strings"

	"github.com/smaliscan/smaliscan/dataflow"
	"github.com/smaliscan/smaliscan/detect"
	"github.com/smaliscan/smaliscan/store"
)

// SecurityTlsInterceptionDetector flags missing or weak certificate pinning: an
// absent network security config pin, a user-trusting NSC, or a
// checkServerTrusted/HostnameVerifier implementation that accepts
// everything.
type SecurityTlsInterceptionDetector struct{}

func (SecurityTlsInterceptionDetector) Option() string { return "security-tls-interception" }
func (SecurityTlsInterceptionDetector) Description() string {
	return "Detects certificate (non-)pinning"
}

func (d SecurityTlsInterceptionDetector) Detect(ctx detect.Context, sink *detect.Sink) error {
	const cvss = "CVSS:3.0/AV:N/AC:H/PR:H/UI:R/S:C/C:L/I:L/A:L/"
	const cvssInfo = "CVSS:3.0/AV:N/AC:L/PR:L/UI:N/S:U/C:N/I:N/A:N/"
	const summary = "insecure TLS connection"

	pinNSC := false
	if ctx.MinSDKVersion() > 23 && ctx.Manifest() != nil && !ctx.Manifest().DebuggableApplication() {
		pinNSC = true
	}

	for _, doc := range ctx.XMLResources() {
		if strings.ToLower(doc.RootTag()) != "network-security-config" {
			continue
		}
		for _, cert := range doc.XPath("//certificates") {
			if cert.SelectAttr("src") == "user" {
				pinNSC = false
				if err := sink.Raise(store.Issue{Confidence: store.Firm, CVSS: cvss, Summary: summary, Info1: "user-trusting network security config detected"}); err != nil {
					return err
				}
			}
			for _, pin := range doc.XPath(".//pins") {
				algo := pin.SelectAttr("digest")
				if algo == "" {
					algo = "(unknown)"
				}
				if err := sink.Raise(store.Issue{Confidence: store.Firm, CVSS: cvssInfo, Summary: "explicit certificate pinning", Info1: algo + ":" + pin.InnerText()}); err != nil {
					return err
				}
			}
		}
	}

	if pinNSC {
		return nil
	}
	pinsX509 := d.detectPlainPinsX509(ctx)
	if len(pinsX509) > 0 {
		return nil
	}
	pinsHostname := d.detectPlainPinsHostnameVerifier(ctx)
	if len(pinsHostname) > 0 {
		return nil
	}
	return sink.Raise(store.Issue{Confidence: store.Firm, CVSS: cvss, Summary: summary, Info1: "no pinning detected"})
}

// detectPlainPinsX509 looks for checkServerTrusted implementations that
// call something named "verify" or throw, narrowed by any custom
// SSLContext.init call whose second argument's typeset overlaps.
func (d SecurityTlsInterceptionDetector) detectPlainPinsX509(ctx detect.Context) map[string]struct{} {
	st := ctx.Store()
	q := st.Query()
	pins := map[string]struct{}{}

	verifyPattern := store.NewPattern("verify", "")
	throwPattern := store.NewPattern("throw", "")
	for m := range q.MethodsInClass("checkServerTrusted", "X509TrustManager") {
		hasVerify := false
		for range q.MatchesInMethod(m, verifyPattern) {
			hasVerify = true
			break
		}
		hasThrow := false
		for range q.MatchesInMethod(m, throwPattern) {
			hasThrow = true
			break
		}
		if !hasVerify && !hasThrow {
			continue
		}
		if name := q.ClassNameOf(q.ClassOfMethod(m)); name != "" {
			pins[name] = struct{}{}
		}
	}
	if len(pins) == 0 {
		return pins
	}

	customSSLContext := false
	initPattern := store.NewPattern("invoke-virtual", `Ljavax/net/ssl/SSLContext;->init`)
	for cl := range q.Invocations(initPattern) {
		customSSLContext = true
		pins = intersect(shortNames(dataflow.SolvedTypesetInInvocation(st, cl, 1)), pins)
	}
	if !customSSLContext {
		return map[string]struct{}{}
	}
	return pins
}

func (d SecurityTlsInterceptionDetector) detectPlainPinsHostnameVerifier(ctx detect.Context) map[string]struct{} {
	q := ctx.Store().Query()
	pins := map[string]struct{}{}
	pattern := store.NewPattern("invoke", `contains|equals|verify|Ljavax/net/ssl/SSLSession;->getPeerCertificates`)
	for m := range q.MethodsInClass(`verify(Ljava/lang/String;Ljavax/net/ssl/SSLSession;)Z`, "HostnameVerifier") {
		for range q.MatchesInMethod(m, pattern) {
			if name := q.ClassNameOf(q.ClassOfMethod(m)); name != "" {
				pins[name] = struct{}{}
			}
			break
		}
	}
	return pins
}

// shortNames reduces a set of "Lpkg/Class;" descriptors to their bare
// class names, matching the form Query.ClassNameOf returns.
func shortNames(descriptors map[string]struct{}) map[string]struct{} {
	out := make(map[string]struct{}, len(descriptors))
	for d := range descriptors {
		d = strings.TrimSuffix(strings.TrimPrefix(d, "L"), ";")
		if i := strings.LastIndexByte(d, '/'); i >= 0 {
			d = d[i+1:]
		}
		out[d] = struct{}{}
	}
	return out
}

func intersect(a, b map[string]struct{}) map[string]struct{} {
	out := map[string]struct{}{}
	for k := range a {
		if _, ok := b[k]; ok {
			out[k] = struct{}{}
		}
	}
	return out
}
