package rules

import (
	"regexp"

	"github.com/smaliscan/smaliscan/detect"
	"github.com/smaliscan/smaliscan/store"
)

// rootPathRe extracts an absolute path from a string literal, the way
// root-detection code tends to embed "/system/xbin/su" style checks.
var rootPathRe = regexp.MustCompile(`/[\w./-]+`)

// rootIndicatorRe narrows extracted paths to the handful of substrings
// that actually indicate a root-probing path rather than any absolute
// path literal in the app.
var rootIndicatorRe = regexp.MustCompile(`Sup|su|xbin|sbin|root`)

var attestPattern = store.NewPattern("invoke-virtual", `Lcom/google/android/gms/safetynet/SafetyNetClient;->attest\(`)
var attestEvidencePattern = store.NewPattern("", `ctsProfileMatch|basicIntegrity`)

// SecurityInsecureRootedDetector flags apps that implement only one of the two
// common strategies for detecting a rooted device: filesystem-path
// probing or a SafetyNet attestation round-trip. An app relying on
// exactly one is assumed fragile; an app using both, or neither, is not
// reported by this rule: both-present is a defense-in-depth choice this
// rule does not second-guess, and neither-present is out of its scope.
type SecurityInsecureRootedDetector struct{}

func (SecurityInsecureRootedDetector) Option() string { return "security-insecure-rooted" }
func (SecurityInsecureRootedDetector) Description() string {
	return "Detects reliance on a single root-detection strategy"
}

func (SecurityInsecureRootedDetector) Detect(ctx detect.Context, sink *detect.Sink) error {
	const cvss = "CVSS:3.0/AV:L/AC:H/PR:N/UI:N/S:U/C:N/I:L/A:N/"
	const summary = "single-strategy root detection"

	st := ctx.Store()
	q := st.Query()

	pathBased := false
	var examplePath string
	constPattern := store.NewPattern("const-string", ``)
	for op := range q.Consts(constPattern) {
		if len(op.P) == 0 {
			continue
		}
		if match := rootPathRe.FindString(op.P[len(op.P)-1].Value); match != "" && rootIndicatorRe.MatchString(match) {
			pathBased = true
			examplePath = match
			break
		}
	}
	if !pathBased {
		for _, v := range ctx.StringResources() {
			if match := rootPathRe.FindString(v); match != "" && rootIndicatorRe.MatchString(match) {
				pathBased = true
				examplePath = match
				break
			}
		}
	}

	attested := false
	for op := range q.Invocations(attestPattern) {
		methodOp := q.MethodOf(op)
		if methodOp == nil {
			continue
		}
		for range q.MatchesInMethod(methodOp, attestEvidencePattern) {
			attested = true
			break
		}
		if attested {
			break
		}
	}

	if pathBased == attested {
		return nil
	}

	info1 := "SafetyNet attestation only"
	if pathBased {
		info1 = "path probing only (" + examplePath + ")"
	}
	return sink.Raise(store.Issue{
		Confidence: store.Tentative,
		CVSS:       cvss,
		Summary:    summary,
		Info1:      info1,
	})
}
