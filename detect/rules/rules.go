package rules

import "github.com/smaliscan/smaliscan/detect"

// All returns every concrete detector this package implements, in the
// stable order they are registered for a scan.
func All() []detect.Detector {
	return []detect.Detector{
		SecurityFilePermissionDetector{},
		SecurityTlsInterceptionDetector{},
		SecurityTamperableWebViewDetector{},
		SecurityInsecureWebViewDetector{},
		FormatStringDetector{},
		LogDetector{},
		ADBProbeDetector{},
		ClientXSSJQDetector{},
		SecurityFileWriteDetector{},
		SecurityInsecureRootedDetector{},
		SecuritySharedPreferencesDetector{},
	}
}

// NewRegistry builds a detect.Registry with every detector in All()
// already registered.
func NewRegistry() *detect.Registry {
	r := detect.NewRegistry()
	for _, d := range All() {
		r.Register(d)
	}
	return r
}
