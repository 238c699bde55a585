// Package detect provides the detector framework: the Context detectors
// query against, the Detector contract itself, a registry, and a
// concurrent scheduler that runs every selected detector over one
// indexed store.
package detect

import (
	"strings"

	"github.com/smaliscan/smaliscan/manifest"
	"github.com/smaliscan/smaliscan/store"
)

// Context is everything a Detector needs beyond the raw fact store:
// parsed manifest data, resource tables, and the exclusion policy
// selected for this run.
type Context interface {
	Store() *store.Store
	MinSDKVersion() int
	Manifest() *manifest.Manifest
	XMLResources() map[string]*manifest.Document
	StringResources() map[string]string
	ClassNameOfDalvikClassType(descriptor string) string
	SourceNameOfDisassembledResource(path string) string
	IsQualnameExcluded(qualname string) bool
}

// AnalysisContext is the concrete Context built once per scan.
type AnalysisContext struct {
	St           *store.Store
	Manif        *manifest.Manifest
	XMLRes       map[string]*manifest.Document
	StringRes    map[string]string
	ExcludeGlobs []string
}

func (c *AnalysisContext) Store() *store.Store { return c.St }

func (c *AnalysisContext) MinSDKVersion() int {
	if c.Manif == nil {
		return 1
	}
	return c.Manif.MinSDKVersion()
}

func (c *AnalysisContext) Manifest() *manifest.Manifest { return c.Manif }

func (c *AnalysisContext) XMLResources() map[string]*manifest.Document { return c.XMLRes }

func (c *AnalysisContext) StringResources() map[string]string { return c.StringRes }

// ClassNameOfDalvikClassType strips a Dalvik type descriptor down to its
// dotted Java class name, e.g. "Lcom/example/Foo;" -> "com.example.Foo".
func (c *AnalysisContext) ClassNameOfDalvikClassType(descriptor string) string {
	d := strings.TrimSuffix(strings.TrimPrefix(descriptor, "L"), ";")
	return strings.ReplaceAll(d, "/", ".")
}

// SourceNameOfDisassembledResource maps a smali file's repository path
// to the display name used in issue reports, e.g.
// "smali/com/example/Foo.smali" -> "com/example/Foo.smali".
func (c *AnalysisContext) SourceNameOfDisassembledResource(path string) string {
	return strings.TrimPrefix(path, "smali/")
}

// IsQualnameExcluded reports whether qualname matches any configured
// exclusion glob ('%' wildcard, SQL LIKE style, matched against the
// whole qualname: a pattern without a leading or trailing '%' is
// anchored at that end).
func (c *AnalysisContext) IsQualnameExcluded(qualname string) bool {
	for _, glob := range c.ExcludeGlobs {
		if globMatch(glob, qualname) {
			return true
		}
	}
	return false
}

// globMatch matches a '%'-wildcard pattern against s, case-sensitively.
func globMatch(pattern, s string) bool {
	parts := strings.Split(pattern, "%")
	if len(parts) == 1 {
		return pattern == s
	}
	if !strings.HasPrefix(s, parts[0]) {
		return false
	}
	s = s[len(parts[0]):]
	for _, part := range parts[1 : len(parts)-1] {
		i := strings.Index(s, part)
		if i < 0 {
			return false
		}
		s = s[i+len(part):]
	}
	return strings.HasSuffix(s, parts[len(parts)-1])
}
