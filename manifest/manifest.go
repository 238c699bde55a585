// Package manifest parses AndroidManifest.xml, network security
// configs, layout resources, and string resources using a forgiving XML
// parser, mirroring how a real-world APK's XML is rarely strictly
// well-formed after an imperfect repackaging tool has touched it.
package manifest

import (
	"bytes"
	"strconv"

	"github.com/antchfx/xmlquery"
)

// Document is a parsed XML resource together with the literal XPath
// query surface detectors use against it.
type Document struct {
	root *xmlquery.Node
}

// Parse parses blob as XML, recovering from malformed markup rather
// than failing the whole resource the way a strict parser would.
func Parse(blob []byte) (*Document, error) {
	root, err := xmlquery.ParseWithOptions(bytes.NewReader(blob), xmlquery.ParserOptions{
		Decoder: &xmlquery.DecoderOptions{Strict: false},
	})
	if err != nil {
		return nil, err
	}
	return &Document{root: root}, nil
}

// XPath evaluates expr (a literal XPath 1.0 expression) against the
// document root, returning every matching node. A malformed expression
// or a nil document yields nil; no matches yields an empty result.
func (d *Document) XPath(expr string) []*xmlquery.Node {
	if d == nil || d.root == nil {
		return nil
	}
	nodes, err := xmlquery.QueryAll(d.root, expr)
	if err != nil {
		return nil
	}
	return nodes
}

// Root exposes the underlying parsed node tree for callers that need
// direct xmlquery access beyond XPath (e.g. walking every element).
func (d *Document) Root() *xmlquery.Node { return d.root }

// RootTag returns the document's root element name (e.g.
// "network-security-config"), or "" if the document has no element
// child. Resource identity is determined by content, not by file
// naming: Android resource file names cannot contain hyphens, so a
// hyphenated root tag can never be recovered from the path alone.
func (d *Document) RootTag() string {
	if d == nil || d.root == nil {
		return ""
	}
	for n := d.root.FirstChild; n != nil; n = n.NextSibling {
		if n.Type == xmlquery.ElementNode {
			return n.Data
		}
	}
	return ""
}

// Manifest is the parsed AndroidManifest.xml plus the attributes
// detectors consult most often.
type Manifest struct {
	Doc *Document
}

// ParseManifest parses an AndroidManifest.xml blob.
func ParseManifest(blob []byte) (*Manifest, error) {
	doc, err := Parse(blob)
	if err != nil {
		return nil, err
	}
	return &Manifest{Doc: doc}, nil
}

// PackageName returns the manifest's package attribute, or "" if absent.
func (m *Manifest) PackageName() string {
	nodes := m.Doc.XPath("/manifest/@package")
	if len(nodes) == 0 {
		return ""
	}
	return nodes[0].InnerText()
}

// MinSDKVersion returns uses-sdk/@minSdkVersion, defaulting to 1 (the
// Android platform default) when absent or unparsable.
func (m *Manifest) MinSDKVersion() int {
	nodes := m.Doc.XPath("/manifest/uses-sdk/@android:minSdkVersion")
	if len(nodes) == 0 {
		return 1
	}
	v, err := strconv.Atoi(nodes[0].InnerText())
	if err != nil {
		return 1
	}
	return v
}

// DebuggableApplication reports whether application/@android:debuggable
// is the literal string "true".
func (m *Manifest) DebuggableApplication() bool {
	nodes := m.Doc.XPath(`/manifest/application[@android:debuggable="true"]`)
	return len(nodes) > 0
}
