package manifest

// StringResources extracts name/value pairs from a values/strings.xml
// style resource document: <resources><string name="foo">bar</string>...
func StringResources(doc *Document) map[string]string {
	out := map[string]string{}
	for _, n := range doc.XPath("//string[@name]") {
		name := n.SelectAttr("name")
		if name == "" {
			continue
		}
		out[name] = n.InnerText()
	}
	return out
}
