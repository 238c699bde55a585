package rules

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/antchfx/xmlquery"
)

// layoutSizeTable is keyed by Android's generalized screen size
// qualifiers; values are (width, height) reference dp.
var layoutSizeTable = map[string][2]float64{
	"small":  {320, 426},
	"normal": {320, 470},
	"large":  {480, 640},
	"xlarge": {720, 960},
}

var dpSuffixRe = regexp.MustCompile(`di?p$`)
var nonDigitRe = regexp.MustCompile(`[^0-9-]`)

// guessedSize estimates what fraction of the screen a layout element
// occupies, so a fullscreen WebView can be told apart from a small
// decorative one. Only the element's own layout_width/layout_height
// attributes are consulted, never its containers'; an element with
// unbound dimensions is assumed to fill the bucket.
func guessedSize(node *xmlquery.Node, resourcePath string) float64 {
	refW, refH := dpsFromModifiers(modifiersIn(resourcePath))

	widthAttr := node.SelectAttr("android:layout_width")
	heightAttr := node.SelectAttr("android:layout_height")
	if widthAttr == "" || heightAttr == "" {
		return 1.0
	}
	if isBound(widthAttr) || isBound(heightAttr) {
		return guessedDP(widthAttr, refW) * guessedDP(heightAttr, refH)
	}
	return 1.0
}

func dpsFromModifiers(mods map[string]bool) (float64, float64) {
	x, y := layoutSizeTable["large"][0], layoutSizeTable["large"][1]
	for name, dims := range layoutSizeTable {
		if mods[name] {
			x, y = dims[0], dims[1]
			break
		}
	}
	if mods["land"] {
		return y, x
	}
	return x, y
}

func isBound(x string) bool {
	return x != "fill_parent" && x != "match_parent" && x != "wrap_content"
}

func guessedDP(x string, dp float64) float64 {
	if !isBound(x) {
		return dp
	}
	stripped := dpSuffixRe.ReplaceAllString(x, "")
	if v, err := strconv.ParseFloat(stripped, 64); err == nil {
		return v / dp
	}
	digits := nonDigitRe.ReplaceAllString(x, "")
	if v, err := strconv.ParseFloat(digits, 64); err == nil {
		return v / dp
	}
	return 0.0
}

// modifiersIn extracts the resource-qualifier set from a layout
// resource's path, e.g. "res/layout-land-large/main.xml" ->
// {layout,land,large}.
func modifiersIn(resourcePath string) map[string]bool {
	out := map[string]bool{}
	for _, component := range strings.Split(resourcePath, "/") {
		if !strings.Contains(component, "layout") {
			continue
		}
		for _, mod := range strings.Split(component, "-") {
			out[mod] = true
		}
		break
	}
	return out
}
