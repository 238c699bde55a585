package smali

import "regexp"

// tokenRe encodes the lexical grammar as one alternation: each
// alternative is tried left to right and the first to match at a given
// position wins.
var tokenRe = regexp.MustCompile(
	`:(?P<label>[a-z0-9_-]+)` +
		`|\{\s*(?P<multilabel>(?::[a-z0-9_-]+(?: \.\. )*)+\s*)\}` +
		`|\.(?P<directive>[a-z0-9_-]+)` +
		`|"(?P<string>.*)"` +
		`|#(?P<comment>.*)` +
		`|(?P<reg>[vp][0-9]+)` +
		`|\{(?P<multireg>[vp0-9,. ]+)\}` +
		`|(?P<id>[a-z][a-z/-]*[a-z0-9/-]*)` +
		`|(?P<reflike>[^ ]+)`,
)

var tokenGroups = tokenRe.SubexpNames()

// Lex tokenizes a single smali source line into its ordered tokens.
// Anything unmatched by an earlier alternative falls through to reflike,
// so every line yields at least one token unless its only non-space
// text is bare commas, which are discarded.
func Lex(line string) []*Op {
	var toks []*Op
	for _, m := range tokenRe.FindAllStringSubmatchIndex(line, -1) {
		for gi := 1; gi < len(tokenGroups); gi++ {
			name := tokenGroups[gi]
			if name == "" {
				continue
			}
			start, end := m[2*gi], m[2*gi+1]
			if start < 0 {
				continue
			}
			val := line[start:end]
			if name == "reflike" && val == "," {
				// a bare comma between register lists and call targets
				// carries no information and is discarded.
				break
			}
			toks = append(toks, &Op{Kind: Kind(name), Value: val})
			break
		}
	}
	return toks
}
