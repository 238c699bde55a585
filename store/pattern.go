package store

import "regexp"

// InvocationPattern narrows a query's candidate operations by an
// opcode/mnemonic prefix before evaluating a regular expression against
// the operation's last parameter (the method/field descriptor of an
// invoke, or the sole operand of a const-string). The prefix is the cheap filter; the
// regexp carries the precise condition.
type InvocationPattern struct {
	Prefix string
	Value  *regexp.Regexp
}

// NewPattern compiles value as a regular expression. It panics on an
// invalid pattern, since detector patterns are static and any mistake
// belongs to detector authoring time, not to a particular scan.
func NewPattern(prefix, value string) InvocationPattern {
	return InvocationPattern{Prefix: prefix, Value: regexp.MustCompile(value)}
}
