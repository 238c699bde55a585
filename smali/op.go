// Package smali tokenizes and parses the textual smali disassembly of
// Android bytecode into a stream of operations.
package smali

// Kind is the closed set of token kinds the lexer recognizes.
type Kind string

const (
	KindDirective  Kind = "directive"
	KindID         Kind = "id"
	KindReg        Kind = "reg"
	KindMultiReg   Kind = "multireg"
	KindString     Kind = "string"
	KindLabel      Kind = "label"
	KindMultiLabel Kind = "multilabel"
	KindComment    Kind = "comment"
	KindRefLike    Kind = "reflike"
)

// Op is the atomic unit of a disassembled smali file: a token kind and
// value, plus the remaining tokens on the same source line as parameters.
//
// A head op (Idx == 0) represents either an instruction mnemonic or a
// directive; its Params hold the rest of the line, indexed 1..n.
type Op struct {
	Kind  Kind
	Value string
	P     []*Op

	ID  int64 // dense identifier assigned at index time; zero until indexed
	Idx int   // position within the source line

	annotation bool
	param      bool
	Block      []string // raw captured lines for Annotation/Param ops only
}

// Eq reports whether the op's kind and value match exactly.
func (o *Op) Eq(kind Kind, value string) bool {
	return o != nil && o.Kind == kind && o.Value == value
}

// IsAnnotation reports whether this op is an Annotation block head.
func (o *Op) IsAnnotation() bool { return o != nil && o.annotation }

// IsParam reports whether this op is a single-argument Param block head.
func (o *Op) IsParam() bool { return o != nil && o.param }

func newAnnotation(head *Op, block []string) *Op {
	return &Op{Kind: head.Kind, Value: head.Value, P: head.P, annotation: true, Block: block}
}

func newParam(head *Op, block []string) *Op {
	return &Op{Kind: head.Kind, Value: head.Value, P: head.P, param: true, Block: block}
}
