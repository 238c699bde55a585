package store

import (
	"context"
	"strings"

	"github.com/smaliscan/smaliscan/repository"
	"github.com/smaliscan/smaliscan/smali"
)

// Query is a read-only handle over a Store's indexed facts. Every
// method is safe to call concurrently with any other Query method,
// since indexing has already completed by the time a Query exists.
type Query struct {
	s *Store
}

// FileEnum lazily yields every file under the repository whose relative
// path matches a SQL LIKE-style glob, e.g. "smali/%.smali".
func (q *Query) FileEnum(ctx context.Context, glob string) func(yield func(repository.File) bool) {
	return q.s.repo.Enum(ctx, glob)
}

// FileGet retrieves a single file's content by relative path.
func (q *Query) FileGet(ctx context.Context, path string) ([]byte, bool) {
	return q.s.repo.Get(ctx, path)
}

func matchesPattern(op *smali.Op, p InvocationPattern) bool {
	if op.Idx != 0 || !strings.HasPrefix(op.Value, p.Prefix) {
		return false
	}
	return p.Value.MatchString(invocationTarget(op))
}

// invocationTarget returns the operand a pattern's value regex is
// matched against: for invoke-*/iget*/sget* ops this is the trailing
// method-or-field descriptor, not the leading register list; for every
// other op (const-string, .super, ...) there is only one parameter and
// it is both the first and the last.
func invocationTarget(op *smali.Op) string {
	if len(op.P) == 0 {
		return ""
	}
	return op.P[len(op.P)-1].Value
}

// Invocations yields every top-level op across the whole store whose
// mnemonic begins with pattern's prefix and whose invocation target
// (the method/field descriptor, or the sole literal for single-operand
// ops like const-string) matches pattern's regexp.
func (q *Query) Invocations(pattern InvocationPattern) func(yield func(*smali.Op) bool) {
	return func(yield func(*smali.Op) bool) {
		for _, op := range q.s.ops {
			if matchesPattern(op, pattern) {
				if !yield(op) {
					return
				}
			}
		}
	}
}

// InvocationsInClass is Invocations restricted to the class range
// enclosing classOp (typically a `.class` op returned by RelatedClasses
// or ClassOfMethod).
func (q *Query) InvocationsInClass(classOp *smali.Op, pattern InvocationPattern) func(yield func(*smali.Op) bool) {
	return q.scanRange(classOp.ID, pattern, true)
}

// Consts is Invocations, conventionally used with const-* prefixes.
func (q *Query) Consts(pattern InvocationPattern) func(yield func(*smali.Op) bool) {
	return q.Invocations(pattern)
}

// ConstsInClass is InvocationsInClass, conventionally used with
// const-* prefixes.
func (q *Query) ConstsInClass(classOp *smali.Op, pattern InvocationPattern) func(yield func(*smali.Op) bool) {
	return q.InvocationsInClass(classOp, pattern)
}

func (q *Query) scanRange(id int64, pattern InvocationPattern, isClass bool) func(yield func(*smali.Op) bool) {
	return func(yield func(*smali.Op) bool) {
		var start, end int64
		if isClass {
			cr, ok := q.s.classRangeContaining(id)
			if !ok {
				return
			}
			start, end = cr.start, cr.end
		} else {
			mr, ok := q.s.methodRangeContaining(id)
			if !ok {
				return
			}
			start, end = mr.start, mr.end
		}
		for i := start; i <= end; i++ {
			op := q.s.opAt(i)
			if op != nil && matchesPattern(op, pattern) {
				if !yield(op) {
					return
				}
			}
		}
	}
}

// MatchesInMethod yields ops inside methodOp's range matching pattern.
// Unlike the class-scoped queries above, the prefix here is matched
// against either the mnemonic or the invocation target, since the
// mnemonic alone cannot express "calls a method named X" the way the
// concrete security detectors need it to.
func (q *Query) MatchesInMethod(methodOp *smali.Op, pattern InvocationPattern) func(yield func(*smali.Op) bool) {
	return func(yield func(*smali.Op) bool) {
		mr, ok := q.s.methodRangeContaining(methodOp.ID)
		if !ok {
			return
		}
		for i := mr.start; i <= mr.end; i++ {
			op := q.s.opAt(i)
			if op == nil || op.Idx != 0 {
				continue
			}
			target := invocationTarget(op)
			if !strings.Contains(op.Value, pattern.Prefix) && !strings.Contains(target, pattern.Prefix) {
				continue
			}
			if !pattern.Value.MatchString(target) {
				continue
			}
			if !yield(op) {
				return
			}
		}
	}
}

// MethodsInClass yields `.method` head ops whose method signature
// contains methodSelector, inside classes whose own descriptor, or
// whose superclass/interface descriptors, contain classSelector. The
// supertype match matters in practice: a TrustManager implementation is
// named after the app, not after the interface it implements.
func (q *Query) MethodsInClass(methodSelector, classSelector string) func(yield func(*smali.Op) bool) {
	return func(yield func(*smali.Op) bool) {
		for ci, cr := range q.s.classes {
			classOp := q.s.opAt(cr.start)
			if classOp == nil || !q.s.classMentions(cr, classSelector) {
				continue
			}
			for _, mr := range q.s.methods {
				if mr.classIdx != ci {
					continue
				}
				methodOp := q.s.opAt(mr.start)
				if methodOp == nil || !strings.Contains(methodSignature(methodOp), methodSelector) {
					continue
				}
				if !yield(methodOp) {
					return
				}
			}
		}
	}
}

// RelatedClasses yields the `.class` head op of every class whose
// `.super` or any `.implements` descriptor matches regexUnion (a
// regexp alternation such as "WebView|XWalkView|GeckoView").
func (q *Query) RelatedClasses(regexUnion InvocationPattern) func(yield func(*smali.Op) bool) {
	return func(yield func(*smali.Op) bool) {
		for _, cr := range q.s.classes {
			matched := false
			for i := cr.start; i <= cr.end && !matched; i++ {
				op := q.s.opAt(i)
				if op == nil || op.Idx != 0 {
					continue
				}
				if !op.Eq(smali.KindDirective, "super") && !op.Eq(smali.KindDirective, "implements") {
					continue
				}
				if len(op.P) > 0 && regexUnion.Value.MatchString(op.P[0].Value) {
					matched = true
				}
			}
			if matched {
				if !yield(q.s.opAt(cr.start)) {
					return
				}
			}
		}
	}
}

// ClassOfMethod returns the `.class` head op of the class enclosing op,
// whether op is itself a method head or any op inside one.
func (q *Query) ClassOfMethod(op *smali.Op) *smali.Op {
	cr, ok := q.s.classRangeContaining(op.ID)
	if !ok {
		return nil
	}
	return q.s.opAt(cr.start)
}

// ClassNameOf reduces a `.class` op to its bare class name, e.g. "Foo"
// for "Lcom/example/Foo;".
func (q *Query) ClassNameOf(classOp *smali.Op) string {
	if classOp == nil {
		return ""
	}
	return shortClassName(classDescriptor(classOp))
}

// QualnameOf returns "Lclass;->signature" for an op inside a method, or
// "" if op is not enclosed by any indexed method.
func (q *Query) QualnameOf(op *smali.Op) string {
	mr, ok := q.s.methodRangeContaining(op.ID)
	if !ok {
		return ""
	}
	methodOp := q.s.opAt(mr.start)
	if methodOp == nil || mr.classIdx < 0 {
		return ""
	}
	classOp := q.s.opAt(q.s.classes[mr.classIdx].start)
	return classDescriptor(classOp) + "->" + methodSignature(methodOp)
}

// MethodOf returns the `.method` head op enclosing op, or nil.
func (q *Query) MethodOf(op *smali.Op) *smali.Op {
	mr, ok := q.s.methodRangeContaining(op.ID)
	if !ok {
		return nil
	}
	return q.s.opAt(mr.start)
}
