// Package store holds the indexed, queryable fact base produced from a
// disassembled APK: every operation assigned a dense identifier, class
// and method ranges over those identifiers, and the issue table
// detectors populate.
package store

import (
	"strings"
	"sync"

	"github.com/smaliscan/smaliscan/repository"
	"github.com/smaliscan/smaliscan/smali"
)

type classRange struct {
	start, end int64
}

type methodRange struct {
	start, end int64
	classIdx   int
}

// Store is the append-only fact base. Indexing holds an exclusive lock;
// once Index returns, every Query method only ever reads, so concurrent
// detectors see a stable snapshot without further synchronization.
type Store struct {
	mu sync.RWMutex

	repo repository.Repository

	ops     []*smali.Op // dense: ops[i] has ID == int64(i+1)
	classes []classRange
	methods []methodRange

	issues []Issue
	seen   map[uint64]struct{}
}

func newStore(repo repository.Repository) *Store {
	return &Store{repo: repo, seen: make(map[uint64]struct{})}
}

// Query returns a handle for read-only fact queries over the store.
func (s *Store) Query() *Query {
	return &Query{s: s}
}

// OpCount reports how many operations were indexed.
func (s *Store) OpCount() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.ops))
}

func (s *Store) opAt(id int64) *smali.Op {
	if id < 1 || int(id) > len(s.ops) {
		return nil
	}
	return s.ops[id-1]
}

// OpAt returns the op with the given dense identifier, or nil if id is
// out of range. Exported for the dataflow solver, which walks ops by id
// across method and class boundaries the Query API doesn't expose
// directly.
func (s *Store) OpAt(id int64) *smali.Op {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.opAt(id)
}

// ClassRange is the [Start, End] dense-identifier span of a class.
type ClassRange struct {
	Start, End int64
}

// classRangeContaining returns the class range enclosing id, if any.
func (s *Store) classRangeContaining(id int64) (classRange, bool) {
	for _, cr := range s.classes {
		if id >= cr.start && id <= cr.end {
			return cr, true
		}
	}
	return classRange{}, false
}

// ClassRangeContaining returns the class range enclosing id, if any.
func (s *Store) ClassRangeContaining(id int64) (ClassRange, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cr, ok := s.classRangeContaining(id)
	return ClassRange{Start: cr.start, End: cr.end}, ok
}

// methodRangeContaining returns the method range enclosing id, if any.
func (s *Store) methodRangeContaining(id int64) (methodRange, bool) {
	for _, mr := range s.methods {
		if id >= mr.start && id <= mr.end {
			return mr, true
		}
	}
	return methodRange{}, false
}

// MethodRange is the [Start, End] dense-identifier span of a method.
type MethodRange struct {
	Start, End int64
}

// MethodRangeContaining returns the method range enclosing id, if any.
// Exported for the dataflow solver, which must bound its backward walk
// to the enclosing method rather than the whole store.
func (s *Store) MethodRangeContaining(id int64) (MethodRange, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	mr, ok := s.methodRangeContaining(id)
	return MethodRange{Start: mr.start, End: mr.end}, ok
}

// classMentions reports whether selector occurs in the class's own
// descriptor or in any of its .super/.implements descriptors.
func (s *Store) classMentions(cr classRange, selector string) bool {
	classOp := s.opAt(cr.start)
	if classOp == nil {
		return false
	}
	if strings.Contains(classDescriptor(classOp), selector) {
		return true
	}
	for i := cr.start; i <= cr.end; i++ {
		op := s.opAt(i)
		if op == nil || op.Idx != 0 {
			continue
		}
		if !op.Eq(smali.KindDirective, "super") && !op.Eq(smali.KindDirective, "implements") {
			continue
		}
		if len(op.P) > 0 && strings.Contains(op.P[0].Value, selector) {
			return true
		}
	}
	return false
}

// classDescriptor returns the raw type descriptor of a `.class` op, e.g.
// "Lcom/example/Foo;".
func classDescriptor(classOp *smali.Op) string {
	for i := len(classOp.P) - 1; i >= 0; i-- {
		v := classOp.P[i].Value
		if strings.HasPrefix(v, "L") && strings.HasSuffix(v, ";") {
			return v
		}
	}
	if len(classOp.P) > 0 {
		return classOp.P[len(classOp.P)-1].Value
	}
	return ""
}

// shortClassName reduces a type descriptor to its bare class name, e.g.
// "Lcom/example/Foo;" -> "Foo".
func shortClassName(descriptor string) string {
	d := strings.TrimSuffix(strings.TrimPrefix(descriptor, "L"), ";")
	if i := strings.LastIndexByte(d, '/'); i >= 0 {
		d = d[i+1:]
	}
	return d
}

// methodAccessWords are the access and modifier keywords that may
// precede the name on a .method line. Anything else sitting directly
// before the parenthesized token is a fragment of the method name.
var methodAccessWords = map[string]struct{}{
	"public": {}, "private": {}, "protected": {}, "static": {},
	"final": {}, "abstract": {}, "native": {}, "bridge": {},
	"varargs": {}, "synthetic": {}, "constructor": {},
	"synchronized": {}, "declared-synchronized": {}, "strictfp": {},
}

// methodSignature returns a .method op's "name(args)ret" string, e.g.
// "onReceive(Landroid/content/Context;Landroid/content/Intent;)V".
// The lexer's id class is lowercase-only, so a name like onReceive
// splits into a leading id fragment ("on") and a remainder holding the
// parenthesis ("Receive(...)V"); the fragment is rejoined here. A
// modifier keyword before the parenthesized token (as in
// "constructor <init>()V") is not part of the name and is left alone.
func methodSignature(methodOp *smali.Op) string {
	for i, p := range methodOp.P {
		if !strings.Contains(p.Value, "(") {
			continue
		}
		sig := p.Value
		if i > 0 {
			prev := methodOp.P[i-1]
			if prev.Kind == smali.KindID {
				if _, mod := methodAccessWords[prev.Value]; !mod {
					sig = prev.Value + sig
				}
			}
		}
		return sig
	}
	return ""
}

// RegistersOf returns the ordered register names an instruction
// operates on, whether expressed as a single multireg token
// ("{v0,v1,v2}") or as consecutive individual reg tokens.
func RegistersOf(op *smali.Op) []string {
	if len(op.P) == 0 {
		return nil
	}
	if op.P[0].Kind == smali.KindMultiReg {
		raw := strings.Trim(op.P[0].Value, "{} ")
		var regs []string
		for _, part := range strings.Split(raw, ",") {
			part = strings.TrimSpace(part)
			if part != "" {
				regs = append(regs, part)
			}
		}
		return regs
	}
	var regs []string
	for _, p := range op.P {
		if p.Kind != smali.KindReg {
			break
		}
		regs = append(regs, p.Value)
	}
	return regs
}
