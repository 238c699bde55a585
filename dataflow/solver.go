// Package dataflow provides a best-effort, intraprocedural backward
// dataflow solver over a store's indexed method bodies: given an
// invocation site and an argument position, what value, set of possible
// values, or set of concrete types could have reached that register.
//
// The solver favors recall over soundness: it resolves move chains,
// folds constant literals, follows field reads to a unique initializer
// within the same class, and unions across predecessor branches at
// control-flow join points. It makes no claim of completeness in the
// presence of aliasing, reflection, or inter-procedural flow.
package dataflow

import (
	"errors"
	"strings"

	"github.com/smaliscan/smaliscan/smali"
	"github.com/smaliscan/smaliscan/store"
)

// ErrNoSuchValue is returned when a register's reaching value cannot be
// resolved to a single constant: it was never written within the
// enclosing method, its writer is not a literal producer, or more than
// one distinct literal reaches the site via different branches.
var ErrNoSuchValue = errors.New("dataflow: no resolvable constant value")

// writer opcode families that define a destination register.
var writerPrefixes = []string{"const", "move", "new-instance", "new-array", "iget", "sget", "check-cast"}

func isWriter(op *smali.Op) bool {
	for _, p := range writerPrefixes {
		if strings.HasPrefix(op.Value, p) {
			return true
		}
	}
	return false
}

func destRegister(op *smali.Op) (string, bool) {
	if len(op.P) == 0 || op.P[0].Kind != smali.KindReg {
		return "", false
	}
	return op.P[0].Value, true
}

// result accumulates what a backward walk discovered about a register.
type result struct {
	values    map[string]struct{} // constant literal values reaching the site
	types     map[string]struct{} // concrete type descriptors reaching the site
	ambiguous bool                // a non-literal producer (call return, field w/o unique init) was found
}

func newResult() *result {
	return &result{values: map[string]struct{}{}, types: map[string]struct{}{}}
}

// walker performs the shared backward traversal used by all three
// public solve entry points; it differs only in which fields of result
// it populates.
type walker struct {
	s       *store.Store
	q       *store.Query
	method  methodBounds
	visited map[int64]struct{}
}

type methodBounds struct {
	start, end int64
}

func newWalker(s *store.Store, site *smali.Op) (*walker, bool) {
	q := s.Query()
	methodOp := q.MethodOf(site)
	if methodOp == nil {
		return nil, false
	}
	mr, ok := s.MethodRangeContaining(site.ID)
	if !ok {
		return nil, false
	}
	return &walker{s: s, q: q, method: methodBounds{start: mr.Start, end: mr.End}, visited: map[int64]struct{}{}}, true
}

// solve walks backward from site looking for writers of the register at
// argIndex, populating res according to collectTypes. argIndex counts
// only the explicit, declared method arguments: for every invoke kind
// but invoke-static the first register in the invocation is the
// implicit receiver and is skipped.
func (w *walker) solve(site *smali.Op, argIndex int, res *result, collectTypes bool) {
	regs := registersOfOp(site)
	if !strings.HasPrefix(site.Value, "invoke-static") && len(regs) > 0 {
		regs = regs[1:]
	}
	if argIndex < 0 || argIndex >= len(regs) {
		res.ambiguous = true
		return
	}
	jumpTargets := w.buildJumpIndex()
	frontier := []int64{site.ID - 1}
	for len(frontier) > 0 {
		pos := frontier[len(frontier)-1]
		frontier = frontier[:len(frontier)-1]
		w.scanBackwardFrom(pos, regs[argIndex], res, collectTypes, jumpTargets, &frontier)
	}
}

func (w *walker) scanBackwardFrom(pos int64, reg string, res *result, collectTypes bool, jumpTargets map[string][]int64, frontier *[]int64) {
	for cur := pos; cur >= w.method.start; cur-- {
		op := w.opAt(cur)
		if op == nil {
			continue
		}
		if _, done := w.visited[op.ID]; done {
			return
		}
		w.visited[op.ID] = struct{}{}

		if op.Idx != 0 {
			continue // only head ops can be writers or labels
		}

		if op.Kind == smali.KindLabel {
			for _, pred := range jumpTargets[op.Value] {
				if pred < w.method.start {
					continue
				}
				*frontier = append(*frontier, pred)
			}
			continue
		}

		if !isWriter(op) {
			continue
		}
		dest, ok := destRegister(op)
		if !ok || dest != reg {
			continue
		}
		w.resolveWriter(op, reg, res, collectTypes, jumpTargets, frontier)
		return
	}
}

func (w *walker) resolveWriter(op *smali.Op, reg string, res *result, collectTypes bool, jumpTargets map[string][]int64, frontier *[]int64) {
	switch {
	case strings.HasPrefix(op.Value, "const"):
		if op.Value == "const-class" && len(op.P) > 1 {
			res.types[op.P[1].Value] = struct{}{}
		}
		if len(op.P) > 1 {
			res.values[op.P[1].Value] = struct{}{}
		} else {
			res.ambiguous = true
		}

	case strings.HasPrefix(op.Value, "move-result") || op.Value == "move-exception":
		res.ambiguous = true

	case strings.HasPrefix(op.Value, "move"):
		if len(op.P) > 1 && op.P[1].Kind == smali.KindReg {
			// chase the move chain to its source register, from just
			// above this op.
			w.scanBackwardFrom(op.ID-1, op.P[1].Value, res, collectTypes, jumpTargets, frontier)
		} else {
			res.ambiguous = true
		}

	case strings.HasPrefix(op.Value, "new-instance"):
		if collectTypes && len(op.P) > 1 {
			res.types[op.P[1].Value] = struct{}{}
		}
		res.ambiguous = true

	case strings.HasPrefix(op.Value, "new-array"):
		res.ambiguous = true

	case op.Value == "check-cast":
		if collectTypes && len(op.P) > 1 {
			res.types[op.P[1].Value] = struct{}{}
		}
		// check-cast narrows type but does not redefine the value;
		// keep walking backward transparently for the same register.
		w.scanBackwardFrom(op.ID-1, reg, res, collectTypes, jumpTargets, frontier)

	case strings.HasPrefix(op.Value, "iget") || strings.HasPrefix(op.Value, "sget"):
		w.resolveFieldRead(op, res)

	default:
		res.ambiguous = true
	}
}

// resolveFieldRead follows an iget/sget to a unique `.field` initializer
// within the same class, if one exists.
func (w *walker) resolveFieldRead(op *smali.Op, res *result) {
	if len(op.P) == 0 {
		res.ambiguous = true
		return
	}
	fieldRef := op.P[len(op.P)-1].Value // "Lclass;->name:Type"
	idx := strings.Index(fieldRef, "->")
	if idx < 0 {
		res.ambiguous = true
		return
	}
	nameType := fieldRef[idx+2:]

	cr, ok := w.s.ClassRangeContaining(op.ID)
	if !ok {
		res.ambiguous = true
		return
	}
	var matches []string
	for i := cr.Start; i <= cr.End; i++ {
		cand := w.opAt(i)
		if cand == nil || cand.Idx != 0 || !cand.Eq(smali.KindDirective, "field") {
			continue
		}
		if !fieldDeclares(cand, nameType) {
			continue
		}
		if v, ok := fieldInitializer(cand); ok {
			matches = append(matches, v)
		}
	}
	if len(matches) == 1 {
		res.values[matches[0]] = struct{}{}
		return
	}
	res.ambiguous = true
}

func fieldDeclares(fieldOp *smali.Op, nameType string) bool {
	for _, p := range fieldOp.P {
		if p.Value == nameType {
			return true
		}
	}
	return false
}

func fieldInitializer(fieldOp *smali.Op) (string, bool) {
	if len(fieldOp.P) == 0 {
		return "", false
	}
	last := fieldOp.P[len(fieldOp.P)-1]
	if last.Value == "=" {
		return "", false
	}
	// the token immediately before the value, if present, must be "=";
	// otherwise there is no initializer to fold.
	if len(fieldOp.P) >= 2 && fieldOp.P[len(fieldOp.P)-2].Value != "=" {
		return "", false
	}
	return last.Value, true
}

func (w *walker) opAt(id int64) *smali.Op {
	return w.s.OpAt(id)
}

// buildJumpIndex maps each label name to the op IDs of branch
// instructions (goto*/if-*) within the method that target it.
func (w *walker) buildJumpIndex() map[string][]int64 {
	idx := map[string][]int64{}
	for i := w.method.start; i <= w.method.end; i++ {
		op := w.opAt(i)
		if op == nil || op.Idx != 0 {
			continue
		}
		if !strings.HasPrefix(op.Value, "goto") && !strings.HasPrefix(op.Value, "if-") {
			continue
		}
		for _, p := range op.P {
			if p.Kind == smali.KindLabel {
				idx[p.Value] = append(idx[p.Value], op.ID)
			}
		}
	}
	return idx
}

func registersOfOp(op *smali.Op) []string {
	return store.RegistersOf(op)
}

// SolvedConstantDataInInvocation resolves the unique constant value
// reaching argument argIndex of an invocation site, if there is exactly
// one.
func SolvedConstantDataInInvocation(s *store.Store, site *smali.Op, argIndex int) (string, error) {
	w, ok := newWalker(s, site)
	if !ok {
		return "", ErrNoSuchValue
	}
	res := newResult()
	w.solve(site, argIndex, res, false)
	if res.ambiguous || len(res.values) != 1 {
		return "", ErrNoSuchValue
	}
	for v := range res.values {
		return v, nil
	}
	return "", ErrNoSuchValue
}

// SolvedPossibleConstantDataInInvocation resolves every constant value
// that could reach argument argIndex of an invocation site across all
// discovered predecessor branches.
func SolvedPossibleConstantDataInInvocation(s *store.Store, site *smali.Op, argIndex int) map[string]struct{} {
	w, ok := newWalker(s, site)
	if !ok {
		return map[string]struct{}{}
	}
	res := newResult()
	w.solve(site, argIndex, res, false)
	return res.values
}

// SolvedTypesetInInvocation resolves every concrete type (from
// new-instance, check-cast, or const-class) that could reach argument
// argIndex of an invocation site.
func SolvedTypesetInInvocation(s *store.Store, site *smali.Op, argIndex int) map[string]struct{} {
	w, ok := newWalker(s, site)
	if !ok {
		return map[string]struct{}{}
	}
	res := newResult()
	w.solve(site, argIndex, res, true)
	return res.types
}
