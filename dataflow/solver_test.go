package dataflow

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smaliscan/smaliscan/repository"
	"github.com/smaliscan/smaliscan/smali"
	"github.com/smaliscan/smaliscan/store"
)

// buildStore indexes a single smali file and returns the resulting
// Store, the way store/store_test.go and detect/rules/testutil_test.go
// each build a store for their own package's tests.
func buildStore(t *testing.T, src string) *store.Store {
	t.Helper()
	root := t.TempDir()
	full := filepath.Join(root, "smali", "com", "example", "Foo.smali")
	require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
	require.NoError(t, os.WriteFile(full, []byte(src), 0o644))

	repo := repository.New(root)
	ix := store.NewIndexer(repo, nil)
	st, err := ix.Index(context.Background())
	require.NoError(t, err)
	return st
}

func invocationTargeting(t *testing.T, st *store.Store, target string) *smali.Op {
	t.Helper()
	q := st.Query()
	for op := range q.Invocations(store.NewPattern("invoke-static", target)) {
		return op
	}
	t.Fatalf("no invoke-static site matching %q found", target)
	return nil
}

// Two methods in the same class each declare their own :cond_0/:end
// labels -- legal and common, since smali label names are
// auto-numbered per method and routinely collide across methods in the
// same file. The solver must bound its walk (and its jump index) to
// the enclosing method's own op range; otherwise a label lookup for m1
// can pick up m2's same-named branch instructions as spurious
// predecessors and leak m2's constants into m1's result.
const labelCollisionSmali = `.class public Lcom/example/Foo;
.super Ljava/lang/Object;

.method public m1(Z)V
    .locals 1
    if-eqz p1, :cond_0
    const-string v0, "safe"
    goto :end
    :cond_0
    const-string v0, "safe"
    :end
    invoke-static {v0}, Lcom/example/Foo;->sink1(Ljava/lang/String;)V
    return-void
.end method

.method public m2(Z)V
    .locals 1
    if-eqz p1, :cond_0
    const-string v0, "bogus"
    goto :end
    :cond_0
    const-string v0, "unsafe"
    :end
    invoke-static {v0}, Lcom/example/Foo;->sink2(Ljava/lang/String;)V
    return-void
.end method
`

func TestSolverIsBoundedToEnclosingMethodDespiteLabelCollision(t *testing.T) {
	st := buildStore(t, labelCollisionSmali)
	site := invocationTargeting(t, st, `sink1`)

	values := SolvedPossibleConstantDataInInvocation(st, site, 0)
	assert.Equal(t, map[string]struct{}{"safe": {}}, values,
		"m2's same-named branches must not leak into m1's resolved set")

	v, err := SolvedConstantDataInInvocation(st, site, 0)
	require.NoError(t, err)
	assert.Equal(t, "safe", v)
}

func TestSolverResolvesBranchJoinWithinMethod(t *testing.T) {
	st := buildStore(t, `.class public Lcom/example/Foo;
.super Ljava/lang/Object;

.method public choose(Z)V
    .locals 1
    if-eqz p1, :cond_0
    const-string v0, "left"
    goto :end
    :cond_0
    const-string v0, "right"
    :end
    invoke-static {v0}, Lcom/example/Foo;->sink(Ljava/lang/String;)V
    return-void
.end method
`)
	site := invocationTargeting(t, st, `sink`)

	values := SolvedPossibleConstantDataInInvocation(st, site, 0)
	assert.Equal(t, map[string]struct{}{"left": {}, "right": {}}, values)

	_, err := SolvedConstantDataInInvocation(st, site, 0)
	assert.ErrorIs(t, err, ErrNoSuchValue, "a real two-way join has no unique constant")
}

func TestSolverIsDeterministicAcrossRepeatedCalls(t *testing.T) {
	st := buildStore(t, labelCollisionSmali)
	site := invocationTargeting(t, st, `sink1`)

	first, err1 := SolvedConstantDataInInvocation(st, site, 0)
	second, err2 := SolvedConstantDataInInvocation(st, site, 0)
	require.NoError(t, err1)
	require.NoError(t, err2)
	assert.Equal(t, first, second)

	firstSet := SolvedPossibleConstantDataInInvocation(st, site, 0)
	secondSet := SolvedPossibleConstantDataInInvocation(st, site, 0)
	assert.Equal(t, firstSet, secondSet)
}

func TestSolverTerminatesOnLoopBackEdge(t *testing.T) {
	st := buildStore(t, `.class public Lcom/example/Foo;
.super Ljava/lang/Object;

.method public loop(I)V
    .locals 2
    const-string v0, "initial"
    :loop_0
    invoke-static {v1}, Lcom/example/Foo;->tick()V
    if-nez v1, :loop_0
    invoke-static {v0}, Lcom/example/Foo;->sink(Ljava/lang/String;)V
    return-void
.end method
`)
	site := invocationTargeting(t, st, `sink`)

	v, err := SolvedConstantDataInInvocation(st, site, 0)
	require.NoError(t, err)
	assert.Equal(t, "initial", v)
}

func TestSolverDoesNotCrossIntoAnotherMethodsStraightLineBody(t *testing.T) {
	st := buildStore(t, `.class public Lcom/example/Foo;
.super Ljava/lang/Object;

.method public earlier()V
    .locals 1
    const-string v0, "earlier-only"
    invoke-static {v0}, Lcom/example/Foo;->other(Ljava/lang/String;)V
    return-void
.end method

.method public later()V
    .locals 1
    invoke-static {v0}, Lcom/example/Foo;->sink(Ljava/lang/String;)V
    return-void
.end method
`)
	site := invocationTargeting(t, st, `sink`)

	_, err := SolvedConstantDataInInvocation(st, site, 0)
	assert.ErrorIs(t, err, ErrNoSuchValue,
		"v0 is never written inside 'later'; the solver must not resolve it from 'earlier'")
}
