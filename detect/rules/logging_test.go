package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoggingDetectorResolvesMessage(t *testing.T) {
	st := buildStore(t, map[string]string{
		"smali/com/example/Foo.smali": `.class public Lcom/example/Foo;
.super Ljava/lang/Object;

.method public onCreate()V
    .locals 2
    const-string v0, "TAG"
    const-string v1, "token=abc123"
    invoke-static {v0, v1}, Landroid/util/Log;->d(Ljava/lang/String;Ljava/lang/String;)I
    move-result v0
    return-void
.end method
`,
	})
	ctx := &testContext{st: st}
	issues := collect(t, st, ctx, LogDetector{})
	require.Len(t, issues, 1)
	assert.Equal(t, "token=abc123", issues[0].Info1)
}
