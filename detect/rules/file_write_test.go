package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileWriteDetectorFlagsSuspiciousPath(t *testing.T) {
	st := buildStore(t, map[string]string{
		"smali/com/example/Foo.smali": `.class public Lcom/example/Foo;
.super Ljava/lang/Object;

.method public dump(Landroid/content/Context;)V
    .locals 2
    const-string v0, "debug.log"
    const/4 v1, 0x0
    invoke-virtual {p1, v0, v1}, Landroid/content/Context;->openFileOutput(Ljava/lang/String;I)Ljava/io/FileOutputStream;
    move-result-object v0
    return-void
.end method
`,
	})
	ctx := &testContext{st: st}
	issues := collect(t, st, ctx, SecurityFileWriteDetector{})
	require.Len(t, issues, 1)
	assert.Equal(t, "debug.log", issues[0].Info1)
}

func TestFileWriteDetectorIgnoresUnremarkablePath(t *testing.T) {
	st := buildStore(t, map[string]string{
		"smali/com/example/Foo.smali": `.class public Lcom/example/Foo;
.super Ljava/lang/Object;

.method public save(Landroid/content/Context;)V
    .locals 2
    const-string v0, "settings.json"
    const/4 v1, 0x0
    invoke-virtual {p1, v0, v1}, Landroid/content/Context;->openFileOutput(Ljava/lang/String;I)Ljava/io/FileOutputStream;
    move-result-object v0
    return-void
.end method
`,
	})
	ctx := &testContext{st: st}
	issues := collect(t, st, ctx, SecurityFileWriteDetector{})
	assert.Empty(t, issues)
}
