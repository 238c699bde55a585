package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilePermissionDetectorFlagsWorldReadable(t *testing.T) {
	st := buildStore(t, map[string]string{
		"smali/com/example/Foo.smali": `.class public Lcom/example/Foo;
.super Landroid/app/Activity;

.method public onCreate(Landroid/os/Bundle;)V
    .locals 2
    const-string v0, "debug.log"
    const/4 v1, 0x1
    invoke-virtual {p0, v0, v1}, Landroid/content/Context;->openFileOutput(Ljava/lang/String;I)Ljava/io/FileOutputStream;
    return-void
.end method
`,
	})
	ctx := &testContext{st: st}
	issues := collect(t, st, ctx, SecurityFilePermissionDetector{})
	require.Len(t, issues, 1)
	assert.Equal(t, "MODE_WORLD_READABLE", issues[0].Info1)
	assert.Contains(t, issues[0].Source, "onCreate")
}

func TestFilePermissionDetectorIgnoresPrivateMode(t *testing.T) {
	st := buildStore(t, map[string]string{
		"smali/com/example/Foo.smali": `.class public Lcom/example/Foo;
.super Landroid/app/Activity;

.method public onCreate(Landroid/os/Bundle;)V
    .locals 2
    const-string v0, "debug.log"
    const/4 v1, 0x0
    invoke-virtual {p0, v0, v1}, Landroid/content/Context;->openFileOutput(Ljava/lang/String;I)Ljava/io/FileOutputStream;
    return-void
.end method
`,
	})
	ctx := &testContext{st: st}
	issues := collect(t, st, ctx, SecurityFilePermissionDetector{})
	assert.Empty(t, issues)
}
