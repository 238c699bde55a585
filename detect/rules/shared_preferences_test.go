package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSharedPreferencesDetectorResolvesKey(t *testing.T) {
	st := buildStore(t, map[string]string{
		"smali/com/example/Foo.smali": `.class public Lcom/example/Foo;
.super Ljava/lang/Object;

.method public load(Landroid/content/SharedPreferences;)Ljava/lang/String;
    .locals 2
    const-string v1, "auth_token"
    const/4 v0, 0x0
    invoke-interface {p1, v1, v0}, Landroid/content/SharedPreferences;->getString(Ljava/lang/String;Ljava/lang/String;)Ljava/lang/String;
    move-result-object v0
    return-object v0
.end method
`,
	})
	ctx := &testContext{st: st}
	issues := collect(t, st, ctx, SecuritySharedPreferencesDetector{})
	require.Len(t, issues, 1)
	assert.Equal(t, "auth_token", issues[0].Info1)
	assert.Equal(t, "get", issues[0].Info2)
}
