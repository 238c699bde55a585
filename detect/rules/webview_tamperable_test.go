package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smaliscan/smaliscan/store"
)

func TestTamperableWebViewDetectorFlagsPlaintextLoadURL(t *testing.T) {
	st := buildStore(t, map[string]string{
		"smali/com/example/Loader.smali": `.class public Lcom/example/Loader;
.super Ljava/lang/Object;

.method public load(Landroid/webkit/WebView;)V
    .locals 1
    const-string v0, "http://example.com"
    invoke-virtual {p1, v0}, Landroid/webkit/WebView;->loadUrl(Ljava/lang/String;)V
    return-void
.end method
`,
	})
	ctx := &testContext{st: st}
	issues := collect(t, st, ctx, SecurityTamperableWebViewDetector{})
	require.Len(t, issues, 1)
	assert.Equal(t, "tamperable webview with URL", issues[0].Summary)
	assert.Equal(t, "http://example.com", issues[0].Info1)
}

func TestTamperableWebViewDetectorFlagsOversizedLayoutElement(t *testing.T) {
	st := buildStore(t, map[string]string{
		"res/layout-large-land/main.xml": `<?xml version="1.0" encoding="utf-8"?>
<WebView xmlns:android="http://schemas.android.com/apk/res/android"
    android:layout_width="480dp"
    android:layout_height="360dp"/>
`,
	})
	ctx := &testContext{st: st}
	issues := collect(t, st, ctx, SecurityTamperableWebViewDetector{})
	require.Len(t, issues, 1)
	assert.Equal(t, "tamperable webview", issues[0].Summary)
	assert.Contains(t, issues[0].Info1, "score: 0.56")
	assert.Equal(t, store.Tentative, issues[0].Confidence)
}

func TestTamperableWebViewDetectorIgnoresSmallLayoutElement(t *testing.T) {
	st := buildStore(t, map[string]string{
		"res/layout/main.xml": `<?xml version="1.0" encoding="utf-8"?>
<WebView xmlns:android="http://schemas.android.com/apk/res/android"
    android:layout_width="100dp"
    android:layout_height="100dp"/>
`,
	})
	ctx := &testContext{st: st}
	issues := collect(t, st, ctx, SecurityTamperableWebViewDetector{})
	assert.Empty(t, issues)
}

func TestTamperableWebViewDetectorIgnoresHTTPS(t *testing.T) {
	st := buildStore(t, map[string]string{
		"smali/com/example/Loader.smali": `.class public Lcom/example/Loader;
.super Ljava/lang/Object;

.method public load(Landroid/webkit/WebView;)V
    .locals 1
    const-string v0, "https://example.com"
    invoke-virtual {p1, v0}, Landroid/webkit/WebView;->loadUrl(Ljava/lang/String;)V
    return-void
.end method
`,
	})
	ctx := &testContext{st: st}
	issues := collect(t, st, ctx, SecurityTamperableWebViewDetector{})
	assert.Empty(t, issues)
}
