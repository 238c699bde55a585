package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smaliscan/smaliscan/manifest"
)

func TestTLSInterceptionDetectorFlagsNoPinning(t *testing.T) {
	st := buildStore(t, map[string]string{
		"smali/com/example/Net.smali": `.class public Lcom/example/Net;
.super Ljava/lang/Object;

.method public connect()V
    .locals 1
    invoke-static {}, Lcom/example/Net;->open()Ljava/lang/Object;
    return-void
.end method
`,
	})
	ctx := &testContext{st: st}
	issues := collect(t, st, ctx, SecurityTlsInterceptionDetector{})
	require.Len(t, issues, 1)
	assert.Equal(t, "insecure TLS connection", issues[0].Summary)
	assert.Equal(t, "no pinning detected", issues[0].Info1)
}

func TestTLSInterceptionDetectorSkipsWhenCheckServerTrustedVerifies(t *testing.T) {
	st := buildStore(t, map[string]string{
		"smali/com/example/TrustMgr.smali": `.class public Lcom/example/TrustMgr;
.super Ljava/lang/Object;
.implements Ljavax/net/ssl/X509TrustManager;

.method public checkServerTrusted([Ljava/security/cert/X509Certificate;Ljava/lang/String;)V
    .locals 2
    invoke-virtual {p0, p1}, Lcom/example/TrustMgr;->verify([Ljava/security/cert/X509Certificate;)V
    return-void
.end method
`,
		"smali/com/example/Net.smali": `.class public Lcom/example/Net;
.super Ljava/lang/Object;

.method public connect(Ljavax/net/ssl/SSLContext;)V
    .locals 3
    new-instance v0, Lcom/example/TrustMgr;
    invoke-virtual {p1, v1, v0, v2}, Ljavax/net/ssl/SSLContext;->init([Ljavax/net/ssl/KeyManager;[Ljavax/net/ssl/TrustManager;Ljava/security/SecureRandom;)V
    return-void
.end method
`,
	})
	ctx := &testContext{st: st}
	issues := collect(t, st, ctx, SecurityTlsInterceptionDetector{})
	assert.Empty(t, issues)
}

// Android resource file names cannot contain hyphens, so a
// realistically named network security config resource
// (res/xml/network_security_config.xml) never contains the literal
// substring "network-security-config". Detection must key off the
// parsed document's root tag, not the file path.
func TestTLSInterceptionDetectorMatchesNSCByRootTagNotPath(t *testing.T) {
	st := buildStore(t, map[string]string{
		"smali/com/example/Net.smali": `.class public Lcom/example/Net;
.super Ljava/lang/Object;

.method public connect()V
    .locals 1
    invoke-static {}, Lcom/example/Net;->open()Ljava/lang/Object;
    return-void
.end method
`,
	})
	doc, err := manifest.Parse([]byte(`<?xml version="1.0" encoding="utf-8"?>
<network-security-config>
  <base-config>
    <trust-anchors>
      <certificates src="user"/>
    </trust-anchors>
  </base-config>
</network-security-config>`))
	require.NoError(t, err)

	ctx := &testContext{st: st, xmlRes: map[string]*manifest.Document{
		"res/xml/network_security_config.xml": doc,
	}}
	issues := collect(t, st, ctx, SecurityTlsInterceptionDetector{})
	require.NotEmpty(t, issues)
	var sawUserTrusting bool
	for _, issue := range issues {
		if issue.Info1 == "user-trusting network security config detected" {
			sawUserTrusting = true
		}
	}
	assert.True(t, sawUserTrusting, "expected the user-trusting NSC issue to be raised; got %+v", issues)
}
