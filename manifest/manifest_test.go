package manifest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleManifest = `<?xml version="1.0" encoding="utf-8"?>
<manifest xmlns:android="http://schemas.android.com/apk/res/android" package="com.example.app">
  <uses-sdk android:minSdkVersion="24" android:targetSdkVersion="33"/>
  <application android:debuggable="true">
    <activity android:name=".MainActivity"/>
  </application>
</manifest>`

func TestParseManifestAttributes(t *testing.T) {
	m, err := ParseManifest([]byte(sampleManifest))
	require.NoError(t, err)
	assert.Equal(t, "com.example.app", m.PackageName())
	assert.Equal(t, 24, m.MinSDKVersion())
	assert.True(t, m.DebuggableApplication())
}

func TestManifestDefaults(t *testing.T) {
	m, err := ParseManifest([]byte(`<manifest/>`))
	require.NoError(t, err)
	assert.Equal(t, "", m.PackageName())
	assert.Equal(t, 1, m.MinSDKVersion())
	assert.False(t, m.DebuggableApplication())
}

func TestParseRecoversFromMalformedMarkup(t *testing.T) {
	doc, err := Parse([]byte(`<network-security-config><base-config><certificates src="user"></base-config></network-security-config>`))
	require.NoError(t, err)
	assert.Equal(t, "network-security-config", doc.RootTag())
	assert.NotEmpty(t, doc.XPath("//certificates"))
}

func TestRootTagSkipsNonElementNodes(t *testing.T) {
	doc, err := Parse([]byte("<?xml version=\"1.0\"?>\n<!-- generated -->\n<resources/>"))
	require.NoError(t, err)
	assert.Equal(t, "resources", doc.RootTag())
}

func TestStringResources(t *testing.T) {
	doc, err := Parse([]byte(`<resources>
  <string name="app_name">Example</string>
  <string name="su_path">/system/xbin/su</string>
  <string>anonymous</string>
</resources>`))
	require.NoError(t, err)
	res := StringResources(doc)
	assert.Equal(t, map[string]string{
		"app_name": "Example",
		"su_path":  "/system/xbin/su",
	}, res)
}

func TestXPathOnBadExpressionYieldsEmpty(t *testing.T) {
	doc, err := Parse([]byte(`<resources/>`))
	require.NoError(t, err)
	assert.Empty(t, doc.XPath("///["))
}
