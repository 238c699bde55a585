package rules

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/smaliscan/smaliscan/detect"
	"github.com/smaliscan/smaliscan/manifest"
	"github.com/smaliscan/smaliscan/repository"
	"github.com/smaliscan/smaliscan/store"
)

// buildStore indexes a tree of files (relative path -> content) rooted
// at a fresh temp directory and returns the resulting Store.
func buildStore(t *testing.T, files map[string]string) *store.Store {
	t.Helper()
	root := t.TempDir()
	for rel, content := range files {
		full := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
		require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
	}
	repo := repository.New(root)
	ix := store.NewIndexer(repo, nil)
	st, err := ix.Index(context.Background())
	require.NoError(t, err)
	return st
}

// testContext is a minimal detect.Context for exercising one detector
// in isolation: no exclusions, an optional manifest, optional string
// resources.
type testContext struct {
	st        *store.Store
	manif     *manifest.Manifest
	stringRes map[string]string
	xmlRes    map[string]*manifest.Document
}

func (c *testContext) Store() *store.Store          { return c.st }
func (c *testContext) Manifest() *manifest.Manifest { return c.manif }
func (c *testContext) XMLResources() map[string]*manifest.Document {
	return c.xmlRes
}
func (c *testContext) StringResources() map[string]string                 { return c.stringRes }
func (c *testContext) ClassNameOfDalvikClassType(descriptor string) string { return descriptor }
func (c *testContext) SourceNameOfDisassembledResource(path string) string { return path }
func (c *testContext) IsQualnameExcluded(string) bool                     { return false }

func (c *testContext) MinSDKVersion() int {
	if c.manif == nil {
		return 1
	}
	return c.manif.MinSDKVersion()
}

func newManifestWithMinSDK(t *testing.T, minSDK string) *manifest.Manifest {
	t.Helper()
	blob := `<?xml version="1.0" encoding="utf-8"?>
<manifest xmlns:android="http://schemas.android.com/apk/res/android" package="com.example.app">
  <uses-sdk android:minSdkVersion="` + minSDK + `"/>
</manifest>`
	m, err := manifest.ParseManifest([]byte(blob))
	require.NoError(t, err)
	return m
}

// collect runs d against ctx and returns every issue it raised.
func collect(t *testing.T, st *store.Store, ctx detect.Context, d detect.Detector) []store.Issue {
	t.Helper()
	sink := detect.NewSink(st, d.Option())
	require.NoError(t, d.Detect(ctx, sink))
	return st.Issues()
}
