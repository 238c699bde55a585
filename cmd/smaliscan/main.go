// Command smaliscan wires the analysis core end to end: it opens a
// repository rooted at an unpacked APK tree, indexes its smali, builds
// a detection context from the manifest and resources, runs the
// selected detectors, and prints one console line per finding. This is
// just enough wiring to run the core end to end; richer report formats
// belong to the report tooling, not here.
package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/smaliscan/smaliscan/config"
	"github.com/smaliscan/smaliscan/console"
	"github.com/smaliscan/smaliscan/detect"
	"github.com/smaliscan/smaliscan/detect/rules"
	"github.com/smaliscan/smaliscan/manifest"
	"github.com/smaliscan/smaliscan/repository"
	"github.com/smaliscan/smaliscan/store"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{Use: "smaliscan"}
	scan := &cobra.Command{
		Use:   "scan <root>",
		Short: "Index a disassembled APK tree and run the security detectors over it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScan(cmd.Context(), args[0], configPath)
		},
	}
	scan.Flags().StringVar(&configPath, "config", "", "path to a detector-selection YAML document")
	root.AddCommand(scan)
	return root
}

func runScan(ctx context.Context, root, configPath string) error {
	logger, err := zap.NewProduction()
	if err != nil {
		logger = zap.NewNop()
	}
	defer logger.Sync() //nolint:errcheck

	sel, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading detector selection: %w", err)
	}

	repo := repository.New(root)
	indexer := store.NewIndexer(repo, logger)
	st, err := indexer.Index(ctx)
	if err != nil {
		return fmt.Errorf("indexing %s: %w", root, err)
	}

	ac := buildContext(ctx, st, sel, logger)

	registry := rules.NewRegistry()
	detectors := registry.Select(sel.Include, sel.Exclude)
	failures, err := detect.RunAll(ctx, st, ac, detectors, logger)
	if err != nil {
		return fmt.Errorf("running detectors: %w", err)
	}
	for _, f := range failures {
		logger.Warn("detector did not complete cleanly", zap.String("detector", f.Option), zap.Error(f.Err))
	}

	for _, line := range console.FormatAll(st.FindingsList()) {
		fmt.Println(line)
	}
	return nil
}

// buildContext loads AndroidManifest.xml, every res/ XML resource, and
// the string table. Absence or malformed markup in any one of them is
// logged and skipped; the scan proceeds with what parsed.
func buildContext(ctx context.Context, st *store.Store, sel config.Selection, logger *zap.Logger) *detect.AnalysisContext {
	q := st.Query()

	var manif *manifest.Manifest
	if blob, ok := q.FileGet(ctx, "AndroidManifest.xml"); ok {
		m, err := manifest.ParseManifest(blob)
		if err != nil {
			logger.Warn("malformed AndroidManifest.xml", zap.Error(err))
		} else {
			manif = m
		}
	}

	xmlResources := map[string]*manifest.Document{}
	for f := range q.FileEnum(ctx, "res/%.xml") {
		doc, err := manifest.Parse(f.Blob)
		if err != nil {
			logger.Warn("malformed XML resource", zap.String("path", f.Path), zap.Error(err))
			continue
		}
		xmlResources[f.Path] = doc
	}

	stringResources := map[string]string{}
	for path, doc := range xmlResources {
		if !strings.Contains(path, "values") {
			continue
		}
		for name, value := range manifest.StringResources(doc) {
			stringResources[name] = value
		}
	}

	return &detect.AnalysisContext{
		St:           st,
		Manif:        manif,
		XMLRes:       xmlResources,
		StringRes:    stringResources,
		ExcludeGlobs: sel.ExcludeQualname,
	}
}
