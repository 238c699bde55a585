package store

import (
	"context"
	"os"

	"github.com/google/uuid"
	"github.com/mattn/go-isatty"
	"go.uber.org/zap"

	"github.com/smaliscan/smaliscan/repository"
	"github.com/smaliscan/smaliscan/smali"
)

// progress thresholds, in analyzed (pre-filter) ops, between console
// updates. An interactive terminal gets more frequent updates since the
// write itself is cheap relative to a human watching it.
const (
	progressIntervalTTY    = 65536
	progressIntervalPiped  = 131072
	smaliGlob              = "smali/%.smali"
	directiveLine          = "line"
	directiveClass         = "class"
	directiveMethod        = "method"
	directiveEnd           = "end"
	directiveEndMethodWord = "method"
)

// Indexer performs the single exclusive pass that turns a repository's
// smali files into a Store: parsing every file, assigning dense
// identifiers, and deriving class and method ranges over those
// identifiers.
type Indexer struct {
	repo   repository.Repository
	logger *zap.Logger
}

// NewIndexer constructs an Indexer over repo. A nil logger disables
// progress logging.
func NewIndexer(repo repository.Repository, logger *zap.Logger) *Indexer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Indexer{repo: repo, logger: logger}
}

// Index performs the analysis pass and returns a ready-to-query Store.
// It runs as a single exclusive transaction: no query may observe a
// partially indexed store.
func (ix *Indexer) Index(ctx context.Context) (*Store, error) {
	runID := uuid.NewString()
	st := newStore(ix.repo)
	st.mu.Lock()
	defer st.mu.Unlock()

	interval := int64(progressIntervalPiped)
	if isatty.IsTerminal(os.Stdout.Fd()) {
		interval = progressIntervalTTY
	}

	var baseID int64 = 1
	var analyzedOps int64

	for f := range ix.repo.Enum(ctx, smaliGlob) {
		var fileOps []*smali.Op
		parser := smali.NewParser(string(f.Blob))
		for op := range parser.Ops() {
			analyzedOps++
			if analyzedOps%interval == 0 {
				ix.logger.Info("indexing", zap.String("run_id", runID), zap.Int64("ops_seen", analyzedOps))
			}
			if op.Eq(smali.KindDirective, directiveLine) {
				continue
			}
			if op.IsAnnotation() || op.IsParam() {
				continue
			}
			fileOps = append(fileOps, op)
			fileOps = append(fileOps, op.P...)
		}
		if len(fileOps) == 0 {
			continue
		}
		for _, o := range fileOps {
			o.ID = baseID
			baseID++
		}
		st.ops = append(st.ops, fileOps...)

		var classStart int64
		for _, o := range fileOps {
			if o.Eq(smali.KindDirective, directiveClass) {
				classStart = o.ID
				break
			}
		}
		if classStart != 0 {
			st.classes = append(st.classes, classRange{start: classStart, end: fileOps[len(fileOps)-1].ID})
		}
	}

	st.generateMethodMap()

	ix.logger.Info("indexing complete", zap.String("run_id", runID), zap.Int64("ops_indexed", int64(len(st.ops))), zap.Int("classes", len(st.classes)), zap.Int("methods", len(st.methods)))
	return st, nil
}

// generateMethodMap scans the stored ops to derive method ranges,
// associating each with the class range it falls inside. Methods never
// nest, so a single open-start tracker suffices.
func (s *Store) generateMethodMap() {
	var openStart int64
	for _, op := range s.ops {
		switch {
		case op.Eq(smali.KindDirective, directiveMethod):
			openStart = op.ID
		case op.Eq(smali.KindDirective, directiveEnd) && len(op.P) > 0 && op.P[0].Value == directiveEndMethodWord:
			if openStart != 0 {
				classIdx := -1
				for i, cr := range s.classes {
					if openStart >= cr.start && openStart <= cr.end {
						classIdx = i
						break
					}
				}
				s.methods = append(s.methods, methodRange{start: openStart, end: op.ID, classIdx: classIdx})
				openStart = 0
			}
		}
	}
}
