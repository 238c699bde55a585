package store

import "sort"

// RaiseIssue records a finding, discarding it silently if an
// identically-keyed issue (same detector, summary, source and info
// fields) has already been recorded. De-duplication lets repeated runs
// of a detector, or several passes within one detector, converge on the
// same finding without the report growing spurious duplicates; since
// the detector id is part of the key, findings from different detectors
// are never merged.
func (s *Store) RaiseIssue(issue Issue) error {
	key, err := issueHash(issue.DetectorID, issue.Summary, issue.Source, issue.Info1, issue.Info2)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, dup := s.seen[key]; dup {
		return nil
	}
	s.seen[key] = struct{}{}
	s.issues = append(s.issues, issue)
	return nil
}

// Issues returns every recorded issue, in the order raised.
func (s *Store) Issues() []Issue {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Issue, len(s.issues))
	copy(out, s.issues)
	return out
}

// FindingsList returns issues sorted for stable, readable report output:
// by source file, then row, then detector id.
func (s *Store) FindingsList() []Issue {
	out := s.Issues()
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Source != b.Source {
			return a.Source < b.Source
		}
		if a.Row != b.Row {
			return a.Row < b.Row
		}
		return a.DetectorID < b.DetectorID
	})
	return out
}

// IssuesByGroup buckets findings by detector id, preserving the order
// each detector raised them in.
func (s *Store) IssuesByGroup() map[string][]Issue {
	out := make(map[string][]Issue)
	for _, issue := range s.Issues() {
		out[issue.DetectorID] = append(out[issue.DetectorID], issue)
	}
	return out
}
