// Package config loads the detector-selection document a scan is run
// with: which detectors to include or exclude, a severity floor, and
// qualified-name globs detectors should treat as pre-approved and skip.
// The severity floor is parsed and carried on Selection; the scan does
// not filter findings by it.
package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

// Selection mirrors the detector framework's selection contract:
// an include list (empty means "every registered
// detector"), an exclude list layered on top, a minimum severity
// (stored only; nothing reads it), and exclusion globs matched against
// call-site qualnames.
type Selection struct {
	Include         []string `yaml:"include"`
	Exclude         []string `yaml:"exclude"`
	SeverityFloor   string   `yaml:"severity_floor"`
	ExcludeQualname []string `yaml:"exclude_qualname"`
}

// Load reads and parses a Selection document from path. A missing file
// is not an error: it yields the zero Selection, which selects every
// registered detector and excludes nothing.
func Load(path string) (Selection, error) {
	if path == "" {
		return Selection{}, nil
	}
	blob, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return Selection{}, nil
	}
	if err != nil {
		return Selection{}, err
	}
	var sel Selection
	if err := yaml.Unmarshal(blob, &sel); err != nil {
		return Selection{}, err
	}
	return sel, nil
}
