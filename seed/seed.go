// Package seed loads the intern dataset the store is populated with at
// process start. A default dataset is embedded; deployments can point the
// config at a JSON file with the same shape.
package seed

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"

	"missionctl/core"
)

//go:embed seed.json
var defaultDataset []byte

// Dataset is the on-disk seed document.
type Dataset struct {
	Interns []core.Intern `json:"interns"`
}

// Default returns the embedded dataset.
func Default() ([]core.Intern, error) {
	return Parse(defaultDataset)
}

// Load reads and parses a seed file.
func Load(path string) ([]core.Intern, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file %s: %w", path, err)
	}
	records, err := Parse(b)
	if err != nil {
		return nil, fmt.Errorf("parse seed file %s: %w", path, err)
	}
	return records, nil
}

// Parse decodes and validates a seed document. Record order in the document
// becomes store order.
func Parse(b []byte) ([]core.Intern, error) {
	var ds Dataset
	if err := json.Unmarshal(b, &ds); err != nil {
		return nil, fmt.Errorf("decode seed: %w", err)
	}
	seen := make(map[core.InternID]struct{}, len(ds.Interns))
	for i, rec := range ds.Interns {
		if _, err := core.NormalizeInternID(rec.ID); err != nil {
			return nil, fmt.Errorf("intern %d: %w", i, err)
		}
		if _, dup := seen[rec.ID]; dup {
			return nil, fmt.Errorf("intern %d: duplicate id %q", i, rec.ID)
		}
		seen[rec.ID] = struct{}{}
		if rec.Name == "" {
			return nil, fmt.Errorf("intern %q: empty name", rec.ID)
		}
		if rec.TotalDonations < 0 || rec.MissionsCompleted < 0 ||
			rec.TreesPlanted < 0 || rec.LivesImpacted < 0 {
			return nil, fmt.Errorf("intern %q: negative counters", rec.ID)
		}
	}
	return ds.Interns, nil
}
