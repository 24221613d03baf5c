package schema

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/catalise/fundingest/internal/models"
)

// LoadRosters reads the expected-fund rosters from a single JSON document
// keyed by extract type:
//
//	{"portfolio": {"funds": [...], "critical": [...]}, ...}
//
// Every critical fund must also appear in the roster.
func LoadRosters(path string) (map[models.ExtractType]models.Roster, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read rosters: %w", err)
	}
	var byName map[string]models.Roster
	if err := json.Unmarshal(raw, &byName); err != nil {
		return nil, fmt.Errorf("invalid roster JSON: %w", err)
	}

	rosters := make(map[models.ExtractType]models.Roster, len(byName))
	for name, roster := range byName {
		extract, err := models.ParseExtractType(name)
		if err != nil {
			return nil, fmt.Errorf("roster: %w", err)
		}
		inRoster := make(map[string]bool, len(roster.Funds))
		for _, f := range roster.Funds {
			inRoster[f] = true
		}
		for _, f := range roster.Critical {
			if !inRoster[f] {
				return nil, fmt.Errorf("roster %s: critical fund %q is not in the roster", name, f)
			}
		}
		rosters[extract] = roster
	}
	return rosters, nil
}
