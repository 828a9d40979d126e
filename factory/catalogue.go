/*
Package factory provides JSON to Go achievement catalogue conversion.

PURPOSE:
  Converts JSON achievement definitions into achievements.Definition values.
  Program owners can tune thresholds or add entries without a rebuild; the
  server loads the file named by achievements.catalogue_path at startup.

JSON SCHEMA:
  {
    "achievements": [
      {
        "id": "growth_spike",
        "name": "Breakout Month",
        "description": "Grow revenue by 25% or more over the previous month",
        "category": "growth",
        "requirement": {"type": "single_month_growth", "value": "25"}
      }
    ]
  }

  "value" accepts a JSON string or number. Strings keep full decimal
  precision.

VALIDATION:
  - ids must be non-empty and unique
  - requirement.type must be one the evaluator knows
  - value must be non-negative
  - perfect_month needs a positive value; an omitted value would decode as 0
  Any failure wraps journey.ErrInvalidRequirement.

USAGE:
  defs, err := factory.ParseCatalogue(data)
  list := achievements.Evaluate(metrics, defs)

SEE ALSO:
  - achievements/catalogue.go: Built-in catalogue
  - achievements/evaluator.go: Requirement predicates
*/
package factory

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/shopspring/decimal"
	"github.com/warp/journey-engine/achievements"
	"github.com/warp/journey-engine/journey"
)

// =============================================================================
// JSON SCHEMA TYPES
// =============================================================================

type CatalogueJSON struct {
	Achievements []DefinitionJSON `json:"achievements"`
}

type DefinitionJSON struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Category    string          `json:"category,omitempty"`
	Requirement RequirementJSON `json:"requirement"`
}

type RequirementJSON struct {
	Type  string          `json:"type"`
	Value decimal.Decimal `json:"value"`
}

// =============================================================================
// CATALOGUE FACTORY
// =============================================================================

// ParseCatalogue parses and validates a JSON catalogue.
func ParseCatalogue(data []byte) ([]achievements.Definition, error) {
	var cj CatalogueJSON
	if err := json.Unmarshal(data, &cj); err != nil {
		return nil, fmt.Errorf("failed to parse catalogue JSON: %w", err)
	}
	return FromJSON(cj)
}

// LoadCatalogue reads a catalogue file. An empty path yields the default
// catalogue.
func LoadCatalogue(path string) ([]achievements.Definition, error) {
	if path == "" {
		return achievements.DefaultCatalogue(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalogue %s: %w", path, err)
	}
	return ParseCatalogue(data)
}

// FromJSON converts CatalogueJSON into definitions.
func FromJSON(cj CatalogueJSON) ([]achievements.Definition, error) {
	if len(cj.Achievements) == 0 {
		return nil, fmt.Errorf("%w: catalogue is empty", journey.ErrInvalidRequirement)
	}

	seen := make(map[string]bool, len(cj.Achievements))
	defs := make([]achievements.Definition, 0, len(cj.Achievements))
	for i, dj := range cj.Achievements {
		if dj.ID == "" {
			return nil, fmt.Errorf("%w: achievement %d has no id", journey.ErrInvalidRequirement, i)
		}
		if seen[dj.ID] {
			return nil, fmt.Errorf("%w: duplicate id %q", journey.ErrInvalidRequirement, dj.ID)
		}
		seen[dj.ID] = true

		req := achievements.Requirement{
			Type:  achievements.RequirementType(dj.Requirement.Type),
			Value: dj.Requirement.Value,
		}
		if !req.Type.Valid() {
			return nil, fmt.Errorf("%w: %s: unknown type %q", journey.ErrInvalidRequirement, dj.ID, dj.Requirement.Type)
		}
		if req.Value.IsNegative() {
			return nil, fmt.Errorf("%w: %s: negative value", journey.ErrInvalidRequirement, dj.ID)
		}
		if req.Type == achievements.ReqPerfectMonth && !req.Value.IsPositive() {
			return nil, fmt.Errorf("%w: %s: perfect_month needs a positive threshold", journey.ErrInvalidRequirement, dj.ID)
		}

		name := dj.Name
		if name == "" {
			name = dj.ID
		}
		defs = append(defs, achievements.Definition{
			ID:          dj.ID,
			Name:        name,
			Description: dj.Description,
			Category:    parseCategory(dj.Category, req.Type),
			Requirement: req,
		})
	}
	return defs, nil
}

// ToJSON converts definitions back into their JSON form.
func ToJSON(defs []achievements.Definition) CatalogueJSON {
	cj := CatalogueJSON{Achievements: make([]DefinitionJSON, 0, len(defs))}
	for _, d := range defs {
		cj.Achievements = append(cj.Achievements, DefinitionJSON{
			ID:          d.ID,
			Name:        d.Name,
			Description: d.Description,
			Category:    string(d.Category),
			Requirement: RequirementJSON{
				Type:  string(d.Requirement.Type),
				Value: d.Requirement.Value,
			},
		})
	}
	return cj
}

// =============================================================================
// PARSING HELPERS
// =============================================================================

// parseCategory falls back to the natural category of the requirement type.
func parseCategory(s string, t achievements.RequirementType) achievements.Category {
	switch s {
	case "goals":
		return achievements.CategoryGoals
	case "consistency":
		return achievements.CategoryConsistency
	case "growth":
		return achievements.CategoryGrowth
	case "milestone":
		return achievements.CategoryMilestone
	}
	switch t {
	case achievements.ReqStreak, achievements.ReqComeback:
		return achievements.CategoryConsistency
	case achievements.ReqSingleMonthGrowth, achievements.ReqCumulativeGrowth:
		return achievements.CategoryGrowth
	case achievements.ReqJourneyComplete:
		return achievements.CategoryMilestone
	default:
		return achievements.CategoryGoals
	}
}
