package factory_test

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/journey-engine/achievements"
	"github.com/warp/journey-engine/factory"
	"github.com/warp/journey-engine/journey"
)

func TestParseCatalogue(t *testing.T) {
	data := []byte(`{
		"achievements": [
			{"id": "big_month", "name": "Big Month", "requirement": {"type": "perfect_month", "value": "150"}},
			{"id": "leap", "requirement": {"type": "single_month_growth", "value": 40}}
		]
	}`)

	defs, err := factory.ParseCatalogue(data)
	require.NoError(t, err)
	require.Len(t, defs, 2)

	assert.Equal(t, "Big Month", defs[0].Name)
	assert.Equal(t, achievements.CategoryGoals, defs[0].Category)
	assert.True(t, defs[0].Requirement.Value.Equal(decimal.NewFromInt(150)))

	// Name defaults to ID, category follows the requirement type
	assert.Equal(t, "leap", defs[1].Name)
	assert.Equal(t, achievements.CategoryGrowth, defs[1].Category)
	assert.True(t, defs[1].Requirement.Value.Equal(decimal.NewFromInt(40)))
}

func TestParseCatalogue_Rejects(t *testing.T) {
	cases := map[string]string{
		"empty":        `{"achievements": []}`,
		"missing id":   `{"achievements": [{"requirement": {"type": "streak", "value": 2}}]}`,
		"duplicate id": `{"achievements": [{"id": "a", "requirement": {"type": "streak", "value": 2}}, {"id": "a", "requirement": {"type": "streak", "value": 3}}]}`,
		"unknown type": `{"achievements": [{"id": "a", "requirement": {"type": "goal_growth", "value": 2}}]}`,
		"negative":     `{"achievements": [{"id": "a", "requirement": {"type": "streak", "value": -1}}]}`,
		"zero perfect": `{"achievements": [{"id": "a", "requirement": {"type": "perfect_month", "value": 0}}]}`,
		"no threshold": `{"achievements": [{"id": "a", "requirement": {"type": "perfect_month"}}]}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := factory.ParseCatalogue([]byte(body))
			assert.ErrorIs(t, err, journey.ErrInvalidRequirement)
		})
	}

	_, err := factory.ParseCatalogue([]byte(`{not json`))
	assert.Error(t, err)
}

func TestToJSON_RoundTripsDefaultCatalogue(t *testing.T) {
	data, err := json.Marshal(factory.ToJSON(achievements.DefaultCatalogue()))
	require.NoError(t, err)

	defs, err := factory.ParseCatalogue(data)
	require.NoError(t, err)
	require.Len(t, defs, len(achievements.DefaultCatalogue()))
	for i, want := range achievements.DefaultCatalogue() {
		assert.Equal(t, want.ID, defs[i].ID)
		assert.Equal(t, want.Category, defs[i].Category)
		assert.Equal(t, want.Requirement.Type, defs[i].Requirement.Type)
		assert.True(t, want.Requirement.Value.Equal(defs[i].Requirement.Value), want.ID)
	}
}

func TestLoadCatalogue(t *testing.T) {
	defs, err := factory.LoadCatalogue("")
	require.NoError(t, err)
	assert.Len(t, defs, len(achievements.DefaultCatalogue()))

	path := filepath.Join(t.TempDir(), "catalogue.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"achievements": [{"id": "x", "requirement": {"type": "journey_complete"}}]}`), 0o600))
	defs, err = factory.LoadCatalogue(path)
	require.NoError(t, err)
	require.Len(t, defs, 1)
	assert.Equal(t, achievements.CategoryMilestone, defs[0].Category)

	_, err = factory.LoadCatalogue(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}
