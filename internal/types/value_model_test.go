package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validModel() *ValueModel {
	return &ValueModel{
		PrimaryValues: []string{"Leadership", "Academics", "Community", "Innovation", "Resilience"},
		Weights: map[string]float64{
			"Leadership": 0.30,
			"Academics":  0.25,
			"Community":  0.20,
			"Innovation": 0.15,
			"Resilience": 0.10,
		},
		Tone:          "earnest, specific",
		FallbackQuery: "Tell us about a time you went out of your way for someone else.",
	}
}

func TestValueModelValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*ValueModel)
		wantErr string
	}{
		{
			name:   "valid model",
			mutate: func(*ValueModel) {},
		},
		{
			name: "too few primary values",
			mutate: func(m *ValueModel) {
				m.PrimaryValues = m.PrimaryValues[:3]
			},
			wantErr: "primary values",
		},
		{
			name: "empty fallback query",
			mutate: func(m *ValueModel) {
				m.FallbackQuery = "   "
			},
			wantErr: "fallback_query",
		},
		{
			name: "weight out of range",
			mutate: func(m *ValueModel) {
				m.Weights["Leadership"] = 1.5
			},
			wantErr: "out of range",
		},
		{
			name: "negative weight",
			mutate: func(m *ValueModel) {
				m.Weights["Leadership"] = -0.1
			},
			wantErr: "out of range",
		},
		{
			name: "weights do not sum to one",
			mutate: func(m *ValueModel) {
				m.Weights["Leadership"] = 0.5
			},
			wantErr: "sum",
		},
		{
			name: "sum within tolerance passes",
			mutate: func(m *ValueModel) {
				m.Weights["Leadership"] = 0.305
			},
		},
		{
			name: "primary value missing from weights",
			mutate: func(m *ValueModel) {
				delete(m.Weights, "Resilience")
				m.Weights["Leadership"] = 0.40
			},
			wantErr: "no weight entry",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := validModel()
			tt.mutate(m)
			err := m.Validate()
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestPrimaryRank(t *testing.T) {
	m := validModel()
	assert.Equal(t, 0, m.PrimaryRank("Leadership"))
	assert.Equal(t, 2, m.PrimaryRank("Community"))
	assert.Equal(t, len(m.PrimaryValues), m.PrimaryRank("Unknown"))
}
