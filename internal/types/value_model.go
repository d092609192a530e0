// Package types provides type definitions for structured data used throughout the scholarship-tailor system.
//
//nolint:revive // types is a standard Go package name pattern
package types

import (
	"fmt"
	"math"
	"strings"
)

// PrimaryValueCount is the number of primary values a decoded value model must carry.
const PrimaryValueCount = 5

// WeightSumTolerance is the allowed deviation of the weight sum from 1.0.
const WeightSumTolerance = 0.01

// ValueModel is the weighted set of qualities a scholarship implicitly selects for.
// It is derived once per scholarship by the criteria decoder.
type ValueModel struct {
	PrimaryValues []string           `json:"primary_values"`
	Weights       map[string]float64 `json:"weights"`
	Tone          string             `json:"tone"`
	FallbackQuery string             `json:"fallback_query"`
}

// Validate enforces the structural contract of a value model: exactly
// PrimaryValueCount primary values, weights in [0,1] summing to 1.0 within
// tolerance, weight keys covering every primary value, and a non-empty
// fallback query.
func (m *ValueModel) Validate() error {
	if len(m.PrimaryValues) != PrimaryValueCount {
		return fmt.Errorf("expected %d primary values, got %d", PrimaryValueCount, len(m.PrimaryValues))
	}
	if strings.TrimSpace(m.FallbackQuery) == "" {
		return fmt.Errorf("fallback_query must not be empty")
	}
	if len(m.Weights) == 0 {
		return fmt.Errorf("weights must not be empty")
	}

	sum := 0.0
	for category, weight := range m.Weights {
		if weight < 0 || weight > 1 {
			return fmt.Errorf("weight for %q out of range [0,1]: %v", category, weight)
		}
		sum += weight
	}
	if math.Abs(sum-1.0) > WeightSumTolerance {
		return fmt.Errorf("weights sum to %.4f, expected 1.0 ±%.2f", sum, WeightSumTolerance)
	}

	for _, value := range m.PrimaryValues {
		if _, ok := m.Weights[value]; !ok {
			return fmt.Errorf("primary value %q has no weight entry", value)
		}
	}

	return nil
}

// PrimaryRank returns the declaration position of a category within the
// primary values, or len(PrimaryValues) if the category is not primary.
// Used as the tie-breaker when two categories share a weight.
func (m *ValueModel) PrimaryRank(category string) int {
	for i, value := range m.PrimaryValues {
		if value == category {
			return i
		}
	}
	return len(m.PrimaryValues)
}
