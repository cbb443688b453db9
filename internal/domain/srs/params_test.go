package srs

import "testing"

func TestNewParamsDefaults(t *testing.T) {
	t.Parallel() // Enable parallel execution

	params := NewParams(ParamsConfig{})
	defaults := NewDefaultParams()

	if *params != *defaults {
		t.Errorf("Expected zero config to keep defaults, got %+v", params)
	}
}

func TestNewParamsOverrides(t *testing.T) {
	t.Parallel() // Enable parallel execution

	params := NewParams(ParamsConfig{
		MaxDifficulty:   2.8,
		UnknownInterval: 3,
	})

	if params.MaxDifficulty != 2.8 {
		t.Errorf("Expected MaxDifficulty 2.8, got %v", params.MaxDifficulty)
	}
	if params.UnknownInterval != 3 {
		t.Errorf("Expected UnknownInterval 3, got %d", params.UnknownInterval)
	}
	if params.MinDifficulty != 1.3 {
		t.Errorf("Expected default MinDifficulty, got %v", params.MinDifficulty)
	}
}
