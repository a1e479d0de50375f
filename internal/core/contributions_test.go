package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMergeIntoCommutative(t *testing.T) {
	a := ContributionMap{"2024-01-01": 3, "2024-01-02": 1}
	b := ContributionMap{"2024-01-02": 4, "2024-03-10": 2}

	ab := MergeInto(MergeInto(ContributionMap{}, a), b)
	ba := MergeInto(MergeInto(ContributionMap{}, b), a)

	assert.Equal(t, ab, ba)
	assert.Equal(t, ContributionMap{"2024-01-01": 3, "2024-01-02": 5, "2024-03-10": 2}, ab)
}

func TestMergeIntoTotalIsAdditive(t *testing.T) {
	a := ContributionMap{"2024-01-01": 3, "2024-01-02": 5}
	b := ContributionMap{"2024-01-01": 1, "2024-06-30": 7}

	merged := MergeInto(MergeInto(ContributionMap{}, a), b)

	assert.Equal(t, CountContributions(a)+CountContributions(b), CountContributions(merged))
}

func TestCountContributions(t *testing.T) {
	assert.Equal(t, 0, CountContributions(ContributionMap{}))
	assert.Equal(t, 8, CountContributions(ContributionMap{"2024-01-01": 3, "2024-01-02": 5}))
}
