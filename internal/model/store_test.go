package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatRadius(t *testing.T) {
	tests := []struct {
		miles float64
		want  string
	}{
		{5, "5"},
		{10, "10"},
		{2.5, "2.5"},
		{0.25, "0.25"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatRadius(tt.miles))
	}
}

func TestColumnName(t *testing.T) {
	assert.Equal(t, "competitors_within_5", ColumnName(5))
	assert.Equal(t, "competitors_within_7.5", ColumnName(7.5))
}

func TestRadiusCountLabel(t *testing.T) {
	assert.Equal(t, "10", RadiusCount{RadiusMiles: 10, Count: 3}.Label())
}

func TestStoreResultCountFor(t *testing.T) {
	sr := StoreResult{
		Store: Store{Name: "Loop"},
		Counts: []RadiusCount{
			{RadiusMiles: 5, Count: 1},
			{RadiusMiles: 7, Count: 2},
		},
	}

	n, ok := sr.CountFor(7)
	assert.True(t, ok)
	assert.Equal(t, 2, n)

	n, ok = sr.CountFor(10)
	assert.False(t, ok)
	assert.Equal(t, 0, n)
}
