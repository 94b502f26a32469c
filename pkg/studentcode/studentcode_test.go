package studentcode

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormat(t *testing.T) {
	tests := []struct {
		name        string
		courseCode  string
		year, batch int
		seq         int
		want        string
	}{
		{"plain course code", "ACC", 2025, 1, 7, "MP-ACC25.1-007"},
		{"prefixed course code stripped", "MPACC", 2025, 1, 7, "MP-ACC25.1-007"},
		{"lowercase input", "mpacc", 2025, 1, 7, "MP-ACC25.1-007"},
		{"double digit batch", "FIN", 2024, 12, 123, "MP-FIN24.12-123"},
		{"sequence padding", "HR", 2026, 3, 1, "MP-HR26.3-001"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Format(tt.courseCode, tt.year, tt.batch, tt.seq))
		})
	}
}

func TestPrefix(t *testing.T) {
	assert.Equal(t, "MP-ACC25.1-", Prefix("MPACC", 2025, 1))
	assert.Equal(t, "MP-FIN24.12-", Prefix("FIN", 2024, 12))
}

func TestValidate(t *testing.T) {
	valid := []string{"MP-ACC25.1-007", "MP-FIN24.12-123", "MP-A00.1-001"}
	for _, code := range valid {
		assert.True(t, Validate(code), "expected %q to be valid", code)
	}

	invalid := []string{
		"",
		"ACC25.1-007",      // missing institute prefix
		"MP-acc25.1-007",   // lowercase course
		"MP-ACC2025.1-007", // four-digit year
		"MP-ACC25.1-07",    // short sequence
		"MP-ACC25.1-0007",  // long sequence
		"MP-ACC25-007",     // missing batch
		"MP-25.1-007",      // missing course letters
	}
	for _, code := range invalid {
		assert.False(t, Validate(code), "expected %q to be invalid", code)
	}
}

func TestParseRoundTrip(t *testing.T) {
	code := Format("MPACC", 2025, 1, 7)
	parts, err := Parse(code)
	require.NoError(t, err)

	assert.Equal(t, "MP", parts.Institute)
	assert.Equal(t, "ACC", parts.CourseCode)
	assert.Equal(t, 2025, parts.Year)
	assert.Equal(t, 1, parts.BatchNumber)
	assert.Equal(t, 7, parts.Sequence)

	assert.Equal(t, code, Format(parts.CourseCode, parts.Year, parts.BatchNumber, parts.Sequence))
}

func TestParseRejectsMalformed(t *testing.T) {
	_, err := Parse("MP-ACC25.1-07")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid student code format")
}

func TestNextSequence(t *testing.T) {
	tests := []struct {
		name     string
		existing []int
		want     int
	}{
		{"empty", nil, 1},
		{"dense", []int{1, 2, 3}, 4},
		{"gap reused", []int{1, 2, 4}, 3},
		{"gap at start", []int{2, 3}, 1},
		{"unsorted", []int{4, 1, 2}, 3},
		{"duplicates ignored", []int{1, 1, 2}, 3},
		{"non-positive ignored", []int{0, -5, 1}, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NextSequence(tt.existing))
		})
	}
}

func TestSequencesFromCodes(t *testing.T) {
	codes := []string{
		"MP-ACC25.1-001",
		"MP-ACC25.1-004",
		"not-a-code",
		"MP-ACC25.1-002",
	}
	assert.ElementsMatch(t, []int{1, 4, 2}, SequencesFromCodes(codes))
}
