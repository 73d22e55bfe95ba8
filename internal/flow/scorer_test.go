package flow

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScorerScore(t *testing.T) {
	s := NewScorer(0)

	tests := []struct {
		name   string
		before string
		after  string
		want   float64
	}{
		{
			name:   "blank before yields zero",
			before: "   ",
			after:  "Article II. Terms of the agreement",
			want:   0,
		},
		{
			name:   "blank after yields zero",
			before: "Article I. Definitions of the parties",
			after:  "",
			want:   0,
		},
		{
			name:   "page number tokens adjacent",
			before: "terms as described herein. Page 3",
			after:  "Page 4 continues with the schedule of payments",
			want:   pageTokenScore,
		},
		{
			name:   "discourse progression",
			before: "Introduction\nThis study examines lending practices.",
			after:  "Methodology\nWe sampled 300 agreements.",
			want:   discourseScore,
		},
		{
			name:   "roman heading progression",
			before: "Article I. Definitions. The following terms apply.",
			after:  "Article II. Terms. The lender agrees as follows.",
			want:   headingScore,
		},
		{
			name:   "non-adjacent roman headings are not a cue",
			before: "Article I. Definitions. The following terms apply.",
			after:  "Article IV. Remedies available to the lender.",
			want:   DefaultNeutral,
		},
		{
			name:   "arabic clause progression",
			before: "obligations under clause 2) of this schedule",
			after:  "and further, 3) the borrower shall maintain insurance",
			want:   clauseArabicScore,
		},
		{
			name:   "continuation phrase on following page",
			before: "The borrower shall repay the principal in equal",
			after:  "(continued) monthly installments over ten years",
			want:   continuationScore,
		},
		{
			name:   "no cue yields neutral",
			before: "The quick brown fox jumps over the lazy dog today",
			after:  "Completely unrelated prose about gardening habits",
			want:   DefaultNeutral,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, s.Score(tt.before, tt.after), 1e-9)
		})
	}
}

func TestScorerIsPure(t *testing.T) {
	s := NewScorer(0.25)
	before := "Article I. Definitions. The following terms apply."
	after := "Article II. Terms. The lender agrees as follows."

	first := s.Score(before, after)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, s.Score(before, after))
	}
}

func TestScorerBounds(t *testing.T) {
	s := NewScorer(0)
	texts := []string{
		"", "Page 1", "Article I. Definitions", "Introduction", "Methodology",
		"1) first clause", "2) second clause", "random prose with no cues at all",
	}
	for _, a := range texts {
		for _, b := range texts {
			got := s.Score(a, b)
			assert.GreaterOrEqual(t, got, 0.0)
			assert.LessOrEqual(t, got, 1.0)
		}
	}
}

func TestParseRoman(t *testing.T) {
	tests := []struct {
		in    string
		want  int
		valid bool
	}{
		{"i", 1, true},
		{"iv", 4, true},
		{"IX", 9, true},
		{"xviii", 18, true},
		{"mild", 0, false},
		{"iiii", 0, false},
		{"", 0, false},
	}
	for _, tt := range tests {
		got, ok := parseRoman(tt.in)
		assert.Equal(t, tt.valid, ok, tt.in)
		if tt.valid {
			assert.Equal(t, tt.want, got, tt.in)
		}
	}
}
