package sections

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quirelabs/orderd/internal/page"
)

func TestDetectMarkdownHeadings(t *testing.T) {
	body := strings.Repeat("the borrower agrees to the terms stated herein ", 4)
	text := "# Loan Agreement\n" + body + "\n## Definitions\n" + body + "\n### Interest\n" + body

	d := NewDetector(50)
	got := d.Detect(text, 1)

	require.Len(t, got, 3)
	assert.Equal(t, "Loan Agreement", got[0].Title)
	assert.Equal(t, 1, got[0].Level)
	assert.Equal(t, "Definitions", got[1].Title)
	assert.Equal(t, 2, got[1].Level)
	assert.Equal(t, "Interest", got[2].Title)
	assert.Equal(t, 3, got[2].Level)
	for _, s := range got {
		assert.Equal(t, 1, s.Page)
		assert.Equal(t, 1.0, s.Confidence)
	}
}

func TestDetectNumberedAndTitleCaseHeadings(t *testing.T) {
	body := strings.Repeat("payment is due on the first business day of each month ", 3)

	tests := []struct {
		name      string
		heading   string
		wantTitle string
		wantLevel int
	}{
		{"numbered", "1. Repayment Schedule", "Repayment Schedule", 2},
		{"title case with colon", "Repayment Schedule:", "Repayment Schedule", 2},
		{"title case with period", "Events Of Default.", "Events Of Default", 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := NewDetector(50)
			got := d.Detect(tt.heading+"\n"+body, 3)
			require.Len(t, got, 1)
			assert.Equal(t, tt.wantTitle, got[0].Title)
			assert.Equal(t, tt.wantLevel, got[0].Level)
			assert.Equal(t, 3, got[0].Page)
		})
	}
}

func TestDetectDropsShortSections(t *testing.T) {
	d := NewDetector(100)
	text := "# Stub\ntoo short\n# Real Section\n" + strings.Repeat("substantial content line here ", 5)

	got := d.Detect(text, 1)
	require.Len(t, got, 1)
	assert.Equal(t, "Real Section", got[0].Title)
}

func TestDetectIgnoresPreamble(t *testing.T) {
	d := NewDetector(20)
	text := "stray line before any heading\n# First\n" + strings.Repeat("content ", 10)

	got := d.Detect(text, 1)
	require.Len(t, got, 1)
	assert.NotContains(t, got[0].Content, "stray line")
}

func TestOutlineWalksReadingOrder(t *testing.T) {
	body := strings.Repeat("the parties agree as follows ", 4)
	doc, err := page.NewDocument([]page.Page{
		{Number: 1, Text: "# Agreement\n" + body},
		{Number: 2, Text: ""},
		{Number: 3, Text: "plain narrative text without any heading at all " + body},
	}, 0)
	require.NoError(t, err)

	d := NewDetector(20)
	got := d.Outline(doc, []int{3, 2, 1})

	require.Len(t, got, 2)
	// Page 3 comes first in the reading order and has no heading, so it
	// contributes a low-confidence placeholder section.
	assert.Equal(t, "Page 3", got[0].Title)
	assert.Equal(t, 0.8, got[0].Confidence)
	assert.Equal(t, "Agreement", got[1].Title)
	assert.Equal(t, 1.0, got[1].Confidence)
}

func TestTableOfContents(t *testing.T) {
	secs := []Section{
		{Title: "Agreement", Level: 1, Page: 1, Confidence: 1.0},
		{Title: "Definitions", Level: 2, Page: 2, Confidence: 1.0},
	}
	toc := TableOfContents(secs)
	require.Len(t, toc, 2)
	assert.Equal(t, "section-1", toc[0].ID)
	assert.Equal(t, "Agreement", toc[0].Title)
	assert.Equal(t, "section-2", toc[1].ID)
	assert.Equal(t, 2, toc[1].Page)
}
