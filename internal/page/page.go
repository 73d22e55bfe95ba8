// Package page holds the in-memory representation of extracted PDF pages.
//
// Pages arrive from the text-extraction collaborator already keyed by their
// original physical page number. A Document is the per-request collection the
// ordering engine works on; it is created once per request and read-only
// thereafter.
package page

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNoPages indicates an empty input page set.
	ErrNoPages = errors.New("no pages provided")

	// ErrInvalidPageNumber indicates a page number that is not 1-based positive.
	ErrInvalidPageNumber = errors.New("invalid page number")

	// ErrDuplicatePageNumber indicates a repeated page number in the input.
	ErrDuplicatePageNumber = errors.New("duplicate page number")
)

// DefaultMinTextRunes is the minimal-content threshold below which a page is
// treated as empty for ordering purposes.
const DefaultMinTextRunes = 10

// Page is one physical page of the input document.
//
// Number is the 1-based original physical position and is never reused or
// mutated after creation. ExtractionConfidence is provided by the upstream
// extraction collaborator and passed through untouched.
type Page struct {
	Number               int       `json:"page_number"`
	Text                 string    `json:"text"`
	IsEmpty              bool      `json:"is_empty"`
	ExtractionConfidence float64   `json:"extraction_confidence"`
	Embedding            []float32 `json:"-"`
}

// Document is the per-request page collection.
type Document struct {
	pages []Page
}

// NewDocument validates the input pages and builds a Document.
//
// Page numbers must be positive and unique. A page is marked empty when the
// extractor flagged it or when its text falls below minTextRunes after
// trimming whitespace; pass 0 to use DefaultMinTextRunes.
func NewDocument(pages []Page, minTextRunes int) (*Document, error) {
	if len(pages) == 0 {
		return nil, ErrNoPages
	}
	if minTextRunes <= 0 {
		minTextRunes = DefaultMinTextRunes
	}

	seen := make(map[int]bool, len(pages))
	copied := make([]Page, len(pages))
	for i, p := range pages {
		if p.Number < 1 {
			return nil, fmt.Errorf("%w: %d", ErrInvalidPageNumber, p.Number)
		}
		if seen[p.Number] {
			return nil, fmt.Errorf("%w: %d", ErrDuplicatePageNumber, p.Number)
		}
		seen[p.Number] = true

		copied[i] = p
		if !copied[i].IsEmpty && len([]rune(strings.TrimSpace(p.Text))) < minTextRunes {
			copied[i].IsEmpty = true
		}
	}

	return &Document{pages: copied}, nil
}

// Len returns the total page count.
func (d *Document) Len() int {
	return len(d.pages)
}

// Pages returns a copy of all pages in input order.
func (d *Document) Pages() []Page {
	out := make([]Page, len(d.pages))
	copy(out, d.pages)
	return out
}

// NonEmpty returns the non-empty pages in input order.
func (d *Document) NonEmpty() []Page {
	var out []Page
	for _, p := range d.pages {
		if !p.IsEmpty {
			out = append(out, p)
		}
	}
	return out
}

// Numbers returns the original page-number sequence as received.
func (d *Document) Numbers() []int {
	out := make([]int, len(d.pages))
	for i, p := range d.pages {
		out[i] = p.Number
	}
	return out
}

// EmptyPositions maps each empty page number to its absolute position index
// in the input sequence. Used for positional-slot reinsertion.
func (d *Document) EmptyPositions() map[int]int {
	out := make(map[int]int)
	for i, p := range d.pages {
		if p.IsEmpty {
			out[p.Number] = i
		}
	}
	return out
}
