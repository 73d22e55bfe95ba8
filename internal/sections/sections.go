// Package sections detects logical sections and builds a table of contents
// over already-ordered page text. Detection is pure and advisory: it never
// feeds back into the ordering decision.
package sections

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/quirelabs/orderd/internal/page"
)

// DefaultMinSectionRunes is the minimum body length for a detected section
// to be kept. Shorter fragments are usually stray heading-like lines.
const DefaultMinSectionRunes = 100

// Section is one logical section of the document.
type Section struct {
	Title      string  `json:"title"`
	Content    string  `json:"content"`
	Level      int     `json:"level"`
	Page       int     `json:"page"`
	Confidence float64 `json:"confidence"`
}

// TOCEntry is one table-of-contents row derived from a Section.
type TOCEntry struct {
	ID         string  `json:"id"`
	Title      string  `json:"title"`
	Level      int     `json:"level"`
	Page       int     `json:"page"`
	Confidence float64 `json:"confidence"`
}

type headingPattern struct {
	re    *regexp.Regexp
	level int
}

// Heading shapes, checked in order. The title-case rule is last because it
// is the loosest and would otherwise shadow the structured forms.
var headingPatterns = []headingPattern{
	{regexp.MustCompile(`^#\s+(.+?)\s*$`), 1},
	{regexp.MustCompile(`^##\s+(.+?)\s*$`), 2},
	{regexp.MustCompile(`^###\s+(.+?)\s*$`), 3},
	{regexp.MustCompile(`^\d+\.\s+(.+?)\s*$`), 2},
	{regexp.MustCompile(`^([A-Z][A-Za-z0-9 ]+)[.:]\s*$`), 2},
}

// Detector splits page text into sections.
type Detector struct {
	minSectionRunes int
}

// NewDetector creates a Detector. minSectionRunes below 1 selects the
// default.
func NewDetector(minSectionRunes int) *Detector {
	if minSectionRunes < 1 {
		minSectionRunes = DefaultMinSectionRunes
	}
	return &Detector{minSectionRunes: minSectionRunes}
}

// Detect splits one page's text into sections at heading boundaries. Text
// before the first heading is not attributed to any section. A section
// shorter than the minimum body length is dropped when the next heading
// arrives.
func (d *Detector) Detect(text string, pageNumber int) []Section {
	var sections []Section
	var current *Section

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if title, level, ok := matchHeading(line); ok {
			if current != nil && utf8.RuneCountInString(current.Content) >= d.minSectionRunes {
				sections = append(sections, *current)
			}
			current = &Section{
				Title:      title,
				Content:    line + "\n",
				Level:      level,
				Page:       pageNumber,
				Confidence: 1.0,
			}
			continue
		}

		if current != nil {
			current.Content += line + "\n"
		}
	}

	if current != nil && utf8.RuneCountInString(current.Content) >= d.minSectionRunes {
		sections = append(sections, *current)
	}
	return sections
}

// Outline detects sections across a whole document, walking pages in the
// given reading order. Pages without any detected heading contribute a
// single low-confidence section so the outline stays complete.
func (d *Detector) Outline(doc *page.Document, order []int) []Section {
	byNumber := make(map[int]page.Page, doc.Len())
	for _, p := range doc.Pages() {
		byNumber[p.Number] = p
	}

	var all []Section
	for _, number := range order {
		p, ok := byNumber[number]
		if !ok || p.IsEmpty {
			continue
		}
		detected := d.Detect(p.Text, p.Number)
		if len(detected) == 0 {
			all = append(all, Section{
				Title:      fmt.Sprintf("Page %d", p.Number),
				Content:    p.Text,
				Level:      1,
				Page:       p.Number,
				Confidence: 0.8,
			})
			continue
		}
		all = append(all, detected...)
	}
	return all
}

// TableOfContents derives TOC entries from sections, preserving order.
func TableOfContents(sections []Section) []TOCEntry {
	toc := make([]TOCEntry, len(sections))
	for i, s := range sections {
		toc[i] = TOCEntry{
			ID:         fmt.Sprintf("section-%d", i+1),
			Title:      s.Title,
			Level:      s.Level,
			Page:       s.Page,
			Confidence: s.Confidence,
		}
	}
	return toc
}

func matchHeading(line string) (title string, level int, ok bool) {
	for _, hp := range headingPatterns {
		if m := hp.re.FindStringSubmatch(line); m != nil {
			return strings.TrimSpace(m[1]), hp.level, true
		}
	}
	return "", 0, false
}
