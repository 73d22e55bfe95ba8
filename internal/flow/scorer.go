// Package flow scores structural continuation cues between page texts.
//
// The scorer is stateless and pure: the same pair of texts always yields the
// same score. It looks for heading progressions (Article I -> Article II),
// discourse transitions (Introduction -> Methodology), clause and arabic
// numbering adjacency, explicit continuation phrases, and page-number tokens
// embedded in the text.
package flow

import (
	"regexp"
	"strconv"
	"strings"
)

// Cue strengths, strongest first. A page with no detectable cue relative to
// another yields the neutral score rather than zero, so ranking never
// degenerates on cue-free documents.
const (
	pageTokenScore    = 0.85
	discourseScore    = 0.8
	clauseRomanScore  = 0.75
	headingScore      = 0.7
	clauseArabicScore = 0.7
	continuationScore = 0.65
	numberingScore    = 0.6

	// DefaultNeutral is the score for pairs with no detectable cue.
	DefaultNeutral = 0.3
)

// discoursePairs are generic progression cues typical of document structure.
// The first element is expected near the start of the earlier page, the
// second near the start of the later page.
var discoursePairs = [][2]string{
	{"executive summary", "problem statement"},
	{"introduction", "methodology"},
	{"problem statement", "solution"},
	{"abstract", "introduction"},
	{"section 1", "section 2"},
	{"part i", "part ii"},
	{"chapter 1", "chapter 2"},
	{"conclusion", "references"},
	{"summary", "references"},
}

var continuationPhrases = []string{
	"continued from",
	"(continued)",
	"(cont'd)",
	"continuation of",
}

var (
	headingRe   = regexp.MustCompile(`(?i)\b(article|part|chapter|section)\s+([ivxlcdm]+)\b`)
	clauseRe    = regexp.MustCompile(`(?i)\(?([ivxlcdm]+)\)|\(?(\d+)\)`)
	numberRe    = regexp.MustCompile(`\b(\d+)\b`)
	pageTokenRe = regexp.MustCompile(`(?i)\bpage\s+(\d+)\b`)
)

// Scorer computes a directional flow score for a pair of page texts.
type Scorer struct {
	neutral float64
}

// NewScorer creates a Scorer with the given neutral score. Values outside
// (0,1) fall back to DefaultNeutral.
func NewScorer(neutral float64) *Scorer {
	if neutral <= 0 || neutral >= 1 {
		neutral = DefaultNeutral
	}
	return &Scorer{neutral: neutral}
}

// Score returns a score in [0,1] indicating how plausible it is that the
// page holding after directly follows the page holding before. Either text
// being blank yields zero.
func (s *Scorer) Score(before, after string) float64 {
	if strings.TrimSpace(before) == "" || strings.TrimSpace(after) == "" {
		return 0
	}

	if pageTokensAdjacent(before, after) {
		return pageTokenScore
	}

	beforeLower := strings.ToLower(strings.TrimSpace(before))
	afterLower := strings.ToLower(strings.TrimSpace(after))
	for _, pair := range discoursePairs {
		if strings.Contains(beforeLower, pair[0]) && strings.Contains(afterLower, pair[1]) {
			return discourseScore
		}
	}

	if score, ok := clauseProgression(before, after); ok {
		return score
	}

	if headingsAdjacent(before, after) {
		return headingScore
	}

	for _, phrase := range continuationPhrases {
		if strings.Contains(head(afterLower, 200), phrase) {
			return continuationScore
		}
	}

	if numberingAdjacent(before, after) {
		return numberingScore
	}

	return s.neutral
}

// head returns the first n bytes of s without splitting past its length.
func head(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

// pageTokensAdjacent reports whether the texts carry "Page N" and "Page N+1"
// tokens.
func pageTokensAdjacent(before, after string) bool {
	mb := pageTokenRe.FindAllStringSubmatch(head(before, 300), -1)
	ma := pageTokenRe.FindAllStringSubmatch(head(after, 300), -1)
	if len(mb) == 0 || len(ma) == 0 {
		return false
	}
	last, err1 := strconv.Atoi(mb[len(mb)-1][1])
	first, err2 := strconv.Atoi(ma[0][1])
	return err1 == nil && err2 == nil && first == last+1
}

// headingsAdjacent reports whether the last roman-numeral heading of before
// directly precedes the first one of after (e.g. "Article I" -> "Article II").
func headingsAdjacent(before, after string) bool {
	mb := headingRe.FindAllStringSubmatch(head(before, 200), -1)
	ma := headingRe.FindAllStringSubmatch(head(after, 200), -1)
	if len(mb) == 0 || len(ma) == 0 {
		return false
	}
	last, ok1 := parseRoman(mb[len(mb)-1][2])
	first, ok2 := parseRoman(ma[0][2])
	return ok1 && ok2 && first == last+1
}

// clauseProgression checks clause markers like "ii)" or "3)" for adjacency.
func clauseProgression(before, after string) (float64, bool) {
	lastRoman, lastArabic, okBefore := lastClause(head(before, 300))
	firstRoman, firstArabic, okAfter := firstClause(head(after, 300))
	if !okBefore || !okAfter {
		return 0, false
	}
	if lastRoman > 0 && firstRoman > 0 && firstRoman == lastRoman+1 {
		return clauseRomanScore, true
	}
	if lastArabic > 0 && firstArabic > 0 && firstArabic == lastArabic+1 {
		return clauseArabicScore, true
	}
	return 0, false
}

func lastClause(text string) (roman, arabic int, ok bool) {
	for _, m := range clauseRe.FindAllStringSubmatch(text, -1) {
		if m[1] != "" {
			if v, valid := parseRoman(m[1]); valid {
				roman, arabic, ok = v, 0, true
			}
		} else if m[2] != "" {
			if v, err := strconv.Atoi(m[2]); err == nil {
				roman, arabic, ok = 0, v, true
			}
		}
	}
	return roman, arabic, ok
}

func firstClause(text string) (roman, arabic int, ok bool) {
	for _, m := range clauseRe.FindAllStringSubmatch(text, -1) {
		if m[1] != "" {
			if v, valid := parseRoman(m[1]); valid {
				return v, 0, true
			}
		} else if m[2] != "" {
			if v, err := strconv.Atoi(m[2]); err == nil {
				return 0, v, true
			}
		}
	}
	return 0, 0, false
}

// numberingAdjacent reports whether the last number near the end of before
// and the first number near the start of after are consecutive.
func numberingAdjacent(before, after string) bool {
	mb := numberRe.FindAllString(head(before, 100), -1)
	ma := numberRe.FindAllString(head(after, 100), -1)
	if len(mb) == 0 || len(ma) == 0 {
		return false
	}
	last, err1 := strconv.Atoi(mb[len(mb)-1])
	first, err2 := strconv.Atoi(ma[0])
	return err1 == nil && err2 == nil && first == last+1
}
