package advisor

import (
	"fmt"
	"sort"
	"strings"

	"github.com/quirelabs/orderd/internal/page"
)

// buildPrompt renders the compact per-page summaries and instructions sent
// to the reasoning service. Only a bounded excerpt of each page travels, not
// the full text.
func buildPrompt(pages []page.Page, maxExcerptRunes int) string {
	numbers := make([]int, len(pages))
	for i, p := range pages {
		numbers[i] = p.Number
	}
	sorted := append([]int(nil), numbers...)
	sort.Ints(sorted)

	var b strings.Builder
	b.WriteString("You reorder the pages of a PDF that was scanned or merged out of order.\n")
	b.WriteString("The pages below are identified by their original physical page number.\n")
	b.WriteString("Analyze the content of each page and determine the correct reading order.\n\n")
	b.WriteString("Consider:\n")
	b.WriteString("- Title pages and tables of contents come first\n")
	b.WriteString("- Sections follow their numbering (Article I before Article II)\n")
	b.WriteString("- Introductions precede main content; conclusions, signatures, and appendices come last\n")
	b.WriteString("- Sentences cut off mid-thought continue on the following page\n\n")
	b.WriteString("Pages (currently out of order):\n")

	for _, p := range pages {
		fmt.Fprintf(&b, "\n[Page %d]\n%s\n---\n", p.Number, excerpt(p.Text, maxExcerptRunes))
	}

	fmt.Fprintf(&b, "\nRespond with ONLY a JSON object in this exact format:\n")
	fmt.Fprintf(&b, "{\"order\": %s, \"reasoning\": \"brief explanation\"}\n", formatNumbers(sorted))
	fmt.Fprintf(&b, "The \"order\" array must contain each of the page numbers %s exactly once,\n", formatNumbers(sorted))
	b.WriteString("listed in correct reading order. Do not include any text outside the JSON object.\n")

	return b.String()
}

// excerpt returns the first maxRunes runes of the first few lines of text.
func excerpt(text string, maxRunes int) string {
	lines := strings.Split(strings.TrimSpace(text), "\n")
	if len(lines) > 5 {
		lines = lines[:5]
	}
	joined := strings.Join(lines, "\n")
	runes := []rune(joined)
	if len(runes) <= maxRunes {
		return joined
	}
	return string(runes[:maxRunes])
}

func formatNumbers(numbers []int) string {
	parts := make([]string, len(numbers))
	for i, n := range numbers {
		parts[i] = fmt.Sprintf("%d", n)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
