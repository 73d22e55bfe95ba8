package advisor

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// parsedResponse is the raw parse result before set validation.
type parsedResponse struct {
	Order     []int  `json:"order"`
	Reasoning string `json:"reasoning"`
}

var (
	jsonObjectRe = regexp.MustCompile(`(?s)\{[^{}]*"order"\s*:\s*\[[^\]]*\][^{}]*\}`)
	intListRe    = regexp.MustCompile(`\[\s*\d+(?:\s*,\s*\d+)*\s*\]`)
	reasoningRe  = regexp.MustCompile(`(?i)reasoning["']?\s*[:=]\s*["']?([^"'\n]+)`)
)

// parseResponse extracts an ordering proposal from a free-form response.
//
// Strategies, in order: strict JSON decode of the whole response, JSON
// object extraction via pattern match, then bare integer-list extraction.
// If no strategy yields a list, the response is an ErrAdvisorParse.
func parseResponse(response string) (*parsedResponse, error) {
	trimmed := strings.TrimSpace(response)
	if trimmed == "" {
		return nil, fmt.Errorf("%w: empty response", ErrAdvisorParse)
	}

	// Strict: the whole response is the JSON object we asked for.
	var strict parsedResponse
	if err := json.Unmarshal([]byte(trimmed), &strict); err == nil && len(strict.Order) > 0 {
		return &strict, nil
	}

	// Embedded JSON object with an "order" field somewhere in the text.
	if match := jsonObjectRe.FindString(trimmed); match != "" {
		var embedded parsedResponse
		if err := json.Unmarshal([]byte(match), &embedded); err == nil && len(embedded.Order) > 0 {
			if embedded.Reasoning == "" {
				embedded.Reasoning = extractReasoning(trimmed)
			}
			return &embedded, nil
		}
	}

	// Bare list of integers anywhere in the text.
	if match := intListRe.FindString(trimmed); match != "" {
		order, err := parseIntList(match)
		if err == nil && len(order) > 0 {
			return &parsedResponse{Order: order, Reasoning: extractReasoning(trimmed)}, nil
		}
	}

	return nil, fmt.Errorf("%w: no ordered list of integers found", ErrAdvisorParse)
}

func parseIntList(list string) ([]int, error) {
	inner := strings.Trim(strings.TrimSpace(list), "[]")
	if inner == "" {
		return nil, fmt.Errorf("empty list")
	}
	parts := strings.Split(inner, ",")
	out := make([]int, 0, len(parts))
	for _, part := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, nil
}

func extractReasoning(response string) string {
	if m := reasoningRe.FindStringSubmatch(response); m != nil {
		return strings.TrimSpace(m[1])
	}
	return ""
}
