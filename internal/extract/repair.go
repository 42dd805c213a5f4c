package extract

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/priceowl/priceowl/internal/common"
	"github.com/priceowl/priceowl/internal/model"
)

var (
	trailingCommaObject = regexp.MustCompile(`,\s*}`)
	trailingCommaArray  = regexp.MustCompile(`,\s*]`)
)

// Repairer locates the JSON object embedded in noisy provider text, repairs
// common syntax defects, and validates the top-level shape. It never
// fabricates missing fields.
type Repairer struct{}

// NewRepairer creates a response repairer.
func NewRepairer() *Repairer {
	return &Repairer{}
}

// ParseAndValidate extracts the results array from raw provider text.
// A missing results field is an empty batch, not an error; a results field
// that is not an array is malformed.
func (r *Repairer) ParseAndValidate(rawText string) ([]model.RawResult, error) {
	trimmed := strings.TrimSpace(rawText)
	if trimmed == "" {
		return nil, common.ErrEmptyResponse
	}

	cleaned := stripMarkdownFences(trimmed)

	span, ok := locateJSONObject(cleaned)
	if !ok {
		return nil, fmt.Errorf("%w: no JSON object found in text", common.ErrMalformedResponse)
	}

	repaired := trailingCommaObject.ReplaceAllString(span, "}")
	repaired = trailingCommaArray.ReplaceAllString(repaired, "]")

	var doc struct {
		Results json.RawMessage `json:"results"`
	}
	if err := json.Unmarshal([]byte(repaired), &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrMalformedResponse, err)
	}

	if len(doc.Results) == 0 || string(doc.Results) == "null" {
		return []model.RawResult{}, nil
	}

	var results []model.RawResult
	if err := json.Unmarshal(doc.Results, &results); err != nil {
		return nil, fmt.Errorf("%w: results is not a valid array: %v", common.ErrMalformedResponse, err)
	}

	return results, nil
}

// stripMarkdownFences removes a surrounding ```json ... ``` wrapper when the
// whole text is fenced.
func stripMarkdownFences(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	if idx := strings.LastIndex(s, "```"); idx >= 0 {
		s = s[:idx]
	}
	return strings.TrimSpace(s)
}

// locateJSONObject finds the first balanced {...} span, tracking string
// literals and escapes so braces inside values do not confuse the depth
// count. When the text ends before the span closes it falls back to the
// greedy first-{ to last-} slice.
func locateJSONObject(s string) (string, bool) {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		ch := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}
		switch ch {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1], true
			}
		}
	}

	// Unbalanced: take everything up to the last closing brace.
	end := strings.LastIndexByte(s, '}')
	if end <= start {
		return "", false
	}
	return s[start : end+1], true
}
