package client

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/menta2k/thumbnailer/pkg/types"
)

var (
	reBlockComment = regexp.MustCompile(`(?s)/\*.*?\*/`)
	reLineComment  = regexp.MustCompile(`(?m)//.*$`)
	reTrailing     = regexp.MustCompile(`,(\s*[}\]])`)
)

// Fallback is the centred result used when a model answer cannot be parsed.
// Its label is "none" so callers treat it as "no subject found".
func Fallback(reason string) *types.AnalysisResult {
	return &types.AnalysisResult{
		Primary: types.Primary{
			Label: "none",
			Box:   types.Box{X: 0.25, Y: 0.25, W: 0.5, H: 0.5},
			Cx:    0.5,
			Cy:    0.5,
		},
		Description: reason,
		Tags:        []string{"fallback"},
	}
}

// ParseAnalysis decodes a model's JSON answer. Malformed answers give a
// Fallback result rather than an error.
func ParseAnalysis(raw string) *types.AnalysisResult {
	raw = SanitizeJSON(raw)
	if !strings.HasPrefix(raw, "{") {
		return Fallback("model returned non-JSON response")
	}

	var result types.AnalysisResult
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		return Fallback("failed to parse model response")
	}

	p := &result.Primary
	if p.Label == "" && p.Confidence == 0 {
		if p.Cx == 0 && p.Cy == 0 {
			p.Cx, p.Cy = 0.5, 0.5
		}
		if p.Box.W == 0 && p.Box.H == 0 {
			p.Box = types.Box{X: 0.25, Y: 0.25, W: 0.5, H: 0.5}
		}
	}
	return &result
}

// SanitizeJSON strips code fences, comments and trailing commas and keeps
// the outermost object.
func SanitizeJSON(raw string) string {
	raw = strings.TrimSpace(raw)

	if strings.HasPrefix(raw, "```") {
		if i := strings.Index(raw, "\n"); i >= 0 {
			raw = raw[i+1:]
		}
		if j := strings.LastIndex(raw, "```"); j >= 0 {
			raw = raw[:j]
		}
	}
	raw = strings.Trim(strings.TrimSpace(raw), "`")

	raw = reBlockComment.ReplaceAllString(raw, "")
	raw = reLineComment.ReplaceAllStringFunc(raw, func(m string) string {
		// keep URLs such as "http://..." inside strings
		if strings.Contains(m, `"`) {
			return m
		}
		return ""
	})
	raw = reTrailing.ReplaceAllString(raw, "$1")

	if start := strings.Index(raw, "{"); start >= 0 {
		if end := strings.LastIndex(raw, "}"); end > start {
			raw = raw[start : end+1]
		}
	}
	return strings.TrimSpace(raw)
}
