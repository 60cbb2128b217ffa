package extract

import (
	"regexp"
	"strings"
)

// Section headers the analyzer emits. A clinical section runs from its own
// header to the nearest following header out of this set; the full set acts
// as the shared terminator list so sections never bleed into each other.
var sectionTerminators = []string{
	"report information",
	"image type & region",
	"image type and region",
	"key findings",
	"diagnostic assessment",
	"patient-friendly explanation",
	"recommendations",
	"diagnosis",
	"impression",
	"document type",
	"medication",
	"disclaimer",
}

var findingsAnchors = []string{"key findings", "findings"}

var diagnosisAnchors = []string{"diagnostic assessment", "diagnosis", "impression"}

var recommendationAnchors = []string{"recommendations", "recommendation"}

// leadingEnumerator matches a `1. ` style prefix left over from the
// analyzer's numbered section list; trailingEnumerator matches the stub of
// the next numbered header when the terminator search leaves one behind.
var (
	leadingEnumerator  = regexp.MustCompile(`^\d+\.\s*`)
	trailingEnumerator = regexp.MustCompile(`\n\s*\d+\.\s*$`)
)

// sliceSection returns the text strictly between the first matching start
// anchor and the nearest subsequent terminator, or to end of string when no
// terminator follows. Returns nil when no anchor matches.
func sliceSection(text string, anchors []string) *string {
	lower := strings.ToLower(text)

	for _, anchor := range anchors {
		idx := strings.Index(lower, anchor)
		if idx < 0 {
			continue
		}
		start := idx + len(anchor)
		// Skip the header's trailing decoration: bold markers, colon, space.
		for start < len(text) && strings.ContainsRune("*: \t", rune(text[start])) {
			start++
		}

		end := len(text)
		for _, term := range sectionTerminators {
			if term == anchor {
				continue
			}
			if t := strings.Index(lower[start:], term); t >= 0 && start+t < end {
				end = start + t
			}
		}

		body := strings.TrimSpace(text[start:end])
		body = leadingEnumerator.ReplaceAllString(body, "")
		body = cleanCapture(body)
		body = cleanCapture(trailingEnumerator.ReplaceAllString(body, ""))
		if body == "" {
			return nil
		}
		return strPtr(body)
	}
	return nil
}

// medicationClause matches one labeled medication line. Unlike the
// single-line field rules, every non-overlapping match is kept.
var medicationClause = regexp.MustCompile(`(?i)\b(?:medications?|medicines?|drugs?|rx)\b\s*[:\-][ \t]*([^\n]+)`)

// extractMedications returns all medication clauses in source order with
// their labels stripped. Duplicates are kept; empty captures are dropped.
func extractMedications(text string) []string {
	matches := medicationClause.FindAllStringSubmatch(text, -1)
	if matches == nil {
		return nil
	}
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		if v := cleanCapture(m[1]); v != "" {
			out = append(out, v)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
