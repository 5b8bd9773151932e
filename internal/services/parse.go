package services

import (
	"regexp"
	"strconv"
	"strings"
)

// Deterministic extraction helpers used by the goal handlers. These run
// regardless of whether the text-completion capability is reachable, so
// every state mutation stays reproducible from the message text alone.

var sizePattern = regexp.MustCompile(`(?i)\b(\d+)\s*(?:x\s+)?(xxx-?large|xx-?large|x-?large|extra\s?large|large|medium|small|3xl|2xl|xxl|xl|xs|s|m|l)\b`)

var sizeAliases = map[string]string{
	"xs": "xs", "s": "s", "small": "s",
	"m": "m", "medium": "m",
	"l": "l", "large": "l",
	"xl": "xl", "xlarge": "xl", "extralarge": "xl",
	"2xl": "2xl", "xxl": "2xl", "xxlarge": "2xl",
	"3xl": "3xl", "xxxlarge": "3xl",
}

// ParseSizes pulls a size breakdown like "12 small and 8 medium" out of
// free text. Unrecognized size words are skipped; repeated mentions of
// the same size accumulate.
func ParseSizes(text string) map[string]int {
	matches := sizePattern.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		return nil
	}
	sizes := map[string]int{}
	for _, match := range matches {
		qty, err := strconv.Atoi(match[1])
		if err != nil || qty <= 0 {
			continue
		}
		raw := strings.ToLower(match[2])
		raw = strings.ReplaceAll(raw, "-", "")
		raw = strings.ReplaceAll(raw, " ", "")
		label, ok := sizeAliases[raw]
		if !ok {
			continue
		}
		sizes[label] += qty
	}
	if len(sizes) == 0 {
		return nil
	}
	return sizes
}

var emailPattern = regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`)

func ExtractEmail(text string) string {
	return emailPattern.FindString(text)
}

var datePatterns = []*regexp.Regexp{
	regexp.MustCompile(`\b\d{4}-\d{2}-\d{2}\b`),
	regexp.MustCompile(`\b\d{1,2}/\d{1,2}/\d{4}\b`),
	regexp.MustCompile(`(?i)\b(?:january|february|march|april|may|june|july|august|september|october|november|december|jan|feb|mar|apr|jun|jul|aug|sep|oct|nov|dec)\.?\s+\d{1,2},?\s+\d{4}\b`),
}

// ExtractDate returns the first thing that looks like a calendar date.
// The caller parses it; unparseable dates fall back to standard
// shipping downstream.
func ExtractDate(text string) string {
	for _, pattern := range datePatterns {
		if match := pattern.FindString(text); match != "" {
			return match
		}
	}
	return ""
}

// stylePattern matches wholesale style codes like "G500" or "PC61".
var stylePattern = regexp.MustCompile(`\b[A-Za-z]{1,3}\d{2,5}[A-Za-z]{0,2}\b`)

func ExtractStyleCode(text string) string {
	return stylePattern.FindString(text)
}

var knownColors = []string{
	"black", "white", "navy", "royal blue", "blue", "red", "cardinal",
	"maroon", "forest green", "green", "purple", "orange", "yellow",
	"gold", "charcoal", "heather grey", "heather gray", "grey", "gray",
	"sand", "brown", "pink",
}

func ExtractColor(text string) string {
	lowered := strings.ToLower(text)
	for _, color := range knownColors {
		if strings.Contains(lowered, color) {
			return color
		}
	}
	return ""
}

var placementTerms = []struct {
	keyword   string
	placement string
}{
	{"left chest", "left_chest"},
	{"center chest", "center_chest"},
	{"full front", "full_front"},
	{"full back", "full_back"},
	{"sleeve", "sleeve"},
	{"front", "full_front"},
	{"back", "full_back"},
}

// ParsePlacement maps placement vocabulary onto canonical placement
// identifiers. Multi-word placements are checked before the bare
// front/back fallbacks.
func ParsePlacement(text string) string {
	lowered := strings.ToLower(text)
	for _, term := range placementTerms {
		if strings.Contains(lowered, term.keyword) {
			return term.placement
		}
	}
	return ""
}

var rejectionPhrases = []string{
	"different", "something else", "don't like", "dont like",
	"not that", "no thanks", "another option", "not a fan", "instead",
}

func isRejection(text string) bool {
	lowered := strings.ToLower(text)
	for _, phrase := range rejectionPhrases {
		if strings.Contains(lowered, phrase) {
			return true
		}
	}
	return false
}

// extractLabeled picks out "label: value" segments, splitting on
// newlines, commas and semicolons.
func extractLabeled(text, label string) string {
	for _, chunk := range strings.FieldsFunc(text, func(r rune) bool {
		return r == '\n' || r == ';'
	}) {
		idx := strings.Index(strings.ToLower(chunk), label+":")
		if idx < 0 {
			continue
		}
		value := chunk[idx+len(label)+1:]
		// Another labeled segment on the same line ends this value.
		for _, other := range []string{"name:", "address:", "email:", "date:", "deliver by:"} {
			if other == label+":" {
				continue
			}
			if cut := strings.Index(strings.ToLower(value), other); cut >= 0 {
				value = value[:cut]
			}
		}
		value = strings.Trim(strings.TrimSpace(value), ",")
		if value != "" {
			return strings.TrimSpace(value)
		}
	}
	return ""
}
