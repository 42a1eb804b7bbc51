package chunking

import (
	"regexp"
	"strings"
	"unicode"
)

var (
	// A paragraph break is a whitespace run containing at least two newlines.
	paragraphBreak = regexp.MustCompile(`\n[ \t\r\f]*\n\s*`)

	// Markdown headings level 1-3 and their HTML equivalents. Four or more
	// '#' characters deliberately do not match: deeper headings stay inside
	// their parent section.
	headingLine = regexp.MustCompile(`(?mi)^[ \t]*(#{1,3}[ \t]+\S.*|<h[1-3][^>]*>.*)[ \t]*$`)

	// Level 1-2 only, used by the first-section extractor.
	topHeadingLine = regexp.MustCompile(`(?mi)^[ \t]*(#{1,2}[ \t]+\S.*|<h[12][^>]*>.*)[ \t]*$`)
)

// splitParagraphs partitions text on blank-line runs. Every returned unit is
// trimmed and non-empty. A result of zero or one units means no paragraph
// structure was detected.
func splitParagraphs(text string) []string {
	parts := paragraphBreak.Split(text, -1)
	units := make([]string, 0, len(parts))
	for _, part := range parts {
		if p := strings.TrimSpace(part); p != "" {
			units = append(units, p)
		}
	}
	return units
}

// splitSentences partitions text on whitespace that immediately follows a
// sentence-terminal mark. A result of zero or one units means no sentence
// structure was detected.
func splitSentences(text string) []string {
	var units []string
	var current strings.Builder

	runes := []rune(text)
	for i, r := range runes {
		current.WriteRune(r)
		if !isTerminal(r) {
			continue
		}
		if i+1 < len(runes) && unicode.IsSpace(runes[i+1]) {
			if u := strings.TrimSpace(current.String()); u != "" {
				units = append(units, u)
			}
			current.Reset()
		}
	}
	if u := strings.TrimSpace(current.String()); u != "" {
		units = append(units, u)
	}
	return units
}

func isTerminal(r rune) bool {
	return r == '.' || r == '!' || r == '?'
}

// splitSections partitions markdown text into heading-delimited sections.
// Each unit pairs a level 1-3 heading with the body up to the next such
// heading; content before the first heading becomes a headerless leading
// unit. Returns nil when the text has no headings, signaling callers to fall
// back to paragraph-aware chunking.
func splitSections(text string) []string {
	matches := headingLine.FindAllStringIndex(text, -1)
	if len(matches) == 0 {
		return nil
	}

	var sections []string
	if lead := strings.TrimSpace(text[:matches[0][0]]); lead != "" {
		sections = append(sections, lead)
	}
	for i, match := range matches {
		end := len(text)
		if i+1 < len(matches) {
			end = matches[i+1][0]
		}
		if section := strings.TrimSpace(text[match[0]:end]); section != "" {
			sections = append(sections, section)
		}
	}
	return sections
}

// firstSection returns the trimmed span preceding the first level-1 or
// level-2 heading, or the whole trimmed text when no such heading exists.
// The result is empty when the document opens with a heading.
func firstSection(text string) string {
	loc := topHeadingLine.FindStringIndex(text)
	if loc == nil {
		return strings.TrimSpace(text)
	}
	return strings.TrimSpace(text[:loc[0]])
}

// MarkdownSections exposes heading-delimited section splitting. Text with no
// level 1-3 headings comes back as a single trimmed section.
func MarkdownSections(text string) []string {
	if sections := splitSections(text); sections != nil {
		return sections
	}
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil
	}
	return []string{trimmed}
}
