package encode

import "strings"

// LineClass identifies the structural role of one input line.
type LineClass int

const (
	// Blank is an empty line (after trimming).
	Blank LineClass = iota
	// DocumentStart is a document title line ("= Title =").
	DocumentStart
	// SectionStart is a section heading ("== Section ==").
	SectionStart
	// SubsectionStart is a depth-3 heading ("=== ... ===").
	SubsectionStart
	// SubsubsectionStart is a depth-4 heading.
	SubsubsectionStart
	// SubsubsubsectionStart is a depth-5 heading.
	SubsubsubsectionStart
	// ListItem is a bulleted list line ("* item").
	ListItem
	// PlainText is any other non-blank line.
	PlainText
)

// Classify determines the class of a trimmed line. Deeper heading prefixes
// are checked before shallower ones.
func Classify(line string) LineClass {
	switch {
	case line == "":
		return Blank
	case strings.HasPrefix(line, "===== "):
		return SubsubsubsectionStart
	case strings.HasPrefix(line, "==== "):
		return SubsubsectionStart
	case strings.HasPrefix(line, "=== "):
		return SubsectionStart
	case strings.HasPrefix(line, "== "):
		return SectionStart
	case strings.HasPrefix(line, "= "):
		return DocumentStart
	case strings.HasPrefix(line, "* "):
		return ListItem
	default:
		return PlainText
	}
}

// headingDepth maps a heading class to its nesting depth (document = 1).
func headingDepth(class LineClass) int {
	switch class {
	case DocumentStart:
		return 1
	case SectionStart:
		return 2
	case SubsectionStart:
		return 3
	case SubsubsectionStart:
		return 4
	case SubsubsubsectionStart:
		return 5
	default:
		return 0
	}
}

// sectionTitle normalizes a heading line for the ignore-set comparison:
// fences stripped, lowercased.
func sectionTitle(line string) string {
	return strings.ToLower(strings.Trim(line, "= "))
}
