package vocab

import (
	"strings"
	"unicode"
)

// keepEdge reports whether a rune may start or end a word. Besides letters
// and digits, the tokenizer keeps #, @, & and _ so hashtags, mentions and
// identifiers survive.
func keepEdge(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' || r == '#' || r == '@' || r == '&'
}

// WordsOfLine extracts words from a line for vocabulary building. Heading
// fences (= and surrounding spaces) are stripped, the line is split on
// whitespace, and punctuation is trimmed from token edges while interior
// punctuation is preserved, so URLs, e-mail addresses and numbers like
// 10'000.00 come through intact.
func WordsOfLine(line string) []string {
	line = strings.Trim(line, "= ")

	var words []string
	for _, token := range strings.Fields(line) {
		token = strings.TrimFunc(token, func(r rune) bool { return !keepEdge(r) })
		if token != "" {
			words = append(words, token)
		}
	}
	return words
}
