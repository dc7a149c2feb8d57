// Package sentence splits a line of prose into sentences using
// abbreviation-aware heuristics: honorifics, acronyms, company suffixes,
// website TLDs and decimal numbers do not terminate a sentence.
package sentence

import (
	"regexp"
	"strings"
)

// Placeholder tokens used during rewriting. A protected period becomes
// prd until the final restore; a real sentence boundary becomes stop.
const (
	prd  = "<prd>"
	stop = "<stop>"
)

var (
	alphabets     = `([A-Za-z])`
	starters      = `(Mr|Mrs|Ms|Dr|He\s|She\s|It\s|They\s|Their\s|Our\s|We\s|But\s|However\s|That\s|This\s|Wherever)`
	reDecimal     = regexp.MustCompile(`([0-9])[.]([0-9])`)
	rePrefix      = regexp.MustCompile(`(Mr|St|Mrs|Ms|Dr)[.]`)
	reWebsite     = regexp.MustCompile(`[.](com|net|org|io|gov)`)
	reSingle      = regexp.MustCompile(`\s` + alphabets + `[.] `)
	reAcronym     = regexp.MustCompile(`([A-Z][.][A-Z][.](?:[A-Z][.])?) ` + starters)
	reThreeInits  = regexp.MustCompile(alphabets + `[.]` + alphabets + `[.]` + alphabets + `[.]`)
	reTwoInits    = regexp.MustCompile(alphabets + `[.]` + alphabets + `[.]`)
	reSuffixStart = regexp.MustCompile(` (Inc|Ltd|Jr|Sr|Co)[.] ` + starters)
	reSuffix      = regexp.MustCompile(` (Inc|Ltd|Jr|Sr|Co)[.]`)
	reLoneInitial = regexp.MustCompile(` ` + alphabets + `[.]`)
)

// Split breaks a line into sentences. The sequence is finite and
// order-preserving; a trailing fragment without terminal punctuation is
// dropped, matching the corpus conventions this splitter was built for.
func Split(text string) []string {
	text = " " + text + "  "
	text = strings.ReplaceAll(text, "\n", " ")
	text = reDecimal.ReplaceAllString(text, "$1"+prd+"$2")
	text = rePrefix.ReplaceAllString(text, "$1"+prd)
	text = reWebsite.ReplaceAllString(text, prd+"$1")
	if strings.Contains(text, "Ph.D") {
		text = strings.ReplaceAll(text, "Ph.D.", "Ph"+prd+"D"+prd)
	}
	text = reSingle.ReplaceAllString(text, " $1"+prd+" ")
	text = reAcronym.ReplaceAllString(text, "$1"+stop+" $2")
	text = reThreeInits.ReplaceAllString(text, "$1"+prd+"$2"+prd+"$3"+prd)
	text = reTwoInits.ReplaceAllString(text, "$1"+prd+"$2"+prd)
	text = reSuffixStart.ReplaceAllString(text, " $1"+stop+" $2")
	text = reSuffix.ReplaceAllString(text, " $1"+prd)
	text = reLoneInitial.ReplaceAllString(text, " $1"+prd)
	if strings.Contains(text, "”") {
		text = strings.ReplaceAll(text, ".”", "”.")
	}
	if strings.Contains(text, `"`) {
		text = strings.ReplaceAll(text, `."`, `".`)
	}
	if strings.Contains(text, "!") {
		text = strings.ReplaceAll(text, `!"`, `"!`)
	}
	if strings.Contains(text, "?") {
		text = strings.ReplaceAll(text, `?"`, `"?`)
	}
	text = strings.ReplaceAll(text, ".", "."+stop)
	text = strings.ReplaceAll(text, "?", "?"+stop)
	text = strings.ReplaceAll(text, "!", "!"+stop)
	text = strings.ReplaceAll(text, prd, ".")

	parts := strings.Split(text, stop)
	parts = parts[:len(parts)-1]

	sentences := make([]string, 0, len(parts))
	for _, part := range parts {
		if s := strings.TrimSpace(part); s != "" {
			sentences = append(sentences, s)
		}
	}
	return sentences
}
