// Package encode turns classified lines of heading-markup text into
// weighted id snippets and hands them to a corpus stream as rows.
//
// Two interchangeable aggregation policies exist: the title-prepending
// encoder emits one snippet per body line, enriched with every active
// heading scope's ids; the whole-document encoder emits a single unweighted
// snippet per document.
package encode

import (
	"sort"
	"strings"

	"github.com/RasaHQ/semantic-map-embedding/core/corpus"
	"github.com/RasaHQ/semantic-map-embedding/core/vocab"
)

// ignoredSections are section titles whose body text carries no semantic
// signal for the embedding and is skipped.
var ignoredSections = map[string]struct{}{
	"resources":      {},
	"references":     {},
	"external links": {},
}

// sectionIgnored reports whether a normalized section title is skipped.
func sectionIgnored(title string) bool {
	_, ok := ignoredSections[title]
	return ok
}

// Encoder consumes input lines and emits encoded snippets into a stream.
type Encoder interface {
	// ReadLine feeds one input line (or one sentence of a split line).
	ReadLine(line string) error
	// Flush finalizes pending output and patches the stream header.
	Flush() error
	// SnippetsEncoded returns the number of snippets emitted so far.
	SnippetsEncoded() uint64
	// SnippetLengths returns the histogram of emitted snippet lengths.
	SnippetLengths() map[int]uint64
}

// matchSet resolves a line to the set of its vocabulary ids.
func matchSet(v *vocab.Vocabulary, line string) (map[uint32]struct{}, error) {
	ids, err := v.MatchIDs(line)
	if err != nil {
		return nil, err
	}
	set := make(map[uint32]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set, nil
}

// sortedIDs flattens an id set into ascending order, as the container
// format requires.
func sortedIDs(set map[uint32]struct{}) []uint32 {
	ids := make([]uint32, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// trimLine normalizes an input line before classification.
func trimLine(line string) string {
	return strings.TrimSpace(line)
}

// appendSnippet writes one snippet row and tracks the counters.
func appendSnippet(s *corpus.Stream, ids []uint32, weights []uint8, snippets *uint64, lengths map[int]uint64) error {
	if len(ids) == 0 {
		return nil
	}
	if err := s.Append(ids, weights); err != nil {
		return err
	}
	*snippets++
	lengths[len(ids)]++
	return nil
}
