package encode

import (
	"github.com/RasaHQ/semantic-map-embedding/core/corpus"
	"github.com/RasaHQ/semantic-map-embedding/core/vocab"
)

// TitlePrepending is the hierarchical encoder: every body line becomes one
// snippet carrying the ids of all active heading scopes, weighted by the
// scope that contributed them. Consecutive list items accumulate into a
// single snippet that flushes when a non-list line follows.
type TitlePrepending struct {
	vocab  *vocab.Vocabulary
	stream *corpus.Stream

	scopes         scopeStack
	pendingList    map[uint32]struct{}
	currentSection string
	combineLists   bool

	snippets uint64
	lengths  map[int]uint64
}

// NewTitlePrepending creates a title-prepending encoder writing to stream.
// With combineLists disabled, list items are treated as plain body text.
func NewTitlePrepending(v *vocab.Vocabulary, stream *corpus.Stream, combineLists bool) *TitlePrepending {
	return &TitlePrepending{
		vocab:        v,
		stream:       stream,
		pendingList:  make(map[uint32]struct{}),
		combineLists: combineLists,
		lengths:      make(map[int]uint64),
	}
}

// ReadLine classifies one line and updates scopes, list accumulation and
// output accordingly.
func (e *TitlePrepending) ReadLine(line string) error {
	line = trimLine(line)
	ids, err := matchSet(e.vocab, line)
	if err != nil {
		return err
	}

	class := Classify(line)

	// A pending list block ends at the first non-list line.
	if len(e.pendingList) > 0 && class != ListItem {
		if err := e.flushList(); err != nil {
			return err
		}
	}

	if depth := headingDepth(class); depth > 0 {
		e.scopes.enter(depth, ids)
		e.pendingList = make(map[uint32]struct{})
		switch class {
		case DocumentStart:
			e.currentSection = ""
		case SectionStart:
			e.currentSection = sectionTitle(line)
		}
		return nil
	}

	if class == ListItem && e.combineLists {
		for id := range ids {
			e.pendingList[id] = struct{}{}
		}
		return nil
	}

	// Plain body text (or a list item while combining is off).
	if len(ids) == 0 || sectionIgnored(e.currentSection) {
		return nil
	}
	e.scopes.contribute(ids)
	return e.emit(ids)
}

// flushList emits the accumulated list block as one snippet, combined with
// the active heading scopes, and clears the accumulation.
func (e *TitlePrepending) flushList() error {
	ids := e.pendingList
	e.pendingList = make(map[uint32]struct{})
	e.scopes.contribute(ids)
	return e.emit(ids)
}

// emit writes one snippet row, weighted when the stream carries weights.
func (e *TitlePrepending) emit(set map[uint32]struct{}) error {
	ids := sortedIDs(set)
	var weights []uint8
	if e.stream.Weighted() {
		weights = make([]uint8, len(ids))
		for i, id := range ids {
			weights[i] = e.scopes.weight(id)
		}
	}
	return appendSnippet(e.stream, ids, weights, &e.snippets, e.lengths)
}

// Flush patches the stream header. Scope state survives the call so a
// single encoder can span multiple files of one worker slice.
func (e *TitlePrepending) Flush() error {
	return e.stream.Flush()
}

// SnippetsEncoded returns the number of snippets emitted so far.
func (e *TitlePrepending) SnippetsEncoded() uint64 {
	return e.snippets
}

// SnippetLengths returns the histogram of emitted snippet lengths.
func (e *TitlePrepending) SnippetLengths() map[int]uint64 {
	return e.lengths
}
