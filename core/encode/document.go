package encode

import (
	"github.com/RasaHQ/semantic-map-embedding/core/corpus"
	"github.com/RasaHQ/semantic-map-embedding/core/vocab"
)

// WholeDocument is the document-level encoder: title ids and body ids
// accumulate separately across one document and merge into a single
// unweighted snippet when the next document starts (or the input ends).
type WholeDocument struct {
	vocab  *vocab.Vocabulary
	stream *corpus.Stream

	titleIDs       map[uint32]struct{}
	bodyIDs        map[uint32]struct{}
	currentSection string

	snippets uint64
	lengths  map[int]uint64
}

// NewWholeDocument creates a whole-document encoder writing to stream. The
// stream should be the unweighted variant; document snippets carry no
// weights.
func NewWholeDocument(v *vocab.Vocabulary, stream *corpus.Stream) *WholeDocument {
	return &WholeDocument{
		vocab:    v,
		stream:   stream,
		titleIDs: make(map[uint32]struct{}),
		bodyIDs:  make(map[uint32]struct{}),
		lengths:  make(map[int]uint64),
	}
}

// ReadLine feeds one line: a document start flushes the previous document
// and seeds the title buffer, everything else with ids lands in the body
// buffer unless the current section is ignored.
func (e *WholeDocument) ReadLine(line string) error {
	line = trimLine(line)
	ids, err := matchSet(e.vocab, line)
	if err != nil {
		return err
	}

	class := Classify(line)
	if class == SectionStart {
		e.currentSection = sectionTitle(line)
	}

	if class == DocumentStart {
		if err := e.Flush(); err != nil {
			return err
		}
		for id := range ids {
			e.titleIDs[id] = struct{}{}
		}
		return nil
	}

	if len(ids) == 0 || sectionIgnored(e.currentSection) {
		return nil
	}
	for id := range ids {
		e.bodyIDs[id] = struct{}{}
	}
	return nil
}

// Flush emits the accumulated document as one unweighted snippet, resets
// the buffers and section state, and patches the stream header.
func (e *WholeDocument) Flush() error {
	union := make(map[uint32]struct{}, len(e.titleIDs)+len(e.bodyIDs))
	for id := range e.titleIDs {
		union[id] = struct{}{}
	}
	for id := range e.bodyIDs {
		union[id] = struct{}{}
	}

	if err := appendSnippet(e.stream, sortedIDs(union), nil, &e.snippets, e.lengths); err != nil {
		return err
	}

	e.titleIDs = make(map[uint32]struct{})
	e.bodyIDs = make(map[uint32]struct{})
	e.currentSection = ""
	return e.stream.Flush()
}

// SnippetsEncoded returns the number of snippets emitted so far.
func (e *WholeDocument) SnippetsEncoded() uint64 {
	return e.snippets
}

// SnippetLengths returns the histogram of emitted snippet lengths.
func (e *WholeDocument) SnippetLengths() map[int]uint64 {
	return e.lengths
}
