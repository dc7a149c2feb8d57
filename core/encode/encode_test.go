package encode

import (
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/RasaHQ/semantic-map-embedding/core/corpus"
	"github.com/RasaHQ/semantic-map-embedding/core/vocab"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		line string
		want LineClass
	}{
		{"", Blank},
		{"= Anarchism =", DocumentStart},
		{"== History ==", SectionStart},
		{"=== Origins ===", SubsectionStart},
		{"==== Early ====", SubsubsectionStart},
		{"===== Detail =====", SubsubsubsectionStart},
		{"* first item", ListItem},
		{"Ordinary prose.", PlainText},
		{"=not a heading", PlainText},
		{"*not a list", PlainText},
		{"====== too deep ======", PlainText},
	}

	for _, tt := range tests {
		if got := Classify(tt.line); got != tt.want {
			t.Errorf("Classify(%q) = %v, want %v", tt.line, got, tt.want)
		}
	}
}

func TestScopeStackTruncation(t *testing.T) {
	var s scopeStack
	s.enter(1, map[uint32]struct{}{1: {}})
	s.enter(2, map[uint32]struct{}{2: {}})
	s.enter(3, map[uint32]struct{}{3: {}})

	// Entering a new section drops the subsection.
	s.enter(2, map[uint32]struct{}{4: {}})

	into := make(map[uint32]struct{})
	s.contribute(into)
	want := map[uint32]struct{}{1: {}, 4: {}}
	if !reflect.DeepEqual(into, want) {
		t.Errorf("active ids = %v, want %v", into, want)
	}

	if w := s.weight(1); w != 6 {
		t.Errorf("weight(document id) = %d, want 6", w)
	}
	if w := s.weight(4); w != 5 {
		t.Errorf("weight(section id) = %d, want 5", w)
	}
	if w := s.weight(99); w != 1 {
		t.Errorf("weight(body id) = %d, want 1", w)
	}
}

// fixedVocab builds a locked vocabulary with ids in slice order.
func fixedVocab(t *testing.T, words []string) *vocab.Vocabulary {
	t.Helper()
	v := vocab.New()
	v.Preload(words)
	v.Lock()
	return v
}

// feed runs every line of the input through the encoder and flushes.
func feed(t *testing.T, e Encoder, input string) {
	t.Helper()
	for _, line := range strings.Split(input, "\n") {
		if err := e.ReadLine(line); err != nil {
			t.Fatalf("ReadLine(%q) failed: %v", line, err)
		}
	}
	if err := e.Flush(); err != nil {
		t.Fatalf("Flush failed: %v", err)
	}
}

const sampleInput = "= Doc =\n== Sec ==\nHello world\n\n* item1\n* item2\nOther\n"

var sampleWords = []string{"hello", "world", "item1", "item2", "other", "doc", "sec"}

func TestTitlePrependingSample(t *testing.T) {
	path := filepath.Join(t.TempDir(), "corpus.bin")
	v := fixedVocab(t, sampleWords)
	stream := corpus.NewStream(path, uint32(v.Len()), true)
	e := NewTitlePrepending(v, stream, true)

	feed(t, e, sampleInput)
	if err := stream.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	if e.SnippetsEncoded() != 3 {
		t.Errorf("SnippetsEncoded = %d, want 3", e.SnippetsEncoded())
	}

	_, rows, err := corpus.ReadRows(path)
	if err != nil {
		t.Fatalf("ReadRows failed: %v", err)
	}

	want := []corpus.Row{
		// "Hello world" under = Doc = / == Sec ==
		{IDs: []uint32{0, 1, 5, 6}, Weights: []uint8{1, 1, 6, 5}},
		// list block flushed when "Other" follows
		{IDs: []uint32{2, 3, 5, 6}, Weights: []uint8{1, 1, 6, 5}},
		// "Other" itself
		{IDs: []uint32{4, 5, 6}, Weights: []uint8{1, 6, 5}},
	}
	if !reflect.DeepEqual(rows, want) {
		t.Errorf("rows = %+v, want %+v", rows, want)
	}
}

func TestTitlePrependingUnweighted(t *testing.T) {
	path := filepath.Join(t.TempDir(), "corpus.bin")
	v := fixedVocab(t, sampleWords)
	stream := corpus.NewStream(path, uint32(v.Len()), false)
	e := NewTitlePrepending(v, stream, true)

	feed(t, e, sampleInput)
	if err := stream.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	h, rows, err := corpus.ReadRows(path)
	if err != nil {
		t.Fatalf("ReadRows failed: %v", err)
	}
	if h.Version != corpus.FormatUnweighted {
		t.Errorf("version = %d, want unweighted", h.Version)
	}
	for i, row := range rows {
		if row.Weights != nil {
			t.Errorf("row %d carries weights in unweighted mode", i)
		}
	}
}

func TestTitlePrependingSiblingSectionsDoNotLeak(t *testing.T) {
	path := filepath.Join(t.TempDir(), "corpus.bin")
	v := fixedVocab(t, []string{"doc", "alpha", "beta", "deep", "text"})
	stream := corpus.NewStream(path, uint32(v.Len()), true)
	e := NewTitlePrepending(v, stream, true)

	input := "= Doc =\n== Alpha ==\n=== Deep ===\ntext\n== Beta ==\ntext\n"
	feed(t, e, input)
	if err := stream.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	_, rows, err := corpus.ReadRows(path)
	if err != nil {
		t.Fatalf("ReadRows failed: %v", err)
	}

	want := []corpus.Row{
		// text under Doc > Alpha > Deep
		{IDs: []uint32{0, 1, 3, 4}, Weights: []uint8{6, 5, 4, 1}},
		// text under Doc > Beta: neither alpha nor deep may leak
		{IDs: []uint32{0, 2, 4}, Weights: []uint8{6, 5, 1}},
	}
	if !reflect.DeepEqual(rows, want) {
		t.Errorf("rows = %+v, want %+v", rows, want)
	}
}

func TestTitlePrependingIgnoredSection(t *testing.T) {
	path := filepath.Join(t.TempDir(), "corpus.bin")
	v := fixedVocab(t, []string{"doc", "history", "text", "references"})
	stream := corpus.NewStream(path, uint32(v.Len()), true)
	e := NewTitlePrepending(v, stream, true)

	input := "= Doc =\n== References ==\ntext\n== History ==\ntext\n"
	feed(t, e, input)
	if err := stream.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	_, rows, err := corpus.ReadRows(path)
	if err != nil {
		t.Fatalf("ReadRows failed: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("got %d rows, want 1 (references body skipped)", len(rows))
	}
	if !reflect.DeepEqual(rows[0].IDs, []uint32{0, 1, 2}) {
		t.Errorf("row = %v", rows[0].IDs)
	}
}

func TestTitlePrependingListFlushOnBlank(t *testing.T) {
	path := filepath.Join(t.TempDir(), "corpus.bin")
	v := fixedVocab(t, []string{"doc", "item1", "item2"})
	stream := corpus.NewStream(path, uint32(v.Len()), true)
	e := NewTitlePrepending(v, stream, true)

	input := "= Doc =\n* item1\n* item2\n\n"
	feed(t, e, input)
	if err := stream.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	_, rows, err := corpus.ReadRows(path)
	if err != nil {
		t.Fatalf("ReadRows failed: %v", err)
	}
	want := []corpus.Row{
		{IDs: []uint32{0, 1, 2}, Weights: []uint8{6, 1, 1}},
	}
	if !reflect.DeepEqual(rows, want) {
		t.Errorf("rows = %+v, want %+v", rows, want)
	}
}

func TestTitlePrependingListFlushClearsAccumulation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "corpus.bin")
	v := fixedVocab(t, []string{"doc", "item1", "other"})
	stream := corpus.NewStream(path, uint32(v.Len()), true)
	e := NewTitlePrepending(v, stream, true)

	// The flushed list ids must not reappear in the snippet for "other".
	input := "= Doc =\n* item1\nother\n"
	feed(t, e, input)
	if err := stream.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	_, rows, err := corpus.ReadRows(path)
	if err != nil {
		t.Fatalf("ReadRows failed: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(rows))
	}
	if !reflect.DeepEqual(rows[1].IDs, []uint32{0, 2}) {
		t.Errorf("second row = %v, want [0 2]", rows[1].IDs)
	}
}

func TestTitlePrependingCombineListsOff(t *testing.T) {
	path := filepath.Join(t.TempDir(), "corpus.bin")
	v := fixedVocab(t, []string{"doc", "item1", "item2"})
	stream := corpus.NewStream(path, uint32(v.Len()), true)
	e := NewTitlePrepending(v, stream, false)

	// Without list combining, every item is its own body snippet.
	input := "= Doc =\n* item1\n* item2\n"
	feed(t, e, input)
	if err := stream.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	_, rows, err := corpus.ReadRows(path)
	if err != nil {
		t.Fatalf("ReadRows failed: %v", err)
	}
	want := []corpus.Row{
		{IDs: []uint32{0, 1}, Weights: []uint8{6, 1}},
		{IDs: []uint32{0, 2}, Weights: []uint8{6, 1}},
	}
	if !reflect.DeepEqual(rows, want) {
		t.Errorf("rows = %+v, want %+v", rows, want)
	}
}

func TestTitlePrependingPlainLineWithoutIDs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "corpus.bin")
	v := fixedVocab(t, []string{"doc"})
	stream := corpus.NewStream(path, uint32(v.Len()), true)
	e := NewTitlePrepending(v, stream, true)

	feed(t, e, "= Doc =\nnothing known here\n")
	if err := stream.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	if e.SnippetsEncoded() != 0 {
		t.Errorf("SnippetsEncoded = %d, want 0", e.SnippetsEncoded())
	}
}

func TestWholeDocumentSample(t *testing.T) {
	path := filepath.Join(t.TempDir(), "corpus.bin")
	v := fixedVocab(t, sampleWords)
	stream := corpus.NewStream(path, uint32(v.Len()), false)
	e := NewWholeDocument(v, stream)

	feed(t, e, sampleInput)
	if err := stream.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	h, rows, err := corpus.ReadRows(path)
	if err != nil {
		t.Fatalf("ReadRows failed: %v", err)
	}
	if h.Version != corpus.FormatUnweighted {
		t.Errorf("version = %d, want unweighted", h.Version)
	}
	if len(rows) != 1 {
		t.Fatalf("got %d rows, want exactly 1", len(rows))
	}
	if !reflect.DeepEqual(rows[0].IDs, []uint32{0, 1, 2, 3, 4, 5, 6}) {
		t.Errorf("row = %v, want the union of all ids", rows[0].IDs)
	}
	if rows[0].Weights != nil {
		t.Error("whole-document snippet must be unweighted")
	}
}

func TestWholeDocumentFlushesPerDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "corpus.bin")
	v := fixedVocab(t, []string{"one", "two", "alpha", "beta"})
	stream := corpus.NewStream(path, uint32(v.Len()), false)
	e := NewWholeDocument(v, stream)

	input := "= One =\nalpha\n= Two =\nbeta\n"
	feed(t, e, input)
	if err := stream.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	_, rows, err := corpus.ReadRows(path)
	if err != nil {
		t.Fatalf("ReadRows failed: %v", err)
	}
	want := []corpus.Row{
		{IDs: []uint32{0, 2}},
		{IDs: []uint32{1, 3}},
	}
	if !reflect.DeepEqual(rows, want) {
		t.Errorf("rows = %+v, want %+v", rows, want)
	}
}

func TestWholeDocumentIgnoredSection(t *testing.T) {
	path := filepath.Join(t.TempDir(), "corpus.bin")
	v := fixedVocab(t, []string{"doc", "seen", "hidden"})
	stream := corpus.NewStream(path, uint32(v.Len()), false)
	e := NewWholeDocument(v, stream)

	input := "= Doc =\nseen\n== External Links ==\nhidden\n"
	feed(t, e, input)
	if err := stream.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	_, rows, err := corpus.ReadRows(path)
	if err != nil {
		t.Fatalf("ReadRows failed: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("got %d rows, want 1", len(rows))
	}
	if !reflect.DeepEqual(rows[0].IDs, []uint32{0, 1}) {
		t.Errorf("row = %v, want [0 1] (hidden id skipped)", rows[0].IDs)
	}
}

func TestWholeDocumentEmptyFlush(t *testing.T) {
	path := filepath.Join(t.TempDir(), "corpus.bin")
	v := fixedVocab(t, []string{"doc"})
	stream := corpus.NewStream(path, uint32(v.Len()), false)
	e := NewWholeDocument(v, stream)

	// Flushing with nothing accumulated emits no row.
	if err := e.Flush(); err != nil {
		t.Fatalf("Flush failed: %v", err)
	}
	if e.SnippetsEncoded() != 0 {
		t.Errorf("SnippetsEncoded = %d, want 0", e.SnippetsEncoded())
	}
}
