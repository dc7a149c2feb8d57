package pipeline

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/RasaHQ/semantic-map-embedding/core/corpus"
)

func TestPartition(t *testing.T) {
	files := []string{"a", "b", "c", "d", "e"}

	slices := partition(files, 2)
	if len(slices) != 2 {
		t.Fatalf("got %d slices, want 2", len(slices))
	}
	if !reflect.DeepEqual(slices[0], []string{"a", "b"}) {
		t.Errorf("slice 0 = %v", slices[0])
	}
	if !reflect.DeepEqual(slices[1], []string{"c", "d", "e"}) {
		t.Errorf("slice 1 = %v", slices[1])
	}

	// More workers than files leaves some slices empty.
	slices = partition(files[:1], 3)
	total := 0
	for _, s := range slices {
		total += len(s)
	}
	if total != 1 {
		t.Errorf("partition lost files: %v", slices)
	}
}

// setupCorpus writes a vocabulary file and two input files, returning the
// directory, vocabulary path and input paths.
func setupCorpus(t *testing.T) (string, string, []string) {
	t.Helper()
	dir := t.TempDir()

	vocabPath := filepath.Join(dir, "vocab.txt")
	words := "hello\nworld\nitem1\nitem2\nother\ndoc\nsec\nmoon\nstars\n"
	if err := os.WriteFile(vocabPath, []byte(words), 0644); err != nil {
		t.Fatalf("write vocabulary: %v", err)
	}

	fileA := filepath.Join(dir, "a.txt")
	contentA := "= Doc =\n== Sec ==\nHello world\n\n* item1\n* item2\nOther\n"
	if err := os.WriteFile(fileA, []byte(contentA), 0644); err != nil {
		t.Fatalf("write input: %v", err)
	}

	fileB := filepath.Join(dir, "b.txt")
	contentB := "= Doc =\nmoon and stars\n"
	if err := os.WriteFile(fileB, []byte(contentB), 0644); err != nil {
		t.Fatalf("write input: %v", err)
	}

	return dir, vocabPath, []string{fileA, fileB}
}

func TestRunTitlePrepending(t *testing.T) {
	dir, vocabPath, files := setupCorpus(t)
	out := filepath.Join(dir, "corpus.bin")

	summary, err := Run(Config{
		Output:         out,
		Files:          files,
		VocabularyPath: vocabPath,
		Lowercase:      true,
		Workers:        2,
		Weighted:       true,
	})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	// File a yields 3 snippets, file b yields 1.
	if summary.Snippets != 4 {
		t.Errorf("Snippets = %d, want 4", summary.Snippets)
	}
	if summary.Rows != 4 {
		t.Errorf("Rows = %d, want 4", summary.Rows)
	}
	if summary.Columns != 9 {
		t.Errorf("Columns = %d, want 9", summary.Columns)
	}
	if summary.Digest == "" {
		t.Error("merged digest should not be empty")
	}

	h, rows, err := corpus.ReadRows(out)
	if err != nil {
		t.Fatalf("ReadRows failed: %v", err)
	}
	if h.Version != corpus.FormatWeighted {
		t.Errorf("version = %d, want weighted", h.Version)
	}
	if h.Rows != 4 || len(rows) != 4 {
		t.Fatalf("merged container has %d rows (header %d), want 4", len(rows), h.Rows)
	}

	// Worker order is preserved: file a's rows come first.
	want := []corpus.Row{
		{IDs: []uint32{0, 1, 5, 6}, Weights: []uint8{1, 1, 6, 5}},
		{IDs: []uint32{2, 3, 5, 6}, Weights: []uint8{1, 1, 6, 5}},
		{IDs: []uint32{4, 5, 6}, Weights: []uint8{1, 6, 5}},
		{IDs: []uint32{5, 7, 8}, Weights: []uint8{6, 1, 1}},
	}
	if !reflect.DeepEqual(rows, want) {
		t.Errorf("rows = %+v, want %+v", rows, want)
	}

	// Usage counters aggregate across workers.
	if summary.Usage["doc"] == 0 {
		t.Error("aggregated usage should count the doc title hits")
	}
}

func TestRunSeparateListItems(t *testing.T) {
	dir, vocabPath, files := setupCorpus(t)
	out := filepath.Join(dir, "corpus.bin")

	summary, err := Run(Config{
		Output:            out,
		Files:             files,
		VocabularyPath:    vocabPath,
		Lowercase:         true,
		Workers:           2,
		Weighted:          true,
		SeparateListItems: true,
	})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	// Each list item becomes its own snippet instead of one merged block.
	if summary.Rows != 5 {
		t.Fatalf("Rows = %d, want 5", summary.Rows)
	}
	_, rows, err := corpus.ReadRows(out)
	if err != nil {
		t.Fatalf("ReadRows failed: %v", err)
	}
	want := []corpus.Row{
		{IDs: []uint32{0, 1, 5, 6}, Weights: []uint8{1, 1, 6, 5}},
		{IDs: []uint32{2, 5, 6}, Weights: []uint8{1, 6, 5}},
		{IDs: []uint32{3, 5, 6}, Weights: []uint8{1, 6, 5}},
		{IDs: []uint32{4, 5, 6}, Weights: []uint8{1, 6, 5}},
		{IDs: []uint32{5, 7, 8}, Weights: []uint8{6, 1, 1}},
	}
	if !reflect.DeepEqual(rows, want) {
		t.Errorf("rows = %+v, want %+v", rows, want)
	}
}

func TestRunMergeDocuments(t *testing.T) {
	dir, vocabPath, files := setupCorpus(t)
	out := filepath.Join(dir, "corpus.bin")

	summary, err := Run(Config{
		Output:         out,
		Files:          files,
		VocabularyPath: vocabPath,
		Lowercase:      true,
		Workers:        2,
		Weighted:       true, // ignored: document snippets are unweighted
		MergeDocuments: true,
	})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	h, rows, err := corpus.ReadRows(out)
	if err != nil {
		t.Fatalf("ReadRows failed: %v", err)
	}
	if h.Version != corpus.FormatUnweighted {
		t.Errorf("version = %d, want unweighted", h.Version)
	}
	if len(rows) != 2 {
		t.Fatalf("got %d rows, want one per document", len(rows))
	}
	if !reflect.DeepEqual(rows[0].IDs, []uint32{0, 1, 2, 3, 4, 5, 6}) {
		t.Errorf("document row = %v", rows[0].IDs)
	}
	if summary.Snippets != 2 {
		t.Errorf("Snippets = %d, want 2", summary.Snippets)
	}
}

func TestRunSkipsMissingParts(t *testing.T) {
	dir, vocabPath, files := setupCorpus(t)
	out := filepath.Join(dir, "corpus.bin")

	// 8 workers for 2 files: most slices are empty and produce no part.
	summary, err := Run(Config{
		Output:         out,
		Files:          files,
		VocabularyPath: vocabPath,
		Lowercase:      true,
		Workers:        8,
		Weighted:       true,
	})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if summary.Rows != 4 {
		t.Errorf("Rows = %d, want 4", summary.Rows)
	}
}

func TestRunSplitSentences(t *testing.T) {
	dir := t.TempDir()

	vocabPath := filepath.Join(dir, "vocab.txt")
	if err := os.WriteFile(vocabPath, []byte("doc\nfirst\nsecond\n"), 0644); err != nil {
		t.Fatalf("write vocabulary: %v", err)
	}
	input := filepath.Join(dir, "a.txt")
	if err := os.WriteFile(input, []byte("= Doc =\nThe first. The second.\n"), 0644); err != nil {
		t.Fatalf("write input: %v", err)
	}
	out := filepath.Join(dir, "corpus.bin")

	summary, err := Run(Config{
		Output:         out,
		Files:          []string{input},
		VocabularyPath: vocabPath,
		Lowercase:      true,
		Workers:        1,
		Weighted:       true,
		SplitSentences: true,
	})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	// Each sentence becomes its own snippet.
	if summary.Snippets != 2 {
		t.Errorf("Snippets = %d, want 2", summary.Snippets)
	}

	_, rows, err := corpus.ReadRows(out)
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

func TestRunWithoutVocabulary(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "a.txt")
	if err := os.WriteFile(input, []byte("= Doc =\nanything\n"), 0644); err != nil {
		t.Fatalf("write input: %v", err)
	}
	out := filepath.Join(dir, "corpus.bin")

	// Without a fixed vocabulary every word is out-of-vocabulary; the run
	// completes but nothing is encoded.
	summary, err := Run(Config{
		Output:   out,
		Files:    []string{input},
		Workers:  1,
		Weighted: true,
	})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if summary.Snippets != 0 {
		t.Errorf("Snippets = %d, want 0", summary.Snippets)
	}
	if _, err := os.Stat(out); !os.IsNotExist(err) {
		t.Error("no container should exist when nothing was encoded")
	}
}

func TestWorkerPool(t *testing.T) {
	pool := NewWorkerPool[int, int](4, 8)
	pool.Start(func(n int) int { return n * n })
	for i := 0; i < 8; i++ {
		pool.Submit(i)
	}
	pool.Close()

	sum := 0
	for result := range pool.Results() {
		sum += result
	}
	if sum != 140 {
		t.Errorf("sum of squares = %d, want 140", sum)
	}
}
