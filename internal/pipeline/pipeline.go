// Package pipeline runs the partition-encode-merge orchestration: input
// files are split into contiguous slices, each slice is encoded by an
// independent worker with its own vocabulary, encoder and part file, and a
// single coordinator merges the parts into the final container.
package pipeline

import (
	"bufio"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"runtime"
	"time"

	"github.com/zeebo/blake3"

	"github.com/RasaHQ/semantic-map-embedding/core/corpus"
	"github.com/RasaHQ/semantic-map-embedding/core/encode"
	"github.com/RasaHQ/semantic-map-embedding/core/errors"
	"github.com/RasaHQ/semantic-map-embedding/core/sentence"
	"github.com/RasaHQ/semantic-map-embedding/core/vocab"
	"github.com/RasaHQ/semantic-map-embedding/internal/logging"
	"github.com/RasaHQ/semantic-map-embedding/internal/scan"
)

// maxLineBytes bounds a single input line; corpus dumps occasionally pack a
// whole article into one line.
const maxLineBytes = 16 * 1024 * 1024

// Config is the immutable run configuration handed by value to every
// worker. There is no other shared state between workers apart from the
// read-only fixed-vocabulary file.
type Config struct {
	// Output is the final container path; worker i writes Output.part-i.
	Output string
	// Files are the input files, already scanned and ordered.
	Files []string
	// VocabularyPath is the optional fixed vocabulary; without it every
	// worker locks an empty vocabulary and the run encodes nothing useful
	// across parts (documented limitation).
	VocabularyPath string
	// Lowercase normalizes vocabulary words on load.
	Lowercase bool
	// Workers is the worker count; zero means one per CPU.
	Workers int
	// Weighted selects the weighted container variant.
	Weighted bool
	// SeparateListItems disables list accumulation: each list item is
	// treated as plain body text instead of joining the block that flushes
	// as one snippet. Accumulation is the default, as in the markup the
	// corpora are extracted from.
	SeparateListItems bool
	// SplitSentences expands each line through the sentence splitter.
	SplitSentences bool
	// MergeDocuments selects the whole-document policy (always unweighted).
	MergeDocuments bool
}

// PartPath returns worker i's part file path.
func (c Config) PartPath(i int) string {
	return fmt.Sprintf("%s.part-%d", c.Output, i)
}

// weighted reports the container variant of the run: document-level
// snippets never carry weights.
func (c Config) weighted() bool {
	return c.Weighted && !c.MergeDocuments
}

// WorkerResult is what one worker reports back to the coordinator.
type WorkerResult struct {
	Worker   int
	Files    int
	Snippets uint64
	Usage    map[string]uint64
	Err      error
}

// Summary describes a completed run.
type Summary struct {
	Output   string
	Workers  int
	Rows     uint32
	Entries  uint64
	Columns  uint32
	Snippets uint64
	// Digest is the BLAKE3 hex digest of the merged container, empty when
	// no part produced any rows.
	Digest string
	// Usage aggregates the per-worker vocabulary hit counters.
	Usage map[string]uint64
	// Results holds the per-worker outcomes in worker order.
	Results []WorkerResult
}

type workerJob struct {
	index int
	files []string
}

// partition splits the files into n contiguous, count-balanced slices.
func partition(files []string, n int) [][]string {
	slices := make([][]string, n)
	for i := 0; i < n; i++ {
		slices[i] = files[i*len(files)/n : (i+1)*len(files)/n]
	}
	return slices
}

// Run executes the full partition-encode-merge pipeline and returns the
// run summary. Worker failures are logged and tolerated; a merge format
// mismatch is fatal.
func Run(cfg Config) (*Summary, error) {
	workers := cfg.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	if cfg.VocabularyPath != "" {
		if err := logVocabulary(cfg.VocabularyPath); err != nil {
			return nil, err
		}
	} else {
		logging.Warn("no fixed vocabulary supplied; part file ids are not comparable across workers")
	}

	slices := partition(cfg.Files, workers)

	pool := NewWorkerPool[workerJob, WorkerResult](workers, workers)
	pool.Start(func(job workerJob) WorkerResult {
		return encodeSlice(cfg, job)
	})
	for i, files := range slices {
		pool.Submit(workerJob{index: i, files: files})
	}
	pool.Close()

	results := make([]WorkerResult, workers)
	for result := range pool.Results() {
		results[result.Worker] = result
		if result.Err != nil {
			logging.WorkerError(result.Worker, result.Err)
		}
	}

	// Merge barrier: every worker has terminated before this point.
	summary, err := merge(cfg, workers, results)
	if err != nil {
		return nil, err
	}
	return summary, nil
}

// logVocabulary logs the fixed vocabulary's size and digest so parallel
// runs can confirm all workers read identical bytes.
func logVocabulary(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.NewIO("read", path, err)
	}
	digest := blake3.Sum256(data)

	words := 0
	for _, line := range splitLines(data) {
		if len(line) > 0 {
			words++
		}
	}
	logging.VocabularyLoaded(path, words, hex.EncodeToString(digest[:]))
	return nil
}

func splitLines(data []byte) [][]byte {
	var lines [][]byte
	start := 0
	for i, b := range data {
		if b == '\n' {
			lines = append(lines, trimSpaceBytes(data[start:i]))
			start = i + 1
		}
	}
	if start < len(data) {
		lines = append(lines, trimSpaceBytes(data[start:]))
	}
	return lines
}

func trimSpaceBytes(b []byte) []byte {
	for len(b) > 0 && (b[0] == ' ' || b[0] == '\t' || b[0] == '\r') {
		b = b[1:]
	}
	for len(b) > 0 && (b[len(b)-1] == ' ' || b[len(b)-1] == '\t' || b[len(b)-1] == '\r') {
		b = b[:len(b)-1]
	}
	return b
}

// encodeSlice is one worker's whole life: own vocabulary, own encoder, own
// part file, sequential processing of its file slice.
func encodeSlice(cfg Config, job workerJob) WorkerResult {
	result := WorkerResult{Worker: job.index, Files: len(job.files)}
	if len(job.files) == 0 {
		return result
	}

	start := time.Now()
	part := cfg.PartPath(job.index)
	logging.WorkerStarted(job.index, len(job.files), part)

	v, err := workerVocabulary(cfg)
	if err != nil {
		result.Err = err
		return result
	}

	stream := corpus.NewStream(part, uint32(v.Len()), cfg.weighted())
	var encoder encode.Encoder
	if cfg.MergeDocuments {
		encoder = encode.NewWholeDocument(v, stream)
	} else {
		encoder = encode.NewTitlePrepending(v, stream, !cfg.SeparateListItems)
	}

	for _, path := range job.files {
		if err := encodeFile(cfg, encoder, path); err != nil {
			stream.Close()
			result.Err = err
			return result
		}
		if err := encoder.Flush(); err != nil {
			stream.Close()
			result.Err = err
			return result
		}
	}

	if err := stream.Close(); err != nil {
		result.Err = err
		return result
	}

	result.Snippets = encoder.SnippetsEncoded()
	result.Usage = v.UsageCounts()
	logging.WorkerFinished(job.index, result.Snippets, time.Since(start))
	return result
}

// workerVocabulary builds a worker's private vocabulary. Without a fixed
// vocabulary file it locks empty, so every word is out-of-vocabulary.
func workerVocabulary(cfg Config) (*vocab.Vocabulary, error) {
	if cfg.VocabularyPath == "" {
		v := vocab.New()
		v.Lock()
		return v, nil
	}
	return vocab.FromFile(cfg.VocabularyPath, cfg.Lowercase)
}

// encodeFile feeds one input file line by line into the encoder.
func encodeFile(cfg Config, encoder encode.Encoder, path string) error {
	file, err := scan.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 64*1024), maxLineBytes)
	for scanner.Scan() {
		line := scanner.Text()
		if cfg.SplitSentences {
			for _, s := range sentence.Split(line) {
				if err := encoder.ReadLine(s); err != nil {
					return err
				}
			}
		} else {
			if err := encoder.ReadLine(line); err != nil {
				return err
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return errors.NewIO("read", path, err)
	}
	return nil
}

// merge appends every existing part file to the final container in worker
// order, skipping missing parts, then flushes once.
func merge(cfg Config, workers int, results []WorkerResult) (*Summary, error) {
	merged := corpus.NewStream(cfg.Output, 0, cfg.weighted())

	for i := 0; i < workers; i++ {
		part := cfg.PartPath(i)
		if _, err := os.Stat(part); os.IsNotExist(err) {
			logging.PartSkipped(i, part)
			continue
		}
		if err := merged.AppendContainer(part); err != nil {
			merged.Close()
			return nil, errors.Wrapf(err, "merging part %d", i)
		}
	}
	if err := merged.Close(); err != nil {
		return nil, err
	}

	summary := &Summary{
		Output:  cfg.Output,
		Workers: workers,
		Rows:    merged.Rows(),
		Entries: merged.Entries(),
		Columns: merged.Columns(),
		Usage:   make(map[string]uint64),
		Results: results,
	}
	for _, result := range results {
		summary.Snippets += result.Snippets
		for word, hits := range result.Usage {
			summary.Usage[word] += hits
		}
	}

	if _, err := os.Stat(cfg.Output); err == nil {
		digest, err := hashFile(cfg.Output)
		if err != nil {
			return nil, err
		}
		summary.Digest = digest
	}

	logging.MergeComplete(cfg.Output, summary.Rows, summary.Entries, summary.Digest)
	return summary, nil
}

// hashFile returns the BLAKE3 hex digest of a file.
func hashFile(path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", errors.NewIO("open", path, err)
	}
	defer file.Close()

	h := blake3.New()
	if _, err := io.Copy(h, file); err != nil {
		return "", errors.NewIO("hash", path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
