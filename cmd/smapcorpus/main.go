// Command smapcorpus is the CLI tool for semantic-map corpus preparation.
// It provides commands for encoding text corpora into binary containers,
// merging and inspecting containers, and exporting trained codebooks.
package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/alecthomas/kong"
	"github.com/zeebo/blake3"

	"github.com/RasaHQ/semantic-map-embedding/core/codebook"
	"github.com/RasaHQ/semantic-map-embedding/core/corpus"
	"github.com/RasaHQ/semantic-map-embedding/core/vocab"
	"github.com/RasaHQ/semantic-map-embedding/internal/formats/wikixml"
	"github.com/RasaHQ/semantic-map-embedding/internal/logging"
	"github.com/RasaHQ/semantic-map-embedding/internal/pipeline"
	"github.com/RasaHQ/semantic-map-embedding/internal/scan"
	"github.com/RasaHQ/semantic-map-embedding/internal/stats"
)

const version = "0.2.0"

// CLI defines the command-line interface for smapcorpus.
var CLI struct {
	// Global flags
	Verbose bool `short:"v" help:"Enable debug logging"`
	LogJSON bool `name:"log-json" help:"Emit logs as JSON"`

	// Command groups (noun-first organization)
	Corpus   CorpusGroup   `cmd:"" help:"Corpus operations (encode, merge, inspect, extract)"`
	Vocab    VocabGroup    `cmd:"" help:"Vocabulary operations"`
	Codebook CodebookGroup `cmd:"" help:"Trained codebook operations"`
	Map      MapGroup      `cmd:"" help:"Semantic map operations"`
	Version  VersionCmd    `cmd:"" help:"Print version information"`
}

// CorpusGroup contains corpus lifecycle operations.
type CorpusGroup struct {
	Encode  EncodeCmd  `cmd:"" help:"Encode text files into a binary corpus container"`
	Merge   MergeCmd   `cmd:"" help:"Merge corpus containers into one"`
	Inspect InspectCmd `cmd:"" help:"Print container header and digest"`
	Extract ExtractCmd `cmd:"" help:"Extract page markup from a MediaWiki XML dump"`
}

// VocabGroup contains vocabulary operations.
type VocabGroup struct {
	Build VocabBuildCmd `cmd:"" help:"Build an ordered vocabulary list from text files"`
}

// CodebookGroup contains trained codebook operations.
type CodebookGroup struct {
	Export CodebookExportCmd `cmd:"" help:"Export a trained codebook as a JSON semantic map"`
}

// MapGroup contains semantic map operations.
type MapGroup struct {
	View MapViewCmd `cmd:"" help:"Render a word's fingerprint from a semantic map"`
}

// EncodeCmd encodes a corpus of text files into a binary container.
type EncodeCmd struct {
	Corpus            string `arg:"" help:"Directory containing corpus text files" type:"existingdir"`
	Out               string `required:"" help:"Output container path" type:"path"`
	Pattern           string `default:".*" help:"Regular expression matched against file names"`
	Vocabulary        string `help:"Fixed vocabulary list, one word per line" type:"path"`
	Lowercase         bool   `help:"Lowercase vocabulary words on load"`
	Jobs              int    `short:"j" help:"Worker count (default: one per CPU)"`
	Unweighted        bool   `help:"Write the unweighted container variant"`
	SeparateListItems bool   `name:"separate-list-items" help:"Treat each list item as plain text instead of accumulating list blocks"`
	SplitSentences    bool   `name:"split-sentences" help:"Split each line into sentences before encoding"`
	MergeDocuments    bool   `name:"merge-documents" help:"Encode one snippet per document (always unweighted)"`
	StatsDB           string `name:"stats-db" help:"Record the run in this SQLite database" type:"path"`
}

func (c *EncodeCmd) Run() error {
	files, err := scan.ListFiles(c.Corpus, c.Pattern)
	if err != nil {
		return fmt.Errorf("scanning corpus: %w", err)
	}
	if len(files) == 0 {
		return fmt.Errorf("no files under %s match %q", c.Corpus, c.Pattern)
	}

	start := time.Now()
	summary, err := pipeline.Run(pipeline.Config{
		Output:            c.Out,
		Files:             files,
		VocabularyPath:    c.Vocabulary,
		Lowercase:         c.Lowercase,
		Workers:           c.Jobs,
		Weighted:          !c.Unweighted,
		SeparateListItems: c.SeparateListItems,
		SplitSentences:    c.SplitSentences,
		MergeDocuments:    c.MergeDocuments,
	})
	if err != nil {
		return err
	}

	fmt.Printf("Encoded: %d files\n", len(files))
	fmt.Printf("  Snippets: %d\n", summary.Snippets)
	fmt.Printf("  Rows: %d\n", summary.Rows)
	fmt.Printf("  Entries: %d\n", summary.Entries)
	fmt.Printf("  Columns: %d\n", summary.Columns)
	if summary.Digest != "" {
		fmt.Printf("  BLAKE3: %s\n", summary.Digest)
	}
	fmt.Printf("  Elapsed: %s\n", time.Since(start).Round(time.Millisecond))
	fmt.Printf("Created: %s\n", summary.Output)

	if c.StatsDB != "" {
		if err := recordRun(c.StatsDB, summary); err != nil {
			return fmt.Errorf("recording run: %w", err)
		}
	}
	return nil
}

func recordRun(dbPath string, summary *pipeline.Summary) error {
	recorder, err := stats.Open(dbPath)
	if err != nil {
		return err
	}
	defer recorder.Close()

	id, err := recorder.RecordRun(stats.Run{
		Output:  summary.Output,
		Workers: summary.Workers,
		Rows:    summary.Rows,
		Entries: summary.Entries,
		Columns: summary.Columns,
		Digest:  summary.Digest,
	}, summary.Usage)
	if err != nil {
		return err
	}
	fmt.Printf("Recorded: run %s in %s\n", id, dbPath)
	return nil
}

// MergeCmd merges already-encoded containers into a single one.
type MergeCmd struct {
	Containers []string `arg:"" help:"Containers to merge, in order" type:"existingfile"`
	Out        string   `required:"" help:"Output container path" type:"path"`
}

func (c *MergeCmd) Run() error {
	first, err := corpus.ReadHeader(c.Containers[0])
	if err != nil {
		return err
	}

	out := corpus.NewStream(c.Out, 0, first.Weighted())
	for _, path := range c.Containers {
		if err := out.AppendContainer(path); err != nil {
			out.Close()
			return fmt.Errorf("merging %s: %w", path, err)
		}
	}
	if err := out.Close(); err != nil {
		return err
	}

	fmt.Printf("Merged: %d containers\n", len(c.Containers))
	fmt.Printf("  Rows: %d\n", out.Rows())
	fmt.Printf("  Entries: %d\n", out.Entries())
	fmt.Printf("Created: %s\n", c.Out)
	return nil
}

// InspectCmd prints a container's header fields and content digest.
type InspectCmd struct {
	Container string `arg:"" help:"Path to container" type:"existingfile"`
}

func (c *InspectCmd) Run() error {
	header, err := corpus.ReadHeader(c.Container)
	if err != nil {
		return err
	}

	file, err := os.Open(c.Container)
	if err != nil {
		return err
	}
	defer file.Close()
	hasher := blake3.New()
	size, err := io.Copy(hasher, file)
	if err != nil {
		return err
	}

	variant := "unweighted"
	if header.Weighted() {
		variant = "weighted"
	}
	fmt.Printf("Container: %s\n", c.Container)
	fmt.Printf("  Format: %d (%s)\n", header.Version, variant)
	fmt.Printf("  Entries: %d\n", header.Entries)
	fmt.Printf("  Rows: %d\n", header.Rows)
	fmt.Printf("  Columns: %d\n", header.Columns)
	fmt.Printf("  Size: %d bytes\n", size)
	fmt.Printf("  BLAKE3: %x\n", hasher.Sum(nil))
	return nil
}

// ExtractCmd converts a MediaWiki XML dump into heading-structured markup.
type ExtractCmd struct {
	Dump string `arg:"" help:"Path to XML dump (.xz and .gz supported)" type:"existingfile"`
	Out  string `required:"" help:"Output markup path" type:"path"`
}

func (c *ExtractCmd) Run() error {
	pages, err := wikixml.ExtractFile(c.Dump, c.Out)
	if err != nil {
		return err
	}
	fmt.Printf("Extracted: %d pages\n", pages)
	fmt.Printf("Created: %s\n", c.Out)
	return nil
}

// VocabBuildCmd builds an ordered vocabulary list from a corpus.
type VocabBuildCmd struct {
	Corpus    string `arg:"" help:"Directory containing corpus text files" type:"existingdir"`
	Out       string `required:"" help:"Output vocabulary list path" type:"path"`
	Pattern   string `default:".*" help:"Regular expression matched against file names"`
	Lowercase bool   `help:"Lowercase words before assigning ids"`
}

func (c *VocabBuildCmd) Run() error {
	files, err := scan.ListFiles(c.Corpus, c.Pattern)
	if err != nil {
		return fmt.Errorf("scanning corpus: %w", err)
	}
	if len(files) == 0 {
		return fmt.Errorf("no files under %s match %q", c.Corpus, c.Pattern)
	}

	vocabulary := vocab.New()
	var lines uint64
	for _, path := range files {
		if err := collectWords(vocabulary, path, c.Lowercase, &lines); err != nil {
			return err
		}
	}

	out, err := os.Create(c.Out)
	if err != nil {
		return err
	}
	w := bufio.NewWriter(out)
	for _, word := range vocabulary.Words() {
		fmt.Fprintln(w, word)
	}
	if err := w.Flush(); err != nil {
		out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}

	fmt.Printf("Scanned: %d files, %d lines\n", len(files), lines)
	fmt.Printf("  Words: %d\n", vocabulary.Len())
	fmt.Printf("Created: %s\n", c.Out)
	return nil
}

func collectWords(vocabulary *vocab.Vocabulary, path string, lowercase bool, lines *uint64) error {
	file, err := scan.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		*lines++
		for _, word := range vocab.WordsOfLine(scanner.Text()) {
			if lowercase {
				word = strings.ToLower(word)
			}
			vocabulary.Resolve(word)
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}
	return nil
}

// CodebookExportCmd converts a trained codebook into a JSON semantic map.
type CodebookExportCmd struct {
	Dir        string `arg:"" help:"Trainer output directory (codebook.bin, README.md)" type:"existingdir"`
	Vocabulary string `required:"" help:"Ordered vocabulary list the corpus was encoded with" type:"existingfile"`
	Out        string `required:"" help:"Output JSON path" type:"path"`
	Executor   string `default:"cpu" help:"Executor name recorded in the map"`
}

func (c *CodebookExportCmd) Run() error {
	book, err := codebook.Load(c.Dir)
	if err != nil {
		return err
	}
	words, err := codebook.ReadVocabularyList(c.Vocabulary)
	if err != nil {
		return err
	}
	if uint64(len(words)) != book.VocabSize {
		return fmt.Errorf("vocabulary has %d words, codebook expects %d", len(words), book.VocabSize)
	}

	smap, err := book.ExportMap(words, c.Executor)
	if err != nil {
		return err
	}
	if err := smap.WriteJSON(c.Out); err != nil {
		return err
	}

	fmt.Printf("Exported: %dx%d map, %d words\n", book.Height, book.Width, len(words))
	fmt.Printf("  Fingerprint size: %d\n", book.FingerprintSize())
	fmt.Printf("Created: %s\n", c.Out)
	return nil
}

// MapViewCmd renders a word's fingerprint as an ASCII grid.
type MapViewCmd struct {
	Map  string `arg:"" help:"Path to semantic map JSON" type:"existingfile"`
	Word string `arg:"" help:"Word to render"`
}

func (c *MapViewCmd) Run() error {
	smap, err := codebook.LoadMap(c.Map)
	if err != nil {
		return err
	}

	word := c.Word
	if smap.AssumeLowerCase {
		word = strings.ToLower(word)
	}
	active, ok := smap.Embeddings[word]
	if !ok {
		return fmt.Errorf("word %q not in map", c.Word)
	}

	fmt.Printf("%s (%d active cells):\n", word, len(active))
	fmt.Print(codebook.RenderFingerprint(active, smap.Height, smap.Width))
	return nil
}

// VersionCmd prints version information.
type VersionCmd struct{}

func (c *VersionCmd) Run() error {
	fmt.Printf("smapcorpus version %s\n", version)
	return nil
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name("smapcorpus"),
		kong.Description("Semantic map corpus encoder - text to binary bag-of-ids containers"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
	)

	level := logging.LevelInfo
	if CLI.Verbose {
		level = logging.LevelDebug
	}
	format := logging.FormatText
	if CLI.LogJSON {
		format = logging.FormatJSON
	}
	logging.InitLogger(level, format)

	err := ctx.Run(ctx)
	ctx.FatalIfErrorf(err)
}
