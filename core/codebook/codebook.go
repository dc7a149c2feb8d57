// Package codebook reads the float codebook produced by the smap trainer
// and converts it, together with the ordered vocabulary list, into a
// human-readable JSON embedding map.
package codebook

import (
	"bufio"
	"encoding/binary"
	"encoding/json"
	"io"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/RasaHQ/semantic-map-embedding/core/errors"
)

// codebookFormat is the only supported codebook.bin format byte.
const codebookFormat = 0

// Codebook is a trained semantic map: a height×width grid of cells, each
// holding one float weight per vocabulary entry.
type Codebook struct {
	Height    uint64
	Width     uint64
	VocabSize uint64

	// cells is laid out cell-major: cell c's weight for word i sits at
	// c*VocabSize + i.
	cells []float32

	// Readme is the trainer's README.md verbatim.
	Readme string
	// LocalTopology and GlobalTopology are parsed from the README.
	LocalTopology  string
	GlobalTopology string
}

// Load reads codebook.bin and README.md from the trainer's output
// directory.
func Load(dir string) (*Codebook, error) {
	path := filepath.Join(dir, "codebook.bin")
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.NewIO("open", path, err)
	}
	defer file.Close()

	r := bufio.NewReader(file)

	var format [1]byte
	if _, err := io.ReadFull(r, format[:]); err != nil {
		return nil, errors.NewParse("codebook", path, err.Error())
	}
	if format[0] != codebookFormat {
		return nil, errors.NewParse("codebook", path, "unsupported format byte")
	}

	var dims [3]uint64
	for i := range dims {
		var buf [8]byte
		if _, err := io.ReadFull(r, buf[:]); err != nil {
			return nil, errors.NewParse("codebook", path, err.Error())
		}
		dims[i] = binary.LittleEndian.Uint64(buf[:])
	}

	c := &Codebook{Height: dims[0], Width: dims[1], VocabSize: dims[2]}
	total := c.Height * c.Width * c.VocabSize
	c.cells = make([]float32, total)
	var buf [4]byte
	for i := range c.cells {
		if _, err := io.ReadFull(r, buf[:]); err != nil {
			return nil, errors.NewParse("codebook", path, "truncated cell data: "+err.Error())
		}
		c.cells[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[:]))
	}

	if err := c.readReadme(filepath.Join(dir, "README.md")); err != nil {
		return nil, err
	}
	return c, nil
}

// readReadme keeps the README verbatim and picks out the topology lines.
func (c *Codebook) readReadme(path string) error {
	file, err := os.Open(path)
	if err != nil {
		return errors.NewIO("open", path, err)
	}
	defer file.Close()

	var sb strings.Builder
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := scanner.Text()
		sb.WriteString(line)
		sb.WriteString("\n")
		if after, ok := strings.CutPrefix(line, "Local topology:"); ok {
			c.LocalTopology = strings.TrimSpace(after)
		} else if after, ok := strings.CutPrefix(line, "Global topology:"); ok {
			c.GlobalTopology = strings.TrimSpace(after)
		}
	}
	if err := scanner.Err(); err != nil {
		return errors.NewIO("read", path, err)
	}
	c.Readme = sb.String()
	return nil
}

// FingerprintSize is the number of active cells per embedding:
// max(height×width/50, 5).
func (c *Codebook) FingerprintSize() int {
	size := int(c.Height * c.Width / 50)
	if size < 5 {
		size = 5
	}
	return size
}

// Fingerprint returns the indices of the size smallest-weight cells for
// word i, smallest first. Ties break toward the lower cell index so the
// output is deterministic.
func (c *Codebook) Fingerprint(i, size int) ([]int, error) {
	if i < 0 || uint64(i) >= c.VocabSize {
		return nil, errors.NewUsage("Fingerprint", "word index out of range")
	}
	if size <= 0 || uint64(size) >= c.VocabSize {
		return nil, errors.NewUsage("Fingerprint", "fingerprint size out of range")
	}

	cellCount := int(c.Height * c.Width)
	indices := make([]int, cellCount)
	for cell := range indices {
		indices[cell] = cell
	}
	sort.SliceStable(indices, func(a, b int) bool {
		return c.cells[indices[a]*int(c.VocabSize)+i] < c.cells[indices[b]*int(c.VocabSize)+i]
	})
	if size > cellCount {
		size = cellCount
	}
	return indices[:size], nil
}

// CreationOptions mirrors the trainer options recorded in the JSON map.
type CreationOptions struct {
	MaxActiveCells int    `json:"MaxActiveCells"`
	Executor       string `json:"Executor"`
}

// SemanticMap is the JSON embedding map consumed downstream.
type SemanticMap struct {
	Note            string           `json:"Note"`
	Height          uint64           `json:"Height"`
	Width           uint64           `json:"Width"`
	AssumeLowerCase bool             `json:"AssumeLowerCase"`
	GlobalTopology  string           `json:"GlobalTopology"`
	LocalTopology   string           `json:"LocalTopology"`
	CreationReadme  string           `json:"CreationReadme"`
	CreationOptions CreationOptions  `json:"CreationOptions"`
	Embeddings      map[string][]int `json:"Embeddings"`
}

// ExportMap builds the semantic map for the given ordered vocabulary. The
// vocabulary order must be the one the corpus was encoded with.
func (c *Codebook) ExportMap(words []string, executor string) (*SemanticMap, error) {
	size := c.FingerprintSize()

	embeddings := make(map[string][]int, len(words))
	lower := true
	for i, word := range words {
		if word != strings.ToLower(word) {
			lower = false
		}
		fp, err := c.Fingerprint(i, size)
		if err != nil {
			return nil, errors.Wrapf(err, "fingerprinting %q", word)
		}
		embeddings[word] = fp
	}

	return &SemanticMap{
		Height:          c.Height,
		Width:           c.Width,
		AssumeLowerCase: lower,
		GlobalTopology:  c.GlobalTopology,
		LocalTopology:   c.LocalTopology,
		CreationReadme:  c.Readme,
		CreationOptions: CreationOptions{MaxActiveCells: size, Executor: executor},
		Embeddings:      embeddings,
	}, nil
}

// WriteJSON serializes the semantic map to path.
func (m *SemanticMap) WriteJSON(path string) error {
	data, err := json.Marshal(m)
	if err != nil {
		return errors.Wrap(err, "encoding semantic map")
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.NewIO("write", path, err)
	}
	return nil
}

// LoadMap reads a semantic map JSON file.
func LoadMap(path string) (*SemanticMap, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.NewIO("read", path, err)
	}
	var m SemanticMap
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, errors.NewParse("semantic map", path, err.Error())
	}
	return &m, nil
}

// RenderFingerprint draws a height×width grid with the active cells marked,
// one row per line, for terminal inspection.
func RenderFingerprint(active []int, height, width uint64) string {
	activeSet := make(map[int]struct{}, len(active))
	for _, cell := range active {
		activeSet[cell] = struct{}{}
	}

	var sb strings.Builder
	for row := uint64(0); row < height; row++ {
		sb.WriteString("|")
		for col := uint64(0); col < width; col++ {
			if _, ok := activeSet[int(row*width+col)]; ok {
				sb.WriteString("X")
			} else {
				sb.WriteString(" ")
			}
		}
		sb.WriteString("|\n")
	}
	return sb.String()
}

// ReadVocabularyList reads the ordered vocabulary list used for export,
// one word per line, blanks skipped.
func ReadVocabularyList(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.NewIO("open", path, err)
	}
	defer file.Close()

	var words []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		word := strings.TrimSpace(scanner.Text())
		if word != "" {
			words = append(words, word)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.NewIO("read", path, err)
	}
	return words, nil
}
