// Package vocab maintains the word-to-id index used by the corpus encoders.
//
// A Vocabulary starts out unlocked and growable. Locking freezes the word
// set, compiles the multi-pattern matcher, and switches lookups into
// usage-counting mode. All workers of a parallel encode run must lock an
// identical vocabulary, otherwise the ids of their part files are not
// comparable.
package vocab

import (
	"bufio"
	"os"
	"sort"
	"strings"

	ahocorasick "github.com/petar-dambovaliev/aho-corasick"

	"github.com/RasaHQ/semantic-map-embedding/core/errors"
)

// ResolveKind discriminates the outcome of a Resolve call.
type ResolveKind int

const (
	// Assigned means the word was unseen and a new id was allocated.
	Assigned ResolveKind = iota
	// Known means the word already had an id.
	Known
	// Unknown means the vocabulary is locked and the word is not in it.
	Unknown
)

// Vocabulary maps case-normalized words to unique incrementing ids.
type Vocabulary struct {
	ids     map[string]uint32
	words   []string
	locked  bool
	usage   map[string]uint64
	matcher *ahocorasick.AhoCorasick
}

// New creates an empty, unlocked vocabulary.
func New() *Vocabulary {
	return &Vocabulary{
		ids:   make(map[string]uint32),
		usage: make(map[string]uint64),
	}
}

// FromFile loads a fixed vocabulary (one word per line, blank lines
// skipped) in file order and locks it.
func FromFile(path string, lowercase bool) (*Vocabulary, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.NewIO("open", path, err)
	}
	defer file.Close()

	v := New()
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		word := strings.TrimSpace(scanner.Text())
		if word == "" {
			continue
		}
		if lowercase {
			word = strings.ToLower(word)
		}
		v.Resolve(word)
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.NewIO("read", path, err)
	}

	v.Lock()
	return v, nil
}

// Resolve looks up a word. While unlocked, an unseen word is allocated the
// next incrementing id. While locked, a seen word's usage counter is bumped
// and an unseen word reports Unknown without mutation.
func (v *Vocabulary) Resolve(word string) (uint32, ResolveKind) {
	if id, ok := v.ids[word]; ok {
		if v.locked {
			v.usage[word]++
		}
		return id, Known
	}
	if v.locked {
		return 0, Unknown
	}
	id := uint32(len(v.words))
	v.ids[word] = id
	v.words = append(v.words, word)
	return id, Assigned
}

// Preload seeds the vocabulary with words in slice order. Words already
// present keep their id.
func (v *Vocabulary) Preload(words []string) {
	for _, word := range words {
		v.Resolve(word)
	}
}

// Lock freezes the vocabulary and compiles the line matcher. Idempotent.
func (v *Vocabulary) Lock() {
	if v.locked {
		return
	}
	v.locked = true

	builder := ahocorasick.NewAhoCorasickBuilder(ahocorasick.Opts{
		AsciiCaseInsensitive: true,
		MatchOnlyWholeWords:  true,
		MatchKind:            ahocorasick.LeftMostLongestMatch,
		DFA:                  true,
	})
	matcher := builder.Build(v.words)
	v.matcher = &matcher
}

// Locked reports whether the vocabulary has been locked.
func (v *Vocabulary) Locked() bool {
	return v.locked
}

// Match returns the distinct vocabulary words occurring anywhere in the
// line, case-insensitively and non-overlapping, in order of first
// occurrence. A space is inserted before every apostrophe so both halves
// of a contraction match independently. Every hit, including repeats,
// bumps the word's usage counter. Valid only once locked.
func (v *Vocabulary) Match(line string) ([]string, error) {
	if !v.locked {
		return nil, errors.NewUsage("Match", "vocabulary is not locked")
	}
	if len(v.words) == 0 {
		return nil, nil
	}

	prepared := strings.ReplaceAll(line, "'", " '")

	var found []string
	seen := make(map[string]struct{})
	for _, m := range v.matcher.FindAll(prepared) {
		word := v.words[m.Pattern()]
		v.usage[word]++
		if _, ok := seen[word]; ok {
			continue
		}
		seen[word] = struct{}{}
		found = append(found, word)
	}
	return found, nil
}

// MatchIDs returns the sorted unique id set for the line's matched words.
func (v *Vocabulary) MatchIDs(line string) ([]uint32, error) {
	words, err := v.Match(line)
	if err != nil {
		return nil, err
	}
	ids := make([]uint32, 0, len(words))
	for _, word := range words {
		ids = append(ids, v.ids[word])
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

// UsageCounts returns a copy of the per-word locked-lookup counters.
func (v *Vocabulary) UsageCounts() map[string]uint64 {
	counts := make(map[string]uint64, len(v.usage))
	for word, n := range v.usage {
		counts[word] = n
	}
	return counts
}

// Len returns the number of words in the vocabulary.
func (v *Vocabulary) Len() int {
	return len(v.words)
}

// Words returns the vocabulary words ordered by id.
func (v *Vocabulary) Words() []string {
	words := make([]string, len(v.words))
	copy(words, v.words)
	return words
}
