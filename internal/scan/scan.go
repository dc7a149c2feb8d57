// Package scan locates corpus input files and opens them for reading,
// transparently decompressing xz and gzip inputs.
package scan

import (
	"bufio"
	"compress/gzip"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/ulikunitz/xz"

	"github.com/RasaHQ/semantic-map-embedding/core/errors"
)

// ListFiles walks root and returns every file whose basename matches the
// pattern, anchored at the start of the name. An empty pattern matches
// everything. Order follows the lexical directory walk, so repeated runs
// over the same tree partition identically.
func ListFiles(root, pattern string) ([]string, error) {
	var re *regexp.Regexp
	if pattern != "" {
		compiled, err := regexp.Compile("^(?:" + pattern + ")")
		if err != nil {
			return nil, errors.NewParse("file pattern", "", err.Error())
		}
		re = compiled
	}

	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if re == nil || re.MatchString(d.Name()) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, errors.NewIO("scan", root, err)
	}
	return files, nil
}

// decompressingReader couples a decompressor with the file underneath it.
type decompressingReader struct {
	io.Reader
	file *os.File
}

func (r *decompressingReader) Close() error {
	return r.file.Close()
}

// Open opens a corpus input file for reading. Files ending in .xz or .gz
// are decompressed on the fly.
func Open(path string) (io.ReadCloser, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.NewIO("open", path, err)
	}

	switch {
	case strings.HasSuffix(path, ".xz"):
		r, err := xz.NewReader(bufio.NewReader(file))
		if err != nil {
			file.Close()
			return nil, errors.NewParse("xz", path, err.Error())
		}
		return &decompressingReader{Reader: r, file: file}, nil
	case strings.HasSuffix(path, ".gz"):
		r, err := gzip.NewReader(file)
		if err != nil {
			file.Close()
			return nil, errors.NewParse("gzip", path, err.Error())
		}
		return &decompressingReader{Reader: r, file: file}, nil
	default:
		return file, nil
	}
}
