// Package corpus implements the append-only binary container format read by
// the smap embedding trainer.
//
// Container layout (all integers little-endian, unsigned):
//
//	offset 0, 1 byte:  format version (2 = weighted rows, 3 = unweighted)
//	offset 1, 8 bytes: total entry count (patched on flush)
//	offset 9, 4 bytes: total row count (patched on flush)
//	offset 13, 4 bytes: column count (vocabulary size, fixed at creation)
//	offset 17..:       row sequence, append-only
//
// Each row is a uint32 length L, L uint32 ascending unique vocabulary ids,
// and, in the weighted variant only, L uint8 weights aligned with the ids.
package corpus

import (
	"bufio"
	"encoding/binary"
	"io"
	"os"

	"github.com/RasaHQ/semantic-map-embedding/core/errors"
)

// Format versions of the container.
const (
	// FormatWeighted marks containers whose rows carry per-id weights.
	FormatWeighted uint8 = 2
	// FormatUnweighted marks containers whose rows are bare id sets.
	FormatUnweighted uint8 = 3
)

// HeaderSize is the byte length of the container header.
const HeaderSize = 17

// Header is the decoded container header.
type Header struct {
	Version uint8
	Entries uint64
	Rows    uint32
	Columns uint32
}

// Weighted reports whether the container's rows carry weights.
func (h Header) Weighted() bool {
	return h.Version == FormatWeighted
}

func decodeHeader(buf []byte) Header {
	return Header{
		Version: buf[0],
		Entries: binary.LittleEndian.Uint64(buf[1:9]),
		Rows:    binary.LittleEndian.Uint32(buf[9:13]),
		Columns: binary.LittleEndian.Uint32(buf[13:17]),
	}
}

// ReadHeader decodes the header of the container at path.
func ReadHeader(path string) (Header, error) {
	file, err := os.Open(path)
	if err != nil {
		return Header{}, errors.NewIO("open", path, err)
	}
	defer file.Close()

	var buf [HeaderSize]byte
	if _, err := io.ReadFull(file, buf[:]); err != nil {
		return Header{}, errors.NewParse("corpus header", path, err.Error())
	}
	h := decodeHeader(buf[:])
	if h.Version != FormatWeighted && h.Version != FormatUnweighted {
		return Header{}, errors.NewParse("corpus header", path, "unknown format version")
	}
	return h, nil
}

// Stream writes a corpus container. The file and its header are created
// lazily on the first append; Flush patches the running totals into the
// header in place and may be interleaved freely with further appends.
type Stream struct {
	path    string
	version uint8
	entries uint64
	rows    uint32
	columns uint32
	file    *os.File
	w       *bufio.Writer
}

// NewStream prepares a stream writing to path. A column count of zero means
// the stream adopts the column count of the first container merged into it.
func NewStream(path string, columns uint32, weighted bool) *Stream {
	version := FormatUnweighted
	if weighted {
		version = FormatWeighted
	}
	return &Stream{
		path:    path,
		version: version,
		columns: columns,
	}
}

// Path returns the output path of the stream.
func (s *Stream) Path() string { return s.path }

// Weighted reports whether the stream writes the weighted variant.
func (s *Stream) Weighted() bool { return s.version == FormatWeighted }

// Entries returns the running total entry count.
func (s *Stream) Entries() uint64 { return s.entries }

// Rows returns the running total row count.
func (s *Stream) Rows() uint32 { return s.rows }

// Columns returns the stream's column count.
func (s *Stream) Columns() uint32 { return s.columns }

// create opens the file and writes the header with the current totals.
func (s *Stream) create() error {
	file, err := os.OpenFile(s.path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return errors.NewIO("create", s.path, err)
	}
	s.file = file
	s.w = bufio.NewWriter(file)

	var buf [HeaderSize]byte
	buf[0] = s.version
	binary.LittleEndian.PutUint64(buf[1:9], s.entries)
	binary.LittleEndian.PutUint32(buf[9:13], s.rows)
	binary.LittleEndian.PutUint32(buf[13:17], s.columns)
	if _, err := s.w.Write(buf[:]); err != nil {
		return errors.NewIO("write header", s.path, err)
	}
	return nil
}

// Append writes one row. Empty id sets are dropped without touching the
// file. In the weighted variant the weights must align one-to-one with the
// ids; the unweighted variant rejects weights altogether.
func (s *Stream) Append(ids []uint32, weights []uint8) error {
	if s.Weighted() {
		if len(ids) > 0 && len(weights) != len(ids) {
			return errors.NewUsage("Append", "weights length does not match ids")
		}
	} else if weights != nil {
		return errors.NewUsage("Append", "weights passed to an unweighted stream")
	}

	if len(ids) == 0 {
		return nil
	}

	if s.file == nil {
		if err := s.create(); err != nil {
			return err
		}
	}

	var num [4]byte
	binary.LittleEndian.PutUint32(num[:], uint32(len(ids)))
	if _, err := s.w.Write(num[:]); err != nil {
		return errors.NewIO("write", s.path, err)
	}
	for _, id := range ids {
		binary.LittleEndian.PutUint32(num[:], id)
		if _, err := s.w.Write(num[:]); err != nil {
			return errors.NewIO("write", s.path, err)
		}
	}
	if s.Weighted() {
		if _, err := s.w.Write(weights); err != nil {
			return errors.NewIO("write", s.path, err)
		}
	}

	s.entries += uint64(len(ids))
	s.rows++
	return nil
}

// Flush persists the running totals into the header without disturbing the
// row region. Idempotent; a no-op while the file has not been created yet.
func (s *Stream) Flush() error {
	if s.file == nil {
		return nil
	}
	if err := s.w.Flush(); err != nil {
		return errors.NewIO("flush", s.path, err)
	}

	var buf [12]byte
	binary.LittleEndian.PutUint64(buf[0:8], s.entries)
	binary.LittleEndian.PutUint32(buf[8:12], s.rows)
	// WriteAt leaves the append offset untouched, so further appends
	// continue at the end of the row region.
	if _, err := s.file.WriteAt(buf[:], 1); err != nil {
		return errors.NewIO("patch header", s.path, err)
	}
	return nil
}

// AppendContainer merges the container at path into this stream: the format
// version must equal this stream's version and the column counts must match
// (a stream created with zero columns adopts the first merged container's
// count). The other container's row region is copied byte-for-byte and its
// totals are added, then the header is flushed. A failed validation leaves
// this stream untouched.
func (s *Stream) AppendContainer(path string) error {
	other, err := os.Open(path)
	if err != nil {
		return errors.NewIO("open", path, err)
	}
	defer other.Close()

	var buf [HeaderSize]byte
	if _, err := io.ReadFull(other, buf[:]); err != nil {
		return errors.NewParse("corpus header", path, err.Error())
	}
	h := decodeHeader(buf[:])

	if h.Version != s.version {
		return errors.NewFormat(path, "version", uint64(h.Version), uint64(s.version))
	}
	if s.columns != 0 && h.Columns != s.columns {
		return errors.NewFormat(path, "columns", uint64(h.Columns), uint64(s.columns))
	}
	s.columns = h.Columns

	if s.file == nil {
		if err := s.create(); err != nil {
			return err
		}
	}

	if _, err := io.Copy(s.w, other); err != nil {
		return errors.NewIO("copy rows from", path, err)
	}
	s.entries += h.Entries
	s.rows += h.Rows
	return s.Flush()
}

// Close flushes the header and closes the file. Safe to call when the
// stream never produced a file.
func (s *Stream) Close() error {
	if s.file == nil {
		return nil
	}
	if err := s.Flush(); err != nil {
		s.file.Close()
		return err
	}
	err := s.file.Close()
	s.file = nil
	s.w = nil
	if err != nil {
		return errors.NewIO("close", s.path, err)
	}
	return nil
}
