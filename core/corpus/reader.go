package corpus

import (
	"bufio"
	"encoding/binary"
	"io"
	"os"

	"github.com/RasaHQ/semantic-map-embedding/core/errors"
)

// Row is one decoded container row.
type Row struct {
	IDs     []uint32
	Weights []uint8
}

// ReadRows decodes all rows of the container at path. Intended for
// inspection and tests; the merge path never re-parses rows.
func ReadRows(path string) (Header, []Row, error) {
	file, err := os.Open(path)
	if err != nil {
		return Header{}, nil, errors.NewIO("open", path, err)
	}
	defer file.Close()

	r := bufio.NewReader(file)
	var hdr [HeaderSize]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return Header{}, nil, errors.NewParse("corpus header", path, err.Error())
	}
	h := decodeHeader(hdr[:])
	if h.Version != FormatWeighted && h.Version != FormatUnweighted {
		return Header{}, nil, errors.NewParse("corpus header", path, "unknown format version")
	}

	rows := make([]Row, 0, h.Rows)
	var num [4]byte
	for {
		if _, err := io.ReadFull(r, num[:]); err == io.EOF {
			break
		} else if err != nil {
			return h, nil, errors.NewParse("corpus row", path, err.Error())
		}
		length := binary.LittleEndian.Uint32(num[:])

		row := Row{IDs: make([]uint32, length)}
		for i := range row.IDs {
			if _, err := io.ReadFull(r, num[:]); err != nil {
				return h, nil, errors.NewParse("corpus row", path, err.Error())
			}
			row.IDs[i] = binary.LittleEndian.Uint32(num[:])
		}
		if h.Weighted() {
			row.Weights = make([]uint8, length)
			if _, err := io.ReadFull(r, row.Weights); err != nil {
				return h, nil, errors.NewParse("corpus row", path, err.Error())
			}
		}
		rows = append(rows, row)
	}
	return h, rows, nil
}
