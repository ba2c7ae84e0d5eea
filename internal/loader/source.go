package loader

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
)

// Raw is a table read from a source with every cell kept as text.
type Raw struct {
	Header []string
	Rows   [][]string
}

// Source reads raw tables from one family of file formats.
type Source interface {
	CanRead(path string) bool
	ReadRaw(path string, opt Options) (*Raw, error)
}

var registry []Source

// Register adds a source implementation. Later registrations are consulted
// first so callers can override the defaults.
func Register(s Source) {
	registry = append([]Source{s}, registry...)
}

func init() {
	Register(csvSource{})
	Register(xlsxSource{})
}

// ReadRaw picks a source by filename and reads the table. Paths no source
// claims are read as delimited text.
func ReadRaw(path string, opt Options) (*Raw, error) {
	if err := checkReadable(path); err != nil {
		return nil, err
	}
	for _, s := range registry {
		if s.CanRead(path) {
			return s.ReadRaw(path, opt)
		}
	}
	return csvSource{}.ReadRaw(path, opt)
}

func checkReadable(path string) error {
	if strings.TrimSpace(path) == "" {
		return &SourceNotFoundError{Path: path, Err: errors.New("empty path")}
	}
	info, err := os.Stat(path)
	if err != nil {
		return &SourceNotFoundError{Path: path, Err: err}
	}
	if info.IsDir() {
		return &SourceNotFoundError{Path: path, Err: fmt.Errorf("is a directory: %w", fs.ErrInvalid)}
	}
	return nil
}

// normalizeRows pads short rows with empty cells and trims the UTF-8 BOM some
// exporters put in front of the first header. Rows wider than the header are
// rejected.
func normalizeRows(path string, raw *Raw) error {
	if len(raw.Header) > 0 {
		raw.Header[0] = strings.TrimPrefix(raw.Header[0], "\ufeff")
	}
	for i := range raw.Header {
		raw.Header[i] = strings.TrimSpace(raw.Header[i])
	}
	n := len(raw.Header)
	for i, r := range raw.Rows {
		if len(r) > n {
			return &ParseError{Path: path, Line: i + 2, Msg: fmt.Sprintf("row has %d fields, header has %d", len(r), n)}
		}
		if len(r) < n {
			tmp := make([]string, n)
			copy(tmp, r)
			raw.Rows[i] = tmp
		}
	}
	return nil
}
