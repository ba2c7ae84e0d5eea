package loader

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

type csvSource struct{}

func (csvSource) CanRead(path string) bool {
	name := strings.ToLower(path)
	return strings.HasSuffix(name, ".csv") || strings.HasSuffix(name, ".tsv") || strings.HasSuffix(name, ".txt")
}

// ReadRaw reads a delimited file with a header row. Every cell stays text.
func (csvSource) ReadRaw(path string, opt Options) (*Raw, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &SourceNotFoundError{Path: path, Err: err}
	}
	defer f.Close()

	delim := opt.Delimiter
	if delim == 0 {
		delim = sniffDelimiter(path)
	}
	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.Comma = delim
	// Leading-space trimming would swallow empty fields in tab-separated files.
	r.TrimLeadingSpace = delim != '\t' && delim != ' '

	header, err := r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, &ParseError{Path: path, Msg: "empty file: no header row"}
		}
		return nil, csvParseError(path, "read header", err)
	}
	raw := &Raw{Header: append([]string(nil), header...)}
	for {
		rec, err := r.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, csvParseError(path, fmt.Sprintf("read row %d", len(raw.Rows)+1), err)
		}
		raw.Rows = append(raw.Rows, rec)
	}
	if err := normalizeRows(path, raw); err != nil {
		return nil, err
	}
	return raw, nil
}

func csvParseError(path, msg string, err error) error {
	pe := &ParseError{Path: path, Msg: msg, Err: err}
	var cerr *csv.ParseError
	if errors.As(err, &cerr) {
		pe.Line = cerr.Line
	}
	return pe
}

func sniffDelimiter(path string) rune {
	if strings.HasSuffix(strings.ToLower(path), ".tsv") {
		return '\t'
	}
	return ','
}
