package loader

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

type xlsxSource struct{}

func (xlsxSource) CanRead(path string) bool {
	name := strings.ToLower(path)
	return strings.HasSuffix(name, ".xlsx") || strings.HasSuffix(name, ".xlsm")
}

// ReadRaw reads one worksheet; the first non-empty row is the header.
// Opt.Sheet selects the sheet by name, otherwise the first sheet is used.
func (xlsxSource) ReadRaw(path string, opt Options) (*Raw, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, &ParseError{Path: path, Msg: "open workbook", Err: err}
	}
	defer f.Close()

	sheet := opt.Sheet
	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, &ParseError{Path: path, Msg: "workbook has no sheets"}
		}
		sheet = sheets[0]
	} else if idx, err := f.GetSheetIndex(sheet); err != nil || idx < 0 {
		return nil, &ParseError{Path: path, Msg: fmt.Sprintf("sheet %q not found", sheet), Err: err}
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, &ParseError{Path: path, Msg: fmt.Sprintf("read sheet %q", sheet), Err: err}
	}

	raw := &Raw{}
	for _, r := range rows {
		if blankRow(r) {
			continue
		}
		if raw.Header == nil {
			raw.Header = append([]string(nil), r...)
			continue
		}
		raw.Rows = append(raw.Rows, r)
	}
	if raw.Header == nil {
		return nil, &ParseError{Path: path, Msg: fmt.Sprintf("sheet %q is empty: no header row", sheet)}
	}
	if err := normalizeRows(path, raw); err != nil {
		return nil, err
	}
	return raw, nil
}

func blankRow(r []string) bool {
	for _, c := range r {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
