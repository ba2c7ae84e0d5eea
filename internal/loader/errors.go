package loader

import "fmt"

// SourceNotFoundError indicates the source path is missing or unreadable.
type SourceNotFoundError struct {
	Path string
	Err  error
}

func (e *SourceNotFoundError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("source not found: %s: %v", e.Path, e.Err)
	}
	return fmt.Sprintf("source not found: %s", e.Path)
}

func (e *SourceNotFoundError) Unwrap() error { return e.Err }

// ParseError indicates the source is not valid tabular text or lacks a
// required column. Line is 1-based and zero when not tied to a line.
type ParseError struct {
	Path string
	Line int
	Msg  string
	Err  error
}

func (e *ParseError) Error() string {
	loc := e.Path
	if e.Line > 0 {
		loc = fmt.Sprintf("%s:%d", e.Path, e.Line)
	}
	if e.Err != nil {
		return fmt.Sprintf("parse %s: %s: %v", loc, e.Msg, e.Err)
	}
	return fmt.Sprintf("parse %s: %s", loc, e.Msg)
}

func (e *ParseError) Unwrap() error { return e.Err }

// DateFormatError reports a month cell that is not YYYY-MM. Row is the
// 1-based data row (header excluded).
type DateFormatError struct {
	Row   int
	Value string
	Err   error
}

func (e *DateFormatError) Error() string {
	if e.Row > 0 {
		return fmt.Sprintf("row %d: month %q is not YYYY-MM", e.Row, e.Value)
	}
	return fmt.Sprintf("month %q is not YYYY-MM", e.Value)
}

func (e *DateFormatError) Unwrap() error { return e.Err }
