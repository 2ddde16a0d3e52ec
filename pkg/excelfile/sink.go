package excelfile

import (
	"errors"
	"io"
)

// Sink accumulates rows per sheet and encodes the finished document.
type Sink interface {
	// AddSheet registers a new sheet. A sheet is added at most once.
	AddSheet(sheet *Sheet) error
	// AppendRows appends rows to a previously added sheet, in order.
	AppendRows(sheetNo int, rows [][]interface{}) error
	// Finish finalizes the document and returns its bytes.
	Finish() (io.Reader, error)
	// Close releases the sink's resources. It must be safe to call more than once.
	Close() error
}

// ErrUnknownFormat is wrapped by ParseFormat errors.
var ErrUnknownFormat = errors.New("unknown document format")

// Format names a document encoding.
type Format string

const (
	FormatXLSX Format = "xlsx"
	FormatCSV  Format = "csv"
)

// ParseFormat validates a format name. The empty string selects XLSX.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case "", FormatXLSX:
		return FormatXLSX, nil
	case FormatCSV:
		return FormatCSV, nil
	default:
		return "", &unknownFormatError{format: s}
	}
}

// ContentType returns the MIME type of documents in this format.
func (f Format) ContentType() string {
	if f == FormatCSV {
		return "text/csv"
	}
	return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
}

// NewSink returns a fresh sink for the format.
func (f Format) NewSink() Sink {
	if f == FormatCSV {
		return NewCSVSink()
	}
	return NewXLSXSink()
}

type unknownFormatError struct {
	format string
}

func (e *unknownFormatError) Error() string {
	return ErrUnknownFormat.Error() + " \"" + e.format + "\""
}

func (e *unknownFormatError) Unwrap() error {
	return ErrUnknownFormat
}
