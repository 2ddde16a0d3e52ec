package excelfile

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"
)

const defaultWorkbookSheet = "Sheet1"

// XLSXSink streams rows into an excelize workbook, one StreamWriter per sheet.
type XLSXSink struct {
	file   *excelize.File
	sheets map[int]*xlsxSheet
	order  []*xlsxSheet
	names  map[string]struct{}
	styles map[CellStyle]int
	closed bool
}

type xlsxSheet struct {
	sheet      *Sheet
	name       string
	stream     *excelize.StreamWriter
	cells      []CellHandler
	currentRow int
}

// NewXLSXSink creates a sink backed by a new in-memory workbook.
func NewXLSXSink() *XLSXSink {
	return &XLSXSink{
		file:   excelize.NewFile(),
		sheets: make(map[int]*xlsxSheet),
		names:  make(map[string]struct{}),
		styles: make(map[CellStyle]int),
	}
}

// AddSheet creates the worksheet, runs sheet handlers and writes the header row.
func (s *XLSXSink) AddSheet(sheet *Sheet) error {
	if s.closed {
		return fmt.Errorf("sink is closed")
	}
	if _, ok := s.sheets[sheet.No]; ok {
		return fmt.Errorf("sheet %d already added", sheet.No)
	}

	name := s.uniqueName(sheet)
	if len(s.order) == 0 {
		s.file.SetSheetName(defaultWorkbookSheet, name)
	} else if _, err := s.file.NewSheet(name); err != nil {
		return fmt.Errorf("creating sheet %q: %w", name, err)
	}
	s.names[strings.ToLower(name)] = struct{}{}

	sw, err := s.file.NewStreamWriter(name)
	if err != nil {
		return fmt.Errorf("opening stream writer for %q: %w", name, err)
	}

	xs := &xlsxSheet{sheet: sheet, name: name, stream: sw, currentRow: 1}
	ctx := &SheetWriteContext{File: s.file, Stream: sw, Sheet: sheet, SheetName: name}
	for _, h := range sheet.Handlers {
		if sh, ok := h.(SheetHandler); ok {
			if err := sh.BeforeRows(ctx); err != nil {
				return fmt.Errorf("write handler %s: %w", h.HandlerName(), err)
			}
		}
		if ch, ok := h.(CellHandler); ok {
			xs.cells = append(xs.cells, ch)
		}
	}

	s.sheets[sheet.No] = xs
	s.order = append(s.order, xs)

	if len(sheet.Headers) == 0 {
		return nil
	}
	header := make([]interface{}, len(sheet.Headers))
	for i, h := range sheet.Headers {
		header[i] = h
	}
	return s.writeRow(xs, header, true)
}

// AppendRows writes rows after the sheet's current last row.
func (s *XLSXSink) AppendRows(sheetNo int, rows [][]interface{}) error {
	if s.closed {
		return fmt.Errorf("sink is closed")
	}
	xs, ok := s.sheets[sheetNo]
	if !ok {
		return fmt.Errorf("sheet %d not added", sheetNo)
	}
	for _, row := range rows {
		if err := s.writeRow(xs, row, false); err != nil {
			return err
		}
	}
	return nil
}

// Finish flushes every stream writer and returns the workbook bytes.
func (s *XLSXSink) Finish() (io.Reader, error) {
	if s.closed {
		return nil, fmt.Errorf("sink is closed")
	}
	for _, xs := range s.order {
		if err := xs.stream.Flush(); err != nil {
			return nil, fmt.Errorf("flushing sheet %q: %w", xs.name, err)
		}
	}
	buf := new(bytes.Buffer)
	if _, err := s.file.WriteTo(buf); err != nil {
		return nil, fmt.Errorf("writing workbook: %w", err)
	}
	return bytes.NewReader(buf.Bytes()), nil
}

// Close releases the workbook's temporary resources.
func (s *XLSXSink) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	return s.file.Close()
}

// SheetName returns the workbook name used for sheetNo.
func (s *XLSXSink) SheetName(sheetNo int) (string, bool) {
	xs, ok := s.sheets[sheetNo]
	if !ok {
		return "", false
	}
	return xs.name, true
}

// uniqueName suffixes names already used by another sheet index. Workbook
// sheet names compare case-insensitively.
func (s *XLSXSink) uniqueName(sheet *Sheet) string {
	name := workbookSheetName(sheet.Name)
	if _, taken := s.names[strings.ToLower(name)]; !taken {
		return name
	}
	suffix := fmt.Sprintf(" (%d)", sheet.No)
	for i := 2; ; i++ {
		candidate := truncateRunes(name, maxSheetNameLen-utf8.RuneCountInString(suffix)) + suffix
		if _, taken := s.names[strings.ToLower(candidate)]; !taken {
			return candidate
		}
		suffix = fmt.Sprintf(" (%d-%d)", sheet.No, i)
	}
}

const maxSheetNameLen = 31

var sheetNameReplacer = strings.NewReplacer(
	":", "_", "\\", "_", "/", "_", "?", "_", "*", "_", "[", "_", "]", "_",
)

// workbookSheetName makes name acceptable to Excel: no reserved characters,
// no surrounding apostrophes, at most 31 characters.
func workbookSheetName(name string) string {
	name = strings.Trim(sheetNameReplacer.Replace(name), "'")
	if name == "" {
		return defaultWorkbookSheet
	}
	return truncateRunes(name, maxSheetNameLen)
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

func (s *XLSXSink) writeRow(xs *xlsxSheet, values []interface{}, header bool) error {
	cell, err := excelize.CoordinatesToCellName(1, xs.currentRow)
	if err != nil {
		return err
	}
	row := values
	if len(xs.cells) > 0 {
		row = make([]interface{}, len(values))
		for i, v := range values {
			styleID, err := s.cellStyle(xs, xs.currentRow, i, header, v)
			if err != nil {
				return err
			}
			row[i] = excelize.Cell{Value: v, StyleID: styleID}
		}
	}
	if err := xs.stream.SetRow(cell, row); err != nil {
		return fmt.Errorf("writing row %d of %q: %w", xs.currentRow, xs.name, err)
	}
	xs.currentRow++
	return nil
}

func (s *XLSXSink) cellStyle(xs *xlsxSheet, row, col int, header bool, value interface{}) (int, error) {
	ctx := &CellWriteContext{Sheet: xs.sheet, Row: row, Column: col, Header: header, Value: value}
	var style *CellStyle
	for _, h := range xs.cells {
		if st := h.CellStyle(ctx); st != nil {
			style = st
		}
	}
	if style == nil {
		return 0, nil
	}
	if id, ok := s.styles[*style]; ok {
		return id, nil
	}
	id, err := s.file.NewStyle(style.toExcelize())
	if err != nil {
		return 0, fmt.Errorf("creating style: %w", err)
	}
	s.styles[*style] = id
	return id, nil
}
