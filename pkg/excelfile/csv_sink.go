package excelfile

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
)

// CSVSink renders every sheet into a single CSV stream: each sheet's header
// followed by its rows, with an empty record between sheets. Write handlers
// are ignored.
type CSVSink struct {
	sheets map[int]*csvSheet
	order  []*csvSheet
	closed bool
}

type csvSheet struct {
	headers []string
	rows    [][]string
}

func NewCSVSink() *CSVSink {
	return &CSVSink{sheets: make(map[int]*csvSheet)}
}

func (s *CSVSink) AddSheet(sheet *Sheet) error {
	if s.closed {
		return fmt.Errorf("sink is closed")
	}
	if _, ok := s.sheets[sheet.No]; ok {
		return fmt.Errorf("sheet %d already added", sheet.No)
	}
	cs := &csvSheet{headers: append([]string(nil), sheet.Headers...)}
	s.sheets[sheet.No] = cs
	s.order = append(s.order, cs)
	return nil
}

func (s *CSVSink) AppendRows(sheetNo int, rows [][]interface{}) error {
	if s.closed {
		return fmt.Errorf("sink is closed")
	}
	cs, ok := s.sheets[sheetNo]
	if !ok {
		return fmt.Errorf("sheet %d not added", sheetNo)
	}
	for _, row := range rows {
		record := make([]string, len(row))
		for i, v := range row {
			if v != nil {
				record[i] = fmt.Sprintf("%v", v)
			}
		}
		cs.rows = append(cs.rows, record)
	}
	return nil
}

func (s *CSVSink) Finish() (io.Reader, error) {
	if s.closed {
		return nil, fmt.Errorf("sink is closed")
	}
	buf := new(bytes.Buffer)
	w := csv.NewWriter(buf)
	for i, cs := range s.order {
		if i > 0 {
			if err := w.Write([]string{""}); err != nil {
				return nil, err
			}
		}
		if len(cs.headers) > 0 {
			if err := w.Write(cs.headers); err != nil {
				return nil, err
			}
		}
		if err := w.WriteAll(cs.rows); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return bytes.NewReader(buf.Bytes()), nil
}

func (s *CSVSink) Close() error {
	s.closed = true
	s.sheets = nil
	s.order = nil
	return nil
}
