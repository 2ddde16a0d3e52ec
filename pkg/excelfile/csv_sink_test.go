package excelfile

import (
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCSVSink(t *testing.T) {
	s := NewCSVSink()
	defer s.Close()

	require.NoError(t, s.AddSheet(&Sheet{No: 0, Name: "A", Headers: []string{"Name", "Amt"}}))
	require.NoError(t, s.AddSheet(&Sheet{No: 1, Name: "B", Headers: []string{"Name"}}))
	require.NoError(t, s.AppendRows(0, [][]interface{}{{"x", 10}, {"y, z", nil}}))
	require.NoError(t, s.AppendRows(1, [][]interface{}{{"only"}}))
	assert.Error(t, s.AppendRows(2, nil))

	r, err := s.Finish()
	require.NoError(t, err)
	body, err := io.ReadAll(r)
	require.NoError(t, err)

	assert.Equal(t, "Name,Amt\nx,10\n\"y, z\",\n\nName\nonly\n", string(body))
}

func TestCSVSink_ThroughFileWriter(t *testing.T) {
	w, err := NewFileWriter(ExportContext{}, endToEndHeaders(), FileContext{FileType: string(FormatCSV)}, WithSink(FormatCSV.NewSink()))
	require.NoError(t, err)
	defer w.Close()

	require.NoError(t, w.Write(&DataGroup{Data: []*Data{
		NewData("Sheet0", NewItem(map[string]interface{}{"name": "A", "amt": 10})),
	}}))
	r, err := w.Finish()
	require.NoError(t, err)
	body, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "Name,Amt\nA,10\n", string(body))
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("")
	require.NoError(t, err)
	assert.Equal(t, FormatXLSX, f)

	f, err = ParseFormat("csv")
	require.NoError(t, err)
	assert.Equal(t, FormatCSV, f)
	assert.Equal(t, "text/csv", f.ContentType())

	_, err = ParseFormat("pdf")
	assert.ErrorIs(t, err, ErrUnknownFormat)
	assert.Contains(t, err.Error(), `"pdf"`)
}
