package excelfile

import (
	"encoding/json"

	"gopkg.in/yaml.v3"
)

// AllGroups marks a column that appears in every sheet.
const AllGroups = -1

// ColumnHeader describes one potential output column.
type ColumnHeader struct {
	FieldName        string  `json:"fieldName" yaml:"field_name"`
	HeaderName       string  `json:"headerName" yaml:"header_name"`
	IgnoreHeader     bool    `json:"ignoreHeader" yaml:"ignore_header"`
	GroupIndex       int     `json:"groupIndex" yaml:"group_index"` // AllGroups or a sheet index
	DynamicColumn    bool    `json:"dynamicColumn" yaml:"dynamic_column"`
	DynamicColumnKey string  `json:"dynamicColumnKey" yaml:"dynamic_column_key"`
	Width            float64 `json:"width,omitempty" yaml:"width"`
}

// UnmarshalJSON decodes a column, treating an absent groupIndex as AllGroups.
func (c *ColumnHeader) UnmarshalJSON(b []byte) error {
	type plain ColumnHeader
	p := plain{GroupIndex: AllGroups}
	if err := json.Unmarshal(b, &p); err != nil {
		return err
	}
	*c = ColumnHeader(p)
	return nil
}

// UnmarshalYAML decodes a column, treating an absent group_index as AllGroups.
func (c *ColumnHeader) UnmarshalYAML(n *yaml.Node) error {
	type plain ColumnHeader
	p := plain{GroupIndex: AllGroups}
	if err := n.Decode(&p); err != nil {
		return err
	}
	*c = ColumnHeader(p)
	return nil
}

// appliesTo reports whether the column is emitted for the given sheet index.
func (c *ColumnHeader) appliesTo(sheetNo int) bool {
	if c.IgnoreHeader {
		return false
	}
	return c.GroupIndex == AllGroups || c.GroupIndex == sheetNo
}

// ColumnHeaders is the ordered column schema shared by all sheets.
// It is never mutated after construction.
type ColumnHeaders struct {
	headers []ColumnHeader
}

// NewColumnHeaders copies the given columns into a new schema.
func NewColumnHeaders(headers []ColumnHeader) *ColumnHeaders {
	cp := make([]ColumnHeader, len(headers))
	copy(cp, headers)
	return &ColumnHeaders{headers: cp}
}

// All returns a copy of every column, including ignored ones.
func (h *ColumnHeaders) All() []ColumnHeader {
	if h == nil {
		return nil
	}
	cp := make([]ColumnHeader, len(h.headers))
	copy(cp, h.headers)
	return cp
}

// Len returns the number of columns in the schema.
func (h *ColumnHeaders) Len() int {
	if h == nil {
		return 0
	}
	return len(h.headers)
}

// Eligible returns the non-ignored columns bound to sheetNo or to all sheets,
// in schema order.
func (h *ColumnHeaders) Eligible(sheetNo int) []ColumnHeader {
	if h == nil {
		return nil
	}
	var cols []ColumnHeader
	for i := range h.headers {
		if h.headers[i].appliesTo(sheetNo) {
			cols = append(cols, h.headers[i])
		}
	}
	return cols
}

// HeaderNames returns the display labels of the columns eligible for sheetNo.
func (h *ColumnHeaders) HeaderNames(sheetNo int) []string {
	cols := h.Eligible(sheetNo)
	names := make([]string, len(cols))
	for i, col := range cols {
		names[i] = col.HeaderName
	}
	return names
}
