// Package excelfile routes grouped record batches to spreadsheet sheets and
// projects them into rows ordered by a shared column schema.
package excelfile

// Meta keys that override sheet routing for a Data entry.
const (
	SheetNameKey = "sheetName"
	SheetNoKey   = "sheetNo"
)

// DefaultSheetName is used when a Data entry carries neither a sheet name
// override nor a code.
const DefaultSheetName = "Sheet1"

// DataGroup is one write unit: an ordered list of Data entries.
type DataGroup struct {
	Data []*Data `json:"data"`
}

// Data is a batch of records bound for a single sheet.
type Data struct {
	Code  *string           `json:"code,omitempty"`
	Meta  map[string]string `json:"meta,omitempty"`
	Items []*Item           `json:"items"`
}

// Item is one record, keyed by field name.
type Item struct {
	Values map[string]Value `json:"values"`
}

// NewItem builds an Item from plain Go values.
func NewItem(values map[string]interface{}) *Item {
	return &Item{Values: Values(values)}
}

// NewData builds a Data entry with the given code and items.
func NewData(code string, items ...*Item) *Data {
	return &Data{Code: &code, Items: items}
}

// WithMeta sets a meta entry and returns d.
func (d *Data) WithMeta(key, value string) *Data {
	if d.Meta == nil {
		d.Meta = make(map[string]string)
	}
	d.Meta[key] = value
	return d
}

func (d *Data) meta(key string) (string, bool) {
	if d.Meta == nil {
		return "", false
	}
	v, ok := d.Meta[key]
	return v, ok
}
