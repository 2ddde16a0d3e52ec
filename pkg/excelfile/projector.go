package excelfile

// projectRow maps one record onto the given columns, in order. Missing fields
// and missing dynamic keys yield nil cells.
func projectRow(item *Item, cols []ColumnHeader) ([]interface{}, error) {
	row := make([]interface{}, len(cols))
	if item == nil {
		return row, nil
	}
	for i := range cols {
		col := &cols[i]
		v, ok := item.Values[col.FieldName]
		if !ok || v.IsNull() {
			continue
		}
		if !col.DynamicColumn {
			row[i] = v.Interface()
			continue
		}
		if v.Kind() != KindMap {
			return nil, &TypeMismatchError{FieldName: col.FieldName, DynamicColumnKey: col.DynamicColumnKey, Kind: v.Kind()}
		}
		if e, ok := v.Lookup(col.DynamicColumnKey); ok {
			row[i] = e.Interface()
		}
	}
	return row, nil
}

// projectData projects every item of d before returning, so a failing record
// yields no rows at all.
func projectData(d *Data, cols []ColumnHeader) ([][]interface{}, error) {
	rows := make([][]interface{}, 0, len(d.Items))
	for _, item := range d.Items {
		row, err := projectRow(item, cols)
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}
	return rows, nil
}
