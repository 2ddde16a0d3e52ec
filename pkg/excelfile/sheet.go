package excelfile

import (
	"strconv"
)

// Sheet is the state of one output sheet, created on first use of its index.
type Sheet struct {
	No       int
	Name     string
	Headers  []string
	Columns  []ColumnHeader
	Handlers []WriteHandler
}

// sheetRouter owns the name->index and index->sheet tables of one export.
// Both tables only grow.
type sheetRouter struct {
	headers     *ColumnHeaders
	handlers    []WriteHandler
	defaultName string
	nameNo      map[string]int
	sheets      map[int]*Sheet
	order       []*Sheet
}

func newSheetRouter(headers *ColumnHeaders, handlers []WriteHandler, defaultName string) *sheetRouter {
	return &sheetRouter{
		headers:     headers,
		handlers:    handlers,
		defaultName: defaultName,
		nameNo:      make(map[string]int),
		sheets:      make(map[int]*Sheet),
	}
}

// resolveName prefers the meta override, then the code, then the default.
func (r *sheetRouter) resolveName(d *Data) string {
	if name, ok := d.meta(SheetNameKey); ok {
		return name
	}
	if d.Code != nil {
		return *d.Code
	}
	return r.defaultName
}

// resolveNo prefers the meta override, otherwise looks the name up in the
// first-seen table. A name not seen yet gets the next index and newName is
// true; the table itself is only updated by commit.
func (r *sheetRouter) resolveNo(d *Data, name string) (no int, newName bool, err error) {
	if raw, ok := d.meta(SheetNoKey); ok {
		no, err := strconv.Atoi(raw)
		if err != nil {
			return 0, false, &FormatError{Key: SheetNoKey, Value: raw, Err: err}
		}
		return no, false, nil
	}
	if no, ok := r.nameNo[name]; ok {
		return no, false, nil
	}
	return len(r.nameNo), true, nil
}

// routing is the outcome of resolve. Nothing is recorded until commit.
type routing struct {
	sheet   *Sheet
	created bool
	name    string
	newName bool
}

// resolve finds the sheet for d, building a new one when its index is unknown.
// It leaves both tables untouched.
func (r *sheetRouter) resolve(d *Data) (routing, error) {
	name := r.resolveName(d)
	no, newName, err := r.resolveNo(d, name)
	if err != nil {
		return routing{}, err
	}
	if sheet, ok := r.sheets[no]; ok {
		return routing{sheet: sheet, name: name, newName: newName}, nil
	}

	handlers := make([]WriteHandler, len(r.handlers))
	copy(handlers, r.handlers)

	sheet := &Sheet{
		No:       no,
		Name:     name,
		Headers:  r.headers.HeaderNames(no),
		Columns:  r.headers.Eligible(no),
		Handlers: handlers,
	}
	return routing{sheet: sheet, created: true, name: name, newName: newName}, nil
}

// commit records a resolved routing in the name and sheet tables.
func (r *sheetRouter) commit(rt routing) {
	if rt.newName {
		r.nameNo[rt.name] = rt.sheet.No
	}
	if rt.created {
		r.sheets[rt.sheet.No] = rt.sheet
		r.order = append(r.order, rt.sheet)
	}
}
