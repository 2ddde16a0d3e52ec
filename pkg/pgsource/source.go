package pgsource

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/locvowork/sheetexport/pkg/excelfile"
)

// DefaultBatchSize is used when Stream is given a non-positive batch size.
const DefaultBatchSize = 500

// DB abstracts the query side of *sql.DB and *sql.Tx.
type DB interface {
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
}

// Query describes one SQL statement whose rows become records of one sheet.
// Exactly one of SQL and Select is set. Queries are server configuration;
// request bodies only name them.
type Query struct {
	SQL       string        `yaml:"sql"`
	Args      []interface{} `yaml:"args"`
	Select    *Select       `yaml:"select"`
	Code      string        `yaml:"code"`
	SheetName string        `yaml:"sheet_name"`
	SheetNo   *int          `yaml:"sheet_no"`
}

// Validate reports whether the statement of q can be built.
func (q Query) Validate() error {
	_, _, err := q.statement()
	return err
}

func (q Query) statement() (string, []interface{}, error) {
	switch {
	case q.Select != nil && q.SQL != "":
		return "", nil, errors.New("query sets both sql and select")
	case q.Select != nil:
		return q.Select.Build()
	case q.SQL == "":
		return "", nil, errors.New("query has no sql")
	}
	return q.SQL, q.Args, nil
}

// newData builds an empty Data entry carrying the query's routing hints.
func (q Query) newData(capacity int) *excelfile.Data {
	d := &excelfile.Data{Items: make([]*excelfile.Item, 0, capacity)}
	if q.Code != "" {
		code := q.Code
		d.Code = &code
	}
	if q.SheetName != "" {
		d.WithMeta(excelfile.SheetNameKey, q.SheetName)
	}
	if q.SheetNo != nil {
		d.WithMeta(excelfile.SheetNoKey, strconv.Itoa(*q.SheetNo))
	}
	return d
}

// Source turns query results into record batches.
type Source struct {
	db DB
}

func New(db DB) *Source {
	return &Source{db: db}
}

// Stream runs q and calls fn with a DataGroup every batchSize rows, plus once
// for any remainder. An error from fn stops the stream and is returned as is.
func (s *Source) Stream(ctx context.Context, q Query, batchSize int, fn func(*excelfile.DataGroup) error) error {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	stmt, args, err := q.statement()
	if err != nil {
		return fmt.Errorf("building query: %w", err)
	}
	rows, err := s.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return fmt.Errorf("executing query: %w", err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return fmt.Errorf("getting columns: %w", err)
	}
	columnTypes, err := rows.ColumnTypes()
	if err != nil {
		return fmt.Errorf("getting column types: %w", err)
	}
	typeNames := make([]string, len(columnTypes))
	for i, ct := range columnTypes {
		typeNames[i] = ct.DatabaseTypeName()
	}

	data := q.newData(batchSize)
	for rows.Next() {
		values := make([]interface{}, len(columns))
		valuePtrs := make([]interface{}, len(columns))
		for i := range values {
			valuePtrs[i] = &values[i]
		}
		if err := rows.Scan(valuePtrs...); err != nil {
			return fmt.Errorf("scanning row: %w", err)
		}
		data.Items = append(data.Items, rowToItem(columns, typeNames, values))

		if len(data.Items) == batchSize {
			if err := fn(&excelfile.DataGroup{Data: []*excelfile.Data{data}}); err != nil {
				return err
			}
			data = q.newData(batchSize)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterating rows: %w", err)
	}
	if len(data.Items) > 0 {
		return fn(&excelfile.DataGroup{Data: []*excelfile.Data{data}})
	}
	return nil
}

// ColumnHeaders derives one all-sheets column per name, labelled by the name.
func ColumnHeaders(columns []string) []excelfile.ColumnHeader {
	headers := make([]excelfile.ColumnHeader, len(columns))
	for i, c := range columns {
		headers[i] = excelfile.ColumnHeader{FieldName: c, HeaderName: c, GroupIndex: excelfile.AllGroups}
	}
	return headers
}

func rowToItem(columns, typeNames []string, values []interface{}) *excelfile.Item {
	item := &excelfile.Item{Values: make(map[string]excelfile.Value, len(columns))}
	for i, col := range columns {
		var typeName string
		if i < len(typeNames) {
			typeName = typeNames[i]
		}
		item.Values[col] = convertValue(values[i], typeName)
	}
	return item
}

// convertValue maps a scanned driver value to a record value. JSON object
// columns become nested mappings so dynamic columns can address their keys.
func convertValue(value interface{}, typeName string) excelfile.Value {
	switch v := value.(type) {
	case nil:
		return excelfile.Null()
	case []byte:
		if isJSONType(typeName) {
			if m, ok := decodeJSONObject(v); ok {
				return m
			}
		}
		return excelfile.Scalar(string(v))
	case string:
		if isJSONType(typeName) {
			if m, ok := decodeJSONObject([]byte(v)); ok {
				return m
			}
		}
		return excelfile.Scalar(v)
	default:
		return excelfile.Scalar(v)
	}
}

func isJSONType(typeName string) bool {
	switch strings.ToUpper(typeName) {
	case "JSON", "JSONB":
		return true
	}
	return false
}

func decodeJSONObject(b []byte) (excelfile.Value, bool) {
	trimmed := bytes.TrimSpace(b)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return excelfile.Value{}, false
	}
	var v excelfile.Value
	if err := json.Unmarshal(trimmed, &v); err != nil {
		return excelfile.Value{}, false
	}
	return v, true
}
