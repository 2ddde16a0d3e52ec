package pgsource

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"io"
	"sync"
)

// fakeDriver serves canned result sets keyed by query text.
type fakeDriver struct {
	mu      sync.Mutex
	results map[string]*fakeResult
}

type fakeResult struct {
	columns []string
	types   []string
	rows    [][]driver.Value
	err     error
}

var testDriver = &fakeDriver{results: map[string]*fakeResult{}}

func init() {
	sql.Register("pgsource-fake", testDriver)
}

func (d *fakeDriver) set(query string, r *fakeResult) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.results[query] = r
}

func (d *fakeDriver) Open(string) (driver.Conn, error) {
	return &fakeConn{d: d}, nil
}

type fakeConn struct {
	d *fakeDriver
}

func (c *fakeConn) Prepare(string) (driver.Stmt, error) { return nil, errors.New("not supported") }
func (c *fakeConn) Close() error                        { return nil }
func (c *fakeConn) Begin() (driver.Tx, error)           { return nil, errors.New("not supported") }

func (c *fakeConn) QueryContext(_ context.Context, query string, _ []driver.NamedValue) (driver.Rows, error) {
	c.d.mu.Lock()
	r, ok := c.d.results[query]
	c.d.mu.Unlock()
	if !ok {
		return nil, errors.New("unexpected query: " + query)
	}
	return &fakeRows{r: r}, nil
}

type fakeRows struct {
	r   *fakeResult
	pos int
}

func (r *fakeRows) Columns() []string { return r.r.columns }
func (r *fakeRows) Close() error      { return nil }

func (r *fakeRows) ColumnTypeDatabaseTypeName(i int) string { return r.r.types[i] }

func (r *fakeRows) Next(dest []driver.Value) error {
	if r.pos >= len(r.r.rows) {
		if r.r.err != nil {
			return r.r.err
		}
		return io.EOF
	}
	copy(dest, r.r.rows[r.pos])
	r.pos++
	return nil
}

func openFakeDB(t interface{ Cleanup(func()) }) *sql.DB {
	db, _ := sql.Open("pgsource-fake", "")
	t.Cleanup(func() { db.Close() })
	return db
}
