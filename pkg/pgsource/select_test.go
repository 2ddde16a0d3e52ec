package pgsource

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelectBuild(t *testing.T) {
	tests := []struct {
		name     string
		sel      Select
		wantSQL  string
		wantArgs []interface{}
	}{
		{
			name:    "all columns",
			sel:     Select{Table: "items"},
			wantSQL: `SELECT * FROM "items"`,
		},
		{
			name:     "single condition",
			sel:      Select{Table: "items", Where: []Condition{{SQL: "qty > ?", Args: []interface{}{5}}}},
			wantSQL:  `SELECT * FROM "items" WHERE qty > $1`,
			wantArgs: []interface{}{5},
		},
		{
			name: "conditions renumbered across clauses",
			sel: Select{
				Table:   "employees.employee",
				Columns: []string{"id", "first_name"},
				Where: []Condition{
					{SQL: "hire_date > ?", Args: []interface{}{"1999-12-01"}},
					{SQL: "gender = ? OR gender = ?", Args: []interface{}{"M", "F"}},
				},
				OrderBy: []Order{{Column: "id", Desc: true}, {Column: "first_name"}},
				Limit:   10,
				Offset:  20,
			},
			wantSQL:  `SELECT "id", "first_name" FROM "employees"."employee" WHERE (hire_date > $1) AND (gender = $2 OR gender = $3) ORDER BY "id" DESC, "first_name" LIMIT 10 OFFSET 20`,
			wantArgs: []interface{}{"1999-12-01", "M", "F"},
		},
		{
			name:    "order by any column when selecting all",
			sel:     Select{Table: "items", OrderBy: []Order{{Column: "created_at"}}},
			wantSQL: `SELECT * FROM "items" ORDER BY "created_at"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sql, args, err := tt.sel.Build()
			require.NoError(t, err)
			assert.Equal(t, tt.wantSQL, sql)
			assert.Equal(t, tt.wantArgs, args)
		})
	}
}

func TestSelectBuild_QuotesIdentifiers(t *testing.T) {
	sel := Select{
		Table:   `items; DROP TABLE items; --`,
		Columns: []string{`name" FROM secrets --`},
	}
	sql, _, err := sel.Build()
	require.NoError(t, err)
	assert.Equal(t, `SELECT "name"" FROM secrets --" FROM "items; DROP TABLE items; --"`, sql)

	sel = Select{Table: "items", OrderBy: []Order{{Column: `id; DELETE FROM items`}}}
	sql, _, err = sel.Build()
	require.NoError(t, err)
	assert.Equal(t, `SELECT * FROM "items" ORDER BY "id; DELETE FROM items"`, sql)
}

func TestSelectBuild_Errors(t *testing.T) {
	_, _, err := (&Select{}).Build()
	assert.ErrorIs(t, err, errNoTable)

	_, _, err = (&Select{Table: "t", Where: []Condition{{SQL: "a = ? AND b = ?", Args: []interface{}{1}}}}).Build()
	assert.ErrorContains(t, err, "placeholder count (2) does not match argument count (1)")

	_, _, err = (&Select{Table: "t", Columns: []string{"id"}, OrderBy: []Order{{Column: "salary"}}}).Build()
	assert.ErrorIs(t, err, errOrderColumn)

	_, _, err = (&Select{Table: "public..t"}).Build()
	assert.ErrorIs(t, err, errEmptyIdent)

	_, _, err = (&Select{Table: "t", Columns: []string{""}}).Build()
	assert.ErrorIs(t, err, errEmptyIdent)
}
