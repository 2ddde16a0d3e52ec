package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/locvowork/sheetexport/internal/config"
	"github.com/locvowork/sheetexport/internal/metrics"
	"github.com/locvowork/sheetexport/pkg/excelfile"
	"github.com/locvowork/sheetexport/pkg/pgsource"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

const requestJSON = `{
	"fileName": "orders",
	"headers": [
		{"fieldName": "name", "headerName": "Name"},
		{"fieldName": "amount", "headerName": "Amount", "groupIndex": 0},
		{"fieldName": "extra", "headerName": "Score", "dynamicColumn": true, "dynamicColumnKey": "score"}
	],
	"groups": [
		{"data": [
			{"code": "Orders", "items": [
				{"values": {"name": "A", "amount": 10, "extra": {"score": 4}}},
				{"values": {"name": "B", "amount": 2.5}}
			]},
			{"code": "Refunds", "items": [
				{"values": {"name": "C", "amount": 99, "extra": {"score": 1}}}
			]}
		]},
		{"data": [
			{"code": "Orders", "items": [{"values": {"name": "D"}}]}
		]}
	]
}`

func decodeRequest(t *testing.T, body string) *ExportRequest {
	t.Helper()
	var req ExportRequest
	require.NoError(t, json.Unmarshal([]byte(body), &req))
	return &req
}

func TestExportService_XLSX(t *testing.T) {
	svc := NewExportService(nil, nil, nil)

	res, err := svc.Export(context.Background(), decodeRequest(t, requestJSON))
	require.NoError(t, err)
	assert.Equal(t, "orders.xlsx", res.FileName)
	assert.Equal(t, excelfile.FormatXLSX, res.Format)
	assert.Equal(t, []string{"Orders", "Refunds"}, res.Sheets)

	f, err := excelize.OpenReader(bytes.NewReader(res.Body))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"Orders", "Refunds"}, f.GetSheetList())

	orders, err := f.GetRows("Orders")
	require.NoError(t, err)
	require.Len(t, orders, 4)
	assert.Equal(t, []string{"Name", "Amount", "Score"}, orders[0])
	assert.Equal(t, []string{"A", "10", "4"}, orders[1])
	assert.Equal(t, []string{"B", "2.5"}, orders[2])
	assert.Equal(t, []string{"D"}, orders[3])

	refunds, err := f.GetRows("Refunds")
	require.NoError(t, err)
	require.Len(t, refunds, 2)
	assert.Equal(t, []string{"Name", "Score"}, refunds[0])
	assert.Equal(t, []string{"C", "1"}, refunds[1])
}

func TestExportService_CSVFromConfig(t *testing.T) {
	cfg := config.DefaultExportConfig()
	cfg.Format = "csv"
	svc := NewExportService(cfg, nil, nil)

	req := &ExportRequest{
		Headers: []excelfile.ColumnHeader{{FieldName: "name", HeaderName: "Name", GroupIndex: excelfile.AllGroups}},
		Groups: []*excelfile.DataGroup{{Data: []*excelfile.Data{
			excelfile.NewData("people", excelfile.NewItem(map[string]interface{}{"name": "Ann"})),
		}}},
	}

	res, err := svc.Export(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "export.csv", res.FileName)
	assert.Equal(t, "text/csv", res.ContentType())
	assert.Equal(t, "Name\nAnn\n", string(res.Body))
}

func TestExportService_RequestFormatWins(t *testing.T) {
	cfg := config.DefaultExportConfig()
	cfg.Format = "csv"
	svc := NewExportService(cfg, nil, nil)

	req := decodeRequest(t, requestJSON)
	req.Format = "xlsx"

	res, err := svc.Export(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, excelfile.FormatXLSX, res.Format)
}

func queryConfig() *config.ExportConfig {
	cfg := config.DefaultExportConfig()
	cfg.Queries = map[string]pgsource.Query{
		"items": {Select: &pgsource.Select{Table: "items", Columns: []string{"id", "name"}}, SheetName: "Items"},
		"since": {SQL: "SELECT id FROM orders WHERE created_at > $1", Args: []interface{}{"2020-01-01"}, Code: "Orders"},
	}
	return cfg
}

func TestExportService_Errors(t *testing.T) {
	svc := NewExportService(queryConfig(), nil, nil)
	ctx := context.Background()

	t.Run("nil request", func(t *testing.T) {
		_, err := svc.Export(ctx, nil)
		assert.ErrorIs(t, err, ErrInvalidRequest)
	})

	t.Run("unknown format", func(t *testing.T) {
		req := decodeRequest(t, requestJSON)
		req.Format = "pdf"
		_, err := svc.Export(ctx, req)
		assert.ErrorIs(t, err, ErrInvalidRequest)
	})

	t.Run("no headers", func(t *testing.T) {
		_, err := svc.Export(ctx, &ExportRequest{})
		assert.ErrorIs(t, err, ErrInvalidRequest)
	})

	t.Run("queries without database", func(t *testing.T) {
		req := decodeRequest(t, requestJSON)
		req.Queries = []QueryRef{{Name: "items"}}
		_, err := svc.Export(ctx, req)
		assert.ErrorIs(t, err, ErrQueriesUnavailable)
	})

	t.Run("unknown query name", func(t *testing.T) {
		req := decodeRequest(t, requestJSON)
		req.Queries = []QueryRef{{Name: "SELECT * FROM secrets"}}
		_, err := svc.Export(ctx, req)
		assert.ErrorIs(t, err, ErrInvalidRequest)
		assert.ErrorIs(t, err, ErrUnknownQuery)
	})

	t.Run("invalid sheet number", func(t *testing.T) {
		req := decodeRequest(t, requestJSON)
		req.Groups[0].Data[0].WithMeta(excelfile.SheetNoKey, "abc")
		_, err := svc.Export(ctx, req)

		var fe *excelfile.FormatError
		require.True(t, errors.As(err, &fe))
		assert.Equal(t, "abc", fe.Value)
	})

	t.Run("dynamic column over scalar", func(t *testing.T) {
		req := decodeRequest(t, requestJSON)
		req.Groups[0].Data[0].Items[0].Values["extra"] = excelfile.Scalar("flat")
		_, err := svc.Export(ctx, req)

		var tm *excelfile.TypeMismatchError
		require.True(t, errors.As(err, &tm))
		assert.Equal(t, "extra", tm.FieldName)
	})

	t.Run("unknown provider", func(t *testing.T) {
		cfg := config.DefaultExportConfig()
		cfg.SPIConfigs[config.HandlerProviderKey] = config.ExtensionConfig{ExtensionNames: []string{"style", "watermark"}}
		_, err := NewExportService(cfg, nil, nil).Export(ctx, decodeRequest(t, requestJSON))

		var re *excelfile.ExtensionResolutionError
		require.True(t, errors.As(err, &re))
		assert.Equal(t, "watermark", re.Name)
	})
}

func TestExportService_ResolveQuery(t *testing.T) {
	svc := NewExportService(queryConfig(), nil, nil)

	q, err := svc.resolveQuery(QueryRef{Name: "items"})
	require.NoError(t, err)
	assert.Equal(t, "items", q.Select.Table)
	assert.Equal(t, "Items", q.SheetName)

	no := 3
	q, err = svc.resolveQuery(QueryRef{Name: "since", Args: []interface{}{"2024-06-01"}, Code: "Recent", SheetName: "Recent", SheetNo: &no})
	require.NoError(t, err)
	assert.Equal(t, "SELECT id FROM orders WHERE created_at > $1", q.SQL)
	assert.Equal(t, []interface{}{"2024-06-01"}, q.Args)
	assert.Equal(t, "Recent", q.Code)
	assert.Equal(t, "Recent", q.SheetName)
	assert.Equal(t, &no, q.SheetNo)

	// Request args never reach a select, whose statement is fixed.
	_, err = svc.resolveQuery(QueryRef{Name: "items", Args: []interface{}{1}})
	assert.ErrorIs(t, err, ErrInvalidRequest)

	// The configured query is not modified by overrides.
	q, err = svc.resolveQuery(QueryRef{Name: "since"})
	require.NoError(t, err)
	assert.Equal(t, []interface{}{"2020-01-01"}, q.Args)
	assert.Equal(t, "Orders", q.Code)
}

func TestExportService_RequestCannotCarrySQL(t *testing.T) {
	req := decodeRequest(t, `{"headers": [{"fieldName": "id"}], "queries": [{"name": "items", "sql": "DROP TABLE items", "select": {"table": "secrets"}}]}`)
	require.Len(t, req.Queries, 1)
	assert.Equal(t, QueryRef{Name: "items"}, req.Queries[0])
}

func TestExportService_Validate(t *testing.T) {
	assert.NoError(t, NewExportService(queryConfig(), nil, nil).Validate())

	cfg := config.DefaultExportConfig()
	cfg.SPIConfigs[config.HandlerProviderKey] = config.ExtensionConfig{ExtensionNames: []string{"style", "watermark"}}
	err := NewExportService(cfg, nil, nil).Validate()
	var re *excelfile.ExtensionResolutionError
	require.True(t, errors.As(err, &re))
	assert.Equal(t, "watermark", re.Name)

	cfg = queryConfig()
	cfg.Queries["broken"] = pgsource.Query{Select: &pgsource.Select{Table: "items", Columns: []string{"id"}, OrderBy: []pgsource.Order{{Column: "salary"}}}}
	err = NewExportService(cfg, nil, nil).Validate()
	assert.ErrorContains(t, err, `query "broken"`)
}

func TestExportService_OptionsMerge(t *testing.T) {
	cfg := config.DefaultExportConfig()
	cfg.Options = map[string]string{"header_fill": "#111111", "header_font_color": "#FFFFFF"}
	svc := NewExportService(cfg, nil, nil)

	got := svc.options(&ExportRequest{Options: map[string]string{"header_fill": "#222222"}})
	assert.Equal(t, map[string]string{"header_fill": "#222222", "header_font_color": "#FFFFFF"}, got)
}

func TestExportService_RecordsMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	svc := NewExportService(nil, nil, metrics.New(reg))
	ctx := context.Background()

	_, err := svc.Export(ctx, decodeRequest(t, requestJSON))
	require.NoError(t, err)
	_, err = svc.Export(ctx, &ExportRequest{Format: "csv"})
	require.Error(t, err)

	series, err := testutil.GatherAndCount(reg, "sheetexport_exports_total")
	require.NoError(t, err)
	assert.Equal(t, 2, series)

	expected := `
# HELP sheetexport_sheets_total Sheets written across all successful exports.
# TYPE sheetexport_sheets_total counter
sheetexport_sheets_total 2
`
	assert.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "sheetexport_sheets_total"))
}

func TestIsInvalid(t *testing.T) {
	assert.True(t, IsInvalid(ErrInvalidRequest))
	assert.True(t, IsInvalid(&excelfile.FormatError{Key: "sheetNo", Value: "x"}))
	assert.True(t, IsInvalid(&excelfile.TypeMismatchError{FieldName: "f"}))
	assert.False(t, IsInvalid(ErrQueriesUnavailable))
	assert.False(t, IsInvalid(&excelfile.ExtensionResolutionError{Name: "x"}))
}
