package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/locvowork/sheetexport/internal/config"
	"github.com/locvowork/sheetexport/internal/logger"
	"github.com/locvowork/sheetexport/internal/metrics"
	"github.com/locvowork/sheetexport/pkg/excelfile"
	"github.com/locvowork/sheetexport/pkg/pgsource"
)

const defaultFileName = "export"

var (
	// ErrInvalidRequest is wrapped by every request validation failure.
	ErrInvalidRequest = errors.New("invalid export request")
	// ErrQueriesUnavailable is returned for SQL queries when no database is configured.
	ErrQueriesUnavailable = errors.New("sql queries require a database connection")
	// ErrUnknownQuery is returned for a query name absent from the export config.
	ErrUnknownQuery = errors.New("unknown query")
)

// ExportRequest describes one document to produce.
type ExportRequest struct {
	FileName string                   `json:"fileName"`
	Format   string                   `json:"format"`
	TaskID   string                   `json:"taskId,omitempty"`
	Options  map[string]string        `json:"options,omitempty"`
	Headers  []excelfile.ColumnHeader `json:"headers"`
	Groups   []*excelfile.DataGroup   `json:"groups"`
	Queries  []QueryRef               `json:"queries,omitempty"`
}

// QueryRef runs one configured query. Args, when given, replace the
// configured arguments of a sql query and are only ever bound as parameters.
// The routing fields override the configured ones when set.
type QueryRef struct {
	Name      string        `json:"name"`
	Args      []interface{} `json:"args,omitempty"`
	Code      string        `json:"code,omitempty"`
	SheetName string        `json:"sheetName,omitempty"`
	SheetNo   *int          `json:"sheetNo,omitempty"`
}

// ExportResult is a finished document.
type ExportResult struct {
	FileName string
	Format   excelfile.Format
	Body     []byte
	Sheets   []string
}

// ContentType returns the MIME type of the document.
func (r *ExportResult) ContentType() string {
	return r.Format.ContentType()
}

// ExportService turns export requests into documents.
type ExportService struct {
	cfg      *config.ExportConfig
	source   *pgsource.Source
	registry *excelfile.Registry
	metrics  *metrics.Recorder
}

// NewExportService creates an ExportService. source may be nil, in which case
// requests carrying queries are rejected; rec may be nil.
func NewExportService(cfg *config.ExportConfig, source *pgsource.Source, rec *metrics.Recorder) *ExportService {
	if cfg == nil {
		cfg = config.DefaultExportConfig()
	}
	return &ExportService{
		cfg:      cfg,
		source:   source,
		registry: excelfile.NewBuiltinRegistry(),
		metrics:  rec,
	}
}

// IsInvalid reports whether err was caused by the request content rather
// than by the service.
func IsInvalid(err error) bool {
	var (
		formatErr   *excelfile.FormatError
		mismatchErr *excelfile.TypeMismatchError
	)
	return errors.Is(err, ErrInvalidRequest) ||
		errors.As(err, &formatErr) ||
		errors.As(err, &mismatchErr)
}

// Registry exposes the handler registry so callers can add providers.
func (s *ExportService) Registry() *excelfile.Registry {
	return s.registry
}

// Validate checks the export config: every provider name must resolve and
// every named query must build.
func (s *ExportService) Validate() error {
	for _, name := range s.cfg.ProviderNames() {
		if _, err := s.registry.Resolve(name); err != nil {
			return err
		}
	}
	for name, q := range s.cfg.Queries {
		if err := q.Validate(); err != nil {
			return fmt.Errorf("query %q: %w", name, err)
		}
	}
	return nil
}

// resolveQuery looks ref up in the export config and applies its overrides.
func (s *ExportService) resolveQuery(ref QueryRef) (pgsource.Query, error) {
	q, ok := s.cfg.Query(ref.Name)
	if !ok {
		return pgsource.Query{}, fmt.Errorf("%w: %w %q", ErrInvalidRequest, ErrUnknownQuery, ref.Name)
	}
	if len(ref.Args) > 0 {
		if q.Select != nil {
			return pgsource.Query{}, fmt.Errorf("%w: query %q takes no arguments", ErrInvalidRequest, ref.Name)
		}
		q.Args = ref.Args
	}
	if ref.Code != "" {
		q.Code = ref.Code
	}
	if ref.SheetName != "" {
		q.SheetName = ref.SheetName
	}
	if ref.SheetNo != nil {
		q.SheetNo = ref.SheetNo
	}
	return q, nil
}

// Export writes the request's inline groups, then the batches of each query,
// and returns the finished document. The writer is always closed.
func (s *ExportService) Export(ctx context.Context, req *ExportRequest) (*ExportResult, error) {
	start := time.Now()
	res, err := s.export(ctx, req)

	status, label := metrics.StatusOK, "unknown"
	switch {
	case err == nil:
		label = string(res.Format)
		s.metrics.ObserveExport(label, status, time.Since(start), len(res.Sheets), len(res.Body))
		return res, nil
	case IsInvalid(err):
		status = metrics.StatusInvalid
	default:
		status = metrics.StatusError
	}
	if req != nil {
		if f, ferr := s.format(req); ferr == nil {
			label = string(f)
		}
	}
	s.metrics.ObserveExport(label, status, time.Since(start), 0, 0)
	return nil, err
}

func (s *ExportService) export(ctx context.Context, req *ExportRequest) (*ExportResult, error) {
	if req == nil {
		return nil, fmt.Errorf("%w: empty body", ErrInvalidRequest)
	}
	format, err := s.format(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	if len(req.Headers) == 0 {
		return nil, fmt.Errorf("%w: no column headers", ErrInvalidRequest)
	}
	queries := make([]pgsource.Query, len(req.Queries))
	for i, ref := range req.Queries {
		q, err := s.resolveQuery(ref)
		if err != nil {
			return nil, err
		}
		queries[i] = q
	}
	if len(queries) > 0 && s.source == nil {
		return nil, ErrQueriesUnavailable
	}

	fileName := req.FileName
	if fileName == "" {
		fileName = defaultFileName
	}
	ctx = logger.WithLogger(ctx, map[string]interface{}{
		"task_id":   req.TaskID,
		"file_name": fileName,
		"format":    string(format),
	})
	start := time.Now()

	exportCtx := excelfile.ExportContext{TaskID: req.TaskID, Options: s.options(req)}
	fileCtx := excelfile.FileContext{FileName: fileName, FileType: string(format)}
	w, err := excelfile.NewFileWriter(exportCtx, excelfile.NewColumnHeaders(req.Headers), fileCtx,
		excelfile.WithRegistry(s.registry),
		excelfile.WithProviders(s.cfg.ProviderNames()...),
		excelfile.WithDefaultSheetName(s.cfg.DefaultSheetName),
		excelfile.WithSink(format.NewSink()),
		excelfile.WithLogger(logger.Logger(ctx)),
	)
	if err != nil {
		return nil, fmt.Errorf("creating file writer: %w", err)
	}
	defer w.Close()

	for i, g := range req.Groups {
		if err := w.Write(g); err != nil {
			return nil, fmt.Errorf("writing group %d: %w", i, err)
		}
	}
	for i, q := range queries {
		if err := s.source.Stream(ctx, q, s.cfg.BatchSize, w.Write); err != nil {
			return nil, fmt.Errorf("running query %d %q: %w", i, req.Queries[i].Name, err)
		}
	}

	r, err := w.Finish()
	if err != nil {
		return nil, err
	}
	body, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading document: %w", err)
	}

	sheets := w.Sheets()
	names := make([]string, len(sheets))
	for i, sh := range sheets {
		names[i] = sh.Name
	}
	logger.InfoLog(ctx, "Export finished in %v: %d sheets, %d bytes", time.Since(start), len(names), len(body))

	return &ExportResult{
		FileName: fileName + "." + string(format),
		Format:   format,
		Body:     body,
		Sheets:   names,
	}, nil
}

func (s *ExportService) format(req *ExportRequest) (excelfile.Format, error) {
	if req.Format != "" {
		return excelfile.ParseFormat(req.Format)
	}
	return excelfile.ParseFormat(s.cfg.Format)
}

// options merges the configured export options with the request's; the
// request wins.
func (s *ExportService) options(req *ExportRequest) map[string]string {
	out := make(map[string]string, len(s.cfg.Options)+len(req.Options))
	for k, v := range s.cfg.Options {
		out[k] = v
	}
	for k, v := range req.Options {
		out[k] = v
	}
	return out
}
