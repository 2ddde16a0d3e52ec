package excelfile

import (
	"fmt"
	"io"

	"github.com/rs/zerolog"
)

// State is a FileWriter lifecycle state.
type State int

const (
	StateInitialized State = iota
	StateWriting
	StateFinished
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateInitialized:
		return "initialized"
	case StateWriting:
		return "writing"
	case StateFinished:
		return "finished"
	case StateClosed:
		return "closed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// FileWriter routes record batches to sheets, projects them into rows and
// hands the rows to a Sink.
//
// A FileWriter is not safe for concurrent use; callers serialize Write calls.
type FileWriter struct {
	headers  *ColumnHeaders
	fileCtx  FileContext
	handlers []WriteHandler
	router   *sheetRouter
	sink     Sink
	state    State
	log      zerolog.Logger
}

// NewFileWriter resolves the configured handler providers, collects their
// handlers and opens the sink. An unknown provider name fails with an
// *ExtensionResolutionError before any sink is opened.
func NewFileWriter(exportCtx ExportContext, headers *ColumnHeaders, fileCtx FileContext, opts ...Option) (*FileWriter, error) {
	cfg := defaultWriterConfig()
	for _, o := range opts {
		o(cfg)
	}
	if headers == nil {
		headers = NewColumnHeaders(nil)
	}
	registry := cfg.registry
	if registry == nil {
		registry = NewBuiltinRegistry()
	}

	handlers, err := loadHandlers(registry, cfg.providerNames, exportCtx, headers, fileCtx)
	if err != nil {
		return nil, err
	}

	sink := cfg.sink
	if sink == nil {
		sink = NewXLSXSink()
	}

	w := &FileWriter{
		headers:  headers,
		fileCtx:  fileCtx,
		handlers: handlers,
		router:   newSheetRouter(headers, handlers, cfg.defaultName),
		sink:     sink,
		state:    StateInitialized,
		log:      cfg.logger.With().Str("file", fileCtx.FileName).Logger(),
	}
	w.log.Debug().Int("handlers", len(handlers)).Msg("file writer initialized")
	return w, nil
}

// Write routes each Data entry of group to its sheet and appends its rows.
// The first failing entry aborts the call; entries before it stay written.
func (w *FileWriter) Write(group *DataGroup) error {
	if err := w.checkWritable(); err != nil {
		return err
	}
	w.state = StateWriting
	if group == nil {
		return nil
	}

	for _, d := range group.Data {
		if d == nil {
			continue
		}
		rt, err := w.router.resolve(d)
		if err != nil {
			return err
		}
		sheet := rt.sheet
		if rt.created {
			if err := w.sink.AddSheet(sheet); err != nil {
				return fmt.Errorf("adding sheet %d %q: %w", sheet.No, sheet.Name, err)
			}
			w.log.Debug().Int("sheet_no", sheet.No).Str("sheet_name", sheet.Name).Int("columns", len(sheet.Headers)).Msg("sheet added")
		}
		w.router.commit(rt)

		rows, err := projectData(d, sheet.Columns)
		if err != nil {
			return err
		}
		if err := w.sink.AppendRows(sheet.No, rows); err != nil {
			return fmt.Errorf("appending rows to sheet %d: %w", sheet.No, err)
		}
	}
	return nil
}

// Finish finalizes the document and returns it. It may succeed only once.
func (w *FileWriter) Finish() (io.Reader, error) {
	if err := w.checkWritable(); err != nil {
		return nil, err
	}
	w.state = StateFinished
	r, err := w.sink.Finish()
	if err != nil {
		return nil, fmt.Errorf("finishing document: %w", err)
	}
	w.log.Debug().Int("sheets", len(w.router.order)).Msg("document finished")
	return r, nil
}

// Close releases the sink. It is idempotent, safe in any state, and never
// fails; sink errors are logged.
func (w *FileWriter) Close() {
	if w == nil || w.state == StateClosed {
		return
	}
	w.state = StateClosed
	if w.sink == nil {
		return
	}
	if err := w.sink.Close(); err != nil {
		w.log.Warn().Err(err).Msg("closing sink")
	}
}

// Sheets returns the sheets created so far, in creation order.
func (w *FileWriter) Sheets() []*Sheet {
	out := make([]*Sheet, len(w.router.order))
	copy(out, w.router.order)
	return out
}

// Handlers returns the write handlers attached to every sheet.
func (w *FileWriter) Handlers() []WriteHandler {
	out := make([]WriteHandler, len(w.handlers))
	copy(out, w.handlers)
	return out
}

func (w *FileWriter) State() State {
	return w.state
}

func (w *FileWriter) checkWritable() error {
	switch w.state {
	case StateFinished:
		return ErrWriterFinished
	case StateClosed:
		return ErrWriterClosed
	}
	return nil
}
