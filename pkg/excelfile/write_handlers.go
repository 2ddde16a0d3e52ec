package excelfile

import (
	"strconv"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"
)

// Built-in provider names.
const (
	StyleProviderName      = "style"
	LayoutProviderName     = "layout"
	ProtectionProviderName = "protection"
)

// Export options read by the built-in providers.
const (
	OptionHeaderFill      = "header_fill"
	OptionHeaderFontColor = "header_font_color"
	OptionProtectPassword = "protect_password"
	OptionProtectFilter   = "protect_allow_filter"
	OptionProtectSort     = "protect_allow_sort"
)

const (
	defaultMinColumnWidth = 10
	defaultMaxColumnWidth = 50
)

// SheetWriteContext is passed to SheetHandlers right after a worksheet is
// created and before its header row is written.
type SheetWriteContext struct {
	File      *excelize.File
	Stream    *excelize.StreamWriter
	Sheet     *Sheet
	SheetName string // workbook name, may differ from Sheet.Name when de-duplicated
}

// SheetHandler runs once per sheet before any row is written. Column widths
// and panes must be set here because stream writers reject them afterwards.
type SheetHandler interface {
	WriteHandler
	BeforeRows(ctx *SheetWriteContext) error
}

// CellWriteContext describes the cell being written.
type CellWriteContext struct {
	Sheet  *Sheet
	Row    int // 1-based workbook row
	Column int // 0-based header position
	Header bool
	Value  interface{}
}

// CellHandler chooses a style for a cell. A nil result leaves the cell
// unstyled; when several handlers answer, the last one wins.
type CellHandler interface {
	WriteHandler
	CellStyle(ctx *CellWriteContext) *CellStyle
}

// HeaderStyleHandler styles header cells.
type HeaderStyleHandler struct {
	Style *CellStyle
}

func (h *HeaderStyleHandler) HandlerName() string { return "header-style" }

func (h *HeaderStyleHandler) CellStyle(ctx *CellWriteContext) *CellStyle {
	if !ctx.Header {
		return nil
	}
	return h.Style
}

// ColumnWidthHandler sizes columns from ColumnHeader.Width, falling back to
// the header label length.
type ColumnWidthHandler struct {
	MinWidth float64
	MaxWidth float64
}

func (h *ColumnWidthHandler) HandlerName() string { return "column-width" }

func (h *ColumnWidthHandler) BeforeRows(ctx *SheetWriteContext) error {
	for i, col := range ctx.Sheet.Columns {
		if err := ctx.Stream.SetColWidth(i+1, i+1, h.width(col)); err != nil {
			return err
		}
	}
	return nil
}

func (h *ColumnWidthHandler) width(col ColumnHeader) float64 {
	if col.Width > 0 {
		return col.Width
	}
	w := float64(utf8.RuneCountInString(col.HeaderName) + 2)
	if w < h.MinWidth {
		w = h.MinWidth
	}
	if h.MaxWidth > 0 && w > h.MaxWidth {
		w = h.MaxWidth
	}
	return w
}

// FreezeHeaderHandler keeps the header row visible while scrolling.
type FreezeHeaderHandler struct{}

func (h *FreezeHeaderHandler) HandlerName() string { return "freeze-header" }

func (h *FreezeHeaderHandler) BeforeRows(ctx *SheetWriteContext) error {
	if len(ctx.Sheet.Headers) == 0 {
		return nil
	}
	return ctx.Stream.SetPanes(&excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})
}

// SheetProtectionHandler locks every sheet against edits.
type SheetProtectionHandler struct {
	Password    string
	AllowFilter bool
	AllowSort   bool
}

func (h *SheetProtectionHandler) HandlerName() string { return "sheet-protection" }

func (h *SheetProtectionHandler) BeforeRows(ctx *SheetWriteContext) error {
	return ctx.File.ProtectSheet(ctx.SheetName, &excelize.SheetProtectionOptions{
		Password:            h.Password,
		AutoFilter:          h.AllowFilter,
		Sort:                h.AllowSort,
		SelectLockedCells:   true,
		SelectUnlockedCells: true,
	})
}

func provideStyleHandlers(exportCtx ExportContext, _ *ColumnHeaders, _ FileContext) ([]WriteHandler, error) {
	style := DefaultHeaderStyle()
	style.FillColor = exportCtx.Option(OptionHeaderFill, style.FillColor)
	style.FontColor = exportCtx.Option(OptionHeaderFontColor, style.FontColor)
	return []WriteHandler{&HeaderStyleHandler{Style: style}}, nil
}

func provideLayoutHandlers(_ ExportContext, _ *ColumnHeaders, _ FileContext) ([]WriteHandler, error) {
	return []WriteHandler{
		&ColumnWidthHandler{MinWidth: defaultMinColumnWidth, MaxWidth: defaultMaxColumnWidth},
		&FreezeHeaderHandler{},
	}, nil
}

func provideProtectionHandlers(exportCtx ExportContext, _ *ColumnHeaders, _ FileContext) ([]WriteHandler, error) {
	h := &SheetProtectionHandler{Password: exportCtx.Option(OptionProtectPassword, "")}
	var err error
	if h.AllowFilter, err = boolOption(exportCtx, OptionProtectFilter); err != nil {
		return nil, err
	}
	if h.AllowSort, err = boolOption(exportCtx, OptionProtectSort); err != nil {
		return nil, err
	}
	return []WriteHandler{h}, nil
}

func boolOption(exportCtx ExportContext, key string) (bool, error) {
	raw := exportCtx.Option(key, "false")
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return false, &FormatError{Key: key, Value: raw, Err: err}
	}
	return b, nil
}
