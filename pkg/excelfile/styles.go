package excelfile

import (
	"strings"

	"github.com/xuri/excelize/v2"
)

// CellStyle describes how a cell is rendered. It is comparable, so equal
// styles share one workbook style ID.
type CellStyle struct {
	FontName   string
	FontSize   float64
	FontBold   bool
	FontItalic bool
	FontColor  string

	FillColor   string
	FillPattern int

	Alignment     string // "left", "center", "right"
	VerticalAlign string // "top", "center", "bottom"

	BorderColor string
	Border      bool

	NumberFormat string
	WrapText     bool
}

// DefaultHeaderStyle returns the header style used by the "style" provider.
func DefaultHeaderStyle() *CellStyle {
	return NewStyleBuilder().
		Font("Arial", 11).
		Bold().
		FontColor("#FFFFFF").
		Fill("#4472C4").
		Align("center").
		VAlign("center").
		Build()
}

// StyleBuilder provides a fluent API for building cell styles.
type StyleBuilder struct {
	style CellStyle
}

// NewStyleBuilder creates a builder with Arial 10 left-aligned defaults.
func NewStyleBuilder() *StyleBuilder {
	return &StyleBuilder{
		style: CellStyle{
			FontName:      "Arial",
			FontSize:      10,
			Alignment:     "left",
			VerticalAlign: "center",
		},
	}
}

func (b *StyleBuilder) Font(name string, size float64) *StyleBuilder {
	b.style.FontName = name
	b.style.FontSize = size
	return b
}

func (b *StyleBuilder) Bold() *StyleBuilder {
	b.style.FontBold = true
	return b
}

func (b *StyleBuilder) Italic() *StyleBuilder {
	b.style.FontItalic = true
	return b
}

// FontColor sets the font color (hex, with or without '#').
func (b *StyleBuilder) FontColor(color string) *StyleBuilder {
	b.style.FontColor = color
	return b
}

// Fill sets a solid background color.
func (b *StyleBuilder) Fill(color string) *StyleBuilder {
	b.style.FillColor = color
	b.style.FillPattern = 1
	return b
}

func (b *StyleBuilder) Align(alignment string) *StyleBuilder {
	b.style.Alignment = alignment
	return b
}

func (b *StyleBuilder) VAlign(alignment string) *StyleBuilder {
	b.style.VerticalAlign = alignment
	return b
}

// Border draws a thin border of the given color on all four sides.
func (b *StyleBuilder) Border(color string) *StyleBuilder {
	b.style.Border = true
	b.style.BorderColor = color
	return b
}

func (b *StyleBuilder) NumberFormat(format string) *StyleBuilder {
	b.style.NumberFormat = format
	return b
}

func (b *StyleBuilder) WrapText() *StyleBuilder {
	b.style.WrapText = true
	return b
}

// Build returns a copy of the built style.
func (b *StyleBuilder) Build() *CellStyle {
	s := b.style
	return &s
}

// toExcelize converts the style into an excelize style definition.
func (s *CellStyle) toExcelize() *excelize.Style {
	style := &excelize.Style{
		Font: &excelize.Font{
			Bold:   s.FontBold,
			Italic: s.FontItalic,
			Size:   s.FontSize,
			Family: s.FontName,
		},
		Alignment: &excelize.Alignment{
			Horizontal: s.Alignment,
			Vertical:   s.VerticalAlign,
			WrapText:   s.WrapText,
		},
	}
	if s.FontColor != "" {
		style.Font.Color = strings.TrimPrefix(s.FontColor, "#")
	}
	if s.FillColor != "" {
		pattern := s.FillPattern
		if pattern == 0 {
			pattern = 1
		}
		style.Fill = excelize.Fill{
			Type:    "pattern",
			Pattern: pattern,
			Color:   []string{strings.TrimPrefix(s.FillColor, "#")},
		}
	}
	if s.Border {
		color := "000000"
		if s.BorderColor != "" {
			color = strings.TrimPrefix(s.BorderColor, "#")
		}
		style.Border = []excelize.Border{
			{Type: "left", Color: color, Style: 1},
			{Type: "top", Color: color, Style: 1},
			{Type: "bottom", Color: color, Style: 1},
			{Type: "right", Color: color, Style: 1},
		}
	}
	if s.NumberFormat != "" {
		format := s.NumberFormat
		style.CustomNumFmt = &format
	}
	return style
}
