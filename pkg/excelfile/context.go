package excelfile

// ExportContext carries export-wide information handed to handler providers.
type ExportContext struct {
	TaskID  string
	Options map[string]string
}

// Option returns an export option or fallback when it is unset.
func (c ExportContext) Option(key, fallback string) string {
	if v, ok := c.Options[key]; ok && v != "" {
		return v
	}
	return fallback
}

// FileContext describes the document being produced.
type FileContext struct {
	FileName string
	FileType string
}
