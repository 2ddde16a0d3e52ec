package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/locvowork/sheetexport/pkg/excelfile"
	"github.com/locvowork/sheetexport/pkg/pgsource"
)

// HandlerProviderKey names the provider list inside spi_configs.
const HandlerProviderKey = "ExcelWriteHandlerProvider"

// ExportConfig holds the file-level defaults applied to every export.
type ExportConfig struct {
	DefaultSheetName string                     `yaml:"default_sheet_name"`
	Format           string                     `yaml:"format"`
	BatchSize        int                        `yaml:"batch_size"`
	Options          map[string]string          `yaml:"options"`
	SPIConfigs       map[string]ExtensionConfig `yaml:"spi_configs"`
	// Queries are the statements export requests may run, by name.
	Queries map[string]pgsource.Query `yaml:"queries"`
}

// ExtensionConfig lists the registered extension names to load, in order.
type ExtensionConfig struct {
	ExtensionNames []string `yaml:"extension_names"`
}

// DefaultExportConfig loads both builtin providers and writes xlsx.
func DefaultExportConfig() *ExportConfig {
	return &ExportConfig{
		DefaultSheetName: excelfile.DefaultSheetName,
		Format:           string(excelfile.FormatXLSX),
		BatchSize:        500,
		SPIConfigs: map[string]ExtensionConfig{
			HandlerProviderKey: {ExtensionNames: []string{excelfile.StyleProviderName, excelfile.LayoutProviderName}},
		},
	}
}

// LoadExportConfig reads path as YAML. An empty path yields the defaults.
// Fields absent from the file keep their default values.
func LoadExportConfig(path string) (*ExportConfig, error) {
	cfg := DefaultExportConfig()
	if path == "" {
		return cfg, nil
	}

	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading export config: %w", err)
	}
	if err := yaml.Unmarshal(b, cfg); err != nil {
		return nil, fmt.Errorf("parsing export config %s: %w", path, err)
	}
	if _, err := excelfile.ParseFormat(cfg.Format); err != nil {
		return nil, fmt.Errorf("export config %s: %w", path, err)
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 500
	}
	return cfg, nil
}

// ProviderNames returns the configured handler provider names.
func (c *ExportConfig) ProviderNames() []string {
	if c == nil {
		return nil
	}
	return c.SPIConfigs[HandlerProviderKey].ExtensionNames
}

// Query returns the named query.
func (c *ExportConfig) Query(name string) (pgsource.Query, bool) {
	if c == nil {
		return pgsource.Query{}, false
	}
	q, ok := c.Queries[name]
	return q, ok
}
