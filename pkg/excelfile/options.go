package excelfile

import "github.com/rs/zerolog"

// Option configures a FileWriter.
type Option func(*writerConfig)

type writerConfig struct {
	sink          Sink
	registry      *Registry
	providerNames []string
	defaultName   string
	logger        zerolog.Logger
}

func defaultWriterConfig() *writerConfig {
	return &writerConfig{
		defaultName: DefaultSheetName,
		logger:      zerolog.Nop(),
	}
}

// WithSink sets the document sink. The default is a new XLSXSink.
func WithSink(s Sink) Option {
	return func(c *writerConfig) {
		c.sink = s
	}
}

// WithRegistry sets the registry provider names are resolved against.
// The default is NewBuiltinRegistry().
func WithRegistry(r *Registry) Option {
	return func(c *writerConfig) {
		c.registry = r
	}
}

// WithProviders sets the ordered handler provider names.
func WithProviders(names ...string) Option {
	return func(c *writerConfig) {
		c.providerNames = append([]string(nil), names...)
	}
}

// WithDefaultSheetName overrides DefaultSheetName.
func WithDefaultSheetName(name string) Option {
	return func(c *writerConfig) {
		if name != "" {
			c.defaultName = name
		}
	}
}

// WithLogger sets the logger used for sheet lifecycle events.
func WithLogger(l zerolog.Logger) Option {
	return func(c *writerConfig) {
		c.logger = l
	}
}
