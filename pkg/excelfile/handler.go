package excelfile

import (
	"sort"
	"sync"
)

// WriteHandler is an opaque decorator attached to every sheet at creation.
// Sinks type-assert for the hooks they understand (see SheetHandler and
// CellHandler) and ignore the rest.
type WriteHandler interface {
	HandlerName() string
}

// HandlerProvider produces the write handlers for one export.
type HandlerProvider interface {
	Provide(exportCtx ExportContext, headers *ColumnHeaders, fileCtx FileContext) ([]WriteHandler, error)
}

// ProviderFunc adapts a function to HandlerProvider.
type ProviderFunc func(exportCtx ExportContext, headers *ColumnHeaders, fileCtx FileContext) ([]WriteHandler, error)

func (f ProviderFunc) Provide(exportCtx ExportContext, headers *ColumnHeaders, fileCtx FileContext) ([]WriteHandler, error) {
	return f(exportCtx, headers, fileCtx)
}

// Registry maps provider names to providers. It is safe for concurrent use,
// but is normally populated once at startup.
type Registry struct {
	mu        sync.RWMutex
	providers map[string]HandlerProvider
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{providers: make(map[string]HandlerProvider)}
}

// NewBuiltinRegistry returns a registry holding the "style", "layout" and
// "protection" providers.
func NewBuiltinRegistry() *Registry {
	return NewRegistry().
		Register(StyleProviderName, ProviderFunc(provideStyleHandlers)).
		Register(LayoutProviderName, ProviderFunc(provideLayoutHandlers)).
		Register(ProtectionProviderName, ProviderFunc(provideProtectionHandlers))
}

// Register binds name to p, replacing any previous binding.
func (r *Registry) Register(name string, p HandlerProvider) *Registry {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[name] = p
	return r
}

// Resolve looks up a provider by name.
func (r *Registry) Resolve(name string) (HandlerProvider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.providers[name]
	if !ok {
		return nil, &ExtensionResolutionError{Name: name}
	}
	return p, nil
}

// Names returns the registered provider names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// loadHandlers resolves every name up front, then concatenates the handlers
// each provider returns, in configuration order.
func loadHandlers(r *Registry, names []string, exportCtx ExportContext, headers *ColumnHeaders, fileCtx FileContext) ([]WriteHandler, error) {
	providers := make([]HandlerProvider, 0, len(names))
	for _, name := range names {
		p, err := r.Resolve(name)
		if err != nil {
			return nil, err
		}
		providers = append(providers, p)
	}

	var handlers []WriteHandler
	for i, p := range providers {
		hs, err := p.Provide(exportCtx, headers, fileCtx)
		if err != nil {
			return nil, &providerError{name: names[i], err: err}
		}
		handlers = append(handlers, hs...)
	}
	return handlers, nil
}

type providerError struct {
	name string
	err  error
}

func (e *providerError) Error() string {
	return "write handler provider " + e.name + ": " + e.err.Error()
}

func (e *providerError) Unwrap() error {
	return e.err
}
