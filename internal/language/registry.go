package language

import (
	"path/filepath"
	"strings"
)

// Registry resolves a Backend by logical language id or file extension.
type Registry struct {
	byID  map[string]Backend
	byExt map[string]Backend
}

// NewRegistry builds the registry of every supported language backend.
func NewRegistry() *Registry {
	backends := []Backend{
		NewGoBackend(),
		NewJavaScriptBackend(),
		NewTypeScriptBackend(),
		NewTSXBackend(),
		NewPythonBackend(),
		NewRustBackend(),
		NewJavaBackend(),
		NewKotlinBackend(),
	}
	r := &Registry{byID: make(map[string]Backend), byExt: make(map[string]Backend)}
	for _, b := range backends {
		r.byID[b.ID()] = b
		for _, ext := range b.FileExtensions() {
			r.byExt[ext] = b
		}
	}
	return r
}

// ByID returns the backend for a logical language identifier (e.g.
// "go", "typescript"), or false if unsupported.
func (r *Registry) ByID(id string) (Backend, bool) {
	b, ok := r.byID[strings.ToLower(id)]
	return b, ok
}

// ByPath returns the backend for a file path's extension, or false if
// unsupported.
func (r *Registry) ByPath(path string) (Backend, bool) {
	ext := strings.ToLower(filepath.Ext(path))
	b, ok := r.byExt[ext]
	return b, ok
}

// Extensions returns every extension this registry recognizes.
func (r *Registry) Extensions() []string {
	exts := make([]string, 0, len(r.byExt))
	for ext := range r.byExt {
		exts = append(exts, ext)
	}
	return exts
}
