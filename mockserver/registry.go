package mockserver

import (
	"sort"
	"strings"
	"sync"

	"github.com/ouroborosapi/ouroboros/document"
)

// Registry is the in-memory mock endpoint index. It supports concurrent
// lookups during serving and is atomically swapped on reload: a failed load
// keeps the previous entries, since stale-but-valid beats empty.
type Registry struct {
	mu       sync.RWMutex
	entries  map[string]*EndpointMeta
	matchers []*registeredMatcher
	log      document.Logger
}

// registeredMatcher pairs a compiled path matcher with the endpoints under
// its template, keyed by method.
type registeredMatcher struct {
	matcher *pathMatcher
	byMeth  map[string]*EndpointMeta
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithRegistryLogger sets the logger used by the registry. Defaults to NopLogger.
func WithRegistryLogger(log document.Logger) RegistryOption {
	return func(r *Registry) {
		if log != nil {
			r.log = log
		}
	}
}

// NewRegistry creates an empty registry.
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{
		entries: make(map[string]*EndpointMeta),
		log:     document.NopLogger{},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Len returns the number of registered endpoints.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// Endpoints returns all registered endpoints sorted by key, for listings.
func (r *Registry) Endpoints() []*EndpointMeta {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*EndpointMeta, 0, len(r.entries))
	for _, meta := range r.entries {
		out = append(out, meta)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key() < out[j].Key() })
	return out
}

// Find looks up the endpoint for a request path and method. Exact path keys
// are tried first; templated paths are matched by specificity, so "/users/me"
// wins over "/users/{id}".
func (r *Registry) Find(path, method string) (*EndpointMeta, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if meta, ok := r.entries[endpointKey(method, path)]; ok {
		return meta, true
	}
	for _, rm := range r.matchers {
		if !rm.matcher.matches(path) {
			continue
		}
		if meta, ok := rm.byMeth[strings.ToUpper(method)]; ok {
			return meta, true
		}
	}
	return nil, false
}

// Replace swaps the full endpoint set in one step. This is the reload
// primitive: the caller builds the new set from the current file, then
// replaces everything at once.
func (r *Registry) Replace(metas []*EndpointMeta) {
	entries := make(map[string]*EndpointMeta, len(metas))
	byTemplate := make(map[string]*registeredMatcher)
	var matchers []*registeredMatcher

	for _, meta := range metas {
		entries[meta.Key()] = meta
		rm, ok := byTemplate[meta.Path]
		if !ok {
			pm, err := newPathMatcher(meta.Path)
			if err != nil {
				r.log.Warn("skipped endpoint with malformed path template",
					"path", meta.Path, "error", err)
				continue
			}
			rm = &registeredMatcher{matcher: pm, byMeth: make(map[string]*EndpointMeta)}
			byTemplate[meta.Path] = rm
			matchers = append(matchers, rm)
		}
		rm.byMeth[meta.Method] = meta
	}
	sort.SliceStable(matchers, func(i, j int) bool {
		return matchers[i].matcher.specificity > matchers[j].matcher.specificity
	})

	r.mu.Lock()
	r.entries = entries
	r.matchers = matchers
	r.mu.Unlock()
	r.log.Info("mock registry reloaded", "endpoints", len(entries))
}

// Clear removes all endpoints.
func (r *Registry) Clear() {
	r.Replace(nil)
}

// Reload rebuilds the registry from the loader's current file. On a load
// failure the previous entries are kept and the error is returned; registry
// staleness is recoverable by the next reload.
func (r *Registry) Reload(loader *Loader) error {
	metas, err := loader.Load()
	if err != nil {
		r.log.Error("mock registry reload failed, keeping previous entries", "error", err)
		return err
	}
	r.Replace(metas)
	return nil
}
