// Package service provides the CRUD services that orchestrate the document
// store, enrichment and the mock registry under a per-document read-write
// lock.
//
// All services sharing one specification document share one [Coordinator]
// and therefore one lock: concurrent readers are allowed, a writer excludes
// everyone. Every mutation reads the document fresh from disk (never from a
// cache) so external edits and process restarts cannot cause lost updates,
// applies the change, enriches, writes the document back atomically, and
// reloads the mock registry from the now-current file.
package service

import (
	"errors"
	"io/fs"
	"sync"

	"github.com/ouroborosapi/ouroboros/document"
	"github.com/ouroborosapi/ouroboros/enricher"
	"github.com/ouroborosapi/ouroboros/mockserver"
)

// SpecKind selects the enrichment variant for a coordinated document.
type SpecKind int

const (
	// KindREST coordinates an OpenAPI document.
	KindREST SpecKind = iota
	// KindWebSocket coordinates an AsyncAPI document.
	KindWebSocket
)

// Coordinator owns one specification document: its store, its process-wide
// read-write lock, the enricher that keeps it valid, and the derived mock
// registry rebuilt after every mutation.
type Coordinator struct {
	mu     sync.RWMutex
	kind   SpecKind
	store  *document.Store
	enrich *enricher.Enricher
	reg    *mockserver.Registry
	loader *mockserver.Loader
	log    document.Logger
}

// CoordinatorOption configures a Coordinator.
type CoordinatorOption func(*Coordinator)

// WithLogger sets the logger shared by the coordinator and its helpers.
func WithLogger(log document.Logger) CoordinatorOption {
	return func(c *Coordinator) {
		if log != nil {
			c.log = log
		}
	}
}

// WithRegistry attaches the mock registry reloaded after each mutation.
// Without a registry, mutations only persist the document.
func WithRegistry(reg *mockserver.Registry) CoordinatorOption {
	return func(c *Coordinator) {
		c.reg = reg
	}
}

// NewCoordinator creates a coordinator for the document behind store.
func NewCoordinator(kind SpecKind, store *document.Store, opts ...CoordinatorOption) *Coordinator {
	c := &Coordinator{kind: kind, store: store, log: document.NopLogger{}}
	for _, opt := range opts {
		opt(c)
	}
	c.enrich = enricher.New(enricher.WithLogger(c.log))
	c.loader = mockserver.NewLoader(store, mockserver.WithLoaderLogger(c.log))
	return c
}

// Store returns the underlying document store.
func (c *Coordinator) Store() *document.Store { return c.store }

// Registry returns the attached mock registry, or nil.
func (c *Coordinator) Registry() *mockserver.Registry { return c.reg }

// Read runs fn with a shared lock over a freshly loaded document.
// A missing file is presented to fn as an empty, enriched document.
func (c *Coordinator) Read(fn func(doc *document.Map) error) error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	doc, err := c.load()
	if err != nil {
		return err
	}
	return fn(doc)
}

// Write runs fn with the exclusive lock over a freshly loaded document, then
// enriches, persists and reloads the mock registry. If fn returns an error
// nothing is written. Within one Write the load, mutate, save, registry
// reload sequence is atomic with respect to other writers.
func (c *Coordinator) Write(fn func(doc *document.Map) error) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	doc, err := c.load()
	if err != nil {
		return err
	}
	if err := fn(doc); err != nil {
		return err
	}
	c.enrichDoc(doc)
	if err := c.store.Save(doc); err != nil {
		return err
	}
	c.reloadRegistry()
	return nil
}

// load reads the document fresh from disk. Absence is an empty document, so
// the first mutation against a new file works; a parse failure propagates
// and leaves the file untouched.
func (c *Coordinator) load() (*document.Map, error) {
	doc, err := c.store.Load()
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			doc = document.NewMap()
			c.enrichDoc(doc)
			return doc, nil
		}
		return nil, err
	}
	c.enrichDoc(doc)
	return doc, nil
}

func (c *Coordinator) enrichDoc(doc *document.Map) {
	var res *enricher.Result
	if c.kind == KindWebSocket {
		res = c.enrich.EnrichWebSocket(doc)
	} else {
		res = c.enrich.EnrichREST(doc)
	}
	if res.Changed() {
		c.log.Debug("document enriched",
			"operations", res.Operations, "schemas", res.Schemas,
			"stubs", res.Stubs, "constraintFixes", res.ConstraintFixes)
	}
}

// reloadRegistry rebuilds the mock registry from the just-persisted file.
// Failures are logged, not returned: the write has already been persisted and
// registry staleness is recoverable by the next reload.
func (c *Coordinator) reloadRegistry() {
	if c.reg == nil {
		return
	}
	if err := c.reg.Reload(c.loader); err != nil {
		c.log.Error("mock registry reload after write failed", "error", err)
	}
}
