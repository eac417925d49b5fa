// Package resolver resolves $ref chains within components/schemas into
// concrete, self-contained schema trees.
//
// Resolution never fails: a missing target, a malformed reference, or a
// reference cycle degrades to an empty schema and is logged, so that
// downstream consumers (flattening, mock generation) always receive a finite,
// non-nil tree. Cycle detection carries a visited set that is copied per
// sibling branch, so siblings never inherit an ancestor's visited marker
// outside the ref chain itself.
package resolver

import (
	"maps"

	"github.com/ouroborosapi/ouroboros/document"
)

// Resolver resolves schema references against a schema table.
type Resolver struct {
	log document.Logger
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithLogger sets the logger used for diagnostics. Defaults to NopLogger.
func WithLogger(log document.Logger) Option {
	return func(r *Resolver) {
		if log != nil {
			r.log = log
		}
	}
}

// New creates a Resolver.
func New(opts ...Option) *Resolver {
	r := &Resolver{log: document.NopLogger{}}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve returns a self-contained copy of schema with every local
// components/schemas reference substituted in place. The input is never
// mutated. A nil schema resolves to an empty schema.
func (r *Resolver) Resolve(schema, schemas *document.Map) *document.Map {
	return r.resolve(schema, schemas, make(map[string]bool))
}

func (r *Resolver) resolve(schema, schemas *document.Map, visited map[string]bool) *document.Map {
	if schema == nil {
		return document.NewMap()
	}

	if ref := schema.GetString("$ref"); ref != "" {
		name, ok := document.RefName(ref)
		if !ok {
			r.log.Warn("unsupported reference shape, resolving to empty schema", "ref", ref)
			return document.NewMap()
		}
		if visited[name] {
			r.log.Debug("reference cycle detected, resolving to empty schema", "schema", name)
			return document.NewMap()
		}
		visited[name] = true
		target := schemas.GetMap(name)
		if target == nil {
			r.log.Warn("missing reference target, resolving to empty schema", "schema", name)
			return document.NewMap()
		}
		return r.resolve(target, schemas, visited)
	}

	out := document.NewMap()
	for _, key := range schema.Keys() {
		v, _ := schema.Get(key)
		out.Set(key, v)
	}
	if props := schema.GetMap("properties"); props != nil {
		resolved := document.NewMap()
		for _, name := range props.Keys() {
			prop := props.GetMap(name)
			// Each sibling gets its own copy of the visited set.
			resolved.Set(name, r.resolve(prop, schemas, maps.Clone(visited)))
		}
		out.Set("properties", resolved)
	}
	if items := schema.GetMap("items"); items != nil {
		out.Set("items", r.resolve(items, schemas, maps.Clone(visited)))
	}
	return out
}
