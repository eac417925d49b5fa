// Package differ flattens schemas into structural fingerprints and compares
// them for equivalence.
//
// A schema is reduced to a multiset of "fieldName:typeToken" counts
// ([TypeCounts]). Nested object fields, whether inline or referenced, are
// hoisted flat into the parent's namespace: structural comparison asks "does
// this type anywhere contain a field X of type Y", not "at which exact path".
// Arrays of referenced schemas stay opaque as "name:array.<Target>" and are
// not expanded. Fingerprints are transient comparison artifacts and are never
// persisted.
package differ

import (
	"maps"

	"github.com/ouroborosapi/ouroboros/document"
)

// TypeCounts is a flattened schema fingerprint: occurrences of each
// "fieldName:typeToken" pair. Type tokens are the primitive type name,
// "binary" for binary-format strings, or "array.<Type>" for arrays.
type TypeCounts map[string]int

// Equal reports whether both fingerprints contain exactly the same keys with
// equal counts. This is multiset equality, not tree equality: restructuring
// nested fields that preserves the flat fingerprint counts as "no change".
func (tc TypeCounts) Equal(other TypeCounts) bool {
	for key, n := range tc {
		if other[key] != n {
			return false
		}
	}
	for key, n := range other {
		if tc[key] != n {
			return false
		}
	}
	return true
}

// primitiveTypes are the scalar schema types recorded directly as tokens.
var primitiveTypes = map[string]bool{
	"string": true, "integer": true, "number": true, "boolean": true,
}

// Differ flattens and compares schemas from a schema table.
type Differ struct {
	log document.Logger
}

// Option configures a Differ.
type Option func(*Differ)

// WithLogger sets the logger used for diagnostics. Defaults to NopLogger.
func WithLogger(log document.Logger) Option {
	return func(d *Differ) {
		if log != nil {
			d.log = log
		}
	}
}

// New creates a Differ.
func New(opts ...Option) *Differ {
	d := &Differ{log: document.NopLogger{}}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Flatten computes the fingerprint of the named schema in the table.
// An absent schema yields an empty (non-nil) fingerprint.
func (d *Differ) Flatten(name string, schemas *document.Map) TypeCounts {
	acc := make(TypeCounts)
	schema := schemas.GetMap(name)
	if schema == nil {
		d.log.Debug("flatten of absent schema", "schema", name)
		return acc
	}
	visited := map[string]bool{name: true}
	d.flattenSchema(schema, schemas, visited, acc)
	return acc
}

// FlattenAll computes fingerprints for every schema in the table.
func (d *Differ) FlattenAll(schemas *document.Map) map[string]TypeCounts {
	out := make(map[string]TypeCounts, schemas.Len())
	for _, name := range schemas.Keys() {
		out[name] = d.Flatten(name, schemas)
	}
	return out
}

// Compare reports, per schema name in base, whether the target side carries a
// structurally equivalent schema. A name absent from target is false.
func (d *Differ) Compare(base, target map[string]TypeCounts) map[string]bool {
	out := make(map[string]bool, len(base))
	for name, baseCounts := range base {
		targetCounts, ok := target[name]
		if !ok {
			out[name] = false
			continue
		}
		out[name] = baseCounts.Equal(targetCounts)
	}
	return out
}

// flattenSchema records every property of schema into acc. The schema itself
// has already been entered into visited by the caller.
func (d *Differ) flattenSchema(schema, schemas *document.Map, visited map[string]bool, acc TypeCounts) {
	if ref := schema.GetString("$ref"); ref != "" {
		d.mergeRef(ref, schemas, visited, acc)
		return
	}
	props := schema.GetMap("properties")
	if props == nil {
		return
	}
	for _, name := range props.Keys() {
		prop := props.GetMap(name)
		if prop == nil {
			continue
		}
		d.flattenProperty(name, prop, schemas, visited, acc)
	}
}

// flattenProperty records one property into acc.
func (d *Differ) flattenProperty(name string, prop, schemas *document.Map, visited map[string]bool, acc TypeCounts) {
	if ref := prop.GetString("$ref"); ref != "" {
		// Object reference: hoist the target's fields flat into the parent's
		// namespace, without prefixing by the property name.
		d.mergeRef(ref, schemas, visited, acc)
		return
	}

	typ := prop.GetString("type")
	switch {
	case primitiveTypes[typ]:
		acc[name+":"+typeToken(typ, prop.GetString("format"))]++

	case typ == "array":
		items := prop.GetMap("items")
		if items == nil {
			acc[name+":array"]++
			return
		}
		if ref := items.GetString("$ref"); ref != "" {
			// Array-of-reference is an opaque unit for comparison purposes.
			target, _ := document.RefName(ref)
			acc[name+":array."+target]++
			return
		}
		itemType := items.GetString("type")
		if primitiveTypes[itemType] {
			acc[name+":array."+typeToken(itemType, items.GetString("format"))]++
			return
		}
		acc[name+":array."+itemType]++

	default:
		// Inline object (or untyped mapping with properties): hoist its
		// fields flat, same as a reference merge.
		if inner := prop.GetMap("properties"); inner != nil {
			for _, innerName := range inner.Keys() {
				innerProp := inner.GetMap(innerName)
				if innerProp == nil {
					continue
				}
				d.flattenProperty(innerName, innerProp, schemas, visited, acc)
			}
		}
	}
}

// mergeRef flattens the referenced schema's fields into acc without a name
// prefix. The recursion gets a fresh copy of visited so sibling branches do
// not share cycle-detection state.
func (d *Differ) mergeRef(ref string, schemas *document.Map, visited map[string]bool, acc TypeCounts) {
	target, ok := document.RefName(ref)
	if !ok {
		d.log.Warn("unsupported reference shape during flattening", "ref", ref)
		return
	}
	if visited[target] {
		d.log.Debug("reference cycle during flattening", "schema", target)
		return
	}
	schema := schemas.GetMap(target)
	if schema == nil {
		d.log.Warn("missing reference target during flattening", "schema", target)
		return
	}
	branch := maps.Clone(visited)
	branch[target] = true
	d.flattenSchema(schema, schemas, branch, acc)
}

// typeToken maps a primitive type and format to the fingerprint token.
// Binary-format strings get their own token so payload fields are not
// conflated with plain text.
func typeToken(typ, format string) string {
	if format == "binary" {
		return "binary"
	}
	return typ
}
