// Package enricher validates and enriches specification documents in place.
//
// Enrichment is non-destructive and convergent: missing structure is created,
// missing x-ouroboros-* metadata gets defaults, dangling $ref targets are
// stubbed, and invalid numeric constraints are corrected, but existing values
// are never overwritten. Enriching an already-enriched document is a no-op,
// so enrichment can run on every load and every mutation.
//
// Enrichment never fails: every correction is applied silently with a log
// entry, reflecting the permissive converge-toward-validity philosophy of a
// developer-facing editing tool.
package enricher

import (
	"sort"

	"github.com/google/uuid"

	"github.com/ouroborosapi/ouroboros/document"
)

// Result counts the corrections applied by one enrichment pass.
// A zero Result means the document was already fully enriched.
type Result struct {
	// Operations is the number of operations that received at least one
	// missing extension default.
	Operations int
	// Schemas is the number of schemas that received mock hints or an order
	// list.
	Schemas int
	// Stubs is the number of placeholder schemas created for dangling $refs.
	Stubs int
	// ConstraintFixes is the number of inverted min/max pairs swapped.
	ConstraintFixes int
}

// Total returns the total number of corrections applied.
func (r *Result) Total() int {
	return r.Operations + r.Schemas + r.Stubs + r.ConstraintFixes
}

// Changed reports whether the pass modified the document.
func (r *Result) Changed() bool { return r.Total() > 0 }

// Enricher applies enrichment passes to OpenAPI and AsyncAPI documents.
type Enricher struct {
	log   document.Logger
	newID func() string
}

// Option configures an Enricher.
type Option func(*Enricher)

// WithLogger sets the logger used for diagnostics. Defaults to NopLogger.
func WithLogger(log document.Logger) Option {
	return func(e *Enricher) {
		if log != nil {
			e.log = log
		}
	}
}

// WithIDGenerator overrides the operation id generator. Used by tests that
// need deterministic ids; defaults to random UUIDs.
func WithIDGenerator(gen func() string) Option {
	return func(e *Enricher) {
		if gen != nil {
			e.newID = gen
		}
	}
}

// New creates an Enricher.
func New(opts ...Option) *Enricher {
	e := &Enricher{log: document.NopLogger{}, newID: uuid.NewString}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// EnrichREST validates and enriches an OpenAPI document in place.
func (e *Enricher) EnrichREST(doc *document.Map) *Result {
	res := &Result{}
	schemas := document.EnsureSchemas(doc)
	paths := document.EnsurePaths(doc)
	e.repairSecurity(doc)

	for _, path := range paths.Keys() {
		item := paths.GetMap(path)
		if item == nil {
			continue
		}
		for _, key := range item.Keys() {
			if !document.IsHTTPMethod(key) {
				continue
			}
			if op := item.GetMap(key); op != nil && e.enrichOperation(op) {
				res.Operations++
			}
		}
	}

	e.enrichSchemas(schemas, res)
	e.fixConstraints(schemas, res)
	e.stubMissingRefs(doc, schemas, res)
	return res
}

// EnrichWebSocket validates and enriches an AsyncAPI document in place.
func (e *Enricher) EnrichWebSocket(doc *document.Map) *Result {
	res := &Result{}
	schemas := document.EnsureSchemas(doc)
	document.EnsureMessages(doc)
	document.EnsureChannels(doc)
	operations := document.EnsureOperations(doc)

	for _, name := range operations.Keys() {
		if op := operations.GetMap(name); op != nil && e.enrichOperation(op) {
			res.Operations++
		}
	}

	e.enrichSchemas(schemas, res)
	e.fixConstraints(schemas, res)
	e.stubMissingRefs(doc, schemas, res)
	return res
}

// repairSecurity replaces an explicit null security list with an empty one.
func (e *Enricher) repairSecurity(doc *document.Map) {
	if v, ok := doc.Get("security"); ok && v == nil {
		doc.Set("security", []any{})
		e.log.Debug("repaired null security list")
	}
}

// enrichOperation upserts the extension defaults on one operation.
// Existing values are never overwritten.
func (e *Enricher) enrichOperation(op *document.Map) bool {
	changed := false
	if op.SetIfAbsent(document.ExtID, e.newID()) {
		changed = true
	}
	if op.SetIfAbsent(document.ExtProgress, document.ProgressMock) {
		changed = true
	}
	if op.SetIfAbsent(document.ExtTag, document.TagNone) {
		changed = true
	}
	if op.SetIfAbsent(document.ExtDiff, document.DiffNone) {
		changed = true
	}
	return changed
}

// enrichSchemas adds per-property mock hints and the field-order list to
// every schema that carries properties. Pure $ref schemas are skipped; so are
// $ref properties, whose mock values come from the referenced schema.
func (e *Enricher) enrichSchemas(schemas *document.Map, res *Result) {
	for _, name := range schemas.Keys() {
		schema := schemas.GetMap(name)
		if schema == nil || schema.Has("$ref") {
			continue
		}
		props := schema.GetMap("properties")
		if props == nil {
			continue
		}
		changed := false
		for _, propName := range props.Keys() {
			prop := props.GetMap(propName)
			if prop == nil || prop.Has("$ref") {
				continue
			}
			if prop.SetIfAbsent(document.ExtMock, "") {
				changed = true
			}
		}
		if !schema.Has(document.ExtOrder) {
			order := make([]any, 0, props.Len())
			for _, propName := range props.Keys() {
				order = append(order, propName)
			}
			schema.Set(document.ExtOrder, order)
			changed = true
		}
		if changed {
			res.Schemas++
		}
	}
}

// fixConstraints swaps inverted minItems/maxItems pairs anywhere in the
// schema table. The document is never rejected for invalid constraints.
func (e *Enricher) fixConstraints(schemas *document.Map, res *Result) {
	for _, name := range schemas.Keys() {
		e.fixConstraintsIn(name, schemas.GetMap(name), res)
	}
}

func (e *Enricher) fixConstraintsIn(location string, schema *document.Map, res *Result) {
	if schema == nil {
		return
	}
	if schema.GetString("type") == "array" {
		minItems, okMin := schema.GetInt("minItems")
		maxItems, okMax := schema.GetInt("maxItems")
		if okMin && okMax && minItems > maxItems {
			schema.Set("minItems", maxItems)
			schema.Set("maxItems", minItems)
			res.ConstraintFixes++
			e.log.Warn("swapped inverted minItems/maxItems",
				"schema", location, "minItems", maxItems, "maxItems", minItems)
		}
	}
	if props := schema.GetMap("properties"); props != nil {
		for _, propName := range props.Keys() {
			e.fixConstraintsIn(location+"."+propName, props.GetMap(propName), res)
		}
	}
	if items := schema.GetMap("items"); items != nil {
		e.fixConstraintsIn(location+".items", items, res)
	}
}

// stubMissingRefs scans the entire document tree for $ref values and creates
// a placeholder schema for every referenced name missing from the table, so
// that no $ref dangles after enrichment. Names are processed in sorted order
// for deterministic output.
func (e *Enricher) stubMissingRefs(doc, schemas *document.Map, res *Result) {
	refs := make(map[string]bool)
	collectRefs(doc, refs)

	missing := make([]string, 0)
	for ref := range refs {
		name, ok := document.RefName(ref)
		if !ok {
			continue
		}
		if schemas.GetMap(name) == nil {
			missing = append(missing, name)
		}
	}
	sort.Strings(missing)

	for _, name := range missing {
		stub := document.NewMap().
			Set("type", "object").
			Set("properties", document.NewMap()).
			Set(document.ExtOrder, []any{})
		schemas.Set(name, stub)
		res.Stubs++
		e.log.Info("created placeholder schema for dangling reference", "schema", name)
	}
}

// collectRefs walks any document value and records every $ref string.
func collectRefs(v any, out map[string]bool) {
	switch t := v.(type) {
	case *document.Map:
		for _, key := range t.Keys() {
			val, _ := t.Get(key)
			if key == "$ref" {
				if ref, ok := val.(string); ok && ref != "" {
					out[ref] = true
				}
				continue
			}
			collectRefs(val, out)
		}
	case []any:
		for _, e := range t {
			collectRefs(e, out)
		}
	}
}
