package document

import "strings"

// Extension keys carried by operations and schemas. All custom metadata lives
// under the x-ouroboros- prefix so that documents stay valid OpenAPI/AsyncAPI.
const (
	// ExtID is the operation-level unique identifier (UUID string).
	ExtID = "x-ouroboros-id"
	// ExtProgress tracks implementation readiness of an operation.
	ExtProgress = "x-ouroboros-progress"
	// ExtTag is the developer-set narrative tag of an operation.
	ExtTag = "x-ouroboros-tag"
	// ExtDiff records the outcome of the last spec reconciliation.
	ExtDiff = "x-ouroboros-diff"
	// ExtMock is the per-property mock expression hint (faker template).
	ExtMock = "x-ouroboros-mock"
	// ExtOrder is the schema-level ordered list of property names.
	ExtOrder = "x-ouroboros-order"
)

// Progress values for ExtProgress.
const (
	ProgressMock      = "mock"
	ProgressCompleted = "completed"
	ProgressNone      = "none"
)

// Tag values for ExtTag.
const (
	TagNone         = "none"
	TagImplementing = "implementing"
	TagBugfix       = "bugfix"
)

// Diff values for ExtDiff. DiffShape is set when the flattened fingerprint of
// a completed operation's schemas no longer matches the scanned spec.
const (
	DiffNone  = "none"
	DiffShape = "shape"
)

// ErrorHeader is the request header that forces a mock endpoint to answer
// with a declared non-default status.
const ErrorHeader = "X-Ouroboros-Error"

// SchemaRefPrefix is the only $ref prefix the resolver follows; anything else
// is treated as unresolvable and degrades to an empty schema.
const SchemaRefPrefix = "#/components/schemas/"

// httpMethods is the set of keys under a path item that denote operations.
var httpMethods = map[string]bool{
	"get": true, "put": true, "post": true, "delete": true,
	"options": true, "head": true, "patch": true, "trace": true,
}

// IsHTTPMethod reports whether a path-item key is an HTTP method.
func IsHTTPMethod(key string) bool {
	return httpMethods[strings.ToLower(key)]
}

// HTTPMethods returns the recognized lowercase HTTP method names.
func HTTPMethods() []string {
	return []string{"get", "put", "post", "delete", "options", "head", "patch", "trace"}
}

// SchemaRef builds a local component reference for a schema name.
func SchemaRef(name string) string {
	return SchemaRefPrefix + name
}

// RefName extracts the schema name from a local component reference.
// It returns false for external references or other pointer shapes.
func RefName(ref string) (string, bool) {
	return strings.CutPrefix(ref, SchemaRefPrefix)
}

// SimpleName returns the trailing segment of a dot-qualified name. Scanned
// specs may carry fully-qualified class names while the file spec uses simple
// names; name lookups fall back to this form.
func SimpleName(name string) string {
	if i := strings.LastIndex(name, "."); i >= 0 {
		return name[i+1:]
	}
	return name
}

// GetPath walks nested mappings by key and returns the map at the end of the
// path, or nil if any step is absent or not a mapping.
func GetPath(doc *Map, keys ...string) *Map {
	cur := doc
	for _, k := range keys {
		cur = cur.GetMap(k)
		if cur == nil {
			return nil
		}
	}
	return cur
}

// EnsurePath walks nested mappings by key, creating empty mappings along the
// way, and returns the map at the end of the path. A non-mapping value found
// at an intermediate key is replaced with an empty mapping.
func EnsurePath(doc *Map, keys ...string) *Map {
	cur := doc
	for _, k := range keys {
		next := cur.GetMap(k)
		if next == nil {
			next = NewMap()
			cur.Set(k, next)
		}
		cur = next
	}
	return cur
}

// Schemas returns components/schemas, or nil when absent.
func Schemas(doc *Map) *Map {
	return GetPath(doc, "components", "schemas")
}

// EnsureSchemas returns components/schemas, creating it if needed.
func EnsureSchemas(doc *Map) *Map {
	return EnsurePath(doc, "components", "schemas")
}

// Paths returns the OpenAPI paths mapping, or nil when absent.
func Paths(doc *Map) *Map {
	return doc.GetMap("paths")
}

// EnsurePaths returns the OpenAPI paths mapping, creating it if needed.
func EnsurePaths(doc *Map) *Map {
	return EnsurePath(doc, "paths")
}

// Channels returns the AsyncAPI channels mapping, or nil when absent.
func Channels(doc *Map) *Map {
	return doc.GetMap("channels")
}

// EnsureChannels returns the AsyncAPI channels mapping, creating it if needed.
func EnsureChannels(doc *Map) *Map {
	return EnsurePath(doc, "channels")
}

// Operations returns the AsyncAPI operations mapping, or nil when absent.
func Operations(doc *Map) *Map {
	return doc.GetMap("operations")
}

// EnsureOperations returns the AsyncAPI operations mapping, creating it if needed.
func EnsureOperations(doc *Map) *Map {
	return EnsurePath(doc, "operations")
}

// Messages returns components/messages, or nil when absent.
func Messages(doc *Map) *Map {
	return GetPath(doc, "components", "messages")
}

// EnsureMessages returns components/messages, creating it if needed.
func EnsureMessages(doc *Map) *Map {
	return EnsurePath(doc, "components", "messages")
}

// SecuritySchemes returns components/securitySchemes, or nil when absent.
func SecuritySchemes(doc *Map) *Map {
	return GetPath(doc, "components", "securitySchemes")
}

// LookupSchema finds a schema by exact name, then by simple-name fallback.
// It returns the resolved name actually present in the table.
func LookupSchema(schemas *Map, name string) (*Map, string, bool) {
	if s := schemas.GetMap(name); s != nil {
		return s, name, true
	}
	if simple := SimpleName(name); simple != name {
		if s := schemas.GetMap(simple); s != nil {
			return s, simple, true
		}
	}
	return nil, "", false
}
