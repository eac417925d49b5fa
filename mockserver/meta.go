package mockserver

import (
	"strings"

	"github.com/ouroborosapi/ouroboros/document"
)

// ResponseMeta is the pre-resolved definition of one declared response
// status for a mock endpoint.
type ResponseMeta struct {
	// Status is the declared status code key (e.g. "200", "404").
	Status string

	// Content maps a declared media type ("application/json" or
	// "application/xml") to its fully resolved, self-contained schema tree.
	Content map[string]*document.Map

	// Headers are static response headers applied verbatim.
	Headers map[string]string
}

// schemaFor returns the resolved schema for a media type, or nil.
func (r *ResponseMeta) schemaFor(contentType string) *document.Map {
	if r == nil {
		return nil
	}
	return r.Content[contentType]
}

// contentTypes returns the declared media types; empty when the response has
// no body schema.
func (r *ResponseMeta) contentTypes() []string {
	out := make([]string, 0, len(r.Content))
	// JSON first so it wins when the Accept header expresses no preference.
	if _, ok := r.Content[contentTypeJSON]; ok {
		out = append(out, contentTypeJSON)
	}
	if _, ok := r.Content[contentTypeXML]; ok {
		out = append(out, contentTypeXML)
	}
	return out
}

// EndpointMeta is the read-only registry projection of one mock operation:
// everything the serving filter needs, with schema refs already resolved.
// Entries are built fresh on every registry reload and never mutated in place.
type EndpointMeta struct {
	// Method is the uppercase HTTP method.
	Method string
	// Path is the path template (e.g. "/users/{id}").
	Path string
	// OperationID is the operation's x-ouroboros-id.
	OperationID string

	// RequiredHeaders are declared required header parameter names.
	RequiredHeaders []string
	// RequiredQuery are declared required query parameter names.
	RequiredQuery []string
	// AuthHeaders are the concrete header names demanded by the operation's
	// security requirements.
	AuthHeaders []string

	// Responses maps declared status code keys to their resolved definitions.
	Responses map[string]*ResponseMeta
}

// Key returns the registry index key, "METHOD:path".
func (m *EndpointMeta) Key() string {
	return endpointKey(m.Method, m.Path)
}

func endpointKey(method, path string) string {
	return strings.ToUpper(method) + ":" + path
}
