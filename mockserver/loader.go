package mockserver

import (
	"errors"
	"io/fs"
	"strings"

	"github.com/ouroborosapi/ouroboros/document"
	"github.com/ouroborosapi/ouroboros/resolver"
)

// Media types the mock server can serve.
const (
	contentTypeJSON = "application/json"
	contentTypeXML  = "application/xml"
)

// Loader builds endpoint metadata from the enriched specification file.
//
// Only operations with x-ouroboros-progress: mock are loaded; completed
// endpoints are expected to be served by real controllers. Response-body
// schema refs are resolved ahead of time so serving never touches the schema
// table.
type Loader struct {
	store *document.Store
	res   *resolver.Resolver
	log   document.Logger
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithLoaderLogger sets the logger used by the loader. Defaults to NopLogger.
func WithLoaderLogger(log document.Logger) LoaderOption {
	return func(l *Loader) {
		if log != nil {
			l.log = log
		}
	}
}

// NewLoader creates a Loader over the given document store.
func NewLoader(store *document.Store, opts ...LoaderOption) *Loader {
	l := &Loader{store: store, log: document.NopLogger{}}
	for _, opt := range opts {
		opt(l)
	}
	l.res = resolver.New(resolver.WithLogger(l.log))
	return l
}

// Load reads the specification file and builds metadata for every
// mock-status endpoint. A missing file yields an empty set, not an error.
func (l *Loader) Load() ([]*EndpointMeta, error) {
	doc, err := l.store.Load()
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			l.log.Debug("specification file absent, loading empty registry", "path", l.store.Path())
			return nil, nil
		}
		return nil, err
	}

	schemas := document.Schemas(doc)
	securitySchemes := document.SecuritySchemes(doc)
	docSecurity := doc.GetSlice("security")

	var metas []*EndpointMeta
	paths := document.Paths(doc)
	for _, path := range paths.Keys() {
		item := paths.GetMap(path)
		if item == nil {
			continue
		}
		for _, method := range item.Keys() {
			if !document.IsHTTPMethod(method) {
				continue
			}
			op := item.GetMap(method)
			if op == nil || op.GetString(document.ExtProgress) != document.ProgressMock {
				continue
			}
			metas = append(metas, l.buildEndpoint(path, method, op, schemas, securitySchemes, docSecurity))
		}
	}
	l.log.Debug("loaded mock endpoints from specification", "count", len(metas))
	return metas, nil
}

// buildEndpoint projects one operation into its registry entry.
func (l *Loader) buildEndpoint(path, method string, op, schemas, securitySchemes *document.Map, docSecurity []any) *EndpointMeta {
	meta := &EndpointMeta{
		Method:      strings.ToUpper(method),
		Path:        path,
		OperationID: op.GetString(document.ExtID),
		Responses:   make(map[string]*ResponseMeta),
	}

	for _, p := range op.GetSlice("parameters") {
		param, ok := p.(*document.Map)
		if !ok {
			continue
		}
		required, _ := param.Get("required")
		if isRequired, _ := required.(bool); !isRequired {
			continue
		}
		name := param.GetString("name")
		switch param.GetString("in") {
		case "header":
			meta.RequiredHeaders = append(meta.RequiredHeaders, name)
		case "query":
			meta.RequiredQuery = append(meta.RequiredQuery, name)
		}
	}

	security := op.GetSlice("security")
	if security == nil {
		security = docSecurity
	}
	meta.AuthHeaders = resolveAuthHeaders(security, securitySchemes)

	responses := op.GetMap("responses")
	for _, status := range responses.Keys() {
		if resp := responses.GetMap(status); resp != nil {
			meta.Responses[status] = l.buildResponse(status, resp, schemas)
		}
	}
	return meta
}

// buildResponse resolves the declared body schemas and static headers of one
// response definition.
func (l *Loader) buildResponse(status string, resp, schemas *document.Map) *ResponseMeta {
	out := &ResponseMeta{Status: status, Content: make(map[string]*document.Map)}

	if content := resp.GetMap("content"); content != nil {
		for _, mediaType := range content.Keys() {
			normalized := normalizeMediaType(mediaType)
			if normalized == "" {
				continue
			}
			schema := content.GetMap(mediaType).GetMap("schema")
			if schema == nil {
				continue
			}
			out.Content[normalized] = l.res.Resolve(schema, schemas)
		}
	}

	if headers := resp.GetMap("headers"); headers != nil {
		out.Headers = make(map[string]string, headers.Len())
		for _, name := range headers.Keys() {
			raw, _ := headers.Get(name)
			switch v := raw.(type) {
			case string:
				out.Headers[name] = v
			case *document.Map:
				if example := v.GetString("example"); example != "" {
					out.Headers[name] = example
				}
			}
		}
	}
	return out
}

// normalizeMediaType maps a declared media type onto the JSON or XML codec,
// or "" when neither applies.
func normalizeMediaType(mediaType string) string {
	switch {
	case strings.Contains(mediaType, "json"):
		return contentTypeJSON
	case strings.Contains(mediaType, "xml"):
		return contentTypeXML
	}
	return ""
}

// resolveAuthHeaders maps security requirements to the concrete header names
// a mock must demand. HTTP auth schemes, OAuth2 and OpenID Connect all
// arrive via Authorization; apiKey-in-header uses the scheme's declared name.
func resolveAuthHeaders(security []any, securitySchemes *document.Map) []string {
	var headers []string
	seen := make(map[string]bool)
	add := func(h string) {
		if h != "" && !seen[h] {
			seen[h] = true
			headers = append(headers, h)
		}
	}

	for _, req := range security {
		requirement, ok := req.(*document.Map)
		if !ok {
			continue
		}
		for _, schemeName := range requirement.Keys() {
			scheme := securitySchemes.GetMap(schemeName)
			if scheme == nil {
				continue
			}
			switch scheme.GetString("type") {
			case "http", "oauth2", "openIdConnect":
				add("Authorization")
			case "apiKey":
				if scheme.GetString("in") == "header" {
					add(scheme.GetString("name"))
				}
			}
		}
	}
	return headers
}
