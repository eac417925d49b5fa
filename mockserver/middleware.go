package mockserver

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"dario.cat/mergo"

	"github.com/ouroborosapi/ouroboros/document"
)

// maxRequestBody bounds how much of a submitted request body is read for the
// echo-with-override merge.
const maxRequestBody = 4 << 20 // 4MB

// middleware holds the serving state shared by all requests.
type middleware struct {
	reg *Registry
	log document.Logger
}

// MiddlewareOption configures the serving middleware.
type MiddlewareOption func(*middleware)

// WithMiddlewareLogger sets the logger used while serving. Defaults to NopLogger.
func WithMiddlewareLogger(log document.Logger) MiddlewareOption {
	return func(m *middleware) {
		if log != nil {
			m.log = log
		}
	}
}

// Middleware returns an http middleware that intercepts requests matching a
// registered mock endpoint and serves a synthesized response. Requests that
// match no mock endpoint pass through to the next handler unchanged, with no
// side effects.
//
// Per matched request, terminal at the first matching branch:
//  1. a declared X-Ouroboros-Error status short-circuits to that status;
//  2. a missing declared auth header yields 401;
//  3. a missing declared required header yields 400;
//  4. a missing declared required query parameter yields 400;
//  5. otherwise the response body is generated from the resolved schema for
//     status 200 (or "default"), deep-merging a submitted JSON request body
//     over the generated object for POST/PUT.
func Middleware(reg *Registry, opts ...MiddlewareOption) func(http.Handler) http.Handler {
	m := &middleware{reg: reg, log: document.NopLogger{}}
	for _, opt := range opts {
		opt(m)
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			meta, ok := m.reg.Find(r.URL.Path, r.Method)
			if !ok {
				next.ServeHTTP(w, r)
				return
			}
			m.serve(w, r, meta)
		})
	}
}

func (m *middleware) serve(w http.ResponseWriter, r *http.Request, meta *EndpointMeta) {
	defer func() {
		if rec := recover(); rec != nil {
			m.log.Error("panic while serving mock response",
				"endpoint", meta.Key(), "panic", rec)
			writeJSONError(w, http.StatusInternalServerError, "internal mock serving error")
		}
	}()

	// Forced status wins over all validation so callers can exercise
	// non-200 paths deterministically.
	if code := r.Header.Get(document.ErrorHeader); code != "" {
		if resp, declared := meta.Responses[code]; declared {
			m.log.Debug("serving forced error status", "endpoint", meta.Key(), "status", code)
			m.writeMock(w, r, meta, resp, code)
			return
		}
	}

	// Auth is checked before other required headers: 401 beats 400.
	for _, header := range meta.AuthHeaders {
		if r.Header.Get(header) == "" {
			writeJSONError(w, http.StatusUnauthorized,
				fmt.Sprintf("missing required auth header %s", header))
			return
		}
	}
	for _, header := range meta.RequiredHeaders {
		if r.Header.Get(header) == "" {
			writeJSONError(w, http.StatusBadRequest,
				fmt.Sprintf("missing required header %s", header))
			return
		}
	}
	query := r.URL.Query()
	for _, name := range meta.RequiredQuery {
		if !query.Has(name) {
			writeJSONError(w, http.StatusBadRequest,
				fmt.Sprintf("missing required query parameter %s", name))
			return
		}
	}

	status := "200"
	resp, declared := meta.Responses[status]
	if !declared {
		resp, declared = meta.Responses["default"]
	}
	if !declared {
		writeJSONError(w, http.StatusInternalServerError,
			fmt.Sprintf("mock endpoint %s declares no response for status 200", meta.Key()))
		return
	}
	m.writeMock(w, r, meta, resp, status)
}

// writeMock synthesizes and writes the response for one declared status.
func (m *middleware) writeMock(w http.ResponseWriter, r *http.Request, meta *EndpointMeta, resp *ResponseMeta, statusKey string) {
	contentType := negotiateContentType(r, resp)
	schema := resp.schemaFor(contentType)

	var body any
	if schema == nil {
		body = map[string]any{"error": fmt.Sprintf("mock response with status %s", statusKey)}
	} else {
		body = GenerateValue(schema)
	}
	body = m.mergeRequestBody(r, body)

	for name, value := range resp.Headers {
		w.Header().Set(name, value)
	}
	w.Header().Set("Content-Type", contentType)

	code, err := strconv.Atoi(statusKey)
	if err != nil {
		code = http.StatusOK
	}

	var data []byte
	if contentType == contentTypeXML {
		data, err = marshalXML("response", body)
	} else {
		data, err = json.Marshal(body)
	}
	if err != nil {
		m.log.Error("failed to serialize mock body", "endpoint", meta.Key(), "error", err)
		writeJSONError(w, http.StatusInternalServerError, "failed to serialize mock body")
		return
	}
	w.WriteHeader(code)
	w.Write(data)
}

// mergeRequestBody deep-merges a submitted JSON request body over the
// generated object for POST and PUT, letting clients echo with override:
// request values win, nested maps merge key by key, non-map values (and
// arrays) are replaced wholesale.
func (m *middleware) mergeRequestBody(r *http.Request, body any) any {
	if r.Method != http.MethodPost && r.Method != http.MethodPut {
		return body
	}
	generated, isMap := body.(map[string]any)
	if !isMap {
		return body
	}
	if ct := r.Header.Get("Content-Type"); !strings.Contains(ct, "json") {
		return body
	}
	data, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBody))
	if err != nil || len(data) == 0 {
		return body
	}
	var submitted map[string]any
	if err := json.Unmarshal(data, &submitted); err != nil {
		m.log.Debug("ignoring unparseable request body for merge", "error", err)
		return body
	}
	if err := mergo.Merge(&generated, submitted, mergo.WithOverride); err != nil {
		m.log.Warn("request body merge failed, serving generated body", "error", err)
		return body
	}
	return generated
}

// negotiateContentType picks the serialization for a response: an explicitly
// declared sole media type wins; otherwise the Accept header decides, with
// JSON as the default.
func negotiateContentType(r *http.Request, resp *ResponseMeta) string {
	declared := resp.contentTypes()
	if len(declared) == 1 {
		return declared[0]
	}
	if strings.Contains(r.Header.Get("Accept"), "xml") {
		return contentTypeXML
	}
	return contentTypeJSON
}

// writeJSONError writes the protocol-level JSON error body used for mock
// validation failures.
func writeJSONError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
