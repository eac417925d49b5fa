package mockserver

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ouroborosapi/ouroboros/document"
)

func userSchema() *document.Map {
	return document.MapOf(
		"type", "object",
		"properties", document.MapOf(
			"id", document.MapOf("type", "integer"),
			"name", document.MapOf("type", "string"),
		),
	)
}

func jsonResponse(status string) *ResponseMeta {
	return &ResponseMeta{
		Status:  status,
		Content: map[string]*document.Map{contentTypeJSON: userSchema()},
	}
}

func registryWith(metas ...*EndpointMeta) *Registry {
	r := NewRegistry()
	r.Replace(metas)
	return r
}

func serveOne(t *testing.T, reg *Registry, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	passthrough := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	rec := httptest.NewRecorder()
	Middleware(reg)(passthrough).ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestMiddlewarePassThrough(t *testing.T) {
	reg := registryWith(&EndpointMeta{
		Method: "GET", Path: "/users",
		Responses: map[string]*ResponseMeta{"200": jsonResponse("200")},
	})

	rec := serveOne(t, reg, httptest.NewRequest("GET", "/orders", nil))
	assert.Equal(t, http.StatusTeapot, rec.Code)

	// Method mismatch on a known path also passes through.
	rec = serveOne(t, reg, httptest.NewRequest("DELETE", "/users", nil))
	assert.Equal(t, http.StatusTeapot, rec.Code)
}

func TestMiddlewareGeneratesBody(t *testing.T) {
	reg := registryWith(&EndpointMeta{
		Method: "GET", Path: "/users",
		Responses: map[string]*ResponseMeta{"200": jsonResponse("200")},
	})

	rec := serveOne(t, reg, httptest.NewRequest("GET", "/users", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, contentTypeJSON, rec.Header().Get("Content-Type"))

	body := decodeBody(t, rec)
	assert.Contains(t, body, "id")
	assert.Contains(t, body, "name")
	assert.IsType(t, "", body["name"])
	assert.IsType(t, float64(0), body["id"])
}

func TestMiddlewareForcedErrorStatus(t *testing.T) {
	reg := registryWith(&EndpointMeta{
		Method: "GET", Path: "/users",
		AuthHeaders: []string{"Authorization"},
		Responses: map[string]*ResponseMeta{
			"200": jsonResponse("200"),
			"404": {Status: "404"},
		},
	})

	req := httptest.NewRequest("GET", "/users", nil)
	req.Header.Set(document.ErrorHeader, "404")
	rec := serveOne(t, reg, req)

	// The forced status wins even though the auth header is missing.
	assert.Equal(t, http.StatusNotFound, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "mock response with status 404", body["error"])
}

func TestMiddlewareForcedUndeclaredStatusIgnored(t *testing.T) {
	reg := registryWith(&EndpointMeta{
		Method: "GET", Path: "/users",
		Responses: map[string]*ResponseMeta{"200": jsonResponse("200")},
	})

	req := httptest.NewRequest("GET", "/users", nil)
	req.Header.Set(document.ErrorHeader, "503")
	rec := serveOne(t, reg, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestMiddlewareAuthBeforeValidation(t *testing.T) {
	reg := registryWith(&EndpointMeta{
		Method: "GET", Path: "/users",
		AuthHeaders:     []string{"Authorization"},
		RequiredHeaders: []string{"X-Tenant"},
		RequiredQuery:   []string{"page"},
		Responses:       map[string]*ResponseMeta{"200": jsonResponse("200")},
	})

	// No auth, no required header: 401 wins.
	rec := serveOne(t, reg, httptest.NewRequest("GET", "/users", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// Auth present, required header missing: 400.
	req := httptest.NewRequest("GET", "/users", nil)
	req.Header.Set("Authorization", "Bearer t")
	rec = serveOne(t, reg, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decodeBody(t, rec)["error"], "X-Tenant")

	// Headers fine, query missing: 400.
	req = httptest.NewRequest("GET", "/users", nil)
	req.Header.Set("Authorization", "Bearer t")
	req.Header.Set("X-Tenant", "acme")
	rec = serveOne(t, reg, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decodeBody(t, rec)["error"], "page")

	// Everything present: 200.
	req = httptest.NewRequest("GET", "/users?page=1", nil)
	req.Header.Set("Authorization", "Bearer t")
	req.Header.Set("X-Tenant", "acme")
	rec = serveOne(t, reg, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestMiddlewareEchoWithOverride(t *testing.T) {
	reg := registryWith(&EndpointMeta{
		Method: "POST", Path: "/users",
		Responses: map[string]*ResponseMeta{"200": jsonResponse("200")},
	})

	req := httptest.NewRequest("POST", "/users", strings.NewReader(`{"name":"alice"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := serveOne(t, reg, req)
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	// Submitted value wins; fields absent from the request stay generated.
	assert.Equal(t, "alice", body["name"])
	assert.Contains(t, body, "id")
}

func TestMiddlewareMergeSkippedForNonJSONBody(t *testing.T) {
	reg := registryWith(&EndpointMeta{
		Method: "POST", Path: "/users",
		Responses: map[string]*ResponseMeta{"200": jsonResponse("200")},
	})

	req := httptest.NewRequest("POST", "/users", strings.NewReader(`name=alice`))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := serveOne(t, reg, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEqual(t, "alice", decodeBody(t, rec)["name"])
}

func TestMiddlewareDefaultResponseFallback(t *testing.T) {
	reg := registryWith(&EndpointMeta{
		Method: "GET", Path: "/health",
		Responses: map[string]*ResponseMeta{"default": jsonResponse("default")},
	})

	rec := serveOne(t, reg, httptest.NewRequest("GET", "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestMiddlewareNoUsableResponse(t *testing.T) {
	reg := registryWith(&EndpointMeta{
		Method: "GET", Path: "/broken",
		Responses: map[string]*ResponseMeta{"404": {Status: "404"}},
	})

	rec := serveOne(t, reg, httptest.NewRequest("GET", "/broken", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, decodeBody(t, rec)["error"], "declares no response")
}

func TestMiddlewareXMLNegotiation(t *testing.T) {
	xmlOnly := &ResponseMeta{
		Status:  "200",
		Content: map[string]*document.Map{contentTypeXML: userSchema()},
	}
	reg := registryWith(&EndpointMeta{
		Method: "GET", Path: "/report",
		Responses: map[string]*ResponseMeta{"200": xmlOnly},
	})

	// The sole declared media type wins regardless of Accept.
	rec := serveOne(t, reg, httptest.NewRequest("GET", "/report", nil))
	assert.Equal(t, contentTypeXML, rec.Header().Get("Content-Type"))
	assert.True(t, strings.HasPrefix(rec.Body.String(), "<response>"))
	assert.Contains(t, rec.Body.String(), "<name>")
}

func TestMiddlewareAcceptHeaderPicksXML(t *testing.T) {
	both := &ResponseMeta{
		Status: "200",
		Content: map[string]*document.Map{
			contentTypeJSON: userSchema(),
			contentTypeXML:  userSchema(),
		},
	}
	reg := registryWith(&EndpointMeta{
		Method: "GET", Path: "/users",
		Responses: map[string]*ResponseMeta{"200": both},
	})

	req := httptest.NewRequest("GET", "/users", nil)
	req.Header.Set("Accept", "application/xml")
	rec := serveOne(t, reg, req)
	assert.Equal(t, contentTypeXML, rec.Header().Get("Content-Type"))

	// No preference defaults to JSON.
	rec = serveOne(t, reg, httptest.NewRequest("GET", "/users", nil))
	assert.Equal(t, contentTypeJSON, rec.Header().Get("Content-Type"))
}

func TestMiddlewareStaticResponseHeaders(t *testing.T) {
	resp := jsonResponse("200")
	resp.Headers = map[string]string{"X-Rate-Limit": "100"}
	reg := registryWith(&EndpointMeta{
		Method: "GET", Path: "/users",
		Responses: map[string]*ResponseMeta{"200": resp},
	})

	rec := serveOne(t, reg, httptest.NewRequest("GET", "/users", nil))
	assert.Equal(t, "100", rec.Header().Get("X-Rate-Limit"))
}
