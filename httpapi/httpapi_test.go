package httpapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ouroborosapi/ouroboros/document"
	"github.com/ouroborosapi/ouroboros/service"
)

func newTestHandler(t *testing.T, opts ...Option) (*http.ServeMux, *service.SpecService) {
	t.Helper()
	store := document.NewStore(filepath.Join(t.TempDir(), "openapi.yaml"))
	co := service.NewCoordinator(service.KindREST, store)
	specs := service.NewSpecService(co)
	schemas := service.NewSchemaService(co)

	mux := http.NewServeMux()
	New(specs, schemas, opts...).Routes(mux)
	return mux, specs
}

func do(mux *http.ServeMux, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func TestSchemaEndpoints(t *testing.T) {
	mux, _ := newTestHandler(t)

	rec := do(mux, "POST", "/ouroboros/api/schemas/User",
		`{"type":"object","properties":{"name":{"type":"string"}}}`)
	assert.Equal(t, http.StatusCreated, rec.Code)

	rec = do(mux, "POST", "/ouroboros/api/schemas/User", `{"type":"object"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = do(mux, "GET", "/ouroboros/api/schemas/User", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var schema map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &schema))
	assert.Equal(t, "object", schema["type"])
	// Enrichment ran before the schema was persisted.
	assert.Equal(t, []any{"name"}, schema[document.ExtOrder])

	rec = do(mux, "GET", "/ouroboros/api/schemas", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var all map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &all))
	assert.Contains(t, all, "User")

	rec = do(mux, "PUT", "/ouroboros/api/schemas/User",
		`{"type":"object","properties":{"name":{"type":"integer"}}}`)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(mux, "DELETE", "/ouroboros/api/schemas/User", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(mux, "GET", "/ouroboros/api/schemas/User", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = do(mux, "DELETE", "/ouroboros/api/schemas/User", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestOperationEndpoints(t *testing.T) {
	mux, specs := newTestHandler(t)

	rec := do(mux, "POST", "/ouroboros/api/rest/operations",
		`{"path":"/users","method":"GET","operation":{"summary":"list users"}}`)
	assert.Equal(t, http.StatusCreated, rec.Code)

	rec = do(mux, "POST", "/ouroboros/api/rest/operations",
		`{"path":"/users","method":"GET","operation":{}}`)
	assert.Equal(t, http.StatusConflict, rec.Code)

	op, err := specs.GetOperation("/users", "GET")
	require.NoError(t, err)
	assert.Equal(t, "list users", op.GetString("summary"))
	assert.Equal(t, document.ProgressMock, op.GetString(document.ExtProgress))

	rec = do(mux, "PUT", "/ouroboros/api/rest/operations",
		`{"path":"/users","method":"GET","operation":{"summary":"list all"}}`)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(mux, "DELETE", "/ouroboros/api/rest/operations",
		`{"path":"/users","method":"GET"}`)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(mux, "DELETE", "/ouroboros/api/rest/operations",
		`{"path":"/users","method":"GET"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestImportExportEndpoints(t *testing.T) {
	mux, _ := newTestHandler(t)

	rec := do(mux, "POST", "/ouroboros/api/rest/import?filename=up.yaml",
		"openapi: 2.0\npaths: {}\n")
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	var body map[string][]map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.NotEmpty(t, body["issues"])
	assert.Contains(t, body["issues"][0], "errorCode")

	valid := "openapi: 3.1.0\ninfo:\n  title: T\n  version: \"1\"\npaths: {}\n"
	rec = do(mux, "POST", "/ouroboros/api/rest/import?filename=up.yaml", valid)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(mux, "GET", "/ouroboros/api/rest/export", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/yaml", rec.Header().Get("Content-Type"))
	doc, err := document.LoadBytes(rec.Body.Bytes())
	require.NoError(t, err)
	assert.Equal(t, "T", doc.GetMap("info").GetString("title"))

	rec = do(mux, "GET", "/ouroboros/api/rest/spec", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var spec map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &spec))
	assert.Equal(t, "3.1.0", spec["openapi"])
}

func TestSyncEndpoint(t *testing.T) {
	scanned := document.MapOf(
		"openapi", "3.1.0",
		"paths", document.MapOf(
			"/orders", document.MapOf(
				"post", document.MapOf("summary", "create order"),
			),
		),
	)
	mux, specs := newTestHandler(t, WithScannedSpecProvider(func() (*document.Map, error) {
		return scanned, nil
	}))

	rec := do(mux, "POST", "/ouroboros/api/rest/sync",
		`{"method":"POST","path":"/orders"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	_, err := specs.GetOperation("/orders", "POST")
	require.NoError(t, err)

	// Promoting the same entry twice conflicts.
	rec = do(mux, "POST", "/ouroboros/api/rest/sync",
		`{"method":"POST","path":"/orders"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)

	// An entry absent from the scanned spec is not found.
	rec = do(mux, "POST", "/ouroboros/api/rest/sync",
		`{"method":"DELETE","path":"/orders"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSyncEndpointWithoutProvider(t *testing.T) {
	mux, _ := newTestHandler(t)
	rec := do(mux, "POST", "/ouroboros/api/rest/sync", `{"method":"GET","path":"/x"}`)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestMalformedBodies(t *testing.T) {
	mux, _ := newTestHandler(t)

	rec := do(mux, "POST", "/ouroboros/api/schemas/User", `{not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(mux, "POST", "/ouroboros/api/rest/operations", `[1,2]`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestWebSocketEndpoints(t *testing.T) {
	store := document.NewStore(filepath.Join(t.TempDir(), "asyncapi.yaml"))
	wsCo := service.NewCoordinator(service.KindWebSocket, store)
	ws := service.NewWebSocketService(wsCo)

	mux, _ := newTestHandler(t, WithWebSocketService(ws))

	rec := do(mux, "POST", "/ouroboros/api/ws/channels/greetings",
		`{"address":"/greetings"}`)
	assert.Equal(t, http.StatusCreated, rec.Code)

	rec = do(mux, "POST", "/ouroboros/api/ws/messages/Greeting",
		`{"payload":{"type":"object"}}`)
	assert.Equal(t, http.StatusCreated, rec.Code)

	rec = do(mux, "POST", "/ouroboros/api/ws/operations/sendGreeting",
		`{"action":"send","channel":{"$ref":"#/channels/greetings"}}`)
	assert.Equal(t, http.StatusCreated, rec.Code)

	rec = do(mux, "GET", "/ouroboros/api/ws/spec", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var spec map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &spec))
	assert.Contains(t, spec, "channels")
	assert.Contains(t, spec, "operations")

	rec = do(mux, "DELETE", "/ouroboros/api/ws/operations/sendGreeting", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = do(mux, "DELETE", "/ouroboros/api/ws/channels/greetings", "")
	// The channel was already pruned with its last referencing operation.
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestWebSocketRoutesAbsentWithoutService(t *testing.T) {
	mux, _ := newTestHandler(t)
	rec := do(mux, "GET", "/ouroboros/api/ws/spec", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
