// Package httpapi exposes the REST control surface consumed by the editing
// UI: CRUD over schemas and operations, whole-document import/export, and
// the sync endpoint that promotes scanned-only entries into the file.
//
// DTO conversion happens only at this boundary; the core packages work on
// the generic document tree. Domain errors are translated to structured
// responses: not-found becomes 404, duplicate 409, rejected imports 422 with
// the full issue batch, malformed input 400.
package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/ouroborosapi/ouroboros/document"
	"github.com/ouroborosapi/ouroboros/ouroerrors"
	"github.com/ouroborosapi/ouroboros/service"
)

// maxBodySize bounds request bodies accepted by the control surface.
const maxBodySize = 16 << 20 // 16MB

// ScannedSpecProvider supplies the current code-scanned specification for
// sync requests, typically by fetching the host application's generated
// OpenAPI document.
type ScannedSpecProvider func() (*document.Map, error)

// Handler serves the control surface over the spec, schema and websocket
// services.
type Handler struct {
	spec    *service.SpecService
	schemas *service.SchemaService
	ws      *service.WebSocketService
	scanned ScannedSpecProvider
	log     document.Logger
}

// Option configures a Handler.
type Option func(*Handler)

// WithLogger sets the logger used by the handler. Defaults to NopLogger.
func WithLogger(log document.Logger) Option {
	return func(h *Handler) {
		if log != nil {
			h.log = log
		}
	}
}

// WithWebSocketService attaches the AsyncAPI CRUD surface.
func WithWebSocketService(ws *service.WebSocketService) Option {
	return func(h *Handler) { h.ws = ws }
}

// WithScannedSpecProvider attaches the scanned-spec source for sync requests.
func WithScannedSpecProvider(p ScannedSpecProvider) Option {
	return func(h *Handler) { h.scanned = p }
}

// New creates the control surface handler.
func New(spec *service.SpecService, schemas *service.SchemaService, opts ...Option) *Handler {
	h := &Handler{spec: spec, schemas: schemas, log: document.NopLogger{}}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Routes registers all control surface endpoints on mux.
func (h *Handler) Routes(mux *http.ServeMux) {
	mux.HandleFunc("GET /ouroboros/api/rest/spec", h.getSpec)
	mux.HandleFunc("GET /ouroboros/api/rest/export", h.exportSpec)
	mux.HandleFunc("POST /ouroboros/api/rest/import", h.importSpec)
	mux.HandleFunc("POST /ouroboros/api/rest/sync", h.syncSpec)

	mux.HandleFunc("GET /ouroboros/api/schemas", h.listSchemas)
	mux.HandleFunc("GET /ouroboros/api/schemas/{name}", h.getSchema)
	mux.HandleFunc("POST /ouroboros/api/schemas/{name}", h.createSchema)
	mux.HandleFunc("PUT /ouroboros/api/schemas/{name}", h.updateSchema)
	mux.HandleFunc("DELETE /ouroboros/api/schemas/{name}", h.deleteSchema)

	mux.HandleFunc("POST /ouroboros/api/rest/operations", h.createOperation)
	mux.HandleFunc("PUT /ouroboros/api/rest/operations", h.updateOperation)
	mux.HandleFunc("DELETE /ouroboros/api/rest/operations", h.deleteOperation)

	if h.ws != nil {
		mux.HandleFunc("GET /ouroboros/api/ws/spec", h.getWSSpec)
		mux.HandleFunc("POST /ouroboros/api/ws/channels/{name}", h.createChannel)
		mux.HandleFunc("PUT /ouroboros/api/ws/channels/{name}", h.updateChannel)
		mux.HandleFunc("DELETE /ouroboros/api/ws/channels/{name}", h.deleteChannel)
		mux.HandleFunc("POST /ouroboros/api/ws/messages/{name}", h.createMessage)
		mux.HandleFunc("PUT /ouroboros/api/ws/messages/{name}", h.updateMessage)
		mux.HandleFunc("DELETE /ouroboros/api/ws/messages/{name}", h.deleteMessage)
		mux.HandleFunc("POST /ouroboros/api/ws/operations/{name}", h.createWSOperation)
		mux.HandleFunc("PUT /ouroboros/api/ws/operations/{name}", h.updateWSOperation)
		mux.HandleFunc("DELETE /ouroboros/api/ws/operations/{name}", h.deleteWSOperation)
	}
}

func (h *Handler) getSpec(w http.ResponseWriter, r *http.Request) {
	doc, err := h.spec.Document()
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (h *Handler) exportSpec(w http.ResponseWriter, r *http.Request) {
	data, err := h.spec.Export()
	if err != nil {
		h.writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/yaml")
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

func (h *Handler) importSpec(w http.ResponseWriter, r *http.Request) {
	filename := r.URL.Query().Get("filename")
	if filename == "" {
		filename = "import.yaml"
	}
	data, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
	if err != nil {
		h.writeError(w, err)
		return
	}
	if err := h.spec.Import(filename, data); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// syncRequest names the scanned-only entry to promote into the file.
type syncRequest struct {
	Method string `json:"method"`
	Path   string `json:"path"`
}

func (h *Handler) syncSpec(w http.ResponseWriter, r *http.Request) {
	if h.scanned == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "no scanned spec source configured"})
		return
	}
	var req syncRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodySize)).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "malformed sync request: " + err.Error()})
		return
	}
	scanned, err := h.scanned()
	if err != nil {
		h.writeError(w, err)
		return
	}
	res, err := h.spec.Promote(scanned, req.Method, req.Path)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"pulledSchemas": res.PulledSchemas})
}

func (h *Handler) listSchemas(w http.ResponseWriter, r *http.Request) {
	schemas, err := h.schemas.GetAll()
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, schemas)
}

func (h *Handler) getSchema(w http.ResponseWriter, r *http.Request) {
	schema, err := h.schemas.Get(r.PathValue("name"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, schema)
}

func (h *Handler) createSchema(w http.ResponseWriter, r *http.Request) {
	schema, err := readBodyMap(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	if err := h.schemas.Create(r.PathValue("name"), schema); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
}

func (h *Handler) updateSchema(w http.ResponseWriter, r *http.Request) {
	schema, err := readBodyMap(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	if err := h.schemas.Update(r.PathValue("name"), schema); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) deleteSchema(w http.ResponseWriter, r *http.Request) {
	if err := h.schemas.Delete(r.PathValue("name")); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// operationRequest carries a REST operation mutation.
type operationRequest struct {
	Path      string          `json:"path"`
	Method    string          `json:"method"`
	Operation json.RawMessage `json:"operation"`
}

func (h *Handler) readOperationRequest(r *http.Request) (*operationRequest, *document.Map, error) {
	var req operationRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodySize)).Decode(&req); err != nil {
		return nil, nil, err
	}
	var op *document.Map
	if len(req.Operation) > 0 {
		var err error
		op, err = document.FromJSON(req.Operation)
		if err != nil {
			return nil, nil, err
		}
	}
	return &req, op, nil
}

func (h *Handler) createOperation(w http.ResponseWriter, r *http.Request) {
	req, op, err := h.readOperationRequest(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	if op == nil {
		op = document.NewMap()
	}
	if err := h.spec.CreateOperation(req.Path, req.Method, op); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
}

func (h *Handler) updateOperation(w http.ResponseWriter, r *http.Request) {
	req, op, err := h.readOperationRequest(r)
	if err != nil || op == nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "malformed operation request"})
		return
	}
	if err := h.spec.UpdateOperation(req.Path, req.Method, op); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) deleteOperation(w http.ResponseWriter, r *http.Request) {
	req, _, err := h.readOperationRequest(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	if err := h.spec.DeleteOperation(req.Path, req.Method); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) getWSSpec(w http.ResponseWriter, r *http.Request) {
	doc, err := h.ws.Document()
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (h *Handler) createChannel(w http.ResponseWriter, r *http.Request) {
	h.wsMutation(w, r, h.ws.CreateChannel, http.StatusCreated)
}

func (h *Handler) updateChannel(w http.ResponseWriter, r *http.Request) {
	h.wsMutation(w, r, h.ws.UpdateChannel, http.StatusNoContent)
}

func (h *Handler) deleteChannel(w http.ResponseWriter, r *http.Request) {
	h.wsDelete(w, r, h.ws.DeleteChannel)
}

func (h *Handler) createMessage(w http.ResponseWriter, r *http.Request) {
	h.wsMutation(w, r, h.ws.CreateMessage, http.StatusCreated)
}

func (h *Handler) updateMessage(w http.ResponseWriter, r *http.Request) {
	h.wsMutation(w, r, h.ws.UpdateMessage, http.StatusNoContent)
}

func (h *Handler) deleteMessage(w http.ResponseWriter, r *http.Request) {
	h.wsDelete(w, r, h.ws.DeleteMessage)
}

func (h *Handler) createWSOperation(w http.ResponseWriter, r *http.Request) {
	h.wsMutation(w, r, h.ws.CreateOperation, http.StatusCreated)
}

func (h *Handler) updateWSOperation(w http.ResponseWriter, r *http.Request) {
	h.wsMutation(w, r, h.ws.UpdateOperation, http.StatusNoContent)
}

func (h *Handler) deleteWSOperation(w http.ResponseWriter, r *http.Request) {
	h.wsDelete(w, r, h.ws.DeleteOperation)
}

// wsMutation runs one named create/update against a websocket service method.
func (h *Handler) wsMutation(w http.ResponseWriter, r *http.Request, fn func(string, *document.Map) error, okStatus int) {
	body, err := readBodyMap(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	if err := fn(r.PathValue("name"), body); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(okStatus)
}

func (h *Handler) wsDelete(w http.ResponseWriter, r *http.Request, fn func(string) error) {
	if err := fn(r.PathValue("name")); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// writeError translates domain errors into structured API responses.
func (h *Handler) writeError(w http.ResponseWriter, err error) {
	var importErr *ouroerrors.ImportError
	switch {
	case errors.As(err, &importErr):
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{"issues": importErr.Issues})
	case errors.Is(err, ouroerrors.ErrNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
	case errors.Is(err, ouroerrors.ErrDuplicate):
		writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
	case errors.Is(err, ouroerrors.ErrParse):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	default:
		h.log.Error("control surface request failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}
}

func readBodyMap(r *http.Request) (*document.Map, error) {
	data, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return document.NewMap(), nil
	}
	return document.FromJSON(data)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
