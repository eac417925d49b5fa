package service

import (
	"strings"

	"github.com/ouroborosapi/ouroboros/document"
	"github.com/ouroborosapi/ouroboros/importer"
	"github.com/ouroborosapi/ouroboros/ouroerrors"
	"github.com/ouroborosapi/ouroboros/syncer"
)

// SpecService provides CRUD over the REST (OpenAPI) specification document:
// operations under paths, whole-document import/export, and reconciliation
// against a code-scanned spec.
type SpecService struct {
	co  *Coordinator
	syn *syncer.Syncer
	log document.Logger
}

// NewSpecService creates a spec service over the coordinator's document.
func NewSpecService(co *Coordinator) *SpecService {
	return &SpecService{
		co:  co,
		syn: syncer.New(syncer.WithLogger(co.log)),
		log: co.log.With("service", "spec"),
	}
}

// Document returns a copy of the full enriched document.
func (s *SpecService) Document() (*document.Map, error) {
	var out *document.Map
	err := s.co.Read(func(doc *document.Map) error {
		out = doc.Clone()
		return nil
	})
	return out, err
}

// Export returns the raw persisted file bytes verbatim.
func (s *SpecService) Export() ([]byte, error) {
	s.co.mu.RLock()
	defer s.co.mu.RUnlock()
	return s.co.store.Raw()
}

// Import validates an uploaded document exhaustively and, only when the
// batch of issues is empty, replaces the stored specification. An invalid
// import is never partially applied.
func (s *SpecService) Import(filename string, data []byte) error {
	if issues := importer.Validate(filename, data); len(issues) > 0 {
		return &ouroerrors.ImportError{Issues: issues}
	}
	uploaded, err := document.LoadBytes(data)
	if err != nil {
		return err
	}
	return s.co.Write(func(doc *document.Map) error {
		// Replace the whole tree in place; enrichment runs on save.
		for _, key := range doc.Keys() {
			doc.Delete(key)
		}
		for _, key := range uploaded.Keys() {
			v, _ := uploaded.Get(key)
			doc.Set(key, v)
		}
		s.log.Info("specification imported", "file", filename)
		return nil
	})
}

// GetOperation returns a copy of the operation at path+method.
func (s *SpecService) GetOperation(path, method string) (*document.Map, error) {
	method = strings.ToLower(method)
	var out *document.Map
	err := s.co.Read(func(doc *document.Map) error {
		op := document.Paths(doc).GetMap(path).GetMap(method)
		if op == nil {
			return ouroerrors.NotFound("operation", strings.ToUpper(method)+" "+path)
		}
		out = op.Clone()
		return nil
	})
	return out, err
}

// CreateOperation adds an operation at path+method. It fails with a
// duplicate error before any write when the combination already exists.
func (s *SpecService) CreateOperation(path, method string, op *document.Map) error {
	method = strings.ToLower(method)
	return s.co.Write(func(doc *document.Map) error {
		paths := document.EnsurePaths(doc)
		item := document.EnsurePath(paths, path)
		if item.GetMap(method) != nil {
			return ouroerrors.Duplicate("operation", strings.ToUpper(method)+" "+path)
		}
		item.Set(method, op.Clone())
		s.log.Info("operation created", "method", strings.ToUpper(method), "path", path)
		return nil
	})
}

// UpdateOperation replaces the operation at path+method.
func (s *SpecService) UpdateOperation(path, method string, op *document.Map) error {
	method = strings.ToLower(method)
	return s.co.Write(func(doc *document.Map) error {
		item := document.Paths(doc).GetMap(path)
		if item.GetMap(method) == nil {
			return ouroerrors.NotFound("operation", strings.ToUpper(method)+" "+path)
		}
		item.Set(method, op.Clone())
		s.log.Info("operation updated", "method", strings.ToUpper(method), "path", path)
		return nil
	})
}

// DeleteOperation removes the operation at path+method, pruning the path
// item when no methods remain under it.
func (s *SpecService) DeleteOperation(path, method string) error {
	method = strings.ToLower(method)
	return s.co.Write(func(doc *document.Map) error {
		paths := document.Paths(doc)
		item := paths.GetMap(path)
		if item.GetMap(method) == nil {
			return ouroerrors.NotFound("operation", strings.ToUpper(method)+" "+path)
		}
		item.Delete(method)
		if !hasAnyMethod(item) {
			paths.Delete(path)
		}
		s.log.Info("operation deleted", "method", strings.ToUpper(method), "path", path)
		return nil
	})
}

// Reconcile updates the file document's diff markers against a scanned spec
// and persists the result when anything changed.
func (s *SpecService) Reconcile(scanned *document.Map) (*syncer.Result, error) {
	var res *syncer.Result
	err := s.co.Write(func(doc *document.Map) error {
		res = s.syn.ReconcileREST(doc, scanned)
		return nil
	})
	return res, err
}

// Promote pulls a scanned-only operation into the file spec, together with
// the schemas it references.
func (s *SpecService) Promote(scanned *document.Map, method, path string) (*syncer.Result, error) {
	var res *syncer.Result
	err := s.co.Write(func(doc *document.Map) error {
		var promoteErr error
		res, promoteErr = s.syn.PromoteREST(doc, scanned, method, path)
		return promoteErr
	})
	return res, err
}

// hasAnyMethod reports whether a path item still carries an HTTP method key.
func hasAnyMethod(item *document.Map) bool {
	for _, key := range item.Keys() {
		if document.IsHTTPMethod(key) {
			return true
		}
	}
	return false
}
