package service

import (
	"github.com/ouroborosapi/ouroboros/document"
	"github.com/ouroborosapi/ouroboros/ouroerrors"
)

// SchemaService provides CRUD over components/schemas of one document.
//
// Name resolution falls back from the exact name to the trailing segment
// after the last dot, so fully-qualified names from scanned specs and the
// simple names used in the file resolve transparently to the same schema.
type SchemaService struct {
	co  *Coordinator
	log document.Logger
}

// NewSchemaService creates a schema service over the coordinator's document.
func NewSchemaService(co *Coordinator) *SchemaService {
	return &SchemaService{co: co, log: co.log.With("service", "schema")}
}

// Create adds a new named schema. It fails with a duplicate error, before
// any write occurs, if the name (or its simple form) already exists.
func (s *SchemaService) Create(name string, schema *document.Map) error {
	return s.co.Write(func(doc *document.Map) error {
		schemas := document.EnsureSchemas(doc)
		if _, _, ok := document.LookupSchema(schemas, name); ok {
			return ouroerrors.Duplicate("schema", name)
		}
		schemas.Set(name, schema.Clone())
		s.log.Info("schema created", "schema", name)
		return nil
	})
}

// Get returns a copy of the named schema, trying the exact name first and
// the simple-name fallback second.
func (s *SchemaService) Get(name string) (*document.Map, error) {
	var out *document.Map
	err := s.co.Read(func(doc *document.Map) error {
		schema, _, ok := document.LookupSchema(document.Schemas(doc), name)
		if !ok {
			return ouroerrors.NotFound("schema", name)
		}
		out = schema.Clone()
		return nil
	})
	return out, err
}

// GetAll returns a copy of the full schema table.
func (s *SchemaService) GetAll() (*document.Map, error) {
	var out *document.Map
	err := s.co.Read(func(doc *document.Map) error {
		out = document.EnsureSchemas(doc).Clone()
		return nil
	})
	return out, err
}

// Update replaces the named schema in place, preserving its position in the
// table. The name fallback applies; the replacement is stored under the name
// already present in the file.
func (s *SchemaService) Update(name string, schema *document.Map) error {
	return s.co.Write(func(doc *document.Map) error {
		schemas := document.EnsureSchemas(doc)
		_, resolved, ok := document.LookupSchema(schemas, name)
		if !ok {
			return ouroerrors.NotFound("schema", name)
		}
		schemas.Set(resolved, schema.Clone())
		s.log.Info("schema updated", "schema", resolved)
		return nil
	})
}

// Delete removes the named schema, trying the exact name and then the
// simple-name fallback. It fails with not-found only when both fail.
func (s *SchemaService) Delete(name string) error {
	return s.co.Write(func(doc *document.Map) error {
		schemas := document.EnsureSchemas(doc)
		_, resolved, ok := document.LookupSchema(schemas, name)
		if !ok {
			return ouroerrors.NotFound("schema", name)
		}
		schemas.Delete(resolved)
		s.log.Info("schema deleted", "schema", resolved)
		return nil
	})
}
