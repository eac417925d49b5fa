package document

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"go.yaml.in/yaml/v4"

	"github.com/ouroborosapi/ouroboros/ouroerrors"
)

// Store reads and writes one specification document file. The file is the
// single source of truth: in-memory registries and caches are derived from it
// and rebuilt from it on any ambiguity.
//
// Load always reads fresh from disk; Save writes atomically (temp file then
// rename) so the document is never partially persisted.
type Store struct {
	path string
	log  Logger
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithStoreLogger sets the logger used by the store. Defaults to NopLogger.
func WithStoreLogger(log Logger) StoreOption {
	return func(s *Store) {
		if log != nil {
			s.log = log
		}
	}
}

// NewStore creates a store for the document at path.
func NewStore(path string, opts ...StoreOption) *Store {
	s := &Store{path: path, log: NopLogger{}}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Path returns the file path backing the store.
func (s *Store) Path() string { return s.path }

// Exists reports whether the backing file exists.
func (s *Store) Exists() bool {
	_, err := os.Stat(s.path)
	return err == nil
}

// Load reads and parses the document from disk.
//
// A missing file is returned as the os.Stat / fs.ErrNotExist error from the
// read; callers decide whether absence is an error (CRUD services) or an
// empty state (mock registry loader). Malformed YAML is wrapped in a
// *ouroerrors.ParseError and the file is left untouched.
func (s *Store) Load() (*Map, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, err
	}
	doc := NewMap()
	if err := yaml.Unmarshal(data, doc); err != nil {
		s.log.Error("failed to parse document", "path", s.path, "error", err)
		return nil, &ouroerrors.ParseError{Path: s.path, Err: err}
	}
	return doc, nil
}

// LoadBytes parses a document from raw YAML without touching disk.
func LoadBytes(data []byte) (*Map, error) {
	doc := NewMap()
	if err := yaml.Unmarshal(data, doc); err != nil {
		return nil, &ouroerrors.ParseError{Err: err}
	}
	return doc, nil
}

// Raw returns the persisted file bytes verbatim, for export.
func (s *Store) Raw() ([]byte, error) {
	return os.ReadFile(s.path)
}

// Marshal serializes a document tree to YAML with two-space indentation,
// preserving key insertion order.
func Marshal(doc *Map) (data []byte, err error) {
	// The yaml encoder panics on values it cannot encode; surface that as
	// an error so Save never tears down the caller.
	defer func() {
		if r := recover(); r != nil {
			data, err = nil, fmt.Errorf("encode yaml: %v", r)
		}
	}()
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Save serializes the document and writes it atomically: the YAML is written
// to a temp file in the same directory, fsynced, then renamed over the
// target. Any failure leaves the previous file intact.
func (s *Store) Save(doc *Map) error {
	data, err := Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal document: %w", err)
	}
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create document directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace document: %w", err)
	}
	s.log.Debug("document saved", "path", s.path, "bytes", len(data))
	return nil
}
