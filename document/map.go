package document

import (
	"bytes"
	"encoding/json"
	"fmt"

	"go.yaml.in/yaml/v4"
)

// Map is an insertion-ordered mapping of string keys to document values.
//
// Values are a tagged union mirroring YAML structure directly:
// *Map for mappings, []any for sequences, and string/int/int64/float64/bool/nil
// for scalars. Map implements yaml.Unmarshaler, yaml.Marshaler and
// json.Marshaler, all of which preserve key insertion order.
//
// Map is not safe for concurrent mutation; callers serialize access through
// the per-document lock held by the CRUD services.
type Map struct {
	keys []string
	vals map[string]any
}

// NewMap creates an empty ordered map.
func NewMap() *Map {
	return &Map{vals: make(map[string]any)}
}

// MapOf creates a Map from alternating key/value pairs.
// It panics if the number of arguments is odd or a key is not a string;
// it is intended for literals in tests and builders.
func MapOf(pairs ...any) *Map {
	if len(pairs)%2 != 0 {
		panic("document.MapOf: odd number of arguments")
	}
	m := NewMap()
	for i := 0; i < len(pairs); i += 2 {
		key, ok := pairs[i].(string)
		if !ok {
			panic(fmt.Sprintf("document.MapOf: key at index %d is %T, not string", i, pairs[i]))
		}
		m.Set(key, pairs[i+1])
	}
	return m
}

// Len returns the number of keys in the map.
func (m *Map) Len() int {
	if m == nil {
		return 0
	}
	return len(m.keys)
}

// Keys returns the keys in insertion order. The returned slice is a copy.
func (m *Map) Keys() []string {
	if m == nil {
		return nil
	}
	out := make([]string, len(m.keys))
	copy(out, m.keys)
	return out
}

// Has reports whether key is present.
func (m *Map) Has(key string) bool {
	if m == nil {
		return false
	}
	_, ok := m.vals[key]
	return ok
}

// Get returns the value for key and whether it was present.
func (m *Map) Get(key string) (any, bool) {
	if m == nil {
		return nil, false
	}
	v, ok := m.vals[key]
	return v, ok
}

// GetMap returns the value for key if it is a *Map, or nil otherwise.
func (m *Map) GetMap(key string) *Map {
	v, ok := m.Get(key)
	if !ok {
		return nil
	}
	sub, _ := v.(*Map)
	return sub
}

// GetString returns the value for key if it is a string, or "" otherwise.
func (m *Map) GetString(key string) string {
	v, ok := m.Get(key)
	if !ok {
		return ""
	}
	s, _ := v.(string)
	return s
}

// GetSlice returns the value for key if it is a []any, or nil otherwise.
func (m *Map) GetSlice(key string) []any {
	v, ok := m.Get(key)
	if !ok {
		return nil
	}
	s, _ := v.([]any)
	return s
}

// GetInt returns the value for key as an int, handling the int, int64 and
// float64 scalars the YAML decoder may produce. The second return value is
// false when the key is absent or not numeric.
func (m *Map) GetInt(key string) (int, bool) {
	v, ok := m.Get(key)
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	}
	return 0, false
}

// Set inserts or replaces the value for key. A new key is appended at the end
// of the insertion order; replacing an existing key keeps its position.
// Set returns the map to allow chaining.
func (m *Map) Set(key string, v any) *Map {
	if m.vals == nil {
		m.vals = make(map[string]any)
	}
	if _, exists := m.vals[key]; !exists {
		m.keys = append(m.keys, key)
	}
	m.vals[key] = v
	return m
}

// SetIfAbsent inserts the value only when key is not already present.
// It reports whether an insert happened. This is the primitive behind
// non-destructive enrichment.
func (m *Map) SetIfAbsent(key string, v any) bool {
	if m.Has(key) {
		return false
	}
	m.Set(key, v)
	return true
}

// Delete removes key and reports whether it was present.
func (m *Map) Delete(key string) bool {
	if m == nil {
		return false
	}
	if _, ok := m.vals[key]; !ok {
		return false
	}
	delete(m.vals, key)
	for i, k := range m.keys {
		if k == key {
			m.keys = append(m.keys[:i], m.keys[i+1:]...)
			break
		}
	}
	return true
}

// Clone returns a deep copy of the map. Nested maps and sequences are copied;
// scalars are shared.
func (m *Map) Clone() *Map {
	if m == nil {
		return nil
	}
	out := NewMap()
	for _, k := range m.keys {
		out.Set(k, cloneValue(m.vals[k]))
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case *Map:
		return t.Clone()
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = cloneValue(e)
		}
		return out
	default:
		return v
	}
}

// ToPlain converts the tree to plain map[string]any / []any values, losing
// key order. Used at the boundary to JSON codecs and merge helpers that
// expect standard container types.
func (m *Map) ToPlain() map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m.keys))
	for _, k := range m.keys {
		out[k] = plainValue(m.vals[k])
	}
	return out
}

func plainValue(v any) any {
	switch t := v.(type) {
	case *Map:
		return t.ToPlain()
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = plainValue(e)
		}
		return out
	default:
		return v
	}
}

// UnmarshalYAML implements yaml.Unmarshaler, decoding a mapping node into an
// ordered map. The document wrapper around a top-level mapping is unwrapped;
// alias nodes are followed; non-mapping nodes are an error.
func (m *Map) UnmarshalYAML(node *yaml.Node) error {
	for node.Kind == yaml.DocumentNode && len(node.Content) == 1 {
		node = node.Content[0]
	}
	for node.Kind == yaml.AliasNode {
		node = node.Alias
	}
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("document: expected mapping node, got %v at line %d", node.Kind, node.Line)
	}
	m.keys = nil
	m.vals = make(map[string]any, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		keyNode := node.Content[i]
		var key string
		if err := keyNode.Decode(&key); err != nil {
			return fmt.Errorf("document: mapping key at line %d: %w", keyNode.Line, err)
		}
		val, err := decodeNode(node.Content[i+1])
		if err != nil {
			return err
		}
		m.Set(key, val)
	}
	return nil
}

func decodeNode(node *yaml.Node) (any, error) {
	for node.Kind == yaml.AliasNode {
		node = node.Alias
	}
	switch node.Kind {
	case yaml.MappingNode:
		sub := NewMap()
		if err := sub.UnmarshalYAML(node); err != nil {
			return nil, err
		}
		return sub, nil
	case yaml.SequenceNode:
		seq := make([]any, 0, len(node.Content))
		for _, child := range node.Content {
			v, err := decodeNode(child)
			if err != nil {
				return nil, err
			}
			seq = append(seq, v)
		}
		return seq, nil
	default:
		var v any
		if err := node.Decode(&v); err != nil {
			return nil, fmt.Errorf("document: scalar at line %d: %w", node.Line, err)
		}
		return v, nil
	}
}

// MarshalYAML implements yaml.Marshaler, emitting a mapping node with keys in
// insertion order.
func (m *Map) MarshalYAML() (any, error) {
	return m.toNode()
}

func (m *Map) toNode() (*yaml.Node, error) {
	node := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	if m == nil {
		return node, nil
	}
	for _, k := range m.keys {
		keyNode := &yaml.Node{}
		if err := keyNode.Encode(k); err != nil {
			return nil, err
		}
		valNode, err := encodeValue(m.vals[k])
		if err != nil {
			return nil, err
		}
		node.Content = append(node.Content, keyNode, valNode)
	}
	return node, nil
}

func encodeValue(v any) (*yaml.Node, error) {
	switch t := v.(type) {
	case *Map:
		return t.toNode()
	case []any:
		node := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
		for _, e := range t {
			child, err := encodeValue(e)
			if err != nil {
				return nil, err
			}
			node.Content = append(node.Content, child)
		}
		return node, nil
	default:
		node := &yaml.Node{}
		if err := node.Encode(v); err != nil {
			return nil, err
		}
		return node, nil
	}
}

// MarshalJSON implements json.Marshaler with keys in insertion order.
func (m *Map) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range m.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		keyJSON, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		buf.Write(keyJSON)
		buf.WriteByte(':')
		valJSON, err := json.Marshal(m.vals[k])
		if err != nil {
			return nil, err
		}
		buf.Write(valJSON)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
