package enricher

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ouroborosapi/ouroboros/document"
)

// sequentialIDs returns a deterministic generator for tests.
func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("id-%04d", n)
	}
}

func restDoc() *document.Map {
	return document.MapOf(
		"openapi", "3.1.0",
		"info", document.MapOf("title", "Demo", "version", "1.0.0"),
		"paths", document.MapOf(
			"/users", document.MapOf(
				"get", document.MapOf("summary", "list users"),
				"post", document.MapOf("summary", "create user"),
			),
		),
		"components", document.MapOf(
			"schemas", document.MapOf(
				"User", document.MapOf(
					"type", "object",
					"properties", document.MapOf(
						"id", document.MapOf("type", "integer"),
						"name", document.MapOf("type", "string"),
					),
				),
			),
		),
	)
}

func TestEnrichRESTDefaults(t *testing.T) {
	e := New(WithIDGenerator(sequentialIDs()))
	doc := restDoc()

	res := e.EnrichREST(doc)
	assert.Equal(t, 2, res.Operations)
	assert.Equal(t, 1, res.Schemas)
	assert.True(t, res.Changed())

	get := document.GetPath(doc, "paths", "/users", "get")
	require.NotNil(t, get)
	assert.Equal(t, "id-0001", get.GetString(document.ExtID))
	assert.Equal(t, document.ProgressMock, get.GetString(document.ExtProgress))
	assert.Equal(t, document.TagNone, get.GetString(document.ExtTag))
	assert.Equal(t, document.DiffNone, get.GetString(document.ExtDiff))

	user := document.GetPath(doc, "components", "schemas", "User")
	require.NotNil(t, user)
	assert.Equal(t, []any{"id", "name"}, user.GetSlice(document.ExtOrder))
	idProp := user.GetMap("properties").GetMap("id")
	assert.True(t, idProp.Has(document.ExtMock))
	assert.Equal(t, "", idProp.GetString(document.ExtMock))
}

func TestEnrichIsIdempotent(t *testing.T) {
	e := New(WithIDGenerator(sequentialIDs()))
	doc := restDoc()

	first := e.EnrichREST(doc)
	require.True(t, first.Changed())
	snapshot := doc.Clone().ToPlain()

	second := e.EnrichREST(doc)
	assert.False(t, second.Changed())
	assert.Equal(t, snapshot, doc.ToPlain())
}

func TestEnrichPreservesExistingValues(t *testing.T) {
	e := New(WithIDGenerator(sequentialIDs()))
	doc := restDoc()
	get := document.GetPath(doc, "paths", "/users", "get")
	get.Set(document.ExtProgress, document.ProgressCompleted)
	get.Set(document.ExtID, "keep-me")

	e.EnrichREST(doc)
	assert.Equal(t, "keep-me", get.GetString(document.ExtID))
	assert.Equal(t, document.ProgressCompleted, get.GetString(document.ExtProgress))
	// The absent fields still got defaults.
	assert.Equal(t, document.TagNone, get.GetString(document.ExtTag))
}

func TestEnrichOrderNotRewrittenForExisting(t *testing.T) {
	e := New()
	doc := restDoc()
	user := document.GetPath(doc, "components", "schemas", "User")
	user.Set(document.ExtOrder, []any{"name", "id"})

	e.EnrichREST(doc)
	assert.Equal(t, []any{"name", "id"}, user.GetSlice(document.ExtOrder))
}

func TestEnrichSwapsInvertedItemConstraints(t *testing.T) {
	e := New()
	doc := restDoc()
	schemas := document.Schemas(doc)
	schemas.Set("Tags", document.MapOf(
		"type", "array",
		"minItems", 5,
		"maxItems", 2,
		"items", document.MapOf("type", "string"),
	))
	schemas.Set("Valid", document.MapOf(
		"type", "array",
		"minItems", 2,
		"maxItems", 5,
		"items", document.MapOf("type", "string"),
	))

	res := e.EnrichREST(doc)
	assert.Equal(t, 1, res.ConstraintFixes)

	tags := schemas.GetMap("Tags")
	minItems, _ := tags.GetInt("minItems")
	maxItems, _ := tags.GetInt("maxItems")
	assert.Equal(t, 2, minItems)
	assert.Equal(t, 5, maxItems)

	valid := schemas.GetMap("Valid")
	minItems, _ = valid.GetInt("minItems")
	maxItems, _ = valid.GetInt("maxItems")
	assert.Equal(t, 2, minItems)
	assert.Equal(t, 5, maxItems)
}

func TestEnrichStubsDanglingRefs(t *testing.T) {
	e := New()
	doc := restDoc()
	get := document.GetPath(doc, "paths", "/users", "get")
	get.Set("responses", document.MapOf(
		"200", document.MapOf(
			"content", document.MapOf(
				"application/json", document.MapOf(
					"schema", document.MapOf("$ref", "#/components/schemas/UserPage"),
				),
			),
		),
	))

	res := e.EnrichREST(doc)
	assert.Equal(t, 1, res.Stubs)

	stub := document.GetPath(doc, "components", "schemas", "UserPage")
	require.NotNil(t, stub)
	assert.Equal(t, "object", stub.GetString("type"))
	require.NotNil(t, stub.GetMap("properties"))
	assert.Equal(t, []any{}, stub.GetSlice(document.ExtOrder))

	// Already-present targets are never stubbed again.
	res = e.EnrichREST(doc)
	assert.Equal(t, 0, res.Stubs)
}

func TestEnrichRepairsNullSecurity(t *testing.T) {
	e := New()
	doc := restDoc()
	doc.Set("security", nil)

	e.EnrichREST(doc)
	v, ok := doc.Get("security")
	require.True(t, ok)
	assert.Equal(t, []any{}, v)
}

func TestEnrichWebSocket(t *testing.T) {
	e := New(WithIDGenerator(sequentialIDs()))
	doc := document.MapOf(
		"asyncapi", "3.0.0",
		"info", document.MapOf("title", "Events", "version", "1.0.0"),
		"operations", document.MapOf(
			"sendGreeting", document.MapOf(
				"action", "send",
				"channel", document.MapOf("$ref", "#/channels/greetings"),
			),
		),
		"channels", document.MapOf(
			"greetings", document.MapOf("address", "/greetings"),
		),
	)

	res := e.EnrichWebSocket(doc)
	assert.Equal(t, 1, res.Operations)

	op := document.GetPath(doc, "operations", "sendGreeting")
	assert.Equal(t, document.ProgressMock, op.GetString(document.ExtProgress))

	// The components skeleton is ensured even when empty.
	assert.NotNil(t, document.Schemas(doc))
	assert.NotNil(t, document.Messages(doc))
}

func TestEnrichEmptyDocument(t *testing.T) {
	doc := document.NewMap()
	res := New().EnrichREST(doc)
	assert.False(t, res.Changed())
	assert.NotNil(t, document.Paths(doc))
	assert.NotNil(t, document.Schemas(doc))
}
