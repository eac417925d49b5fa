package mockserver

import (
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ouroborosapi/ouroboros/document"
)

func TestGenerateValueObjectShape(t *testing.T) {
	schema := document.MapOf(
		"type", "object",
		"properties", document.MapOf(
			"id", document.MapOf("type", "integer"),
			"ratio", document.MapOf("type", "number"),
			"name", document.MapOf("type", "string"),
			"active", document.MapOf("type", "boolean"),
			"tags", document.MapOf(
				"type", "array",
				"items", document.MapOf("type", "string"),
			),
		),
	)

	v := GenerateValue(schema)
	obj, ok := v.(map[string]any)
	require.True(t, ok)

	assert.IsType(t, 0, obj["id"])
	assert.IsType(t, float64(0), obj["ratio"])
	assert.IsType(t, "", obj["name"])
	assert.IsType(t, false, obj["active"])

	tags, ok := obj["tags"].([]any)
	require.True(t, ok)
	require.Len(t, tags, 1)
	assert.IsType(t, "", tags[0])
}

func TestGenerateValueMockHint(t *testing.T) {
	// A hint with no template directives passes through verbatim, so fixed
	// values are expressible.
	schema := document.MapOf("type", "string", document.ExtMock, "fixed-value")
	assert.Equal(t, "fixed-value", GenerateValue(schema))

	num := document.MapOf("type", "integer", document.ExtMock, "42")
	assert.Equal(t, 42, GenerateValue(num))

	ratio := document.MapOf("type", "number", document.ExtMock, "2.5")
	assert.Equal(t, 2.5, GenerateValue(ratio))
}

func TestGenerateValueTemplateHint(t *testing.T) {
	schema := document.MapOf("type", "string", document.ExtMock, "{firstname} {lastname}")
	v, ok := GenerateValue(schema).(string)
	require.True(t, ok)
	assert.NotEmpty(t, v)
	// The directives were rendered, not echoed.
	assert.NotContains(t, v, "{")
	assert.Contains(t, v, " ")
}

func TestGenerateValueNumericHintFallback(t *testing.T) {
	// A hint that renders to a non-number falls back to a generated number.
	schema := document.MapOf("type", "integer", document.ExtMock, "not-a-number")
	v, ok := GenerateValue(schema).(int)
	require.True(t, ok)
	assert.GreaterOrEqual(t, v, 1)
	assert.LessOrEqual(t, v, 1000)
}

func TestGenerateValueStringFormats(t *testing.T) {
	uuidRe := regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`)
	v := GenerateValue(document.MapOf("type", "string", "format", "uuid"))
	assert.Regexp(t, uuidRe, v)

	v = GenerateValue(document.MapOf("type", "string", "format", "email"))
	assert.Contains(t, v, "@")

	v = GenerateValue(document.MapOf("type", "string", "format", "date"))
	_, err := time.Parse("2006-01-02", v.(string))
	assert.NoError(t, err)

	v = GenerateValue(document.MapOf("type", "string", "format", "date-time"))
	_, err = time.Parse(time.RFC3339, v.(string))
	assert.NoError(t, err)
}

func TestGenerateValueUntyped(t *testing.T) {
	assert.Equal(t, map[string]any{}, GenerateValue(nil))
	assert.Equal(t, map[string]any{}, GenerateValue(document.NewMap()))

	// An untyped mapping that carries properties is treated as an object.
	schema := document.MapOf(
		"properties", document.MapOf("k", document.MapOf("type", "string")),
	)
	obj, ok := GenerateValue(schema).(map[string]any)
	require.True(t, ok)
	assert.Contains(t, obj, "k")
}

func TestMarshalXML(t *testing.T) {
	data, err := marshalXML("response", map[string]any{
		"name": "a<b",
		"tags": []any{"x", "y"},
	})
	require.NoError(t, err)
	s := string(data)
	assert.True(t, len(s) > 0)
	assert.Contains(t, s, "<response>")
	assert.Contains(t, s, "<name>a&lt;b</name>")
	assert.Contains(t, s, "<item>x</item>")
}
