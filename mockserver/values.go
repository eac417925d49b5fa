package mockserver

import (
	"strconv"
	"time"

	"github.com/brianvoe/gofakeit/v7"

	"github.com/ouroborosapi/ouroboros/document"
)

// GenerateValue instantiates a resolved schema with fake leaf values.
//
// Every leaf primitive gets a value consistent with its declared type and
// format. A property's x-ouroboros-mock hint, when present, is rendered
// through the faker's template engine (e.g. "{firstname} {lastname}"); for
// numeric types the rendered hint is used only when it parses as a number.
// Objects come back as map[string]any, arrays as a single-element []any.
func GenerateValue(schema *document.Map) any {
	if schema == nil {
		return map[string]any{}
	}

	typ := schema.GetString("type")
	if typ == "" && schema.GetMap("properties") != nil {
		typ = "object"
	}

	switch typ {
	case "object":
		out := make(map[string]any)
		props := schema.GetMap("properties")
		for _, name := range props.Keys() {
			out[name] = GenerateValue(props.GetMap(name))
		}
		return out

	case "array":
		return []any{GenerateValue(schema.GetMap("items"))}

	case "string":
		return generateString(schema)

	case "integer":
		if rendered, ok := renderHint(schema); ok {
			if n, err := strconv.Atoi(rendered); err == nil {
				return n
			}
		}
		return gofakeit.Number(1, 1000)

	case "number":
		if rendered, ok := renderHint(schema); ok {
			if f, err := strconv.ParseFloat(rendered, 64); err == nil {
				return f
			}
		}
		return gofakeit.Float64Range(0, 1000)

	case "boolean":
		return gofakeit.Bool()
	}

	// Untyped leaf (e.g. an empty schema from an unresolvable ref).
	return map[string]any{}
}

// renderHint renders the schema's x-ouroboros-mock template, reporting false
// when no hint is set or the template fails to render.
func renderHint(schema *document.Map) (string, bool) {
	hint := schema.GetString(document.ExtMock)
	if hint == "" {
		return "", false
	}
	rendered, err := gofakeit.Generate(hint)
	if err != nil {
		return "", false
	}
	return rendered, true
}

func generateString(schema *document.Map) string {
	if rendered, ok := renderHint(schema); ok {
		return rendered
	}
	switch schema.GetString("format") {
	case "uuid":
		return gofakeit.UUID()
	case "email":
		return gofakeit.Email()
	case "uri", "url":
		return gofakeit.URL()
	case "date":
		return time.Now().UTC().Format("2006-01-02")
	case "date-time":
		return time.Now().UTC().Format(time.RFC3339)
	case "binary", "byte":
		return gofakeit.LetterN(16)
	}
	return gofakeit.Word()
}
