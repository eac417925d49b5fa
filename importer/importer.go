// Package importer validates uploaded OpenAPI documents before they replace
// the stored specification.
//
// Validation is exhaustive, not fail-fast: every problem in the upload is
// collected into a single batch of issues so the caller sees all of them at
// once. An invalid import is never partially applied; the stored file is
// only replaced when the batch is empty.
package importer

import (
	"fmt"
	"strconv"
	"strings"

	"go.yaml.in/yaml/v4"

	"github.com/ouroborosapi/ouroboros/document"
	"github.com/ouroborosapi/ouroboros/ouroerrors"
)

// Stable error codes reported by Validate.
const (
	CodeExtension  = "ERR_EXTENSION"
	CodeParse      = "ERR_PARSE"
	CodeRoot       = "ERR_ROOT"
	CodeVersion    = "ERR_VERSION"
	CodeInfo       = "ERR_INFO"
	CodePaths      = "ERR_PATHS"
	CodeMethod     = "ERR_METHOD"
	CodeParamIn    = "ERR_PARAM_IN"
	CodeSchemaType = "ERR_SCHEMA_TYPE"
	CodeStatus     = "ERR_STATUS"
)

// schemaTypes is the closed set of values accepted for a schema "type" field.
var schemaTypes = map[string]bool{
	"string": true, "integer": true, "number": true,
	"boolean": true, "array": true, "object": true, "null": true,
}

// paramLocations is the closed set of values accepted for a parameter "in" field.
var paramLocations = map[string]bool{
	"header": true, "query": true, "path": true, "cookie": true,
}

// Validate checks an uploaded OpenAPI document and returns every issue found.
// A nil or empty result means the upload may be applied.
func Validate(filename string, data []byte) []ouroerrors.Issue {
	var issues []ouroerrors.Issue
	add := func(location, code, format string, args ...any) {
		issues = append(issues, ouroerrors.Issue{
			Location: location,
			Code:     code,
			Message:  fmt.Sprintf(format, args...),
		})
	}

	if ext := strings.ToLower(filename); !strings.HasSuffix(ext, ".yaml") && !strings.HasSuffix(ext, ".yml") {
		add("file", CodeExtension, "unsupported file extension %q, expected .yaml or .yml", filename)
	}

	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		add("file", CodeParse, "not parseable as YAML: %v", err)
		// Everything below needs a tree; stop here but still return the batch.
		return issues
	}
	node := &root
	for node.Kind == yaml.DocumentNode && len(node.Content) == 1 {
		node = node.Content[0]
	}
	if node.Kind == 0 || node.Kind == yaml.DocumentNode {
		add("file", CodeRoot, "document is empty")
		return issues
	}
	if node.Kind != yaml.MappingNode {
		add("file", CodeRoot, "root must be a YAML mapping")
		return issues
	}
	doc := document.NewMap()
	if err := doc.UnmarshalYAML(node); err != nil {
		add("file", CodeParse, "not parseable as a YAML mapping: %v", err)
		return issues
	}
	if doc.Len() == 0 {
		add("file", CodeRoot, "document is empty")
		return issues
	}

	version := doc.GetString("openapi")
	switch {
	case version == "":
		add("openapi", CodeVersion, "missing required field openapi")
	case !strings.HasPrefix(version, "3.1"):
		add("openapi", CodeVersion, "unsupported OpenAPI version %q, expected 3.1.x", version)
	}

	info := doc.GetMap("info")
	if info == nil {
		add("info", CodeInfo, "missing required object info")
	} else {
		if missingField(info, "title") {
			add("info.title", CodeInfo, "missing required field info.title")
		}
		if missingField(info, "version") {
			add("info.version", CodeInfo, "missing required field info.version")
		}
	}

	validatePaths(doc, add)
	validateSchemas(doc, add)
	return issues
}

type addFunc func(location, code, format string, args ...any)

// missingField reports whether a required scalar field is absent. Non-string
// scalars such as `version: 1` count as present; an explicit empty string
// does not.
func missingField(m *document.Map, key string) bool {
	v, ok := m.Get(key)
	if !ok || v == nil {
		return true
	}
	s, isString := v.(string)
	return isString && s == ""
}

func validatePaths(doc *document.Map, add addFunc) {
	raw, ok := doc.Get("paths")
	if !ok {
		add("paths", CodePaths, "missing required object paths")
		return
	}
	paths, isMap := raw.(*document.Map)
	if !isMap {
		add("paths", CodePaths, "paths must be a mapping of path templates")
		return
	}

	for _, path := range paths.Keys() {
		location := "paths." + path
		if !strings.HasPrefix(path, "/") {
			add(location, CodePaths, "path template must start with /")
		}
		item := paths.GetMap(path)
		if item == nil {
			add(location, CodePaths, "path item must be a mapping")
			continue
		}
		for _, key := range item.Keys() {
			if strings.HasPrefix(key, "x-") || key == "parameters" || key == "summary" || key == "description" {
				continue
			}
			if !document.IsHTTPMethod(key) {
				add(location+"."+key, CodeMethod, "unknown HTTP method %q", key)
				continue
			}
			validateOperation(location+"."+key, item.GetMap(key), add)
		}
	}
}

func validateOperation(location string, op *document.Map, add addFunc) {
	if op == nil {
		add(location, CodeMethod, "operation must be a mapping")
		return
	}
	for i, p := range op.GetSlice("parameters") {
		param, ok := p.(*document.Map)
		paramLoc := fmt.Sprintf("%s.parameters[%d]", location, i)
		if !ok {
			add(paramLoc, CodeParamIn, "parameter must be a mapping")
			continue
		}
		if in := param.GetString("in"); !paramLocations[in] {
			add(paramLoc, CodeParamIn, "invalid parameter location %q", in)
		}
	}
	responses := op.GetMap("responses")
	if responses == nil {
		return
	}
	for _, status := range responses.Keys() {
		if status == "default" {
			continue
		}
		if code, err := strconv.Atoi(status); err != nil || code < 100 || code > 599 {
			add(location+".responses."+status, CodeStatus, "invalid response status code %q", status)
		}
	}
}

func validateSchemas(doc *document.Map, add addFunc) {
	schemas := document.Schemas(doc)
	if schemas == nil {
		return
	}
	for _, name := range schemas.Keys() {
		validateSchemaTypes("components.schemas."+name, schemas.GetMap(name), add)
	}
}

// validateSchemaTypes checks the type enum recursively through properties and
// items. Pure $ref nodes carry no type to check.
func validateSchemaTypes(location string, schema *document.Map, add addFunc) {
	if schema == nil || schema.Has("$ref") {
		return
	}
	if raw, ok := schema.Get("type"); ok {
		typ, isString := raw.(string)
		if !isString || !schemaTypes[typ] {
			add(location+".type", CodeSchemaType, "invalid schema type %v", raw)
		}
	}
	if props := schema.GetMap("properties"); props != nil {
		for _, propName := range props.Keys() {
			validateSchemaTypes(location+"."+propName, props.GetMap(propName), add)
		}
	}
	if items := schema.GetMap("items"); items != nil {
		validateSchemaTypes(location+".items", items, add)
	}
}
