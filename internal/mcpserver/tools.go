package mcpserver

import (
	"context"
	"encoding/json"
	"sort"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/ouroborosapi/ouroboros/document"
)

type schemaListInput struct{}

type schemaSummary struct {
	Name       string   `json:"name"`
	Type       string   `json:"type,omitempty"`
	Properties []string `json:"properties,omitempty"`
	Order      []string `json:"order,omitempty"`
}

type schemaListOutput struct {
	Count   int             `json:"count"`
	Schemas []schemaSummary `json:"schemas,omitempty"`
}

func (d Deps) handleSchemaList(_ context.Context, _ *mcp.CallToolRequest, _ schemaListInput) (*mcp.CallToolResult, schemaListOutput, error) {
	schemas, err := d.Schemas.GetAll()
	if err != nil {
		return errResult(err), schemaListOutput{}, nil
	}
	out := schemaListOutput{Count: schemas.Len()}
	for _, name := range schemas.Keys() {
		schema := schemas.GetMap(name)
		summary := schemaSummary{Name: name, Type: schema.GetString("type")}
		if props := schema.GetMap("properties"); props != nil {
			summary.Properties = props.Keys()
		}
		for _, v := range schema.GetSlice(document.ExtOrder) {
			if s, ok := v.(string); ok {
				summary.Order = append(summary.Order, s)
			}
		}
		out.Schemas = append(out.Schemas, summary)
	}
	return nil, out, nil
}

type schemaGetInput struct {
	Name string `json:"name" jsonschema:"The schema name, simple or fully qualified"`
}

type schemaGetOutput struct {
	Name   string          `json:"name"`
	Schema json.RawMessage `json:"schema"`
}

func (d Deps) handleSchemaGet(_ context.Context, _ *mcp.CallToolRequest, input schemaGetInput) (*mcp.CallToolResult, schemaGetOutput, error) {
	schema, err := d.Schemas.Get(input.Name)
	if err != nil {
		return errResult(err), schemaGetOutput{}, nil
	}
	data, err := json.Marshal(schema)
	if err != nil {
		return errResult(err), schemaGetOutput{}, nil
	}
	return nil, schemaGetOutput{Name: input.Name, Schema: data}, nil
}

type schemaPutInput struct {
	Name   string          `json:"name"             jsonschema:"The schema name to create or update"`
	Schema json.RawMessage `json:"schema"           jsonschema:"The JSON schema object"`
	Create bool            `json:"create,omitempty" jsonschema:"Create instead of update; conflicts when the name exists"`
}

type schemaPutOutput struct {
	Name    string `json:"name"`
	Created bool   `json:"created"`
}

func (d Deps) handleSchemaPut(_ context.Context, _ *mcp.CallToolRequest, input schemaPutInput) (*mcp.CallToolResult, schemaPutOutput, error) {
	schema, err := document.FromJSON(input.Schema)
	if err != nil {
		return errResult(err), schemaPutOutput{}, nil
	}
	if input.Create {
		if err := d.Schemas.Create(input.Name, schema); err != nil {
			return errResult(err), schemaPutOutput{}, nil
		}
	} else {
		if err := d.Schemas.Update(input.Name, schema); err != nil {
			return errResult(err), schemaPutOutput{}, nil
		}
	}
	return nil, schemaPutOutput{Name: input.Name, Created: input.Create}, nil
}

type schemaDeleteInput struct {
	Name string `json:"name" jsonschema:"The schema name to delete"`
}

type schemaDeleteOutput struct {
	Name    string `json:"name"`
	Deleted bool   `json:"deleted"`
}

func (d Deps) handleSchemaDelete(_ context.Context, _ *mcp.CallToolRequest, input schemaDeleteInput) (*mcp.CallToolResult, schemaDeleteOutput, error) {
	if err := d.Schemas.Delete(input.Name); err != nil {
		return errResult(err), schemaDeleteOutput{}, nil
	}
	return nil, schemaDeleteOutput{Name: input.Name, Deleted: true}, nil
}

type specExportInput struct{}

type specExportOutput struct {
	YAML string `json:"yaml"`
}

func (d Deps) handleSpecExport(_ context.Context, _ *mcp.CallToolRequest, _ specExportInput) (*mcp.CallToolResult, specExportOutput, error) {
	data, err := d.Spec.Export()
	if err != nil {
		return errResult(err), specExportOutput{}, nil
	}
	return nil, specExportOutput{YAML: string(data)}, nil
}

type mockEndpointsInput struct{}

type mockEndpointSummary struct {
	Method          string   `json:"method"`
	Path            string   `json:"path"`
	OperationID     string   `json:"operationId,omitempty"`
	RequiredHeaders []string `json:"requiredHeaders,omitempty"`
	RequiredQuery   []string `json:"requiredQuery,omitempty"`
	AuthHeaders     []string `json:"authHeaders,omitempty"`
	Statuses        []string `json:"statuses,omitempty"`
}

type mockEndpointsOutput struct {
	Count     int                   `json:"count"`
	Endpoints []mockEndpointSummary `json:"endpoints,omitempty"`
}

func (d Deps) handleMockEndpoints(_ context.Context, _ *mcp.CallToolRequest, _ mockEndpointsInput) (*mcp.CallToolResult, mockEndpointsOutput, error) {
	endpoints := d.Registry.Endpoints()
	out := mockEndpointsOutput{Count: len(endpoints)}
	for _, meta := range endpoints {
		summary := mockEndpointSummary{
			Method:          meta.Method,
			Path:            meta.Path,
			OperationID:     meta.OperationID,
			RequiredHeaders: meta.RequiredHeaders,
			RequiredQuery:   meta.RequiredQuery,
			AuthHeaders:     meta.AuthHeaders,
		}
		for status := range meta.Responses {
			summary.Statuses = append(summary.Statuses, status)
		}
		sort.Strings(summary.Statuses)
		out.Endpoints = append(out.Endpoints, summary)
	}
	return nil, out, nil
}
