// Package mcpserver implements an MCP (Model Context Protocol) server that
// exposes the ouroboros specification services as MCP tools over stdio, so
// coding agents can inspect and edit the spec and its mock endpoints.
package mcpserver

import (
	"context"
	"regexp"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/ouroborosapi/ouroboros"
	"github.com/ouroborosapi/ouroboros/mockserver"
	"github.com/ouroborosapi/ouroboros/service"
)

const serverInstructions = `ouroboros MCP server: inspects and edits OpenAPI/AsyncAPI specification files and their generated mock endpoints.

The specification file is the single source of truth. Every mutation re-reads the file, enriches it with x-ouroboros-* defaults, persists atomically and reloads the mock endpoint registry. Operations marked x-ouroboros-progress: mock are served by the mock middleware; completed operations are expected to be served by real controllers.`

// Deps are the services the MCP tools operate on.
type Deps struct {
	// Spec is the REST specification service.
	Spec *service.SpecService
	// Schemas is the schema CRUD service.
	Schemas *service.SchemaService
	// Registry is the mock endpoint registry, for listings.
	Registry *mockserver.Registry
}

// Run starts the MCP server over stdio and blocks until the client
// disconnects or the context is cancelled.
func Run(ctx context.Context, deps Deps) error {
	server := mcp.NewServer(
		&mcp.Implementation{Name: "ouroboros", Version: ouroboros.Version()},
		&mcp.ServerOptions{Instructions: serverInstructions},
	)
	registerAllTools(server, deps)
	return server.Run(ctx, &mcp.StdioTransport{})
}

func registerAllTools(server *mcp.Server, deps Deps) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "schema_list",
		Description: "List all schemas in the specification with their property names and x-ouroboros-order.",
	}, deps.handleSchemaList)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "schema_get",
		Description: "Get one schema by name. Fully-qualified names fall back to the trailing dot-segment automatically.",
	}, deps.handleSchemaGet)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "schema_put",
		Description: "Create or update a named schema from a JSON schema object. Fails with a conflict when create=true and the name already exists.",
	}, deps.handleSchemaPut)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "schema_delete",
		Description: "Delete a schema by name, with simple-name fallback. Idempotency-safe: not-found is only reported when both lookups fail.",
	}, deps.handleSchemaDelete)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "spec_export",
		Description: "Export the raw persisted specification YAML verbatim.",
	}, deps.handleSpecExport)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "mock_endpoints",
		Description: "List the currently registered mock endpoints with their required headers, query parameters, auth headers and declared response statuses.",
	}, deps.handleMockEndpoints)
}

// sanitizeError strips absolute filesystem paths from error messages
// to prevent leaking internal directory structure to MCP clients.
var pathPattern = regexp.MustCompile(`(?:/(?:home|tmp|var|Users|etc|opt|usr|private|root|mnt|srv|run|snap|nix)[a-zA-Z0-9._/-]*)`)

func sanitizeError(err error) string {
	if err == nil {
		return ""
	}
	return pathPattern.ReplaceAllString(err.Error(), "<path>")
}

// errResult creates an MCP error result from an error.
func errResult(err error) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{&mcp.TextContent{Text: sanitizeError(err)}},
	}
}
