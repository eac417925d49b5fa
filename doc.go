// Package ouroboros lets developers author OpenAPI 3.1.0 and AsyncAPI 3.0.0
// specifications through a REST API, auto-generates a mock server from those
// specifications, and reconciles the specification against actual controller
// code at runtime.
//
// # Overview
//
// The library consists of the following primary packages:
//
//   - document: the ordered generic YAML tree and the file store that is the
//     single source of truth
//   - resolver: $ref resolution into self-contained schema trees
//   - differ: structural schema fingerprints and comparison
//   - enricher: non-destructive addition of x-ouroboros-* metadata defaults
//   - syncer: reconciliation of the file spec against code-scanned specs
//   - importer: exhaustive validation of uploaded documents
//   - mockserver: the endpoint registry and the HTTP mock serving middleware
//   - service: CRUD services coordinating store, enrichment and registry
//     under a per-document read-write lock
//   - httpapi: the REST control surface consumed by the editing UI
//
// # Quick Start
//
// Wire a mock server over a specification file:
//
//	store := document.NewStore("openapi.yaml")
//	registry := mockserver.NewRegistry()
//	co := service.NewCoordinator(service.KindREST, store,
//		service.WithRegistry(registry))
//	specs := service.NewSpecService(co)
//	schemas := service.NewSchemaService(co)
//
//	mux := http.NewServeMux()
//	httpapi.New(specs, schemas).Routes(mux)
//	handler := mockserver.Middleware(registry)(mux)
//	http.ListenAndServe(":8080", handler)
//
// Requests matching an operation marked x-ouroboros-progress: mock are
// answered with synthesized bodies; everything else passes through.
//
// # Startup
//
// Use [Runner] to initialize protocols without ever failing host startup:
// each protocol handler runs in its own error boundary, and failures are
// logged and skipped rather than propagated.
package ouroboros
