// Package mockserver serves schema-driven mock responses for operations
// marked with x-ouroboros-progress: mock.
//
// A [Registry] holds an in-memory endpoint index keyed by "METHOD:path",
// built by a [Loader] from the enriched specification file with every
// response-body $ref resolved ahead of time. The registry is derived state:
// it is rebuilt (clear + rebuild) after every document mutation and never
// arbitrates correctness over the file.
//
// [Middleware] intercepts inbound HTTP requests before normal routing,
// matches them against the registry with path-template matching, validates
// declared auth headers, required headers and query parameters, and if the
// endpoint matches synthesizes a fake response body from the resolved schema,
// optionally deep-merging a submitted JSON request body over it.
package mockserver
