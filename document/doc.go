// Package document provides the generic YAML document tree used as the
// single source of truth for OpenAPI 3.1.0 and AsyncAPI 3.0.0 specifications.
//
// Documents are represented as an insertion-ordered tree ([Map]) rather than a
// strict schema binding, so that user-authored YAML round-trips without losing
// key order or unknown fields. A [Store] reads and writes one document file
// atomically; all higher layers (enrichment, sync, mock serving, CRUD
// services) operate on the tree through the accessors in this package.
//
// The package also defines the x-ouroboros-* extension keys carried by
// operations and schemas, and the [Logger] interface shared by every package
// in the module.
package document
