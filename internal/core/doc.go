// Package core provides the shared data model of the Genesis client.
// These types are produced by the catalog parser and the export extractor
// and handed to callers unchanged by the query façade.
//
// Structure:
//
//	model.go   - Site, Endpoint, Credentials, CatalogEntry, SearchResult, ExportedTable
//	errors.go  - Error taxonomy (configuration, remote, transport, parse, export)
//	text.go    - Text normalizer for human-readable fields
package core
