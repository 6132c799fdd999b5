// Package driven defines the interfaces the sync engine consumes: the
// content source readers, the index writer, and the persistence stores.
// Adapters under internal/adapters and internal/connectors implement them.
//
// # Import Rules
//
//   - Can Import: domain, standard library
//   - Cannot Import: services, adapters, connectors
package driven
