// Package file provides the TOML-backed configuration store.
// Settings live in a single config.toml under the knowledge-sync
// directory and are loaded once at startup.
package file
