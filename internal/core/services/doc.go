// Package services contains the sync engine's core logic: the change
// classifier, the bounded-concurrency upload/delete pipeline, the resumable
// sync orchestrator, and the periodic scheduler. Services depend only on
// domain types and ports, never on concrete adapters.
package services
