// Package driving defines the interfaces through which operators drive the
// sync engine: starting and resuming runs, requesting stops, resetting
// state, and reading run status. The CLI adapter consumes these.
package driving
