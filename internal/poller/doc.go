// Package poller provides the HTTP plumbing and the run loop of feinstaubalarm.
//
// The main components are:
//
//   - [Client]: HTTP client wrapper with timeout and size limits
//   - [Scheduler]: Runs a job periodically without overlap (watch mode)
//   - [CycleResult]: Outcome of one scheduled run
//
// Users of the feinstaubalarm library should not need to interact with this
// package directly. Configuration is done through the main package.
package poller
