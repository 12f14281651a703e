// Package scheduler runs periodic and delayed callbacks for the dispatch
// state machine. Two implementations are provided: Manual, a virtual clock
// advanced explicitly by tests and headless simulations, and Loop, a
// real-time event loop that serialises timer callbacks with work posted
// from other goroutines so the state machine only ever sees one writer.
package scheduler
