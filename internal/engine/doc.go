// Package engine provides the process execution engine. It validates inputs
// against the process's declared schema, runs sync executions inline, and
// drives async executions through the job store state machine
// (accepted→running→successful/failed) on dedicated goroutines.
package engine
