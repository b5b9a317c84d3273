// Package agent implements the issue-resolution agent loop: a bounded
// conversation between an LLM provider and a set of read-only inspection
// tools, driven over an append-only transcript until the model produces a
// final answer or the iteration budget runs out.
//
// The orchestrator never returns an error; every outcome, including provider
// failures and panics, is reported as a terminal RunResult.
package agent
