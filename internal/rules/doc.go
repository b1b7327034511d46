// Package rules holds the transition table of a machine.
//
// A Table is built once from rules in source order and never changes.
// Load rejects any table in which two rules share a (state, read symbol)
// pair, so at most one rule can ever apply to a given context.
//
// Lookups are linear scans in load order. Tables are small and hand
// written; the scan order is also what the debugger's breakpoint probing
// walks over, so it is part of observable behavior.
package rules
