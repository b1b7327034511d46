// Package ir provides the foundational types for tmdbg.
//
// This package contains the machine vocabulary (symbols, movements, rules,
// descriptions) plus canonical JSON and content hashing. All other internal
// packages import ir; ir imports nothing internal.
//
// Key design constraints:
//   - Rules are values; nothing mutates a Rule after load
//   - A Movement keeps its raw character so listings echo the source
//   - No floats in canonical JSON; fingerprints are stable across platforms
package ir
