// Package harness runs conformance scenarios against the debugger.
//
// A scenario names a machine, a list of debugger commands and assertions
// on the final machine. The harness feeds the commands through a real
// debugger.Debugger, records every transition in an in-memory trace store
// and produces a transcript of the session that can be compared against a
// golden file.
//
// # Scenario Format
//
//	name: flip_to_halt
//	description: "flip every bit, then halt on the first blank"
//	machine: flip.tm            # or an inline machine:
//	inline:
//	  tape: "1010"
//	  head: 0
//	  state: 0
//	  rules:
//	    - "0 1 0 0 R"
//	    - "0 0 1 0 R"
//	probe: scan                 # optional, scan | step
//	breakpoints: ["pos=2"]      # optional, added before the first command
//	timeout: 5s                 # optional, bounds each continue
//	commands:
//	  - continue
//	  - show
//	assertions:
//	  - type: halted
//	    halted: false
//	  - type: head
//	    head: 2
//
// # Assertion Types
//
//   - final_state: the machine's state equals state
//   - head: the head position equals head
//   - halted: the halted flag equals halted
//   - tape: the written tape equals tape
//   - output_contains: the transcript contains text
//   - steps: exactly count transitions were recorded
//
// # Deterministic Testing
//
// Every scenario runs with a fixed run id, a fresh in-memory store and the
// default prompt, so transcripts are byte-for-byte reproducible.
package harness
