// Package debugger is the interactive front end of the engine.
//
// A Debugger reads one command per line from a LineReader, dispatches it
// to the engine and writes the result. Recognised commands:
//
//	list                  rules, starting at the one that applies next
//	step                  apply one transition
//	show                  render the tape around the head
//	continue              run until a breakpoint fires or the machine halts
//	break <kind> <value>  add a breakpoint (kind: state, pos, read, write)
//	breaks                list breakpoints
//	quit                  leave the debugger
//
// Unknown commands and malformed arguments are ignored. Once the machine
// halts the debugger prints the final state and tape and the session ends.
package debugger
