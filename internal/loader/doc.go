// Package loader turns machine description files into ir.Description.
//
// Two formats are supported, selected by file extension:
//
//   - text (any extension other than .cue): tape on the first line, head
//     and start state on the next two, then one rule per line as
//     "state read write next move".
//   - CUE (.cue): a top-level "machine" struct checked against an embedded
//     schema before decoding.
//
// Every failure is a *LoadError whose Kind tells the CLI which exit code
// and diagnostic to use.
package loader
