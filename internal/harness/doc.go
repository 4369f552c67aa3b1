// Package harness runs YAML scenarios: a program, its input and the
// outcome every optimization level must reproduce.
//
// # Scenario Format
//
//	name: multiply
//	description: "a counted loop collapses into Mul and Clear"
//	program: "++++++[>++++++++++<-]>."
//	input: ""
//	levels: [none, aggressive]    # default: all four
//	eof: zero                     # default: unchanged
//	max_steps: 1000               # default: DefaultMaxSteps
//	expect:
//	  output: "<"
//	  error: ""                   # or a runtime error code
//	assertions:
//	  - type: instruction_count
//	    level: aggressive
//	    count: 5
//	  - type: contains_op
//	    level: aggressive
//	    op: mul
//	  - type: final_cell
//	    cell: 1
//	    value: 60
//	  - type: final_pointer
//	    value: 1
//
// A scenario may name a source file instead of inline source with
// file: path/relative/to/scenario.b.
//
// # Checks
//
// Every level must match expect.output and expect.error, and all levels
// must agree with each other. Assertions then run against each targeted
// level.
//
// # Golden Snapshots
//
// Snapshot renders the per-level records as canonical JSON; RunWithGolden
// compares it against testdata/golden with goldie.
package harness
