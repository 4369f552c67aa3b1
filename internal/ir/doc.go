// Package ir provides the instruction set shared by the parser, optimizer,
// evaluator and emitters.
//
// This package contains type definitions only. All other internal packages
// import ir; ir imports nothing internal.
//
// Key design constraints:
//   - Loops stay flat: an Open and its matching Close are separate
//     instructions at the same nesting depth, in every pass.
//   - An Ast is never mutated by a rewrite; passes build a new one.
//   - All JSON tags use snake_case
//   - Hashes use canonical JSON with domain separation
package ir
