// Package ast defines the typed syntax tree produced by decoding rating
// program instructions.
//
// Every decoded instruction becomes exactly one Node. Node is a closed set
// of value types; code that needs to treat each variant differently
// implements Visitor, so adding a variant breaks every dispatch site at
// compile time instead of falling into a default branch.
//
// Nodes are plain values and are never mutated after decoding. Rendered
// text and resolved graph edges live outside the nodes.
package ast
