// Package graph assembles decoded nodes into a step-addressed control-flow
// graph.
//
// Assembly resolves every recorded target: fall-through becomes the next
// step in ascending order (or DONE after the last step), DONE stays DONE,
// and step addresses must name a step present in the program. Cycles are
// legal; Loops reports them for callers that care.
package graph
