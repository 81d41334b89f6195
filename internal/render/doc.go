// Package render turns decoded nodes into markdown explanations.
//
// Each node variant has one text/template pattern in a template table. The
// embedded templates.yaml is the default; callers may load their own. A
// Renderer checks at construction that every variant renders, so a missing
// pattern is reported once at startup rather than on the first unlucky
// instruction.
//
// Rendered text is derived output. It is never written back onto nodes.
package render
