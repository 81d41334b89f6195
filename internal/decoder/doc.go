// Package decoder turns raw rating-program instructions into AST nodes.
//
// An instruction's operand string is a pipe-delimited list of segments:
//
//	|~GR_5369|=|[Y]|
//
// Each segment is a bare literal, a variable reference (XX_id or XX_id.sub,
// optionally prefixed by ~ or D), a category item in [brackets], or a table
// index in {braces}. IF instructions may chain several conditions with ^.
// Arithmetic and function instructions may end with a rounding segment such
// as !R2 or !RN.
//
// Decoding is a pure function of the instruction and the read-only opcode
// catalog. A Decoder is safe for concurrent use.
package decoder
