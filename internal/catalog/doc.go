// Package catalog maps instruction type codes to their meaning.
//
// The catalog is a static YAML table embedded in the binary (or supplied
// with --catalog). It is validated against a CUE schema at load time and is
// read-only afterwards, so a loaded Catalog is safe for concurrent use.
package catalog
