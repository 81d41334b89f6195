// Package ir provides the raw instruction model for rating programs.
//
// This package contains the input records handed to the decoder plus
// canonical serialization and content hashing. All other internal packages
// import ir; ir imports nothing internal.
//
// Key design constraints:
//   - Branch targets stay raw integers here; the step-or-DONE interpretation
//     lives in the ast package
//   - All JSON tags use the legacy short field names (n, t, ins, ...)
//   - No floats in canonical output
package ir
