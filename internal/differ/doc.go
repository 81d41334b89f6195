// Package differ compares two versions of a rating program.
//
// Diff walks two assembled graphs step by step and field by field and
// reports one Change per differing leaf, located by a path such as
// "step=3/conditions[0]/left/raw". Ordered lists compare by index, so a
// reordering shows up as a change at every shifted index. DiffInstructions
// does the same over raw instruction records, and TextDiff produces a
// unified line diff of two rendered documents.
package differ
