// Package annotator walks a schema tree and attaches map-point admin
// metadata to every point field. Container fields (fields, blocks, tabs) are
// recursed; everything else passes through untouched.
//
// Annotation is copy-on-write: the input tree is never mutated and subtrees
// without point fields are returned as-is. Running the annotator twice yields
// the same tree as running it once.
package annotator
