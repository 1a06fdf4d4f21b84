package merkle

import "errors"

var (
	// ErrEmptyInput is returned by Build when given zero triples — spec.md
	// §8's "no claims to process" boundary case.
	ErrEmptyInput = errors.New("merkle: no claims to process")
	// ErrLeafNotFound is returned by Proof when a requested tree index
	// does not exist in the tree.
	ErrLeafNotFound = errors.New("merkle: leaf not found")
	// ErrMalformedDump is returned by Load when a dumped tree fails
	// structural validation.
	ErrMalformedDump = errors.New("merkle: malformed tree dump")
)
