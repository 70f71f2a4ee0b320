package python

import "errors"

var (
	// ErrFileNotFound indicates a path that is not part of the analyzed file set
	ErrFileNotFound = errors.New("file not in analyzed set")

	// ErrModuleNotFound indicates a path with no node in the module tree
	ErrModuleNotFound = errors.New("module not found")

	// ErrMalformedStructure indicates a syntax tree shape the analyzer does not understand
	ErrMalformedStructure = errors.New("malformed syntax structure")
)
