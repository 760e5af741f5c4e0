package workspace

import "errors"

// Sentinel kinds for workspace errors.
var (
	ErrEmptyRoot   = errors.New("workspace root is empty")
	ErrCreateDir   = errors.New("create directory failed")
	ErrJobExists   = errors.New("job directory already exists")
	ErrScan        = errors.New("artifact scan failed")
	ErrOutsideRoot = errors.New("path outside workspace root")
	ErrCopy        = errors.New("copy artifact failed")
)
