package audiotags

import "errors"

// Sentinel kinds for tag reading errors.
var (
	ErrNoTags = errors.New("no metadata tags found")
	ErrRead   = errors.New("read metadata failed")
)
