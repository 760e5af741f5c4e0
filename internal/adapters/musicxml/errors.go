package musicxml

import "errors"

// Sentinel kinds for MusicXML errors.
var (
	ErrNoXMLEntry      = errors.New("archive has no xml entry")
	ErrUnsupportedRoot = errors.New("root element is not score-partwise or score-timewise")
	ErrEmptyDocument   = errors.New("document has no root element")
	ErrEntryTooLarge   = errors.New("archive entry exceeds size limit")
	ErrNoChords        = errors.New("no chords to write")
)
