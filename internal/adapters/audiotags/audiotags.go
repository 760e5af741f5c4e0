// Package audiotags reads embedded metadata from audio files.
package audiotags

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/dhowden/tag"
)

// Tags holds the text fields of an audio file's metadata.
type Tags struct {
	Title   string
	Artist  string
	Album   string
	Genre   string
	Comment string
	Lyrics  string
}

// Text joins the non-empty fields in a fixed order.
func (t Tags) Text() string {
	parts := make([]string, 0, 6)
	for _, v := range []string{t.Title, t.Artist, t.Album, t.Genre, t.Comment, t.Lyrics} {
		if v = strings.TrimSpace(v); v != "" {
			parts = append(parts, v)
		}
	}
	return strings.Join(parts, " ")
}

// Reader reads ID3, MP4, FLAC and Ogg metadata.
type Reader struct{}

// NewReader returns a Reader.
func NewReader() *Reader { return &Reader{} }

// Read returns the tags of the file at path. Files without tags return ErrNoTags.
func (r *Reader) Read(_ context.Context, path string) (Tags, error) {
	f, err := os.Open(path)
	if err != nil {
		return Tags{}, fmt.Errorf("%w: %w", ErrRead, err)
	}
	defer f.Close()

	md, err := tag.ReadFrom(f)
	if err != nil {
		if err == tag.ErrNoTagsFound {
			return Tags{}, ErrNoTags
		}
		return Tags{}, fmt.Errorf("%w: %w", ErrRead, err)
	}
	return Tags{
		Title:   md.Title(),
		Artist:  md.Artist(),
		Album:   md.Album(),
		Genre:   md.Genre(),
		Comment: md.Comment(),
		Lyrics:  md.Lyrics(),
	}, nil
}
