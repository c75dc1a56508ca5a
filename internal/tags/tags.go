package tags

import (
	"errors"
	"fmt"
	"io"

	"github.com/dhowden/tag"

	"eleanor-server/internal/filesystem"
)

// ErrNoPicture is returned when a file carries no embedded artwork.
var ErrNoPicture = errors.New("no embedded picture")

// Tags holds the optional descriptive fields of a file. Absent values are nil.
type Tags struct {
	Title       *string
	Artist      *string
	Album       *string
	AlbumArtist *string
	Genre       *string
	Track       *int
	Year        *int
}

// Picture is embedded artwork.
type Picture struct {
	MIMEType string
	Ext      string
	Data     []byte
}

// Read opens path and extracts its tags. A file without a recognised tag
// block yields empty Tags and no error.
func Read(path string) (Tags, error) {
	f, err := filesystem.Open(path)
	if err != nil {
		return Tags{}, err
	}
	defer f.Close()

	return ReadFrom(f)
}

// ReadFrom extracts tags from r.
func ReadFrom(r io.ReadSeeker) (Tags, error) {
	m, err := tag.ReadFrom(r)
	if err != nil {
		if isNoTags(err) {
			return Tags{}, nil
		}
		return Tags{}, fmt.Errorf("read tags: %w", err)
	}
	return fromMetadata(m), nil
}

// ReadPicture returns the first embedded picture in r, or ErrNoPicture.
func ReadPicture(r io.ReadSeeker) (*Picture, error) {
	m, err := tag.ReadFrom(r)
	if err != nil {
		if isNoTags(err) {
			return nil, ErrNoPicture
		}
		return nil, fmt.Errorf("read tags: %w", err)
	}

	p := m.Picture()
	if p == nil || len(p.Data) == 0 {
		return nil, ErrNoPicture
	}
	return &Picture{MIMEType: p.MIMEType, Ext: p.Ext, Data: p.Data}, nil
}

func isNoTags(err error) bool {
	return errors.Is(err, tag.ErrNoTagsFound) || errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF)
}

func fromMetadata(m tag.Metadata) Tags {
	track, _ := m.Track()
	return Tags{
		Title:       text(m.Title()),
		Artist:      text(m.Artist()),
		Album:       text(m.Album()),
		AlbumArtist: text(m.AlbumArtist()),
		Genre:       text(m.Genre()),
		Track:       positive(track),
		Year:        positive(m.Year()),
	}
}

// text maps an empty field to absent. Values are stored as the tag library
// returns them.
func text(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// positive treats zero (the "unset" year and track sentinel) and negative
// values as absent.
func positive(v int) *int {
	if v <= 0 {
		return nil
	}
	return &v
}
