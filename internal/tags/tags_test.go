package tags

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"eleanor-server/internal/testutil"
)

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func deref[T any](p *T) any {
	if p == nil {
		return nil
	}
	return *p
}

func TestReadID3v2(t *testing.T) {
	data := append(testutil.ID3v2(
		testutil.TextFrame("TIT2", "Blue Monday"),
		testutil.TextFrame("TPE1", "New Order"),
		testutil.TextFrame("TALB", "Power, Corruption & Lies"),
		testutil.TextFrame("TPE2", "New Order"),
		testutil.TextFrame("TCON", "Synthpop"),
		testutil.TextFrame("TRCK", "3/8"),
		testutil.TextFrame("TYER", "1983"),
	), make([]byte, 64)...)

	got, err := Read(writeFile(t, "song.mp3", data))
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}

	checks := []struct {
		field string
		got   any
		want  any
	}{
		{"Title", deref(got.Title), "Blue Monday"},
		{"Artist", deref(got.Artist), "New Order"},
		{"Album", deref(got.Album), "Power, Corruption & Lies"},
		{"AlbumArtist", deref(got.AlbumArtist), "New Order"},
		{"Genre", deref(got.Genre), "Synthpop"},
		{"Track", deref(got.Track), 3},
		{"Year", deref(got.Year), 1983},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s = %v, want %v", c.field, c.got, c.want)
		}
	}
}

func TestReadKeepsTextVerbatim(t *testing.T) {
	data := append(testutil.ID3v2(
		testutil.TextFrame("TIT2", "  Intro  "),
		testutil.TextFrame("TPE1", ""),
	), make([]byte, 64)...)

	got, err := Read(writeFile(t, "song.mp3", data))
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if deref(got.Title) != "  Intro  " {
		t.Errorf("Title = %q, want surrounding spaces kept", deref(got.Title))
	}
	if got.Artist != nil {
		t.Errorf("Artist = %q, want absent for an empty frame", *got.Artist)
	}
}

func TestReadNormalizesSentinels(t *testing.T) {
	tests := []struct {
		name string
		tag  testutil.ID3v1
	}{
		{"zero year", testutil.ID3v1{Title: "Untitled", Year: "0000"}},
		{"blank year", testutil.ID3v1{Title: "Untitled"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, "a.wav", testutil.TaggedWAV(testutil.Tone(10, 1), 8000, tt.tag))

			got, err := Read(path)
			if err != nil {
				t.Fatalf("Read() error = %v", err)
			}
			if got.Year != nil {
				t.Errorf("Year = %d, want absent", *got.Year)
			}
			if got.Track != nil {
				t.Errorf("Track = %d, want absent", *got.Track)
			}
			if got.Artist != nil {
				t.Errorf("Artist = %q, want absent", *got.Artist)
			}
			if got.Title == nil || *got.Title != "Untitled" {
				t.Errorf("Title = %v, want Untitled", deref(got.Title))
			}
		})
	}
}

func TestReadID3v1Trailer(t *testing.T) {
	path := writeFile(t, "a.wav", testutil.TaggedWAV(testutil.Tone(10, 1), 8000, testutil.ID3v1{
		Title: "Song", Artist: "Band", Album: "Record", Year: "1999", Track: 7,
	}))

	got, err := Read(path)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if deref(got.Year) != 1999 || deref(got.Track) != 7 || deref(got.Album) != "Record" {
		t.Errorf("Read() = year %v track %v album %v", deref(got.Year), deref(got.Track), deref(got.Album))
	}
}

func TestReadWithoutTags(t *testing.T) {
	path := writeFile(t, "plain.wav", testutil.WAV(testutil.Tone(500, 1), 8000))

	got, err := Read(path)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if got != (Tags{}) {
		t.Errorf("Read() = %+v, want empty", got)
	}
}

func TestReadMissingFile(t *testing.T) {
	if _, err := Read(filepath.Join(t.TempDir(), "missing.mp3")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Read() error = %v, want ErrNotExist", err)
	}
}

func TestReadPicture(t *testing.T) {
	art := []byte{0x89, 'P', 'N', 'G', 0x0d, 0x0a, 0x1a, 0x0a, 1, 2, 3, 4}
	data := append(testutil.ID3v2(
		testutil.TextFrame("TIT2", "With Art"),
		testutil.PictureFrame("image/png", art),
	), make([]byte, 32)...)

	pic, err := ReadPicture(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("ReadPicture() error = %v", err)
	}
	if pic.MIMEType != "image/png" {
		t.Errorf("MIMEType = %q, want image/png", pic.MIMEType)
	}
	if !bytes.Equal(pic.Data, art) {
		t.Errorf("Data = %v, want %v", pic.Data, art)
	}
}

func TestReadPictureAbsent(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"tags without art", append(testutil.ID3v2(testutil.TextFrame("TIT2", "Plain")), make([]byte, 16)...)},
		{"no tags", testutil.WAV(testutil.Tone(200, 1), 8000)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadPicture(bytes.NewReader(tt.data))
			if !errors.Is(err, ErrNoPicture) {
				t.Errorf("ReadPicture() error = %v, want ErrNoPicture", err)
			}
		})
	}
}
