package mediatypes

import "testing"

func TestGetMimeType(t *testing.T) {
	tests := []struct {
		ext  string
		want string
	}{
		{".mp3", "audio/mpeg"},
		{".FLAC", "audio/flac"},
		{".ogg", "audio/ogg"},
		{".wav", "audio/wav"},
		{".jpg", "image/jpeg"},
		{".txt", "text/plain"},
		{".xyz", DefaultMimeType},
		{"", DefaultMimeType},
	}

	for _, tt := range tests {
		t.Run(tt.ext, func(t *testing.T) {
			if got := GetMimeType(tt.ext); got != tt.want {
				t.Errorf("GetMimeType(%q) = %q, want %q", tt.ext, got, tt.want)
			}
		})
	}
}

func TestTopLevel(t *testing.T) {
	tests := map[string]string{
		"audio/flac":               "audio",
		"image/png":                "image",
		"application/octet-stream": "application",
		"noslash":                  "noslash",
		"":                         "",
	}

	for in, want := range tests {
		if got := TopLevel(in); got != want {
			t.Errorf("TopLevel(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestIsAudio(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{"/music/A.flac", true},
		{"/music/B.MP3", true},
		{"track.opus", true},
		{"/music/cover.jpg", false},
		{"/music/notes.txt", false},
		{"/music/list.m3u", false},
		{"/music/album.cue", false},
		{"/music/README", false},
		{"/music/.hidden.flac", true},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if got := IsAudio(tt.path); got != tt.want {
				t.Errorf("IsAudio(%q) = %v, want %v", tt.path, got, tt.want)
			}
		})
	}
}
