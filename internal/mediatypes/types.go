package mediatypes

import (
	"path/filepath"
	"strings"
)

// DefaultMimeType is returned for extensions with no known mapping.
const DefaultMimeType = "application/octet-stream"

// MimeTypes maps lowercase file extensions to their guessed MIME types.
// Only the top-level type is consulted when filtering candidates, so
// non-audio entries are listed to keep sibling files (cover art, cue
// sheets, logs) from being mistaken for tracks.
var MimeTypes = map[string]string{
	// Audio
	".aac":  "audio/aac",
	".aif":  "audio/aiff",
	".aifc": "audio/aiff",
	".aiff": "audio/aiff",
	".ape":  "audio/x-ape",
	".au":   "audio/basic",
	".flac": "audio/flac",
	".m4a":  "audio/mp4",
	".m4b":  "audio/mp4",
	".mid":  "audio/midi",
	".midi": "audio/midi",
	".mka":  "audio/x-matroska",
	".mp2":  "audio/mpeg",
	".mp3":  "audio/mpeg",
	".mpga": "audio/mpeg",
	".oga":  "audio/ogg",
	".ogg":  "audio/ogg",
	".opus": "audio/opus",
	".spx":  "audio/ogg",
	".wav":  "audio/wav",
	".weba": "audio/webm",
	".wma":  "audio/x-ms-wma",
	".wv":   "audio/x-wavpack",

	// Artwork and sidecars commonly found next to albums
	".bmp":  "image/bmp",
	".gif":  "image/gif",
	".jpeg": "image/jpeg",
	".jpg":  "image/jpeg",
	".png":  "image/png",
	".webp": "image/webp",
	".cue":  "application/x-cue",
	".log":  "text/plain",
	".m3u":  "audio/x-mpegurl",
	".m3u8": "application/vnd.apple.mpegurl",
	".nfo":  "text/plain",
	".pdf":  "application/pdf",
	".txt":  "text/plain",
}

// playlistTypes are audio/* by MIME registry but hold no audio content.
var playlistTypes = map[string]bool{
	"audio/x-mpegurl": true,
}

// GetMimeType returns the MIME type for a given file extension.
// The extension is matched case-insensitively and must include the leading dot.
// Returns DefaultMimeType if the extension is not recognized.
func GetMimeType(ext string) string {
	if mime, ok := MimeTypes[strings.ToLower(ext)]; ok {
		return mime
	}
	return DefaultMimeType
}

// TopLevel returns the part of a MIME type before the slash.
func TopLevel(mime string) string {
	top, _, _ := strings.Cut(mime, "/")
	return top
}

// GuessFromPath returns the MIME type guessed from the path's extension.
func GuessFromPath(path string) string {
	return GetMimeType(filepath.Ext(path))
}

// IsAudio reports whether the guessed MIME type for path is audio/*.
func IsAudio(path string) bool {
	mime := GuessFromPath(path)
	return TopLevel(mime) == "audio" && !playlistTypes[mime]
}
