// Package tags reads descriptive metadata and embedded artwork from audio
// files using dhowden/tag (ID3v1, ID3v2, MP4, FLAC and Ogg comments).
//
// Empty strings and zero years or track numbers are reported as absent.
package tags
