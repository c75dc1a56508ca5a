// Package mediatypes guesses MIME types from file extensions.
//
// It is a dependency-free foundation shared by the walker, which keeps only
// candidates whose top-level type is audio, and the serving layer, which
// uses the same table for Content-Type headers:
//
//	if mediatypes.IsAudio(path) {
//	    // candidate for indexing
//	}
//
//	w.Header().Set("Content-Type", mediatypes.GuessFromPath(path))
package mediatypes
