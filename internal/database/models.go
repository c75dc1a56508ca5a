package database

// CatalogEntry is one indexed audio file. Hash is unique across the catalog;
// the first file ingested with a given hash wins.
type CatalogEntry struct {
	ID          int64   `json:"id" msgpack:"id"`
	Path        string  `json:"path" msgpack:"path"`
	Filename    string  `json:"filename" msgpack:"filename"`
	RelPath     string  `json:"-" msgpack:"-"`
	SourceID    uint8   `json:"source_id" msgpack:"source_id"`
	Hash        uint32  `json:"hash" msgpack:"hash"`
	Artist      *string `json:"artist" msgpack:"artist"`
	AlbumArtist *string `json:"album_artist" msgpack:"album_artist"`
	Name        *string `json:"name" msgpack:"name"`
	Album       *string `json:"album" msgpack:"album"`
	Duration    uint32  `json:"duration" msgpack:"duration"`
	Genres      *string `json:"genres" msgpack:"genres"`
	Track       *int    `json:"track" msgpack:"track"`
	Year        *int    `json:"year" msgpack:"year"`
}

// User is a basic-auth principal.
type User struct {
	ID           int64
	Name         string
	PasswordHash string
}
