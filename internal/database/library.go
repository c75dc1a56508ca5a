package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

const entryColumns = `id, path, filename, rel_path, source_id, hash, artist, album_artist,
	name, album, duration, genres, track, year`

// InsertOrIgnore adds e to the catalog unless an entry with the same hash
// already exists. Existing entries are never modified. On insert, e.ID is
// set and inserted is true.
func (d *Database) InsertOrIgnore(ctx context.Context, e *CatalogEntry) (id int64, inserted bool, err error) {
	start := time.Now()
	defer func() { recordQuery("insert_or_ignore", start, err) }()

	res, err := d.db.ExecContext(ctx, `
	INSERT INTO library (path, filename, rel_path, source_id, hash, artist, album_artist,
		name, album, duration, genres, track, year)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(hash) DO NOTHING`,
		e.Path, e.Filename, e.RelPath, int64(e.SourceID), int64(e.Hash),
		e.Artist, e.AlbumArtist, e.Name, e.Album, int64(e.Duration), e.Genres, e.Track, e.Year,
	)
	if err != nil {
		return 0, false, fmt.Errorf("insert %s/%s: %w", e.Path, e.Filename, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, false, err
	}
	if n == 0 {
		return 0, false, nil
	}

	id, err = res.LastInsertId()
	if err != nil {
		return 0, false, err
	}
	e.ID = id
	return id, true, nil
}

// FilenamesBySource returns the leaf names of every entry owned by sourceID.
func (d *Database) FilenamesBySource(ctx context.Context, sourceID uint8) (set map[string]struct{}, err error) {
	start := time.Now()
	defer func() { recordQuery("filenames_by_source", start, err) }()

	return d.stringSet(ctx, `SELECT filename FROM library WHERE source_id = ?`, sourceID)
}

// RelPathsBySource returns the source-relative paths of every entry owned
// by sourceID.
func (d *Database) RelPathsBySource(ctx context.Context, sourceID uint8) (set map[string]struct{}, err error) {
	start := time.Now()
	defer func() { recordQuery("relpaths_by_source", start, err) }()

	return d.stringSet(ctx, `SELECT rel_path FROM library WHERE source_id = ?`, sourceID)
}

func (d *Database) stringSet(ctx context.Context, query string, sourceID uint8) (map[string]struct{}, error) {
	rows, err := d.db.QueryContext(ctx, query, int64(sourceID))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	set := make(map[string]struct{})
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		set[s] = struct{}{}
	}
	return set, rows.Err()
}

// DeleteBySource removes every entry owned by sourceID in one statement.
func (d *Database) DeleteBySource(ctx context.Context, sourceID uint8) (n int64, err error) {
	start := time.Now()
	defer func() { recordQuery("delete_by_source", start, err) }()

	res, err := d.db.ExecContext(ctx, `DELETE FROM library WHERE source_id = ?`, int64(sourceID))
	if err != nil {
		return 0, fmt.Errorf("delete source %d: %w", sourceID, err)
	}
	return res.RowsAffected()
}

// FindByHash returns the entry with the given hash, or ErrNotFound.
func (d *Database) FindByHash(ctx context.Context, hash uint32) (e *CatalogEntry, err error) {
	start := time.Now()
	defer func() { recordQuery("find_by_hash", start, err) }()

	row := d.db.QueryRowContext(ctx, `SELECT `+entryColumns+` FROM library WHERE hash = ?`, int64(hash))
	e, err = scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return e, err
}

// ListAll returns every catalog entry ordered by id.
func (d *Database) ListAll(ctx context.Context) (entries []CatalogEntry, err error) {
	start := time.Now()
	defer func() { recordQuery("list_all", start, err) }()

	rows, err := d.db.QueryContext(ctx, `SELECT `+entryColumns+` FROM library ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries = []CatalogEntry{}
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, *e)
	}
	return entries, rows.Err()
}

// CountBySource returns the number of entries per source.
func (d *Database) CountBySource(ctx context.Context) (counts map[uint8]int64, err error) {
	start := time.Now()
	defer func() { recordQuery("count_by_source", start, err) }()

	rows, err := d.db.QueryContext(ctx, `SELECT source_id, COUNT(*) FROM library GROUP BY source_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts = make(map[uint8]int64)
	for rows.Next() {
		var id, n int64
		if err := rows.Scan(&id, &n); err != nil {
			return nil, err
		}
		counts[uint8(id)] = n //nolint:gosec // source ids are written as uint8
	}
	return counts, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(s scanner) (*CatalogEntry, error) {
	var (
		e                                     CatalogEntry
		sourceID, hash, duration              int64
		artist, albumArtist, name, album, gen sql.NullString
		track, year                           sql.NullInt64
	)

	err := s.Scan(&e.ID, &e.Path, &e.Filename, &e.RelPath, &sourceID, &hash,
		&artist, &albumArtist, &name, &album, &duration, &gen, &track, &year)
	if err != nil {
		return nil, err
	}

	// Columns are only ever written from the narrower types.
	e.SourceID = uint8(sourceID)  //nolint:gosec
	e.Hash = uint32(hash)         //nolint:gosec
	e.Duration = uint32(duration) //nolint:gosec
	e.Artist = nullString(artist)
	e.AlbumArtist = nullString(albumArtist)
	e.Name = nullString(name)
	e.Album = nullString(album)
	e.Genres = nullString(gen)
	e.Track = nullInt(track)
	e.Year = nullInt(year)
	return &e, nil
}

func nullString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	return &ns.String
}

func nullInt(ni sql.NullInt64) *int {
	if !ni.Valid {
		return nil
	}
	v := int(ni.Int64)
	return &v
}
