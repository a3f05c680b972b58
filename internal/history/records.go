package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Record is one completed acquisition.
type Record struct {
	ID         int64     `json:"id"`
	RequestID  string    `json:"request_id"`
	VideoID    string    `json:"video_id"`
	Query      string    `json:"query,omitempty"`
	Title      string    `json:"title,omitempty"`
	Artist     string    `json:"artist,omitempty"`
	Album      string    `json:"album,omitempty"`
	Path       string    `json:"path"`
	AcquiredAt time.Time `json:"acquired_at"`
}

const selectColumns = "id, request_id, video_id, query, title, artist, album, path, acquired_at"

// Add inserts rec and returns it with ID and AcquiredAt populated.
func (s *Store) Add(ctx context.Context, rec Record) (Record, error) {
	ctx = ensureContext(ctx)
	rec.VideoID = strings.TrimSpace(rec.VideoID)
	rec.Path = strings.TrimSpace(rec.Path)
	if rec.VideoID == "" || rec.Path == "" {
		return Record{}, errors.New("history record requires video id and path")
	}
	if rec.AcquiredAt.IsZero() {
		rec.AcquiredAt = time.Now()
	}
	rec.AcquiredAt = rec.AcquiredAt.UTC()

	var res sql.Result
	err := retryOnBusy(ctx, func() error {
		var execErr error
		res, execErr = s.db.ExecContext(ctx,
			`INSERT INTO acquisitions (request_id, video_id, query, title, artist, album, path, acquired_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			rec.RequestID, rec.VideoID, rec.Query, rec.Title, rec.Artist, rec.Album, rec.Path,
			rec.AcquiredAt.Format(time.RFC3339Nano),
		)
		return execErr
	})
	if err != nil {
		return Record{}, fmt.Errorf("insert history record: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return Record{}, fmt.Errorf("history record id: %w", err)
	}
	rec.ID = id
	return rec, nil
}

// List returns the newest records first. A non-positive limit returns all.
func (s *Store) List(ctx context.Context, limit int) ([]Record, error) {
	ctx = ensureContext(ctx)
	query := "SELECT " + selectColumns + " FROM acquisitions ORDER BY acquired_at DESC, id DESC"
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate history: %w", err)
	}
	return records, nil
}

// FindByVideoID returns every acquisition of a video, newest first.
func (s *Store) FindByVideoID(ctx context.Context, videoID string) ([]Record, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+selectColumns+" FROM acquisitions WHERE video_id = ? ORDER BY acquired_at DESC, id DESC",
		strings.TrimSpace(videoID),
	)
	if err != nil {
		return nil, fmt.Errorf("find history by video: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Clear deletes every record and returns how many were removed.
func (s *Store) Clear(ctx context.Context) (int64, error) {
	ctx = ensureContext(ctx)
	var res sql.Result
	err := retryOnBusy(ctx, func() error {
		var execErr error
		res, execErr = s.db.ExecContext(ctx, "DELETE FROM acquisitions")
		return execErr
	})
	if err != nil {
		return 0, fmt.Errorf("clear history: %w", err)
	}
	return res.RowsAffected()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (Record, error) {
	var (
		rec      Record
		acquired string
	)
	if err := row.Scan(&rec.ID, &rec.RequestID, &rec.VideoID, &rec.Query, &rec.Title, &rec.Artist, &rec.Album, &rec.Path, &acquired); err != nil {
		return Record{}, fmt.Errorf("scan history record: %w", err)
	}
	parsed, err := time.Parse(time.RFC3339Nano, acquired)
	if err != nil {
		return Record{}, fmt.Errorf("parse acquired_at %q: %w", acquired, err)
	}
	rec.AcquiredAt = parsed
	return rec, nil
}
