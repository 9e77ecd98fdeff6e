package photoindex

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql"

	"github.com/kozaktomas/photo-cleanup/internal/catalog"
)

// monthPrefix marks synthetic month collections ("month-2024-07") next to
// album collections ("album-<uid>").
const (
	monthPrefix = "month-"
	albumPrefix = "album-"
)

// MariaDBSource reads collections straight from a PhotoPrism MariaDB:
// manual albums plus one synthetic collection per capture month. It never
// writes; PhotoPrism stays the owner of the library.
type MariaDBSource struct {
	db           *sql.DB
	originalsDir string // PhotoPrism originals root, for Open
}

// NewMariaDBSource opens a read-only connection pool against a PhotoPrism
// database. originalsDir points at the originals tree photo file names
// resolve against.
func NewMariaDBSource(dsn, originalsDir string) (*MariaDBSource, error) {
	if dsn == "" {
		return nil, errors.New("MariaDB DSN is required")
	}

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open MariaDB: %w", err)
	}

	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(time.Hour)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping MariaDB: %w", err)
	}

	return &MariaDBSource{db: db, originalsDir: originalsDir}, nil
}

// Close closes the connection pool.
func (s *MariaDBSource) Close() error {
	if s.db != nil {
		if err := s.db.Close(); err != nil {
			return fmt.Errorf("closing database connection: %w", err)
		}
	}
	return nil
}

// Collections returns PhotoPrism albums followed by synthetic month
// collections, newest month first.
func (s *MariaDBSource) Collections(ctx context.Context) ([]Collection, error) {
	albums, err := s.albumCollections(ctx)
	if err != nil {
		return nil, err
	}
	months, err := s.monthCollections(ctx)
	if err != nil {
		return nil, err
	}
	return append(albums, months...), nil
}

func (s *MariaDBSource) albumCollections(ctx context.Context) ([]Collection, error) {
	query := `
		SELECT a.album_uid, a.album_title, COUNT(pa.photo_uid)
		FROM albums a
		LEFT JOIN photos_albums pa ON pa.album_uid = a.album_uid AND pa.hidden = 0
		WHERE a.deleted_at IS NULL AND a.album_type = 'album'
		GROUP BY a.album_uid, a.album_title
		ORDER BY a.album_title
	`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query albums: %w", err)
	}
	defer rows.Close()

	var collections []Collection
	for rows.Next() {
		var uid, title string
		var count int
		if err := rows.Scan(&uid, &title, &count); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		collections = append(collections, Collection{
			ID:         albumPrefix + uid,
			Title:      title,
			PhotoCount: count,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return collections, nil
}

func (s *MariaDBSource) monthCollections(ctx context.Context) ([]Collection, error) {
	query := `
		SELECT DATE_FORMAT(taken_at, '%Y-%m'), COUNT(*)
		FROM photos
		WHERE deleted_at IS NULL AND taken_at IS NOT NULL
		GROUP BY DATE_FORMAT(taken_at, '%Y-%m')
		ORDER BY DATE_FORMAT(taken_at, '%Y-%m') DESC
	`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query months: %w", err)
	}
	defer rows.Close()

	var collections []Collection
	for rows.Next() {
		var month string
		var count int
		if err := rows.Scan(&month, &count); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		collections = append(collections, Collection{
			ID:         monthPrefix + month,
			Title:      month,
			PhotoCount: count,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return collections, nil
}

// Photos returns a collection's photos in capture order. Only each photo's
// primary file is listed.
func (s *MariaDBSource) Photos(ctx context.Context, collectionID string) ([]catalog.Photo, error) {
	switch {
	case strings.HasPrefix(collectionID, albumPrefix):
		return s.albumPhotos(ctx, collectionID, strings.TrimPrefix(collectionID, albumPrefix))
	case strings.HasPrefix(collectionID, monthPrefix):
		return s.monthPhotos(ctx, collectionID, strings.TrimPrefix(collectionID, monthPrefix))
	default:
		return nil, nil
	}
}

func (s *MariaDBSource) albumPhotos(ctx context.Context, collectionID, albumUID string) ([]catalog.Photo, error) {
	query := `
		SELECT p.photo_uid, f.file_name, p.taken_at, f.file_width, f.file_height
		FROM photos p
		JOIN photos_albums pa ON pa.photo_uid = p.photo_uid
		JOIN files f ON f.photo_id = p.id AND f.file_primary = 1
		WHERE pa.album_uid = ? AND pa.hidden = 0 AND p.deleted_at IS NULL
		ORDER BY p.taken_at, p.photo_uid
	`
	return s.queryPhotos(ctx, collectionID, query, albumUID)
}

func (s *MariaDBSource) monthPhotos(ctx context.Context, collectionID, month string) ([]catalog.Photo, error) {
	query := `
		SELECT p.photo_uid, f.file_name, p.taken_at, f.file_width, f.file_height
		FROM photos p
		JOIN files f ON f.photo_id = p.id AND f.file_primary = 1
		WHERE DATE_FORMAT(p.taken_at, '%Y-%m') = ? AND p.deleted_at IS NULL
		ORDER BY p.taken_at, p.photo_uid
	`
	return s.queryPhotos(ctx, collectionID, query, month)
}

func (s *MariaDBSource) queryPhotos(ctx context.Context, collectionID, query string, args ...any) ([]catalog.Photo, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query photos: %w", err)
	}
	defer rows.Close()

	var photos []catalog.Photo
	for rows.Next() {
		var uid, fileName string
		var takenAt sql.NullTime
		var width, height sql.NullInt64
		if err := rows.Scan(&uid, &fileName, &takenAt, &width, &height); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		photo := catalog.Photo{
			UID:           uid,
			SourceRef:     fileName,
			CollectionKey: collectionID,
			Width:         int(width.Int64),
			Height:        int(height.Int64),
		}
		if takenAt.Valid {
			photo.TakenAt = takenAt.Time
		}
		photos = append(photos, photo)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return photos, nil
}

// Open reads the photo's primary file from the originals tree.
func (s *MariaDBSource) Open(ctx context.Context, photo catalog.Photo) ([]byte, error) {
	if s.originalsDir == "" {
		return nil, errors.New("originals directory not configured")
	}
	data, err := os.ReadFile(filepath.Join(s.originalsDir, photo.SourceRef))
	if err != nil {
		return nil, fmt.Errorf("failed to read photo %s: %w", photo.UID, err)
	}
	return data, nil
}
