package spacetraveling

import (
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// ErrBannerNotFound is returned when no banner is stored for a source.
var ErrBannerNotFound = errors.New("spacetraveling: banner not found")

// bannerRetention is how long a banner may go unrequested before the
// daily prune removes it.
const bannerRetention = 30 * 24 * time.Hour

// Banner is a resized post banner stored as JPEG.
type Banner struct {
	Source     string // original image URL
	Data       []byte
	Width      int
	Height     int
	CreatedAt  time.Time
	AccessedAt time.Time
}

// BannerStore wraps a SQLite database caching resized banners by source URL.
type BannerStore struct {
	db  *sql.DB
	now func() time.Time
}

// NewBannerStore opens (or creates) the SQLite database at path, ensures the
// data directory exists, and creates the schema.
func NewBannerStore(path string) (*BannerStore, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// WAL lets banner requests read while another request stores a new
	// banner; writers wait on the busy timeout instead of failing.
	if _, err := db.Exec(`
		PRAGMA journal_mode=WAL;
		PRAGMA busy_timeout=5000;
		PRAGMA synchronous=NORMAL;
	`); err != nil {
		db.Close()
		return nil, err
	}
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(4)
	s := &BannerStore{db: db, now: time.Now}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *BannerStore) Close() error {
	return s.db.Close()
}

func (s *BannerStore) ensureSchema() error {
	_, err := s.db.Exec(`
CREATE TABLE IF NOT EXISTS banners (
    source TEXT PRIMARY KEY,
    data BLOB NOT NULL,
    width INTEGER NOT NULL,
    height INTEGER NOT NULL,
    created_at TEXT NOT NULL,
    accessed_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS banners_accessed_at ON banners (accessed_at);
`)
	return err
}

// Get returns the banner stored for source and marks it as accessed.
// It returns ErrBannerNotFound when nothing is stored.
func (s *BannerStore) Get(source string) (Banner, error) {
	var b Banner
	var created, accessed string
	err := s.db.QueryRow(`SELECT data, width, height, created_at, accessed_at FROM banners WHERE source = ?`, source).
		Scan(&b.Data, &b.Width, &b.Height, &created, &accessed)
	if errors.Is(err, sql.ErrNoRows) {
		return Banner{}, ErrBannerNotFound
	}
	if err != nil {
		return Banner{}, err
	}
	b.Source = source
	b.CreatedAt, _ = time.Parse(time.RFC3339, created)
	b.AccessedAt = s.now().UTC()
	if _, err := s.db.Exec(`UPDATE banners SET accessed_at = ? WHERE source = ?`, b.AccessedAt.Format(time.RFC3339), source); err != nil {
		return Banner{}, err
	}
	return b, nil
}

// Save upserts a banner.
func (s *BannerStore) Save(b Banner) error {
	now := s.now().UTC().Format(time.RFC3339)
	_, err := s.db.Exec(`INSERT OR REPLACE INTO banners (source, data, width, height, created_at, accessed_at) VALUES (?, ?, ?, ?, ?, ?)`,
		b.Source, b.Data, b.Width, b.Height, now, now)
	return err
}

// Prune deletes banners not accessed within maxAge and returns how many
// were removed.
func (s *BannerStore) Prune(maxAge time.Duration) (int64, error) {
	cutoff := s.now().UTC().Add(-maxAge).Format(time.RFC3339)
	res, err := s.db.Exec(`DELETE FROM banners WHERE accessed_at < ?`, cutoff)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
