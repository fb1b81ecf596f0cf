// Package storage persists scan results between commands: fingerprints,
// duplicate groups with their representatives, and scan history.
package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	_ "modernc.org/sqlite"

	"imagededup/internal/models"
)

// Storage handles persistence of image fingerprints and duplicate groups.
type Storage struct {
	db     *sql.DB
	dbPath string
}

// NewStorage opens (and if needed creates) the database at dbPath.
func NewStorage(dbPath string) (*Storage, error) {
	dir := filepath.Dir(dbPath)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	s := &Storage{db: db, dbPath: dbPath}
	if err := s.init(); err != nil {
		db.Close()
		return nil, err
	}

	return s, nil
}

// Current schema version
const schemaVersion = 2

// migrations defines all schema migrations.
// Each migration should be idempotent (safe to run multiple times).
var migrations = []struct {
	version     int
	description string
	up          string
}{
	{
		version:     1,
		description: "Initial schema",
		up:          "", // Handled by base schema creation
	},
	{
		version:     2,
		description: "Add bytes_reclaimed to scan history",
		up: `
			ALTER TABLE scan_history ADD COLUMN bytes_reclaimed INTEGER DEFAULT 0;
		`,
	},
}

// init creates the database schema.
func (s *Storage) init() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create schema_version table: %w", err)
	}

	schema := `
	CREATE TABLE IF NOT EXISTS images (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		path TEXT UNIQUE NOT NULL,
		fingerprint INTEGER NOT NULL,
		method TEXT NOT NULL,
		bits INTEGER NOT NULL,
		width INTEGER NOT NULL,
		height INTEGER NOT NULL,
		format TEXT NOT NULL,
		file_size INTEGER NOT NULL,
		mod_time TEXT NOT NULL,
		has_exif INTEGER DEFAULT 0,
		quality REAL NOT NULL,
		group_id INTEGER DEFAULT 0,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_images_fingerprint ON images(fingerprint);
	CREATE INDEX IF NOT EXISTS idx_images_group_id ON images(group_id);
	CREATE INDEX IF NOT EXISTS idx_images_path ON images(path);

	CREATE TABLE IF NOT EXISTS groups (
		id INTEGER PRIMARY KEY,
		representative TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS scan_history (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		folder TEXT NOT NULL,
		method TEXT NOT NULL,
		threshold INTEGER NOT NULL,
		scanned_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		total_images INTEGER NOT NULL,
		total_groups INTEGER NOT NULL,
		total_duplicates INTEGER NOT NULL
	);
	`

	if _, err = s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	if err := s.migrate(); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}

// migrate runs pending schema migrations.
func (s *Storage) migrate() error {
	currentVersion := s.getSchemaVersion()

	for _, m := range migrations {
		if m.version <= currentVersion || m.up == "" {
			continue
		}

		// Column might already exist on a fresh database
		if m.version == 2 {
			if s.columnExists("scan_history", "bytes_reclaimed") {
				s.setSchemaVersion(m.version)
				continue
			}
		}

		if _, err := s.db.Exec(m.up); err != nil {
			return fmt.Errorf("migration %d (%s) failed: %w", m.version, m.description, err)
		}

		s.setSchemaVersion(m.version)
	}

	return nil
}

// getSchemaVersion returns the current schema version.
func (s *Storage) getSchemaVersion() int {
	var version int
	err := s.db.QueryRow(`SELECT COALESCE(MAX(version), 0) FROM schema_version`).Scan(&version)
	if err != nil {
		return 0
	}
	return version
}

// setSchemaVersion records a migration as applied.
func (s *Storage) setSchemaVersion(version int) {
	s.db.Exec(`INSERT OR REPLACE INTO schema_version (version) VALUES (?)`, version)
}

// columnExists checks if a column exists in a table.
func (s *Storage) columnExists(table, column string) bool {
	var count int
	err := s.db.QueryRow(`
		SELECT COUNT(*) FROM pragma_table_info(?) WHERE name = ?
	`, table, column).Scan(&count)
	if err != nil {
		return false
	}
	return count > 0
}

// Close closes the database connection.
func (s *Storage) Close() error {
	return s.db.Close()
}

// SaveImages saves or updates multiple image records.
func (s *Storage) SaveImages(records []*models.ImageRecord) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT OR REPLACE INTO images (path, fingerprint, method, bits, width, height, format, file_size, mod_time, has_exif, quality, group_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 0)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, rec := range records {
		hasExifInt := 0
		if rec.HasExif {
			hasExifInt = 1
		}
		_, err := stmt.Exec(
			rec.ID,
			int64(rec.Fingerprint), // cast for SQLite compatibility
			rec.Method,
			rec.Bits,
			rec.Width,
			rec.Height,
			rec.Format,
			rec.FileSize,
			rec.ModTime.UTC().Format(time.RFC3339),
			hasExifInt,
			rec.Quality,
		)
		if err != nil {
			return fmt.Errorf("failed to insert image %s: %w", rec.ID, err)
		}
	}

	return tx.Commit()
}

// GetAllImages returns all stored records ordered by path.
func (s *Storage) GetAllImages() ([]*models.ImageRecord, error) {
	rows, err := s.db.Query(`
		SELECT path, fingerprint, method, bits, width, height, format, file_size, mod_time, has_exif, quality
		FROM images
		ORDER BY path
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query images: %w", err)
	}
	defer rows.Close()

	var records []*models.ImageRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}

	return records, rows.Err()
}

func scanRecord(rows *sql.Rows) (*models.ImageRecord, error) {
	rec := &models.ImageRecord{}
	var fpInt int64
	var hasExifInt int
	var modTime string
	err := rows.Scan(
		&rec.ID,
		&fpInt,
		&rec.Method,
		&rec.Bits,
		&rec.Width,
		&rec.Height,
		&rec.Format,
		&rec.FileSize,
		&modTime,
		&hasExifInt,
		&rec.Quality,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to scan row: %w", err)
	}
	rec.Fingerprint = uint64(fpInt)
	rec.HasExif = hasExifInt == 1
	rec.ModTime, _ = time.Parse(time.RFC3339, modTime)
	return rec, nil
}

// SaveGroups replaces the stored duplicate groups and re-tags every image
// with its group id.
func (s *Storage) SaveGroups(groups []*models.DuplicateGroup) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err = tx.Exec("UPDATE images SET group_id = 0"); err != nil {
		return fmt.Errorf("failed to reset groups: %w", err)
	}
	if _, err = tx.Exec("DELETE FROM groups"); err != nil {
		return fmt.Errorf("failed to clear groups: %w", err)
	}

	groupStmt, err := tx.Prepare("INSERT INTO groups (id, representative) VALUES (?, ?)")
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer groupStmt.Close()

	memberStmt, err := tx.Prepare("UPDATE images SET group_id = ? WHERE path = ?")
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer memberStmt.Close()

	for _, g := range groups {
		if _, err := groupStmt.Exec(g.ID, g.Representative); err != nil {
			return fmt.Errorf("failed to insert group %d: %w", g.ID, err)
		}
		for _, id := range g.Members {
			if _, err := memberStmt.Exec(g.ID, id); err != nil {
				return fmt.Errorf("failed to tag member %s: %w", id, err)
			}
		}
	}

	return tx.Commit()
}

// GetGroups reconstructs the stored duplicate groups. Groups whose member
// images were deleted down to fewer than 2, or whose representative row is
// gone, are dropped.
func (s *Storage) GetGroups() ([]*models.DuplicateGroup, error) {
	rows, err := s.db.Query("SELECT id, representative FROM groups ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("failed to query groups: %w", err)
	}
	defer rows.Close()

	var groups []*models.DuplicateGroup
	for rows.Next() {
		g := &models.DuplicateGroup{}
		if err := rows.Scan(&g.ID, &g.Representative); err != nil {
			return nil, fmt.Errorf("failed to scan group: %w", err)
		}
		groups = append(groups, g)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	var kept []*models.DuplicateGroup
	for _, g := range groups {
		memberRows, err := s.db.Query("SELECT path FROM images WHERE group_id = ?", g.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to query members: %w", err)
		}
		for memberRows.Next() {
			var path string
			if err := memberRows.Scan(&path); err != nil {
				memberRows.Close()
				return nil, fmt.Errorf("failed to scan member: %w", err)
			}
			g.Members = append(g.Members, path)
		}
		if err := memberRows.Err(); err != nil {
			memberRows.Close()
			return nil, err
		}
		memberRows.Close()

		if len(g.Members) < 2 {
			continue
		}
		repPresent := false
		for _, id := range g.Members {
			if id == g.Representative {
				repPresent = true
				break
			}
		}
		if !repPresent {
			continue
		}
		sort.Strings(g.Members)
		kept = append(kept, g)
	}

	return kept, nil
}

// GetImagesByGroupID returns the records in one group.
func (s *Storage) GetImagesByGroupID(groupID int) ([]*models.ImageRecord, error) {
	rows, err := s.db.Query(`
		SELECT path, fingerprint, method, bits, width, height, format, file_size, mod_time, has_exif, quality
		FROM images
		WHERE group_id = ?
		ORDER BY quality DESC, file_size DESC, path
	`, groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to query images: %w", err)
	}
	defer rows.Close()

	var records []*models.ImageRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}

	return records, rows.Err()
}

// DeleteImage removes an image from the database.
func (s *Storage) DeleteImage(path string) error {
	_, err := s.db.Exec("DELETE FROM images WHERE path = ?", path)
	return err
}

// ScanInfo is one scan_history row.
type ScanInfo struct {
	Folder          string
	Method          string
	Threshold       int
	TotalImages     int
	TotalGroups     int
	TotalDuplicates int
	BytesReclaimed  int64
}

// LastScan returns the most recent scan, or nil if none has been recorded.
func (s *Storage) LastScan() (*ScanInfo, error) {
	row := s.db.QueryRow(`
		SELECT folder, method, threshold, total_images, total_groups, total_duplicates, bytes_reclaimed
		FROM scan_history
		ORDER BY id DESC
		LIMIT 1
	`)

	info := &ScanInfo{}
	err := row.Scan(&info.Folder, &info.Method, &info.Threshold,
		&info.TotalImages, &info.TotalGroups, &info.TotalDuplicates, &info.BytesReclaimed)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query scan history: %w", err)
	}
	return info, nil
}

// RecordScan records a completed scan in history.
func (s *Storage) RecordScan(folder, method string, threshold, totalImages, totalGroups, totalDuplicates int, bytesReclaimed int64) error {
	_, err := s.db.Exec(`
		INSERT INTO scan_history (folder, method, threshold, total_images, total_groups, total_duplicates, bytes_reclaimed)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, folder, method, threshold, totalImages, totalGroups, totalDuplicates, bytesReclaimed)
	return err
}
