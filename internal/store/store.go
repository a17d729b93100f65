// Package store keeps successive report snapshots in a local SQLite
// database. Snapshots are immutable: a new run inserts a new row and never
// updates an old one.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // SQLite driver

	"github.com/amosWeiskopf/siteaudit/internal/models"
)

// FileName is the database file created inside the storage directory.
const FileName = "siteaudit.db"

// ErrNotFound is returned by Get for an unknown snapshot ID.
var ErrNotFound = errors.New("snapshot not found")

// Store provides SQLite-based storage for report snapshots.
type Store struct {
	db     *sql.DB
	dbPath string
}

// Snapshot describes a stored report without loading it.
type Snapshot struct {
	ID          string    `json:"id" yaml:"id"`
	RootURL     string    `json:"root_url" yaml:"root_url"`
	GeneratedAt time.Time `json:"generated_at" yaml:"generated_at"`
	Score       float64   `json:"score" yaml:"score"`
	Grade       string    `json:"grade" yaml:"grade"`
	Issues      int       `json:"issues" yaml:"issues"`
	Pages       int       `json:"pages" yaml:"pages"`
}

// Open opens or creates the snapshot database in dir.
func Open(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}
	dbPath := filepath.Join(dir, FileName)

	db, err := sql.Open("sqlite", dbPath+"?mode=rwc")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	s := &Store{db: db, dbPath: dbPath}
	if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}
	if err := s.createTables(context.Background()); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}
	return s, nil
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.dbPath
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createTables(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS snapshots (
		id TEXT PRIMARY KEY,
		root_url TEXT NOT NULL,
		generated_at INTEGER NOT NULL,
		score REAL NOT NULL,
		grade TEXT NOT NULL,
		issues INTEGER NOT NULL,
		pages INTEGER NOT NULL,
		report TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_snapshots_root ON snapshots(root_url, generated_at);
	`
	_, err := s.db.ExecContext(ctx, schema)
	return err
}

// Save stores report as a new snapshot and returns its ID. A report that
// already carries an ID keeps it; otherwise a fresh one is assigned. The
// caller's report is not modified.
func (s *Store) Save(ctx context.Context, report *models.Report) (string, error) {
	if report == nil {
		return "", errors.New("save snapshot: nil report")
	}
	snapshot := *report
	if snapshot.ID == "" {
		snapshot.ID = uuid.NewString()
	}

	data, err := json.Marshal(&snapshot)
	if err != nil {
		return "", fmt.Errorf("save snapshot: marshal report: %w", err)
	}

	query := `
		INSERT INTO snapshots (id, root_url, generated_at, score, grade, issues, pages, report)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err = s.db.ExecContext(ctx, query,
		snapshot.ID,
		snapshot.Crawl.RootURL,
		snapshot.GeneratedAt.UnixNano(),
		snapshot.Audit.Score,
		snapshot.Grade,
		snapshot.Audit.Summary.TotalIssues,
		snapshot.Crawl.CrawledPages,
		string(data),
	)
	if err != nil {
		return "", fmt.Errorf("save snapshot %s: %w", snapshot.ID, err)
	}
	return snapshot.ID, nil
}

// List returns snapshot metadata newest first. An empty rootURL lists
// every site; limit <= 0 means no limit.
func (s *Store) List(ctx context.Context, rootURL string, limit int) ([]Snapshot, error) {
	query := `SELECT id, root_url, generated_at, score, grade, issues, pages FROM snapshots`
	var args []any
	if rootURL != "" {
		query += ` WHERE root_url = ?`
		args = append(args, rootURL)
	}
	query += ` ORDER BY generated_at DESC, rowid DESC`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	defer rows.Close()

	snapshots := []Snapshot{}
	for rows.Next() {
		var (
			snap        Snapshot
			generatedAt int64
		)
		if err := rows.Scan(&snap.ID, &snap.RootURL, &generatedAt, &snap.Score, &snap.Grade, &snap.Issues, &snap.Pages); err != nil {
			return nil, fmt.Errorf("list snapshots: scan: %w", err)
		}
		snap.GeneratedAt = time.Unix(0, generatedAt).UTC()
		snapshots = append(snapshots, snap)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	return snapshots, nil
}

// Get loads a stored report by ID.
func (s *Store) Get(ctx context.Context, id string) (*models.Report, error) {
	var data string
	err := s.db.QueryRowContext(ctx, `SELECT report FROM snapshots WHERE id = ?`, id).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get snapshot %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get snapshot %s: %w", id, err)
	}

	var report models.Report
	if err := json.Unmarshal([]byte(data), &report); err != nil {
		return nil, fmt.Errorf("get snapshot %s: unmarshal report: %w", id, err)
	}
	return &report, nil
}
