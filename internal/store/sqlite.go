package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	_ "modernc.org/sqlite"

	"github.com/ryandumpert/flint/internal/model"
	"github.com/ryandumpert/flint/internal/section"
	"github.com/ryandumpert/flint/internal/textnorm"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db      *sql.DB
	mu      sync.Mutex // guards entropy
	entropy *ulid.MonotonicEntropy
}

var _ Store = (*SQLiteStore)(nil)

// NewSQLiteStore opens or creates a SQLite database at the given path.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=foreign_keys(on)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	s := &SQLiteStore{
		db:      db,
		entropy: ulid.Monotonic(rand.New(rand.NewSource(time.Now().UnixNano())), 0),
	}

	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return s, nil
}

func (s *SQLiteStore) newID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return ulid.MustNew(ulid.Timestamp(time.Now()), s.entropy).String()
}

func (s *SQLiteStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS contracts (
		id          TEXT PRIMARY KEY,
		name        TEXT NOT NULL,
		file_name   TEXT NOT NULL,
		version     INTEGER NOT NULL DEFAULT 1,
		supersedes  TEXT,
		text        TEXT NOT NULL,
		word_count  INTEGER NOT NULL DEFAULT 0,
		char_count  INTEGER NOT NULL DEFAULT 0,
		page_count  INTEGER,
		created_at  TEXT NOT NULL,
		deleted_at  TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_contracts_name ON contracts(name, version);
	CREATE INDEX IF NOT EXISTS idx_contracts_created ON contracts(created_at DESC);
	CREATE INDEX IF NOT EXISTS idx_contracts_deleted ON contracts(deleted_at);

	CREATE TABLE IF NOT EXISTS issues (
		id                 TEXT PRIMARY KEY,
		contract_id        TEXT NOT NULL REFERENCES contracts(id),
		seq                INTEGER NOT NULL,
		title              TEXT NOT NULL,
		category           TEXT NOT NULL,
		severity           TEXT NOT NULL,
		risk_type          TEXT NOT NULL,
		confidence         REAL NOT NULL,
		anchor_start       INTEGER NOT NULL,
		anchor_end         INTEGER NOT NULL,
		fingerprint        TEXT,
		quote              TEXT NOT NULL,
		why_concern        TEXT NOT NULL,
		suggested_edits    TEXT NOT NULL,
		discussion_prompts TEXT,
		created_at         TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_issues_contract ON issues(contract_id, seq);

	CREATE TABLE IF NOT EXISTS sections (
		id           TEXT PRIMARY KEY,
		contract_id  TEXT NOT NULL REFERENCES contracts(id),
		seq          INTEGER NOT NULL,
		heading      TEXT,
		text         TEXT NOT NULL,
		start_offset INTEGER NOT NULL,
		end_offset   INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_sections_contract ON sections(contract_id);

	CREATE VIRTUAL TABLE IF NOT EXISTS sections_fts USING fts5(
		text,
		content=sections,
		content_rowid=rowid
	);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return err
	}

	// FTS5 triggers for automatic sync
	triggers := []string{
		`CREATE TRIGGER IF NOT EXISTS sections_ai AFTER INSERT ON sections BEGIN
			INSERT INTO sections_fts(rowid, text) VALUES (new.rowid, new.text);
		END`,
		`CREATE TRIGGER IF NOT EXISTS sections_ad AFTER DELETE ON sections BEGIN
			INSERT INTO sections_fts(sections_fts, rowid, text) VALUES('delete', old.rowid, old.text);
		END`,
		`CREATE TRIGGER IF NOT EXISTS sections_au AFTER UPDATE ON sections BEGIN
			INSERT INTO sections_fts(sections_fts, rowid, text) VALUES('delete', old.rowid, old.text);
			INSERT INTO sections_fts(rowid, text) VALUES (new.rowid, new.text);
		END`,
	}
	for _, t := range triggers {
		if _, err := s.db.Exec(t); err != nil {
			return fmt.Errorf("create trigger: %w", err)
		}
	}

	return nil
}

// Ingest normalizes the raw text into canonical form and stores it as the
// next version of p.Name.
func (s *SQLiteStore) Ingest(ctx context.Context, p IngestParams) (*model.ContractVersion, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	v, err := s.ingestTx(ctx, tx, p)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return v, nil
}

func (s *SQLiteStore) ingestTx(ctx context.Context, tx *sql.Tx, p IngestParams) (*model.ContractVersion, error) {
	if strings.TrimSpace(p.Name) == "" {
		return nil, fmt.Errorf("contract name is required")
	}
	text, stats := textnorm.Canonicalize(p.RawText)
	if text == "" {
		return nil, fmt.Errorf("contract %q has no text", p.Name)
	}

	fileName := p.FileName
	if fileName == "" {
		fileName = p.Name
	}

	now := time.Now().UTC()
	id := s.newID()

	// Check for existing latest version
	var prevID string
	var prevVersion int
	err := tx.QueryRowContext(ctx,
		`SELECT id, version FROM contracts
		 WHERE name = ? AND deleted_at IS NULL
		 ORDER BY version DESC LIMIT 1`, p.Name).Scan(&prevID, &prevVersion)

	version := 1
	var supersedes *string
	if err == nil {
		version = prevVersion + 1
		supersedes = &prevID
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("find previous version: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO contracts (id, name, file_name, version, supersedes, text, word_count, char_count, page_count, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, p.Name, fileName, version, nullString(supersedes), text, stats.WordCount, stats.CharCount, nullInt(p.PageCount),
		now.Format(time.RFC3339Nano))
	if err != nil {
		return nil, fmt.Errorf("insert contract: %w", err)
	}

	for i, sec := range section.Split(text, section.DefaultOptions()) {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO sections (id, contract_id, seq, heading, text, start_offset, end_offset)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			s.newID(), id, i, sec.Heading, sec.Text, sec.Start, sec.End)
		if err != nil {
			return nil, fmt.Errorf("insert section: %w", err)
		}
	}

	v := &model.ContractVersion{
		ID:        id,
		Name:      p.Name,
		FileName:  fileName,
		Version:   version,
		Text:      text,
		WordCount: stats.WordCount,
		CharCount: stats.CharCount,
		PageCount: p.PageCount,
		CreatedAt: now,
	}
	if supersedes != nil {
		v.Supersedes = *supersedes
	}

	return v, nil
}

const contractColumns = `c.id, c.name, c.file_name, c.version, c.supersedes, c.text, c.word_count,
	c.char_count, c.page_count, c.created_at, c.deleted_at,
	(SELECT COUNT(*) FROM issues i WHERE i.contract_id = c.id)`

func (s *SQLiteStore) Get(ctx context.Context, p GetParams) ([]model.ContractVersion, error) {
	var query string
	var args []interface{}

	switch {
	case p.ID != "":
		query = `SELECT ` + contractColumns + ` FROM contracts c WHERE c.id = ? AND c.deleted_at IS NULL`
		args = []interface{}{p.ID}
	case p.History:
		query = `SELECT ` + contractColumns + ` FROM contracts c WHERE c.name = ? AND c.deleted_at IS NULL
				 ORDER BY c.version DESC`
		args = []interface{}{p.Name}
	case p.Version > 0:
		query = `SELECT ` + contractColumns + ` FROM contracts c WHERE c.name = ? AND c.version = ? AND c.deleted_at IS NULL
				 LIMIT 1`
		args = []interface{}{p.Name, p.Version}
	default:
		query = `SELECT ` + contractColumns + ` FROM contracts c WHERE c.name = ? AND c.deleted_at IS NULL
				 ORDER BY c.version DESC LIMIT 1`
		args = []interface{}{p.Name}
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var versions []model.ContractVersion
	for rows.Next() {
		v, err := scanContract(rows)
		if err != nil {
			return nil, err
		}
		versions = append(versions, v)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if len(versions) == 0 {
		key := p.ID
		if key == "" {
			key = p.Name
		}
		return nil, fmt.Errorf("contract %w: %s", ErrNotFound, key)
	}

	return versions, nil
}

// Resolve returns the version with the given ID, or else the latest
// version of the contract with that name.
func (s *SQLiteStore) Resolve(ctx context.Context, idOrName string) (*model.ContractVersion, error) {
	if vs, err := s.Get(ctx, GetParams{ID: idOrName}); err == nil {
		return &vs[0], nil
	}
	vs, err := s.Get(ctx, GetParams{Name: idOrName})
	if err != nil {
		return nil, err
	}
	return &vs[0], nil
}

func (s *SQLiteStore) List(ctx context.Context, p ListParams) ([]model.ContractVersion, error) {
	limit := p.Limit
	if limit <= 0 {
		limit = 20
	}

	where := []string{"c.deleted_at IS NULL"}
	var args []interface{}
	if p.Name != "" {
		where = append(where, "c.name = ?")
		args = append(args, p.Name)
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM contracts c
		INNER JOIN (
			SELECT name, MAX(version) AS max_ver
			FROM contracts WHERE deleted_at IS NULL
			GROUP BY name
		) latest ON c.name = latest.name AND c.version = latest.max_ver
		WHERE %s
		ORDER BY c.created_at DESC
		LIMIT ?`, contractColumns, strings.Join(where, " AND "))
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var versions []model.ContractVersion
	for rows.Next() {
		v, err := scanContract(rows)
		if err != nil {
			return nil, err
		}
		v.Text = ""
		versions = append(versions, v)
	}

	return versions, rows.Err()
}

// SaveIssues replaces the issues of a version in one transaction, so
// readers see either the old analysis or the new one.
func (s *SQLiteStore) SaveIssues(ctx context.Context, versionID string, issues []model.Issue) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := insertIssues(ctx, tx, versionID, issues); err != nil {
		return err
	}
	return tx.Commit()
}

func insertIssues(ctx context.Context, tx *sql.Tx, versionID string, issues []model.Issue) error {
	var exists int
	if err := tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM contracts WHERE id = ? AND deleted_at IS NULL`, versionID).Scan(&exists); err != nil {
		return err
	}
	if exists == 0 {
		return fmt.Errorf("contract %w: %s", ErrNotFound, versionID)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM issues WHERE contract_id = ?`, versionID); err != nil {
		return fmt.Errorf("clear issues: %w", err)
	}

	for i, iss := range issues {
		edits, err := json.Marshal(iss.SuggestedEdits)
		if err != nil {
			return fmt.Errorf("encode edits: %w", err)
		}
		var prompts *string
		if iss.DiscussionPrompts != nil {
			b, err := json.Marshal(iss.DiscussionPrompts)
			if err != nil {
				return fmt.Errorf("encode prompts: %w", err)
			}
			ps := string(b)
			prompts = &ps
		}

		_, err = tx.ExecContext(ctx,
			`INSERT INTO issues (id, contract_id, seq, title, category, severity, risk_type, confidence,
			                     anchor_start, anchor_end, fingerprint, quote, why_concern,
			                     suggested_edits, discussion_prompts, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			iss.ID, versionID, i, iss.Title, iss.Category, string(iss.Severity), string(iss.RiskType),
			iss.Confidence, iss.Anchor.Start, iss.Anchor.End, iss.Anchor.Fingerprint, iss.Quote,
			iss.WhyConcern, string(edits), nullString(prompts), iss.CreatedAt.UTC().Format(time.RFC3339Nano))
		if err != nil {
			return fmt.Errorf("insert issue: %w", err)
		}
	}

	return nil
}

func (s *SQLiteStore) Issues(ctx context.Context, versionID string, f IssueFilter) ([]model.Issue, error) {
	where := []string{"contract_id = ?"}
	args := []interface{}{versionID}
	if f.Severity != "" {
		where = append(where, "severity = ?")
		args = append(args, string(f.Severity))
	}
	if f.Category != "" {
		where = append(where, "category = ? COLLATE NOCASE")
		args = append(args, f.Category)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, contract_id, title, category, severity, risk_type, confidence,
		        anchor_start, anchor_end, fingerprint, quote, why_concern,
		        suggested_edits, discussion_prompts, created_at
		 FROM issues WHERE `+strings.Join(where, " AND ")+` ORDER BY seq`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	issues := []model.Issue{}
	for rows.Next() {
		iss, err := scanIssue(rows)
		if err != nil {
			return nil, err
		}
		issues = append(issues, iss)
	}

	return issues, rows.Err()
}

func (s *SQLiteStore) Rm(ctx context.Context, p RmParams) error {
	if p.Hard {
		ids, err := s.versionIDs(ctx, p.Name, p.AllVersions)
		if err != nil {
			return err
		}
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		defer tx.Rollback()
		for _, id := range ids {
			for _, q := range []string{
				`DELETE FROM issues WHERE contract_id = ?`,
				`DELETE FROM sections WHERE contract_id = ?`,
				`DELETE FROM contracts WHERE id = ?`,
			} {
				if _, err := tx.ExecContext(ctx, q, id); err != nil {
					return err
				}
			}
		}
		return tx.Commit()
	}

	now := time.Now().UTC().Format(time.RFC3339Nano)
	if p.AllVersions {
		res, err := s.db.ExecContext(ctx,
			`UPDATE contracts SET deleted_at = ? WHERE name = ? AND deleted_at IS NULL`,
			now, p.Name)
		if err != nil {
			return err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return fmt.Errorf("contract %w: %s", ErrNotFound, p.Name)
		}
		return nil
	}

	// Soft-delete latest version only
	ids, err := s.versionIDs(ctx, p.Name, false)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `UPDATE contracts SET deleted_at = ? WHERE id = ?`, now, ids[0])
	return err
}

// versionIDs returns the live versions of a contract, newest first.
func (s *SQLiteStore) versionIDs(ctx context.Context, name string, all bool) ([]string, error) {
	query := `SELECT id FROM contracts WHERE name = ? AND deleted_at IS NULL ORDER BY version DESC`
	if !all {
		query += ` LIMIT 1`
	}
	rows, err := s.db.QueryContext(ctx, query, name)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		return nil, fmt.Errorf("contract %w: %s", ErrNotFound, name)
	}
	return ids, rows.Err()
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func nullInt(n *int) sql.NullInt64 {
	if n == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*n), Valid: true}
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanContract(row scanner) (model.ContractVersion, error) {
	var v model.ContractVersion
	var supersedes, deletedAt sql.NullString
	var pageCount sql.NullInt64
	var createdAt string

	err := row.Scan(
		&v.ID, &v.Name, &v.FileName, &v.Version, &supersedes, &v.Text, &v.WordCount,
		&v.CharCount, &pageCount, &createdAt, &deletedAt, &v.IssueCount,
	)
	if err != nil {
		return v, err
	}

	v.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
	if supersedes.Valid {
		v.Supersedes = supersedes.String
	}
	if pageCount.Valid {
		n := int(pageCount.Int64)
		v.PageCount = &n
	}
	if deletedAt.Valid {
		t, _ := time.Parse(time.RFC3339Nano, deletedAt.String)
		v.DeletedAt = &t
	}

	return v, nil
}

func scanIssue(row scanner) (model.Issue, error) {
	var iss model.Issue
	var severity, riskType, edits, createdAt string
	var fingerprint, prompts sql.NullString

	err := row.Scan(
		&iss.ID, &iss.ContractVersionID, &iss.Title, &iss.Category, &severity, &riskType,
		&iss.Confidence, &iss.Anchor.Start, &iss.Anchor.End, &fingerprint, &iss.Quote,
		&iss.WhyConcern, &edits, &prompts, &createdAt,
	)
	if err != nil {
		return iss, err
	}

	iss.Severity = model.Severity(severity)
	iss.RiskType = model.RiskType(riskType)
	iss.Anchor.Fingerprint = fingerprint.String
	iss.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
	if err := json.Unmarshal([]byte(edits), &iss.SuggestedEdits); err != nil {
		return iss, fmt.Errorf("decode edits for %s: %w", iss.ID, err)
	}
	if iss.SuggestedEdits == nil {
		iss.SuggestedEdits = []model.SuggestedEdit{}
	}
	if prompts.Valid {
		if err := json.Unmarshal([]byte(prompts.String), &iss.DiscussionPrompts); err != nil {
			return iss, fmt.Errorf("decode prompts for %s: %w", iss.ID, err)
		}
	}

	return iss, nil
}
