package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	_ "modernc.org/sqlite"
)

// Store is the client's local state database: answer drafts that survive a
// crash or restart, and the auth token between runs.
type Store struct {
	db *sql.DB
}

// Draft is one locally persisted answer draft.
type Draft struct {
	QuestionID uuid.UUID
	Answer     string
	IsFlagged  bool
	UpdatedAt  time.Time
}

// Open opens (creating if needed) the local database at dbPath.
func Open(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS drafts (
		attempt_id TEXT NOT NULL,
		question_id TEXT NOT NULL,
		answer TEXT NOT NULL DEFAULT '',
		is_flagged INTEGER NOT NULL DEFAULT 0,
		updated_at DATETIME NOT NULL,
		PRIMARY KEY (attempt_id, question_id)
	);

	CREATE TABLE IF NOT EXISTS credentials (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		token TEXT NOT NULL,
		updated_at DATETIME NOT NULL
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// SaveDraft upserts one answer draft.
func (s *Store) SaveDraft(attemptID, questionID uuid.UUID, answer string, isFlagged bool) error {
	_, err := s.db.Exec(`
		INSERT INTO drafts (attempt_id, question_id, answer, is_flagged, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (attempt_id, question_id) DO UPDATE
		SET answer = excluded.answer, is_flagged = excluded.is_flagged, updated_at = excluded.updated_at`,
		attemptID.String(), questionID.String(), answer, boolToInt(isFlagged), time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("save draft: %w", err)
	}
	return nil
}

// LoadDrafts returns every draft stored for the attempt, keyed by question.
func (s *Store) LoadDrafts(attemptID uuid.UUID) (map[uuid.UUID]Draft, error) {
	rows, err := s.db.Query(`
		SELECT question_id, answer, is_flagged, updated_at
		FROM drafts WHERE attempt_id = ?`, attemptID.String())
	if err != nil {
		return nil, fmt.Errorf("load drafts: %w", err)
	}
	defer rows.Close()

	drafts := make(map[uuid.UUID]Draft)
	for rows.Next() {
		var (
			qidStr  string
			d       Draft
			flagged int
		)
		if err := rows.Scan(&qidStr, &d.Answer, &flagged, &d.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan draft: %w", err)
		}
		qid, err := uuid.Parse(qidStr)
		if err != nil {
			continue // Skip rows written by an incompatible build
		}
		d.QuestionID = qid
		d.IsFlagged = flagged != 0
		drafts[qid] = d
	}
	return drafts, rows.Err()
}

// ClearDrafts deletes every draft for the attempt. Called after a successful
// submit.
func (s *Store) ClearDrafts(attemptID uuid.UUID) error {
	_, err := s.db.Exec(`DELETE FROM drafts WHERE attempt_id = ?`, attemptID.String())
	if err != nil {
		return fmt.Errorf("clear drafts: %w", err)
	}
	return nil
}

// SaveToken persists the auth token between runs.
func (s *Store) SaveToken(token string) error {
	_, err := s.db.Exec(`
		INSERT INTO credentials (id, token, updated_at) VALUES (1, ?, ?)
		ON CONFLICT (id) DO UPDATE SET token = excluded.token, updated_at = excluded.updated_at`,
		token, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("save token: %w", err)
	}
	return nil
}

// LoadToken returns the persisted auth token, or "" when none is stored.
func (s *Store) LoadToken() (string, error) {
	var token string
	err := s.db.QueryRow(`SELECT token FROM credentials WHERE id = 1`).Scan(&token)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("load token: %w", err)
	}
	return token, nil
}

// ClearToken removes the persisted auth token.
func (s *Store) ClearToken() error {
	_, err := s.db.Exec(`DELETE FROM credentials WHERE id = 1`)
	return err
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
