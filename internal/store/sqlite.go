package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/negotium-labs/negotium/internal/domain"
	"github.com/negotium-labs/negotium/internal/shared"
	_ "modernc.org/sqlite"
)

// SQLiteStore implements Repository using SQLite.
type SQLiteStore struct {
	db     *sql.DB
	turnMu sync.Mutex // Serializes turn/analysis writes to prevent SQLITE_BUSY
}

// NewSQLite creates a new SQLite-backed repository.
func NewSQLite(dbPath string) (Repository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	// Open database with WAL mode for better concurrency.
	dsn := dbPath + "?_journal=WAL&_sync=NORMAL&_busy_timeout=5000"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err := store.initSchema(); err != nil {
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	return store, nil
}

func (s *SQLiteStore) initSchema() error {
	query := `
	PRAGMA busy_timeout = 5000;
	CREATE TABLE IF NOT EXISTS users (
		user_id TEXT PRIMARY KEY,
		username TEXT NOT NULL,
		last_seen_at INTEGER NOT NULL,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS sessions (
		session_id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		scenario_type TEXT NOT NULL,
		difficulty TEXT NOT NULL,
		personality TEXT NOT NULL,
		constraints_json TEXT,
		batna TEXT NOT NULL,
		status TEXT NOT NULL,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL,
		completed_at INTEGER
	);
	CREATE INDEX IF NOT EXISTS idx_sessions_user ON sessions(user_id, created_at DESC);

	CREATE TABLE IF NOT EXISTS turns (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id TEXT NOT NULL,
		turn_number INTEGER NOT NULL,
		user_message TEXT NOT NULL,
		opponent_response TEXT NOT NULL,
		opponent_mood TEXT NOT NULL,
		opponent_patience INTEGER NOT NULL,
		calculated_leverage INTEGER NOT NULL,
		conversation_stage TEXT NOT NULL,
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_turns_session ON turns(session_id, turn_number);

	CREATE TABLE IF NOT EXISTS analyses (
		session_id TEXT PRIMARY KEY,
		feedback_json TEXT NOT NULL,
		generated_at INTEGER NOT NULL
	);
	`
	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// Ping verifies database connectivity.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("close database: %w", err)
	}
	return nil
}

// GetUser retrieves a user by their user ID.
func (s *SQLiteStore) GetUser(ctx context.Context, userID string) (*domain.User, error) {
	query := `SELECT user_id, username, last_seen_at, created_at, updated_at FROM users WHERE user_id = ?`

	row := s.db.QueryRowContext(ctx, query, userID)

	var user domain.User
	var lastSeen, createdAt, updatedAt int64

	err := row.Scan(&user.UserID, &user.Username, &lastSeen, &createdAt, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan user row: %w", err)
	}

	user.LastSeenAt = time.Unix(lastSeen, 0)
	user.CreatedAt = time.Unix(createdAt, 0)
	user.UpdatedAt = time.Unix(updatedAt, 0)

	return &user, nil
}

// UpsertUser creates or updates a user record.
func (s *SQLiteStore) UpsertUser(ctx context.Context, user *domain.User) error {
	query := `
	INSERT INTO users (user_id, username, last_seen_at, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?)
	ON CONFLICT(user_id) DO UPDATE SET
		username = excluded.username,
		last_seen_at = excluded.last_seen_at,
		updated_at = excluded.updated_at`

	_, err := s.db.ExecContext(ctx, query,
		user.UserID, user.Username,
		user.LastSeenAt.Unix(), user.CreatedAt.Unix(), user.UpdatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("upsert user: %w", err)
	}
	return nil
}

// UpdateLastSeen updates the last_seen_at timestamp for a user.
func (s *SQLiteStore) UpdateLastSeen(ctx context.Context, userID string, lastSeen time.Time) error {
	query := `UPDATE users SET last_seen_at = ?, updated_at = ? WHERE user_id = ?`
	result, err := s.db.ExecContext(ctx, query, lastSeen.Unix(), time.Now().Unix(), userID)
	if err != nil {
		return fmt.Errorf("update last_seen: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rows == 0 {
		slog.Warn("UpdateLastSeen affected 0 rows", "user_id", userID)
	}

	return nil
}

// CreateSession inserts a new session record.
func (s *SQLiteStore) CreateSession(ctx context.Context, record *domain.SessionRecord) error {
	var constraintsJSON any
	if len(record.Constraints) > 0 {
		data, err := json.Marshal(record.Constraints)
		if err != nil {
			return fmt.Errorf("marshal constraints: %w", err)
		}
		constraintsJSON = string(data)
	}

	query := `
	INSERT INTO sessions (session_id, user_id, scenario_type, difficulty,
		personality, constraints_json, batna, status, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := s.db.ExecContext(ctx, query,
		record.SessionID, record.UserID, record.ScenarioType, record.Difficulty,
		record.Personality, constraintsJSON, record.BATNA, record.Status,
		record.CreatedAt.Unix(), record.UpdatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

// GetSession retrieves a session record by session ID.
func (s *SQLiteStore) GetSession(ctx context.Context, sessionID string) (*domain.SessionRecord, error) {
	query := `
		SELECT session_id, user_id, scenario_type, difficulty, personality,
		       constraints_json, batna, status, created_at, updated_at, completed_at
		FROM sessions WHERE session_id = ?`

	record, err := scanSession(s.db.QueryRowContext(ctx, query, sessionID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan session row: %w", err)
	}
	return record, nil
}

// ListUserSessions retrieves a user's sessions, newest first.
func (s *SQLiteStore) ListUserSessions(ctx context.Context, userID string) ([]*domain.SessionRecord, error) {
	query := `
		SELECT session_id, user_id, scenario_type, difficulty, personality,
		       constraints_json, batna, status, created_at, updated_at, completed_at
		FROM sessions WHERE user_id = ? ORDER BY created_at DESC`

	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("query user sessions: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			slog.Warn("failed to close user sessions rows", "error", closeErr)
		}
	}()

	var records []*domain.SessionRecord
	for rows.Next() {
		record, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("scan session row: %w", err)
		}
		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate user sessions: %w", err)
	}

	return records, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (*domain.SessionRecord, error) {
	var record domain.SessionRecord
	var constraintsJSON sql.NullString
	var createdAt, updatedAt int64
	var completedAt sql.NullInt64

	err := row.Scan(
		&record.SessionID, &record.UserID, &record.ScenarioType, &record.Difficulty,
		&record.Personality, &constraintsJSON, &record.BATNA, &record.Status,
		&createdAt, &updatedAt, &completedAt,
	)
	if err != nil {
		return nil, err
	}

	record.CreatedAt = time.Unix(createdAt, 0)
	record.UpdatedAt = time.Unix(updatedAt, 0)
	if completedAt.Valid {
		ts := time.Unix(completedAt.Int64, 0)
		record.CompletedAt = &ts
	}
	if constraintsJSON.Valid && constraintsJSON.String != "" {
		if err := json.Unmarshal([]byte(constraintsJSON.String), &record.Constraints); err != nil {
			slog.Warn("failed to decode session constraints", "session_id", record.SessionID, "error", err)
		}
	}

	return &record, nil
}

// SetSessionStatus moves a session to a terminal status.
func (s *SQLiteStore) SetSessionStatus(ctx context.Context, sessionID string, status domain.SessionStatus, completedAt time.Time) error {
	query := `UPDATE sessions SET status = ?, completed_at = ?, updated_at = ? WHERE session_id = ?`
	result, err := s.db.ExecContext(ctx, query, status, completedAt.Unix(), time.Now().Unix(), sessionID)
	if err != nil {
		return fmt.Errorf("update session status: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("session %s not found", sessionID)
	}

	return nil
}

// InsertTurn appends one completed turn. Retries with exponential backoff on
// SQLite concurrency errors so a busy writer never loses a turn.
func (s *SQLiteStore) InsertTurn(ctx context.Context, turn *domain.TurnRecord) error {
	maxRetries := 3
	baseDelay := 100 * time.Millisecond

	for i := 0; i < maxRetries; i++ {
		err := s.insertTurnOnce(ctx, turn)
		if err == nil {
			return nil
		}

		if shared.IsSQLiteConflictError(err) && i < maxRetries-1 {
			delay := baseDelay * time.Duration(1<<i) // exponential backoff: 100ms, 200ms, 400ms
			slog.Debug("InsertTurn failed with SQLITE_BUSY, retrying",
				"session_id", turn.SessionID,
				"attempt", i+1,
				"delay", delay)
			time.Sleep(delay)
			continue
		}

		return fmt.Errorf("failed to insert turn %d for %s after %d attempts: %w",
			turn.TurnNumber, turn.SessionID, i+1, err)
	}

	return nil
}

func (s *SQLiteStore) insertTurnOnce(ctx context.Context, turn *domain.TurnRecord) error {
	s.turnMu.Lock()
	defer s.turnMu.Unlock()

	query := `
	INSERT INTO turns (session_id, turn_number, user_message, opponent_response,
		opponent_mood, opponent_patience, calculated_leverage, conversation_stage, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := s.db.ExecContext(ctx, query,
		turn.SessionID, turn.TurnNumber, turn.UserMessage, turn.OpponentResponse,
		turn.Mood, turn.Patience, turn.Leverage, turn.Stage, turn.CreatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("insert turn: %w", err)
	}
	return nil
}

// ListTurns retrieves a session's turns in turn order.
func (s *SQLiteStore) ListTurns(ctx context.Context, sessionID string) ([]*domain.TurnRecord, error) {
	query := `
		SELECT session_id, turn_number, user_message, opponent_response,
		       opponent_mood, opponent_patience, calculated_leverage, conversation_stage, created_at
		FROM turns WHERE session_id = ? ORDER BY turn_number`

	rows, err := s.db.QueryContext(ctx, query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("query turns: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			slog.Warn("failed to close turns rows", "error", closeErr)
		}
	}()

	var turns []*domain.TurnRecord
	for rows.Next() {
		var turn domain.TurnRecord
		var createdAt int64

		if err := rows.Scan(
			&turn.SessionID, &turn.TurnNumber, &turn.UserMessage, &turn.OpponentResponse,
			&turn.Mood, &turn.Patience, &turn.Leverage, &turn.Stage, &createdAt,
		); err != nil {
			return nil, fmt.Errorf("scan turn row: %w", err)
		}

		turn.CreatedAt = time.Unix(createdAt, 0)
		turns = append(turns, &turn)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate turns: %w", err)
	}

	return turns, nil
}

// InsertAnalysis stores the end-of-session analysis as a JSON document.
func (s *SQLiteStore) InsertAnalysis(ctx context.Context, record *domain.AnalysisRecord) error {
	s.turnMu.Lock()
	defer s.turnMu.Unlock()

	feedback, err := json.Marshal(record.Feedback)
	if err != nil {
		return fmt.Errorf("marshal analysis: %w", err)
	}

	query := `
	INSERT INTO analyses (session_id, feedback_json, generated_at)
	VALUES (?, ?, ?)
	ON CONFLICT(session_id) DO UPDATE SET
		feedback_json = excluded.feedback_json,
		generated_at = excluded.generated_at`

	if _, err := s.db.ExecContext(ctx, query, record.SessionID, string(feedback), record.GeneratedAt.Unix()); err != nil {
		return fmt.Errorf("insert analysis: %w", err)
	}
	return nil
}

// GetAnalysis retrieves the analysis for a completed session.
func (s *SQLiteStore) GetAnalysis(ctx context.Context, sessionID string) (*domain.AnalysisRecord, error) {
	query := `SELECT session_id, feedback_json, generated_at FROM analyses WHERE session_id = ?`

	row := s.db.QueryRowContext(ctx, query, sessionID)

	var record domain.AnalysisRecord
	var feedbackJSON string
	var generatedAt int64

	err := row.Scan(&record.SessionID, &feedbackJSON, &generatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan analysis row: %w", err)
	}

	if err := json.Unmarshal([]byte(feedbackJSON), &record.Feedback); err != nil {
		return nil, fmt.Errorf("decode analysis feedback: %w", err)
	}
	record.GeneratedAt = time.Unix(generatedAt, 0)

	return &record, nil
}
