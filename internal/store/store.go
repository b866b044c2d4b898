// Package store provides data persistence interfaces and implementations.
package store

import (
	"context"
	"time"

	"github.com/negotium-labs/negotium/internal/domain"
)

// Repository defines the interface for persisting users, sessions, turns,
// and analyses. Not-found lookups return (nil, nil).
type Repository interface {
	// GetUser retrieves a user by their user ID.
	GetUser(ctx context.Context, userID string) (*domain.User, error)

	// UpsertUser creates or updates a user record.
	UpsertUser(ctx context.Context, user *domain.User) error

	// UpdateLastSeen updates the last_seen_at timestamp for a user.
	UpdateLastSeen(ctx context.Context, userID string, lastSeen time.Time) error

	// CreateSession inserts a new session record with status active.
	CreateSession(ctx context.Context, record *domain.SessionRecord) error

	// GetSession retrieves a session record by session ID.
	GetSession(ctx context.Context, sessionID string) (*domain.SessionRecord, error)

	// ListUserSessions retrieves a user's sessions, newest first.
	ListUserSessions(ctx context.Context, userID string) ([]*domain.SessionRecord, error)

	// SetSessionStatus moves a session to a terminal status.
	SetSessionStatus(ctx context.Context, sessionID string, status domain.SessionStatus, completedAt time.Time) error

	// InsertTurn appends one completed turn. Turns are never updated.
	InsertTurn(ctx context.Context, turn *domain.TurnRecord) error

	// ListTurns retrieves a session's turns in turn order.
	ListTurns(ctx context.Context, sessionID string) ([]*domain.TurnRecord, error)

	// InsertAnalysis stores the end-of-session analysis.
	InsertAnalysis(ctx context.Context, record *domain.AnalysisRecord) error

	// GetAnalysis retrieves the analysis for a completed session.
	GetAnalysis(ctx context.Context, sessionID string) (*domain.AnalysisRecord, error)

	// Ping verifies database connectivity.
	Ping(ctx context.Context) error

	// Close closes the database connection.
	Close() error
}
