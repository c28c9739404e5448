package notification

import (
	"context"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/resolveit/platform/internal/shared/errors"
	"github.com/resolveit/platform/internal/shared/types"
)

// Repository persists in-app notifications
type Repository interface {
	Save(ctx context.Context, n *Notification) error
	ListForUser(ctx context.Context, recipientID types.ID) ([]Notification, error)
	Unread(ctx context.Context, recipientID types.ID) ([]Notification, error)
	UnreadCount(ctx context.Context, recipientID types.ID) (int, error)
	MarkRead(ctx context.Context, id, recipientID types.ID) error
	MarkAllRead(ctx context.Context, recipientID types.ID) error
}

// PostgresRepository implements Repository using PostgreSQL
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgreSQL repository
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

const columns = `id, recipient_id, complaint_id, kind, subject, body, read, created_at, read_at`

// Save inserts a notification
func (r *PostgresRepository) Save(ctx context.Context, n *Notification) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO notifications (`+columns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		n.ID, n.RecipientID, n.ComplaintID, n.Kind, n.Subject, n.Body, n.Read, n.CreatedAt, n.ReadAt,
	)
	if err != nil {
		return errors.Wrap(err, "failed to save notification")
	}
	return nil
}

// ListForUser returns all notifications for a user, newest first
func (r *PostgresRepository) ListForUser(ctx context.Context, recipientID types.ID) ([]Notification, error) {
	return r.query(ctx,
		`SELECT `+columns+` FROM notifications WHERE recipient_id = $1 ORDER BY created_at DESC`,
		recipientID)
}

// Unread returns unread notifications for a user, newest first
func (r *PostgresRepository) Unread(ctx context.Context, recipientID types.ID) ([]Notification, error) {
	return r.query(ctx,
		`SELECT `+columns+` FROM notifications WHERE recipient_id = $1 AND read = FALSE ORDER BY created_at DESC`,
		recipientID)
}

// UnreadCount returns the number of unread notifications for a user
func (r *PostgresRepository) UnreadCount(ctx context.Context, recipientID types.ID) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM notifications WHERE recipient_id = $1 AND read = FALSE`,
		recipientID).Scan(&count)
	if err != nil {
		return 0, errors.Wrap(err, "failed to count notifications")
	}
	return count, nil
}

// MarkRead marks one notification as read, scoped to its recipient
func (r *PostgresRepository) MarkRead(ctx context.Context, id, recipientID types.ID) error {
	result, err := r.pool.Exec(ctx,
		`UPDATE notifications SET read = TRUE, read_at = NOW() WHERE id = $1 AND recipient_id = $2`,
		id, recipientID)
	if err != nil {
		return errors.Wrap(err, "failed to mark notification read")
	}
	if result.RowsAffected() == 0 {
		return errors.NotFound("notification", id.String())
	}
	return nil
}

// MarkAllRead marks all of a user's notifications as read
func (r *PostgresRepository) MarkAllRead(ctx context.Context, recipientID types.ID) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE notifications SET read = TRUE, read_at = NOW() WHERE recipient_id = $1 AND read = FALSE`,
		recipientID)
	if err != nil {
		return errors.Wrap(err, "failed to mark notifications read")
	}
	return nil
}

func (r *PostgresRepository) query(ctx context.Context, sql string, args ...any) ([]Notification, error) {
	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list notifications")
	}
	defer rows.Close()

	var notifications []Notification
	for rows.Next() {
		var n Notification
		err := rows.Scan(&n.ID, &n.RecipientID, &n.ComplaintID, &n.Kind, &n.Subject,
			&n.Body, &n.Read, &n.CreatedAt, &n.ReadAt)
		if err != nil {
			return nil, errors.Wrap(err, "failed to scan notification")
		}
		notifications = append(notifications, n)
	}
	return notifications, nil
}

// MemoryRepository is an in-memory Repository for tests and limited mode
type MemoryRepository struct {
	mu            sync.RWMutex
	notifications []Notification
}

// NewMemoryRepository creates an empty in-memory repository
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{}
}

// Save stores a notification
func (r *MemoryRepository) Save(ctx context.Context, n *Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notifications = append(r.notifications, *n)
	return nil
}

// ListForUser returns all notifications for a user, newest first
func (r *MemoryRepository) ListForUser(ctx context.Context, recipientID types.ID) ([]Notification, error) {
	return r.collect(recipientID, false), nil
}

// Unread returns unread notifications for a user, newest first
func (r *MemoryRepository) Unread(ctx context.Context, recipientID types.ID) ([]Notification, error) {
	return r.collect(recipientID, true), nil
}

// UnreadCount returns the number of unread notifications for a user
func (r *MemoryRepository) UnreadCount(ctx context.Context, recipientID types.ID) (int, error) {
	return len(r.collect(recipientID, true)), nil
}

// MarkRead marks one notification as read
func (r *MemoryRepository) MarkRead(ctx context.Context, id, recipientID types.ID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.notifications {
		n := &r.notifications[i]
		if n.ID == id && n.RecipientID == recipientID {
			now := time.Now()
			n.Read = true
			n.ReadAt = &now
			return nil
		}
	}
	return errors.NotFound("notification", id.String())
}

// MarkAllRead marks all of a user's notifications as read
func (r *MemoryRepository) MarkAllRead(ctx context.Context, recipientID types.ID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	for i := range r.notifications {
		n := &r.notifications[i]
		if n.RecipientID == recipientID && !n.Read {
			n.Read = true
			n.ReadAt = &now
		}
	}
	return nil
}

func (r *MemoryRepository) collect(recipientID types.ID, unreadOnly bool) []Notification {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []Notification
	for i := len(r.notifications) - 1; i >= 0; i-- {
		n := r.notifications[i]
		if n.RecipientID != recipientID {
			continue
		}
		if unreadOnly && n.Read {
			continue
		}
		result = append(result, n)
	}
	return result
}

var _ Repository = (*PostgresRepository)(nil)
var _ Repository = (*MemoryRepository)(nil)
