package infrastructure

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/resolveit/platform/internal/complaint/domain"
	"github.com/resolveit/platform/internal/shared/errors"
	"github.com/resolveit/platform/internal/shared/types"
)

// PostgresRepository implements domain.Repository using PostgreSQL
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgreSQL repository
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

const complaintColumns = `
	c.id, c.category, c.description, c.urgency, c.status, c.anonymous,
	c.owner_id, c.assigned_to, c.escalated, c.escalated_to, c.escalated_at,
	c.attachment_path, c.created_at, c.updated_at,
	COALESCE(o.username, ''), COALESCE(a.username, ''), COALESCE(e.username, '')`

const complaintJoins = `
	FROM complaints c
	LEFT JOIN users o ON o.id = c.owner_id
	LEFT JOIN users a ON a.id = c.assigned_to
	LEFT JOIN users e ON e.id = c.escalated_to`

// Save inserts a new complaint and its pending timeline entries in one
// transaction.
func (r *PostgresRepository) Save(ctx context.Context, c *domain.Complaint) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return errors.Storage(err, "failed to begin transaction")
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO complaints (
			id, category, description, urgency, status, anonymous,
			owner_id, assigned_to, escalated, escalated_to, escalated_at,
			attachment_path, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		c.ID, c.Category, c.Description, c.Urgency, c.Status, c.Anonymous,
		c.OwnerID, c.AssignedTo, c.Escalated, c.EscalatedTo, c.EscalatedAt,
		nullable(c.AttachmentPath), c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		return errors.Storage(err, "failed to save complaint")
	}

	for _, entry := range c.PendingEntries() {
		if err := insertEntry(ctx, tx, &entry); err != nil {
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return errors.Storage(err, "failed to commit transaction")
	}
	return nil
}

// Update writes the complaint row and inserts pending timeline entries
// in one transaction.
func (r *PostgresRepository) Update(ctx context.Context, c *domain.Complaint) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return errors.Storage(err, "failed to begin transaction")
	}
	defer tx.Rollback(ctx)

	result, err := tx.Exec(ctx, `
		UPDATE complaints SET
			status = $2, assigned_to = $3,
			escalated = $4, escalated_to = $5, escalated_at = $6,
			updated_at = $7
		WHERE id = $1`,
		c.ID, c.Status, c.AssignedTo,
		c.Escalated, c.EscalatedTo, c.EscalatedAt,
		c.UpdatedAt,
	)
	if err != nil {
		return errors.Storage(err, "failed to update complaint")
	}
	if result.RowsAffected() == 0 {
		return errors.NotFound("complaint", c.ID.String())
	}

	for _, entry := range c.PendingEntries() {
		if err := insertEntry(ctx, tx, &entry); err != nil {
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return errors.Storage(err, "failed to commit transaction")
	}
	return nil
}

func insertEntry(ctx context.Context, tx pgx.Tx, entry *domain.TimelineEntry) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO complaint_timeline (
			id, complaint_id, status, comment, internal_note, updated_by, timestamp
		) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		entry.ID, entry.ComplaintID, entry.Status, entry.Comment,
		entry.InternalNote, entry.UpdatedBy, entry.Timestamp,
	)
	if err != nil {
		return errors.Storage(err, "failed to append timeline entry")
	}
	return nil
}

// FindByID finds a complaint by ID
func (r *PostgresRepository) FindByID(ctx context.Context, id types.ID) (*domain.Complaint, error) {
	row := r.pool.QueryRow(ctx, `SELECT`+complaintColumns+complaintJoins+` WHERE c.id = $1`, id)

	c, err := scanComplaint(row)
	if err == pgx.ErrNoRows {
		return nil, errors.NotFound("complaint", id.String())
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to find complaint")
	}
	return c, nil
}

// List returns all complaints in insertion order
func (r *PostgresRepository) List(ctx context.Context) ([]domain.Complaint, error) {
	return r.query(ctx, `SELECT`+complaintColumns+complaintJoins+` ORDER BY c.created_at`)
}

// FindByOwner returns complaints owned by a user
func (r *PostgresRepository) FindByOwner(ctx context.Context, ownerID types.ID) ([]domain.Complaint, error) {
	return r.query(ctx,
		`SELECT`+complaintColumns+complaintJoins+` WHERE c.owner_id = $1 ORDER BY c.created_at`, ownerID)
}

// FindByStatus returns complaints with the given status
func (r *PostgresRepository) FindByStatus(ctx context.Context, status domain.Status) ([]domain.Complaint, error) {
	return r.query(ctx,
		`SELECT`+complaintColumns+complaintJoins+` WHERE c.status = $1 ORDER BY c.created_at`, status)
}

// FindByCategory returns complaints in the given category
func (r *PostgresRepository) FindByCategory(ctx context.Context, category string) ([]domain.Complaint, error) {
	return r.query(ctx,
		`SELECT`+complaintColumns+complaintJoins+` WHERE c.category = $1 ORDER BY c.created_at`, category)
}

// FindByUrgency returns complaints with the given urgency
func (r *PostgresRepository) FindByUrgency(ctx context.Context, urgency string) ([]domain.Complaint, error) {
	return r.query(ctx,
		`SELECT`+complaintColumns+complaintJoins+` WHERE c.urgency = $1 ORDER BY c.created_at`, urgency)
}

// Timeline returns entries for a complaint ordered by timestamp ascending
func (r *PostgresRepository) Timeline(ctx context.Context, complaintID types.ID, includeInternal bool) ([]domain.TimelineEntry, error) {
	query := `
		SELECT t.id, t.complaint_id, t.status, t.comment, t.internal_note,
			t.updated_by, COALESCE(u.username, ''), t.timestamp
		FROM complaint_timeline t
		LEFT JOIN users u ON u.id = t.updated_by
		WHERE t.complaint_id = $1`
	if !includeInternal {
		query += ` AND t.internal_note = FALSE`
	}
	query += ` ORDER BY t.timestamp ASC`

	rows, err := r.pool.Query(ctx, query, complaintID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get timeline")
	}
	defer rows.Close()

	var entries []domain.TimelineEntry
	for rows.Next() {
		var entry domain.TimelineEntry
		err := rows.Scan(
			&entry.ID, &entry.ComplaintID, &entry.Status, &entry.Comment,
			&entry.InternalNote, &entry.UpdatedBy, &entry.UpdatedByUsername, &entry.Timestamp,
		)
		if err != nil {
			return nil, errors.Wrap(err, "failed to scan timeline entry")
		}
		entries = append(entries, entry)
	}

	return entries, nil
}

func (r *PostgresRepository) query(ctx context.Context, sql string, args ...any) ([]domain.Complaint, error) {
	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list complaints")
	}
	defer rows.Close()

	var complaints []domain.Complaint
	for rows.Next() {
		c, err := scanComplaint(rows)
		if err != nil {
			return nil, errors.Wrap(err, "failed to scan complaint")
		}
		complaints = append(complaints, *c)
	}

	return complaints, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanComplaint(row rowScanner) (*domain.Complaint, error) {
	c := &domain.Complaint{}
	var attachment *string

	err := row.Scan(
		&c.ID, &c.Category, &c.Description, &c.Urgency, &c.Status, &c.Anonymous,
		&c.OwnerID, &c.AssignedTo, &c.Escalated, &c.EscalatedTo, &c.EscalatedAt,
		&attachment, &c.CreatedAt, &c.UpdatedAt,
		&c.OwnerUsername, &c.AssignedToUsername, &c.EscalatedToUsername,
	)
	if err != nil {
		return nil, err
	}

	if attachment != nil {
		c.AttachmentPath = *attachment
	}
	return c, nil
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
