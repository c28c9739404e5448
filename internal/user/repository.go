package user

import (
	"context"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/resolveit/platform/internal/shared/errors"
	"github.com/resolveit/platform/internal/shared/types"
)

// Directory resolves user records by id. It is the identity-provider
// collaborator of the lifecycle engine.
type Directory interface {
	FindByID(ctx context.Context, id types.ID) (*User, error)
}

// Repository extends Directory with account management operations
type Repository interface {
	Directory
	FindByUsername(ctx context.Context, username string) (*User, error)
	Save(ctx context.Context, u *User) error
}

// PostgresRepository implements Repository using PostgreSQL
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgreSQL repository
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

const userColumns = `id, username, email, password_hash, roles, created_at, updated_at`

// FindByID finds a user by ID
func (r *PostgresRepository) FindByID(ctx context.Context, id types.ID) (*User, error) {
	u := &User{}
	err := r.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id,
	).Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.Roles, &u.CreatedAt, &u.UpdatedAt)

	if err == pgx.ErrNoRows {
		return nil, errors.NotFound("user", id.String())
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to find user")
	}
	return u, nil
}

// FindByUsername finds a user by username
func (r *PostgresRepository) FindByUsername(ctx context.Context, username string) (*User, error) {
	u := &User{}
	err := r.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE username = $1`, username,
	).Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.Roles, &u.CreatedAt, &u.UpdatedAt)

	if err == pgx.ErrNoRows {
		return nil, errors.NotFound("user", username)
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to find user")
	}
	return u, nil
}

// Save inserts or updates a user
func (r *PostgresRepository) Save(ctx context.Context, u *User) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO users (id, username, email, password_hash, roles, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			username = EXCLUDED.username,
			email = EXCLUDED.email,
			password_hash = EXCLUDED.password_hash,
			roles = EXCLUDED.roles,
			updated_at = EXCLUDED.updated_at`,
		u.ID, u.Username, u.Email, u.PasswordHash, u.Roles, u.CreatedAt, u.UpdatedAt,
	)
	if err != nil {
		return errors.Wrap(err, "failed to save user")
	}
	return nil
}

// MemoryDirectory is an in-memory Directory used by tests and by the
// engine in limited mode when the database is unavailable.
type MemoryDirectory struct {
	mu    sync.RWMutex
	users map[types.ID]*User
}

// NewMemoryDirectory creates an empty in-memory directory
func NewMemoryDirectory() *MemoryDirectory {
	return &MemoryDirectory{users: make(map[types.ID]*User)}
}

// Add registers a user in the directory
func (d *MemoryDirectory) Add(u *User) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.users[u.ID] = u
}

// FindByID finds a user by ID
func (d *MemoryDirectory) FindByID(ctx context.Context, id types.ID) (*User, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	u, ok := d.users[id]
	if !ok {
		return nil, errors.NotFound("user", id.String())
	}
	return u, nil
}

// Username returns the display name for an id, empty when unknown
func (d *MemoryDirectory) Username(id types.ID) string {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if u, ok := d.users[id]; ok {
		return u.Username
	}
	return ""
}
