package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/marketplace-service/internal/domain"
)

// UserRepository defines persistence access for users.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	Update(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	ListByRole(ctx context.Context, role domain.Role) ([]domain.User, error)
	ListAll(ctx context.Context) ([]domain.User, error)
	// DeleteCascade removes the user together with every row referencing
	// it (reviews, service requests, profile) in dependency order inside
	// one transaction. Replaces the ORM-level cascade of earlier
	// revisions with explicit cleanup. The ids of the removed dependent
	// rows come back so callers can evict their cache entries.
	DeleteCascade(ctx context.Context, id string) (CascadeDeleted, error)
}

// CascadeDeleted lists the dependent rows removed alongside a user.
type CascadeDeleted struct {
	RequestIDs []string
	ReviewIDs  []string
}

type userRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository returns a Postgres-backed implementation.
func NewUserRepository(pool *pgxpool.Pool) UserRepository {
	return &userRepository{pool: pool}
}

const userColumns = `id, name, email, password_hash, active, roles, created_at, updated_at`

func scanUser(row pgx.Row) (*domain.User, error) {
	var user domain.User
	var roles []string
	if err := row.Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&user.PasswordHash,
		&user.Active,
		&roles,
		&user.CreatedAt,
		&user.UpdatedAt,
	); err != nil {
		return nil, err
	}
	user.Roles = make([]domain.Role, 0, len(roles))
	for _, r := range roles {
		user.Roles = append(user.Roles, domain.Role(r))
	}
	return &user, nil
}

func rolesToStrings(roles []domain.Role) []string {
	out := make([]string, 0, len(roles))
	for _, r := range roles {
		out = append(out, string(r))
	}
	return out
}

func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	const query = `
        INSERT INTO users (name, email, password_hash, active, roles)
        VALUES ($1, $2, $3, $4, $5)
        RETURNING id, created_at, updated_at`

	return r.pool.QueryRow(ctx, query,
		user.Name,
		user.Email,
		user.PasswordHash,
		user.Active,
		rolesToStrings(user.Roles),
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
}

func (r *userRepository) Update(ctx context.Context, user *domain.User) error {
	const query = `
        UPDATE users SET name=$1, email=$2, password_hash=$3, active=$4, roles=$5, updated_at=NOW()
        WHERE id=$6`

	cmd, err := r.pool.Exec(ctx, query,
		user.Name,
		user.Email,
		user.PasswordHash,
		user.Active,
		rolesToStrings(user.Roles),
		user.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	const query = `SELECT ` + userColumns + ` FROM users WHERE id=$1`
	return scanUser(r.pool.QueryRow(ctx, query, id))
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	const query = `SELECT ` + userColumns + ` FROM users WHERE email=$1`
	return scanUser(r.pool.QueryRow(ctx, query, email))
}

func (r *userRepository) ListByRole(ctx context.Context, role domain.Role) ([]domain.User, error) {
	const query = `SELECT ` + userColumns + ` FROM users WHERE $1 = ANY(roles) ORDER BY created_at`
	return r.list(ctx, query, string(role))
}

func (r *userRepository) ListAll(ctx context.Context) ([]domain.User, error) {
	const query = `SELECT ` + userColumns + ` FROM users ORDER BY created_at`
	return r.list(ctx, query)
}

func (r *userRepository) list(ctx context.Context, query string, args ...any) ([]domain.User, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := []domain.User{}
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *user)
	}
	return users, rows.Err()
}

func (r *userRepository) DeleteCascade(ctx context.Context, id string) (CascadeDeleted, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return CascadeDeleted{}, err
	}
	defer tx.Rollback(ctx)

	var deleted CascadeDeleted
	reviewStatements := []string{
		`DELETE FROM reviews WHERE customer_id=$1 OR professional_id=$1 RETURNING id`,
		`DELETE FROM reviews WHERE service_request_id IN (
            SELECT id FROM service_requests WHERE customer_id=$1 OR professional_id=$1) RETURNING id`,
	}
	for _, stmt := range reviewStatements {
		ids, err := deleteReturningIDs(ctx, tx, stmt, id)
		if err != nil {
			return CascadeDeleted{}, err
		}
		deleted.ReviewIDs = append(deleted.ReviewIDs, ids...)
	}

	deleted.RequestIDs, err = deleteReturningIDs(ctx, tx,
		`DELETE FROM service_requests WHERE customer_id=$1 OR professional_id=$1 RETURNING id`, id)
	if err != nil {
		return CascadeDeleted{}, err
	}

	if _, err := tx.Exec(ctx, `DELETE FROM professional_profiles WHERE user_id=$1`, id); err != nil {
		return CascadeDeleted{}, err
	}

	cmd, err := tx.Exec(ctx, `DELETE FROM users WHERE id=$1`, id)
	if err != nil {
		return CascadeDeleted{}, err
	}
	if cmd.RowsAffected() == 0 {
		return CascadeDeleted{}, pgx.ErrNoRows
	}
	return deleted, tx.Commit(ctx)
}

func deleteReturningIDs(ctx context.Context, tx pgx.Tx, query, arg string) ([]string, error) {
	rows, err := tx.Query(ctx, query, arg)
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
	return ids, rows.Err()
}
