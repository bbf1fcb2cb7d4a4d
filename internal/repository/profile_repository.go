package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/marketplace-service/internal/domain"
)

// ProfileRepository encapsulates professional profile persistence.
type ProfileRepository interface {
	Create(ctx context.Context, profile *domain.ProfessionalProfile) error
	Update(ctx context.Context, profile *domain.ProfessionalProfile) error
	GetByID(ctx context.Context, id string) (*domain.ProfessionalProfile, error)
	GetByUserID(ctx context.Context, userID string) (*domain.ProfessionalProfile, error)
	ListByStatus(ctx context.Context, status domain.ApprovalStatus) ([]domain.ProfessionalProfile, error)
}

type profileRepository struct {
	pool *pgxpool.Pool
}

// NewProfileRepository instantiates the repository.
func NewProfileRepository(pool *pgxpool.Pool) ProfileRepository {
	return &profileRepository{pool: pool}
}

const profileColumns = `id, user_id, service_id, description, experience_years, service_pincodes, status, created_at`

func scanProfile(row pgx.Row) (*domain.ProfessionalProfile, error) {
	var profile domain.ProfessionalProfile
	if err := row.Scan(
		&profile.ID,
		&profile.UserID,
		&profile.ServiceID,
		&profile.Description,
		&profile.ExperienceYears,
		&profile.ServicePincodes,
		&profile.Status,
		&profile.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &profile, nil
}

func (r *profileRepository) Create(ctx context.Context, profile *domain.ProfessionalProfile) error {
	const query = `
        INSERT INTO professional_profiles (user_id, service_id, description, experience_years, service_pincodes, status)
        VALUES ($1, $2, $3, $4, $5, $6)
        RETURNING id, created_at`

	return r.pool.QueryRow(ctx, query,
		profile.UserID,
		profile.ServiceID,
		profile.Description,
		profile.ExperienceYears,
		profile.ServicePincodes,
		profile.Status,
	).Scan(&profile.ID, &profile.CreatedAt)
}

func (r *profileRepository) Update(ctx context.Context, profile *domain.ProfessionalProfile) error {
	const query = `
        UPDATE professional_profiles
        SET service_id=$1, description=$2, experience_years=$3, service_pincodes=$4, status=$5
        WHERE id=$6`

	cmd, err := r.pool.Exec(ctx, query,
		profile.ServiceID,
		profile.Description,
		profile.ExperienceYears,
		profile.ServicePincodes,
		profile.Status,
		profile.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *profileRepository) GetByID(ctx context.Context, id string) (*domain.ProfessionalProfile, error) {
	const query = `SELECT ` + profileColumns + ` FROM professional_profiles WHERE id=$1`
	return scanProfile(r.pool.QueryRow(ctx, query, id))
}

func (r *profileRepository) GetByUserID(ctx context.Context, userID string) (*domain.ProfessionalProfile, error) {
	const query = `SELECT ` + profileColumns + ` FROM professional_profiles WHERE user_id=$1`
	return scanProfile(r.pool.QueryRow(ctx, query, userID))
}

func (r *profileRepository) ListByStatus(ctx context.Context, status domain.ApprovalStatus) ([]domain.ProfessionalProfile, error) {
	const query = `SELECT ` + profileColumns + ` FROM professional_profiles WHERE status=$1 ORDER BY created_at`

	rows, err := r.pool.Query(ctx, query, status)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	profiles := []domain.ProfessionalProfile{}
	for rows.Next() {
		profile, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, *profile)
	}
	return profiles, rows.Err()
}
