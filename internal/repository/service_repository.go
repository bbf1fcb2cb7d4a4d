package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/marketplace-service/internal/domain"
)

// ServiceRepository encapsulates catalog persistence.
type ServiceRepository interface {
	Create(ctx context.Context, service *domain.Service) error
	Update(ctx context.Context, service *domain.Service) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*domain.Service, error)
	List(ctx context.Context) ([]domain.Service, error)
}

type serviceRepository struct {
	pool *pgxpool.Pool
}

// NewServiceRepository instantiates the repository.
func NewServiceRepository(pool *pgxpool.Pool) ServiceRepository {
	return &serviceRepository{pool: pool}
}

func (r *serviceRepository) Create(ctx context.Context, service *domain.Service) error {
	const query = `
        INSERT INTO services (name, base_price, time_required, description)
        VALUES ($1, $2, $3, $4)
        RETURNING id`

	return r.pool.QueryRow(ctx, query,
		service.Name,
		service.BasePrice,
		service.TimeRequired,
		service.Description,
	).Scan(&service.ID)
}

func (r *serviceRepository) Update(ctx context.Context, service *domain.Service) error {
	const query = `
        UPDATE services SET name=$1, base_price=$2, time_required=$3, description=$4
        WHERE id=$5`

	cmd, err := r.pool.Exec(ctx, query,
		service.Name,
		service.BasePrice,
		service.TimeRequired,
		service.Description,
		service.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *serviceRepository) Delete(ctx context.Context, id string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM services WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *serviceRepository) GetByID(ctx context.Context, id string) (*domain.Service, error) {
	const query = `
        SELECT id, name, base_price, time_required, description
        FROM services WHERE id=$1`

	var service domain.Service
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&service.ID,
		&service.Name,
		&service.BasePrice,
		&service.TimeRequired,
		&service.Description,
	); err != nil {
		return nil, err
	}
	return &service, nil
}

func (r *serviceRepository) List(ctx context.Context) ([]domain.Service, error) {
	const query = `
        SELECT id, name, base_price, time_required, description
        FROM services ORDER BY name`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	services := []domain.Service{}
	for rows.Next() {
		var service domain.Service
		if err := rows.Scan(
			&service.ID,
			&service.Name,
			&service.BasePrice,
			&service.TimeRequired,
			&service.Description,
		); err != nil {
			return nil, err
		}
		services = append(services, service)
	}
	return services, rows.Err()
}
