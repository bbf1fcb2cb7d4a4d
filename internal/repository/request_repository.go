package repository

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/marketplace-service/internal/domain"
)

// IsUniqueViolation reports whether err is a Postgres unique-constraint
// violation (SQLSTATE 23505).
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// RequestFilter narrows service request listings.
type RequestFilter struct {
	CustomerID     *string
	ProfessionalID *string
	Status         *domain.RequestStatus
}

// RequestRepository encapsulates service request persistence.
type RequestRepository interface {
	Create(ctx context.Context, request *domain.ServiceRequest) error
	GetByID(ctx context.Context, id string) (*domain.ServiceRequest, error)
	List(ctx context.Context, filter RequestFilter) ([]domain.ServiceRequest, error)
	// UpdateStatus writes the status and completion timestamp atomically.
	UpdateStatus(ctx context.Context, id string, status domain.RequestStatus, completedAt *time.Time) error
	// CloseWithReview inserts the review and moves the request to closed
	// with its completion timestamp in a single transaction. Either both
	// rows land or neither does.
	CloseWithReview(ctx context.Context, request *domain.ServiceRequest, review *domain.Review) error
}

type requestRepository struct {
	pool *pgxpool.Pool
}

// NewRequestRepository instantiates the repository.
func NewRequestRepository(pool *pgxpool.Pool) RequestRepository {
	return &requestRepository{pool: pool}
}

const requestColumns = `id, service_id, customer_id, professional_id, address, contact_number, remarks, status, date_of_request, date_of_completion`

func scanRequest(row pgx.Row) (*domain.ServiceRequest, error) {
	var request domain.ServiceRequest
	if err := row.Scan(
		&request.ID,
		&request.ServiceID,
		&request.CustomerID,
		&request.ProfessionalID,
		&request.Address,
		&request.ContactNumber,
		&request.Remarks,
		&request.Status,
		&request.DateOfRequest,
		&request.DateOfCompletion,
	); err != nil {
		return nil, err
	}
	return &request, nil
}

func (r *requestRepository) Create(ctx context.Context, request *domain.ServiceRequest) error {
	const query = `
        INSERT INTO service_requests (service_id, customer_id, professional_id, address, contact_number, remarks, status)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
        RETURNING id, date_of_request`

	return r.pool.QueryRow(ctx, query,
		request.ServiceID,
		request.CustomerID,
		request.ProfessionalID,
		request.Address,
		request.ContactNumber,
		request.Remarks,
		request.Status,
	).Scan(&request.ID, &request.DateOfRequest)
}

func (r *requestRepository) GetByID(ctx context.Context, id string) (*domain.ServiceRequest, error) {
	const query = `SELECT ` + requestColumns + ` FROM service_requests WHERE id=$1`
	return scanRequest(r.pool.QueryRow(ctx, query, id))
}

func (r *requestRepository) List(ctx context.Context, filter RequestFilter) ([]domain.ServiceRequest, error) {
	query := `SELECT ` + requestColumns + ` FROM service_requests WHERE 1=1`
	args := []any{}

	if filter.CustomerID != nil {
		args = append(args, *filter.CustomerID)
		query += ` AND customer_id=$` + strconv.Itoa(len(args))
	}
	if filter.ProfessionalID != nil {
		args = append(args, *filter.ProfessionalID)
		query += ` AND professional_id=$` + strconv.Itoa(len(args))
	}
	if filter.Status != nil {
		args = append(args, *filter.Status)
		query += ` AND status=$` + strconv.Itoa(len(args))
	}
	query += ` ORDER BY date_of_request`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	requests := []domain.ServiceRequest{}
	for rows.Next() {
		request, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		requests = append(requests, *request)
	}
	return requests, rows.Err()
}

func (r *requestRepository) UpdateStatus(ctx context.Context, id string, status domain.RequestStatus, completedAt *time.Time) error {
	const query = `
        UPDATE service_requests SET status=$1, date_of_completion=$2
        WHERE id=$3`

	cmd, err := r.pool.Exec(ctx, query, status, completedAt, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *requestRepository) CloseWithReview(ctx context.Context, request *domain.ServiceRequest, review *domain.Review) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	const insertReview = `
        INSERT INTO reviews (service_request_id, customer_id, professional_id, rating, review_text)
        VALUES ($1, $2, $3, $4, $5)
        RETURNING id`
	if err := tx.QueryRow(ctx, insertReview,
		review.ServiceRequestID,
		review.CustomerID,
		review.ProfessionalID,
		review.Rating,
		review.Text,
	).Scan(&review.ID); err != nil {
		return err
	}

	const closeRequest = `
        UPDATE service_requests SET status=$1, date_of_completion=$2
        WHERE id=$3`
	cmd, err := tx.Exec(ctx, closeRequest, request.Status, request.DateOfCompletion, request.ID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}

	return tx.Commit(ctx)
}
