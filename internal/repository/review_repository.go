package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/marketplace-service/internal/domain"
)

// ReviewRepository encapsulates review persistence. Review creation
// happens through RequestRepository.CloseWithReview; this repository
// covers reads.
type ReviewRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Review, error)
	GetByRequestID(ctx context.Context, requestID string) (*domain.Review, error)
	List(ctx context.Context) ([]domain.Review, error)
	ListByProfessional(ctx context.Context, professionalID string) ([]domain.Review, error)
}

type reviewRepository struct {
	pool *pgxpool.Pool
}

// NewReviewRepository instantiates the repository.
func NewReviewRepository(pool *pgxpool.Pool) ReviewRepository {
	return &reviewRepository{pool: pool}
}

const reviewColumns = `id, service_request_id, customer_id, professional_id, rating, review_text`

func scanReview(row pgx.Row) (*domain.Review, error) {
	var review domain.Review
	if err := row.Scan(
		&review.ID,
		&review.ServiceRequestID,
		&review.CustomerID,
		&review.ProfessionalID,
		&review.Rating,
		&review.Text,
	); err != nil {
		return nil, err
	}
	return &review, nil
}

func (r *reviewRepository) GetByID(ctx context.Context, id string) (*domain.Review, error) {
	const query = `SELECT ` + reviewColumns + ` FROM reviews WHERE id=$1`
	return scanReview(r.pool.QueryRow(ctx, query, id))
}

func (r *reviewRepository) GetByRequestID(ctx context.Context, requestID string) (*domain.Review, error) {
	const query = `SELECT ` + reviewColumns + ` FROM reviews WHERE service_request_id=$1`
	return scanReview(r.pool.QueryRow(ctx, query, requestID))
}

func (r *reviewRepository) List(ctx context.Context) ([]domain.Review, error) {
	const query = `SELECT ` + reviewColumns + ` FROM reviews ORDER BY id`
	return r.list(ctx, query)
}

func (r *reviewRepository) ListByProfessional(ctx context.Context, professionalID string) ([]domain.Review, error) {
	const query = `SELECT ` + reviewColumns + ` FROM reviews WHERE professional_id=$1 ORDER BY id`
	return r.list(ctx, query, professionalID)
}

func (r *reviewRepository) list(ctx context.Context, query string, args ...any) ([]domain.Review, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	reviews := []domain.Review{}
	for rows.Next() {
		review, err := scanReview(rows)
		if err != nil {
			return nil, err
		}
		reviews = append(reviews, *review)
	}
	return reviews, rows.Err()
}
