package service

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/marketplace-service/internal/authz"
	"github.com/spec-kit/marketplace-service/internal/cache"
	"github.com/spec-kit/marketplace-service/internal/domain"
	"github.com/spec-kit/marketplace-service/internal/observability"
	"github.com/spec-kit/marketplace-service/internal/repository"
	"github.com/spec-kit/marketplace-service/internal/tasks"
	apperrors "github.com/spec-kit/marketplace-service/pkg/util"
)

// TaskQueue is the slice of the dispatcher the lifecycle engine needs.
type TaskQueue interface {
	Enqueue(kind tasks.Kind, payload []byte) (string, error)
}

// TransitionPolicy maps (actor role, current status) to the allowed
// target statuses. The admin override set is policy, not law: deploys
// may widen or narrow it without touching the engine.
type TransitionPolicy struct {
	Role  map[domain.Role]map[domain.RequestStatus][]domain.RequestStatus
	Admin map[domain.RequestStatus][]domain.RequestStatus
}

// DefaultTransitionPolicy returns the standard lifecycle table:
//
//	requested -> accepted | rejected   (professional)
//	accepted  -> completed | rejected  (professional)
//	accepted  -> completed             (customer)
//	completed -> closed                (customer, via review)
//
// Admin may move any non-closed request to any status. closed is
// globally terminal; rejected is terminal for everyone but admin.
func DefaultTransitionPolicy() TransitionPolicy {
	anyStatus := []domain.RequestStatus{
		domain.RequestStatusRequested,
		domain.RequestStatusAccepted,
		domain.RequestStatusRejected,
		domain.RequestStatusCompleted,
		domain.RequestStatusClosed,
	}
	return TransitionPolicy{
		Role: map[domain.Role]map[domain.RequestStatus][]domain.RequestStatus{
			domain.RoleProfessional: {
				domain.RequestStatusRequested: {domain.RequestStatusAccepted, domain.RequestStatusRejected},
				domain.RequestStatusAccepted:  {domain.RequestStatusCompleted, domain.RequestStatusRejected},
			},
			domain.RoleCustomer: {
				domain.RequestStatusAccepted:  {domain.RequestStatusCompleted},
				domain.RequestStatusCompleted: {domain.RequestStatusClosed},
			},
		},
		Admin: map[domain.RequestStatus][]domain.RequestStatus{
			domain.RequestStatusRequested: anyStatus,
			domain.RequestStatusAccepted:  anyStatus,
			domain.RequestStatusRejected:  anyStatus,
			domain.RequestStatusCompleted: anyStatus,
		},
	}
}

func (p TransitionPolicy) allows(actor authz.Actor, current, target domain.RequestStatus) bool {
	var table map[domain.RequestStatus][]domain.RequestStatus
	switch {
	case hasRole(actor, domain.RoleAdmin):
		table = p.Admin
	case hasRole(actor, domain.RoleCustomer):
		table = p.Role[domain.RoleCustomer]
	case hasRole(actor, domain.RoleProfessional):
		table = p.Role[domain.RoleProfessional]
	default:
		return false
	}
	for _, allowed := range table[current] {
		if allowed == target {
			return true
		}
	}
	return false
}

func hasRole(actor authz.Actor, role domain.Role) bool {
	for _, r := range actor.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// RequestService is the lifecycle engine for service requests and the
// review filing that closes them.
type RequestService struct {
	requests repository.RequestRepository
	reviews  repository.ReviewRepository
	users    repository.UserRepository
	profiles repository.ProfileRepository
	catalog  repository.ServiceRepository
	cache    cache.Cache
	ttl      time.Duration
	queue    TaskQueue
	policy   TransitionPolicy
	metrics  *observability.Metrics
	logger   *zap.Logger
}

// RequestDependencies bundles lifecycle engine requirements.
type RequestDependencies struct {
	RequestRepo repository.RequestRepository
	ReviewRepo  repository.ReviewRepository
	UserRepo    repository.UserRepository
	ProfileRepo repository.ProfileRepository
	ServiceRepo repository.ServiceRepository
	Cache       cache.Cache
	CacheTTL    time.Duration
	Queue       TaskQueue
	Policy      *TransitionPolicy
	Metrics     *observability.Metrics
	Logger      *zap.Logger
}

// NewRequestService constructs the engine.
func NewRequestService(deps RequestDependencies) *RequestService {
	policy := DefaultTransitionPolicy()
	if deps.Policy != nil {
		policy = *deps.Policy
	}
	return &RequestService{
		requests: deps.RequestRepo,
		reviews:  deps.ReviewRepo,
		users:    deps.UserRepo,
		profiles: deps.ProfileRepo,
		catalog:  deps.ServiceRepo,
		cache:    deps.Cache,
		ttl:      deps.CacheTTL,
		queue:    deps.Queue,
		policy:   policy,
		metrics:  deps.Metrics,
		logger:   deps.Logger,
	}
}

// RequestInput carries the fields for a new service request.
type RequestInput struct {
	ServiceID      string
	ProfessionalID string
	Address        string
	ContactNumber  string
	Remarks        string
}

// CreateRequest opens a new request in the requested state. Customers
// and admins only; the named professional must hold an approved profile
// for the service.
func (s *RequestService) CreateRequest(ctx context.Context, actor authz.Actor, input RequestInput) (*domain.ServiceRequest, error) {
	if d := authz.Decide(actor, authz.ActionCreate, authz.Resource{Type: authz.ResourceServiceRequest}); !d.Allowed {
		return nil, apperrors.NewForbidden(d.Reason)
	}
	if strings.TrimSpace(input.Address) == "" || strings.TrimSpace(input.ContactNumber) == "" {
		return nil, apperrors.NewValidationError("address and contact number are required", nil)
	}

	if _, err := s.catalog.GetByID(ctx, input.ServiceID); err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.NewNotFound("service", map[string]any{"id": input.ServiceID})
		}
		return nil, apperrors.NewStoreError(err)
	}
	profile, err := s.profiles.GetByUserID(ctx, input.ProfessionalID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.NewNotFound("professional", map[string]any{"id": input.ProfessionalID})
		}
		return nil, apperrors.NewStoreError(err)
	}
	if profile.Status != domain.ApprovalApproved {
		return nil, apperrors.NewValidationError("professional is not approved", map[string]any{"id": input.ProfessionalID})
	}

	request := &domain.ServiceRequest{
		ServiceID:      input.ServiceID,
		CustomerID:     actor.ID,
		ProfessionalID: input.ProfessionalID,
		Address:        strings.TrimSpace(input.Address),
		ContactNumber:  strings.TrimSpace(input.ContactNumber),
		Remarks:        input.Remarks,
		Status:         domain.RequestStatusRequested,
	}
	if err := s.requests.Create(ctx, request); err != nil {
		return nil, apperrors.NewStoreError(err)
	}

	s.invalidateRequests(ctx, request.ID)
	return request, nil
}

// GetRequest returns one request after an ownership check.
func (s *RequestService) GetRequest(ctx context.Context, actor authz.Actor, id string) (*domain.ServiceRequest, error) {
	key := cache.ItemKey(cache.ResourceServiceRequests, id)
	request, hit, err := cache.GetThrough(ctx, s.cache, key, s.ttl, func(ctx context.Context) (*domain.ServiceRequest, error) {
		return s.requests.GetByID(ctx, id)
	})
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.NewNotFound("service request", map[string]any{"id": id})
		}
		return nil, apperrors.NewStoreError(err)
	}
	s.recordCache(key, hit)

	if d := authz.Decide(actor, authz.ActionRead, requestResource(request)); !d.Allowed {
		return nil, apperrors.NewForbidden(d.Reason)
	}
	return request, nil
}

// ListRequests returns the requests visible to the actor: admins see
// the full (cached) listing, customers and professionals their own.
func (s *RequestService) ListRequests(ctx context.Context, actor authz.Actor) ([]domain.ServiceRequest, error) {
	if hasRole(actor, domain.RoleAdmin) {
		key := cache.ListKey(cache.ResourceServiceRequests)
		requests, hit, err := cache.GetThrough(ctx, s.cache, key, s.ttl, func(ctx context.Context) ([]domain.ServiceRequest, error) {
			return s.requests.List(ctx, repository.RequestFilter{})
		})
		if err != nil {
			return nil, apperrors.NewStoreError(err)
		}
		s.recordCache(key, hit)
		return requests, nil
	}

	filter := repository.RequestFilter{}
	switch {
	case hasRole(actor, domain.RoleCustomer):
		filter.CustomerID = &actor.ID
	case hasRole(actor, domain.RoleProfessional):
		filter.ProfessionalID = &actor.ID
	default:
		return nil, apperrors.NewForbidden("unauthorized")
	}

	requests, err := s.requests.List(ctx, filter)
	if err != nil {
		return nil, apperrors.NewStoreError(err)
	}
	return requests, nil
}

// Transition applies a status change from the lifecycle table. On
// success the affected cache keys are gone before return and a
// notification task is queued.
func (s *RequestService) Transition(ctx context.Context, actor authz.Actor, id string, target domain.RequestStatus) (*domain.ServiceRequest, error) {
	request, err := s.requests.GetByID(ctx, id)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.NewNotFound("service request", map[string]any{"id": id})
		}
		return nil, apperrors.NewStoreError(err)
	}

	if d := authz.Decide(actor, authz.ActionTransition, requestResource(request)); !d.Allowed {
		return nil, apperrors.NewForbidden(d.Reason)
	}

	if !s.policy.allows(actor, request.Status, target) {
		return nil, apperrors.NewValidationError("invalid status transition", map[string]any{
			"from": string(request.Status),
			"to":   string(target),
		})
	}
	if target == domain.RequestStatusClosed && !hasRole(actor, domain.RoleAdmin) {
		// Customers close by filing a review, which is its own operation.
		return nil, apperrors.NewValidationError("filing a review is what closes a completed request", nil)
	}

	completedAt := request.DateOfCompletion
	if target == domain.RequestStatusCompleted || target == domain.RequestStatusClosed {
		if completedAt == nil {
			now := time.Now()
			completedAt = &now
		}
	} else {
		completedAt = nil
	}

	if err := s.requests.UpdateStatus(ctx, id, target, completedAt); err != nil {
		return nil, apperrors.NewStoreError(err)
	}
	request.Status = target
	request.DateOfCompletion = completedAt

	s.invalidateRequests(ctx, id)
	s.notifyStatus(ctx, request)
	return request, nil
}

// ReviewInput carries the rating filed against a completed request.
type ReviewInput struct {
	Rating int
	Text   string
}

// FileReview attaches the single review to a completed request and
// closes it. The review insert and the close commit together or not at
// all.
func (s *RequestService) FileReview(ctx context.Context, actor authz.Actor, requestID string, input ReviewInput) (*domain.Review, error) {
	request, err := s.requests.GetByID(ctx, requestID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.NewNotFound("service request", map[string]any{"id": requestID})
		}
		return nil, apperrors.NewStoreError(err)
	}

	if d := authz.Decide(actor, authz.ActionTransition, requestResource(request)); !d.Allowed {
		return nil, apperrors.NewForbidden(d.Reason)
	}
	// A professional assigned to the request owns it for transitions but
	// never authors its review.
	if !hasRole(actor, domain.RoleAdmin) && actor.ID != request.CustomerID {
		return nil, apperrors.NewForbidden("reviews are filed by the requesting customer")
	}
	if input.Rating < 1 || input.Rating > 5 {
		return nil, apperrors.NewValidationError("rating must be between 1 and 5", nil)
	}
	if !s.policy.allows(actor, request.Status, domain.RequestStatusClosed) {
		return nil, apperrors.NewValidationError("only completed requests can be reviewed", map[string]any{
			"status": string(request.Status),
		})
	}

	if _, err := s.reviews.GetByRequestID(ctx, requestID); err == nil {
		return nil, apperrors.NewConflict("request already reviewed", map[string]any{"id": requestID})
	} else if err != pgx.ErrNoRows {
		return nil, apperrors.NewStoreError(err)
	}

	review := &domain.Review{
		ServiceRequestID: requestID,
		CustomerID:       request.CustomerID,
		ProfessionalID:   request.ProfessionalID,
		Rating:           input.Rating,
		Text:             input.Text,
	}
	request.Status = domain.RequestStatusClosed
	if request.DateOfCompletion == nil {
		now := time.Now()
		request.DateOfCompletion = &now
	}

	if err := s.requests.CloseWithReview(ctx, request, review); err != nil {
		if repository.IsUniqueViolation(err) {
			// Lost a race against a concurrent review on the same request;
			// the unique constraint on service_request_id caught it.
			return nil, apperrors.NewConflict("request already reviewed", map[string]any{"id": requestID})
		}
		return nil, apperrors.NewStoreError(err)
	}

	// Two entity types changed in the one transaction, so both key sets
	// are invalidated.
	s.invalidateRequests(ctx, requestID)
	if s.cache != nil {
		_, _ = s.cache.Invalidate(ctx, cache.MutationKeys(cache.ResourceReviews, review.ID)...)
	}
	s.notifyStatus(ctx, request)
	return review, nil
}

// ListReviews returns all reviews, cached.
func (s *RequestService) ListReviews(ctx context.Context) ([]domain.Review, error) {
	key := cache.ListKey(cache.ResourceReviews)
	reviews, hit, err := cache.GetThrough(ctx, s.cache, key, s.ttl, func(ctx context.Context) ([]domain.Review, error) {
		return s.reviews.List(ctx)
	})
	if err != nil {
		return nil, apperrors.NewStoreError(err)
	}
	s.recordCache(key, hit)
	return reviews, nil
}

// GetReview returns one review, cached.
func (s *RequestService) GetReview(ctx context.Context, id string) (*domain.Review, error) {
	key := cache.ItemKey(cache.ResourceReviews, id)
	review, hit, err := cache.GetThrough(ctx, s.cache, key, s.ttl, func(ctx context.Context) (*domain.Review, error) {
		return s.reviews.GetByID(ctx, id)
	})
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.NewNotFound("review", map[string]any{"id": id})
		}
		return nil, apperrors.NewStoreError(err)
	}
	s.recordCache(key, hit)
	return review, nil
}

func requestResource(request *domain.ServiceRequest) authz.Resource {
	return authz.Resource{
		Type:           authz.ResourceServiceRequest,
		CustomerID:     request.CustomerID,
		ProfessionalID: request.ProfessionalID,
	}
}

func (s *RequestService) invalidateRequests(ctx context.Context, id string) {
	if s.cache == nil {
		return
	}
	// Post-commit, outside the store transaction: a concurrent reader
	// can see the stale entry until this returns. Accepted bound.
	_, _ = s.cache.Invalidate(ctx, cache.MutationKeys(cache.ResourceServiceRequests, id)...)
}

func (s *RequestService) notifyStatus(ctx context.Context, request *domain.ServiceRequest) {
	if s.queue == nil {
		return
	}
	customer, err := s.users.GetByID(ctx, request.CustomerID)
	if err != nil {
		s.logger.Warn("skipping status notification; customer lookup failed",
			zap.String("request_id", request.ID), zap.Error(err))
		return
	}
	payload, err := json.Marshal(tasks.NotificationPayload{
		Name:   customer.Name,
		Status: string(request.Status),
	})
	if err != nil {
		return
	}
	if _, err := s.queue.Enqueue(tasks.KindSingleNotification, payload); err != nil {
		// The transition already committed; a dropped notification is not
		// worth failing the request over.
		s.logger.Warn("status notification enqueue failed",
			zap.String("request_id", request.ID), zap.Error(err))
	}
}

func (s *RequestService) recordCache(key string, hit bool) {
	if hit {
		s.metrics.RecordCacheHit(key)
	} else {
		s.metrics.RecordCacheMiss(key)
	}
}
