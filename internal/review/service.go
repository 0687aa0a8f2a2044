package review

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/wso2/financial-recommendation-api/internal/review/model"
	"github.com/wso2/financial-recommendation-api/internal/system/error/serviceerror"
	"github.com/wso2/financial-recommendation-api/internal/system/log"
	"github.com/wso2/financial-recommendation-api/internal/system/metrics"
	"github.com/wso2/financial-recommendation-api/internal/user"
)

// ReviewServiceInterface defines the operator review operations
type ReviewServiceInterface interface {
	GetReviewQueue(ctx context.Context, order string) ([]model.Review, *serviceerror.ServiceError)
	GetReview(ctx context.Context, reviewID string) (*model.Review, *serviceerror.ServiceError)
	ListUserReviews(ctx context.Context, userID int64) ([]model.Review, *serviceerror.ServiceError)
	Approve(ctx context.Context, reviewID, notes, reviewedBy string) (*model.Review, *serviceerror.ServiceError)
	Override(ctx context.Context, reviewID, notes, reviewedBy string) (*model.Review, *serviceerror.ServiceError)
}

// reviewService implements ReviewServiceInterface
type reviewService struct {
	store     ReviewStore
	directory user.Directory
	logger    *log.Logger
}

// NewReviewService creates the operator review service
func NewReviewService(store ReviewStore, directory user.Directory) ReviewServiceInterface {
	return &reviewService{
		store:     store,
		directory: directory,
		logger:    log.GetLogger().With(log.String(log.LoggerKeyComponentName, "ReviewService")),
	}
}

// GetReviewQueue returns every pending review in the requested order
func (s *reviewService) GetReviewQueue(ctx context.Context, order string) ([]model.Review, *serviceerror.ServiceError) {
	switch order {
	case "":
		order = OrderNewest
	case OrderNewest, OrderOldest, OrderUser:
	default:
		return nil, serviceerror.CustomServiceError(
			serviceerror.InvalidRequestError,
			fmt.Sprintf("unsupported order %q, expected one of newest, oldest, user", order),
		)
	}

	reviews, err := s.store.ListPending(ctx, order)
	if err != nil {
		return nil, s.storageError("failed to list pending reviews", err)
	}
	return reviews, nil
}

// GetReview returns a single review in any state
func (s *reviewService) GetReview(ctx context.Context, reviewID string) (*model.Review, *serviceerror.ServiceError) {
	if strings.TrimSpace(reviewID) == "" {
		return nil, serviceerror.CustomServiceError(serviceerror.InvalidRequestError, "review ID is required")
	}

	review, err := s.store.GetByID(ctx, reviewID)
	if err != nil {
		if errors.Is(err, ErrReviewNotFound) {
			return nil, serviceerror.CustomServiceError(
				serviceerror.ResourceNotFoundError,
				fmt.Sprintf("review not found: %s", reviewID),
			)
		}
		return nil, s.storageError("failed to retrieve review", err)
	}
	return review, nil
}

// ListUserReviews returns the full review history of a user, newest first
func (s *reviewService) ListUserReviews(ctx context.Context, userID int64) ([]model.Review, *serviceerror.ServiceError) {
	exists, err := s.directory.Exists(ctx, userID)
	if err != nil {
		return nil, s.storageError("failed to look up user", err)
	}
	if !exists {
		return nil, serviceerror.CustomServiceError(
			serviceerror.ResourceNotFoundError,
			fmt.Sprintf("user not found: %d", userID),
		)
	}

	reviews, err := s.store.ListByUser(ctx, userID)
	if err != nil {
		return nil, s.storageError("failed to list user reviews", err)
	}
	return reviews, nil
}

// Approve marks a pending review as approved
func (s *reviewService) Approve(ctx context.Context, reviewID, notes, reviewedBy string) (*model.Review, *serviceerror.ServiceError) {
	return s.decide(ctx, reviewID, model.StatusApproved, notes, reviewedBy)
}

// Override rejects a pending review. Notes should explain why; that is validated by callers.
func (s *reviewService) Override(ctx context.Context, reviewID, notes, reviewedBy string) (*model.Review, *serviceerror.ServiceError) {
	return s.decide(ctx, reviewID, model.StatusOverridden, notes, reviewedBy)
}

func (s *reviewService) decide(
	ctx context.Context,
	reviewID string,
	status model.Status,
	notes, reviewedBy string,
) (*model.Review, *serviceerror.ServiceError) {
	if strings.TrimSpace(reviewID) == "" {
		return nil, serviceerror.CustomServiceError(serviceerror.InvalidRequestError, "review ID is required")
	}

	review, err := s.store.Transition(ctx, reviewID, status, notes, reviewedBy)
	if err != nil {
		switch {
		case errors.Is(err, ErrReviewNotFound):
			return nil, serviceerror.CustomServiceError(
				serviceerror.ResourceNotFoundError,
				fmt.Sprintf("review not found: %s", reviewID),
			)
		case errors.Is(err, ErrInvalidTransition):
			return nil, serviceerror.CustomServiceError(serviceerror.InvalidTransitionError, err.Error())
		}
		return nil, s.storageError("failed to record review decision", err)
	}

	metrics.ReviewTransitions.WithLabelValues(string(status)).Inc()
	s.logger.Info("Review decided",
		log.String("review_id", review.ReviewID),
		log.Int64("user_id", review.UserID),
		log.String("status", string(status)),
		log.String("reviewed_by", reviewedBy),
	)
	return review, nil
}

func (s *reviewService) storageError(msg string, err error) *serviceerror.ServiceError {
	s.logger.Error(msg, log.Error(err))
	return serviceerror.CustomServiceError(serviceerror.StorageUnavailableError, fmt.Sprintf("%s: %v", msg, err))
}
