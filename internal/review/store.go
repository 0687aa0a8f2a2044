package review

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/wso2/financial-recommendation-api/internal/review/model"
	dbmodel "github.com/wso2/financial-recommendation-api/internal/system/database/model"
	"github.com/wso2/financial-recommendation-api/internal/system/database/provider"
	"github.com/wso2/financial-recommendation-api/internal/system/utils"
)

// Store errors checked with errors.Is by the services
var (
	ErrReviewNotFound    = errors.New("review not found")
	ErrInvalidTransition = errors.New("review is not pending")
)

const reviewColumns = "REVIEW_ID, USER_ID, STATUS, RECOMMENDATION_DATA, DECISION_TRACE, " +
	"OPERATOR_NOTES, REVIEWED_BY, REVIEWED_TIME, CREATED_TIME"

// DBQuery objects for all review ledger operations.
// PENDING_USER_ID carries USER_ID while a review is pending and NULL afterwards; its
// unique index is what keeps a user down to one pending review.
var (
	QueryUpsertPendingReview = dbmodel.DBQuery{
		ID: "UPSERT_PENDING_REVIEW",
		Query: "INSERT INTO REC_REVIEW (REVIEW_ID, USER_ID, PENDING_USER_ID, STATUS, RECOMMENDATION_DATA, DECISION_TRACE, CREATED_TIME) " +
			"VALUES (?, ?, ?, 'pending', ?, ?, ?) " +
			"ON DUPLICATE KEY UPDATE RECOMMENDATION_DATA = VALUES(RECOMMENDATION_DATA), " +
			"DECISION_TRACE = VALUES(DECISION_TRACE), CREATED_TIME = VALUES(CREATED_TIME)",
		PostgresQuery: "INSERT INTO REC_REVIEW (REVIEW_ID, USER_ID, PENDING_USER_ID, STATUS, RECOMMENDATION_DATA, DECISION_TRACE, CREATED_TIME) " +
			"VALUES (?, ?, ?, 'pending', ?, ?, ?) " +
			"ON CONFLICT (PENDING_USER_ID) DO UPDATE SET RECOMMENDATION_DATA = EXCLUDED.RECOMMENDATION_DATA, " +
			"DECISION_TRACE = EXCLUDED.DECISION_TRACE, CREATED_TIME = EXCLUDED.CREATED_TIME",
	}

	QueryGetPendingReviewByUser = dbmodel.DBQuery{
		ID:    "GET_PENDING_REVIEW_BY_USER",
		Query: "SELECT " + reviewColumns + " FROM REC_REVIEW WHERE PENDING_USER_ID = ?",
	}

	QueryGetLatestApprovedReviewByUser = dbmodel.DBQuery{
		ID: "GET_LATEST_APPROVED_REVIEW_BY_USER",
		Query: "SELECT " + reviewColumns + " FROM REC_REVIEW WHERE USER_ID = ? AND STATUS = 'approved' " +
			"ORDER BY REVIEWED_TIME DESC LIMIT 1",
	}

	QueryGetReviewByID = dbmodel.DBQuery{
		ID:    "GET_REVIEW_BY_ID",
		Query: "SELECT " + reviewColumns + " FROM REC_REVIEW WHERE REVIEW_ID = ?",
	}

	QueryTransitionReview = dbmodel.DBQuery{
		ID: "TRANSITION_REVIEW",
		Query: "UPDATE REC_REVIEW SET STATUS = ?, PENDING_USER_ID = NULL, OPERATOR_NOTES = ?, REVIEWED_BY = ?, REVIEWED_TIME = ? " +
			"WHERE REVIEW_ID = ? AND STATUS = 'pending'",
	}

	QueryListPendingNewest = dbmodel.DBQuery{
		ID:    "LIST_PENDING_REVIEWS_NEWEST",
		Query: "SELECT " + reviewColumns + " FROM REC_REVIEW WHERE STATUS = 'pending' ORDER BY CREATED_TIME DESC",
	}

	QueryListPendingOldest = dbmodel.DBQuery{
		ID:    "LIST_PENDING_REVIEWS_OLDEST",
		Query: "SELECT " + reviewColumns + " FROM REC_REVIEW WHERE STATUS = 'pending' ORDER BY CREATED_TIME ASC",
	}

	QueryListPendingByUser = dbmodel.DBQuery{
		ID:    "LIST_PENDING_REVIEWS_BY_USER_ORDER",
		Query: "SELECT " + reviewColumns + " FROM REC_REVIEW WHERE STATUS = 'pending' ORDER BY USER_ID ASC, CREATED_TIME DESC",
	}

	QueryListReviewsByUser = dbmodel.DBQuery{
		ID:    "LIST_REVIEWS_BY_USER",
		Query: "SELECT " + reviewColumns + " FROM REC_REVIEW WHERE USER_ID = ? ORDER BY CREATED_TIME DESC",
	}
)

// Queue orderings
const (
	OrderNewest = "newest"
	OrderOldest = "oldest"
	OrderUser   = "user"
)

// ReviewStore is the review ledger.
type ReviewStore interface {
	// FindPending returns the user's pending review, or nil when there is none.
	FindPending(ctx context.Context, userID int64) (*model.Review, error)
	// FindApproved returns the most recently approved review, or nil when there is none.
	FindApproved(ctx context.Context, userID int64) (*model.Review, error)
	// UpsertPending overwrites the user's pending review or creates one, atomically.
	UpsertPending(ctx context.Context, userID int64, data model.RecommendationData, trace model.DecisionTrace) (*model.Review, error)
	// Transition moves a pending review to a terminal status.
	Transition(ctx context.Context, reviewID string, status model.Status, notes, reviewedBy string) (*model.Review, error)
	ListPending(ctx context.Context, order string) ([]model.Review, error)
	GetByID(ctx context.Context, reviewID string) (*model.Review, error)
	ListByUser(ctx context.Context, userID int64) ([]model.Review, error)
}

type store struct {
	dbClient provider.DBClientInterface
}

// NewReviewStore creates a SQL-backed review ledger.
func NewReviewStore(dbClient provider.DBClientInterface) ReviewStore {
	return &store{dbClient: dbClient}
}

func (s *store) FindPending(ctx context.Context, userID int64) (*model.Review, error) {
	return queryOne(ctx, s.dbClient, QueryGetPendingReviewByUser, userID)
}

func (s *store) FindApproved(ctx context.Context, userID int64) (*model.Review, error) {
	return queryOne(ctx, s.dbClient, QueryGetLatestApprovedReviewByUser, userID)
}

func (s *store) UpsertPending(
	ctx context.Context,
	userID int64,
	data model.RecommendationData,
	trace model.DecisionTrace,
) (*model.Review, error) {
	dataJSON, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal recommendation data: %w", err)
	}
	traceJSON, err := json.Marshal(trace)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal decision trace: %w", err)
	}

	var result *model.Review
	err = s.dbClient.WithTx(ctx, func(tx provider.Querier) error {
		if _, err := tx.Execute(ctx, QueryUpsertPendingReview,
			utils.GenerateUUID(),
			userID,
			userID,
			string(dataJSON),
			string(traceJSON),
			utils.GetCurrentTimeMillis(),
		); err != nil {
			return err
		}

		review, err := queryOne(ctx, tx, QueryGetPendingReviewByUser, userID)
		if err != nil {
			return err
		}
		if review == nil {
			return fmt.Errorf("pending review for user %d missing after upsert", userID)
		}
		result = review
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *store) Transition(
	ctx context.Context,
	reviewID string,
	status model.Status,
	notes, reviewedBy string,
) (*model.Review, error) {
	if !model.StatusPending.CanTransitionTo(status) {
		return nil, fmt.Errorf("%w: cannot move to %q", ErrInvalidTransition, status)
	}

	var result *model.Review
	err := s.dbClient.WithTx(ctx, func(tx provider.Querier) error {
		affected, err := tx.Execute(ctx, QueryTransitionReview,
			string(status),
			notes,
			reviewedBy,
			utils.GetCurrentTimeMillis(),
			reviewID,
		)
		if err != nil {
			return err
		}

		review, err := queryOne(ctx, tx, QueryGetReviewByID, reviewID)
		if err != nil {
			return err
		}
		if review == nil {
			return ErrReviewNotFound
		}
		if affected == 0 {
			return fmt.Errorf("%w: review %s is %s", ErrInvalidTransition, reviewID, review.Status)
		}
		result = review
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *store) ListPending(ctx context.Context, order string) ([]model.Review, error) {
	query := QueryListPendingNewest
	switch order {
	case OrderOldest:
		query = QueryListPendingOldest
	case OrderUser:
		query = QueryListPendingByUser
	}
	return queryMany(ctx, s.dbClient, query)
}

func (s *store) GetByID(ctx context.Context, reviewID string) (*model.Review, error) {
	review, err := queryOne(ctx, s.dbClient, QueryGetReviewByID, reviewID)
	if err != nil {
		return nil, err
	}
	if review == nil {
		return nil, ErrReviewNotFound
	}
	return review, nil
}

func (s *store) ListByUser(ctx context.Context, userID int64) ([]model.Review, error) {
	return queryMany(ctx, s.dbClient, QueryListReviewsByUser, userID)
}

func queryOne(ctx context.Context, q provider.Querier, query dbmodel.DBQuery, args ...interface{}) (*model.Review, error) {
	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return mapToReview(rows[0])
}

func queryMany(ctx context.Context, q provider.Querier, query dbmodel.DBQuery, args ...interface{}) ([]model.Review, error) {
	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	reviews := make([]model.Review, 0, len(rows))
	for _, row := range rows {
		review, err := mapToReview(row)
		if err != nil {
			return nil, err
		}
		reviews = append(reviews, *review)
	}
	return reviews, nil
}

// mapToReview converts a database row to a Review
func mapToReview(row provider.Row) (*model.Review, error) {
	status, ok := model.ParseStatus(row.String("STATUS"))
	if !ok {
		return nil, fmt.Errorf("review %s has unknown status %q", row.String("REVIEW_ID"), row.String("STATUS"))
	}

	review := &model.Review{
		ReviewID:      row.String("REVIEW_ID"),
		UserID:        row.Int64("USER_ID"),
		Status:        status,
		OperatorNotes: row.NullString("OPERATOR_NOTES"),
		ReviewedBy:    row.NullString("REVIEWED_BY"),
		ReviewedAt:    row.NullInt64("REVIEWED_TIME"),
		CreatedAt:     row.Int64("CREATED_TIME"),
	}

	if raw := row.String("RECOMMENDATION_DATA"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &review.RecommendationData); err != nil {
			return nil, fmt.Errorf("review %s has malformed recommendation data: %w", review.ReviewID, err)
		}
	}
	if raw := row.String("DECISION_TRACE"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &review.DecisionTrace); err != nil {
			return nil, fmt.Errorf("review %s has malformed decision trace: %w", review.ReviewID, err)
		}
	}
	return review, nil
}
