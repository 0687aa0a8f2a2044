package consent

import (
	"context"
	"fmt"

	"github.com/wso2/financial-recommendation-api/internal/cache"
	"github.com/wso2/financial-recommendation-api/internal/consent/model"
	"github.com/wso2/financial-recommendation-api/internal/system/error/serviceerror"
	"github.com/wso2/financial-recommendation-api/internal/system/log"
	"github.com/wso2/financial-recommendation-api/internal/system/metrics"
	"github.com/wso2/financial-recommendation-api/internal/system/utils"
	"github.com/wso2/financial-recommendation-api/internal/user"
)

// ConsentServiceInterface is the consent gate. Grant and Revoke of data_processing
// clear the user's cached computations before returning.
type ConsentServiceInterface interface {
	Grant(ctx context.Context, userID int64, kind string) (*model.ConsentRecord, *serviceerror.ServiceError)
	Revoke(ctx context.Context, userID int64, kind string) (*model.ConsentRecord, *serviceerror.ServiceError)
	Status(ctx context.Context, userID int64, kind string) (*model.StatusResponse, *serviceerror.ServiceError)
	ListForUser(ctx context.Context, userID int64) (*model.ListResponse, *serviceerror.ServiceError)
	// GetRecord returns the current record, or a not-granted record when none exists.
	GetRecord(ctx context.Context, userID int64, kind model.Kind) (*model.ConsentRecord, *serviceerror.ServiceError)
}

type consentService struct {
	store       ConsentStore
	directory   user.Directory
	invalidator cache.Invalidator
	now         func() int64
	logger      *log.Logger
}

// NewConsentService creates the consent gate
func NewConsentService(store ConsentStore, directory user.Directory, invalidator cache.Invalidator) ConsentServiceInterface {
	return &consentService{
		store:       store,
		directory:   directory,
		invalidator: invalidator,
		now:         utils.GetCurrentTimeMillis,
		logger:      log.GetLogger().With(log.String(log.LoggerKeyComponentName, "ConsentService")),
	}
}

// Grant sets the consent kind for the user. Granting an already granted kind refreshes its timestamp.
func (s *consentService) Grant(ctx context.Context, userID int64, kind string) (*model.ConsentRecord, *serviceerror.ServiceError) {
	k, serviceErr := s.validate(ctx, userID, kind)
	if serviceErr != nil {
		return nil, serviceErr
	}

	record, err := s.store.Grant(ctx, userID, k, s.now())
	if err != nil {
		return nil, s.storageError("failed to grant consent", err)
	}

	if serviceErr := s.invalidate(ctx, userID, k); serviceErr != nil {
		return nil, serviceErr
	}

	metrics.ConsentTransitions.WithLabelValues(string(k), "grant").Inc()
	s.logger.Info("Consent granted", log.Int64("user_id", userID), log.String("kind", string(k)))
	return record, nil
}

// Revoke clears the consent kind for the user. Revoking twice is a no-op apart from the timestamp.
func (s *consentService) Revoke(ctx context.Context, userID int64, kind string) (*model.ConsentRecord, *serviceerror.ServiceError) {
	k, serviceErr := s.validate(ctx, userID, kind)
	if serviceErr != nil {
		return nil, serviceErr
	}

	record, err := s.store.Revoke(ctx, userID, k, s.now())
	if err != nil {
		return nil, s.storageError("failed to revoke consent", err)
	}

	if serviceErr := s.invalidate(ctx, userID, k); serviceErr != nil {
		return nil, serviceErr
	}

	metrics.ConsentTransitions.WithLabelValues(string(k), "revoke").Inc()
	s.logger.Info("Consent revoked", log.Int64("user_id", userID), log.String("kind", string(k)))
	return record, nil
}

// Status reports whether the kind is granted. A missing record means not granted.
func (s *consentService) Status(ctx context.Context, userID int64, kind string) (*model.StatusResponse, *serviceerror.ServiceError) {
	k, serviceErr := s.validate(ctx, userID, kind)
	if serviceErr != nil {
		return nil, serviceErr
	}

	record, err := s.store.Get(ctx, userID, k)
	if err != nil {
		return nil, s.storageError("failed to read consent", err)
	}
	return &model.StatusResponse{
		UserID:  userID,
		Kind:    k,
		Granted: record != nil && record.Granted,
	}, nil
}

// ListForUser returns every consent kind, reporting kinds without a record as not granted.
func (s *consentService) ListForUser(ctx context.Context, userID int64) (*model.ListResponse, *serviceerror.ServiceError) {
	if serviceErr := s.checkUser(ctx, userID); serviceErr != nil {
		return nil, serviceErr
	}

	records, err := s.store.ListByUser(ctx, userID)
	if err != nil {
		return nil, s.storageError("failed to list consents", err)
	}

	byKind := make(map[model.Kind]model.ConsentRecord, len(records))
	for _, r := range records {
		byKind[r.Kind] = r
	}
	response := &model.ListResponse{UserID: userID, Consents: make([]model.ConsentRecord, 0, len(model.Kinds))}
	for _, kind := range model.Kinds {
		r, ok := byKind[kind]
		if !ok {
			r = model.ConsentRecord{UserID: userID, Kind: kind}
		}
		response.Consents = append(response.Consents, r)
	}
	return response, nil
}

func (s *consentService) GetRecord(ctx context.Context, userID int64, kind model.Kind) (*model.ConsentRecord, *serviceerror.ServiceError) {
	k, serviceErr := s.validate(ctx, userID, string(kind))
	if serviceErr != nil {
		return nil, serviceErr
	}

	record, err := s.store.Get(ctx, userID, k)
	if err != nil {
		return nil, s.storageError("failed to read consent", err)
	}
	if record == nil {
		return &model.ConsentRecord{UserID: userID, Kind: k}, nil
	}
	return record, nil
}

func (s *consentService) validate(ctx context.Context, userID int64, kind string) (model.Kind, *serviceerror.ServiceError) {
	k, ok := model.ParseKind(kind)
	if !ok {
		return "", serviceerror.CustomServiceError(
			serviceerror.InvalidRequestError,
			fmt.Sprintf("invalid consent kind %q, expected data_processing or ai_features", kind),
		)
	}
	if serviceErr := s.checkUser(ctx, userID); serviceErr != nil {
		return "", serviceErr
	}
	return k, nil
}

func (s *consentService) checkUser(ctx context.Context, userID int64) *serviceerror.ServiceError {
	exists, err := s.directory.Exists(ctx, userID)
	if err != nil {
		return s.storageError("failed to look up user", err)
	}
	if !exists {
		return serviceerror.CustomServiceError(
			serviceerror.ResourceNotFoundError,
			fmt.Sprintf("user not found: %d", userID),
		)
	}
	return nil
}

// invalidate clears cached computations after a data_processing transition. Only
// data_processing gates signal computation, so ai_features changes leave caches alone.
func (s *consentService) invalidate(ctx context.Context, userID int64, kind model.Kind) *serviceerror.ServiceError {
	if kind != model.KindDataProcessing {
		return nil
	}
	if err := s.invalidator.Clear(ctx, userID); err != nil {
		return s.storageError("consent recorded but cache invalidation failed", err)
	}
	return nil
}

func (s *consentService) storageError(msg string, err error) *serviceerror.ServiceError {
	s.logger.Error(msg, log.Error(err))
	return serviceerror.CustomServiceError(serviceerror.StorageUnavailableError, fmt.Sprintf("%s: %v", msg, err))
}
