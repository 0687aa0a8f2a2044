package consent

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wso2/financial-recommendation-api/internal/cache"
	"github.com/wso2/financial-recommendation-api/internal/consent/model"
	"github.com/wso2/financial-recommendation-api/internal/system/error/serviceerror"
	"github.com/wso2/financial-recommendation-api/internal/user"
)

type failingInvalidator struct {
	cache.Invalidator
}

func (failingInvalidator) Clear(context.Context, int64) error {
	return errors.New("redis: connection refused")
}

func newService(inv cache.Invalidator) ConsentServiceInterface {
	return NewConsentService(NewMemoryConsentStore(), user.NewMemoryDirectory(1, 2), inv)
}

func TestService_StatusFailsClosed(t *testing.T) {
	svc := newService(cache.NewMemoryInvalidator())

	status, serviceErr := svc.Status(context.Background(), 1, "data_processing")
	require.Nil(t, serviceErr)
	assert.False(t, status.Granted)

	record, serviceErr := svc.GetRecord(context.Background(), 1, model.KindAIFeatures)
	require.Nil(t, serviceErr)
	assert.False(t, record.Granted)
	assert.Nil(t, record.GrantedAt)
}

func TestService_GrantRevokeIdempotent(t *testing.T) {
	ctx := context.Background()
	svc := newService(cache.NewMemoryInvalidator())

	for i := 0; i < 2; i++ {
		record, serviceErr := svc.Grant(ctx, 1, "data_processing")
		require.Nil(t, serviceErr)
		assert.True(t, record.Granted)
	}
	status, _ := svc.Status(ctx, 1, "data_processing")
	assert.True(t, status.Granted)

	for i := 0; i < 2; i++ {
		record, serviceErr := svc.Revoke(ctx, 1, "data_processing")
		require.Nil(t, serviceErr)
		assert.False(t, record.Granted)
	}
	status, _ = svc.Status(ctx, 1, "data_processing")
	assert.False(t, status.Granted)
}

func TestService_DataProcessingTransitionsClearCache(t *testing.T) {
	ctx := context.Background()
	inv := cache.NewMemoryInvalidator()
	svc := newService(inv)

	_, serviceErr := svc.Grant(ctx, 1, "data_processing")
	require.Nil(t, serviceErr)
	gen, _ := inv.Generation(ctx, 1)
	assert.Equal(t, uint64(1), gen)

	_, serviceErr = svc.Revoke(ctx, 1, "data_processing")
	require.Nil(t, serviceErr)
	gen, _ = inv.Generation(ctx, 1)
	assert.Equal(t, uint64(2), gen)

	_, serviceErr = svc.Grant(ctx, 1, "ai_features")
	require.Nil(t, serviceErr)
	gen, _ = inv.Generation(ctx, 1)
	assert.Equal(t, uint64(2), gen, "ai_features does not gate signal computation")

	other, _ := inv.Generation(ctx, 2)
	assert.Equal(t, uint64(0), other)
}

func TestService_InvalidationFailureIsReported(t *testing.T) {
	svc := newService(failingInvalidator{})

	_, serviceErr := svc.Revoke(context.Background(), 1, "data_processing")
	require.NotNil(t, serviceErr)
	assert.True(t, serviceErr.Is(serviceerror.StorageUnavailableError))
}

func TestService_Errors(t *testing.T) {
	ctx := context.Background()
	svc := newService(cache.NewMemoryInvalidator())

	tests := []struct {
		name string
		call func() *serviceerror.ServiceError
		want serviceerror.ServiceError
	}{
		{name: "grant unknown user", call: func() *serviceerror.ServiceError {
			_, err := svc.Grant(ctx, 99, "data_processing")
			return err
		}, want: serviceerror.ResourceNotFoundError},
		{name: "revoke invalid kind", call: func() *serviceerror.ServiceError {
			_, err := svc.Revoke(ctx, 1, "marketing")
			return err
		}, want: serviceerror.InvalidRequestError},
		{name: "status unknown user", call: func() *serviceerror.ServiceError {
			_, err := svc.Status(ctx, 99, "ai_features")
			return err
		}, want: serviceerror.ResourceNotFoundError},
		{name: "list unknown user", call: func() *serviceerror.ServiceError {
			_, err := svc.ListForUser(ctx, 99)
			return err
		}, want: serviceerror.ResourceNotFoundError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.call()
			require.NotNil(t, err)
			assert.True(t, err.Is(tt.want), "got %s", err.Code)
		})
	}
}

func TestService_ListForUserReportsEveryKind(t *testing.T) {
	ctx := context.Background()
	svc := newService(cache.NewMemoryInvalidator())
	_, serviceErr := svc.Grant(ctx, 2, "ai_features")
	require.Nil(t, serviceErr)

	list, serviceErr := svc.ListForUser(ctx, 2)
	require.Nil(t, serviceErr)
	require.Len(t, list.Consents, 2)
	assert.Equal(t, model.KindDataProcessing, list.Consents[0].Kind)
	assert.False(t, list.Consents[0].Granted)
	assert.Equal(t, model.KindAIFeatures, list.Consents[1].Kind)
	assert.True(t, list.Consents[1].Granted)
}
