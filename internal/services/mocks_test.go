package services

import (
	"context"

	"github.com/damacus/bucket-explorer/internal/models"
	"github.com/stretchr/testify/mock"
)

type MockStoreClient struct {
	mock.Mock
}

func (m *MockStoreClient) ListBuckets(ctx context.Context) ([]BucketEntry, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]BucketEntry), args.Error(1)
}

func (m *MockStoreClient) ListObjects(ctx context.Context, opts ListObjectsOptions) (ListObjectsResult, error) {
	args := m.Called(ctx, opts)
	return args.Get(0).(ListObjectsResult), args.Error(1)
}

func (m *MockStoreClient) GetObject(ctx context.Context, bucket, key string) (*ObjectStream, error) {
	args := m.Called(ctx, bucket, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ObjectStream), args.Error(1)
}

type MockStoreClientFactory struct {
	mock.Mock
}

func (m *MockStoreClientFactory) NewClient(profile models.ConnectionProfile) (StoreClient, error) {
	args := m.Called(profile)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(StoreClient), args.Error(1)
}
