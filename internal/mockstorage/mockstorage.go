// Package mockstorage provides a testify-based mock of the users storage.
// Router tests use it to assert which storage calls a handler makes,
// in particular that nothing is called after an error was answered.
package mockstorage

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/patric-chuzhbe/usersvc/internal/db/storage"
	"github.com/patric-chuzhbe/usersvc/internal/models"
)

type StorageMock struct {
	mock.Mock
}

func (m *StorageMock) ListAll(ctx context.Context) ([]models.User, error) {
	args := m.Called(ctx)
	users, _ := args.Get(0).([]models.User)
	return users, args.Error(1)
}

func (m *StorageMock) FindByID(ctx context.Context, id int64) (models.User, bool, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(models.User), args.Bool(1), args.Error(2)
}

func (m *StorageMock) Create(ctx context.Context, name string) (models.User, error) {
	args := m.Called(ctx, name)
	return args.Get(0).(models.User), args.Error(1)
}

func (m *StorageMock) Update(ctx context.Context, id int64, name string) (models.User, error) {
	args := m.Called(ctx, id, name)
	return args.Get(0).(models.User), args.Error(1)
}

func (m *StorageMock) DeleteByID(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *StorageMock) Clear(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// Ping mocks the health check.
func (m *StorageMock) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// Close mocks releasing the storage.
func (m *StorageMock) Close() error {
	args := m.Called()
	return args.Error(0)
}

var _ storage.Storage = (*StorageMock)(nil)
