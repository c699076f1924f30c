// Package storage declares the contract every users storage backend
// implements, together with the errors the backends report.
package storage

import (
	"context"
	"errors"

	"github.com/patric-chuzhbe/usersvc/internal/models"
)

// ErrValidation is returned when a required field is missing or empty.
var ErrValidation = errors.New("validation failed")

// ErrNotFound is returned when the referenced user does not exist.
var ErrNotFound = errors.New("user not found")

type Storage interface {
	ListAll(ctx context.Context) ([]models.User, error)

	FindByID(ctx context.Context, id int64) (models.User, bool, error)

	Create(ctx context.Context, name string) (models.User, error)

	Update(ctx context.Context, id int64, name string) (models.User, error)

	DeleteByID(ctx context.Context, id int64) error

	Clear(ctx context.Context) error

	Ping(ctx context.Context) error

	Close() error
}
