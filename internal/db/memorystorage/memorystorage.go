package memorystorage

import (
	"context"
	"fmt"
	"sync"

	"github.com/thoas/go-funk"

	"github.com/patric-chuzhbe/usersvc/internal/db/storage"
	"github.com/patric-chuzhbe/usersvc/internal/models"
)

// MemoryStorage keeps users in process memory, in insertion order.
// Ids come from a counter that is never rewound, not even by Clear.
type MemoryStorage struct {
	mu     sync.RWMutex
	users  []models.User
	nextID int64
}

type Option func(*MemoryStorage)

// WithUsers seeds the storage with one user per name. Empty names are skipped.
func WithUsers(names ...string) Option {
	return func(theStorage *MemoryStorage) {
		for _, name := range names {
			if name == "" {
				continue
			}
			theStorage.users = append(theStorage.users, models.User{
				ID:   theStorage.nextID,
				Name: name,
			})
			theStorage.nextID++
		}
	}
}

func New(optionsProto ...Option) (*MemoryStorage, error) {
	theStorage := &MemoryStorage{
		users:  []models.User{},
		nextID: 1,
	}
	for _, protoOption := range optionsProto {
		protoOption(theStorage)
	}

	return theStorage, nil
}

func (theStorage *MemoryStorage) ListAll(ctx context.Context) ([]models.User, error) {
	theStorage.mu.RLock()
	defer theStorage.mu.RUnlock()

	result := make([]models.User, len(theStorage.users))
	copy(result, theStorage.users)

	return result, nil
}

func (theStorage *MemoryStorage) FindByID(ctx context.Context, id int64) (models.User, bool, error) {
	theStorage.mu.RLock()
	defer theStorage.mu.RUnlock()

	idx := theStorage.indexOf(id)
	if idx < 0 {
		return models.User{}, false, nil
	}

	return theStorage.users[idx], true, nil
}

func (theStorage *MemoryStorage) Create(ctx context.Context, name string) (models.User, error) {
	if name == "" {
		return models.User{}, fmt.Errorf("name must not be empty: %w", storage.ErrValidation)
	}

	theStorage.mu.Lock()
	defer theStorage.mu.Unlock()

	usr := models.User{
		ID:   theStorage.nextID,
		Name: name,
	}
	theStorage.nextID++
	theStorage.users = append(theStorage.users, usr)

	return usr, nil
}

func (theStorage *MemoryStorage) Update(ctx context.Context, id int64, name string) (models.User, error) {
	if name == "" {
		return models.User{}, fmt.Errorf("name must not be empty: %w", storage.ErrValidation)
	}

	theStorage.mu.Lock()
	defer theStorage.mu.Unlock()

	idx := theStorage.indexOf(id)
	if idx < 0 {
		return models.User{}, fmt.Errorf("user with id %d: %w", id, storage.ErrNotFound)
	}
	theStorage.users[idx].Name = name

	return theStorage.users[idx], nil
}

// DeleteByID is idempotent: deleting an unknown id is not an error.
func (theStorage *MemoryStorage) DeleteByID(ctx context.Context, id int64) error {
	theStorage.mu.Lock()
	defer theStorage.mu.Unlock()

	theStorage.users = funk.Filter(theStorage.users, func(usr models.User) bool {
		return usr.ID != id
	}).([]models.User)

	return nil
}

func (theStorage *MemoryStorage) Clear(ctx context.Context) error {
	theStorage.mu.Lock()
	defer theStorage.mu.Unlock()

	theStorage.users = []models.User{}

	return nil
}

func (theStorage *MemoryStorage) Close() error {
	return nil
}

func (theStorage *MemoryStorage) Ping(ctx context.Context) error {
	return nil
}

// indexOf must be called with mu held.
func (theStorage *MemoryStorage) indexOf(id int64) int {
	for i, usr := range theStorage.users {
		if usr.ID == id {
			return i
		}
	}

	return -1
}

var _ storage.Storage = (*MemoryStorage)(nil)
