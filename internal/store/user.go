package store

import (
	"context"
	"errors"

	"github.com/devbrief/devbrief/internal/store/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type User interface {
	Get(ctx context.Context, id string) (*model.User, error)
	Create(ctx context.Context, user model.User) (*model.User, error)
	Ensure(ctx context.Context, user model.User) (*model.User, error)
	InitialMigration(ctx context.Context) error
}

type UserStore struct {
	db *gorm.DB
}

// Make sure we conform to User interface
var _ User = (*UserStore)(nil)

func NewUserStore(db *gorm.DB) User {
	return &UserStore{db: db}
}

func (s *UserStore) InitialMigration(ctx context.Context) error {
	return s.getDB(ctx).AutoMigrate(&model.User{})
}

func (s *UserStore) Get(ctx context.Context, id string) (*model.User, error) {
	user := &model.User{ID: id}

	if err := s.getDB(ctx).WithContext(ctx).First(user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRecordNotFound
		}
		return nil, err
	}

	return user, nil
}

func (s *UserStore) Create(ctx context.Context, user model.User) (*model.User, error) {
	if err := s.getDB(ctx).WithContext(ctx).Create(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// Ensure creates the user if it does not exist yet. Existing rows are left
// untouched, which makes it safe under concurrent result delivery.
func (s *UserStore) Ensure(ctx context.Context, user model.User) (*model.User, error) {
	err := s.getDB(ctx).WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "id"}}, DoNothing: true}).
		Create(&user).Error
	if err != nil {
		return nil, err
	}

	return s.Get(ctx, user.ID)
}

func (s *UserStore) getDB(ctx context.Context) *gorm.DB {
	tx := FromContext(ctx)
	if tx != nil {
		return tx
	}
	return s.db
}
