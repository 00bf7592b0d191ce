package store

import (
	"context"

	"github.com/devbrief/devbrief/internal/store/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Commits interface {
	List(ctx context.Context, repositoryID string) (model.CommitList, error)
	Upsert(ctx context.Context, commit model.Commit) error
	InitialMigration(ctx context.Context) error
}

type CommitStore struct {
	db *gorm.DB
}

// Make sure we conform to Commits interface
var _ Commits = (*CommitStore)(nil)

func NewCommitStore(db *gorm.DB) Commits {
	return &CommitStore{db: db}
}

func (s *CommitStore) InitialMigration(ctx context.Context) error {
	return s.getDB(ctx).AutoMigrate(&model.Commit{})
}

func (s *CommitStore) List(ctx context.Context, repositoryID string) (model.CommitList, error) {
	var commits model.CommitList
	err := s.getDB(ctx).WithContext(ctx).
		Where("repository_id = ?", repositoryID).
		Order("committed_at DESC").
		Find(&commits).Error
	if err != nil {
		return nil, err
	}
	return commits, nil
}

// Upsert records a commit keyed on (repository_id, sha). Commit history is
// immutable, so re-delivery leaves existing rows untouched.
func (s *CommitStore) Upsert(ctx context.Context, commit model.Commit) error {
	return s.getDB(ctx).WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "repository_id"}, {Name: "sha"}},
			DoNothing: true,
		}).
		Create(&commit).Error
}

func (s *CommitStore) getDB(ctx context.Context) *gorm.DB {
	tx := FromContext(ctx)
	if tx != nil {
		return tx
	}
	return s.db
}
