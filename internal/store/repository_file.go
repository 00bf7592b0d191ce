package store

import (
	"context"
	"errors"

	"github.com/devbrief/devbrief/internal/store/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// FileAggregates are the repository-level rollups recomputed after every
// successful file write. A full recount keeps them correct under re-delivery
// and out-of-order processing.
type FileAggregates struct {
	FileCount int
	TotalSize int64
}

type RepositoryFile interface {
	Get(ctx context.Context, repositoryID, path string) (*model.RepositoryFile, error)
	List(ctx context.Context, filter *RepositoryFileQueryFilter) (model.RepositoryFileList, error)
	Upsert(ctx context.Context, file model.RepositoryFile, updateColumns ...string) (*model.RepositoryFile, error)
	Aggregates(ctx context.Context, repositoryID string) (FileAggregates, error)
	InitialMigration(ctx context.Context) error
}

type RepositoryFileStore struct {
	db *gorm.DB
}

// Make sure we conform to RepositoryFile interface
var _ RepositoryFile = (*RepositoryFileStore)(nil)

func NewRepositoryFileStore(db *gorm.DB) RepositoryFile {
	return &RepositoryFileStore{db: db}
}

func (s *RepositoryFileStore) InitialMigration(ctx context.Context) error {
	return s.getDB(ctx).AutoMigrate(&model.RepositoryFile{})
}

func (s *RepositoryFileStore) Get(ctx context.Context, repositoryID, path string) (*model.RepositoryFile, error) {
	var file model.RepositoryFile

	err := s.getDB(ctx).WithContext(ctx).
		Where("repository_id = ? AND path = ?", repositoryID, path).
		First(&file).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRecordNotFound
		}
		return nil, err
	}

	return &file, nil
}

func (s *RepositoryFileStore) List(ctx context.Context, filter *RepositoryFileQueryFilter) (model.RepositoryFileList, error) {
	var files model.RepositoryFileList
	tx := s.getDB(ctx)

	if filter != nil {
		for _, fn := range filter.QueryFn {
			tx = fn(tx)
		}
	}

	if err := tx.Model(&files).Order("path").Find(&files).Error; err != nil {
		return nil, err
	}

	return files, nil
}

// Upsert writes a file record keyed on (repository_id, path). When the row
// already exists only updateColumns are assigned, so partial enrichment (a
// late AI summary) never nulls out metadata written earlier. Defaults to the
// full metadata column set.
func (s *RepositoryFileStore) Upsert(ctx context.Context, file model.RepositoryFile, updateColumns ...string) (*model.RepositoryFile, error) {
	if len(updateColumns) == 0 {
		updateColumns = []string{"summary", "file_url", "file_key", "language", "size"}
	}
	updateColumns = append(updateColumns, "updated_at")

	err := s.getDB(ctx).WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "repository_id"}, {Name: "path"}},
			DoUpdates: clause.AssignmentColumns(updateColumns),
		}).
		Create(&file).Error
	if err != nil {
		return nil, err
	}

	return s.Get(ctx, file.RepositoryID, file.Path)
}

func (s *RepositoryFileStore) Aggregates(ctx context.Context, repositoryID string) (FileAggregates, error) {
	var aggregates struct {
		FileCount int
		TotalSize int64
	}

	err := s.getDB(ctx).WithContext(ctx).
		Model(&model.RepositoryFile{}).
		Select("COUNT(*) as file_count, COALESCE(SUM(size), 0) as total_size").
		Where("repository_id = ?", repositoryID).
		Scan(&aggregates).Error
	if err != nil {
		return FileAggregates{}, err
	}

	return FileAggregates{FileCount: aggregates.FileCount, TotalSize: aggregates.TotalSize}, nil
}

func (s *RepositoryFileStore) getDB(ctx context.Context) *gorm.DB {
	tx := FromContext(ctx)
	if tx != nil {
		return tx
	}
	return s.db
}
