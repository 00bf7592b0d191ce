package service

import (
	"context"
	"errors"

	"github.com/devbrief/devbrief/internal/store"
	"github.com/devbrief/devbrief/internal/store/model"
)

type RepositoryService struct {
	store store.Store
}

func NewRepositoryService(store store.Store) *RepositoryService {
	return &RepositoryService{store: store}
}

func (s *RepositoryService) GetRepository(ctx context.Context, id string) (*model.Repository, error) {
	repository, err := s.store.Repository().Get(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return nil, NewErrRepositoryNotFound(id)
		}
		return nil, err
	}
	return repository, nil
}

// ListFiles returns the indexed files of one repository ordered by path.
func (s *RepositoryService) ListFiles(ctx context.Context, repositoryID string) (model.RepositoryFileList, error) {
	filter := store.NewRepositoryFileQueryFilter().ByRepositoryID(repositoryID)
	return s.store.RepositoryFile().List(ctx, filter)
}
