package model

import (
	"encoding/json"

	"gorm.io/gorm"
)

// Repository embedding statuses reported by the external indexing worker.
const (
	RepositoryStatusProcessing = "PROCESSING"
	RepositoryStatusCompleted  = "COMPLETED"
	RepositoryStatusFailed     = "FAILED"
)

type Repository struct {
	gorm.Model
	ID              string `gorm:"primaryKey"`
	UserID          string `gorm:"index:repositories_user_id_idx"`
	Name            string
	URL             string
	EmbeddingStatus string
	Processed       bool
	Summary         string
	FileCount       int
	TotalSize       int64
	Files           []RepositoryFile `gorm:"constraint:OnDelete:CASCADE;"`
	Commits         []Commit         `gorm:"constraint:OnDelete:CASCADE;"`
}

type RepositoryList []Repository

func (r Repository) String() string {
	val, _ := json.Marshal(r)
	return string(val)
}

// NewPlaceholderRepository returns the minimal repository row materialized
// when a result message references a repository that does not exist yet.
func NewPlaceholderRepository(id string) Repository {
	return Repository{
		ID:              id,
		UserID:          SystemUserID,
		Name:            id,
		EmbeddingStatus: RepositoryStatusProcessing,
	}
}
