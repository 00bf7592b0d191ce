package model

import (
	"encoding/json"

	"gorm.io/gorm"
)

type RepositoryFile struct {
	gorm.Model
	RepositoryID string `gorm:"uniqueIndex:repository_files_repo_path;not null"`
	Path         string `gorm:"uniqueIndex:repository_files_repo_path;not null"`
	Summary      string
	FileURL      string
	FileKey      string
	Language     string
	Size         int64
}

type RepositoryFileList []RepositoryFile

func (f RepositoryFile) String() string {
	val, _ := json.Marshal(f)
	return string(val)
}
