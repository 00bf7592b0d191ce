package model

import (
	"encoding/json"
	"time"

	"gorm.io/gorm"
)

type Commit struct {
	gorm.Model
	RepositoryID string `gorm:"uniqueIndex:commits_repo_sha;not null"`
	SHA          string `gorm:"uniqueIndex:commits_repo_sha;not null"`
	Message      string
	Author       string
	CommittedAt  time.Time
}

type CommitList []Commit

func (c Commit) String() string {
	val, _ := json.Marshal(c)
	return string(val)
}
