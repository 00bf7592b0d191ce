package model

import (
	"encoding/json"

	"gorm.io/gorm"
)

const (
	QuestionStatusPending  = "pending"
	QuestionStatusAnswered = "answered"
)

type Question struct {
	gorm.Model
	ID              string `gorm:"primaryKey"`
	UserID          string `gorm:"index:questions_user_id_idx"`
	RepositoryID    string
	Query           string
	Answer          string
	ConfidenceScore float64
	RelevantFiles   *JSONField[[]string] `gorm:"type:jsonb"`
	Category        string
	Tags            *JSONField[[]string] `gorm:"type:jsonb"`
	Status          string
}

type QuestionList []Question

func (q Question) String() string {
	val, _ := json.Marshal(q)
	return string(val)
}
