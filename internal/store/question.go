package store

import (
	"context"
	"errors"

	"github.com/devbrief/devbrief/internal/store/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// QuestionUpdate carries the fields written when an answer result lands.
// Nil fields are left untouched.
type QuestionUpdate struct {
	Answer          *string
	ConfidenceScore *float64
	RelevantFiles   []string
	Category        *string
	Tags            []string
	Status          *string
}

type Question interface {
	Get(ctx context.Context, id string) (*model.Question, error)
	List(ctx context.Context, userID string) (model.QuestionList, error)
	Create(ctx context.Context, question model.Question) (*model.Question, error)
	Update(ctx context.Context, id string, update QuestionUpdate) (*model.Question, error)
	InitialMigration(ctx context.Context) error
}

type QuestionStore struct {
	db *gorm.DB
}

// Make sure we conform to Question interface
var _ Question = (*QuestionStore)(nil)

func NewQuestionStore(db *gorm.DB) Question {
	return &QuestionStore{db: db}
}

func (s *QuestionStore) InitialMigration(ctx context.Context) error {
	return s.getDB(ctx).AutoMigrate(&model.Question{})
}

func (s *QuestionStore) Get(ctx context.Context, id string) (*model.Question, error) {
	question := &model.Question{ID: id}

	if err := s.getDB(ctx).WithContext(ctx).First(question).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRecordNotFound
		}
		return nil, err
	}

	return question, nil
}

func (s *QuestionStore) List(ctx context.Context, userID string) (model.QuestionList, error) {
	var questions model.QuestionList
	err := s.getDB(ctx).WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&questions).Error
	if err != nil {
		return nil, err
	}
	return questions, nil
}

func (s *QuestionStore) Create(ctx context.Context, question model.Question) (*model.Question, error) {
	if err := s.getDB(ctx).WithContext(ctx).Create(&question).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrDuplicateKey
		}
		return nil, err
	}
	return &question, nil
}

func (s *QuestionStore) Update(ctx context.Context, id string, update QuestionUpdate) (*model.Question, error) {
	question := &model.Question{ID: id}

	selectFields := []string{}
	if update.Answer != nil {
		question.Answer = *update.Answer
		selectFields = append(selectFields, "answer")
	}
	if update.ConfidenceScore != nil {
		question.ConfidenceScore = *update.ConfidenceScore
		selectFields = append(selectFields, "confidence_score")
	}
	if update.RelevantFiles != nil {
		question.RelevantFiles = model.MakeJSONField(update.RelevantFiles)
		selectFields = append(selectFields, "relevant_files")
	}
	if update.Category != nil {
		question.Category = *update.Category
		selectFields = append(selectFields, "category")
	}
	if update.Tags != nil {
		question.Tags = model.MakeJSONField(update.Tags)
		selectFields = append(selectFields, "tags")
	}
	if update.Status != nil {
		question.Status = *update.Status
		selectFields = append(selectFields, "status")
	}

	result := s.getDB(ctx).WithContext(ctx).Model(question).Clauses(clause.Returning{}).Select(selectFields).Updates(question)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, ErrRecordNotFound
	}

	return question, nil
}

func (s *QuestionStore) getDB(ctx context.Context) *gorm.DB {
	tx := FromContext(ctx)
	if tx != nil {
		return tx
	}
	return s.db
}
