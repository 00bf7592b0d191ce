package store_test

import (
	"context"

	st "github.com/devbrief/devbrief/internal/store"
	"github.com/devbrief/devbrief/internal/store/model"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/gorm"
)

var _ = Describe("question store", Ordered, func() {
	var (
		store  st.Store
		gormDB *gorm.DB
	)

	BeforeAll(func() {
		gormDB, store = newTestStore()
	})

	AfterAll(func() {
		store.Close()
	})

	AfterEach(func() {
		gormDB.Exec("DELETE from questions;")
	})

	Context("create and update", func() {
		It("updates a pending question to terminal state", func() {
			_, err := store.Question().Create(context.TODO(), model.Question{
				ID:     "q-1",
				UserID: "user-1",
				Query:  "how is auth handled?",
				Status: model.QuestionStatusPending,
			})
			Expect(err).To(BeNil())

			answer := "JWT in a middleware"
			confidence := 0.92
			answered := model.QuestionStatusAnswered
			question, err := store.Question().Update(context.TODO(), "q-1", st.QuestionUpdate{
				Answer:          &answer,
				ConfidenceScore: &confidence,
				RelevantFiles:   []string{"internal/auth/middleware.go"},
				Status:          &answered,
			})
			Expect(err).To(BeNil())
			Expect(question.Answer).To(Equal(answer))
			Expect(question.Status).To(Equal(model.QuestionStatusAnswered))

			reloaded, err := store.Question().Get(context.TODO(), "q-1")
			Expect(err).To(BeNil())
			Expect(reloaded.Query).To(Equal("how is auth handled?"))
			Expect(reloaded.ConfidenceScore).To(Equal(0.92))
			Expect(reloaded.RelevantFiles).ToNot(BeNil())
			Expect(reloaded.RelevantFiles.Data).To(ConsistOf("internal/auth/middleware.go"))

			count := 0
			err = gormDB.Raw("SELECT COUNT(*) from questions;").Scan(&count).Error
			Expect(err).To(BeNil())
			Expect(count).To(Equal(1))
		})

		It("rejects duplicate primary keys", func() {
			_, err := store.Question().Create(context.TODO(), model.Question{ID: "q-1", UserID: "user-1"})
			Expect(err).To(BeNil())

			_, err = store.Question().Create(context.TODO(), model.Question{ID: "q-1", UserID: "user-1"})
			Expect(err).To(MatchError(st.ErrDuplicateKey))
		})

		It("returns not found when updating a missing question", func() {
			answered := model.QuestionStatusAnswered
			_, err := store.Question().Update(context.TODO(), "ghost", st.QuestionUpdate{Status: &answered})
			Expect(err).To(MatchError(st.ErrRecordNotFound))
		})
	})
})
