package store_test

import (
	"context"
	"encoding/json"
	"time"

	st "github.com/devbrief/devbrief/internal/store"
	"github.com/devbrief/devbrief/internal/store/model"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/gorm"
)

var _ = Describe("job store", Ordered, func() {
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
		gormDB.Exec("DELETE from jobs;")
	})

	newJob := func(entityID string) model.Job {
		return model.Job{
			ID:         model.NewJobID(model.JobTypeRepository, entityID, time.Now()),
			Type:       model.JobTypeRepository,
			EntityID:   entityID,
			EntityType: model.JobTypeRepository,
			UserID:     "user-1",
			Status:     model.JobStatusQueued,
		}
	}

	Context("create and get", func() {
		It("round-trips a registry row", func() {
			created, err := store.Job().Create(context.TODO(), newJob("repo-1"))
			Expect(err).To(BeNil())

			job, err := store.Job().Get(context.TODO(), created.ID)
			Expect(err).To(BeNil())
			Expect(job.EntityID).To(Equal("repo-1"))
			Expect(job.Status).To(Equal(model.JobStatusQueued))
			Expect(job.Progress).To(Equal(0))
		})

		It("returns not found for unknown ids", func() {
			_, err := store.Job().Get(context.TODO(), "nope")
			Expect(err).To(MatchError(st.ErrRecordNotFound))
		})

		It("rejects duplicate ids", func() {
			job := newJob("repo-1")
			_, err := store.Job().Create(context.TODO(), job)
			Expect(err).To(BeNil())

			_, err = store.Job().Create(context.TODO(), job)
			Expect(err).To(MatchError(st.ErrDuplicateKey))
		})
	})

	Context("update", func() {
		It("applies partial updates only", func() {
			created, err := store.Job().Create(context.TODO(), newJob("repo-2"))
			Expect(err).To(BeNil())

			processing := model.JobStatusProcessing
			progress := 40
			job, err := store.Job().Update(context.TODO(), created.ID, st.JobUpdate{Status: &processing, Progress: &progress})
			Expect(err).To(BeNil())
			Expect(job.Status).To(Equal(model.JobStatusProcessing))
			Expect(job.Progress).To(Equal(40))
			Expect(job.Error).To(BeEmpty())
		})

		It("stores the result payload", func() {
			created, err := store.Job().Create(context.TODO(), newJob("repo-3"))
			Expect(err).To(BeNil())

			completed := model.JobStatusCompleted
			_, err = store.Job().Update(context.TODO(), created.ID, st.JobUpdate{
				Status: &completed,
				Result: json.RawMessage(`{"summary":"done"}`),
			})
			Expect(err).To(BeNil())

			job, err := store.Job().Get(context.TODO(), created.ID)
			Expect(err).To(BeNil())
			Expect(job.Result).ToNot(BeNil())
			Expect(string(job.Result.Data)).To(MatchJSON(`{"summary":"done"}`))
		})

		It("leaves terminal rows untouched", func() {
			created, err := store.Job().Create(context.TODO(), newJob("repo-4"))
			Expect(err).To(BeNil())

			failed := model.JobStatusFailed
			errMsg := "boom"
			_, err = store.Job().Update(context.TODO(), created.ID, st.JobUpdate{Status: &failed, Error: &errMsg})
			Expect(err).To(BeNil())

			// a late status event must not resurrect the job
			processing := model.JobStatusProcessing
			job, err := store.Job().Update(context.TODO(), created.ID, st.JobUpdate{Status: &processing})
			Expect(err).To(BeNil())
			Expect(job.Status).To(Equal(model.JobStatusFailed))
			Expect(job.Error).To(Equal("boom"))
		})
	})

	Context("list", func() {
		It("filters by entity id and status", func() {
			_, err := store.Job().Create(context.TODO(), newJob("repo-a"))
			Expect(err).To(BeNil())

			job := newJob("repo-b")
			job.Status = model.JobStatusCompleted
			_, err = store.Job().Create(context.TODO(), job)
			Expect(err).To(BeNil())

			jobs, err := store.Job().List(context.TODO(), st.NewJobQueryFilter().ByEntityID("repo-a"), nil)
			Expect(err).To(BeNil())
			Expect(jobs).To(HaveLen(1))
			Expect(jobs[0].EntityID).To(Equal("repo-a"))

			jobs, err = store.Job().List(context.TODO(), st.NewJobQueryFilter().ByStatus(model.JobStatusCompleted), nil)
			Expect(err).To(BeNil())
			Expect(jobs).To(HaveLen(1))
			Expect(jobs[0].EntityID).To(Equal("repo-b"))
		})
	})
})
