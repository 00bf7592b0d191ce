package store_test

import (
	"context"

	st "github.com/devbrief/devbrief/internal/store"
	"github.com/devbrief/devbrief/internal/store/model"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/gorm"
)

var _ = Describe("repository file store", Ordered, func() {
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
		gormDB.Exec("DELETE from repository_files;")
		gormDB.Exec("DELETE from repositories;")
		gormDB.Exec("DELETE from users;")
	})

	Context("upsert", func() {
		It("is idempotent on (repository_id, path)", func() {
			file := model.RepositoryFile{RepositoryID: "repo-1", Path: "cmd/main.go", Language: "go", Size: 100}

			_, err := store.RepositoryFile().Upsert(context.TODO(), file)
			Expect(err).To(BeNil())
			_, err = store.RepositoryFile().Upsert(context.TODO(), file)
			Expect(err).To(BeNil())

			count := 0
			err = gormDB.Raw("SELECT COUNT(*) from repository_files;").Scan(&count).Error
			Expect(err).To(BeNil())
			Expect(count).To(Equal(1))
		})

		It("restricting update columns keeps earlier metadata", func() {
			_, err := store.RepositoryFile().Upsert(context.TODO(), model.RepositoryFile{
				RepositoryID: "repo-1",
				Path:         "pkg/db.go",
				FileURL:      "https://files/pkg/db.go",
				Language:     "go",
				Size:         512,
			})
			Expect(err).To(BeNil())

			// a late summary enrichment assigns only the summary column
			file, err := store.RepositoryFile().Upsert(context.TODO(), model.RepositoryFile{
				RepositoryID: "repo-1",
				Path:         "pkg/db.go",
				Summary:      "database helpers",
			}, "summary")
			Expect(err).To(BeNil())
			Expect(file.Summary).To(Equal("database helpers"))
			Expect(file.FileURL).To(Equal("https://files/pkg/db.go"))
			Expect(file.Language).To(Equal("go"))
			Expect(file.Size).To(Equal(int64(512)))
		})

		It("summary survives a later metadata upsert", func() {
			_, err := store.RepositoryFile().Upsert(context.TODO(), model.RepositoryFile{
				RepositoryID: "repo-1",
				Path:         "pkg/db.go",
				Summary:      "database helpers",
			}, "summary")
			Expect(err).To(BeNil())

			file, err := store.RepositoryFile().Upsert(context.TODO(), model.RepositoryFile{
				RepositoryID: "repo-1",
				Path:         "pkg/db.go",
				Size:         512,
			}, "file_url", "file_key", "language", "size")
			Expect(err).To(BeNil())
			Expect(file.Summary).To(Equal("database helpers"))
			Expect(file.Size).To(Equal(int64(512)))
		})
	})

	Context("aggregates", func() {
		It("recounts files and sizes", func() {
			_, err := store.RepositoryFile().Upsert(context.TODO(), model.RepositoryFile{RepositoryID: "repo-1", Path: "a.go", Size: 100})
			Expect(err).To(BeNil())
			_, err = store.RepositoryFile().Upsert(context.TODO(), model.RepositoryFile{RepositoryID: "repo-1", Path: "b.go", Size: 200})
			Expect(err).To(BeNil())
			_, err = store.RepositoryFile().Upsert(context.TODO(), model.RepositoryFile{RepositoryID: "repo-2", Path: "a.go", Size: 999})
			Expect(err).To(BeNil())

			aggregates, err := store.RepositoryFile().Aggregates(context.TODO(), "repo-1")
			Expect(err).To(BeNil())
			Expect(aggregates.FileCount).To(Equal(2))
			Expect(aggregates.TotalSize).To(Equal(int64(300)))
		})

		It("is zero for repositories without files", func() {
			aggregates, err := store.RepositoryFile().Aggregates(context.TODO(), "empty")
			Expect(err).To(BeNil())
			Expect(aggregates.FileCount).To(Equal(0))
			Expect(aggregates.TotalSize).To(Equal(int64(0)))
		})
	})

	Context("placeholder repository", func() {
		It("ensure creates exactly one placeholder row", func() {
			_, err := store.User().Ensure(context.TODO(), model.NewSystemUser())
			Expect(err).To(BeNil())

			first, err := store.Repository().Ensure(context.TODO(), model.NewPlaceholderRepository("repo-x"))
			Expect(err).To(BeNil())
			Expect(first.EmbeddingStatus).To(Equal(model.RepositoryStatusProcessing))
			Expect(first.UserID).To(Equal(model.SystemUserID))

			second, err := store.Repository().Ensure(context.TODO(), model.NewPlaceholderRepository("repo-x"))
			Expect(err).To(BeNil())
			Expect(second.ID).To(Equal(first.ID))

			count := 0
			err = gormDB.Raw("SELECT COUNT(*) from repositories;").Scan(&count).Error
			Expect(err).To(BeNil())
			Expect(count).To(Equal(1))
		})
	})
})
