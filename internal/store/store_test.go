package store_test

import (
	"context"

	st "github.com/devbrief/devbrief/internal/store"
	"github.com/devbrief/devbrief/internal/store/model"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/gorm"
)

var _ = Describe("Store", Ordered, func() {
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

	Context("transaction", func() {
		It("insert a user successfully", func() {
			ctx, err := store.NewTransactionContext(context.TODO())
			Expect(err).To(BeNil())

			user, err := store.User().Create(ctx, model.User{ID: "u-1", Email: "u1@devbrief.local"})
			Expect(user).ToNot(BeNil())
			Expect(err).To(BeNil())

			// commit
			_, cerr := st.Commit(ctx)
			Expect(cerr).To(BeNil())

			count := 0
			err = gormDB.Raw("SELECT COUNT(*) from users;").Scan(&count).Error
			Expect(err).To(BeNil())
			Expect(count).To(Equal(1))
		})

		It("rollback a user successfully", func() {
			ctx, err := store.NewTransactionContext(context.TODO())
			Expect(err).To(BeNil())

			user, err := store.User().Create(ctx, model.User{ID: "u-2"})
			Expect(user).ToNot(BeNil())
			Expect(err).To(BeNil())

			// visible in the same transaction
			found, err := store.User().Get(ctx, "u-2")
			Expect(err).To(BeNil())
			Expect(found.ID).To(Equal("u-2"))

			// rollback
			_, cerr := st.Rollback(ctx)
			Expect(cerr).To(BeNil())

			count := 0
			err = gormDB.Raw("SELECT COUNT(*) from users;").Scan(&count).Error
			Expect(err).To(BeNil())
			Expect(count).To(Equal(0))
		})

		AfterEach(func() {
			gormDB.Exec("DELETE from users;")
		})
	})

	Context("user", func() {
		It("ensure is idempotent", func() {
			user, err := store.User().Ensure(context.TODO(), model.NewSystemUser())
			Expect(err).To(BeNil())
			Expect(user.ID).To(Equal(model.SystemUserID))

			again, err := store.User().Ensure(context.TODO(), model.User{ID: model.SystemUserID, Name: "other"})
			Expect(err).To(BeNil())
			Expect(again.Name).To(Equal("System"))

			count := 0
			err = gormDB.Raw("SELECT COUNT(*) from users;").Scan(&count).Error
			Expect(err).To(BeNil())
			Expect(count).To(Equal(1))
		})

		AfterEach(func() {
			gormDB.Exec("DELETE from users;")
		})
	})
})
