package store_test

import (
	"context"

	st "github.com/devbrief/devbrief/internal/store"
	"github.com/devbrief/devbrief/internal/store/model"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/gorm"
)

var _ = Describe("meeting segment store", Ordered, func() {
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
		gormDB.Exec("DELETE from meeting_segments;")
		gormDB.Exec("DELETE from meetings;")
	})

	Context("upsert", func() {
		It("converges out-of-order deliveries to indexed rows", func() {
			for _, idx := range []int{0, 2, 1} {
				err := store.MeetingSegment().Upsert(context.TODO(), model.MeetingSegment{
					MeetingID:    "meeting-1",
					SegmentIndex: idx,
					Title:        "segment",
				})
				Expect(err).To(BeNil())
			}

			segments, err := store.MeetingSegment().List(context.TODO(), "meeting-1")
			Expect(err).To(BeNil())
			Expect(segments).To(HaveLen(3))
			for i, segment := range segments {
				Expect(segment.SegmentIndex).To(Equal(i))
			}
		})

		It("re-delivery updates in place", func() {
			segment := model.MeetingSegment{MeetingID: "meeting-1", SegmentIndex: 0, Title: "intro"}
			Expect(store.MeetingSegment().Upsert(context.TODO(), segment)).To(Succeed())

			segment.Summary = "the team discusses the roadmap"
			Expect(store.MeetingSegment().Upsert(context.TODO(), segment)).To(Succeed())

			segments, err := store.MeetingSegment().List(context.TODO(), "meeting-1")
			Expect(err).To(BeNil())
			Expect(segments).To(HaveLen(1))
			Expect(segments[0].Title).To(Equal("intro"))
			Expect(segments[0].Summary).To(Equal("the team discusses the roadmap"))
		})
	})

	Context("count", func() {
		It("counts per meeting", func() {
			for idx := 0; idx < 3; idx++ {
				Expect(store.MeetingSegment().Upsert(context.TODO(), model.MeetingSegment{MeetingID: "meeting-1", SegmentIndex: idx})).To(Succeed())
			}
			Expect(store.MeetingSegment().Upsert(context.TODO(), model.MeetingSegment{MeetingID: "meeting-2", SegmentIndex: 0})).To(Succeed())

			count, err := store.MeetingSegment().Count(context.TODO(), "meeting-1")
			Expect(err).To(BeNil())
			Expect(count).To(Equal(3))
		})
	})

	Context("meeting update", func() {
		It("merges only the fields present", func() {
			_, err := store.Meeting().Create(context.TODO(), model.Meeting{ID: "meeting-1", UserID: "user-1", Status: model.MeetingStatusProcessing, Title: "standup"})
			Expect(err).To(BeNil())

			transcribing := model.MeetingStatusTranscribing
			meeting, err := store.Meeting().Update(context.TODO(), "meeting-1", st.MeetingUpdate{Status: &transcribing})
			Expect(err).To(BeNil())
			Expect(meeting.Status).To(Equal(model.MeetingStatusTranscribing))

			reloaded, err := store.Meeting().Get(context.TODO(), "meeting-1")
			Expect(err).To(BeNil())
			Expect(reloaded.Title).To(Equal("standup"))
			Expect(reloaded.Summary).To(BeEmpty())
		})
	})
})
