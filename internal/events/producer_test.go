package events

import (
	"bytes"
	"context"
	"sync"

	cloudevents "github.com/cloudevents/sdk-go/v2"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("producer", Ordered, func() {
	Context("write", func() {
		It("drains buffered events to the writer", func() {
			w := newTestWriter()
			ep := NewEventProducer(w)

			err := ep.Write(context.TODO(), JobMessageKind, bytes.NewReader([]byte(`{"jobId":"j-1"}`)))
			Expect(err).To(BeNil())

			err = ep.Write(context.TODO(), RepositoryMessageKind, bytes.NewReader([]byte(`{"repositoryId":"repo-1"}`)))
			Expect(err).To(BeNil())

			Eventually(w.Len, "2s").Should(Equal(2))

			events := w.Events()
			Expect(events[0].Context.GetType()).To(Equal(JobMessageKind))
			Expect(events[0].Context.GetSource()).To(Equal("devbrief.api"))
			Expect(events[1].Context.GetType()).To(Equal(RepositoryMessageKind))

			ep.Close()
		})

		It("uses the configured output topic", func() {
			w := newTestWriter()
			ep := NewEventProducer(w, WithOutputTopic("devbrief.custom"))

			err := ep.Write(context.TODO(), MeetingMessageKind, bytes.NewReader([]byte(`{"meetingId":"m-1"}`)))
			Expect(err).To(BeNil())

			Eventually(w.Topics, "2s").Should(ConsistOf("devbrief.custom"))

			ep.Close()
		})
	})
})

type testwriter struct {
	mu     sync.Mutex
	events []cloudevents.Event
	topics []string
}

func newTestWriter() *testwriter {
	return &testwriter{}
}

func (t *testwriter) Write(_ context.Context, topic string, e cloudevents.Event) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.events = append(t.events, e)
	t.topics = append(t.topics, topic)
	return nil
}

func (t *testwriter) Close(_ context.Context) error {
	return nil
}

func (t *testwriter) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.events)
}

func (t *testwriter) Events() []cloudevents.Event {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]cloudevents.Event(nil), t.events...)
}

func (t *testwriter) Topics() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]string(nil), t.topics...)
}

var _ = Describe("producer close", func() {
	It("stops the drain loop", func() {
		w := newTestWriter()
		ep := NewEventProducer(w)

		done := make(chan struct{})
		go func() {
			ep.Close()
			close(done)
		}()

		Eventually(done, "2s").Should(BeClosed())
		Consistently(w.Len, "100ms").Should(Equal(0))
	})
})
