package events

import (
	"bytes"
	"context"
	"encoding/json"
	"sync"

	cloudevents "github.com/cloudevents/sdk-go/v2"
	"github.com/google/uuid"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("producer", func() {
	It("writes events in order", func() {
		w := newTestWriter()
		p := NewEventProducer(w)

		Expect(p.Write(context.TODO(), WavesCommittedKind, bytes.NewReader([]byte(`{"a":1}`)))).To(Succeed())
		Expect(p.Write(context.TODO(), WaveTransitionedKind, bytes.NewReader([]byte(`{"a":2}`)))).To(Succeed())

		Eventually(w.Len).Should(Equal(2))
		msgs := w.Events()
		Expect(msgs[0].Type()).To(Equal(WavesCommittedKind))
		Expect(msgs[1].Type()).To(Equal(WaveTransitionedKind))
		Expect(msgs[0].Source()).To(Equal(defaultSource))
		Expect(w.Topics()).To(ConsistOf(defaultTopic, defaultTopic))

		Expect(p.Close()).To(Succeed())
		Expect(w.Closed()).To(BeTrue())
	})

	It("publishes json payloads", func() {
		w := newTestWriter()
		p := NewEventProducer(w, WithOutputTopic("plans"), WithSource("test"))

		projectID := uuid.New()
		Expect(p.Publish(context.TODO(), CohortsCommittedKind, CohortsCommittedEvent{
			ProjectID:       projectID,
			Strategy:        "pilot_plus_bulk",
			CohortIDs:       []string{"c1", "c2"},
			SnapshotVersion: 3,
		})).To(Succeed())
		Expect(p.Close()).To(Succeed())

		Expect(w.Len()).To(Equal(1))
		e := w.Events()[0]
		Expect(e.Source()).To(Equal("test"))
		Expect(w.Topics()).To(Equal([]string{"plans"}))

		var got CohortsCommittedEvent
		Expect(json.Unmarshal(e.Data(), &got)).To(Succeed())
		Expect(got.ProjectID).To(Equal(projectID))
		Expect(got.CohortIDs).To(Equal([]string{"c1", "c2"}))
		Expect(got.SnapshotVersion).To(Equal(3))
	})

	It("flushes pending events on close", func() {
		w := newTestWriter()
		p := NewEventProducer(w)

		for i := 0; i < 50; i++ {
			Expect(p.Publish(context.TODO(), WaveTransitionedKind, map[string]int{"i": i})).To(Succeed())
		}
		Expect(p.Close()).To(Succeed())
		Expect(w.Len()).To(Equal(50))
	})

	It("can be closed twice", func() {
		p := NewEventProducer(&StdoutWriter{})
		Expect(p.Close()).To(Succeed())
		Expect(p.Close()).To(Succeed())
	})
})

type testWriter struct {
	mu     sync.Mutex
	events []cloudevents.Event
	topics []string
	closed bool
}

func newTestWriter() *testWriter {
	return &testWriter{}
}

func (t *testWriter) Write(ctx context.Context, topic string, e cloudevents.Event) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.events = append(t.events, e)
	t.topics = append(t.topics, topic)
	return nil
}

func (t *testWriter) Close(_ context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.closed = true
	return nil
}

func (t *testWriter) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.events)
}

func (t *testWriter) Events() []cloudevents.Event {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]cloudevents.Event(nil), t.events...)
}

func (t *testWriter) Topics() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]string(nil), t.topics...)
}

func (t *testWriter) Closed() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.closed
}
