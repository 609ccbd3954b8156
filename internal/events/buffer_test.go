package events

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("buffer", func() {
	It("keeps messages in insertion order", func() {
		b := newBuffer()
		b.PushBack(&message{Kind: WavesCommittedKind, Data: []byte("msg1")})
		b.PushBack(&message{Kind: WaveTransitionedKind, Data: []byte("msg2")})
		b.PushBack(&message{Kind: CohortTransitionedKind, Data: []byte("msg3")})

		Expect(b.Size()).To(Equal(3))
		Expect(b.head.Data).To(Equal([]byte("msg1")))
		Expect(b.tail.Data).To(Equal([]byte("msg3")))

		Expect(b.Pop().Data).To(Equal([]byte("msg1")))
		Expect(b.Pop().Data).To(Equal([]byte("msg2")))
		Expect(b.Size()).To(Equal(1))
		Expect(b.head).To(BeIdenticalTo(b.tail))
	})

	It("returns nil when empty", func() {
		b := newBuffer()
		Expect(b.Pop()).To(BeNil())

		b.PushBack(&message{Kind: CohortsCommittedKind})
		Expect(b.Pop()).NotTo(BeNil())
		Expect(b.Pop()).To(BeNil())
		Expect(b.head).To(BeNil())
		Expect(b.tail).To(BeNil())
		Expect(b.Size()).To(BeZero())
	})

	It("accepts pushes after being drained", func() {
		b := newBuffer()
		b.PushBack(&message{Data: []byte("a")})
		b.Pop()
		b.PushBack(&message{Data: []byte("b")})

		Expect(b.Size()).To(Equal(1))
		Expect(b.Pop().Data).To(Equal([]byte("b")))
	})
})
