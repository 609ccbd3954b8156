package events

import "sync"

// message is one queued event before it is wrapped into a CloudEvent.
type message struct {
	Kind string
	Data []byte
}

// buffer is an unbounded FIFO of pending events. Popped slots are released
// so a long-running producer does not pin delivered payloads.
type buffer struct {
	mu    sync.Mutex
	items []*message
	start int
}

func newBuffer() *buffer {
	return &buffer{}
}

func (b *buffer) PushBack(msg *message) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.items = append(b.items, msg)
}

// Pop returns the oldest message, or nil when the buffer is empty.
func (b *buffer) Pop() *message {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.start == len(b.items) {
		return nil
	}
	msg := b.items[b.start]
	b.items[b.start] = nil
	b.start++

	if b.start == len(b.items) {
		b.items = b.items[:0]
		b.start = 0
	}
	return msg
}

func (b *buffer) Size() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.items) - b.start
}
