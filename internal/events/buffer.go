package events

import "sync"

type message struct {
	Kind string
	Data []byte
	next *message
}

// buffer is an unbounded FIFO of pending events. Writes must not block the
// request path while the writer drains.
type buffer struct {
	lock sync.Mutex
	head *message
	tail *message
	size int
}

func newBuffer() *buffer {
	return &buffer{}
}

func (b *buffer) PushBack(msg *message) error {
	b.lock.Lock()
	defer b.lock.Unlock()

	if b.tail == nil {
		b.head = msg
		b.tail = msg
	} else {
		b.tail.next = msg
		b.tail = msg
	}
	b.size++

	return nil
}

func (b *buffer) Pop() *message {
	if b.head == nil {
		return nil
	}

	msg := b.head
	b.head = msg.next
	if b.head == nil {
		b.tail = nil
	}
	b.size--

	return msg
}

func (b *buffer) Size() int {
	return b.size
}
