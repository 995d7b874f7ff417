package live

import "container/list"

// replayBuffer keeps the most recent envelopes of one game so a reconnecting client
// can catch up from the last seq it saw.
type replayBuffer struct {
	l       *list.List
	maxSize int
}

func newReplayBuffer(maxSize int) *replayBuffer {
	if maxSize <= 0 {
		maxSize = 64
	}
	return &replayBuffer{l: list.New(), maxSize: maxSize}
}

func (b *replayBuffer) push(env Envelope) {
	b.l.PushBack(env)
	for b.l.Len() > b.maxSize {
		b.l.Remove(b.l.Front())
	}
}

// after returns the buffered envelopes with seq greater than seq. complete is false
// when some of them were already evicted and the caller needs a full snapshot.
func (b *replayBuffer) after(seq uint64) (missed []Envelope, complete bool) {
	front := b.l.Front()
	if front == nil {
		return nil, true
	}
	if oldest := front.Value.(Envelope).Seq; oldest > seq+1 {
		return nil, false
	}
	for e := front; e != nil; e = e.Next() {
		env := e.Value.(Envelope)
		if env.Seq > seq {
			missed = append(missed, env)
		}
	}
	return missed, true
}
