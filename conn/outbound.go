package conn

import (
	"github.com/lukacu/routio/pkg/buffer"
)

// outboundQueue holds encoed wire bytes waiting to be written to a peer.
// Two backpressure policies are supported per §5: a lossy subscriber drops
// its oldest queued chunk to make room for a new one and is never
// disconnected for being slow; a default subscriber is disconnected once
// its queue would exceed capacity rather than silently losing data.
type outboundQueue struct {
	lossy bool
	buf   buffer.Buffer[[]byte]
}

// newOutboundQueue builds a queue holding up to capacity pending chunks.
func newOutboundQueue(capacity int, lossy bool) (*outboundQueue, error) {
	policy := buffer.DropNewest
	if lossy {
		policy = buffer.DropOldest
	}
	buf, err := buffer.NewCircularBuffer[[]byte](capacity, buffer.WithOverflowPolicy[[]byte](policy))
	if err != nil {
		return nil, err
	}
	return &outboundQueue{lossy: lossy, buf: buf}, nil
}

// Enqueue appends data to the queue. It reports overflow=true when the
// queue was already full and the subscriber is not lossy — the caller must
// then disconnect the connection per §5's default policy. A lossy queue
// never reports overflow; it drops its own oldest entry instead.
func (q *outboundQueue) Enqueue(data []byte) (overflow bool) {
	if !q.lossy && q.buf.IsFull() {
		return true
	}
	// Write never returns an error for DropOldest/DropNewest policies; it
	// only errors once the buffer has been closed by Close, and that error
	// is discarded here.
	_ = q.buf.Write(data)
	return false
}

// Dequeue removes and returns the oldest queued chunk, if any.
func (q *outboundQueue) Dequeue() ([]byte, bool) {
	return q.buf.Read()
}

// Len reports the number of chunks currently queued.
func (q *outboundQueue) Len() int {
	return q.buf.Size()
}

func (q *outboundQueue) Close() {
	_ = q.buf.Close()
}
