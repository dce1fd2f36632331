package transcription

import "sync"

// AudioRelay buffers outbound audio chunks while the socket is not yet
// writable. Enqueue never blocks: capture must not stall on network state.
// FIFO order is preserved across concurrent enqueue and drain.
type AudioRelay struct {
	mu    sync.Mutex
	queue [][]byte
}

func NewAudioRelay() *AudioRelay {
	return &AudioRelay{}
}

func (r *AudioRelay) Enqueue(chunk []byte) {
	r.mu.Lock()
	r.queue = append(r.queue, chunk)
	r.mu.Unlock()
}

// DrainAll atomically removes and returns everything currently queued.
// Chunks enqueued while the caller processes the returned slice land in a
// fresh queue and are picked up by the next drain.
func (r *AudioRelay) DrainAll() [][]byte {
	r.mu.Lock()
	queued := r.queue
	r.queue = nil
	r.mu.Unlock()
	return queued
}

func (r *AudioRelay) Clear() {
	r.mu.Lock()
	r.queue = nil
	r.mu.Unlock()
}

func (r *AudioRelay) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.queue)
}
