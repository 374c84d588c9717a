package decisionpolicy

import "sync"

// Experience is one (observation, action, reward) triple recorded from
// reviewer feedback or the bootstrap environment.
type Experience struct {
	Observation Observation `json:"observation"`
	Action      Action      `json:"action"`
	Reward      float64     `json:"reward"`
}

// experienceBuffer is a bounded FIFO of experiences. Appends from the
// request path and snapshots from the training path are serialized by the
// mutex, so a training pass never loses concurrently recorded feedback.
type experienceBuffer struct {
	mu  sync.Mutex
	cap int
	buf []Experience
}

func newExperienceBuffer(capacity int) *experienceBuffer {
	return &experienceBuffer{cap: capacity}
}

// Append records an experience, evicting the oldest entry when full, and
// returns the resulting buffer size.
func (b *experienceBuffer) Append(e Experience) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.buf) >= b.cap {
		copy(b.buf, b.buf[1:])
		b.buf = b.buf[:len(b.buf)-1]
	}
	b.buf = append(b.buf, e)
	return len(b.buf)
}

// Snapshot returns a copy of the current contents. The training path
// iterates the copy while the request path keeps appending.
func (b *experienceBuffer) Snapshot() []Experience {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]Experience, len(b.buf))
	copy(out, b.buf)
	return out
}

func (b *experienceBuffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.buf)
}
