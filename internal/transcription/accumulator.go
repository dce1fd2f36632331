package transcription

import (
	"strings"
	"sync"
)

// Accumulator collects final transcript fragments in arrival order. It only
// ever appends; Reset is called once at session start.
type Accumulator struct {
	mu        sync.Mutex
	fragments []string
}

func NewAccumulator() *Accumulator {
	return &Accumulator{}
}

func (a *Accumulator) Reset() {
	a.mu.Lock()
	a.fragments = nil
	a.mu.Unlock()
}

// Append records a final fragment. Blank fragments are dropped.
func (a *Accumulator) Append(text string) {
	if strings.TrimSpace(text) == "" {
		return
	}
	a.mu.Lock()
	a.fragments = append(a.fragments, text)
	a.mu.Unlock()
}

func (a *Accumulator) Count() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.fragments)
}

// Collect joins the fragments with single spaces and trims the result.
func (a *Accumulator) Collect() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return strings.TrimSpace(strings.Join(a.fragments, " "))
}
