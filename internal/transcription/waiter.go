package transcription

import "time"

// WaitPolicy tunes how long Stop keeps the receive loop alive waiting for
// trailing final results after the finalize frame was sent. The defaults
// were tuned empirically against the cloud service; treat them as starting
// points, not truths.
type WaitPolicy struct {
	// MinWait is always waited, even when results are already in.
	MinWait time.Duration
	// MaxWait is the absolute ceiling on the wait.
	MaxWait time.Duration
	PollInterval time.Duration
	// DebounceWindow extends the wait after each new final fragment so
	// stragglers arriving in a burst are not cut off.
	DebounceWindow time.Duration
}

func (p WaitPolicy) withDefaults() WaitPolicy {
	if p.MinWait <= 0 {
		p.MinWait = 100 * time.Millisecond
	}
	if p.MaxWait <= 0 {
		p.MaxWait = 600 * time.Millisecond
	}
	if p.PollInterval <= 0 {
		p.PollInterval = 25 * time.Millisecond
	}
	if p.DebounceWindow <= 0 {
		p.DebounceWindow = 150 * time.Millisecond
	}
	return p
}

// Verdict records why the completion wait ended.
type Verdict struct {
	Reason     string
	NewResults bool
	Waited     time.Duration
}

// streamProgress is the waiter's view of live session state. The client
// backs it with atomic counters; tests back it with a fake.
type streamProgress interface {
	FinalCount() int
	UtteranceEnded() bool
	SocketOpen() bool
}

// awaitCompletion decides when it is safe to stop listening for trailing
// final results. It is a race between "the server said it is done"
// (utterance boundary) and "we observed new output" (fragment count past
// baseline plus a debounce window), biased toward returning early when
// either signal appears, floored at MinWait and capped at MaxWait.
func awaitCompletion(p streamProgress, baseline int, policy WaitPolicy) Verdict {
	policy = policy.withDefaults()
	start := time.Now()

	time.Sleep(policy.MinWait)

	gotNew := p.FinalCount() > baseline
	debounceStart := time.Now()

	if p.UtteranceEnded() && p.FinalCount() > 0 {
		return Verdict{Reason: "utterance end plus results", NewResults: gotNew, Waited: time.Since(start)}
	}

	// When the boundary signal arrives with nothing new to show, wait a
	// short grace beyond MinWait rather than the full ceiling.
	boundaryOnlyCap := policy.MinWait + 200*time.Millisecond

	for time.Since(start) < policy.MaxWait {
		if !gotNew && p.FinalCount() > baseline {
			gotNew = true
			debounceStart = time.Now()
		}

		if p.UtteranceEnded() {
			if gotNew {
				return Verdict{Reason: "utterance end plus new results", NewResults: true, Waited: time.Since(start)}
			}
			if time.Since(start) >= boundaryOnlyCap {
				return Verdict{Reason: "utterance end, no new results", Waited: time.Since(start)}
			}
		} else if gotNew && time.Since(debounceStart) >= policy.DebounceWindow {
			return Verdict{Reason: "debounce complete", NewResults: true, Waited: time.Since(start)}
		}

		if !p.SocketOpen() {
			return Verdict{Reason: "socket closed", NewResults: gotNew, Waited: time.Since(start)}
		}

		time.Sleep(policy.PollInterval)
	}

	if gotNew {
		return Verdict{Reason: "timeout with new results", NewResults: true, Waited: time.Since(start)}
	}
	return Verdict{Reason: "timeout without results", Waited: time.Since(start)}
}
