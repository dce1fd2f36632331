package dictation

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/Danial-Baharvand/wisper-sub000/internal/eventstore"
	"github.com/Danial-Baharvand/wisper-sub000/internal/keyword"
	"github.com/Danial-Baharvand/wisper-sub000/internal/transcription"
	"github.com/getsentry/sentry-go"
	"github.com/google/uuid"
)

var (
	ErrSessionActive   = errors.New("a dictation session is already active")
	ErrNoActiveSession = errors.New("no active dictation session")
)

// Observer receives live dictation events for UI preview.
type Observer interface {
	OnTranscriptUpdate(text string, isFinal bool)
	OnUtteranceEnd()
}

// Settings mirrors the user-facing dictation options.
type Settings struct {
	Model          string
	Language       string
	SampleRate     int
	InterimResults bool
	UtteranceEndMs int
	EndpointingMs  int

	SmartFormat bool
	Punctuate   bool
	Diarize     bool
	FillerWords bool
	Numerals    bool

	OptOutDataUse    bool
	RedactCategories []string

	// Keywords are user-configured boost terms; they take priority over
	// context-derived terms and bypass the dictionary filter.
	Keywords []string

	// HistoryKeepDays prunes saved transcripts older than this. 0 keeps
	// everything.
	HistoryKeepDays int
}

type ManagerConfig struct {
	Transport transcription.Config
	Settings  Settings
	Store     *eventstore.Store
	Log       *slog.Logger
}

type starterFunc func(cfg transcription.Config, opts transcription.SessionOptions, cb transcription.Callbacks, log *slog.Logger) transcription.Streamer

// Manager owns dictation lifecycle: one utterance at a time, each backed by
// a fresh streaming session, with finished transcripts saved to history.
type Manager struct {
	transport transcription.Config
	settings  Settings
	store     *eventstore.Store
	log       *slog.Logger
	start     starterFunc
	capture   func(error)

	mu     sync.Mutex
	active *Utterance
}

// Utterance is one live dictation.
type Utterance struct {
	ID        string
	stream    transcription.Streamer
	model     string
	startedAt time.Time
}

func NewManager(cfg ManagerConfig) (*Manager, error) {
	if cfg.Transport.APIKey == "" {
		return nil, errors.New("transcription API key is not configured")
	}
	log := cfg.Log
	if log == nil {
		log = slog.Default()
	}
	return &Manager{
		transport: cfg.Transport,
		settings:  cfg.Settings,
		store:     cfg.Store,
		log:       log,
		start: func(c transcription.Config, o transcription.SessionOptions, cb transcription.Callbacks, l *slog.Logger) transcription.Streamer {
			return transcription.Start(c, o, cb, l)
		},
		capture: func(err error) {
			// No-op unless sentry was initialized at startup.
			sentry.CaptureException(err)
		},
	}, nil
}

// Begin starts a new utterance. The streaming connection comes up in the
// background; audio pushed before it resolves is buffered in order.
func (m *Manager) Begin(ctx context.Context, obs Observer) (*Utterance, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.active != nil {
		return nil, ErrSessionActive
	}

	id := uuid.New().String()
	opts := m.sessionOptions(ctx)
	log := m.log.With("utterance_id", id)

	cb := transcription.Callbacks{
		OnTranscript: func(text string, isFinal bool) {
			if obs != nil {
				obs.OnTranscriptUpdate(text, isFinal)
			}
		},
		OnUtteranceEnd: func() {
			if obs != nil {
				obs.OnUtteranceEnd()
			}
		},
		OnError: func(err error) {
			log.Error("streaming session error", "error", err)
			m.capture(err)
		},
	}

	u := &Utterance{
		ID:        id,
		stream:    m.start(m.transport, opts, cb, log),
		model:     opts.Model,
		startedAt: time.Now(),
	}
	m.active = u
	log.Info("dictation started", "model", opts.Model, "keywords", len(opts.Keywords))
	return u, nil
}

// PushAudio forwards one PCM chunk to the active utterance.
func (m *Manager) PushAudio(chunk []byte) error {
	m.mu.Lock()
	u := m.active
	m.mu.Unlock()
	if u == nil {
		return ErrNoActiveSession
	}
	u.stream.SendAudio(chunk)
	return nil
}

// Finish stops the active utterance, persists the transcript and returns
// it. A degraded session yields an empty transcript, not an error.
func (m *Manager) Finish(ctx context.Context) (string, error) {
	m.mu.Lock()
	u := m.active
	m.active = nil
	m.mu.Unlock()
	if u == nil {
		return "", ErrNoActiveSession
	}

	transcript := u.stream.Stop()
	elapsed := time.Since(u.startedAt)
	m.log.Info("dictation finished",
		"utterance_id", u.ID,
		"duration", elapsed,
		"chars", len(transcript))

	if transcript != "" && m.store != nil {
		err := m.store.Save(ctx, eventstore.Transcript{
			ID:         u.ID,
			Text:       transcript,
			Model:      u.model,
			StartedAt:  u.startedAt,
			DurationMs: elapsed.Milliseconds(),
		})
		if err != nil {
			m.log.Error("failed to save transcript", "utterance_id", u.ID, "error", err)
			m.capture(err)
		}
		if err := m.store.Prune(ctx, m.settings.HistoryKeepDays); err != nil {
			m.log.Warn("history prune failed", "error", err)
		}
	}

	return transcript, nil
}

func (m *Manager) Active() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.active != nil
}

// History returns recently finished transcripts, newest first.
func (m *Manager) History(ctx context.Context, limit int) ([]eventstore.Transcript, error) {
	if m.store == nil {
		return nil, nil
	}
	return m.store.Recent(ctx, limit)
}

// Transcript returns one saved dictation from history.
func (m *Manager) Transcript(ctx context.Context, id string) (eventstore.Transcript, error) {
	if m.store == nil {
		return eventstore.Transcript{}, eventstore.ErrNotFound
	}
	return m.store.Get(ctx, id)
}

func (m *Manager) sessionOptions(ctx context.Context) transcription.SessionOptions {
	s := m.settings
	return transcription.SessionOptions{
		Model:            s.Model,
		Language:         s.Language,
		SampleRate:       s.SampleRate,
		InterimResults:   s.InterimResults,
		UtteranceEndMs:   s.UtteranceEndMs,
		EndpointingMs:    s.EndpointingMs,
		SmartFormat:      s.SmartFormat,
		Punctuate:        s.Punctuate,
		Diarize:          s.Diarize,
		FillerWords:      s.FillerWords,
		Dictation:        true,
		Numerals:         s.Numerals,
		OptOutDataUse:    s.OptOutDataUse,
		RedactCategories: s.RedactCategories,
		Keywords:         keyword.Build(s.Keywords, m.contextTerms(ctx)),
	}
}

// contextTerms mines recent history for vocabulary worth boosting. The
// budgeter drops anything that is plain English, so feeding it raw words
// is fine.
func (m *Manager) contextTerms(ctx context.Context) []string {
	if m.store == nil {
		return nil
	}
	recent, err := m.store.Recent(ctx, 5)
	if err != nil {
		m.log.Debug("context keyword lookup failed", "error", err)
		return nil
	}
	var terms []string
	for _, tr := range recent {
		for _, word := range strings.Fields(tr.Text) {
			terms = append(terms, strings.Trim(word, ".,!?;:\"'"))
		}
	}
	return terms
}
