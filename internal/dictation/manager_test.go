package dictation

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"sync"
	"testing"

	"github.com/Danial-Baharvand/wisper-sub000/internal/eventstore"
	"github.com/Danial-Baharvand/wisper-sub000/internal/transcription"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeStream struct {
	mu         sync.Mutex
	chunks     [][]byte
	stopped    bool
	transcript string
}

func (f *fakeStream) SendAudio(chunk []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.chunks = append(f.chunks, chunk)
}

func (f *fakeStream) Stop() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stopped = true
	return f.transcript
}

func (f *fakeStream) State() transcription.SessionState {
	return transcription.StateConnected
}

type recordedStart struct {
	stream *fakeStream
	opts   transcription.SessionOptions
	cb     transcription.Callbacks
}

// newTestManager wires a Manager to a fake streamer and captures what each
// Begin call handed to the transport layer.
func newTestManager(t *testing.T, settings Settings, store *eventstore.Store, transcriptText string) (*Manager, *recordedStart) {
	t.Helper()
	m, err := NewManager(ManagerConfig{
		Transport: transcription.Config{APIKey: "test-key"},
		Settings:  settings,
		Store:     store,
		Log:       testLogger(),
	})
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	rec := &recordedStart{}
	m.start = func(_ transcription.Config, opts transcription.SessionOptions, cb transcription.Callbacks, _ *slog.Logger) transcription.Streamer {
		rec.stream = &fakeStream{transcript: transcriptText}
		rec.opts = opts
		rec.cb = cb
		return rec.stream
	}
	return m, rec
}

func openTestStore(t *testing.T) *eventstore.Store {
	t.Helper()
	store, err := eventstore.Open(context.Background(), filepath.Join(t.TempDir(), "history.db"), testLogger())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestNewManagerRequiresAPIKey(t *testing.T) {
	_, err := NewManager(ManagerConfig{Log: testLogger()})
	if err == nil {
		t.Fatal("NewManager with empty API key did not fail")
	}
}

func TestSingleActiveSession(t *testing.T) {
	m, _ := newTestManager(t, Settings{}, nil, "")

	if _, err := m.Begin(context.Background(), nil); err != nil {
		t.Fatalf("Begin: %v", err)
	}
	if !m.Active() {
		t.Error("Active() = false after Begin")
	}
	if _, err := m.Begin(context.Background(), nil); err != ErrSessionActive {
		t.Errorf("second Begin error = %v, want ErrSessionActive", err)
	}
	if _, err := m.Finish(context.Background()); err != nil {
		t.Fatalf("Finish: %v", err)
	}
	if m.Active() {
		t.Error("Active() = true after Finish")
	}
	if _, err := m.Finish(context.Background()); err != ErrNoActiveSession {
		t.Errorf("Finish without session error = %v, want ErrNoActiveSession", err)
	}
}

func TestPushAudioRouting(t *testing.T) {
	m, rec := newTestManager(t, Settings{}, nil, "")

	if err := m.PushAudio([]byte{1}); err != ErrNoActiveSession {
		t.Errorf("PushAudio without session error = %v, want ErrNoActiveSession", err)
	}

	if _, err := m.Begin(context.Background(), nil); err != nil {
		t.Fatalf("Begin: %v", err)
	}
	if err := m.PushAudio([]byte{1, 2}); err != nil {
		t.Fatalf("PushAudio: %v", err)
	}
	if err := m.PushAudio([]byte{3, 4}); err != nil {
		t.Fatalf("PushAudio: %v", err)
	}

	rec.stream.mu.Lock()
	got := len(rec.stream.chunks)
	rec.stream.mu.Unlock()
	if got != 2 {
		t.Errorf("forwarded %d chunks, want 2", got)
	}
}

func TestFinishPersistsTranscript(t *testing.T) {
	store := openTestStore(t)
	m, rec := newTestManager(t, Settings{Model: "nova-2"}, store, "save this one")

	u, err := m.Begin(context.Background(), nil)
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}
	text, err := m.Finish(context.Background())
	if err != nil {
		t.Fatalf("Finish: %v", err)
	}
	if text != "save this one" {
		t.Errorf("transcript = %q, want %q", text, "save this one")
	}
	if !rec.stream.stopped {
		t.Error("stream was not stopped")
	}

	saved, err := store.Recent(context.Background(), 10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(saved) != 1 {
		t.Fatalf("saved %d transcripts, want 1", len(saved))
	}
	if saved[0].ID != u.ID {
		t.Errorf("saved ID = %q, want %q", saved[0].ID, u.ID)
	}
	if saved[0].Text != "save this one" {
		t.Errorf("saved text = %q", saved[0].Text)
	}
}

func TestFinishSkipsEmptyTranscript(t *testing.T) {
	store := openTestStore(t)
	m, _ := newTestManager(t, Settings{}, store, "")

	if _, err := m.Begin(context.Background(), nil); err != nil {
		t.Fatalf("Begin: %v", err)
	}
	if _, err := m.Finish(context.Background()); err != nil {
		t.Fatalf("Finish: %v", err)
	}

	saved, err := store.Recent(context.Background(), 10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(saved) != 0 {
		t.Errorf("empty transcript was persisted: %v", saved)
	}
}

func TestObserverForwarding(t *testing.T) {
	m, rec := newTestManager(t, Settings{}, nil, "")

	obs := &captureObserver{}
	if _, err := m.Begin(context.Background(), obs); err != nil {
		t.Fatalf("Begin: %v", err)
	}

	rec.cb.OnTranscript("hello", false)
	rec.cb.OnTranscript("hello there", true)
	rec.cb.OnUtteranceEnd()

	obs.mu.Lock()
	defer obs.mu.Unlock()
	if len(obs.updates) != 2 {
		t.Fatalf("got %d updates, want 2", len(obs.updates))
	}
	if obs.updates[0].text != "hello" || obs.updates[0].isFinal {
		t.Errorf("first update = %+v", obs.updates[0])
	}
	if obs.updates[1].text != "hello there" || !obs.updates[1].isFinal {
		t.Errorf("second update = %+v", obs.updates[1])
	}
	if obs.utteranceEnds != 1 {
		t.Errorf("utterance ends = %d, want 1", obs.utteranceEnds)
	}
}

func TestContextKeywordsFromHistory(t *testing.T) {
	store := openTestStore(t)
	seed := eventstore.Transcript{
		ID:   "seed",
		Text: "start the kubectl work now.",
	}
	if err := store.Save(context.Background(), seed); err != nil {
		t.Fatalf("Save: %v", err)
	}

	m, rec := newTestManager(t, Settings{Keywords: []string{"WisperFlow"}}, store, "")
	if _, err := m.Begin(context.Background(), nil); err != nil {
		t.Fatalf("Begin: %v", err)
	}

	var texts []string
	for _, kw := range rec.opts.Keywords {
		texts = append(texts, kw.Text)
	}
	if len(texts) == 0 || texts[0] != "WisperFlow" {
		t.Fatalf("keywords = %v, want settings term first", texts)
	}
	found := false
	for _, text := range texts {
		if text == "kubectl" {
			found = true
		}
	}
	if !found {
		t.Errorf("keywords = %v, missing history-derived term kubectl", texts)
	}
	for _, text := range texts {
		if text == "start" || text == "the" || text == "work" || text == "now" {
			t.Errorf("plain English term %q was not filtered", text)
		}
	}
}

func TestSessionOptionsFromSettings(t *testing.T) {
	settings := Settings{
		Model:          "nova-3",
		Language:       "de",
		InterimResults: true,
		UtteranceEndMs: 1000,
		Punctuate:      true,
	}
	m, rec := newTestManager(t, settings, nil, "")
	if _, err := m.Begin(context.Background(), nil); err != nil {
		t.Fatalf("Begin: %v", err)
	}

	opts := rec.opts
	if opts.Model != "nova-3" || opts.Language != "de" {
		t.Errorf("model/language = %q/%q", opts.Model, opts.Language)
	}
	if !opts.InterimResults || opts.UtteranceEndMs != 1000 || !opts.Punctuate {
		t.Errorf("options not carried over: %+v", opts)
	}
	if !opts.Dictation {
		t.Error("Dictation mode not forced on")
	}
}

func TestStreamErrorsReported(t *testing.T) {
	m, rec := newTestManager(t, Settings{}, nil, "")

	var mu sync.Mutex
	var reported []error
	m.capture = func(err error) {
		mu.Lock()
		reported = append(reported, err)
		mu.Unlock()
	}

	if _, err := m.Begin(context.Background(), nil); err != nil {
		t.Fatalf("Begin: %v", err)
	}
	rec.cb.OnError(errors.New("upstream hiccup"))

	mu.Lock()
	defer mu.Unlock()
	if len(reported) != 1 {
		t.Fatalf("reported %d errors, want 1", len(reported))
	}
	if reported[0].Error() != "upstream hiccup" {
		t.Errorf("reported = %v", reported[0])
	}
}

type captureObserver struct {
	mu            sync.Mutex
	updates       []transcriptUpdate
	utteranceEnds int
}

type transcriptUpdate struct {
	text    string
	isFinal bool
}

func (c *captureObserver) OnTranscriptUpdate(text string, isFinal bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.updates = append(c.updates, transcriptUpdate{text, isFinal})
}

func (c *captureObserver) OnUtteranceEnd() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.utteranceEnds++
}
