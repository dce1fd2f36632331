package transcription

import "github.com/Danial-Baharvand/wisper-sub000/internal/keyword"

// Config carries the connection-level settings for one streaming session.
type Config struct {
	// Endpoint is the wss URL of the listen endpoint. Empty selects the
	// public cloud endpoint; tests point it at a local server.
	Endpoint string
	APIKey   string
	Wait     WaitPolicy
}

// SessionOptions selects model, formatting and privacy behavior for the
// session. Zero values fall back to the dictation defaults.
type SessionOptions struct {
	Model          string
	Language       string
	SampleRate     int
	Channels       int
	InterimResults bool
	// UtteranceEndMs is the server-side silence threshold (ms) after which
	// an utterance-boundary frame is emitted. 0 keeps the server default.
	UtteranceEndMs int
	// EndpointingMs is the silence duration that triggers early
	// finalization of a result. 0 disables.
	EndpointingMs int

	SmartFormat bool
	Punctuate   bool
	Diarize     bool
	FillerWords bool
	Dictation   bool
	Numerals    bool

	// OptOutDataUse opts the session out of provider-side data use.
	OptOutDataUse bool
	// RedactCategories lists server-side redaction categories (e.g. "pci").
	RedactCategories []string

	Keywords []keyword.Entry
}

// Callbacks deliver live session events to the owning layer. All fields
// are optional.
type Callbacks struct {
	OnTranscript   func(text string, isFinal bool)
	OnUtteranceEnd func()
	OnError        func(error)
}

const (
	defaultModel      = "nova-2"
	defaultLanguage   = "en-US"
	defaultSampleRate = 16000
	defaultChannels   = 1
)

func normalizeOptions(opts SessionOptions) SessionOptions {
	if opts.Model == "" {
		opts.Model = defaultModel
	}
	if opts.Language == "" {
		opts.Language = defaultLanguage
	}
	if opts.SampleRate <= 0 {
		opts.SampleRate = defaultSampleRate
	}
	if opts.Channels <= 0 {
		opts.Channels = defaultChannels
	}
	return opts
}
