package gateway

// Client text frames carry commands; binary frames carry raw PCM audio.
const (
	CommandStop = "Stop"
)

type ClientCommand struct {
	Type string `json:"type"`
}

// Server event types pushed over the websocket.
const (
	EventTranscript    = "Transcript"
	EventUtteranceEnd  = "UtteranceEnd"
	EventSessionClosed = "SessionClosed"
	EventError         = "Error"
)

type ServerEvent struct {
	Type       string `json:"type"`
	Text       string `json:"text,omitempty"`
	IsFinal    bool   `json:"is_final,omitempty"`
	Transcript string `json:"transcript,omitempty"`
	Message    string `json:"message,omitempty"`
}

// TranscriptRecord is the history API representation of a saved dictation.
type TranscriptRecord struct {
	ID         string `json:"id"`
	Text       string `json:"text"`
	Model      string `json:"model"`
	StartedAt  string `json:"started_at"`
	DurationMs int64  `json:"duration_ms"`
}
