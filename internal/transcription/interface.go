package transcription

// Streamer is the capture-facing surface of one live session.
type Streamer interface {
	SendAudio(chunk []byte)
	Stop() string
	State() SessionState
}

var _ Streamer = (*Client)(nil)
