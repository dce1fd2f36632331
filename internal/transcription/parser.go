package transcription

import "encoding/json"

type EventKind int

const (
	EventUnrecognized EventKind = iota
	EventPartial
	EventFinal
	EventUtteranceEnd
	EventMetadata
	EventError
)

func (k EventKind) String() string {
	switch k {
	case EventPartial:
		return "partial"
	case EventFinal:
		return "final"
	case EventUtteranceEnd:
		return "utterance_end"
	case EventMetadata:
		return "metadata"
	case EventError:
		return "error"
	default:
		return "unrecognized"
	}
}

// Event is one decoded inbound frame. Text is set for partial and final
// results, Message for error frames. SpeechFinal marks a final result the
// service also tagged as the end of speech.
type Event struct {
	Kind        EventKind
	Text        string
	SpeechFinal bool
	Message     string
}

// serverFrame mirrors the wire shape of inbound JSON frames. Only the
// fields the session consumes are declared.
type serverFrame struct {
	Type        string `json:"type"`
	IsFinal     bool   `json:"is_final"`
	SpeechFinal bool   `json:"speech_final"`
	Channel     struct {
		Alternatives []struct {
			Transcript string `json:"transcript"`
		} `json:"alternatives"`
	} `json:"channel"`
	Message     string `json:"message"`
	Description string `json:"description"`
}

// ParseFrame decodes a raw inbound frame into a typed event. Malformed
// frames come back as EventUnrecognized; they must never terminate the
// receive loop.
func ParseFrame(data []byte) Event {
	var frame serverFrame
	if err := json.Unmarshal(data, &frame); err != nil {
		return Event{Kind: EventUnrecognized, Message: err.Error()}
	}

	switch frame.Type {
	case "Results":
		var text string
		if len(frame.Channel.Alternatives) > 0 {
			text = frame.Channel.Alternatives[0].Transcript
		}
		if frame.IsFinal {
			return Event{Kind: EventFinal, Text: text, SpeechFinal: frame.SpeechFinal}
		}
		return Event{Kind: EventPartial, Text: text}
	case "UtteranceEnd":
		return Event{Kind: EventUtteranceEnd}
	case "Metadata":
		return Event{Kind: EventMetadata}
	case "Error":
		msg := frame.Message
		if msg == "" {
			msg = frame.Description
		}
		return Event{Kind: EventError, Message: msg}
	default:
		return Event{Kind: EventUnrecognized}
	}
}
