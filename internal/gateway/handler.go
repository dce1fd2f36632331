package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/Danial-Baharvand/wisper-sub000/internal/dictation"
	"github.com/Danial-Baharvand/wisper-sub000/internal/eventstore"
	"github.com/Danial-Baharvand/wisper-sub000/internal/shared"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
)

// Handler exposes the dictation websocket and the transcript history API.
type Handler struct {
	manager *dictation.Manager
	log     *slog.Logger
}

func NewHandler(manager *dictation.Manager, log *slog.Logger) *Handler {
	if log == nil {
		log = slog.Default()
	}
	return &Handler{manager: manager, log: log}
}

func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.GET("/dictation/stream", h.HandleStream)
	g.GET("/transcripts", h.HandleHistory)
	g.GET("/transcripts/:id", h.HandleTranscript)
}

// HandleStream upgrades to a websocket and runs one dictation session over
// it. Binary frames are PCM audio; a {"type":"Stop"} text frame finishes
// the utterance and the final transcript comes back as a SessionClosed
// event before the socket closes.
func (h *Handler) HandleStream(c echo.Context) error {
	if h.manager.Active() {
		return shared.Conflict("session_active", "a dictation session is already active")
	}

	ws, err := wsUpgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return shared.BadRequest("upgrade_failed", "websocket upgrade failed")
	}

	conn := newWSConn(ws, h.log)
	defer conn.close()

	ctx := c.Request().Context()
	u, err := h.manager.Begin(ctx, conn)
	if err != nil {
		if errors.Is(err, dictation.ErrSessionActive) {
			conn.sendEvent(ServerEvent{Type: EventError, Message: "a dictation session is already active"})
		} else {
			conn.sendEvent(ServerEvent{Type: EventError, Message: "failed to start dictation"})
		}
		return nil
	}
	log := h.log.With("utterance_id", u.ID)
	log.Info("dictation stream opened", "remote", c.RealIP())

	ws.SetReadLimit(maxMessageSize)
	for {
		msgType, data, err := ws.ReadMessage()
		if err != nil {
			// Client went away mid-utterance; the request context is dead
			// by now. Finish on a fresh context so whatever was recognized
			// still lands in history.
			if transcript, ferr := h.manager.Finish(context.Background()); ferr == nil {
				log.Warn("stream dropped, salvaged transcript", "chars", len(transcript))
			}
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Debug("websocket read error", "error", err)
			}
			return nil
		}

		switch msgType {
		case websocket.BinaryMessage:
			if err := h.manager.PushAudio(data); err != nil {
				conn.sendEvent(ServerEvent{Type: EventError, Message: "no active session"})
				return nil
			}
		case websocket.TextMessage:
			var cmd ClientCommand
			if err := json.Unmarshal(data, &cmd); err != nil {
				conn.sendEvent(ServerEvent{Type: EventError, Message: "malformed command"})
				continue
			}
			if cmd.Type != CommandStop {
				conn.sendEvent(ServerEvent{Type: EventError, Message: "unknown command: " + cmd.Type})
				continue
			}
			transcript, err := h.manager.Finish(context.Background())
			if err != nil {
				conn.sendEvent(ServerEvent{Type: EventError, Message: "failed to finish session"})
				return nil
			}
			conn.sendEvent(ServerEvent{Type: EventSessionClosed, Transcript: transcript})
			log.Info("dictation stream closed", "chars", len(transcript))
			return nil
		}
	}
}

// HandleHistory returns recently saved transcripts, newest first.
func (h *Handler) HandleHistory(c echo.Context) error {
	limit := 20
	if raw := c.QueryParam("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return shared.NewAPIError("invalid_limit", "limit must be a positive integer").
				WithDetails(map[string]string{"limit": raw}).
				ToHTTP(http.StatusBadRequest)
		}
		limit = n
	}

	records, err := h.manager.History(c.Request().Context(), limit)
	if err != nil {
		h.log.Error("history lookup failed", "error", err)
		return shared.InternalError("history_failed", "could not load transcript history")
	}

	out := make([]TranscriptRecord, 0, len(records))
	for _, r := range records {
		out = append(out, TranscriptRecord{
			ID:         r.ID,
			Text:       r.Text,
			Model:      r.Model,
			StartedAt:  r.StartedAt.Format(time.RFC3339),
			DurationMs: r.DurationMs,
		})
	}
	return c.JSON(http.StatusOK, out)
}

// HandleTranscript returns one saved transcript by ID.
func (h *Handler) HandleTranscript(c echo.Context) error {
	id := c.Param("id")
	tr, err := h.manager.Transcript(c.Request().Context(), id)
	if errors.Is(err, eventstore.ErrNotFound) {
		return shared.NotFound("transcript_not_found", "no transcript with that id")
	}
	if err != nil {
		h.log.Error("transcript lookup failed", "id", id, "error", err)
		return shared.InternalError("history_failed", "could not load transcript")
	}
	return c.JSON(http.StatusOK, TranscriptRecord{
		ID:         tr.ID,
		Text:       tr.Text,
		Model:      tr.Model,
		StartedAt:  tr.StartedAt.Format(time.RFC3339),
		DurationMs: tr.DurationMs,
	})
}
