package web

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/justestif/emolyrics/internal/analysis"
	"github.com/justestif/emolyrics/internal/emotion"
	"github.com/justestif/emolyrics/internal/metrics"
)

const (
	writeWait      = 5 * time.Second
	maxMessageSize = maxUploadBytes + 1024
)

const msgSessionExpired = "Your session has expired, please reload the page."

// errSessionExpired closes a socket whose session was pruned.
var errSessionExpired = errors.New("session expired")

// Stream message types.
const (
	messageFrame  = "frame"
	messageResult = "result"
	messageError  = "error"
)

// streamRequest is what the client sends to start an analysis.
type streamRequest struct {
	Lyrics string `json:"lyrics"`
}

// streamMessage is every server-to-client message on the analysis socket.
type streamMessage struct {
	Type    string          `json:"type"`
	Scores  *emotion.Scores `json:"scores,omitempty"`
	Top     emotion.Label   `json:"top,omitempty"`
	Card    string          `json:"card,omitempty"`
	Chart   string          `json:"chart,omitempty"`
	Message string          `json:"message,omitempty"`
}

// AnalyzeStream runs analyses over a websocket, streaming every animation
// frame before the final result (GET /ws/analyze). Closing the socket
// cancels a running analysis, which then leaves the session untouched.
func (h *Handlers) AnalyzeStream(w http.ResponseWriter, r *http.Request) {
	bs, created, err := h.sessions.Resolve(r)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "creating session", "error", err)
		http.Error(w, "Failed to create session", http.StatusInternalServerError)
		return
	}

	header := http.Header{}
	if created {
		header.Add("Set-Cookie", h.sessions.Cookie(bs).String())
	}

	conn, err := h.upgrader.Upgrade(w, r, header)
	if err != nil {
		// Upgrade has already replied to the client.
		h.logger.WarnContext(r.Context(), "upgrading websocket", "error", err)
		return
	}
	defer conn.Close()
	conn.SetReadLimit(maxMessageSize)

	h.metrics.StreamOpened()
	defer h.metrics.StreamClosed()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	// Read pump: a read error means the client went away.
	requests := make(chan streamRequest)
	go func() {
		defer cancel()
		for {
			var req streamRequest
			if err := conn.ReadJSON(&req); err != nil {
				return
			}
			select {
			case requests <- req:
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case req := <-requests:
			if err := h.stream(ctx, conn, bs, req.Lyrics); err != nil {
				h.logger.DebugContext(ctx, "analysis stream closed", "error", err)
				return
			}
		}
	}
}

// stream runs one analysis. It returns an error only when the socket is
// unusable; analysis failures are reported to the client.
func (h *Handlers) stream(ctx context.Context, conn *websocket.Conn, bs *BrowserSession, lyrics string) error {
	// Each request counts as activity; a session pruned while the socket
	// idled is gone for good.
	if _, ok := h.sessions.Get(bs.ID); !ok {
		if err := writeMessage(conn, streamMessage{Type: messageError, Message: msgSessionExpired}); err != nil {
			return err
		}
		return errSessionExpired
	}

	if err := analysis.CheckInput(lyrics); err != nil {
		h.metrics.Analysis(metrics.OutcomeRejected)
		return writeMessage(conn, streamMessage{Type: messageError, Message: sentence(err)})
	}

	if !h.sessions.Allow(bs) {
		h.metrics.Analysis(metrics.OutcomeRateLimited)
		return writeMessage(conn, streamMessage{Type: messageError, Message: msgRateLimited})
	}

	onFrame := func(_ context.Context, frame emotion.Scores) error {
		if err := writeMessage(conn, streamMessage{Type: messageFrame, Scores: &frame}); err != nil {
			return err
		}
		h.metrics.Frame()
		return nil
	}

	scores, err := h.analysis.Analyze(ctx, bs.State, lyrics, onFrame)
	switch {
	case errors.Is(err, analysis.ErrEmptyInput):
		h.metrics.Analysis(metrics.OutcomeRejected)
		return writeMessage(conn, streamMessage{Type: messageError, Message: sentence(err)})
	case ctx.Err() != nil:
		h.metrics.Analysis(metrics.OutcomeCanceled)
		return ctx.Err()
	case err != nil:
		// A failed frame write already broke the socket.
		var closeErr *websocket.CloseError
		if errors.As(err, &closeErr) {
			h.metrics.Analysis(metrics.OutcomeCanceled)
			return err
		}
		h.metrics.Analysis(metrics.OutcomeError)
		h.logger.ErrorContext(ctx, "analyzing lyrics", "error", err)
		return writeMessage(conn, streamMessage{Type: messageError, Message: "The analysis failed, please try again."})
	}

	h.metrics.Analysis(metrics.OutcomeSuccess)

	top, _ := scores.Top()
	chart, err := h.templates.RenderPartialString("chart", chartFor(scores))
	if err != nil {
		h.logger.WarnContext(ctx, "rendering chart partial", "error", err)
	}
	return writeMessage(conn, streamMessage{
		Type:   messageResult,
		Scores: &scores,
		Top:    top,
		Card:   h.resultCard(ctx, scores),
		Chart:  chart,
	})
}

func writeMessage(conn *websocket.Conn, msg streamMessage) error {
	if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return conn.WriteJSON(msg)
}
