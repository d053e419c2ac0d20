package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/justestif/emolyrics/internal/analysis"
	"github.com/justestif/emolyrics/internal/blocks"
	"github.com/justestif/emolyrics/internal/compare"
	"github.com/justestif/emolyrics/internal/emotion"
	"github.com/justestif/emolyrics/internal/metrics"
	"github.com/justestif/emolyrics/internal/session"
)

const (
	appTitle = "EmoLyrics"

	// maxUploadBytes caps uploaded lyric files.
	maxUploadBytes = 1 << 20

	msgRateLimited = "Too many analyses in a short time, please wait a moment and try again."
	msgNotText     = "Only .txt lyric files can be uploaded."
	msgNoVersions  = "No saved versions yet. Analyze some lyrics and save the results as versions first."
)

// errNotText is returned for uploads without a .txt extension.
var errNotText = errors.New("upload is not a .txt file")

// Handlers contains HTTP handlers for the web application.
type Handlers struct {
	sessions      *SessionStore
	templates     *Templates
	blocks        *blocks.Store
	analysis      *analysis.Service
	metrics       *metrics.Manager
	logger        *slog.Logger
	compareGroups int
	upgrader      websocket.Upgrader
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(
	sessions *SessionStore,
	templates *Templates,
	store *blocks.Store,
	svc *analysis.Service,
	m *metrics.Manager,
	logger *slog.Logger,
	compareGroups int,
) *Handlers {
	return &Handlers{
		sessions:      sessions,
		templates:     templates,
		blocks:        store,
		analysis:      svc,
		metrics:       m,
		logger:        logger,
		compareGroups: compareGroups,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
		},
	}
}

// Home handles the analyze page (GET /).
func (h *Handlers) Home(w http.ResponseWriter, r *http.Request) {
	bs, ok := h.session(w, r)
	if !ok {
		return
	}
	h.renderHome(w, r, bs, bs.State.CurrentLyrics(), nil, http.StatusOK)
}

// Analyze scores submitted lyrics without animation (POST /analyze).
// Lyrics come from the text field, or from an uploaded .txt file when the
// field is blank.
func (h *Handlers) Analyze(w http.ResponseWriter, r *http.Request) {
	bs, ok := h.session(w, r)
	if !ok {
		return
	}

	lyrics, err := lyricsFromRequest(r)
	if errors.Is(err, errNotText) {
		h.renderHome(w, r, bs, "", flash("warning", msgNotText), http.StatusBadRequest)
		return
	}
	if err != nil {
		h.logger.WarnContext(r.Context(), "reading submitted lyrics", "error", err)
		h.renderHome(w, r, bs, "", flash("error", "Could not read the uploaded file."), http.StatusBadRequest)
		return
	}

	// Blank input is rejected before it can spend a rate limit token.
	if err := analysis.CheckInput(lyrics); err != nil {
		h.metrics.Analysis(metrics.OutcomeRejected)
		h.renderHome(w, r, bs, lyrics, flash("warning", sentence(err)), http.StatusOK)
		return
	}

	if !h.sessions.Allow(bs) {
		h.metrics.Analysis(metrics.OutcomeRateLimited)
		h.renderHome(w, r, bs, lyrics, flash("warning", msgRateLimited), http.StatusTooManyRequests)
		return
	}

	_, err = h.analysis.Analyze(r.Context(), bs.State, lyrics, nil)
	switch {
	case errors.Is(err, analysis.ErrEmptyInput):
		h.metrics.Analysis(metrics.OutcomeRejected)
		h.renderHome(w, r, bs, lyrics, flash("warning", sentence(err)), http.StatusOK)
		return
	case err != nil:
		h.metrics.Analysis(metrics.OutcomeError)
		h.logger.ErrorContext(r.Context(), "analyzing lyrics", "error", err)
		h.renderHome(w, r, bs, lyrics, flash("error", "The analysis failed, please try again."), http.StatusInternalServerError)
		return
	}

	h.metrics.Analysis(metrics.OutcomeSuccess)
	h.renderHome(w, r, bs, lyrics, nil, http.StatusOK)
}

// SaveVersion stores the current analysis under the submitted title (POST /versions).
func (h *Handlers) SaveVersion(w http.ResponseWriter, r *http.Request) {
	bs, ok := h.session(w, r)
	if !ok {
		return
	}

	v, err := bs.State.SaveVersion(r.FormValue("title"))
	if err != nil {
		if errors.Is(err, session.ErrNothingToSave) {
			h.metrics.SaveRejected()
			h.renderHome(w, r, bs, bs.State.CurrentLyrics(), flash("warning", sentence(err)), http.StatusOK)
			return
		}
		h.logger.ErrorContext(r.Context(), "saving version", "error", err)
		h.renderHome(w, r, bs, bs.State.CurrentLyrics(), flash("error", "Could not save the version."), http.StatusInternalServerError)
		return
	}

	h.metrics.VersionSaved()
	h.logger.InfoContext(r.Context(), "version saved", "version_id", v.ID.String(), "versions", bs.State.Len())
	h.renderHome(w, r, bs, bs.State.CurrentLyrics(), flash("success", "Saved version: "+v.Title), http.StatusOK)
}

// Compare shows the selected versions side by side (GET /compare?id=...).
func (h *Handlers) Compare(w http.ResponseWriter, r *http.Request) {
	bs, ok := h.session(w, r)
	if !ok {
		return
	}

	ids := parseIDs(r.URL.Query()["id"])
	selected := make(map[uuid.UUID]bool, len(ids))
	for _, id := range ids {
		selected[id] = true
	}

	data := ComparePageData{
		PageData: h.pageData(r, "Compare versions"),
		Versions: versionsFor(bs.State.Versions(), selected),
	}

	if bs.State.Len() == 0 {
		data.Flash = flash("info", msgNoVersions)
		h.render(w, r, "compare", data, http.StatusOK)
		return
	}

	c, err := compare.Build(bs.State.Select(ids), compare.WithGroups(h.compareGroups))
	if err != nil {
		h.metrics.Comparison(metrics.OutcomeRejected)
		data.Flash = flash("warning", sentence(err))
		h.render(w, r, "compare", data, http.StatusOK)
		return
	}

	h.metrics.Comparison(metrics.OutcomeSuccess)
	data.Table = tableFor(c.Table)
	data.Scatter = scatterFor(c)
	data.Distances = distancesFor(c)
	data.Groups = groupsFor(c)
	h.render(w, r, "compare", data, http.StatusOK)
}

// APIVersions lists the session's saved versions (GET /api/versions).
func (h *Handlers) APIVersions(w http.ResponseWriter, r *http.Request) {
	bs, ok := h.session(w, r)
	if !ok {
		return
	}
	h.writeJSON(w, r, http.StatusOK, map[string]any{"versions": bs.State.Versions()})
}

// APICompare returns the comparison aggregate as JSON (GET /api/compare?id=...).
func (h *Handlers) APICompare(w http.ResponseWriter, r *http.Request) {
	bs, ok := h.session(w, r)
	if !ok {
		return
	}

	raw := r.URL.Query()["id"]
	ids := parseIDs(raw)
	if len(ids) != len(raw) {
		h.writeError(w, r, http.StatusBadRequest, "invalid_id", "every id must be a UUID")
		return
	}

	c, err := compare.Build(bs.State.Select(ids), compare.WithGroups(h.compareGroups))
	if err != nil {
		h.metrics.Comparison(metrics.OutcomeRejected)
		h.writeError(w, r, http.StatusUnprocessableEntity, "insufficient_selection", err.Error())
		return
	}

	h.metrics.Comparison(metrics.OutcomeSuccess)
	h.writeJSON(w, r, http.StatusOK, c)
}

// Healthz reports liveness (GET /healthz).
func (h *Handlers) Healthz(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, "ok\n")
}

// session resolves the browser session, replying 500 on failure.
func (h *Handlers) session(w http.ResponseWriter, r *http.Request) (*BrowserSession, bool) {
	bs, err := h.sessions.GetOrCreate(w, r)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "creating session", "error", err)
		http.Error(w, "Failed to create session", http.StatusInternalServerError)
		return nil, false
	}
	return bs, true
}

func (h *Handlers) pageData(r *http.Request, title string) PageData {
	return PageData{
		Title:       title,
		Header:      h.block(r.Context(), blocks.HeaderBlock),
		CurrentPath: r.URL.Path,
	}
}

func (h *Handlers) renderHome(w http.ResponseWriter, r *http.Request, bs *BrowserSession, lyrics string, msg *FlashMessage, status int) {
	scores := bs.State.CurrentScores()

	data := HomePageData{
		PageData:     h.pageData(r, appTitle),
		Lyrics:       lyrics,
		Chart:        chartFor(scores),
		DefaultTitle: bs.State.DefaultTitle(),
		Versions:     versionsFor(bs.State.Versions(), nil),
	}
	data.Flash = msg
	if !scores.IsZero() {
		data.ResultCard = h.resultCard(r.Context(), scores)
	}

	h.render(w, r, "home", data, status)
}

func (h *Handlers) render(w http.ResponseWriter, r *http.Request, page string, data any, status int) {
	var sb strings.Builder
	if err := h.templates.Render(&sb, page, data); err != nil {
		h.logger.ErrorContext(r.Context(), "rendering template", "page", page, "error", err)
		http.Error(w, "Failed to render template", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, sb.String())
}

// block returns a named markup block, or "" when it is missing.
func (h *Handlers) block(ctx context.Context, name string) string {
	markup, err := h.blocks.Block(name)
	if err != nil {
		h.blockMissing(ctx, name, err)
		return ""
	}
	return markup
}

// resultCard fills the result card for the top emotion.
func (h *Handlers) resultCard(ctx context.Context, scores emotion.Scores) string {
	top, score := scores.Top()
	card, err := h.blocks.ResultCard(top, score)
	if err != nil {
		h.blockMissing(ctx, blocks.ResultCardBlock, err)
		return ""
	}
	return card
}

func (h *Handlers) blockMissing(ctx context.Context, name string, err error) {
	h.metrics.BlockMiss(name)
	h.logger.WarnContext(ctx, "template block unavailable", "block", name, "error", err)
}

func (h *Handlers) writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.WarnContext(r.Context(), "encoding response", "error", err)
	}
}

func (h *Handlers) writeError(w http.ResponseWriter, r *http.Request, status int, code, msg string) {
	h.writeJSON(w, r, status, map[string]string{"code": code, "error": msg})
}

// lyricsFromRequest reads the lyrics field, falling back to the
// lyrics_file upload when the field is blank. Only .txt uploads are read.
func lyricsFromRequest(r *http.Request) (string, error) {
	lyrics := r.FormValue("lyrics")
	if strings.TrimSpace(lyrics) != "" {
		return lyrics, nil
	}

	f, header, err := r.FormFile("lyrics_file")
	if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
		return lyrics, nil
	}
	if err != nil {
		return "", fmt.Errorf("opening upload: %w", err)
	}
	defer f.Close()

	if !strings.EqualFold(filepath.Ext(header.Filename), ".txt") {
		return "", fmt.Errorf("%w: %q", errNotText, header.Filename)
	}

	data, err := io.ReadAll(io.LimitReader(f, maxUploadBytes))
	if err != nil {
		return "", fmt.Errorf("reading upload: %w", err)
	}
	return strings.ToValidUTF8(string(data), ""), nil
}

// sentence capitalizes an error message for display.
func sentence(err error) string {
	msg := err.Error()
	if msg == "" {
		return msg
	}
	return strings.ToUpper(msg[:1]) + msg[1:] + "."
}
