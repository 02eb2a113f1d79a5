// Package web serves the JSON API plus the WebSocket and SSE streams.
package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/keepgoing-228/tennis-scorekeeper/internal/app"
	"github.com/keepgoing-228/tennis-scorekeeper/internal/broadcast"
	"github.com/keepgoing-228/tennis-scorekeeper/internal/match/domain"
	"github.com/keepgoing-228/tennis-scorekeeper/internal/match/event"
	"github.com/keepgoing-228/tennis-scorekeeper/internal/storage"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Handler routes match API requests to the application service.
type Handler struct {
	service *app.Service
	hub     *broadcast.Hub
}

// NewHandler creates a handler over the given service and hub.
func NewHandler(service *app.Service, hub *broadcast.Hub) *Handler {
	return &Handler{service: service, hub: hub}
}

// RegisterRoutes sets up the routes.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/matches", h.createMatch)
	mux.HandleFunc("GET /api/matches", h.listMatches)
	mux.HandleFunc("GET /api/matches/{matchID}", h.getMatch)
	mux.HandleFunc("POST /api/matches/{matchID}/points", h.recordPoint)
	mux.HandleFunc("POST /api/matches/{matchID}/undo", h.undoPoint)
	mux.HandleFunc("POST /api/matches/{matchID}/annotations", h.annotatePoint)
	mux.HandleFunc("GET /api/matches/{matchID}/stats", h.getStats)
	mux.HandleFunc("GET /api/matches/{matchID}/events", h.listEvents)
	mux.HandleFunc("GET /api/matches/{matchID}/stream", h.streamSSE)
	mux.HandleFunc("GET /ws/{matchID}", h.handleWebSocket)
	mux.HandleFunc("GET /healthz", h.healthz)
	mux.Handle("GET /metrics", promhttp.Handler())
}

type createMatchRequest struct {
	BestOf         string   `json:"best_of"`
	TiebreakPolicy string   `json:"tiebreak_policy"`
	MatchType      string   `json:"match_type"`
	PlayersA       []string `json:"players_a"`
	PlayersB       []string `json:"players_b"`
	Server         string   `json:"server"`
}

func (h *Handler) createMatch(w http.ResponseWriter, r *http.Request) {
	var req createMatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	detail, err := h.service.CreateMatch(r.Context(), app.CreateMatchInput{
		BestOf:         req.BestOf,
		TiebreakPolicy: req.TiebreakPolicy,
		MatchType:      req.MatchType,
		PlayersA:       req.PlayersA,
		PlayersB:       req.PlayersB,
		Server:         req.Server,
	})
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	h.respondJSON(w, http.StatusCreated, newMatchView(detail))
}

func (h *Handler) listMatches(w http.ResponseWriter, r *http.Request) {
	summaries, err := h.service.ListMatches(r.Context())
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	views := make([]MatchSummaryView, 0, len(summaries))
	for _, summary := range summaries {
		views = append(views, MatchSummaryView{
			ID:     summary.ID,
			Status: string(summary.Status),
			Winner: string(summary.Winner),
		})
	}
	h.respondJSON(w, http.StatusOK, views)
}

func (h *Handler) getMatch(w http.ResponseWriter, r *http.Request) {
	detail, err := h.service.GetMatch(r.Context(), r.PathValue("matchID"))
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, newMatchView(detail))
}

type recordPointRequest struct {
	Side string `json:"side"`
}

func (h *Handler) recordPoint(w http.ResponseWriter, r *http.Request) {
	var req recordPointRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	detail, err := h.service.RecordPoint(r.Context(), r.PathValue("matchID"), req.Side)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, newMatchView(detail))
}

func (h *Handler) undoPoint(w http.ResponseWriter, r *http.Request) {
	detail, err := h.service.UndoLastPoint(r.Context(), r.PathValue("matchID"))
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, newMatchView(detail))
}

type annotatePointRequest struct {
	Reason string `json:"reason"`
}

func (h *Handler) annotatePoint(w http.ResponseWriter, r *http.Request) {
	var req annotatePointRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	detail, err := h.service.AnnotateLastPoint(r.Context(), r.PathValue("matchID"), req.Reason)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, newMatchView(detail))
}

func (h *Handler) getStats(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.GetStats(r.Context(), r.PathValue("matchID"))
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, newStatsView(result))
}

func (h *Handler) listEvents(w http.ResponseWriter, r *http.Request) {
	afterSeq, err := parseUintParam(r, "after_seq")
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "after_seq must be a non-negative integer")
		return
	}
	limit, err := parseUintParam(r, "limit")
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "limit must be a non-negative integer")
		return
	}

	events, err := h.service.ListEvents(r.Context(), r.PathValue("matchID"), afterSeq, int(limit))
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	views := make([]EventView, 0, len(events))
	for _, evt := range events {
		views = append(views, newEventView(evt))
	}
	h.respondJSON(w, http.StatusOK, views)
}

// streamSSE pushes match updates as server-sent events until the client
// disconnects.
func (h *Handler) streamSSE(w http.ResponseWriter, r *http.Request) {
	matchID := r.PathValue("matchID")

	flusher, ok := w.(http.Flusher)
	if !ok {
		h.respondError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch := make(chan []byte, 10)
	h.hub.RegisterSSE(matchID, ch)
	defer h.hub.UnregisterSSE(matchID, ch)

	// Send current state first so late subscribers do not start blank.
	if detail, err := h.service.GetMatch(r.Context(), matchID); err == nil {
		if payload, err := json.Marshal(app.NewUpdate(detail)); err == nil {
			fmt.Fprintf(w, "event: match-update\ndata: %s\n\n", payload)
			flusher.Flush()
		}
	}

	for {
		select {
		case payload, open := <-ch:
			if !open {
				return
			}
			fmt.Fprintf(w, "event: match-update\ndata: %s\n\n", payload)
			flusher.Flush()
		case <-r.Context().Done():
			return
		}
	}
}

func (h *Handler) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	matchID := r.PathValue("matchID")

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	h.hub.RegisterWS(matchID, conn)
	defer h.hub.UnregisterWS(matchID, conn)

	if detail, err := h.service.GetMatch(r.Context(), matchID); err == nil {
		conn.WriteJSON(app.NewUpdate(detail))
	}

	// Accept point commands over the socket; anything unreadable ends
	// the connection.
	for {
		var req recordPointRequest
		if err := conn.ReadJSON(&req); err != nil {
			break
		}
		if _, err := h.service.RecordPoint(r.Context(), matchID, req.Side); err != nil {
			conn.WriteJSON(map[string]string{"error": err.Error()})
		}
	}
}

func (h *Handler) healthz(w http.ResponseWriter, _ *http.Request) {
	h.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func parseUintParam(r *http.Request, name string) (uint64, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	return strconv.ParseUint(raw, 10, 64)
}

func (h *Handler) respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func (h *Handler) respondError(w http.ResponseWriter, status int, message string) {
	h.respondJSON(w, status, map[string]string{"error": message})
}

// respondServiceError maps service errors onto HTTP statuses: missing
// records are 404, append conflicts are 409, validation failures are
// 400, and anything else is 500.
func (h *Handler) respondServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		h.respondError(w, http.StatusNotFound, "match not found")
	case errors.Is(err, storage.ErrSeqConflict):
		h.respondError(w, http.StatusConflict, err.Error())
	case isValidationError(err):
		h.respondError(w, http.StatusBadRequest, err.Error())
	default:
		h.respondError(w, http.StatusInternalServerError, "internal error")
	}
}

func isValidationError(err error) bool {
	for _, target := range []error{
		domain.ErrInvalidBestOf,
		domain.ErrInvalidTiebreakPolicy,
		domain.ErrInvalidMatchType,
		domain.ErrEmptyPlayerName,
		domain.ErrTeamSize,
		domain.ErrInvalidServer,
		domain.ErrMatchIDRequired,
		app.ErrInvalidReason,
		event.ErrEventIDRequired,
		event.ErrMatchIDRequired,
		event.ErrSeqRequired,
		event.ErrUnknownType,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
