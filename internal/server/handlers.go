package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"

	"guesswhat/internal/broadcast"
	"guesswhat/internal/db"
	"guesswhat/internal/game"
	"guesswhat/internal/store"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
)

type Server struct {
	Engine   *game.Engine
	Gateway  *broadcast.Gateway
	DB       *db.DB               // nil when running on the in-memory store
	Registry *prometheus.Registry // nil disables /metrics
	Origins  []string
}

func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	fmt.Fprint(w, "Guessing Game Backend is running!")
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
		return
	}

	created, err := s.Engine.CreateSession(r.Context(), req.Username)
	if errors.Is(err, game.ErrValidation) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Username required"})
		return
	}
	if err != nil {
		log.Printf("[Handle:CreateSession] %v\n", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Server error, please try again"})
		return
	}

	log.Printf("[Handle:CreateSession] Created session %s\n", created.SessionCode)
	writeJSON(w, http.StatusOK, created)
}

// handleEvents streams a session's channel as server-sent events. Spectators
// only listen; they are never bound to a player.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	code := game.NormalizeCode(r.PathValue("code"))
	if _, err := s.Engine.Store.FindSessionByCode(r.Context(), code); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			http.Error(w, "Session not found", http.StatusNotFound)
			return
		}
		log.Printf("[Handle:Events] %v\n", err)
		http.Error(w, "Server error", http.StatusInternalServerError)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	subID := "sse-" + uuid.New().String()
	msgs := s.Gateway.Register(subID)
	defer s.Gateway.Unregister(subID)
	s.Gateway.JoinChannel(subID, code)

	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case msg, ok := <-msgs:
			if !ok {
				return
			}
			data, err := json.Marshal(msg)
			if err != nil {
				log.Printf("[Handle:Events] Marshal error: %v\n", err)
				continue
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", msg.Event, data)
			flusher.Flush()
		}
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	status := "ok"
	if s.DB != nil {
		if err := s.DB.Ping(); err != nil {
			status = "db_error"
			w.WriteHeader(http.StatusServiceUnavailable)
			json.NewEncoder(w).Encode(map[string]string{"status": status, "error": err.Error()})
			return
		}
	}
	fmt.Fprintf(w, `{"status":"%s"}`, status)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("[Server] Encode response: %v\n", err)
	}
}
