package main

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	ai "github.com/good-jinu/finance-operating-automation-sub000"
	"github.com/good-jinu/finance-operating-automation-sub000/agents/assistant"
	"github.com/good-jinu/finance-operating-automation-sub000/mailbox"
)

// server exposes the app over HTTP.
type server struct {
	app *app
	// batchCtx outlives requests so a started batch keeps running.
	batchCtx context.Context
}

func newServer(a *app) *server {
	return &server{app: a, batchCtx: context.Background()}
}

func (s *server) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/agent/reply", s.handleReply)
	mux.HandleFunc("POST /api/chat", s.handleChat)
	mux.HandleFunc("POST /api/replies/generate", s.handleStartBatch)
	mux.HandleFunc("DELETE /api/replies/generate", s.handleStopBatch)
	mux.HandleFunc("GET /api/replies/status", s.handleBatchStatus)
	mux.HandleFunc("GET /api/mails/{id}/replies", s.handleListReplies)
	mux.Handle("GET /metrics", s.app.metrics.Handler())
	mux.HandleFunc("GET /health", healthHandler)
	if dir := s.app.cfg.Agent.AttachmentsDir; dir != "" {
		mux.Handle("GET /attachments/", http.StripPrefix("/attachments/", http.FileServer(http.Dir(dir))))
	}
	return corsMiddleware(mux)
}

type replyRequest struct {
	Subject   string   `json:"subject"`
	Body      string   `json:"body"`
	Sender    string   `json:"sender"`
	Filepaths []string `json:"filepaths"`
}

// handleReply drafts a reply for one inbound message. Agent failures still
// answer 200 with the apology artifact.
func (s *server) handleReply(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	var req replyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	inbound := mailbox.ComposeInbound(req.Subject, req.Body, req.Sender)
	if inbound == "" {
		writeError(w, http.StatusBadRequest, "subject or body is required")
		return
	}
	if len(req.Filepaths) > 0 && s.app.cfg.Agent.DocumentsRoot == "" {
		writeError(w, http.StatusBadRequest, "filepaths require a configured documents root")
		return
	}

	reply := s.app.router.Reply(r.Context(), inbound, req.Filepaths...)
	s.log(r).Info("reply drafted", "duration", time.Since(start), "attachments", len(reply.Attachments))
	writeJSON(w, http.StatusOK, reply)
}

type chatRequest struct {
	SessionID string `json:"session_id"`
	Message   string `json:"message"`
}

func (s *server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	answer, err := s.app.assistant.Chat(r.Context(), req.SessionID, req.Message)
	if errors.Is(err, assistant.ErrEmptyMessage) {
		writeError(w, http.StatusBadRequest, "message is required")
		return
	}
	if err != nil {
		s.log(r).Error("chat failed", "session", req.SessionID, "error", err)
		if ai.CategoryOf(err) == ai.ErrorTransient {
			if wait := ai.RetryAfterOf(err); wait > 0 {
				w.Header().Set("Retry-After", strconv.Itoa(int(wait.Round(time.Second)/time.Second)))
			}
			writeError(w, http.StatusServiceUnavailable, "model provider is busy, try again later")
			return
		}
		writeError(w, http.StatusBadGateway, "chat failed")
		return
	}
	writeJSON(w, http.StatusOK, answer)
}

func (s *server) handleStartBatch(w http.ResponseWriter, r *http.Request) {
	if err := s.app.batch.Start(s.batchCtx); err != nil {
		if errors.Is(err, mailbox.ErrBatchRunning) {
			writeError(w, http.StatusConflict, "reply generation is already running")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.log(r).Info("batch started")
	writeJSON(w, http.StatusAccepted, s.app.batch.Progress())
}

func (s *server) handleStopBatch(w http.ResponseWriter, r *http.Request) {
	s.app.batch.Stop()
	writeJSON(w, http.StatusOK, s.app.batch.Progress())
}

func (s *server) handleBatchStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.app.batch.Progress())
}

func (s *server) handleListReplies(w http.ResponseWriter, r *http.Request) {
	replies, err := s.app.store.ListReplies(r.Context(), r.PathValue("id"))
	if err != nil {
		s.log(r).Error("list replies failed", "error", err)
		writeError(w, http.StatusInternalServerError, "list replies failed")
		return
	}
	if replies == nil {
		replies = []mailbox.ReplyMail{}
	}
	writeJSON(w, http.StatusOK, replies)
}

func (s *server) log(r *http.Request) *slog.Logger {
	return s.app.logger.With("method", r.Method, "path", r.URL.Path)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// corsMiddleware adds CORS headers for browser-based clients.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// healthHandler returns a simple health check response.
func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}
