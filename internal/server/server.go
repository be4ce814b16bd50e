// Package server exposes the chat and health endpoints over HTTP.
package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// Answerer is the retrieval-answering dependency behind /api/chat.
type Answerer interface {
	Answer(ctx context.Context, query string) (string, error)
}

// ChatRequest is the /api/chat request body.
type ChatRequest struct {
	Query string `json:"query"`
}

// ChatResponse is the /api/chat response body.
type ChatResponse struct {
	Response string `json:"response"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// New builds the HTTP handler: POST /api/chat, GET /api/health and a root
// welcome payload, wrapped in CORS middleware for the given origins.
func New(svc Answerer, allowedOrigins []string, logger *slog.Logger) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/chat", chatHandler(svc, logger))
	mux.HandleFunc("GET /api/health", healthHandler)
	mux.HandleFunc("GET /{$}", rootHandler)

	return corsMiddleware(allowedOrigins, mux)
}

func chatHandler(svc Answerer, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ChatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
			return
		}
		if strings.TrimSpace(req.Query) == "" {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "query is required"})
			return
		}

		answer, err := svc.Answer(r.Context(), req.Query)
		if err != nil {
			// Internal detail stays in the log, not the response body.
			logger.Error("chat request failed", "error", err)
			writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "unable to answer right now"})
			return
		}

		writeJSON(w, http.StatusOK, ChatResponse{Response: answer})
	}
}

// healthHandler is a static liveness check; it deliberately touches no
// dependencies.
func healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":    "ok",
		"message":   "Backend is running fine",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func rootHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"message": "Welcome to the RAG Chatbot API!",
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

// corsMiddleware allows the configured origins. With no origins configured
// every origin is allowed, which suits local development.
func corsMiddleware(origins []string, next http.Handler) http.Handler {
	allowed := make(map[string]struct{}, len(origins))
	for _, o := range origins {
		allowed[o] = struct{}{}
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin != "" {
			if _, ok := allowed[origin]; ok || len(allowed) == 0 {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Set("Access-Control-Allow-Credentials", "true")
				w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
				w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			}
		}

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}
