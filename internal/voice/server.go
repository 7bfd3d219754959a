// Package voice is the JARVIS voice front-end: speech-to-text, a proxy to
// the brain service and text-to-speech.
package voice

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/flynn-ai/jarvis/internal/errors"
	"github.com/flynn-ai/jarvis/pkg/protocol"
)

const maxUploadBytes = 25 << 20

// Config configures the voice service. Speech may be nil, in which case
// transcription and synthesis answer 503.
type Config struct {
	Speech Speech
	Brain  *BrainClient
	Host   string
	Port   int
	Logger zerolog.Logger
}

// Server is the voice HTTP service.
type Server struct {
	speech     Speech
	brain      *BrainClient
	mux        *http.ServeMux
	httpServer *http.Server
	log        zerolog.Logger
}

// New creates the voice service.
func New(cfg *Config) *Server {
	s := &Server{
		speech: cfg.Speech,
		brain:  cfg.Brain,
		mux:    http.NewServeMux(),
		log:    cfg.Logger.With().Str("component", "voice").Logger(),
	}
	if s.brain == nil {
		s.brain = NewBrainClient("http://localhost:8055", 0)
	}

	s.mux.HandleFunc("/health", s.healthHandler)
	s.mux.HandleFunc("/api/transcribe", s.transcribeHandler)
	s.mux.HandleFunc("/api/process", s.processHandler)
	s.mux.HandleFunc("/api/synthesize", s.synthesizeHandler)

	s.httpServer = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, Accept")
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	s.mux.ServeHTTP(w, r)
}

// Start serves until Shutdown is called.
func (s *Server) Start() error {
	s.log.Info().Str("addr", s.httpServer.Addr).Str("brain", s.brain.URL()).Bool("speech", s.speech != nil).Msg("voice service starting")
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	available := s.speech != nil
	writeJSON(w, http.StatusOK, protocol.Health{
		Status:          "healthy",
		Service:         "jarvis-voice",
		OpenAIAvailable: &available,
		BrainURL:        s.brain.URL(),
		Timestamp:       time.Now(),
	})
}

func (s *Server) transcribeHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	if s.speech == nil {
		writeError(w, http.StatusServiceUnavailable, "OpenAI client not initialized")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	file, header, err := r.FormFile("audio")
	if err != nil {
		writeError(w, http.StatusBadRequest, "audio file is required")
		return
	}
	defer file.Close()

	text, err := s.speech.Transcribe(r.Context(), file, header.Filename)
	if err != nil {
		s.log.Error().Err(err).Msg("transcription error")
		writeError(w, http.StatusInternalServerError, errors.FormatUserMessage(err))
		return
	}

	s.log.Info().Str("text", text).Msg("transcribed")
	writeJSON(w, http.StatusOK, protocol.TranscriptionResponse{Success: true, Text: text})
}

func (s *Server) processHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var req protocol.CommandRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		writeError(w, http.StatusBadRequest, "No text provided")
		return
	}

	data, err := s.brain.Process(r.Context(), req.Text)
	if err != nil {
		var brainErr *BrainError
		switch {
		case errors.As(err, &brainErr):
			writeError(w, brainErr.StatusCode, brainErr.Error())
		case errors.GetCode(err) == errors.CodeBrainUnreachable:
			s.log.Warn().Err(err).Msg("brain unreachable")
			writeError(w, http.StatusServiceUnavailable, errors.FormatUserMessage(err))
		default:
			s.log.Error().Err(err).Msg("processing error")
			writeError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (s *Server) synthesizeHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	if s.speech == nil {
		writeError(w, http.StatusServiceUnavailable, "OpenAI client not initialized")
		return
	}

	var req protocol.SynthesizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		writeError(w, http.StatusBadRequest, "No text provided")
		return
	}

	audio, err := s.speech.Synthesize(r.Context(), req.Text, req.Voice)
	if err != nil {
		s.log.Error().Err(err).Msg("synthesis error")
		writeError(w, http.StatusInternalServerError, errors.FormatUserMessage(err))
		return
	}
	defer audio.Close()

	w.Header().Set("Content-Type", "audio/mpeg")
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, audio); err != nil {
		s.log.Warn().Err(err).Msg("audio stream interrupted")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, protocol.ErrorResponse{Success: false, Error: msg})
}
