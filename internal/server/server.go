// Package server exposes the HTTP command API: voice commands arrive as
// JSON or multipart uploads, dispatch results always come back as a JSON
// result body.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/voicebridge/voicebridge/internal/config"
	"github.com/voicebridge/voicebridge/internal/dispatch"
	"github.com/voicebridge/voicebridge/internal/schema"
	"github.com/voicebridge/voicebridge/internal/tools"
)

// CommandProcessor is what the server needs from the dispatch layer.
// Implemented by *dispatch.Dispatcher.
type CommandProcessor interface {
	Process(ctx context.Context, req dispatch.Request) schema.Result
}

// Server is the HTTP front door.
type Server struct {
	cfg        config.ServerConfig
	processor  CommandProcessor
	hub        *ProgressHub
	limiter    *rateLimiter
	uploadsDir string
	log        *slog.Logger
	httpSrv    *http.Server
}

// New builds a Server. uploadsDir receives audio payloads for the duration
// of a dispatch. logger may be nil.
func New(cfg config.ServerConfig, processor CommandProcessor, hub *ProgressHub, uploadsDir string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		cfg:        cfg,
		processor:  processor,
		hub:        hub,
		limiter:    newRateLimiter(cfg.RateLimitPerMinute, cfg.RateBurst),
		uploadsDir: uploadsDir,
		log:        logger,
	}
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/commands", s.handleCommand)
	mux.Handle("GET /ws/progress", s.hub)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
	s.httpSrv = &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("server: listening", "addr", addr)
		if err := s.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.httpSrv.Shutdown(shutdownCtx)
		return ctx.Err()
	}
}

// handleCommand accepts one voice command. The response is always a JSON
// result document; the status code signals transport-level problems only.
func (s *Server) handleCommand(w http.ResponseWriter, r *http.Request) {
	principal := strings.TrimSpace(r.Header.Get("X-Principal"))
	key := principal
	if key == "" {
		key = clientIP(r)
	}
	if !s.limiter.Allow(key) {
		writeResult(w, http.StatusTooManyRequests,
			schema.Failure(schema.ErrRateLimited, "Too many requests; slow down."))
		return
	}

	requestID := uuid.NewString()
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)

	prompt, audioPath, channel, chatID, err := s.readCommand(r)
	if err != nil {
		writeResult(w, http.StatusBadRequest,
			schema.Failure(schema.ErrConfiguration, err.Error()))
		return
	}
	if audioPath != "" {
		defer os.Remove(audioPath)
	}

	reqCtx := tools.RequestContext{tools.CtxRequestID: requestID}
	if principal != "" {
		reqCtx[tools.CtxPrincipal] = principal
	}
	if channel != "" {
		reqCtx[tools.CtxChannel] = channel
	}
	if chatID != "" {
		reqCtx[tools.CtxChatID] = chatID
	}

	s.log.Info("server: command received",
		"request_id", requestID, "principal", principal, "audio", audioPath != "")

	result := s.processor.Process(r.Context(), dispatch.Request{
		Prompt:    prompt,
		AudioPath: audioPath,
		Context:   reqCtx,
		OnProgress: func(line string) {
			s.hub.Publish(requestID, line)
		},
	})

	w.Header().Set("X-Request-Id", requestID)
	writeResult(w, http.StatusOK, result)
}

// readCommand extracts the prompt and optional audio payload from either a
// JSON body or a multipart form with an "audio" part.
func (s *Server) readCommand(r *http.Request) (prompt, audioPath, channel, chatID string, err error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))

	if strings.HasPrefix(mediaType, "multipart/") {
		if err := r.ParseMultipartForm(s.cfg.MaxUploadBytes); err != nil {
			return "", "", "", "", fmt.Errorf("parse upload: %v", err)
		}
		prompt = r.FormValue("prompt")
		channel = r.FormValue("channel")
		chatID = r.FormValue("chat_id")

		file, header, ferr := r.FormFile("audio")
		if ferr == http.ErrMissingFile {
			if prompt == "" {
				return "", "", "", "", fmt.Errorf("either a prompt or an audio part is required")
			}
			return prompt, "", channel, chatID, nil
		}
		if ferr != nil {
			return "", "", "", "", fmt.Errorf("read audio part: %v", ferr)
		}
		defer file.Close()

		if !s.audioTypeAllowed(header.Header.Get("Content-Type")) {
			return "", "", "", "", fmt.Errorf("audio type %q is not accepted", header.Header.Get("Content-Type"))
		}

		audioPath, err = s.saveUpload(file, header.Filename)
		if err != nil {
			return "", "", "", "", err
		}
		return prompt, audioPath, channel, chatID, nil
	}

	var body struct {
		Prompt  string `json:"prompt"`
		Channel string `json:"channel"`
		ChatID  string `json:"chatId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		return "", "", "", "", fmt.Errorf("parse request body: %v", err)
	}
	if strings.TrimSpace(body.Prompt) == "" {
		return "", "", "", "", fmt.Errorf("prompt must not be empty")
	}
	return body.Prompt, "", body.Channel, body.ChatID, nil
}

func (s *Server) audioTypeAllowed(contentType string) bool {
	mediaType, _, _ := mime.ParseMediaType(contentType)
	for _, allowed := range s.cfg.AllowedAudioTypes {
		if mediaType == allowed {
			return true
		}
	}
	return false
}

func (s *Server) saveUpload(file io.Reader, filename string) (string, error) {
	if err := os.MkdirAll(s.uploadsDir, 0o755); err != nil {
		return "", fmt.Errorf("create uploads dir: %v", err)
	}
	ext := filepath.Ext(filename)
	if ext == "" {
		ext = ".wav"
	}
	dest := filepath.Join(s.uploadsDir, uuid.NewString()[:8]+ext)

	out, err := os.OpenFile(dest, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return "", fmt.Errorf("store audio payload: %v", err)
	}
	defer out.Close()

	if _, err := io.Copy(out, file); err != nil {
		os.Remove(dest)
		return "", fmt.Errorf("store audio payload: %v", err)
	}
	return dest, nil
}

func writeResult(w http.ResponseWriter, status int, res schema.Result) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(res)
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
