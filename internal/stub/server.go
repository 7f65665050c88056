package stub

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

const maxUploadBytes = 50 << 20

// Request records a call the stub received.
type Request struct {
	Path     string
	Question string
	Contents []string
	Filename string
}

// Server is the stub backend.
type Server struct {
	router  chi.Router
	fixture Fixture
	log     *slog.Logger

	mu       sync.Mutex
	uploads  map[string][]byte
	requests []Request
}

// NewServer builds the router for fix.
func NewServer(fix Fixture, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	s := &Server{
		fixture: fix,
		log:     log,
		uploads: map[string][]byte{},
	}
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(s.log))
	r.Use(s.injectFailures)

	r.Get("/health", s.handleHealth)
	r.Post("/ocr", s.handleOCR)
	r.Post("/qna", s.handleQnA)
	r.Post("/upload", s.handleUpload)
	r.Post("/download", s.handleDownload)
	r.Post("/runs", s.handleRuns)
	r.Get("/files/{name}", s.handleFile)

	s.router = r
}

// Requests returns the calls received so far.
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Request(nil), s.requests...)
}

func (s *Server) record(req Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = append(s.requests, req)
}

func (s *Server) injectFailures(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if code, ok := s.fixture.Failures[r.URL.Path]; ok && code != 0 {
			s.record(Request{Path: r.URL.Path})
			writeError(w, code, "injected failure")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleOCR(w http.ResponseWriter, r *http.Request) {
	req := Request{Path: r.URL.Path}
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/") {
		name, _, err := readUpload(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		req.Filename = name
	}
	s.record(req)
	pages := s.fixture.Pages
	if pages == nil {
		pages = map[string]string{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"pages": pages})
}

func (s *Server) handleQnA(w http.ResponseWriter, r *http.Request) {
	question := r.URL.Query().Get("question")
	if strings.TrimSpace(question) == "" {
		writeError(w, http.StatusBadRequest, "question is required")
		return
	}
	var contents []string
	if err := json.NewDecoder(io.LimitReader(r.Body, maxUploadBytes)).Decode(&contents); err != nil {
		writeError(w, http.StatusBadRequest, "body must be a JSON array of page texts")
		return
	}
	s.record(Request{Path: r.URL.Path, Question: question, Contents: contents})
	writeJSON(w, http.StatusOK, s.fixture.answersFor(question))
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	name, data, err := readUpload(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.mu.Lock()
	s.uploads[name] = data
	s.mu.Unlock()
	s.record(Request{Path: r.URL.Path, Filename: name})
	writeJSON(w, http.StatusOK, map[string]string{"download_url": "/files/" + name})
}

func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	s.record(Request{Path: r.URL.Path})
	if s.fixture.PDFPath == "" {
		writeError(w, http.StatusNotFound, "no current document")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"download_url": "/files/" + filepath.Base(s.fixture.PDFPath)})
}

func (s *Server) handleRuns(w http.ResponseWriter, r *http.Request) {
	s.record(Request{Path: r.URL.Path})
	runs := s.fixture.Runs
	if runs == nil {
		runs = map[string]string{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"runs": runs})
}

func (s *Server) handleFile(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	s.mu.Lock()
	data, ok := s.uploads[name]
	s.mu.Unlock()
	if ok {
		w.Header().Set("Content-Type", "application/pdf")
		_, _ = w.Write(data)
		return
	}
	if s.fixture.PDFPath != "" && name == filepath.Base(s.fixture.PDFPath) {
		http.ServeFile(w, r, s.fixture.PDFPath)
		return
	}
	writeError(w, http.StatusNotFound, "file not found")
}

func readUpload(r *http.Request) (string, []byte, error) {
	r.Body = http.MaxBytesReader(nil, r.Body, maxUploadBytes)
	file, header, err := r.FormFile("file")
	if err != nil {
		return "", nil, fmt.Errorf("missing file field: %w", err)
	}
	defer file.Close()
	data, err := io.ReadAll(file)
	if err != nil {
		return "", nil, err
	}
	return filepath.Base(header.Filename), data, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// RequestLogger logs each request with its status and latency.
func RequestLogger(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(sw, r)
			log.Info("request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", sw.status,
				"request_id", middleware.GetReqID(r.Context()),
				"duration_ms", time.Since(start).Milliseconds(),
			)
		})
	}
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}
