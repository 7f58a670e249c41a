package api

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/banshee-data/motion.report/internal/commands"
	"github.com/banshee-data/motion.report/internal/db"
	"github.com/banshee-data/motion.report/internal/httputil"
	"github.com/banshee-data/motion.report/internal/network"
	"github.com/banshee-data/motion.report/internal/pipeline"
	"github.com/banshee-data/motion.report/internal/timeutil"
	"github.com/banshee-data/motion.report/internal/report"
	"github.com/banshee-data/motion.report/internal/version"
)

// ANSI escape codes for request logging
const colorCyan = "\033[36m"
const colorReset = "\033[0m"
const colorYellow = "\033[33m"
const colorBoldGreen = "\033[1;32m"
const colorBoldRed = "\033[1;31m"

// DefaultCommandTimeout bounds how long a POST waits for the frame loop to
// accept a command.
const DefaultCommandTimeout = 2 * time.Second

// StatusSource reports the live pipeline status.
type StatusSource interface {
	Status() pipeline.Status
}

// StatsSource reports skeleton forwarder counters.
type StatsSource interface {
	Stats() network.ForwarderStats
}

// SessionStore is the read side of the session database.
type SessionStore interface {
	ListSessions() ([]db.Session, error)
	GetSession(id string) (*db.Session, error)
	SessionSamples(id string) ([]db.AngleSample, error)
	SetSessionNotes(id, notes string) error
	DeleteSession(id string) error
}

type Server struct {
	status    StatusSource
	forwarder StatsSource
	store     SessionStore
	cmds      chan<- commands.Command

	// CommandTimeout overrides DefaultCommandTimeout when positive.
	CommandTimeout time.Duration
	// Clock times out queued commands.
	Clock timeutil.Clock
}

// NewServer builds the HTTP API. forwarder and store may be nil; the
// endpoints that need them then answer 503.
func NewServer(status StatusSource, forwarder StatsSource, store SessionStore, cmds chan<- commands.Command) *Server {
	return &Server{
		status:    status,
		forwarder: forwarder,
		store:     store,
		cmds:      cmds,
		Clock:     timeutil.RealClock{},
	}
}

// StatusResponse is the body of GET /api/status.
type StatusResponse struct {
	pipeline.Status
	Forwarder *network.ForwarderStats `json:"forwarder,omitempty"`
	Version   version.Info            `json:"version"`
}

// CommandResponse is the body of an accepted command POST.
type CommandResponse struct {
	Command string `json:"command"`
}

// NotesRequest is the body of PUT /api/sessions/{id}/notes.
type NotesRequest struct {
	Notes string `json:"notes"`
}

type loggingResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (lrw *loggingResponseWriter) WriteHeader(code int) {
	lrw.statusCode = code
	lrw.ResponseWriter.WriteHeader(code)
}

func (lrw *loggingResponseWriter) Flush() {
	if flusher, ok := lrw.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}

func statusCodeColor(statusCode int) string {
	switch {
	case statusCode >= 200 && statusCode < 300:
		return colorBoldGreen + strconv.Itoa(statusCode) + colorReset
	case statusCode >= 300 && statusCode < 400:
		return colorYellow + strconv.Itoa(statusCode) + colorReset
	case statusCode >= 400:
		return colorBoldRed + strconv.Itoa(statusCode) + colorReset
	default:
		return strconv.Itoa(statusCode)
	}
}

// LoggingMiddleware logs method, path, status, and duration
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		lrw := &loggingResponseWriter{w, http.StatusOK}
		next.ServeHTTP(lrw, r)
		log.Printf(
			"[%s] %s %s%s%s %vms",
			statusCodeColor(lrw.statusCode), r.Method,
			colorCyan, r.RequestURI, colorReset,
			float64(time.Since(start).Nanoseconds())/1e6,
		)
	})
}

func (s *Server) ServeMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/status", s.showStatus)
	mux.HandleFunc("GET /api/sessions", s.listSessions)
	mux.HandleFunc("GET /api/sessions/{id}", s.getSession)
	mux.HandleFunc("DELETE /api/sessions/{id}", s.deleteSession)
	mux.HandleFunc("PUT /api/sessions/{id}/notes", s.updateNotes)
	mux.HandleFunc("GET /api/sessions/{id}/samples", s.listSamples)
	mux.HandleFunc("GET /api/sessions/{id}/chart", s.sessionChart)
	mux.HandleFunc("GET /api/sessions/{id}/plot.png", s.sessionPlot)
	mux.HandleFunc("POST /api/recording/{action}", s.recordingCommand)
	mux.HandleFunc("POST /api/quit", s.quit)
	return mux
}

func (s *Server) showStatus(w http.ResponseWriter, r *http.Request) {
	resp := StatusResponse{
		Status:  s.status.Status(),
		Version: version.Current(),
	}
	if s.forwarder != nil {
		st := s.forwarder.Stats()
		resp.Forwarder = &st
	}
	httputil.WriteJSONOK(w, resp)
}

func (s *Server) requireStore(w http.ResponseWriter) bool {
	if s.store == nil {
		httputil.WriteJSONError(w, http.StatusServiceUnavailable, "session database disabled")
		return false
	}
	return true
}

// writeStoreError maps store errors to 404 or 500.
func writeStoreError(w http.ResponseWriter, what string, err error) {
	if errors.Is(err, db.ErrSessionNotFound) {
		httputil.NotFound(w, err.Error())
		return
	}
	httputil.InternalServerError(w, fmt.Sprintf("Failed to %s: %v", what, err))
}

func (s *Server) listSessions(w http.ResponseWriter, r *http.Request) {
	if !s.requireStore(w) {
		return
	}
	sessions, err := s.store.ListSessions()
	if err != nil {
		writeStoreError(w, "list sessions", err)
		return
	}
	httputil.WriteJSONOK(w, sessions)
}

func (s *Server) getSession(w http.ResponseWriter, r *http.Request) {
	if !s.requireStore(w) {
		return
	}
	session, err := s.store.GetSession(r.PathValue("id"))
	if err != nil {
		writeStoreError(w, "get session", err)
		return
	}
	httputil.WriteJSONOK(w, session)
}

func (s *Server) deleteSession(w http.ResponseWriter, r *http.Request) {
	if !s.requireStore(w) {
		return
	}
	id := r.PathValue("id")
	if st := s.status.Status(); st.SessionID == id {
		httputil.WriteJSONError(w, http.StatusConflict, "session is still recording")
		return
	}
	if err := s.store.DeleteSession(id); err != nil {
		writeStoreError(w, "delete session", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) updateNotes(w http.ResponseWriter, r *http.Request) {
	if !s.requireStore(w) {
		return
	}
	var req NotesRequest
	if err := httputil.DecodeJSON(w, r, &req); err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}
	id := r.PathValue("id")
	if err := s.store.SetSessionNotes(id, req.Notes); err != nil {
		writeStoreError(w, "update notes", err)
		return
	}
	session, err := s.store.GetSession(id)
	if err != nil {
		writeStoreError(w, "get session", err)
		return
	}
	httputil.WriteJSONOK(w, session)
}

// sessionWithSamples loads a session and its samples, writing the error
// response itself when either lookup fails.
func (s *Server) sessionWithSamples(w http.ResponseWriter, id string) (*db.Session, []db.AngleSample, bool) {
	if !s.requireStore(w) {
		return nil, nil, false
	}
	session, err := s.store.GetSession(id)
	if err != nil {
		writeStoreError(w, "get session", err)
		return nil, nil, false
	}
	samples, err := s.store.SessionSamples(id)
	if err != nil {
		writeStoreError(w, "load samples", err)
		return nil, nil, false
	}
	return session, samples, true
}

func (s *Server) listSamples(w http.ResponseWriter, r *http.Request) {
	_, samples, ok := s.sessionWithSamples(w, r.PathValue("id"))
	if !ok {
		return
	}
	httputil.WriteJSONOK(w, samples)
}

func (s *Server) sessionChart(w http.ResponseWriter, r *http.Request) {
	session, samples, ok := s.sessionWithSamples(w, r.PathValue("id"))
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := report.AngleChartHTML(session, samples, w); err != nil {
		log.Printf("chart for session %s: %v", session.ID, err)
	}
}

func (s *Server) sessionPlot(w http.ResponseWriter, r *http.Request) {
	_, samples, ok := s.sessionWithSamples(w, r.PathValue("id"))
	if !ok {
		return
	}
	if len(samples) == 0 {
		httputil.NotFound(w, "session has no samples")
		return
	}
	w.Header().Set("Content-Type", "image/png")
	if err := report.WriteAnglePlot(samples, "png", w); err != nil {
		log.Printf("plot for session %s: %v", r.PathValue("id"), err)
	}
}

func (s *Server) recordingCommand(w http.ResponseWriter, r *http.Request) {
	var cmd commands.Command
	switch r.PathValue("action") {
	case "start":
		cmd = commands.Start
	case "stop":
		cmd = commands.Stop
	case "toggle":
		cmd = commands.Toggle
	default:
		httputil.NotFound(w, fmt.Sprintf("unknown recording action %q", r.PathValue("action")))
		return
	}
	s.sendCommand(w, r, cmd)
}

func (s *Server) quit(w http.ResponseWriter, r *http.Request) {
	s.sendCommand(w, r, commands.Quit)
}

func (s *Server) sendCommand(w http.ResponseWriter, r *http.Request, cmd commands.Command) {
	timeout := s.CommandTimeout
	if timeout <= 0 {
		timeout = DefaultCommandTimeout
	}
	timer := s.Clock.NewTimer(timeout)
	defer timer.Stop()

	select {
	case s.cmds <- cmd:
		httputil.WriteJSON(w, http.StatusAccepted, CommandResponse{Command: cmd.String()})
	case <-timer.C():
		httputil.WriteJSONError(w, http.StatusServiceUnavailable, "tracker is not accepting commands")
	case <-r.Context().Done():
	}
}
