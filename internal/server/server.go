package server

import (
	_ "embed"
	"html/template"
	"log/slog"
	"net/http"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"siemlite/internal/event"
	"siemlite/internal/ingest"
)

//go:embed dashboard.html
var dashboardHTML string

var dashboardTmpl = template.Must(template.New("dashboard").Parse(dashboardHTML))

// Server exposes the ingestion pipeline over HTTP: the dashboard, the
// JSON event feeds, event submission, and the CSV export.
type Server struct {
	pipeline *ingest.Pipeline
	router   *mux.Router
}

func New(p *ingest.Pipeline) *Server {
	s := &Server{pipeline: p, router: mux.NewRouter()}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.router.HandleFunc("/", s.handleIndex).Methods(http.MethodGet)
	s.router.HandleFunc("/events", s.handleEvents).Methods(http.MethodGet)
	s.router.HandleFunc("/threats", s.handleThreats).Methods(http.MethodGet)
	s.router.HandleFunc("/add_event", s.handleAddEvent).Methods(http.MethodPost)
	s.router.HandleFunc("/export_csv", s.handleExportCSV).Methods(http.MethodGet)
	s.router.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
}

func (s *Server) Router() http.Handler { return s.router }

// StartMetrics serves Prometheus metrics on a side listener.
func (s *Server) StartMetrics(addr string) {
	http.Handle("/metrics", promhttp.Handler())
	go func() {
		if err := http.ListenAndServe(addr, nil); err != nil && err != http.ErrServerClosed {
			slog.Error("metrics server error", "err", err)
		}
	}()
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	data := struct {
		SuspiciousCount int
	}{
		SuspiciousCount: len(s.pipeline.Threats()),
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := dashboardTmpl.Execute(w, data); err != nil {
		slog.Error("rendering dashboard", "err", err)
	}
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, eventList(s.pipeline.Events()))
}

func (s *Server) handleThreats(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, eventList(s.pipeline.Threats()))
}

// eventList keeps empty responses as [] rather than null; the
// dashboard iterates the payload unconditionally.
func eventList(evs []event.Event) []event.Event {
	if evs == nil {
		return []event.Event{}
	}
	return evs
}

type addEventRequest struct {
	Description string `json:"description"`
	SourceIP    string `json:"source_ip"`
}

func (s *Server) handleAddEvent(w http.ResponseWriter, r *http.Request) {
	var req addEventRequest
	isJSON := strings.Contains(r.Header.Get("Content-Type"), "application/json")
	if isJSON {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json body", http.StatusBadRequest)
			return
		}
	} else {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "invalid form body", http.StatusBadRequest)
			return
		}
		req.Description = r.FormValue("description")
		req.SourceIP = r.FormValue("source_ip")
	}

	req.SourceIP = strings.TrimSpace(req.SourceIP)
	if req.SourceIP == "" {
		http.Error(w, "source_ip is required", http.StatusBadRequest)
		return
	}

	ev := s.pipeline.Ingest(req.Description, req.SourceIP)

	if isJSON {
		s.writeJSON(w, http.StatusCreated, ev)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename=suspicious_events.csv`)
	if err := event.WriteCSV(w, s.pipeline.Threats()); err != nil {
		slog.Error("writing csv export", "err", err)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encoding response", "err", err)
	}
}
