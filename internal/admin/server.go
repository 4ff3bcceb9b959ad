package admin

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"math"
	"net"
	"net/http"
	"strconv"
	"time"

	"relaychain-sim/internal/environment"
	"relaychain-sim/internal/logging"
	"relaychain-sim/internal/sim"
	"relaychain-sim/internal/telemetry"
)

// Server exposes the live state of a simulator over HTTP.
type Server struct {
	Sim     *sim.Simulator
	Grid    *environment.Grid
	Metrics http.Handler
	tpl     *template.Template
}

//go:embed templates/index.html
var content embed.FS

var funcs = template.FuncMap{
	"sinr": func(v float64) string {
		if math.IsInf(v, -1) {
			return "-inf"
		}
		return strconv.FormatFloat(v, 'f', 2, 64)
	},
}

// NewServer creates a server for s. grid and metrics may be nil.
func NewServer(s *sim.Simulator, grid *environment.Grid, metrics http.Handler) *Server {
	tpl := template.Must(template.New("index.html").Funcs(funcs).ParseFS(content, "templates/index.html"))
	return &Server{Sim: s, Grid: grid, Metrics: metrics, tpl: tpl}
}

// Handler returns the routes of the server.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleIndex)
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/status", s.handleStatus)
	mux.HandleFunc("/links", s.handleLinks)
	mux.HandleFunc("/entities", s.handleEntities)
	mux.HandleFunc("/events", s.handleEvents)
	mux.HandleFunc("/summary", s.handleSummary)
	mux.HandleFunc("/grid", s.handleGrid)
	if s.Metrics != nil {
		mux.Handle("/metrics", s.Metrics)
	}
	return mux
}

// Start serves on addr until ctx is done. ready, if set, is called once the
// listener is bound.
func (s *Server) Start(ctx context.Context, addr string, ready func(net.Addr)) error {
	log := logging.FromContext(ctx)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("admin listen %s: %w", addr, err)
	}
	srv := &http.Server{Handler: s.Handler(), ReadHeaderTimeout: 5 * time.Second}
	if ready != nil {
		ready(ln.Addr())
	}
	log.Info("admin server listening", "addr", ln.Addr().String())

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Warn("admin shutdown", "err", err)
		}
		<-errCh
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Default().Warn("admin encode", "err", err)
	}
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	snap := s.Sim.Snapshot()
	data := struct {
		RunID  string
		Status telemetry.StatusRow
		Links  []telemetry.LinkRow
		Events []sim.Event
		Grid   string
	}{
		RunID:  s.Sim.RunID(),
		Status: snap.Status,
		Links:  snap.Links,
		Events: s.Sim.Events(),
	}
	if s.Grid != nil {
		data.Grid = s.Grid.Render(environment.EntityMarks(snap.Entities))
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.tpl.Execute(w, data); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]any{"ok": true, "tick": s.Sim.Tick()})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.Sim.Snapshot().Status)
}

func (s *Server) handleLinks(w http.ResponseWriter, r *http.Request) {
	links := s.Sim.Snapshot().Links
	if links == nil {
		links = []telemetry.LinkRow{}
	}
	writeJSON(w, links)
}

func (s *Server) handleEntities(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.Sim.Snapshot().Entities)
}

// handleEvents lists events, optionally starting at ?since=<index>.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	events := s.Sim.Events()
	if v := r.URL.Query().Get("since"); v != "" {
		since, err := strconv.Atoi(v)
		if err != nil || since < 0 {
			http.Error(w, "invalid since", http.StatusBadRequest)
			return
		}
		if since > len(events) {
			since = len(events)
		}
		events = events[since:]
	}
	writeJSON(w, events)
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.Sim.Summary())
}

func (s *Server) handleGrid(w http.ResponseWriter, r *http.Request) {
	if s.Grid == nil {
		http.Error(w, "no interference grid configured", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte(s.Grid.Render(environment.EntityMarks(s.Sim.Snapshot().Entities))))
}
