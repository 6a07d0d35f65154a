package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/aretw0/cavity/internal/logging"
	"github.com/aretw0/cavity/internal/runtime"
	"github.com/aretw0/cavity/pkg/domain"
	"github.com/aretw0/cavity/pkg/ports"
	"github.com/aretw0/cavity/pkg/wetting"
)

// StatusProvider exposes the live view of a run.
type StatusProvider interface {
	Status() runtime.Status
}

// Server serves run records, live status and the pure cavity helpers.
type Server struct {
	Store    ports.RunStore
	Geometry domain.Geometry
	Monitor  StatusProvider
	Streams  *StreamManager
	Gatherer prometheus.Gatherer
	Version  string
	Logger   *slog.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithMonitor enables GET /status.
func WithMonitor(m StatusProvider) Option {
	return func(s *Server) { s.Monitor = m }
}

// WithGatherer sets the registry served on /metrics.
func WithGatherer(g prometheus.Gatherer) Option {
	return func(s *Server) { s.Gatherer = g }
}

// WithVersion sets the version reported by /info.
func WithVersion(v string) Option {
	return func(s *Server) { s.Version = v }
}

// WithLogger sets the request logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.Logger = l
		}
	}
}

// NewServer creates a server over a run store and the cavity geometry.
func NewServer(store ports.RunStore, geom domain.Geometry, opts ...Option) *Server {
	s := &Server{
		Store:    store,
		Geometry: geom,
		Streams:  NewStreamManager(),
		Gatherer: prometheus.DefaultGatherer,
		Version:  "dev",
		Logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.Streams.logger = s.Logger
	return s
}

// Handler returns the routed HTTP handler.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Get("/healthz", s.GetHealth)
	r.Get("/info", s.GetInfo)
	r.Get("/runs", s.ListRuns)
	r.Get("/runs/{id}", s.GetRun)
	r.Get("/status", s.GetStatus)
	r.Get("/events", s.SubscribeEvents)
	r.Get("/geometry", s.GetGeometry)
	r.Get("/geometry/classify", s.ClassifyCell)
	r.Get("/wetting/density", s.WallDensity)
	r.Handle("/metrics", promhttp.HandlerFor(s.Gatherer, promhttp.HandlerOpts{}))
	return enableCORS(r)
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.Logger.Error("response encode failed", "error", err)
	}
}

// GetHealth handles GET /healthz.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles GET /info.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{
		"app":     "cavity-http",
		"version": s.Version,
	})
}

// ListRuns handles GET /runs.
func (s *Server) ListRuns(w http.ResponseWriter, r *http.Request) {
	ids, err := s.Store.List(r.Context())
	if err != nil {
		http.Error(w, fmt.Sprintf("List error: %v", err), http.StatusInternalServerError)
		s.Logger.Error("list runs failed", "error", err)
		return
	}
	if ids == nil {
		ids = []string{}
	}
	s.writeJSON(w, http.StatusOK, ids)
}

// GetRun handles GET /runs/{id}.
func (s *Server) GetRun(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	rec, err := s.Store.Load(r.Context(), id)
	if errors.Is(err, domain.ErrRunNotFound) {
		http.Error(w, "run not found", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, fmt.Sprintf("Load error: %v", err), http.StatusInternalServerError)
		s.Logger.Error("load run failed", "run_id", id, "error", err)
		return
	}
	s.writeJSON(w, http.StatusOK, rec)
}

// GetStatus handles GET /status.
func (s *Server) GetStatus(w http.ResponseWriter, r *http.Request) {
	if s.Monitor == nil {
		http.Error(w, "no run is being monitored", http.StatusNotFound)
		return
	}
	s.writeJSON(w, http.StatusOK, s.Monitor.Status())
}

type geometryResponse struct {
	domain.Geometry
	Regions map[string]int `json:"regions"`
}

// GetGeometry handles GET /geometry: the layout and its cell count per region.
func (s *Server) GetGeometry(w http.ResponseWriter, r *http.Request) {
	resp := geometryResponse{Geometry: s.Geometry, Regions: map[string]int{}}
	for y := 0; y < s.Geometry.Height; y++ {
		for x := 0; x < s.Geometry.Width; x++ {
			resp.Regions[s.Geometry.Classify(x, y).String()]++
		}
	}
	s.writeJSON(w, http.StatusOK, resp)
}

type classifyResponse struct {
	domain.Cell
	Region      domain.Region `json:"region"`
	Wall        bool          `json:"wall"`
	Solid       bool          `json:"solid"`
	Activatable bool          `json:"activatable"`
}

// ClassifyCell handles GET /geometry/classify?x=&y=.
func (s *Server) ClassifyCell(w http.ResponseWriter, r *http.Request) {
	x, errX := strconv.Atoi(r.URL.Query().Get("x"))
	y, errY := strconv.Atoi(r.URL.Query().Get("y"))
	if errX != nil || errY != nil {
		http.Error(w, "x and y must be integers", http.StatusBadRequest)
		return
	}
	if !s.Geometry.Contains(x, y) {
		http.Error(w, fmt.Sprintf("cell (%d,%d) is outside the lattice", x, y), http.StatusBadRequest)
		return
	}
	region := s.Geometry.Classify(x, y)
	s.writeJSON(w, http.StatusOK, classifyResponse{
		Cell:        domain.Cell{X: x, Y: y},
		Region:      region,
		Wall:        region.IsWall(),
		Solid:       region.IsSolid(),
		Activatable: region.IsActivatable(),
	})
}

// WallDensity handles GET /wetting/density?angle=&gas=&liquid=.
func (s *Server) WallDensity(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var vals [3]float64
	for i, name := range []string{"angle", "gas", "liquid"} {
		v, err := strconv.ParseFloat(q.Get(name), 64)
		if err != nil {
			http.Error(w, fmt.Sprintf("%s must be a number", name), http.StatusBadRequest)
			return
		}
		vals[i] = v
	}
	phases := domain.PhaseDensities{Gas: vals[1], Liquid: vals[2]}
	if err := phases.Validate(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]float64{
		"angle":   vals[0],
		"gas":     phases.Gas,
		"liquid":  phases.Liquid,
		"density": wetting.WallDensity(vals[0], phases.Gas, phases.Liquid),
	})
}

// Hooks returns lifecycle hooks that publish run events to /events subscribers.
func (s *Server) Hooks() domain.LifecycleHooks {
	publish := func(runID string, v any) {
		data, err := json.Marshal(v)
		if err != nil {
			s.Logger.Warn("event encode failed", "error", err)
			return
		}
		s.Streams.Broadcast(runID, string(data))
	}
	return domain.LifecycleHooks{
		OnPhaseEnter: func(_ context.Context, e *domain.PhaseEvent) { publish(e.RunID, e) },
		OnProgress:   func(_ context.Context, e *domain.ProgressEvent) { publish(e.RunID, e) },
		OnContact:    func(_ context.Context, e *domain.ContactEvent) { publish(e.RunID, e) },
		OnActivation: func(_ context.Context, e *domain.ActivationEvent) { publish(e.RunID, e) },
		OnSnapshot:   func(_ context.Context, e *domain.SnapshotEvent) { publish(e.RunID, e) },
	}
}

// SubscribeEvents handles GET /events (SSE). An optional run_id narrows the stream.
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	runID := r.URL.Query().Get("run_id")
	ch, cancel := s.Streams.Subscribe(runID)
	defer cancel()

	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			s.Logger.Debug("SSE client disconnected", "run_id", runID)
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			fmt.Fprintf(w, "data: %s\n\n", msg)
			flusher.Flush()
		}
	}
}
