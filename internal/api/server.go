// Package api exposes the simulation over HTTP.
// GET endpoints are public and read-only. POST control endpoints require a
// bearer token and are rate limited per client.
package api

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/talgya/hearsay/internal/agents"
	"github.com/talgya/hearsay/internal/belief"
	"github.com/talgya/hearsay/internal/engine"
	"github.com/talgya/hearsay/internal/persistence"
	"github.com/talgya/hearsay/internal/world"
)

const (
	defaultHistoryLimit = 100
	maxHistoryLimit     = 1000
)

// Options configures a Server.
type Options struct {
	AdminKey     string  // Bearer token for control endpoints. Empty disables them.
	ControlRPS   float64 // Control requests per second per client
	ControlBurst int

	// History is optional; /stats/history answers 503 without it.
	History *persistence.DB
	RunID   string
}

// Server serves simulation state and accepts control events.
type Server struct {
	eng     *engine.Engine
	opts    Options
	log     *zap.Logger
	hub     *Hub
	limiter *RateLimiter
	router  chi.Router

	upgrader websocket.Upgrader
}

// NewServer builds the router and subscribes the tick stream to eng.
func NewServer(eng *engine.Engine, opts Options, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.ControlRPS <= 0 {
		opts.ControlRPS = 5
	}
	if opts.ControlBurst <= 0 {
		opts.ControlBurst = 10
	}

	s := &Server{
		eng:     eng,
		opts:    opts,
		log:     logger,
		hub:     NewHub(logger),
		limiter: NewRateLimiter(opts.ControlRPS, opts.ControlBurst),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4 * 1024,
			WriteBufferSize: 16 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true }, // observers are read-only
		},
	}
	s.router = s.routes()
	eng.OnTick(s.tickHook)
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(s.log))
	r.Use(middleware.Recoverer)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/status", s.handleStatus)
		r.Get("/map", s.handleMap)
		r.Get("/biomes", s.handleBiomes)
		r.Get("/consensus", s.handleConsensus)
		r.Get("/stats/history", s.handleStatsHistory)
		r.Get("/stream", s.handleStream)

		r.Route("/agents", func(r chi.Router) {
			r.Get("/", s.handleAgents)
			r.Route("/{idx}", func(r chi.Router) {
				r.Get("/belief", s.handleAgentBelief)
				r.Get("/favorability", s.handleAgentFavorability)
				r.Get("/errors", s.handleAgentErrors)
			})
		})

		r.Group(func(r chi.Router) {
			r.Use(s.limiter.Middleware)
			r.Use(s.adminOnly)
			r.Post("/control/{event}", s.handleControl)
		})
	})
	return r
}

// Handler returns the HTTP handler for the API.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Close disconnects stream subscribers.
func (s *Server) Close() {
	s.hub.Close()
}

// CleanupLimiter drops idle rate limit buckets. Call it periodically.
func (s *Server) CleanupLimiter(maxAge time.Duration) {
	s.limiter.Cleanup(maxAge)
}

// requestLogger logs every request with zap.
func requestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			logger.Debug("http request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("duration", time.Since(start)),
				zap.String("request_id", middleware.GetReqID(r.Context())),
			)
		})
	}
}

// adminOnly requires a matching bearer token.
func (s *Server) adminOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.opts.AdminKey == "" {
			writeError(w, http.StatusForbidden, "control endpoints disabled (no admin key set)")
			return
		}
		token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || subtle.ConstantTimeCompare([]byte(token), []byte(s.opts.AdminKey)) != 1 {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next.ServeHTTP(w, r)
	})
}

type statusResponse struct {
	Tick       uint64             `json:"tick"`
	Running    bool               `json:"running"`
	Width      int                `json:"width"`
	Height     int                `json:"height"`
	Population int                `json:"population"`
	Selected   *int               `json:"selected"` // nil with no agents
	Kinds      map[world.Kind]int `json:"kinds"`
	Stats      engine.SimStats    `json:"stats"`
	Limits     agents.NeedLimits  `json:"limits"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	running := s.eng.Running()
	var resp statusResponse
	s.eng.Read(func(sim *engine.Simulation) {
		resp = statusResponse{
			Tick:       sim.CurrentTick(),
			Running:    running,
			Width:      sim.Grid.Width,
			Height:     sim.Grid.Height,
			Population: len(sim.Agents),
			Kinds:      make(map[world.Kind]int, world.NumKinds),
			Stats:      sim.Stats,
			Limits:     sim.Params.Limits,
		}
		if _, ok := sim.SelectedAgent(); ok {
			sel := sim.Selected
			resp.Selected = &sel
		}
		for k, n := range sim.Grid.KindCounts() {
			resp.Kinds[world.Kind(k)] = n
		}
	})
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleMap(w http.ResponseWriter, r *http.Request) {
	var resp struct {
		Width  int          `json:"width"`
		Height int          `json:"height"`
		Cells  []world.Kind `json:"cells"` // Row-major
	}
	s.eng.Read(func(sim *engine.Simulation) {
		resp.Width = sim.Grid.Width
		resp.Height = sim.Grid.Height
		resp.Cells = sim.Grid.Cells()
	})
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleBiomes(w http.ResponseWriter, r *http.Request) {
	type biomeEntry struct {
		world.Biome
		Weights map[world.Kind]float64 `json:"weights"`
	}
	var entries []biomeEntry
	s.eng.Read(func(sim *engine.Simulation) {
		entries = make([]biomeEntry, 0, len(sim.Grid.Biomes))
		for _, b := range sim.Grid.Biomes {
			weights := make(map[world.Kind]float64, world.NumKinds)
			for k, p := range b.Type.Weights() {
				weights[world.Kind(k)] = p
			}
			entries = append(entries, biomeEntry{Biome: b, Weights: weights})
		}
	})
	writeJSON(w, http.StatusOK, entries)
}

type agentSummary struct {
	Index    int            `json:"index"`
	ID       agents.AgentID `json:"id"`
	X        int            `json:"x"`
	Y        int            `json:"y"`
	Hunger   uint32         `json:"hunger"`
	Thirst   uint32         `json:"thirst"`
	Selected bool           `json:"selected"`
}

func (s *Server) handleAgents(w http.ResponseWriter, r *http.Request) {
	var list []agentSummary
	s.eng.Read(func(sim *engine.Simulation) {
		list = make([]agentSummary, 0, len(sim.Agents))
		for i, a := range sim.Agents {
			list = append(list, agentSummary{
				Index:    i,
				ID:       a.ID,
				X:        a.X,
				Y:        a.Y,
				Hunger:   a.Needs.Hunger,
				Thirst:   a.Needs.Thirst,
				Selected: i == sim.Selected,
			})
		}
	})
	writeJSON(w, http.StatusOK, list)
}

// agentIndex parses the {idx} path parameter. The literal "selected" names
// the current analytics selection.
func agentIndex(r *http.Request, sim *engine.Simulation) (*agents.Agent, bool) {
	raw := chi.URLParam(r, "idx")
	if raw == "selected" {
		return sim.SelectedAgent()
	}
	idx, err := strconv.Atoi(raw)
	if err != nil || idx < 0 || idx >= len(sim.Agents) {
		return nil, false
	}
	return sim.Agents[idx], true
}

func (s *Server) handleAgentBelief(w http.ResponseWriter, r *http.Request) {
	var resp struct {
		ID        agents.AgentID  `json:"id"`
		Width     int             `json:"width"`
		Height    int             `json:"height"`
		Plurality []world.Kind    `json:"plurality"`
		Cells     []belief.Vector `json:"cells"` // Row-major probability vectors
	}
	found := false
	s.eng.Read(func(sim *engine.Simulation) {
		a, ok := agentIndex(r, sim)
		if !ok {
			return
		}
		found = true
		resp.ID = a.ID
		resp.Width = a.Belief.Width
		resp.Height = a.Belief.Height
		n := a.Belief.Len()
		resp.Plurality = make([]world.Kind, n)
		resp.Cells = make([]belief.Vector, n)
		for i := 0; i < n; i++ {
			v := a.Belief.Cell(i)
			resp.Cells[i] = v
			resp.Plurality[i] = v.Plurality()
		}
	})
	if !found {
		writeError(w, http.StatusNotFound, "agent not found")
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleAgentFavorability(w http.ResponseWriter, r *http.Request) {
	var resp struct {
		ID     agents.AgentID `json:"id"`
		Width  int            `json:"width"`
		Height int            `json:"height"`
		Field  []float64      `json:"field"` // Row-major, after convolution and distance discount
		DestX  int            `json:"dest_x"`
		DestY  int            `json:"dest_y"`
	}
	found := false
	s.eng.Read(func(sim *engine.Simulation) {
		a, ok := agentIndex(r, sim)
		if !ok {
			return
		}
		found = true
		resp.ID = a.ID
		resp.Width = sim.Grid.Width
		resp.Height = sim.Grid.Height
		resp.Field = agents.Favorability(a, sim.Params.Limits)
		resp.DestX, resp.DestY = agents.Destination(resp.Field, sim.Grid.Width)
	})
	if !found {
		writeError(w, http.StatusNotFound, "agent not found")
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleAgentErrors(w http.ResponseWriter, r *http.Request) {
	var resp struct {
		ID        agents.AgentID `json:"id"`
		Errors    []bool         `json:"errors"`
		ErrorRate float64        `json:"error_rate"`
	}
	found := false
	s.eng.Read(func(sim *engine.Simulation) {
		a, ok := agentIndex(r, sim)
		if !ok {
			return
		}
		found = true
		resp.ID = a.ID
		resp.Errors = engine.AgentErrorGrid(a, sim.Grid)
		resp.ErrorRate = engine.ErrorRate(resp.Errors)
	})
	if !found {
		writeError(w, http.StatusNotFound, "agent not found")
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleConsensus(w http.ResponseWriter, r *http.Request) {
	var (
		c   engine.Consensus
		err error
	)
	s.eng.Read(func(sim *engine.Simulation) {
		c, err = sim.Consensus()
	})
	if errors.Is(err, engine.ErrNoData) {
		writeJSON(w, http.StatusOK, map[string]bool{"no_data": true})
		return
	}
	if err != nil {
		s.log.Error("consensus failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "consensus failed")
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (s *Server) handleStatsHistory(w http.ResponseWriter, r *http.Request) {
	if s.opts.History == nil {
		writeError(w, http.StatusServiceUnavailable, "history not enabled")
		return
	}

	limit := defaultHistoryLimit
	if l := r.URL.Query().Get("limit"); l != "" {
		if v, err := strconv.Atoi(l); err == nil && v > 0 && v <= maxHistoryLimit {
			limit = v
		}
	}

	rows, err := s.opts.History.History(s.opts.RunID, limit)
	if err != nil {
		s.log.Error("stats history query failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "history query failed")
		return
	}
	if rows == nil {
		rows = []persistence.TickRecord{}
	}
	writeJSON(w, http.StatusOK, rows)
}

func (s *Server) handleControl(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "event")
	ev, err := engine.ParseEvent(name)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	alive := s.eng.Handle(ev)
	s.log.Info("control event", zap.String("event", name), zap.String("remote", r.RemoteAddr))

	var tick uint64
	var selected int
	s.eng.Read(func(sim *engine.Simulation) {
		tick = sim.CurrentTick()
		selected = sim.Selected
	})
	writeJSON(w, http.StatusOK, map[string]any{
		"event":    name,
		"tick":     tick,
		"running":  s.eng.Running(),
		"selected": selected,
		"stopped":  !alive,
	})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
