package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"go.uber.org/zap"

	"github.com/hamed0406/craftwatch/internal/domain"
	"github.com/hamed0406/craftwatch/internal/downsample"
	apimw "github.com/hamed0406/craftwatch/internal/httpapi/middleware"
	"github.com/hamed0406/craftwatch/internal/repo"
	"github.com/hamed0406/craftwatch/internal/scheduler"
)

const defaultPort = 25565

// ProbeRunner triggers one on-demand probe-and-append cycle.
type ProbeRunner interface {
	PingOne(ctx context.Context, serverID int64) error
}

type Server struct {
	Logger  *zap.Logger
	Servers repo.ServerStore
	Results repo.ResultStore
	Pinger  ProbeRunner
}

func NewServer(l *zap.Logger, ss repo.ServerStore, rs repo.ResultStore, p ProbeRunner) *Server {
	return &Server{Logger: l, Servers: ss, Results: rs, Pinger: p}
}

// Router wires the API. Read routes need any key, mutating routes an admin
// key; both are rate limited per client IP.
func (s *Server) Router(keys apimw.Keys, origins []string, readRPM, readBurst, adminRPM, adminBurst int) http.Handler {
	r := chi.NewRouter()

	if len(origins) == 0 {
		r.Use(cors.AllowAll().Handler)
	} else {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: origins,
			AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
			AllowedHeaders: []string{"Authorization", "X-API-Key", "Content-Type"},
		}))
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Route("/api", func(api chi.Router) {
		api.Group(func(read chi.Router) {
			read.Use(apimw.RequireAny(keys), apimw.RateLimit(readRPM, readBurst))
			read.Get("/servers", s.handleListServers)
			read.Get("/servers/{id}/pings", s.handleHistory)
		})
		api.Group(func(admin chi.Router) {
			admin.Use(apimw.RequireAdmin(keys), apimw.RateLimit(adminRPM, adminBurst))
			admin.Post("/servers", s.handleAddServer)
			admin.Delete("/servers/{id}", s.handleDeleteServer)
			admin.Get("/servers/{id}/ping", s.handlePingServer)
			admin.Post("/servers/{id}/ping", s.handlePingServer)
		})
	})

	return r
}

// serverView is the list-endpoint shape: the registry row plus freshness.
type serverView struct {
	domain.Server
	LastOnline bool `json:"last_online"`
}

type addPayload struct {
	Name    string `json:"name"`
	Address string `json:"address"`
	Port    int    `json:"port"`
}

func (p addPayload) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Name, validation.Required, validation.Length(1, 100)),
		validation.Field(&p.Address, validation.Required, is.Host),
		validation.Field(&p.Port, validation.Min(0), validation.Max(65535)),
	)
}

func (s *Server) handleAddServer(w http.ResponseWriter, r *http.Request) {
	var p addPayload
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		http.Error(w, "bad payload", http.StatusBadRequest)
		return
	}
	if err := p.Validate(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if p.Port == 0 {
		p.Port = defaultPort
	}

	sv := &domain.Server{Name: p.Name, Address: p.Address, Port: p.Port}
	if err := s.Servers.Add(r.Context(), sv); err != nil {
		s.Logger.Warn("add_server_error", zap.String("address", p.Address), zap.Error(err))
		http.Error(w, "could not add", http.StatusInternalServerError)
		return
	}

	s.Logger.Info("added_server",
		zap.Int64("id", sv.ID),
		zap.String("name", sv.Name),
		zap.String("address", sv.Address),
		zap.Int("port", sv.Port),
	)

	writeJSON(w, http.StatusCreated, serverView{Server: *sv})
}

func (s *Server) handleListServers(w http.ResponseWriter, r *http.Request) {
	servers, err := s.Servers.List(r.Context())
	if err != nil {
		http.Error(w, "list error", http.StatusInternalServerError)
		return
	}
	out := make([]serverView, 0, len(servers))
	for _, sv := range servers {
		last, err := s.Results.Last(r.Context(), sv.ID)
		if err != nil {
			http.Error(w, "list error", http.StatusInternalServerError)
			return
		}
		out = append(out, serverView{
			Server:     sv,
			LastOnline: last != nil && last.Online,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleDeleteServer(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := s.Servers.Delete(r.Context(), id); err != nil {
		s.Logger.Warn("delete_server_error", zap.Int64("id", id), zap.Error(err))
		http.Error(w, "delete error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// handlePingServer probes one server right now and appends the outcome.
// Success means the store write succeeded — an offline result is still a
// successful operation.
func (s *Server) handlePingServer(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := s.Pinger.PingOne(r.Context(), id); err != nil {
		if errors.Is(err, scheduler.ErrUnknownServer) {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		http.Error(w, "ping error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	rng := domain.ParseRange(r.URL.Query().Get("range"))

	var sinceID *int64
	if raw := r.URL.Query().Get("since_id"); raw != "" {
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			http.Error(w, "bad since_id", http.StatusBadRequest)
			return
		}
		sinceID = &v
	}

	// incremental requests ignore the time window entirely
	var window *int64
	if sinceID == nil {
		sec := rng.WindowSeconds()
		window = &sec
	}

	rows, err := s.Results.History(r.Context(), id, sinceID, window)
	if err != nil {
		s.Logger.Warn("history_error", zap.Int64("id", id), zap.Error(err))
		http.Error(w, "history error", http.StatusInternalServerError)
		return
	}

	// Only week/month chart queries get compressed; day and incremental
	// requests always see raw rows so live updates stay exact.
	if sinceID == nil && rng.Downsampled() {
		rows = downsample.Downsample(rows, rng)
	}
	if rows == nil {
		rows = []domain.PingResult{}
	}
	writeJSON(w, http.StatusOK, rows)
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "bad id", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
