package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/gradientwolf/github-multi-dashboard/internal/core"
)

// Server exposes the dashboard payload over HTTP for a presentation layer to
// render.
type Server struct {
	agg   *core.Aggregator
	users []string
	years []int
	log   *zap.Logger
}

func New(agg *core.Aggregator, users []string, years []int, log *zap.Logger) *Server {
	return &Server{agg: agg, users: users, years: years, log: log}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(s.requestLogger)

	r.Get("/healthz", s.handleHealth)
	r.Get("/api/dashboard", s.handleDashboard)

	return r
}

type yearResponse struct {
	Year  int           `json:"year"`
	Total int           `json:"total"`
	Grid  core.YearGrid `json:"grid"`
}

type dashboardResponse struct {
	Profiles      []core.Profile `json:"profiles"`
	Years         []yearResponse `json:"years"`
	PerUserTotals map[string]int `json:"perUserTotals"`
	GrandTotal    int            `json:"grandTotal"`
	Notices       []string       `json:"notices,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	data, err := s.agg.LoadDashboard(r.Context(), s.users, s.years)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			respondError(w, http.StatusNotFound, "USER_NOT_FOUND", err.Error())
			return
		}
		respondError(w, http.StatusBadGateway, "UPSTREAM_ERROR", err.Error())
		return
	}

	resp := dashboardResponse{
		Profiles:      data.Profiles,
		Years:         make([]yearResponse, 0, len(data.Years)),
		PerUserTotals: data.PerUserTotals,
		GrandTotal:    data.GrandTotal,
		Notices:       data.Notices,
	}
	for _, yd := range data.Years {
		resp.Years = append(resp.Years, yearResponse{
			Year:  yd.Year,
			Total: yd.Total,
			Grid:  core.BuildYearGrid(yd.Year, yd.Combined, yd.PerUser, s.users),
		})
	}

	respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.log.Info("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("duration", time.Since(start)),
		)
	})
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, errorResponse{Error: message, Code: code})
}
