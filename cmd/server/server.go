package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/JustRahman/cross-chain-bridghe/internal/config"
	"github.com/JustRahman/cross-chain-bridghe/internal/discovery"
	"github.com/JustRahman/cross-chain-bridghe/internal/history"
	"github.com/JustRahman/cross-chain-bridghe/internal/model"
	"github.com/JustRahman/cross-chain-bridghe/internal/multihop"
	"github.com/JustRahman/cross-chain-bridghe/internal/security"
)

const version = "1.0.0"

// startTime records when the service was initialized for uptime reporting
var startTime = time.Now()

// Server is the HTTP front of the aggregator
type Server struct {
	config  config.Config
	deps    *dependencies
	metrics *serverMetrics
	gather  prometheus.Gatherer

	// Inbound limiter for the /v1 API, nil when disabled
	rateLimit *rate.Limiter

	server *http.Server
}

// serverMetrics holds the HTTP-level Prometheus collectors
type serverMetrics struct {
	requestCounter  *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
}

// registerMetrics sets up Prometheus metrics collection
func registerMetrics(reg prometheus.Registerer) *serverMetrics {
	m := &serverMetrics{
		requestCounter: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bridge_http_requests_total",
				Help: "Total number of API requests processed",
			},
			[]string{"route", "status"},
		),
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "bridge_http_request_duration_seconds",
				Help:    "API request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"route"},
		),
	}

	reg.MustRegister(m.requestCounter, m.requestDuration)
	return m
}

// NewServer creates a server around the assembled dependencies
func NewServer(cfg config.Config, deps *dependencies, reg *prometheus.Registry) *Server {
	s := &Server{
		config:  cfg,
		deps:    deps,
		metrics: registerMetrics(reg),
		gather:  reg,
	}
	if cfg.RequestRateLimit > 0 {
		s.rateLimit = rate.NewLimiter(rate.Limit(cfg.RequestRateLimit), cfg.RequestRateBurst)
	}
	return s
}

// Routes builds the HTTP handler
func (s *Server) Routes() http.Handler {
	router := mux.NewRouter()
	router.Use(s.instrument)

	router.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	router.Handle("/metrics", promhttp.HandlerFor(s.gather, promhttp.HandlerOpts{})).Methods(http.MethodGet)

	api := router.PathPrefix("/v1").Subrouter()
	api.Use(s.limit)
	api.HandleFunc("/routes", s.handleRoutes).Methods(http.MethodPost)
	api.HandleFunc("/routes/best", s.handleBestRoute).Methods(http.MethodPost)
	api.HandleFunc("/bridges/health", s.handleBridgeHealth).Methods(http.MethodGet)
	api.HandleFunc("/bridges/reliability", s.handleReliabilityBoard).Methods(http.MethodGet)
	api.HandleFunc("/bridges/{name}/reliability", s.handleReliability).Methods(http.MethodGet)
	api.HandleFunc("/transactions", s.handleRecordTransaction).Methods(http.MethodPost)

	return router
}

// Start begins the HTTP server and the scoring schedule and blocks until
// SIGINT or SIGTERM, then shuts both down gracefully
func (s *Server) Start() {
	// Warm the board so the first rankings see persisted reliability
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		if _, err := s.deps.job.RunOnce(ctx); err != nil {
			logrus.WithError(err).Warn("Initial reliability scoring failed")
		}
	}()
	if err := s.deps.job.Start(s.config.ScoreSchedule); err != nil {
		logrus.Fatalf("Error scheduling reliability scoring: %v", err)
	}

	// Configure server with timeouts
	s.server = &http.Server{
		Addr:         ":" + s.config.Port,
		Handler:      s.Routes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: s.config.RequestTimeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start the server in a goroutine
	go func() {
		logrus.Infof("Server starting on port %s", s.config.Port)
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.Fatalf("Error starting server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logrus.Info("Server shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.server.Shutdown(ctx); err != nil {
		logrus.Errorf("Server shutdown failed: %v", err)
	}
	s.deps.job.Stop()

	logrus.Info("Server stopped")
}

// statusRecorder captures the status code written by a handler
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// instrument records request count and latency per route template
func (s *Server) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		route := "unmatched"
		if cur := mux.CurrentRoute(r); cur != nil {
			if tpl, err := cur.GetPathTemplate(); err == nil {
				route = tpl
			}
		}
		s.metrics.requestCounter.WithLabelValues(route, strconv.Itoa(rec.status)).Inc()
		s.metrics.requestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}

// limit applies the inbound rate limit when enabled
func (s *Server) limit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.rateLimit != nil && !s.rateLimit.Allow() {
			errorResponse(w, http.StatusTooManyRequests, "Rate limit exceeded")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// handleHealth is a simple health check endpoint
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "OK",
		"version":   version,
		"bridges":   len(s.deps.adapters),
		"uptime":    time.Since(startTime).Round(time.Second).String(),
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// routesRequest asks for every ranked quote on one route
type routesRequest struct {
	model.RouteParams
	Preferences *discovery.RankingPreferences `json:"preferences,omitempty"`
}

type routesResponse struct {
	Routes []discovery.RankedQuote `json:"routes"`
	Count  int                     `json:"count"`
}

// handleRoutes returns every quote for the route, best first
func (s *Server) handleRoutes(w http.ResponseWriter, r *http.Request) {
	var req routesRequest
	if err := decodeJSON(r, &req); err != nil {
		errorResponse(w, http.StatusBadRequest, err.Error())
		return
	}
	if msg := validateParams(req.RouteParams); msg != "" {
		errorResponse(w, http.StatusBadRequest, msg)
		return
	}
	if p := req.Preferences; p != nil && (p.CostWeight < 0 || p.SpeedWeight < 0 || p.ReliabilityWeight < 0 || p.LiquidityWeight < 0) {
		errorResponse(w, http.StatusBadRequest, "preference weights must not be negative")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.config.RequestTimeout)
	defer cancel()

	ranked, err := s.deps.engine.RankedRoutes(ctx, req.RouteParams, req.Preferences)
	if err != nil {
		s.discoveryError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, routesResponse{Routes: ranked, Count: len(ranked)})
}

// bestRouteRequest asks for the single best direct or two-hop route
type bestRouteRequest struct {
	SourceChain      string `json:"source_chain"`
	DestinationChain string `json:"destination_chain"`
	Token            string `json:"token"`
	Amount           string `json:"amount"`

	// MaxHops defaults to 2
	MaxHops int `json:"max_hops"`

	// IncludeMultiHop defaults to true
	IncludeMultiHop *bool `json:"include_multi_hop"`
}

// handleBestRoute runs the multi-hop search
func (s *Server) handleBestRoute(w http.ResponseWriter, r *http.Request) {
	var req bestRouteRequest
	if err := decodeJSON(r, &req); err != nil {
		errorResponse(w, http.StatusBadRequest, err.Error())
		return
	}
	if msg := validateParams(model.RouteParams{
		SourceChain:      req.SourceChain,
		DestinationChain: req.DestinationChain,
		SourceToken:      req.Token,
		DestinationToken: req.Token,
		Amount:           req.Amount,
	}); msg != "" {
		errorResponse(w, http.StatusBadRequest, msg)
		return
	}

	maxHops := req.MaxHops
	if maxHops == 0 {
		maxHops = multihop.MaxSupportedHops
	}
	if maxHops < 1 {
		errorResponse(w, http.StatusBadRequest, "max_hops must be at least 1")
		return
	}
	includeMultiHop := req.IncludeMultiHop == nil || *req.IncludeMultiHop

	ctx, cancel := context.WithTimeout(r.Context(), s.config.RequestTimeout)
	defer cancel()

	result, err := s.deps.router.FindBestRoute(ctx, req.SourceChain, req.DestinationChain, req.Token, req.Amount, maxHops, includeMultiHop)
	if err != nil {
		s.discoveryError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

type bridgeHealthResponse struct {
	Bridges         []model.BridgeHealth `json:"bridges"`
	Healthy         int                  `json:"healthy"`
	CircuitBreakers map[string]string    `json:"circuit_breakers,omitempty"`
}

// handleBridgeHealth checks every adapter
func (s *Server) handleBridgeHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), s.config.RequestTimeout)
	defer cancel()

	resp := bridgeHealthResponse{Bridges: s.deps.engine.CheckHealth(ctx)}
	for _, h := range resp.Bridges {
		if h.IsHealthy {
			resp.Healthy++
		}
	}
	if s.deps.breakers != nil {
		resp.CircuitBreakers = make(map[string]string)
		for name, state := range s.deps.breakers.States() {
			resp.CircuitBreakers[name] = state.String()
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleReliabilityBoard lists the latest published scores
func (s *Server) handleReliabilityBoard(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"scores": s.deps.board.All(),
	})
}

// handleReliability scores one bridge on demand. ?window= takes a Go duration.
func (s *Server) handleReliability(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	if _, ok := s.deps.engine.Adapter(name); !ok {
		errorResponse(w, http.StatusNotFound, fmt.Sprintf("unknown bridge %q", name))
		return
	}

	var window time.Duration
	if raw := r.URL.Query().Get("window"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil || d <= 0 {
			errorResponse(w, http.StatusBadRequest, fmt.Sprintf("invalid window %q", raw))
			return
		}
		window = d
	}

	score, err := s.deps.scorer.Score(r.Context(), name, window)
	if err != nil {
		errorResponse(w, http.StatusInternalServerError, fmt.Sprintf("Error scoring bridge: %v", err))
		return
	}
	writeJSON(w, http.StatusOK, score)
}

// handleRecordTransaction ingests one completed, failed or pending transfer
func (s *Server) handleRecordTransaction(w http.ResponseWriter, r *http.Request) {
	var tx model.TransactionRecord
	if err := decodeJSON(r, &tx); err != nil {
		errorResponse(w, http.StatusBadRequest, err.Error())
		return
	}
	tx.BridgeName = strings.ToLower(strings.TrimSpace(tx.BridgeName))
	if tx.CreatedAt.IsZero() {
		tx.CreatedAt = time.Now().UTC()
	}

	if err := s.deps.store.Record(r.Context(), tx); err != nil {
		if errors.Is(err, history.ErrInvalidRecord) {
			errorResponse(w, http.StatusBadRequest, err.Error())
			return
		}
		errorResponse(w, http.StatusInternalServerError, fmt.Sprintf("Error recording transaction: %v", err))
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"status": "recorded"})
}

// discoveryError maps engine and router errors onto HTTP statuses
func (s *Server) discoveryError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, discovery.ErrNoRoutesFound):
		errorResponse(w, http.StatusNotFound, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		errorResponse(w, http.StatusGatewayTimeout, "route search timed out")
	case errors.Is(err, context.Canceled):
		errorResponse(w, http.StatusServiceUnavailable, "route search cancelled")
	default:
		errorResponse(w, http.StatusInternalServerError, fmt.Sprintf("Error discovering routes: %v", err))
	}
}

// validateParams returns a client-facing message for a malformed request
func validateParams(p model.RouteParams) string {
	switch {
	case strings.TrimSpace(p.SourceChain) == "" || strings.TrimSpace(p.DestinationChain) == "":
		return "source_chain and destination_chain are required"
	case strings.TrimSpace(p.SourceToken) == "":
		return "token is required"
	}
	amount, err := model.ParseAmount(p.Amount)
	if err != nil {
		return err.Error()
	}
	if !amount.IsPositive() {
		return "amount must be positive"
	}
	if p.UserAddress != "" && !security.ValidAddress(p.UserAddress) {
		return "user_address is not a valid address"
	}
	return ""
}
