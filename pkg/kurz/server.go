package kurz

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/mux"
)

const (
	serverReadTimeout  = 10 * time.Second
	serverWriteTimeout = 10 * time.Second
	serverIdleTimeout  = 120 * time.Second

	maxCreateBodyBytes = 4 * 1024
)

// Metrics tracks service counters for the stats endpoint.
type Metrics struct {
	mu        sync.RWMutex
	startedAt time.Time
	lastHit   time.Time
	created   int64
	redirects int64
	misses    int64
}

// NewMetrics creates a metrics collector.
func NewMetrics() *Metrics {
	return &Metrics{startedAt: time.Now()}
}

// RecordCreated counts a created link.
func (m *Metrics) RecordCreated() { atomic.AddInt64(&m.created, 1) }

// RecordRedirect counts a served redirect.
func (m *Metrics) RecordRedirect() {
	atomic.AddInt64(&m.redirects, 1)
	m.mu.Lock()
	m.lastHit = time.Now()
	m.mu.Unlock()
}

// RecordMiss counts a lookup for an unknown key.
func (m *Metrics) RecordMiss() { atomic.AddInt64(&m.misses, 1) }

// Stats is the snapshot rendered by the stats endpoint.
type Stats struct {
	StartedAt time.Time `json:"started_at"`
	LastHit   time.Time `json:"last_hit,omitempty"`
	Created   int64     `json:"created"`
	Redirects int64     `json:"redirects"`
	Misses    int64     `json:"misses"`
}

// Snapshot returns the current statistics.
func (m *Metrics) Snapshot() Stats {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return Stats{
		StartedAt: m.startedAt,
		LastHit:   m.lastHit,
		Created:   atomic.LoadInt64(&m.created),
		Redirects: atomic.LoadInt64(&m.redirects),
		Misses:    atomic.LoadInt64(&m.misses),
	}
}

// Server is the HTTP surface of the redirect service.
type Server struct {
	store   *Store
	metrics *Metrics
	baseURL string // external base used when reporting short URLs
}

// NewServer creates a Server around the given store. baseURL is the
// externally visible prefix for short links, e.g. "http://kurz.internal".
func NewServer(store *Store, metrics *Metrics, baseURL string) *Server {
	return &Server{store: store, metrics: metrics, baseURL: baseURL}
}

// Handler builds the HTTP routes.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/api/links", s.handleCreate).Methods(http.MethodPost)
	r.HandleFunc("/api/links", s.handleList).Methods(http.MethodGet)
	r.HandleFunc("/api/stats", s.handleStats).Methods(http.MethodGet)
	r.HandleFunc("/{key:[0-9a-zA-Z]+}", s.handleRedirect).Methods(http.MethodGet)
	return r
}

// ListenAndServe runs the service on addr until the server fails.
func (s *Server) ListenAndServe(addr string) error {
	log.Printf("[KURZ] Starting redirect service on %s", addr)
	server := &http.Server{
		Addr:         addr,
		Handler:      s.Handler(),
		ReadTimeout:  serverReadTimeout,
		WriteTimeout: serverWriteTimeout,
		IdleTimeout:  serverIdleTimeout,
	}
	return server.ListenAndServe()
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	if _, err := fmt.Fprintf(w, "ok - %d links stored\n", s.store.Len()); err != nil {
		log.Printf("[ERROR] Failed to write health response: %v", err)
	}
}

type createRequest struct {
	URL string `json:"url"`
}

type createResponse struct {
	Key      string `json:"key"`
	ShortURL string `json:"short_url"`
	Target   string `json:"target"`
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	body := http.MaxBytesReader(w, r.Body, maxCreateBodyBytes)
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	link, err := s.store.Add(req.URL)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.metrics.RecordCreated()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(createResponse{
		Key:      link.Key,
		ShortURL: s.baseURL + "/" + link.Key,
		Target:   link.Target,
	}); err != nil {
		log.Printf("[ERROR] Failed to encode create response: %v", err)
	}
}

func (s *Server) handleList(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(s.store.All()); err != nil {
		log.Printf("[ERROR] Failed to encode link list: %v", err)
	}
}

func (s *Server) handleStats(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(s.metrics.Snapshot()); err != nil {
		log.Printf("[ERROR] Failed to encode stats: %v", err)
	}
}

func (s *Server) handleRedirect(w http.ResponseWriter, r *http.Request) {
	key := mux.Vars(r)["key"]
	target, err := s.store.Resolve(key)
	if errors.Is(err, ErrNotFound) {
		s.metrics.RecordMiss()
		writeError(w, http.StatusNotFound, "unknown key")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "lookup failed")
		return
	}
	s.metrics.RecordRedirect()
	http.Redirect(w, r, target, http.StatusFound)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(map[string]string{"error": msg}); err != nil {
		log.Printf("[ERROR] Failed to encode error response: %v", err)
	}
}
