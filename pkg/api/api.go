// Package api exposes the dynhosts daemon over JSON-over-HTTP on a Unix
// domain socket. Handlers translate requests into engine calls and map
// hosts errors onto status codes.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/lc/dynhosts/internal/buildinfo"
	"github.com/lc/dynhosts/internal/engine"
	"github.com/lc/dynhosts/internal/hosts"
	"github.com/lc/dynhosts/internal/log"
	"github.com/lc/dynhosts/internal/socket"
)

// RequestIDHeader carries the per-request ID on every response.
const RequestIDHeader = "X-Request-Id"

// AddRequest inserts one record. Aliases may be a string or a list.
type AddRequest = hosts.Record

// PinRequest asks the daemon to resolve Hostname upstream and record the answers.
type PinRequest struct {
	Hostname string        `json:"hostname"`
	Aliases  hosts.Aliases `json:"aliases,omitempty"`
}

// PinResponse lists the addresses that were recorded.
type PinResponse struct {
	Addresses []string `json:"addresses"`
}

// AddressResponse is the first address for a name.
type AddressResponse struct {
	Address string `json:"address"`
}

// NameResponse is the first name for an address.
type NameResponse struct {
	Name string `json:"name"`
}

// StatusResponse represents the server status response.
type StatusResponse struct {
	Stats   hosts.Stats   `json:"stats"`
	Uptime  time.Duration `json:"uptime"`
	Version string        `json:"version"`
	Commit  string        `json:"commit"`
}

// Server handles HTTP API requests over a Unix domain socket.
type Server struct {
	eng *engine.Engine
	mux *http.ServeMux
	srv *http.Server
}

// New creates a server backed by eng.
func New(eng *engine.Engine) *Server {
	s := &Server{
		eng: eng,
		mux: http.NewServeMux(),
	}

	s.mux.HandleFunc("/v1/hosts", s.handleAdd)
	s.mux.HandleFunc("/v1/pin", s.handlePin)
	s.mux.HandleFunc("/v1/address", s.handleAddress)
	s.mux.HandleFunc("/v1/addresses", s.handleAddresses)
	s.mux.HandleFunc("/v1/name", s.handleName)
	s.mux.HandleFunc("/v1/names", s.handleNames)
	s.mux.HandleFunc("/v1/entries", s.handleEntries)
	s.mux.HandleFunc("/v1/status", s.handleStatus)

	s.srv = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler returns the routed handler with request IDs attached.
func (s *Server) Handler() http.Handler {
	return withRequestID(s.mux)
}

// ListenAndServe serves on the Unix socket at path.
func (s *Server) ListenAndServe(path string) error {
	ln, err := socket.Listen(path)
	if err != nil {
		return err
	}
	log.Info("api: listening", "socket", path)
	return s.srv.Serve(ln)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error { return s.srv.Shutdown(ctx) }

func withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)
		log.Debug("api: request", "id", id, "method", r.Method, "path", r.URL.Path, "query", r.URL.RawQuery)
		next.ServeHTTP(w, r)
	})
}

// handleAdd inserts a record.
func (s *Server) handleAdd(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodPost) {
		return
	}
	var req AddRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := s.eng.Add(req); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handlePin resolves and records a hostname.
func (s *Server) handlePin(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodPost) {
		return
	}
	var req PinRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	addrs, err := s.eng.Pin(r.Context(), req.Hostname, req.Aliases)
	if err != nil {
		if errors.Is(err, hosts.ErrValidation) {
			writeError(w, err)
			return
		}
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}
	writeJSON(w, PinResponse{Addresses: addrs})
}

func (s *Server) handleAddress(w http.ResponseWriter, r *http.Request) {
	name, ok := query(w, r, "name")
	if !ok {
		return
	}
	addr, err := s.eng.Address(name)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, AddressResponse{Address: addr})
}

func (s *Server) handleAddresses(w http.ResponseWriter, r *http.Request) {
	if name, ok := query(w, r, "name"); ok {
		writeJSON(w, s.eng.Addresses(name))
	}
}

func (s *Server) handleName(w http.ResponseWriter, r *http.Request) {
	addr, ok := query(w, r, "addr")
	if !ok {
		return
	}
	name, err := s.eng.Name(addr)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, NameResponse{Name: name})
}

func (s *Server) handleNames(w http.ResponseWriter, r *http.Request) {
	if addr, ok := query(w, r, "addr"); ok {
		writeJSON(w, s.eng.Names(addr))
	}
}

func (s *Server) handleEntries(w http.ResponseWriter, r *http.Request) {
	if allow(w, r, http.MethodGet) {
		writeJSON(w, s.eng.Dump())
	}
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodGet) {
		return
	}
	writeJSON(w, StatusResponse{
		Stats:   s.eng.Stats(),
		Uptime:  s.eng.Uptime(),
		Version: buildinfo.Version,
		Commit:  buildinfo.Commit,
	})
}

// --------------------------- helpers -------------------------------

func allow(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method != method {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return false
	}
	return true
}

// query returns the required GET parameter key.
func query(w http.ResponseWriter, r *http.Request, key string) (string, bool) {
	if !allow(w, r, http.MethodGet) {
		return "", false
	}
	if !r.URL.Query().Has(key) {
		http.Error(w, key+" required", http.StatusBadRequest)
		return "", false
	}
	return r.URL.Query().Get(key), true
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, hosts.ErrValidation):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, hosts.ErrNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, fmt.Sprintf("Error encoding response: %v", err), http.StatusInternalServerError)
	}
}
