// Package apitest provides an in-process Habit Breaker backend for client and
// controller tests.
package apitest

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"

	"habitbreak/internal/models"
)

// Request is one recorded call.
type Request struct {
	Method string
	Path   string
	Query  url.Values
	Body   string
	Auth   string
}

// Server is a fake backend. Zero-value fields serve empty data; tests poke
// the exported fields to shape responses and read Requests afterwards.
type Server struct {
	*httptest.Server

	mu       sync.Mutex
	requests []Request

	// ValidToken, when set, turns on bearer enforcement for the protected
	// routes: any other token (or none) gets a 401.
	ValidToken string

	// Fail maps "METHOD path" to a status code returned with FailBody.
	Fail     map[string]int
	FailBody string

	Tips    map[string][]string
	Journal []models.JournalEntry
	Goals   []models.Goal
	Streak  models.StreakSnapshot
	Metrics func(days int) models.MetricsSnapshot
	Profile models.Profile

	// IssuedToken is handed out by login and register.
	IssuedToken string
}

// New starts a fake backend.
func New() *Server {
	s := &Server{
		Fail:        map[string]int{},
		Tips:        map[string][]string{},
		IssuedToken: "issued-token",
		Metrics: func(days int) models.MetricsSnapshot {
			return models.MetricsSnapshot{Window: days}
		},
	}

	r := chi.NewRouter()
	r.Use(s.record)

	r.Get("/api/tips", func(w http.ResponseWriter, req *http.Request) {
		if s.failed(w, req) {
			return
		}
		habit := req.URL.Query().Get("habit")
		writeJSON(w, models.TipsResponse{Tips: s.Tips[habit]})
	})

	r.Post("/api/auth/login", func(w http.ResponseWriter, req *http.Request) {
		if s.failed(w, req) {
			return
		}
		writeJSON(w, models.AuthResponse{AccessToken: s.IssuedToken})
	})
	r.Post("/api/auth/register", func(w http.ResponseWriter, req *http.Request) {
		if s.failed(w, req) {
			return
		}
		writeJSON(w, models.AuthResponse{AccessToken: s.IssuedToken})
	})
	r.Post("/api/auth/request-reset", s.okHandler)
	r.Post("/api/auth/confirm-reset", s.okHandler)
	r.Post("/api/auth/request-verify", s.okHandler)

	r.Group(func(r chi.Router) {
		r.Use(s.requireAuth)

		r.Get("/api/auth/me", func(w http.ResponseWriter, req *http.Request) {
			if s.failed(w, req) {
				return
			}
			writeJSON(w, s.Profile)
		})
		r.Post("/api/auth/confirm-verify", s.okHandler)
		r.Put("/api/profile", s.okHandler)

		r.Get("/api/journal", func(w http.ResponseWriter, req *http.Request) {
			if s.failed(w, req) {
				return
			}
			writeJSON(w, models.JournalListResponse{Items: s.Journal})
		})
		r.Post("/api/journal", s.okHandler)

		r.Get("/api/goals", func(w http.ResponseWriter, req *http.Request) {
			if s.failed(w, req) {
				return
			}
			writeJSON(w, models.GoalListResponse{Items: s.Goals})
		})
		r.Post("/api/goals", s.okHandler)
		r.Patch("/api/goals/{id}", s.okHandler)

		r.Get("/api/streak", func(w http.ResponseWriter, req *http.Request) {
			if s.failed(w, req) {
				return
			}
			writeJSON(w, s.Streak)
		})

		r.Get("/api/metrics", func(w http.ResponseWriter, req *http.Request) {
			if s.failed(w, req) {
				return
			}
			days, _ := strconv.Atoi(req.URL.Query().Get("days"))
			writeJSON(w, s.Metrics(days))
		})

		r.Post("/api/checkin", s.okHandler)
	})

	s.Server = httptest.NewServer(r)
	return s
}

func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		body, _ := io.ReadAll(req.Body)
		req.Body = io.NopCloser(strings.NewReader(string(body)))

		s.mu.Lock()
		s.requests = append(s.requests, Request{
			Method: req.Method,
			Path:   req.URL.Path,
			Query:  req.URL.Query(),
			Body:   string(body),
			Auth:   req.Header.Get("Authorization"),
		})
		s.mu.Unlock()

		next.ServeHTTP(w, req)
	})
}

func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		s.mu.Lock()
		want := s.ValidToken
		s.mu.Unlock()
		if want != "" && req.Header.Get("Authorization") != "Bearer "+want {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, req)
	})
}

func (s *Server) failed(w http.ResponseWriter, req *http.Request) bool {
	s.mu.Lock()
	code, ok := s.Fail[req.Method+" "+req.URL.Path]
	body := s.FailBody
	s.mu.Unlock()
	if !ok {
		return false
	}
	w.WriteHeader(code)
	if body != "" {
		io.WriteString(w, body)
	}
	return true
}

func (s *Server) okHandler(w http.ResponseWriter, req *http.Request) {
	if s.failed(w, req) {
		return
	}
	w.WriteHeader(http.StatusOK)
	io.WriteString(w, "{}")
}

// SetFail arranges for "METHOD path" to answer with the given status.
func (s *Server) SetFail(method, path string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Fail[method+" "+path] = status
}

// ClearFail removes a failure injection.
func (s *Server) ClearFail(method, path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.Fail, method+" "+path)
}

// Requests returns a copy of all recorded calls.
func (s *Server) RecordedRequests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Request, len(s.requests))
	copy(out, s.requests)
	return out
}

// ResetRequests clears the recorded calls.
func (s *Server) ResetRequests() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = nil
}

// Count returns how many recorded calls match method and exact path.
func (s *Server) Count(method, path string) int {
	n := 0
	for _, r := range s.RecordedRequests() {
		if r.Method == method && r.Path == path {
			n++
		}
	}
	return n
}

// Last returns the most recent recorded call matching method and path prefix.
func (s *Server) Last(method, pathPrefix string) (Request, bool) {
	reqs := s.RecordedRequests()
	for i := len(reqs) - 1; i >= 0; i-- {
		if reqs[i].Method == method && strings.HasPrefix(reqs[i].Path, pathPrefix) {
			return reqs[i], true
		}
	}
	return Request{}, false
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}
