// Package fakeapi is an in-memory implementation of the notes backend. It
// serves the same REST surface as the real server, enforces CSRF tokens and
// session cookies, and counts calls so tests can assert on traffic.
package fakeapi

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

const sessionCookie = "sid"

type user struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email,omitempty"`
	password string
}

type note struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	Favorite  bool      `json:"is_favorite"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	owner     int64
	blocks    []int64
}

type block struct {
	ID       int64  `json:"id"`
	NoteID   int64  `json:"note_id"`
	Type     string `json:"type"`
	Content  string `json:"content"`
	Language string `json:"language,omitempty"`
	Position int    `json:"position"`
}

type ticket struct {
	ID        int64     `json:"id"`
	Subject   string    `json:"subject"`
	Message   string    `json:"message"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	owner     int64
}

// Server is the fake backend. The zero value is not usable; call New.
type Server struct {
	mu       sync.Mutex
	nextID   int64
	users    map[string]*user // username -> user
	sessions map[string]int64 // cookie -> user id
	tokens   map[string]bool
	notes    map[int64]*note
	blocks   map[int64]*block
	tickets  []*ticket
	uploads  map[string][]byte
	calls    map[string]int // "METHOD /pattern" -> count
	router   chi.Router
}

func New() *Server {
	s := &Server{
		users:    make(map[string]*user),
		sessions: make(map[string]int64),
		tokens:   make(map[string]bool),
		notes:    make(map[int64]*note),
		blocks:   make(map[int64]*block),
		uploads:  make(map[string][]byte),
		calls:    make(map[string]int),
	}
	s.router = s.routes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.countCalls)

	r.Get("/uploads/{name}", s.serveUpload)

	r.Route("/api", func(r chi.Router) {
		r.Use(s.requireCSRF)

		r.Get("/csrf-token", s.issueCSRFToken)
		r.Post("/auth/login", s.login)
		r.Post("/auth/register", s.register)

		r.Group(func(r chi.Router) {
			r.Use(s.requireSession)

			r.Post("/auth/logout", s.logout)
			r.Get("/auth/me", s.me)

			r.Get("/notes", s.listNotes)
			r.Post("/notes", s.createNote)
			r.Get("/notes/{id}", s.getNote)
			r.Put("/notes/{id}", s.updateNote)
			r.Delete("/notes/{id}", s.deleteNote)
			r.Post("/notes/{id}/favorite", s.setFavorite(true))
			r.Delete("/notes/{id}/favorite", s.setFavorite(false))

			r.Get("/notes/{id}/blocks", s.listBlocks)
			r.Post("/notes/{id}/blocks", s.createBlock)
			r.Patch("/blocks/{id}", s.updateBlock)
			r.Put("/blocks/{id}/position", s.moveBlock)
			r.Delete("/blocks/{id}", s.deleteBlock)

			r.Post("/files/upload", s.upload)

			r.Get("/tickets", s.listTickets)
			r.Post("/tickets", s.createTicket)
		})
	})
	return r
}

// ── Test hooks ──────────────────────────────────────────────

// Calls returns how many requests hit the route, e.g. Calls("POST", "/api/notes").
func (s *Server) Calls(method, pattern string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[method+" "+pattern]
}

// RotateCSRF invalidates every issued CSRF token.
func (s *Server) RotateCSRF() {
	s.mu.Lock()
	s.tokens = make(map[string]bool)
	s.mu.Unlock()
}

// AddUser registers an account directly.
func (s *Server) AddUser(username, email, password string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	s.users[username] = &user{ID: s.nextID, Username: username, Email: email, password: password}
}

// BlockContents returns the ordered contents of a note's blocks.
func (s *Server) BlockContents(noteID int64) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.notes[noteID]
	if !ok {
		return nil
	}
	out := make([]string, 0, len(n.blocks))
	for _, id := range n.blocks {
		out = append(out, s.blocks[id].Content)
	}
	return out
}

// ── Middleware ──────────────────────────────────────────────

func (s *Server) countCalls(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, r)
		pattern := chi.RouteContext(r.Context()).RoutePattern()
		s.mu.Lock()
		s.calls[r.Method+" "+pattern]++
		s.mu.Unlock()
	})
}

func (s *Server) requireCSRF(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			s.mu.Lock()
			ok := s.tokens[r.Header.Get("X-CSRF-Token")]
			s.mu.Unlock()
			if !ok {
				writeError(w, http.StatusForbidden, "CSRF_INVALID", "invalid csrf token")
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) requireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.currentUser(r) == nil {
			writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "not logged in")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) currentUser(r *http.Request) *user {
	c, err := r.Cookie(sessionCookie)
	if err != nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.sessions[c.Value]
	if !ok {
		return nil
	}
	for _, u := range s.users {
		if u.ID == id {
			return u
		}
	}
	return nil
}

// ── Helpers ─────────────────────────────────────────────────

func randomToken() string {
	b := make([]byte, 16)
	rand.Read(b)
	return hex.EncodeToString(b)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, map[string]string{"error": msg, "code": code})
}

func idParam(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	return id, err == nil
}
