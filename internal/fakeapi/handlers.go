package fakeapi

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"slices"
	"time"

	"github.com/go-chi/chi/v5"
)

// ── Auth ────────────────────────────────────────────────────

func (s *Server) issueCSRFToken(w http.ResponseWriter, r *http.Request) {
	tok := randomToken()
	s.mu.Lock()
	s.tokens[tok] = true
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]string{"csrf_token": tok})
}

func (s *Server) startSession(w http.ResponseWriter, u *user) {
	sid := randomToken()
	s.sessions[sid] = u.ID
	http.SetCookie(w, &http.Cookie{Name: sessionCookie, Value: sid, Path: "/", HttpOnly: true})
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid json")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[req.Username]
	if !ok || u.password != req.Password {
		writeError(w, http.StatusUnauthorized, "INVALID_CREDENTIALS", "invalid username or password")
		return
	}
	s.startSession(w, u)
	writeJSON(w, http.StatusOK, map[string]any{"user": u})
}

func (s *Server) register(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Username == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "BAD_REQUEST", "username and password are required")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.users[req.Username]; exists {
		writeError(w, http.StatusConflict, "USERNAME_TAKEN", "username already taken")
		return
	}
	s.nextID++
	u := &user{ID: s.nextID, Username: req.Username, Email: req.Email, password: req.Password}
	s.users[u.Username] = u
	s.startSession(w, u)
	writeJSON(w, http.StatusCreated, map[string]any{"user": u})
}

func (s *Server) logout(w http.ResponseWriter, r *http.Request) {
	if c, err := r.Cookie(sessionCookie); err == nil {
		s.mu.Lock()
		delete(s.sessions, c.Value)
		s.mu.Unlock()
	}
	http.SetCookie(w, &http.Cookie{Name: sessionCookie, Value: "", Path: "/", MaxAge: -1})
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) me(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.currentUser(r))
}

// ── Notes ───────────────────────────────────────────────────

// ownedNote looks up the note named by the {id} param. Callers hold s.mu.
func (s *Server) ownedNote(w http.ResponseWriter, r *http.Request, uid int64) *note {
	id, ok := idParam(r)
	n := s.notes[id]
	if !ok || n == nil || n.owner != uid {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "note not found")
		return nil
	}
	return n
}

func (s *Server) listNotes(w http.ResponseWriter, r *http.Request) {
	u := s.currentUser(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []*note{}
	for _, n := range s.notes {
		if n.owner == u.ID {
			out = append(out, n)
		}
	}
	slices.SortFunc(out, func(a, b *note) int { return int(b.ID - a.ID) })
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) createNote(w http.ResponseWriter, r *http.Request) {
	u := s.currentUser(r)
	var req struct {
		Title string `json:"title"`
	}
	json.NewDecoder(r.Body).Decode(&req)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	now := time.Now().UTC()
	n := &note{ID: s.nextID, Title: req.Title, CreatedAt: now, UpdatedAt: now, owner: u.ID}
	s.notes[n.ID] = n
	writeJSON(w, http.StatusCreated, n)
}

func (s *Server) getNote(w http.ResponseWriter, r *http.Request) {
	u := s.currentUser(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	if n := s.ownedNote(w, r, u.ID); n != nil {
		writeJSON(w, http.StatusOK, n)
	}
}

func (s *Server) updateNote(w http.ResponseWriter, r *http.Request) {
	u := s.currentUser(r)
	var req struct {
		Title string `json:"title"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid json")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	n := s.ownedNote(w, r, u.ID)
	if n == nil {
		return
	}
	n.Title = req.Title
	n.UpdatedAt = time.Now().UTC()
	writeJSON(w, http.StatusOK, n)
}

func (s *Server) deleteNote(w http.ResponseWriter, r *http.Request) {
	u := s.currentUser(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	n := s.ownedNote(w, r, u.ID)
	if n == nil {
		return
	}
	for _, bid := range n.blocks {
		delete(s.blocks, bid)
	}
	delete(s.notes, n.ID)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) setFavorite(fav bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u := s.currentUser(r)
		s.mu.Lock()
		defer s.mu.Unlock()
		n := s.ownedNote(w, r, u.ID)
		if n == nil {
			return
		}
		n.Favorite = fav
		w.WriteHeader(http.StatusNoContent)
	}
}

// ── Blocks ──────────────────────────────────────────────────

func (s *Server) orderedBlocks(n *note) []*block {
	out := make([]*block, 0, len(n.blocks))
	for i, id := range n.blocks {
		b := s.blocks[id]
		b.Position = i
		out = append(out, b)
	}
	return out
}

// ownedBlock returns the block named by {id} and its note. Callers hold s.mu.
func (s *Server) ownedBlock(w http.ResponseWriter, r *http.Request, uid int64) (*block, *note) {
	id, ok := idParam(r)
	b := s.blocks[id]
	if !ok || b == nil || s.notes[b.NoteID].owner != uid {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "block not found")
		return nil, nil
	}
	return b, s.notes[b.NoteID]
}

// insertBefore places id before the block before (or at the end).
func insertBefore(order []int64, id int64, before *int64) []int64 {
	if before != nil {
		if i := slices.Index(order, *before); i >= 0 {
			return slices.Insert(order, i, id)
		}
	}
	return append(order, id)
}

func (s *Server) listBlocks(w http.ResponseWriter, r *http.Request) {
	u := s.currentUser(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	if n := s.ownedNote(w, r, u.ID); n != nil {
		writeJSON(w, http.StatusOK, s.orderedBlocks(n))
	}
}

func (s *Server) createBlock(w http.ResponseWriter, r *http.Request) {
	u := s.currentUser(r)
	var req struct {
		Type          string `json:"type"`
		Content       string `json:"content"`
		Language      string `json:"language"`
		BeforeBlockID *int64 `json:"before_block_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid json")
		return
	}
	switch req.Type {
	case "text", "code", "image":
	default:
		writeError(w, http.StatusBadRequest, "BAD_REQUEST", "unknown block type")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	n := s.ownedNote(w, r, u.ID)
	if n == nil {
		return
	}
	s.nextID++
	b := &block{ID: s.nextID, NoteID: n.ID, Type: req.Type, Content: req.Content, Language: req.Language}
	s.blocks[b.ID] = b
	n.blocks = insertBefore(n.blocks, b.ID, req.BeforeBlockID)
	s.orderedBlocks(n)
	writeJSON(w, http.StatusCreated, b)
}

func (s *Server) updateBlock(w http.ResponseWriter, r *http.Request) {
	u := s.currentUser(r)
	var req struct {
		Content  *string `json:"content"`
		Language *string `json:"language"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid json")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	b, _ := s.ownedBlock(w, r, u.ID)
	if b == nil {
		return
	}
	if req.Content != nil {
		b.Content = *req.Content
	}
	if req.Language != nil {
		b.Language = *req.Language
	}
	writeJSON(w, http.StatusOK, b)
}

func (s *Server) moveBlock(w http.ResponseWriter, r *http.Request) {
	u := s.currentUser(r)
	var req struct {
		BeforeBlockID *int64 `json:"before_block_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid json")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	b, n := s.ownedBlock(w, r, u.ID)
	if b == nil {
		return
	}
	if req.BeforeBlockID != nil && *req.BeforeBlockID == b.ID {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	n.blocks = slices.DeleteFunc(n.blocks, func(id int64) bool { return id == b.ID })
	n.blocks = insertBefore(n.blocks, b.ID, req.BeforeBlockID)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) deleteBlock(w http.ResponseWriter, r *http.Request) {
	u := s.currentUser(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	b, n := s.ownedBlock(w, r, u.ID)
	if b == nil {
		return
	}
	n.blocks = slices.DeleteFunc(n.blocks, func(id int64) bool { return id == b.ID })
	delete(s.blocks, b.ID)
	w.WriteHeader(http.StatusNoContent)
}

// ── Files ───────────────────────────────────────────────────

func (s *Server) upload(w http.ResponseWriter, r *http.Request) {
	f, hdr, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "BAD_REQUEST", "missing file")
		return
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		writeError(w, http.StatusBadRequest, "BAD_REQUEST", "read file")
		return
	}
	s.mu.Lock()
	s.nextID++
	name := fmt.Sprintf("%d-%s", s.nextID, filepath.Base(hdr.Filename))
	s.uploads[name] = data
	s.mu.Unlock()
	writeJSON(w, http.StatusCreated, map[string]string{"url": "/uploads/" + name})
}

func (s *Server) serveUpload(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	data, ok := s.uploads[chi.URLParam(r, "name")]
	s.mu.Unlock()
	if !ok {
		http.NotFound(w, r)
		return
	}
	w.Write(data)
}

// ── Tickets ─────────────────────────────────────────────────

func (s *Server) listTickets(w http.ResponseWriter, r *http.Request) {
	u := s.currentUser(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []*ticket{}
	for _, t := range s.tickets {
		if t.owner == u.ID {
			out = append(out, t)
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) createTicket(w http.ResponseWriter, r *http.Request) {
	u := s.currentUser(r)
	var req struct {
		Subject string `json:"subject"`
		Message string `json:"message"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Subject == "" || req.Message == "" {
		writeError(w, http.StatusBadRequest, "BAD_REQUEST", "subject and message are required")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	t := &ticket{ID: s.nextID, Subject: req.Subject, Message: req.Message, Status: "open", CreatedAt: time.Now().UTC(), owner: u.ID}
	s.tickets = append(s.tickets, t)
	writeJSON(w, http.StatusCreated, t)
}
