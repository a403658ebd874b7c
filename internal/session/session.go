// Package session holds the per-process client session: the cached CSRF
// token, the current user and the cookie jar. It is passed explicitly to
// whoever needs it; there is no package-level state.
package session

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"sync"

	"blocknotes/internal/domain"
	"blocknotes/internal/secret"
)

// CurrentUserKey is the local storage key holding the serialized user.
const CurrentUserKey = "currentUser"

const cookieSecretKey = "session-cookies"

// LocalStorage is the subset of storage.LocalStore the session needs.
type LocalStorage interface {
	Get(key string) (string, bool, error)
	Set(key, value string) error
	Remove(key string) error
}

// Session implements http.CookieJar so an API client can use it directly;
// Clear swaps the underlying jar.
type Session struct {
	mu      sync.RWMutex
	local   LocalStorage
	secrets secret.SecretStore
	base    *url.URL
	jar     *cookiejar.Jar
	csrf    string
	user    *domain.User
}

// New creates an empty session. Call Init to load persisted state.
func New(local LocalStorage, secrets secret.SecretStore) *Session {
	jar, _ := cookiejar.New(nil)
	return &Session{local: local, secrets: secrets, jar: jar}
}

// Init loads the persisted user and restores cookies for baseURL.
func (s *Session) Init(baseURL string) error {
	base, err := url.Parse(baseURL)
	if err != nil {
		return fmt.Errorf("parse base url: %w", err)
	}

	s.mu.Lock()
	s.base = base
	s.mu.Unlock()

	if _, err := s.Reload(); err != nil {
		return err
	}
	return s.restoreCookies()
}

// restoreCookies loads the persisted session cookies into the jar.
func (s *Session) restoreCookies() error {
	s.mu.RLock()
	base := s.base
	s.mu.RUnlock()
	if base == nil {
		return nil
	}

	raw, err := s.secrets.Get(cookieSecretKey)
	if err != nil {
		return fmt.Errorf("load cookies: %w", err)
	}
	if len(raw) == 0 {
		return nil
	}
	var saved []savedCookie
	if err := json.Unmarshal(raw, &saved); err != nil {
		log.Printf("[session] discarding unreadable cookies: %v", err)
		return nil
	}
	cookies := make([]*http.Cookie, 0, len(saved))
	for _, c := range saved {
		cookies = append(cookies, &http.Cookie{Name: c.Name, Value: c.Value, Path: "/"})
	}

	s.mu.Lock()
	s.jar.SetCookies(base, cookies)
	s.mu.Unlock()
	return nil
}

// Reload re-reads the persisted user and reports whether it changed.
func (s *Session) Reload() (bool, error) {
	raw, ok, err := s.local.Get(CurrentUserKey)
	if err != nil {
		return false, fmt.Errorf("load user: %w", err)
	}
	var user *domain.User
	if ok && raw != "" {
		var u domain.User
		if err := json.Unmarshal([]byte(raw), &u); err != nil {
			log.Printf("[session] ignoring malformed %s: %v", CurrentUserKey, err)
		} else {
			user = &u
		}
	}

	s.mu.Lock()
	changed := !sameUser(s.user, user)
	s.user = user
	if changed {
		// The token belongs to the previous login.
		s.csrf = ""
	}
	s.mu.Unlock()

	// Someone else logged in: their cookie is the one to send now.
	if changed && user != nil {
		if err := s.restoreCookies(); err != nil {
			return changed, err
		}
	}
	return changed, nil
}

// Clear drops every piece of session state, in memory and persisted.
func (s *Session) Clear() error {
	jar, _ := cookiejar.New(nil)

	s.mu.Lock()
	s.csrf = ""
	s.user = nil
	s.jar = jar
	s.mu.Unlock()

	if err := s.local.Remove(CurrentUserKey); err != nil {
		return fmt.Errorf("remove user: %w", err)
	}
	if err := s.secrets.Delete(cookieSecretKey); err != nil {
		return fmt.Errorf("remove cookies: %w", err)
	}
	return nil
}

// ── User ────────────────────────────────────────────────────

func (s *Session) User() *domain.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}

func (s *Session) IsAuthenticated() bool {
	return s.User() != nil
}

// SetUser caches and persists the current user.
func (s *Session) SetUser(u domain.User) error {
	data, err := json.Marshal(u)
	if err != nil {
		return fmt.Errorf("marshal user: %w", err)
	}
	if err := s.local.Set(CurrentUserKey, string(data)); err != nil {
		return fmt.Errorf("save user: %w", err)
	}
	s.mu.Lock()
	s.user = &u
	s.mu.Unlock()
	return nil
}

// ── CSRF ────────────────────────────────────────────────────

func (s *Session) CSRFToken() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.csrf, s.csrf != ""
}

func (s *Session) SetCSRFToken(token string) {
	s.mu.Lock()
	s.csrf = token
	s.mu.Unlock()
}

func (s *Session) InvalidateCSRFToken() {
	s.SetCSRFToken("")
}

// ── http.CookieJar ──────────────────────────────────────────

type savedCookie struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

func (s *Session) SetCookies(u *url.URL, cookies []*http.Cookie) {
	s.mu.Lock()
	s.jar.SetCookies(u, cookies)
	base := s.base
	var current []*http.Cookie
	if base != nil {
		current = s.jar.Cookies(base)
	}
	s.mu.Unlock()

	if base == nil {
		return
	}
	saved := make([]savedCookie, 0, len(current))
	for _, c := range current {
		saved = append(saved, savedCookie{Name: c.Name, Value: c.Value})
	}
	data, _ := json.Marshal(saved)
	if err := s.secrets.Set(cookieSecretKey, data); err != nil {
		log.Printf("[session] persist cookies: %v", err)
	}
}

func (s *Session) Cookies(u *url.URL) []*http.Cookie {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.jar.Cookies(u)
}

func sameUser(a, b *domain.User) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
