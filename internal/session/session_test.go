package session_test

import (
	"net/http"
	"net/url"
	"path/filepath"
	"testing"
	"time"

	"blocknotes/internal/domain"
	"blocknotes/internal/secret"
	"blocknotes/internal/session"
	"blocknotes/internal/storage"
)

func newSession(t *testing.T) (*session.Session, *storage.LocalStore, secret.SecretStore, string) {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "state.db")
	db, err := storage.New(dbPath)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	local := storage.NewLocalStore(db)
	secrets := secret.NewMemoryStore()
	return session.New(local, secrets), local, secrets, dbPath
}

func TestSession_InitLoadsPersistedUser(t *testing.T) {
	s, local, secrets, _ := newSession(t)
	local.Set(session.CurrentUserKey, `{"id":7,"username":"ann","email":"a@x.io"}`)

	again := session.New(local, secrets)
	if err := again.Init("http://backend.test"); err != nil {
		t.Fatal(err)
	}
	u := again.User()
	if u == nil || u.ID != "7" || u.Username != "ann" {
		t.Fatalf("user = %+v", u)
	}
	if s.IsAuthenticated() {
		t.Fatal("uninitialised session must not be authenticated")
	}
}

func TestSession_ClearRemovesPersistedUser(t *testing.T) {
	s, local, _, _ := newSession(t)
	s.Init("http://backend.test")
	s.SetUser(domain.User{ID: "1", Username: "bob"})
	s.SetCSRFToken("tok")

	if err := s.Clear(); err != nil {
		t.Fatal(err)
	}
	if s.IsAuthenticated() {
		t.Fatal("still authenticated after Clear")
	}
	if _, ok := s.CSRFToken(); ok {
		t.Fatal("csrf token survived Clear")
	}
	if _, ok, _ := local.Get(session.CurrentUserKey); ok {
		t.Fatal("persisted user survived Clear")
	}
}

func TestSession_CookiesPersistAcrossInit(t *testing.T) {
	s, local, secrets, _ := newSession(t)
	base, _ := url.Parse("http://backend.test")
	s.Init(base.String())
	s.SetCookies(base, []*http.Cookie{{Name: "sid", Value: "abc", Path: "/"}})

	restored := session.New(local, secrets)
	restored.Init(base.String())
	cookies := restored.Cookies(base)
	if len(cookies) != 1 || cookies[0].Value != "abc" {
		t.Fatalf("cookies = %+v", cookies)
	}

	restored.Clear()
	if len(restored.Cookies(base)) != 0 {
		t.Fatal("cookies survived Clear")
	}
}

func TestWatcher_ReportsExternalLogout(t *testing.T) {
	s, _, _, dbPath := newSession(t)
	s.Init("http://backend.test")
	s.SetUser(domain.User{ID: "1", Username: "bob"})

	changes := make(chan bool, 4)
	w, err := session.Watch(s, dbPath, func(auth bool) { changes <- auth })
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()

	// A second process sharing the same database file.
	db, err := storage.New(dbPath)
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()
	storage.NewLocalStore(db).Remove(session.CurrentUserKey)

	select {
	case auth := <-changes:
		if auth {
			t.Fatal("expected logout to be reported")
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no change reported")
	}
}

func TestSession_ReloadPicksUpOtherProcessLogin(t *testing.T) {
	dir := t.TempDir()
	db, err := storage.New(filepath.Join(dir, "state.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()
	local := storage.NewLocalStore(db)
	base, _ := url.Parse("http://backend.test")

	desktop := session.New(local, secret.NewFileStore(filepath.Join(dir, "secrets")))
	desktop.Init(base.String())
	tool := session.New(local, secret.NewFileStore(filepath.Join(dir, "secrets")))
	tool.Init(base.String())

	tool.SetCSRFToken("stale")
	desktop.SetCookies(base, []*http.Cookie{{Name: "sid", Value: "fresh", Path: "/"}})
	desktop.SetUser(domain.User{ID: "3", Username: "ann"})

	changed, err := tool.Reload()
	if err != nil || !changed {
		t.Fatalf("Reload() = %v, %v", changed, err)
	}
	cookies := tool.Cookies(base)
	if len(cookies) != 1 || cookies[0].Value != "fresh" {
		t.Fatalf("cookies = %+v", cookies)
	}
	if tok, ok := tool.CSRFToken(); ok {
		t.Fatalf("csrf token %q survived another login", tok)
	}
}
