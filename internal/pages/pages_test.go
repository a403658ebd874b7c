package pages_test

import (
	"context"
	"errors"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"blocknotes/internal/api"
	"blocknotes/internal/domain"
	"blocknotes/internal/editor"
	"blocknotes/internal/fakeapi"
	"blocknotes/internal/format"
	"blocknotes/internal/pages"
	"blocknotes/internal/render"
	"blocknotes/internal/router"
	"blocknotes/internal/secret"
	"blocknotes/internal/session"
	"blocknotes/internal/storage"
)

type recordingView struct {
	mu   sync.Mutex
	last render.Node
}

func (v *recordingView) Show(page render.Node) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.last = page
}

func (v *recordingView) page() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.last.Attrs["data-page"]
}

func (v *recordingView) html() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return render.HTML(v.last)
}

type nopSurface struct{}

func (nopSurface) Render(render.Node) {}
func (nopSurface) Focus(domain.BlockID) {}
func (nopSurface) FocusedBlock() (domain.BlockID, bool) { return domain.BlockID{}, false }
func (nopSurface) Select(editor.Selection) {}
func (nopSurface) Status(string) {}
func (nopSurface) Rekey(domain.BlockID, domain.BlockID) {}

type harness struct {
	pages   *pages.Pages
	router  *router.Router
	view    *recordingView
	client  *api.Client
	backend *fakeapi.Server
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	backend := fakeapi.New()
	backend.AddUser("ann", "ann@example.com", "secret1")
	ts := httptest.NewServer(backend)
	t.Cleanup(ts.Close)

	db, err := storage.New(filepath.Join(t.TempDir(), "state.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	s := session.New(storage.NewLocalStore(db), secret.NewMemoryStore())
	s.Init(ts.URL)

	h := &harness{router: router.New(), view: &recordingView{}, client: api.New(ts.URL, s), backend: backend}
	h.pages = pages.New(pages.Config{
		API:       h.client,
		Router:    h.router,
		View:      h.view,
		Surface:   nopSurface{},
		SaveDelay: time.Hour,
	})
	h.pages.RegisterRoutes()
	return h
}

func (h *harness) login(t *testing.T) {
	t.Helper()
	if err := h.pages.Login(context.Background(), pages.LoginForm{Username: "ann", Password: "secret1"}); err != nil {
		t.Fatalf("login: %v", err)
	}
}

func TestGuard_RedirectsToLogin(t *testing.T) {
	h := newHarness(t)
	h.router.Navigate(context.Background(), "/notes")
	if h.view.page() != "login" || h.router.Current() != "/login" {
		t.Fatalf("page = %q current = %q", h.view.page(), h.router.Current())
	}
}

func TestLogin_Validation(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	err := h.pages.Login(ctx, pages.LoginForm{})
	var fe pages.FieldErrors
	if !errors.As(err, &fe) || fe["username"] != pages.MsgRequired || fe["password"] != pages.MsgRequired {
		t.Fatalf("err = %v", err)
	}
	if !strings.Contains(h.view.html(), pages.MsgRequired) {
		t.Fatal("field errors not rendered inline")
	}

	h.pages.Login(ctx, pages.LoginForm{Username: "ann", Password: "nope"})
	if !strings.Contains(h.view.html(), pages.MsgBadCredentials) {
		t.Fatalf("bad credentials not shown: %s", h.view.html())
	}
}

func TestLogin_OpensNotes(t *testing.T) {
	h := newHarness(t)
	h.login(t)
	if h.view.page() != "notes" || h.router.Current() != "/notes" {
		t.Fatalf("page = %q", h.view.page())
	}
	// Authenticated users skip the login page.
	h.router.Navigate(context.Background(), "/login")
	if h.router.Current() != "/notes" {
		t.Fatalf("current = %q", h.router.Current())
	}
}

func TestRegisterForm_Validate(t *testing.T) {
	fe := pages.RegisterForm{Username: "ab", Email: "nope", Password: "123", Confirm: "124"}.Validate()
	want := pages.FieldErrors{
		"username": pages.MsgUsernameShort,
		"email":    pages.MsgEmailInvalid,
		"password": pages.MsgPasswordShort,
		"confirm":  pages.MsgPasswordsDiffer,
	}
	if len(fe) != len(want) {
		t.Fatalf("errors = %v", fe)
	}
	for k, v := range want {
		if fe[k] != v {
			t.Errorf("%s = %q, want %q", k, fe[k], v)
		}
	}
	if ok := (pages.RegisterForm{Username: "bob", Email: "bob@example.com", Password: "123456", Confirm: "123456"}).Validate(); len(ok) != 0 {
		t.Fatalf("valid form rejected: %v", ok)
	}
}

func TestRegister_TakenUsername(t *testing.T) {
	h := newHarness(t)
	err := h.pages.Register(context.Background(), pages.RegisterForm{Username: "ann", Email: "a@b.io", Password: "123456", Confirm: "123456"})
	var fe pages.FieldErrors
	if !errors.As(err, &fe) || fe["username"] != pages.MsgUsernameTaken {
		t.Fatalf("err = %v", err)
	}
}

func TestNewNote_FirstSaveReplacesAddress(t *testing.T) {
	h := newHarness(t)
	h.login(t)
	ctx := context.Background()

	var events []router.Event
	h.router.Subscribe(func(ev router.Event) { events = append(events, ev) })

	if err := h.router.Navigate(ctx, "/note/new"); err != nil {
		t.Fatal(err)
	}
	if h.view.page() != "editor" {
		t.Fatalf("page = %q", h.view.page())
	}
	m := h.pages.Editor()
	id := m.Blocks()[0].ID
	m.UpdateBlockContent(id, format.TextContent{Text: "hello"}.Marshal())
	if err := m.Flush(ctx); err != nil {
		t.Fatal(err)
	}

	noteID, ok := m.NoteID()
	if !ok || h.router.Current() != "/note/"+string(noteID) {
		t.Fatalf("current = %q", h.router.Current())
	}
	last := events[len(events)-1]
	if last.Kind != router.Replaced {
		t.Fatalf("expected a replace event, got %+v", last)
	}

	// Following the rewritten address keeps the same editor.
	h.router.Navigate(ctx, "/note/"+string(noteID))
	if h.pages.Editor() != m {
		t.Fatal("editor reloaded for its own note")
	}
}

func TestOpenNote_LoadsBlocksAndFlushesOnLeave(t *testing.T) {
	h := newHarness(t)
	h.login(t)
	ctx := context.Background()

	note, _ := h.client.CreateNote(ctx, "Existing")
	h.client.CreateBlock(ctx, note.ID, domain.BlockDraft{Type: domain.BlockTypeText, Content: format.TextContent{Text: "stored"}.Marshal()})

	if err := h.router.Navigate(ctx, "/note/"+string(note.ID)); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(h.view.html(), "stored") {
		t.Fatalf("blocks not rendered: %s", h.view.html())
	}

	m := h.pages.Editor()
	m.UpdateBlockContent(m.Blocks()[0].ID, format.TextContent{Text: "edited"}.Marshal())
	h.router.Navigate(ctx, "/notes")

	state, _ := h.client.GetNoteState(ctx, note.ID)
	if got := format.ParseTextContent(state.Blocks[0].Content).Text; got != "edited" {
		t.Fatalf("pending save lost on leave: %q", got)
	}
}

func TestOpenNote_MissingRedirectsToList(t *testing.T) {
	h := newHarness(t)
	h.login(t)
	h.router.Navigate(context.Background(), "/note/99999")
	if h.router.Current() != "/notes" {
		t.Fatalf("current = %q", h.router.Current())
	}
}

func TestSupport_SubmitTicket(t *testing.T) {
	h := newHarness(t)
	h.login(t)
	ctx := context.Background()
	h.router.Navigate(ctx, "/support")

	err := h.pages.SubmitTicket(ctx, pages.TicketForm{Subject: "Hi"})
	var fe pages.FieldErrors
	if !errors.As(err, &fe) || fe["message"] != pages.MsgRequired {
		t.Fatalf("err = %v", err)
	}

	if err := h.pages.SubmitTicket(ctx, pages.TicketForm{Subject: "Hi", Message: "Help"}); err != nil {
		t.Fatal(err)
	}
	html := h.view.html()
	if !strings.Contains(html, pages.MsgTicketSent) || !strings.Contains(html, "Открыт") {
		t.Fatalf("support page = %s", html)
	}
}

func TestLogout_ReturnsToLogin(t *testing.T) {
	h := newHarness(t)
	h.login(t)
	if err := h.pages.Logout(context.Background()); err != nil {
		t.Fatal(err)
	}
	if h.view.page() != "login" || h.client.Session().IsAuthenticated() {
		t.Fatalf("page = %q", h.view.page())
	}
}
