package app

import (
	"context"
	"errors"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"strings"
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
	"blocknotes/internal/service"
	"blocknotes/internal/session"
	"blocknotes/internal/storage"
)

// newTestApp wires an App the way Startup does, minus the Wails runtime.
func newTestApp(t *testing.T) (*App, *service.MockEmitter, *fakeapi.Server) {
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

	sess := session.New(storage.NewLocalStore(db), secret.NewMemoryStore())
	if err := sess.Init(ts.URL); err != nil {
		t.Fatal(err)
	}

	ctx := context.Background()
	em := &service.MockEmitter{}
	a := &App{
		ctx:       ctx,
		db:        db,
		session:   sess,
		api:       api.New(ts.URL, sess),
		router:    router.New(),
		approvals: storage.NewApprovalStore(db),
	}
	a.surface = newSurface(ctx, em)
	a.pages = pages.New(pages.Config{
		API:       a.api,
		Router:    a.router,
		View:      a.surface,
		Surface:   a.surface,
		SaveDelay: time.Hour, // saves happen on Flush only
	})
	a.pages.RegisterRoutes()
	return a, em, backend
}

func lastPage(t *testing.T, em *service.MockEmitter) string {
	t.Helper()
	shown := em.Named(service.EventPage)
	if len(shown) == 0 {
		t.Fatal("no page shown")
	}
	return shown[len(shown)-1].Data.(renderPayload).Node.Attrs["data-page"]
}

func TestApp_LoginAndEditNewNote(t *testing.T) {
	a, em, backend := newTestApp(t)

	if err := a.Navigate("/notes"); err != nil {
		t.Fatal(err)
	}
	if a.CurrentPath() != "/login" || lastPage(t, em) != "login" {
		t.Fatalf("unauthenticated user at %q", a.CurrentPath())
	}

	if err := a.Login(pages.LoginForm{Username: "ann", Password: "secret1"}); err != nil {
		t.Fatal(err)
	}
	if a.CurrentPath() != "/notes" || a.CurrentUser() == nil {
		t.Fatalf("after login at %q, user %+v", a.CurrentPath(), a.CurrentUser())
	}

	if err := a.Navigate("/note/new"); err != nil {
		t.Fatal(err)
	}
	m := a.pages.Editor()
	if m == nil {
		t.Fatal("editor not open")
	}
	first := m.Blocks()[0].ID.String()
	if err := a.FocusChanged(first); err != nil {
		t.Fatal(err)
	}
	if err := a.HandleInput(first, render.InputEvent{Markup: "<b>hi</b> there"}); err != nil {
		t.Fatal(err)
	}
	if err := m.Flush(context.Background()); err != nil {
		t.Fatal(err)
	}

	noteID, ok := m.NoteID()
	if !ok {
		t.Fatal("note was not created")
	}
	if want := "/note/" + string(noteID); a.CurrentPath() != want {
		t.Fatalf("address = %q, want %q", a.CurrentPath(), want)
	}
	if a.SaveStatus() != editor.StatusSaved {
		t.Fatalf("status = %q", a.SaveStatus())
	}

	n, _ := strconv.ParseInt(string(noteID), 10, 64)
	contents := backend.BlockContents(n)
	if len(contents) != 1 {
		t.Fatalf("blocks on backend = %v", contents)
	}
	if c := format.ParseTextContent(contents[0]); c.Text != "hi there" || len(c.Formats) != 1 || !c.Formats[0].Bold {
		t.Fatalf("saved content = %+v", c)
	}

	// The surface followed the block from its local id to the persisted one.
	focused, ok := a.surface.FocusedBlock()
	if !ok || !focused.IsPersisted() {
		t.Fatalf("focus after save = %v, %v", focused, ok)
	}
	if len(em.Named(service.EventRekey)) != 1 {
		t.Fatalf("rekey events = %d", len(em.Named(service.EventRekey)))
	}
}

func TestApp_EditorBindingsWithoutNote(t *testing.T) {
	a, _, _ := newTestApp(t)
	if err := a.Login(pages.LoginForm{Username: "ann", Password: "secret1"}); err != nil {
		t.Fatal(err)
	}
	if _, err := a.AddBlock("", string(domain.BlockTypeText)); !errors.Is(err, errNoEditor) {
		t.Fatalf("AddBlock err = %v", err)
	}
	if err := a.SaveTitle("x"); !errors.Is(err, errNoEditor) {
		t.Fatalf("SaveTitle err = %v", err)
	}
	if err := a.FocusChanged("local:x"); err != nil {
		t.Fatal(err)
	}
	if err := a.FocusChanged(""); err != nil {
		t.Fatal(err)
	}
	if _, ok := a.surface.FocusedBlock(); ok {
		t.Fatal("focus not cleared")
	}
}

func TestApp_AddMoveAndSplit(t *testing.T) {
	a, em, _ := newTestApp(t)
	if err := a.Login(pages.LoginForm{Username: "ann", Password: "secret1"}); err != nil {
		t.Fatal(err)
	}
	if err := a.Navigate("/note/new"); err != nil {
		t.Fatal(err)
	}
	m := a.pages.Editor()
	first := m.Blocks()[0].ID.String()

	code, err := a.AddBlock(first, string(domain.BlockTypeCode))
	if err != nil || code == "" {
		t.Fatalf("AddBlock = %q, %v", code, err)
	}
	if err := a.MoveBlock(code, first); err != nil {
		t.Fatal(err)
	}
	if got := m.Blocks()[0].ID.String(); got != code {
		t.Fatalf("first block = %q, want %q", got, code)
	}

	if err := a.HandleInput(first, render.InputEvent{Markup: "say print(1) now"}); err != nil {
		t.Fatal(err)
	}
	id, err := a.SplitIntoCode(SelectionInput{BlockID: first, Start: 4, End: 12})
	if err != nil {
		t.Fatal(err)
	}
	b, ok := m.Block(mustParse(t, id))
	if !ok || b.Type != domain.BlockTypeCode || render.ParseCodeContent(b.Content).Content != "print(1)" {
		t.Fatalf("split block = %+v", b)
	}
	if len(em.Named(service.EventRender)) == 0 {
		t.Fatal("editor never rendered")
	}
}

func mustParse(t *testing.T, s string) domain.BlockID {
	t.Helper()
	id, err := domain.ParseBlockID(s)
	if err != nil {
		t.Fatal(err)
	}
	return id
}

func TestSurface_Events(t *testing.T) {
	em := &service.MockEmitter{}
	s := newSurface(context.Background(), em)

	local := domain.LocalID("a")
	s.Focus(local)
	s.Rekey(local, domain.PersistedID("7"))
	if id, ok := s.FocusedBlock(); !ok || id != domain.PersistedID("7") {
		t.Fatalf("focus after rekey = %v", id)
	}

	s.Show(render.El("main", map[string]string{"data-page": "notes"}, render.Txt("x")))
	if _, ok := s.FocusedBlock(); ok {
		t.Fatal("showing a page must drop focus")
	}
	shown := em.Named(service.EventPage)
	if len(shown) != 1 || !strings.Contains(shown[0].Data.(renderPayload).HTML, `data-page="notes"`) {
		t.Fatalf("page events = %+v", shown)
	}

	s.Status(editor.StatusSaving)
	if s.lastStatus() != editor.StatusSaving || len(em.Named(service.EventStatus)) != 1 {
		t.Fatal("status not recorded")
	}
}
