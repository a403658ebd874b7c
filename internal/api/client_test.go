package api_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"blocknotes/internal/api"
	"blocknotes/internal/domain"
	"blocknotes/internal/fakeapi"
	"blocknotes/internal/secret"
	"blocknotes/internal/session"
	"blocknotes/internal/storage"
)

func setup(t *testing.T) (*api.Client, *fakeapi.Server) {
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
	if err := s.Init(ts.URL); err != nil {
		t.Fatal(err)
	}
	return api.New(ts.URL, s), backend
}

func login(t *testing.T, c *api.Client) {
	t.Helper()
	if _, err := c.Login(context.Background(), "ann", "secret1"); err != nil {
		t.Fatalf("login: %v", err)
	}
}

func TestLogin_StoresUserAndCookie(t *testing.T) {
	c, _ := setup(t)
	ctx := context.Background()

	if _, err := c.Login(ctx, "ann", "wrong"); !api.IsStatus(err, http.StatusUnauthorized) {
		t.Fatalf("expected 401, got %v", err)
	}
	login(t, c)

	if u := c.Session().User(); u == nil || u.Username != "ann" {
		t.Fatalf("session user = %+v", u)
	}
	me, err := c.Me(ctx)
	if err != nil || me.Username != "ann" {
		t.Fatalf("Me = %+v, %v", me, err)
	}
}

func TestMutatingCall_RefetchesTokenAfterCSRFInvalid(t *testing.T) {
	c, backend := setup(t)
	ctx := context.Background()
	login(t, c)

	if _, err := c.CreateNote(ctx, "first"); err != nil {
		t.Fatal(err)
	}
	if got := backend.Calls("GET", "/api/csrf-token"); got != 1 {
		t.Fatalf("token fetched %d times, want 1 (cached)", got)
	}

	backend.RotateCSRF()
	_, err := c.CreateNote(ctx, "second")
	var apiErr *api.APIError
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusForbidden || apiErr.Code != api.CodeCSRFInvalid {
		t.Fatalf("expected CSRF_INVALID, got %v", err)
	}
	if _, ok := c.Session().CSRFToken(); ok {
		t.Fatal("stale token still cached")
	}

	// No retry happened; the next call fetches a fresh token and succeeds.
	if _, err := c.CreateNote(ctx, "third"); err != nil {
		t.Fatal(err)
	}
	if got := backend.Calls("GET", "/api/csrf-token"); got != 2 {
		t.Fatalf("token fetched %d times, want 2", got)
	}
}

func TestBlocks_OrderingAndNumericIDs(t *testing.T) {
	c, _ := setup(t)
	ctx := context.Background()
	login(t, c)

	note, err := c.CreateNote(ctx, "n")
	if err != nil {
		t.Fatal(err)
	}
	last, _ := c.CreateBlock(ctx, note.ID, domain.BlockDraft{Type: domain.BlockTypeText, Content: "c"})
	first, _ := c.CreateBlock(ctx, note.ID, domain.BlockDraft{Type: domain.BlockTypeText, Content: "a", BeforeBlockID: &last.ID})
	mid, _ := c.CreateBlock(ctx, note.ID, domain.BlockDraft{Type: domain.BlockTypeCode, Content: "b", BeforeBlockID: &last.ID})

	if _, err := c.UpdateBlock(ctx, mid.ID, "B", "go"); err != nil {
		t.Fatal(err)
	}
	if err := c.MoveBlock(ctx, first.ID, nil); err != nil {
		t.Fatal(err)
	}

	state, err := c.GetNoteState(ctx, note.ID)
	if err != nil {
		t.Fatal(err)
	}
	var got []string
	for _, b := range state.Blocks {
		got = append(got, b.Content)
	}
	if strings.Join(got, ",") != "B,c,a" {
		t.Fatalf("order = %v", got)
	}
	if state.Blocks[0].Language != "go" {
		t.Fatalf("language = %q", state.Blocks[0].Language)
	}

	if err := c.DeleteBlock(ctx, last.ID); err != nil {
		t.Fatal(err)
	}
	if blocks, _ := c.ListBlocks(ctx, note.ID); len(blocks) != 2 {
		t.Fatalf("blocks after delete = %d", len(blocks))
	}
}

func TestNotes_FavoriteAndDelete(t *testing.T) {
	c, _ := setup(t)
	ctx := context.Background()
	login(t, c)

	n, _ := c.CreateNote(ctx, "fav")
	if err := c.SetFavorite(ctx, n.ID, true); err != nil {
		t.Fatal(err)
	}
	got, _ := c.GetNote(ctx, n.ID)
	if !got.Favorite {
		t.Fatal("note not marked favorite")
	}
	if err := c.DeleteNote(ctx, n.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := c.GetNote(ctx, n.ID); !api.IsStatus(err, http.StatusNotFound) {
		t.Fatalf("expected 404, got %v", err)
	}
}

func TestUploadFile(t *testing.T) {
	c, _ := setup(t)
	login(t, c)

	url, err := c.UploadFile(context.Background(), "cat.png", strings.NewReader("PNG"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(url, "/uploads/") || !strings.HasSuffix(url, "cat.png") {
		t.Fatalf("url = %q", url)
	}
}

func TestLogout_ClearsSession(t *testing.T) {
	c, _ := setup(t)
	ctx := context.Background()
	login(t, c)

	if err := c.Logout(ctx); err != nil {
		t.Fatal(err)
	}
	if c.Session().IsAuthenticated() {
		t.Fatal("still authenticated")
	}
	if _, err := c.Me(ctx); !api.IsStatus(err, http.StatusUnauthorized) {
		t.Fatalf("expected 401 after logout, got %v", err)
	}
}

func TestTickets(t *testing.T) {
	c, _ := setup(t)
	ctx := context.Background()
	login(t, c)

	if _, err := c.CreateTicket(ctx, "", ""); !api.IsStatus(err, http.StatusBadRequest) {
		t.Fatalf("expected 400, got %v", err)
	}
	tk, err := c.CreateTicket(ctx, "Bug", "It broke")
	if err != nil || tk.Status != domain.TicketOpen {
		t.Fatalf("ticket = %+v, %v", tk, err)
	}
	list, _ := c.ListTickets(ctx)
	if len(list) != 1 || list[0].Subject != "Bug" {
		t.Fatalf("tickets = %+v", list)
	}
}
