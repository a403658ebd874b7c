package editor_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"blocknotes/internal/domain"
	"blocknotes/internal/editor"
	"blocknotes/internal/render"
)

// fakeAPI records every call. Gates, when set, block the matching call
// until closed; the entered channels signal that the call has started.
type fakeAPI struct {
	mu     sync.Mutex
	nextID int
	calls  []string

	createNoteGate    chan struct{}
	createNoteEntered chan struct{}
	createBlockGate   chan struct{}
	createBlkEntered  chan struct{}
	failUpdates       bool

	drafts  []domain.BlockDraft
	updates map[domain.ServerID]string
	deleted []domain.ServerID
	moves   []string
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{nextID: 100, updates: make(map[domain.ServerID]string)}
}

func (f *fakeAPI) record(call string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
	f.nextID++
	return f.nextID
}

func (f *fakeAPI) count(prefix string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if strings.HasPrefix(c, prefix) {
			n++
		}
	}
	return n
}

func signal(ch chan struct{}) {
	if ch != nil {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

func (f *fakeAPI) CreateNote(ctx context.Context, title string) (domain.Note, error) {
	signal(f.createNoteEntered)
	if f.createNoteGate != nil {
		<-f.createNoteGate
	}
	id := f.record("CreateNote")
	return domain.Note{ID: domain.ServerID(fmt.Sprint(id)), Title: title}, nil
}

func (f *fakeAPI) UpdateNote(ctx context.Context, id domain.ServerID, title string) (domain.Note, error) {
	f.record("UpdateNote " + string(id))
	return domain.Note{ID: id, Title: title}, nil
}

func (f *fakeAPI) SetFavorite(ctx context.Context, id domain.ServerID, favorite bool) error {
	f.record(fmt.Sprintf("SetFavorite %s %v", id, favorite))
	return nil
}

func (f *fakeAPI) CreateBlock(ctx context.Context, noteID domain.ServerID, draft domain.BlockDraft) (domain.RemoteBlock, error) {
	signal(f.createBlkEntered)
	if f.createBlockGate != nil {
		<-f.createBlockGate
	}
	id := f.record("CreateBlock")
	f.mu.Lock()
	f.drafts = append(f.drafts, draft)
	f.mu.Unlock()
	return domain.RemoteBlock{ID: domain.ServerID(fmt.Sprint(id)), NoteID: noteID, Type: draft.Type, Content: draft.Content}, nil
}

func (f *fakeAPI) UpdateBlock(ctx context.Context, id domain.ServerID, content, language string) (domain.RemoteBlock, error) {
	f.record("UpdateBlock " + string(id))
	if f.failUpdates {
		return domain.RemoteBlock{}, errors.New("boom")
	}
	f.mu.Lock()
	f.updates[id] = content
	f.mu.Unlock()
	return domain.RemoteBlock{ID: id, Content: content, Language: language}, nil
}

func (f *fakeAPI) MoveBlock(ctx context.Context, id domain.ServerID, before *domain.ServerID) error {
	f.record("MoveBlock " + string(id))
	f.mu.Lock()
	defer f.mu.Unlock()
	target := "end"
	if before != nil {
		target = string(*before)
	}
	f.moves = append(f.moves, string(id)+"->"+target)
	return nil
}

func (f *fakeAPI) DeleteBlock(ctx context.Context, id domain.ServerID) error {
	f.record("DeleteBlock " + string(id))
	f.mu.Lock()
	f.deleted = append(f.deleted, id)
	f.mu.Unlock()
	return nil
}

func (f *fakeAPI) UploadFile(ctx context.Context, filename string, r io.Reader) (string, error) {
	f.record("UploadFile " + filename)
	return "/uploads/" + filename, nil
}

// fakeSurface is an in-memory presentation layer.
type fakeSurface struct {
	mu       sync.Mutex
	renders  int
	last     render.Node
	focused  domain.BlockID
	hasFocus bool
	focusLog []domain.BlockID
	selected []editor.Selection
	statuses []string
	rekeys   map[domain.BlockID]domain.BlockID
}

func newFakeSurface() *fakeSurface {
	return &fakeSurface{rekeys: make(map[domain.BlockID]domain.BlockID)}
}

func (s *fakeSurface) Render(root render.Node) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.renders++
	s.last = root
	// Like a DOM, a redraw drops focus until it is restored.
	s.hasFocus = false
}

func (s *fakeSurface) Focus(id domain.BlockID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.focused, s.hasFocus = id, true
	s.focusLog = append(s.focusLog, id)
}

func (s *fakeSurface) FocusedBlock() (domain.BlockID, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.focused, s.hasFocus
}

func (s *fakeSurface) Select(sel editor.Selection) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selected = append(s.selected, sel)
}

func (s *fakeSurface) Status(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.statuses = append(s.statuses, msg)
}

func (s *fakeSurface) Rekey(from, to domain.BlockID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rekeys[from] = to
	if s.hasFocus && s.focused == from {
		s.focused = to
	}
}

func (s *fakeSurface) lastStatus() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.statuses) == 0 {
		return ""
	}
	return s.statuses[len(s.statuses)-1]
}

type fakeAddress struct {
	mu    sync.Mutex
	paths []string
}

func (a *fakeAddress) Replace(path string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.paths = append(a.paths, path)
}

type fakePicker struct {
	file *editor.PickedFile
}

func (p *fakePicker) PickImage(ctx context.Context) (*editor.PickedFile, error) {
	return p.file, nil
}
