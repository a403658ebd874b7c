// Package editor owns the block sequence of the note being edited. It is
// the only component that mutates that sequence; everything else reads
// snapshots through Blocks.
package editor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"blocknotes/internal/domain"
	"blocknotes/internal/format"
	"blocknotes/internal/render"
)

// Status strings shown next to the editor.
const (
	StatusSaving = "Сохранение..."
	StatusSaved  = "Сохранено"
	StatusError  = "Ошибка сохранения"
)

// DefaultTitle is used when a note is created before it has a title.
const DefaultTitle = "Без названия"

const (
	defaultSaveDelay = time.Second
	saveTimeout      = 30 * time.Second
)

var (
	ErrNoBlock         = errors.New("block not found")
	ErrNotTextBlock    = errors.New("not a text block")
	ErrEmptySelection  = errors.New("empty selection")
	ErrNoImagePicker   = errors.New("no image picker configured")
	ErrUnsupportedType = errors.New("unsupported block type")
)

// NoteAPI is the slice of the backend the editor needs. *api.Client
// satisfies it.
type NoteAPI interface {
	CreateNote(ctx context.Context, title string) (domain.Note, error)
	UpdateNote(ctx context.Context, id domain.ServerID, title string) (domain.Note, error)
	SetFavorite(ctx context.Context, id domain.ServerID, favorite bool) error
	CreateBlock(ctx context.Context, noteID domain.ServerID, draft domain.BlockDraft) (domain.RemoteBlock, error)
	UpdateBlock(ctx context.Context, id domain.ServerID, content, language string) (domain.RemoteBlock, error)
	MoveBlock(ctx context.Context, id domain.ServerID, before *domain.ServerID) error
	DeleteBlock(ctx context.Context, id domain.ServerID) error
	UploadFile(ctx context.Context, filename string, r io.Reader) (string, error)
}

// Selection is a range of code points inside one block.
type Selection struct {
	Block domain.BlockID `json:"block"`
	Start int            `json:"start"`
	End   int            `json:"end"`
}

// Surface is the presentation layer the editor drives.
type Surface interface {
	Render(root render.Node)
	Focus(id domain.BlockID)
	FocusedBlock() (domain.BlockID, bool)
	Select(sel Selection)
	Status(msg string)
	// Rekey tells the presentation a block's id changed without re-rendering.
	Rekey(from, to domain.BlockID)
}

// PickedFile is an image chosen by the user.
type PickedFile struct {
	Name string
	Data io.ReadCloser
}

// ImagePicker opens a file chooser. A nil file means the user cancelled.
type ImagePicker interface {
	PickImage(ctx context.Context) (*PickedFile, error)
}

// AddressBar rewrites the current location without navigating.
type AddressBar interface {
	Replace(path string)
}

type Options struct {
	SaveDelay time.Duration
	Picker    ImagePicker
	Address   AddressBar
}

// entry is one block plus the bookkeeping that must survive its id
// changing from local to persisted.
type entry struct {
	key     string
	block   domain.Block
	deleted bool
	saveMu  sync.Mutex
}

// Manager is the editing session for a single note.
type Manager struct {
	api      NoteAPI
	surface  Surface
	picker   ImagePicker
	address  AddressBar
	debounce *Debouncer
	create   singleflight.Group

	mu       sync.Mutex
	noteID   domain.ServerID
	title    string
	favorite bool
	entries  []*entry
}

func New(api NoteAPI, surface Surface, opts Options) *Manager {
	delay := opts.SaveDelay
	if delay <= 0 {
		delay = defaultSaveDelay
	}
	return &Manager{
		api:      api,
		surface:  surface,
		picker:   opts.Picker,
		address:  opts.Address,
		debounce: NewDebouncer(delay),
	}
}

// Load replaces the editor state with a note fetched from the backend. An
// empty state (a new note) starts with one empty text block.
func (m *Manager) Load(state domain.NoteState) {
	m.debounce.Clear()

	entries := make([]*entry, 0, len(state.Blocks))
	for _, rb := range state.Blocks {
		entries = append(entries, newEntry(rb.ToBlock()))
	}
	if len(entries) == 0 {
		entries = append(entries, newEntry(emptyBlock(domain.BlockTypeText)))
	}

	m.mu.Lock()
	m.noteID = state.Note.ID
	m.title = state.Note.Title
	m.favorite = state.Note.Favorite
	m.entries = entries
	m.mu.Unlock()
}

// Close drops pending saves without running them.
func (m *Manager) Close() {
	m.debounce.Clear()
}

// ── Accessors ───────────────────────────────────────────────

// Blocks returns a snapshot of the block sequence.
func (m *Manager) Blocks() []domain.Block {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.Block, len(m.entries))
	for i, e := range m.entries {
		out[i] = e.block
	}
	return out
}

// Block returns a copy of one block.
func (m *Manager) Block(id domain.BlockID) (domain.Block, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, e := m.find(id); e != nil {
		return e.block, true
	}
	return domain.Block{}, false
}

func (m *Manager) NoteID() (domain.ServerID, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.noteID, m.noteID != ""
}

func (m *Manager) Title() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.title
}

func (m *Manager) Favorite() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.favorite
}

// ── Helpers (callers hold m.mu) ─────────────────────────────

func newEntry(b domain.Block) *entry {
	return &entry{key: uuid.NewString(), block: b}
}

func emptyBlock(t domain.BlockType) domain.Block {
	b := domain.Block{ID: domain.LocalID(uuid.NewString()), Type: t}
	switch t {
	case domain.BlockTypeText:
		b.Content = format.TextContent{}.Marshal()
	case domain.BlockTypeCode:
		b.Content = render.CodeContent{Language: render.DefaultLanguage}.Marshal()
		b.Language = render.DefaultLanguage
	}
	return b
}

func (m *Manager) find(id domain.BlockID) (int, *entry) {
	for i, e := range m.entries {
		if e.block.ID == id {
			return i, e
		}
	}
	return -1, nil
}

func (m *Manager) byKey(key string) *entry {
	for _, e := range m.entries {
		if e.key == key {
			return e
		}
	}
	return nil
}

func (m *Manager) index(e *entry) int {
	for i, x := range m.entries {
		if x == e {
			return i
		}
	}
	return -1
}

// nextPersisted returns the server id of the first persisted block after
// e, which is where the backend must place e. Nil means "at the end".
func (m *Manager) nextPersisted(e *entry) *domain.ServerID {
	i := m.index(e)
	if i < 0 {
		return nil
	}
	for _, next := range m.entries[i+1:] {
		if sid, ok := next.block.ID.ServerID(); ok {
			id := domain.ServerID(sid)
			return &id
		}
	}
	return nil
}

func (m *Manager) insertAt(i int, entries ...*entry) {
	m.entries = slices.Insert(m.entries, i, entries...)
}

func (m *Manager) status(msg string) {
	if m.surface != nil {
		m.surface.Status(msg)
	}
}

func ctxForSave() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), saveTimeout)
}

// ── Note ────────────────────────────────────────────────────

// EnsureNoteExists returns the note's server id, creating the note on
// first use. Concurrent callers share a single creation request. After
// creating, the address bar is rewritten to /note/:id.
func (m *Manager) EnsureNoteExists(ctx context.Context) (domain.ServerID, error) {
	if id, ok := m.NoteID(); ok {
		return id, nil
	}

	v, err, _ := m.create.Do("note", func() (any, error) {
		m.mu.Lock()
		if m.noteID != "" {
			id := m.noteID
			m.mu.Unlock()
			return id, nil
		}
		title := m.title
		m.mu.Unlock()
		if title == "" {
			title = DefaultTitle
		}

		note, err := m.api.CreateNote(ctx, title)
		if err != nil {
			return domain.ServerID(""), fmt.Errorf("create note: %w", err)
		}

		m.mu.Lock()
		m.noteID = note.ID
		m.title = note.Title
		m.mu.Unlock()

		if m.address != nil {
			m.address.Replace("/note/" + string(note.ID))
		}
		log.Printf("[editor] created note %s", note.ID)
		return note.ID, nil
	})
	if err != nil {
		return "", err
	}
	return v.(domain.ServerID), nil
}

// SaveTitle stores the title, creating the note if it does not exist yet.
func (m *Manager) SaveTitle(ctx context.Context, title string) error {
	m.mu.Lock()
	m.title = title
	id := m.noteID
	m.mu.Unlock()

	m.status(StatusSaving)
	var err error
	if id == "" {
		_, err = m.EnsureNoteExists(ctx)
	} else {
		_, err = m.api.UpdateNote(ctx, id, title)
	}
	if err != nil {
		log.Printf("[editor] save title: %v", err)
		m.status(StatusError)
		return err
	}
	m.status(StatusSaved)
	return nil
}

// ToggleFavorite flips the favorite flag and returns the new value. The
// flag is restored if the backend rejects the change.
func (m *Manager) ToggleFavorite(ctx context.Context) (bool, error) {
	id, err := m.EnsureNoteExists(ctx)
	if err != nil {
		return m.Favorite(), err
	}

	m.mu.Lock()
	m.favorite = !m.favorite
	fav := m.favorite
	m.mu.Unlock()

	if err := m.api.SetFavorite(ctx, id, fav); err != nil {
		m.mu.Lock()
		m.favorite = !fav
		m.mu.Unlock()
		return !fav, fmt.Errorf("set favorite: %w", err)
	}
	return fav, nil
}
