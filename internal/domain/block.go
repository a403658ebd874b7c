package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

type BlockType string

const (
	BlockTypeText  BlockType = "text"
	BlockTypeCode  BlockType = "code"
	BlockTypeImage BlockType = "image"
)

// Valid reports whether t is one of the known block types.
func (t BlockType) Valid() bool {
	switch t {
	case BlockTypeText, BlockTypeCode, BlockTypeImage:
		return true
	}
	return false
}

// BlockID identifies a block either by a client-generated temporary id
// (not yet saved) or by the id the server assigned on creation.
// The zero value identifies nothing.
type BlockID struct {
	local     string
	persisted string
}

// LocalID returns the identifier of an unsaved block.
func LocalID(tmp string) BlockID { return BlockID{local: tmp} }

// PersistedID returns the identifier of a block the server knows about.
func PersistedID(serverID string) BlockID { return BlockID{persisted: serverID} }

func (id BlockID) IsZero() bool      { return id.local == "" && id.persisted == "" }
func (id BlockID) IsLocal() bool     { return id.local != "" }
func (id BlockID) IsPersisted() bool { return id.persisted != "" }

// ServerID returns the server id and whether the block has one.
func (id BlockID) ServerID() (string, bool) { return id.persisted, id.persisted != "" }

// String is the key used to address the block from the presentation layer.
// Local and persisted ids never collide because local keys carry a "local:" scheme.
func (id BlockID) String() string {
	switch {
	case id.persisted != "":
		return id.persisted
	case id.local != "":
		return "local:" + id.local
	}
	return ""
}

// ParseBlockID is the inverse of String.
func ParseBlockID(s string) (BlockID, error) {
	if s == "" {
		return BlockID{}, fmt.Errorf("empty block id")
	}
	if len(s) > 6 && s[:6] == "local:" {
		return LocalID(s[6:]), nil
	}
	return PersistedID(s), nil
}

func (id BlockID) MarshalJSON() ([]byte, error) {
	return json.Marshal(id.String())
}

func (id *BlockID) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseBlockID(s)
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// ServerID is an id assigned by the backend. The backend sends ids either
// as JSON numbers or strings; both decode to the same textual form.
type ServerID string

func (s *ServerID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*s = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return err
		}
		*s = ServerID(str)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("server id: %w", err)
	}
	*s = ServerID(n.String())
	return nil
}

// MarshalJSON writes numeric ids back as numbers. Only the canonical form
// counts as numeric: "007" or "+5" stay strings.
func (s ServerID) MarshalJSON() ([]byte, error) {
	if n, err := strconv.ParseInt(string(s), 10, 64); err == nil && strconv.FormatInt(n, 10) == string(s) {
		return []byte(s), nil
	}
	return json.Marshal(string(s))
}

type Block struct {
	ID       BlockID   `json:"id"`
	Type     BlockType `json:"type"`
	Content  string    `json:"content"`
	Language string    `json:"language,omitempty"`
}

// RemoteBlock is the block shape exchanged with the backend.
type RemoteBlock struct {
	ID            ServerID  `json:"id"`
	NoteID        ServerID  `json:"note_id,omitempty"`
	Type          BlockType `json:"type"`
	Content       string    `json:"content"`
	Language      string    `json:"language,omitempty"`
	Position      int       `json:"position,omitempty"`
	BeforeBlockID *ServerID `json:"before_block_id,omitempty"`
}

// ToBlock converts a backend block into the editor's representation.
func (r RemoteBlock) ToBlock() Block {
	return Block{
		ID:       PersistedID(string(r.ID)),
		Type:     r.Type,
		Content:  r.Content,
		Language: r.Language,
	}
}

// BlockDraft is the payload for creating a block. A nil BeforeBlockID
// appends the block at the end of the note.
type BlockDraft struct {
	Type          BlockType `json:"type"`
	Content       string    `json:"content"`
	Language      string    `json:"language,omitempty"`
	BeforeBlockID *ServerID `json:"before_block_id,omitempty"`
}
