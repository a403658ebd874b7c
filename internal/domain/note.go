package domain

import "time"

type Note struct {
	ID        ServerID  `json:"id"`
	Title     string    `json:"title"`
	Favorite  bool      `json:"is_favorite"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NoteState is everything the editor needs to open a note.
type NoteState struct {
	Note   Note          `json:"note"`
	Blocks []RemoteBlock `json:"blocks"`
}

type User struct {
	ID       ServerID `json:"id"`
	Username string   `json:"username"`
	Email    string   `json:"email,omitempty"`
}

type TicketStatus string

const (
	TicketOpen     TicketStatus = "open"
	TicketAnswered TicketStatus = "answered"
	TicketClosed   TicketStatus = "closed"
)

type Ticket struct {
	ID        ServerID     `json:"id"`
	Subject   string       `json:"subject"`
	Message   string       `json:"message"`
	Status    TicketStatus `json:"status"`
	CreatedAt time.Time    `json:"created_at"`
}
