package model

import "time"

type EventStatus string

const (
	StatusPending  EventStatus = "pending"
	StatusApproved EventStatus = "approved"
	StatusRejected EventStatus = "rejected"
)

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// MaxURLLength bounds image_url and pdf_url.
const MaxURLLength = 2000

type Event struct {
	ID            int64       `db:"id" json:"id"`
	Title         string      `db:"title" json:"title"`
	Description   string      `db:"description" json:"description"`
	EventDate     time.Time   `db:"event_date" json:"event_date"`
	EventTime     string      `db:"event_time" json:"event_time"`
	Capacity      int         `db:"capacity" json:"capacity"`
	ImageURL      string      `db:"image_url" json:"image_url"`
	PdfURL        string      `db:"pdf_url" json:"pdf_url,omitempty"`
	OrganizerID   int64       `db:"organizer_id" json:"organizer_id"`
	OrganizerName string      `db:"organizer_name" json:"organizer_name,omitempty"`
	Address       string      `db:"address" json:"address"`
	Location      string      `db:"location" json:"location"`
	Category      string      `db:"category" json:"category"`
	Status        EventStatus `db:"status" json:"status"`
	CreatedAt     time.Time   `db:"created_at" json:"created_at"`
}

// EventPayload carries the organizer-editable fields of an event.
type EventPayload struct {
	Title       string
	Description string
	EventDate   time.Time
	EventTime   string
	Capacity    int
	ImageURL    string
	PdfURL      string
	Address     string
	Location    string
	Category    string
}

type SearchFilter struct {
	Date     *time.Time
	Location string
	Category string
}

type Registration struct {
	EventID      int64     `db:"event_id" json:"event_id"`
	UserID       int64     `db:"user_id" json:"user_id"`
	RegisteredAt time.Time `db:"registered_at" json:"registered_at"`
}

type Report struct {
	ID         int64     `db:"id" json:"id"`
	EventID    int64     `db:"event_id" json:"event_id"`
	UserID     int64     `db:"user_id" json:"user_id"`
	Reason     string    `db:"reason" json:"reason"`
	ReportedAt time.Time `db:"reported_at" json:"reported_at"`
}

// ReportedEvent is a report joined with the reported event and the reporter.
type ReportedEvent struct {
	Report
	EventTitle    string      `db:"event_title" json:"event_title"`
	EventStatus   EventStatus `db:"event_status" json:"event_status"`
	OrganizerID   int64       `db:"organizer_id" json:"organizer_id"`
	ReporterName  string      `db:"reporter_name" json:"reporter_name"`
	ReporterEmail string      `db:"reporter_email" json:"reporter_email"`
}

type ChatMessage struct {
	ID        int64     `db:"id" json:"id"`
	EventID   int64     `db:"event_id" json:"event_id"`
	UserID    int64     `db:"user_id" json:"user_id"`
	Username  string    `db:"username" json:"username"`
	Text      string    `db:"message_text" json:"message"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

type User struct {
	ID        int64     `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Email     string    `db:"email" json:"email"`
	Role      Role      `db:"role" json:"role"`
	IsBlocked bool      `db:"is_blocked" json:"is_blocked"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	// PasswordHash is a bcrypt hash; empty means the account cannot log in yet.
	PasswordHash string `db:"password_hash" json:"-"`
}

// Eligible reports whether the user may post chat messages.
func (u *User) Eligible() bool {
	return u != nil && !u.IsBlocked
}

func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}
