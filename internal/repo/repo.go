package repo

import (
	"context"
	"fmt"

	"eventhub/internal/apperr"
	"eventhub/internal/model"
)

var (
	ErrEventNotFound         = fmt.Errorf("event %w", apperr.ErrNotFound)
	ErrEventFull             = fmt.Errorf("event is full: %w", apperr.ErrCapacityExceeded)
	ErrDuplicateRegistration = fmt.Errorf("duplicate registration: %w", apperr.ErrConflict)
	ErrRegistrationNotFound  = fmt.Errorf("registration %w", apperr.ErrNotFound)
	ErrReportNotFound        = fmt.Errorf("report %w", apperr.ErrNotFound)
	ErrUserNotFound          = fmt.Errorf("user %w", apperr.ErrNotFound)
	ErrEmailTaken            = fmt.Errorf("email already registered: %w", apperr.ErrConflict)
	ErrInvalidTransition     = fmt.Errorf("invalid status transition: %w", apperr.ErrConflict)
	ErrCapacityBelowBooked   = fmt.Errorf("capacity is below the seats already taken: %w", apperr.ErrValidation)
)

type Repository interface {
	// CreateEvent stores e under the lowest unused positive id and returns that id.
	CreateEvent(ctx context.Context, e *model.Event) (int64, error)
	GetEventByID(ctx context.Context, id int64) (*model.Event, error)
	ListEventsByStatus(ctx context.Context, status model.EventStatus) ([]model.Event, error)
	SearchEvents(ctx context.Context, f model.SearchFilter) ([]model.Event, error)
	ListEventsByOrganizer(ctx context.Context, organizerID int64) ([]model.Event, error)
	ListEventsByRegistrant(ctx context.Context, userID int64) ([]model.Event, error)
	// UpdateEventTx overwrites the editable fields of e and resets it to pending.
	// e.Capacity is the total seat count; the stored remaining capacity is that
	// total minus the current registrations.
	UpdateEventTx(ctx context.Context, e *model.Event) (*model.Event, error)
	// TransitionEventTx moves the event to `to` when its current status is one of
	// `from`, deleting and returning every outstanding report in the same transaction.
	TransitionEventTx(ctx context.Context, id int64, from []model.EventStatus, to model.EventStatus) (*model.Event, []model.Report, error)
	// DeleteEventTx removes chat messages, registrations and reports before the event.
	DeleteEventTx(ctx context.Context, id int64) (*model.Event, error)

	RegisterTx(ctx context.Context, eventID, userID int64) (*model.Registration, error)
	UnregisterTx(ctx context.Context, eventID, userID int64) error
	CountRegistrations(ctx context.Context, eventID int64) (int, error)

	CreateReport(ctx context.Context, r *model.Report) (int64, error)
	GetReportByID(ctx context.Context, id int64) (*model.Report, error)
	ListReportsByEvent(ctx context.Context, eventID int64) ([]model.Report, error)
	ListReportedEvents(ctx context.Context) ([]model.ReportedEvent, error)
	DeleteReport(ctx context.Context, id int64) (*model.Report, error)

	// SaveUser upserts u under its own id; an empty PasswordHash keeps the stored one.
	SaveUser(ctx context.Context, u *model.User) error
	// CreateUser stores u under the next free id. Emails are unique ignoring case.
	CreateUser(ctx context.Context, u *model.User) (int64, error)
	GetUserByID(ctx context.Context, id int64) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	SetPasswordHash(ctx context.Context, id int64, hash string) error
	// ListUsers returns users with the given role, or every user when role is empty.
	ListUsers(ctx context.Context, role model.Role) ([]model.User, error)
	SetUserBlocked(ctx context.Context, id int64, blocked bool) (*model.User, error)

	InsertChatMessage(ctx context.Context, m *model.ChatMessage) (int64, error)
	GetChatMessagesByEvent(ctx context.Context, eventID int64) ([]model.ChatMessage, error)

	MigrateUp(migrationsDir string) error
	MigrateDown(migrationsDir string) error
}
