package repo

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"eventhub/internal/model"
)

type regKey struct {
	eventID int64
	userID  int64
}

// memoryRepository keeps the whole store behind one mutex, which gives every
// method the same all-or-nothing behaviour as the postgres transactions.
type memoryRepository struct {
	mu            sync.Mutex
	events        map[int64]model.Event
	registrations map[regKey]model.Registration
	reports       map[int64]model.Report
	users         map[int64]model.User
	messages      map[int64][]model.ChatMessage
	nextReportID  int64
	nextMessageID int64
	now           func() time.Time
}

func NewMemoryRepository() Repository {
	return &memoryRepository{
		events:        make(map[int64]model.Event),
		registrations: make(map[regKey]model.Registration),
		reports:       make(map[int64]model.Report),
		users:         make(map[int64]model.User),
		messages:      make(map[int64][]model.ChatMessage),
		now:           func() time.Time { return time.Now().UTC() },
	}
}

func (m *memoryRepository) MigrateUp(string) error   { return nil }
func (m *memoryRepository) MigrateDown(string) error { return nil }

func (m *memoryRepository) withOrganizer(e model.Event) model.Event {
	if u, ok := m.users[e.OrganizerID]; ok {
		e.OrganizerName = u.Name
	}
	return e
}

func (m *memoryRepository) CreateEvent(_ context.Context, e *model.Event) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := int64(1)
	for {
		if _, taken := m.events[id]; !taken {
			break
		}
		id++
	}

	e.ID = id
	e.CreatedAt = m.now()
	stored := *e
	stored.OrganizerName = ""
	m.events[id] = stored
	return id, nil
}

func (m *memoryRepository) GetEventByID(_ context.Context, id int64) (*model.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.events[id]
	if !ok {
		return nil, ErrEventNotFound
	}
	e = m.withOrganizer(e)
	return &e, nil
}

func (m *memoryRepository) filterEvents(keep func(model.Event) bool, less func(a, b model.Event) bool) []model.Event {
	var out []model.Event
	for _, e := range m.events {
		if keep(e) {
			out = append(out, m.withOrganizer(e))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if less(out[i], out[j]) {
			return true
		}
		if less(out[j], out[i]) {
			return false
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func byDateDesc(a, b model.Event) bool    { return a.EventDate.After(b.EventDate) }
func byCreatedDesc(a, b model.Event) bool { return a.CreatedAt.After(b.CreatedAt) }

func (m *memoryRepository) ListEventsByStatus(_ context.Context, status model.EventStatus) ([]model.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.filterEvents(func(e model.Event) bool { return e.Status == status }, byDateDesc), nil
}

func (m *memoryRepository) SearchEvents(_ context.Context, f model.SearchFilter) ([]model.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	loc := strings.ToLower(strings.TrimSpace(f.Location))
	cat := strings.ToLower(strings.TrimSpace(f.Category))
	return m.filterEvents(func(e model.Event) bool {
		if e.Status != model.StatusApproved {
			return false
		}
		if f.Date != nil && e.EventDate.Format("2006-01-02") != f.Date.Format("2006-01-02") {
			return false
		}
		if loc != "" && !strings.Contains(strings.ToLower(e.Location), loc) {
			return false
		}
		if cat != "" && !strings.Contains(strings.ToLower(e.Category), cat) {
			return false
		}
		return true
	}, byDateDesc), nil
}

func (m *memoryRepository) ListEventsByOrganizer(_ context.Context, organizerID int64) ([]model.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.filterEvents(func(e model.Event) bool { return e.OrganizerID == organizerID }, byCreatedDesc), nil
}

func (m *memoryRepository) ListEventsByRegistrant(_ context.Context, userID int64) ([]model.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.filterEvents(func(e model.Event) bool {
		_, ok := m.registrations[regKey{e.ID, userID}]
		return ok
	}, byDateDesc), nil
}

func (m *memoryRepository) UpdateEventTx(_ context.Context, e *model.Event) (*model.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	current, ok := m.events[e.ID]
	if !ok {
		return nil, ErrEventNotFound
	}
	booked := 0
	for k := range m.registrations {
		if k.eventID == e.ID {
			booked++
		}
	}
	if e.Capacity < booked {
		return nil, fmt.Errorf("%d seats for %d registrations: %w", e.Capacity, booked, ErrCapacityBelowBooked)
	}
	current.Title = e.Title
	current.Description = e.Description
	current.EventDate = e.EventDate
	current.EventTime = e.EventTime
	current.Capacity = e.Capacity - booked
	current.ImageURL = e.ImageURL
	current.PdfURL = e.PdfURL
	current.Address = e.Address
	current.Location = e.Location
	current.Category = e.Category
	current.Status = model.StatusPending
	m.events[e.ID] = current

	out := m.withOrganizer(current)
	return &out, nil
}

func (m *memoryRepository) TransitionEventTx(_ context.Context, id int64, from []model.EventStatus, to model.EventStatus) (*model.Event, []model.Report, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.events[id]
	if !ok {
		return nil, nil, ErrEventNotFound
	}
	if !containsStatus(from, e.Status) {
		return nil, nil, ErrInvalidTransition
	}
	e.Status = to
	m.events[id] = e

	reports := m.reportsFor(id)
	for _, r := range reports {
		delete(m.reports, r.ID)
	}

	out := m.withOrganizer(e)
	return &out, reports, nil
}

func (m *memoryRepository) DeleteEventTx(_ context.Context, id int64) (*model.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.events[id]
	if !ok {
		return nil, ErrEventNotFound
	}
	out := m.withOrganizer(e)

	delete(m.messages, id)
	for _, r := range m.reportsFor(id) {
		delete(m.reports, r.ID)
	}
	for k := range m.registrations {
		if k.eventID == id {
			delete(m.registrations, k)
		}
	}
	delete(m.events, id)
	return &out, nil
}

func (m *memoryRepository) RegisterTx(_ context.Context, eventID, userID int64) (*model.Registration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.events[eventID]
	if !ok {
		return nil, ErrEventNotFound
	}
	key := regKey{eventID, userID}
	if _, dup := m.registrations[key]; dup {
		return nil, ErrDuplicateRegistration
	}
	if e.Capacity <= 0 {
		return nil, ErrEventFull
	}

	reg := model.Registration{EventID: eventID, UserID: userID, RegisteredAt: m.now()}
	m.registrations[key] = reg
	e.Capacity--
	m.events[eventID] = e
	return &reg, nil
}

func (m *memoryRepository) UnregisterTx(_ context.Context, eventID, userID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := regKey{eventID, userID}
	if _, ok := m.registrations[key]; !ok {
		return ErrRegistrationNotFound
	}
	delete(m.registrations, key)
	if e, ok := m.events[eventID]; ok {
		e.Capacity++
		m.events[eventID] = e
	}
	return nil
}

func (m *memoryRepository) CountRegistrations(_ context.Context, eventID int64) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := 0
	for k := range m.registrations {
		if k.eventID == eventID {
			n++
		}
	}
	return n, nil
}

// reportsFor returns the reports of an event, newest first. Callers hold mu.
func (m *memoryRepository) reportsFor(eventID int64) []model.Report {
	var out []model.Report
	for _, r := range m.reports {
		if r.EventID == eventID {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out
}

func (m *memoryRepository) CreateReport(_ context.Context, r *model.Report) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.events[r.EventID]; !ok {
		return 0, ErrEventNotFound
	}
	m.nextReportID++
	r.ID = m.nextReportID
	r.ReportedAt = m.now()
	m.reports[r.ID] = *r
	return r.ID, nil
}

func (m *memoryRepository) GetReportByID(_ context.Context, id int64) (*model.Report, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.reports[id]
	if !ok {
		return nil, ErrReportNotFound
	}
	return &r, nil
}

func (m *memoryRepository) ListReportsByEvent(_ context.Context, eventID int64) ([]model.Report, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.reportsFor(eventID), nil
}

func (m *memoryRepository) ListReportedEvents(_ context.Context) ([]model.ReportedEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []model.ReportedEvent
	for _, r := range m.reports {
		e, ok := m.events[r.EventID]
		if !ok {
			continue
		}
		re := model.ReportedEvent{
			Report:      r,
			EventTitle:  e.Title,
			EventStatus: e.Status,
			OrganizerID: e.OrganizerID,
		}
		if u, ok := m.users[r.UserID]; ok {
			re.ReporterName = u.Name
			re.ReporterEmail = u.Email
		}
		out = append(out, re)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (m *memoryRepository) DeleteReport(_ context.Context, id int64) (*model.Report, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.reports[id]
	if !ok {
		return nil, ErrReportNotFound
	}
	delete(m.reports, id)
	return &r, nil
}

// emailOwner returns the id of the user holding email, ignoring case.
func (m *memoryRepository) emailOwner(email string) (int64, bool) {
	if email == "" {
		return 0, false
	}
	for id, u := range m.users {
		if strings.EqualFold(u.Email, email) {
			return id, true
		}
	}
	return 0, false
}

func (m *memoryRepository) SaveUser(_ context.Context, u *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if owner, ok := m.emailOwner(u.Email); ok && owner != u.ID {
		return ErrEmailTaken
	}
	existing, ok := m.users[u.ID]
	if ok {
		u.CreatedAt = existing.CreatedAt
		if u.PasswordHash == "" {
			u.PasswordHash = existing.PasswordHash
		}
	} else {
		u.CreatedAt = m.now()
	}
	if u.Role == "" {
		u.Role = model.RoleUser
	}
	m.users[u.ID] = *u
	return nil
}

func (m *memoryRepository) CreateUser(_ context.Context, u *model.User) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.emailOwner(u.Email); ok {
		return 0, ErrEmailTaken
	}
	var maxID int64
	for id := range m.users {
		if id > maxID {
			maxID = id
		}
	}
	u.ID = maxID + 1
	u.CreatedAt = m.now()
	u.IsBlocked = false
	if u.Role == "" {
		u.Role = model.RoleUser
	}
	m.users[u.ID] = *u
	return u.ID, nil
}

func (m *memoryRepository) GetUserByEmail(_ context.Context, email string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id, ok := m.emailOwner(email)
	if !ok {
		return nil, ErrUserNotFound
	}
	u := m.users[id]
	return &u, nil
}

func (m *memoryRepository) SetPasswordHash(_ context.Context, id int64, hash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[id]
	if !ok {
		return ErrUserNotFound
	}
	u.PasswordHash = hash
	m.users[id] = u
	return nil
}

func (m *memoryRepository) GetUserByID(_ context.Context, id int64) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	return &u, nil
}

func (m *memoryRepository) ListUsers(_ context.Context, role model.Role) ([]model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []model.User
	for _, u := range m.users {
		if role == "" || u.Role == role {
			out = append(out, u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memoryRepository) SetUserBlocked(_ context.Context, id int64, blocked bool) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	u.IsBlocked = blocked
	m.users[id] = u
	return &u, nil
}

func (m *memoryRepository) InsertChatMessage(_ context.Context, msg *model.ChatMessage) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.events[msg.EventID]; !ok {
		return 0, ErrEventNotFound
	}
	m.nextMessageID++
	msg.ID = m.nextMessageID
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = m.now()
	}
	m.messages[msg.EventID] = append(m.messages[msg.EventID], *msg)
	return msg.ID, nil
}

func (m *memoryRepository) GetChatMessagesByEvent(_ context.Context, eventID int64) ([]model.ChatMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := append([]model.ChatMessage(nil), m.messages[eventID]...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}
