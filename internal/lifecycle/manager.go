// Package lifecycle moves events through pending, approved and rejected, keeps
// capacity accounting consistent and tells the affected users about it.
package lifecycle

import (
	"context"
	"fmt"
	"strings"

	"eventhub/internal/apperr"
	"eventhub/internal/auth"
	"eventhub/internal/model"
	"eventhub/internal/notify"
	"eventhub/internal/repo"

	"github.com/rs/zerolog"
)

// RoomCloser releases in-memory state kept per event, such as a chat room.
type RoomCloser interface {
	DropRoom(eventID int64)
}

type Manager struct {
	repo     repo.Repository
	notifier notify.Dispatcher
	rooms    RoomCloser
	log      *zerolog.Logger
}

func NewManager(r repo.Repository, n notify.Dispatcher, log *zerolog.Logger) *Manager {
	return &Manager{repo: r, notifier: n, log: log}
}

// AttachRooms makes DeleteEvent drop the event's room. Ids are reused, so a
// stale room would otherwise carry over to the next event.
func (m *Manager) AttachRooms(rc RoomCloser) {
	m.rooms = rc
}

func validatePayload(p model.EventPayload) error {
	if strings.TrimSpace(p.Title) == "" {
		return apperr.Validation("title is required")
	}
	if strings.ContainsAny(p.Title, "\r\n") {
		return apperr.Validation("title must not contain line breaks")
	}
	if strings.TrimSpace(p.ImageURL) == "" {
		return apperr.Validation("image is required")
	}
	if len(p.ImageURL) > model.MaxURLLength {
		return apperr.Validation("image_url exceeds %d characters", model.MaxURLLength)
	}
	if len(p.PdfURL) > model.MaxURLLength {
		return apperr.Validation("pdf_url exceeds %d characters", model.MaxURLLength)
	}
	if p.Capacity < 0 {
		return apperr.Validation("capacity must not be negative")
	}
	if p.EventDate.IsZero() {
		return apperr.Validation("event_date is required")
	}
	return nil
}

func applyPayload(e *model.Event, p model.EventPayload) {
	e.Title = strings.TrimSpace(p.Title)
	e.Description = p.Description
	e.EventDate = p.EventDate
	e.EventTime = p.EventTime
	e.Capacity = p.Capacity
	e.ImageURL = p.ImageURL
	e.PdfURL = p.PdfURL
	e.Address = p.Address
	e.Location = p.Location
	e.Category = p.Category
}

func (m *Manager) CreateEvent(ctx context.Context, organizerID int64, p model.EventPayload) (*model.Event, error) {
	if err := validatePayload(p); err != nil {
		return nil, err
	}

	e := &model.Event{OrganizerID: organizerID, Status: model.StatusPending}
	applyPayload(e, p)

	id, err := m.repo.CreateEvent(ctx, e)
	if err != nil {
		return nil, fmt.Errorf("create event: %w", err)
	}
	m.log.Info().Int64("event_id", id).Int64("organizer_id", organizerID).Msg("event created")

	created, err := m.repo.GetEventByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load created event: %w", err)
	}

	m.notifyAdmins(ctx, notify.EventSubmitted, map[string]string{
		"title":     created.Title,
		"organizer": created.OrganizerName,
	})
	return created, nil
}

// EditEvent replaces the editable fields and sends the event back to moderation.
// Empty media fields keep the stored references. p.Capacity counts every seat,
// including the ones already registered.
func (m *Manager) EditEvent(ctx context.Context, eventID int64, actor auth.Actor, p model.EventPayload) (*model.Event, error) {
	current, err := m.repo.GetEventByID(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if current.OrganizerID != actor.UserID {
		return nil, apperr.Forbidden("only the organizer can edit event %d", eventID)
	}

	if p.ImageURL == "" {
		p.ImageURL = current.ImageURL
	}
	if p.PdfURL == "" {
		p.PdfURL = current.PdfURL
	}
	if err := validatePayload(p); err != nil {
		return nil, err
	}

	applyPayload(current, p)
	updated, err := m.repo.UpdateEventTx(ctx, current)
	if err != nil {
		return nil, fmt.Errorf("update event %d: %w", eventID, err)
	}
	m.log.Info().Int64("event_id", eventID).Msg("event edited, back to pending")

	m.notifyAdmins(ctx, notify.EventResubmitted, map[string]string{"title": updated.Title})
	return updated, nil
}

type decision struct {
	to        model.EventStatus
	organizer notify.Template
	broadcast notify.Template
	label     string
}

var (
	approval  = decision{model.StatusApproved, notify.EventApproved, notify.EventPublished, "approved"}
	rejection = decision{model.StatusRejected, notify.EventRejected, notify.EventRemoved, "rejected"}
)

func (m *Manager) ApproveEvent(ctx context.Context, eventID int64) (*model.Event, error) {
	return m.decide(ctx, eventID, approval)
}

func (m *Manager) RejectEvent(ctx context.Context, eventID int64) (*model.Event, error) {
	return m.decide(ctx, eventID, rejection)
}

func (m *Manager) decide(ctx context.Context, eventID int64, d decision) (*model.Event, error) {
	e, reports, err := m.repo.TransitionEventTx(ctx, eventID, model.SourcesFor(d.to), d.to)
	if err != nil {
		return nil, fmt.Errorf("%s event %d: %w", d.label, eventID, err)
	}
	m.log.Info().
		Int64("event_id", eventID).
		Str("status", string(e.Status)).
		Int("reports_cleared", len(reports)).
		Msg("event moderated")

	data := map[string]string{"title": e.Title, "decision": d.label}

	var notified []model.User
	if organizer := m.lookupUser(ctx, e.OrganizerID); organizer != nil {
		notified = append(notified, *organizer)
		m.notify(ctx, []model.User{*organizer}, d.organizer, data)
	}

	reporters := m.reporters(ctx, reports, notified)
	m.notify(ctx, reporters, notify.ReportDecision, data)
	notified = append(notified, reporters...)

	m.broadcast(ctx, d.broadcast, data, notified...)
	return e, nil
}

// RejectReportedEvent rejects an event on behalf of its reports. An event that
// is already rejected stays so; its reports are still cleared and only their
// authors are told.
func (m *Manager) RejectReportedEvent(ctx context.Context, eventID int64) (*model.Event, error) {
	current, err := m.repo.GetEventByID(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if current.Status != model.StatusRejected {
		return m.decide(ctx, eventID, rejection)
	}

	e, reports, err := m.repo.TransitionEventTx(ctx, eventID, []model.EventStatus{model.StatusRejected}, model.StatusRejected)
	if err != nil {
		return nil, fmt.Errorf("clear reports of event %d: %w", eventID, err)
	}
	m.log.Info().
		Int64("event_id", eventID).
		Int("reports_cleared", len(reports)).
		Msg("reports on rejected event resolved")

	data := map[string]string{"title": e.Title, "decision": rejection.label}
	m.notify(ctx, m.reporters(ctx, reports, nil), notify.ReportDecision, data)
	return e, nil
}

// reporters resolves the distinct authors of reports, skipping anyone in skip.
func (m *Manager) reporters(ctx context.Context, reports []model.Report, skip []model.User) []model.User {
	seen := make(map[int64]struct{}, len(reports)+len(skip))
	for _, u := range skip {
		seen[u.ID] = struct{}{}
	}
	var out []model.User
	for _, r := range reports {
		if _, ok := seen[r.UserID]; ok {
			continue
		}
		seen[r.UserID] = struct{}{}
		if u := m.lookupUser(ctx, r.UserID); u != nil {
			out = append(out, *u)
		}
	}
	return out
}

func (m *Manager) RegisterForEvent(ctx context.Context, eventID, userID int64) (*model.Registration, error) {
	reg, err := m.repo.RegisterTx(ctx, eventID, userID)
	if err != nil {
		return nil, fmt.Errorf("register user %d for event %d: %w", userID, eventID, err)
	}
	m.log.Info().Int64("event_id", eventID).Int64("user_id", userID).Msg("user registered")
	return reg, nil
}

func (m *Manager) UnregisterFromEvent(ctx context.Context, eventID, userID int64) error {
	if err := m.repo.UnregisterTx(ctx, eventID, userID); err != nil {
		return fmt.Errorf("unregister user %d from event %d: %w", userID, eventID, err)
	}
	m.log.Info().Int64("event_id", eventID).Int64("user_id", userID).Msg("user unregistered")
	return nil
}

func (m *Manager) DeleteEvent(ctx context.Context, eventID int64, actor auth.Actor) error {
	e, err := m.repo.GetEventByID(ctx, eventID)
	if err != nil {
		return err
	}
	if e.OrganizerID != actor.UserID && !actor.IsAdmin() {
		return apperr.Forbidden("only the organizer or an admin can delete event %d", eventID)
	}

	deleted, err := m.repo.DeleteEventTx(ctx, eventID)
	if err != nil {
		return fmt.Errorf("delete event %d: %w", eventID, err)
	}
	m.log.Info().Int64("event_id", eventID).Int64("actor_id", actor.UserID).Msg("event deleted")
	if m.rooms != nil {
		m.rooms.DropRoom(eventID)
	}

	m.broadcast(ctx, notify.EventDeleted, map[string]string{"title": deleted.Title})
	return nil
}

func (m *Manager) GetEvent(ctx context.Context, eventID int64) (*model.Event, error) {
	return m.repo.GetEventByID(ctx, eventID)
}

func (m *Manager) ListApproved(ctx context.Context) ([]model.Event, error) {
	return m.repo.ListEventsByStatus(ctx, model.StatusApproved)
}

func (m *Manager) ListPending(ctx context.Context) ([]model.Event, error) {
	return m.repo.ListEventsByStatus(ctx, model.StatusPending)
}

func (m *Manager) Search(ctx context.Context, f model.SearchFilter) ([]model.Event, error) {
	return m.repo.SearchEvents(ctx, f)
}

func (m *Manager) ListCreatedBy(ctx context.Context, userID int64) ([]model.Event, error) {
	return m.repo.ListEventsByOrganizer(ctx, userID)
}

func (m *Manager) ListRegisteredBy(ctx context.Context, userID int64) ([]model.Event, error) {
	return m.repo.ListEventsByRegistrant(ctx, userID)
}
