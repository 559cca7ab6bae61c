package moderation

import (
	"context"
	"fmt"
	"strings"

	"eventhub/internal/apperr"
	"eventhub/internal/model"
	"eventhub/internal/notify"
	"eventhub/internal/repo"

	"github.com/rs/zerolog"
)

// Rejecter moves a reported event to rejected, clearing every report of the event.
type Rejecter interface {
	RejectReportedEvent(ctx context.Context, eventID int64) (*model.Event, error)
}

type Engine struct {
	repo     repo.Repository
	rejecter Rejecter
	notifier notify.Dispatcher
	log      *zerolog.Logger
}

func NewEngine(r repo.Repository, rejecter Rejecter, n notify.Dispatcher, log *zerolog.Logger) *Engine {
	return &Engine{repo: r, rejecter: rejecter, notifier: n, log: log}
}

func (e *Engine) ReportEvent(ctx context.Context, eventID, userID int64, reason string) (*model.Report, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, apperr.Validation("reason is required")
	}

	event, err := e.repo.GetEventByID(ctx, eventID)
	if err != nil {
		return nil, err
	}

	report := &model.Report{EventID: eventID, UserID: userID, Reason: reason}
	if _, err := e.repo.CreateReport(ctx, report); err != nil {
		return nil, fmt.Errorf("report event %d: %w", eventID, err)
	}
	e.log.Info().
		Int64("event_id", eventID).
		Int64("report_id", report.ID).
		Int64("user_id", userID).
		Msg("event reported")

	data := map[string]string{"title": event.Title, "reason": reason}
	reporter, err := e.repo.GetUserByID(ctx, userID)
	if err != nil {
		e.log.Warn().Err(err).Int64("user_id", userID).Msg("reporter not found for notification")
	} else {
		data["reporter"] = reporter.Name
	}

	// An admin filing a report only gets the acknowledgement.
	if admins, err := e.repo.ListUsers(ctx, model.RoleAdmin); err != nil {
		e.log.Warn().Err(err).Msg("failed to list admins for report notification")
	} else {
		e.notify(ctx, notify.Exclude(admins, model.User{ID: userID}), notify.ReportFiled, data)
	}
	if reporter != nil {
		e.notify(ctx, []model.User{*reporter}, notify.ReportReceived, data)
	}
	if event.OrganizerID != userID {
		if organizer, err := e.repo.GetUserByID(ctx, event.OrganizerID); err == nil {
			e.notify(ctx, []model.User{*organizer}, notify.EventReported, data)
		}
	}
	return report, nil
}

func (e *Engine) GetReportedEvents(ctx context.Context) ([]model.ReportedEvent, error) {
	return e.repo.ListReportedEvents(ctx)
}

// IgnoreReport dismisses a single report and leaves the event untouched.
func (e *Engine) IgnoreReport(ctx context.Context, reportID int64) error {
	report, err := e.repo.DeleteReport(ctx, reportID)
	if err != nil {
		return err
	}
	e.log.Info().Int64("report_id", reportID).Int64("event_id", report.EventID).Msg("report ignored")

	event, err := e.repo.GetEventByID(ctx, report.EventID)
	if err != nil {
		e.log.Warn().Err(err).Int64("event_id", report.EventID).Msg("ignored report references missing event")
		return nil
	}
	data := map[string]string{"title": event.Title, "reason": report.Reason, "decision": "ignored"}

	if event.OrganizerID != report.UserID {
		if organizer, err := e.repo.GetUserByID(ctx, event.OrganizerID); err == nil {
			e.notify(ctx, []model.User{*organizer}, notify.ReportIgnored, data)
		}
	}
	if reporter, err := e.repo.GetUserByID(ctx, report.UserID); err == nil {
		e.notify(ctx, []model.User{*reporter}, notify.ReportDecision, data)
	}
	return nil
}

// RejectReportedEvent rejects the event a report points at and resolves all of
// its reports, even when the event was rejected already. The report must belong
// to eventID.
func (e *Engine) RejectReportedEvent(ctx context.Context, eventID, reportID int64) (*model.Event, error) {
	report, err := e.repo.GetReportByID(ctx, reportID)
	if err != nil {
		return nil, err
	}
	if report.EventID != eventID {
		return nil, fmt.Errorf("report %d for event %d: %w", reportID, eventID, repo.ErrReportNotFound)
	}
	return e.rejecter.RejectReportedEvent(ctx, eventID)
}

func (e *Engine) SetUserBlocked(ctx context.Context, userID int64, blocked bool) (*model.User, error) {
	u, err := e.repo.SetUserBlocked(ctx, userID, blocked)
	if err != nil {
		return nil, err
	}
	e.log.Info().Int64("user_id", userID).Bool("blocked", blocked).Msg("user block status changed")
	return u, nil
}

func (e *Engine) ListUsers(ctx context.Context) ([]model.User, error) {
	return e.repo.ListUsers(ctx, "")
}

func (e *Engine) notify(ctx context.Context, recipients []model.User, tmpl notify.Template, data map[string]string) {
	if len(recipients) == 0 {
		return
	}
	if err := e.notifier.Notify(ctx, recipients, tmpl, data); err != nil {
		e.log.Warn().Err(err).Str("template", string(tmpl)).Msg("failed to dispatch notification")
	}
}
