package lifecycle

import (
	"context"

	"eventhub/internal/model"
	"eventhub/internal/notify"
)

// Notifications are best effort: a failure here never undoes a committed change.

func (m *Manager) notify(ctx context.Context, recipients []model.User, tmpl notify.Template, data map[string]string) {
	if len(recipients) == 0 {
		return
	}
	if err := m.notifier.Notify(ctx, recipients, tmpl, data); err != nil {
		m.log.Warn().Err(err).Str("template", string(tmpl)).Msg("failed to dispatch notification")
	}
}

func (m *Manager) notifyAdmins(ctx context.Context, tmpl notify.Template, data map[string]string) {
	admins, err := m.repo.ListUsers(ctx, model.RoleAdmin)
	if err != nil {
		m.log.Warn().Err(err).Msg("failed to list admins for notification")
		return
	}
	m.notify(ctx, admins, tmpl, data)
}

// broadcast notifies every user except the ones already told about this change.
func (m *Manager) broadcast(ctx context.Context, tmpl notify.Template, data map[string]string, skip ...model.User) {
	users, err := m.repo.ListUsers(ctx, "")
	if err != nil {
		m.log.Warn().Err(err).Msg("failed to list users for broadcast")
		return
	}
	m.notify(ctx, notify.Exclude(users, skip...), tmpl, data)
}

func (m *Manager) lookupUser(ctx context.Context, id int64) *model.User {
	u, err := m.repo.GetUserByID(ctx, id)
	if err != nil {
		m.log.Warn().Err(err).Int64("user_id", id).Msg("notification recipient not found")
		return nil
	}
	return u
}
