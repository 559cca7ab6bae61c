package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"eventhub/internal/model"

	"github.com/rs/zerolog"
)

type Template string

const (
	EventSubmitted   Template = "event_submitted"
	EventResubmitted Template = "event_resubmitted"
	EventApproved    Template = "event_approved"
	EventPublished   Template = "event_published"
	EventRejected    Template = "event_rejected"
	EventRemoved     Template = "event_removed"
	EventDeleted     Template = "event_deleted"
	ReportFiled      Template = "report_filed"
	ReportReceived   Template = "report_received"
	EventReported    Template = "event_reported"
	ReportIgnored    Template = "report_ignored"
	ReportDecision   Template = "report_decision"
	Welcome          Template = "welcome"
	PasswordReset    Template = "password_reset"
)

// Dispatcher delivers one templated notification to a set of users.
type Dispatcher interface {
	Notify(ctx context.Context, recipients []model.User, tmpl Template, data map[string]string) error
}

type Recipient struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Job is the message published to the broker for every Notify call.
type Job struct {
	Template   Template          `json:"template"`
	Recipients []Recipient       `json:"recipients"`
	Data       map[string]string `json:"data,omitempty"`
	CreatedAt  time.Time         `json:"created_at"`
}

func NewJob(recipients []model.User, tmpl Template, data map[string]string) Job {
	job := Job{
		Template:   tmpl,
		Recipients: make([]Recipient, 0, len(recipients)),
		Data:       data,
		CreatedAt:  time.Now().UTC(),
	}
	for _, u := range recipients {
		job.Recipients = append(job.Recipients, Recipient{ID: u.ID, Name: u.Name, Email: u.Email})
	}
	return job
}

type Publisher interface {
	Publish(ctx context.Context, body []byte) error
}

type RabbitDispatcher struct {
	pub Publisher
	log *zerolog.Logger
}

func NewRabbitDispatcher(pub Publisher, log *zerolog.Logger) *RabbitDispatcher {
	return &RabbitDispatcher{pub: pub, log: log}
}

func (d *RabbitDispatcher) Notify(ctx context.Context, recipients []model.User, tmpl Template, data map[string]string) error {
	if len(recipients) == 0 {
		return nil
	}
	body, err := json.Marshal(NewJob(recipients, tmpl, data))
	if err != nil {
		return fmt.Errorf("marshal notification job: %w", err)
	}
	if err := d.pub.Publish(ctx, body); err != nil {
		return fmt.Errorf("publish %s: %w", tmpl, err)
	}
	d.log.Debug().Str("template", string(tmpl)).Int("recipients", len(recipients)).Msg("notification queued")
	return nil
}

type Sender interface {
	Send(template, recipientEmail string, data map[string]string) error
}

// DirectDispatcher sends emails synchronously; used when no broker is configured.
type DirectDispatcher struct {
	sender Sender
}

func NewDirectDispatcher(sender Sender) *DirectDispatcher {
	return &DirectDispatcher{sender: sender}
}

func (d *DirectDispatcher) Notify(_ context.Context, recipients []model.User, tmpl Template, data map[string]string) error {
	return Deliver(d.sender, NewJob(recipients, tmpl, data))
}

// Deliver sends the job to every recipient that has an email address and
// joins the individual failures.
func Deliver(sender Sender, job Job) error {
	var errs []error
	for _, r := range job.Recipients {
		if r.Email == "" {
			continue
		}
		if err := sender.Send(string(job.Template), r.Email, job.Data); err != nil {
			errs = append(errs, fmt.Errorf("recipient %d: %w", r.ID, err))
		}
	}
	return errors.Join(errs...)
}

// Exclude returns users minus those whose id appears in skip.
func Exclude(users []model.User, skip ...model.User) []model.User {
	ids := make(map[int64]struct{}, len(skip))
	for _, u := range skip {
		ids[u.ID] = struct{}{}
	}
	out := make([]model.User, 0, len(users))
	for _, u := range users {
		if _, ok := ids[u.ID]; !ok {
			out = append(out, u)
		}
	}
	return out
}
