package mailer

import (
	"errors"
	"fmt"
)

var ErrUnknownTemplate = errors.New("unknown email template")

// Render builds the subject and plain-text body for a notification template.
// Missing data keys render as empty strings.
func Render(template string, data map[string]string) (subject, body string, err error) {
	title := data["title"]
	reason := data["reason"]

	switch template {
	case "event_submitted":
		subject = "New event awaiting approval"
		body = fmt.Sprintf("Hello!\n\nThe event \"%s\" was submitted by %s and is waiting for moderation.", title, data["organizer"])
	case "event_resubmitted":
		subject = "Edited event awaiting approval"
		body = fmt.Sprintf("Hello!\n\nThe event \"%s\" was edited by its organizer and needs to be reviewed again.", title)
	case "event_approved":
		subject = "Your event was approved"
		body = fmt.Sprintf("Hello!\n\nYour event \"%s\" has been approved and is now visible to everyone.", title)
	case "event_published":
		subject = "New event: " + title
		body = fmt.Sprintf("Hello!\n\nA new event \"%s\" has been published. Check it out!", title)
	case "event_rejected":
		subject = "Your event was rejected"
		body = fmt.Sprintf("Hello!\n\nUnfortunately your event \"%s\" has been rejected by the moderators.", title)
	case "event_removed":
		subject = "Event removed: " + title
		body = fmt.Sprintf("Hello!\n\nThe event \"%s\" is no longer available.", title)
	case "event_deleted":
		subject = "Event cancelled: " + title
		body = fmt.Sprintf("Hello!\n\nThe event \"%s\" has been deleted.", title)
	case "report_filed":
		subject = "New report on an event"
		body = fmt.Sprintf("Hello!\n\nThe event \"%s\" was reported by %s.\nReason: %s", title, data["reporter"], reason)
	case "report_received":
		subject = "We received your report"
		body = fmt.Sprintf("Hello!\n\nThanks for reporting \"%s\". The moderators will review it.\nReason: %s", title, reason)
	case "event_reported":
		subject = "Your event was reported"
		body = fmt.Sprintf("Hello!\n\nYour event \"%s\" was reported and will be reviewed.\nReason: %s", title, reason)
	case "report_ignored":
		subject = "A report on your event was dismissed"
		body = fmt.Sprintf("Hello!\n\nA report on your event \"%s\" was reviewed and dismissed.", title)
	case "report_decision":
		subject = "Your report was reviewed"
		body = fmt.Sprintf("Hello!\n\nYour report on \"%s\" was reviewed. Decision: %s.", title, data["decision"])
	case "welcome":
		subject = "Welcome to EventHub"
		body = fmt.Sprintf("Hello %s!\n\nYour account is ready. You can now create events and join the ones you like.", data["name"])
	case "password_reset":
		subject = "Reset your password"
		body = fmt.Sprintf("Hello %s!\n\nYou asked to reset your password. Open the link below to choose a new one:\n\n%s\n\nThe link expires in one hour. If you did not ask for a reset, ignore this email.", data["name"], data["reset_url"])
	default:
		return "", "", fmt.Errorf("%w: %q", ErrUnknownTemplate, template)
	}
	return subject, body, nil
}
