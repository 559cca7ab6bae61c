// Package notifytest provides a notify.Dispatcher that records every call.
package notifytest

import (
	"context"
	"sync"

	"eventhub/internal/model"
	"eventhub/internal/notify"
)

type Call struct {
	Recipients []model.User
	Template   notify.Template
	Data       map[string]string
}

type Recorder struct {
	mu    sync.Mutex
	calls []Call
	Err   error
}

func (r *Recorder) Notify(_ context.Context, recipients []model.User, tmpl notify.Template, data map[string]string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, Call{Recipients: recipients, Template: tmpl, Data: data})
	return r.Err
}

func (r *Recorder) Calls() []Call {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Call(nil), r.calls...)
}

// PerUser counts how many notifications each user id received.
func (r *Recorder) PerUser() map[int64]int {
	counts := make(map[int64]int)
	for _, c := range r.Calls() {
		for _, u := range c.Recipients {
			counts[u.ID]++
		}
	}
	return counts
}

// Templates returns the templates each user id received, in call order.
func (r *Recorder) Templates(userID int64) []notify.Template {
	var out []notify.Template
	for _, c := range r.Calls() {
		for _, u := range c.Recipients {
			if u.ID == userID {
				out = append(out, c.Template)
			}
		}
	}
	return out
}

func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = nil
}
