package consumerWorker

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"sync"
	"testing"

	"eventhub/internal/model"
	"eventhub/internal/notify"
	"eventhub/internal/rabbit"

	"github.com/rs/zerolog"
)

type sentMail struct {
	template string
	email    string
}

type fakeSender struct {
	mu   sync.Mutex
	sent []sentMail
}

func (f *fakeSender) Send(template, email string, _ map[string]string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, sentMail{template, email})
	return nil
}

type fakeConsumer struct {
	bodies [][]byte
	errs   []error
}

func (f *fakeConsumer) Consume(ctx context.Context, handler rabbit.Handler) error {
	for _, b := range f.bodies {
		f.errs = append(f.errs, handler(ctx, b))
	}
	<-ctx.Done()
	return nil
}

func TestReaderDeliversJobs(t *testing.T) {
	log := zerolog.New(io.Discard)
	job := notify.NewJob([]model.User{
		{ID: 1, Email: "ann@example.com"},
		{ID: 2, Email: "bob@example.com"},
	}, notify.EventApproved, map[string]string{"title": "Picnic"})
	body, _ := json.Marshal(job)

	consumer := &fakeConsumer{bodies: [][]byte{body, []byte("not json")}}
	sender := &fakeSender{}
	r := NewReader(consumer, sender, &log)

	r.Start(context.Background())
	r.Stop()

	if len(sender.sent) != 2 {
		t.Fatalf("sent %d emails, want 2", len(sender.sent))
	}
	if sender.sent[0].template != "event_approved" || sender.sent[1].email != "bob@example.com" {
		t.Fatalf("sent = %+v", sender.sent)
	}
	if consumer.errs[0] != nil {
		t.Fatalf("valid job err = %v", consumer.errs[0])
	}
	if !errors.Is(consumer.errs[1], rabbit.ErrPoison) {
		t.Fatalf("malformed job err = %v, want poison", consumer.errs[1])
	}
}
