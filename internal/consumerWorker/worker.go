package consumerWorker

import (
	"context"
	"encoding/json"
	"fmt"

	"eventhub/internal/notify"
	"eventhub/internal/rabbit"

	"github.com/rs/zerolog"
)

type Consumer interface {
	Consume(ctx context.Context, handler rabbit.Handler) error
}

// Reader drains notification jobs from the broker and emails every recipient.
type Reader struct {
	rmq    Consumer
	sender notify.Sender
	log    *zerolog.Logger
	done   chan struct{}
	cancel context.CancelFunc
}

func NewReader(rmq Consumer, sender notify.Sender, log *zerolog.Logger) *Reader {
	return &Reader{
		rmq:    rmq,
		sender: sender,
		log:    log,
		done:   make(chan struct{}),
	}
}

func (r *Reader) Start(ctx context.Context) {
	cctx, cancel := context.WithCancel(ctx)
	r.cancel = cancel

	r.log.Info().Msg("notification reader started")

	go func() {
		defer close(r.done)
		if err := r.rmq.Consume(cctx, r.handle); err != nil {
			r.log.Error().Err(err).Msg("notification reader stopped")
			return
		}
		r.log.Info().Msg("notification reader stopped by context")
	}()
}

func (r *Reader) handle(_ context.Context, body []byte) error {
	var job notify.Job
	if err := json.Unmarshal(body, &job); err != nil {
		r.log.Error().Err(err).Msgf("failed to unmarshal job: %s", string(body))
		return fmt.Errorf("decode job: %w", rabbit.ErrPoison)
	}

	r.log.Info().
		Str("template", string(job.Template)).
		Int("recipients", len(job.Recipients)).
		Msg("received notification job")

	// Partial delivery failures are not retried; requeueing would resend to
	// recipients that already got the email.
	if err := notify.Deliver(r.sender, job); err != nil {
		r.log.Warn().Err(err).Str("template", string(job.Template)).Msg("some notifications were not delivered")
	}
	return nil
}

func (r *Reader) Stop() {
	if r.cancel != nil {
		r.cancel()
		<-r.done
	}
}
