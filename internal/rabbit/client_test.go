package rabbit

import (
	"context"
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/rs/zerolog"
)

type fakeAck struct {
	acked   bool
	nacked  bool
	requeue bool
}

func (f *fakeAck) Ack(bool) error { f.acked = true; return nil }

func (f *fakeAck) Nack(_, requeue bool) error {
	f.nacked, f.requeue = true, requeue
	return nil
}

func TestSettle(t *testing.T) {
	log := zerolog.New(io.Discard)
	tests := []struct {
		name    string
		err     error
		acked   bool
		requeue bool
	}{
		{"ok", nil, true, false},
		{"transient", errors.New("smtp down"), false, true},
		{"poison", fmt.Errorf("decode job: %w", ErrPoison), false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ack := &fakeAck{}
			var got []byte
			settle(context.Background(), &log, "m1", []byte(`{}`), ack, func(_ context.Context, body []byte) error {
				got = body
				return tt.err
			})
			if string(got) != `{}` {
				t.Fatalf("handler got %q", got)
			}
			if ack.acked != tt.acked {
				t.Errorf("acked = %v, want %v", ack.acked, tt.acked)
			}
			if !tt.acked && (!ack.nacked || ack.requeue != tt.requeue) {
				t.Errorf("nacked=%v requeue=%v, want requeue %v", ack.nacked, ack.requeue, tt.requeue)
			}
		})
	}
}
