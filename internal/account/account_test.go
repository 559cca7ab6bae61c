package account

import (
	"context"
	"errors"
	"io"
	"net/url"
	"testing"
	"time"

	"eventhub/internal/apperr"
	"eventhub/internal/auth"
	"eventhub/internal/model"
	"eventhub/internal/notify"
	"eventhub/internal/notify/notifytest"
	"eventhub/internal/repo"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
)

type fixture struct {
	svc    *Service
	repo   repo.Repository
	tokens *auth.Tokens
	rec    *notifytest.Recorder
}

func setup(t *testing.T) fixture {
	t.Helper()
	r := repo.NewMemoryRepository()
	_ = r.SaveUser(context.Background(), &model.User{ID: 1, Name: "Ada", Email: "ada@example.com", Role: model.RoleAdmin})

	log := zerolog.New(io.Discard)
	rec := &notifytest.Recorder{}
	tokens := auth.NewTokens("test-secret", time.Hour)
	svc := NewService(r, tokens, rec, "https://eventhub.test/reset-password", &log)
	svc.cost = bcrypt.MinCost
	return fixture{svc: svc, repo: r, tokens: tokens, rec: rec}
}

func TestRegisterAndLogin(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	s, err := f.svc.Register(ctx, "  Nina ", " Nina@Example.com ", "secret1")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if s.User.ID != 2 || s.User.Email != "nina@example.com" || s.User.Name != "Nina" || s.User.Role != model.RoleUser {
		t.Fatalf("user = %+v", s.User)
	}
	actor, err := f.tokens.Parse(s.Token)
	if err != nil || actor.UserID != 2 || actor.IsAdmin() {
		t.Fatalf("token actor = %+v, %v", actor, err)
	}
	if got := f.rec.Templates(2); len(got) != 1 || got[0] != notify.Welcome {
		t.Fatalf("templates = %v", got)
	}

	if _, err := f.svc.Register(ctx, "Other", "NINA@example.com", "secret2"); !errors.Is(err, apperr.ErrConflict) {
		t.Fatalf("duplicate email err = %v", err)
	}

	logged, err := f.svc.Login(ctx, "nina@EXAMPLE.com", "secret1")
	if err != nil || logged.User.ID != 2 {
		t.Fatalf("login = %+v, %v", logged, err)
	}

	tests := []struct {
		name, email, password string
	}{
		{"wrong password", "nina@example.com", "secret2"},
		{"unknown email", "nobody@example.com", "secret1"},
		{"account without password", "ada@example.com", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := f.svc.Login(ctx, tt.email, tt.password); !errors.Is(err, ErrBadCredentials) {
				t.Fatalf("err = %v, want ErrBadCredentials", err)
			}
		})
	}
}

func TestRegisterValidation(t *testing.T) {
	f := setup(t)
	tests := []struct {
		name, user, email, password string
	}{
		{"blank name", " ", "a@example.com", "secret1"},
		{"blank email", "A", " ", "secret1"},
		{"short password", "A", "a@example.com", "12345"},
		{"long password", "A", "a@example.com", string(make([]byte, MaxPasswordLen+1))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := f.svc.Register(context.Background(), tt.user, tt.email, tt.password); !errors.Is(err, apperr.ErrValidation) {
				t.Fatalf("err = %v, want validation", err)
			}
		})
	}
}

func resetToken(t *testing.T, rec *notifytest.Recorder) string {
	t.Helper()
	calls := rec.Calls()
	if len(calls) == 0 || calls[len(calls)-1].Template != notify.PasswordReset {
		t.Fatalf("no reset email in %+v", calls)
	}
	link, err := url.Parse(calls[len(calls)-1].Data["reset_url"])
	if err != nil {
		t.Fatal(err)
	}
	if link.Host != "eventhub.test" || link.Path != "/reset-password" {
		t.Fatalf("link = %s", link)
	}
	return link.Query().Get("token")
}

func TestPasswordReset(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	// Seeded accounts start without a password and set one through a reset.
	if err := f.svc.ForgotPassword(ctx, "ADA@example.com"); err != nil {
		t.Fatalf("forgot: %v", err)
	}
	token := resetToken(t, f.rec)
	if _, err := f.tokens.Parse(token); err == nil {
		t.Fatal("reset token must not authenticate API calls")
	}

	if err := f.svc.ResetPassword(ctx, token, "short"); !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("short password err = %v", err)
	}
	if err := f.svc.ResetPassword(ctx, token, "n3w-secret"); err != nil {
		t.Fatalf("reset: %v", err)
	}
	s, err := f.svc.Login(ctx, "ada@example.com", "n3w-secret")
	if err != nil || !s.User.IsAdmin() {
		t.Fatalf("login after reset = %+v, %v", s, err)
	}

	if err := f.svc.ResetPassword(ctx, token, "another-one"); !errors.Is(err, ErrBadResetToken) {
		t.Fatalf("reused token err = %v", err)
	}
	if err := f.svc.ResetPassword(ctx, s.Token, "another-one"); !errors.Is(err, ErrBadResetToken) {
		t.Fatalf("access token used for reset err = %v", err)
	}

	f.rec.Reset()
	if err := f.svc.ForgotPassword(ctx, "nobody@example.com"); err != nil {
		t.Fatalf("unknown email err = %v", err)
	}
	if calls := f.rec.Calls(); len(calls) != 0 {
		t.Fatalf("unknown email triggered %d notifications", len(calls))
	}
}
