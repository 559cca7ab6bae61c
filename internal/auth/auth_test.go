package auth

import (
	"context"
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"eventhub/internal/model"
)

func TestIssueAndParse(t *testing.T) {
	tokens := NewTokens("s3cret", time.Hour)

	raw, err := tokens.Issue(42, model.RoleAdmin)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	actor, err := tokens.Parse(raw)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if actor.UserID != 42 || !actor.IsAdmin() {
		t.Fatalf("actor = %+v", actor)
	}
}

func TestParseRejects(t *testing.T) {
	tokens := NewTokens("s3cret", time.Hour)
	raw, _ := tokens.Issue(7, model.RoleUser)

	other := NewTokens("different", time.Hour)
	if _, err := other.Parse(raw); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("wrong secret err = %v", err)
	}

	expired := NewTokens("s3cret", time.Minute)
	expired.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	old, _ := expired.Issue(7, model.RoleUser)
	if _, err := tokens.Parse(old); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expired err = %v", err)
	}

	if _, err := tokens.Parse("garbage"); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("garbage err = %v", err)
	}
}

func TestTokenFromRequest(t *testing.T) {
	r := httptest.NewRequest("GET", "/ws?token=query-tok", nil)
	if got := TokenFromRequest(r); got != "query-tok" {
		t.Errorf("query token = %q", got)
	}
	r.Header.Set("Authorization", "Bearer header-tok")
	if got := TokenFromRequest(r); got != "header-tok" {
		t.Errorf("header token = %q", got)
	}
}

func TestActorContext(t *testing.T) {
	if _, ok := ActorFrom(context.Background()); ok {
		t.Fatal("empty context must not carry an actor")
	}
	ctx := WithActor(context.Background(), Actor{UserID: 3, Role: model.RoleUser})
	a, ok := ActorFrom(ctx)
	if !ok || a.UserID != 3 || a.IsAdmin() {
		t.Fatalf("actor = %+v ok=%v", a, ok)
	}
}

func TestResetTokensAreSeparate(t *testing.T) {
	tokens := NewTokens("s3cret", time.Hour)

	reset, err := tokens.IssueReset(7, "abc")
	if err != nil {
		t.Fatalf("IssueReset: %v", err)
	}
	id, stamp, err := tokens.ParseReset(reset)
	if err != nil || id != 7 || stamp != "abc" {
		t.Fatalf("ParseReset = %d, %q, %v", id, stamp, err)
	}
	if _, err := tokens.Parse(reset); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("reset token accepted as access token: %v", err)
	}

	access, _ := tokens.Issue(7, model.RoleUser)
	if _, _, err := tokens.ParseReset(access); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("access token accepted for reset: %v", err)
	}

	late := NewTokens("s3cret", time.Hour)
	late.now = func() time.Time { return time.Now().Add(-ResetTTL - time.Minute) }
	old, _ := late.IssueReset(7, "abc")
	if _, _, err := tokens.ParseReset(old); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expired reset token err = %v", err)
	}
}
