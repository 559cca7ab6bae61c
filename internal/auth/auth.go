package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"eventhub/internal/model"

	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidToken = errors.New("invalid token")

// Actor is the authenticated caller of an operation.
type Actor struct {
	UserID int64
	Role   model.Role
}

func (a Actor) IsAdmin() bool { return a.Role == model.RoleAdmin }

const (
	accessAudience = "access"
	resetAudience  = "password-reset"

	// ResetTTL bounds how long a password reset link stays valid.
	ResetTTL = time.Hour
)

type Claims struct {
	Role model.Role `json:"role,omitempty"`
	// Stamp ties a reset token to the password it replaces.
	Stamp string `json:"stamp,omitempty"`
	jwt.RegisteredClaims
}

type Tokens struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewTokens(secret string, ttl time.Duration) *Tokens {
	return &Tokens{secret: []byte(secret), ttl: ttl, now: time.Now}
}

func (t *Tokens) sign(userID int64, audience string, ttl time.Duration, claims Claims) (string, error) {
	now := t.now()
	claims.RegisteredClaims = jwt.RegisteredClaims{
		Subject:   strconv.FormatInt(userID, 10),
		Audience:  jwt.ClaimStrings{audience},
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

func (t *Tokens) parse(raw, audience string) (int64, Claims, error) {
	var claims Claims
	_, err := jwt.ParseWithClaims(raw, &claims, func(*jwt.Token) (any, error) {
		return t.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithAudience(audience),
		jwt.WithTimeFunc(t.now),
	)
	if err != nil {
		return 0, Claims{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	id, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil || id <= 0 {
		return 0, Claims{}, fmt.Errorf("%w: bad subject %q", ErrInvalidToken, claims.Subject)
	}
	return id, claims, nil
}

// Issue signs an access token for the API and the websocket.
func (t *Tokens) Issue(userID int64, role model.Role) (string, error) {
	return t.sign(userID, accessAudience, t.ttl, Claims{Role: role})
}

func (t *Tokens) Parse(raw string) (Actor, error) {
	id, claims, err := t.parse(raw, accessAudience)
	if err != nil {
		return Actor{}, err
	}
	role := claims.Role
	if role == "" {
		role = model.RoleUser
	}
	return Actor{UserID: id, Role: role}, nil
}

// IssueReset signs a password reset token. It is not accepted by Parse.
func (t *Tokens) IssueReset(userID int64, stamp string) (string, error) {
	return t.sign(userID, resetAudience, ResetTTL, Claims{Stamp: stamp})
}

// ParseReset returns the user and password stamp a reset token was issued for.
func (t *Tokens) ParseReset(raw string) (int64, string, error) {
	id, claims, err := t.parse(raw, resetAudience)
	if err != nil {
		return 0, "", err
	}
	return id, claims.Stamp, nil
}

// TokenFromRequest reads a bearer Authorization header, falling back to the
// token query parameter that browsers use for websocket upgrades.
func TokenFromRequest(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		if tok, ok := strings.CutPrefix(h, "Bearer "); ok {
			return strings.TrimSpace(tok)
		}
	}
	return r.URL.Query().Get("token")
}

type ctxKey struct{}

func WithActor(ctx context.Context, a Actor) context.Context {
	return context.WithValue(ctx, ctxKey{}, a)
}

func ActorFrom(ctx context.Context) (Actor, bool) {
	a, ok := ctx.Value(ctxKey{}).(Actor)
	return a, ok
}
