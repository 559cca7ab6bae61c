package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"eventhub/internal/account"
	"eventhub/internal/auth"
	"eventhub/internal/chat"
	"eventhub/internal/dto"
	"eventhub/internal/lifecycle"
	"eventhub/internal/model"
	"eventhub/internal/moderation"
	"eventhub/internal/notify/notifytest"
	"eventhub/internal/repo"
	"eventhub/internal/service"

	"github.com/rs/zerolog"
)

type testAPI struct {
	handler http.Handler
	tokens  *auth.Tokens
	rec     *notifytest.Recorder
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	ctx := context.Background()
	log := zerolog.New(io.Discard)

	r := repo.NewMemoryRepository()
	for _, u := range []model.User{
		{ID: 1, Name: "Olga", Email: "olga@example.com"},
		{ID: 2, Name: "Rita", Email: "rita@example.com"},
		{ID: 3, Name: "Rob", Email: "rob@example.com"},
		{ID: 9, Name: "Ada", Email: "ada@example.com", Role: model.RoleAdmin},
	} {
		u := u
		_ = r.SaveUser(ctx, &u)
	}

	rec := &notifytest.Recorder{}
	events := lifecycle.NewManager(r, rec, &log)
	mod := moderation.NewEngine(r, events, rec, &log)
	broker := chat.NewBroker(r, &log)
	t.Cleanup(broker.Close)
	tokens := auth.NewTokens("test-secret", time.Hour)
	accounts := account.NewService(r, tokens, rec, "https://eventhub.test/reset-password", &log)

	router := NewRouters(&Routers{
		Service: service.NewService(accounts, events, mod, broker, &log),
		Tokens:  tokens,
		Chat:    broker.Handler(tokens, 8),
		Log:     &log,
		Mode:    "test",
	})
	return &testAPI{handler: router, tokens: tokens, rec: rec}
}

func (a *testAPI) token(t *testing.T, userID int64, role model.Role) string {
	t.Helper()
	tok, err := a.tokens.Issue(userID, role)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	return tok
}

type result struct {
	code int
	body dto.Response
	raw  json.RawMessage
}

func (a *testAPI) do(t *testing.T, method, path, token string, body any) result {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	a.handler.ServeHTTP(w, req)

	var envelope struct {
		dto.Response
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("%s %s: decode %q: %v", method, path, w.Body.String(), err)
	}
	return result{code: w.Code, body: envelope.Response, raw: envelope.Data}
}

func errCode(r result) string {
	if r.body.Error == nil {
		return ""
	}
	return r.body.Error.Code
}

func eventBody(capacity int) map[string]any {
	return map[string]any{
		"title":      "Board games night",
		"event_date": "2026-12-12",
		"event_time": "19:30",
		"capacity":   capacity,
		"image_url":  "/uploads/games.png",
		"location":   "Bologna",
		"category":   "Games",
	}
}

func decodeEvent(t *testing.T, r result) model.Event {
	t.Helper()
	var e model.Event
	if err := json.Unmarshal(r.raw, &e); err != nil {
		t.Fatalf("decode event: %v", err)
	}
	return e
}

func TestHealth(t *testing.T) {
	a := newTestAPI(t)
	if r := a.do(t, http.MethodGet, "/health", "", nil); r.code != http.StatusOK || r.body.Status != "ok" {
		t.Fatalf("health = %d %+v", r.code, r.body)
	}
}

func TestEventLifecycleOverHTTP(t *testing.T) {
	a := newTestAPI(t)
	olga := a.token(t, 1, model.RoleUser)
	rita := a.token(t, 2, model.RoleUser)
	admin := a.token(t, 9, model.RoleAdmin)

	if r := a.do(t, http.MethodPost, "/api/events", "", eventBody(1)); r.code != http.StatusUnauthorized {
		t.Fatalf("anonymous create = %d", r.code)
	}

	bad := eventBody(1)
	bad["event_date"] = "12/12/2026"
	if r := a.do(t, http.MethodPost, "/api/events", olga, bad); r.code != http.StatusBadRequest || errCode(r) != dto.FieldIncorrect {
		t.Fatalf("bad date = %d %s", r.code, errCode(r))
	}

	noImage := eventBody(1)
	delete(noImage, "image_url")
	if r := a.do(t, http.MethodPost, "/api/events", olga, noImage); r.code != http.StatusBadRequest || errCode(r) != "VALIDATION_ERROR" {
		t.Fatalf("missing image = %d %s", r.code, errCode(r))
	}

	created := a.do(t, http.MethodPost, "/api/events", olga, eventBody(1))
	if created.code != http.StatusCreated {
		t.Fatalf("create = %d %+v", created.code, created.body)
	}
	e := decodeEvent(t, created)
	if e.ID != 1 || e.Status != model.StatusPending {
		t.Fatalf("event = %+v", e)
	}

	if r := a.do(t, http.MethodGet, "/api/events/pending", rita, nil); r.code != http.StatusForbidden {
		t.Fatalf("pending as user = %d", r.code)
	}
	if r := a.do(t, http.MethodPut, "/api/events/1/approve", rita, nil); r.code != http.StatusForbidden {
		t.Fatalf("approve as user = %d", r.code)
	}
	if r := a.do(t, http.MethodPut, "/api/events/1/approve", admin, nil); r.code != http.StatusOK {
		t.Fatalf("approve = %d %+v", r.code, r.body)
	}

	listed := a.do(t, http.MethodGet, "/api/events/search?category=game", "", nil)
	var events []model.Event
	_ = json.Unmarshal(listed.raw, &events)
	if len(events) != 1 || events[0].OrganizerName != "Olga" {
		t.Fatalf("search = %s", listed.raw)
	}

	if r := a.do(t, http.MethodPost, "/api/events/1/register", rita, nil); r.code != http.StatusCreated {
		t.Fatalf("register = %d %+v", r.code, r.body)
	}
	if r := a.do(t, http.MethodPost, "/api/events/1/register", rita, nil); errCode(r) != "CONFLICT" {
		t.Fatalf("duplicate register = %d %s", r.code, errCode(r))
	}
	rob := a.token(t, 3, model.RoleUser)
	if r := a.do(t, http.MethodPost, "/api/events/1/register", rob, nil); r.code != http.StatusBadRequest || errCode(r) != "CAPACITY_EXCEEDED" {
		t.Fatalf("full register = %d %s", r.code, errCode(r))
	}
	if r := a.do(t, http.MethodPost, "/api/events/1/unregister", rob, nil); r.code != http.StatusNotFound {
		t.Fatalf("unregister without registration = %d", r.code)
	}

	mine := a.do(t, http.MethodGet, "/api/events/my-registrations", rita, nil)
	_ = json.Unmarshal(mine.raw, &events)
	if len(events) != 1 {
		t.Fatalf("my registrations = %s", mine.raw)
	}

	edited := a.do(t, http.MethodPut, "/api/events/1", olga, eventBody(5))
	if edited.code != http.StatusOK || decodeEvent(t, edited).Status != model.StatusPending {
		t.Fatalf("edit = %d %s", edited.code, edited.raw)
	}
	if r := a.do(t, http.MethodPut, "/api/events/1", rita, eventBody(5)); r.code != http.StatusForbidden {
		t.Fatalf("edit by stranger = %d", r.code)
	}

	if r := a.do(t, http.MethodDelete, "/api/events/1", rita, nil); r.code != http.StatusForbidden {
		t.Fatalf("delete by stranger = %d", r.code)
	}
	if r := a.do(t, http.MethodDelete, "/api/events/1", admin, nil); r.code != http.StatusOK {
		t.Fatalf("admin delete = %d", r.code)
	}
	if r := a.do(t, http.MethodGet, "/api/events/1", "", nil); r.code != http.StatusNotFound || errCode(r) != "NOT_FOUND" {
		t.Fatalf("get deleted = %d %s", r.code, errCode(r))
	}
}

func TestModerationOverHTTP(t *testing.T) {
	a := newTestAPI(t)
	olga := a.token(t, 1, model.RoleUser)
	rita := a.token(t, 2, model.RoleUser)
	admin := a.token(t, 9, model.RoleAdmin)

	a.do(t, http.MethodPost, "/api/events", olga, eventBody(10))
	a.do(t, http.MethodPut, "/api/events/1/approve", admin, nil)

	if r := a.do(t, http.MethodPost, "/api/events/1/report", rita, map[string]string{"reason": ""}); r.code != http.StatusBadRequest {
		t.Fatalf("empty reason = %d", r.code)
	}
	reported := a.do(t, http.MethodPost, "/api/events/1/report", rita, map[string]string{"reason": "scam"})
	if reported.code != http.StatusCreated {
		t.Fatalf("report = %d %+v", reported.code, reported.body)
	}
	var report model.Report
	_ = json.Unmarshal(reported.raw, &report)

	if r := a.do(t, http.MethodGet, "/api/reports", rita, nil); r.code != http.StatusForbidden {
		t.Fatalf("reports as user = %d", r.code)
	}
	list := a.do(t, http.MethodGet, "/api/reports", admin, nil)
	var reports []model.ReportedEvent
	_ = json.Unmarshal(list.raw, &reports)
	if len(reports) != 1 || reports[0].ReporterName != "Rita" || reports[0].EventTitle != "Board games night" {
		t.Fatalf("reports = %s", list.raw)
	}

	if r := a.do(t, http.MethodPost, "/api/events/2/reports/1/reject", admin, nil); r.code != http.StatusNotFound {
		t.Fatalf("mismatched reject = %d", r.code)
	}
	rejected := a.do(t, http.MethodPost, "/api/events/1/reports/1/reject", admin, nil)
	if rejected.code != http.StatusOK || decodeEvent(t, rejected).Status != model.StatusRejected {
		t.Fatalf("reject reported = %d %s", rejected.code, rejected.raw)
	}
	list = a.do(t, http.MethodGet, "/api/reports", admin, nil)
	if string(list.raw) != "[]" {
		t.Fatalf("reports after reject = %s", list.raw)
	}
	if r := a.do(t, http.MethodPut, "/api/events/1/approve", admin, nil); errCode(r) != "CONFLICT" {
		t.Fatalf("approve rejected = %d %s", r.code, errCode(r))
	}

	if r := a.do(t, http.MethodPost, "/api/reports/1/ignore", admin, nil); r.code != http.StatusNotFound {
		t.Fatalf("ignore cleared report = %d", r.code)
	}

	blocked := a.do(t, http.MethodPut, "/api/users/2/block", admin, map[string]bool{"blocked": true})
	var u model.User
	_ = json.Unmarshal(blocked.raw, &u)
	if blocked.code != http.StatusOK || !u.IsBlocked {
		t.Fatalf("block = %d %s", blocked.code, blocked.raw)
	}
	if r := a.do(t, http.MethodPut, "/api/users/2/block", admin, map[string]any{}); r.code != http.StatusBadRequest {
		t.Fatalf("block without flag = %d", r.code)
	}

	history := a.do(t, http.MethodGet, "/api/events/1/messages", olga, nil)
	if history.code != http.StatusOK || string(history.raw) != "[]" {
		t.Fatalf("history = %d %s", history.code, history.raw)
	}
}

func TestAccountsOverHTTP(t *testing.T) {
	a := newTestAPI(t)
	signup := map[string]string{"name": "Nina", "email": "nina@example.com", "password": "s3cret-pass"}

	if r := a.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{"name": "Nina", "email": "nope", "password": "s3cret-pass"}); errCode(r) != dto.FieldIncorrect {
		t.Fatalf("bad email = %d %s", r.code, errCode(r))
	}
	created := a.do(t, http.MethodPost, "/api/auth/register", "", signup)
	var session account.Session
	_ = json.Unmarshal(created.raw, &session)
	if created.code != http.StatusCreated || session.Token == "" || session.User.Email != "nina@example.com" {
		t.Fatalf("register = %d %s", created.code, created.raw)
	}
	if r := a.do(t, http.MethodPost, "/api/auth/register", "", signup); errCode(r) != "CONFLICT" {
		t.Fatalf("duplicate register = %d %s", r.code, errCode(r))
	}

	if r := a.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{"email": "nina@example.com", "password": "wrong-pass"}); r.code != http.StatusUnauthorized {
		t.Fatalf("wrong password = %d", r.code)
	}
	login := a.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{"email": "NINA@example.com", "password": "s3cret-pass"})
	_ = json.Unmarshal(login.raw, &session)
	if login.code != http.StatusOK || session.Token == "" {
		t.Fatalf("login = %d %s", login.code, login.raw)
	}

	if r := a.do(t, http.MethodGet, "/api/auth/me", "", nil); r.code != http.StatusUnauthorized {
		t.Fatalf("me without token = %d", r.code)
	}
	me := a.do(t, http.MethodGet, "/api/auth/me", session.Token, nil)
	var u model.User
	_ = json.Unmarshal(me.raw, &u)
	if me.code != http.StatusOK || u.ID != session.User.ID || u.Name != "Nina" {
		t.Fatalf("me = %d %s", me.code, me.raw)
	}
	if bytes.Contains(me.raw, []byte("password")) {
		t.Fatalf("me leaks the password hash: %s", me.raw)
	}

	// The issued token works on the event routes.
	if r := a.do(t, http.MethodPost, "/api/events", session.Token, eventBody(5)); r.code != http.StatusCreated {
		t.Fatalf("create with session token = %d %s", r.code, r.raw)
	}

	if r := a.do(t, http.MethodPost, "/api/auth/forgot-password", "", map[string]string{"email": "ghost@example.com"}); r.code != http.StatusOK {
		t.Fatalf("forgot unknown = %d", r.code)
	}
	if r := a.do(t, http.MethodPost, "/api/auth/reset-password", "", map[string]string{"token": "garbage", "password": "another-pass"}); r.code != http.StatusBadRequest {
		t.Fatalf("reset with bad token = %d", r.code)
	}
	if r := a.do(t, http.MethodPost, "/api/auth/logout", session.Token, nil); r.code != http.StatusOK {
		t.Fatalf("logout = %d", r.code)
	}
}
