package service

import (
	"net/http"
	"strconv"

	"eventhub/internal/account"
	"eventhub/internal/apperr"
	"eventhub/internal/auth"
	"eventhub/internal/chat"
	"eventhub/internal/dto"
	"eventhub/internal/lifecycle"
	"eventhub/internal/model"
	"eventhub/internal/moderation"
	"eventhub/pkg/validator"

	"github.com/rs/zerolog"
	"github.com/wb-go/wbf/ginext"
)

type Service interface {
	CreateEvent(ctx *ginext.Context)
	ListEvents(ctx *ginext.Context)
	SearchEvents(ctx *ginext.Context)
	GetEvent(ctx *ginext.Context)
	UpdateEvent(ctx *ginext.Context)
	DeleteEvent(ctx *ginext.Context)
	ListPending(ctx *ginext.Context)
	ApproveEvent(ctx *ginext.Context)
	RejectEvent(ctx *ginext.Context)
	Register(ctx *ginext.Context)
	Unregister(ctx *ginext.Context)
	MyRegistrations(ctx *ginext.Context)
	MyCreated(ctx *ginext.Context)

	ReportEvent(ctx *ginext.Context)
	ListReports(ctx *ginext.Context)
	IgnoreReport(ctx *ginext.Context)
	RejectReportedEvent(ctx *ginext.Context)
	ListUsers(ctx *ginext.Context)
	BlockUser(ctx *ginext.Context)

	ChatHistory(ctx *ginext.Context)
	Health(ctx *ginext.Context)

	SignUp(ctx *ginext.Context)
	Login(ctx *ginext.Context)
	Logout(ctx *ginext.Context)
	ForgotPassword(ctx *ginext.Context)
	ResetPassword(ctx *ginext.Context)
	Me(ctx *ginext.Context)
}

type service struct {
	accounts   *account.Service
	events     *lifecycle.Manager
	moderation *moderation.Engine
	chat       *chat.Broker
	log        *zerolog.Logger
}

func NewService(accounts *account.Service, events *lifecycle.Manager, mod *moderation.Engine, broker *chat.Broker, logger *zerolog.Logger) Service {
	return &service{
		accounts:   accounts,
		events:     events,
		moderation: mod,
		chat:       broker,
		log:        logger,
	}
}

func actor(ctx *ginext.Context) auth.Actor {
	a, _ := auth.ActorFrom(ctx.Request.Context())
	return a
}

func parseID(ctx *ginext.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(ctx.Param(name), 10, 64)
	if err != nil || id <= 0 {
		dto.FieldIncorrectError(ctx, "Invalid "+name)
		return 0, false
	}
	return id, true
}

func bindEvent(ctx *ginext.Context) (model.EventPayload, bool) {
	var req dto.EventRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		dto.FieldIncorrectError(ctx, "Invalid JSON format")
		return model.EventPayload{}, false
	}
	if verr := validator.Validate(ctx, req); verr != nil {
		dto.FieldIncorrectError(ctx, verr.Error())
		return model.EventPayload{}, false
	}
	p, err := req.Payload()
	if err != nil {
		dto.ErrorResponse(ctx, err)
		return model.EventPayload{}, false
	}
	return p, true
}

// bind decodes and validates a JSON body, answering 400 itself on failure.
func bind(ctx *ginext.Context, req any) bool {
	if err := ctx.ShouldBindJSON(req); err != nil {
		dto.FieldIncorrectError(ctx, "Invalid JSON format")
		return false
	}
	if verr := validator.Validate(ctx, req); verr != nil {
		dto.FieldIncorrectError(ctx, verr.Error())
		return false
	}
	return true
}

func (s *service) fail(ctx *ginext.Context, err error, msg string) {
	ev := s.log.Warn()
	if apperr.HTTPStatus(err) >= http.StatusInternalServerError {
		ev = s.log.Error()
	}
	ev.Err(err).Str("path", ctx.FullPath()).Msg(msg)
	dto.ErrorResponse(ctx, err)
}

func listOrEmpty[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}

func (s *service) Health(ctx *ginext.Context) {
	dto.SuccessResponse(ctx, map[string]string{"status": "up"})
}
