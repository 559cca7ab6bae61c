package service

import (
	"eventhub/internal/dto"
	"eventhub/pkg/validator"

	"github.com/wb-go/wbf/ginext"
)

func (s *service) CreateEvent(ctx *ginext.Context) {
	payload, ok := bindEvent(ctx)
	if !ok {
		return
	}

	event, err := s.events.CreateEvent(ctx, actor(ctx).UserID, payload)
	if err != nil {
		s.fail(ctx, err, "failed to create event")
		return
	}
	dto.SuccessCreatedResponse(ctx, event)
}

func (s *service) ListEvents(ctx *ginext.Context) {
	events, err := s.events.ListApproved(ctx)
	if err != nil {
		s.fail(ctx, err, "failed to list events")
		return
	}
	dto.SuccessResponse(ctx, listOrEmpty(events))
}

func (s *service) SearchEvents(ctx *ginext.Context) {
	var q dto.SearchQuery
	if err := ctx.ShouldBindQuery(&q); err != nil {
		dto.FieldIncorrectError(ctx, "Invalid query")
		return
	}
	if verr := validator.Validate(ctx, q); verr != nil {
		dto.FieldIncorrectError(ctx, verr.Error())
		return
	}

	events, err := s.events.Search(ctx, q.Filter())
	if err != nil {
		s.fail(ctx, err, "failed to search events")
		return
	}
	dto.SuccessResponse(ctx, listOrEmpty(events))
}

func (s *service) GetEvent(ctx *ginext.Context) {
	id, ok := parseID(ctx, "id")
	if !ok {
		return
	}
	event, err := s.events.GetEvent(ctx, id)
	if err != nil {
		s.fail(ctx, err, "failed to get event")
		return
	}
	dto.SuccessResponse(ctx, event)
}

func (s *service) UpdateEvent(ctx *ginext.Context) {
	id, ok := parseID(ctx, "id")
	if !ok {
		return
	}
	payload, ok := bindEvent(ctx)
	if !ok {
		return
	}

	event, err := s.events.EditEvent(ctx, id, actor(ctx), payload)
	if err != nil {
		s.fail(ctx, err, "failed to edit event")
		return
	}
	dto.SuccessResponse(ctx, event)
}

func (s *service) DeleteEvent(ctx *ginext.Context) {
	id, ok := parseID(ctx, "id")
	if !ok {
		return
	}
	if err := s.events.DeleteEvent(ctx, id, actor(ctx)); err != nil {
		s.fail(ctx, err, "failed to delete event")
		return
	}
	dto.SuccessResponse(ctx, map[string]int64{"deleted": id})
}

func (s *service) ListPending(ctx *ginext.Context) {
	events, err := s.events.ListPending(ctx)
	if err != nil {
		s.fail(ctx, err, "failed to list pending events")
		return
	}
	dto.SuccessResponse(ctx, listOrEmpty(events))
}

func (s *service) ApproveEvent(ctx *ginext.Context) {
	id, ok := parseID(ctx, "id")
	if !ok {
		return
	}
	event, err := s.events.ApproveEvent(ctx, id)
	if err != nil {
		s.fail(ctx, err, "failed to approve event")
		return
	}
	dto.SuccessResponse(ctx, event)
}

func (s *service) RejectEvent(ctx *ginext.Context) {
	id, ok := parseID(ctx, "id")
	if !ok {
		return
	}
	event, err := s.events.RejectEvent(ctx, id)
	if err != nil {
		s.fail(ctx, err, "failed to reject event")
		return
	}
	dto.SuccessResponse(ctx, event)
}

func (s *service) Register(ctx *ginext.Context) {
	id, ok := parseID(ctx, "id")
	if !ok {
		return
	}
	reg, err := s.events.RegisterForEvent(ctx, id, actor(ctx).UserID)
	if err != nil {
		s.fail(ctx, err, "failed to register")
		return
	}
	dto.SuccessCreatedResponse(ctx, reg)
}

func (s *service) Unregister(ctx *ginext.Context) {
	id, ok := parseID(ctx, "id")
	if !ok {
		return
	}
	if err := s.events.UnregisterFromEvent(ctx, id, actor(ctx).UserID); err != nil {
		s.fail(ctx, err, "failed to unregister")
		return
	}
	dto.SuccessResponse(ctx, map[string]int64{"event_id": id})
}

func (s *service) MyRegistrations(ctx *ginext.Context) {
	events, err := s.events.ListRegisteredBy(ctx, actor(ctx).UserID)
	if err != nil {
		s.fail(ctx, err, "failed to list registrations")
		return
	}
	dto.SuccessResponse(ctx, listOrEmpty(events))
}

func (s *service) MyCreated(ctx *ginext.Context) {
	events, err := s.events.ListCreatedBy(ctx, actor(ctx).UserID)
	if err != nil {
		s.fail(ctx, err, "failed to list created events")
		return
	}
	dto.SuccessResponse(ctx, listOrEmpty(events))
}

func (s *service) ChatHistory(ctx *ginext.Context) {
	id, ok := parseID(ctx, "id")
	if !ok {
		return
	}
	if _, err := s.events.GetEvent(ctx, id); err != nil {
		s.fail(ctx, err, "failed to load chat event")
		return
	}
	msgs, err := s.chat.History(ctx, id)
	if err != nil {
		s.fail(ctx, err, "failed to load chat history")
		return
	}
	dto.SuccessResponse(ctx, listOrEmpty(msgs))
}
