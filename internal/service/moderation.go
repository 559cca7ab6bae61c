package service

import (
	"eventhub/internal/dto"

	"github.com/wb-go/wbf/ginext"
)

func (s *service) ReportEvent(ctx *ginext.Context) {
	id, ok := parseID(ctx, "id")
	if !ok {
		return
	}
	var req dto.ReportRequest
	if !bind(ctx, &req) {
		return
	}

	report, err := s.moderation.ReportEvent(ctx, id, actor(ctx).UserID, req.Reason)
	if err != nil {
		s.fail(ctx, err, "failed to report event")
		return
	}
	dto.SuccessCreatedResponse(ctx, report)
}

func (s *service) ListReports(ctx *ginext.Context) {
	reports, err := s.moderation.GetReportedEvents(ctx)
	if err != nil {
		s.fail(ctx, err, "failed to list reports")
		return
	}
	dto.SuccessResponse(ctx, listOrEmpty(reports))
}

func (s *service) IgnoreReport(ctx *ginext.Context) {
	id, ok := parseID(ctx, "id")
	if !ok {
		return
	}
	if err := s.moderation.IgnoreReport(ctx, id); err != nil {
		s.fail(ctx, err, "failed to ignore report")
		return
	}
	dto.SuccessResponse(ctx, map[string]int64{"ignored": id})
}

func (s *service) RejectReportedEvent(ctx *ginext.Context) {
	eventID, ok := parseID(ctx, "id")
	if !ok {
		return
	}
	reportID, ok := parseID(ctx, "reportId")
	if !ok {
		return
	}
	event, err := s.moderation.RejectReportedEvent(ctx, eventID, reportID)
	if err != nil {
		s.fail(ctx, err, "failed to reject reported event")
		return
	}
	dto.SuccessResponse(ctx, event)
}

func (s *service) ListUsers(ctx *ginext.Context) {
	users, err := s.moderation.ListUsers(ctx)
	if err != nil {
		s.fail(ctx, err, "failed to list users")
		return
	}
	dto.SuccessResponse(ctx, listOrEmpty(users))
}

func (s *service) BlockUser(ctx *ginext.Context) {
	id, ok := parseID(ctx, "id")
	if !ok {
		return
	}
	var req dto.BlockRequest
	if !bind(ctx, &req) {
		return
	}

	user, err := s.moderation.SetUserBlocked(ctx, id, *req.Blocked)
	if err != nil {
		s.fail(ctx, err, "failed to change user block status")
		return
	}
	dto.SuccessResponse(ctx, user)
}
