package dto

import (
	"net/http"
	"strings"
	"time"

	"eventhub/internal/apperr"
	"eventhub/internal/model"
	"eventhub/pkg/validator"

	"github.com/wb-go/wbf/ginext"
)

const (
	FieldBadFormat     = "FIELD_BADFORMAT"
	FieldIncorrect     = "FIELD_INCORRECT"
	Unauthorized       = "UNAUTHORIZED"
	ServiceUnavailable = "SERVICE_UNAVAILABLE"
	InternalError      = "Service is currently unavailable. Please try again later."
)

type EventRequest struct {
	Title       string `json:"title" validate:"required,max=255,singleline"`
	Description string `json:"description" validate:"max=5000"`
	EventDate   string `json:"event_date" validate:"required,isodate"`
	EventTime   string `json:"event_time" validate:"clock"`
	Capacity    int    `json:"capacity" validate:"gte=0"`
	ImageURL    string `json:"image_url" validate:"max=2000"`
	PdfURL      string `json:"pdf_url" validate:"max=2000"`
	Address     string `json:"address" validate:"max=255,singleline"`
	Location    string `json:"location" validate:"max=255,singleline"`
	Category    string `json:"category" validate:"max=100,singleline"`
}

func (r EventRequest) Payload() (model.EventPayload, error) {
	date, err := time.Parse(validator.DateLayout, r.EventDate)
	if err != nil {
		return model.EventPayload{}, apperr.Validation("event_date must look like %s", validator.DateLayout)
	}
	return model.EventPayload{
		Title:       strings.TrimSpace(r.Title),
		Description: r.Description,
		EventDate:   date,
		EventTime:   r.EventTime,
		Capacity:    r.Capacity,
		ImageURL:    strings.TrimSpace(r.ImageURL),
		PdfURL:      strings.TrimSpace(r.PdfURL),
		Address:     r.Address,
		Location:    r.Location,
		Category:    r.Category,
	}, nil
}

type SearchQuery struct {
	Date     string `form:"date" validate:"omitempty,isodate"`
	Location string `form:"location" validate:"max=255"`
	Category string `form:"category" validate:"max=100"`
}

func (q SearchQuery) Filter() model.SearchFilter {
	f := model.SearchFilter{Location: q.Location, Category: q.Category}
	if d, err := time.Parse(validator.DateLayout, q.Date); err == nil {
		f.Date = &d
	}
	return f
}

type ReportRequest struct {
	Reason string `json:"reason" validate:"required,max=1000"`
}

type BlockRequest struct {
	Blocked *bool `json:"blocked" validate:"required"`
}

type RegisterRequest struct {
	Name     string `json:"name" validate:"required,max=255,singleline"`
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=6,max=72"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type ResetPasswordRequest struct {
	Token    string `json:"token" validate:"required"`
	Password string `json:"password" validate:"required,min=6,max=72"`
}

type Response struct {
	Status string `json:"status"`
	Error  *Error `json:"error,omitempty"`
	Data   any    `json:"data,omitempty"`
}

type Error struct {
	Code string `json:"code"`
	Desc string `json:"desc"`
}

func errorBody(code, desc string) Response {
	return Response{Status: "error", Error: &Error{Code: code, Desc: desc}}
}

func BadResponseError(c *ginext.Context, code, desc string) {
	c.JSON(http.StatusBadRequest, errorBody(code, desc))
}

func InternalServerError(c *ginext.Context) {
	c.JSON(http.StatusInternalServerError, errorBody(ServiceUnavailable, InternalError))
}

func UnauthorizedError(c *ginext.Context) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, errorBody(Unauthorized, "Authentication required"))
}

// ErrorResponse writes err with the status and code of its apperr category.
// Unknown errors never leak their text.
func ErrorResponse(c *ginext.Context, err error) {
	status := apperr.HTTPStatus(err)
	if status == http.StatusInternalServerError {
		InternalServerError(c)
		return
	}
	c.JSON(status, errorBody(apperr.Code(err), err.Error()))
}

func ForbiddenError(c *ginext.Context, desc string) {
	c.AbortWithStatusJSON(http.StatusForbidden, errorBody(apperr.Code(apperr.ErrForbidden), desc))
}

func FieldBadFormatError(c *ginext.Context, fieldName string) {
	BadResponseError(c, FieldBadFormat, fieldName+" has bad format")
}

func FieldIncorrectError(c *ginext.Context, desc string) {
	BadResponseError(c, FieldIncorrect, desc)
}

func SuccessResponse(c *ginext.Context, data any) {
	c.JSON(http.StatusOK, Response{Status: "ok", Data: data})
}

func SuccessCreatedResponse(c *ginext.Context, data any) {
	c.JSON(http.StatusCreated, Response{Status: "ok", Data: data})
}
