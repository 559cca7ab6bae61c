package service

import (
	"eventhub/internal/dto"

	"github.com/wb-go/wbf/ginext"
)

func (s *service) SignUp(ctx *ginext.Context) {
	var req dto.RegisterRequest
	if !bind(ctx, &req) {
		return
	}

	session, err := s.accounts.Register(ctx, req.Name, req.Email, req.Password)
	if err != nil {
		s.fail(ctx, err, "failed to register user")
		return
	}
	dto.SuccessCreatedResponse(ctx, session)
}

func (s *service) Login(ctx *ginext.Context) {
	var req dto.LoginRequest
	if !bind(ctx, &req) {
		return
	}

	session, err := s.accounts.Login(ctx, req.Email, req.Password)
	if err != nil {
		s.fail(ctx, err, "login failed")
		return
	}
	dto.SuccessResponse(ctx, session)
}

// Logout has nothing to revoke; clients drop the token.
func (s *service) Logout(ctx *ginext.Context) {
	dto.SuccessResponse(ctx, map[string]string{"message": "logged out"})
}

func (s *service) ForgotPassword(ctx *ginext.Context) {
	var req dto.ForgotPasswordRequest
	if !bind(ctx, &req) {
		return
	}

	if err := s.accounts.ForgotPassword(ctx, req.Email); err != nil {
		s.fail(ctx, err, "failed to start password reset")
		return
	}
	dto.SuccessResponse(ctx, map[string]string{"message": "if the email is registered, a reset link is on its way"})
}

func (s *service) ResetPassword(ctx *ginext.Context) {
	var req dto.ResetPasswordRequest
	if !bind(ctx, &req) {
		return
	}

	if err := s.accounts.ResetPassword(ctx, req.Token, req.Password); err != nil {
		s.fail(ctx, err, "failed to reset password")
		return
	}
	dto.SuccessResponse(ctx, map[string]string{"message": "password updated"})
}

func (s *service) Me(ctx *ginext.Context) {
	user, err := s.accounts.Me(ctx, actor(ctx).UserID)
	if err != nil {
		s.fail(ctx, err, "failed to load current user")
		return
	}
	dto.SuccessResponse(ctx, user)
}
