package service

import "errors"

var (
	ErrProfileNotFound  = errors.New("profile_not_found")
	ErrCannotIssue      = errors.New("profile_cannot_issue")
	ErrIdentityRequired = errors.New("identity_required")
	ErrTokenRequired    = errors.New("token_required")
	ErrInvalidToken     = errors.New("invalid_token")
)
