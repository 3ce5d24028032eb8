package services

import "errors"

// Sentinel errors returned by the services. Handlers map these to HTTP
// statuses; anything not listed here is treated as an internal error.
var (
	ErrAlreadyVoted        = errors.New("user has already voted on this question")
	ErrVoteNotFound        = errors.New("no existing vote for this question")
	ErrEditWindowExpired   = errors.New("vote can no longer be changed")
	ErrQuestionUnavailable = errors.New("question is not available for voting")
	ErrInvalidChoice       = errors.New("choice must be A or B")

	ErrNotFound         = errors.New("resource not found")
	ErrPermissionDenied = errors.New("permission denied")
	ErrAlreadyFlagged   = errors.New("question already flagged by this user")

	ErrUsernameTaken      = errors.New("username already taken")
	ErrBadgeNameTaken     = errors.New("badge name already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
)
