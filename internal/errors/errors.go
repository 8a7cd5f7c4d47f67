package errors

import "errors"

var (
	ErrIdentityUnresolved = errors.New("unable to resolve caller identity")
	ErrStackNotFound      = errors.New("stack not found")
	ErrStackFailed        = errors.New("stack reached a failed state")
	ErrOutputMissing      = errors.New("required stack output missing")
	ErrTemplateNotFound   = errors.New("template file not found")
	ErrTokenRequired      = errors.New("github token is required for this step")
)
