package oauthmodel

import "errors"

var (
	ErrMissingClientID            = errors.New("client_id is required")
	ErrMissingCodeChallenge       = errors.New("code_challenge is required")
	ErrInvalidCodeChallenge       = errors.New("invalid code challenge")
	ErrInvalidCodeChallengeMethod = errors.New("code_challenge_method must be S256")
	ErrMissingRedirectUri         = errors.New("redirect_uri is required")
	ErrInvalidRedirectUri         = errors.New("redirect_uri is not registered for this client")
	ErrInvalidResponseMode        = errors.New("invalid response mode")
	ErrInvalidResponseType        = errors.New("unsupported response type")
	ErrInvalidScope               = errors.New("invalid scope")
)
