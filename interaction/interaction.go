// Package interaction resolves the login and consent prompts raised while an
// authorization request is pending.
//
// The gateway has no user interface. A Decider answers every prompt, and the
// FixedIdentity decider answers with a single synthetic account. Whoever
// can reach the authorization endpoint and complete PKCE receives a token
// for that account. Access to the gated
// resource is therefore only as restricted as access to the gateway itself.
// Deployments that need real end-user authentication supply their own
// Decider.
package interaction

import (
	"context"
	"errors"
	"fmt"
)

// PromptKind names what a pending interaction is waiting for.
type PromptKind string

const (
	PromptLogin   PromptKind = "login"
	PromptConsent PromptKind = "consent"
)

// Pseudo-account identity issued by FixedIdentity.
const (
	PseudoAccountID    = "chatgpt-user"
	PseudoAccountEmail = "chatgpt-user@example.com"
)

// ErrUnrecognizedPrompt is returned for a prompt kind a Decider cannot answer.
var ErrUnrecognizedPrompt = errors.New("unrecognized interaction prompt")

// Prompt is the question put to a Decider.
type Prompt struct {
	UID       string
	Kind      PromptKind
	ClientID  string
	Scopes    []string
	AccountID string // set for consent prompts
}

// Decision is a Decider's answer.
type Decision struct {
	// AccountID and Email identify the authenticated account (login).
	AccountID string
	Email     string

	// GrantedScopes are the scopes approved (consent).
	GrantedScopes []string

	// Denied aborts the flow with access_denied.
	Denied bool
	Reason string
}

// Decider answers interaction prompts.
type Decider interface {
	Decide(ctx context.Context, prompt Prompt) (Decision, error)
}

// DeciderFunc adapts a function to the Decider interface.
type DeciderFunc func(ctx context.Context, prompt Prompt) (Decision, error)

func (f DeciderFunc) Decide(ctx context.Context, prompt Prompt) (Decision, error) {
	return f(ctx, prompt)
}

// FixedIdentity logs every prompt in as one account and grants every
// requested scope.
type FixedIdentity struct {
	AccountID string
	Email     string
}

var _ Decider = FixedIdentity{}

// NewFixedIdentity returns a decider for the gateway's pseudo-account.
func NewFixedIdentity() FixedIdentity {
	return FixedIdentity{AccountID: PseudoAccountID, Email: PseudoAccountEmail}
}

func (f FixedIdentity) Decide(_ context.Context, prompt Prompt) (Decision, error) {
	switch prompt.Kind {
	case PromptLogin:
		return Decision{AccountID: f.AccountID, Email: f.Email}, nil
	case PromptConsent:
		return Decision{AccountID: prompt.AccountID, GrantedScopes: append([]string(nil), prompt.Scopes...)}, nil
	default:
		return Decision{}, fmt.Errorf("%w: %q", ErrUnrecognizedPrompt, prompt.Kind)
	}
}
