package auth

import (
	"time"

	"github.com/jrsteele09/mcp-oauth-gateway/interaction"
	"github.com/jrsteele09/mcp-oauth-gateway/oauthmodel"
)

// Interaction is a pending authorization request waiting on a prompt.
// It is deleted when completed and otherwise expires.
type Interaction struct {
	UID       string                             `json:"uid"`
	Prompt    interaction.PromptKind             `json:"prompt"`
	Params    oauthmodel.AuthorizationParameters `json:"params"`
	AccountID string                             `json:"account_id,omitempty"`
	Email     string                             `json:"email,omitempty"`
	CreatedAt time.Time                          `json:"created_at"`
	ExpiresAt time.Time                          `json:"expires_at"`
}

// ToPrompt describes the interaction to a Decider.
func (i *Interaction) ToPrompt() interaction.Prompt {
	return interaction.Prompt{
		UID:       i.UID,
		Kind:      i.Prompt,
		ClientID:  i.Params.ClientID,
		Scopes:    i.Params.Scopes(),
		AccountID: i.AccountID,
	}
}

// Session binds a browser to an authenticated account so later
// authorization requests skip the login prompt.
type Session struct {
	ID        string    `json:"id"`
	AccountID string    `json:"account_id"`
	Email     string    `json:"email,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// AuthorizationCode is a single-use grant bound to the request that produced it.
type AuthorizationCode struct {
	Code                string                    `json:"code"`
	ClientID            string                    `json:"client_id"`
	RedirectURI         string                    `json:"redirect_uri"`
	CodeChallenge       string                    `json:"code_challenge"`
	CodeChallengeMethod oauthmodel.CodeMethodType `json:"code_challenge_method"`
	AccountID           string                    `json:"account_id"`
	Email               string                    `json:"email,omitempty"`
	Scope               string                    `json:"scope,omitempty"`
	Resource            string                    `json:"resource,omitempty"`
	IssuedAt            time.Time                 `json:"issued_at"`
	ExpiresAt           time.Time                 `json:"expires_at"`
}
