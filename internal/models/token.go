package models

const (
	// ScopeVerification tokens are handed out before the mobile number is
	// verified and only unlock the verification endpoints.
	ScopeVerification = "verification"
	ScopeAccess       = "access"
)

type Session struct {
	Token     string `json:"token"`
	TokenType string `json:"token_type"`
	Scope     string `json:"scope"`
	ExpiresIn int64  `json:"expires_in"`
}
