package models

// ============================================================================
// SESSION USER
// ============================================================================

// SessionUser is the identity carried by an access token. Accounts live in
// the auth service; this API only reads the token.
type SessionUser struct {
	ID    string `json:"id"`
	Email string `json:"email,omitempty"`
}

// SessionResponse bootstraps the front end after login: who the caller is,
// what they may do and the menus they may see.
type SessionResponse struct {
	User        SessionUser                 `json:"user"`
	Permissions PermissionSet               `json:"permissions"`
	Menus       map[string][]PageDescriptor `json:"menus"`
}
