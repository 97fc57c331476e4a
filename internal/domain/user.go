package domain

// Identity is the authenticated caller as reported by the identity provider
type Identity struct {
	Subject       string `json:"sub"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	Name          string `json:"name,omitempty"`
	Provider      string `json:"provider"`
}

// Authenticated reports whether the identity carries a subject.
func (i *Identity) Authenticated() bool {
	return i != nil && i.Subject != ""
}
