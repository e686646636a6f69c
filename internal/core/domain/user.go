package domain

// User is the authenticated caller as reported by the identity provider.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email,omitempty"`
}

// Authenticated reports whether the user carries an identity.
func (u User) Authenticated() bool {
	return u.ID != ""
}
