package domain

import "strings"

// AnonymousName is the display name used when a client announces no identity.
const AnonymousName = "Anonymous"

// Identity is the display metadata a connection announces at admission time.
// It is supplied by the suite's identity provider and never validated here.
type Identity struct {
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
}

// OrAnonymous returns the identity with a missing or blank name replaced by
// the anonymous placeholder. Admission is never blocked on identity.
func (i Identity) OrAnonymous() Identity {
	i.Name = strings.TrimSpace(i.Name)
	i.Email = strings.TrimSpace(i.Email)
	if i.Name == "" {
		i.Name = AnonymousName
	}
	return i
}
