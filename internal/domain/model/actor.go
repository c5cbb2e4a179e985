package model

// Actor is the authenticated identity behind a request, as embedded in its
// session token. It is never re-read from storage.
type Actor struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	LastName string `json:"lastName,omitempty"`
	Role     string `json:"role"`
}

func (a Actor) IsAdmin() bool { return a.Role == RoleAdmin }
