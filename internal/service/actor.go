package service

import "strings"

// Actor is the authenticated identity a mutation is performed as. It is
// passed explicitly into every service operation so authorization gates are
// deterministic and testable.
type Actor struct {
	Key  string
	Role string
}

// IsAdmin reports whether the actor holds the elevated role.
func (a Actor) IsAdmin() bool {
	return strings.EqualFold(strings.TrimSpace(a.Role), "admin")
}

// IsStaff reports whether the actor is a teacher or admin.
func (a Actor) IsStaff() bool {
	role := strings.ToLower(strings.TrimSpace(a.Role))
	return role == "admin" || role == "teacher"
}
