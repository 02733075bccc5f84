package users

import "time"

// User is a single user record. The store passes records through untouched;
// only the HTTP and CLI layers look inside.
type User struct {
	ID            string    `json:"id" yaml:"id"`
	Type          string    `json:"type,omitempty" yaml:"type,omitempty"`
	Username      string    `json:"username" yaml:"username"`
	Email         string    `json:"email,omitempty" yaml:"email,omitempty"`
	Roles         []string  `json:"roles,omitempty" yaml:"roles,omitempty"`
	Administrator string    `json:"administrator,omitempty" yaml:"administrator,omitempty"`
	Disabled      bool      `json:"disabled,omitempty" yaml:"disabled,omitempty"`
	LastActive    time.Time `json:"last_active" yaml:"last_active,omitempty"`
}

// Filter narrows the user query upstream. A nil *Filter means no filter.
type Filter struct {
	ID       string `json:"id,omitempty" yaml:"id,omitempty"`
	Username string `json:"username,omitempty" yaml:"username,omitempty"`
	Role     string `json:"role,omitempty" yaml:"role,omitempty"`
	Type     string `json:"type,omitempty" yaml:"type,omitempty"`
}

// copyFilter returns a copy of f, or nil if f is nil.
func copyFilter(f *Filter) *Filter {
	if f == nil {
		return nil
	}
	cp := *f
	return &cp
}

// copyUsers returns a copy of u; never nil.
func copyUsers(u []User) []User {
	cp := make([]User, len(u))
	copy(cp, u)
	return cp
}
