package domain

import "strings"

// User is the only record managed by the service.
type User struct {
	ID        int64   `json:"id"`
	Email     string  `json:"email"`
	FirstName string  `json:"firstName"`
	LastName  string  `json:"lastName"`
	Birthday  Date    `json:"birthday"`
	Address   *string `json:"address"`
	Phone     *string `json:"phone"`
}

// IsNew reports whether the user has not been persisted yet.
func (u *User) IsNew() bool {
	return u != nil && u.ID == 0
}

// Clone returns a deep copy so callers never share optional fields with a store.
func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	out := *u
	out.Address = cloneString(u.Address)
	out.Phone = cloneString(u.Phone)
	return &out
}

// Equal compares two users by content. Email and birthday must match exactly;
// the remaining text fields ignore surrounding whitespace and treat a blank
// or missing value as empty. The identifier is not compared.
func (u *User) Equal(other *User) bool {
	if u == nil || other == nil {
		return u == other
	}
	return u.Email == other.Email &&
		sameText(u.FirstName, other.FirstName) &&
		sameText(u.LastName, other.LastName) &&
		u.Birthday.Equal(other.Birthday) &&
		sameText(deref(u.Address), deref(other.Address)) &&
		sameText(deref(u.Phone), deref(other.Phone))
}

// StringPtr is a small helper for optional fields.
func StringPtr(s string) *string {
	return &s
}

func sameText(a, b string) bool {
	return strings.TrimSpace(a) == strings.TrimSpace(b)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
