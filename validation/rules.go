// Package validation holds the business rules applied to user records and the
// field-level checks performed on inbound requests.
package validation

import "github.com/fastygo/users/domain"

// CheckAge fails with an AGE_NOT_VALID error when the person born on
// birthday has not reached limit years by today. Turning the age today passes.
func CheckAge(birthday domain.Date, limit int, today domain.Date) error {
	if birthday.AddYears(limit).After(today) {
		return domain.AgeNotValid(limit)
	}
	return nil
}

// ConsistentRange reports whether an optional [from, to] window is usable:
// a missing bound always is, otherwise to must be strictly after from.
func ConsistentRange(from, to *domain.Date) bool {
	if from == nil || to == nil {
		return true
	}
	return to.After(*from)
}
