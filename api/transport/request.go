package transport

import "github.com/fastygo/users/domain"

// UserRequest is a complete user as sent by POST /api/users/new, PUT
// /api/users and the form-encoded POST /api/users.
type UserRequest struct {
	ID        int64   `json:"id" form:"id"`
	Email     string  `json:"email" form:"email" validate:"notblank,email"`
	FirstName string  `json:"firstName" form:"firstName" validate:"notblank"`
	LastName  string  `json:"lastName" form:"lastName" validate:"notblank"`
	Birthday  string  `json:"birthday" form:"birthday" validate:"required,datetime=2006-01-02,pastdate"`
	Address   *string `json:"address" form:"address"`
	Phone     *string `json:"phone" form:"phone"`
}

// ToUser converts a validated request into a domain user.
func (r UserRequest) ToUser() (*domain.User, error) {
	birthday, err := domain.ParseDate(r.Birthday)
	if err != nil {
		return nil, domain.FieldErrors(map[string][]string{"birthday": {"must be a date in YYYY-MM-DD format"}})
	}
	return &domain.User{
		ID:        r.ID,
		Email:     r.Email,
		FirstName: r.FirstName,
		LastName:  r.LastName,
		Birthday:  birthday,
		Address:   r.Address,
		Phone:     r.Phone,
	}, nil
}

// UpdateRequest holds the optional fields of PUT /api/users/{id}. Absent
// fields are nil; present ones are validated like in UserRequest.
type UpdateRequest struct {
	Email     *string `form:"email" validate:"omitnil,notblank,email"`
	FirstName *string `form:"firstName" validate:"omitnil,notblank"`
	LastName  *string `form:"lastName" validate:"omitnil,notblank"`
	Birthday  *string `form:"birthday" validate:"omitnil,datetime=2006-01-02,pastdate"`
	Address   *string `form:"address"`
	Phone     *string `form:"phone"`
}

// SearchQuery holds the optional bounds of GET /api/users.
type SearchQuery struct {
	From *string `form:"from" validate:"omitnil,datetime=2006-01-02"`
	To   *string `form:"to" validate:"omitnil,datetime=2006-01-02"`
}

// Dates parses the validated bounds.
func (q SearchQuery) Dates() (from, to *domain.Date, err error) {
	if from, err = OptionalDate("from", q.From); err != nil {
		return nil, nil, err
	}
	if to, err = OptionalDate("to", q.To); err != nil {
		return nil, nil, err
	}
	return from, to, nil
}

// OptionalDate parses value when present; field names the offending input.
func OptionalDate(field string, value *string) (*domain.Date, error) {
	if value == nil {
		return nil, nil
	}
	d, err := domain.ParseDate(*value)
	if err != nil {
		return nil, domain.FieldErrors(map[string][]string{field: {"must be a date in YYYY-MM-DD format"}})
	}
	return &d, nil
}
