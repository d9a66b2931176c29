package validation

import (
	"errors"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/fastygo/users/domain"
)

const (
	tagNotBlank = "notblank"
	tagPastDate = "pastdate"
)

var messages = map[string]string{
	"required":  "must not be blank",
	tagNotBlank: "must not be blank",
	"email":     "must be a well-formed email address",
	"datetime":  "must be a date in YYYY-MM-DD format",
	tagPastDate: "must be a past date",
}

// Validator runs the `validate` struct tags of request payloads and reports
// every offending field at once.
type Validator struct {
	validate *validator.Validate
	today    func() domain.Date
}

// New builds a Validator. today defaults to domain.Today.
func New(today func() domain.Date) *Validator {
	if today == nil {
		today = domain.Today
	}
	v := &Validator{
		validate: validator.New(),
		today:    today,
	}
	v.validate.RegisterTagNameFunc(fieldName)
	if err := v.validate.RegisterValidation(tagNotBlank, notBlank); err != nil {
		panic(err)
	}
	if err := v.validate.RegisterValidation(tagPastDate, v.pastDate); err != nil {
		panic(err)
	}
	return v
}

// Struct validates s and returns a VALIDATION domain error listing each
// rejected field, or nil.
func (v *Validator) Struct(s any) error {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return domain.WrapError(domain.ErrCodeInvalid, "invalid payload", err)
	}

	fields := make(map[string][]string, len(fieldErrs))
	for _, fe := range fieldErrs {
		fields[fe.Field()] = append(fields[fe.Field()], message(fe.Tag()))
	}
	return domain.FieldErrors(fields)
}

// Range rejects a search window that is not consistent, see ConsistentRange.
func (v *Validator) Range(from, to *domain.Date) error {
	if ConsistentRange(from, to) {
		return nil
	}
	return domain.FieldErrors(map[string][]string{
		"to": {"End date must be after begin date."},
	})
}

// FieldNames lists the rejected fields of a VALIDATION error in a stable order.
func FieldNames(err error) []string {
	var dErr *domain.Error
	if !errors.As(err, &dErr) || dErr.Code != domain.ErrCodeValidation {
		return nil
	}
	names := make([]string, 0, len(dErr.Details))
	for name := range dErr.Details {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (v *Validator) pastDate(fl validator.FieldLevel) bool {
	d, err := domain.ParseDate(fl.Field().String())
	if err != nil {
		return false
	}
	return d.Before(v.today())
}

func notBlank(fl validator.FieldLevel) bool {
	field := fl.Field()
	if field.Kind() != reflect.String {
		return false
	}
	return strings.TrimSpace(field.String()) != ""
}

func fieldName(field reflect.StructField) string {
	for _, key := range []string{"json", "form"} {
		name, _, _ := strings.Cut(field.Tag.Get(key), ",")
		if name == "-" {
			return ""
		}
		if name != "" {
			return name
		}
	}
	return field.Name
}

func message(tag string) string {
	if msg, ok := messages[tag]; ok {
		return msg
	}
	return "is invalid"
}
