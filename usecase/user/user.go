package user

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/fastygo/users/domain"
	"github.com/fastygo/users/pkg/jsonpatch"
	"github.com/fastygo/users/pkg/logger"
	"github.com/fastygo/users/repository"
	"github.com/fastygo/users/validation"
)

var (
	errIDChanged       = errors.New("id cannot be changed by a patch")
	errMissingBirthday = errors.New("birthday is required")
)

// Config carries the business settings of the use case.
type Config struct {
	// AgeLimit is the minimum age in years a user must have reached.
	AgeLimit int
	// Today returns the current day; defaults to domain.Today.
	Today func() domain.Date
}

// CreateParams are the discrete fields of a new user.
type CreateParams struct {
	Email     string
	FirstName string
	LastName  string
	Birthday  domain.Date
	Address   *string
	Phone     *string
}

// UpdateParams lists the fields to overwrite; nil fields stay unchanged.
type UpdateParams struct {
	Email     *string
	FirstName *string
	LastName  *string
	Birthday  *domain.Date
	Address   *string
	Phone     *string
}

type UseCase struct {
	users    repository.UserRepository
	ageLimit int
	today    func() domain.Date
	logger   *zap.Logger
}

func New(users repository.UserRepository, cfg Config, log *zap.Logger) *UseCase {
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.Today == nil {
		cfg.Today = domain.Today
	}
	if cfg.AgeLimit < 0 {
		cfg.AgeLimit = 0
	}
	return &UseCase{
		users:    users,
		ageLimit: cfg.AgeLimit,
		today:    cfg.Today,
		logger:   log,
	}
}

// AgeLimit returns the configured minimum age.
func (uc *UseCase) AgeLimit() int {
	return uc.ageLimit
}

func (uc *UseCase) Get(ctx context.Context, id int64) (*domain.User, error) {
	return uc.users.FindByID(ctx, id)
}

// Create stores user as a brand-new record; any identifier it carries is ignored.
func (uc *UseCase) Create(ctx context.Context, user *domain.User) (*domain.User, error) {
	if user == nil {
		return nil, domain.ErrInvalidPayload
	}
	if err := uc.checkBirthday(user.Birthday); err != nil {
		return nil, err
	}
	fresh := user.Clone()
	fresh.ID = 0

	created, err := uc.users.Save(ctx, fresh)
	if err != nil {
		return nil, err
	}
	logger.WithRequestID(ctx, uc.logger).Info("user created", zap.Int64("user_id", created.ID))
	return created, nil
}

// CreateFields is Create for callers holding discrete field values.
func (uc *UseCase) CreateFields(ctx context.Context, params CreateParams) (*domain.User, error) {
	return uc.Create(ctx, &domain.User{
		Email:     params.Email,
		FirstName: params.FirstName,
		LastName:  params.LastName,
		Birthday:  params.Birthday,
		Address:   params.Address,
		Phone:     params.Phone,
	})
}

// Update overwrites only the provided fields of an existing user.
func (uc *UseCase) Update(ctx context.Context, id int64, params UpdateParams) (*domain.User, error) {
	user, err := uc.users.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if params.Email != nil {
		user.Email = *params.Email
	}
	if params.FirstName != nil {
		user.FirstName = *params.FirstName
	}
	if params.LastName != nil {
		user.LastName = *params.LastName
	}
	if params.Birthday != nil {
		if err := uc.checkBirthday(*params.Birthday); err != nil {
			return nil, err
		}
		user.Birthday = *params.Birthday
	}
	if params.Address != nil {
		user.Address = domain.StringPtr(*params.Address)
	}
	if params.Phone != nil {
		user.Phone = domain.StringPtr(*params.Phone)
	}
	return uc.save(ctx, user, "user updated")
}

// Replace overwrites every field of an existing user.
func (uc *UseCase) Replace(ctx context.Context, user *domain.User) (*domain.User, error) {
	if user == nil {
		return nil, domain.ErrInvalidPayload
	}
	missing, err := repository.NotExists(ctx, uc.users, user.ID)
	if err != nil {
		return nil, err
	}
	if missing {
		return nil, domain.UserNotFound(user.ID)
	}
	if err := uc.checkBirthday(user.Birthday); err != nil {
		return nil, err
	}
	return uc.save(ctx, user.Clone(), "user replaced")
}

// Patch applies a JSON patch to the JSON form of an existing user. The result
// must still decode into a user, keep its id and satisfy the age limit.
func (uc *UseCase) Patch(ctx context.Context, id int64, patch jsonpatch.Patch) (*domain.User, error) {
	current, err := uc.users.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	doc, err := jsonpatch.FromGo(current)
	if err != nil {
		return nil, domain.WrapError(domain.ErrCodeInternal, "encode user", err)
	}
	patched, err := patch.Apply(doc)
	if err != nil {
		return nil, domain.PatchFailed(err)
	}

	var next domain.User
	if err := patched.ToGo(&next); err != nil {
		return nil, domain.PatchFailed(err)
	}
	if next.ID != id {
		return nil, domain.PatchFailed(errIDChanged)
	}
	if next.Birthday.IsZero() {
		return nil, domain.PatchFailed(errMissingBirthday)
	}
	if err := validation.CheckAge(next.Birthday, uc.ageLimit, uc.today()); err != nil {
		return nil, err
	}
	return uc.save(ctx, &next, "user patched")
}

// Delete removes an existing user and returns it.
func (uc *UseCase) Delete(ctx context.Context, id int64) (*domain.User, error) {
	missing, err := repository.NotExists(ctx, uc.users, id)
	if err != nil {
		return nil, err
	}
	if missing {
		return nil, domain.UserNotFound(id)
	}
	removed, err := uc.users.DeleteByID(ctx, id)
	if err != nil {
		return nil, err
	}
	logger.WithRequestID(ctx, uc.logger).Info("user deleted", zap.Int64("user_id", id))
	return removed, nil
}

// Search lists users born within [from, to]. A missing bound is open; both
// missing lists everyone. from after to is a BAD_RANGE error, equal bounds are fine.
func (uc *UseCase) Search(ctx context.Context, from, to *domain.Date) ([]domain.User, error) {
	if from == nil && to == nil {
		return uc.users.FindAll(ctx)
	}
	if from != nil && to != nil && from.After(*to) {
		return nil, domain.BadRange(*from, *to)
	}
	lo, hi := domain.MinDate, domain.MaxDate
	if from != nil {
		lo = *from
	}
	if to != nil {
		hi = *to
	}
	return uc.users.FindByBirthdayBetween(ctx, lo, hi)
}

func (uc *UseCase) checkBirthday(birthday domain.Date) error {
	if birthday.IsZero() {
		return domain.FieldErrors(map[string][]string{"birthday": {"must not be null"}})
	}
	return validation.CheckAge(birthday, uc.ageLimit, uc.today())
}

func (uc *UseCase) save(ctx context.Context, user *domain.User, event string) (*domain.User, error) {
	saved, err := uc.users.Save(ctx, user)
	if err != nil {
		return nil, err
	}
	logger.WithRequestID(ctx, uc.logger).Debug(event, zap.Int64("user_id", saved.ID))
	return saved, nil
}
