package user

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fastygo/users/domain"
	"github.com/fastygo/users/pkg/jsonpatch"
	"github.com/fastygo/users/repository"
	"github.com/fastygo/users/repository/memory"
)

const ageLimit = 18

var today = domain.NewDate(2026, time.October, 18)

func newUseCase(t *testing.T) (*UseCase, repository.UserRepository) {
	t.Helper()
	repo := memory.NewUserRepository()
	return New(repo, Config{AgeLimit: ageLimit, Today: func() domain.Date { return today }}, nil), repo
}

func user99() *domain.User {
	return &domain.User{
		ID:        99,
		Email:     "email@email.com",
		FirstName: "First",
		LastName:  "Last",
		Birthday:  domain.NewDate(2000, time.February, 2),
	}
}

func mustCreate(t *testing.T, uc *UseCase, first string) *domain.User {
	t.Helper()
	u := user99()
	u.FirstName = first
	created, err := uc.Create(context.Background(), u)
	require.NoError(t, err)
	return created
}

func mustPatch(t *testing.T, body string) jsonpatch.Patch {
	t.Helper()
	p, err := jsonpatch.Decode([]byte(body))
	require.NoError(t, err)
	return p
}

func TestGetMissingUser(t *testing.T) {
	uc, _ := newUseCase(t)

	for _, id := range []int64{0, -1, 1} {
		_, err := uc.Get(context.Background(), id)
		require.Error(t, err)
		assert.True(t, domain.IsDomainError(err, domain.ErrCodeNotFound))
	}
	_, err := uc.Get(context.Background(), 1)
	assert.EqualError(t, err, "User (id=1) not found")
}

func TestCreateAssignsFreshIDs(t *testing.T) {
	ctx := context.Background()
	uc, _ := newUseCase(t)

	a := mustCreate(t, uc, "A")
	b := mustCreate(t, uc, "B")
	assert.Equal(t, int64(1), a.ID)
	assert.Equal(t, int64(2), b.ID)

	_, err := uc.Delete(ctx, a.ID)
	require.NoError(t, err)

	c := mustCreate(t, uc, "C")
	assert.Equal(t, int64(3), c.ID)

	got, err := uc.Get(ctx, c.ID)
	require.NoError(t, err)
	assert.True(t, got.Equal(c))
}

func TestCreateIgnoresCallerID(t *testing.T) {
	ctx := context.Background()
	uc, _ := newUseCase(t)
	first := mustCreate(t, uc, "A")

	clash := user99()
	clash.ID = first.ID
	created, err := uc.Create(ctx, clash)
	require.NoError(t, err)
	assert.Equal(t, int64(2), created.ID)
	assert.Equal(t, first.ID, clash.ID, "input is not mutated")

	stillFirst, err := uc.Get(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, "A", stillFirst.FirstName)
}

func TestCreateAgeLimit(t *testing.T) {
	ctx := context.Background()
	uc, repo := newUseCase(t)

	limitDay := today.AddYears(-ageLimit)
	ok := user99()
	ok.Birthday = limitDay
	_, err := uc.Create(ctx, ok)
	require.NoError(t, err)

	young := user99()
	young.Birthday = limitDay.AddDays(1)
	_, err = uc.Create(ctx, young)
	require.Error(t, err)
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeAgeNotValid))
	assert.EqualError(t, err, "Age not valid. Minimum value is 18.")
	limit, found := domain.AgeLimitOf(err)
	require.True(t, found)
	assert.Equal(t, ageLimit, limit)

	all, err := repo.FindAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1, "rejected user is not stored")
}

func TestCreateRequiresBirthday(t *testing.T) {
	uc, _ := newUseCase(t)
	u := user99()
	u.Birthday = domain.Date{}

	_, err := uc.Create(context.Background(), u)
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeValidation))

	_, err = uc.Create(context.Background(), nil)
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeInvalid))
}

func TestCreateFields(t *testing.T) {
	ctx := context.Background()
	uc, _ := newUseCase(t)

	_, err := uc.CreateFields(ctx, CreateParams{Birthday: today})
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeAgeNotValid))

	created, err := uc.CreateFields(ctx, CreateParams{
		Email:     "JohnCena@gmail.com",
		FirstName: "John",
		LastName:  "Cena",
		Birthday:  today.AddYears(-ageLimit),
		Phone:     domain.StringPtr("555"),
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), created.ID)
	assert.Equal(t, "555", *created.Phone)
	assert.Nil(t, created.Address)
}

func TestUpdateOnlyProvidedFields(t *testing.T) {
	ctx := context.Background()
	uc, _ := newUseCase(t)
	orig := mustCreate(t, uc, "A")

	updated, err := uc.Update(ctx, orig.ID, UpdateParams{
		LastName: domain.StringPtr("Changed"),
		Address:  domain.StringPtr("Main st."),
	})
	require.NoError(t, err)
	assert.Equal(t, "Changed", updated.LastName)
	assert.Equal(t, "Main st.", *updated.Address)
	assert.Equal(t, orig.Email, updated.Email)
	assert.Equal(t, orig.FirstName, updated.FirstName)
	assert.True(t, orig.Birthday.Equal(updated.Birthday))

	stored, err := uc.Get(ctx, orig.ID)
	require.NoError(t, err)
	assert.True(t, stored.Equal(updated))
}

func TestUpdateIsIdempotent(t *testing.T) {
	ctx := context.Background()
	uc, _ := newUseCase(t)
	orig := mustCreate(t, uc, "A")
	params := UpdateParams{Email: domain.StringPtr("new@mail.com")}

	once, err := uc.Update(ctx, orig.ID, params)
	require.NoError(t, err)
	twice, err := uc.Update(ctx, orig.ID, params)
	require.NoError(t, err)
	assert.True(t, once.Equal(twice))
	assert.Equal(t, once.ID, twice.ID)
}

func TestUpdateValidatesBirthday(t *testing.T) {
	ctx := context.Background()
	uc, _ := newUseCase(t)
	orig := mustCreate(t, uc, "A")

	_, err := uc.Update(ctx, orig.ID, UpdateParams{
		FirstName: domain.StringPtr("ignored"),
		Birthday:  &today,
	})
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeAgeNotValid))

	stored, err := uc.Get(ctx, orig.ID)
	require.NoError(t, err)
	assert.Equal(t, "A", stored.FirstName, "failed update leaves the record untouched")

	limitDay := today.AddYears(-ageLimit)
	updated, err := uc.Update(ctx, orig.ID, UpdateParams{Birthday: &limitDay})
	require.NoError(t, err)
	assert.True(t, updated.Birthday.Equal(limitDay))

	_, err = uc.Update(ctx, 404, UpdateParams{})
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeNotFound))
}

func TestReplace(t *testing.T) {
	ctx := context.Background()
	uc, _ := newUseCase(t)
	orig := mustCreate(t, uc, "A")

	_, err := uc.Replace(ctx, user99())
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeNotFound))

	young := user99()
	young.ID = orig.ID
	young.Birthday = today
	_, err = uc.Replace(ctx, young)
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeAgeNotValid))

	next := user99()
	next.ID = orig.ID
	next.FirstName = "Replaced"
	replaced, err := uc.Replace(ctx, next)
	require.NoError(t, err)
	assert.Equal(t, orig.ID, replaced.ID)
	assert.Equal(t, "Replaced", replaced.FirstName)
}

func TestPatch(t *testing.T) {
	ctx := context.Background()
	uc, _ := newUseCase(t)
	orig := mustCreate(t, uc, "A")

	patched, err := uc.Patch(ctx, orig.ID, mustPatch(t, `[
		{"op":"replace","path":"/birthday","value":"0001-01-01"},
		{"op":"add","path":"/phone","value":"555"},
		{"op":"test","path":"/firstName","value":"A"}
	]`))
	require.NoError(t, err)
	assert.True(t, patched.Birthday.Equal(domain.MinDate))
	assert.Equal(t, "555", *patched.Phone)
	assert.Equal(t, orig.ID, patched.ID)

	stored, err := uc.Get(ctx, orig.ID)
	require.NoError(t, err)
	assert.True(t, stored.Equal(patched))
}

func TestPatchEmptyIsIdentity(t *testing.T) {
	ctx := context.Background()
	uc, _ := newUseCase(t)
	orig := mustCreate(t, uc, "A")

	patched, err := uc.Patch(ctx, orig.ID, mustPatch(t, `[]`))
	require.NoError(t, err)
	assert.True(t, orig.Equal(patched))
	assert.Equal(t, orig.ID, patched.ID)
}

func TestPatchFailures(t *testing.T) {
	ctx := context.Background()
	uc, _ := newUseCase(t)
	orig := mustCreate(t, uc, "A")
	mustCreate(t, uc, "B")

	tests := []struct {
		name  string
		id    int64
		patch string
		code  domain.ErrorCode
	}{
		{name: "missing user", id: 404, patch: `[]`, code: domain.ErrCodeNotFound},
		{name: "unknown path", id: orig.ID, patch: `[{"op":"replace","path":"/nickname","value":"x"}]`, code: domain.ErrCodePatch},
		{name: "failed test", id: orig.ID, patch: `[{"op":"test","path":"/firstName","value":"Z"}]`, code: domain.ErrCodePatch},
		{name: "unknown member added", id: orig.ID, patch: `[{"op":"add","path":"/nickname","value":"x"}]`, code: domain.ErrCodePatch},
		{name: "wrong type", id: orig.ID, patch: `[{"op":"replace","path":"/firstName","value":12}]`, code: domain.ErrCodePatch},
		{name: "bad date", id: orig.ID, patch: `[{"op":"replace","path":"/birthday","value":"soon"}]`, code: domain.ErrCodePatch},
		{name: "birthday removed", id: orig.ID, patch: `[{"op":"remove","path":"/birthday"}]`, code: domain.ErrCodePatch},
		{name: "id changed", id: orig.ID, patch: `[{"op":"replace","path":"/id","value":2}]`, code: domain.ErrCodePatch},
		{name: "root replaced", id: orig.ID, patch: `[{"op":"replace","path":"","value":[]}]`, code: domain.ErrCodePatch},
		{name: "too young", id: orig.ID, patch: `[{"op":"replace","path":"/birthday","value":"2026-10-18"}]`, code: domain.ErrCodeAgeNotValid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := uc.Patch(ctx, tt.id, mustPatch(t, tt.patch))
			require.Error(t, err)
			assert.True(t, domain.IsDomainError(err, tt.code), "got %v", err)
		})
	}

	stored, err := uc.Get(ctx, orig.ID)
	require.NoError(t, err)
	assert.True(t, orig.Equal(stored), "failed patches leave the record untouched")

	other, err := uc.Get(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, "B", other.FirstName)
}

func TestPatchErrorExposesOperation(t *testing.T) {
	uc, _ := newUseCase(t)
	orig := mustCreate(t, uc, "A")

	_, err := uc.Patch(context.Background(), orig.ID, mustPatch(t, `[{"op":"remove","path":"/nickname"}]`))
	var pErr *jsonpatch.Error
	require.True(t, errors.As(err, &pErr))
	assert.Equal(t, "/nickname", pErr.Path)
	assert.ErrorIs(t, err, jsonpatch.ErrPathNotFound)
}

func TestDeleteThenGet(t *testing.T) {
	ctx := context.Background()
	uc, _ := newUseCase(t)
	orig := mustCreate(t, uc, "A")

	removed, err := uc.Delete(ctx, orig.ID)
	require.NoError(t, err)
	assert.True(t, orig.Equal(removed))

	_, err = uc.Get(ctx, orig.ID)
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeNotFound))

	_, err = uc.Delete(ctx, orig.ID)
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeNotFound))
}

func TestSearch(t *testing.T) {
	ctx := context.Background()
	uc, _ := newUseCase(t)

	for i, year := range []int{1970, 1980, 1990} {
		u := user99()
		u.FirstName = string(rune('a' + i))
		u.Birthday = domain.NewDate(year, time.January, 1)
		_, err := uc.Create(ctx, u)
		require.NoError(t, err)
	}

	d := func(y int) *domain.Date {
		v := domain.NewDate(y, time.January, 1)
		return &v
	}

	tests := []struct {
		name     string
		from, to *domain.Date
		want     []string
	}{
		{name: "everyone", want: []string{"a", "b", "c"}},
		{name: "open start", to: d(1980), want: []string{"a", "b"}},
		{name: "open end", from: d(1980), want: []string{"b", "c"}},
		{name: "closed", from: d(1971), to: d(1990), want: []string{"b", "c"}},
		{name: "equal bounds", from: d(1990), to: d(1990), want: []string{"c"}},
		{name: "nothing", from: d(2000), want: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := uc.Search(ctx, tt.from, tt.to)
			require.NoError(t, err)
			names := make([]string, 0, len(got))
			for _, u := range got {
				names = append(names, u.FirstName)
			}
			assert.Equal(t, tt.want, names)
		})
	}
}

func TestSearchBadRange(t *testing.T) {
	uc, _ := newUseCase(t)
	from := domain.NewDate(2222, time.February, 1)
	to := domain.NewDate(1111, time.November, 11)

	_, err := uc.Search(context.Background(), &from, &to)
	require.Error(t, err)
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeBadRange))

	_, err = uc.Search(context.Background(), &to, &from)
	assert.NoError(t, err)
}
