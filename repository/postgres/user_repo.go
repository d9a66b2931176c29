package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fastygo/users/domain"
	"github.com/fastygo/users/repository"
)

const userColumns = `id, email, first_name, last_name, birthday, address, phone`

type userRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository instantiates a Postgres-backed user repository.
// Ids come from the BIGSERIAL sequence and are never handed out twice.
func NewUserRepository(pool *pgxpool.Pool) repository.UserRepository {
	return &userRepository{pool: pool}
}

func (r *userRepository) Exists(ctx context.Context, id int64) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM users WHERE id = $1)`
	var found bool
	if err := r.pool.QueryRow(ctx, query, id).Scan(&found); err != nil {
		return false, err
	}
	return found, nil
}

func (r *userRepository) FindByID(ctx context.Context, id int64) (*domain.User, error) {
	const query = `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	user, err := scanUser(r.pool.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.UserNotFound(id)
	}
	return user, err
}

func (r *userRepository) FindAll(ctx context.Context) ([]domain.User, error) {
	const query = `SELECT ` + userColumns + ` FROM users ORDER BY id`
	return r.list(ctx, query)
}

func (r *userRepository) Save(ctx context.Context, user *domain.User) (*domain.User, error) {
	if user == nil {
		return nil, domain.ErrInvalidPayload
	}
	if !user.IsNew() {
		return r.Update(ctx, user)
	}

	const query = `
	INSERT INTO users (email, first_name, last_name, birthday, address, phone)
	VALUES ($1, $2, $3, $4, $5, $6)
	RETURNING id
	`
	stored := user.Clone()
	if err := r.pool.QueryRow(ctx, query,
		stored.Email,
		stored.FirstName,
		stored.LastName,
		stored.Birthday.Time(),
		stored.Address,
		stored.Phone,
	).Scan(&stored.ID); err != nil {
		return nil, err
	}
	return stored, nil
}

func (r *userRepository) Update(ctx context.Context, user *domain.User) (*domain.User, error) {
	if user == nil {
		return nil, domain.ErrInvalidPayload
	}

	const query = `
	UPDATE users
	SET email = $2,
		first_name = $3,
		last_name = $4,
		birthday = $5,
		address = $6,
		phone = $7
	WHERE id = $1
	`
	tag, err := r.pool.Exec(ctx, query,
		user.ID,
		user.Email,
		user.FirstName,
		user.LastName,
		user.Birthday.Time(),
		user.Address,
		user.Phone,
	)
	if err != nil {
		return nil, err
	}
	if tag.RowsAffected() == 0 {
		return nil, domain.UserNotFound(user.ID)
	}
	return user.Clone(), nil
}

func (r *userRepository) DeleteByID(ctx context.Context, id int64) (*domain.User, error) {
	const query = `DELETE FROM users WHERE id = $1 RETURNING ` + userColumns
	user, err := scanUser(r.pool.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.UserNotFound(id)
	}
	return user, err
}

func (r *userRepository) FindByBirthdayBetween(ctx context.Context, from, to domain.Date) ([]domain.User, error) {
	const query = `SELECT ` + userColumns + ` FROM users WHERE birthday BETWEEN $1 AND $2 ORDER BY id`
	return r.list(ctx, query, from.Time(), to.Time())
}

func (r *userRepository) list(ctx context.Context, query string, args ...any) ([]domain.User, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := []domain.User{}
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *user)
	}
	return users, rows.Err()
}

func scanUser(row interface {
	Scan(dest ...any) error
}) (*domain.User, error) {
	var (
		user     domain.User
		birthday time.Time
	)
	if err := row.Scan(
		&user.ID,
		&user.Email,
		&user.FirstName,
		&user.LastName,
		&birthday,
		&user.Address,
		&user.Phone,
	); err != nil {
		return nil, err
	}
	user.Birthday = domain.DateOf(birthday)
	return &user, nil
}
