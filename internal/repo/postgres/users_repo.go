package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/geocoder89/contacthub/internal/domain/user"
	"github.com/geocoder89/contacthub/internal/repo"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrEmailAlreadyUsed = repo.ErrEmailAlreadyUsed

type UsersRepo struct {
	pool    *pgxpool.Pool
	observe func(collection, op string, start time.Time, err error)
}

func NewUsersRepo(pool *pgxpool.Pool, observe func(collection, op string, start time.Time, err error)) *UsersRepo {
	return &UsersRepo{
		pool:    pool,
		observe: observe,
	}
}

func (r *UsersRepo) done(op string, start time.Time, err error) {
	if r.observe != nil {
		r.observe("users", op, start, err)
	}
}

const userColumns = `id, email, name, password_hash, avatar_url, subscription, tokens, created_at, updated_at`

func scanUser(row pgx.Row) (user.User, error) {
	var u user.User

	err := row.Scan(
		&u.ID,
		&u.Email,
		&u.Name,
		&u.PasswordHash,
		&u.AvatarURL,
		&u.Subscription,
		&u.Tokens,
		&u.CreatedAt,
		&u.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return user.User{}, ErrNotFound
		}
		return user.User{}, err
	}

	return u, nil
}

func (r *UsersRepo) Create(ctx context.Context, email, passwordHash, name, avatarURL string) (u user.User, err error) {
	start := time.Now()
	defer func() { r.done("create", start, err) }()

	now := time.Now().UTC()

	u = user.User{
		ID:           uuid.NewString(),
		Email:        email,
		Name:         name,
		PasswordHash: passwordHash,
		AvatarURL:    avatarURL,
		Subscription: user.DefaultSubscription,
		Tokens:       []string{},
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	_, err = r.pool.Exec(ctx,
		`INSERT INTO users(id, email, name, password_hash, avatar_url, subscription, tokens, created_at, updated_at)
		 VALUES($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		u.ID, u.Email, u.Name, u.PasswordHash, u.AvatarURL, u.Subscription, u.Tokens, u.CreatedAt, u.UpdatedAt,
	)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return user.User{}, ErrEmailAlreadyUsed
		}
		return user.User{}, err
	}

	return u, nil
}

func (r *UsersRepo) GetByEmail(ctx context.Context, email string) (user.User, error) {
	start := time.Now()

	u, err := scanUser(r.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = $1`, email))

	r.done("get_by_email", start, err)

	return u, err
}

func (r *UsersRepo) GetByID(ctx context.Context, id string) (user.User, error) {
	start := time.Now()

	u, err := scanUser(r.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id))

	r.done("get_by_id", start, err)

	return u, err
}

func (r *UsersRepo) UpdateAvatar(ctx context.Context, id, avatarURL string) (u user.User, err error) {
	start := time.Now()
	defer func() { r.done("update_avatar", start, err) }()

	u, err = scanUser(r.pool.QueryRow(ctx,
		`UPDATE users
		 SET avatar_url = $2, updated_at = now()
		 WHERE id = $1
		 RETURNING `+userColumns,
		id, avatarURL))

	return u, err
}

// RemoveToken drops one token from the stored set; removing an absent token
// is a no-op, an unknown user is ErrNotFound.
func (r *UsersRepo) RemoveToken(ctx context.Context, id, token string) (err error) {
	start := time.Now()
	defer func() { r.done("remove_token", start, err) }()

	tag, err := r.pool.Exec(ctx,
		`UPDATE users
		 SET tokens = COALESCE(tokens - $2, '[]'::jsonb), updated_at = now()
		 WHERE id = $1`,
		id, token)

	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}
