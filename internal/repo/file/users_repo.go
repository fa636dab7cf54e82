package file

import (
	"context"
	"slices"
	"time"

	"github.com/geocoder89/contacthub/internal/domain/user"
	"github.com/google/uuid"
)

// userRecord is the persisted shape; unlike the domain type it carries the
// password hash and token set in JSON.
type userRecord struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	PasswordHash string    `json:"passwordHash"`
	AvatarURL    string    `json:"avatarURL"`
	Subscription string    `json:"subscription"`
	Tokens       []string  `json:"tokens"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

func (rec userRecord) toDomain() user.User {
	return user.User{
		ID:           rec.ID,
		Email:        rec.Email,
		Name:         rec.Name,
		PasswordHash: rec.PasswordHash,
		AvatarURL:    rec.AvatarURL,
		Subscription: user.Subscription(rec.Subscription),
		Tokens:       rec.Tokens,
		CreatedAt:    rec.CreatedAt,
		UpdatedAt:    rec.UpdatedAt,
	}
}

type UsersRepo struct {
	col     collection
	observe ObserveFunc
}

func NewUsersRepo(path string, observe ObserveFunc) *UsersRepo {
	return &UsersRepo{
		col:     collection{path: path},
		observe: observe,
	}
}

func (r *UsersRepo) done(op string, start time.Time, err error) {
	if r.observe != nil {
		r.observe("users", op, start, err)
	}
}

// Create persists a new user with an empty token set and the default
// subscription tier. Email matching is a case-sensitive exact comparison
// against the stored value.
func (r *UsersRepo) Create(ctx context.Context, email, passwordHash, name, avatarURL string) (u user.User, err error) {
	start := time.Now()
	defer func() { r.done("create", start, err) }()

	r.col.mu.Lock()
	defer r.col.mu.Unlock()

	records := []userRecord{}

	if err = r.col.load(ctx, &records); err != nil {
		return user.User{}, err
	}

	for _, rec := range records {
		if rec.Email == email {
			return user.User{}, ErrEmailAlreadyUsed
		}
	}

	now := time.Now().UTC()

	rec := userRecord{
		ID:           uuid.NewString(),
		Email:        email,
		Name:         name,
		PasswordHash: passwordHash,
		AvatarURL:    avatarURL,
		Subscription: string(user.DefaultSubscription),
		Tokens:       []string{},
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	records = append(records, rec)

	if err = r.col.save(ctx, records); err != nil {
		return user.User{}, err
	}

	return rec.toDomain(), nil
}

func (r *UsersRepo) GetByEmail(ctx context.Context, email string) (user.User, error) {
	start := time.Now()

	records := []userRecord{}

	err := r.col.load(ctx, &records)
	r.done("get_by_email", start, err)

	if err != nil {
		return user.User{}, err
	}

	for _, rec := range records {
		if rec.Email == email {
			return rec.toDomain(), nil
		}
	}

	return user.User{}, ErrNotFound
}

func (r *UsersRepo) GetByID(ctx context.Context, id string) (user.User, error) {
	start := time.Now()

	records := []userRecord{}

	err := r.col.load(ctx, &records)
	r.done("get_by_id", start, err)

	if err != nil {
		return user.User{}, err
	}

	for _, rec := range records {
		if rec.ID == id {
			return rec.toDomain(), nil
		}
	}

	return user.User{}, ErrNotFound
}

// UpdateAvatar replaces the avatar reference and returns the updated user.
func (r *UsersRepo) UpdateAvatar(ctx context.Context, id, avatarURL string) (u user.User, err error) {
	start := time.Now()
	defer func() { r.done("update_avatar", start, err) }()

	r.col.mu.Lock()
	defer r.col.mu.Unlock()

	records := []userRecord{}

	if err = r.col.load(ctx, &records); err != nil {
		return user.User{}, err
	}

	for i := range records {
		if records[i].ID == id {
			records[i].AvatarURL = avatarURL
			records[i].UpdatedAt = time.Now().UTC()

			if err = r.col.save(ctx, records); err != nil {
				return user.User{}, err
			}

			return records[i].toDomain(), nil
		}
	}

	return user.User{}, ErrNotFound
}

// RemoveToken drops one token from the user's active-token set. Removing a
// token that is not present is not an error.
func (r *UsersRepo) RemoveToken(ctx context.Context, id, token string) (err error) {
	start := time.Now()
	defer func() { r.done("remove_token", start, err) }()

	r.col.mu.Lock()
	defer r.col.mu.Unlock()

	records := []userRecord{}

	if err = r.col.load(ctx, &records); err != nil {
		return err
	}

	for i := range records {
		if records[i].ID != id {
			continue
		}

		before := len(records[i].Tokens)
		records[i].Tokens = slices.DeleteFunc(records[i].Tokens, func(t string) bool {
			return t == token
		})

		if len(records[i].Tokens) == before {
			// already absent, nothing to persist
			return nil
		}

		records[i].UpdatedAt = time.Now().UTC()

		return r.col.save(ctx, records)
	}

	return ErrNotFound
}
