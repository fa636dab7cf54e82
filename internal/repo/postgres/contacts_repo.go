package postgres

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/geocoder89/contacthub/internal/domain/contact"
	"github.com/geocoder89/contacthub/internal/repo"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNotFound = repo.ErrNotFound

type ContactsRepo struct {
	pool    *pgxpool.Pool
	observe func(collection, op string, start time.Time, err error)
}

func NewContactsRepo(pool *pgxpool.Pool, observe func(collection, op string, start time.Time, err error)) *ContactsRepo {
	return &ContactsRepo{
		pool:    pool,
		observe: observe,
	}
}

func (r *ContactsRepo) done(op string, start time.Time, err error) {
	if r.observe != nil {
		r.observe("contacts", op, start, err)
	}
}

func (r *ContactsRepo) List(ctx context.Context) (contacts []contact.Contact, err error) {
	start := time.Now()
	defer func() { r.done("list", start, err) }()

	rows, err := r.pool.Query(ctx,
		`SELECT id, fields FROM contacts ORDER BY created_at, id`)

	if err != nil {
		return nil, err
	}

	defer rows.Close()

	contacts = []contact.Contact{}

	for rows.Next() {
		var id string
		var fields map[string]any

		if err = rows.Scan(&id, &fields); err != nil {
			return nil, err
		}

		c := contact.Contact{contact.IDField: id}.Merge(fields)
		contacts = append(contacts, c)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return contacts, nil
}

func (r *ContactsRepo) GetByID(ctx context.Context, id string) (contact.Contact, error) {
	start := time.Now()

	var fields map[string]any

	err := r.pool.QueryRow(ctx,
		`SELECT fields FROM contacts WHERE id = $1`, id).Scan(&fields)

	r.done("get_by_id", start, err)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return contact.Contact{contact.IDField: id}.Merge(fields), nil
}

func (r *ContactsRepo) Add(ctx context.Context, fields map[string]any) (created contact.Contact, err error) {
	start := time.Now()
	defer func() { r.done("add", start, err) }()

	stored := make(map[string]any, len(fields))
	for k, v := range fields {
		if k == contact.IDField {
			continue
		}
		stored[k] = v
	}

	// time-derived id; the primary key absorbs same-nanosecond collisions
	n := time.Now().UnixNano()

	for attempt := 0; attempt < 5; attempt++ {
		id := strconv.FormatInt(n, 10)

		_, err = r.pool.Exec(ctx,
			`INSERT INTO contacts(id, fields) VALUES($1, $2)`, id, stored)

		if err == nil {
			return contact.Contact{contact.IDField: id}.Merge(stored), nil
		}

		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			n++
			continue
		}

		return nil, err
	}

	return nil, err
}

func (r *ContactsRepo) Update(ctx context.Context, id string, fields map[string]any) (merged contact.Contact, err error) {
	start := time.Now()
	defer func() { r.done("update", start, err) }()

	patch := make(map[string]any, len(fields))
	for k, v := range fields {
		if k == contact.IDField {
			continue
		}
		patch[k] = v
	}

	var stored map[string]any

	err = r.pool.QueryRow(ctx,
		`UPDATE contacts
		 SET fields = fields || $2::jsonb, updated_at = now()
		 WHERE id = $1
		 RETURNING fields`,
		id, patch,
	).Scan(&stored)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return contact.Contact{contact.IDField: id}.Merge(stored), nil
}

func (r *ContactsRepo) Remove(ctx context.Context, id string) (err error) {
	start := time.Now()
	defer func() { r.done("remove", start, err) }()

	tag, err := r.pool.Exec(ctx, `DELETE FROM contacts WHERE id = $1`, id)

	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}
