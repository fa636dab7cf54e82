package file

import (
	"context"
	"strconv"
	"time"

	"github.com/geocoder89/contacthub/internal/cache"
	"github.com/geocoder89/contacthub/internal/domain/contact"
)

const contactsSnapshotKey = "contacts:list"

type ContactsRepo struct {
	col       collection
	snapshots *cache.Cache
	observe   ObserveFunc
}

// NewContactsRepo stores the contact collection in one JSON file at path.
// snapshots and observe may be nil.
func NewContactsRepo(path string, snapshots *cache.Cache, observe ObserveFunc) *ContactsRepo {
	return &ContactsRepo{
		col:       collection{path: path},
		snapshots: snapshots,
		observe:   observe,
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

	if r.snapshots != nil {
		if v, ok := r.snapshots.Get(contactsSnapshotKey); ok {
			if cached, ok := v.([]contact.Contact); ok {
				return cached, nil
			}
		}
	}

	contacts = []contact.Contact{}

	if err = r.col.load(ctx, &contacts); err != nil {
		return nil, err
	}

	if r.snapshots != nil {
		r.snapshots.Set(contactsSnapshotKey, contacts)
	}

	return contacts, nil
}

func (r *ContactsRepo) GetByID(ctx context.Context, id string) (contact.Contact, error) {
	contacts, err := r.List(ctx)

	if err != nil {
		return nil, err
	}

	for _, c := range contacts {
		if c.ID() == id {
			return c, nil
		}
	}

	return nil, ErrNotFound
}

// Add generates a fresh id, appends the record, and rewrites the whole
// collection. The id is time-derived and guaranteed unique within the
// collection; a client-supplied id field is ignored.
func (r *ContactsRepo) Add(ctx context.Context, fields map[string]any) (created contact.Contact, err error) {
	start := time.Now()
	defer func() { r.done("add", start, err) }()

	r.col.mu.Lock()
	defer r.col.mu.Unlock()

	contacts := []contact.Contact{}

	if err = r.col.load(ctx, &contacts); err != nil {
		return nil, err
	}

	taken := make(map[string]struct{}, len(contacts))
	for _, c := range contacts {
		taken[c.ID()] = struct{}{}
	}

	created = contact.Contact{contact.IDField: nextID(taken)}.Merge(fields)

	contacts = append(contacts, created)

	if err = r.col.save(ctx, contacts); err != nil {
		return nil, err
	}

	r.invalidate()

	return created, nil
}

// Update shallow-merges fields over the record with that id. Returns
// ErrNotFound without touching the file when no record matches.
func (r *ContactsRepo) Update(ctx context.Context, id string, fields map[string]any) (merged contact.Contact, err error) {
	start := time.Now()
	defer func() { r.done("update", start, err) }()

	r.col.mu.Lock()
	defer r.col.mu.Unlock()

	contacts := []contact.Contact{}

	if err = r.col.load(ctx, &contacts); err != nil {
		return nil, err
	}

	idx := -1
	for i, c := range contacts {
		if c.ID() == id {
			idx = i
			break
		}
	}

	if idx == -1 {
		return nil, ErrNotFound
	}

	merged = contacts[idx].Merge(fields)
	contacts[idx] = merged

	if err = r.col.save(ctx, contacts); err != nil {
		return nil, err
	}

	r.invalidate()

	return merged, nil
}

// Remove filters the id out. ErrNotFound when nothing matched; the file is
// only rewritten when something was actually removed.
func (r *ContactsRepo) Remove(ctx context.Context, id string) (err error) {
	start := time.Now()
	defer func() { r.done("remove", start, err) }()

	r.col.mu.Lock()
	defer r.col.mu.Unlock()

	contacts := []contact.Contact{}

	if err = r.col.load(ctx, &contacts); err != nil {
		return err
	}

	kept := contacts[:0]
	for _, c := range contacts {
		if c.ID() != id {
			kept = append(kept, c)
		}
	}

	if len(kept) == len(contacts) {
		return ErrNotFound
	}

	if err = r.col.save(ctx, kept); err != nil {
		return err
	}

	r.invalidate()

	return nil
}

func (r *ContactsRepo) invalidate() {
	if r.snapshots != nil {
		r.snapshots.Delete(contactsSnapshotKey)
	}
}

// nextID is the current nanosecond timestamp in decimal, bumped while it
// collides with an existing id. Uniqueness holds even for adds landing in
// the same nanosecond because the caller holds the collection lock.
func nextID(taken map[string]struct{}) string {
	n := time.Now().UnixNano()

	for {
		id := strconv.FormatInt(n, 10)

		if _, exists := taken[id]; !exists {
			return id
		}

		n++
	}
}
