package handlers_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/geocoder89/contacthub/internal/domain/contact"
	"github.com/geocoder89/contacthub/internal/http/handlers"
	"github.com/geocoder89/contacthub/internal/repo"
	"github.com/gin-gonic/gin"
)

type fakeContactsStore struct {
	listFn   func(ctx context.Context) ([]contact.Contact, error)
	getFn    func(ctx context.Context, id string) (contact.Contact, error)
	addFn    func(ctx context.Context, fields map[string]any) (contact.Contact, error)
	updateFn func(ctx context.Context, id string, fields map[string]any) (contact.Contact, error)
	removeFn func(ctx context.Context, id string) error
}

func (f *fakeContactsStore) List(ctx context.Context) ([]contact.Contact, error) {
	if f.listFn != nil {
		return f.listFn(ctx)
	}
	return nil, nil
}

func (f *fakeContactsStore) GetByID(ctx context.Context, id string) (contact.Contact, error) {
	if f.getFn != nil {
		return f.getFn(ctx, id)
	}
	return nil, repo.ErrNotFound
}

func (f *fakeContactsStore) Add(ctx context.Context, fields map[string]any) (contact.Contact, error) {
	if f.addFn != nil {
		return f.addFn(ctx, fields)
	}
	return nil, errors.New("unexpected Add")
}

func (f *fakeContactsStore) Update(ctx context.Context, id string, fields map[string]any) (contact.Contact, error) {
	if f.updateFn != nil {
		return f.updateFn(ctx, id, fields)
	}
	return nil, repo.ErrNotFound
}

func (f *fakeContactsStore) Remove(ctx context.Context, id string) error {
	if f.removeFn != nil {
		return f.removeFn(ctx, id)
	}
	return repo.ErrNotFound
}

func setupContactsRouter(store *fakeContactsStore) *gin.Engine {
	h := handlers.NewContactsHandler(store, discardLogger())

	r := gin.New()

	r.GET("/contacts", h.List)
	r.GET("/contacts/:id", h.GetByID)
	r.POST("/contacts", h.Add)
	r.PUT("/contacts/:id", h.Update)
	r.DELETE("/contacts/:id", h.Delete)

	return r
}

func doJSON(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	return rec
}

func TestContactsList(t *testing.T) {
	t.Run("returns raw array", func(t *testing.T) {
		store := &fakeContactsStore{
			listFn: func(ctx context.Context) ([]contact.Contact, error) {
				return []contact.Contact{
					{"id": "1", "name": "Allen"},
					{"id": "2", "name": "Chaim"},
				}, nil
			},
		}

		rec := doJSON(setupContactsRouter(store), http.MethodGet, "/contacts", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d", rec.Code)
		}

		var parsed []map[string]any
		if err := json.Unmarshal(rec.Body.Bytes(), &parsed); err != nil {
			t.Fatalf("body is not a JSON array: %v (%s)", err, rec.Body.String())
		}
		if len(parsed) != 2 || parsed[0]["name"] != "Allen" {
			t.Errorf("parsed = %v", parsed)
		}
	})

	t.Run("empty store yields empty array", func(t *testing.T) {
		store := &fakeContactsStore{
			listFn: func(ctx context.Context) ([]contact.Contact, error) {
				return []contact.Contact{}, nil
			},
		}

		rec := doJSON(setupContactsRouter(store), http.MethodGet, "/contacts", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d", rec.Code)
		}
		if body := strings.TrimSpace(rec.Body.String()); body != "[]" {
			t.Errorf("body = %q, want []", body)
		}
	})

	t.Run("storage failure", func(t *testing.T) {
		store := &fakeContactsStore{
			listFn: func(ctx context.Context) ([]contact.Contact, error) {
				return nil, errors.New("disk on fire")
			},
		}

		rec := doJSON(setupContactsRouter(store), http.MethodGet, "/contacts", "")

		if rec.Code != http.StatusInternalServerError {
			t.Fatalf("status = %d", rec.Code)
		}
	})
}

func TestContactsGetByID(t *testing.T) {
	store := &fakeContactsStore{
		getFn: func(ctx context.Context, id string) (contact.Contact, error) {
			if id == "42" {
				return contact.Contact{"id": "42", "name": "Allen"}, nil
			}
			return nil, repo.ErrNotFound
		},
	}
	r := setupContactsRouter(store)

	rec := doJSON(r, http.MethodGet, "/contacts/42", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	rec = doJSON(r, http.MethodGet, "/contacts/999", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestContactsAdd(t *testing.T) {
	t.Run("created", func(t *testing.T) {
		var gotFields map[string]any

		store := &fakeContactsStore{
			addFn: func(ctx context.Context, fields map[string]any) (contact.Contact, error) {
				gotFields = fields
				c := contact.Contact{"id": "1693"}
				return c.Merge(fields), nil
			},
		}

		rec := doJSON(setupContactsRouter(store), http.MethodPost, "/contacts", `{"name":"Allen","phone":"(992) 914-3792","favorite":true}`)

		if rec.Code != http.StatusCreated {
			t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
		}
		if gotFields["phone"] != "(992) 914-3792" {
			t.Errorf("fields = %v", gotFields)
		}

		var created map[string]any
		if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		if created["id"] != "1693" || created["favorite"] != true {
			t.Errorf("created = %v", created)
		}
	})

	t.Run("malformed body", func(t *testing.T) {
		rec := doJSON(setupContactsRouter(&fakeContactsStore{}), http.MethodPost, "/contacts", `{"name":`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("status = %d", rec.Code)
		}
	})
}

func TestContactsUpdate(t *testing.T) {
	t.Run("merged", func(t *testing.T) {
		store := &fakeContactsStore{
			updateFn: func(ctx context.Context, id string, fields map[string]any) (contact.Contact, error) {
				existing := contact.Contact{"id": id, "name": "Allen", "phone": "old"}
				return existing.Merge(fields), nil
			},
		}

		rec := doJSON(setupContactsRouter(store), http.MethodPut, "/contacts/7", `{"phone":"new"}`)

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
		}

		var merged map[string]any
		if err := json.Unmarshal(rec.Body.Bytes(), &merged); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		if merged["phone"] != "new" || merged["name"] != "Allen" || merged["id"] != "7" {
			t.Errorf("merged = %v", merged)
		}
	})

	t.Run("unknown id", func(t *testing.T) {
		rec := doJSON(setupContactsRouter(&fakeContactsStore{}), http.MethodPut, "/contacts/999", `{"phone":"new"}`)

		if rec.Code != http.StatusNotFound {
			t.Fatalf("status = %d, want 404", rec.Code)
		}
	})
}

func TestContactsDelete(t *testing.T) {
	t.Run("deleted", func(t *testing.T) {
		store := &fakeContactsStore{
			removeFn: func(ctx context.Context, id string) error {
				return nil
			},
		}

		rec := doJSON(setupContactsRouter(store), http.MethodDelete, "/contacts/7", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d", rec.Code)
		}

		var body map[string]string
		if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		if body["id"] != "7" || body["message"] != "Contact deleted" {
			t.Errorf("body = %v", body)
		}
	})

	t.Run("unknown id", func(t *testing.T) {
		rec := doJSON(setupContactsRouter(&fakeContactsStore{}), http.MethodDelete, "/contacts/999", "")

		if rec.Code != http.StatusNotFound {
			t.Fatalf("status = %d, want 404", rec.Code)
		}
	})
}
