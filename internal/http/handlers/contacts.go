package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/geocoder89/contacthub/internal/config"
	"github.com/geocoder89/contacthub/internal/domain/contact"
	"github.com/geocoder89/contacthub/internal/repo"
	"github.com/gin-gonic/gin"
)

type ContactsStore interface {
	List(ctx context.Context) ([]contact.Contact, error)
	GetByID(ctx context.Context, id string) (contact.Contact, error)
	Add(ctx context.Context, fields map[string]any) (contact.Contact, error)
	Update(ctx context.Context, id string, fields map[string]any) (contact.Contact, error)
	Remove(ctx context.Context, id string) error
}

type ContactsHandler struct {
	store ContactsStore
	log   *slog.Logger
}

func NewContactsHandler(store ContactsStore, log *slog.Logger) *ContactsHandler {
	return &ContactsHandler{
		store: store,
		log:   log,
	}
}

func (h *ContactsHandler) List(ctx *gin.Context) {
	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	contacts, err := h.store.List(cctx)

	if err != nil {
		h.log.Error("list contacts failed", "op", "list", "err", err)
		RespondInternal(ctx, "Could not list contacts")
		return
	}

	ctx.JSON(http.StatusOK, contacts)
}

func (h *ContactsHandler) GetByID(ctx *gin.Context) {
	id := ctx.Param("id")

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	c, err := h.store.GetByID(cctx, id)

	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			RespondNotFound(ctx, "Contact not found")
			return
		}

		h.log.Error("get contact failed", "op", "get", "id", id, "err", err)
		RespondInternal(ctx, "Could not fetch contact")
		return
	}

	ctx.JSON(http.StatusOK, c)
}

func (h *ContactsHandler) Add(ctx *gin.Context) {
	fields := map[string]any{}

	if err := ctx.ShouldBindJSON(&fields); err != nil {
		RespondBadRequest(ctx, "Invalid request body", parseBindError(err))
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	created, err := h.store.Add(cctx, fields)

	if err != nil {
		h.log.Error("add contact failed", "op", "add", "err", err)
		RespondInternal(ctx, "Could not create contact")
		return
	}

	ctx.JSON(http.StatusCreated, created)
}

func (h *ContactsHandler) Update(ctx *gin.Context) {
	id := ctx.Param("id")

	fields := map[string]any{}

	if err := ctx.ShouldBindJSON(&fields); err != nil {
		RespondBadRequest(ctx, "Invalid request body", parseBindError(err))
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	merged, err := h.store.Update(cctx, id, fields)

	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			RespondNotFound(ctx, "Contact not found")
			return
		}

		h.log.Error("update contact failed", "op", "update", "id", id, "err", err)
		RespondInternal(ctx, "Could not update contact")
		return
	}

	ctx.JSON(http.StatusOK, merged)
}

func (h *ContactsHandler) Delete(ctx *gin.Context) {
	id := ctx.Param("id")

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	err := h.store.Remove(cctx, id)

	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			RespondNotFound(ctx, "Contact not found")
			return
		}

		h.log.Error("delete contact failed", "op", "delete", "id", id, "err", err)
		RespondInternal(ctx, "Could not delete contact")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"id":      id,
		"message": "Contact deleted",
	})
}
