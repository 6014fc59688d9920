package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/geocoder89/addressbook/internal/domain/contact"
	"github.com/geocoder89/addressbook/internal/http/middlewares"
	"github.com/gin-gonic/gin"
)

type ContactStore interface {
	ListByOwner(ctx context.Context, ownerID int64) ([]contact.Contact, error)
	Create(ctx context.Context, ownerID int64, f contact.Fields) (contact.Contact, error)
	Update(ctx context.Context, ownerID, id int64, f contact.Fields) (contact.Contact, error)
	Delete(ctx context.Context, ownerID, id int64) error
}

type ContactsHandler struct {
	repo ContactStore
}

func NewContactsHandler(repo ContactStore) *ContactsHandler {
	return &ContactsHandler{repo: repo}
}

// ownerID reads the user RequireAuth put on the context.
func ownerID(ctx *gin.Context) (int64, bool) {
	u, ok := middlewares.UserFromContext(ctx)
	if !ok {
		RespondError(ctx, http.StatusUnauthorized, "unauthorized", "Missing identity context", nil)
		return 0, false
	}
	return u.ID, true
}

func contactID(ctx *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(ctx.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		RespondBadRequest(ctx, "Invalid contact id", gin.H{"field": "id", "rule": "int"})
		return 0, false
	}
	return id, true
}

func (h *ContactsHandler) ListContacts(ctx *gin.Context) {
	owner, ok := ownerID(ctx)
	if !ok {
		return
	}

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	contacts, err := h.repo.ListByOwner(cctx, owner)

	if err != nil {
		RespondInternal(ctx, "Could not list contacts", err)

		return
	}

	ctx.JSON(http.StatusOK, contacts)
}

func (h *ContactsHandler) CreateContact(ctx *gin.Context) {
	owner, ok := ownerID(ctx)
	if !ok {
		return
	}

	var req contact.Fields

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	c, err := h.repo.Create(cctx, owner, req)

	if err != nil {
		RespondInternal(ctx, "Could not create contact", err)
		return
	}

	ctx.JSON(http.StatusCreated, c)
}

// UpdateContact is a full replace; every field must be present.
func (h *ContactsHandler) UpdateContact(ctx *gin.Context) {
	owner, ok := ownerID(ctx)
	if !ok {
		return
	}

	id, ok := contactID(ctx)
	if !ok {
		return
	}

	var req contact.Fields

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	c, err := h.repo.Update(cctx, owner, id, req)

	if err != nil {
		if errors.Is(err, contact.ErrNotFound) {
			RespondNotFound(ctx, "Contact not found")
			return
		}
		RespondInternal(ctx, "Could not update contact", err)
		return
	}

	ctx.JSON(http.StatusOK, c)
}

func (h *ContactsHandler) DeleteContact(ctx *gin.Context) {
	owner, ok := ownerID(ctx)
	if !ok {
		return
	}

	id, ok := contactID(ctx)
	if !ok {
		return
	}

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	err := h.repo.Delete(cctx, owner, id)

	if err != nil {
		if errors.Is(err, contact.ErrNotFound) {
			RespondNotFound(ctx, "Contact not found")
			return
		}
		RespondInternal(ctx, "Could not delete contact", err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"message": "Contact deleted"})
}
