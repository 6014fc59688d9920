package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/geocoder89/addressbook/internal/domain/user"
	"github.com/geocoder89/addressbook/internal/observability"
	"github.com/geocoder89/addressbook/internal/security"
	"github.com/gin-gonic/gin"
)

type UserReader interface {
	GetByUsername(ctx context.Context, username string) (user.User, error)
}

type UserWriter interface {
	Create(ctx context.Context, username, email, passwordHash string) (user.User, error)
}

type TokenIssuer interface {
	Issue(subject string) (string, error)
}

type AuthHandler struct {
	users      UserReader
	userWriter UserWriter
	tokens     TokenIssuer
	metrics    *observability.Prom
}

func NewAuthHandler(users UserReader, userWriter UserWriter, tokens TokenIssuer, metrics *observability.Prom) *AuthHandler {
	return &AuthHandler{
		users:      users,
		userWriter: userWriter,
		tokens:     tokens,
		metrics:    metrics,
	}
}

type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// well-formed cost-10 bcrypt hash; checking against it makes unknown usernames as slow as wrong passwords
const dummyHash = "$2a$10$7EqJtq98hPqEX7fNZaFWoOhi5BWX4Z3Bx7tJpP1bYqVOGGk3Gm6AC"

func (h *AuthHandler) Register(ctx *gin.Context) {
	var req user.RegisterRequest

	if !BindJSON(ctx, &req) {
		return
	}

	hash, err := security.HashPassword(req.Password)

	if err != nil {
		// the max tag counts characters; bcrypt counts bytes
		if errors.Is(err, security.ErrPasswordTooLong) {
			RespondBadRequest(ctx, "Invalid request body", gin.H{"fields": []FieldError{{
				Field:   "password",
				Rule:    "max",
				Param:   "72",
				Message: "must be at most 72 bytes",
			}}})
			return
		}

		RespondInternal(ctx, "Could not create user", err)
		return
	}

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 3*time.Second)

	defer cancel()

	u, err := h.userWriter.Create(cctx, req.Username, req.Email, hash)

	if err != nil {
		if errors.Is(err, user.ErrConflict) {
			h.metrics.IncAuth("register", "conflict")
			RespondConflict(ctx, "user_exists", "User already exists")
			return
		}

		RespondInternal(ctx, "Could not create user", err)
		return
	}

	accessToken, err := h.tokens.Issue(u.Username)

	if err != nil {
		RespondInternal(ctx, "Could not generate access token", err)
		return
	}

	h.metrics.IncAuth("register", "ok")

	ctx.JSON(http.StatusCreated, TokenResponse{
		AccessToken: accessToken,
		TokenType:   "bearer",
	})
}

// Login implements the OAuth2 password grant: form fields username and password.
func (h *AuthHandler) Login(ctx *gin.Context) {
	var req user.LoginRequest

	if !BindForm(ctx, &req) {
		return
	}
	// short timeout for DB lookup
	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 2*time.Second)
	defer cancel()

	foundUser, err := h.users.GetByUsername(cctx, req.Username)
	if err != nil {
		if !errors.Is(err, user.ErrNotFound) {
			RespondInternal(ctx, "Could not log in", err)
			return
		}

		_ = security.CheckPassword(dummyHash, req.Password)
		h.metrics.IncAuth("login", "invalid_credentials")
		RespondInvalidCredentials(ctx)
		return
	}

	err = security.CheckPassword(foundUser.PasswordHash, req.Password)

	if err != nil {
		if !errors.Is(err, security.ErrPasswordMismatch) {
			RespondInternal(ctx, "Could not log in", err)
			return
		}

		h.metrics.IncAuth("login", "invalid_credentials")
		RespondInvalidCredentials(ctx)
		return
	}

	accessToken, err := h.tokens.Issue(foundUser.Username)

	if err != nil {
		RespondInternal(ctx, "Could not generate access token", err)
		return
	}

	h.metrics.IncAuth("login", "ok")

	ctx.JSON(http.StatusOK, TokenResponse{
		AccessToken: accessToken,
		TokenType:   "bearer",
	})
}
