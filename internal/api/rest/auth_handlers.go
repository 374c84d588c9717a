package rest

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/claimguard/insurance-fraud-backend/internal/domain/errors"
	"github.com/claimguard/insurance-fraud-backend/internal/domain/user"
	"github.com/claimguard/insurance-fraud-backend/internal/infrastructure/telemetry"
)

// UserStore is the persistence surface the auth handlers need.
type UserStore interface {
	Create(ctx context.Context, u *user.User) error
	GetByUsername(ctx context.Context, username string) (*user.User, error)
}

// Register creates a policyholder account. Staff roles are provisioned
// out of band, never through self-registration.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "Register")
	defer span.End()

	var req RegisterRequest
	if err := h.decodeAndValidate(r, &req); err != nil {
		writeError(w, err)
		return
	}

	if _, err := h.users.GetByUsername(ctx, req.Username); err == nil {
		writeError(w, errors.NewConflictError("username already taken"))
		return
	}

	u, err := user.NewUser(req.Username, req.Email, user.RolePolicyholder)
	if err != nil {
		writeError(w, errors.NewInputError("INVALID_USER", err.Error()))
		return
	}
	u.FirstName = req.FirstName
	u.LastName = req.LastName

	hash, err := h.auth.HashPassword(req.Password)
	if err != nil {
		telemetry.WithSpanError(span, err)
		writeError(w, err)
		return
	}
	u.PasswordHash = hash

	if err := h.users.Create(ctx, u); err != nil {
		telemetry.WithSpanError(span, err)
		writeError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "user registered",
		slog.String("user_id", u.ID.String()),
		slog.String("username", u.Username))

	writeJSON(w, http.StatusCreated, u)
}

// Login verifies credentials and mints a bearer token.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "Login")
	defer span.End()

	var req LoginRequest
	if err := h.decodeAndValidate(r, &req); err != nil {
		writeError(w, err)
		return
	}

	// Lookup and comparison failures collapse to one response so the
	// endpoint does not reveal which usernames exist.
	u, err := h.users.GetByUsername(ctx, req.Username)
	if err != nil {
		writeError(w, errors.NewUnauthorizedError("invalid credentials"))
		return
	}
	if err := h.auth.ComparePassword(u.PasswordHash, req.Password); err != nil {
		writeError(w, errors.NewUnauthorizedError("invalid credentials"))
		return
	}

	token, err := h.auth.GenerateToken(u)
	if err != nil {
		telemetry.WithSpanError(span, err)
		writeError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "user logged in",
		slog.String("user_id", u.ID.String()))

	writeJSON(w, http.StatusOK, TokenResponse{Token: token, User: u})
}
