package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hongminglow/account-service/internal/account"
	"github.com/hongminglow/account-service/internal/http/respond"
	"github.com/hongminglow/account-service/internal/logging"
	"github.com/hongminglow/account-service/internal/middleware"
	"github.com/hongminglow/account-service/internal/models/dto"
)

// maxBodyBytes caps request bodies; credentials never need more.
const maxBodyBytes = 1 << 20

// AccountService is the account lifecycle the handler exposes over HTTP.
type AccountService interface {
	Register(ctx context.Context, email, password string) error
	Authenticate(ctx context.Context, email, password string) (string, error)
	GetProfile(ctx context.Context, userID int64) (account.Profile, error)
	UpdateProfile(ctx context.Context, userID int64, newPassword *string) error
	Deactivate(ctx context.Context, userID int64) error
}

// AccountHandler owns the register, login and /me endpoints.
type AccountHandler struct {
	svc AccountService
	log logging.Logger
}

// NewAccountHandler constructs the handler.
func NewAccountHandler(svc AccountService, log logging.Logger) *AccountHandler {
	return &AccountHandler{svc: svc, log: log}
}

// Register attaches account routes to r. requireAuth guards the /me routes.
func (h *AccountHandler) Register(r chi.Router, limits middleware.RouteLimiters, requireAuth func(http.Handler) http.Handler) {
	r.With(limits.Register).Post("/register", h.handleRegister)
	r.With(limits.Login).Post("/login", h.handleLogin)
	r.With(limits.Read, requireAuth).Get("/me", h.handleGetMe)
	r.With(limits.Update, requireAuth).Put("/me", h.handleUpdateMe)
	r.With(limits.Deactivate, requireAuth).Delete("/me", h.handleDeleteMe)
}

func (h *AccountHandler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req dto.CredentialsRequest
	if err := decodeJSON(w, r, &req, false); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}
	if err := h.svc.Register(r.Context(), req.Email, req.Password); err != nil {
		h.writeError(w, r, err)
		return
	}
	respond.Message(w, http.StatusCreated, "User registered")
}

func (h *AccountHandler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req dto.CredentialsRequest
	if err := decodeJSON(w, r, &req, false); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}
	token, err := h.svc.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, dto.LoginResponse{AccessToken: token})
}

func (h *AccountHandler) handleGetMe(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	profile, err := h.svc.GetProfile(r.Context(), userID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, dto.ProfileResponse{
		ID:       profile.ID,
		Email:    profile.Email,
		IsActive: profile.IsActive,
	})
}

func (h *AccountHandler) handleUpdateMe(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	var req dto.UpdateProfileRequest
	if err := decodeJSON(w, r, &req, true); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}
	if err := h.svc.UpdateProfile(r.Context(), userID, req.Password); err != nil {
		h.writeError(w, r, err)
		return
	}
	respond.Message(w, http.StatusOK, "Account updated")
}

func (h *AccountHandler) handleDeleteMe(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	if err := h.svc.Deactivate(r.Context(), userID); err != nil {
		h.writeError(w, r, err)
		return
	}
	respond.Message(w, http.StatusOK, "Account deactivated")
}

func (h *AccountHandler) userID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respond.Error(w, http.StatusUnauthorized, "missing or invalid authorization")
	}
	return userID, ok
}

// writeError maps account errors onto HTTP statuses. Unknown errors are logged
// and reported without detail.
func (h *AccountHandler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, account.ErrInvalidInput):
		respond.Error(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, account.ErrConflict):
		respond.Error(w, http.StatusConflict, account.ErrConflict.Error())
	case errors.Is(err, account.ErrInvalidCredentials):
		respond.Error(w, http.StatusUnauthorized, account.ErrInvalidCredentials.Error())
	case errors.Is(err, account.ErrUnauthorized):
		respond.Error(w, http.StatusUnauthorized, "missing or invalid authorization")
	case errors.Is(err, account.ErrAccountDisabled):
		respond.Error(w, http.StatusForbidden, account.ErrAccountDisabled.Error())
	case errors.Is(err, account.ErrNotFound):
		respond.Error(w, http.StatusNotFound, account.ErrNotFound.Error())
	default:
		h.log.Error(r.Context(), "request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		respond.Error(w, http.StatusInternalServerError, "internal server error")
	}
}

// errTrailingData rejects bodies with anything but whitespace after the object.
var errTrailingData = errors.New("unexpected data after JSON object")

// decodeJSON reads a single JSON object from the body. allowEmpty treats an
// empty body as "{}".
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any, allowEmpty bool) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		if allowEmpty && errors.Is(err, io.EOF) {
			return nil
		}
		return err
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return errTrailingData
	}
	return nil
}
