package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/IgorGrieder/shortlinks/internal/constants"
	"github.com/IgorGrieder/shortlinks/internal/infrastructure/auth"
	"github.com/IgorGrieder/shortlinks/internal/infrastructure/logger"
	appvalidation "github.com/IgorGrieder/shortlinks/internal/infrastructure/validation"
	"github.com/IgorGrieder/shortlinks/internal/processing/users"
	"github.com/IgorGrieder/shortlinks/pkg/httputils"
	"go.uber.org/zap"
)

type UsersHandler struct {
	svc *users.Service
}

func NewUsersHandler(svc *users.Service) *UsersHandler {
	return &UsersHandler{svc: svc}
}

type registerRequest struct {
	Username        string `json:"username" validate:"required,notblank"`
	Email           string `json:"email" validate:"required,notblank"`
	Password        string `json:"password" validate:"required"`
	PasswordConfirm string `json:"passwordConfirm" validate:"required"`
}

type loginRequest struct {
	Username string `json:"username" validate:"required,notblank"`
	Password string `json:"password" validate:"required"`
}

type userResponse struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

type authResponse struct {
	Token string       `json:"token"`
	User  userResponse `json:"user"`
}

func toUserResponse(u *users.User) userResponse {
	return userResponse{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		CreatedAt: u.CreatedAt,
	}
}

func (h *UsersHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := httputils.DecodeJSON(w, r, &req); err != nil {
		httputils.WriteAPIError(w, r, constants.ErrInvalidRequestBody)
		return
	}
	if err := appvalidation.Validate(req); err != nil {
		httputils.WriteAPIError(w, r, constants.ErrInvalidRequestBody.WithMessage(appvalidation.Message(err)))
		return
	}

	user, token, err := h.svc.Register(r.Context(), users.RegisterInput{
		Username:        req.Username,
		Email:           req.Email,
		Password:        req.Password,
		PasswordConfirm: req.PasswordConfirm,
	})
	if err != nil {
		switch {
		case errors.Is(err, users.ErrUsernameTaken):
			httputils.WriteAPIError(w, r, constants.ErrUsernameTaken)
		case errors.Is(err, users.ErrInvalidUsername):
			httputils.WriteAPIError(w, r, constants.ErrInvalidRequestBody.WithMessage("username must be 3-150 characters: letters, digits and @.+-_"))
		case errors.Is(err, users.ErrInvalidEmail):
			httputils.WriteAPIError(w, r, constants.ErrInvalidRequestBody.WithMessage("invalid email address"))
		case errors.Is(err, users.ErrInvalidPassword):
			httputils.WriteAPIError(w, r, constants.ErrInvalidRequestBody.WithMessage("password must be 8-72 characters"))
		case errors.Is(err, users.ErrPasswordMismatch):
			httputils.WriteAPIError(w, r, constants.ErrInvalidRequestBody.WithMessage("passwords do not match"))
		default:
			logger.Error("failed to register user", zap.Error(err))
			httputils.WriteAPIError(w, r, constants.ErrInternalError)
		}
		return
	}

	logger.Info("user registered", zap.String("user_id", user.ID))
	httputils.WriteAPISuccess(w, r, constants.SuccessUserRegistered, authResponse{
		Token: token,
		User:  toUserResponse(user),
	})
}

func (h *UsersHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := httputils.DecodeJSON(w, r, &req); err != nil {
		httputils.WriteAPIError(w, r, constants.ErrInvalidRequestBody)
		return
	}
	if err := appvalidation.Validate(req); err != nil {
		httputils.WriteAPIError(w, r, constants.ErrInvalidCredentials)
		return
	}

	user, token, err := h.svc.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, users.ErrInvalidCredentials) {
			httputils.WriteAPIError(w, r, constants.ErrInvalidCredentials)
			return
		}
		logger.Error("failed to log in", zap.Error(err))
		httputils.WriteAPIError(w, r, constants.ErrInternalError)
		return
	}

	httputils.WriteAPISuccess(w, r, constants.SuccessLoggedIn, authResponse{
		Token: token,
		User:  toUserResponse(user),
	})
}

// Me returns the account behind the bearer token.
func (h *UsersHandler) Me(w http.ResponseWriter, r *http.Request) {
	id, ok := auth.GetIdentity(r.Context())
	if !ok {
		httputils.WriteAPIError(w, r, constants.ErrUnauthorized)
		return
	}

	user, err := h.svc.GetUser(r.Context(), id.UserID)
	if err != nil {
		if errors.Is(err, users.ErrUserNotFound) {
			httputils.WriteAPIError(w, r, constants.ErrUnauthorized)
			return
		}
		logger.Error("failed to load user", zap.Error(err))
		httputils.WriteAPIError(w, r, constants.ErrInternalError)
		return
	}

	httputils.WriteAPISuccess(w, r, constants.SuccessUserFound, toUserResponse(user))
}
