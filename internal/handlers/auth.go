package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"

	"github.com/nmoreau/go-image-pipeline/internal/auth"
	"github.com/nmoreau/go-image-pipeline/internal/store"
	"github.com/nmoreau/go-image-pipeline/models"
)

// AuthHandler serves registration and login, issuing bearer tokens for the
// image endpoints.
type AuthHandler struct {
	users    *store.Users
	tokens   *auth.Tokens
	validate *validator.Validate
}

func NewAuthHandler(users *store.Users, tokens *auth.Tokens) *AuthHandler {
	return &AuthHandler{
		users:    users,
		tokens:   tokens,
		validate: validator.New(),
	}
}

type registerRequest struct {
	Username string `json:"username" validate:"omitempty,min=2"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type userResponse struct {
	ID        string `json:"id"`
	Username  string `json:"username,omitempty"`
	Email     string `json:"email"`
	CreatedAt string `json:"createdAt,omitempty"`
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrors(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if msgs := h.validationMessages(h.validate.Struct(req)); len(msgs) > 0 {
		writeErrors(w, http.StatusBadRequest, msgs...)
		return
	}

	if _, err := h.users.FindByEmail(r.Context(), req.Email); err == nil {
		writeErrors(w, http.StatusBadRequest, "a user already uses this email")
		return
	} else if !errors.Is(err, store.ErrNotFound) {
		log.Error().Err(err).Msg("register: email lookup failed")
		writeErrors(w, http.StatusInternalServerError, "an unexpected error occurred on the server")
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		log.Error().Err(err).Msg("register: hashing password failed")
		writeErrors(w, http.StatusInternalServerError, "an unexpected error occurred on the server")
		return
	}

	user := &models.User{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: hash,
	}
	if err := h.users.Create(r.Context(), user); err != nil {
		if errors.Is(err, store.ErrDuplicateEmail) {
			writeErrors(w, http.StatusBadRequest, "a user already uses this email")
			return
		}
		log.Error().Err(err).Msg("register: creating user failed")
		writeErrors(w, http.StatusInternalServerError, "an unexpected error occurred on the server")
		return
	}

	token, err := h.tokens.Issue(user.ID)
	if err != nil {
		log.Error().Err(err).Msg("register: issuing token failed")
		writeErrors(w, http.StatusInternalServerError, "an unexpected error occurred on the server")
		return
	}

	log.Info().Str("userID", user.ID).Msg("user registered")
	writeJSON(w, http.StatusCreated, map[string]any{
		"token": token,
		"user": userResponse{
			ID:       user.ID,
			Username: user.Username,
			Email:    user.Email,
		},
	})
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrors(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if msgs := h.validationMessages(h.validate.Struct(req)); len(msgs) > 0 {
		writeErrors(w, http.StatusBadRequest, msgs...)
		return
	}

	user, err := h.users.FindByEmail(r.Context(), req.Email)
	if errors.Is(err, store.ErrNotFound) {
		writeErrors(w, http.StatusBadRequest, "invalid email")
		return
	}
	if err != nil {
		log.Error().Err(err).Msg("login: email lookup failed")
		writeErrors(w, http.StatusInternalServerError, "an unexpected error occurred on the server")
		return
	}

	if !auth.CheckPassword(user.PasswordHash, req.Password) {
		writeErrors(w, http.StatusBadRequest, "invalid password")
		return
	}

	token, err := h.tokens.Issue(user.ID)
	if err != nil {
		log.Error().Err(err).Msg("login: issuing token failed")
		writeErrors(w, http.StatusInternalServerError, "an unexpected error occurred on the server")
		return
	}

	log.Info().Str("userID", user.ID).Msg("user logged in")
	writeJSON(w, http.StatusOK, map[string]any{
		"token": token,
		"user": userResponse{
			ID:        user.ID,
			Username:  user.Username,
			Email:     user.Email,
			CreatedAt: user.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		},
	})
}

func (h *AuthHandler) validationMessages(err error) []string {
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return []string{"invalid request body"}
	}

	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		switch fe.Field() {
		case "Email":
			msgs = append(msgs, "please enter a valid email address")
		case "Password":
			if fe.Tag() == "required" {
				msgs = append(msgs, "password is required")
			} else {
				msgs = append(msgs, "password must be at least 6 characters long")
			}
		case "Username":
			msgs = append(msgs, "username must be at least 2 characters long")
		default:
			msgs = append(msgs, "invalid request body")
		}
	}
	return msgs
}
