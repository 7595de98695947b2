package handler

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"campus-rides/internal/user/domain"
	"campus-rides/pkg/apperr"
	"campus-rides/pkg/auth"
	"campus-rides/pkg/httpjson"
	"campus-rides/pkg/logger"
)

// UserHandler handles account registration, login and profiles
type UserHandler struct {
	userRepo   domain.UserRepository
	jwtManager *auth.JWTManager
	logger     logger.Logger
}

// NewUserHandler creates a new user handler
func NewUserHandler(userRepo domain.UserRepository, jwtManager *auth.JWTManager, logger logger.Logger) *UserHandler {
	return &UserHandler{
		userRepo:   userRepo,
		jwtManager: jwtManager,
		logger:     logger,
	}
}

// RegisterRequest represents the HTTP request for creating an account
type RegisterRequest struct {
	Username   string `json:"username"`
	Email      string `json:"email"`
	Password   string `json:"password"`
	FullName   string `json:"full_name,omitempty"`
	Department string `json:"department,omitempty"`
}

// Register handles POST /auth/register
func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpjson.WriteError(w, apperr.Invalid("invalid request body"))
		return
	}

	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Username == "" || req.Email == "" {
		httpjson.WriteError(w, apperr.Invalid("username and email are required"))
		return
	}
	if len(req.Password) < 8 {
		httpjson.WriteError(w, apperr.Invalid("password must be at least 8 characters"))
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		h.logger.Error("hash_password_failed", err)
		httpjson.WriteError(w, err)
		return
	}

	user := &domain.User{
		ID:           uuid.NewString(),
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: string(hash),
		FullName:     req.FullName,
		Department:   req.Department,
		Role:         string(auth.RoleStudent),
		CreatedAt:    time.Now(),
	}

	if err := h.userRepo.Save(r.Context(), user); err != nil {
		h.logger.WithFields(logger.LogFields{
			"user_id": user.ID,
		}).Error("register_user_failed", err)
		httpjson.WriteError(w, err)
		return
	}

	h.logger.WithFields(logger.LogFields{
		"user_id": user.ID,
	}).Info("user_registered", "Account created")

	httpjson.WriteJSON(w, http.StatusCreated, user)
}

// LoginRequest represents the HTTP request for authenticating
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse carries the issued token and the account it belongs to
type LoginResponse struct {
	Token string       `json:"token"`
	User  *domain.User `json:"user"`
}

// Login handles POST /auth/login
func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpjson.WriteError(w, apperr.Invalid("invalid request body"))
		return
	}

	user, err := h.userRepo.FindByEmail(r.Context(), strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		// Do not reveal whether the account exists.
		httpjson.WriteError(w, apperr.Unauthorized("invalid email or password"))
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		httpjson.WriteError(w, apperr.Unauthorized("invalid email or password"))
		return
	}

	token, err := h.jwtManager.GenerateToken(user.ID, auth.Role(user.Role))
	if err != nil {
		h.logger.Error("generate_token_failed", err)
		httpjson.WriteError(w, err)
		return
	}

	h.logger.WithFields(logger.LogFields{
		"user_id": user.ID,
	}).Info("user_logged_in", "Login succeeded")

	httpjson.WriteJSON(w, http.StatusOK, LoginResponse{Token: token, User: user})
}

// Me handles GET /users/me
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.GetClaims(r.Context())
	if !ok {
		httpjson.WriteError(w, apperr.Unauthorized("missing claims"))
		return
	}

	user, err := h.userRepo.FindByID(r.Context(), claims.UserID)
	if err != nil {
		httpjson.WriteError(w, err)
		return
	}
	httpjson.WriteJSON(w, http.StatusOK, user)
}

// PublicProfile is the subset of an account visible to other users
type PublicProfile struct {
	ID            string  `json:"id"`
	Username      string  `json:"username"`
	FullName      string  `json:"full_name,omitempty"`
	Department    string  `json:"department,omitempty"`
	AverageRating float64 `json:"average_rating"`
	TotalRatings  int     `json:"total_ratings"`
}

// GetProfile handles GET /users/{user_id}
func (h *UserHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	user, err := h.userRepo.FindByID(r.Context(), r.PathValue("user_id"))
	if err != nil {
		httpjson.WriteError(w, err)
		return
	}
	httpjson.WriteJSON(w, http.StatusOK, PublicProfile{
		ID:            user.ID,
		Username:      user.Username,
		FullName:      user.FullName,
		Department:    user.Department,
		AverageRating: user.AverageRating,
		TotalRatings:  user.TotalRatings,
	})
}
