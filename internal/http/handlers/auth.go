package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/quickcook/quickcook/internal/auth"
	"github.com/quickcook/quickcook/internal/domain/user"
	"github.com/quickcook/quickcook/internal/repo/postgres"
	"github.com/quickcook/quickcook/internal/security"
)

type UserReader interface {
	GetByEmail(ctx context.Context, email string) (user.User, error)
}

type UserWriter interface {
	Create(ctx context.Context, username, email, passwordHash string) (user.User, error)
	EmailExists(ctx context.Context, email string) (bool, error)
}

type AuthHandler struct {
	users      UserReader
	userWriter UserWriter
	jwt        *auth.Manager
}

func NewAuthHandler(users UserReader, userWriter UserWriter, jwtManager *auth.Manager) *AuthHandler {
	return &AuthHandler{
		users:      users,
		userWriter: userWriter,
		jwt:        jwtManager,
	}
}

type RegisterRequest struct {
	Username string `json:"username" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

func (h *AuthHandler) Register(ctx *gin.Context) {
	var req RegisterRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 3*time.Second)

	defer cancel()

	exists, err := h.userWriter.EmailExists(cctx, req.Email)

	if err != nil {
		slog.Default().ErrorContext(cctx, "register email check failed", "err", err)
		RespondInternal(ctx, "Could not register user")
		return
	}

	if exists {
		RespondConflict(ctx, "email_taken", "Email is already registered.")
		return
	}

	hash, err := security.HashPassword(req.Password)

	if err != nil {
		RespondInternal(ctx, "Could not register user")
		return
	}

	u, err := h.userWriter.Create(cctx, req.Username, req.Email, hash)

	if err != nil {
		// the unique index wins any race the EmailExists probe missed
		if errors.Is(err, postgres.ErrEmailAlreadyUsed) {
			RespondConflict(ctx, "email_taken", "Email is already registered.")
			return
		}

		slog.Default().ErrorContext(cctx, "register insert failed", "err", err)
		RespondInternal(ctx, "Could not register user")
		return
	}

	token, err := h.jwt.Issue(u)

	if err != nil {
		RespondInternal(ctx, "Could not register user")
		return
	}

	ctx.JSON(http.StatusCreated, gin.H{
		"token": token,
		"user":  u,
	})
}

func (h *AuthHandler) Login(ctx *gin.Context) {
	var req LoginRequest

	if !BindJSON(ctx, &req) {
		return
	}

	// short timeout for DB lookup
	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 2*time.Second)
	defer cancel()

	foundUser, err := h.users.GetByEmail(cctx, req.Email)
	if err != nil {
		// same answer whether the email or the password was wrong
		if errors.Is(err, postgres.ErrUserNotFound) {
			RespondUnauthorized(ctx, "invalid_credentials", "Email or password is incorrect.")
			return
		}

		// anything else is an infrastructure fault, not a credential failure
		slog.Default().ErrorContext(cctx, "login lookup failed", "err", err)
		RespondInternal(ctx, "Could not log in")
		return
	}

	err = security.CheckPassword(foundUser.PasswordHash, req.Password)

	if err != nil {
		RespondUnauthorized(ctx, "invalid_credentials", "Email or password is incorrect.")
		return
	}

	token, err := h.jwt.Issue(foundUser)

	if err != nil {
		RespondInternal(ctx, "Could not log in")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"token": token,
		"user":  foundUser,
	})
}
