package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/geocoder89/contacthub/internal/auth"
	"github.com/geocoder89/contacthub/internal/avatar"
	"github.com/geocoder89/contacthub/internal/config"
	"github.com/geocoder89/contacthub/internal/domain/user"
	"github.com/geocoder89/contacthub/internal/http/middlewares"
	"github.com/geocoder89/contacthub/internal/jobs"
	"github.com/geocoder89/contacthub/internal/repo"
	"github.com/geocoder89/contacthub/internal/security"
	"github.com/gin-gonic/gin"
)

type UserReader interface {
	GetByEmail(ctx context.Context, email string) (user.User, error)
	GetByID(ctx context.Context, id string) (user.User, error)
}

type UserWriter interface {
	Create(ctx context.Context, email, passwordHash, name, avatarURL string) (user.User, error)
	UpdateAvatar(ctx context.Context, id, avatarURL string) (user.User, error)
	RemoveToken(ctx context.Context, id, token string) error
}

// WelcomeEnqueuer pushes the post-registration job; nil when no queue is
// configured.
type WelcomeEnqueuer interface {
	Enqueue(ctx context.Context, j jobs.Job) error
}

type UsersHandler struct {
	users   UserReader
	writer  UserWriter
	jwt     *auth.Manager
	avatars avatar.Store
	queue   WelcomeEnqueuer
	log     *slog.Logger

	recordEnqueue func(jobType string)
}

func NewUsersHandler(users UserReader, writer UserWriter, jwtManager *auth.Manager, avatars avatar.Store, queue WelcomeEnqueuer, log *slog.Logger, recordEnqueue func(jobType string)) *UsersHandler {
	return &UsersHandler{
		users:         users,
		writer:        writer,
		jwt:           jwtManager,
		avatars:       avatars,
		queue:         queue,
		log:           log,
		recordEnqueue: recordEnqueue,
	}
}

type RegisterRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

func (h *UsersHandler) Register(ctx *gin.Context) {
	var req RegisterRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)

	defer cancel()

	hash, err := security.HashPassword(req.Password)

	if err != nil {
		h.log.Error("hash password failed", "op", "register", "email", req.Email, "err", err)
		RespondInternal(ctx, "Registration failed")
		return
	}

	avatarURL := avatar.DefaultURL(req.Email)

	u, err := h.writer.Create(cctx, req.Email, hash, req.Name, avatarURL)

	if err != nil {
		if errors.Is(err, repo.ErrEmailAlreadyUsed) {
			RespondConflict(ctx, "email_taken", "User with this email already exists")
			return
		}

		h.log.Error("create user failed", "op", "register", "email", req.Email, "err", err)
		RespondInternal(ctx, "Registration failed")
		return
	}

	h.enqueueWelcome(cctx, u)

	ctx.JSON(http.StatusCreated, gin.H{
		"user": u,
	})
}

func (h *UsersHandler) Login(ctx *gin.Context) {
	var req LoginRequest

	if !BindJSON(ctx, &req) {
		return
	}

	// short timeout for the store lookup
	cctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	foundUser, err := h.users.GetByEmail(cctx, req.Email)
	if err != nil {
		if !errors.Is(err, repo.ErrNotFound) {
			h.log.Error("lookup user failed", "op", "login", "email", req.Email, "err", err)
			RespondInternal(ctx, "Login failed")
			return
		}

		// same message as a wrong password; never reveal which one it was
		RespondUnAuthorized(ctx, "invalid_credentials", "Email or password is wrong")
		return
	}

	err = security.CheckPassword(foundUser.PasswordHash, req.Password)

	if err != nil {
		RespondUnAuthorized(ctx, "invalid_credentials", "Email or password is wrong")
		return
	}

	// minted stateless; nothing is recorded server-side at login
	token, err := h.jwt.GenerateToken(foundUser.ID, foundUser.Email)

	if err != nil {
		h.log.Error("generate token failed", "op", "login", "user_id", foundUser.ID, "err", err)
		RespondInternal(ctx, "Login failed")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"token": token,
		"user": gin.H{
			"email":        foundUser.Email,
			"subscription": foundUser.Subscription,
		},
	})
}

func (h *UsersHandler) Current(ctx *gin.Context) {
	userID, ok := middlewares.UserIDFromContext(ctx)

	if !ok || userID == "" {
		RespondForbidden(ctx, "forbidden", "Not authorized")
		return
	}

	cctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	u, err := h.users.GetByID(cctx, userID)

	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			RespondNotFound(ctx, "User not found")
			return
		}

		h.log.Error("lookup user failed", "op", "current", "user_id", userID, "err", err)
		RespondInternal(ctx, "Failed to fetch user")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"email":        u.Email,
		"subscription": u.Subscription,
	})
}

func (h *UsersHandler) Logout(ctx *gin.Context) {
	userID, _ := middlewares.UserIDFromContext(ctx)
	token, _ := middlewares.TokenFromContext(ctx)

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	err := h.writer.RemoveToken(cctx, userID, token)

	// removing an absent token (or an already-removed user) is still a
	// successful logout
	if err != nil && !errors.Is(err, repo.ErrNotFound) {
		h.log.Error("remove token failed", "op", "logout", "user_id", userID, "err", err)
		RespondInternal(ctx, "Logout failed")
		return
	}

	ctx.Status(http.StatusNoContent)
}

func (h *UsersHandler) UpdateAvatar(ctx *gin.Context) {
	userID, ok := middlewares.UserIDFromContext(ctx)

	if !ok || userID == "" {
		RespondForbidden(ctx, "forbidden", "Not authorized")
		return
	}

	fileHeader, err := ctx.FormFile("avatar")

	if err != nil {
		RespondBadRequest(ctx, "No file uploaded", nil)
		return
	}

	src, err := fileHeader.Open()

	if err != nil {
		h.log.Error("open upload failed", "op", "update_avatar", "user_id", userID, "err", err)
		RespondInternal(ctx, "Failed to update avatar")
		return
	}

	defer src.Close()

	cctx, cancel := config.WithTimeout(5 * time.Second)
	defer cancel()

	avatarURL, err := h.avatars.Save(cctx, fileHeader.Filename, fileHeader.Header.Get("Content-Type"), src)

	if err != nil {
		h.log.Error("store avatar failed", "op", "update_avatar", "user_id", userID, "err", err)
		RespondInternal(ctx, "Failed to update avatar")
		return
	}

	u, err := h.writer.UpdateAvatar(cctx, userID, avatarURL)

	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			RespondNotFound(ctx, "User not found")
			return
		}

		h.log.Error("update avatar failed", "op", "update_avatar", "user_id", userID, "err", err)
		RespondInternal(ctx, "Failed to update avatar")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"message":   "Avatar updated successfully",
		"avatarURL": u.AvatarURL,
	})
}

// enqueueWelcome is best effort: a queue outage never fails registration.
func (h *UsersHandler) enqueueWelcome(ctx context.Context, u user.User) {
	if h.queue == nil {
		return
	}

	payload, err := jobs.EncodePayload(jobs.JobSendWelcome, jobs.SendWelcomePayload{
		UserID: u.ID,
		Email:  u.Email,
		Name:   u.Name,
	})

	if err != nil {
		h.log.Error("encode welcome payload failed", "user_id", u.ID, "err", err)
		return
	}

	j, err := jobs.NewJob(jobs.JobSendWelcome, payload)

	if err != nil {
		h.log.Error("build welcome job failed", "user_id", u.ID, "err", err)
		return
	}

	if err := h.queue.Enqueue(ctx, j); err != nil {
		h.log.Warn("enqueue welcome job failed", "user_id", u.ID, "err", err)
		return
	}

	if h.recordEnqueue != nil {
		h.recordEnqueue(string(jobs.JobSendWelcome))
	}
}
