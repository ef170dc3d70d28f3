package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"yellowair/auth"
	"yellowair/metrics"
	"yellowair/middleware"
	"yellowair/models"
	"yellowair/repository"
	"yellowair/services"
)

type loginInput struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type registerInput struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
}

type tokenInput struct {
	Token string `json:"token"`
}

type emailInput struct {
	Email string `json:"email"`
}

type resetPasswordInput struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

const forgotPasswordMessage = "If that email is registered, a password reset link has been sent"

func (h *Handler) Login(c *gin.Context) {
	const op = "handlers.Login"

	var input loginInput
	if err := c.ShouldBindJSON(&input); err != nil {
		errorResponse(c, http.StatusBadRequest, "Email and password are required")
		return
	}

	user, err := h.store.GetUserByEmail(c.Request.Context(), normalizeEmail(input.Email))
	if errors.Is(err, repository.ErrNotFound) {
		errorResponse(c, http.StatusUnauthorized, "Invalid credentials")
		return
	} else if err != nil {
		h.internalError(c, op, err)
		return
	}

	if !auth.CheckPassword(user.PasswordHash, input.Password) {
		errorResponse(c, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	token, err := h.codec.Encode(user.ID, user.Email, user.Name, user.Role)
	if err != nil {
		h.internalError(c, op, err)
		return
	}
	h.setAuthCookie(c, token)

	c.JSON(http.StatusOK, gin.H{"token": token, "user": user})
}

func (h *Handler) Register(c *gin.Context) {
	const op = "handlers.Register"

	if !h.features.RegistrationEnabled {
		errorResponse(c, http.StatusForbidden, "Registration is disabled")
		return
	}

	var input registerInput
	if err := c.ShouldBindJSON(&input); err != nil {
		errorResponse(c, http.StatusBadRequest, "Name, a valid email and a password of at least 8 characters are required")
		return
	}

	hash, err := auth.HashPassword(input.Password)
	if err != nil {
		h.internalError(c, op, err)
		return
	}
	verification, err := auth.RandomToken()
	if err != nil {
		h.internalError(c, op, err)
		return
	}

	user, err := h.store.CreateUser(c.Request.Context(), &models.User{
		Email:                  normalizeEmail(input.Email),
		Name:                   strings.TrimSpace(input.Name),
		PasswordHash:           hash,
		EmailVerificationToken: &verification,
	})
	if errors.Is(err, repository.ErrEmailTaken) {
		errorResponse(c, http.StatusConflict, "Email already registered")
		return
	} else if err != nil {
		h.internalError(c, op, err)
		return
	}

	// Registration succeeds even when the email cannot be delivered.
	_ = h.sendMail(c, "verification", services.VerificationEmail(h.appURL, user.Email, user.Name, verification))

	token, err := h.codec.Encode(user.ID, user.Email, user.Name, user.Role)
	if err != nil {
		h.internalError(c, op, err)
		return
	}
	h.setAuthCookie(c, token)

	c.JSON(http.StatusCreated, gin.H{
		"token":   token,
		"user":    user,
		"message": "Registration successful, please check your email to verify your address",
	})
}

func (h *Handler) Logout(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(auth.CookieName, "", -1, "/", "", h.auth.CookieSecure, true)
	c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
}

func (h *Handler) Me(c *gin.Context) {
	const op = "handlers.Me"

	claims, ok := middleware.ClaimsFrom(c)
	if !ok {
		errorResponse(c, http.StatusUnauthorized, "Authentication required")
		return
	}

	user, err := h.store.GetUserByID(c.Request.Context(), claims.UserID)
	if errors.Is(err, repository.ErrNotFound) {
		errorResponse(c, http.StatusNotFound, "User not found")
		return
	} else if err != nil {
		h.internalError(c, op, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": user})
}

// VerifyEmail consumes an email verification token. A token works once.
func (h *Handler) VerifyEmail(c *gin.Context) {
	const op = "handlers.VerifyEmail"

	var input tokenInput
	if err := c.ShouldBindJSON(&input); err != nil || input.Token == "" {
		messageResponse(c, http.StatusBadRequest, "Missing verification token")
		return
	}

	err := h.store.VerifyEmail(c.Request.Context(), input.Token)
	if errors.Is(err, repository.ErrInvalidToken) {
		messageResponse(c, http.StatusBadRequest, "Invalid verification token")
		return
	} else if err != nil {
		h.internalError(c, op, err)
		return
	}

	messageResponse(c, http.StatusOK, "Email verified")
}

func (h *Handler) VerifyResetToken(c *gin.Context) {
	const op = "handlers.VerifyResetToken"

	var input tokenInput
	if err := c.ShouldBindJSON(&input); err != nil || input.Token == "" {
		messageResponse(c, http.StatusBadRequest, "Missing reset token")
		return
	}

	err := h.store.VerifyResetToken(c.Request.Context(), input.Token)
	if errors.Is(err, repository.ErrInvalidToken) {
		messageResponse(c, http.StatusBadRequest, "Reset token is invalid or expired")
		return
	} else if err != nil {
		h.internalError(c, op, err)
		return
	}

	messageResponse(c, http.StatusOK, "Token is valid")
}

func (h *Handler) SendVerification(c *gin.Context) {
	const op = "handlers.SendVerification"

	var input emailInput
	if err := c.ShouldBindJSON(&input); err != nil || input.Email == "" {
		messageResponse(c, http.StatusBadRequest, "Email is required")
		return
	}

	user, err := h.store.GetUserByEmail(c.Request.Context(), normalizeEmail(input.Email))
	if errors.Is(err, repository.ErrNotFound) {
		messageResponse(c, http.StatusNotFound, "User not found")
		return
	} else if err != nil {
		h.internalError(c, op, err)
		return
	}
	if user.EmailVerified != nil {
		messageResponse(c, http.StatusBadRequest, "Email already verified")
		return
	}

	token, err := auth.RandomToken()
	if err != nil {
		h.internalError(c, op, err)
		return
	}
	if err := h.store.SetEmailVerificationToken(c.Request.Context(), user.ID, token); err != nil {
		h.internalError(c, op, err)
		return
	}

	if err := h.sendMail(c, "verification", services.VerificationEmail(h.appURL, user.Email, user.Name, token)); err != nil {
		messageResponse(c, http.StatusInternalServerError, "Failed to send verification email")
		return
	}

	messageResponse(c, http.StatusOK, "Verification email sent")
}

// ForgotPassword answers the same way whether or not the email exists.
func (h *Handler) ForgotPassword(c *gin.Context) {
	const op = "handlers.ForgotPassword"

	var input emailInput
	if err := c.ShouldBindJSON(&input); err != nil || input.Email == "" {
		messageResponse(c, http.StatusBadRequest, "Email is required")
		return
	}

	user, err := h.store.GetUserByEmail(c.Request.Context(), normalizeEmail(input.Email))
	if errors.Is(err, repository.ErrNotFound) {
		messageResponse(c, http.StatusOK, forgotPasswordMessage)
		return
	} else if err != nil {
		h.internalError(c, op, err)
		return
	}

	token, err := auth.RandomToken()
	if err != nil {
		h.internalError(c, op, err)
		return
	}
	expires := h.now().Add(h.auth.ResetTTL)
	if err := h.store.SetPasswordResetToken(c.Request.Context(), user.ID, token, expires); err != nil {
		h.internalError(c, op, err)
		return
	}

	_ = h.sendMail(c, "password_reset", services.PasswordResetEmail(h.appURL, user.Email, user.Name, token))

	messageResponse(c, http.StatusOK, forgotPasswordMessage)
}

func (h *Handler) ResetPassword(c *gin.Context) {
	const op = "handlers.ResetPassword"

	var input resetPasswordInput
	if err := c.ShouldBindJSON(&input); err != nil || input.Token == "" || input.Password == "" {
		messageResponse(c, http.StatusBadRequest, "Token and password are required")
		return
	}
	if len(input.Password) < auth.MinPasswordLength {
		messageResponse(c, http.StatusBadRequest, "Password must be at least 8 characters")
		return
	}

	hash, err := auth.HashPassword(input.Password)
	if err != nil {
		h.internalError(c, op, err)
		return
	}

	err = h.store.ResetPassword(c.Request.Context(), input.Token, hash)
	if errors.Is(err, repository.ErrInvalidToken) {
		messageResponse(c, http.StatusBadRequest, "Reset token is invalid or expired")
		return
	} else if err != nil {
		h.internalError(c, op, err)
		return
	}

	messageResponse(c, http.StatusOK, "Password has been reset")
}

func (h *Handler) setAuthCookie(c *gin.Context, token string) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(auth.CookieName, token, int(h.auth.TokenTTL.Seconds()), "/", "", h.auth.CookieSecure, true)
}

func (h *Handler) sendMail(c *gin.Context, kind string, msg services.Message) error {
	err := h.mailer.Send(c.Request.Context(), msg)
	metrics.RecordEmail(kind, err == nil)
	if err != nil {
		h.log.WithFields(logrus.Fields{
			"op":   "handlers.sendMail",
			"kind": kind,
		}).WithError(err).Warn("email not sent")
	}
	return err
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
