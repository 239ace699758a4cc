package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/storelane-dev/storelane/internal/auth"
	"github.com/storelane-dev/storelane/internal/models"
	"github.com/storelane-dev/storelane/internal/otp"
	"github.com/storelane-dev/storelane/internal/tasks"
)

// LoginRequest represents a login request
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// LoginResponse represents a login response
type LoginResponse struct {
	Token string      `json:"token"`
	User  *UserDetail `json:"user"`
}

// UserDetail represents user information returned in responses
type UserDetail struct {
	ID              string    `json:"id"`
	Email           string    `json:"email"`
	FirstName       string    `json:"firstName"`
	LastName        string    `json:"lastName"`
	IsEmailVerified bool      `json:"isEmailVerified"`
	CreatedAt       time.Time `json:"createdAt"`
}

// InitiateRegistrationRequest starts the two-phase registration flow
type InitiateRegistrationRequest struct {
	Email           string `json:"email" binding:"required,email"`
	FirstName       string `json:"firstName" binding:"required"`
	LastName        string `json:"lastName" binding:"required"`
	Password        string `json:"password" binding:"required,strongpassword"`
	ConfirmPassword string `json:"confirmPassword" binding:"required,eqfield=Password"`
}

// CompleteRegistrationRequest redeems the emailed code and creates the account
type CompleteRegistrationRequest struct {
	Email     string `json:"email" binding:"required,email"`
	OTP       string `json:"otp" binding:"required,otpcode"`
	FirstName string `json:"firstName" binding:"required"`
	LastName  string `json:"lastName" binding:"required"`
	Password  string `json:"password" binding:"required,strongpassword"`
}

// InitiatePasswordResetRequest requests a reset code
type InitiatePasswordResetRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// VerifyPasswordResetOTPRequest redeems the reset code for a ticket
type VerifyPasswordResetOTPRequest struct {
	Email string `json:"email" binding:"required,email"`
	OTP   string `json:"otp" binding:"required,otpcode"`
}

// VerifyPasswordResetOTPResponse carries the single-use reset ticket.
// The ticket is not a session token and grants no API access.
type VerifyPasswordResetOTPResponse struct {
	Token string `json:"token"`
}

// CompletePasswordResetRequest finalizes the new password
type CompletePasswordResetRequest struct {
	Token           string `json:"token" binding:"required"`
	Password        string `json:"password" binding:"required,strongpassword"`
	ConfirmPassword string `json:"confirmPassword" binding:"required,eqfield=Password"`
}

// ResendOTPRequest reissues a code for either flow
type ResendOTPRequest struct {
	Email string `json:"email" binding:"required,email"`
	Type  string `json:"type" binding:"required,oneof=register reset-password"`
}

func userDetail(user *models.User) *UserDetail {
	return &UserDetail{
		ID:              user.ID,
		Email:           user.Email,
		FirstName:       user.FirstName,
		LastName:        user.LastName,
		IsEmailVerified: user.IsEmailVerified,
		CreatedAt:       user.CreatedAt,
	}
}

// issueAndDeliver creates a fresh code and queues its email delivery
func (s *Server) issueAndDeliver(email, purpose string) error {
	code, err := s.otpService.Issue(email, purpose)
	if err != nil {
		return err
	}

	task, err := tasks.NewSendOTPEmailTask(email, code, purpose)
	if err != nil {
		return err
	}
	if _, err := s.enqueuer.Enqueue(task); err != nil {
		return err
	}
	return nil
}

// @Summary Login
// @Description Authenticate with email and password
// @Tags auth
// @Accept json
// @Produce json
// @Param request body LoginRequest true "Login request"
// @Success 200 {object} LoginResponse
// @Failure 400 {object} map[string]interface{}
// @Failure 401 {object} map[string]interface{}
// @Router /api/auth/login [post]
func (s *Server) login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// Find user by email
	var user models.User
	if err := s.db.Where("email = ?", req.Email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid email or password"})
			return
		}
		s.logger.Error().Err(err).Msg("Failed to find user")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	// Verify password
	if err := auth.VerifyPassword(req.Password, user.PasswordHash); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid email or password"})
		return
	}

	token, err := s.tokens.GenerateToken(user.ID, user.Email)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to generate token")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
		return
	}

	s.logger.Info().Str("user_id", user.ID).Str("email", user.Email).Msg("User logged in")

	c.JSON(http.StatusOK, LoginResponse{
		Token: token,
		User:  userDetail(&user),
	})
}

// @Summary Get current user
// @Description Get information about the currently authenticated user
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]interface{}
// @Failure 401 {object} map[string]interface{}
// @Router /api/auth/me [get]
func (s *Server) getCurrentUser(c *gin.Context) {
	sessionData, exists := GetSessionData(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var user models.User
	if err := s.db.Where("id = ?", sessionData.UserID).First(&user).Error; err != nil {
		s.logger.Error().Err(err).Str("user_id", sessionData.UserID).Msg("Failed to find user")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": userDetail(&user)})
}

// @Summary Initiate registration
// @Description Send a one-time code to the email to start registration
// @Tags auth
// @Accept json
// @Produce json
// @Param request body InitiateRegistrationRequest true "Registration request"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{}
// @Failure 409 {object} map[string]interface{}
// @Failure 429 {object} map[string]interface{}
// @Router /api/auth/register/initiate [post]
func (s *Server) initiateRegistration(c *gin.Context) {
	var req InitiateRegistrationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// Reject emails that already have an account
	var count int64
	if err := s.db.Model(&models.User{}).Where("email = ?", req.Email).Count(&count).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to check existing user")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}
	if count > 0 {
		c.JSON(http.StatusConflict, gin.H{"error": "Email is already registered"})
		return
	}

	if err := s.issueAndDeliver(req.Email, models.PurposeRegister); err != nil {
		s.respondOTPIssueError(c, err)
		return
	}

	s.logger.Info().Str("email", req.Email).Msg("Registration code sent")
	c.JSON(http.StatusOK, gin.H{"message": "Verification code sent"})
}

// @Summary Complete registration
// @Description Redeem the emailed code and create the account
// @Tags auth
// @Accept json
// @Produce json
// @Param request body CompleteRegistrationRequest true "Completion request"
// @Success 200 {object} LoginResponse
// @Failure 400 {object} map[string]interface{}
// @Failure 409 {object} map[string]interface{}
// @Router /api/auth/register/complete [post]
func (s *Server) completeRegistration(c *gin.Context) {
	var req CompleteRegistrationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := s.otpService.Verify(req.Email, models.PurposeRegister, req.OTP); err != nil {
		s.respondOTPVerifyError(c, err)
		return
	}

	passwordHash, err := auth.HashPassword(req.Password)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to hash password")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create account"})
		return
	}

	user := &models.User{
		Email:           req.Email,
		PasswordHash:    passwordHash,
		FirstName:       req.FirstName,
		LastName:        req.LastName,
		IsEmailVerified: true,
	}

	if err := s.db.Create(user).Error; err != nil {
		// The code was valid but someone registered this email meanwhile
		s.logger.Error().Err(err).Str("email", req.Email).Msg("Failed to create user")
		c.JSON(http.StatusConflict, gin.H{"error": "Email is already registered"})
		return
	}

	token, err := s.tokens.GenerateToken(user.ID, user.Email)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to generate token")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
		return
	}

	s.logger.Info().Str("user_id", user.ID).Str("email", user.Email).Msg("User registered")

	c.JSON(http.StatusOK, LoginResponse{
		Token: token,
		User:  userDetail(user),
	})
}

// @Summary Initiate password reset
// @Description Send a reset code if the account exists; the response never reveals whether it does
// @Tags auth
// @Accept json
// @Produce json
// @Param request body InitiatePasswordResetRequest true "Reset request"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{}
// @Failure 429 {object} map[string]interface{}
// @Router /api/auth/password-reset/initiate [post]
func (s *Server) initiatePasswordReset(c *gin.Context) {
	var req InitiatePasswordResetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var count int64
	if err := s.db.Model(&models.User{}).Where("email = ?", req.Email).Count(&count).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to check existing user")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	if count > 0 {
		if err := s.issueAndDeliver(req.Email, models.PurposeResetPassword); err != nil {
			if errors.Is(err, otp.ErrResendTooSoon) {
				c.JSON(http.StatusTooManyRequests, gin.H{"error": otp.ErrResendTooSoon.Error()})
				return
			}
			s.logger.Error().Err(err).Str("email", req.Email).Msg("Failed to issue reset code")
			// Fall through to the generic ack; the address must not be probeable
		} else {
			s.logger.Info().Str("email", req.Email).Msg("Password reset code sent")
		}
	}

	c.JSON(http.StatusOK, gin.H{"message": "If the account exists, a reset code has been sent"})
}

// @Summary Verify password reset code
// @Description Redeem the reset code for a short-lived single-use reset ticket
// @Tags auth
// @Accept json
// @Produce json
// @Param request body VerifyPasswordResetOTPRequest true "Verification request"
// @Success 200 {object} VerifyPasswordResetOTPResponse
// @Failure 400 {object} map[string]interface{}
// @Router /api/auth/password-reset/verify-otp [post]
func (s *Server) verifyPasswordResetOTP(c *gin.Context) {
	var req VerifyPasswordResetOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := s.otpService.Verify(req.Email, models.PurposeResetPassword, req.OTP); err != nil {
		s.respondOTPVerifyError(c, err)
		return
	}

	var user models.User
	if err := s.db.Where("email = ?", req.Email).First(&user).Error; err != nil {
		// A valid reset code for a missing account should not be possible
		s.logger.Error().Err(err).Str("email", req.Email).Msg("Reset code redeemed for unknown account")
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid or unknown code"})
		return
	}

	ticket := &models.ResetTicket{
		UserID:    user.ID,
		ExpiresAt: time.Now().Add(s.config.Auth.ResetTicketTTL),
	}
	if err := s.db.Create(ticket).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to create reset ticket")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	signed, err := s.tokens.GenerateResetTicket(user.ID, ticket.ID)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to sign reset ticket")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	s.logger.Info().Str("user_id", user.ID).Msg("Password reset code verified")

	c.JSON(http.StatusOK, VerifyPasswordResetOTPResponse{Token: signed})
}

// @Summary Complete password reset
// @Description Set a new password using a reset ticket; the ticket is consumed
// @Tags auth
// @Accept json
// @Produce json
// @Param request body CompletePasswordResetRequest true "Completion request"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{}
// @Router /api/auth/password-reset/complete [post]
func (s *Server) completePasswordReset(c *gin.Context) {
	var req CompletePasswordResetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	claims, err := s.tokens.ValidateResetTicket(req.Token)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid or expired reset ticket"})
		return
	}

	var ticket models.ResetTicket
	if err := s.db.Where("id = ?", claims.TicketID).First(&ticket).Error; err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid or expired reset ticket"})
		return
	}
	if ticket.UsedAt != nil || time.Now().After(ticket.ExpiresAt) || ticket.UserID != claims.UserID {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid or expired reset ticket"})
		return
	}

	passwordHash, err := auth.HashPassword(req.Password)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to hash password")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	now := time.Now()
	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.User{}).Where("id = ?", ticket.UserID).
			Update("password_hash", passwordHash).Error; err != nil {
			return err
		}
		return tx.Model(&ticket).Update("used_at", now).Error
	})
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to update password")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	s.logger.Info().Str("user_id", ticket.UserID).Msg("Password reset completed")

	c.JSON(http.StatusOK, gin.H{"message": "Password has been reset"})
}

// @Summary Resend verification code
// @Description Reissue a code for registration or password reset
// @Tags auth
// @Accept json
// @Produce json
// @Param request body ResendOTPRequest true "Resend request"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{}
// @Failure 409 {object} map[string]interface{}
// @Failure 429 {object} map[string]interface{}
// @Router /api/auth/resend-otp [post]
func (s *Server) resendOTP(c *gin.Context) {
	var req ResendOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var count int64
	if err := s.db.Model(&models.User{}).Where("email = ?", req.Email).Count(&count).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to check existing user")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	switch req.Type {
	case models.PurposeRegister:
		if count > 0 {
			c.JSON(http.StatusConflict, gin.H{"error": "Email is already registered"})
			return
		}
		if err := s.issueAndDeliver(req.Email, models.PurposeRegister); err != nil {
			s.respondOTPIssueError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Verification code sent"})
	case models.PurposeResetPassword:
		if count > 0 {
			if err := s.issueAndDeliver(req.Email, models.PurposeResetPassword); err != nil {
				if errors.Is(err, otp.ErrResendTooSoon) {
					c.JSON(http.StatusTooManyRequests, gin.H{"error": otp.ErrResendTooSoon.Error()})
					return
				}
				s.logger.Error().Err(err).Str("email", req.Email).Msg("Failed to reissue reset code")
			}
		}
		c.JSON(http.StatusOK, gin.H{"message": "If the account exists, a reset code has been sent"})
	}
}

// @Summary Logout
// @Description Acknowledge logout; tokens are stateless and expire on their own
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]interface{}
// @Failure 401 {object} map[string]interface{}
// @Router /api/auth/logout [post]
func (s *Server) logout(c *gin.Context) {
	if sessionData, exists := GetSessionData(c); exists {
		s.logger.Info().Str("user_id", sessionData.UserID).Msg("User logged out")
	}
	c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
}

func (s *Server) respondOTPIssueError(c *gin.Context, err error) {
	if errors.Is(err, otp.ErrResendTooSoon) {
		c.JSON(http.StatusTooManyRequests, gin.H{"error": otp.ErrResendTooSoon.Error()})
		return
	}
	s.logger.Error().Err(err).Msg("Failed to issue code")
	c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to send verification code"})
}

func (s *Server) respondOTPVerifyError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, otp.ErrCodeExpired):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Code has expired"})
	case errors.Is(err, otp.ErrTooManyAttempts):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Too many failed attempts, request a new code"})
	case errors.Is(err, otp.ErrCodeInvalid):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid or unknown code"})
	default:
		s.logger.Error().Err(err).Msg("Failed to verify code")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}
