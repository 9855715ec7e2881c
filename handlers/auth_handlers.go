package handlers

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/radcool22/meditrack/middleware"
	"github.com/radcool22/meditrack/otp"
	"github.com/radcool22/meditrack/repositories"
	"github.com/radcool22/meditrack/sms"
)

type AuthHandlers struct {
	users  *repositories.UserRepository
	otps   *repositories.OtpRepository
	sender sms.Sender
	secure bool
	logger *zap.Logger
}

func NewAuthHandlers(users *repositories.UserRepository, otps *repositories.OtpRepository, sender sms.Sender, secure bool, logger *zap.Logger) *AuthHandlers {
	return &AuthHandlers{users: users, otps: otps, sender: sender, secure: secure, logger: logger}
}

type sendOTPRequest struct {
	Phone string `json:"phone"`
}

type verifyOTPRequest struct {
	Phone string `json:"phone"`
	OTP   string `json:"otp"`
}

// SendOTP issues a fresh code for the phone number and dispatches it over
// SMS. Dispatch failure is logged and swallowed: the code is already
// issued and the user can request a resend.
func (h *AuthHandlers) SendOTP(c *fiber.Ctx) error {
	var req sendOTPRequest
	if err := c.BodyParser(&req); err != nil || req.Phone == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Phone number is required"})
	}

	phone, err := otp.NormalizePhone(req.Phone)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid phone number format. Please include country code."})
	}

	code, err := otp.GenerateCode()
	if err != nil {
		h.logger.Error("OTP generation failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to send OTP"})
	}

	if err := h.otps.Issue(phone, code, time.Now().Add(otp.TTL)); err != nil {
		h.logger.Error("OTP issuance failed", zap.String("phone", phone), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to send OTP"})
	}

	if err := h.sender.SendOTP(phone, code); err != nil {
		h.logger.Error("OTP dispatch failed", zap.String("phone", phone), zap.Error(err))
	}

	return c.JSON(fiber.Map{"message": "OTP sent successfully", "phone": phone})
}

// VerifyOTP consumes a pending code and establishes a session. The failure
// message never reveals whether the code was wrong, expired or absent.
func (h *AuthHandlers) VerifyOTP(c *fiber.Ctx) error {
	var req verifyOTPRequest
	if err := c.BodyParser(&req); err != nil || req.Phone == "" || req.OTP == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Phone number and OTP are required"})
	}

	phone, err := otp.NormalizePhone(req.Phone)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid phone number format"})
	}

	ok, err := h.otps.Consume(phone, req.OTP, time.Now())
	if err != nil {
		h.logger.Error("OTP verification failed", zap.String("phone", phone), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to verify OTP"})
	}
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid or expired OTP"})
	}

	user, err := h.users.FindOrCreate(phone)
	if err != nil {
		h.logger.Error("user lookup failed", zap.String("phone", phone), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to verify OTP"})
	}

	token := middleware.CreateSession(user.ID, user.Phone)
	c.Cookie(middleware.SessionCookie(token, h.secure))

	return c.JSON(fiber.Map{
		"message": "Login successful",
		"user":    fiber.Map{"id": user.ID, "phone": user.Phone},
	})
}

// Me returns the authenticated user's identity.
func (h *AuthHandlers) Me(c *fiber.Ctx) error {
	user, err := h.users.FindByID(middleware.UserID(c))
	if errors.Is(err, repositories.ErrNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "User not found"})
	}
	if err != nil {
		h.logger.Error("user lookup failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch user"})
	}

	return c.JSON(fiber.Map{"id": user.ID, "phone": user.Phone})
}

// Logout invalidates the current session and clears the cookie.
func (h *AuthHandlers) Logout(c *fiber.Ctx) error {
	if token := c.Cookies(middleware.SessionCookieName); token != "" {
		middleware.DeleteSession(token)
	}
	c.ClearCookie(middleware.SessionCookieName)

	return c.JSON(fiber.Map{"message": "Logged out successfully"})
}
