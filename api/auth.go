package api

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"fmt"
	"math/big"
	"net/http"
	"regexp"
	"strings"
	"time"

	"log/slog"

	"github.com/creostudios/backend/pkg/models"
	"github.com/creostudios/backend/pkg/repository"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// OTPSender delivers verification codes. Unlike the lifecycle notifier, its
// failure is reported to the caller.
type OTPSender interface {
	SendOTP(ctx context.Context, to, code string, expiryMinutes int) error
}

type AuthHandler struct {
	users      repository.UserRepo
	otps       repository.OTPRepo
	sender     OTPSender
	jwtSecret  string
	accessDur  time.Duration
	refreshDur time.Duration
	otpExpiry  time.Duration
}

// NewAuthHandler creates a new AuthHandler with required dependencies.
func NewAuthHandler(ur repository.UserRepo, or repository.OTPRepo, sender OTPSender, jwtSecret string, accessDur, refreshDur, otpExpiry time.Duration) *AuthHandler {
	return &AuthHandler{
		users:      ur,
		otps:       or,
		sender:     sender,
		jwtSecret:  jwtSecret,
		accessDur:  accessDur,
		refreshDur: refreshDur,
		otpExpiry:  otpExpiry,
	}
}

var (
	emailRe  = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	upperRe  = regexp.MustCompile(`[A-Z]`)
	lowerRe  = regexp.MustCompile(`[a-z]`)
	digitRe  = regexp.MustCompile(`[0-9]`)
	symbolRe = regexp.MustCompile(`[!@#$%^&*(),.?":{}|<>]`)
)

// validatePasswordStrength checks the complexity policy and returns a
// user-facing message for the first predicate that fails.
func validatePasswordStrength(password string) (bool, string) {
	switch {
	case len(password) < 8:
		return false, "Password must be at least 8 characters long"
	case !upperRe.MatchString(password):
		return false, "Password must contain at least one uppercase letter"
	case !lowerRe.MatchString(password):
		return false, "Password must contain at least one lowercase letter"
	case !digitRe.MatchString(password):
		return false, "Password must contain at least one number"
	case !symbolRe.MatchString(password):
		return false, `Password must contain at least one special character (!@#$%^&*(),.?":{}|<>)`
	}
	return true, ""
}

// generateOTP draws a random 6-digit code.
func generateOTP() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}

func (h *AuthHandler) issueToken(email string, dur time.Duration, refresh bool) (string, error) {
	claims := jwt.MapClaims{
		"email": email,
		"exp":   time.Now().Add(dur).Unix(),
	}
	if refresh {
		claims["typ"] = "refresh"
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(h.jwtSecret))
}

type registerRequest struct {
	Name            string `json:"name"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, "Invalid request", http.StatusBadRequest)
		return
	}

	name := strings.TrimSpace(req.Name)
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if name == "" || email == "" || req.Password == "" || req.ConfirmPassword == "" {
		writeMessage(w, "All fields are required", http.StatusBadRequest)
		return
	}
	if !emailRe.MatchString(email) {
		writeMessage(w, "Invalid email format", http.StatusBadRequest)
		return
	}
	if req.Password != req.ConfirmPassword {
		writeMessage(w, "Passwords do not match", http.StatusBadRequest)
		return
	}
	if ok, msg := validatePasswordStrength(req.Password); !ok {
		writeMessage(w, msg, http.StatusBadRequest)
		return
	}

	ctx := r.Context()

	existing, err := h.users.GetUserByEmail(ctx, email)
	if err != nil {
		writeMessage(w, "Registration failed: "+err.Error(), http.StatusInternalServerError)
		return
	}
	if existing != nil {
		writeMessage(w, "Email already registered", http.StatusBadRequest)
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		writeMessage(w, "Error hashing password", http.StatusInternalServerError)
		return
	}

	user := &models.User{Name: name, Email: email, PasswordHash: string(hash)}
	if _, err := h.users.CreateUser(ctx, user); err != nil {
		writeMessage(w, "Registration failed: "+err.Error(), http.StatusInternalServerError)
		return
	}

	if err := h.issueChallenge(ctx, email); err != nil {
		// The account and challenge persist even when delivery fails;
		// resend-otp recovers from here.
		writeMessage(w, "Registration successful but failed to send OTP. Please try again.", http.StatusInternalServerError)
		return
	}

	writeJSON(w, map[string]string{
		"message": "Registration successful! OTP sent to your email.",
		"email":   email,
	}, http.StatusCreated)
}

// issueChallenge supersedes any prior OTP for the email and mails a new one.
// A stored challenge with a failed send is still recoverable via resend.
func (h *AuthHandler) issueChallenge(ctx context.Context, email string) error {
	code, err := generateOTP()
	if err != nil {
		return err
	}
	if _, err := h.otps.Supersede(ctx, &models.OTP{Email: email, Code: code}); err != nil {
		return err
	}
	if err := h.sender.SendOTP(ctx, email, code, int(h.otpExpiry.Minutes())); err != nil {
		logger.Error("otp send failed", slog.String("email", email), slog.Any("err", err))
		return err
	}
	return nil
}

type verifyOTPRequest struct {
	Email string `json:"email"`
	OTP   string `json:"otp"`
}

func (h *AuthHandler) VerifyOTP(w http.ResponseWriter, r *http.Request) {
	var req verifyOTPRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, "Invalid request", http.StatusBadRequest)
		return
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	code := strings.TrimSpace(req.OTP)
	if email == "" || code == "" {
		writeMessage(w, "Email and OTP are required", http.StatusBadRequest)
		return
	}

	ctx := r.Context()

	challenge, err := h.otps.GetOTPByEmail(ctx, email)
	if err != nil {
		writeMessage(w, "Verification failed: "+err.Error(), http.StatusInternalServerError)
		return
	}
	if challenge == nil {
		writeMessage(w, "No OTP found for this email", http.StatusNotFound)
		return
	}

	// valid while now <= created+expiry, rejected strictly after
	if time.Now().UTC().Unix() > challenge.Created+int64(h.otpExpiry.Seconds()) {
		writeMessage(w, "OTP has expired. Please request a new one.", http.StatusBadRequest)
		return
	}
	if challenge.Code != code {
		writeMessage(w, "Invalid OTP", http.StatusBadRequest)
		return
	}

	user, err := h.users.GetUserByEmail(ctx, email)
	if err != nil {
		writeMessage(w, "Verification failed: "+err.Error(), http.StatusInternalServerError)
		return
	}
	if user == nil {
		writeMessage(w, "User not found", http.StatusNotFound)
		return
	}

	if err := h.users.SetVerified(ctx, email); err != nil {
		writeMessage(w, "Verification failed: "+err.Error(), http.StatusInternalServerError)
		return
	}
	if err := h.otps.DeleteOTPByEmail(ctx, email); err != nil {
		writeMessage(w, "Verification failed: "+err.Error(), http.StatusInternalServerError)
		return
	}

	writeMessage(w, "Email verified successfully! You can now log in.", http.StatusOK)
}

type resendOTPRequest struct {
	Email string `json:"email"`
}

func (h *AuthHandler) ResendOTP(w http.ResponseWriter, r *http.Request) {
	var req resendOTPRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, "Invalid request", http.StatusBadRequest)
		return
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" {
		writeMessage(w, "Email is required", http.StatusBadRequest)
		return
	}

	ctx := r.Context()

	user, err := h.users.GetUserByEmail(ctx, email)
	if err != nil {
		writeMessage(w, "Failed to resend OTP: "+err.Error(), http.StatusInternalServerError)
		return
	}
	if user == nil {
		writeMessage(w, "User not found", http.StatusNotFound)
		return
	}
	if user.Verified {
		writeMessage(w, "Email already verified", http.StatusBadRequest)
		return
	}

	if err := h.issueChallenge(ctx, email); err != nil {
		writeMessage(w, "Failed to send OTP. Please try again.", http.StatusInternalServerError)
		return
	}

	writeMessage(w, "OTP resent successfully!", http.StatusOK)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, "Invalid request", http.StatusBadRequest)
		return
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || req.Password == "" {
		writeMessage(w, "Email and password are required", http.StatusBadRequest)
		return
	}

	ctx := r.Context()

	// One generic message for unknown, unverified and wrong-password
	// callers, so login cannot be used to enumerate accounts.
	const invalidCredentials = "Invalid credentials. Please check your email and password."

	user, err := h.users.GetUserByEmail(ctx, email)
	if err != nil {
		writeMessage(w, "Login failed: "+err.Error(), http.StatusInternalServerError)
		return
	}
	if user == nil || !user.Verified {
		writeMessage(w, invalidCredentials, http.StatusUnauthorized)
		return
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		writeMessage(w, invalidCredentials, http.StatusUnauthorized)
		return
	}

	accessToken, err := h.issueToken(email, h.accessDur, false)
	if err != nil {
		writeMessage(w, "Error signing token", http.StatusInternalServerError)
		return
	}
	refreshToken, err := h.issueToken(email, h.refreshDur, true)
	if err != nil {
		writeMessage(w, "Error signing token", http.StatusInternalServerError)
		return
	}

	writeJSON(w, map[string]any{
		"message":       "Login successful!",
		"access_token":  accessToken,
		"refresh_token": refreshToken,
		"user":          user,
	}, http.StatusOK)
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, "Invalid request", http.StatusBadRequest)
		return
	}
	if req.RefreshToken == "" {
		writeMessage(w, "Refresh token is required", http.StatusBadRequest)
		return
	}

	token, err := jwt.Parse(req.RefreshToken, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(h.jwtSecret), nil
	})
	if err != nil || !token.Valid {
		writeMessage(w, "Invalid or expired refresh token", http.StatusUnauthorized)
		return
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		writeMessage(w, "Invalid or expired refresh token", http.StatusUnauthorized)
		return
	}
	if typ, _ := claims["typ"].(string); typ != "refresh" {
		writeMessage(w, "Invalid or expired refresh token", http.StatusUnauthorized)
		return
	}
	email, _ := claims["email"].(string)

	// the identity must still resolve
	user, err := h.users.GetUserByEmail(r.Context(), email)
	if err != nil || user == nil {
		writeMessage(w, "Invalid or expired refresh token", http.StatusUnauthorized)
		return
	}

	accessToken, err := h.issueToken(email, h.accessDur, false)
	if err != nil {
		writeMessage(w, "Error signing token", http.StatusInternalServerError)
		return
	}

	writeJSON(w, map[string]string{"access_token": accessToken}, http.StatusOK)
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	email := emailFromContext(r)

	user, err := h.users.GetUserByEmail(r.Context(), email)
	if err != nil {
		writeMessage(w, "Failed to get user: "+err.Error(), http.StatusInternalServerError)
		return
	}
	if user == nil {
		writeMessage(w, "User not found", http.StatusNotFound)
		return
	}

	writeJSON(w, map[string]any{"user": user}, http.StatusOK)
}
