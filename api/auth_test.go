package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/creostudios/backend/pkg/models"
	"github.com/creostudios/backend/pkg/repository/mock"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

const testSecret = "test-secret"

type senderMock struct {
	Calls    int
	LastTo   string
	LastCode string
	Err      error
}

func (s *senderMock) SendOTP(ctx context.Context, to, code string, expiryMinutes int) error {
	s.Calls++
	s.LastTo = to
	s.LastCode = code
	return s.Err
}

func newAuthFixture(t *testing.T) (*AuthHandler, *mock.Mocks, *senderMock) {
	t.Helper()
	mocks := mock.NewMocks()
	sender := &senderMock{}
	h := NewAuthHandler(mocks.Users, mocks.OTPs, sender, testSecret, 24*time.Hour, 30*24*time.Hour, 5*time.Minute)
	return h, mocks, sender
}

func postJSON(t *testing.T, handler http.HandlerFunc, body any) *httptest.ResponseRecorder {
	t.Helper()
	buf, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal body: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(buf))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	handler(rr, req)
	return rr
}

func bodyMessage(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	var resp map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response %q: %v", rr.Body.String(), err)
	}
	msg, _ := resp["message"].(string)
	return msg
}

func seedUser(mocks *mock.Mocks, email, password string, verified bool) {
	hash, _ := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	mocks.Users.ByEmail[email] = &models.User{
		ID:           int64(len(mocks.Users.ByEmail) + 1),
		Name:         "Seeded",
		Email:        email,
		PasswordHash: string(hash),
		Verified:     verified,
	}
}

func TestRegisterValidation(t *testing.T) {
	tests := []struct {
		name    string
		req     registerRequest
		wantMsg string
	}{
		{
			name:    "MissingFields",
			req:     registerRequest{Name: "A", Email: "a@example.com", Password: "Passw0rd!"},
			wantMsg: "All fields are required",
		},
		{
			name:    "BadEmail",
			req:     registerRequest{Name: "A", Email: "not-an-email", Password: "Passw0rd!", ConfirmPassword: "Passw0rd!"},
			wantMsg: "Invalid email format",
		},
		{
			name:    "PasswordMismatch",
			req:     registerRequest{Name: "A", Email: "a@example.com", Password: "Passw0rd!", ConfirmPassword: "Passw0rd?"},
			wantMsg: "Passwords do not match",
		},
		{
			name:    "TooShort",
			req:     registerRequest{Name: "A", Email: "a@example.com", Password: "Pw0!", ConfirmPassword: "Pw0!"},
			wantMsg: "Password must be at least 8 characters long",
		},
		{
			name:    "NoUppercase",
			req:     registerRequest{Name: "A", Email: "a@example.com", Password: "passw0rd!", ConfirmPassword: "passw0rd!"},
			wantMsg: "Password must contain at least one uppercase letter",
		},
		{
			name:    "NoLowercase",
			req:     registerRequest{Name: "A", Email: "a@example.com", Password: "PASSW0RD!", ConfirmPassword: "PASSW0RD!"},
			wantMsg: "Password must contain at least one lowercase letter",
		},
		{
			name:    "NoDigit",
			req:     registerRequest{Name: "A", Email: "a@example.com", Password: "Password!", ConfirmPassword: "Password!"},
			wantMsg: "Password must contain at least one number",
		},
		{
			name:    "NoSymbol",
			req:     registerRequest{Name: "A", Email: "a@example.com", Password: "Passw0rd", ConfirmPassword: "Passw0rd"},
			wantMsg: `Password must contain at least one special character (!@#$%^&*(),.?":{}|<>)`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, mocks, sender := newAuthFixture(t)
			rr := postJSON(t, h.Register, tt.req)
			if rr.Code != http.StatusBadRequest {
				t.Fatalf("want 400 got %d: %s", rr.Code, rr.Body.String())
			}
			if got := bodyMessage(t, rr); got != tt.wantMsg {
				t.Fatalf("want %q got %q", tt.wantMsg, got)
			}
			if len(mocks.Users.ByEmail) != 0 {
				t.Fatalf("no user row should exist after a rejected registration")
			}
			if sender.Calls != 0 {
				t.Fatalf("no OTP should be sent for a rejected registration")
			}
		})
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	h, mocks, _ := newAuthFixture(t)
	seedUser(mocks, "taken@example.com", "Passw0rd!", false)

	rr := postJSON(t, h.Register, registerRequest{
		Name: "B", Email: "Taken@Example.com", Password: "Passw0rd!", ConfirmPassword: "Passw0rd!",
	})
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("want 400 got %d", rr.Code)
	}
	if got := bodyMessage(t, rr); got != "Email already registered" {
		t.Fatalf("unexpected message %q", got)
	}
}

func TestRegisterSuccess(t *testing.T) {
	h, mocks, sender := newAuthFixture(t)

	rr := postJSON(t, h.Register, registerRequest{
		Name: "Ravi", Email: "Ravi@Example.COM", Password: "Passw0rd!", ConfirmPassword: "Passw0rd!",
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("want 201 got %d: %s", rr.Code, rr.Body.String())
	}

	user := mocks.Users.ByEmail["ravi@example.com"]
	if user == nil {
		t.Fatalf("user not created under normalized email")
	}
	if user.Verified {
		t.Fatalf("new user must start unverified")
	}
	if user.PasswordHash == "Passw0rd!" || user.PasswordHash == "" {
		t.Fatalf("password must be stored hashed")
	}

	if sender.Calls != 1 || sender.LastTo != "ravi@example.com" {
		t.Fatalf("expected one OTP send to the new user, got %d to %q", sender.Calls, sender.LastTo)
	}
	if len(sender.LastCode) != 6 {
		t.Fatalf("want 6-digit code got %q", sender.LastCode)
	}
	challenge := mocks.OTPs.ByEmail["ravi@example.com"]
	if challenge == nil || challenge.Code != sender.LastCode {
		t.Fatalf("stored challenge must match the mailed code")
	}
}

func TestRegisterSendFailureKeepsAccount(t *testing.T) {
	h, mocks, sender := newAuthFixture(t)
	sender.Err = errors.New("smtp down")

	rr := postJSON(t, h.Register, registerRequest{
		Name: "Ravi", Email: "ravi@example.com", Password: "Passw0rd!", ConfirmPassword: "Passw0rd!",
	})
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("want 500 got %d", rr.Code)
	}
	// the account and challenge survive the failed send so resend can recover
	if mocks.Users.ByEmail["ravi@example.com"] == nil {
		t.Fatalf("user row must persist after a failed OTP send")
	}
	if mocks.OTPs.ByEmail["ravi@example.com"] == nil {
		t.Fatalf("challenge row must persist after a failed OTP send")
	}
}

func TestVerifyOTP(t *testing.T) {
	now := time.Now().UTC().Unix()

	tests := []struct {
		name     string
		seed     func(mocks *mock.Mocks)
		req      verifyOTPRequest
		wantCode int
		wantMsg  string
	}{
		{
			name:     "NoChallenge",
			seed:     func(mocks *mock.Mocks) { seedUser(mocks, "u@example.com", "Passw0rd!", false) },
			req:      verifyOTPRequest{Email: "u@example.com", OTP: "123456"},
			wantCode: http.StatusNotFound,
			wantMsg:  "No OTP found for this email",
		},
		{
			name: "WrongCode",
			seed: func(mocks *mock.Mocks) {
				seedUser(mocks, "u@example.com", "Passw0rd!", false)
				mocks.OTPs.ByEmail["u@example.com"] = &models.OTP{Email: "u@example.com", Code: "654321", Created: now}
			},
			req:      verifyOTPRequest{Email: "u@example.com", OTP: "123456"},
			wantCode: http.StatusBadRequest,
			wantMsg:  "Invalid OTP",
		},
		{
			name: "ExpiredJustPast",
			seed: func(mocks *mock.Mocks) {
				seedUser(mocks, "u@example.com", "Passw0rd!", false)
				mocks.OTPs.ByEmail["u@example.com"] = &models.OTP{Email: "u@example.com", Code: "123456", Created: now - 301}
			},
			req:      verifyOTPRequest{Email: "u@example.com", OTP: "123456"},
			wantCode: http.StatusBadRequest,
			wantMsg:  "OTP has expired. Please request a new one.",
		},
		{
			name: "ValidJustBeforeExpiry",
			seed: func(mocks *mock.Mocks) {
				seedUser(mocks, "u@example.com", "Passw0rd!", false)
				mocks.OTPs.ByEmail["u@example.com"] = &models.OTP{Email: "u@example.com", Code: "123456", Created: now - 299}
			},
			req:      verifyOTPRequest{Email: "u@example.com", OTP: "123456"},
			wantCode: http.StatusOK,
			wantMsg:  "Email verified successfully! You can now log in.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, mocks, _ := newAuthFixture(t)
			tt.seed(mocks)

			rr := postJSON(t, h.VerifyOTP, tt.req)
			if rr.Code != tt.wantCode {
				t.Fatalf("want %d got %d: %s", tt.wantCode, rr.Code, rr.Body.String())
			}
			if got := bodyMessage(t, rr); got != tt.wantMsg {
				t.Fatalf("want %q got %q", tt.wantMsg, got)
			}
			if tt.wantCode == http.StatusOK {
				if !mocks.Users.ByEmail[tt.req.Email].Verified {
					t.Fatalf("user must be verified after a successful check")
				}
				if mocks.OTPs.ByEmail[tt.req.Email] != nil {
					t.Fatalf("challenge must be consumed")
				}
			}
		})
	}
}

func TestVerifyOTPSingleUse(t *testing.T) {
	h, mocks, _ := newAuthFixture(t)
	seedUser(mocks, "u@example.com", "Passw0rd!", false)
	mocks.OTPs.ByEmail["u@example.com"] = &models.OTP{
		Email: "u@example.com", Code: "123456", Created: time.Now().UTC().Unix(),
	}

	req := verifyOTPRequest{Email: "u@example.com", OTP: "123456"}
	if rr := postJSON(t, h.VerifyOTP, req); rr.Code != http.StatusOK {
		t.Fatalf("first verify: want 200 got %d", rr.Code)
	}
	if rr := postJSON(t, h.VerifyOTP, req); rr.Code != http.StatusNotFound {
		t.Fatalf("second verify: want 404 got %d", rr.Code)
	}
}

func TestResendOTP(t *testing.T) {
	tests := []struct {
		name      string
		seed      func(mocks *mock.Mocks)
		wantCode  int
		wantSends int
	}{
		{name: "UnknownUser", seed: func(mocks *mock.Mocks) {}, wantCode: http.StatusNotFound},
		{
			name:     "AlreadyVerified",
			seed:     func(mocks *mock.Mocks) { seedUser(mocks, "u@example.com", "Passw0rd!", true) },
			wantCode: http.StatusBadRequest,
		},
		{
			name:      "OK",
			seed:      func(mocks *mock.Mocks) { seedUser(mocks, "u@example.com", "Passw0rd!", false) },
			wantCode:  http.StatusOK,
			wantSends: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, mocks, sender := newAuthFixture(t)
			tt.seed(mocks)

			rr := postJSON(t, h.ResendOTP, resendOTPRequest{Email: "u@example.com"})
			if rr.Code != tt.wantCode {
				t.Fatalf("want %d got %d: %s", tt.wantCode, rr.Code, rr.Body.String())
			}
			if sender.Calls != tt.wantSends {
				t.Fatalf("want %d sends got %d", tt.wantSends, sender.Calls)
			}
		})
	}
}

func TestResendSupersedesPriorOTP(t *testing.T) {
	h, mocks, sender := newAuthFixture(t)
	seedUser(mocks, "u@example.com", "Passw0rd!", false)
	mocks.OTPs.ByEmail["u@example.com"] = &models.OTP{
		Email: "u@example.com", Code: "111111", Created: time.Now().UTC().Unix(),
	}

	if rr := postJSON(t, h.ResendOTP, resendOTPRequest{Email: "u@example.com"}); rr.Code != http.StatusOK {
		t.Fatalf("resend: want 200 got %d", rr.Code)
	}

	// the old code is dead, only the newest one verifies
	if rr := postJSON(t, h.VerifyOTP, verifyOTPRequest{Email: "u@example.com", OTP: "111111"}); rr.Code != http.StatusBadRequest {
		t.Fatalf("superseded code: want 400 got %d", rr.Code)
	}
	if rr := postJSON(t, h.VerifyOTP, verifyOTPRequest{Email: "u@example.com", OTP: sender.LastCode}); rr.Code != http.StatusOK {
		t.Fatalf("fresh code: want 200 got %d", rr.Code)
	}
}

func TestLogin(t *testing.T) {
	const generic = "Invalid credentials. Please check your email and password."

	tests := []struct {
		name     string
		seed     func(mocks *mock.Mocks)
		req      loginRequest
		wantCode int
		wantMsg  string
	}{
		{
			name:     "UnknownUser",
			seed:     func(mocks *mock.Mocks) {},
			req:      loginRequest{Email: "u@example.com", Password: "Passw0rd!"},
			wantCode: http.StatusUnauthorized,
			wantMsg:  generic,
		},
		{
			name:     "UnverifiedUser",
			seed:     func(mocks *mock.Mocks) { seedUser(mocks, "u@example.com", "Passw0rd!", false) },
			req:      loginRequest{Email: "u@example.com", Password: "Passw0rd!"},
			wantCode: http.StatusUnauthorized,
			wantMsg:  generic,
		},
		{
			name:     "WrongPassword",
			seed:     func(mocks *mock.Mocks) { seedUser(mocks, "u@example.com", "Passw0rd!", true) },
			req:      loginRequest{Email: "u@example.com", Password: "wrong"},
			wantCode: http.StatusUnauthorized,
			wantMsg:  generic,
		},
		{
			name:     "OK",
			seed:     func(mocks *mock.Mocks) { seedUser(mocks, "u@example.com", "Passw0rd!", true) },
			req:      loginRequest{Email: "U@Example.com", Password: "Passw0rd!"},
			wantCode: http.StatusOK,
			wantMsg:  "Login successful!",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, mocks, _ := newAuthFixture(t)
			tt.seed(mocks)

			rr := postJSON(t, h.Login, tt.req)
			if rr.Code != tt.wantCode {
				t.Fatalf("want %d got %d: %s", tt.wantCode, rr.Code, rr.Body.String())
			}
			if got := bodyMessage(t, rr); got != tt.wantMsg {
				t.Fatalf("want %q got %q", tt.wantMsg, got)
			}
		})
	}
}

func TestLoginTokenClaims(t *testing.T) {
	h, mocks, _ := newAuthFixture(t)
	seedUser(mocks, "u@example.com", "Passw0rd!", true)

	rr := postJSON(t, h.Login, loginRequest{Email: "u@example.com", Password: "Passw0rd!"})
	if rr.Code != http.StatusOK {
		t.Fatalf("login: want 200 got %d: %s", rr.Code, rr.Body.String())
	}

	var resp struct {
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}

	access := parseClaims(t, resp.AccessToken)
	if access["email"] != "u@example.com" {
		t.Fatalf("access email claim: %v", access["email"])
	}
	if _, ok := access["typ"]; ok {
		t.Fatalf("access token must not carry the refresh marker")
	}

	refresh := parseClaims(t, resp.RefreshToken)
	if refresh["typ"] != "refresh" {
		t.Fatalf("refresh token must carry typ=refresh, got %v", refresh["typ"])
	}

	aexp, _ := access["exp"].(float64)
	rexp, _ := refresh["exp"].(float64)
	if rexp <= aexp {
		t.Fatalf("refresh token must outlive the access token")
	}
}

func parseClaims(t *testing.T, tokenString string) jwt.MapClaims {
	t.Helper()
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(testSecret), nil
	})
	if err != nil || !token.Valid {
		t.Fatalf("parse token: %v", err)
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		t.Fatalf("unexpected claims type %T", token.Claims)
	}
	return claims
}

func TestRefresh(t *testing.T) {
	h, mocks, _ := newAuthFixture(t)
	seedUser(mocks, "u@example.com", "Passw0rd!", true)

	refreshToken, err := h.issueToken("u@example.com", h.refreshDur, true)
	if err != nil {
		t.Fatalf("issue refresh: %v", err)
	}
	accessToken, err := h.issueToken("u@example.com", h.accessDur, false)
	if err != nil {
		t.Fatalf("issue access: %v", err)
	}

	// a valid refresh token yields a fresh access token
	rr := postJSON(t, h.Refresh, refreshRequest{RefreshToken: refreshToken})
	if rr.Code != http.StatusOK {
		t.Fatalf("refresh: want 200 got %d: %s", rr.Code, rr.Body.String())
	}
	var resp struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	claims := parseClaims(t, resp.AccessToken)
	if claims["email"] != "u@example.com" {
		t.Fatalf("refreshed access token email claim: %v", claims["email"])
	}
	if _, ok := claims["typ"]; ok {
		t.Fatalf("refreshed token must be an access token")
	}

	// an access token is not accepted by the refresh endpoint
	if rr := postJSON(t, h.Refresh, refreshRequest{RefreshToken: accessToken}); rr.Code != http.StatusUnauthorized {
		t.Fatalf("access-as-refresh: want 401 got %d", rr.Code)
	}

	// a refresh token for an identity that no longer resolves is rejected
	ghost, err := h.issueToken("ghost@example.com", h.refreshDur, true)
	if err != nil {
		t.Fatalf("issue ghost refresh: %v", err)
	}
	if rr := postJSON(t, h.Refresh, refreshRequest{RefreshToken: ghost}); rr.Code != http.StatusUnauthorized {
		t.Fatalf("unknown identity: want 401 got %d", rr.Code)
	}

	// garbage is rejected
	if rr := postJSON(t, h.Refresh, refreshRequest{RefreshToken: "not-a-token"}); rr.Code != http.StatusUnauthorized {
		t.Fatalf("garbage token: want 401 got %d", rr.Code)
	}
}

func TestMe(t *testing.T) {
	h, mocks, _ := newAuthFixture(t)
	seedUser(mocks, "u@example.com", "Passw0rd!", true)

	req := httptest.NewRequest(http.MethodGet, "/v1/auth/me", nil)
	req = req.WithContext(context.WithValue(req.Context(), CtxEmail, "u@example.com"))
	rr := httptest.NewRecorder()
	h.Me(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("want 200 got %d: %s", rr.Code, rr.Body.String())
	}
	if strings.Contains(rr.Body.String(), "password") {
		t.Fatalf("password material leaked in response: %s", rr.Body.String())
	}
	var resp struct {
		User models.User `json:"user"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.User.Email != "u@example.com" {
		t.Fatalf("want u@example.com got %q", resp.User.Email)
	}
}

func TestValidatePasswordStrength(t *testing.T) {
	tests := []struct {
		password string
		ok       bool
	}{
		{"Passw0rd!", true},
		{`Aa1"aaaa`, true},
		{"Aa1!aaa", false},  // 7 chars
		{"aa1!aaaa", false}, // no uppercase
		{"AA1!AAAA", false}, // no lowercase
		{"Aaa!aaaa", false}, // no digit
		{"Aa1aaaaa", false}, // no symbol
	}
	for _, tt := range tests {
		if ok, _ := validatePasswordStrength(tt.password); ok != tt.ok {
			t.Errorf("validatePasswordStrength(%q) = %v, want %v", tt.password, ok, tt.ok)
		}
	}
}
