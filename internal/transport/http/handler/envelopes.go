package handler

import (
	"encoding/json"
	"net/http"

	"github.com/trade-journal-api/internal/application/auth"
	"github.com/trade-journal-api/internal/domain"
	jwtinfra "github.com/trade-journal-api/internal/infrastructure/jwt"
)

// MessageEnvelope is the generic response wrapper.
type MessageEnvelope struct {
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// OTPDispatchEnvelope answers login and resend-otp.
type OTPDispatchEnvelope struct {
	Message     string `json:"message"`
	UserID      string `json:"userId,omitempty"`
	OTPMethod   string `json:"otpMethod"`
	Destination string `json:"destination"`
	DemoMode    bool   `json:"demoMode"`
	DemoOTP     string `json:"demoOtp,omitempty"`
}

// SafeUser is the public projection of a user.
type SafeUser struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// UserEnvelope wraps verify-otp and me responses.
type UserEnvelope struct {
	Message string    `json:"message,omitempty"`
	User    *SafeUser `json:"user"`
}

func toDispatchEnvelope(msg string, d *auth.Dispatch, withUserID bool) OTPDispatchEnvelope {
	env := OTPDispatchEnvelope{
		Message:     msg,
		OTPMethod:   d.OTPMethod,
		Destination: d.Destination,
		DemoMode:    d.DemoMode(),
		DemoOTP:     d.DemoOTP,
	}
	if withUserID {
		env.UserID = d.UserID
	}
	return env
}

func toSafeUser(u *domain.User) *SafeUser {
	return &SafeUser{ID: u.UserID, Name: u.Name, Email: u.Email}
}

func claimsToSafeUser(c *jwtinfra.Claims) *SafeUser {
	return &SafeUser{ID: c.UserID, Name: c.Name, Email: c.Email}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, MessageEnvelope{Error: msg})
}
