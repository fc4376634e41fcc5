package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/trade-journal-api/internal/application/auth"
	"github.com/trade-journal-api/internal/pkg/validate"
	"github.com/trade-journal-api/internal/transport/http/middleware"
)

// CookieOptions controls the session cookie written on login.
type CookieOptions struct {
	MaxAge time.Duration
	Secure bool
}

// AuthHandler serves the /auth endpoints.
type AuthHandler struct {
	svc    auth.Service
	cookie CookieOptions
}

func NewAuthHandler(svc auth.Service, cookie CookieOptions) *AuthHandler {
	return &AuthHandler{svc: svc, cookie: cookie}
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req auth.LoginRequest
	if !decode(w, r, &req, "Email and password are required") {
		return
	}
	d, err := h.svc.Login(r.Context(), req)
	if err != nil {
		httpError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toDispatchEnvelope("OTP sent successfully", d, true))
}

func (h *AuthHandler) ResendOTP(w http.ResponseWriter, r *http.Request) {
	var req auth.ResendOTPRequest
	if !decode(w, r, &req, "User ID is required") {
		return
	}
	d, err := h.svc.ResendOTP(r.Context(), req)
	if err != nil {
		httpError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toDispatchEnvelope("OTP resent successfully", d, false))
}

func (h *AuthHandler) VerifyOTP(w http.ResponseWriter, r *http.Request) {
	var req auth.VerifyOTPRequest
	if !decode(w, r, &req, "User ID and OTP are required") {
		return
	}
	res, err := h.svc.VerifyOTP(r.Context(), req)
	if err != nil {
		httpError(w, r, err)
		return
	}
	middleware.SetSessionCookie(w, res.Token, h.cookie.MaxAge, h.cookie.Secure)
	writeJSON(w, http.StatusOK, UserEnvelope{Message: "Login successful", User: toSafeUser(res.User)})
}

// Me returns the user of the current session. Requires the Session middleware.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	writeJSON(w, http.StatusOK, UserEnvelope{User: claimsToSafeUser(claims)})
}

// Logout clears the session cookie. Issued tokens stay valid until they expire.
func (h *AuthHandler) Logout(w http.ResponseWriter, _ *http.Request) {
	middleware.ClearSessionCookie(w, h.cookie.Secure)
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "Logged out"})
}

// maxBodyBytes caps auth request bodies.
const maxBodyBytes = 64 << 10

// decode reads a JSON body into dst and validates it. Missing required
// fields are reported with requiredMsg; it writes the 400 itself.
func decode(w http.ResponseWriter, r *http.Request, dst interface{}, requiredMsg string) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	if err := validate.Struct(dst); err != nil {
		if validate.IsRequired(err) {
			writeError(w, http.StatusBadRequest, requiredMsg)
		} else {
			writeError(w, http.StatusBadRequest, err.Error())
		}
		return false
	}
	return true
}
