package handler

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/gorilla/sessions"

	apierrors "github.com/gsharma/indiainfo/internal/pkg/errors"
	"github.com/gsharma/indiainfo/internal/pkg/response"
	"github.com/gsharma/indiainfo/internal/service"
)

// Session cookie names.
const (
	SessionCookieName = "indiainfo_session"
	OAuthStateCookie  = "indiainfo_oauth_state"
)

// AuthHandler handles signup, login, sessions, OAuth, and password reset.
type AuthHandler struct {
	auth         service.AuthService
	oauth        service.OAuthService
	sessionStore sessions.Store
	validate     *validator.Validate
	logger       *slog.Logger
}

// NewAuthHandler creates a new auth handler.
func NewAuthHandler(
	auth service.AuthService,
	oauth service.OAuthService,
	sessionStore sessions.Store,
	logger *slog.Logger,
) *AuthHandler {
	return &AuthHandler{
		auth:         auth,
		oauth:        oauth,
		sessionStore: sessionStore,
		validate:     validator.New(),
		logger:       logger,
	}
}

// signupRequest is the POST /api/signup body.
type signupRequest struct {
	Username string `json:"username" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Signup handles local account creation. Signup implies login.
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if !h.decode(w, r, &req) {
		return
	}

	_, token, err := h.auth.Register(r.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	h.setSessionCookie(w, r, token)
	response.Message(w, "Signup and login successful")
}

// loginRequest is the POST /api/login body.
type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Login handles local credential verification.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !h.decode(w, r, &req) {
		return
	}

	_, token, err := h.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	h.setSessionCookie(w, r, token)
	response.Message(w, "Login successful")
}

// forgotPasswordRequest is the POST /api/forgot-password body.
type forgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// ForgotPassword handles reset token generation and email dispatch.
func (h *AuthHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req forgotPasswordRequest
	if !h.decode(w, r, &req) {
		return
	}

	if err := h.auth.RequestPasswordReset(r.Context(), req.Email); err != nil {
		h.respondError(w, r, err)
		return
	}

	response.Message(w, "Reset email sent successfully")
}

// resetPasswordRequest is the POST /api/reset-password body.
type resetPasswordRequest struct {
	Token    string `json:"token" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// ResetPassword redeems a reset token.
func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req resetPasswordRequest
	if !h.decode(w, r, &req) {
		return
	}

	if err := h.auth.ResetPassword(r.Context(), req.Token, req.Password); err != nil {
		h.respondError(w, r, err)
		return
	}

	response.Message(w, "Password reset successful")
}

// meResponse is the GET /api/me body. A logged-in user without a picture
// gets an explicit null, the shape the header script expects.
type meResponse struct {
	LoggedIn       bool    `json:"loggedIn"`
	Name           string  `json:"name,omitempty"`
	Email          string  `json:"email,omitempty"`
	ProfilePicture *string `json:"profile_picture"`
}

// Me reports the identity behind the current session, if any.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, err := h.auth.CurrentUser(r.Context(), h.sessionToken(r))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	if user == nil {
		response.OK(w, map[string]bool{"loggedIn": false})
		return
	}

	response.OK(w, meResponse{
		LoggedIn:       true,
		Name:           user.DisplayName(),
		Email:          user.Email,
		ProfilePicture: user.ProfilePicture,
	})
}

// Logout destroys the session and redirects to the home page. Idempotent.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if token := h.sessionToken(r); token != "" {
		if err := h.auth.Logout(r.Context(), token); err != nil {
			h.logger.Error("logout failed", slog.String("error", err.Error()))
		}
	}

	session, _ := h.sessionStore.Get(r, SessionCookieName)
	session.Options.MaxAge = -1
	session.Save(r, w)

	http.Redirect(w, r, "/", http.StatusFound)
}

// OAuthStart initiates the OAuth flow for the given provider.
func (h *AuthHandler) OAuthStart(w http.ResponseWriter, r *http.Request) {
	provider := chi.URLParam(r, "provider")

	// Generate state for CSRF protection
	state, err := generateSecureState()
	if err != nil {
		http.Redirect(w, r, "/login.html?error=oauth_init_failed", http.StatusFound)
		return
	}

	// Store state in a short-lived cookie for verification
	session, _ := h.sessionStore.Get(r, OAuthStateCookie)
	session.Values["state"] = state
	session.Options.MaxAge = 300 // 5 minutes
	if err := session.Save(r, w); err != nil {
		http.Redirect(w, r, "/login.html?error=oauth_init_failed", http.StatusFound)
		return
	}

	authURL, err := h.oauth.GetAuthURL(provider, state)
	if err != nil {
		http.Redirect(w, r, "/login.html?error=unknown_provider", http.StatusFound)
		return
	}

	http.Redirect(w, r, authURL, http.StatusTemporaryRedirect)
}

// OAuthCallback handles the provider redirect back to us. Success lands on
// the home page, failure on the login page.
func (h *AuthHandler) OAuthCallback(w http.ResponseWriter, r *http.Request) {
	provider := chi.URLParam(r, "provider")
	code := r.URL.Query().Get("code")
	state := r.URL.Query().Get("state")

	if errMsg := r.URL.Query().Get("error"); errMsg != "" || code == "" {
		http.Redirect(w, r, "/login.html?error=oauth_failed", http.StatusFound)
		return
	}

	// Verify state
	session, _ := h.sessionStore.Get(r, OAuthStateCookie)
	savedState, ok := session.Values["state"].(string)
	if !ok || savedState != state {
		http.Redirect(w, r, "/login.html?error=invalid_state", http.StatusFound)
		return
	}

	// Clear the state cookie
	session.Options.MaxAge = -1
	session.Save(r, w)

	_, token, err := h.oauth.HandleCallback(r.Context(), provider, code)
	if err != nil {
		h.logger.Error("oauth callback failed",
			slog.String("provider", provider),
			slog.String("error", err.Error()),
		)
		http.Redirect(w, r, "/login.html?error=oauth_failed", http.StatusFound)
		return
	}

	h.setSessionCookie(w, r, token)
	http.Redirect(w, r, "/", http.StatusFound)
}

// decode parses and validates a JSON request body, writing the error
// response itself when the body is unusable.
func (h *AuthHandler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		response.BadRequest(w, "Invalid JSON body")
		return false
	}

	if err := h.validate.Struct(dst); err != nil {
		fields := make(map[string]string)
		if verrs, ok := err.(validator.ValidationErrors); ok {
			for _, fe := range verrs {
				fields[fe.Field()] = fe.Tag()
			}
		}
		response.ValidationErrors(w, fields)
		return false
	}
	return true
}

// sessionToken extracts the opaque session token from the cookie, if present.
func (h *AuthHandler) sessionToken(r *http.Request) string {
	session, err := h.sessionStore.Get(r, SessionCookieName)
	if err != nil {
		return ""
	}
	token, _ := session.Values["token"].(string)
	return token
}

// setSessionCookie stores the opaque token in the session cookie. The cookie
// never carries the user id or anything derived from the password hash.
func (h *AuthHandler) setSessionCookie(w http.ResponseWriter, r *http.Request, token string) {
	session, _ := h.sessionStore.Get(r, SessionCookieName)
	session.Values["token"] = token
	if err := session.Save(r, w); err != nil {
		h.logger.Error("failed to save session cookie", slog.String("error", err.Error()))
	}
}

func (h *AuthHandler) respondError(w http.ResponseWriter, r *http.Request, err error) {
	if !apierrors.IsAPIError(err) {
		h.logger.Error("auth request failed",
			slog.String("path", r.URL.Path),
			slog.String("error", err.Error()),
		)
	}
	response.Error(w, err)
}

// generateSecureState produces a random string for OAuth CSRF protection.
func generateSecureState() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(b), nil
}
