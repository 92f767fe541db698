package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/julienschmidt/httprouter"

	"autolibrarian/internal/auth/middleware"
	"autolibrarian/internal/auth/token"
	"autolibrarian/pkg/config"
	httputil "autolibrarian/pkg/http"
	"autolibrarian/pkg/logger"
	"autolibrarian/pkg/sanitizer"
)

type loginRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type AuthHandler struct {
	cfg      *config.Config
	log      *logger.Logger
	validate *validator.Validate
}

func NewAuthHandler(cfg *config.Config, log *logger.Logger) *AuthHandler {
	return &AuthHandler{
		cfg:      cfg,
		log:      log,
		validate: validator.New(),
	}
}

// Login issues the session cookie for the supplied identity claim.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if writeErr := httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
			Error: "Invalid request body",
		}); writeErr != nil {
			h.log.Error("failed to write JSON response", "handler", "Login", "error", writeErr)
		}
		return
	}

	req.Email = sanitizer.NormalizeEmail(req.Email)
	if err := h.validate.Struct(&req); err != nil {
		if writeErr := httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
			Error: "A valid email is required",
		}); writeErr != nil {
			h.log.Error("failed to write JSON response", "handler", "Login", "error", writeErr)
		}
		return
	}

	signed, err := token.Issue(req.Email, h.cfg.JWTSecret, h.cfg.TokenTTL)
	if err != nil {
		h.log.Error("Failed to sign session token", "error", err)
		if writeErr := httputil.WriteJSON(w, http.StatusInternalServerError, httputil.ErrorResponse{
			Error: "Internal server error",
		}); writeErr != nil {
			h.log.Error("failed to write JSON response", "handler", "Login", "error", writeErr)
		}
		return
	}

	http.SetCookie(w, h.sessionCookie(signed, int(h.cfg.TokenTTL.Seconds())))

	h.log.Info("Session issued", "email", req.Email)
	if err := httputil.WriteSuccess(w, map[string]bool{"success": true}); err != nil {
		h.log.Error("failed to write success response", "handler", "Login", "error", err)
	}
}

// Logout clears the session cookie. There is no server-side revocation; the
// token simply ages out at its expiry.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	cleared := h.sessionCookie("", -1)
	http.SetCookie(w, cleared)

	if err := httputil.WriteSuccess(w, map[string]bool{"success": true}); err != nil {
		h.log.Error("failed to write success response", "handler", "Logout", "error", err)
	}
}

// sessionCookie builds the session cookie. Production deployments serve a
// cross-site front end, hence Secure + SameSite=None; everywhere else the
// stricter same-site default applies.
func (h *AuthHandler) sessionCookie(value string, maxAge int) *http.Cookie {
	cookie := &http.Cookie{
		Name:     middleware.CookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
	}
	if h.cfg.Production {
		cookie.Secure = true
		cookie.SameSite = http.SameSiteNoneMode
	} else {
		cookie.SameSite = http.SameSiteStrictMode
	}
	return cookie
}

func (h *AuthHandler) RegisterRoutes(router *httprouter.Router, guard *middleware.Guard) {
	router.POST("/jwt", guard.Handle(middleware.CapabilityNone, h.Login))
	router.POST("/logout", guard.Handle(middleware.CapabilityNone, h.Logout))
}
