package middleware

import (
	"context"
	"net/http"

	"github.com/julienschmidt/httprouter"

	"autolibrarian/internal/auth/token"
	apperrors "autolibrarian/pkg/errors"
	httputil "autolibrarian/pkg/http"
	"autolibrarian/pkg/logger"
)

// CookieName is the session cookie carrying the signed identity claim.
const CookieName = "token"

// Capability is the auth requirement a route declares at registration time.
type Capability int

const (
	// CapabilityNone marks a route as intentionally unauthenticated.
	CapabilityNone Capability = iota
	// CapabilitySession requires a valid session cookie before the handler
	// body executes.
	CapabilitySession
)

type claimsKey struct{}

// Guard wraps httprouter handles with the session gate declared per route.
type Guard struct {
	secret string
	log    *logger.Logger
}

func NewGuard(secret string, log *logger.Logger) *Guard {
	return &Guard{
		secret: secret,
		log:    log,
	}
}

// Handle applies the declared capability. The gate runs to completion before
// the handler body; a failed session check never reaches the handler.
func (g *Guard) Handle(capability Capability, h httprouter.Handle) httprouter.Handle {
	if capability == CapabilityNone {
		return h
	}

	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		claims, err := g.authenticate(r)
		if err != nil {
			if writeErr := httputil.WriteError(w, err); writeErr != nil {
				g.log.Error("failed to write error response", "middleware", "Session", "error", writeErr)
			}
			return
		}

		ctx := context.WithValue(r.Context(), claimsKey{}, claims)
		h(w, r.WithContext(ctx), ps)
	}
}

func (g *Guard) authenticate(r *http.Request) (*token.Claims, error) {
	cookie, err := r.Cookie(CookieName)
	if err != nil {
		return nil, apperrors.Unauthorized("missing session cookie")
	}

	claims, err := token.Verify(cookie.Value, g.secret)
	if err != nil {
		g.log.Warn("Session token rejected",
			"path", r.URL.Path,
			"error", err,
		)
		return nil, apperrors.Unauthorized("invalid or expired session")
	}

	return claims, nil
}

// ClaimsFromContext returns the verified session claims attached by the gate.
func ClaimsFromContext(ctx context.Context) (*token.Claims, bool) {
	claims, ok := ctx.Value(claimsKey{}).(*token.Claims)
	return claims, ok
}

// RequireOwner allows the request iff the verified identity is byte-for-byte
// equal to the requested one. No partial matches, no admin override.
func RequireOwner(ctx context.Context, requestedEmail string) error {
	claims, ok := ClaimsFromContext(ctx)
	if !ok {
		return apperrors.Unauthorized("missing session")
	}
	if claims.Email != requestedEmail {
		return apperrors.Forbidden("access to another borrower's records is not allowed")
	}
	return nil
}
