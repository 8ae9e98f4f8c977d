package auth

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
)

type contextKey string

const principalKey contextKey = "principal"

// ExternalSession is the upstream session material the bearer credential
// resolved to. Handlers that forward calls to the hospital system read the
// session code from here instead of looking it up again.
type ExternalSession struct {
	ID          string
	Username    string
	SessionCode string
	ExpiresAt   time.Time
}

// Principal is the authenticated identity attached to the request context.
// For external sessions, ExternalUsername carries the upstream account name
// and Session the full upstream credential; both are empty on the local
// JWT path.
type Principal struct {
	UserID           string
	Username         string
	Email            string
	Role             string
	ExternalUsername string
	Session          *ExternalSession
}

// ExternalValidator resolves an opaque external session code to a principal.
// It returns an error when no active session matches the code.
type ExternalValidator interface {
	ValidateSessionCode(ctx context.Context, code string) (*Principal, error)
}

// externalCodeMinLen separates external session codes from short opaque
// strings that are treated as (broken) local tokens.
const externalCodeMinLen = 51

// tokenKind classifies a bearer credential before validation. Local JWTs
// always contain dots; external session codes are long dotless strings.
type tokenKind int

const (
	kindLocal tokenKind = iota
	kindExternal
)

func classifyToken(token string) tokenKind {
	if strings.Contains(token, ".") {
		return kindLocal
	}
	if len(token) >= externalCodeMinLen {
		return kindExternal
	}
	return kindLocal
}

// Config wires the dual authentication selector.
type Config struct {
	Issuer *TokenIssuer
	// External validates session codes. May be nil, which disables the
	// external path entirely.
	External ExternalValidator
	// Skipper reports whether a request bypasses authentication.
	Skipper func(c echo.Context) bool
	// ExternalEligible reports whether a request may fall back to
	// external-session authentication when its credential looks external.
	ExternalEligible func(c echo.Context) bool
}

// Middleware returns the dual authentication selector. Public routes skip
// auth entirely. External-eligible routes try the external session path first
// when the credential looks like a session code, surfacing the external
// failure rather than masking it with a local-token error.
func Middleware(cfg Config) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if cfg.Skipper != nil && cfg.Skipper(c) {
				return next(c)
			}

			token, err := bearerToken(c)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, err.Error())
			}

			eligible := cfg.External != nil && cfg.ExternalEligible != nil && cfg.ExternalEligible(c)
			if eligible && classifyToken(token) == kindExternal {
				principal, err := cfg.External.ValidateSessionCode(c.Request().Context(), token)
				if err != nil {
					return echo.NewHTTPError(http.StatusUnauthorized, err.Error())
				}
				setPrincipal(c, principal)
				return next(c)
			}

			claims, err := cfg.Issuer.Verify(token)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, err.Error())
			}
			setPrincipal(c, &Principal{
				UserID:   claims.Subject,
				Username: claims.Username,
				Email:    claims.Email,
				Role:     claims.Role,
			})
			return next(c)
		}
	}
}

func bearerToken(c echo.Context) (string, error) {
	authHeader := c.Request().Header.Get("Authorization")
	if authHeader == "" {
		return "", ErrTokenMissing
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", ErrTokenMalformed
	}
	if parts[1] == "" {
		return "", ErrTokenMissing
	}
	return parts[1], nil
}

func setPrincipal(c echo.Context, p *Principal) {
	ctx := context.WithValue(c.Request().Context(), principalKey, p)
	c.SetRequest(c.Request().WithContext(ctx))
}

// PrincipalFromContext returns the authenticated principal, or nil for
// unauthenticated (public) requests.
func PrincipalFromContext(ctx context.Context) *Principal {
	p, _ := ctx.Value(principalKey).(*Principal)
	return p
}
